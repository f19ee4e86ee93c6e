package repository

import (
	"smart_edu_backend/internal/model"

	"gorm.io/gorm"
)

type PracticeRepository struct {
	DB *gorm.DB
}

func NewPracticeRepository(db *gorm.DB) *PracticeRepository {
	return &PracticeRepository{DB: db}
}

func (r *PracticeRepository) Create(record *model.PracticeRecord) error {
	return r.DB.Create(record).Error
}

func (r *PracticeRepository) ListByStudentAndPoint(studentID uint, kpID string) ([]model.PracticeRecord, error) {
	var records []model.PracticeRecord
	err := r.DB.Where("student_id = ? AND knowledge_point_id = ?", studentID, kpID).
		Order("practiced_at asc, id asc").
		Find(&records).Error
	return records, err
}

func (r *PracticeRepository) ListByStudent(studentID uint, limit int) ([]model.PracticeRecord, error) {
	var records []model.PracticeRecord
	q := r.DB.Preload("KnowledgePoint").
		Where("student_id = ?", studentID).
		Order("practiced_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&records).Error
	return records, err
}

func (r *PracticeRepository) CountByStudentAndPoint(studentID uint, kpID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.PracticeRecord{}).
		Where("student_id = ? AND knowledge_point_id = ?", studentID, kpID).
		Count(&count).Error
	return count, err
}
