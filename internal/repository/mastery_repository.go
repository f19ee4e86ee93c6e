package repository

import (
	"smart_edu_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type MasteryRepository struct {
	DB *gorm.DB
}

func NewMasteryRepository(db *gorm.DB) *MasteryRepository {
	return &MasteryRepository{DB: db}
}

func (r *MasteryRepository) Find(studentID uint, kpID string) (*model.KnowledgePointMastery, error) {
	var mastery model.KnowledgePointMastery
	err := r.DB.Where("student_id = ? AND knowledge_point_id = ?", studentID, kpID).
		First(&mastery).Error
	return &mastery, err
}

func (r *MasteryRepository) Save(mastery *model.KnowledgePointMastery) error {
	return r.DB.Save(mastery).Error
}

func (r *MasteryRepository) Create(mastery *model.KnowledgePointMastery) error {
	return r.DB.Create(mastery).Error
}

func (r *MasteryRepository) ListByStudent(studentID uint) ([]model.KnowledgePointMastery, error) {
	var masteries []model.KnowledgePointMastery
	err := r.DB.Preload("KnowledgePoint").
		Where("student_id = ?", studentID).
		Find(&masteries).Error
	return masteries, err
}

// ListByStudentAndSubject 通过知识点表过滤出某学科下的掌握记录
func (r *MasteryRepository) ListByStudentAndSubject(studentID, subjectID uint) ([]model.KnowledgePointMastery, error) {
	var masteries []model.KnowledgePointMastery
	err := r.DB.Preload("KnowledgePoint").
		Joins("JOIN knowledge_points ON knowledge_points.id = knowledge_point_masteries.knowledge_point_id").
		Where("knowledge_point_masteries.student_id = ? AND knowledge_points.subject_id = ?", studentID, subjectID).
		Find(&masteries).Error
	return masteries, err
}

// MarkStale 把久未练习的已掌握记录批量置为需复习，返回影响行数
func (r *MasteryRepository) MarkStale(cutoff time.Time) (int64, error) {
	result := r.DB.Model(&model.KnowledgePointMastery{}).
		Where("status = ? AND last_practiced_at IS NOT NULL AND last_practiced_at < ?", model.MasteryMastered, cutoff).
		Update("status", model.MasteryNeedsReview)
	return result.RowsAffected, result.Error
}

func (r *MasteryRepository) CountByStatus(studentID uint) (map[model.MasteryStatus]int, error) {
	type row struct {
		Status model.MasteryStatus
		Cnt    int
	}
	var rows []row
	err := r.DB.Model(&model.KnowledgePointMastery{}).
		Select("status, count(*) as cnt").
		Where("student_id = ?", studentID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[model.MasteryStatus]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Cnt
	}
	return counts, nil
}
