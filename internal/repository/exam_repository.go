package repository

import (
	"smart_edu_backend/internal/model"

	"gorm.io/gorm"
)

type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

func (r *ExamRepository) Create(exam *model.Exam) error {
	return r.DB.Create(exam).Error
}

func (r *ExamRepository) Update(exam *model.Exam) error {
	return r.DB.Save(exam).Error
}

func (r *ExamRepository) FindByID(id uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.Preload("Subject").Preload("Class").First(&exam, id).Error
	return &exam, err
}

func (r *ExamRepository) ListByClass(classID uint) ([]model.Exam, error) {
	var exams []model.Exam
	err := r.DB.Preload("Subject").
		Where("class_id = ?", classID).
		Order("exam_date desc").
		Find(&exams).Error
	return exams, err
}

// ListByClassAndSubject 按考试时间升序，用于趋势分析
func (r *ExamRepository) ListByClassAndSubject(classID, subjectID uint) ([]model.Exam, error) {
	var exams []model.Exam
	err := r.DB.Where("class_id = ? AND subject_id = ?", classID, subjectID).
		Order("exam_date asc, id asc").
		Find(&exams).Error
	return exams, err
}
