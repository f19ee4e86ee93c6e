package repository

import (
	"smart_edu_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) Create(progress *model.LearningProgress) error {
	return r.DB.Create(progress).Error
}

func (r *ProgressRepository) Save(progress *model.LearningProgress) error {
	return r.DB.Save(progress).Error
}

func (r *ProgressRepository) FindByPlan(planID string) (*model.LearningProgress, error) {
	var progress model.LearningProgress
	err := r.DB.Where("plan_id = ?", planID).First(&progress).Error
	return &progress, err
}

func (r *ProgressRepository) ListByStudent(studentID uint) ([]model.LearningProgress, error) {
	var progresses []model.LearningProgress
	err := r.DB.Where("student_id = ?", studentID).
		Order("updated_at desc").
		Find(&progresses).Error
	return progresses, err
}
