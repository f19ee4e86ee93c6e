package repository

import (
	"smart_edu_backend/internal/model"

	"gorm.io/gorm"
)

type KnowledgePointRepository struct {
	DB *gorm.DB
}

func NewKnowledgePointRepository(db *gorm.DB) *KnowledgePointRepository {
	return &KnowledgePointRepository{DB: db}
}

func (r *KnowledgePointRepository) Create(kp *model.KnowledgePoint) error {
	return r.DB.Create(kp).Error
}

func (r *KnowledgePointRepository) Update(kp *model.KnowledgePoint) error {
	return r.DB.Save(kp).Error
}

func (r *KnowledgePointRepository) FindByID(id string) (*model.KnowledgePoint, error) {
	var kp model.KnowledgePoint
	err := r.DB.Where("id = ?", id).First(&kp).Error
	return &kp, err
}

func (r *KnowledgePointRepository) ListBySubject(subjectID uint) ([]model.KnowledgePoint, error) {
	var kps []model.KnowledgePoint
	err := r.DB.Where("subject_id = ?", subjectID).
		Order("`order` asc, created_at asc").
		Find(&kps).Error
	return kps, err
}

func (r *KnowledgePointRepository) ListByIDs(ids []string) ([]model.KnowledgePoint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var kps []model.KnowledgePoint
	err := r.DB.Where("id IN ?", ids).Find(&kps).Error
	return kps, err
}
