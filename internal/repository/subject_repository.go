package repository

import (
	"smart_edu_backend/internal/model"

	"gorm.io/gorm"
)

type SubjectRepository struct {
	DB *gorm.DB
}

func NewSubjectRepository(db *gorm.DB) *SubjectRepository {
	return &SubjectRepository{DB: db}
}

func (r *SubjectRepository) Create(subject *model.Subject) error {
	return r.DB.Create(subject).Error
}

func (r *SubjectRepository) FindByID(id uint) (*model.Subject, error) {
	var subject model.Subject
	err := r.DB.First(&subject, id).Error
	return &subject, err
}

func (r *SubjectRepository) FindByCode(code string) (*model.Subject, error) {
	var subject model.Subject
	err := r.DB.Where("code = ?", code).First(&subject).Error
	return &subject, err
}

func (r *SubjectRepository) List() ([]model.Subject, error) {
	var subjects []model.Subject
	err := r.DB.Order("id asc").Find(&subjects).Error
	return subjects, err
}
