package repository

import (
	"smart_edu_backend/internal/model"

	"gorm.io/gorm"
)

type ClassRepository struct {
	DB *gorm.DB
}

func NewClassRepository(db *gorm.DB) *ClassRepository {
	return &ClassRepository{DB: db}
}

func (r *ClassRepository) Create(class *model.Class) error {
	return r.DB.Create(class).Error
}

func (r *ClassRepository) Update(class *model.Class) error {
	return r.DB.Save(class).Error
}

func (r *ClassRepository) FindByID(id uint) (*model.Class, error) {
	var class model.Class
	err := r.DB.First(&class, id).Error
	return &class, err
}

func (r *ClassRepository) FindWithStudents(id uint) (*model.Class, error) {
	var class model.Class
	err := r.DB.Preload("Students", "role = ?", model.Student).First(&class, id).Error
	return &class, err
}

func (r *ClassRepository) List() ([]model.Class, error) {
	var classes []model.Class
	err := r.DB.Order("grade_level asc, name asc").Find(&classes).Error
	return classes, err
}
