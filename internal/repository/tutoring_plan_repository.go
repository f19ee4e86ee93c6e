package repository

import (
	"smart_edu_backend/internal/model"

	"gorm.io/gorm"
)

type TutoringPlanRepository struct {
	DB *gorm.DB
}

func NewTutoringPlanRepository(db *gorm.DB) *TutoringPlanRepository {
	return &TutoringPlanRepository{DB: db}
}

// Create 方案连同模块和练习一次事务写入
func (r *TutoringPlanRepository) Create(plan *model.TutoringPlan) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(plan).Error
	})
}

func (r *TutoringPlanRepository) Update(plan *model.TutoringPlan) error {
	return r.DB.Save(plan).Error
}

func (r *TutoringPlanRepository) FindByID(id string) (*model.TutoringPlan, error) {
	var plan model.TutoringPlan
	err := r.DB.Preload("Modules", func(db *gorm.DB) *gorm.DB {
		return db.Order("tutoring_modules.order_index asc")
	}).
		Preload("Modules.Exercises").
		Preload("Modules.KnowledgePoint").
		Preload("Subject").
		Where("id = ?", id).
		First(&plan).Error
	return &plan, err
}

func (r *TutoringPlanRepository) ListByStudent(studentID uint) ([]model.TutoringPlan, error) {
	var plans []model.TutoringPlan
	err := r.DB.Preload("Subject").
		Where("student_id = ?", studentID).
		Order("created_at desc").
		Find(&plans).Error
	return plans, err
}

func (r *TutoringPlanRepository) FindModule(moduleID string) (*model.TutoringModule, error) {
	var module model.TutoringModule
	err := r.DB.Preload("Exercises").Where("id = ?", moduleID).First(&module).Error
	return &module, err
}

func (r *TutoringPlanRepository) UpdateModule(module *model.TutoringModule) error {
	return r.DB.Save(module).Error
}

func (r *TutoringPlanRepository) FindExercise(exerciseID string) (*model.ModuleExercise, error) {
	var exercise model.ModuleExercise
	err := r.DB.Where("id = ?", exerciseID).First(&exercise).Error
	return &exercise, err
}

func (r *TutoringPlanRepository) UpdateExercise(exercise *model.ModuleExercise) error {
	return r.DB.Save(exercise).Error
}

func (r *TutoringPlanRepository) CountModules(planID string) (total, completed, skipped int64, err error) {
	err = r.DB.Model(&model.TutoringModule{}).
		Where("plan_id = ?", planID).
		Count(&total).Error
	if err != nil {
		return
	}
	err = r.DB.Model(&model.TutoringModule{}).
		Where("plan_id = ? AND status = ?", planID, model.ModuleCompleted).
		Count(&completed).Error
	if err != nil {
		return
	}
	err = r.DB.Model(&model.TutoringModule{}).
		Where("plan_id = ? AND status = ?", planID, model.ModuleSkipped).
		Count(&skipped).Error
	return
}

func (r *TutoringPlanRepository) CountExercises(planID string) (total, completed int64, err error) {
	err = r.DB.Model(&model.ModuleExercise{}).
		Joins("JOIN tutoring_modules ON tutoring_modules.id = module_exercises.module_id").
		Where("tutoring_modules.plan_id = ?", planID).
		Count(&total).Error
	if err != nil {
		return
	}
	err = r.DB.Model(&model.ModuleExercise{}).
		Joins("JOIN tutoring_modules ON tutoring_modules.id = module_exercises.module_id").
		Where("tutoring_modules.plan_id = ? AND module_exercises.completed = ?", planID, true).
		Count(&completed).Error
	return
}

// ExerciseAggregates 汇总已完成练习的得分与用时
// scored 只统计带得分的练习，用时包含未判分的
func (r *TutoringPlanRepository) ExerciseAggregates(planID string) (scored int64, scoreSum float64, minutes int64, err error) {
	var row struct {
		Scored   int64
		ScoreSum float64
		Minutes  int64
	}
	err = r.DB.Model(&model.ModuleExercise{}).
		Select("COUNT(module_exercises.score) AS scored, COALESCE(SUM(module_exercises.score), 0) AS score_sum, COALESCE(SUM(module_exercises.time_spent_minutes), 0) AS minutes").
		Joins("JOIN tutoring_modules ON tutoring_modules.id = module_exercises.module_id").
		Where("tutoring_modules.plan_id = ? AND module_exercises.completed = ?", planID, true).
		Scan(&row).Error
	return row.Scored, row.ScoreSum, row.Minutes, err
}
