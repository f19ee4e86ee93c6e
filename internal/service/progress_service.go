package service

import (
	"errors"
	"time"

	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/repository"
	"smart_edu_backend/internal/util"
	"smart_edu_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProgressService 辅导方案执行进度
// 计数通过重新统计落库而不是就地累加，重复上报不会把进度翻倍
type ProgressService struct {
	PlanRepo     *repository.TutoringPlanRepository
	ProgressRepo *repository.ProgressRepository
}

func NewProgressService(
	planRepo *repository.TutoringPlanRepository,
	progressRepo *repository.ProgressRepository,
) *ProgressService {
	return &ProgressService{
		PlanRepo:     planRepo,
		ProgressRepo: progressRepo,
	}
}

func (s *ProgressService) activePlanForModule(moduleID string) (*model.TutoringPlan, *model.TutoringModule, error) {
	module, err := s.PlanRepo.FindModule(moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrModuleNotFound
		}
		return nil, nil, err
	}

	plan, err := s.PlanRepo.FindByID(module.PlanID)
	if err != nil {
		return nil, nil, err
	}
	if plan.Status != model.PlanActive {
		return nil, nil, util.ErrPlanNotActive
	}
	return plan, module, nil
}

// StartModule 模块开始学习，pending → in_progress
func (s *ProgressService) StartModule(moduleID string) (*model.TutoringModule, error) {
	_, module, err := s.activePlanForModule(moduleID)
	if err != nil {
		return nil, err
	}

	// 已开始或已完成的模块原样返回
	if module.Status != model.ModulePending {
		return module, nil
	}

	module.Status = model.ModuleInProgress
	if err := s.PlanRepo.UpdateModule(module); err != nil {
		return nil, err
	}
	s.touch(module.PlanID)
	return module, nil
}

// CompleteModule 模块完成上报，全部模块结清后方案自动转为已完成
func (s *ProgressService) CompleteModule(moduleID string) (*model.LearningProgress, error) {
	plan, module, err := s.activePlanForModule(moduleID)
	if err != nil {
		return nil, err
	}

	if module.Status != model.ModuleCompleted {
		now := time.Now()
		module.Status = model.ModuleCompleted
		module.CompletedAt = &now
		if err := s.PlanRepo.UpdateModule(module); err != nil {
			return nil, err
		}
	}

	progress, err := s.recompute(plan.ID)
	if err != nil {
		return nil, err
	}

	// 完成和跳过的模块合计达到总数时结束方案
	total, completed, skipped, err := s.PlanRepo.CountModules(plan.ID)
	if err == nil && total > 0 && completed+skipped >= total {
		now := time.Now()
		plan.Status = model.PlanCompleted
		plan.CompletedAt = &now
		if err := s.PlanRepo.Update(plan); err != nil {
			logger.Log.Error("Plan auto-completion failed", zap.String("planId", plan.ID), zap.Error(err))
		} else {
			logger.Log.Info("Tutoring plan completed", zap.String("planId", plan.ID))
		}
	}

	return progress, nil
}

// SkipModule 跳过模块，仅允许未开始的模块
func (s *ProgressService) SkipModule(moduleID string) (*model.TutoringModule, error) {
	_, module, err := s.activePlanForModule(moduleID)
	if err != nil {
		return nil, err
	}

	if module.Status == model.ModuleSkipped {
		return module, nil
	}
	if module.Status != model.ModulePending {
		return nil, util.ErrInvalidPlanTransition
	}

	module.Status = model.ModuleSkipped
	if err := s.PlanRepo.UpdateModule(module); err != nil {
		return nil, err
	}
	s.touch(module.PlanID)
	return module, nil
}

// CompleteExercise 练习题完成上报，可携带百分制得分与用时（分钟）
// 重复上报幂等：只有首次上报会记录得分与用时，计数不会翻倍
func (s *ProgressService) CompleteExercise(exerciseID string, score *float64, timeSpentMinutes int) (*model.LearningProgress, error) {
	if score != nil && (*score < 0 || *score > 100) {
		return nil, util.ErrInvalidScore
	}

	exercise, err := s.PlanRepo.FindExercise(exerciseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExerciseNotFound
		}
		return nil, err
	}

	module, err := s.PlanRepo.FindModule(exercise.ModuleID)
	if err != nil {
		return nil, err
	}
	plan, err := s.PlanRepo.FindByID(module.PlanID)
	if err != nil {
		return nil, err
	}
	if plan.Status != model.PlanActive {
		return nil, util.ErrPlanNotActive
	}

	if !exercise.Completed {
		now := time.Now()
		exercise.Completed = true
		exercise.Score = score
		if timeSpentMinutes > 0 {
			exercise.TimeSpentMinutes = timeSpentMinutes
		}
		exercise.CompletedAt = &now
		if err := s.PlanRepo.UpdateExercise(exercise); err != nil {
			return nil, err
		}
	}

	return s.recompute(plan.ID)
}

// PlanProgress 查询方案进度
func (s *ProgressService) PlanProgress(planID string) (*model.LearningProgress, error) {
	progress, err := s.ProgressRepo.FindByPlan(planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPlanNotFound
		}
		return nil, err
	}
	return progress, nil
}

func (s *ProgressService) StudentProgress(studentID uint) ([]model.LearningProgress, error) {
	return s.ProgressRepo.ListByStudent(studentID)
}

// Recalculate 批量修正计数时使用的重算入口，供运维脚本调用
func (s *ProgressService) Recalculate(planID string) (*model.LearningProgress, error) {
	return s.recompute(planID)
}

// recompute 从模块与练习明细重算进度计数并落库
func (s *ProgressService) recompute(planID string) (*model.LearningProgress, error) {
	progress, err := s.ProgressRepo.FindByPlan(planID)
	if err != nil {
		return nil, err
	}

	totalModules, completedModules, _, err := s.PlanRepo.CountModules(planID)
	if err != nil {
		return nil, err
	}
	totalExercises, completedExercises, err := s.PlanRepo.CountExercises(planID)
	if err != nil {
		return nil, err
	}
	scored, scoreSum, minutes, err := s.PlanRepo.ExerciseAggregates(planID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	progress.TotalModules = int(totalModules)
	progress.CompletedModules = int(completedModules)
	progress.TotalExercises = int(totalExercises)
	progress.CompletedExercises = int(completedExercises)
	progress.TotalTimeSpent = int(minutes)
	progress.LastActivityAt = &now
	if totalModules > 0 {
		progress.CompletionRate = float64(completedModules) / float64(totalModules)
	}
	if scored > 0 {
		progress.AverageScore = scoreSum / float64(scored)
	}

	if err := s.ProgressRepo.Save(progress); err != nil {
		return nil, err
	}
	return progress, nil
}

func (s *ProgressService) touch(planID string) {
	progress, err := s.ProgressRepo.FindByPlan(planID)
	if err != nil {
		return
	}
	now := time.Now()
	progress.LastActivityAt = &now
	if err := s.ProgressRepo.Save(progress); err != nil {
		logger.Log.Warn("Progress touch failed", zap.String("planId", planID), zap.Error(err))
	}
}
