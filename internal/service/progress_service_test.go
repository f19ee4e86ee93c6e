package service

import (
	"context"
	"errors"
	"testing"

	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/repository"
	"smart_edu_backend/internal/util"

	"gorm.io/gorm"
)

func newProgressService(db *gorm.DB) *ProgressService {
	return NewProgressService(
		repository.NewTutoringPlanRepository(db),
		repository.NewProgressRepository(db),
	)
}

// setupActivePlan 生成一份方案并激活，返回方案与进度服务
func setupActivePlan(t *testing.T, db *gorm.DB) (*model.TutoringPlan, *ProgressService) {
	t.Helper()
	f := setupPlanFixture(t, db)
	planService := newPlanService(db, nil)

	plan, err := planService.GeneratePlan(context.Background(), f.student.ID, f.subject.ID, f.student.ID, nil)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if _, err := planService.Transition(plan.ID, model.PlanActive); err != nil {
		t.Fatalf("activate plan: %v", err)
	}

	plan, err = planService.GetPlan(plan.ID)
	if err != nil {
		t.Fatalf("reload plan: %v", err)
	}
	return plan, newProgressService(db)
}

func TestCompleteModuleUpdatesProgress(t *testing.T) {
	db := openTestDB(t)
	plan, s := setupActivePlan(t, db)

	module := plan.Modules[0]

	started, err := s.StartModule(module.ID)
	if err != nil {
		t.Fatalf("StartModule: %v", err)
	}
	if started.Status != model.ModuleInProgress {
		t.Errorf("Status = %s, want in_progress", started.Status)
	}

	progress, err := s.CompleteModule(module.ID)
	if err != nil {
		t.Fatalf("CompleteModule: %v", err)
	}
	if progress.CompletedModules != 1 {
		t.Errorf("CompletedModules = %d, want 1", progress.CompletedModules)
	}
	if !almostEqual(progress.CompletionRate, 1.0/float64(len(plan.Modules))) {
		t.Errorf("CompletionRate = %v, want 1/%d", progress.CompletionRate, len(plan.Modules))
	}

	// 重复上报不会把计数翻倍
	progress, err = s.CompleteModule(module.ID)
	if err != nil {
		t.Fatalf("repeat CompleteModule: %v", err)
	}
	if progress.CompletedModules != 1 {
		t.Errorf("CompletedModules after repeat = %d, want 1", progress.CompletedModules)
	}

	// 完成时间已记录
	reloaded, err := s.PlanRepo.FindModule(module.ID)
	if err != nil {
		t.Fatalf("reload module: %v", err)
	}
	if reloaded.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
}

func TestCompleteAllModulesFinishesPlan(t *testing.T) {
	db := openTestDB(t)
	plan, s := setupActivePlan(t, db)

	// 跳过第一个模块，其余全部完成，方案应自动结束
	if _, err := s.SkipModule(plan.Modules[0].ID); err != nil {
		t.Fatalf("SkipModule: %v", err)
	}

	var lastCompleted int
	for _, module := range plan.Modules[1:] {
		progress, err := s.CompleteModule(module.ID)
		if err != nil {
			t.Fatalf("CompleteModule: %v", err)
		}
		// 完成计数只增不减
		if progress.CompletedModules < lastCompleted {
			t.Errorf("CompletedModules decreased: %d → %d", lastCompleted, progress.CompletedModules)
		}
		lastCompleted = progress.CompletedModules
	}

	finished, err := s.PlanRepo.FindByID(plan.ID)
	if err != nil {
		t.Fatalf("reload plan: %v", err)
	}
	if finished.Status != model.PlanCompleted {
		t.Errorf("plan status = %s, want completed", finished.Status)
	}
	if finished.CompletedAt == nil {
		t.Error("plan CompletedAt not set")
	}
}

func TestSkipModuleOnlyFromPending(t *testing.T) {
	db := openTestDB(t)
	plan, s := setupActivePlan(t, db)

	module := plan.Modules[0]
	if _, err := s.StartModule(module.ID); err != nil {
		t.Fatalf("StartModule: %v", err)
	}

	// 已开始的模块不允许跳过
	if _, err := s.SkipModule(module.ID); !errors.Is(err, util.ErrInvalidPlanTransition) {
		t.Errorf("skip in_progress: err = %v, want ErrInvalidPlanTransition", err)
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestCompleteExerciseAggregates(t *testing.T) {
	db := openTestDB(t)
	plan, s := setupActivePlan(t, db)

	// 找两道练习题
	var exercises []model.ModuleExercise
	for _, module := range plan.Modules {
		exercises = append(exercises, module.Exercises...)
	}
	if len(exercises) < 2 {
		t.Fatal("fixture has fewer than 2 exercises")
	}

	progress, err := s.CompleteExercise(exercises[0].ID, floatPtr(90), 15)
	if err != nil {
		t.Fatalf("CompleteExercise: %v", err)
	}
	if progress.CompletedExercises != 1 {
		t.Errorf("CompletedExercises = %d, want 1", progress.CompletedExercises)
	}
	if !almostEqual(progress.AverageScore, 90) {
		t.Errorf("AverageScore = %v, want 90", progress.AverageScore)
	}
	if progress.TotalTimeSpent != 15 {
		t.Errorf("TotalTimeSpent = %d, want 15", progress.TotalTimeSpent)
	}

	// 第二道练习计入均分与总用时
	progress, err = s.CompleteExercise(exercises[1].ID, floatPtr(70), 25)
	if err != nil {
		t.Fatalf("second CompleteExercise: %v", err)
	}
	if progress.CompletedExercises != 2 {
		t.Errorf("CompletedExercises = %d, want 2", progress.CompletedExercises)
	}
	if !almostEqual(progress.AverageScore, 80) {
		t.Errorf("AverageScore = %v, want 80", progress.AverageScore)
	}
	if progress.TotalTimeSpent != 40 {
		t.Errorf("TotalTimeSpent = %d, want 40", progress.TotalTimeSpent)
	}

	// 重复上报不会把计数、均分和用时翻倍
	progress, err = s.CompleteExercise(exercises[0].ID, floatPtr(10), 99)
	if err != nil {
		t.Fatalf("repeat CompleteExercise: %v", err)
	}
	if progress.CompletedExercises != 2 {
		t.Errorf("CompletedExercises after repeat = %d, want 2", progress.CompletedExercises)
	}
	if !almostEqual(progress.AverageScore, 80) {
		t.Errorf("AverageScore after repeat = %v, want 80", progress.AverageScore)
	}
	if progress.TotalTimeSpent != 40 {
		t.Errorf("TotalTimeSpent after repeat = %d, want 40", progress.TotalTimeSpent)
	}

	// 完成时间与得分落在练习明细上
	reloaded, err := s.PlanRepo.FindExercise(exercises[0].ID)
	if err != nil {
		t.Fatalf("reload exercise: %v", err)
	}
	if reloaded.CompletedAt == nil || reloaded.Score == nil || *reloaded.Score != 90 {
		t.Errorf("exercise detail = %+v, want completedAt and score 90", reloaded)
	}
}

func TestCompleteExerciseRejectsInvalidScore(t *testing.T) {
	db := openTestDB(t)
	plan, s := setupActivePlan(t, db)

	var exercise *model.ModuleExercise
	for _, module := range plan.Modules {
		if len(module.Exercises) > 0 {
			exercise = &module.Exercises[0]
			break
		}
	}
	if exercise == nil {
		t.Fatal("fixture has no exercises")
	}

	if _, err := s.CompleteExercise(exercise.ID, floatPtr(101), 0); !errors.Is(err, util.ErrInvalidScore) {
		t.Errorf("score 101: err = %v, want ErrInvalidScore", err)
	}
	if _, err := s.CompleteExercise(exercise.ID, floatPtr(-1), 0); !errors.Is(err, util.ErrInvalidScore) {
		t.Errorf("score -1: err = %v, want ErrInvalidScore", err)
	}
}

func TestProgressRequiresActivePlan(t *testing.T) {
	db := openTestDB(t)
	f := setupPlanFixture(t, db)
	planService := newPlanService(db, nil)
	s := newProgressService(db)

	// 草稿方案不接受进度上报
	plan, err := planService.GeneratePlan(context.Background(), f.student.ID, f.subject.ID, f.student.ID, nil)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if _, err := s.CompleteModule(plan.Modules[0].ID); !errors.Is(err, util.ErrPlanNotActive) {
		t.Errorf("err = %v, want ErrPlanNotActive", err)
	}

	if _, err := s.CompleteModule("no-such-module"); !errors.Is(err, util.ErrModuleNotFound) {
		t.Errorf("err = %v, want ErrModuleNotFound", err)
	}
}
