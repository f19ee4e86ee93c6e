package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"smart_edu_backend/internal/config"
	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/repository"
	"smart_edu_backend/internal/util"
	"smart_edu_backend/pkg/database"

	"gorm.io/gorm"
)

type stubTextGen struct {
	narrative PlanNarrative
	err       error
}

func (s *stubTextGen) Narrative(_ context.Context, _ PlanTextInput) (PlanNarrative, error) {
	return s.narrative, s.err
}

func newPlanService(db *gorm.DB, textGen PlanTextGenerator) *TutoringPlanService {
	return NewTutoringPlanService(
		repository.NewTutoringPlanRepository(db),
		repository.NewProgressRepository(db),
		repository.NewRuleRepository(db),
		repository.NewKnowledgePointRepository(db),
		repository.NewUserRepository(db),
		repository.NewSubjectRepository(db),
		newMasteryService(db),
		textGen,
		config.TutoringDefaults(),
	)
}

// planFixture 一个学生在数学学科下五种掌握状态俱全的场景
type planFixture struct {
	student  *model.User
	subject  *model.Subject
	kpWeak   *model.KnowledgePoint // 掌握度 0.2，短板
	kpReview *model.KnowledgePoint // 需复习
	kpMid    *model.KnowledgePoint // 学习中 0.5
	kpNew    *model.KnowledgePoint // 未练习
	kpHigh   *model.KnowledgePoint // 掌握度 0.75，接近达标
}

func setupPlanFixture(t *testing.T, db *gorm.DB) planFixture {
	t.Helper()
	database.Seed(db)

	subject := seededSubject(t, db, "math")
	student := createStudent(t, db, "方案学生", nil)

	newKP := func(name string, order int) *model.KnowledgePoint {
		kp := &model.KnowledgePoint{
			SubjectID:  subject.ID,
			Name:       name,
			Difficulty: model.DifficultyMedium,
			Order:      order,
		}
		if err := db.Create(kp).Error; err != nil {
			t.Fatalf("create kp: %v", err)
		}
		return kp
	}
	seedMastery := func(kp *model.KnowledgePoint, level float64, status model.MasteryStatus) {
		m := &model.KnowledgePointMastery{
			StudentID:        student.ID,
			KnowledgePointID: kp.ID,
			MasteryLevel:     level,
			PracticeCount:    3,
			Status:           status,
		}
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("seed mastery: %v", err)
		}
	}

	f := planFixture{
		student:  student,
		subject:  subject,
		kpWeak:   newKP("有理数运算", 1),
		kpReview: newKP("绝对值", 2),
		kpMid:    newKP("整式加减", 3),
		kpNew:    newKP("一元一次方程", 4),
		kpHigh:   newKP("数轴", 5),
	}
	seedMastery(f.kpWeak, 0.2, model.MasteryInProgress)
	seedMastery(f.kpReview, 0.6, model.MasteryNeedsReview)
	seedMastery(f.kpMid, 0.5, model.MasteryInProgress)
	seedMastery(f.kpHigh, 0.75, model.MasteryInProgress)
	return f
}

func TestGeneratePlanOrderingAndTypes(t *testing.T) {
	db := openTestDB(t)
	f := setupPlanFixture(t, db)
	s := newPlanService(db, nil)

	plan, err := s.GeneratePlan(context.Background(), f.student.ID, f.subject.ID, f.student.ID, nil)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}

	if plan.Status != model.PlanDraft {
		t.Errorf("Status = %s, want draft", plan.Status)
	}
	if len(plan.Modules) != 5 {
		t.Fatalf("modules = %d, want 5", len(plan.Modules))
	}

	// 规则优先级：短板 → 需复习 → 学习中 → 未开始 → 接近达标
	wantOrder := []string{f.kpWeak.ID, f.kpReview.ID, f.kpMid.ID, f.kpNew.ID, f.kpHigh.ID}
	wantTypes := []model.ModuleType{
		model.ModuleTypeLesson,
		model.ModuleTypeExercise,
		model.ModuleTypeExercise,
		model.ModuleTypeLesson,
		model.ModuleTypeAssessment,
	}
	for i, m := range plan.Modules {
		if m.KnowledgePointID != wantOrder[i] {
			t.Errorf("module %d targets %s, want %s", i, m.KnowledgePointID, wantOrder[i])
		}
		if m.Type != wantTypes[i] {
			t.Errorf("module %d type = %s, want %s", i, m.Type, wantTypes[i])
		}
		// OrderIndex 为 0..N-1 连续且无重复
		if m.OrderIndex != i {
			t.Errorf("module %d OrderIndex = %d, want %d", i, m.OrderIndex, i)
		}
	}

	// 练习/测评模块带练习题，讲解模块不带
	for _, m := range plan.Modules {
		hasExercises := len(m.Exercises) > 0
		wantExercises := m.Type != model.ModuleTypeLesson
		if hasExercises != wantExercises {
			t.Errorf("module type %s has %d exercises", m.Type, len(m.Exercises))
		}
	}

	// 进度随方案初始化
	progress, err := s.ProgressRepo.FindByPlan(plan.ID)
	if err != nil {
		t.Fatalf("progress not initialized: %v", err)
	}
	if progress.TotalModules != 5 || progress.CompletedModules != 0 {
		t.Errorf("progress = %+v, want 5 total / 0 completed", progress)
	}
	if progress.TotalExercises != 9 { // 3 个练习/测评模块 × 3 题
		t.Errorf("TotalExercises = %d, want 9", progress.TotalExercises)
	}
}

func TestGeneratePlanDeterministic(t *testing.T) {
	db := openTestDB(t)
	f := setupPlanFixture(t, db)
	s := newPlanService(db, &stubTextGen{narrative: PlanNarrative{Summary: "固定文案"}})

	first, err := s.GeneratePlan(context.Background(), f.student.ID, f.subject.ID, f.student.ID, nil)
	if err != nil {
		t.Fatalf("first GeneratePlan: %v", err)
	}
	second, err := s.GeneratePlan(context.Background(), f.student.ID, f.subject.ID, f.student.ID, nil)
	if err != nil {
		t.Fatalf("second GeneratePlan: %v", err)
	}

	if len(first.Modules) != len(second.Modules) {
		t.Fatalf("module counts differ: %d vs %d", len(first.Modules), len(second.Modules))
	}
	for i := range first.Modules {
		if first.Modules[i].KnowledgePointID != second.Modules[i].KnowledgePointID {
			t.Errorf("module %d selection differs: %s vs %s",
				i, first.Modules[i].KnowledgePointID, second.Modules[i].KnowledgePointID)
		}
		if first.Modules[i].Type != second.Modules[i].Type {
			t.Errorf("module %d type differs", i)
		}
	}
}

func TestGeneratePlanTextFallback(t *testing.T) {
	db := openTestDB(t)
	f := setupPlanFixture(t, db)

	// planObjectives 解出方案的学习目标列表
	planObjectives := func(t *testing.T, plan *model.TutoringPlan) []string {
		t.Helper()
		var objectives []string
		if err := json.Unmarshal([]byte(plan.Objectives), &objectives); err != nil {
			t.Fatalf("objectives %q is not a JSON array: %v", plan.Objectives, err)
		}
		return objectives
	}

	t.Run("no generator configured", func(t *testing.T) {
		s := newPlanService(db, nil)
		plan, err := s.GeneratePlan(context.Background(), f.student.ID, f.subject.ID, f.student.ID, nil)
		if err != nil {
			t.Fatalf("GeneratePlan: %v", err)
		}
		if plan.TextSource != model.TextSourceTemplate || plan.Summary == "" {
			t.Errorf("TextSource = %s summary %q, want template fallback", plan.TextSource, plan.Summary)
		}
		if len(planObjectives(t, plan)) == 0 {
			t.Error("template fallback produced no objectives")
		}
		for i, m := range plan.Modules {
			if m.Description == "" {
				t.Errorf("module %d has empty description", i)
			}
			for j, e := range m.Exercises {
				if e.Explanation == "" {
					t.Errorf("module %d exercise %d has empty explanation", i, j)
				}
			}
		}
	})

	t.Run("generator fails", func(t *testing.T) {
		s := newPlanService(db, &stubTextGen{err: util.ErrTextGenerationUnavailable})
		plan, err := s.GeneratePlan(context.Background(), f.student.ID, f.subject.ID, f.student.ID, nil)
		if err != nil {
			t.Fatalf("GeneratePlan must not fail on text generation: %v", err)
		}
		if plan.TextSource != model.TextSourceTemplate || plan.Summary == "" {
			t.Errorf("TextSource = %s summary %q, want template fallback", plan.TextSource, plan.Summary)
		}
		if len(planObjectives(t, plan)) == 0 {
			t.Error("template fallback produced no objectives")
		}
	})

	t.Run("generator succeeds", func(t *testing.T) {
		s := newPlanService(db, &stubTextGen{narrative: PlanNarrative{
			Summary:     "AI 生成的方案说明",
			Objectives:  []string{"两周内补齐有理数运算"},
			ModuleNotes: map[string]string{"有理数运算": "先回顾符号法则再做混合运算"},
		}})
		plan, err := s.GeneratePlan(context.Background(), f.student.ID, f.subject.ID, f.student.ID, nil)
		if err != nil {
			t.Fatalf("GeneratePlan: %v", err)
		}
		if plan.TextSource != model.TextSourceAI || plan.Summary != "AI 生成的方案说明" {
			t.Errorf("TextSource = %s summary %q, want ai text", plan.TextSource, plan.Summary)
		}
		objectives := planObjectives(t, plan)
		if len(objectives) != 1 || objectives[0] != "两周内补齐有理数运算" {
			t.Errorf("objectives = %v, want the generated objective", objectives)
		}

		// 生成的模块说明用在对应模块上，其余模块由模板补齐
		for i, m := range plan.Modules {
			want := ""
			if m.KnowledgePointID == f.kpWeak.ID {
				want = "先回顾符号法则再做混合运算"
			}
			if want != "" && m.Description != want {
				t.Errorf("module %d description = %q, want generated note", i, m.Description)
			}
			if m.Description == "" {
				t.Errorf("module %d has empty description", i)
			}
		}
	})
}

func TestGeneratePlanNoTargets(t *testing.T) {
	db := openTestDB(t)
	database.Seed(db)
	s := newPlanService(db, nil)

	subject := seededSubject(t, db, "physics")
	student := createStudent(t, db, "无知识点学生", nil)

	if _, err := s.GeneratePlan(context.Background(), student.ID, subject.ID, student.ID, nil); !errors.Is(err, util.ErrNoTutoringTargets) {
		t.Errorf("err = %v, want ErrNoTutoringTargets", err)
	}
}

func TestPlanStatusTransitions(t *testing.T) {
	db := openTestDB(t)
	f := setupPlanFixture(t, db)
	s := newPlanService(db, nil)

	plan, err := s.GeneratePlan(context.Background(), f.student.ID, f.subject.ID, f.student.ID, nil)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}

	// draft 不能直接完成
	if _, err := s.Transition(plan.ID, model.PlanCompleted); !errors.Is(err, util.ErrInvalidPlanTransition) {
		t.Errorf("draft→completed: err = %v, want ErrInvalidPlanTransition", err)
	}

	activated, err := s.Transition(plan.ID, model.PlanActive)
	if err != nil {
		t.Fatalf("draft→active: %v", err)
	}
	if activated.ActivatedAt == nil {
		t.Error("ActivatedAt not set")
	}

	if _, err := s.Transition(plan.ID, model.PlanPaused); err != nil {
		t.Fatalf("active→paused: %v", err)
	}
	if _, err := s.Transition(plan.ID, model.PlanActive); err != nil {
		t.Fatalf("paused→active: %v", err)
	}
	if _, err := s.Transition(plan.ID, model.PlanCompleted); err != nil {
		t.Fatalf("active→completed: %v", err)
	}

	// completed 是终态
	if _, err := s.Transition(plan.ID, model.PlanActive); !errors.Is(err, util.ErrInvalidPlanTransition) {
		t.Errorf("completed→active: err = %v, want ErrInvalidPlanTransition", err)
	}
}
