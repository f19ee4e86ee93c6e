package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"smart_edu_backend/internal/config"
	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/repository"
	"smart_edu_backend/internal/util"
	"smart_edu_backend/pkg/logger"
	"smart_edu_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TutoringPlanService struct {
	PlanRepo     *repository.TutoringPlanRepository
	ProgressRepo *repository.ProgressRepository
	RuleRepo     *repository.RuleRepository
	KPRepo       *repository.KnowledgePointRepository
	UserRepo     *repository.UserRepository
	SubjectRepo  *repository.SubjectRepository
	Mastery      *MasteryService
	TextGen      PlanTextGenerator
	Fallback     PlanTextGenerator
	Cfg          config.TutoringConfig
}

func NewTutoringPlanService(
	planRepo *repository.TutoringPlanRepository,
	progressRepo *repository.ProgressRepository,
	ruleRepo *repository.RuleRepository,
	kpRepo *repository.KnowledgePointRepository,
	userRepo *repository.UserRepository,
	subjectRepo *repository.SubjectRepository,
	mastery *MasteryService,
	textGen PlanTextGenerator,
	cfg config.TutoringConfig,
) *TutoringPlanService {
	return &TutoringPlanService{
		PlanRepo:     planRepo,
		ProgressRepo: progressRepo,
		RuleRepo:     ruleRepo,
		KPRepo:       kpRepo,
		UserRepo:     userRepo,
		SubjectRepo:  subjectRepo,
		Mastery:      mastery,
		TextGen:      textGen,
		Fallback:     &TemplateTextGenerator{},
		Cfg:          cfg,
	}
}

// planTarget 一个待排进方案的知识点及其命中的规则
type planTarget struct {
	kp       model.KnowledgePoint
	level    float64
	priority int
	rule     model.RecommendationRule
}

// GeneratePlan 基于掌握度和推荐规则为学生生成一份辅导方案
// 规则按优先级决定知识点顺序，薄弱与需复习的知识点排在最前
// 文案生成失败只降级为模板，不影响方案本身
func (s *TutoringPlanService) GeneratePlan(ctx context.Context, studentID, subjectID, createdBy uint, targetExamID *uint) (*model.TutoringPlan, error) {
	// 1. 基础数据
	student, err := s.UserRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrStudentNotFound
		}
		return nil, err
	}

	subject, err := s.SubjectRepo.FindByID(subjectID)
	if err != nil {
		return nil, err
	}

	rules, err := s.RuleRepo.ListEnabled()
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, util.ErrNoRulesConfigured
	}
	ruleByCondition := make(map[model.RuleCondition]model.RecommendationRule, len(rules))
	for _, r := range rules {
		if _, exists := ruleByCondition[r.Condition]; !exists {
			ruleByCondition[r.Condition] = r
		}
	}

	// 2. 学生在该学科的掌握情况，未练习过的知识点一并补齐
	masteries, err := s.Mastery.StudentMasteryBySubject(studentID, subjectID)
	if err != nil {
		return nil, err
	}
	masteryByKP := make(map[string]model.KnowledgePointMastery, len(masteries))
	for _, m := range masteries {
		masteryByKP[m.KnowledgePointID] = m
	}

	points, err := s.KPRepo.ListBySubject(subjectID)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, util.ErrNoTutoringTargets
	}

	// 3. 每个知识点归类到一条规则
	var targets []planTarget
	for _, kp := range points {
		var condition model.RuleCondition
		var level float64

		m, practiced := masteryByKP[kp.ID]
		if !practiced {
			condition = model.RuleConditionNotStarted
		} else {
			level = m.MasteryLevel
			switch m.Status {
			case model.MasteryNeedsReview:
				condition = model.RuleConditionNeedsReview
			case model.MasteryMastered:
				condition = model.RuleConditionMastered
			case model.MasteryNotStarted:
				condition = model.RuleConditionNotStarted
			default:
				switch {
				case level < s.Cfg.LessonThreshold:
					condition = model.RuleConditionWeakness
				case level >= s.Cfg.AssessThreshold:
					// 掌握度已接近达标但还没满足判定条件，安排测评确认
					condition = model.RuleConditionMastered
				default:
					condition = model.RuleConditionInProgress
				}
			}
		}

		rule, ok := ruleByCondition[condition]
		if !ok {
			continue
		}
		targets = append(targets, planTarget{
			kp:       kp,
			level:    level,
			priority: rule.Priority,
			rule:     rule,
		})
	}
	if len(targets) == 0 {
		return nil, util.ErrNoTutoringTargets
	}

	// 4. 规则优先级升序，同级先排掌握度低的，容量截断
	sort.SliceStable(targets, func(i, j int) bool {
		if targets[i].priority != targets[j].priority {
			return targets[i].priority < targets[j].priority
		}
		return targets[i].level < targets[j].level
	})
	if len(targets) > s.Cfg.MaxModules {
		targets = targets[:s.Cfg.MaxModules]
	}

	// 5. 方案文案：总述、学习目标与各模块说明，先尝试大模型，失败降级为模板
	var briefs []PlanModuleBrief
	var totalMinutes int
	var weakNames, reviewNames []string
	for _, t := range targets {
		totalMinutes += s.estimatedMinutes(t.kp.Difficulty)
		briefs = append(briefs, PlanModuleBrief{
			Name:  t.kp.Name,
			Type:  t.rule.ModuleType,
			Level: t.level,
		})
		switch t.rule.Condition {
		case model.RuleConditionWeakness:
			weakNames = append(weakNames, t.kp.Name)
		case model.RuleConditionNeedsReview:
			reviewNames = append(reviewNames, t.kp.Name)
		}
	}

	textInput := PlanTextInput{
		StudentName: student.Name,
		SubjectName: subject.Name,
		WeakPoints:  weakNames,
		ReviewItems: reviewNames,
		Modules:     briefs,
		ModuleCount: len(targets),
		TotalHours:  float64(totalMinutes) / 60,
	}
	narrative, textSource := s.generateNarrative(ctx, textInput)

	// 6. 组装模块，模块说明与练习解析取自文案
	var modules []model.TutoringModule
	for i, t := range targets {
		description := narrative.ModuleNotes[t.kp.Name]
		if description == "" {
			description = moduleDescription(t.rule.ModuleType, t.kp.Name, t.level)
		}

		module := model.TutoringModule{
			KnowledgePointID: t.kp.ID,
			Type:             t.rule.ModuleType,
			Title:            moduleTitle(t.rule.ModuleType, t.kp.Name),
			Description:      description,
			OrderIndex:       i,
			EstimatedMinutes: s.estimatedMinutes(t.kp.Difficulty),
			Status:           model.ModulePending,
		}

		if t.rule.ModuleType == model.ModuleTypeExercise || t.rule.ModuleType == model.ModuleTypeAssessment {
			module.Exercises = s.buildExerciseStubs(t.kp, description)
		}
		modules = append(modules, module)
	}

	objectivesJSON, err := json.Marshal(narrative.Objectives)
	if err != nil {
		return nil, err
	}

	plan := &model.TutoringPlan{
		StudentID:    studentID,
		SubjectID:    subjectID,
		Title:        fmt.Sprintf("%s·%s 提升方案", student.Name, subject.Name),
		Summary:      narrative.Summary,
		Objectives:   string(objectivesJSON),
		Status:       model.PlanDraft,
		TextSource:   textSource,
		TargetExamID: targetExamID,
		CreatedBy:    createdBy,
		Modules:      modules,
	}
	if err := s.PlanRepo.Create(plan); err != nil {
		return nil, err
	}

	// 7. 初始化执行进度
	totalExercises := 0
	for _, m := range plan.Modules {
		totalExercises += len(m.Exercises)
	}
	progress := &model.LearningProgress{
		PlanID:         plan.ID,
		StudentID:      studentID,
		TotalModules:   len(plan.Modules),
		TotalExercises: totalExercises,
	}
	if err := s.ProgressRepo.Create(progress); err != nil {
		return nil, err
	}

	monitoring.PlanGeneratedCounter.Inc()
	logger.Log.Info("Tutoring plan generated",
		zap.String("planId", plan.ID),
		zap.Uint("studentId", studentID),
		zap.Uint("subjectId", subjectID),
		zap.Int("modules", len(plan.Modules)),
		zap.String("textSource", string(textSource)))

	return s.PlanRepo.FindByID(plan.ID)
}

func (s *TutoringPlanService) estimatedMinutes(d model.Difficulty) int {
	switch d {
	case model.DifficultyEasy:
		return s.Cfg.EasyMinutes
	case model.DifficultyHard:
		return s.Cfg.HardMinutes
	default:
		return s.Cfg.MediumMinutes
	}
}

// buildExerciseStubs 生成练习题占位条目，题目内容由任课老师后续补充
func (s *TutoringPlanService) buildExerciseStubs(kp model.KnowledgePoint, explanation string) []model.ModuleExercise {
	exercises := make([]model.ModuleExercise, 0, s.Cfg.ExercisesPerUnit)
	for i := 0; i < s.Cfg.ExercisesPerUnit; i++ {
		exercises = append(exercises, model.ModuleExercise{
			Question:    fmt.Sprintf("【第 %d 题】围绕「%s」的练习题，题目内容由任课老师补充。", i+1, kp.Name),
			Explanation: explanation,
			Difficulty:  kp.Difficulty,
		})
	}
	return exercises
}

// generateNarrative 生成方案文案，大模型漏掉的部分由模板条目补齐
func (s *TutoringPlanService) generateNarrative(ctx context.Context, input PlanTextInput) (PlanNarrative, model.PlanTextSource) {
	fallback, _ := s.Fallback.Narrative(ctx, input)
	if s.TextGen == nil {
		return fallback, model.TextSourceTemplate
	}

	narrative, err := s.TextGen.Narrative(ctx, input)
	if err != nil || narrative.Summary == "" {
		if err != nil {
			logger.Log.Warn("Plan narrative generation fell back to template", zap.Error(err))
		}
		monitoring.TextFallbackCounter.Inc()
		return fallback, model.TextSourceTemplate
	}

	if len(narrative.Objectives) == 0 {
		narrative.Objectives = fallback.Objectives
	}
	if narrative.ModuleNotes == nil {
		narrative.ModuleNotes = make(map[string]string, len(fallback.ModuleNotes))
	}
	for name, note := range fallback.ModuleNotes {
		if narrative.ModuleNotes[name] == "" {
			narrative.ModuleNotes[name] = note
		}
	}
	return narrative, model.TextSourceAI
}

// GetPlan 方案详情，模块按执行顺序返回
func (s *TutoringPlanService) GetPlan(planID string) (*model.TutoringPlan, error) {
	plan, err := s.PlanRepo.FindByID(planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

func (s *TutoringPlanService) ListStudentPlans(studentID uint) ([]model.TutoringPlan, error) {
	return s.PlanRepo.ListByStudent(studentID)
}

// planTransitions 方案状态机的合法迁移
var planTransitions = map[model.PlanStatus][]model.PlanStatus{
	model.PlanDraft:  {model.PlanActive},
	model.PlanActive: {model.PlanPaused, model.PlanCompleted},
	model.PlanPaused: {model.PlanActive},
}

func canTransition(from, to model.PlanStatus) bool {
	for _, allowed := range planTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition 方案状态流转：draft→active→(paused↔active)→completed
func (s *TutoringPlanService) Transition(planID string, to model.PlanStatus) (*model.TutoringPlan, error) {
	plan, err := s.GetPlan(planID)
	if err != nil {
		return nil, err
	}

	if !canTransition(plan.Status, to) {
		return nil, util.ErrInvalidPlanTransition
	}

	now := time.Now()
	plan.Status = to
	switch to {
	case model.PlanActive:
		if plan.ActivatedAt == nil {
			plan.ActivatedAt = &now
		}
	case model.PlanCompleted:
		plan.CompletedAt = &now
	}

	if err := s.PlanRepo.Update(plan); err != nil {
		return nil, err
	}
	return plan, nil
}
