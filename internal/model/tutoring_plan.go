package model

import (
	"time"
)

type PlanStatus string

const (
	PlanDraft     PlanStatus = "draft"
	PlanActive    PlanStatus = "active"
	PlanPaused    PlanStatus = "paused"
	PlanCompleted PlanStatus = "completed"
)

type ModuleType string

const (
	ModuleTypeLesson     ModuleType = "lesson"     // 讲解课程
	ModuleTypeExercise   ModuleType = "exercise"   // 专项练习
	ModuleTypeAssessment ModuleType = "assessment" // 测评检验
)

type ModuleStatus string

const (
	ModulePending    ModuleStatus = "pending"
	ModuleInProgress ModuleStatus = "in_progress"
	ModuleCompleted  ModuleStatus = "completed"
	ModuleSkipped    ModuleStatus = "skipped"
)

type PlanTextSource string

const (
	TextSourceAI       PlanTextSource = "ai"       // 大模型生成
	TextSourceTemplate PlanTextSource = "template" // 模板兜底
)

// TutoringPlan 针对单个学生单个学科的个性化辅导方案
// swagger:model TutoringPlan
type TutoringPlan struct {
	UUIDBase
	StudentID    uint             `gorm:"index;not null" json:"studentId"`
	SubjectID    uint             `gorm:"index;not null" json:"subjectId"`
	Title        string           `gorm:"size:255;not null" json:"title"`
	Summary      string           `gorm:"type:text" json:"summary"`    // 方案整体说明文案
	Objectives   string           `gorm:"type:json" json:"objectives"` // string array JSON: ["目标1", "目标2"]
	Status       PlanStatus       `gorm:"size:20;not null;default:'draft'" json:"status"`
	TextSource   PlanTextSource   `gorm:"size:20;not null;default:'template'" json:"textSource"`
	TargetExamID *uint            `gorm:"index" json:"targetExamId"` // 可选：面向某次考试的备考方案
	CreatedBy    uint             `gorm:"index" json:"createdBy"`
	ActivatedAt  *time.Time       `json:"activatedAt"`
	CompletedAt  *time.Time       `json:"completedAt"`
	Modules      []TutoringModule `gorm:"foreignKey:PlanID" json:"modules,omitempty"`
	Student      User             `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Subject      Subject          `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
}

func (TutoringPlan) TableName() string {
	return "tutoring_plans"
}

// TutoringModule 方案中的一个学习单元，按 OrderIndex 顺序执行
// swagger:model TutoringModule
type TutoringModule struct {
	UUIDBase
	PlanID           string           `gorm:"index;type:varchar(36);not null" json:"planId"`
	KnowledgePointID string           `gorm:"index;type:varchar(36);not null" json:"knowledgePointId"`
	Type             ModuleType       `gorm:"size:20;not null" json:"type"`
	Title            string           `gorm:"size:255;not null" json:"title"`
	Description      string           `gorm:"type:text" json:"description"`
	OrderIndex       int              `gorm:"not null" json:"orderIndex"`
	EstimatedMinutes int              `gorm:"not null;default:30" json:"estimatedMinutes"`
	Status           ModuleStatus     `gorm:"size:20;not null;default:'pending'" json:"status"`
	CompletedAt      *time.Time       `json:"completedAt"`
	Exercises        []ModuleExercise `gorm:"foreignKey:ModuleID" json:"exercises,omitempty"`
	KnowledgePoint   KnowledgePoint   `gorm:"foreignKey:KnowledgePointID" json:"knowledgePoint,omitempty"`
}

func (TutoringModule) TableName() string {
	return "tutoring_modules"
}

// ModuleExercise 练习型模块附带的练习题
// 完成上报可携带得分（百分制）与用时，汇总进 LearningProgress
// swagger:model ModuleExercise
type ModuleExercise struct {
	UUIDBase
	ModuleID         string     `gorm:"index;type:varchar(36);not null" json:"moduleId"`
	Question         string     `gorm:"type:text;not null" json:"question"`
	Options          string     `gorm:"type:json" json:"options"` // string array JSON: ["A", "B"]
	Answer           string     `gorm:"type:text" json:"answer"`
	Explanation      string     `gorm:"type:text" json:"explanation"`
	Difficulty       Difficulty `gorm:"size:20;not null;default:'medium'" json:"difficulty"`
	Completed        bool       `gorm:"default:false" json:"completed"`
	Score            *float64   `json:"score"` // 百分制，未判分时为空
	TimeSpentMinutes int        `gorm:"not null;default:0" json:"timeSpentMinutes"`
	CompletedAt      *time.Time `json:"completedAt"`
}

func (ModuleExercise) TableName() string {
	return "module_exercises"
}
