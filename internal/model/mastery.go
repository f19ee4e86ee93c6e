package model

import (
	"time"
)

type MasteryStatus string

const (
	MasteryNotStarted  MasteryStatus = "not_started"
	MasteryInProgress  MasteryStatus = "in_progress"
	MasteryMastered    MasteryStatus = "mastered"
	MasteryNeedsReview MasteryStatus = "needs_review"
)

// KnowledgePointMastery 学生对单个知识点的掌握快照
// 每次练习后用指数平滑更新，一个学生对一个知识点只有一行
// swagger:model KnowledgePointMastery
type KnowledgePointMastery struct {
	BaseModel
	StudentID        uint           `gorm:"uniqueIndex:uniq_student_kp;not null" json:"studentId"`
	KnowledgePointID string         `gorm:"uniqueIndex:uniq_student_kp;type:varchar(36);not null" json:"knowledgePointId"`
	MasteryLevel     float64        `gorm:"not null;default:0" json:"masteryLevel"` // 0~1
	PracticeCount    int            `gorm:"not null;default:0" json:"practiceCount"`
	Status           MasteryStatus  `gorm:"size:20;not null;default:'not_started'" json:"status"`
	LastPracticedAt  *time.Time     `json:"lastPracticedAt"`
	MasteredAt       *time.Time     `json:"masteredAt"`
	KnowledgePoint   KnowledgePoint `gorm:"foreignKey:KnowledgePointID" json:"knowledgePoint,omitempty"`
}

func (KnowledgePointMastery) TableName() string {
	return "knowledge_point_masteries"
}
