package model

import (
	"time"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// swagger:model KnowledgePoint
type KnowledgePoint struct {
	UUIDBase
	SubjectID   uint       `gorm:"index;not null" json:"subjectId"`
	Code        string     `gorm:"size:50;index" json:"code"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Difficulty  Difficulty `gorm:"size:20;not null;default:'medium'" json:"difficulty"`
	GradeLevel  int        `gorm:"default:0" json:"gradeLevel"` // 适用年级，0 表示不限
	Order       int        `gorm:"default:0" json:"order"`
	Subject     Subject    `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
}

func (KnowledgePoint) TableName() string {
	return "knowledge_points"
}

type PracticeSource string

const (
	SourceExam     PracticeSource = "exam"     // 考试题目归因
	SourcePractice PracticeSource = "practice" // 日常练习
	SourceTutoring PracticeSource = "tutoring" // 辅导方案内练习
)

// PracticeRecord 一次针对某知识点的练习结果
// swagger:model PracticeRecord
type PracticeRecord struct {
	BaseModel
	StudentID        uint           `gorm:"index:idx_practice_student_kp;not null" json:"studentId"`
	KnowledgePointID string         `gorm:"index:idx_practice_student_kp;type:varchar(36);not null" json:"knowledgePointId"`
	TotalCount       int            `gorm:"not null" json:"totalCount"`   // 本次题目总数
	CorrectCount     int            `gorm:"not null" json:"correctCount"` // 本次答对数
	ScoreRate        float64        `gorm:"not null" json:"scoreRate"`    // 本次得分率 0~1
	Source           PracticeSource `gorm:"size:20;not null;default:'practice'" json:"source"`
	PracticedAt      time.Time      `gorm:"index;not null" json:"practicedAt"`
	KnowledgePoint   KnowledgePoint `gorm:"foreignKey:KnowledgePointID" json:"knowledgePoint,omitempty"`
}

func (PracticeRecord) TableName() string {
	return "practice_records"
}
