package model

import (
	"time"
)

type ExamType string

const (
	ExamQuiz    ExamType = "quiz"    // 随堂测验
	ExamMonthly ExamType = "monthly" // 月考
	ExamMidterm ExamType = "midterm" // 期中
	ExamFinal   ExamType = "final"   // 期末
	ExamMock    ExamType = "mock"    // 模拟考
)

// swagger:model Exam
type Exam struct {
	BaseModel
	Name        string    `gorm:"size:255;not null" json:"name"`
	Type        ExamType  `gorm:"size:20;not null;default:'quiz'" json:"type"`
	SubjectID   uint      `gorm:"index;not null" json:"subjectId"`
	ClassID     uint      `gorm:"index;not null" json:"classId"`
	ExamDate    time.Time `gorm:"index;not null" json:"examDate"`
	FullScore   float64   `gorm:"not null;default:100" json:"fullScore"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedBy   uint      `gorm:"index" json:"createdBy"`
	Subject     Subject   `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
	Class       Class     `gorm:"foreignKey:ClassID" json:"class,omitempty"`
}

func (Exam) TableName() string {
	return "exams"
}
