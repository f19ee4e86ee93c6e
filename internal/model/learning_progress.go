package model

import (
	"time"
)

// LearningProgress 一个辅导方案的执行进度汇总
// 计数只增不减：重复上报同一模块/练习的完成不会重复累加
// swagger:model LearningProgress
type LearningProgress struct {
	BaseModel
	PlanID             string     `gorm:"uniqueIndex;type:varchar(36);not null" json:"planId"`
	StudentID          uint       `gorm:"index;not null" json:"studentId"`
	TotalModules       int        `gorm:"not null;default:0" json:"totalModules"`
	CompletedModules   int        `gorm:"not null;default:0" json:"completedModules"`
	TotalExercises     int        `gorm:"not null;default:0" json:"totalExercises"`
	CompletedExercises int        `gorm:"not null;default:0" json:"completedExercises"`
	CompletionRate     float64    `gorm:"not null;default:0" json:"completionRate"` // 0~1，按模块数计算
	AverageScore       float64    `gorm:"not null;default:0" json:"averageScore"`   // 已判分练习的百分制均分
	TotalTimeSpent     int        `gorm:"not null;default:0" json:"totalTimeSpent"` // 分钟
	LastActivityAt     *time.Time `json:"lastActivityAt"`
}

func (LearningProgress) TableName() string {
	return "learning_progresses"
}
