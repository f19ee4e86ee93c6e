package model

// Grade 成绩记录
// 修改成绩不覆盖旧值：每次订正追加一条新版本，CorrectedFrom 指向上一版本，
// IsLatest 只在链尾为 true，统计与分析只读取最新版本
// swagger:model Grade
type Grade struct {
	BaseModel
	StudentID        uint    `gorm:"index:idx_grade_student_exam;not null" json:"studentId"`
	ExamID           uint    `gorm:"index:idx_grade_student_exam;not null" json:"examId"`
	Score            float64 `gorm:"not null" json:"score"`
	Version          int     `gorm:"not null;default:1" json:"version"`
	IsLatest         bool    `gorm:"not null;default:true;index" json:"isLatest"`
	CorrectedFrom    *uint   `gorm:"index" json:"correctedFrom"`
	CorrectionReason string  `gorm:"size:255" json:"correctionReason"`
	Comment          string  `gorm:"size:255" json:"comment"`
	EnteredBy        uint    `gorm:"index" json:"enteredBy"`
	Student          User    `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Exam             Exam    `gorm:"foreignKey:ExamID" json:"exam,omitempty"`
}

func (Grade) TableName() string {
	return "grades"
}

// ScoreRate 得分率，满分为 0 时返回 0
func (g *Grade) ScoreRate(fullScore float64) float64 {
	if fullScore <= 0 {
		return 0
	}
	return g.Score / fullScore
}
