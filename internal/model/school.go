package model

// swagger:model Class
type Class struct {
	BaseModel
	Name          string `gorm:"size:100;not null" json:"name"`
	GradeLevel    int    `gorm:"not null" json:"gradeLevel"` // 年级，如 7 表示初一
	HeadTeacherID *uint  `gorm:"index" json:"headTeacherId"`
	Students      []User `gorm:"foreignKey:ClassID" json:"students,omitempty"`
}

func (Class) TableName() string {
	return "classes"
}

// swagger:model Subject
type Subject struct {
	BaseModel
	Code      string  `gorm:"size:50;unique;not null" json:"code"`
	Name      string  `gorm:"size:100;not null" json:"name"`
	FullScore float64 `gorm:"default:100" json:"fullScore"` // 默认满分，考试可覆盖
}

func (Subject) TableName() string {
	return "subjects"
}
