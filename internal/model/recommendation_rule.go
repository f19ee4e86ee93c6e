package model

type RuleCondition string

const (
	RuleConditionWeakness    RuleCondition = "weakness"     // 掌握度低于课程阈值
	RuleConditionNeedsReview RuleCondition = "needs_review" // 曾掌握但出现遗忘迹象
	RuleConditionInProgress  RuleCondition = "in_progress"  // 学习中
	RuleConditionNotStarted  RuleCondition = "not_started"  // 未开始
	RuleConditionMastered    RuleCondition = "mastered"     // 已掌握

	// 学情分析建议专用条件：短板学科叠加下滑趋势，优先级最高
	RuleConditionWeaknessDeclining RuleCondition = "weakness_declining"
)

// RecommendationRule 推荐规则，作为数据维护在库里
// 辅导方案生成按 Condition 决定模块类型与先后，学情分析按 Condition 输出学习建议
// Priority 从 1 开始、越小越靠前（不设列默认值，避免 gorm 把 0 当零值吞掉），
// Advice 支持 {subject}/{count} 占位符
// swagger:model RecommendationRule
type RecommendationRule struct {
	BaseModel
	Code        string        `gorm:"size:50;unique;not null" json:"code"`
	Name        string        `gorm:"size:100;not null" json:"name"`
	Condition   RuleCondition `gorm:"size:30;not null" json:"condition"`
	Priority    int           `gorm:"not null" json:"priority"`
	ModuleType  ModuleType    `gorm:"size:20;not null" json:"moduleType"`
	Description string        `gorm:"size:255" json:"description"`
	Advice      string        `gorm:"size:255" json:"advice"`
	Enabled     bool          `gorm:"default:true" json:"enabled"`
}

func (RecommendationRule) TableName() string {
	return "recommendation_rules"
}
