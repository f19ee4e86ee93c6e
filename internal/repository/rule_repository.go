package repository

import (
	"smart_edu_backend/internal/model"

	"gorm.io/gorm"
)

type RuleRepository struct {
	DB *gorm.DB
}

func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{DB: db}
}

// ListEnabled 按优先级升序返回启用中的推荐规则
func (r *RuleRepository) ListEnabled() ([]model.RecommendationRule, error) {
	var rules []model.RecommendationRule
	err := r.DB.Where("enabled = ?", true).
		Order("priority asc").
		Find(&rules).Error
	return rules, err
}

func (r *RuleRepository) FindByCode(code string) (*model.RecommendationRule, error) {
	var rule model.RecommendationRule
	err := r.DB.Where("code = ?", code).First(&rule).Error
	return &rule, err
}

func (r *RuleRepository) Update(rule *model.RecommendationRule) error {
	return r.DB.Save(rule).Error
}
