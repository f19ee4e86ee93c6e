package database

import (
	"fmt"
	"log"
	"smart_edu_backend/internal/config"
	"smart_edu_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	Seed(db)

	return db, nil
}

// Migrate 执行全部表结构迁移，测试使用内存 SQLite 时也复用同一份表结构
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Class{},
		&model.Subject{},
		&model.Exam{},
		&model.Grade{},
		&model.KnowledgePoint{},
		&model.PracticeRecord{},
		&model.KnowledgePointMastery{},
		&model.TutoringPlan{},
		&model.TutoringModule{},
		&model.ModuleExercise{},
		&model.LearningProgress{},
		&model.RecommendationRule{},
		&model.AnalysisReport{},
	)
}

// Seed 写入基础数据：默认学科与推荐规则（空表才写，重复启动不会重复插入）
func Seed(db *gorm.DB) {
	// 默认学科
	var subjCount int64
	db.Model(&model.Subject{}).Count(&subjCount)
	if subjCount == 0 {
		defaultSubjects := []model.Subject{
			{Code: "math", Name: "数学", FullScore: 100},
			{Code: "chinese", Name: "语文", FullScore: 100},
			{Code: "english", Name: "英语", FullScore: 100},
			{Code: "physics", Name: "物理", FullScore: 100},
			{Code: "chemistry", Name: "化学", FullScore: 100},
			{Code: "biology", Name: "生物", FullScore: 100},
		}
		for _, s := range defaultSubjects {
			db.Create(&s)
		}
	}

	// 默认推荐规则：辅导方案按掌握状态决定模块优先级与类型，学情分析用 Advice 生成建议
	var ruleCount int64
	db.Model(&model.RecommendationRule{}).Count(&ruleCount)
	if ruleCount == 0 {
		// Priority 从 1 开始，0 会被 gorm 当作零值处理
		defaultRules := []model.RecommendationRule{
			{Code: "weak_declining", Name: "短板下滑", Condition: model.RuleConditionWeaknessDeclining, Priority: 1, ModuleType: model.ModuleTypeLesson, Description: "短板学科且成绩持续下滑，最高优先级干预", Advice: "{subject}明显低于班级平均且近期持续下滑，建议尽快安排专项辅导并生成辅导方案", Enabled: true},
			{Code: "weak_foundation", Name: "基础薄弱", Condition: model.RuleConditionWeakness, Priority: 2, ModuleType: model.ModuleTypeLesson, Description: "掌握度低于 0.4 的知识点优先安排讲解课程", Advice: "{subject}是当前短板，建议从基础知识点讲解入手补齐", Enabled: true},
			{Code: "needs_review", Name: "遗忘复习", Condition: model.RuleConditionNeedsReview, Priority: 3, ModuleType: model.ModuleTypeExercise, Description: "曾掌握但出现遗忘迹象的知识点安排巩固练习", Advice: "有 {count} 个知识点出现遗忘迹象，建议安排复习巩固", Enabled: true},
			{Code: "in_progress", Name: "强化练习", Condition: model.RuleConditionInProgress, Priority: 4, ModuleType: model.ModuleTypeExercise, Description: "学习中的知识点安排针对性练习", Advice: "学习中的知识点建议保持练习频率，稳步推进", Enabled: true},
			{Code: "not_started", Name: "新知识导入", Condition: model.RuleConditionNotStarted, Priority: 5, ModuleType: model.ModuleTypeLesson, Description: "未开始的知识点从课程讲解切入", Advice: "", Enabled: true},
			{Code: "consolidate", Name: "掌握检验", Condition: model.RuleConditionMastered, Priority: 6, ModuleType: model.ModuleTypeAssessment, Description: "已掌握的知识点安排测评检验保持度", Advice: "", Enabled: true},
		}
		for _, r := range defaultRules {
			db.Create(&r)
		}
	}
}
