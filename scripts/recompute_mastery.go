// 手动重算掌握度与辅导进度脚本
//
// 主应用每天会自动把久未复习的已掌握知识点翻转为需复习，
// 此脚本用于手动触发，例如批量导入历史练习数据之后。
//
// 用法: go run scripts/recompute_mastery.go

package main

import (
	"log"
	"os"

	"smart_edu_backend/internal/config"
	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/repository"
	"smart_edu_backend/internal/service"
	"smart_edu_backend/pkg/database"
	"smart_edu_backend/pkg/logger"

	"gopkg.in/yaml.v3"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}
	// analysis 段的下划线键名 yaml 解析不到，缺省时回落默认值
	if cfg.Analysis.MasteryAlpha == 0 {
		cfg.Analysis = config.AnalysisDefaults()
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	masteryService := service.NewMasteryService(
		repository.NewMasteryRepository(db),
		repository.NewPracticeRepository(db),
		repository.NewKnowledgePointRepository(db),
		cfg.Analysis,
	)

	log.Println("翻转久未复习的已掌握知识点...")
	masteryService.SweepStale()

	progressService := service.NewProgressService(
		repository.NewTutoringPlanRepository(db),
		repository.NewProgressRepository(db),
	)

	var progresses []model.LearningProgress
	if err := db.Find(&progresses).Error; err != nil {
		log.Fatalf("读取进度失败: %v", err)
	}

	log.Printf("重算 %d 个方案的进度...", len(progresses))
	for _, p := range progresses {
		if _, err := progressService.Recalculate(p.PlanID); err != nil {
			log.Printf("方案 %s 重算失败: %v", p.PlanID, err)
		}
	}
	log.Println("完成！")
}
