package repository

import (
	"smart_edu_backend/internal/model"

	"gorm.io/gorm"
)

type ReportRepository struct {
	DB *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{DB: db}
}

func (r *ReportRepository) Create(report *model.AnalysisReport) error {
	return r.DB.Create(report).Error
}

func (r *ReportRepository) FindByID(id string) (*model.AnalysisReport, error) {
	var report model.AnalysisReport
	err := r.DB.Where("id = ?", id).First(&report).Error
	return &report, err
}

func (r *ReportRepository) ListByTarget(reportType model.ReportType, targetID string) ([]model.AnalysisReport, error) {
	var reports []model.AnalysisReport
	err := r.DB.Where("type = ? AND target_id = ?", reportType, targetID).
		Order("created_at desc").
		Find(&reports).Error
	return reports, err
}
