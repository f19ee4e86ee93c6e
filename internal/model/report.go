package model

type ReportType string

const (
	ReportExamStatistics  ReportType = "exam_statistics"
	ReportStudentAnalysis ReportType = "student_analysis"
)

type ReportFormat string

const (
	ReportFormatJSON ReportFormat = "json"
	ReportFormatCSV  ReportFormat = "csv"
)

// AnalysisReport 已导出分析报告的元数据，文件本体存在对象存储
// swagger:model AnalysisReport
type AnalysisReport struct {
	UUIDBase
	Type        ReportType   `gorm:"size:30;not null" json:"type"`
	Format      ReportFormat `gorm:"size:10;not null;default:'json'" json:"format"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	TargetID    string       `gorm:"size:36;index;not null" json:"targetId"` // 考试 ID 或学生 ID
	ObjectKey   string       `gorm:"size:500;not null" json:"objectKey"`
	StorageType string       `gorm:"size:20;not null" json:"storageType"` // local / minio / oss
	SizeBytes   int64        `gorm:"default:0" json:"sizeBytes"`
	GeneratedBy uint         `gorm:"index" json:"generatedBy"`
}

func (AnalysisReport) TableName() string {
	return "analysis_reports"
}
