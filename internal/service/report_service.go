package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/repository"
	"smart_edu_backend/internal/util"
	"smart_edu_backend/pkg/logger"

	"go.uber.org/zap"
)

// ReportService 分析报告导出
// 报告渲染成 JSON 或 CSV 后写入对象存储，库里只存元数据
type ReportService struct {
	Analysis   *AnalysisService
	Storage    *StorageService
	ReportRepo *repository.ReportRepository
}

func NewReportService(
	analysis *AnalysisService,
	storage *StorageService,
	reportRepo *repository.ReportRepository,
) *ReportService {
	return &ReportService{
		Analysis:   analysis,
		Storage:    storage,
		ReportRepo: reportRepo,
	}
}

// ExportExamStatistics 导出考试统计报告
func (s *ReportService) ExportExamStatistics(ctx context.Context, examID uint, format model.ReportFormat, generatedBy uint) (*model.AnalysisReport, error) {
	stats, err := s.Analysis.ExamStatistics(ctx, examID)
	if err != nil {
		return nil, err
	}

	var data []byte
	var contentType string
	switch format {
	case model.ReportFormatCSV:
		data, err = renderExamCSV(stats)
		contentType = util.MimeCSV
	default:
		format = model.ReportFormatJSON
		data, err = json.MarshalIndent(stats, "", "  ")
		contentType = util.MimeJSON
	}
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("%s 成绩统计", stats.ExamName)
	objectKey := fmt.Sprintf("exam/%d/%s.%s", examID, model.GenerateUUID(), format)
	return s.store(ctx, model.ReportExamStatistics, format, title, util.FormatUint(examID), objectKey, contentType, data, generatedBy)
}

// ExportStudentAnalysis 导出学生学情分析报告
func (s *ReportService) ExportStudentAnalysis(ctx context.Context, studentID uint, format model.ReportFormat, generatedBy uint) (*model.AnalysisReport, error) {
	analysis, err := s.Analysis.StudentAnalysis(ctx, studentID)
	if err != nil {
		return nil, err
	}

	var data []byte
	var contentType string
	switch format {
	case model.ReportFormatCSV:
		data, err = renderStudentCSV(analysis)
		contentType = util.MimeCSV
	default:
		format = model.ReportFormatJSON
		data, err = json.MarshalIndent(analysis, "", "  ")
		contentType = util.MimeJSON
	}
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("%s 学情分析", analysis.StudentName)
	objectKey := fmt.Sprintf("student/%d/%s.%s", studentID, model.GenerateUUID(), format)
	return s.store(ctx, model.ReportStudentAnalysis, format, title, util.FormatUint(studentID), objectKey, contentType, data, generatedBy)
}

func (s *ReportService) store(
	ctx context.Context,
	reportType model.ReportType,
	format model.ReportFormat,
	title, targetID, objectKey, contentType string,
	data []byte,
	generatedBy uint,
) (*model.AnalysisReport, error) {
	if _, err := s.Storage.Upload(ctx, objectKey, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, err
	}

	report := &model.AnalysisReport{
		Type:        reportType,
		Format:      format,
		Title:       title,
		TargetID:    targetID,
		ObjectKey:   objectKey,
		StorageType: s.Storage.Type(),
		SizeBytes:   int64(len(data)),
		GeneratedBy: generatedBy,
	}
	if err := s.ReportRepo.Create(report); err != nil {
		return nil, err
	}

	logger.Log.Info("Analysis report exported",
		zap.String("reportId", report.ID),
		zap.String("type", string(reportType)),
		zap.String("objectKey", objectKey),
		zap.Int("bytes", len(data)))
	return report, nil
}

func (s *ReportService) GetReport(id string) (*model.AnalysisReport, error) {
	return s.ReportRepo.FindByID(id)
}

func (s *ReportService) ListReports(reportType model.ReportType, targetID string) ([]model.AnalysisReport, error) {
	return s.ReportRepo.ListByTarget(reportType, targetID)
}

// DownloadURL 报告文件的访问地址
func (s *ReportService) DownloadURL(report *model.AnalysisReport) string {
	return s.Storage.GetURL(report.ObjectKey)
}

func renderExamCSV(stats *model.ExamStatistics) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	_ = w.Write([]string{"排名", "学生", "分数", "得分率", "等级"})
	for _, r := range stats.Rankings {
		_ = w.Write([]string{
			fmt.Sprintf("%d", r.Rank),
			r.StudentName,
			fmt.Sprintf("%.1f", r.Score),
			fmt.Sprintf("%.1f%%", r.ScoreRate*100),
			r.Level,
		})
	}
	_ = w.Write(nil)
	_ = w.Write([]string{"平均分", fmt.Sprintf("%.2f", stats.Stats.Average)})
	_ = w.Write([]string{"中位数", fmt.Sprintf("%.2f", stats.Stats.Median)})
	_ = w.Write([]string{"及格率", fmt.Sprintf("%.1f%%", stats.Stats.PassRate*100)})
	_ = w.Write([]string{"优秀率", fmt.Sprintf("%.1f%%", stats.Stats.ExcellentRate*100)})

	w.Flush()
	return buf.Bytes(), w.Error()
}

func renderStudentCSV(analysis *model.StudentGradeAnalysis) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	_ = w.Write([]string{"学科", "本人均分", "班级均分", "差值", "考试次数", "等级"})
	for _, sp := range analysis.Subjects {
		_ = w.Write([]string{
			sp.SubjectName,
			fmt.Sprintf("%.1f", sp.AverageScore),
			fmt.Sprintf("%.1f", sp.ClassAverage),
			fmt.Sprintf("%+.1f", sp.Delta),
			fmt.Sprintf("%d", sp.ExamCount),
			sp.Level,
		})
	}
	_ = w.Write(nil)
	_ = w.Write([]string{"总评均分", fmt.Sprintf("%.2f", analysis.OverallAverage), analysis.OverallLevel})
	_ = w.Write([]string{"生成时间", analysis.GeneratedAt.Format(time.RFC3339)})

	w.Flush()
	return buf.Bytes(), w.Error()
}
