package controller

import (
	"errors"

	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/service"
	"smart_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ReportController struct {
	ReportService *service.ReportService
}

func NewReportController(reportService *service.ReportService) *ReportController {
	return &ReportController{ReportService: reportService}
}

// ExportReportRequest 报表导出请求
type ExportReportRequest struct {
	Format model.ReportFormat `json:"format" binding:"required,oneof=json csv"`
}

// ExportExamReport godoc
// @Summary 导出考试统计报表
// @Description 生成 JSON 或 CSV 格式的考试统计文件并上传到存储
// @Tags 报表
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Param request body ExportReportRequest true "导出格式"
// @Success 201 {object} util.Response{data=model.AnalysisReport}
// @Router /api/teacher/reports/exams/{id} [post]
func (c *ReportController) ExportExamReport(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	examID := util.MustParseUint(ctx.Param("id"))
	if examID == 0 {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	var req ExportReportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	report, err := c.ReportService.ExportExamStatistics(ctx.Request.Context(), examID, req.Format, user.UserID)
	if err != nil {
		c.respondExportError(ctx, err)
		return
	}
	util.Created(ctx, c.withURL(report))
}

// ExportStudentReport godoc
// @Summary 导出学生学情报表
// @Tags 报表
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "学生ID"
// @Param request body ExportReportRequest true "导出格式"
// @Success 201 {object} util.Response{data=model.AnalysisReport}
// @Router /api/teacher/reports/students/{id} [post]
func (c *ReportController) ExportStudentReport(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	studentID := util.MustParseUint(ctx.Param("id"))
	if studentID == 0 {
		util.BadRequest(ctx, "invalid student id")
		return
	}

	var req ExportReportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	report, err := c.ReportService.ExportStudentAnalysis(ctx.Request.Context(), studentID, req.Format, user.UserID)
	if err != nil {
		c.respondExportError(ctx, err)
		return
	}
	util.Created(ctx, c.withURL(report))
}

// ListReports godoc
// @Summary 报表列表
// @Tags 报表
// @Produce json
// @Security BearerAuth
// @Param type query string false "报表类型" Enums(exam_statistics, student_analysis)
// @Param targetId query string false "目标ID（考试或学生）"
// @Success 200 {object} util.Response{data=[]model.AnalysisReport}
// @Router /api/teacher/reports [get]
func (c *ReportController) ListReports(ctx *gin.Context) {
	reportType := model.ReportType(ctx.Query("type"))
	targetID := ctx.Query("targetId")

	reports, err := c.ReportService.ListReports(reportType, targetID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, reports)
}

// GetReport godoc
// @Summary 报表详情
// @Description 报表元信息及下载地址
// @Tags 报表
// @Produce json
// @Security BearerAuth
// @Param id path string true "报表ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "报表不存在"
// @Router /api/teacher/reports/{id} [get]
func (c *ReportController) GetReport(ctx *gin.Context) {
	report, err := c.ReportService.GetReport(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx, "报表不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, c.withURL(report))
}

func (c *ReportController) withURL(report *model.AnalysisReport) gin.H {
	return gin.H{
		"report":      report,
		"downloadUrl": c.ReportService.DownloadURL(report),
	}
}

func (c *ReportController) respondExportError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrExamNotFound), errors.Is(err, util.ErrStudentNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrInsufficientData):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
