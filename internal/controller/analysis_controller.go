package controller

import (
	"errors"
	"time"

	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/service"
	"smart_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalysisController struct {
	AnalysisService *service.AnalysisService
}

func NewAnalysisController(analysisService *service.AnalysisService) *AnalysisController {
	return &AnalysisController{AnalysisService: analysisService}
}

// ExamStatistics godoc
// @Summary 考试统计
// @Description 平均分、中位数、标准差、及格率、优秀率、分数段分布与排名
// @Tags 分析
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response{data=model.ExamStatistics}
// @Failure 404 {object} util.Response "考试不存在"
// @Router /api/analysis/exams/{id} [get]
func (c *AnalysisController) ExamStatistics(ctx *gin.Context) {
	examID := util.MustParseUint(ctx.Param("id"))
	if examID == 0 {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	stats, err := c.AnalysisService.ExamStatistics(ctx.Request.Context(), examID)
	if err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, stats)
}

// SubjectTrend godoc
// @Summary 学生单科成绩走势
// @Description 按时间排列历次成绩并给出上升/下降/平稳判断
// @Tags 分析
// @Produce json
// @Security BearerAuth
// @Param id        path int true "学生ID"
// @Param subjectId path int true "学科ID"
// @Success 200 {object} util.Response{data=model.SubjectTrend}
// @Router /api/analysis/students/{id}/subjects/{subjectId}/trend [get]
func (c *AnalysisController) SubjectTrend(ctx *gin.Context) {
	studentID := util.MustParseUint(ctx.Param("id"))
	subjectID := util.MustParseUint(ctx.Param("subjectId"))
	if studentID == 0 || subjectID == 0 {
		util.BadRequest(ctx, "invalid id")
		return
	}

	if !canViewStudent(ctx, studentID) {
		util.Forbidden(ctx)
		return
	}

	trend, err := c.AnalysisService.SubjectTrend(studentID, subjectID)
	if err != nil {
		if errors.Is(err, util.ErrStudentNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, trend)
}

// StudentAnalysis godoc
// @Summary 学生综合学情分析
// @Description 全科表现、优势短板、走势与知识点掌握概览
// @Tags 分析
// @Produce json
// @Security BearerAuth
// @Param id path int true "学生ID"
// @Success 200 {object} util.Response{data=model.StudentGradeAnalysis} "无成绩时 hasData=false"
// @Router /api/analysis/students/{id} [get]
func (c *AnalysisController) StudentAnalysis(ctx *gin.Context) {
	studentID := util.MustParseUint(ctx.Param("id"))
	if studentID == 0 {
		util.BadRequest(ctx, "invalid student id")
		return
	}

	if !canViewStudent(ctx, studentID) {
		util.Forbidden(ctx)
		return
	}

	analysis, err := c.AnalysisService.StudentAnalysis(ctx.Request.Context(), studentID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrStudentNotFound):
			util.NotFound(ctx, err.Error())
		case errors.Is(err, util.ErrInsufficientData):
			// 没有成绩不算错误，返回空分析让前端展示引导页
			util.Success(ctx, &model.StudentGradeAnalysis{
				StudentID:   studentID,
				GeneratedAt: time.Now(),
			})
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, analysis)
}

// canViewStudent 学生只能看自己的数据，教师和管理员不受限
func canViewStudent(ctx *gin.Context, studentID uint) bool {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		return false
	}
	if user.Role == model.Student {
		return user.UserID == studentID
	}
	return true
}
