package controller

import (
	"errors"

	"smart_edu_backend/internal/service"
	"smart_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GradeController struct {
	GradeService *service.GradeService
}

func NewGradeController(gradeService *service.GradeService) *GradeController {
	return &GradeController{GradeService: gradeService}
}

// EnterGradesRequest 批量录入成绩
// swagger:model EnterGradesRequest
type EnterGradesRequest struct {
	Entries []service.GradeEntry `json:"entries" binding:"required,min=1"`
}

// EnterGrades godoc
// @Summary 批量录入考试成绩
// @Description 有效条目直接落库，无效条目返回失败明细
// @Tags 成绩
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id   path int               true "考试ID"
// @Param   body body EnterGradesRequest true "成绩列表"
// @Success 200 {object} util.Response{data=object} "录入结果"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "考试不存在"
// @Router /api/teacher/exams/{id}/grades [post]
func (c *GradeController) EnterGrades(ctx *gin.Context) {
	examID := util.MustParseUint(ctx.Param("id"))
	if examID == 0 {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req EnterGradesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	created, failures, err := c.GradeService.EnterGrades(ctx.Request.Context(), examID, req.Entries, user.UserID)
	if err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"created":  created,
		"failures": failures,
	})
}

// CorrectGradeRequest 订正成绩
// swagger:model CorrectGradeRequest
type CorrectGradeRequest struct {
	StudentID uint    `json:"studentId" binding:"required"`
	Score     float64 `json:"score"`
	Reason    string  `json:"reason" binding:"required"`
}

// CorrectGrade godoc
// @Summary 订正成绩
// @Description 追加新版本保留修改痕迹，统计口径自动切换到最新版本
// @Tags 成绩
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id   path int                 true "考试ID"
// @Param   body body CorrectGradeRequest true "订正内容"
// @Success 200 {object} util.Response{data=model.Grade} "订正后的成绩"
// @Failure 400 {object} util.Response "分数超出范围"
// @Failure 404 {object} util.Response "成绩不存在"
// @Router /api/teacher/exams/{id}/grades/correct [put]
func (c *GradeController) CorrectGrade(ctx *gin.Context) {
	examID := util.MustParseUint(ctx.Param("id"))
	if examID == 0 {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CorrectGradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	grade, err := c.GradeService.CorrectGrade(ctx.Request.Context(), examID, req.StudentID, req.Score, req.Reason, user.UserID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidScore):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrGradeNotFound), errors.Is(err, util.ErrExamNotFound):
			util.NotFound(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, grade)
}

// GradeHistory godoc
// @Summary 成绩订正历史
// @Description 返回从首录到最新的全部版本
// @Tags 成绩
// @Produce json
// @Security BearerAuth
// @Param id        path int true "考试ID"
// @Param studentId path int true "学生ID"
// @Success 200 {object} util.Response{data=[]model.Grade}
// @Failure 404 {object} util.Response "成绩不存在"
// @Router /api/teacher/exams/{id}/grades/{studentId}/history [get]
func (c *GradeController) GradeHistory(ctx *gin.Context) {
	examID := util.MustParseUint(ctx.Param("id"))
	studentID := util.MustParseUint(ctx.Param("studentId"))
	if examID == 0 || studentID == 0 {
		util.BadRequest(ctx, "invalid id")
		return
	}

	history, err := c.GradeService.History(examID, studentID)
	if err != nil {
		if errors.Is(err, util.ErrGradeNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, history)
}

// MyGrades godoc
// @Summary 学生查看本人成绩
// @Tags 成绩
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Grade}
// @Router /api/student/grades [get]
func (c *GradeController) MyGrades(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	grades, err := c.GradeService.StudentGrades(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, grades)
}

// StudentGrades godoc
// @Summary 教师查看指定学生成绩
// @Tags 成绩
// @Produce json
// @Security BearerAuth
// @Param id path int true "学生ID"
// @Success 200 {object} util.Response{data=[]model.Grade}
// @Router /api/teacher/students/{id}/grades [get]
func (c *GradeController) StudentGrades(ctx *gin.Context) {
	studentID := util.MustParseUint(ctx.Param("id"))
	if studentID == 0 {
		util.BadRequest(ctx, "invalid student id")
		return
	}

	grades, err := c.GradeService.StudentGrades(studentID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, grades)
}
