package controller

import (
	"errors"

	"smart_edu_backend/internal/service"
	"smart_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	ExamService *service.ExamService
}

func NewExamController(examService *service.ExamService) *ExamController {
	return &ExamController{ExamService: examService}
}

// CreateExam godoc
// @Summary 创建考试
// @Tags 考试
// @Accept  json
// @Produce json
// @Security BearerAuth
// @Param   body body service.CreateExamRequest true "考试信息"
// @Success 201 {object} util.Response{data=model.Exam}
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/teacher/exams [post]
func (c *ExamController) CreateExam(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	exam, err := c.ExamService.CreateExam(req, user.UserID)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, exam)
}

// GetExam godoc
// @Summary 考试详情
// @Tags 考试
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response{data=model.Exam}
// @Failure 404 {object} util.Response "考试不存在"
// @Router /api/exams/{id} [get]
func (c *ExamController) GetExam(ctx *gin.Context) {
	examID := util.MustParseUint(ctx.Param("id"))
	if examID == 0 {
		util.BadRequest(ctx, "invalid exam id")
		return
	}

	exam, err := c.ExamService.GetExam(examID)
	if err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, exam)
}

// ListClassExams godoc
// @Summary 班级考试列表
// @Tags 考试
// @Produce json
// @Security BearerAuth
// @Param id path int true "班级ID"
// @Success 200 {object} util.Response{data=[]model.Exam}
// @Router /api/classes/{id}/exams [get]
func (c *ExamController) ListClassExams(ctx *gin.Context) {
	classID := util.MustParseUint(ctx.Param("id"))
	if classID == 0 {
		util.BadRequest(ctx, "invalid class id")
		return
	}

	exams, err := c.ExamService.ListClassExams(classID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, exams)
}

// ListSubjects godoc
// @Summary 学科列表
// @Tags 考试
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Subject}
// @Router /api/subjects [get]
func (c *ExamController) ListSubjects(ctx *gin.Context) {
	subjects, err := c.ExamService.ListSubjects()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, subjects)
}
