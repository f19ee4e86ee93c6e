package controller

import (
	"errors"

	"smart_edu_backend/internal/service"
	"smart_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MasteryController struct {
	MasteryService *service.MasteryService
}

func NewMasteryController(masteryService *service.MasteryService) *MasteryController {
	return &MasteryController{MasteryService: masteryService}
}

// RecordPractice godoc
// @Summary 上报练习结果
// @Description 记录学生在某知识点上的一次练习，并按指数平滑更新掌握度
// @Tags 知识点掌握
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.PracticeSubmission true "练习结果"
// @Success 200 {object} util.Response{data=model.KnowledgePointMastery}
// @Failure 400 {object} util.Response "练习数据不合法"
// @Router /api/student/practice [post]
func (c *MasteryController) RecordPractice(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var sub service.PracticeSubmission
	if err := ctx.ShouldBindJSON(&sub); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	mastery, err := c.MasteryService.RecordPractice(user.UserID, sub)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidPractice):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrKnowledgePointNotFound):
			util.NotFound(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, mastery)
}

// RecordStudentPractice godoc
// @Summary 代学生上报练习结果
// @Description 老师批改后录入指定学生的练习情况
// @Tags 知识点掌握
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "学生ID"
// @Param request body service.PracticeSubmission true "练习结果"
// @Success 200 {object} util.Response{data=model.KnowledgePointMastery}
// @Router /api/teacher/students/{id}/practice [post]
func (c *MasteryController) RecordStudentPractice(ctx *gin.Context) {
	studentID := util.MustParseUint(ctx.Param("id"))
	if studentID == 0 {
		util.BadRequest(ctx, "invalid student id")
		return
	}

	var sub service.PracticeSubmission
	if err := ctx.ShouldBindJSON(&sub); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	mastery, err := c.MasteryService.RecordPractice(studentID, sub)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidPractice):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrKnowledgePointNotFound):
			util.NotFound(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, mastery)
}

// MyMastery godoc
// @Summary 我的知识点掌握情况
// @Description 按学科筛选当前学生的掌握度列表，久未复习的已掌握项会标记为待复习
// @Tags 知识点掌握
// @Produce json
// @Security BearerAuth
// @Param subjectId query int false "学科ID"
// @Success 200 {object} util.Response{data=[]model.KnowledgePointMastery}
// @Router /api/student/mastery [get]
func (c *MasteryController) MyMastery(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	c.respondMastery(ctx, user.UserID)
}

// StudentMastery godoc
// @Summary 查看学生知识点掌握情况
// @Tags 知识点掌握
// @Produce json
// @Security BearerAuth
// @Param id path int true "学生ID"
// @Param subjectId query int false "学科ID"
// @Success 200 {object} util.Response{data=[]model.KnowledgePointMastery}
// @Router /api/teacher/students/{id}/mastery [get]
func (c *MasteryController) StudentMastery(ctx *gin.Context) {
	studentID := util.MustParseUint(ctx.Param("id"))
	if studentID == 0 {
		util.BadRequest(ctx, "invalid student id")
		return
	}
	c.respondMastery(ctx, studentID)
}

func (c *MasteryController) respondMastery(ctx *gin.Context, studentID uint) {
	subjectID := util.MustParseUint(ctx.Query("subjectId"))

	var err error
	var list interface{}
	if subjectID > 0 {
		list, err = c.MasteryService.StudentMasteryBySubject(studentID, subjectID)
	} else {
		list, err = c.MasteryService.StudentMastery(studentID)
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// MyMasterySummary godoc
// @Summary 我的掌握度概览
// @Description 各状态知识点数量统计
// @Tags 知识点掌握
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.MasterySummary}
// @Router /api/student/mastery/summary [get]
func (c *MasteryController) MyMasterySummary(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.MasteryService.Summary(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// PracticeHistory godoc
// @Summary 练习历史
// @Description 当前学生的练习记录，可按知识点过滤
// @Tags 知识点掌握
// @Produce json
// @Security BearerAuth
// @Param knowledgePointId query string false "知识点ID"
// @Success 200 {object} util.Response{data=[]model.PracticeRecord}
// @Router /api/student/practice/history [get]
func (c *MasteryController) PracticeHistory(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	records, err := c.MasteryService.PracticeHistory(user.UserID, ctx.Query("knowledgePointId"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, records)
}
