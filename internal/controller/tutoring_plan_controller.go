package controller

import (
	"errors"

	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/service"
	"smart_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TutoringPlanController struct {
	PlanService     *service.TutoringPlanService
	ProgressService *service.ProgressService
}

func NewTutoringPlanController(planService *service.TutoringPlanService, progressService *service.ProgressService) *TutoringPlanController {
	return &TutoringPlanController{PlanService: planService, ProgressService: progressService}
}

// GeneratePlanRequest 生成辅导方案请求
type GeneratePlanRequest struct {
	SubjectID    uint  `json:"subjectId" binding:"required"`
	TargetExamID *uint `json:"targetExamId"`
}

// TransitionPlanRequest 方案状态流转请求
type TransitionPlanRequest struct {
	Status model.PlanStatus `json:"status" binding:"required,oneof=draft active paused completed"`
}

// GenerateMyPlan godoc
// @Summary 生成我的辅导方案
// @Description 根据掌握度和推荐规则为当前学生生成个性化辅导方案
// @Tags 辅导方案
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body GeneratePlanRequest true "学科与目标考试"
// @Success 201 {object} util.Response{data=model.TutoringPlan}
// @Failure 400 {object} util.Response "该学科下没有可安排的知识点"
// @Router /api/student/plans [post]
func (c *TutoringPlanController) GenerateMyPlan(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	c.generate(ctx, user.UserID, user.UserID)
}

// GenerateStudentPlan godoc
// @Summary 为学生生成辅导方案
// @Tags 辅导方案
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "学生ID"
// @Param request body GeneratePlanRequest true "学科与目标考试"
// @Success 201 {object} util.Response{data=model.TutoringPlan}
// @Router /api/teacher/students/{id}/plans [post]
func (c *TutoringPlanController) GenerateStudentPlan(ctx *gin.Context) {
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
	c.generate(ctx, studentID, user.UserID)
}

func (c *TutoringPlanController) generate(ctx *gin.Context, studentID, createdBy uint) {
	var req GeneratePlanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	plan, err := c.PlanService.GeneratePlan(ctx.Request.Context(), studentID, req.SubjectID, createdBy, req.TargetExamID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrStudentNotFound):
			util.NotFound(ctx, err.Error())
		case errors.Is(err, util.ErrNoTutoringTargets), errors.Is(err, util.ErrNoRulesConfigured):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, plan)
}

// GetPlan godoc
// @Summary 查看辅导方案详情
// @Description 含模块列表（按顺序）、练习题和生成来源
// @Tags 辅导方案
// @Produce json
// @Security BearerAuth
// @Param id path string true "方案ID"
// @Success 200 {object} util.Response{data=model.TutoringPlan}
// @Failure 404 {object} util.Response "方案不存在"
// @Router /api/plans/{id} [get]
func (c *TutoringPlanController) GetPlan(ctx *gin.Context) {
	plan, ok := c.loadPlan(ctx)
	if !ok {
		return
	}
	util.Success(ctx, plan)
}

// MyPlans godoc
// @Summary 我的辅导方案列表
// @Tags 辅导方案
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.TutoringPlan}
// @Router /api/student/plans [get]
func (c *TutoringPlanController) MyPlans(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	plans, err := c.PlanService.ListStudentPlans(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, plans)
}

// StudentPlans godoc
// @Summary 查看学生的辅导方案列表
// @Tags 辅导方案
// @Produce json
// @Security BearerAuth
// @Param id path int true "学生ID"
// @Success 200 {object} util.Response{data=[]model.TutoringPlan}
// @Router /api/teacher/students/{id}/plans [get]
func (c *TutoringPlanController) StudentPlans(ctx *gin.Context) {
	studentID := util.MustParseUint(ctx.Param("id"))
	if studentID == 0 {
		util.BadRequest(ctx, "invalid student id")
		return
	}

	plans, err := c.PlanService.ListStudentPlans(studentID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, plans)
}

// TransitionPlan godoc
// @Summary 变更方案状态
// @Description 草稿可激活；激活中可暂停或完成；暂停可恢复
// @Tags 辅导方案
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "方案ID"
// @Param request body TransitionPlanRequest true "目标状态"
// @Success 200 {object} util.Response{data=model.TutoringPlan}
// @Failure 400 {object} util.Response "非法的状态流转"
// @Router /api/plans/{id}/status [put]
func (c *TutoringPlanController) TransitionPlan(ctx *gin.Context) {
	if _, ok := c.loadPlan(ctx); !ok {
		return
	}

	var req TransitionPlanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	plan, err := c.PlanService.Transition(ctx.Param("id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrPlanNotFound):
			util.NotFound(ctx, err.Error())
		case errors.Is(err, util.ErrInvalidPlanTransition):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, plan)
}

// PlanProgress godoc
// @Summary 方案学习进度
// @Description 模块与练习完成情况及整体完成率
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param id path string true "方案ID"
// @Success 200 {object} util.Response{data=model.LearningProgress}
// @Router /api/plans/{id}/progress [get]
func (c *TutoringPlanController) PlanProgress(ctx *gin.Context) {
	if _, ok := c.loadPlan(ctx); !ok {
		return
	}

	progress, err := c.ProgressService.PlanProgress(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrPlanNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, progress)
}

// StartModule godoc
// @Summary 开始学习模块
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param id path string true "模块ID"
// @Success 200 {object} util.Response{data=model.TutoringModule}
// @Failure 400 {object} util.Response "方案未激活"
// @Router /api/modules/{id}/start [post]
func (c *TutoringPlanController) StartModule(ctx *gin.Context) {
	module, err := c.ProgressService.StartModule(ctx.Param("id"))
	c.respondModule(ctx, module, err)
}

// CompleteModule godoc
// @Summary 完成学习模块
// @Description 重复提交不会重复计数；全部模块完成后方案自动结束
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param id path string true "模块ID"
// @Success 200 {object} util.Response{data=model.LearningProgress}
// @Router /api/modules/{id}/complete [post]
func (c *TutoringPlanController) CompleteModule(ctx *gin.Context) {
	progress, err := c.ProgressService.CompleteModule(ctx.Param("id"))
	if err != nil {
		c.respondProgressError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// SkipModule godoc
// @Summary 跳过学习模块
// @Description 仅允许跳过未开始的模块
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param id path string true "模块ID"
// @Success 200 {object} util.Response{data=model.TutoringModule}
// @Router /api/modules/{id}/skip [post]
func (c *TutoringPlanController) SkipModule(ctx *gin.Context) {
	module, err := c.ProgressService.SkipModule(ctx.Param("id"))
	c.respondModule(ctx, module, err)
}

// CompleteExerciseRequest 练习完成上报，得分与用时可选
type CompleteExerciseRequest struct {
	Score            *float64 `json:"score" binding:"omitempty,gte=0,lte=100"`
	TimeSpentMinutes int      `json:"timeSpentMinutes" binding:"omitempty,gte=0"`
}

// CompleteExercise godoc
// @Summary 完成练习题
// @Description 可携带百分制得分与用时（分钟），汇总进方案进度
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "练习题ID"
// @Param request body CompleteExerciseRequest false "得分与用时"
// @Success 200 {object} util.Response{data=model.LearningProgress}
// @Router /api/exercises/{id}/complete [post]
func (c *TutoringPlanController) CompleteExercise(ctx *gin.Context) {
	var req CompleteExerciseRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	progress, err := c.ProgressService.CompleteExercise(ctx.Param("id"), req.Score, req.TimeSpentMinutes)
	if err != nil {
		c.respondProgressError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// RecalculateProgress godoc
// @Summary 重算方案进度
// @Description 从模块与练习明细重新统计进度，用于数据修复
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param id path string true "方案ID"
// @Success 200 {object} util.Response{data=model.LearningProgress}
// @Router /api/admin/plans/{id}/progress/recalculate [post]
func (c *TutoringPlanController) RecalculateProgress(ctx *gin.Context) {
	progress, err := c.ProgressService.Recalculate(ctx.Param("id"))
	if err != nil {
		c.respondProgressError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// loadPlan 取出方案并校验访问权限，学生只能访问自己的方案
func (c *TutoringPlanController) loadPlan(ctx *gin.Context) (*model.TutoringPlan, bool) {
	plan, err := c.PlanService.GetPlan(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrPlanNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return nil, false
	}

	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return nil, false
	}
	if user.Role == model.Student && user.UserID != plan.StudentID {
		util.Forbidden(ctx)
		return nil, false
	}
	return plan, true
}

func (c *TutoringPlanController) respondModule(ctx *gin.Context, module *model.TutoringModule, err error) {
	if err != nil {
		c.respondProgressError(ctx, err)
		return
	}
	util.Success(ctx, module)
}

func (c *TutoringPlanController) respondProgressError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrModuleNotFound), errors.Is(err, util.ErrExerciseNotFound), errors.Is(err, util.ErrPlanNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrPlanNotActive), errors.Is(err, util.ErrInvalidPlanTransition), errors.Is(err, util.ErrInvalidScore):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
