package controller

import (
	"errors"

	"smart_edu_backend/internal/service"
	"smart_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type KnowledgePointController struct {
	Service *service.KnowledgePointService
}

func NewKnowledgePointController(svc *service.KnowledgePointService) *KnowledgePointController {
	return &KnowledgePointController{Service: svc}
}

// @Summary 创建知识点 (老师/管理员)
// @Tags 知识点
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateKnowledgePointRequest true "知识点信息"
// @Success 201 {object} util.Response{data=model.KnowledgePoint}
// @Router /api/teacher/knowledge-points [post]
func (c *KnowledgePointController) Create(ctx *gin.Context) {
	var req service.CreateKnowledgePointRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	kp, err := c.Service.Create(req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, kp)
}

// @Summary 获取知识点详情
// @Tags 知识点
// @Produce json
// @Security BearerAuth
// @Param id path string true "知识点ID"
// @Success 200 {object} util.Response{data=model.KnowledgePoint}
// @Failure 404 {object} util.Response "知识点不存在"
// @Router /api/knowledge-points/{id} [get]
func (c *KnowledgePointController) Get(ctx *gin.Context) {
	kp, err := c.Service.Get(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrKnowledgePointNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, kp)
}

// @Summary 按学科获取知识点列表
// @Tags 知识点
// @Produce json
// @Security BearerAuth
// @Param id path int true "学科ID"
// @Success 200 {object} util.Response{data=[]model.KnowledgePoint}
// @Router /api/subjects/{id}/knowledge-points [get]
func (c *KnowledgePointController) ListBySubject(ctx *gin.Context) {
	subjectID := util.MustParseUint(ctx.Param("id"))
	if subjectID == 0 {
		util.BadRequest(ctx, "invalid subject id")
		return
	}

	kps, err := c.Service.ListBySubject(subjectID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, kps)
}

// @Summary 更新知识点 (老师/管理员)
// @Tags 知识点
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "知识点ID"
// @Param body body service.UpdateKnowledgePointRequest true "知识点信息"
// @Success 200 {object} util.Response{data=model.KnowledgePoint}
// @Router /api/teacher/knowledge-points/{id} [put]
func (c *KnowledgePointController) Update(ctx *gin.Context) {
	var req service.UpdateKnowledgePointRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	kp, err := c.Service.Update(ctx.Param("id"), req)
	if err != nil {
		if errors.Is(err, util.ErrKnowledgePointNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, kp)
}
