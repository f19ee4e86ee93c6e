package controller

import (
	"errors"

	"smart_edu_backend/internal/service"
	"smart_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ClassController struct {
	ClassService *service.ClassService
}

func NewClassController(classService *service.ClassService) *ClassController {
	return &ClassController{ClassService: classService}
}

// AssignStudentRequest 学生分班请求
type AssignStudentRequest struct {
	StudentID uint `json:"studentId" binding:"required"`
}

// CreateClass godoc
// @Summary 创建班级 (老师/管理员)
// @Tags 班级
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateClassRequest true "班级信息"
// @Success 201 {object} util.Response{data=model.Class}
// @Router /api/teacher/classes [post]
func (c *ClassController) CreateClass(ctx *gin.Context) {
	var req service.CreateClassRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	class, err := c.ClassService.CreateClass(req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, class)
}

// ListClasses godoc
// @Summary 班级列表
// @Tags 班级
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Class}
// @Router /api/classes [get]
func (c *ClassController) ListClasses(ctx *gin.Context) {
	classes, err := c.ClassService.ListClasses()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, classes)
}

// Roster godoc
// @Summary 班级名册
// @Description 班级信息及学生列表（按学号排序）
// @Tags 班级
// @Produce json
// @Security BearerAuth
// @Param id path int true "班级ID"
// @Success 200 {object} util.Response{data=model.Class}
// @Failure 404 {object} util.Response "班级不存在"
// @Router /api/classes/{id}/roster [get]
func (c *ClassController) Roster(ctx *gin.Context) {
	classID := util.MustParseUint(ctx.Param("id"))
	if classID == 0 {
		util.BadRequest(ctx, "invalid class id")
		return
	}

	class, err := c.ClassService.Roster(classID)
	if err != nil {
		if errors.Is(err, util.ErrClassNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, class)
}

// AssignStudent godoc
// @Summary 学生分班 (老师/管理员)
// @Tags 班级
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "班级ID"
// @Param request body AssignStudentRequest true "学生ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/classes/{id}/students [post]
func (c *ClassController) AssignStudent(ctx *gin.Context) {
	classID := util.MustParseUint(ctx.Param("id"))
	if classID == 0 {
		util.BadRequest(ctx, "invalid class id")
		return
	}

	var req AssignStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.ClassService.AssignStudent(classID, req.StudentID); err != nil {
		switch {
		case errors.Is(err, util.ErrClassNotFound), errors.Is(err, util.ErrStudentNotFound):
			util.NotFound(ctx, err.Error())
		default:
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, gin.H{"classId": classID, "studentId": req.StudentID})
}
