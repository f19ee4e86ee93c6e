package controller

import (
	"errors"
	"strconv"

	"smart_edu_backend/internal/service"
	"smart_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// UserController 处理用户管理相关的HTTP请求
type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{
		UserService: userService,
	}
}

// GetUsers godoc
// @Summary 获取用户列表
// @Description 获取用户列表，支持分页和筛选
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   page query int false "页码" default(1)
// @Param   pageSize query int false "每页条数" default(10)
// @Param   role query string false "角色筛选"
// @Param   classId query int false "班级筛选"
// @Param   search query string false "搜索关键词（姓名/邮箱/学号）"
// @Success 200 {object} util.Response{data=[]model.User} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/admin/users [get]
func (c *UserController) GetUsers(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("pageSize", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	filter := service.UserFilter{
		Role:    ctx.Query("role"),
		ClassID: util.MustParseUint(ctx.Query("classId")),
		Search:  ctx.Query("search"),
	}

	users, total, err := c.UserService.GetUsers(page, pageSize, filter)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"items": users,
		"total": total,
		"page":  page,
		"pages": (total + pageSize - 1) / pageSize,
	})
}

// GetUser godoc
// @Summary 获取单个用户信息
// @Tags 用户管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "用户ID"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "无效的用户ID")
		return
	}

	user, err := c.UserService.GetUserByID(id)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, user)
}

// ResetPassword godoc
// @Summary 重置用户密码
// @Description 重置用户密码并返回临时密码
// @Tags 用户管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "用户ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{id}/reset-password [post]
func (c *UserController) ResetPassword(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "无效的用户ID")
		return
	}

	tempPassword, err := c.UserService.ResetPassword(id)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"tempPassword": tempPassword})
}

// DisableUser godoc
// @Summary 禁用/启用用户
// @Tags 用户管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "用户ID"
// @Param   disable query bool true "是否禁用"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{id}/disable [post]
func (c *UserController) DisableUser(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "无效的用户ID")
		return
	}

	disable := ctx.Query("disable") == "true"

	if err := c.UserService.SetDisabled(id, disable); err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	status := "启用"
	if disable {
		status = "禁用"
	}
	util.Success(ctx, gin.H{"message": "用户已" + status})
}
