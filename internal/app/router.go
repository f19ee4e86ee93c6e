package app

import (
	"smart_edu_backend/docs"
	"smart_edu_backend/internal/config"
	"smart_edu_backend/internal/middleware"
	"smart_edu_backend/internal/model"

	"smart_edu_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		// 学生/通用 授权接口
		a.registerStudentRoutes(authGroup, c)

		// 教师相关接口
		a.registerTeacherRoutes(authGroup, c)
	}

	// 3. 管理员相关接口
	a.registerAdminRoutes(router, c, repos, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)
	rg.PUT("/profile", c.auth.UpdateProfile)

	// 基础数据
	rg.GET("/subjects", c.exam.ListSubjects)
	rg.GET("/subjects/:id/knowledge-points", c.knowledgePoint.ListBySubject)
	rg.GET("/knowledge-points/:id", c.knowledgePoint.Get)
	rg.GET("/classes", c.class.ListClasses)
	rg.GET("/classes/:id/exams", c.exam.ListClassExams)
	rg.GET("/classes/:id/roster", middleware.RoleMiddleware(model.Teacher, model.Admin), c.class.Roster)
	rg.GET("/exams/:id", c.exam.GetExam)

	// 分析（学生仅能查看自己的数据，控制器内校验）
	rg.GET("/analysis/exams/:id", c.analysis.ExamStatistics)
	rg.GET("/analysis/students/:id", c.analysis.StudentAnalysis)
	rg.GET("/analysis/students/:id/subjects/:subjectId/trend", c.analysis.SubjectTrend)

	// 辅导方案与进度
	rg.GET("/plans/:id", c.plan.GetPlan)
	rg.PUT("/plans/:id/status", c.plan.TransitionPlan)
	rg.GET("/plans/:id/progress", c.plan.PlanProgress)
	rg.POST("/modules/:id/start", c.plan.StartModule)
	rg.POST("/modules/:id/complete", c.plan.CompleteModule)
	rg.POST("/modules/:id/skip", c.plan.SkipModule)
	rg.POST("/exercises/:id/complete", c.plan.CompleteExercise)

	// 学生本人
	student := rg.Group("/student")
	student.Use(middleware.RoleMiddleware(model.Student))
	{
		student.GET("/grades", c.grade.MyGrades)
		student.POST("/practice", c.mastery.RecordPractice)
		student.GET("/mastery", c.mastery.MyMastery)
		student.GET("/mastery/summary", c.mastery.MyMasterySummary)
		student.GET("/practice/history", c.mastery.PracticeHistory)
		student.POST("/plans", c.plan.GenerateMyPlan)
		student.GET("/plans", c.plan.MyPlans)
	}
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	teacher := rg.Group("/teacher")
	teacher.Use(middleware.RoleMiddleware(model.Teacher, model.Admin))
	{
		// 考试与成绩
		teacher.POST("/exams", c.exam.CreateExam)
		teacher.POST("/exams/:id/grades", c.grade.EnterGrades)
		teacher.PUT("/exams/:id/grades/correct", c.grade.CorrectGrade)
		teacher.GET("/exams/:id/grades/:studentId/history", c.grade.GradeHistory)

		// 学生视角
		teacher.GET("/students/:id/grades", c.grade.StudentGrades)
		teacher.GET("/students/:id/mastery", c.mastery.StudentMastery)
		teacher.POST("/students/:id/practice", c.mastery.RecordStudentPractice)
		teacher.POST("/students/:id/plans", c.plan.GenerateStudentPlan)
		teacher.GET("/students/:id/plans", c.plan.StudentPlans)

		// 班级管理
		teacher.POST("/classes", c.class.CreateClass)
		teacher.POST("/classes/:id/students", c.class.AssignStudent)

		// 知识点管理
		teacher.POST("/knowledge-points", c.knowledgePoint.Create)
		teacher.PUT("/knowledge-points/:id", c.knowledgePoint.Update)

		// 报表
		teacher.POST("/reports/exams/:id", c.report.ExportExamReport)
		teacher.POST("/reports/students/:id", c.report.ExportStudentReport)
		teacher.GET("/reports", c.report.ListReports)
		teacher.GET("/reports/:id", c.report.GetReport)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(a.Config), middleware.ActivityMiddleware(repos.user))
	{
		// 1. 用户列表和详情：允许管理员和老师访问
		admin.GET("/users", middleware.RoleMiddleware(model.Admin, model.Teacher), c.user.GetUsers)
		admin.GET("/users/:id", middleware.RoleMiddleware(model.Admin, model.Teacher), c.user.GetUser)

		// 2. 其他所有接口：仅限管理员访问
		adminOnly := admin.Group("/")
		adminOnly.Use(middleware.RoleMiddleware(model.Admin))
		{
			adminOnly.POST("/users/:id/reset-password", c.user.ResetPassword)
			adminOnly.POST("/users/:id/disable", c.user.DisableUser)
			adminOnly.POST("/plans/:id/progress/recalculate", c.plan.RecalculateProgress)
		}
	}
}
