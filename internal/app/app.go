package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smart_edu_backend/internal/config"
	"smart_edu_backend/internal/controller"
	"smart_edu_backend/internal/repository"
	"smart_edu_backend/internal/service"
	"smart_edu_backend/pkg/database"
	"smart_edu_backend/pkg/logger"
	"smart_edu_backend/pkg/monitoring"
	"smart_edu_backend/pkg/security"
	"smart_edu_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user           *repository.UserRepository
	class          *repository.ClassRepository
	subject        *repository.SubjectRepository
	exam           *repository.ExamRepository
	grade          *repository.GradeRepository
	knowledgePoint *repository.KnowledgePointRepository
	practice       *repository.PracticeRepository
	mastery        *repository.MasteryRepository
	plan           *repository.TutoringPlanRepository
	progress       *repository.ProgressRepository
	rule           *repository.RuleRepository
	report         *repository.ReportRepository
}

type services struct {
	auth           *service.AuthService
	user           *service.UserService
	storage        *service.StorageService
	class          *service.ClassService
	exam           *service.ExamService
	knowledgePoint *service.KnowledgePointService
	statsCache     *service.StatisticsCache
	grade          *service.GradeService
	mastery        *service.MasteryService
	analysis       *service.AnalysisService
	ai             *service.AIService
	plan           *service.TutoringPlanService
	progress       *service.ProgressService
	report         *service.ReportService
}

type controllers struct {
	auth           *controller.AuthController
	user           *controller.UserController
	class          *controller.ClassController
	exam           *controller.ExamController
	grade          *controller.GradeController
	knowledgePoint *controller.KnowledgePointController
	mastery        *controller.MasteryController
	analysis       *controller.AnalysisController
	plan           *controller.TutoringPlanController
	report         *controller.ReportController
	health         *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置文件热更新入口，由 configwatcher 回调
// 只下发注册过回调的参数（分析与辅导方案阈值），端口等需要重启的配置不动
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config.Analysis = cfg.Analysis
	a.Config.Tutoring = cfg.Tutoring
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
	logger.Log.Info("Analysis parameters reloaded from config file")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:           repository.NewUserRepository(db),
		class:          repository.NewClassRepository(db),
		subject:        repository.NewSubjectRepository(db),
		exam:           repository.NewExamRepository(db),
		grade:          repository.NewGradeRepository(db),
		knowledgePoint: repository.NewKnowledgePointRepository(db),
		practice:       repository.NewPracticeRepository(db),
		mastery:        repository.NewMasteryRepository(db),
		plan:           repository.NewTutoringPlanRepository(db),
		progress:       repository.NewProgressRepository(db),
		rule:           repository.NewRuleRepository(db),
		report:         repository.NewReportRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.class = service.NewClassService(repos.class, repos.user)
	s.exam = service.NewExamService(repos.exam, repos.class, repos.subject)
	s.knowledgePoint = service.NewKnowledgePointService(repos.knowledgePoint, repos.subject)

	s.statsCache = service.NewStatisticsCache(rdb, cfg.Analysis.CacheTTLMinutes)
	s.grade = service.NewGradeService(repos.grade, repos.exam, repos.user, s.statsCache)
	s.mastery = service.NewMasteryService(repos.mastery, repos.practice, repos.knowledgePoint, cfg.Analysis)
	s.analysis = service.NewAnalysisService(
		repos.grade,
		repos.exam,
		repos.user,
		repos.class,
		repos.subject,
		repos.rule,
		s.mastery,
		s.statsCache,
		cfg.Analysis,
	)

	// 摘要文案：配置了 AI 服务时走大模型，否则直接用模板
	var textGen service.PlanTextGenerator
	if cfg.AI.BaseURL != "" && cfg.AI.APIKey != "" {
		s.ai = service.NewAIService(cfg.AI)
		textGen = service.NewAITextGenerator(s.ai, cfg.AI.RequestTimeout)
	} else {
		logger.Log.Info("AI service not configured, plan summaries will use templates")
	}

	s.plan = service.NewTutoringPlanService(
		repos.plan,
		repos.progress,
		repos.rule,
		repos.knowledgePoint,
		repos.user,
		repos.subject,
		s.mastery,
		textGen,
		cfg.Tutoring,
	)
	s.progress = service.NewProgressService(repos.plan, repos.progress)
	s.report = service.NewReportService(s.analysis, s.storage, repos.report)

	// 分析与辅导参数支持热更新
	a.RegisterConfigCallback(func(c *config.Config) {
		s.mastery.Cfg = c.Analysis
		s.analysis.Cfg = c.Analysis
		s.plan.Cfg = c.Tutoring
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:           controller.NewAuthController(s.auth, s.user),
		user:           controller.NewUserController(s.user),
		class:          controller.NewClassController(s.class),
		exam:           controller.NewExamController(s.exam),
		grade:          controller.NewGradeController(s.grade),
		knowledgePoint: controller.NewKnowledgePointController(s.knowledgePoint),
		mastery:        controller.NewMasteryController(s.mastery),
		analysis:       controller.NewAnalysisController(s.analysis),
		plan:           controller.NewTutoringPlanController(s.plan, s.progress),
		report:         controller.NewReportController(s.report),
		health:         controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 6000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services) {
	// 每天把久未复习的已掌握知识点翻到需复习
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			s.mastery.SweepStale()
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Redis 只承担考试统计缓存，连不上时降级运行
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, statistics cache disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("grade-analytics", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, repos, cfg)

	// 本地存储时报告文件直接由服务托管
	if cfg.Storage.Type == "local" {
		router.Static("/reports", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 关闭服务
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
