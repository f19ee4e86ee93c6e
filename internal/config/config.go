package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	AI        AIConfig
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Tutoring  TutoringConfig  `mapstructure:"tutoring"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"` // 强制执行数据库迁移
	MigrateOnly  bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type AIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	RequestTimeout time.Duration `mapstructure:"request_timeout_seconds"`
}

// AnalysisConfig 成绩分析引擎参数
// 业务规则未写死的参数全部放在这里，便于按校区调整
type AnalysisConfig struct {
	PassLine        float64 `mapstructure:"pass_line"`         // 及格线（得分率），默认 0.6
	ExcellentLine   float64 `mapstructure:"excellent_line"`    // 优秀线（得分率），默认 0.9
	MasteryAlpha    float64 `mapstructure:"mastery_alpha"`     // 掌握度指数平滑系数，默认 0.3
	MasteredLevel   float64 `mapstructure:"mastered_level"`    // 判定已掌握的掌握度下限，默认 0.85
	MasteredMinRuns int     `mapstructure:"mastered_min_runs"` // 判定已掌握的最少练习次数，默认 3
	ReviewThreshold float64 `mapstructure:"review_threshold"`  // 已掌握后单次低于该分视为需复习，默认 0.5
	StalenessDays   int     `mapstructure:"staleness_days"`    // 掌握后多少天未练习进入需复习，默认 14
	TrendEpsilon    float64 `mapstructure:"trend_epsilon"`     // 趋势判定噪声阈值，默认 0.02
	StrengthTopK    int     `mapstructure:"strength_top_k"`    // 优势/短板学科取前后各 K 个，默认 2
	CohortMargin    float64 `mapstructure:"cohort_margin"`     // 相对班级均分的边际（百分制分数），默认 5
	AbsStrongLine   float64 `mapstructure:"abs_strong_line"`   // 无班级均分时的优势绝对线，默认 80
	AbsWeakLine     float64 `mapstructure:"abs_weak_line"`     // 无班级均分时的短板绝对线，默认 60
	CacheTTLMinutes int     `mapstructure:"cache_ttl_minutes"` // 考试统计缓存 TTL，默认 30
}

// TutoringConfig 辅导方案生成参数
type TutoringConfig struct {
	MaxModules       int     `mapstructure:"max_modules"`          // 单个方案模块数上限，默认 8
	EasyMinutes      int     `mapstructure:"easy_minutes"`         // 简单知识点预估分钟数，默认 30
	MediumMinutes    int     `mapstructure:"medium_minutes"`       // 中等知识点预估分钟数，默认 45
	HardMinutes      int     `mapstructure:"hard_minutes"`         // 困难知识点预估分钟数，默认 60
	ExercisesPerUnit int     `mapstructure:"exercises_per_unit"`   // 每个练习型模块附带的练习题数，默认 3
	LessonThreshold  float64 `mapstructure:"lesson_threshold"`     // 掌握度低于该值建课程模块，默认 0.4
	AssessThreshold  float64 `mapstructure:"assessment_threshold"` // 掌握度不低于该值建测评模块，默认 0.7
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("SMART_EDU")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// AI
	viper.BindEnv("ai.base_url", "AI_BASE_URL")
	viper.BindEnv("ai.api_key", "AI_API_KEY")
	viper.BindEnv("ai.model", "AI_MODEL")

	// Storage / OSS
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	viper.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	viper.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	viper.BindEnv("storage.oss_bucket", "OSS_BUCKET")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	setAnalysisDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.AI.RequestTimeout = cfg.AI.RequestTimeout * time.Second

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

func setAnalysisDefaults() {
	viper.SetDefault("ai.request_timeout_seconds", 20)

	viper.SetDefault("analysis.pass_line", 0.6)
	viper.SetDefault("analysis.excellent_line", 0.9)
	viper.SetDefault("analysis.mastery_alpha", 0.3)
	viper.SetDefault("analysis.mastered_level", 0.85)
	viper.SetDefault("analysis.mastered_min_runs", 3)
	viper.SetDefault("analysis.review_threshold", 0.5)
	viper.SetDefault("analysis.staleness_days", 14)
	viper.SetDefault("analysis.trend_epsilon", 0.02)
	viper.SetDefault("analysis.strength_top_k", 2)
	viper.SetDefault("analysis.cohort_margin", 5)
	viper.SetDefault("analysis.abs_strong_line", 80)
	viper.SetDefault("analysis.abs_weak_line", 60)
	viper.SetDefault("analysis.cache_ttl_minutes", 30)

	viper.SetDefault("tutoring.max_modules", 8)
	viper.SetDefault("tutoring.easy_minutes", 30)
	viper.SetDefault("tutoring.medium_minutes", 45)
	viper.SetDefault("tutoring.hard_minutes", 60)
	viper.SetDefault("tutoring.exercises_per_unit", 3)
	viper.SetDefault("tutoring.lesson_threshold", 0.4)
	viper.SetDefault("tutoring.assessment_threshold", 0.7)
}

// AnalysisDefaults 返回一份带默认值的分析参数，供脚本和测试直接使用
func AnalysisDefaults() AnalysisConfig {
	return AnalysisConfig{
		PassLine:        0.6,
		ExcellentLine:   0.9,
		MasteryAlpha:    0.3,
		MasteredLevel:   0.85,
		MasteredMinRuns: 3,
		ReviewThreshold: 0.5,
		StalenessDays:   14,
		TrendEpsilon:    0.02,
		StrengthTopK:    2,
		CohortMargin:    5,
		AbsStrongLine:   80,
		AbsWeakLine:     60,
		CacheTTLMinutes: 30,
	}
}

// TutoringDefaults 返回一份带默认值的辅导方案参数
func TutoringDefaults() TutoringConfig {
	return TutoringConfig{
		MaxModules:       8,
		EasyMinutes:      30,
		MediumMinutes:    45,
		HardMinutes:      60,
		ExercisesPerUnit: 3,
		LessonThreshold:  0.4,
		AssessThreshold:  0.7,
	}
}
