// Package config 提供配置管理
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Staffing StaffingConfig `yaml:"staffing"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	SlowQuery       time.Duration `yaml:"slow_query"` // 慢查询日志阈值
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// APIConfig API配置
type APIConfig struct {
	RateLimit int           `yaml:"rate_limit"`
	Timeout   time.Duration `yaml:"timeout"`
	CORS      CORSConfig    `yaml:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enabled bool     `yaml:"enabled"`
	Origins []string `yaml:"origins"`
}

// StaffingConfig 派工引擎配置
type StaffingConfig struct {
	FairnessWeight     float64       `yaml:"fairness_weight"`      // 公平性混合权重 0-1
	QualityFloor       float64       `yaml:"quality_floor"`        // 备选时段质量下限
	DefaultHourlyRate  float64       `yaml:"default_hourly_rate"`  // 兜底时薪
	DefaultTargetHours float64       `yaml:"default_target_hours"` // 缺省目标周工时
	HorizonDays        int           `yaml:"horizon_days"`         // 备选时段搜索天数
	SkipWeekends       bool          `yaml:"skip_weekends"`        // 备选搜索跳过周末
	MaxAlternatives    int           `yaml:"max_alternatives"`     // 最多返回的备选数量
	ParallelWorkers    int           `yaml:"parallel_workers"`     // 候选评分并发数
	SourceTimeout      time.Duration `yaml:"source_timeout"`       // 单次数据源读取超时
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load 从环境变量加载配置，存在 .env 文件时先行载入
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", "paigong"),
			Env:      getEnv("APP_ENV", "development"),
			Port:     getEnvInt("APP_PORT", 7021),
			LogLevel: getEnv("APP_LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "paigong"),
			User:            getEnv("DB_USER", "paigong"),
			Password:        getEnv("DB_PASSWORD", "paigong123"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", time.Minute),
			SlowQuery:       getEnvDuration("DB_SLOW_QUERY", 100*time.Millisecond),
		},
		API: APIConfig{
			RateLimit: getEnvInt("API_RATE_LIMIT", 100),
			Timeout:   getEnvDuration("API_TIMEOUT", 30*time.Second),
			CORS: CORSConfig{
				Enabled: getEnvBool("API_CORS_ENABLED", true),
				Origins: []string{"*"},
			},
		},
		Staffing: StaffingConfig{
			FairnessWeight:     getEnvFloat("STAFFING_FAIRNESS_WEIGHT", 0.20),
			QualityFloor:       getEnvFloat("STAFFING_QUALITY_FLOOR", 70),
			DefaultHourlyRate:  getEnvFloat("STAFFING_DEFAULT_HOURLY_RATE", 25),
			DefaultTargetHours: getEnvFloat("STAFFING_DEFAULT_TARGET_HOURS", 40),
			HorizonDays:        getEnvInt("STAFFING_HORIZON_DAYS", 14),
			SkipWeekends:       getEnvBool("STAFFING_SKIP_WEEKENDS", true),
			MaxAlternatives:    getEnvInt("STAFFING_MAX_ALTERNATIVES", 5),
			ParallelWorkers:    getEnvInt("STAFFING_PARALLEL_WORKERS", 4),
			SourceTimeout:      getEnvDuration("STAFFING_SOURCE_TIMEOUT", 2*time.Second),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	if cfg.Staffing.FairnessWeight < 0 || cfg.Staffing.FairnessWeight > 1 {
		return nil, fmt.Errorf("STAFFING_FAIRNESS_WEIGHT 必须在 [0,1] 区间内: %.2f", cfg.Staffing.FairnessWeight)
	}

	return cfg, nil
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// IsTest 检查是否为测试环境
func (c *Config) IsTest() bool {
	return c.App.Env == "test"
}

// 辅助函数
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
