// PaiGong 派工引擎服务
// 主程序入口

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/internal/config"
	"github.com/paigong/paigong/internal/database"
	"github.com/paigong/paigong/internal/handler"
	"github.com/paigong/paigong/internal/metrics"
	"github.com/paigong/paigong/internal/repository"
	"github.com/paigong/paigong/internal/team"
	"github.com/paigong/paigong/pkg/logger"
	"github.com/paigong/paigong/pkg/staffing"
	"github.com/paigong/paigong/pkg/stats"
	"github.com/paigong/paigong/pkg/validator"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: "console",
	})

	// 打印版本信息
	fmt.Printf("PaiGong 派工引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// 连接数据库。连接失败时服务仍可启动，
	// 派工接口要求请求内嵌候选工人池，仅按班组加载的路径不可用
	var workerRepo *repository.WorkerRepository
	var commitmentRepo *repository.CommitmentRepository
	sources := staffing.Sources{}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("数据库不可用，以纯计算模式启动")
	} else {
		defer db.Close()

		detector := validator.NewConflictDetector(nil)
		workerRepo = repository.NewWorkerRepository(db)
		commitmentRepo = repository.NewCommitmentRepository(db, detector)
		sources = staffing.Sources{
			Roles:          repository.NewRoleRepository(db),
			Commitments:    commitmentRepo,
			Certifications: repository.NewCertificationRepository(db),
			Rates:          repository.NewRateRepository(db),
		}
	}

	// 创建派工引擎
	engineCfg := staffing.DefaultConfig()
	engineCfg.FairnessWeight = cfg.Staffing.FairnessWeight
	engineCfg.QualityFloor = cfg.Staffing.QualityFloor
	engineCfg.DefaultHourlyRate = cfg.Staffing.DefaultHourlyRate
	engineCfg.DefaultTargetHours = cfg.Staffing.DefaultTargetHours
	engineCfg.HorizonDays = cfg.Staffing.HorizonDays
	engineCfg.SkipWeekends = cfg.Staffing.SkipWeekends
	engineCfg.MaxAlternatives = cfg.Staffing.MaxAlternatives
	engineCfg.ParallelWorkers = cfg.Staffing.ParallelWorkers
	engineCfg.SourceTimeout = cfg.Staffing.SourceTimeout

	engine := staffing.NewEngine(engineCfg, sources)
	engine.SetDegradeHook(func(source string) {
		metrics.SourceDegradedTotal.WithLabelValues(source).Inc()
	})

	// 创建处理器
	staffingHandler := handler.NewStaffingHandler(engine, workerRepo)
	statsHandler := handler.NewStatsHandler(
		stats.NewUtilizationAnalyzer(cfg.Staffing.DefaultTargetHours),
		workerRepo, commitmentRepo,
	)

	// 创建 HTTP 服务器
	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	// 健康检查端点。数据库不可用时降级为 degraded，服务本身仍返回 200
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Health(ctx); err != nil {
				status = "degraded"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"%s","service":"paigong"}`, status)
	})

	// 版本信息端点
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	// API 根路由
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "PaiGong 派工引擎 API v1",
			"endpoints": {
				"staffing": {
					"availability": "POST /api/v1/staffing/availability",
					"qualification": "POST /api/v1/staffing/qualification",
					"rank": "POST /api/v1/staffing/rank",
					"allocate": "POST /api/v1/staffing/allocate",
					"alternatives": "POST /api/v1/staffing/alternatives",
					"weekdays": "POST /api/v1/staffing/weekdays"
				},
				"stats": {
					"utilization": "GET /api/v1/stats/utilization?team_id=<uuid>"
				}
			}
		}`))
	})

	// 可用性检查 API
	mux.HandleFunc("/api/v1/staffing/availability", staffingHandler.Availability)

	// 资质评分 API
	mux.HandleFunc("/api/v1/staffing/qualification", staffingHandler.Qualification)

	// 候选排序 API
	mux.HandleFunc("/api/v1/staffing/rank", staffingHandler.Rank)

	// 整班派工 API
	mux.HandleFunc("/api/v1/staffing/allocate", staffingHandler.Allocate)

	// 备选时段 API
	mux.HandleFunc("/api/v1/staffing/alternatives", staffingHandler.Alternatives)

	// 工作日分析 API
	mux.HandleFunc("/api/v1/staffing/weekdays", staffingHandler.Weekdays)

	// 工时分布统计 API
	mux.HandleFunc("/api/v1/stats/utilization", statsHandler.Utilization)

	// ========================================
	// 监控端点
	// ========================================

	// Prometheus 指标端点
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// ========================================
	// 中间件
	// ========================================

	// 班组注册表：默认班组兜底，X-Team-Code 请求头切换班组
	teamManager := team.NewManager()
	teamManager.Register(team.CreateDefaultTeam())

	// 中间件执行顺序：requestID -> team -> rateLimit -> cors -> logging -> handler
	rateLimiter := NewRateLimiter(float64(cfg.API.RateLimit))
	root := requestIDMiddleware(teamMiddleware(teamManager,
		rateLimitMiddleware(rateLimiter, corsMiddleware(loggingMiddleware(mux)))))

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Str("url", fmt.Sprintf("http://localhost:%d", cfg.App.Port)).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}

// requestIDMiddleware 请求ID追踪中间件
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), "request_id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// teamMiddleware 班组解析中间件
// 无 X-Team-Code 请求头时使用默认班组，停用或未注册的班组拒绝请求
func teamMiddleware(tm *team.Manager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.Header.Get("X-Team-Code")
		if code == "" {
			code = "default"
		}

		t, err := tm.Get(code)
		if err != nil {
			status := http.StatusForbidden
			if err == team.ErrTeamNotFound {
				status = http.StatusNotFound
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   true,
				"code":    "TEAM_UNAVAILABLE",
				"message": err.Error(),
			})
			return
		}

		next.ServeHTTP(w, r.WithContext(team.WithTeam(r.Context(), t)))
	})
}

// loggingMiddleware 日志中间件
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID, _ := r.Context().Value("request_id").(string)

		// 包装ResponseWriter以捕获状态码
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Dur("duration", duration).
			Msg("请求处理")

		metrics.HTTPRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rw.statusCode)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.URL.Path).Observe(duration.Seconds())
	})
}

// responseWriter 包装ResponseWriter以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RateLimiter 简单的令牌桶限流器
type RateLimiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // 每秒添加的令牌数
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter 创建限流器
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 100
	}
	return &RateLimiter{
		tokens:     requestsPerSecond,
		maxTokens:  requestsPerSecond * 2, // 允许突发流量
		refillRate: requestsPerSecond,
		lastRefill: time.Now(),
	}
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// rateLimitMiddleware 限流中间件
func rateLimitMiddleware(rl *RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   true,
				"code":    "RATE_LIMITED",
				"message": "请求过于频繁，请稍后重试",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware CORS中间件
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
