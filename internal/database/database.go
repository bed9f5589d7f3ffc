// Package database 提供 PostgreSQL 连接管理与SQL执行观测
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/paigong/paigong/internal/config"
	"github.com/paigong/paigong/pkg/logger"

	_ "github.com/lib/pq" // PostgreSQL 驱动
)

const (
	pingAttempts = 3
	pingTimeout  = 3 * time.Second
	pingBackoff  = 500 * time.Millisecond
)

// DB 数据库连接封装
// 在 *sql.DB 之上叠加慢查询观测，阈值来自配置
type DB struct {
	*sql.DB
	slowQuery time.Duration
}

// New 创建数据库连接并验证可达性
// 启动阶段数据库可能尚未就绪，带退避重试探活
func New(cfg *config.DatabaseConfig) (*DB, error) {
	conn, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("打开数据库连接失败: %w", err)
	}

	applyPoolSettings(conn, cfg)

	if err := pingWithRetry(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	slowQuery := cfg.SlowQuery
	if slowQuery <= 0 {
		slowQuery = 100 * time.Millisecond
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Int("max_open_conns", conn.Stats().MaxOpenConnections).
		Dur("slow_query", slowQuery).
		Msg("数据库连接成功")

	return &DB{DB: conn, slowQuery: slowQuery}, nil
}

// applyPoolSettings 应用连接池配置，未设置的项取内置默认值
func applyPoolSettings(conn *sql.DB, cfg *config.DatabaseConfig) {
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}
	idleTime := cfg.ConnMaxIdleTime
	if idleTime <= 0 {
		idleTime = time.Minute
	}

	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(maxIdle)
	conn.SetConnMaxLifetime(lifetime)
	conn.SetConnMaxIdleTime(idleTime)
}

// pingWithRetry 带退避的连接探活
func pingWithRetry(conn *sql.DB) error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		err = conn.PingContext(ctx)
		cancel()

		if err == nil {
			return nil
		}
		if attempt < pingAttempts {
			logger.Warn().Err(err).Int("attempt", attempt).Msg("数据库探活失败，稍后重试")
			time.Sleep(pingBackoff * time.Duration(attempt))
		}
	}
	return err
}

// Close 关闭数据库连接
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	logger.Info().Msg("关闭数据库连接")
	return db.DB.Close()
}

// Health 健康检查，附带连接池状态日志
func (db *DB) Health(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return err
	}

	stats := db.DB.Stats()
	if stats.WaitCount > 0 {
		logger.Warn().
			Int("in_use", stats.InUse).
			Int64("wait_count", stats.WaitCount).
			Dur("wait_duration", stats.WaitDuration).
			Msg("连接池出现等待")
	}
	return nil
}

// Transaction 在事务中执行 fn，出错或 panic 时回滚
func (db *DB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("事务回滚失败: %v (原始错误: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("事务提交失败: %w", err)
	}
	return nil
}

// Stats 返回连接池统计信息
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// ExecContext 执行SQL语句并记录慢查询
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	result, err := db.DB.ExecContext(ctx, query, args...)
	db.observe("exec", query, start)
	return result, err
}

// QueryContext 执行查询并记录慢查询
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := db.DB.QueryContext(ctx, query, args...)
	db.observe("query", query, start)
	return rows, err
}

// QueryRowContext 执行单行查询
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := db.DB.QueryRowContext(ctx, query, args...)
	db.observe("query_row", query, start)
	return row
}

// observe 记录超过阈值的SQL执行
func (db *DB) observe(kind, query string, start time.Time) {
	duration := time.Since(start)
	if duration <= db.slowQuery {
		return
	}
	logger.Warn().
		Str("kind", kind).
		Str("query", compactQuery(query)).
		Dur("duration", duration).
		Msg("慢SQL查询")
}

// compactQuery 压缩SQL中的空白并截断，便于单行日志输出
func compactQuery(query string) string {
	q := strings.Join(strings.Fields(query), " ")
	if len(q) > 200 {
		return q[:200] + "..."
	}
	return q
}
