package database

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/paigong/paigong/internal/config"
)

func TestApplyPoolSettings(t *testing.T) {
	conn, err := sql.Open("postgres", "host=localhost dbname=paigong sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to open connection: %v", err)
	}
	defer conn.Close()

	applyPoolSettings(conn, &config.DatabaseConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	})

	if got := conn.Stats().MaxOpenConnections; got != 10 {
		t.Errorf("Expected MaxOpenConnections=10, got %d", got)
	}
}

func TestApplyPoolSettings_Defaults(t *testing.T) {
	conn, err := sql.Open("postgres", "host=localhost dbname=paigong sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to open connection: %v", err)
	}
	defer conn.Close()

	// 未配置的项取内置默认值
	applyPoolSettings(conn, &config.DatabaseConfig{})

	if got := conn.Stats().MaxOpenConnections; got != 25 {
		t.Errorf("Expected default MaxOpenConnections=25, got %d", got)
	}
}

func TestCompactQuery(t *testing.T) {
	got := compactQuery("SELECT id,\n\t       name\n\tFROM workers\n\tWHERE status = $1")
	want := "SELECT id, name FROM workers WHERE status = $1"
	if got != want {
		t.Errorf("compactQuery = %q, want %q", got, want)
	}
}

func TestCompactQuery_Truncates(t *testing.T) {
	long := "SELECT " + strings.Repeat("x", 300)
	got := compactQuery(long)

	if len(got) != 203 {
		t.Errorf("Expected truncation to 203 chars, got %d", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Expected ... suffix, got %q", got[len(got)-10:])
	}
}
