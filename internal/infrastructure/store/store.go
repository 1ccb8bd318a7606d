package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"elzar-backend/internal/infrastructure/config"
	"elzar-backend/internal/pkg/common"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// 連線池與查詢逾時設定
const (
	maxOpenConns = 10
	maxIdleConns = 2
	queryTimeout = 30 * time.Second
)

const schema = `
CREATE TABLE IF NOT EXISTS recipes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    recipe_text TEXT NOT NULL,
    cuisine TEXT,
    time_minutes INTEGER,
    effort_level TEXT,
    dish_preference TEXT,
    calories_per_serving INTEGER,
    used_external_ingredients BOOLEAN,
    prioritize_expiring BOOLEAN,
    active_profiles TEXT,
    inventory_snapshot TEXT,
    user_prompt TEXT,
    llm_model TEXT
);
CREATE INDEX IF NOT EXISTS idx_recipes_created_at ON recipes(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_recipes_cuisine ON recipes(cuisine);
CREATE INDEX IF NOT EXISTS idx_recipes_time ON recipes(time_minutes);
CREATE INDEX IF NOT EXISTS idx_recipes_calories ON recipes(calories_per_serving);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS dietary_profiles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    dietary_restrictions TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_profiles_name ON dietary_profiles(name);
`

// Store SQLite 持久層，保存食譜歷史、設定覆寫與飲食設定檔
type Store struct {
	db *sql.DB
}

// New 開啟資料庫、套用 pragma 並建立資料表
func New(cfg *config.Config) (*Store, error) {
	dbPath := cfg.Store.DatabasePath
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL 讓讀寫不互相阻塞，pragma 失敗不阻擋啟動
	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			common.LogWarn("套用 pragma 失敗",
				zap.String("pragma", pragma),
				zap.Error(err),
			)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	common.LogInfo("資料庫已初始化",
		zap.String("路徑", dbPath),
	)

	return &Store{db: db}, nil
}

// Close 關閉資料庫連線
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping 檢查資料庫連線，供就緒檢查使用
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// withTimeout 查詢逾時的統一入口
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}
