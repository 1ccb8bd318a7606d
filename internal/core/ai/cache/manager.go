package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"elzar-backend/internal/infrastructure/config"
	"elzar-backend/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	// ErrDisabled 快取未啟用
	ErrDisabled = errors.New("cache disabled")
	// ErrMiss 快取未命中
	ErrMiss = errors.New("cache miss")
	// ErrFull 快取已滿且無法騰出空間
	ErrFull = errors.New("cache full")
)

// Manager 快取管理器
// 預設使用行程內記憶體，設定 redis_enabled 時改用 Redis 後端
type Manager struct {
	config *config.Config
	redis  *redisBackend
	mu     sync.Mutex
	store  map[string]cacheEntry
	stats  cacheStats
}

// cacheEntry 快取條目
type cacheEntry struct {
	value       string
	expiresAt   time.Time
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// cacheStats 快取統計
type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
	errors    int64
}

// NewManager 創建新的快取管理器
func NewManager(cfg *config.Config) *Manager {
	if !cfg.Cache.Enabled {
		common.LogInfo("Cache disabled")
		return nil
	}

	m := &Manager{
		config: cfg,
		store:  make(map[string]cacheEntry),
		stats:  cacheStats{},
	}

	if cfg.Cache.RedisEnabled {
		backend, err := newRedisBackend(cfg)
		if err != nil {
			// Redis 連不上時退回記憶體快取，不阻擋啟動
			common.LogWarn("Redis 快取初始化失敗，改用記憶體快取",
				zap.Error(err),
				zap.String("addr", cfg.Cache.RedisAddr),
			)
		} else {
			m.redis = backend
		}
	}

	// 啟動清理過期快取的協程
	go m.startCleanup()

	common.LogInfo("快取管理員已初始化",
		zap.Int("最大容量", cfg.Cache.MaxSize),
		zap.Duration("存活時間", cfg.Cache.TTL),
		zap.Duration("清理間隔", cfg.Cache.CleanupInterval),
		zap.Bool("redis", m.redis != nil),
	)

	return m
}

// Get 獲取快取值
func (m *Manager) Get(ctx context.Context, prompt string) (string, error) {
	if m == nil || !m.config.Cache.Enabled {
		return "", ErrDisabled
	}

	key := m.generateKey(prompt)

	if m.redis != nil {
		value, err := m.redis.Get(ctx, key)
		if err != nil {
			m.countMiss(key)
			return "", err
		}
		m.countHit(key)
		return value, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.store[key]
	if !exists {
		m.stats.misses++
		common.LogInfo("快取未命中",
			zap.String("鍵", key),
		)
		return "", ErrMiss
	}

	// 檢查是否過期
	if time.Now().After(entry.expiresAt) {
		delete(m.store, key)
		m.stats.evictions++
		common.LogInfo("快取已過期",
			zap.String("鍵", key),
		)
		return "", ErrMiss
	}

	// 更新訪問統計
	entry.lastAccess = time.Now()
	entry.accessCount++
	m.store[key] = entry
	m.stats.hits++

	common.LogInfo("快取命中",
		zap.String("鍵", key),
	)
	return entry.value, nil
}

// Set 設置快取值
func (m *Manager) Set(ctx context.Context, prompt, value string) error {
	if m == nil || !m.config.Cache.Enabled {
		return nil
	}

	key := m.generateKey(prompt)

	if m.redis != nil {
		return m.redis.Set(ctx, key, value)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// 檢查快取大小
	if len(m.store) >= m.config.Cache.MaxSize {
		// 清理過期項目
		evicted := m.cleanup()
		common.LogInfo("快取清理執行",
			zap.Int("清理數量", evicted),
		)

		// 如果仍然超過大小限制，執行 LRU 清理
		if len(m.store) >= m.config.Cache.MaxSize {
			m.evictLRU()
		}

		// 如果仍然超過大小限制，返回錯誤
		if len(m.store) >= m.config.Cache.MaxSize {
			m.stats.errors++
			common.LogWarn("快取已滿",
				zap.Int("目前容量", len(m.store)),
			)
			return ErrFull
		}
	}

	now := time.Now()
	m.store[key] = cacheEntry{
		value:       value,
		expiresAt:   now.Add(m.config.Cache.TTL),
		createdAt:   now,
		lastAccess:  now,
		accessCount: 0,
	}

	common.LogInfo("快取已儲存",
		zap.String("鍵", key),
	)

	return nil
}

// countHit 記錄命中統計（Redis 後端共用）
func (m *Manager) countHit(key string) {
	m.mu.Lock()
	m.stats.hits++
	m.mu.Unlock()
	common.LogInfo("快取命中",
		zap.String("鍵", key),
	)
}

// countMiss 記錄未命中統計（Redis 後端共用）
func (m *Manager) countMiss(key string) {
	m.mu.Lock()
	m.stats.misses++
	m.mu.Unlock()
	common.LogInfo("快取未命中",
		zap.String("鍵", key),
	)
}

// generateKey 生成快取鍵
func (m *Manager) generateKey(prompt string) string {
	hash := sha256.Sum256([]byte(prompt))
	return fmt.Sprintf("prompt:%s", hex.EncodeToString(hash[:]))
}

// startCleanup 啟動清理過期快取的協程
func (m *Manager) startCleanup() {
	if m.redis != nil {
		return // Redis 由 TTL 自行清理
	}

	ticker := time.NewTicker(m.config.Cache.CleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		m.cleanup()
		m.mu.Unlock()
	}
}

// cleanup 清理過期的快取，呼叫端必須持有鎖
func (m *Manager) cleanup() int {
	now := time.Now()
	count := 0

	for key, entry := range m.store {
		if now.After(entry.expiresAt) {
			delete(m.store, key)
			count++
			m.stats.evictions++
		}
	}

	return count
}

// evictLRU 執行 LRU 清理
func (m *Manager) evictLRU() {
	var oldestKey string
	var oldestAccess time.Time
	var lowestAccessCount int

	// 找到最少訪問的項目
	for key, entry := range m.store {
		if oldestKey == "" ||
			entry.accessCount < lowestAccessCount ||
			(entry.accessCount == lowestAccessCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestAccessCount = entry.accessCount
		}
	}

	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.evictions++
		common.LogInfo("快取已淘汰(LRU)",
			zap.String("鍵", oldestKey),
		)
	}
}

// GetStats 獲取快取統計信息
func (m *Manager) GetStats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := m.stats.hits + m.stats.misses
	hitRatio := 0.0
	if total > 0 {
		hitRatio = float64(m.stats.hits) / float64(total)
	}

	return map[string]interface{}{
		"size":      len(m.store),
		"max_size":  m.config.Cache.MaxSize,
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"evictions": m.stats.evictions,
		"errors":    m.stats.errors,
		"hit_ratio": hitRatio,
	}
}

// Close 關閉快取管理器
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.redis != nil {
		_ = m.redis.Close()
	}

	// 清空快取
	m.store = make(map[string]cacheEntry)
	common.LogInfo("快取管理員已關閉",
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
		zap.Int64("淘汰次數", m.stats.evictions),
	)
	return nil
}
