package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"elzar-backend/internal/core/ai/cache"
	"elzar-backend/internal/core/ai/llm"
	"elzar-backend/internal/infrastructure/config"
)

// Response AI 回應結構
type Response struct {
	Content string
	Cached  bool
}

// Options 單次請求的取樣參數
// Temperature 為 nil 時使用模型預設值
type Options struct {
	Temperature *float64
	MaxTokens   int
	NoCache     bool
}

// Service AI 服務，統一處理快取與頻率限制
type Service struct {
	config       *config.Config
	client       *llm.Client
	cacheManager *cache.Manager
	mu           sync.Mutex
	lastRequest  time.Time
}

// NewService 創建 AI 服務
func NewService(cfg *config.Config, client *llm.Client, cacheManager *cache.Manager) *Service {
	return &Service{
		config:       cfg,
		client:       client,
		cacheManager: cacheManager,
	}
}

// ProcessRequest 統一對外方法
func (s *Service) ProcessRequest(ctx context.Context, prompt string, opts Options) (*Response, error) {
	if err := s.checkRequestRate(); err != nil {
		return nil, err
	}

	// 統一 prompt 空白格式，確保快取 key 一致
	// 僅壓縮為單一空格，避免破壞 prompt 內容本身
	prompt = strings.Join(strings.Fields(prompt), " ")

	useCache := s.config.Cache.Enabled && s.cacheManager != nil && !opts.NoCache
	cacheKey := s.cacheKey(prompt, opts)

	if useCache {
		if val, err := s.cacheManager.Get(ctx, cacheKey); err == nil && val != "" {
			return &Response{Content: val, Cached: true}, nil
		}
	}

	content, err := s.client.Chat(ctx, prompt, llm.Options{
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	if useCache {
		_ = s.cacheManager.Set(ctx, cacheKey, content)
	}

	return &Response{Content: content}, nil
}

// cacheKey 將取樣參數納入鍵值，不同溫度的回應不互相汙染
func (s *Service) cacheKey(prompt string, opts Options) string {
	if opts.Temperature == nil {
		return prompt
	}
	return prompt + "|t=" + strconv.FormatFloat(*opts.Temperature, 'f', -1, 64)
}

// checkRequestRate 檢查請求頻率
func (s *Service) checkRequestRate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.config.RateLimit.Enabled && now.Sub(s.lastRequest) < s.config.RateLimit.Window {
		return errors.New("request rate limit exceeded")
	}

	s.lastRequest = now
	return nil
}
