package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"elzar-backend/internal/infrastructure/config"
	"elzar-backend/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// 多數推播服務有內容長度上限，超過就截斷
const maxBodyLength = 1000

const defaultTitle = "Recipe from Elzar 🌶️"

// Service 透過 Apprise API 發送推播通知
type Service struct {
	appriseURL string
	client     *resty.Client
}

// NewService 創建通知服務；未設定 Apprise URL 時服務維持停用狀態
func NewService(cfg *config.Config) *Service {
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &Service{
		appriseURL: cfg.Notify.AppriseURL,
		client:     client,
	}
}

// IsConfigured 是否已設定通知服務
func (s *Service) IsConfigured() bool {
	return s.appriseURL != ""
}

// SendRecipe 把食譜內容推送到手機
func (s *Service) SendRecipe(ctx context.Context, recipeText, title string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("notification service not configured")
	}

	if title == "" {
		title = defaultTitle
	}

	body := recipeText
	if len(body) > maxBodyLength {
		body = body[:maxBodyLength] + "\n\n... (truncated, see full recipe in app)"
	}

	start := time.Now()
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"title": title,
			"body":  body,
		}).
		Post(s.appriseURL)

	common.LogInfo("通知發送完成",
		zap.Duration("耗時", time.Since(start)),
		zap.Error(err),
	)

	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode())
	}
	return nil
}
