package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"elzar-backend/internal/infrastructure/config"
	"elzar-backend/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

// Client OpenAI chat-completions 相容的 LLM 客戶端
type Client struct {
	config *config.Config
	client *resty.Client
}

// Options 單次呼叫的模型參數
// Temperature 為 nil 時不帶 temperature 欄位，由模型使用預設值
type Options struct {
	Temperature *float64
	MaxTokens   int
}

// chatMessage 對話消息
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest chat-completions 請求
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens"`
}

// NewClient 創建 LLM 客戶端
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.LLM.APIURL, "/")).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.LLM.APIKey)).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.LLM.Timeout)

	return &Client{
		config: cfg,
		client: client,
	}
}

// Chat 送出單一使用者訊息並回傳模型回覆文字
// 傳輸失敗或非 2xx 一律視為 LLM_UNAVAILABLE；內容解析交由呼叫端
func (c *Client) Chat(ctx context.Context, prompt string, opts Options) (string, error) {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = c.config.LLM.MaxTokens
	}

	req := chatRequest{
		Model: c.config.LLM.Model,
		Messages: []chatMessage{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	common.LogAICall(c.config.LLM.Model, time.Since(start), err)

	if err != nil {
		return "", common.NewLLMUnavailableError(fmt.Errorf("failed to send request to LLM endpoint: %w", err))
	}

	if resp.StatusCode() != http.StatusOK {
		return "", common.NewLLMUnavailableError(fmt.Errorf("LLM endpoint returned status %d: %s", resp.StatusCode(), resp.String()))
	}

	// 解析回應
	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return "", common.NewMalformedLLMOutputError(fmt.Errorf("failed to parse LLM response: %w", err))
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", common.NewMalformedLLMOutputError(fmt.Errorf("empty choices in LLM response"))
	}

	return result.Choices[0].Message.Content, nil
}

// Close 關閉客戶端
func (c *Client) Close() {
	c.client.GetClient().CloseIdleConnections()
}
