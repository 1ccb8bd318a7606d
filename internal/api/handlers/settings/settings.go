package settings

import (
	"net/http"
	"strings"
	"time"

	"elzar-backend/internal/api/handlers"
	"elzar-backend/internal/core/ai/cache"
	"elzar-backend/internal/core/ai/service"
	"elzar-backend/internal/core/grocy"
	"elzar-backend/internal/infrastructure/config"
	"elzar-backend/internal/infrastructure/store"
	"elzar-backend/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ValueRequest 設定值更新請求
type ValueRequest struct {
	Value string `json:"value"`
}

// Handler 設定處理程序
type Handler struct {
	store  *store.Store
	grocy  *grocy.Client
	ai     *service.Service
	cache  *cache.Manager
	config *config.Config
}

// NewHandler 創建設定處理程序
func NewHandler(st *store.Store, grocyClient *grocy.Client, aiSvc *service.Service, cacheManager *cache.Manager, cfg *config.Config) *Handler {
	return &Handler{
		store:  st,
		grocy:  grocyClient,
		ai:     aiSvc,
		cache:  cacheManager,
		config: cfg,
	}
}

// HandleGetAll 列出全部設定覆寫
func (h *Handler) HandleGetAll(c *gin.Context) {
	settings, err := h.store.GetAllSettings(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// HandleGet 取得單一設定值
func (h *Handler) HandleGet(c *gin.Context) {
	key := c.Param("key")

	value, err := h.store.GetSetting(c.Request.Context(), key)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if value == "" {
		c.JSON(http.StatusNotFound, common.ErrorResponse{
			Code:    common.ErrCodeNotFound,
			Message: "setting not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

// HandlePut 寫入設定值
func (h *Handler) HandlePut(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		handlers.BadRequest(c, "setting key is required")
		return
	}

	var req ValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, "invalid request format")
		return
	}

	if err := h.store.SetSetting(c.Request.Context(), key, req.Value); err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("已更新設定",
		zap.String("key", key),
	)

	c.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value})
}

// HandleConfig 回傳目前生效的設定摘要，機敏值一律遮罩
func (h *Handler) HandleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app": gin.H{
			"name":    h.config.App.Name,
			"version": h.config.App.Version,
			"env":     h.config.App.Env,
		},
		"grocy": gin.H{
			"url":     h.config.Grocy.URL,
			"api_key": maskSecret(h.config.Grocy.APIKey),
		},
		"llm": gin.H{
			"api_url":    h.config.LLM.APIURL,
			"api_key":    maskSecret(h.config.LLM.APIKey),
			"model":      h.config.LLM.Model,
			"max_tokens": h.config.LLM.MaxTokens,
		},
		"inventory": gin.H{
			"unit_preference":  h.config.Inventory.UnitPreference,
			"shopping_list_id": h.config.Inventory.ShoppingListID,
			"default_unit":     h.config.Inventory.DefaultUnit,
		},
		"recipes": gin.H{
			"max_history": h.config.Recipes.MaxHistory,
		},
		"notify": gin.H{
			"apprise_configured": h.config.Notify.AppriseURL != "",
		},
		"cache": gin.H{
			"enabled": h.config.Cache.Enabled,
		},
	})
}

// HandleCacheStats 回傳快取統計
func (h *Handler) HandleCacheStats(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}

	c.JSON(http.StatusOK, h.cache.GetStats())
}

// HandleTestGrocy 驗證 Grocy 連線與 API Key
func (h *Handler) HandleTestGrocy(c *gin.Context) {
	start := time.Now()
	units, err := h.grocy.GetQuantityUnits(c.Request.Context())
	if err != nil {
		common.LogWarn("Grocy 連線測試失敗", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"unit_count": len(units),
		"latency_ms": time.Since(start).Milliseconds(),
	})
}

// HandleTestLLM 驗證 LLM 端點可用性，繞過快取發一個極小的請求
func (h *Handler) HandleTestLLM(c *gin.Context) {
	start := time.Now()
	resp, err := h.ai.ProcessRequest(c.Request.Context(), "Reply with the single word OK.", service.Options{
		MaxTokens: 10,
		NoCache:   true,
	})
	if err != nil {
		common.LogWarn("LLM 連線測試失敗", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"model":      h.config.LLM.Model,
		"response":   strings.TrimSpace(resp.Content),
		"latency_ms": time.Since(start).Milliseconds(),
	})
}

// maskSecret 只顯示前後各 4 個字符
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
