package health

import (
	"net/http"
	"runtime"
	"time"

	"elzar-backend/internal/core/grocy"
	"elzar-backend/internal/infrastructure/config"
	"elzar-backend/internal/infrastructure/store"
	"elzar-backend/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
}

// HealthCheck 健康檢查處理器
func HealthCheck(c *gin.Context) {
	// 獲取配置
	cfg, exists := c.Get("config")
	if !exists {
		common.LogError("Configuration not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Configuration not found",
		})
		return
	}
	config, ok := cfg.(*config.Config)
	if !ok {
		common.LogError("Invalid configuration type in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Invalid configuration type",
		})
		return
	}

	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   config.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器，逐一探測下游依賴
// Grocy 探測失敗只降級標記，資料庫失敗才回 503
func ReadinessCheck(st *store.Store, grocyClient *grocy.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}
		ready := true

		if err := st.Ping(c.Request.Context()); err != nil {
			common.LogError("資料庫就緒檢查失敗", zap.Error(err))
			checks["database"] = "error"
			ready = false
		} else {
			checks["database"] = "ok"
		}

		if _, err := grocyClient.GetQuantityUnits(c.Request.Context()); err != nil {
			common.LogWarn("Grocy 就緒檢查失敗", zap.Error(err))
			checks["grocy"] = "degraded"
		} else {
			checks["grocy"] = "ok"
		}

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}

		c.JSON(status, gin.H{
			"status": state,
			"checks": checks,
		})
	}
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
