package api

import (
	"context"
	"net/http"
	"time"

	"elzar-backend/internal/api/handlers/health"
	historyHandler "elzar-backend/internal/api/handlers/history"
	inventoryHandler "elzar-backend/internal/api/handlers/inventory"
	profilesHandler "elzar-backend/internal/api/handlers/profiles"
	recipesHandler "elzar-backend/internal/api/handlers/recipes"
	settingsHandler "elzar-backend/internal/api/handlers/settings"
	"elzar-backend/internal/api/middleware"
	"elzar-backend/internal/core/ai/cache"
	"elzar-backend/internal/core/ai/llm"
	"elzar-backend/internal/core/ai/service"
	"elzar-backend/internal/core/grocy"
	"elzar-backend/internal/core/inventory"
	"elzar-backend/internal/core/notify"
	"elzar-backend/internal/core/recipe"
	"elzar-backend/internal/infrastructure/config"
	"elzar-backend/internal/infrastructure/store"
	"elzar-backend/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 超時設置，LLM 生成可能接近兩分鐘
	timeoutDuration = 150 * time.Second
	// 請求體大小限制 (1MB)，純文字 API 不需要更大
	maxBodySize = 1 << 20
)

// SetupRouter 設置路由並組裝全部服務
func SetupRouter(cfg *config.Config, cacheManager *cache.Manager, st *store.Store) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	// 限流
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	common.LogInfo("Initializing services",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("model", cfg.LLM.Model),
		zap.String("grocy_url", cfg.Grocy.URL),
		zap.Duration("timeout", timeoutDuration),
	)

	// 初始化服務
	llmClient := llm.NewClient(cfg)
	aiService := service.NewService(cfg, llmClient, cacheManager)
	grocyClient := grocy.NewClient(cfg)
	matcher := inventory.NewMatcher(aiService, cfg)
	recipeSvc := recipe.NewService(aiService, grocyClient, st, cfg)
	notifySvc := notify.NewService(cfg)

	// 全局中間件：設置超時和配置
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Set("config", cfg)

		c.Next()

		// 檢查是否超時
		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  "REQUEST_TIMEOUT",
				"details": gin.H{
					"timeout": timeoutDuration.String(),
				},
			})
			c.Abort()
			return
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck(st, grocyClient))
	router.GET("/live", health.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		invHandler := inventoryHandler.NewHandler(matcher, grocyClient, cfg)
		recHandler := recipesHandler.NewHandler(recipeSvc, matcher, grocyClient, notifySvc, st, cfg)
		histHandler := historyHandler.NewHandler(st)
		profHandler := profilesHandler.NewHandler(st)
		setHandler := settingsHandler.NewHandler(st, grocyClient, aiService, cacheManager, cfg)

		// 庫存相關路由，異動端點加上去重避免重複提交
		inventoryGroup := api.Group("/inventory")
		{
			inventoryGroup.GET("/stock", invHandler.HandleStock)
			inventoryGroup.POST("/parse", invHandler.HandleParse)
			inventoryGroup.POST("/apply", middleware.Deduplication(cfg), invHandler.HandleApply)
			inventoryGroup.POST("/purchase", middleware.Deduplication(cfg), invHandler.HandlePurchase)
			inventoryGroup.POST("/consume", middleware.Deduplication(cfg), invHandler.HandleConsume)
			inventoryGroup.POST("/shopping-list", middleware.Deduplication(cfg), invHandler.HandleShoppingList)
			inventoryGroup.POST("/products", invHandler.HandleCreateProducts)
		}

		// 食譜相關路由
		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.GET("", histHandler.HandleList)
			recipeGroup.POST("/generate", recHandler.HandleGenerate)
			recipeGroup.GET("/:id", recHandler.HandleGet)
			recipeGroup.POST("/:id/regenerate", recHandler.HandleRegenerate)
			recipeGroup.GET("/:id/download", recHandler.HandleDownload)
			recipeGroup.POST("/:id/send", recHandler.HandleSend)
			recipeGroup.POST("/:id/ingredients", recHandler.HandleExtractIngredients)
			recipeGroup.POST("/:id/reconcile", middleware.Deduplication(cfg), recHandler.HandleReconcile)
			recipeGroup.POST("/:id/format", recHandler.HandleFormat)
		}

		// 歷史查詢路由
		historyGroup := api.Group("/history")
		{
			historyGroup.GET("", histHandler.HandleList)
			historyGroup.DELETE("/:id", histHandler.HandleDelete)
		}

		// 飲食設定檔路由
		profileGroup := api.Group("/profiles")
		{
			profileGroup.GET("", profHandler.HandleList)
			profileGroup.POST("", profHandler.HandleCreate)
			profileGroup.GET("/:id", profHandler.HandleGet)
			profileGroup.PUT("/:id", profHandler.HandleUpdate)
			profileGroup.DELETE("/:id", profHandler.HandleDelete)
		}

		// 設定路由
		settingsGroup := api.Group("/settings")
		{
			settingsGroup.GET("", setHandler.HandleGetAll)
			settingsGroup.GET("/config", setHandler.HandleConfig)
			settingsGroup.GET("/cache/stats", setHandler.HandleCacheStats)
			settingsGroup.GET("/test/grocy", setHandler.HandleTestGrocy)
			settingsGroup.GET("/test/llm", setHandler.HandleTestLLM)
			settingsGroup.GET("/:key", setHandler.HandleGet)
			settingsGroup.PUT("/:key", setHandler.HandlePut)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Bool("cache_manager_initialized", cacheManager != nil),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
