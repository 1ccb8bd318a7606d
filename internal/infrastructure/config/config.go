package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
// 每個操作開始時讀取一次，之後以不可變值的形式傳遞，元件不讀取全域狀態
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Grocy       GrocyConfig     `mapstructure:"grocy"`
	LLM         LLMConfig       `mapstructure:"llm"`
	Inventory   InventoryConfig `mapstructure:"inventory"`
	Recipes     RecipesConfig   `mapstructure:"recipes"`
	Notify      NotifyConfig    `mapstructure:"notify"`
	Store       StoreConfig     `mapstructure:"store"`
	Cache       CacheConfig     `mapstructure:"cache"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// GrocyConfig Grocy 庫存服務配置
type GrocyConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"` // 目錄讀取使用較短的超時
}

// LLMConfig LLM 端點配置（OpenAI chat-completions 相容）
type LLMConfig struct {
	APIURL    string        `mapstructure:"api_url"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"` // 生成呼叫使用較長的超時
}

// InventoryConfig 庫存核對流程設定
type InventoryConfig struct {
	UnitPreference string `mapstructure:"unit_preference"` // metric 或 imperial
	ShoppingListID int64  `mapstructure:"shopping_list_id"`
	DefaultUnit    string `mapstructure:"default_unit"` // 單位無法解析時的保底單位名稱
}

// RecipesConfig 食譜產生與歷史設定
type RecipesConfig struct {
	MaxHistory int    `mapstructure:"max_history"`
	ExportPath string `mapstructure:"export_path"`
}

// NotifyConfig 通知設定（Apprise API 端點）
type NotifyConfig struct {
	AppriseURL string `mapstructure:"apprise_url"`
}

// StoreConfig 資料儲存設定
type StoreConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// CacheConfig AI 回應快取配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	RedisEnabled    bool          `mapstructure:"redis_enabled"`
	RedisAddr       string        `mapstructure:"redis_addr"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件
	if err := godotenv.Load(); err != nil {
		return nil, err
	}

	// 設定預設值
	setDefaults()

	// 設定環境變數前綴
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 綁定環境變量
	viper.BindEnv("grocy.url", "GROCY_URL")
	viper.BindEnv("grocy.api_key", "GROCY_API_KEY")
	viper.BindEnv("llm.api_url", "LLM_API_URL")
	viper.BindEnv("llm.api_key", "LLM_API_KEY")
	viper.BindEnv("llm.model", "LLM_MODEL")
	viper.BindEnv("llm.max_tokens", "LLM_MAX_TOKENS")
	viper.BindEnv("inventory.unit_preference", "UNIT_PREFERENCE")
	viper.BindEnv("recipes.max_history", "MAX_RECIPE_HISTORY")
	viper.BindEnv("notify.apprise_url", "APPRISE_URL")
	viper.BindEnv("store.database_path", "DATABASE_PATH")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.redis_enabled", "CACHE_REDIS_ENABLED")
	viper.BindEnv("cache.redis_addr", "CACHE_REDIS_ADDR")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("dedup_window", "DEDUP_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// 讀取設定檔
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 添加調試日誌（logger 尚未初始化，改用 fmt.Println）
	fmt.Println("Loading configuration",
		"grocy_url:", viper.GetString("grocy.url"),
		"llm_api_key:", maskAPIKey(viper.GetString("llm.api_key")),
		"llm_model:", viper.GetString("llm.model"))

	// 解析設定
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "elzar-backend")

	// 伺服器設定
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Grocy 設定
	viper.SetDefault("grocy.timeout", "30s")

	// LLM 設定
	viper.SetDefault("llm.api_url", "https://openrouter.ai/api/v1")
	viper.SetDefault("llm.model", "google/gemini-2.0-flash-exp:free")
	viper.SetDefault("llm.max_tokens", 3000)
	viper.SetDefault("llm.timeout", "120s")

	// 庫存核對設定
	viper.SetDefault("inventory.unit_preference", "metric")
	viper.SetDefault("inventory.shopping_list_id", 1)
	viper.SetDefault("inventory.default_unit", "piece")

	// 食譜設定
	viper.SetDefault("recipes.max_history", 1000)
	viper.SetDefault("recipes.export_path", "data/recipes")

	// 儲存設定
	viper.SetDefault("store.database_path", "data/recipes.db")

	// 快取設定
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_size", 1000)
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("cache.cleanup_interval", "10m")
	viper.SetDefault("cache.redis_enabled", false)
	viper.SetDefault("cache.redis_addr", "localhost:6379")

	// 限流設定
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	// 去重視窗預設
	viper.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證 Grocy 設定
	if config.Grocy.URL == "" {
		return fmt.Errorf("grocy url is required")
	}
	if config.Grocy.Timeout <= 0 {
		return fmt.Errorf("invalid grocy timeout")
	}

	// 驗證 LLM 設定
	if config.LLM.APIURL == "" {
		return fmt.Errorf("llm api url is required")
	}
	if config.LLM.MaxTokens <= 0 {
		return fmt.Errorf("invalid llm max tokens")
	}

	// 驗證單位偏好
	if config.Inventory.UnitPreference != "metric" && config.Inventory.UnitPreference != "imperial" {
		return fmt.Errorf("unit preference must be metric or imperial")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	// 驗證歷史上限
	if config.Recipes.MaxHistory <= 0 {
		return fmt.Errorf("invalid recipe history limit")
	}

	return nil
}
