package recipe

import (
	"context"
	"fmt"

	"elzar-backend/internal/core/ai/service"
	"elzar-backend/internal/core/grocy"
	"elzar-backend/internal/infrastructure/config"
	"elzar-backend/internal/infrastructure/store"
	"elzar-backend/internal/pkg/common"

	"go.uber.org/zap"
)

// 生成與重新生成的取樣參數
// 重新生成拉高溫度換取變化
const (
	generateTemperature   = 0.7
	regenerateTemperature = 0.9
	generateMaxTokens     = 2000
)

// InventorySource 生成時嵌入 prompt 的庫存摘要來源
type InventorySource interface {
	FormatInventoryForLLM(ctx context.Context, prioritizeExpiring bool) (*grocy.InventorySummary, error)
}

// AIService 食譜生成所需的 LLM 能力
type AIService interface {
	ProcessRequest(ctx context.Context, prompt string, opts service.Options) (*service.Response, error)
}

// Service 食譜生成服務
// --------------------------------------------------
type Service struct {
	ai        AIService
	inventory InventorySource
	store     *store.Store
	config    *config.Config
}

// NewService 創建食譜生成服務
func NewService(ai AIService, inventory InventorySource, st *store.Store, cfg *config.Config) *Service {
	return &Service{
		ai:        ai,
		inventory: inventory,
		store:     st,
		config:    cfg,
	}
}

// Generate 依庫存與偏好生成新食譜並寫入歷史
func (s *Service) Generate(ctx context.Context, req GenerationRequest) (*store.Recipe, error) {
	req.normalize()

	summary, err := s.inventory.FormatInventoryForLLM(ctx, req.PrioritizeExpiring)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}

	profiles, err := s.activeProfiles(ctx, req.ActiveProfiles)
	if err != nil {
		return nil, err
	}

	prompt := buildGenerationPrompt(summary, req, profiles)

	temp := generateTemperature
	resp, err := s.ai.ProcessRequest(ctx, prompt, service.Options{
		Temperature: &temp,
		MaxTokens:   generateMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	snapshot, err := common.ToJSON(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to encode inventory snapshot: %w", err)
	}

	return s.save(ctx, resp.Content, req, snapshot)
}

// Regenerate 以既有食譜的參數重新生成一份不同的食譜
// 使用當時的庫存快照，拉高溫度並繞過快取
func (s *Service) Regenerate(ctx context.Context, recipeID int64) (*store.Recipe, error) {
	original, err := s.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, common.ErrNotFound
	}

	var summary grocy.InventorySummary
	if original.InventorySnapshot != "" {
		if err := common.ParseJSON(original.InventorySnapshot, &summary); err != nil {
			common.LogWarn("庫存快照解析失敗，改用空庫存重新生成",
				zap.Int64("食譜", recipeID),
				zap.Error(err),
			)
		}
	}

	req := GenerationRequest{
		Cuisine:                original.Cuisine,
		TimeMinutes:            original.TimeMinutes,
		EffortLevel:            original.EffortLevel,
		DishPreference:         original.DishPreference,
		CaloriesPerServing:     original.CaloriesPerServing,
		UseExternalIngredients: original.UsedExternalIngredients,
		PrioritizeExpiring:     original.PrioritizeExpiring,
		ActiveProfiles:         original.ActiveProfiles,
		UserPrompt:             original.UserPrompt,
	}
	req.normalize()

	profiles, err := s.activeProfiles(ctx, req.ActiveProfiles)
	if err != nil {
		return nil, err
	}

	prompt := buildRegenerationPrompt(buildGenerationPrompt(&summary, req, profiles))

	temp := regenerateTemperature
	resp, err := s.ai.ProcessRequest(ctx, prompt, service.Options{
		Temperature: &temp,
		MaxTokens:   generateMaxTokens,
		NoCache:     true,
	})
	if err != nil {
		return nil, err
	}

	return s.save(ctx, resp.Content, req, original.InventorySnapshot)
}

// save 抽出 metadata、寫入歷史並執行保留上限清理
func (s *Service) save(ctx context.Context, recipeText string, req GenerationRequest, snapshot string) (*store.Recipe, error) {
	meta := ExtractMetadata(recipeText)

	record := &store.Recipe{
		RecipeText:              recipeText,
		Cuisine:                 firstNonEmpty(meta.Cuisine, req.Cuisine),
		TimeMinutes:             firstPositive(meta.TimeMinutes, req.TimeMinutes),
		EffortLevel:             firstNonEmpty(meta.EffortLevel, req.EffortLevel),
		DishPreference:          req.DishPreference,
		CaloriesPerServing:      firstPositive(meta.CaloriesPerServing, req.CaloriesPerServing),
		UsedExternalIngredients: req.UseExternalIngredients,
		PrioritizeExpiring:      req.PrioritizeExpiring,
		ActiveProfiles:          req.ActiveProfiles,
		InventorySnapshot:       snapshot,
		UserPrompt:              req.UserPrompt,
		LLMModel:                s.config.LLM.Model,
	}

	id, err := s.store.CreateRecipe(ctx, record)
	if err != nil {
		return nil, err
	}

	if err := s.store.CleanupOldRecipes(ctx, s.config.Recipes.MaxHistory); err != nil {
		common.LogWarn("清理舊食譜失敗", zap.Error(err))
	}

	saved, err := s.store.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}

	common.LogInfo("食譜已生成",
		zap.Int64("識別碼", id),
		zap.String("菜系", record.Cuisine),
	)

	return saved, nil
}

// activeProfiles 取出名稱在清單中的飲食設定檔
func (s *Service) activeProfiles(ctx context.Context, names []string) ([]common.DietaryProfile, error) {
	if len(names) == 0 {
		return nil, nil
	}

	all, err := s.store.GetAllProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dietary profiles: %w", err)
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	var active []common.DietaryProfile
	for _, p := range all {
		if wanted[p.Name] {
			active = append(active, p)
		}
	}
	return active, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
