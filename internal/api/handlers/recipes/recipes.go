package recipes

import (
	"fmt"
	"net/http"
	"strconv"

	"elzar-backend/internal/api/handlers"
	"elzar-backend/internal/core/grocy"
	inv "elzar-backend/internal/core/inventory"
	"elzar-backend/internal/core/notify"
	recipeService "elzar-backend/internal/core/recipe"
	"elzar-backend/internal/infrastructure/config"
	"elzar-backend/internal/infrastructure/store"
	"elzar-backend/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExtractRequest 從食譜抽出食材清單的選項
type ExtractRequest struct {
	ForShoppingList bool `json:"for_shopping_list"` // true 時數量換算為可購買單位
}

// ExtractResponse 抽出的食材候選項目
type ExtractResponse struct {
	RecipeID int64                  `json:"recipe_id"`
	Items    []common.CandidateItem `json:"items"`
	Count    int                    `json:"count"`
}

// ReconcileRequest 將食譜食材同步回庫存的選項
type ReconcileRequest struct {
	Mode string `json:"mode" binding:"required"` // consume 或 shopping_list
}

// SendRequest 推播食譜的選項
type SendRequest struct {
	Title string `json:"title,omitempty"`
}

// Handler 食譜處理程序
type Handler struct {
	recipes *recipeService.Service
	matcher *inv.Matcher
	grocy   *grocy.Client
	notify  *notify.Service
	store   *store.Store
	config  *config.Config
}

// NewHandler 創建食譜處理程序
func NewHandler(recipes *recipeService.Service, matcher *inv.Matcher, grocyClient *grocy.Client, notifySvc *notify.Service, st *store.Store, cfg *config.Config) *Handler {
	return &Handler{
		recipes: recipes,
		matcher: matcher,
		grocy:   grocyClient,
		notify:  notifySvc,
		store:   st,
		config:  cfg,
	}
}

// HandleGenerate 依庫存與偏好生成食譜
func (h *Handler) HandleGenerate(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")

	var req recipeService.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, "invalid request format")
		return
	}

	common.LogInfo("開始生成食譜",
		zap.String("request_id", requestID),
		zap.String("cuisine", req.Cuisine),
		zap.Bool("prioritize_expiring", req.PrioritizeExpiring),
	)

	recipe, err := h.recipes.Generate(c.Request.Context(), req)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("食譜生成完成",
		zap.String("request_id", requestID),
		zap.Int64("recipe_id", recipe.ID),
	)

	c.JSON(http.StatusOK, recipe)
}

// HandleRegenerate 以更高溫度重新生成既有食譜
func (h *Handler) HandleRegenerate(c *gin.Context) {
	id, ok := h.recipeID(c)
	if !ok {
		return
	}

	recipe, err := h.recipes.Regenerate(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipe)
}

// HandleGet 取得單筆食譜
func (h *Handler) HandleGet(c *gin.Context) {
	id, ok := h.recipeID(c)
	if !ok {
		return
	}

	recipe, err := h.loadRecipe(c, id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if recipe == nil {
		return
	}

	c.JSON(http.StatusOK, recipe)
}

// HandleDownload 以純文字附件下載食譜
func (h *Handler) HandleDownload(c *gin.Context) {
	id, ok := h.recipeID(c)
	if !ok {
		return
	}

	recipe, err := h.loadRecipe(c, id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if recipe == nil {
		return
	}

	meta := recipeService.ExtractMetadata(recipe.RecipeText)
	text := recipeService.FormatForDownload(recipe.RecipeText, meta, recipe.CreatedAt, recipe.ActiveProfiles)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=elzar_recipe_%d.txt", id))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

// HandleSend 將食譜推播到 Apprise 端點
func (h *Handler) HandleSend(c *gin.Context) {
	id, ok := h.recipeID(c)
	if !ok {
		return
	}

	if !h.notify.IsConfigured() {
		handlers.BadRequest(c, "notifications are not configured")
		return
	}

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		handlers.BadRequest(c, "invalid request format")
		return
	}

	recipe, err := h.loadRecipe(c, id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if recipe == nil {
		return
	}

	if err := h.notify.SendRecipe(c.Request.Context(), recipe.RecipeText, req.Title); err != nil {
		handlers.RespondError(c, common.NewError(common.ErrCodeServiceUnavailable, "通知發送失敗", http.StatusBadGateway, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent": true, "recipe_id": id})
}

// HandleExtractIngredients 以 LLM 從食譜抽出食材並與庫存配對
func (h *Handler) HandleExtractIngredients(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")

	id, ok := h.recipeID(c)
	if !ok {
		return
	}

	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		handlers.BadRequest(c, "invalid request format")
		return
	}

	recipe, err := h.loadRecipe(c, id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if recipe == nil {
		return
	}

	catalog, err := inv.LoadCatalog(c.Request.Context(), h.grocy)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	summary, err := h.grocy.FormatInventoryForLLM(c.Request.Context(), false)
	if err != nil {
		handlers.RespondError(c, common.NewCatalogUnavailableError(err))
		return
	}

	items, err := h.matcher.ExtractRecipeIngredients(c.Request.Context(), recipe.RecipeText, catalog, summary.AvailableItems, req.ForShoppingList)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("食材抽取完成",
		zap.String("request_id", requestID),
		zap.Int64("recipe_id", id),
		zap.Bool("for_shopping_list", req.ForShoppingList),
		zap.Int("item_count", len(items)),
	)

	c.JSON(http.StatusOK, ExtractResponse{RecipeID: id, Items: items, Count: len(items)})
}

// HandleReconcile 抽出食譜食材後直接同步回庫存
// consume 模式消耗現有庫存，shopping_list 模式把缺口加入購物清單
func (h *Handler) HandleReconcile(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")

	id, ok := h.recipeID(c)
	if !ok {
		return
	}

	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, "mode is required")
		return
	}
	if req.Mode != "consume" && req.Mode != "shopping_list" {
		handlers.BadRequest(c, "mode must be consume or shopping_list")
		return
	}
	forShoppingList := req.Mode == "shopping_list"

	recipe, err := h.loadRecipe(c, id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if recipe == nil {
		return
	}

	catalog, err := inv.LoadCatalog(c.Request.Context(), h.grocy)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	summary, err := h.grocy.FormatInventoryForLLM(c.Request.Context(), false)
	if err != nil {
		handlers.RespondError(c, common.NewCatalogUnavailableError(err))
		return
	}

	items, err := h.matcher.ExtractRecipeIngredients(c.Request.Context(), recipe.RecipeText, catalog, summary.AvailableItems, forShoppingList)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	intents := make([]common.TransactionIntent, 0, len(items))
	for _, item := range items {
		intent := common.TransactionIntent{
			ProductID:   item.MatchedProductID,
			ProductName: item.ItemName,
			Amount:      item.Quantity,
			Unit:        item.Unit,
			LocationID:  item.SuggestedLocationID,
		}
		if forShoppingList {
			intent.Action = common.ActionAddToShoppingList
			intent.CreateIfMissing = true
		} else {
			intent.Action = common.ActionConsume
		}
		intents = append(intents, intent)
	}

	units := inv.NewUnitResolver(catalog, h.grocy, h.config.Inventory.DefaultUnit)
	products := inv.NewProductResolver(catalog)
	engine := inv.NewEngine(catalog, units, products, h.grocy, h.config)

	result := engine.Reconcile(c.Request.Context(), intents)

	common.LogInfo("食譜食材同步完成",
		zap.String("request_id", requestID),
		zap.Int64("recipe_id", id),
		zap.String("mode", req.Mode),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("skipped", result.Skipped),
	)

	c.JSON(http.StatusOK, gin.H{
		"recipe_id": id,
		"mode":      req.Mode,
		"result":    result,
	})
}

// HandleFormat 將食譜整理成適合存入 Grocy 的格式
func (h *Handler) HandleFormat(c *gin.Context) {
	id, ok := h.recipeID(c)
	if !ok {
		return
	}

	recipe, err := h.loadRecipe(c, id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if recipe == nil {
		return
	}

	formatted, err := h.recipes.FormatForStorage(c.Request.Context(), recipe.RecipeText)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipe_id": id, "formatted_text": formatted})
}

// recipeID 解析路徑中的食譜識別碼
func (h *Handler) recipeID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		handlers.BadRequest(c, "invalid recipe id")
		return 0, false
	}
	return id, true
}

// loadRecipe 讀取食譜，不存在時直接回 404
func (h *Handler) loadRecipe(c *gin.Context, id int64) (*store.Recipe, error) {
	recipe, err := h.store.GetRecipe(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, common.ErrorResponse{
			Code:    common.ErrCodeNotFound,
			Message: "recipe not found",
		})
		return nil, nil
	}
	return recipe, nil
}
