package history

import (
	"net/http"
	"strconv"

	"elzar-backend/internal/api/handlers"
	"elzar-backend/internal/infrastructure/store"
	"elzar-backend/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListResponse 食譜歷史查詢結果
type ListResponse struct {
	Recipes []*store.Recipe `json:"recipes"`
	Count   int             `json:"count"`
}

// Handler 食譜歷史處理程序
type Handler struct {
	store *store.Store
}

// NewHandler 創建歷史處理程序
func NewHandler(st *store.Store) *Handler {
	return &Handler{store: st}
}

// HandleList 依查詢條件列出歷史食譜，未提供的條件不參與過濾
func (h *Handler) HandleList(c *gin.Context) {
	filter := store.RecipeFilter{
		Cuisine:     c.Query("cuisine"),
		EffortLevel: c.Query("effort_level"),
		ProfileName: c.Query("profile"),
		SearchText:  c.Query("search"),
		MinTime:     queryInt(c, "min_time"),
		MaxTime:     queryInt(c, "max_time"),
		MinCalories: queryInt(c, "min_calories"),
		MaxCalories: queryInt(c, "max_calories"),
		Limit:       queryInt(c, "limit"),
		Offset:      queryInt(c, "offset"),
	}

	recipes, err := h.store.ListRecipes(c.Request.Context(), filter)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Recipes: recipes, Count: len(recipes)})
}

// HandleDelete 刪除單筆歷史食譜
func (h *Handler) HandleDelete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		handlers.BadRequest(c, "invalid recipe id")
		return
	}

	deleted, err := h.store.DeleteRecipe(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, common.ErrorResponse{
			Code:    common.ErrCodeNotFound,
			Message: "recipe not found",
		})
		return
	}

	common.LogInfo("已刪除歷史食譜",
		zap.Int64("recipe_id", id),
	)

	c.JSON(http.StatusOK, gin.H{"deleted": true, "recipe_id": id})
}

// queryInt 解析整數查詢參數，無效值視為未提供
func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
