package inventory

import (
	"net/http"

	"elzar-backend/internal/api/handlers"
	"elzar-backend/internal/core/grocy"
	inv "elzar-backend/internal/core/inventory"
	"elzar-backend/internal/infrastructure/config"
	"elzar-backend/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ParseRequest 自由文字解析請求
type ParseRequest struct {
	InputText string `json:"input_text" binding:"required"` // 例如購物收據或手打清單
}

// ParseResponse 解析並配對後的候選項目
type ParseResponse struct {
	Items []common.CandidateItem `json:"items"`
	Count int                    `json:"count"`
}

// ApplyRequest 批次異動請求
type ApplyRequest struct {
	Items []common.TransactionIntent `json:"items" binding:"required"`
}

// Handler 庫存處理程序
type Handler struct {
	matcher *inv.Matcher
	grocy   *grocy.Client
	config  *config.Config
}

// NewHandler 創建庫存處理程序
func NewHandler(matcher *inv.Matcher, grocyClient *grocy.Client, cfg *config.Config) *Handler {
	return &Handler{
		matcher: matcher,
		grocy:   grocyClient,
		config:  cfg,
	}
}

// HandleParse 以 LLM 解析自由文字並與現有產品配對
func (h *Handler) HandleParse(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")

	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, "input_text is required")
		return
	}

	common.LogInfo("開始解析庫存文字",
		zap.String("request_id", requestID),
		zap.Int("input_length", len(req.InputText)),
	)

	catalog, err := inv.LoadCatalog(c.Request.Context(), h.grocy)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	items, err := h.matcher.ParseAndMatch(c.Request.Context(), req.InputText, catalog)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("庫存文字解析完成",
		zap.String("request_id", requestID),
		zap.Int("item_count", len(items)),
	)

	c.JSON(http.StatusOK, ParseResponse{Items: items, Count: len(items)})
}

// HandleApply 逐項執行批次異動，部分成功以 200 回應
// 各項目的動作由請求本身決定
func (h *Handler) HandleApply(c *gin.Context) {
	h.reconcile(c, "")
}

// HandlePurchase 批次進貨，所有項目強制為 purchase 動作
func (h *Handler) HandlePurchase(c *gin.Context) {
	h.reconcile(c, common.ActionPurchase)
}

// HandleConsume 批次消耗，所有項目強制為 consume 動作
func (h *Handler) HandleConsume(c *gin.Context) {
	h.reconcile(c, common.ActionConsume)
}

// HandleShoppingList 批次加入購物清單
func (h *Handler) HandleShoppingList(c *gin.Context) {
	h.reconcile(c, common.ActionAddToShoppingList)
}

// HandleCreateProducts 批次建立產品，不異動庫存
func (h *Handler) HandleCreateProducts(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")

	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, "items is required")
		return
	}
	if len(req.Items) == 0 {
		handlers.BadRequest(c, "items must not be empty")
		return
	}

	engine, err := h.buildEngine(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	result := engine.CreateProducts(c.Request.Context(), req.Items)

	common.LogInfo("批次建立產品完成",
		zap.String("request_id", requestID),
		zap.Int("created", len(result.CreatedProducts)),
		zap.Int("failed", len(result.Failed)),
	)

	c.JSON(http.StatusOK, result)
}

// reconcile 共用的批次異動流程；forceAction 非空時覆寫所有項目的動作
func (h *Handler) reconcile(c *gin.Context, forceAction common.Action) {
	requestID := c.GetHeader("X-Request-ID")

	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, "items is required")
		return
	}
	if len(req.Items) == 0 {
		handlers.BadRequest(c, "items must not be empty")
		return
	}

	if forceAction != "" {
		for i := range req.Items {
			req.Items[i].Action = forceAction
		}
	}

	engine, err := h.buildEngine(c)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	result := engine.Reconcile(c.Request.Context(), req.Items)

	common.LogInfo("批次異動完成",
		zap.String("request_id", requestID),
		zap.String("action", string(forceAction)),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("skipped", result.Skipped),
	)

	c.JSON(http.StatusOK, result)
}

// HandleStock 回傳目前庫存摘要
func (h *Handler) HandleStock(c *gin.Context) {
	summary, err := h.grocy.FormatInventoryForLLM(c.Request.Context(), true)
	if err != nil {
		handlers.RespondError(c, common.NewCatalogUnavailableError(err))
		return
	}

	c.JSON(http.StatusOK, summary)
}

// buildEngine 為單一請求組裝核對引擎
// 目錄快照在請求開始時讀取一次，之後所有項目都用同一份
func (h *Handler) buildEngine(c *gin.Context) (*inv.Engine, error) {
	catalog, err := inv.LoadCatalog(c.Request.Context(), h.grocy)
	if err != nil {
		return nil, err
	}

	units := inv.NewUnitResolver(catalog, h.grocy, h.config.Inventory.DefaultUnit)
	products := inv.NewProductResolver(catalog)

	return inv.NewEngine(catalog, units, products, h.grocy, h.config), nil
}
