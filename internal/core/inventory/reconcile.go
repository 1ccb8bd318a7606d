package inventory

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"elzar-backend/internal/core/grocy"
	"elzar-backend/internal/infrastructure/config"
	"elzar-backend/internal/pkg/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dispatcher 核對過程中需要的庫存服務異動操作
type Dispatcher interface {
	GetProducts(ctx context.Context) ([]grocy.Product, error)
	CreateProduct(ctx context.Context, req grocy.CreateProductRequest) (int64, error)
	PurchaseProduct(ctx context.Context, productID int64, req grocy.PurchaseRequest) error
	ConsumeProduct(ctx context.Context, productID int64, req grocy.ConsumeRequest) error
	AddToShoppingList(ctx context.Context, req grocy.ShoppingListAddRequest) error
	StockAmount(ctx context.Context, productID int64) (float64, error)
}

// Engine 核對引擎
// 依輸入順序逐一處理異動意圖，後面的項目可以重用前面剛建立的單位與產品，
// 單一項目的失敗被隔離在該項目內，不會中斷批次
type Engine struct {
	catalog    *Catalog
	units      *UnitResolver
	products   *ProductResolver
	dispatcher Dispatcher
	config     *config.Config
}

// NewEngine 創建核對引擎
func NewEngine(catalog *Catalog, units *UnitResolver, products *ProductResolver, dispatcher Dispatcher, cfg *config.Config) *Engine {
	return &Engine{
		catalog:    catalog,
		units:      units,
		products:   products,
		dispatcher: dispatcher,
		config:     cfg,
	}
}

// Reconcile 核對一批異動意圖，回傳分區結果（成功／失敗／已建立產品）
// 部分成功是正常終態，不回滾
func (e *Engine) Reconcile(ctx context.Context, intents []common.TransactionIntent) *common.ReconcileResult {
	batchID := uuid.New().String()
	result := common.NewReconcileResult()

	common.LogInfo("開始核對批次",
		zap.String("批次", batchID),
		zap.Int("項目數", len(intents)),
	)

	for i := range intents {
		intent := intents[i]
		intent.Normalize()
		e.processIntent(ctx, &intent, result)
	}

	common.LogInfo("核對批次完成",
		zap.String("批次", batchID),
		zap.Int("成功", len(result.Succeeded)),
		zap.Int("失敗", len(result.Failed)),
		zap.Int("略過", result.Skipped),
		zap.Int("新建產品", len(result.CreatedProducts)),
	)

	return result
}

// CreateProducts 批次建立產品，不派送任何庫存異動
// 已存在的產品計入略過，建立衝突走與核對相同的重查邏輯
func (e *Engine) CreateProducts(ctx context.Context, intents []common.TransactionIntent) *common.ReconcileResult {
	result := common.NewReconcileResult()

	for i := range intents {
		intent := intents[i]
		intent.Normalize()
		intent.CreateIfMissing = true
		e.processCreate(ctx, &intent, result)
	}

	common.LogInfo("批次建立產品完成",
		zap.Int("新建", len(result.CreatedProducts)),
		zap.Int("已存在", result.Skipped),
		zap.Int("失敗", len(result.Failed)),
	)

	return result
}

// processCreate 建立單一產品；已存在時略過
func (e *Engine) processCreate(ctx context.Context, intent *common.TransactionIntent, result *common.ReconcileResult) {
	defer func() {
		if r := recover(); r != nil {
			result.AddFailure(intent.ProductName, common.ErrCodeUpstreamRejected,
				fmt.Sprintf("unexpected failure: %v", r))
		}
	}()

	if intent.ProductName == "" {
		result.AddFailure(intent.ProductName, common.ErrCodeValidationFailed,
			"product name is required")
		return
	}

	if match := e.products.Resolve(intent.ProductName, intent.ProductID, false); match.ProductID > 0 {
		result.Skipped++
		return
	}

	productID, _, ok := e.resolveOrCreate(ctx, intent, result)
	if !ok {
		return
	}

	result.Succeeded = append(result.Succeeded, common.SucceededItem{
		ProductID:   productID,
		ProductName: intent.ProductName,
		Unit:        intent.Unit,
	})
}

// processIntent 處理單一意圖；任何異常都被攔下記為該項目的失敗
func (e *Engine) processIntent(ctx context.Context, intent *common.TransactionIntent, result *common.ReconcileResult) {
	defer func() {
		if r := recover(); r != nil {
			result.AddFailure(intent.ProductName, common.ErrCodeUpstreamRejected,
				fmt.Sprintf("unexpected failure: %v", r))
		}
	}()

	switch intent.Action {
	case common.ActionSkip:
		result.Skipped++
	case common.ActionPurchase:
		e.processPurchase(ctx, intent, result)
	case common.ActionConsume:
		e.processConsume(ctx, intent, result)
	case common.ActionAddToShoppingList:
		e.processShoppingList(ctx, intent, result)
	default:
		result.AddFailure(intent.ProductName, common.ErrCodeValidationFailed,
			fmt.Sprintf("unknown action %q", intent.Action))
	}
}

// processPurchase 進貨：必要時先建立產品，再加入庫存
func (e *Engine) processPurchase(ctx context.Context, intent *common.TransactionIntent, result *common.ReconcileResult) {
	if intent.Amount <= 0 {
		result.AddFailure(intent.ProductName, common.ErrCodeValidationFailed,
			"purchase amount must be greater than zero")
		return
	}

	productID, locationID, ok := e.resolveOrCreate(ctx, intent, result)
	if !ok {
		return
	}

	req := grocy.PurchaseRequest{
		Amount:          intent.Amount,
		TransactionType: "purchase",
		BestBeforeDate:  intent.BestBeforeDate,
		Price:           intent.Price,
	}
	if intent.LocationID > 0 {
		req.LocationID = intent.LocationID
	} else if locationID > 0 {
		req.LocationID = locationID
	}

	if err := e.dispatcher.PurchaseProduct(ctx, productID, req); err != nil {
		result.AddFailure(intent.ProductName, dispatchErrorCode(err), err.Error())
		return
	}

	result.Succeeded = append(result.Succeeded, common.SucceededItem{
		ProductID:   productID,
		ProductName: intent.ProductName,
		Amount:      intent.Amount,
		Unit:        intent.Unit,
	})
}

// processConsume 消耗：需要已存在的產品，不自動建立
// 消耗量以現有庫存為上限，庫存不足時消耗可用的部分並附註缺口
func (e *Engine) processConsume(ctx context.Context, intent *common.TransactionIntent, result *common.ReconcileResult) {
	productID := intent.ProductID
	if productID == 0 {
		if id, ok := e.catalog.ProductIDByName(intent.ProductName); ok {
			productID = id
		}
	}
	if productID == 0 {
		result.AddFailure(intent.ProductName, common.ErrCodeValidationFailed,
			"no product id, cannot consume")
		return
	}

	amount := intent.Amount
	note := ""
	if stock, err := e.dispatcher.StockAmount(ctx, productID); err == nil && stock < amount {
		note = fmt.Sprintf("insufficient stock: requested %.2f, only %.2f available", amount, stock)
		amount = stock
	}

	if amount > 0 {
		req := grocy.ConsumeRequest{
			Amount:          amount,
			TransactionType: "consume",
			Spoiled:         false,
		}
		if intent.LocationID > 0 {
			req.LocationID = intent.LocationID
		}

		if err := e.dispatcher.ConsumeProduct(ctx, productID, req); err != nil {
			result.AddFailure(intent.ProductName, dispatchErrorCode(err), err.Error())
			return
		}
	}

	result.Succeeded = append(result.Succeeded, common.SucceededItem{
		ProductID:   productID,
		ProductName: intent.ProductName,
		Amount:      amount,
		Unit:        intent.Unit,
		Note:        note,
	})
}

// processShoppingList 購物清單：只補足缺口，庫存已夠就整項略過
func (e *Engine) processShoppingList(ctx context.Context, intent *common.TransactionIntent, result *common.ReconcileResult) {
	productID, _, ok := e.resolveOrCreate(ctx, intent, result)
	if !ok {
		return
	}

	stock := 0.0
	if s, err := e.dispatcher.StockAmount(ctx, productID); err == nil {
		stock = s
	}

	amountToBuy := intent.Amount - stock
	if amountToBuy <= 0 {
		common.LogInfo("庫存已足夠，略過購物清單項目",
			zap.String("產品", intent.ProductName),
			zap.Float64("需求量", intent.Amount),
			zap.Float64("庫存量", stock),
		)
		result.Skipped++
		return
	}

	req := grocy.ShoppingListAddRequest{
		ProductID:     productID,
		ListID:        e.config.Inventory.ShoppingListID,
		ProductAmount: amountToBuy,
	}
	if stock > 0 {
		req.Note = fmt.Sprintf("in stock: %.2f %s", stock, intent.Unit)
	}

	if err := e.dispatcher.AddToShoppingList(ctx, req); err != nil {
		result.AddFailure(intent.ProductName, dispatchErrorCode(err), err.Error())
		return
	}

	result.Succeeded = append(result.Succeeded, common.SucceededItem{
		ProductID:   productID,
		ProductName: intent.ProductName,
		Amount:      amountToBuy,
		Unit:        intent.Unit,
	})
}

// resolveOrCreate 解析產品，查無時依 create_if_missing 決定建立或失敗
// 回傳 false 表示已記錄失敗，呼叫端直接結束這個項目
func (e *Engine) resolveOrCreate(ctx context.Context, intent *common.TransactionIntent, result *common.ReconcileResult) (int64, int64, bool) {
	match := e.products.Resolve(intent.ProductName, intent.ProductID, false)
	if match.ProductID > 0 {
		return match.ProductID, match.LocationID, true
	}

	if !intent.CreateIfMissing {
		result.AddFailure(intent.ProductName, common.ErrCodeValidationFailed,
			"no product id and create_if_missing is false")
		return 0, 0, false
	}

	locationID := intent.LocationID
	if locationID == 0 {
		locationID = match.LocationID
	}

	productID, err := e.createProduct(ctx, intent.ProductName, intent.Unit, locationID)
	if err != nil {
		result.AddFailure(intent.ProductName, dispatchErrorCode(err), err.Error())
		return 0, 0, false
	}

	result.CreatedProducts = append(result.CreatedProducts, common.CreatedProduct{
		ID:   productID,
		Name: intent.ProductName,
	})
	return productID, locationID, true
}

// createProduct 建立產品；唯一性衝突時重查目錄再比對一次
func (e *Engine) createProduct(ctx context.Context, name, unit string, locationID int64) (int64, error) {
	quID := e.units.Resolve(ctx, unit)

	req := grocy.CreateProductRequest{
		Name:        name,
		LocationID:  locationID,
		QuIDStock:   quID,
		Description: "Auto-created from inventory import",
	}

	productID, err := e.dispatcher.CreateProduct(ctx, req)
	if err != nil {
		if !grocy.IsConflict(err) {
			return 0, err
		}

		// 產品可能已被其他請求搶先建立，重查一次
		common.LogInfo("產品已存在，重新抓取產品清單",
			zap.String("產品", name),
		)
		if refreshErr := e.catalog.RefreshProducts(ctx, e.dispatcher); refreshErr != nil {
			return 0, common.NewError(common.ErrCodeConflictRetryExhausted,
				fmt.Sprintf("conflict on create and catalog refresh failed: %v", refreshErr),
				http.StatusBadGateway, refreshErr)
		}
		if id, ok := e.catalog.ProductIDByName(name); ok {
			return id, nil
		}
		return 0, common.NewError(common.ErrCodeConflictRetryExhausted,
			fmt.Sprintf("product %q not found after conflict retry", name),
			http.StatusBadGateway, err)
	}

	e.catalog.AddProduct(grocy.Product{
		ID:         productID,
		Name:       name,
		LocationID: locationID,
		QuIDStock:  quID,
	})
	common.LogInfo("已建立產品",
		zap.String("名稱", name),
		zap.Int64("識別碼", productID),
	)

	return productID, nil
}

// dispatchErrorCode 取出異動錯誤的結構化代碼
// 先比對 CustomError，衝突重試耗盡這類包裝過的錯誤才能保住自己的代碼，
// 裸的 Grocy 拒絕歸類為上游拒絕，原因字串保留 Grocy 的原文
func dispatchErrorCode(err error) string {
	var ce *common.CustomError
	if errors.As(err, &ce) {
		return ce.Code
	}
	var apiErr *grocy.APIError
	if errors.As(err, &apiErr) {
		return common.ErrCodeUpstreamRejected
	}
	return common.ErrCodeUpstreamRejected
}
