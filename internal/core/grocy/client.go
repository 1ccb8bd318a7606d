package grocy

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

// APIError Grocy 回傳非 2xx 時的錯誤，Message 為 Grocy 的 error_message 原文
type APIError struct {
	StatusCode int
	Operation  string
	Message    string
}

// Error 實現 error 介面；錯誤原因必須原封不動地呈現給呼叫端
func (e *APIError) Error() string {
	return e.Message
}

// IsConflict 判斷是否為唯一性衝突（物件已存在，多半是並發建立造成）
func IsConflict(err error) bool {
	apiErr, ok := err.(*APIError)
	if !ok {
		return false
	}
	if apiErr.StatusCode == http.StatusConflict {
		return true
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "unique") || strings.Contains(msg, "constraint")
}

// Client Grocy API 客戶端
type Client struct {
	config *config.Config
	client *resty.Client
}

// NewClient 創建 Grocy 客戶端
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.Grocy.URL, "/")).
		SetHeader("GROCY-API-KEY", cfg.Grocy.APIKey).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Grocy.Timeout)

	return &Client{
		config: cfg,
		client: client,
	}
}

// wrapError 解析 Grocy 錯誤響應中的 error_message
func (c *Client) wrapError(resp *resty.Response, operation string) error {
	var body struct {
		ErrorMessage string `json:"error_message"`
	}
	_ = common.ParseJSONBytes(resp.Body(), &body)

	msg := body.ErrorMessage
	if msg == "" {
		msg = fmt.Sprintf("grocy %s failed with status %d", operation, resp.StatusCode())
	}

	return &APIError{
		StatusCode: resp.StatusCode(),
		Operation:  operation,
		Message:    msg,
	}
}

// get 執行 GET 請求並解析回應
func (c *Client) get(ctx context.Context, operation, path string, out interface{}) error {
	start := time.Now()
	resp, err := c.client.R().SetContext(ctx).Get(path)
	common.LogGrocyCall(operation, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to call grocy %s: %w", operation, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return c.wrapError(resp, operation)
	}
	if out == nil {
		return nil
	}
	return common.ParseJSONBytes(resp.Body(), out)
}

// post 執行 POST 請求並解析回應
func (c *Client) post(ctx context.Context, operation, path string, body, out interface{}) error {
	start := time.Now()
	resp, err := c.client.R().SetContext(ctx).SetBody(body).Post(path)
	common.LogGrocyCall(operation, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to call grocy %s: %w", operation, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return c.wrapError(resp, operation)
	}
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	return common.ParseJSONBytes(resp.Body(), out)
}

// GetProducts 取得所有產品
func (c *Client) GetProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.get(ctx, "get_products", "/api/objects/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetLocations 取得所有儲存位置
func (c *Client) GetLocations(ctx context.Context) ([]Location, error) {
	var locations []Location
	if err := c.get(ctx, "get_locations", "/api/objects/locations", &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// GetQuantityUnits 取得所有計量單位
func (c *Client) GetQuantityUnits(ctx context.Context) ([]QuantityUnit, error) {
	var units []QuantityUnit
	if err := c.get(ctx, "get_quantity_units", "/api/objects/quantity_units", &units); err != nil {
		return nil, err
	}
	return units, nil
}

// GetStock 取得當前庫存
func (c *Client) GetStock(ctx context.Context) ([]StockEntry, error) {
	var stock []StockEntry
	if err := c.get(ctx, "get_stock", "/api/stock", &stock); err != nil {
		return nil, err
	}
	return stock, nil
}

// GetVolatileStock 取得即將過期的庫存
func (c *Client) GetVolatileStock(ctx context.Context) ([]StockEntry, error) {
	// volatile 端點回傳分組結構，這裡只取 due_products
	var volatile struct {
		DueProducts []StockEntry `json:"due_products"`
	}
	if err := c.get(ctx, "get_volatile_stock", "/api/stock/volatile", &volatile); err != nil {
		return nil, err
	}
	return volatile.DueProducts, nil
}

// CreateQuantityUnit 建立計量單位
func (c *Client) CreateQuantityUnit(ctx context.Context, name, namePlural, description string) (int64, error) {
	body := QuantityUnit{
		Name:        name,
		NamePlural:  namePlural,
		Description: description,
	}
	var created CreatedObject
	if err := c.post(ctx, "create_quantity_unit", "/api/objects/quantity_units", body, &created); err != nil {
		return 0, err
	}
	return created.CreatedObjectID, nil
}

// CreateQuantityUnitConversion 建立單位換算（單向）
func (c *Client) CreateQuantityUnitConversion(ctx context.Context, fromQuID, toQuID int64, factor float64) error {
	body := QuantityUnitConversion{
		FromQuID: fromQuID,
		ToQuID:   toQuID,
		Factor:   factor,
	}
	return c.post(ctx, "create_quantity_unit_conversion", "/api/objects/quantity_unit_conversions", body, nil)
}

// CreateProduct 建立產品
func (c *Client) CreateProduct(ctx context.Context, req CreateProductRequest) (int64, error) {
	// 未指定採購／消耗單位時沿用庫存單位
	if req.QuIDPurchase == 0 {
		req.QuIDPurchase = req.QuIDStock
	}
	if req.QuIDConsume == 0 {
		req.QuIDConsume = req.QuIDStock
	}
	var created CreatedObject
	if err := c.post(ctx, "create_product", "/api/objects/products", req, &created); err != nil {
		return 0, err
	}
	return created.CreatedObjectID, nil
}

// PurchaseProduct 進貨，將指定數量加入庫存
func (c *Client) PurchaseProduct(ctx context.Context, productID int64, req PurchaseRequest) error {
	req.TransactionType = "purchase"
	path := fmt.Sprintf("/api/stock/products/%d/add", productID)
	return c.post(ctx, "purchase_product", path, req, nil)
}

// ConsumeProduct 消耗指定數量的庫存
func (c *Client) ConsumeProduct(ctx context.Context, productID int64, req ConsumeRequest) error {
	req.TransactionType = "consume"
	path := fmt.Sprintf("/api/stock/products/%d/consume", productID)
	return c.post(ctx, "consume_product", path, req, nil)
}

// AddToShoppingList 將產品加入購物清單
func (c *Client) AddToShoppingList(ctx context.Context, req ShoppingListAddRequest) error {
	if req.ListID == 0 {
		req.ListID = c.config.Inventory.ShoppingListID
	}
	return c.post(ctx, "add_to_shopping_list", "/api/stock/shoppinglist/add-product", req, nil)
}
