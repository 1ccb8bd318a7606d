package grocy

// Product Grocy 目錄中的產品
type Product struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	LocationID     int64   `json:"location_id"`
	QuIDStock      int64   `json:"qu_id_stock"`
	QuIDPurchase   int64   `json:"qu_id_purchase"`
	QuIDConsume    int64   `json:"qu_id_consume"`
	Description    string  `json:"description,omitempty"`
	MinStockAmount float64 `json:"min_stock_amount,omitempty"`
}

// Location 儲存位置
type Location struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// QuantityUnit 計量單位
type QuantityUnit struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	NamePlural  string `json:"name_plural"`
	Symbol      string `json:"symbol,omitempty"`
	Description string `json:"description,omitempty"`
}

// QuantityUnitConversion 單位換算，單向：1 from_qu == factor to_qu
type QuantityUnitConversion struct {
	ID       int64   `json:"id,omitempty"`
	FromQuID int64   `json:"from_qu_id"`
	ToQuID   int64   `json:"to_qu_id"`
	Factor   float64 `json:"factor"`
}

// StockEntry 當前庫存項目
type StockEntry struct {
	ProductID         int64        `json:"product_id"`
	Amount            float64      `json:"amount"`
	BestBeforeDate    string       `json:"best_before_date,omitempty"`
	QuantityUnitStock QuantityUnit `json:"quantity_unit_stock"`
}

// CreatedObject 建立物件後 Grocy 回傳的識別碼
type CreatedObject struct {
	CreatedObjectID int64 `json:"created_object_id"`
}

// CreateProductRequest 建立產品的請求
type CreateProductRequest struct {
	Name         string `json:"name"`
	LocationID   int64  `json:"location_id"`
	QuIDStock    int64  `json:"qu_id_stock"`
	QuIDPurchase int64  `json:"qu_id_purchase"`
	QuIDConsume  int64  `json:"qu_id_consume"`
	Description  string `json:"description,omitempty"`
}

// PurchaseRequest 進貨（加入庫存）的請求
type PurchaseRequest struct {
	Amount          float64 `json:"amount"`
	TransactionType string  `json:"transaction_type"`
	BestBeforeDate  string  `json:"best_before_date,omitempty"`
	Price           float64 `json:"price,omitempty"`
	LocationID      int64   `json:"location_id,omitempty"`
}

// ConsumeRequest 消耗庫存的請求
type ConsumeRequest struct {
	Amount          float64 `json:"amount"`
	TransactionType string  `json:"transaction_type"`
	Spoiled         bool    `json:"spoiled"`
	LocationID      int64   `json:"location_id,omitempty"`
}

// ShoppingListAddRequest 加入購物清單的請求
type ShoppingListAddRequest struct {
	ProductID     int64   `json:"product_id"`
	ListID        int64   `json:"list_id,omitempty"`
	ProductAmount float64 `json:"product_amount"`
	Note          string  `json:"note,omitempty"`
}
