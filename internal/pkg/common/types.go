package common

import (
	"strings"
)

// Confidence 候選項目與目錄產品的配對信心等級
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"   // 精確或近乎精確的配對
	ConfidenceMedium Confidence = "medium" // 接近但仍有不確定性
	ConfidenceLow    Confidence = "low"    // 不確定的配對
	ConfidenceNew    Confidence = "new"    // 目錄中找不到合理的配對
)

// Valid 檢查信心等級是否為已知值
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceNew:
		return true
	}
	return false
}

// Action 庫存異動動作
type Action string

const (
	ActionPurchase          Action = "purchase"
	ActionConsume           Action = "consume"
	ActionAddToShoppingList Action = "add_to_shopping_list"
	ActionSkip              Action = "skip"
)

// CandidateItem 文字解析產生的候選項目
// 由 LLM 或使用者輸入產生，屬於未經信任的資料，
// 進入核對流程前必須先經過 Normalize 與產品／單位解析
type CandidateItem struct {
	OriginalText          string     `json:"original_text,omitempty"`
	ItemName              string     `json:"item_name"`
	Quantity              float64    `json:"quantity"`
	Unit                  string     `json:"unit"`
	Confidence            Confidence `json:"confidence"`
	MatchedProductID      int64      `json:"matched_product_id,omitempty"`
	MatchedProductName    string     `json:"matched_product_name,omitempty"`
	SuggestedLocationID   int64      `json:"suggested_location_id,omitempty"`
	SuggestedLocationName string     `json:"suggested_location_name,omitempty"`
	InStock               bool       `json:"in_stock,omitempty"`
	StockAmount           float64    `json:"stock_amount,omitempty"`
}

// Normalize 補齊缺漏欄位，讓不完整的 LLM 輸出也能安全進入核對流程
func (c *CandidateItem) Normalize() {
	c.ItemName = strings.TrimSpace(c.ItemName)
	if c.Quantity <= 0 {
		c.Quantity = 1
	}
	if strings.TrimSpace(c.Unit) == "" {
		c.Unit = "unit"
	}
	if !c.Confidence.Valid() {
		c.Confidence = ConfidenceNew
	}
}

// TransactionIntent 單一項目的庫存異動意圖
type TransactionIntent struct {
	ProductID       int64   `json:"product_id,omitempty"`
	ProductName     string  `json:"product_name"`
	Amount          float64 `json:"amount"`
	Unit            string  `json:"unit"`
	Action          Action  `json:"action"`
	CreateIfMissing bool    `json:"create_if_missing"`
	LocationID      int64   `json:"location_id,omitempty"`
	BestBeforeDate  string  `json:"best_before_date,omitempty"`
	Price           float64 `json:"price,omitempty"`
}

// Normalize 補齊缺漏欄位（數量預設 1、單位預設 "unit"、動作預設 skip）
func (i *TransactionIntent) Normalize() {
	i.ProductName = strings.TrimSpace(i.ProductName)
	if i.Amount <= 0 {
		i.Amount = 1
	}
	if strings.TrimSpace(i.Unit) == "" {
		i.Unit = "unit"
	}
	if i.Action == "" {
		i.Action = ActionSkip
	}
}

// SucceededItem 成功處理的項目
type SucceededItem struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Amount      float64 `json:"amount"`
	Unit        string  `json:"unit"`
	Note        string  `json:"note,omitempty"` // 例如庫存不足時的缺口說明
}

// FailedItem 處理失敗的項目，附帶結構化錯誤代碼與原因
type FailedItem struct {
	Item   string `json:"item"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// CreatedProduct 核對過程中自動建立的產品
type CreatedProduct struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ReconcileResult 批次核對結果；部分成功是正常的終態，不會回滾
type ReconcileResult struct {
	Succeeded       []SucceededItem  `json:"success"`
	Failed          []FailedItem     `json:"failed"`
	CreatedProducts []CreatedProduct `json:"created_products"`
	Skipped         int              `json:"skipped"`
}

// NewReconcileResult 創建空的核對結果（切片預先初始化，JSON 輸出為空陣列而非 null）
func NewReconcileResult() *ReconcileResult {
	return &ReconcileResult{
		Succeeded:       []SucceededItem{},
		Failed:          []FailedItem{},
		CreatedProducts: []CreatedProduct{},
	}
}

// AddFailure 記錄單一項目的失敗，不影響批次中的其他項目
func (r *ReconcileResult) AddFailure(item, code, reason string) {
	r.Failed = append(r.Failed, FailedItem{Item: item, Code: code, Reason: reason})
}

// Processed 已處理的項目總數（成功 + 失敗 + 略過）
func (r *ReconcileResult) Processed() int {
	return len(r.Succeeded) + len(r.Failed) + r.Skipped
}

// DietaryProfile 家庭成員的飲食限制設定
type DietaryProfile struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	DietaryRestrictions string `json:"dietary_restrictions"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
}
