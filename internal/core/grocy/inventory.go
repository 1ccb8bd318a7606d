package grocy

import (
	"context"
	"sort"
)

// InventoryItem 提供給 LLM 提示的庫存項目
type InventoryItem struct {
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Unit      string  `json:"unit"`
	ProductID int64   `json:"product_id"`
}

// ExpiringItem 即將過期的庫存項目
type ExpiringItem struct {
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	ExpiryDate string  `json:"expiry_date"`
	ProductID  int64   `json:"product_id"`
}

// InventorySummary 供提示組裝使用的庫存摘要
type InventorySummary struct {
	AvailableItems []InventoryItem `json:"available_items"`
	ExpiringSoon   []ExpiringItem  `json:"expiring_soon"`
}

// maxExpiringItems 摘要中最多列出的過期項目數
const maxExpiringItems = 10

// FormatInventoryForLLM 將 Grocy 庫存整理成適合嵌入 LLM 提示的摘要
func (c *Client) FormatInventoryForLLM(ctx context.Context, prioritizeExpiring bool) (*InventorySummary, error) {
	stock, err := c.GetStock(ctx)
	if err != nil {
		return nil, err
	}

	products, err := c.GetProducts(ctx)
	if err != nil {
		return nil, err
	}

	// 建立產品查找表
	productLookup := make(map[int64]Product, len(products))
	for _, p := range products {
		productLookup[p.ID] = p
	}

	summary := &InventorySummary{
		AvailableItems: make([]InventoryItem, 0, len(stock)),
		ExpiringSoon:   []ExpiringItem{},
	}

	for _, entry := range stock {
		name := "Unknown"
		if p, ok := productLookup[entry.ProductID]; ok {
			name = p.Name
		}
		unit := entry.QuantityUnitStock.Name
		if unit == "" {
			unit = "unit"
		}
		summary.AvailableItems = append(summary.AvailableItems, InventoryItem{
			Name:      name,
			Amount:    entry.Amount,
			Unit:      unit,
			ProductID: entry.ProductID,
		})
	}

	if prioritizeExpiring {
		volatile, err := c.GetVolatileStock(ctx)
		if err != nil {
			return nil, err
		}

		expiring := make([]ExpiringItem, 0, len(volatile))
		for _, entry := range volatile {
			if entry.BestBeforeDate == "" {
				continue
			}
			name := "Unknown"
			if p, ok := productLookup[entry.ProductID]; ok {
				name = p.Name
			}
			expiring = append(expiring, ExpiringItem{
				Name:       name,
				Amount:     entry.Amount,
				ExpiryDate: entry.BestBeforeDate,
				ProductID:  entry.ProductID,
			})
		}

		// 依過期日排序，只保留最接近過期的前幾項
		sort.Slice(expiring, func(i, j int) bool {
			return expiring[i].ExpiryDate < expiring[j].ExpiryDate
		})
		if len(expiring) > maxExpiringItems {
			expiring = expiring[:maxExpiringItems]
		}
		summary.ExpiringSoon = expiring
	}

	return summary, nil
}

// StockAmount 回傳指定產品目前的庫存量
func (c *Client) StockAmount(ctx context.Context, productID int64) (float64, error) {
	stock, err := c.GetStock(ctx)
	if err != nil {
		return 0, err
	}
	for _, entry := range stock {
		if entry.ProductID == productID {
			return entry.Amount, nil
		}
	}
	return 0, nil
}
