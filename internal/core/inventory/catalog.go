package inventory

import (
	"context"
	"fmt"
	"strings"

	"elzar-backend/internal/core/grocy"
	"elzar-backend/internal/pkg/common"

	"go.uber.org/zap"
)

// CatalogSource 目錄快照的資料來源
type CatalogSource interface {
	GetProducts(ctx context.Context) ([]grocy.Product, error)
	GetLocations(ctx context.Context) ([]grocy.Location, error)
	GetQuantityUnits(ctx context.Context) ([]grocy.QuantityUnit, error)
}

// Catalog 單次請求範圍內的目錄快照
// 三組名稱索引以小寫鍵建立，整組一起替換，不會新舊混用
type Catalog struct {
	Products  []grocy.Product
	Locations []grocy.Location
	Units     []grocy.QuantityUnit

	productsByName  map[string]int64
	locationsByName map[string]int64
	unitsByName     map[string]int64
	productsByID    map[int64]grocy.Product
}

// LoadCatalog 從庫存服務抓取產品、位置與單位並建立快照
// 任一清單抓取失敗即視為目錄不可用，整個操作必須中止
func LoadCatalog(ctx context.Context, source CatalogSource) (*Catalog, error) {
	products, err := source.GetProducts(ctx)
	if err != nil {
		return nil, common.NewCatalogUnavailableError(fmt.Errorf("抓取產品清單失敗: %w", err))
	}

	locations, err := source.GetLocations(ctx)
	if err != nil {
		return nil, common.NewCatalogUnavailableError(fmt.Errorf("抓取儲存位置清單失敗: %w", err))
	}

	units, err := source.GetQuantityUnits(ctx)
	if err != nil {
		return nil, common.NewCatalogUnavailableError(fmt.Errorf("抓取計量單位清單失敗: %w", err))
	}

	c := &Catalog{}
	c.replace(products, locations, units)

	common.LogInfo("目錄快照已建立",
		zap.Int("產品數", len(products)),
		zap.Int("位置數", len(locations)),
		zap.Int("單位數", len(units)),
	)

	return c, nil
}

// replace 重建三組索引後一次替換
func (c *Catalog) replace(products []grocy.Product, locations []grocy.Location, units []grocy.QuantityUnit) {
	productsByName := make(map[string]int64, len(products))
	productsByID := make(map[int64]grocy.Product, len(products))
	for _, p := range products {
		productsByName[normalizeKey(p.Name)] = p.ID
		productsByID[p.ID] = p
	}

	locationsByName := make(map[string]int64, len(locations))
	for _, l := range locations {
		locationsByName[normalizeKey(l.Name)] = l.ID
	}

	unitsByName := make(map[string]int64, len(units))
	for _, u := range units {
		unitsByName[normalizeKey(u.Name)] = u.ID
		if u.Symbol != "" {
			if _, exists := unitsByName[normalizeKey(u.Symbol)]; !exists {
				unitsByName[normalizeKey(u.Symbol)] = u.ID
			}
		}
	}

	c.Products = products
	c.Locations = locations
	c.Units = units
	c.productsByName = productsByName
	c.locationsByName = locationsByName
	c.unitsByName = unitsByName
	c.productsByID = productsByID
}

// Refresh 重新抓取全部清單並整組替換索引
func (c *Catalog) Refresh(ctx context.Context, source CatalogSource) error {
	fresh, err := LoadCatalog(ctx, source)
	if err != nil {
		return err
	}
	c.replace(fresh.Products, fresh.Locations, fresh.Units)
	return nil
}

type unitLister interface {
	GetQuantityUnits(ctx context.Context) ([]grocy.QuantityUnit, error)
}

type productLister interface {
	GetProducts(ctx context.Context) ([]grocy.Product, error)
}

// RefreshUnits 只重新抓取單位清單，
// 用於建立單位撞到唯一性衝突後的重查
func (c *Catalog) RefreshUnits(ctx context.Context, source unitLister) error {
	units, err := source.GetQuantityUnits(ctx)
	if err != nil {
		return common.NewCatalogUnavailableError(fmt.Errorf("重新抓取計量單位清單失敗: %w", err))
	}
	c.replace(c.Products, c.Locations, units)
	return nil
}

// RefreshProducts 只重新抓取產品清單，
// 用於建立產品撞到唯一性衝突後的重查
func (c *Catalog) RefreshProducts(ctx context.Context, source productLister) error {
	products, err := source.GetProducts(ctx)
	if err != nil {
		return common.NewCatalogUnavailableError(fmt.Errorf("重新抓取產品清單失敗: %w", err))
	}
	c.replace(products, c.Locations, c.Units)
	return nil
}

// ProductIDByName 以名稱查詢產品（不分大小寫）
func (c *Catalog) ProductIDByName(name string) (int64, bool) {
	id, ok := c.productsByName[normalizeKey(name)]
	return id, ok
}

// ProductByID 以識別碼查詢產品
func (c *Catalog) ProductByID(id int64) (grocy.Product, bool) {
	p, ok := c.productsByID[id]
	return p, ok
}

// UnitIDByName 以名稱或符號查詢單位（不分大小寫）
func (c *Catalog) UnitIDByName(name string) (int64, bool) {
	id, ok := c.unitsByName[normalizeKey(name)]
	return id, ok
}

// LocationIDByName 以名稱查詢儲存位置（不分大小寫）
func (c *Catalog) LocationIDByName(name string) (int64, bool) {
	id, ok := c.locationsByName[normalizeKey(name)]
	return id, ok
}

// FirstLocationID 預設儲存位置：清單中的第一個位置，沒有位置時回傳 0
func (c *Catalog) FirstLocationID() int64 {
	if len(c.Locations) == 0 {
		return 0
	}
	return c.Locations[0].ID
}

// AddUnit 將剛建立的單位納入快照，同批次後續的項目即可重用
func (c *Catalog) AddUnit(u grocy.QuantityUnit) {
	c.Units = append(c.Units, u)
	c.unitsByName[normalizeKey(u.Name)] = u.ID
	if u.Symbol != "" {
		if _, exists := c.unitsByName[normalizeKey(u.Symbol)]; !exists {
			c.unitsByName[normalizeKey(u.Symbol)] = u.ID
		}
	}
}

// AddProduct 將剛建立的產品納入快照
func (c *Catalog) AddProduct(p grocy.Product) {
	c.Products = append(c.Products, p)
	c.productsByName[normalizeKey(p.Name)] = p.ID
	c.productsByID[p.ID] = p
}

// normalizeKey 索引鍵一律在寫入時轉小寫並修剪空白
func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
