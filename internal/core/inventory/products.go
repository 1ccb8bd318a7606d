package inventory

import (
	"elzar-backend/internal/pkg/common"
)

// ProductMatch 產品解析結果
// ProductID 為 0 表示目錄中沒有這個產品
type ProductMatch struct {
	ProductID  int64
	Confidence common.Confidence
	LocationID int64
}

// ProductResolver 將項目名稱解析為目錄中的產品
// 只做不分大小寫的精確比對，模糊比對交給上游的 LLM 提議
type ProductResolver struct {
	catalog *Catalog
}

// NewProductResolver 創建產品解析器
func NewProductResolver(catalog *Catalog) *ProductResolver {
	return &ProductResolver{catalog: catalog}
}

// Resolve 解析產品
// existingID 由上游（LLM 配對）提供時直接信任，
// 否則以名稱做不分大小寫的精確比對；查無即視為新產品
func (r *ProductResolver) Resolve(itemName string, existingID int64, inStock bool) ProductMatch {
	if existingID > 0 {
		return r.matched(existingID, inStock)
	}

	if id, ok := r.catalog.ProductIDByName(itemName); ok {
		return r.matched(id, inStock)
	}

	return ProductMatch{
		Confidence: common.ConfidenceNew,
		LocationID: r.catalog.FirstLocationID(),
	}
}

// matched 組合已配對產品的信心等級與儲存位置
func (r *ProductResolver) matched(productID int64, inStock bool) ProductMatch {
	confidence := common.ConfidenceMedium
	if inStock {
		confidence = common.ConfidenceHigh
	}

	locationID := int64(0)
	if p, ok := r.catalog.ProductByID(productID); ok && p.LocationID > 0 {
		locationID = p.LocationID
	} else {
		locationID = r.catalog.FirstLocationID()
	}

	return ProductMatch{
		ProductID:  productID,
		Confidence: confidence,
		LocationID: locationID,
	}
}
