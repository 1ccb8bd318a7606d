package inventory

import (
	"testing"

	"elzar-backend/internal/pkg/common"

	"github.com/stretchr/testify/assert"
)

func TestProductResolverExistingIDTrusted(t *testing.T) {
	catalog := mustLoadCatalog(t, newFakeGrocy())
	resolver := NewProductResolver(catalog)

	match := resolver.Resolve("whatever", 5, true)
	assert.Equal(t, int64(5), match.ProductID)
	assert.Equal(t, common.ConfidenceHigh, match.Confidence)
	assert.Equal(t, int64(1), match.LocationID)
}

func TestProductResolverExactNameMatch(t *testing.T) {
	catalog := mustLoadCatalog(t, newFakeGrocy())
	resolver := NewProductResolver(catalog)

	match := resolver.Resolve("FLOUR", 0, false)
	assert.Equal(t, int64(9), match.ProductID)
	assert.Equal(t, common.ConfidenceMedium, match.Confidence)
	// 位置取產品自己的設定
	assert.Equal(t, int64(2), match.LocationID)
}

func TestProductResolverNoMatch(t *testing.T) {
	catalog := mustLoadCatalog(t, newFakeGrocy())
	resolver := NewProductResolver(catalog)

	match := resolver.Resolve("Dragonfruit", 0, false)
	assert.Equal(t, int64(0), match.ProductID)
	assert.Equal(t, common.ConfidenceNew, match.Confidence)
	// 新產品建議放在第一個位置
	assert.Equal(t, int64(1), match.LocationID)
}

func TestProductResolverUnknownIDFallsBackToFirstLocation(t *testing.T) {
	catalog := mustLoadCatalog(t, newFakeGrocy())
	resolver := NewProductResolver(catalog)

	// 識別碼被信任但目錄查不到時，位置退回第一個位置
	match := resolver.Resolve("Mystery", 999, false)
	assert.Equal(t, int64(999), match.ProductID)
	assert.Equal(t, int64(1), match.LocationID)
}
