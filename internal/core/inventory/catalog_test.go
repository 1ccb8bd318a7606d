package inventory

import (
	"context"
	"errors"
	"testing"

	"elzar-backend/internal/core/grocy"
	"elzar-backend/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalogBuildsIndexes(t *testing.T) {
	catalog := mustLoadCatalog(t, newFakeGrocy())

	id, ok := catalog.ProductIDByName("milk")
	require.True(t, ok)
	assert.Equal(t, int64(5), id)

	// 名稱比對不分大小寫，也容忍前後空白
	id, ok = catalog.ProductIDByName("  FLOUR ")
	require.True(t, ok)
	assert.Equal(t, int64(9), id)

	_, ok = catalog.ProductIDByName("butter")
	assert.False(t, ok)

	locID, ok := catalog.LocationIDByName("PANTRY")
	require.True(t, ok)
	assert.Equal(t, int64(2), locID)

	assert.Equal(t, int64(1), catalog.FirstLocationID())
}

func TestLoadCatalogUnitSymbols(t *testing.T) {
	catalog := mustLoadCatalog(t, newFakeGrocy())

	// 同時以名稱與符號建立索引
	byName, ok := catalog.UnitIDByName("liter")
	require.True(t, ok)
	bySymbol, ok2 := catalog.UnitIDByName("l")
	require.True(t, ok2)
	assert.Equal(t, byName, bySymbol)
}

func TestLoadCatalogUnavailable(t *testing.T) {
	fake := newFakeGrocy()
	fake.locationsErr = errors.New("connection refused")

	_, err := LoadCatalog(context.Background(), fake)
	require.Error(t, err)
	assert.Equal(t, common.ErrCodeCatalogUnavailable, common.ErrorCode(err))
}

func TestCatalogAddProductVisibleToLookup(t *testing.T) {
	catalog := mustLoadCatalog(t, newFakeGrocy())

	catalog.AddProduct(grocy.Product{ID: 42, Name: "Butter", LocationID: 1})

	id, ok := catalog.ProductIDByName("Butter")
	require.True(t, ok)
	assert.Equal(t, int64(42), id)

	p, ok := catalog.ProductByID(42)
	require.True(t, ok)
	assert.Equal(t, "Butter", p.Name)
}

func TestCatalogRefreshUnits(t *testing.T) {
	fake := newFakeGrocy()
	catalog := mustLoadCatalog(t, fake)

	fake.units = append(fake.units, grocy.QuantityUnit{ID: 8, Name: "Kilogram", NamePlural: "Kilograms"})
	require.NoError(t, catalog.RefreshUnits(context.Background(), fake))

	id, ok := catalog.UnitIDByName("kilogram")
	require.True(t, ok)
	assert.Equal(t, int64(8), id)

	// 其他索引不受影響
	_, ok = catalog.ProductIDByName("milk")
	assert.True(t, ok)
}
