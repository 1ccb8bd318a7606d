package inventory

import (
	"context"
	"errors"
	"testing"

	"elzar-backend/internal/core/grocy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitResolverDirectLookup(t *testing.T) {
	fake := newFakeGrocy()
	catalog := mustLoadCatalog(t, fake)
	resolver := NewUnitResolver(catalog, fake, "piece")

	assert.Equal(t, int64(2), resolver.Resolve(context.Background(), "Liter"))
	assert.Equal(t, int64(2), resolver.Resolve(context.Background(), "  liter "))
	// 符號也算直查命中
	assert.Equal(t, int64(3), resolver.Resolve(context.Background(), "g"))
	assert.Empty(t, fake.createdUnits)
}

func TestUnitResolverAlias(t *testing.T) {
	fake := newFakeGrocy()
	catalog := mustLoadCatalog(t, fake)
	resolver := NewUnitResolver(catalog, fake, "piece")

	// "ea" 與 "pcs" 都是 piece 的別名
	assert.Equal(t, int64(1), resolver.Resolve(context.Background(), "ea"))
	assert.Equal(t, int64(1), resolver.Resolve(context.Background(), "pcs"))
	assert.Empty(t, fake.createdUnits)
}

func TestUnitResolverAutoCreate(t *testing.T) {
	fake := newFakeGrocy()
	catalog := mustLoadCatalog(t, fake)
	resolver := NewUnitResolver(catalog, fake, "piece")

	id := resolver.Resolve(context.Background(), "kg")
	require.Len(t, fake.createdUnits, 1)
	assert.Equal(t, "Kilogram", fake.createdUnits[0].Name)
	assert.Equal(t, "Kilograms", fake.createdUnits[0].NamePlural)
	assert.Equal(t, fake.createdUnits[0].ID, id)

	// 新單位進入快照，同批次的第二次解析不再呼叫建立
	again := resolver.Resolve(context.Background(), "kilogram")
	assert.Equal(t, id, again)
	assert.Len(t, fake.createdUnits, 1)
}

func TestUnitResolverAutoCreateConversions(t *testing.T) {
	fake := newFakeGrocy()
	catalog := mustLoadCatalog(t, fake)
	resolver := NewUnitResolver(catalog, fake, "piece")

	id := resolver.Resolve(context.Background(), "kg")

	// 目錄裡已有 gram，kilogram -> gram 的直接換算應被補上
	var found bool
	for _, conv := range fake.conversions {
		if conv.FromQuID == id && conv.ToQuID == 3 {
			assert.Equal(t, float64(1000), conv.Factor)
			found = true
		}
	}
	assert.True(t, found, "expected kilogram->gram conversion")
}

func TestUnitResolverConflictRetry(t *testing.T) {
	fake := newFakeGrocy()
	catalog := mustLoadCatalog(t, fake)
	resolver := NewUnitResolver(catalog, fake, "piece")

	// 另一個請求已搶先建立 Kilogram，建立會撞唯一性衝突
	fake.units = append(fake.units, grocy.QuantityUnit{ID: 77, Name: "Kilogram", NamePlural: "Kilograms"})
	fake.createUnitErr = &grocy.APIError{StatusCode: 400, Message: "SQLSTATE[23000]: UNIQUE constraint failed"}

	id := resolver.Resolve(context.Background(), "kg")
	assert.Equal(t, int64(77), id)
}

func TestUnitResolverFallbackToDefault(t *testing.T) {
	fake := newFakeGrocy()
	catalog := mustLoadCatalog(t, fake)
	resolver := NewUnitResolver(catalog, fake, "piece")

	// 無法分類的單位不會失敗，落到預設單位
	assert.Equal(t, int64(1), resolver.Resolve(context.Background(), "smidgen"))
	assert.Equal(t, int64(1), resolver.Resolve(context.Background(), ""))
}

func TestUnitResolverCreateFailureFallsBack(t *testing.T) {
	fake := newFakeGrocy()
	catalog := mustLoadCatalog(t, fake)
	resolver := NewUnitResolver(catalog, fake, "piece")

	// 非衝突的建立失敗也不會讓解析失敗
	fake.createUnitErr = errors.New("network down")
	assert.Equal(t, int64(1), resolver.Resolve(context.Background(), "kg"))
}

func TestUnitResolverDefaultUnitFromConfig(t *testing.T) {
	fake := newFakeGrocy()
	catalog := mustLoadCatalog(t, fake)
	resolver := NewUnitResolver(catalog, fake, "gram")

	assert.Equal(t, int64(3), resolver.DefaultUnitID())
}

func TestUnitResolverEmptyCatalog(t *testing.T) {
	fake := newFakeGrocy()
	fake.units = nil
	catalog := mustLoadCatalog(t, fake)
	fake.createUnitErr = errors.New("read only")
	resolver := NewUnitResolver(catalog, fake, "piece")

	assert.Equal(t, int64(0), resolver.Resolve(context.Background(), "smidgen"))
}
