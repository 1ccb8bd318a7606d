package inventory

import (
	"context"
	"testing"

	"elzar-backend/internal/core/grocy"
	"elzar-backend/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcilePurchaseExistingProduct(t *testing.T) {
	fake := newFakeGrocy()
	engine, _ := newTestEngine(t, fake)

	result := engine.Reconcile(context.Background(), []common.TransactionIntent{
		{ProductName: "Milk", Amount: 2, Unit: "l", Action: common.ActionPurchase},
	})

	require.Len(t, result.Succeeded, 1)
	assert.Equal(t, int64(5), result.Succeeded[0].ProductID)
	assert.Empty(t, result.Failed)
	assert.Empty(t, result.CreatedProducts)

	req, ok := fake.purchases[5]
	require.True(t, ok)
	assert.Equal(t, float64(2), req.Amount)
	assert.Equal(t, "purchase", req.TransactionType)
	// 位置沿用產品自己的設定
	assert.Equal(t, int64(1), req.LocationID)
}

func TestReconcilePurchaseCreatesMissingProduct(t *testing.T) {
	fake := newFakeGrocy()
	engine, catalog := newTestEngine(t, fake)

	result := engine.Reconcile(context.Background(), []common.TransactionIntent{
		{ProductName: "Butter", Amount: 250, Unit: "g", Action: common.ActionPurchase, CreateIfMissing: true},
	})

	require.Len(t, result.Succeeded, 1)
	require.Len(t, result.CreatedProducts, 1)
	assert.Equal(t, "Butter", result.CreatedProducts[0].Name)

	require.Len(t, fake.createdProducts, 1)
	created := fake.createdProducts[0]
	assert.Equal(t, "Butter", created.Name)
	// 單位 g 直查命中 Gram
	assert.Equal(t, int64(3), created.QuIDStock)
	assert.Equal(t, "Auto-created from inventory import", created.Description)

	// 新產品已納入快照，後續項目可重用
	_, ok := catalog.ProductIDByName("butter")
	assert.True(t, ok)
}

func TestReconcileLaterItemReusesCreatedProduct(t *testing.T) {
	fake := newFakeGrocy()
	engine, _ := newTestEngine(t, fake)

	result := engine.Reconcile(context.Background(), []common.TransactionIntent{
		{ProductName: "Butter", Amount: 1, Unit: "pcs", Action: common.ActionPurchase, CreateIfMissing: true},
		{ProductName: "butter", Amount: 2, Unit: "pcs", Action: common.ActionPurchase, CreateIfMissing: true},
	})

	assert.Len(t, result.Succeeded, 2)
	// 第二個項目重用第一個剛建立的產品，不再建立
	assert.Len(t, result.CreatedProducts, 1)
	assert.Len(t, fake.createdProducts, 1)
}

func TestReconcilePurchaseMissingWithoutCreateFails(t *testing.T) {
	fake := newFakeGrocy()
	engine, _ := newTestEngine(t, fake)

	result := engine.Reconcile(context.Background(), []common.TransactionIntent{
		{ProductName: "Butter", Amount: 1, Unit: "pcs", Action: common.ActionPurchase},
	})

	require.Len(t, result.Failed, 1)
	assert.Equal(t, common.ErrCodeValidationFailed, result.Failed[0].Code)
	assert.Empty(t, result.Succeeded)
}

func TestReconcileConsumeCapsAtStock(t *testing.T) {
	fake := newFakeGrocy()
	fake.stock[5] = 1.5
	engine, _ := newTestEngine(t, fake)

	result := engine.Reconcile(context.Background(), []common.TransactionIntent{
		{ProductName: "Milk", Amount: 2, Unit: "l", Action: common.ActionConsume},
	})

	require.Len(t, result.Succeeded, 1)
	item := result.Succeeded[0]
	assert.Equal(t, 1.5, item.Amount)
	assert.Contains(t, item.Note, "insufficient stock")

	req, ok := fake.consumes[5]
	require.True(t, ok)
	assert.Equal(t, 1.5, req.Amount)
}

func TestReconcileConsumeZeroStock(t *testing.T) {
	fake := newFakeGrocy()
	engine, _ := newTestEngine(t, fake)

	result := engine.Reconcile(context.Background(), []common.TransactionIntent{
		{ProductName: "Milk", Amount: 2, Unit: "l", Action: common.ActionConsume},
	})

	// 完全沒庫存時不發出異動，但項目仍以 0 數量完成並附註缺口
	require.Len(t, result.Succeeded, 1)
	assert.Equal(t, float64(0), result.Succeeded[0].Amount)
	assert.Contains(t, result.Succeeded[0].Note, "insufficient stock")
	assert.Empty(t, fake.consumes)
}

func TestReconcileConsumeUnknownProductFails(t *testing.T) {
	fake := newFakeGrocy()
	engine, _ := newTestEngine(t, fake)

	result := engine.Reconcile(context.Background(), []common.TransactionIntent{
		{ProductName: "Unicorn", Amount: 1, Unit: "pcs", Action: common.ActionConsume, CreateIfMissing: true},
	})

	// 消耗不自動建立產品，即使 create_if_missing 為真
	require.Len(t, result.Failed, 1)
	assert.Equal(t, common.ErrCodeValidationFailed, result.Failed[0].Code)
	assert.Empty(t, fake.createdProducts)
}

func TestReconcileShoppingListShortfall(t *testing.T) {
	fake := newFakeGrocy()
	fake.stock[7] = 4
	engine, _ := newTestEngine(t, fake)

	result := engine.Reconcile(context.Background(), []common.TransactionIntent{
		{ProductName: "Eggs", Amount: 12, Unit: "pcs", Action: common.ActionAddToShoppingList},
	})

	require.Len(t, result.Succeeded, 1)
	assert.Equal(t, float64(8), result.Succeeded[0].Amount)

	require.Len(t, fake.shoppingAdds, 1)
	add := fake.shoppingAdds[0]
	assert.Equal(t, int64(7), add.ProductID)
	assert.Equal(t, float64(8), add.ProductAmount)
	assert.Equal(t, int64(1), add.ListID)
	assert.Contains(t, add.Note, "in stock: 4.00")
}

func TestReconcileShoppingListSufficientStockSkips(t *testing.T) {
	fake := newFakeGrocy()
	fake.stock[7] = 12
	engine, _ := newTestEngine(t, fake)

	result := engine.Reconcile(context.Background(), []common.TransactionIntent{
		{ProductName: "Eggs", Amount: 12, Unit: "pcs", Action: common.ActionAddToShoppingList},
	})

	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Succeeded)
	assert.Empty(t, fake.shoppingAdds)
}

func TestReconcileUpstreamRejection(t *testing.T) {
	fake := newFakeGrocy()
	fake.purchaseErr = &grocy.APIError{StatusCode: 400, Message: "amount must be positive"}
	engine, _ := newTestEngine(t, fake)

	result := engine.Reconcile(context.Background(), []common.TransactionIntent{
		{ProductName: "Milk", Amount: 2, Unit: "l", Action: common.ActionPurchase},
	})

	require.Len(t, result.Failed, 1)
	assert.Equal(t, common.ErrCodeUpstreamRejected, result.Failed[0].Code)
	// Grocy 的錯誤原文必須原封不動呈現
	assert.Equal(t, "amount must be positive", result.Failed[0].Reason)
}

func TestReconcileFailureDoesNotStopBatch(t *testing.T) {
	fake := newFakeGrocy()
	fake.stock[7] = 1
	engine, _ := newTestEngine(t, fake)

	result := engine.Reconcile(context.Background(), []common.TransactionIntent{
		{ProductName: "Milk", Amount: 2, Unit: "l", Action: common.ActionPurchase},
		{ProductName: "Nope", Amount: 1, Unit: "pcs", Action: common.ActionPurchase},
		{ProductName: "Eggs", Amount: 6, Unit: "pcs", Action: common.ActionAddToShoppingList},
		{ProductName: "Whatever", Amount: 1, Unit: "pcs", Action: common.ActionSkip},
	})

	assert.Len(t, result.Succeeded, 2)
	assert.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 4, result.Processed())
}

func TestReconcileUnknownAction(t *testing.T) {
	fake := newFakeGrocy()
	engine, _ := newTestEngine(t, fake)

	result := engine.Reconcile(context.Background(), []common.TransactionIntent{
		{ProductName: "Milk", Amount: 1, Unit: "l", Action: "teleport"},
	})

	require.Len(t, result.Failed, 1)
	assert.Equal(t, common.ErrCodeValidationFailed, result.Failed[0].Code)
}

func TestReconcileCreateConflictRefetches(t *testing.T) {
	fake := newFakeGrocy()
	engine, _ := newTestEngine(t, fake)

	// 建立撞衝突，但重查後產品已在清單裡
	fake.createProductErr = &grocy.APIError{StatusCode: 400, Message: "UNIQUE constraint failed: products.name"}
	fake.products = append(fake.products, grocy.Product{ID: 55, Name: "Butter", LocationID: 1, QuIDStock: 3})

	result := engine.Reconcile(context.Background(), []common.TransactionIntent{
		{ProductName: "Butter", Amount: 1, Unit: "pcs", Action: common.ActionPurchase, CreateIfMissing: true},
	})

	require.Len(t, result.Succeeded, 1)
	assert.Equal(t, int64(55), result.Succeeded[0].ProductID)
	assert.Empty(t, result.Failed)
}

func TestReconcileCreateConflictExhausted(t *testing.T) {
	fake := newFakeGrocy()
	engine, _ := newTestEngine(t, fake)

	// 衝突且重查後仍找不到同名產品
	fake.createProductErr = &grocy.APIError{StatusCode: 400, Message: "UNIQUE constraint failed: products.name"}

	result := engine.Reconcile(context.Background(), []common.TransactionIntent{
		{ProductName: "Butter", Amount: 1, Unit: "pcs", Action: common.ActionPurchase, CreateIfMissing: true},
	})

	require.Len(t, result.Failed, 1)
	assert.Equal(t, common.ErrCodeConflictRetryExhausted, result.Failed[0].Code)
}

func TestReconcileNormalizesIntentDefaults(t *testing.T) {
	fake := newFakeGrocy()
	engine, _ := newTestEngine(t, fake)

	// 數量與單位缺漏時套用預設值，動作缺漏時視為略過
	result := engine.Reconcile(context.Background(), []common.TransactionIntent{
		{ProductName: "Milk", Action: common.ActionPurchase},
		{ProductName: "Eggs"},
	})

	require.Len(t, result.Succeeded, 1)
	assert.Equal(t, float64(1), result.Succeeded[0].Amount)
	assert.Equal(t, "unit", result.Succeeded[0].Unit)
	assert.Equal(t, 1, result.Skipped)
}

func TestCreateProductsBatch(t *testing.T) {
	fake := newFakeGrocy()
	engine, _ := newTestEngine(t, fake)

	result := engine.CreateProducts(context.Background(), []common.TransactionIntent{
		{ProductName: "Butter", Unit: "g"},
		{ProductName: "Milk", Unit: "l"},
		{ProductName: "Yeast", Unit: "g"},
	})

	// Milk 已存在，計入略過且不重複建立
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, result.CreatedProducts, 2)
	assert.Len(t, result.Succeeded, 2)
	assert.Len(t, fake.createdProducts, 2)
	assert.Empty(t, result.Failed)
}

func TestCreateProductsRequiresName(t *testing.T) {
	fake := newFakeGrocy()
	engine, _ := newTestEngine(t, fake)

	result := engine.CreateProducts(context.Background(), []common.TransactionIntent{
		{ProductName: "   "},
	})

	require.Len(t, result.Failed, 1)
	assert.Equal(t, common.ErrCodeValidationFailed, result.Failed[0].Code)
	assert.Empty(t, fake.createdProducts)
}

func TestCreateProductsIsolatesFailures(t *testing.T) {
	fake := newFakeGrocy()
	engine, _ := newTestEngine(t, fake)

	fake.createProductErr = &grocy.APIError{StatusCode: 500, Message: "disk full"}

	result := engine.CreateProducts(context.Background(), []common.TransactionIntent{
		{ProductName: "Butter", Unit: "g"},
		{ProductName: "Milk", Unit: "l"},
	})

	// 建立失敗不影響其他項目的處理
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "Butter", result.Failed[0].Item)
	assert.Equal(t, 1, result.Skipped)
}
