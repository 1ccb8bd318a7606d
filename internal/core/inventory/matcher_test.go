package inventory

import (
	"context"
	"testing"

	"elzar-backend/internal/core/grocy"
	"elzar-backend/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndMatchStripsCodeFence(t *testing.T) {
	ai := &fakeAI{response: "```json\n[\n  {\n    \"original_text\": \"1gal milk\",\n    \"item_name\": \"Milk\",\n    \"quantity\": 3.78,\n    \"unit\": \"l\",\n    \"matched_product_id\": 5,\n    \"matched_product_name\": \"Milk\",\n    \"confidence\": \"high\",\n    \"suggested_location_id\": 1,\n    \"suggested_location_name\": \"Fridge\"\n  }\n]\n```"}
	matcher := NewMatcher(ai, testConfig())
	catalog := mustLoadCatalog(t, newFakeGrocy())

	items, err := matcher.ParseAndMatch(context.Background(), "1gal milk", catalog)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "Milk", item.ItemName)
	assert.Equal(t, 3.78, item.Quantity)
	assert.Equal(t, int64(5), item.MatchedProductID)
	assert.Equal(t, common.ConfidenceHigh, item.Confidence)
	assert.Equal(t, "Fridge", item.SuggestedLocationName)
}

func TestParseAndMatchPromptContainsCatalog(t *testing.T) {
	ai := &fakeAI{response: "[]"}
	matcher := NewMatcher(ai, testConfig())
	catalog := mustLoadCatalog(t, newFakeGrocy())

	_, err := matcher.ParseAndMatch(context.Background(), "2 apples", catalog)
	require.NoError(t, err)
	require.Len(t, ai.prompts, 1)

	prompt := ai.prompts[0]
	assert.Contains(t, prompt, "2 apples")
	assert.Contains(t, prompt, "ID: 5, Name: Milk")
	assert.Contains(t, prompt, "ID: 1, Name: Fridge")
	assert.Contains(t, prompt, "metric units")
}

func TestParseAndMatchImperialGuidance(t *testing.T) {
	ai := &fakeAI{response: "[]"}
	cfg := testConfig()
	cfg.Inventory.UnitPreference = "imperial"
	matcher := NewMatcher(ai, cfg)
	catalog := mustLoadCatalog(t, newFakeGrocy())

	_, err := matcher.ParseAndMatch(context.Background(), "2 apples", catalog)
	require.NoError(t, err)
	assert.Contains(t, ai.prompts[0], "imperial units")
}

func TestParseAndMatchMalformedOutput(t *testing.T) {
	ai := &fakeAI{response: "Sorry, I can't parse that right now."}
	matcher := NewMatcher(ai, testConfig())
	catalog := mustLoadCatalog(t, newFakeGrocy())

	_, err := matcher.ParseAndMatch(context.Background(), "2 apples", catalog)
	require.Error(t, err)
	assert.Equal(t, common.ErrCodeMalformedLLMOutput, common.ErrorCode(err))
}

func TestParseAndMatchNormalizesItems(t *testing.T) {
	// 缺漏欄位的項目被補上安全預設值
	ai := &fakeAI{response: `[{"item_name": "  Apples  ", "confidence": "banana"}]`}
	matcher := NewMatcher(ai, testConfig())
	catalog := mustLoadCatalog(t, newFakeGrocy())

	items, err := matcher.ParseAndMatch(context.Background(), "apples", catalog)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "Apples", item.ItemName)
	assert.Equal(t, float64(1), item.Quantity)
	assert.Equal(t, "unit", item.Unit)
	assert.Equal(t, common.ConfidenceNew, item.Confidence)
}

func TestExtractRecipeIngredientsAlternateFieldNames(t *testing.T) {
	// 食材抽取模式用另一套欄位名稱
	ai := &fakeAI{response: `[
		{
			"ingredient_text": "2 cups all-purpose flour",
			"product_id": 9,
			"product_name": "Flour",
			"quantity": 250,
			"unit": "g",
			"confidence": "high",
			"in_stock": true,
			"stock_amount": 1000
		}
	]`}
	matcher := NewMatcher(ai, testConfig())
	catalog := mustLoadCatalog(t, newFakeGrocy())

	stock := []grocy.InventoryItem{{Name: "Flour", Amount: 1000, Unit: "g", ProductID: 9}}
	items, err := matcher.ExtractRecipeIngredients(context.Background(), "Mix 2 cups flour...", catalog, stock, false)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "2 cups all-purpose flour", item.OriginalText)
	assert.Equal(t, "Flour", item.ItemName)
	assert.Equal(t, int64(9), item.MatchedProductID)
	assert.True(t, item.InStock)
	assert.Equal(t, float64(1000), item.StockAmount)

	// 庫存清單要進 prompt
	assert.Contains(t, ai.prompts[0], "Flour: 1000 g")
}

func TestExtractRecipeIngredientsShoppingListMode(t *testing.T) {
	ai := &fakeAI{response: "[]"}
	matcher := NewMatcher(ai, testConfig())
	catalog := mustLoadCatalog(t, newFakeGrocy())

	_, err := matcher.ExtractRecipeIngredients(context.Background(), "recipe", catalog, nil, true)
	require.NoError(t, err)
	require.Len(t, ai.prompts, 1)

	// 購物清單模式要求換算成零售採購數量
	assert.Contains(t, ai.prompts[0], "PURCHASING QUANTITIES")
	assert.Contains(t, ai.prompts[0], "metric purchasing units")
}
