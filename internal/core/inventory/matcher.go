package inventory

import (
	"context"
	"fmt"
	"strings"

	"elzar-backend/internal/core/ai/service"
	"elzar-backend/internal/core/grocy"
	"elzar-backend/internal/infrastructure/config"
	"elzar-backend/internal/pkg/common"

	"go.uber.org/zap"
)

// AIService 文字解析所需的 LLM 能力
type AIService interface {
	ProcessRequest(ctx context.Context, prompt string, opts service.Options) (*service.Response, error)
}

// 解析用的取樣參數：低溫度求穩定輸出
const (
	parseTemperature = 0.3
	parseMaxTokens   = 3000
)

// Matcher 以 LLM 解析自由文字並與 Grocy 產品配對
// LLM 輸出一律視為未信任資料，進入核對流程前還會再經過產品／單位解析
type Matcher struct {
	ai     AIService
	config *config.Config
}

// NewMatcher 創建配對器
func NewMatcher(ai AIService, cfg *config.Config) *Matcher {
	return &Matcher{
		ai:     ai,
		config: cfg,
	}
}

// ParseAndMatch 解析輸入文字，抽取品項並與目錄中的產品配對
func (m *Matcher) ParseAndMatch(ctx context.Context, inputText string, catalog *Catalog) ([]common.CandidateItem, error) {
	prompt := m.buildParsePrompt(inputText, catalog)

	items, err := m.invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	common.LogInfo("文字解析完成",
		zap.Int("品項數", len(items)),
	)
	return items, nil
}

// ExtractRecipeIngredients 從食譜文字抽取食材並與目錄產品配對
// forShoppingList 為 true 時，要求 LLM 換算成實際採購數量（整瓶、整袋）
func (m *Matcher) ExtractRecipeIngredients(ctx context.Context, recipeText string, catalog *Catalog, stock []grocy.InventoryItem, forShoppingList bool) ([]common.CandidateItem, error) {
	var prompt string
	if forShoppingList {
		prompt = m.buildShoppingListPrompt(recipeText, catalog, stock)
	} else {
		prompt = m.buildRecipeExtractionPrompt(recipeText, catalog, stock)
	}

	items, err := m.invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	common.LogInfo("食譜食材抽取完成",
		zap.Int("食材數", len(items)),
		zap.Bool("購物清單模式", forShoppingList),
	)
	return items, nil
}

// invoke 呼叫 LLM 並把回應解析成候選項目清單
// 格式錯誤讓整次抽取失敗，此時還沒有任何項目存在，沒有部分結果可言
func (m *Matcher) invoke(ctx context.Context, prompt string) ([]common.CandidateItem, error) {
	temp := parseTemperature
	resp, err := m.ai.ProcessRequest(ctx, prompt, service.Options{
		Temperature: &temp,
		MaxTokens:   parseMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	raw := common.ExtractJSONArray(common.StripCodeFence(resp.Content))

	var items []candidateItemJSON
	if err := common.ParseJSON(raw, &items); err != nil {
		return nil, common.NewMalformedLLMOutputError(fmt.Errorf("LLM 回應不是有效的 JSON 陣列: %w", err))
	}

	result := make([]common.CandidateItem, 0, len(items))
	for _, item := range items {
		candidate := item.toCandidate()
		candidate.Normalize()
		result = append(result, candidate)
	}
	return result, nil
}

// candidateItemJSON 接收 LLM 輸出的中介結構
// 兩種抽取模式的欄位名稱略有不同，這裡同時容納兩套
type candidateItemJSON struct {
	OriginalText          string            `json:"original_text"`
	IngredientText        string            `json:"ingredient_text"`
	ItemName              string            `json:"item_name"`
	ProductName           string            `json:"product_name"`
	Quantity              float64           `json:"quantity"`
	Unit                  string            `json:"unit"`
	Confidence            common.Confidence `json:"confidence"`
	MatchedProductID      int64             `json:"matched_product_id"`
	ProductID             int64             `json:"product_id"`
	MatchedProductName    string            `json:"matched_product_name"`
	SuggestedLocationID   int64             `json:"suggested_location_id"`
	SuggestedLocationName string            `json:"suggested_location_name"`
	InStock               bool              `json:"in_stock"`
	StockAmount           float64           `json:"stock_amount"`
}

func (j candidateItemJSON) toCandidate() common.CandidateItem {
	originalText := j.OriginalText
	if originalText == "" {
		originalText = j.IngredientText
	}
	itemName := j.ItemName
	if itemName == "" {
		itemName = j.ProductName
	}
	productID := j.MatchedProductID
	if productID == 0 {
		productID = j.ProductID
	}
	matchedName := j.MatchedProductName
	if matchedName == "" && productID > 0 {
		matchedName = j.ProductName
	}

	return common.CandidateItem{
		OriginalText:          originalText,
		ItemName:              itemName,
		Quantity:              j.Quantity,
		Unit:                  j.Unit,
		Confidence:            j.Confidence,
		MatchedProductID:      productID,
		MatchedProductName:    matchedName,
		SuggestedLocationID:   j.SuggestedLocationID,
		SuggestedLocationName: j.SuggestedLocationName,
		InStock:               j.InStock,
		StockAmount:           j.StockAmount,
	}
}

// formatProductList 把目錄產品整理成 prompt 用的清單
func formatProductList(catalog *Catalog) string {
	var b strings.Builder
	for _, p := range catalog.Products {
		fmt.Fprintf(&b, "- ID: %d, Name: %s\n", p.ID, p.Name)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatLocationList 把儲存位置整理成 prompt 用的清單
func formatLocationList(catalog *Catalog) string {
	var b strings.Builder
	for _, l := range catalog.Locations {
		fmt.Fprintf(&b, "- ID: %d, Name: %s\n", l.ID, l.Name)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatStockList 把現有庫存整理成 prompt 用的清單
func formatStockList(stock []grocy.InventoryItem) string {
	var b strings.Builder
	for _, item := range stock {
		fmt.Fprintf(&b, "- %s: %g %s (Product ID: %d)\n", item.Name, item.Amount, item.Unit, item.ProductID)
	}
	return strings.TrimRight(b.String(), "\n")
}

// unitGuidance 依設定產生單位制度指示
func (m *Matcher) unitGuidance(purchasing bool) string {
	metric := m.config.Inventory.UnitPreference != "imperial"
	switch {
	case purchasing && metric:
		return "Use metric purchasing units (kg, l) for quantities."
	case purchasing:
		return "Use imperial purchasing units (lb, gal, qt) for quantities."
	case metric:
		return "Use metric units (g, kg, ml, l) for quantities."
	default:
		return "Use imperial units (oz, lb, fl oz, gal) for quantities."
	}
}

// buildParsePrompt 組合自由文字解析的 prompt
func (m *Matcher) buildParsePrompt(inputText string, catalog *Catalog) string {
	return fmt.Sprintf(`You are a grocery inventory assistant. Parse the following text and extract all food items with their quantities.

INPUT TEXT:
%s

AVAILABLE PRODUCTS:
%s

AVAILABLE STORAGE LOCATIONS:
%s

TASK:
For each food item you find in the input text:
1. Extract the item name (normalized, e.g., "2%% milk" -> "Milk", "org bnnas" -> "Organic Bananas")
2. Extract quantity as a number
3. Extract or infer the unit. %s
4. Match to the best product from the list above (use product ID)
5. Choose the most appropriate storage location (Fridge for perishables, Pantry for shelf-stable)
6. Assign confidence:
   - "high": Exact or near-exact match
   - "medium": Close match but some uncertainty
   - "low": Uncertain match
   - "new": No reasonable match found in the product list

IMPORTANT RULES:
- Convert units to %s when possible (e.g., 1 gallon = 3.78 liters, 16 oz = 453 grams)
- If no match found, set matched_product_id to null and confidence to "new"
- Ignore non-food items (paper towels, cleaning supplies, etc.)
- Combine duplicate items (e.g., "2 apples" and "3 apples" = 5 apples)
- Use "count" as unit for whole items (eggs, apples, etc.)
- Common perishables go to Fridge: milk, eggs, meat, vegetables, fruits, cheese, yogurt
- Shelf-stable items go to Pantry: flour, sugar, canned goods, pasta, rice, spices

Return ONLY a valid JSON array with NO additional text or explanation:
[
  {
    "original_text": "1gal 2%% milk",
    "item_name": "Milk",
    "quantity": 3.78,
    "unit": "l",
    "matched_product_id": 5,
    "matched_product_name": "Milk",
    "confidence": "high",
    "suggested_location_id": 1,
    "suggested_location_name": "Fridge"
  }
]`,
		inputText,
		formatProductList(catalog),
		formatLocationList(catalog),
		m.unitGuidance(false),
		m.config.Inventory.UnitPreference,
	)
}

// buildRecipeExtractionPrompt 組合食譜食材抽取的 prompt
func (m *Matcher) buildRecipeExtractionPrompt(recipeText string, catalog *Catalog, stock []grocy.InventoryItem) string {
	return fmt.Sprintf(`You are a recipe analysis assistant. Extract all ingredients from this recipe and match them to EXISTING products.

RECIPE TEXT:
%s

AVAILABLE PRODUCTS:
%s

CURRENT STOCK LEVELS:
%s

TASK:
For each ingredient in the recipe:
1. Extract ingredient name (normalized to match existing products)
2. Extract quantity as a number
3. Extract unit. %s
4. **IMPORTANT**: Match to an EXISTING product from the list above whenever possible
   - Example: If recipe says "Parmesan Cheese" and the catalog has "Parmesan", use "Parmesan" (the existing product)
   - Example: If recipe says "2%% Milk" and the catalog has "Milk", use "Milk" (the existing product)
   - Only mark as NEW if there's truly no reasonable match in the product list
5. Check if in stock and if quantity is sufficient
6. Assign confidence:
   - high: Exact match to existing product
   - medium: Close match to existing product
   - low: Uncertain match
   - new: No reasonable match found in the product list

Return ONLY a valid JSON array with NO additional text:
[
  {
    "ingredient_text": "2 cups all-purpose flour",
    "product_id": 12,
    "product_name": "Flour",
    "quantity": 250,
    "unit": "g",
    "confidence": "high",
    "in_stock": true,
    "stock_amount": 1000
  }
]`,
		recipeText,
		formatProductList(catalog),
		formatStockList(stock),
		m.unitGuidance(false),
	)
}

// buildShoppingListPrompt 組合購物清單抽取的 prompt，
// 要求把烹飪計量換算成實際零售採購單位
func (m *Matcher) buildShoppingListPrompt(recipeText string, catalog *Catalog, stock []grocy.InventoryItem) string {
	return fmt.Sprintf(`You are a shopping list assistant. Extract ingredients from this recipe and convert them to REALISTIC PURCHASING QUANTITIES.

RECIPE TEXT:
%s

AVAILABLE PRODUCTS:
%s

CURRENT STOCK LEVELS:
%s

TASK:
For each ingredient in the recipe:
1. Extract ingredient name (normalized to match existing products)
2. **CONVERT to realistic purchasing quantity**:
   - Example: "2 tablespoons olive oil" -> 1 bottle (750ml or 25 fl oz)
   - Example: "1 teaspoon salt" -> 1 container (500g or 1 lb)
   - Example: "1/2 cup flour" -> 1 bag (1kg or 2 lb)
   - Example: "1 cup milk" -> 1 carton (1l or 1 qt)
   - **NEVER use teaspoons, tablespoons, or cups as purchasing units**
   - Think: "What would I actually buy at the store?"
3. Use realistic purchasing units. %s
4. Match to an EXISTING product whenever possible
5. Check if in stock and if quantity is sufficient
6. Assign confidence (high/medium/low/new)

**PURCHASING UNIT GUIDELINES:**
- Spices/seasonings: 1 container (100g or 4 oz minimum)
- Oils: 1 bottle (500ml-1l or 16-32 fl oz)
- Flour/sugar: 1 bag (1-2 kg or 2-5 lb)
- Milk/liquids: 1 carton/bottle (1l or 1 qt minimum)
- Cheese: 1 package (200-500g or 8-16 oz)
- Produce: 1 unit or 1 bunch

Return ONLY a valid JSON array with NO additional text:
[
  {
    "ingredient_text": "2 tablespoons olive oil",
    "product_id": 12,
    "product_name": "Olive Oil",
    "quantity": 750,
    "unit": "ml",
    "confidence": "high",
    "in_stock": false,
    "stock_amount": 0
  }
]`,
		recipeText,
		formatProductList(catalog),
		formatStockList(stock),
		m.unitGuidance(true),
	)
}
