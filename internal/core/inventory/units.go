package inventory

import (
	"context"
	"strings"

	"elzar-backend/internal/core/grocy"
	"elzar-backend/internal/pkg/common"

	"go.uber.org/zap"
)

// UnitCreator 單位解析過程中需要的庫存服務操作
type UnitCreator interface {
	GetQuantityUnits(ctx context.Context) ([]grocy.QuantityUnit, error)
	CreateQuantityUnit(ctx context.Context, name, namePlural, description string) (int64, error)
	CreateQuantityUnitConversion(ctx context.Context, fromQuID, toQuID int64, factor float64) error
}

// unitAliases 常見縮寫對應到正式名稱
var unitAliases = map[string]string{
	"g":      "gram",
	"kg":     "kilogram",
	"ml":     "milliliter",
	"l":      "liter",
	"oz":     "ounce",
	"lb":     "pound",
	"lbs":    "pound",
	"gal":    "gallon",
	"fl oz":  "fluid ounce",
	"pt":     "pint",
	"qt":     "quart",
	"tbsp":   "tablespoon",
	"tsp":    "teaspoon",
	"count":  "piece",
	"pcs":    "piece",
	"pc":     "piece",
	"unit":   "piece",
	"units":  "piece",
	"ea":     "piece",
	"bottle": "bottle",
	"bag":    "bag",
}

// commonUnits 可自動建立的單位範本（正式名稱 -> 單複數）
var commonUnits = map[string]struct {
	Name   string
	Plural string
}{
	"gram":        {"Gram", "Grams"},
	"kilogram":    {"Kilogram", "Kilograms"},
	"ounce":       {"Ounce", "Ounces"},
	"pound":       {"Pound", "Pounds"},
	"liter":       {"Liter", "Liters"},
	"milliliter":  {"Milliliter", "Milliliters"},
	"fluid ounce": {"Fluid Ounce", "Fluid Ounces"},
	"pint":        {"Pint", "Pints"},
	"quart":       {"Quart", "Quarts"},
	"gallon":      {"Gallon", "Gallons"},
	"cup":         {"Cup", "Cups"},
	"tablespoon":  {"Tablespoon", "Tablespoons"},
	"teaspoon":    {"Teaspoon", "Teaspoons"},
	"piece":       {"Piece", "Pieces"},
	"bottle":      {"Bottle", "Bottles"},
	"bag":         {"Bag", "Bags"},
	"carton":      {"Carton", "Cartons"},
	"package":     {"Package", "Packages"},
	"container":   {"Container", "Containers"},
}

// unitConversion 靜態換算表的一筆：1 from == factor to
// 僅列直接配對，不做多段換算
type unitConversion struct {
	From   string
	To     string
	Factor float64
}

var staticConversions = []unitConversion{
	{"kilogram", "gram", 1000},
	{"liter", "milliliter", 1000},
	{"gallon", "liter", 3.78541},
	{"quart", "liter", 0.946353},
	{"pint", "milliliter", 473.176},
	{"cup", "milliliter", 240},
	{"fluid ounce", "milliliter", 29.5735},
	{"tablespoon", "milliliter", 15},
	{"teaspoon", "milliliter", 5},
	{"pound", "ounce", 16},
	{"pound", "gram", 453.592},
	{"ounce", "gram", 28.3495},
}

// fallbackUnitName 設定未指定預設單位時使用的名稱
const fallbackUnitName = "piece"

// UnitResolver 將自由文字單位解析為目錄中的單位識別碼
// 解析永遠會回傳一個可用的識別碼，不會因為單位無法分類而失敗
type UnitResolver struct {
	catalog *Catalog
	creator UnitCreator
	// 設定檔指定的預設單位名稱，解析鏈全部落空時的最後防線
	defaultUnit string
}

// NewUnitResolver 創建單位解析器
func NewUnitResolver(catalog *Catalog, creator UnitCreator, defaultUnit string) *UnitResolver {
	if strings.TrimSpace(defaultUnit) == "" {
		defaultUnit = fallbackUnitName
	}
	return &UnitResolver{
		catalog:     catalog,
		creator:     creator,
		defaultUnit: defaultUnit,
	}
}

// Resolve 解析單位文字，依序嘗試：
// 目錄直查、別名表、自動建立常見單位（衝突時重查一次）、預設單位
func (r *UnitResolver) Resolve(ctx context.Context, unitText string) int64 {
	normalized := normalizeKey(unitText)

	// 1. 目錄直查
	if id, ok := r.catalog.UnitIDByName(normalized); ok {
		return id
	}

	// 2. 別名表
	canonical := normalized
	if alias, ok := unitAliases[normalized]; ok {
		canonical = alias
		if id, ok := r.catalog.UnitIDByName(canonical); ok {
			return id
		}
	}

	// 3. 常見單位範本：嘗試建立
	if tpl, ok := commonUnits[canonical]; ok {
		if id, ok := r.createUnit(ctx, canonical, tpl.Name, tpl.Plural); ok {
			return id
		}
	}

	// 4. 預設單位，單一無法解析的單位不能連累同批次的其他項目
	return r.DefaultUnitID()
}

// DefaultUnitID 預設單位的識別碼
func (r *UnitResolver) DefaultUnitID() int64 {
	name := normalizeKey(r.defaultUnit)
	if alias, ok := unitAliases[name]; ok {
		if id, found := r.catalog.UnitIDByName(alias); found {
			return id
		}
	}
	if id, ok := r.catalog.UnitIDByName(name); ok {
		return id
	}
	if id, ok := r.catalog.UnitIDByName(fallbackUnitName); ok {
		return id
	}
	// 快照連預設單位都沒有時，退回快照中的第一個單位
	if len(r.catalog.Units) > 0 {
		return r.catalog.Units[0].ID
	}
	return 0
}

// createUnit 建立單位並納入快照；唯一性衝突時重查一次
func (r *UnitResolver) createUnit(ctx context.Context, canonical, name, plural string) (int64, bool) {
	id, err := r.creator.CreateQuantityUnit(ctx, name, plural, "")
	if err != nil {
		if !grocy.IsConflict(err) {
			common.LogWarn("建立單位失敗",
				zap.String("單位", canonical),
				zap.Error(err),
			)
			return 0, false
		}

		// 單位可能已被其他請求搶先建立，重查一次
		common.LogInfo("單位已存在，重新抓取單位清單",
			zap.String("單位", canonical),
		)
		if refreshErr := r.catalog.RefreshUnits(ctx, r.creator); refreshErr != nil {
			common.LogWarn("重查單位清單失敗",
				zap.String("單位", canonical),
				zap.Error(refreshErr),
			)
			return 0, false
		}
		if refetched, ok := r.catalog.UnitIDByName(canonical); ok {
			return refetched, true
		}
		return 0, false
	}

	r.catalog.AddUnit(grocy.QuantityUnit{
		ID:         id,
		Name:       name,
		NamePlural: plural,
	})
	common.LogInfo("已建立計量單位",
		zap.String("名稱", name),
		zap.Int64("識別碼", id),
	)

	// 順手補上與既有單位之間的直接換算
	r.createConversions(ctx, canonical, id)

	return id, true
}

// createConversions 為新單位建立靜態表中有列的直接換算
// 失敗只記錄不回報，換算是輔助資料，不影響解析結果
func (r *UnitResolver) createConversions(ctx context.Context, canonical string, newID int64) {
	for _, conv := range staticConversions {
		var fromID, toID int64
		switch canonical {
		case conv.From:
			otherID, ok := r.catalog.UnitIDByName(conv.To)
			if !ok {
				continue
			}
			fromID, toID = newID, otherID
		case conv.To:
			otherID, ok := r.catalog.UnitIDByName(conv.From)
			if !ok {
				continue
			}
			fromID, toID = otherID, newID
		default:
			continue
		}

		if err := r.creator.CreateQuantityUnitConversion(ctx, fromID, toID, conv.Factor); err != nil {
			common.LogWarn("建立單位換算失敗",
				zap.String("從", conv.From),
				zap.String("到", conv.To),
				zap.Error(err),
			)
		}
	}
}
