package recipe

// GenerationRequest 食譜生成參數
type GenerationRequest struct {
	Cuisine                string   `json:"cuisine,omitempty"`
	TimeMinutes            int      `json:"time_minutes,omitempty"`
	EffortLevel            string   `json:"effort_level,omitempty"`
	DishPreference         string   `json:"dish_preference,omitempty"`
	CaloriesPerServing     int      `json:"calories_per_serving,omitempty"`
	UseExternalIngredients bool     `json:"use_external_ingredients"`
	PrioritizeExpiring     bool     `json:"prioritize_expiring"`
	ActiveProfiles         []string `json:"active_profiles,omitempty"`
	UserPrompt             string   `json:"user_prompt,omitempty"`
}

// normalize 補上預設值
func (r *GenerationRequest) normalize() {
	if r.Cuisine == "" {
		r.Cuisine = "No Preference"
	}
	if r.TimeMinutes <= 0 {
		r.TimeMinutes = 60
	}
	if r.EffortLevel == "" {
		r.EffortLevel = "Medium"
	}
	if r.DishPreference == "" {
		r.DishPreference = "I don't care"
	}
}

// Metadata 從生成文字尾端的 METADATA 區塊抽出的結構化欄位
type Metadata struct {
	Cuisine            string
	TimeMinutes        int
	EffortLevel        string
	CaloriesPerServing int
}
