package store

import (
	"context"
	"database/sql"
	"fmt"

	"elzar-backend/internal/pkg/common"
)

// Recipe 一筆已保存的食譜
type Recipe struct {
	ID                      int64    `json:"id"`
	CreatedAt               string   `json:"created_at"`
	RecipeText              string   `json:"recipe_text"`
	Cuisine                 string   `json:"cuisine,omitempty"`
	TimeMinutes             int      `json:"time_minutes,omitempty"`
	EffortLevel             string   `json:"effort_level,omitempty"`
	DishPreference          string   `json:"dish_preference,omitempty"`
	CaloriesPerServing      int      `json:"calories_per_serving,omitempty"`
	UsedExternalIngredients bool     `json:"used_external_ingredients"`
	PrioritizeExpiring      bool     `json:"prioritize_expiring"`
	ActiveProfiles          []string `json:"active_profiles"`
	InventorySnapshot       string   `json:"inventory_snapshot,omitempty"`
	UserPrompt              string   `json:"user_prompt,omitempty"`
	LLMModel                string   `json:"llm_model,omitempty"`
}

// RecipeFilter 食譜歷史的查詢條件，零值欄位不參與過濾
type RecipeFilter struct {
	Cuisine     string
	MinTime     int
	MaxTime     int
	EffortLevel string
	MinCalories int
	MaxCalories int
	ProfileName string
	SearchText  string
	Limit       int
	Offset      int
}

// CreateRecipe 寫入一筆食譜並回傳識別碼
func (s *Store) CreateRecipe(ctx context.Context, r *Recipe) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	profiles, err := common.ToJSON(r.ActiveProfiles)
	if err != nil {
		return 0, fmt.Errorf("failed to encode active profiles: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO recipes (
			recipe_text, cuisine, time_minutes, effort_level,
			dish_preference, calories_per_serving, used_external_ingredients,
			prioritize_expiring, active_profiles, inventory_snapshot,
			user_prompt, llm_model
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RecipeText, r.Cuisine, r.TimeMinutes, r.EffortLevel,
		r.DishPreference, r.CaloriesPerServing, r.UsedExternalIngredients,
		r.PrioritizeExpiring, profiles, r.InventorySnapshot,
		r.UserPrompt, r.LLMModel,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert recipe: %w", err)
	}

	return result.LastInsertId()
}

// GetRecipe 以識別碼查詢食譜，查無時回傳 (nil, nil)
func (s *Store) GetRecipe(ctx context.Context, id int64) (*Recipe, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, recipe_text, cuisine, time_minutes, effort_level,
		       dish_preference, calories_per_serving, used_external_ingredients,
		       prioritize_expiring, active_profiles, inventory_snapshot,
		       user_prompt, llm_model
		FROM recipes WHERE id = ?`, id)

	recipe, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe %d: %w", id, err)
	}
	return recipe, nil
}

// ListRecipes 依條件查詢食譜歷史，由新到舊排序
func (s *Store) ListRecipes(ctx context.Context, filter RecipeFilter) ([]*Recipe, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, created_at, recipe_text, cuisine, time_minutes, effort_level,
		       dish_preference, calories_per_serving, used_external_ingredients,
		       prioritize_expiring, active_profiles, inventory_snapshot,
		       user_prompt, llm_model
		FROM recipes WHERE 1=1`
	var args []interface{}

	if filter.Cuisine != "" {
		query += " AND cuisine = ?"
		args = append(args, filter.Cuisine)
	}
	if filter.MinTime > 0 {
		query += " AND time_minutes >= ?"
		args = append(args, filter.MinTime)
	}
	if filter.MaxTime > 0 {
		query += " AND time_minutes <= ?"
		args = append(args, filter.MaxTime)
	}
	if filter.EffortLevel != "" {
		query += " AND effort_level = ?"
		args = append(args, filter.EffortLevel)
	}
	if filter.MinCalories > 0 {
		query += " AND calories_per_serving >= ?"
		args = append(args, filter.MinCalories)
	}
	if filter.MaxCalories > 0 {
		query += " AND calories_per_serving <= ?"
		args = append(args, filter.MaxCalories)
	}
	if filter.ProfileName != "" {
		query += " AND active_profiles LIKE ?"
		args = append(args, fmt.Sprintf("%%%q%%", filter.ProfileName))
	}
	if filter.SearchText != "" {
		query += " AND recipe_text LIKE ?"
		args = append(args, "%"+filter.SearchText+"%")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	recipes := []*Recipe{}
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe row: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	return recipes, rows.Err()
}

// DeleteRecipe 刪除食譜，回傳是否真的有刪到
func (s *Store) DeleteRecipe(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := s.db.ExecContext(ctx, "DELETE FROM recipes WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete recipe %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CleanupOldRecipes 只保留最近 maxCount 筆食譜
func (s *Store) CleanupOldRecipes(ctx context.Context, maxCount int) error {
	if maxCount <= 0 {
		return nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM recipes WHERE id NOT IN (
			SELECT id FROM recipes
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		)`, maxCount)
	if err != nil {
		return fmt.Errorf("failed to clean up old recipes: %w", err)
	}
	return nil
}

// scanner 兼容 *sql.Row 與 *sql.Rows 的掃描介面
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecipe(row scanner) (*Recipe, error) {
	var r Recipe
	var cuisine, effortLevel, dishPreference, profiles, snapshot, userPrompt, llmModel sql.NullString
	var timeMinutes, calories sql.NullInt64

	err := row.Scan(
		&r.ID, &r.CreatedAt, &r.RecipeText, &cuisine, &timeMinutes, &effortLevel,
		&dishPreference, &calories, &r.UsedExternalIngredients,
		&r.PrioritizeExpiring, &profiles, &snapshot,
		&userPrompt, &llmModel,
	)
	if err != nil {
		return nil, err
	}

	r.Cuisine = cuisine.String
	r.TimeMinutes = int(timeMinutes.Int64)
	r.EffortLevel = effortLevel.String
	r.DishPreference = dishPreference.String
	r.CaloriesPerServing = int(calories.Int64)
	r.InventorySnapshot = snapshot.String
	r.UserPrompt = userPrompt.String
	r.LLMModel = llmModel.String

	r.ActiveProfiles = []string{}
	if profiles.Valid && profiles.String != "" {
		if err := common.ParseJSON(profiles.String, &r.ActiveProfiles); err != nil {
			r.ActiveProfiles = []string{}
		}
	}

	return &r, nil
}
