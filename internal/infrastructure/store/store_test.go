package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"elzar-backend/internal/infrastructure/config"
	"elzar-backend/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := common.InitLogger("error"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := &config.Config{
		Store: config.StoreConfig{
			DatabasePath: filepath.Join(t.TempDir(), "test.db"),
		},
	}
	st, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestRecipeCreateAndGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.CreateRecipe(ctx, &Recipe{
		RecipeText:         "Pasta Carbonara\n\nIngredients...",
		Cuisine:            "Italian",
		TimeMinutes:        30,
		EffortLevel:        "Medium",
		CaloriesPerServing: 650,
		PrioritizeExpiring: true,
		ActiveProfiles:     []string{"vegetarian"},
		InventorySnapshot:  `{"available_items":[]}`,
		LLMModel:           "test-model",
	})
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	recipe, err := st.GetRecipe(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, recipe)
	assert.Equal(t, "Italian", recipe.Cuisine)
	assert.Equal(t, 30, recipe.TimeMinutes)
	assert.True(t, recipe.PrioritizeExpiring)
	assert.Equal(t, []string{"vegetarian"}, recipe.ActiveProfiles)
	assert.NotEmpty(t, recipe.CreatedAt)
}

func TestGetRecipeMissing(t *testing.T) {
	st := newTestStore(t)

	recipe, err := st.GetRecipe(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, recipe)
}

func TestListRecipesFilters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, r := range []*Recipe{
		{RecipeText: "Pad Thai with shrimp", Cuisine: "Thai", TimeMinutes: 25, EffortLevel: "Easy", CaloriesPerServing: 500},
		{RecipeText: "Beef Bourguignon", Cuisine: "French", TimeMinutes: 180, EffortLevel: "Hard", CaloriesPerServing: 800},
		{RecipeText: "Green Curry", Cuisine: "Thai", TimeMinutes: 40, EffortLevel: "Medium", CaloriesPerServing: 600, ActiveProfiles: []string{"vegan"}},
	} {
		_, err := st.CreateRecipe(ctx, r)
		require.NoError(t, err)
	}

	thai, err := st.ListRecipes(ctx, RecipeFilter{Cuisine: "Thai"})
	require.NoError(t, err)
	assert.Len(t, thai, 2)

	quick, err := st.ListRecipes(ctx, RecipeFilter{MaxTime: 30})
	require.NoError(t, err)
	require.Len(t, quick, 1)
	assert.Equal(t, "Thai", quick[0].Cuisine)

	vegan, err := st.ListRecipes(ctx, RecipeFilter{ProfileName: "vegan"})
	require.NoError(t, err)
	require.Len(t, vegan, 1)
	assert.Contains(t, vegan[0].RecipeText, "Green Curry")

	search, err := st.ListRecipes(ctx, RecipeFilter{SearchText: "shrimp"})
	require.NoError(t, err)
	assert.Len(t, search, 1)

	calories, err := st.ListRecipes(ctx, RecipeFilter{MinCalories: 550, MaxCalories: 700})
	require.NoError(t, err)
	assert.Len(t, calories, 1)

	none, err := st.ListRecipes(ctx, RecipeFilter{Cuisine: "Martian"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListRecipesNewestFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first, err := st.CreateRecipe(ctx, &Recipe{RecipeText: "first"})
	require.NoError(t, err)
	second, err := st.CreateRecipe(ctx, &Recipe{RecipeText: "second"})
	require.NoError(t, err)

	recipes, err := st.ListRecipes(ctx, RecipeFilter{})
	require.NoError(t, err)
	require.Len(t, recipes, 2)
	assert.Equal(t, second, recipes[0].ID)
	assert.Equal(t, first, recipes[1].ID)
}

func TestListRecipesLimitOffset(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := st.CreateRecipe(ctx, &Recipe{RecipeText: "recipe"})
		require.NoError(t, err)
	}

	page, err := st.ListRecipes(ctx, RecipeFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestDeleteRecipe(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.CreateRecipe(ctx, &Recipe{RecipeText: "to delete"})
	require.NoError(t, err)

	deleted, err := st.DeleteRecipe(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = st.DeleteRecipe(ctx, id)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCleanupOldRecipesKeepsNewest(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		id, err := st.CreateRecipe(ctx, &Recipe{RecipeText: "recipe"})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	require.NoError(t, st.CleanupOldRecipes(ctx, 2))

	recipes, err := st.ListRecipes(ctx, RecipeFilter{})
	require.NoError(t, err)
	require.Len(t, recipes, 2)
	assert.Equal(t, ids[4], recipes[0].ID)
	assert.Equal(t, ids[3], recipes[1].ID)
}

func TestProfileCRUD(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.CreateProfile(ctx, "Alex", "no peanuts, vegetarian")
	require.NoError(t, err)

	// 名稱唯一
	_, err = st.CreateProfile(ctx, "Alex", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	profile, err := st.GetProfile(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Alex", profile.Name)

	updated, err := st.UpdateProfile(ctx, id, "", "gluten free")
	require.NoError(t, err)
	assert.True(t, updated)

	profile, err = st.GetProfile(ctx, id)
	require.NoError(t, err)
	// 空名稱維持原值
	assert.Equal(t, "Alex", profile.Name)
	assert.Equal(t, "gluten free", profile.DietaryRestrictions)

	all, err := st.GetAllProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	deleted, err := st.DeleteProfile(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	missing, err := st.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSettings(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	value, err := st.GetSetting(ctx, "theme")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, st.SetSetting(ctx, "theme", "dark"))
	require.NoError(t, st.SetSetting(ctx, "theme", "light"))

	value, err = st.GetSetting(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", value)

	require.NoError(t, st.SetSetting(ctx, "unit_preference", "imperial"))

	all, err := st.GetAllSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"theme":           "light",
		"unit_preference": "imperial",
	}, all)

	require.NoError(t, st.DeleteSetting(ctx, "theme"))
	value, err = st.GetSetting(ctx, "theme")
	require.NoError(t, err)
	assert.Empty(t, value)
}
