package recipe

import (
	"fmt"
	"strings"

	"elzar-backend/internal/core/grocy"
	"elzar-backend/internal/pkg/common"
)

// buildGenerationPrompt 組合食譜生成的 prompt
// 嵌入現有庫存、限制條件、飲食設定檔與即將過期的食材
func buildGenerationPrompt(inventory *grocy.InventorySummary, req GenerationRequest, profiles []common.DietaryProfile) string {
	parts := []string{
		"You are Elzar, an expert chef AI assistant! BAM! 🌶️",
		"",
		"Generate a delicious recipe based on the following information:",
		"",
		"AVAILABLE INGREDIENTS:",
	}

	if inventory != nil && len(inventory.AvailableItems) > 0 {
		for _, item := range inventory.AvailableItems {
			parts = append(parts, fmt.Sprintf("- %s: %g %s", item.Name, item.Amount, item.Unit))
		}
	} else {
		parts = append(parts, "- No inventory data available")
	}

	parts = append(parts,
		"",
		"CONSTRAINTS:",
		fmt.Sprintf("- Cuisine: %s", req.Cuisine),
		fmt.Sprintf("- Maximum cooking time: %d minutes", req.TimeMinutes),
		fmt.Sprintf("- Effort level: %s", req.EffortLevel),
		fmt.Sprintf("- Dish cleanup preference: %s", req.DishPreference),
	)

	if req.CaloriesPerServing > 0 {
		parts = append(parts, fmt.Sprintf("- Target calories per serving: approximately %d", req.CaloriesPerServing))
	}

	if req.UseExternalIngredients {
		parts = append(parts, "- You MAY use ingredients not in the available list if needed")
	} else {
		parts = append(parts, "- Try to ONLY use ingredients from the available list")
	}

	if len(profiles) > 0 {
		parts = append(parts, "", "DIETARY RESTRICTIONS:")
		for _, p := range profiles {
			parts = append(parts, fmt.Sprintf("- %s: %s", p.Name, p.DietaryRestrictions))
		}
	}

	if req.PrioritizeExpiring && inventory != nil && len(inventory.ExpiringSoon) > 0 {
		parts = append(parts, "", "INGREDIENTS EXPIRING SOON (please prioritize using these):")
		for _, item := range inventory.ExpiringSoon {
			parts = append(parts, fmt.Sprintf("- %s: %g (expires %s)", item.Name, item.Amount, item.ExpiryDate))
		}
	}

	if req.UserPrompt != "" {
		parts = append(parts, "", fmt.Sprintf("ADDITIONAL NOTES: %s", req.UserPrompt))
	}

	parts = append(parts,
		"",
		"Please generate a detailed recipe in markdown format including:",
		"- Recipe title",
		"- Prep time and cook time",
		"- Number of servings",
		"- Ingredients list with quantities",
		"- Step-by-step instructions",
		"- Estimated calories per serving (if possible)",
		"- Any relevant cooking tips",
		"",
		"At the end, include metadata in this exact format:",
		"---",
		"METADATA:",
		"Cuisine: [the cuisine type]",
		"Total Time: [number in minutes]",
		"Effort: [Low/Medium/High]",
		"Calories: [number per serving]",
		"---",
		"",
		"BAM! Let's make something delicious! 🌶️",
	)

	return strings.Join(parts, "\n")
}

// buildRegenerationPrompt 重新生成時在原 prompt 後附加變化指示
func buildRegenerationPrompt(base string) string {
	return base + "\n\n" +
		"NOTE: Please generate a DIFFERENT recipe than before. " +
		"Try a different approach or technique to create variety!"
}
