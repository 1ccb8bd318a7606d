package recipe

import (
	"context"
	"fmt"

	"elzar-backend/internal/core/ai/service"
)

const (
	formatTemperature = 0.3
	formatMaxTokens   = 2000
)

// FormatForStorage 去掉生成文字中的敘事語氣，整理成乾淨的結構化食譜
func (s *Service) FormatForStorage(ctx context.Context, recipeText string) (string, error) {
	prompt := fmt.Sprintf(`Reformat this recipe for clean storage in a recipe database. Remove ALL conversational language, narrator's voice, and personality. Provide ONLY the essential recipe information in a clean, structured format.

ORIGINAL RECIPE:
%s

REQUIRED FORMAT:
**Calories:** [number] | **Servings:** [number] | **Prep Time:** [time]
**Cuisine:** [cuisine type]

**Ingredients:**
- [ingredient 1]
- [ingredient 2]
...

**Instructions:**
1. [step 1]
2. [step 2]
...

RULES:
- NO conversational language or personality
- NO "BAM!", "Kick it up a notch", or similar phrases
- NO introductions or conclusions
- NO jokes or commentary
- ONLY factual recipe information
- Keep it professional and concise
- Preserve all measurements and quantities exactly
- Maintain clear structure with proper line breaks

Provide ONLY the reformatted recipe with NO additional text.`, recipeText)

	temp := formatTemperature
	resp, err := s.ai.ProcessRequest(ctx, prompt, service.Options{
		Temperature: &temp,
		MaxTokens:   formatMaxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
