package recipe

import (
	"fmt"
	"strconv"
	"strings"
)

// ExtractMetadata 解析食譜尾端的 METADATA 區塊
// 格式錯誤或缺漏的欄位直接留空，由呼叫端以請求參數補回
func ExtractMetadata(recipeText string) Metadata {
	var meta Metadata

	idx := strings.LastIndex(recipeText, "METADATA:")
	if idx < 0 {
		return meta
	}

	for _, line := range strings.Split(recipeText[idx:], "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if value == "" || strings.HasPrefix(value, "[") {
			continue
		}

		switch key {
		case "Cuisine":
			meta.Cuisine = value
		case "Total Time":
			meta.TimeMinutes = parseLeadingInt(value)
		case "Effort":
			meta.EffortLevel = value
		case "Calories":
			meta.CaloriesPerServing = parseLeadingInt(value)
		}
	}

	return meta
}

// parseLeadingInt 取出字串開頭的整數，例如 "45 minutes" -> 45
func parseLeadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// FormatForDownload 把食譜整理成可下載的純文字檔
func FormatForDownload(recipeText string, meta Metadata, createdAt string, activeProfiles []string) string {
	var b strings.Builder

	b.WriteString("========================================\n")
	b.WriteString("  ELZAR RECIPE\n")
	b.WriteString("========================================\n\n")

	if createdAt != "" {
		fmt.Fprintf(&b, "Created: %s\n", createdAt)
	}
	if meta.Cuisine != "" {
		fmt.Fprintf(&b, "Cuisine: %s\n", meta.Cuisine)
	}
	if meta.TimeMinutes > 0 {
		fmt.Fprintf(&b, "Total Time: %d minutes\n", meta.TimeMinutes)
	}
	if meta.EffortLevel != "" {
		fmt.Fprintf(&b, "Effort: %s\n", meta.EffortLevel)
	}
	if meta.CaloriesPerServing > 0 {
		fmt.Fprintf(&b, "Calories per serving: %d\n", meta.CaloriesPerServing)
	}
	if len(activeProfiles) > 0 {
		fmt.Fprintf(&b, "Dietary profiles: %s\n", strings.Join(activeProfiles, ", "))
	}

	b.WriteString("\n----------------------------------------\n\n")
	b.WriteString(recipeText)
	b.WriteString("\n")

	return b.String()
}
