package categorize

import "strings"

// tertiaryFallback is the static (primary, secondary) -> tertiary
// backfill table, covering the category combinations
// seen most often in practice. Anything not listed falls back to the
// secondary value itself, which is always a safe non-empty choice.
var tertiaryFallback = map[string]map[string]string{
	"fitness": {
		"workout":   "home_workout",
		"nutrition": "meal_prep",
		"general":   "general_fitness",
	},
	"beauty": {
		"makeup":    "makeup_tutorial",
		"skincare":  "skincare_routine",
		"general":   "general_beauty",
	},
	"comedy": {
		"skit":    "sketch_comedy",
		"general": "general_humor",
	},
	"food": {
		"recipe":  "recipe_demo",
		"review":  "restaurant_review",
		"general": "general_food",
	},
	"fashion": {
		"outfit":  "outfit_of_the_day",
		"general": "general_fashion",
	},
}

// backfillTertiary derives a tertiary category when the model omits one.
func backfillTertiary(primary, secondary string) string {
	p := strings.ToLower(strings.TrimSpace(primary))
	s := strings.ToLower(strings.TrimSpace(secondary))

	if byPrimary, ok := tertiaryFallback[p]; ok {
		if t, ok := byPrimary[s]; ok {
			return t
		}
		if t, ok := byPrimary["general"]; ok {
			return t
		}
	}
	if s != "" {
		return s
	}
	return "General"
}
