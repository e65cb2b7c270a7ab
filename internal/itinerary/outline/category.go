package outline

import (
	"strings"

	"github.com/yungbote/itinerary-backend/internal/domain/itinerary"
)

var mealTimes = map[string]bool{"breakfast": true, "lunch": true, "dinner": true, "brunch": true}

// categoryKeywords is checked in order; the first rule with a matching keyword wins.
var categoryKeywords = []struct {
	category itinerary.Category
	words    []string
}{
	{itinerary.CategoryFood, []string{"coffee", "pizza", "restaurant", "delicatessen"}},
	{itinerary.CategoryEntertainment, []string{"hamilton", "theatre", "jazz", "vanguard", "show"}},
	{itinerary.CategoryCulture, []string{"museum", "memorial", "gallery"}},
	{itinerary.CategoryTransit, []string{"subway", "train", "taxi", "uber"}},
}

// InferCategory classifies an item from its time label and description.
func InferCategory(timeLabel, description string) itinerary.Category {
	if mealTimes[strings.ToLower(strings.TrimSpace(timeLabel))] {
		return itinerary.CategoryFood
	}
	desc := strings.ToLower(description)
	for _, rule := range categoryKeywords {
		for _, w := range rule.words {
			if strings.Contains(desc, w) {
				return rule.category
			}
		}
	}
	return itinerary.CategoryActivity
}
