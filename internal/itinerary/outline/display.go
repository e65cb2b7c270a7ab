package outline

import (
	"regexp"
	"strings"

	"github.com/yungbote/itinerary-backend/internal/domain/itinerary"
)

var (
	displayTimeRe = regexp.MustCompile(`^(\d{1,2})(:\d{2})?(am|pm)$`)

	vagueDisplay = map[string]string{
		"breakfast": "8 AM",
		"brunch":    "10 AM",
		"lunch":     "12 PM",
		"dinner":    "7 PM",
		"evening":   "6 PM",
		"afternoon": "2 PM",
		"morning":   "9 AM",
		"night":     "10 PM",
		"late":      "11 PM",
	}
)

// FormatTimeDisplay renders a time label for people: "7:30pm" becomes "7:30 PM", "dinner"
// becomes "7 PM". Anything else is returned as written.
func FormatTimeDisplay(label string) string {
	tok := strings.ToLower(strings.TrimSpace(label))
	if tok == "" {
		return ""
	}
	if v, ok := vagueDisplay[tok]; ok {
		return v
	}
	if m := displayTimeRe.FindStringSubmatch(tok); m != nil {
		return m[1] + m[2] + " " + strings.ToUpper(m[3])
	}
	return label
}

// Derive recomputes every field of it that follows from Time and PromptText. A Time that is
// not a recognised label is cleared, since the outline could not carry it.
func Derive(it *itinerary.Item) {
	it.Time = strings.ToLower(strings.TrimSpace(it.Time))
	span := ParseTimeToken(it.Time)
	if span.Type == itinerary.TimeNone {
		it.Time = ""
	}
	it.TimeStart = span.Start
	it.TimeEnd = span.End
	it.TimeType = span.Type
	it.TimeDisplay = FormatTimeDisplay(it.Time)
	it.Category = InferCategory(it.Time, it.PromptText)
	if it.Status == "" {
		it.Status = itinerary.StatusPrimary
	}
	it.SetEnrichment(it.Enrichment)
}
