package enrichment

import (
	"fmt"
	"strings"

	"github.com/yungbote/itinerary-backend/internal/domain/itinerary"
)

// Pending is an entry still waiting for enrichment, with the path used to write the result
// back.
type Pending struct {
	Ref        itinerary.Ref
	PromptText string
	Request    Request
}

// CollectPending lists every hotel, reservation and item whose enrichment is nil, in
// outline order.
func CollectPending(doc *itinerary.Document) []Pending {
	var out []Pending
	doc.Walk(func(e itinerary.Entry) {
		if e.Enrichment() != nil || strings.TrimSpace(e.PromptText()) == "" {
			return
		}
		out = append(out, Pending{
			Ref:        e.Ref,
			PromptText: e.PromptText(),
			Request:    Request{Description: e.PromptText(), Context: contextFor(e)},
		})
	})
	return out
}

func contextFor(e itinerary.Entry) string {
	switch e.Ref.Kind {
	case itinerary.RefHotel:
		return "hotel"
	case itinerary.RefReservation:
		return "reservation"
	}
	label := fmt.Sprintf("%s %d", e.Day.Date.Month.String()[:3], e.Day.Date.Day)
	if t := strings.TrimSpace(e.Day.Title); t != "" {
		label += " " + t
	}
	if e.Item.Time != "" {
		label += ", " + e.Item.Time
	}
	return fmt.Sprintf("%s (%s)", label, e.Item.Category)
}

func chunk(items []Pending, size int) [][]Pending {
	if size <= 0 {
		size = len(items)
	}
	var out [][]Pending
	for len(items) > 0 {
		n := size
		if n > len(items) {
			n = len(items)
		}
		out = append(out, items[:n:n])
		items = items[n:]
	}
	return out
}
