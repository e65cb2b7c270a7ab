package enrichment

import "github.com/yungbote/itinerary-backend/internal/domain/itinerary"

// Lookup resolves a prompt text to a previously fetched record.
type Lookup interface {
	Get(promptText string) (*itinerary.Enrichment, bool)
}

// Index is the content-addressed map from exact prompt text to enrichment.
type Index map[string]*itinerary.Enrichment

func (ix Index) Get(promptText string) (*itinerary.Enrichment, bool) {
	rec, ok := ix[promptText]
	return rec, ok && rec != nil
}

// IndexOf records every non-nil enrichment in doc. Duplicate prompt texts resolve to the
// last one in outline order.
func IndexOf(doc *itinerary.Document) Index {
	ix := Index{}
	doc.Walk(func(e itinerary.Entry) {
		if rec := e.Enrichment(); rec != nil {
			ix[e.PromptText()] = rec
		}
	})
	return ix
}

// Fill sets every nil enrichment in doc that lookup knows about and returns how many slots
// it filled. Existing records are never replaced.
func Fill(doc *itinerary.Document, lookup Lookup) int {
	if lookup == nil {
		return 0
	}
	n := 0
	doc.Walk(func(e itinerary.Entry) {
		if e.Enrichment() != nil {
			return
		}
		if rec, ok := lookup.Get(e.PromptText()); ok {
			e.SetEnrichment(rec.Clone())
			n++
		}
	})
	return n
}

// Merge carries enrichment from previous into a copy of fresh by exact prompt text. Neither
// argument is modified.
func Merge(fresh, previous *itinerary.Document) *itinerary.Document {
	out := fresh.Clone()
	if previous == nil || out == nil {
		return out
	}
	Fill(out, IndexOf(previous))
	return out
}
