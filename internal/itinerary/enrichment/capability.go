package enrichment

import (
	"context"
	"errors"
	"strings"

	"github.com/yungbote/itinerary-backend/internal/domain/itinerary"
)

// ErrLengthMismatch is returned when a capability answers a batch with the wrong number of
// records. The batch counts as failed.
var ErrLengthMismatch = errors.New("enrichment record count mismatch")

// Request is one entry sent to the enrichment capability.
type Request struct {
	Description string `json:"description"`
	Context     string `json:"context"`
}

// Capability fetches place data. It must return exactly one record per request, in order,
// or an error for the whole batch. A nil record means the place could not be identified.
type Capability interface {
	Enrich(ctx context.Context, reqs []Request) ([]*itinerary.Enrichment, error)
}

type CapabilityFunc func(ctx context.Context, reqs []Request) ([]*itinerary.Enrichment, error)

func (f CapabilityFunc) Enrich(ctx context.Context, reqs []Request) ([]*itinerary.Enrichment, error) {
	return f(ctx, reqs)
}

// NormalizeRecord fills the defaults every stored record carries. The result is never nil:
// an empty answer becomes the placeholder for req.
func NormalizeRecord(req Request, rec *itinerary.Enrichment) *itinerary.Enrichment {
	if rec == nil {
		return itinerary.Placeholder(req.Description)
	}
	out := rec.Clone()
	out.Name = strings.TrimSpace(out.Name)
	if out.Name == "" {
		out.Name = req.Description
	}
	if out.Waypoints == nil {
		out.Waypoints = []string{}
	}
	if !out.NeedsDetails {
		out.NeedsDetails = strings.TrimSpace(out.Address) == "" &&
			strings.TrimSpace(out.Description) == "" &&
			len(out.Waypoints) == 0
	}
	if out.NeedsDetails && strings.TrimSpace(out.Hook) == "" {
		out.Hook = "Add details..."
	}
	return out
}
