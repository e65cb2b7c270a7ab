package realtime

import (
	"context"

	"github.com/yungbote/itinerary-backend/internal/itinerary/enrichment"
)

// ChannelFor is the SSE channel carrying events for one trip.
func ChannelFor(tripKey string) string {
	return "itinerary:" + tripKey
}

// ItineraryNotifier turns committed changes and enrichment passes into SSE events.
type ItineraryNotifier struct {
	Emitter Emitter
	Channel string
}

func NewItineraryNotifier(emitter Emitter, tripKey string) *ItineraryNotifier {
	return &ItineraryNotifier{Emitter: emitter, Channel: ChannelFor(tripKey)}
}

func (n *ItineraryNotifier) ItineraryUpdated(ctx context.Context, version int) {
	n.Emitter.Emit(ctx, SSEMessage{
		Channel: n.Channel,
		Event:   SSEEventItineraryUpdated,
		Data:    map[string]any{"version": version},
	})
}

func (n *ItineraryNotifier) Enriched(ctx context.Context, report enrichment.Report) {
	n.Emitter.Emit(ctx, SSEMessage{
		Channel: n.Channel,
		Event:   SSEEventItineraryEnriched,
		Data: map[string]any{
			"enriched": report.Enriched,
			"failed":   report.Failed,
			"stale":    report.Stale,
		},
	})
}
