package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/itinerary-backend/internal/platform/logger"
	"github.com/yungbote/itinerary-backend/internal/realtime"
)

type RealtimeHandler struct {
	Log     *logger.Logger
	Hub     *realtime.SSEHub
	Channel string
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, tripKey string) *RealtimeHandler {
	return &RealtimeHandler{
		Log:     log.With("handler", "RealtimeHandler"),
		Hub:     hub,
		Channel: realtime.ChannelFor(tripKey),
	}
}

// Events streams itinerary events until the client goes away.
func (h *RealtimeHandler) Events(c *gin.Context) {
	client := h.Hub.NewSSEClient()
	h.Hub.AddChannel(client, h.Channel)
	h.Log.Debug("SSE stream open", "client_id", client.ID.String())

	h.Hub.ServeHTTP(c.Writer, c.Request, client)

	h.Hub.CloseClient(client)
	h.Log.Debug("SSE stream closed", "client_id", client.ID.String())
}
