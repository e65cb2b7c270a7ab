package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	domain "github.com/yungbote/itinerary-backend/internal/domain/itinerary"
	"github.com/yungbote/itinerary-backend/internal/http/response"
	"github.com/yungbote/itinerary-backend/internal/itinerary"
	pkgerrors "github.com/yungbote/itinerary-backend/internal/pkg/errors"
	"github.com/yungbote/itinerary-backend/internal/platform/logger"
)

// maxOutlineBytes bounds PUT bodies.
const maxOutlineBytes = 1 << 20

type ItineraryHandler struct {
	Log     *logger.Logger
	Service *itinerary.Service
}

func NewItineraryHandler(log *logger.Logger, svc *itinerary.Service) *ItineraryHandler {
	return &ItineraryHandler{Log: log.With("handler", "ItineraryHandler"), Service: svc}
}

type itineraryResponse struct {
	Version  int              `json:"version"`
	Document *domain.Document `json:"document"`
}

func toResponse(s itinerary.Saved) itineraryResponse {
	return itineraryResponse{Version: s.Version, Document: s.Document}
}

// GET /api/itinerary
func (h *ItineraryHandler) Get(c *gin.Context) {
	response.RespondOK(c, toResponse(h.Service.Get()))
}

// PUT /api/itinerary
func (h *ItineraryHandler) Replace(c *gin.Context) {
	var doc domain.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	saved, err := h.Service.ReplaceDocument(c.Request.Context(), &doc)
	if err != nil {
		response.RespondAPIError(c, err, "replace_itinerary_failed")
		return
	}
	response.RespondOK(c, toResponse(saved))
}

// GET /api/itinerary/outline
func (h *ItineraryHandler) GetOutline(c *gin.Context) {
	text, version := h.Service.Outline()
	c.Header("X-Itinerary-Version", strconv.Itoa(version))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

// PUT /api/itinerary/outline takes the outline as a text body or as {"outline": "..."}.
func (h *ItineraryHandler) ReplaceOutline(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxOutlineBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(raw) > maxOutlineBytes {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "too_large", fmt.Errorf("outline exceeds %d bytes", maxOutlineBytes))
		return
	}
	text := string(raw)
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var body struct {
			Outline *string `json:"outline"`
		}
		if err := json.Unmarshal(raw, &body); err != nil || body.Outline == nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("expected {\"outline\": \"...\"}"))
			return
		}
		text = *body.Outline
	}
	saved, err := h.Service.ReplaceOutline(c.Request.Context(), text)
	if err != nil {
		response.RespondAPIError(c, err, "replace_outline_failed")
		return
	}
	response.RespondOK(c, toResponse(saved))
}

// POST /api/itinerary/days/:date/items
func (h *ItineraryHandler) AddItem(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}
	var in itinerary.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	saved, err := h.Service.AddItem(c.Request.Context(), date, in)
	if err != nil {
		response.RespondAPIError(c, err, "add_item_failed")
		return
	}
	c.JSON(http.StatusCreated, toResponse(saved))
}

// PATCH /api/itinerary/days/:date/items/:index
func (h *ItineraryHandler) UpdateItem(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}
	var patch itinerary.ItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	saved, err := h.Service.UpdateItem(c.Request.Context(), date, index, patch)
	if err != nil {
		response.RespondAPIError(c, err, "update_item_failed")
		return
	}
	response.RespondOK(c, toResponse(saved))
}

// DELETE /api/itinerary/days/:date/items/:index
func (h *ItineraryHandler) RemoveItem(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}
	saved, err := h.Service.RemoveItem(c.Request.Context(), date, index)
	if err != nil {
		response.RespondAPIError(c, err, "remove_item_failed")
		return
	}
	response.RespondOK(c, toResponse(saved))
}

type pendingEntry struct {
	Ref        string `json:"ref"`
	PromptText string `json:"promptText"`
	Context    string `json:"context"`
}

// GET /api/itinerary/pending
func (h *ItineraryHandler) Pending(c *gin.Context) {
	pending := h.Service.PendingEnrichment()
	out := make([]pendingEntry, 0, len(pending))
	for _, p := range pending {
		out = append(out, pendingEntry{Ref: p.Ref.String(), PromptText: p.PromptText, Context: p.Request.Context})
	}
	response.RespondOK(c, gin.H{"count": len(out), "pending": out})
}

// POST /api/itinerary/enrich
func (h *ItineraryHandler) Enrich(c *gin.Context) {
	n, err := h.Service.EnrichNow()
	if err != nil {
		response.RespondAPIError(c, err, "enrich_failed")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"pending": n})
}

func dateParam(c *gin.Context) (civil.Date, bool) {
	raw := c.Param("date")
	d, err := civil.ParseDate(raw)
	if err != nil || !d.IsValid() {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("%w: date %q must be YYYY-MM-DD", pkgerrors.ErrInvalidArgument, raw))
		return civil.Date{}, false
	}
	return d, true
}

func indexParam(c *gin.Context) (int, bool) {
	raw := c.Param("index")
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("%w: index %q must be a non-negative integer", pkgerrors.ErrInvalidArgument, raw))
		return 0, false
	}
	return i, true
}
