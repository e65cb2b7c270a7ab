package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/yungbote/itinerary-backend/internal/domain/itinerary"
	"github.com/yungbote/itinerary-backend/internal/platform/gemini"
	"github.com/yungbote/itinerary-backend/internal/platform/logger"
)

// ErrNoJSONArray means the model answered without any JSON array in its text.
var ErrNoJSONArray = errors.New("no JSON array in response")

var jsonArrayRe = regexp.MustCompile(`\[[\s\S]*\]`)

type GeminiOptions struct {
	// Trip is a short label for the prompt, e.g. "NYC trip (Jan 14-18)".
	Trip        string
	Preferences string
	HotelName   string
	Location    *gemini.LatLng
	// Grounding is "maps" (default) or "search".
	Grounding string
	// Limiter is waited on before each call; nil means unthrottled.
	Limiter *rate.Limiter
}

// GeminiCapability asks Gemini, grounded on Google Maps, for one record per request.
type GeminiCapability struct {
	log    *logger.Logger
	client gemini.Client
	opts   GeminiOptions
}

func NewGeminiCapability(baseLog *logger.Logger, client gemini.Client, opts GeminiOptions) *GeminiCapability {
	if strings.TrimSpace(opts.Trip) == "" {
		opts.Trip = "trip"
	}
	return &GeminiCapability{
		log:    baseLog.With("component", "GeminiCapability"),
		client: client,
		opts:   opts,
	}
}

func (g *GeminiCapability) Enrich(ctx context.Context, reqs []Request) ([]*itinerary.Enrichment, error) {
	if len(reqs) == 0 {
		return []*itinerary.Enrichment{}, nil
	}
	if g.opts.Limiter != nil {
		if err := g.opts.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req := gemini.GenerateRequest{
		Contents: []gemini.Content{{Role: "user", Parts: []gemini.Part{{Text: BuildPrompt(g.opts, reqs)}}}},
	}
	if strings.EqualFold(g.opts.Grounding, "search") {
		req.Tools = []gemini.Tool{gemini.SearchTool()}
	} else {
		req.Tools = []gemini.Tool{gemini.MapsTool()}
		if g.opts.Location != nil {
			loc := *g.opts.Location
			req.ToolConfig = &gemini.ToolConfig{RetrievalConfig: &gemini.RetrievalConfig{LatLng: &loc}}
		}
	}

	resp, err := g.client.GenerateContent(ctx, req)
	if err != nil {
		return nil, err
	}
	recs, err := ParseRecords(resp.Text())
	if err != nil {
		return nil, err
	}
	if len(recs) != len(reqs) {
		return nil, fmt.Errorf("%w: got %d records for %d items", ErrLengthMismatch, len(recs), len(reqs))
	}
	g.log.Debug("Gemini enrichment batch answered", "items", len(reqs))
	return recs, nil
}

// BuildPrompt renders the enrichment prompt for reqs.
func BuildPrompt(opts GeminiOptions, reqs []Request) string {
	var items strings.Builder
	for i, r := range reqs {
		c := r.Context
		if c == "" {
			c = "activity"
		}
		fmt.Fprintf(&items, "%d. %q (%s)\n", i+1, r.Description, c)
	}

	hotel := strings.TrimSpace(opts.HotelName)
	if hotel == "" {
		hotel = "the hotel"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are enriching places for a %s.\n\n", opts.Trip)
	if p := strings.TrimSpace(opts.Preferences); p != "" {
		b.WriteString("TRAVELER PREFERENCES:\n")
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "HOTEL LOCATION: %s (use for walkingMins calculation)\n\n", hotel)
	b.WriteString("For each item below, return a JSON array with enrichment objects.\n\n")
	b.WriteString(`ENRICHMENT SCHEMA:
{
  "name": "Official place name",
  "hook": "Punchy 5-8 words, memorable, not generic",
  "tip": "Insider practical advice (what to order, when to go, what to avoid)",
  "vibe": "Quick atmosphere read, 10 words max",
  "description": "One sentence about the place",
  "hours": "Operating hours with helpful context",
  "price": "Contextual price info",
  "address": "Full street address",
  "neighborhood": "Short neighborhood name",
  "mapsUrl": "Google Maps URL for the place",
  "website": "Official website URL or null if none",
`)
	fmt.Fprintf(&b, "  \"walkingMins\": estimated minutes walking from %s (number or null)\n}\n\n", hotel)
	b.WriteString(`FOR WALKING ROUTES (multi-stop explorations), add:
{
  "isWalkingRoute": true,
  "waypoints": ["Stop 1 - brief description", "Stop 2 - brief description"],
  "distance": "1.2 miles",
  "duration": "45-60 min with stops",
  "routeUrl": "Google Maps directions URL with waypoints"
}

FOR NON-PLACES (like "Sleep in" or "Check-in"), return the original text as name, a brief
contextual hook, and null for every other field.

ITEMS TO ENRICH:
`)
	b.WriteString(items.String())
	fmt.Fprintf(&b, "\nReturn ONLY a valid JSON array with exactly %d objects. No markdown, no explanation.", len(reqs))
	return b.String()
}

// wireRecord accepts the loose shapes models produce: nulls anywhere and walkingMins as a
// number or a numeric string.
type wireRecord struct {
	Name           *string         `json:"name"`
	Hook           *string         `json:"hook"`
	Tip            *string         `json:"tip"`
	Vibe           *string         `json:"vibe"`
	Description    *string         `json:"description"`
	Hours          *string         `json:"hours"`
	Price          *string         `json:"price"`
	Address        *string         `json:"address"`
	Neighborhood   *string         `json:"neighborhood"`
	MapsURL        *string         `json:"mapsUrl"`
	Website        *string         `json:"website"`
	WalkingMins    json.RawMessage `json:"walkingMins"`
	IsWalkingRoute bool            `json:"isWalkingRoute"`
	Waypoints      []string        `json:"waypoints"`
	Distance       *string         `json:"distance"`
	Duration       *string         `json:"duration"`
	RouteURL       *string         `json:"routeUrl"`
}

// ParseRecords extracts the first JSON array from text. A null element stays nil.
func ParseRecords(text string) ([]*itinerary.Enrichment, error) {
	match := jsonArrayRe.FindString(text)
	if match == "" {
		return nil, ErrNoJSONArray
	}
	var raw []*wireRecord
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return nil, fmt.Errorf("decode enrichment array: %w", err)
	}
	out := make([]*itinerary.Enrichment, len(raw))
	for i, w := range raw {
		if w == nil {
			continue
		}
		out[i] = &itinerary.Enrichment{
			Name:           str(w.Name),
			Hook:           str(w.Hook),
			Tip:            str(w.Tip),
			Vibe:           str(w.Vibe),
			Description:    str(w.Description),
			Hours:          str(w.Hours),
			Price:          str(w.Price),
			Address:        str(w.Address),
			Neighborhood:   str(w.Neighborhood),
			MapsURL:        str(w.MapsURL),
			Website:        str(w.Website),
			WalkingMins:    walkingMins(w.WalkingMins),
			IsWalkingRoute: w.IsWalkingRoute,
			Waypoints:      w.Waypoints,
			Distance:       str(w.Distance),
			Duration:       str(w.Duration),
			RouteURL:       str(w.RouteURL),
		}
	}
	return out, nil
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func walkingMins(raw json.RawMessage) *int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return nil
	}
	v := int(f + 0.5)
	return &v
}
