package itinerary

import (
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
)

type Status string

const (
	StatusPrimary  Status = "primary"
	StatusBackup   Status = "backup"
	StatusOptional Status = "optional"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPrimary, StatusBackup, StatusOptional:
		return true
	default:
		return false
	}
}

// ParseStatus accepts the canonical names plus the outline words ("fallback") and
// defaults an empty value to primary.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "primary":
		return StatusPrimary, nil
	case "backup", "fallback":
		return StatusBackup, nil
	case "optional":
		return StatusOptional, nil
	default:
		return "", fmt.Errorf("unknown status %q", raw)
	}
}

type Category string

const (
	CategoryFood          Category = "food"
	CategoryCulture       Category = "culture"
	CategoryEntertainment Category = "entertainment"
	CategoryTransit       Category = "transit"
	CategoryActivity      Category = "activity"
)

type TimeType string

const (
	TimeSpecific TimeType = "specific"
	TimeRange    TimeType = "range"
	TimeVague    TimeType = "vague"
	TimeNone     TimeType = "none"
)

// Document is the structured form of one trip: hotel, reservations, days and notes.
type Document struct {
	Hotel        *Stub    `json:"hotel"`
	Reservations []Stub   `json:"reservations"`
	Days         []Day    `json:"days"`
	Notes        []string `json:"notes"`
}

// Stub is the shape shared by the hotel and reservations.
type Stub struct {
	PromptText  string      `json:"promptText"`
	DisplayText string      `json:"displayText"`
	Enrichment  *Enrichment `json:"enrichment"`
}

type Day struct {
	Date      civil.Date `json:"date"`
	DayOfWeek string     `json:"dayOfWeek"`
	Title     string     `json:"title"`
	Items     []Item     `json:"items"`
}

type Item struct {
	PromptText  string      `json:"promptText"`
	DisplayText string      `json:"displayText"`
	Time        string      `json:"time,omitempty"`
	TimeDisplay string      `json:"timeDisplay,omitempty"`
	TimeStart   *Clock      `json:"timeStart"`
	TimeEnd     *Clock      `json:"timeEnd"`
	TimeType    TimeType    `json:"timeType"`
	Category    Category    `json:"category"`
	Status      Status      `json:"status"`
	SortOrder   int         `json:"sortOrder"`
	Enrichment  *Enrichment `json:"enrichment"`
}

// Enrichment is place data fetched for one entry. A record with NeedsDetails set is the
// placeholder stored when no specific place could be identified.
type Enrichment struct {
	Name           string   `json:"name"`
	Hook           string   `json:"hook"`
	Tip            string   `json:"tip"`
	Vibe           string   `json:"vibe,omitempty"`
	Description    string   `json:"description,omitempty"`
	Hours          string   `json:"hours"`
	Price          string   `json:"price"`
	Address        string   `json:"address"`
	Neighborhood   string   `json:"neighborhood"`
	MapsURL        string   `json:"mapsUrl"`
	Website        string   `json:"website"`
	WalkingMins    *int     `json:"walkingMins,omitempty"`
	IsWalkingRoute bool     `json:"isWalkingRoute"`
	Waypoints      []string `json:"waypoints"`
	Distance       string   `json:"distance"`
	Duration       string   `json:"duration"`
	RouteURL       string   `json:"routeUrl"`
	NeedsDetails   bool     `json:"needsDetails"`
}

// Placeholder is the record stored for an entry the enrichment service could not place.
func Placeholder(promptText string) *Enrichment {
	return &Enrichment{
		Name:         promptText,
		Hook:         "Add details...",
		Waypoints:    []string{},
		NeedsDetails: true,
	}
}

func (e *Enrichment) Clone() *Enrichment {
	if e == nil {
		return nil
	}
	out := *e
	if e.WalkingMins != nil {
		v := *e.WalkingMins
		out.WalkingMins = &v
	}
	if e.Waypoints != nil {
		out.Waypoints = append([]string(nil), e.Waypoints...)
	}
	return &out
}

// displayFor picks the human-facing label for promptText under e.
func displayFor(promptText string, e *Enrichment) string {
	if e != nil && !e.NeedsDetails && strings.TrimSpace(e.Name) != "" {
		return strings.TrimSpace(e.Name)
	}
	return promptText
}

func NewStub(promptText string) Stub {
	return Stub{PromptText: promptText, DisplayText: promptText}
}

func (s *Stub) SetEnrichment(e *Enrichment) {
	s.Enrichment = e
	s.DisplayText = displayFor(s.PromptText, e)
}

func (it *Item) SetEnrichment(e *Enrichment) {
	it.Enrichment = e
	it.DisplayText = displayFor(it.PromptText, e)
}

// SetPromptText changes the identity of the item. Prior enrichment belongs to the old
// text, so it is dropped whenever the text actually changes.
func (it *Item) SetPromptText(text string) {
	if text == it.PromptText {
		return
	}
	it.PromptText = text
	it.SetEnrichment(nil)
}

// DayOfWeekLabel is the short weekday label stored alongside a date ("Wed").
func DayOfWeekLabel(d civil.Date) string {
	return d.In(utc).Weekday().String()[:3]
}

func NewDay(date civil.Date, title string) Day {
	return Day{Date: date, DayOfWeek: DayOfWeekLabel(date), Title: title, Items: []Item{}}
}

// Renumber rewrites SortOrder to match slice position.
func (d *Day) Renumber() {
	for i := range d.Items {
		d.Items[i].SortOrder = i
	}
}

func NewDocument() *Document {
	return &Document{Reservations: []Stub{}, Days: []Day{}, Notes: []string{}}
}

// DayIndex finds the day for date.
func (doc *Document) DayIndex(date civil.Date) (int, bool) {
	i := sort.Search(len(doc.Days), func(i int) bool { return !doc.Days[i].Date.Before(date) })
	if i < len(doc.Days) && doc.Days[i].Date == date {
		return i, true
	}
	return i, false
}

// EnsureDay returns the index of the day for date, inserting an empty day in date order
// when there is none.
func (doc *Document) EnsureDay(date civil.Date) int {
	i, ok := doc.DayIndex(date)
	if ok {
		return i
	}
	doc.Days = append(doc.Days, Day{})
	copy(doc.Days[i+1:], doc.Days[i:])
	doc.Days[i] = NewDay(date, "")
	return i
}

// Normalize restores the structural invariants: days ascending with unique dates (items of
// duplicate dates are concatenated), derived weekday labels, sort orders and non-nil slices.
func (doc *Document) Normalize() {
	if doc.Reservations == nil {
		doc.Reservations = []Stub{}
	}
	if doc.Notes == nil {
		doc.Notes = []string{}
	}
	sort.SliceStable(doc.Days, func(i, j int) bool { return doc.Days[i].Date.Before(doc.Days[j].Date) })
	merged := make([]Day, 0, len(doc.Days))
	for _, d := range doc.Days {
		if n := len(merged); n > 0 && merged[n-1].Date == d.Date {
			last := &merged[n-1]
			if last.Title == "" {
				last.Title = d.Title
			}
			last.Items = append(last.Items, d.Items...)
			continue
		}
		merged = append(merged, d)
	}
	for i := range merged {
		merged[i].DayOfWeek = DayOfWeekLabel(merged[i].Date)
		if merged[i].Items == nil {
			merged[i].Items = []Item{}
		}
		merged[i].Renumber()
	}
	doc.Days = merged
}

// Clone returns a deep copy; mutations on the copy never reach doc.
func (doc *Document) Clone() *Document {
	if doc == nil {
		return nil
	}
	out := &Document{
		Reservations: make([]Stub, len(doc.Reservations)),
		Days:         make([]Day, len(doc.Days)),
		Notes:        append([]string{}, doc.Notes...),
	}
	if doc.Hotel != nil {
		h := *doc.Hotel
		h.Enrichment = doc.Hotel.Enrichment.Clone()
		out.Hotel = &h
	}
	for i, r := range doc.Reservations {
		r.Enrichment = r.Enrichment.Clone()
		out.Reservations[i] = r
	}
	for i, d := range doc.Days {
		items := make([]Item, len(d.Items))
		for j, it := range d.Items {
			it.TimeStart = it.TimeStart.clone()
			it.TimeEnd = it.TimeEnd.clone()
			it.Enrichment = it.Enrichment.Clone()
			items[j] = it
		}
		d.Items = items
		out.Days[i] = d
	}
	return out
}
