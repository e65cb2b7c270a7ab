package itinerary

import (
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(m int, d int) civil.Date {
	return civil.Date{Year: 2026, Month: timeMonth(m), Day: d}
}

func TestNormalizeSortsAndMergesDays(t *testing.T) {
	doc := &Document{Days: []Day{
		{Date: date(1, 15), Items: []Item{{PromptText: "b"}}},
		{Date: date(1, 14), Title: "Arrive", Items: []Item{{PromptText: "a"}}},
		{Date: date(1, 15), Title: "Later", Items: []Item{{PromptText: "c"}}},
	}}
	doc.Normalize()

	require.Len(t, doc.Days, 2)
	assert.Equal(t, date(1, 14), doc.Days[0].Date)
	assert.Equal(t, "Wed", doc.Days[0].DayOfWeek)
	assert.Equal(t, "Later", doc.Days[1].Title)
	require.Len(t, doc.Days[1].Items, 2)
	assert.Equal(t, "b", doc.Days[1].Items[0].PromptText)
	assert.Equal(t, 1, doc.Days[1].Items[1].SortOrder)
	assert.NotNil(t, doc.Notes)
	assert.NotNil(t, doc.Reservations)
}

func TestEnsureDayInsertsInOrder(t *testing.T) {
	doc := NewDocument()
	doc.EnsureDay(date(1, 16))
	doc.EnsureDay(date(1, 14))
	i := doc.EnsureDay(date(1, 15))
	assert.Equal(t, 1, i)
	assert.Equal(t, 1, doc.EnsureDay(date(1, 15)))
	require.Len(t, doc.Days, 3)
	for i := 1; i < len(doc.Days); i++ {
		assert.True(t, doc.Days[i-1].Date.Before(doc.Days[i].Date))
	}
}

func TestCloneIsDeep(t *testing.T) {
	mins := 5
	doc := NewDocument()
	doc.Hotel = &Stub{PromptText: "Freehand", Enrichment: &Enrichment{Name: "Freehand"}}
	doc.Days = []Day{NewDay(date(1, 14), "")}
	doc.Days[0].Items = []Item{{
		PromptText: "Carbone",
		TimeStart:  NewClock(19, 0),
		Enrichment: &Enrichment{Name: "Carbone", WalkingMins: &mins, Waypoints: []string{"a"}},
	}}

	cp := doc.Clone()
	cp.Hotel.Enrichment.Name = "x"
	cp.Days[0].Items[0].TimeStart.Hour = 1
	*cp.Days[0].Items[0].Enrichment.WalkingMins = 99
	cp.Days[0].Items[0].Enrichment.Waypoints[0] = "z"
	cp.Days[0].Items[0].PromptText = "y"

	assert.Equal(t, "Freehand", doc.Hotel.Enrichment.Name)
	assert.Equal(t, 19, doc.Days[0].Items[0].TimeStart.Hour)
	assert.Equal(t, 5, *doc.Days[0].Items[0].Enrichment.WalkingMins)
	assert.Equal(t, "a", doc.Days[0].Items[0].Enrichment.Waypoints[0])
	assert.Equal(t, "Carbone", doc.Days[0].Items[0].PromptText)
}

func TestSetPromptTextDropsEnrichment(t *testing.T) {
	it := Item{PromptText: "Carbone"}
	it.SetEnrichment(&Enrichment{Name: "Carbone Restaurant"})
	assert.Equal(t, "Carbone Restaurant", it.DisplayText)

	it.SetPromptText("Carbone")
	assert.NotNil(t, it.Enrichment)

	it.SetPromptText("Carbone, Greenwich Village")
	assert.Nil(t, it.Enrichment)
	assert.Equal(t, "Carbone, Greenwich Village", it.DisplayText)
}

func TestPlaceholderKeepsPromptAsDisplay(t *testing.T) {
	it := Item{PromptText: "walk around"}
	it.SetEnrichment(Placeholder("walk around"))
	assert.NotNil(t, it.Enrichment)
	assert.Equal(t, "walk around", it.DisplayText)
}

func TestWalkAndResolve(t *testing.T) {
	doc := NewDocument()
	h := NewStub("Freehand")
	doc.Hotel = &h
	doc.Reservations = []Stub{NewStub("Carbone 7pm")}
	doc.Days = []Day{NewDay(date(1, 14), "")}
	doc.Days[0].Items = []Item{{PromptText: "MoMA"}, {PromptText: "Katz's"}}

	var refs []string
	doc.Walk(func(e Entry) { refs = append(refs, e.Ref.String()+"="+e.PromptText()) })
	assert.Equal(t, []string{
		"hotel=Freehand",
		"reservations[0]=Carbone 7pm",
		"days[0].items[0]=MoMA",
		"days[0].items[1]=Katz's",
	}, refs)

	e, ok := doc.Resolve(ItemRef(0, 1))
	require.True(t, ok)
	e.SetEnrichment(&Enrichment{Name: "Katz's Delicatessen"})
	assert.Equal(t, "Katz's Delicatessen", doc.Days[0].Items[1].DisplayText)

	_, ok = doc.Resolve(ItemRef(0, 2))
	assert.False(t, ok)
	_, ok = doc.Resolve(ReservationRef(1))
	assert.False(t, ok)
}

func TestDocumentJSON(t *testing.T) {
	doc := NewDocument()
	doc.Days = []Day{NewDay(date(1, 14), "Arrive")}
	doc.Days[0].Items = []Item{{PromptText: "Carbone", Time: "7pm", TimeStart: NewClock(19, 0), TimeType: TimeSpecific, Status: StatusPrimary}}

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"date":"2026-01-14"`)
	assert.Contains(t, string(raw), `"timeStart":"19:00"`)
	assert.Contains(t, string(raw), `"timeEnd":null`)
	assert.Contains(t, string(raw), `"enrichment":null`)

	var back Document
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, doc, &back)
}

func TestClockText(t *testing.T) {
	var c Clock
	require.NoError(t, c.UnmarshalText([]byte("07:30")))
	assert.Equal(t, Clock{Hour: 7, Minute: 30}, c)

	for _, bad := range []string{"7:30xyz", "7:30pm", "7:30", "07:30:00", "24:00", "12:60", ""} {
		assert.Error(t, c.UnmarshalText([]byte(bad)), bad)
	}
	assert.Equal(t, Clock{Hour: 7, Minute: 30}, c)

	var it Item
	require.Error(t, json.Unmarshal([]byte(`{"timeStart":"19:00 tonight"}`), &it))
}

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{"": StatusPrimary, "Fallback": StatusBackup, "backup": StatusBackup, "optional": StatusOptional}
	for in, want := range cases {
		got, err := ParseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseStatus("maybe")
	assert.Error(t, err)
}

func timeMonth(m int) time.Month { return time.Month(m) }
