package outline

import (
	"errors"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/itinerary-backend/internal/domain/itinerary"
	pkgerrors "github.com/yungbote/itinerary-backend/internal/pkg/errors"
)

func TestSerializeSample(t *testing.T) {
	doc, err := NewParser(2026).Parse(sampleOutline)
	require.NoError(t, err)
	assert.Equal(t, sampleOutline, NewSerializer(2026).Serialize(doc))
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		sampleOutline,
		"# Jan 14 (Wed)\n- 7pm (optional): Comedy Cellar\n- fallback: 7pm: Carbone\n- optional dinner: Lucali\n",
		"# 2027-01-02 (Sat) - Next year\n- morning: Run\n\n# Jan 3 - No weekday\n- 4pm-6:30pm: Gallery hop\n",
		"# Notes\n- only notes\n",
		"# Jan 14\n",
	}
	p := NewParser(2026)
	s := NewSerializer(2026)
	for _, in := range inputs {
		first, err := p.Parse(in)
		require.NoError(t, err)
		text := s.Serialize(first)
		second, err := p.Parse(text)
		require.NoError(t, err)
		assert.Equal(t, first, second, in)
		assert.True(t, strings.HasSuffix(text, "\n"))
		assert.False(t, strings.HasSuffix(text, "\n\n"))
		assert.Equal(t, text, s.Serialize(second))
	}
}

func TestRoundTripIgnoresEnrichment(t *testing.T) {
	p := NewParser(2026)
	doc, err := p.Parse(sampleOutline)
	require.NoError(t, err)
	doc.Days[0].Items[1].SetEnrichment(&itinerary.Enrichment{Name: "Katz's"})

	back, err := p.Parse(NewSerializer(2026).Serialize(doc))
	require.NoError(t, err)
	doc.Days[0].Items[1].SetEnrichment(nil)
	assert.Equal(t, doc, back)
}

func TestFormatItemLine(t *testing.T) {
	tests := []struct {
		item itinerary.Item
		want string
	}{
		{itinerary.Item{PromptText: "Carbone", Time: "7pm", Status: itinerary.StatusPrimary}, "7pm: Carbone"},
		{itinerary.Item{PromptText: "Carbone", Status: itinerary.StatusPrimary}, "Carbone"},
		{itinerary.Item{PromptText: "Carbone", Time: "7pm", Status: itinerary.StatusBackup}, "7pm fallback: Carbone"},
		{itinerary.Item{PromptText: "Carbone", Status: itinerary.StatusBackup}, "fallback: Carbone"},
		{itinerary.Item{PromptText: "Carbone", Time: "7pm", Status: itinerary.StatusOptional}, "7pm optional: Carbone"},
		{itinerary.Item{PromptText: "Carbone", Status: itinerary.StatusOptional}, "optional: Carbone"},
		{itinerary.Item{PromptText: "two\nlines", Status: itinerary.StatusPrimary}, "two lines"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatItemLine(tt.item))
	}
}

func TestCheckItemLine(t *testing.T) {
	tests := []struct {
		text   string
		time   string
		status itinerary.Status
		ok     bool
	}{
		{"Carbone", "7pm", itinerary.StatusPrimary, true},
		{"Katz's", "dinner", itinerary.StatusBackup, true},
		{"walk on the High Line", "", itinerary.StatusOptional, true},
		{"optional walk on the High Line", "", itinerary.StatusPrimary, false},
		{"Dinner: Katz's", "", itinerary.StatusPrimary, false},
		{"fallback: Joe's Pizza", "", itinerary.StatusPrimary, false},
		{"9pm: Village Vanguard", "", itinerary.StatusOptional, false},
		{"two\nlines", "", itinerary.StatusPrimary, false},
		{"Note: bring cash", "", itinerary.StatusPrimary, true},
	}
	for _, tt := range tests {
		it := itinerary.Item{PromptText: tt.text, Time: tt.time, Status: tt.status}
		Derive(&it)
		err := CheckItemLine(it)
		if tt.ok {
			assert.NoError(t, err, tt.text)
			continue
		}
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidArgument), tt.text)
	}
}

func TestSerializeEmptyAndOtherYear(t *testing.T) {
	s := NewSerializer(2026)
	assert.Equal(t, "", s.Serialize(itinerary.NewDocument()))

	doc := itinerary.NewDocument()
	doc.Days = []itinerary.Day{itinerary.NewDay(civil.Date{Year: 2027, Month: time.January, Day: 2}, "")}
	assert.Equal(t, "# 2027-01-02 (Sat)\n", s.Serialize(doc))
}
