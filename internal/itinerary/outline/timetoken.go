package outline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yungbote/itinerary-backend/internal/domain/itinerary"
)

// TimeSpan is the canonical form of a time token. End is only set for ranges.
type TimeSpan struct {
	Start *itinerary.Clock
	End   *itinerary.Clock
	Type  itinerary.TimeType
}

var (
	singleTimeRe = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
	rangeTimeRe  = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s*[-–]\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
)

// vagueHours maps the fixed time-of-day vocabulary to the hour it stands for.
var vagueHours = map[string]int{
	"breakfast": 8,
	"morning":   9,
	"brunch":    10,
	"lunch":     12,
	"afternoon": 14,
	"evening":   18,
	"dinner":    19,
	"night":     22,
	"late":      23,
}

// ParseTimeToken converts a free-form time label into canonical clock times. Tokens it does
// not recognise yield an empty span of type none; that is never an error.
func ParseTimeToken(raw string) TimeSpan {
	tok := normalizeToken(raw)
	if tok == "" {
		return TimeSpan{Type: itinerary.TimeNone}
	}
	if h, ok := vagueHours[tok]; ok {
		return TimeSpan{Start: itinerary.NewClock(h, 0), Type: itinerary.TimeVague}
	}
	if m := singleTimeRe.FindStringSubmatch(tok); m != nil {
		// a bare number is not a time ("11: ..." reads as a list label)
		if m[2] == "" && m[3] == "" {
			return TimeSpan{Type: itinerary.TimeNone}
		}
		p, ok := newClockPart(m[1], m[2], m[3])
		if !ok {
			return TimeSpan{Type: itinerary.TimeNone}
		}
		c, ok := p.clock()
		if !ok {
			return TimeSpan{Type: itinerary.TimeNone}
		}
		return TimeSpan{Start: &c, Type: itinerary.TimeSpecific}
	}
	if m := rangeTimeRe.FindStringSubmatch(tok); m != nil {
		a, okA := newClockPart(m[1], m[2], m[3])
		b, okB := newClockPart(m[4], m[5], m[6])
		if !okA || !okB {
			return TimeSpan{Type: itinerary.TimeNone}
		}
		start, end, ok := resolveRange(a, b)
		if !ok {
			return TimeSpan{Type: itinerary.TimeNone}
		}
		return TimeSpan{Start: &start, End: &end, Type: itinerary.TimeRange}
	}
	return TimeSpan{Type: itinerary.TimeNone}
}

// ClassifyTimeToken reports how raw expresses a time.
func ClassifyTimeToken(raw string) itinerary.TimeType {
	return ParseTimeToken(raw).Type
}

// IsTimeToken reports whether raw is a recognised time label.
func IsTimeToken(raw string) bool {
	return ClassifyTimeToken(raw) != itinerary.TimeNone
}

func normalizeToken(raw string) string {
	tok := strings.ToLower(strings.TrimSpace(raw))
	tok = strings.ReplaceAll(tok, "a.m.", "am")
	tok = strings.ReplaceAll(tok, "p.m.", "pm")
	return tok
}

type clockPart struct {
	hour     int
	minute   int
	meridiem string
}

func newClockPart(hour, minute, meridiem string) (clockPart, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil {
		return clockPart{}, false
	}
	m := 0
	if minute != "" {
		if m, err = strconv.Atoi(minute); err != nil {
			return clockPart{}, false
		}
	}
	return clockPart{hour: h, minute: m, meridiem: meridiem}, true
}

// clock converts to 24h: 12am is 0, 12pm stays 12, h pm is h+12. Without a meridiem the
// hour is already 24h.
func (p clockPart) clock() (itinerary.Clock, bool) {
	if p.minute < 0 || p.minute > 59 {
		return itinerary.Clock{}, false
	}
	h := p.hour
	switch p.meridiem {
	case "":
		if h < 0 || h > 23 {
			return itinerary.Clock{}, false
		}
	case "am", "pm":
		if h < 1 || h > 12 {
			return itinerary.Clock{}, false
		}
		if h == 12 {
			h = 0
		}
		if p.meridiem == "pm" {
			h += 12
		}
	default:
		return itinerary.Clock{}, false
	}
	return itinerary.Clock{Hour: h, Minute: p.minute}, true
}

func flip(meridiem string) string {
	if meridiem == "am" {
		return "pm"
	}
	return "am"
}

// resolveRange lets the side without a meridiem borrow the other side's, switching to the
// opposite one when borrowing would put the start after the end ("11-1pm" is 11:00-13:00).
func resolveRange(a, b clockPart) (itinerary.Clock, itinerary.Clock, bool) {
	switch {
	case a.meridiem == "" && b.meridiem != "":
		a.meridiem = b.meridiem
		end, ok := b.clock()
		if !ok {
			return itinerary.Clock{}, itinerary.Clock{}, false
		}
		start, ok := a.clock()
		if !ok || start.Minutes() > end.Minutes() {
			a.meridiem = flip(a.meridiem)
			if start, ok = a.clock(); !ok {
				return itinerary.Clock{}, itinerary.Clock{}, false
			}
		}
		return start, end, true
	case a.meridiem != "" && b.meridiem == "":
		b.meridiem = a.meridiem
		start, ok := a.clock()
		if !ok {
			return itinerary.Clock{}, itinerary.Clock{}, false
		}
		end, ok := b.clock()
		if !ok || end.Minutes() < start.Minutes() {
			b.meridiem = flip(b.meridiem)
			if end, ok = b.clock(); !ok {
				return itinerary.Clock{}, itinerary.Clock{}, false
			}
		}
		return start, end, true
	default:
		start, okA := a.clock()
		end, okB := b.clock()
		return start, end, okA && okB
	}
}
