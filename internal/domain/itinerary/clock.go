package itinerary

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var utc = time.UTC

var clockRe = regexp.MustCompile(`^(\d{2}):(\d{2})$`)

// Clock is a wall-clock time of day in 24h form, rendered as "HH:MM".
type Clock struct {
	Hour   int
	Minute int
}

func NewClock(hour, minute int) *Clock {
	return &Clock{Hour: hour, Minute: minute}
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) Minutes() int { return c.Hour*60 + c.Minute }

func (c Clock) Valid() bool {
	return c.Hour >= 0 && c.Hour < 24 && c.Minute >= 0 && c.Minute < 60
}

func (c Clock) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid clock %d:%d", c.Hour, c.Minute)
	}
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	parts := clockRe.FindStringSubmatch(string(b))
	if parts == nil {
		return fmt.Errorf("parse clock %q: want HH:MM", string(b))
	}
	h, _ := strconv.Atoi(parts[1])
	m, _ := strconv.Atoi(parts[2])
	next := Clock{Hour: h, Minute: m}
	if !next.Valid() {
		return fmt.Errorf("parse clock %q: out of range", string(b))
	}
	*c = next
	return nil
}

func (c *Clock) clone() *Clock {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}

// ClockEqual reports whether a and b are both nil or hold the same time.
func ClockEqual(a, b *Clock) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
