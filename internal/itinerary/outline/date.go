package outline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	pkgerrors "github.com/yungbote/itinerary-backend/internal/pkg/errors"
)

// InvalidDateError is returned for a day header whose date token looks like a date but does
// not name a real calendar day.
type InvalidDateError struct {
	Line   int
	Token  string
	Reason string
}

func (e *InvalidDateError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: invalid date %q: %s", e.Line, e.Token, e.Reason)
	}
	return fmt.Sprintf("invalid date %q: %s", e.Token, e.Reason)
}

func (e *InvalidDateError) Unwrap() error { return pkgerrors.ErrInvalidArgument }

var (
	monthDayRe = regexp.MustCompile(`^([A-Za-z]+)\.?\s+(\d{1,2})$`)
	isoDateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// isDateToken reports whether a day header token names a month or is ISO shaped, so that
// headings like "Day 1" or "Top 5" are not taken for dates.
func isDateToken(token string) bool {
	tok := strings.TrimSpace(token)
	if isoDateRe.MatchString(tok) {
		return true
	}
	m := monthDayRe.FindStringSubmatch(tok)
	if m == nil {
		return false
	}
	_, ok := monthNames[strings.ToLower(m[1])]
	return ok
}

// ResolveDate turns "Jan 14", "January 14", "Jan. 14" (in defaultYear) or "2026-01-14"
// into a calendar date.
func ResolveDate(token string, defaultYear int) (civil.Date, error) {
	tok := strings.TrimSpace(token)
	if isoDateRe.MatchString(tok) {
		d, err := civil.ParseDate(tok)
		if err != nil || !d.IsValid() {
			return civil.Date{}, &InvalidDateError{Token: token, Reason: "not a calendar date"}
		}
		return d, nil
	}
	m := monthDayRe.FindStringSubmatch(tok)
	if m == nil {
		return civil.Date{}, &InvalidDateError{Token: token, Reason: "unrecognised format"}
	}
	month, ok := monthNames[strings.ToLower(m[1])]
	if !ok {
		return civil.Date{}, &InvalidDateError{Token: token, Reason: "unknown month"}
	}
	day, _ := strconv.Atoi(m[2])
	d := civil.Date{Year: defaultYear, Month: month, Day: day}
	if !d.IsValid() {
		return civil.Date{}, &InvalidDateError{Token: token, Reason: "day out of range"}
	}
	return d, nil
}

// FormatDate renders d the way day headers carry it: "Jan 14" inside the configured year,
// ISO otherwise so the year survives a round trip.
func FormatDate(d civil.Date, year int) string {
	if d.Year != year {
		return d.String()
	}
	return fmt.Sprintf("%s %d", d.Month.String()[:3], d.Day)
}
