package outline

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/yungbote/itinerary-backend/internal/domain/itinerary"
)

const (
	backupPrefix      = "fallback: "
	optionalPrefix    = "optional: "
	optionalWordStart = "optional "
	optionalSuffix    = "(optional)"
)

type section int

const (
	sectionNone section = iota
	sectionHotel
	sectionReservations
	sectionNotes
	sectionDay
)

// dayHeaderRe matches "# Jan 14 (Wed) - Title" and "# 2027-01-02". The weekday is ignored
// in favour of the one derived from the date.
var dayHeaderRe = regexp.MustCompile(`^#\s+([A-Za-z]+\.?\s+\d{1,2}|\d{4}-\d{2}-\d{2})(?:\s*\(([A-Za-z]+)\))?(?:\s+-\s+(.*))?$`)

// Parser reads the plain-text outline. Year is applied to "Jan 14" style headers.
type Parser struct {
	Year int
}

func NewParser(year int) *Parser {
	if year <= 0 {
		year = time.Now().Year()
	}
	return &Parser{Year: year}
}

// Parse scans text top to bottom. The only error is an *InvalidDateError for a day header
// whose date does not exist; everything else falls back to a sensible default.
func (p *Parser) Parse(text string) (*itinerary.Document, error) {
	year := p.Year
	if year <= 0 {
		year = time.Now().Year()
	}
	doc := itinerary.NewDocument()
	state := sectionNone
	var day *itinerary.Day

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for n, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			switch {
			case headerIs(trimmed, "hotel"):
				state, day = sectionHotel, nil
				continue
			case headerIs(trimmed, "reservations"):
				state, day = sectionReservations, nil
				continue
			case headerIs(trimmed, "notes"):
				state, day = sectionNotes, nil
				continue
			}
			if m := dayHeaderRe.FindStringSubmatch(trimmed); m != nil && isDateToken(m[1]) {
				date, err := ResolveDate(m[1], year)
				if err != nil {
					var de *InvalidDateError
					if errors.As(err, &de) {
						de.Line = n + 1
					}
					return nil, err
				}
				doc.Days = append(doc.Days, itinerary.NewDay(date, strings.TrimSpace(m[3])))
				day = &doc.Days[len(doc.Days)-1]
				state = sectionDay
				continue
			}
			// unknown headings are ignored and keep the current section
			continue
		}

		content, isList := listContent(trimmed)
		switch state {
		case sectionHotel:
			if !isList && doc.Hotel == nil {
				h := itinerary.NewStub(trimmed)
				doc.Hotel = &h
			}
		case sectionReservations:
			if isList {
				doc.Reservations = append(doc.Reservations, itinerary.NewStub(content))
			}
		case sectionNotes:
			if isList {
				doc.Notes = append(doc.Notes, content)
			}
		case sectionDay:
			if isList {
				if it, ok := ParseItemLine(content); ok {
					day.Items = append(day.Items, it)
				}
			}
		}
	}
	doc.Normalize()
	return doc, nil
}

func headerIs(line, name string) bool {
	rest := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "#")))
	return strings.HasPrefix(rest, name)
}

func listContent(line string) (string, bool) {
	if !strings.HasPrefix(line, "- ") {
		return "", false
	}
	content := strings.TrimSpace(line[2:])
	return content, content != ""
}

// ParseItemLine parses the text after a list marker into an item. It reports false when
// nothing describes the item.
func ParseItemLine(content string) (itinerary.Item, bool) {
	status := itinerary.StatusPrimary
	switch {
	case strings.HasPrefix(content, backupPrefix):
		status = itinerary.StatusBackup
		content = content[len(backupPrefix):]
	case strings.HasPrefix(content, optionalPrefix):
		status = itinerary.StatusOptional
		content = content[len(optionalPrefix):]
	case strings.HasPrefix(content, optionalWordStart) && !strings.HasPrefix(content[len(optionalWordStart):], ":"):
		status = itinerary.StatusOptional
		content = content[len(optionalWordStart):]
	}
	content = strings.TrimSpace(content)

	timeLabel, description := "", content
	if idx := strings.Index(content, ": "); idx > 0 {
		before := strings.ToLower(strings.TrimSpace(content[:idx]))
		label, marked := stripStatusMarker(before)
		if IsTimeLabel(label) {
			timeLabel = label
			description = strings.TrimSpace(content[idx+2:])
			if marked != "" && status == itinerary.StatusPrimary {
				status = marked
			}
		}
	}
	if description == "" {
		return itinerary.Item{}, false
	}

	it := itinerary.Item{
		PromptText: description,
		Time:       timeLabel,
		Status:     status,
	}
	Derive(&it)
	return it, true
}

// IsTimeLabel is IsTimeToken restricted to labels with no surrounding space.
func IsTimeLabel(label string) bool {
	return label != "" && strings.TrimSpace(label) == label && IsTimeToken(label)
}

// stripStatusMarker removes a trailing "(optional)", " optional" or " fallback" from the
// text before the colon and reports the status it implied.
func stripStatusMarker(before string) (string, itinerary.Status) {
	switch {
	case strings.HasSuffix(before, optionalSuffix):
		return strings.TrimSpace(strings.TrimSuffix(before, optionalSuffix)), itinerary.StatusOptional
	case strings.HasSuffix(before, " optional"):
		return strings.TrimSpace(strings.TrimSuffix(before, " optional")), itinerary.StatusOptional
	case strings.HasSuffix(before, " fallback"):
		return strings.TrimSpace(strings.TrimSuffix(before, " fallback")), itinerary.StatusBackup
	default:
		return before, ""
	}
}
