package outline

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/itinerary-backend/internal/domain/itinerary"
	pkgerrors "github.com/yungbote/itinerary-backend/internal/pkg/errors"
)

// Serializer renders a document back to the outline Parser reads.
type Serializer struct {
	Year int
}

func NewSerializer(year int) *Serializer {
	if year <= 0 {
		year = time.Now().Year()
	}
	return &Serializer{Year: year}
}

func (s *Serializer) Serialize(doc *itinerary.Document) string {
	if doc == nil {
		return ""
	}
	year := s.Year
	if year <= 0 {
		year = time.Now().Year()
	}

	var blocks []string
	if doc.Hotel != nil && strings.TrimSpace(doc.Hotel.PromptText) != "" {
		blocks = append(blocks, "# Hotel\n"+oneLine(doc.Hotel.PromptText))
	}
	if len(doc.Reservations) > 0 {
		lines := []string{"# Reservations"}
		for _, r := range doc.Reservations {
			lines = append(lines, "- "+oneLine(r.PromptText))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	for _, d := range doc.Days {
		header := "# " + FormatDate(d.Date, year) + " (" + itinerary.DayOfWeekLabel(d.Date) + ")"
		if title := oneLine(d.Title); title != "" {
			header += " - " + title
		}
		lines := []string{header}
		for _, it := range d.Items {
			lines = append(lines, "- "+FormatItemLine(it))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	if len(doc.Notes) > 0 {
		lines := []string{"# Notes"}
		for _, n := range doc.Notes {
			lines = append(lines, "- "+oneLine(n))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

// FormatItemLine renders one item without its list marker.
func FormatItemLine(it itinerary.Item) string {
	desc := oneLine(it.PromptText)
	label := strings.TrimSpace(it.Time)
	switch it.Status {
	case itinerary.StatusBackup:
		if label != "" {
			return label + " " + backupPrefix + desc
		}
		return backupPrefix + desc
	case itinerary.StatusOptional:
		if label != "" {
			return label + " " + optionalPrefix + desc
		}
		return optionalPrefix + desc
	default:
		if label != "" {
			return label + ": " + desc
		}
		return desc
	}
}

// CheckItemLine fails with ErrInvalidArgument when it would not read back from its outline
// line with the same prompt text, time and status. it must already be derived.
func CheckItemLine(it itinerary.Item) error {
	back, ok := ParseItemLine(FormatItemLine(it))
	if ok && back.PromptText == it.PromptText && back.Time == it.Time && back.Status == it.Status {
		return nil
	}
	return fmt.Errorf("%w: item %q cannot be written as an outline line unchanged; reword it or set the time and status as fields",
		pkgerrors.ErrInvalidArgument, it.PromptText)
}

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// oneLine keeps free text on a single outline line.
func oneLine(s string) string {
	return strings.TrimSpace(newlines.Replace(s))
}
