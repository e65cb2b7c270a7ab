package itinerary

import "fmt"

type RefKind string

const (
	RefHotel       RefKind = "hotel"
	RefReservation RefKind = "reservation"
	RefItem        RefKind = "item"
)

// Ref addresses one enrichable entry of a Document. Day is only meaningful for items;
// Index is the reservation or item position.
type Ref struct {
	Kind  RefKind
	Day   int
	Index int
}

func HotelRef() Ref { return Ref{Kind: RefHotel} }

func ReservationRef(i int) Ref { return Ref{Kind: RefReservation, Index: i} }

func ItemRef(day, index int) Ref { return Ref{Kind: RefItem, Day: day, Index: index} }

func (r Ref) String() string {
	switch r.Kind {
	case RefHotel:
		return "hotel"
	case RefReservation:
		return fmt.Sprintf("reservations[%d]", r.Index)
	default:
		return fmt.Sprintf("days[%d].items[%d]", r.Day, r.Index)
	}
}

// Entry is a live view onto one hotel, reservation or item slot. Exactly one of Stub or
// Item is set.
type Entry struct {
	Ref  Ref
	Stub *Stub
	Item *Item
	// Day owns Item; nil for hotel and reservations.
	Day *Day
}

func (e Entry) PromptText() string {
	if e.Item != nil {
		return e.Item.PromptText
	}
	return e.Stub.PromptText
}

func (e Entry) Enrichment() *Enrichment {
	if e.Item != nil {
		return e.Item.Enrichment
	}
	return e.Stub.Enrichment
}

func (e Entry) SetEnrichment(rec *Enrichment) {
	if e.Item != nil {
		e.Item.SetEnrichment(rec)
		return
	}
	e.Stub.SetEnrichment(rec)
}

// Walk visits every entry in outline order: hotel, reservations, then each day's items.
// fn may set enrichment through the Entry but must not add or remove entries.
func (doc *Document) Walk(fn func(Entry)) {
	if doc == nil {
		return
	}
	if doc.Hotel != nil {
		fn(Entry{Ref: HotelRef(), Stub: doc.Hotel})
	}
	for i := range doc.Reservations {
		fn(Entry{Ref: ReservationRef(i), Stub: &doc.Reservations[i]})
	}
	for d := range doc.Days {
		day := &doc.Days[d]
		for i := range day.Items {
			fn(Entry{Ref: ItemRef(d, i), Item: &day.Items[i], Day: day})
		}
	}
}

// Resolve returns the entry at ref, or false when the path no longer exists.
func (doc *Document) Resolve(ref Ref) (Entry, bool) {
	if doc == nil {
		return Entry{}, false
	}
	switch ref.Kind {
	case RefHotel:
		if doc.Hotel == nil {
			return Entry{}, false
		}
		return Entry{Ref: ref, Stub: doc.Hotel}, true
	case RefReservation:
		if ref.Index < 0 || ref.Index >= len(doc.Reservations) {
			return Entry{}, false
		}
		return Entry{Ref: ref, Stub: &doc.Reservations[ref.Index]}, true
	case RefItem:
		if ref.Day < 0 || ref.Day >= len(doc.Days) {
			return Entry{}, false
		}
		day := &doc.Days[ref.Day]
		if ref.Index < 0 || ref.Index >= len(day.Items) {
			return Entry{}, false
		}
		return Entry{Ref: ref, Item: &day.Items[ref.Index], Day: day}, true
	default:
		return Entry{}, false
	}
}
