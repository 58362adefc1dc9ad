// Package feed wraps a fetched iCalendar document and the operations the
// transformation pipeline performs on it.
package feed

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/tazhate/tisscal/internal/domain"
)

// Feed is a parsed calendar document. Components the pipeline does not
// explicitly touch (VTIMEZONE, X- components, unknown props) round-trip
// unchanged through Serialize.
type Feed struct {
	cal *ical.Calendar
}

// Parse decodes raw iCalendar bytes.
func Parse(data []byte) (*Feed, error) {
	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedFeed, err)
	}
	return &Feed{cal: cal}, nil
}

// Event is one VEVENT component of the feed.
type Event struct {
	comp *ical.Component
}

// Events returns all VEVENT components in insertion order.
func (f *Feed) Events() []Event {
	var events []Event
	for _, child := range f.cal.Children {
		if child.Name == ical.CompEvent {
			events = append(events, Event{comp: child})
		}
	}
	return events
}

// DistinctTitles returns the unique event titles, in first-seen order.
func (f *Feed) DistinctTitles() []string {
	seen := make(map[string]bool)
	var titles []string
	for _, ev := range f.Events() {
		title := ev.Summary()
		if seen[title] {
			continue
		}
		seen[title] = true
		titles = append(titles, title)
	}
	return titles
}

// RemoveByTitle drops every event whose title equals title exactly.
// Removing a title with no matching events is a no-op. Non-event
// components are never removed.
func (f *Feed) RemoveByTitle(title string) {
	kept := f.cal.Children[:0]
	for _, child := range f.cal.Children {
		if child.Name == ical.CompEvent && (Event{comp: child}).Summary() == title {
			continue
		}
		kept = append(kept, child)
	}
	f.cal.Children = kept
}

// RecomputeIdentifiers assigns every event a deterministic UID: the SHA-1
// hex digest over summary, description, start, end and location. Events
// with identical content keep their identifier across re-fetches, and any
// change to one of the five fields yields a new one, which is what calendar
// clients use to deduplicate entries.
func (f *Feed) RecomputeIdentifiers() {
	for _, ev := range f.Events() {
		start, end, _ := ev.Times(time.UTC)
		sum := sha1.Sum([]byte(ev.Summary() +
			ev.Description() +
			start.Format("02012006 1504") +
			end.Format("02012006 1504") +
			ev.Location()))
		ev.comp.Props.SetText(ical.PropUID, hex.EncodeToString(sum[:]))
	}
}

// Serialize encodes the document back to iCalendar text.
func (f *Feed) Serialize() (string, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(f.cal); err != nil {
		return "", fmt.Errorf("encode calendar: %w", err)
	}
	return buf.String(), nil
}

func (e Event) UID() string {
	return e.propText(ical.PropUID)
}

func (e Event) Summary() string {
	return e.propText(ical.PropSummary)
}

func (e Event) Description() string {
	return e.propText(ical.PropDescription)
}

func (e Event) Location() string {
	return e.propText(ical.PropLocation)
}

// Category returns the first CATEGORIES entry, or "".
func (e Event) Category() string {
	raw := e.propText(ical.PropCategories)
	if raw == "" {
		return ""
	}
	return strings.SplitN(raw, ",", 2)[0]
}

// Times returns the event's start and end. The property's own TZID wins;
// fallback is only used for values without timezone information.
func (e Event) Times(fallback *time.Location) (start, end time.Time, err error) {
	if p := e.comp.Props.Get(ical.PropDateTimeStart); p != nil {
		start, err = p.DateTime(fallback)
		if err != nil {
			return start, end, fmt.Errorf("parse DTSTART: %w", err)
		}
	}
	if p := e.comp.Props.Get(ical.PropDateTimeEnd); p != nil {
		end, err = p.DateTime(fallback)
		if err != nil {
			return start, end, fmt.Errorf("parse DTEND: %w", err)
		}
	}
	return start, end, nil
}

// Rewrite replaces the event's location, description and summary. Each
// assignment replaces the prior value entirely. The summary is assigned
// last; location and description must be finalized before the title that
// identifies the event changes.
func (e Event) Rewrite(location, description, descriptionAltRep, summary string) {
	e.comp.Props.SetText(ical.PropLocation, location)

	desc := ical.NewProp(ical.PropDescription)
	desc.SetText(description)
	if descriptionAltRep != "" {
		desc.Params.Set("ALTREP", descriptionAltRep)
	}
	e.comp.Props.Set(desc)

	e.comp.Props.SetText(ical.PropSummary, summary)
}

// propText returns the unescaped text value of a property, or "".
func (e Event) propText(name string) string {
	p := e.comp.Props.Get(name)
	if p == nil {
		return ""
	}
	if text, err := p.Text(); err == nil {
		return text
	}
	return p.Value
}
