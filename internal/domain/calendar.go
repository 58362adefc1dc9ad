package domain

import (
	"crypto/rand"
	"time"
)

const tokenLength = 30

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// TemplateSet holds the three field templates applied during prettification.
type TemplateSet struct {
	Summary     string
	Location    string
	Description string
}

// DefaultTemplates returns the templates used for a freshly created calendar.
func DefaultTemplates() TemplateSet {
	return TemplateSet{
		Summary:  "{{LvaTypeShort}} {{LvaName}}",
		Location: "{{RoomBuildingAddress}}",
		Description: `<b>{{LvaName}}</b>
Typ: <b>{{LvaTypeShort}}</b> ({{LvaTypeLong}})
Details: <b><a href="{{TissCourseDetailLink}}">TISS</a></b>
Raum: <b>{{RoomName}}</b>, <a href="{{RoomTiss}}">TISS</a>, <a href="{{RoomTuwMap}}">TU-Wien Maps</a>
Full-Name: {{LvaId}} {{LvaTypeShort}} {{LvaName}}
<br>
Tiss Description:
{{TissCalDesc}}`,
	}
}

// EventEntry is the stored per-title configuration inside a calendar.
// Name is the natural key: at most one entry per distinct event title.
// IsLVA and the initial WillPrettify are derived once when the title is
// first observed and never recomputed afterwards.
type EventEntry struct {
	ID           int64
	CalendarID   int64
	Name         string
	WillPrettify bool
	WillRemove   bool
	IsLVA        bool

	// Per-entry overrides; nil falls back to the calendar defaults.
	SummaryTemplate     *string
	LocationTemplate    *string
	DescriptionTemplate *string
}

// EffectiveTemplates resolves the entry's templates against the calendar
// defaults, field by field.
func (e *EventEntry) EffectiveTemplates(defaults TemplateSet) TemplateSet {
	t := defaults
	if e.SummaryTemplate != nil {
		t.Summary = *e.SummaryTemplate
	}
	if e.LocationTemplate != nil {
		t.Location = *e.LocationTemplate
	}
	if e.DescriptionTemplate != nil {
		t.Description = *e.DescriptionTemplate
	}
	return t
}

// CalendarConfig is one user's stored calendar: the remote source URL plus
// per-title entries, published read-only under an unguessable token.
type CalendarConfig struct {
	ID               int64
	Token            string
	URL              string
	Name             string
	OwnerID          int64
	DefaultTemplates TemplateSet
	Entries          []EventEntry
	CreatedAt        time.Time
}

// Entry returns the entry with the given title, or nil.
func (c *CalendarConfig) Entry(name string) *EventEntry {
	for i := range c.Entries {
		if c.Entries[i].Name == name {
			return &c.Entries[i]
		}
	}
	return nil
}

// MergeTitles reconciles the stored entries against the titles currently
// present in the remote feed. Titles without an entry get a fresh one with
// flags derived via isCourse; existing entries are never touched, even when
// their title no longer appears in the feed. Merging twice with the same
// title set is a no-op the second time.
//
// Returns the newly added entries.
func (c *CalendarConfig) MergeTitles(titles []string, isCourse func(string) bool) []EventEntry {
	known := make(map[string]bool, len(c.Entries))
	for i := range c.Entries {
		known[c.Entries[i].Name] = true
	}

	var added []EventEntry
	for _, title := range titles {
		if known[title] {
			continue
		}
		known[title] = true
		isLVA := isCourse(title)
		entry := EventEntry{
			CalendarID:   c.ID,
			Name:         title,
			WillPrettify: isLVA,
			WillRemove:   false,
			IsLVA:        isLVA,
		}
		c.Entries = append(c.Entries, entry)
		added = append(added, entry)
	}
	return added
}

// NewToken generates an unguessable calendar token (30 alphanumeric chars).
func NewToken() (string, error) {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf), nil
}
