package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhate/tisscal/internal/lva"
)

func ics(lines ...string) []byte {
	all := []string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//TU Wien//TISS//EN"}
	all = append(all, lines...)
	all = append(all, "END:VCALENDAR", "")
	return []byte(strings.Join(all, "\r\n"))
}

func event(summary, location string) []string {
	return []string{
		"BEGIN:VEVENT",
		"UID:orig-" + summary + "@tiss",
		"DTSTAMP:20221001T000000Z",
		"DTSTART:20221003T110000Z",
		"DTEND:20221003T130000Z",
		"SUMMARY:" + summary,
		"DESCRIPTION:orig description",
		"LOCATION:" + location,
		"CATEGORIES:COURSE",
		"END:VEVENT",
	}
}

func sampleFeed(t *testing.T) *Feed {
	t.Helper()
	var lines []string
	lines = append(lines, event("104.265 VO Algebra", "EI 7")...)
	lines = append(lines, event("Lunch", "Mensa")...)
	lines = append(lines, event("Lunch", "Mensa")...)
	fd, err := Parse(ics(lines...))
	require.NoError(t, err)
	return fd
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("definitely not a calendar"))
	require.Error(t, err)
}

func TestEvents(t *testing.T) {
	fd := sampleFeed(t)
	events := fd.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "104.265 VO Algebra", events[0].Summary())
	assert.Equal(t, "orig description", events[0].Description())
	assert.Equal(t, "EI 7", events[0].Location())
	assert.Equal(t, "COURSE", events[0].Category())
}

func TestTimes(t *testing.T) {
	fd := sampleFeed(t)
	start, end, err := fd.Events()[0].Times(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "03.10.2022 11:00", start.UTC().Format("02.01.2006 15:04"))
	assert.Equal(t, "03.10.2022 13:00", end.UTC().Format("02.01.2006 15:04"))
}

func TestDistinctTitles(t *testing.T) {
	fd := sampleFeed(t)
	assert.Equal(t, []string{"104.265 VO Algebra", "Lunch"}, fd.DistinctTitles())
}

func TestRemoveByTitle(t *testing.T) {
	fd := sampleFeed(t)

	fd.RemoveByTitle("Lunch")
	require.Len(t, fd.Events(), 1)
	assert.Equal(t, "104.265 VO Algebra", fd.Events()[0].Summary())

	// Removing an absent title is a no-op.
	fd.RemoveByTitle("Lunch")
	assert.Len(t, fd.Events(), 1)
}

func TestRecomputeIdentifiers_Stable(t *testing.T) {
	first := sampleFeed(t)
	second := sampleFeed(t)

	first.RecomputeIdentifiers()
	second.RecomputeIdentifiers()

	for i := range first.Events() {
		uid := first.Events()[i].UID()
		assert.Len(t, uid, 40) // sha1 hex
		assert.Equal(t, uid, second.Events()[i].UID())
	}

	// Recomputing again changes nothing.
	before := first.Events()[0].UID()
	first.RecomputeIdentifiers()
	assert.Equal(t, before, first.Events()[0].UID())
}

func TestRecomputeIdentifiers_LocationChangesOnlyThatEvent(t *testing.T) {
	plain := sampleFeed(t)
	modified := sampleFeed(t)

	ev := modified.Events()[0]
	ev.Rewrite("somewhere else", ev.Description(), "", ev.Summary())

	plain.RecomputeIdentifiers()
	modified.RecomputeIdentifiers()

	assert.NotEqual(t, plain.Events()[0].UID(), modified.Events()[0].UID())
	assert.Equal(t, plain.Events()[1].UID(), modified.Events()[1].UID())
	assert.Equal(t, plain.Events()[2].UID(), modified.Events()[2].UID())
}

func TestSerialize_UntouchedComponentsRoundTrip(t *testing.T) {
	var lines []string
	lines = append(lines,
		"BEGIN:VTIMEZONE",
		"TZID:Europe/Vienna",
		"BEGIN:STANDARD",
		"DTSTART:19701025T030000",
		"TZOFFSETFROM:+0200",
		"TZOFFSETTO:+0100",
		"END:STANDARD",
		"END:VTIMEZONE",
	)
	lines = append(lines, event("Lunch", "Mensa")...)
	fd, err := Parse(ics(lines...))
	require.NoError(t, err)

	out, err := fd.Serialize()
	require.NoError(t, err)

	assert.Contains(t, out, "BEGIN:VTIMEZONE\r\n")
	assert.Contains(t, out, "TZID:Europe/Vienna\r\n")
	assert.Contains(t, out, "TZOFFSETFROM:+0200\r\n")
	assert.Contains(t, out, "SUMMARY:Lunch\r\n")
}

func TestRewrite_SetsAltRep(t *testing.T) {
	fd := sampleFeed(t)
	ev := fd.Events()[0]

	ev.Rewrite("loc", "desc", "data:text/html,desc", "sum")

	out, err := fd.Serialize()
	require.NoError(t, err)
	assert.Contains(t, out, "SUMMARY:sum\r\n")
	assert.Contains(t, out, "LOCATION:loc\r\n")
	assert.Contains(t, out, "ALTREP=")
}

// Rewriting must produce identical location and description output no
// matter what the summary template does, since the summary is assigned
// only after the other two fields are final.
func TestRewrite_LocationAndDescriptionIndependentOfSummary(t *testing.T) {
	props := lva.Properties{
		LvaName:             "Algebra",
		LvaTypeShort:        "VO",
		RoomBuildingAddress: "Getreidemarkt 9",
		TissCalDesc:         "orig description",
	}
	locationTpl := "{{RoomBuildingAddress}}"
	descriptionTpl := "{{LvaName}}: {{TissCalDesc}}"

	run := func(summaryTpl string) (string, string) {
		fd := sampleFeed(t)
		ev := fd.Events()[0]
		desc := lva.Render(descriptionTpl, props)
		ev.Rewrite(
			lva.Render(locationTpl, props),
			desc,
			lva.DescriptionAltRep(desc),
			lva.Render(summaryTpl, props),
		)
		return ev.Location(), ev.Description()
	}

	noopLoc, noopDesc := run("{{LvaName}}")
	fullLoc, fullDesc := run("COMPLETELY DIFFERENT {{LvaTypeShort}}")

	assert.Equal(t, noopLoc, fullLoc)
	assert.Equal(t, noopDesc, fullDesc)
}
