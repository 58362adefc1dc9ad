package rooms

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTable = `EI 7 Hörsaal;a;b;c;d;e;Gußhausstraße 25-29, Stiege 1;gusshaus;https://tiss.tuwien.ac.at/events/roomSchedule.xhtml?roomCode=EI7
Audi. Max.;a;b;c;d;e;Getreidemarkt 9;getreidemarkt;https://tiss.tuwien.ac.at/events/roomSchedule.xhtml?roomCode=AudiMax
;a;b;c;d;e;nameless;x;y
short row;too short
`

func load(t *testing.T) *Directory {
	t.Helper()
	dir, err := LoadReader(strings.NewReader(sampleTable))
	require.NoError(t, err)
	return dir
}

func TestLoadReader(t *testing.T) {
	dir := load(t)
	// Nameless and short rows are skipped.
	assert.Equal(t, 2, dir.Len())
}

func TestLookup(t *testing.T) {
	dir := load(t)

	room, ok := dir.Lookup("EI 7 Hörsaal")
	require.True(t, ok)
	assert.Equal(t, "EI 7 Hörsaal", room.Name)
	assert.Equal(t, "https://tiss.tuwien.ac.at/events/roomSchedule.xhtml?roomCode=EI7", room.DetailLink)
	assert.Equal(t, "https://tuw-maps.tuwien.ac.at/?q=gusshaus#map", room.MapLink)
	// Only the part before the first comma.
	assert.Equal(t, "Gußhausstraße 25-29", room.BuildingAddress)
}

func TestLookup_AddressWithoutComma(t *testing.T) {
	dir := load(t)

	room, ok := dir.Lookup("Audi. Max.")
	require.True(t, ok)
	assert.Equal(t, "Getreidemarkt 9", room.BuildingAddress)
}

func TestLookup_Miss(t *testing.T) {
	dir := load(t)

	_, ok := dir.Lookup("No Such Room")
	assert.False(t, ok)

	_, ok = dir.Lookup("")
	assert.False(t, ok)
}
