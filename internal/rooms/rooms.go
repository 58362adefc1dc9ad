// Package rooms provides the static TU Wien room directory used to derive
// room metadata for prettified events.
package rooms

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Columns of the semicolon-delimited room table that we consume.
const (
	colName       = 0
	colAddress    = 6
	colMapQuery   = 7
	colDetailLink = 8
)

// Room is one directory record.
type Room struct {
	Name            string
	DetailLink      string // TISS room occupancy page
	MapLink         string // TU Wien maps link built from the map query
	BuildingAddress string // street address, e.g. "Getreidemarkt 9"
}

// Directory is an immutable name-to-room lookup table. It is loaded once at
// startup and shared read-only across requests, so no locking is needed.
type Directory struct {
	rooms map[string]Room
}

// Load reads the room table from a semicolon-delimited CSV file.
func Load(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open room table: %w", err)
	}
	defer f.Close()

	dir, err := LoadReader(f)
	if err != nil {
		return nil, fmt.Errorf("read room table %s: %w", path, err)
	}
	return dir, nil
}

// LoadReader parses the room table from r. Rows with fewer columns than we
// consume are skipped.
func LoadReader(r io.Reader) (*Directory, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	rooms := make(map[string]Room)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) <= colDetailLink || record[colName] == "" {
			continue
		}
		name := record[colName]
		rooms[name] = Room{
			Name:            name,
			DetailLink:      record[colDetailLink],
			MapLink:         "https://tuw-maps.tuwien.ac.at/?q=" + record[colMapQuery] + "#map",
			BuildingAddress: strings.SplitN(record[colAddress], ",", 2)[0],
		}
	}
	return &Directory{rooms: rooms}, nil
}

// Lookup finds a room by its exact display name. A miss is a normal
// outcome; callers fall back to the raw location string.
func (d *Directory) Lookup(name string) (Room, bool) {
	if name == "" {
		return Room{}, false
	}
	room, ok := d.rooms[name]
	return room, ok
}

// Len returns the number of known rooms.
func (d *Directory) Len() int {
	return len(d.rooms)
}
