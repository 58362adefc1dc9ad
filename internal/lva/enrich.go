package lva

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tazhate/tisscal/internal/rooms"
)

// ErrUnknownCourseType is returned when a classified title carries a type
// code missing from TypeNames.
var ErrUnknownCourseType = errors.New("unknown course type code")

// EventInfo is the slice of a calendar event that enrichment needs.
// Summary is required for classification, Start/End for enrichment;
// everything else is optional.
type EventInfo struct {
	Summary     string
	Description string
	Location    string
	Category    string
	Start       time.Time
	End         time.Time
}

// Properties is the closed set of fields a template may reference.
// Fields that do not apply to an event (e.g. no location on the source
// event) are empty strings and render as such.
type Properties struct {
	LvaName                 string
	LvaTypeShort            string
	LvaTypeLong             string
	LvaId                   string
	StartDate               string
	StartTime               string
	EndDate                 string
	EndTime                 string
	TissCourseDetailLink    string
	TissEducationDetailLink string
	TissCalDesc             string
	RoomName                string
	RoomTiss                string
	RoomTuwMap              string
	RoomBuildingAddress     string
	Categorie               string
}

// Lookup resolves a template field by name. Unknown names report false so
// the renderer can leave their placeholders untouched.
func (p Properties) Lookup(name string) (string, bool) {
	switch name {
	case "LvaName":
		return p.LvaName, true
	case "LvaTypeShort":
		return p.LvaTypeShort, true
	case "LvaTypeLong":
		return p.LvaTypeLong, true
	case "LvaId":
		return p.LvaId, true
	case "StartDate":
		return p.StartDate, true
	case "StartTime":
		return p.StartTime, true
	case "EndDate":
		return p.EndDate, true
	case "EndTime":
		return p.EndTime, true
	case "TissCourseDetailLink":
		return p.TissCourseDetailLink, true
	case "TissEducationDetailLink":
		return p.TissEducationDetailLink, true
	case "TissCalDesc":
		return p.TissCalDesc, true
	case "RoomName":
		return p.RoomName, true
	case "RoomTiss":
		return p.RoomTiss, true
	case "RoomTuwMap":
		return p.RoomTuwMap, true
	case "RoomBuildingAddress":
		return p.RoomBuildingAddress, true
	case "Categorie":
		return p.Categorie, true
	}
	return "", false
}

// Enrich builds the template properties for one classified course event.
//
// Room metadata degrades gracefully: a directory hit yields the four derived
// room fields, a miss falls back to the raw location string for all four,
// and a missing location leaves all four empty. An unknown type code is the
// one hard failure, wrapping ErrUnknownCourseType.
func Enrich(ev EventInfo, m *Match, dir *rooms.Directory, tissBaseURL string) (Properties, error) {
	typeLong, ok := TypeNames[m.TypeCode]
	if !ok {
		return Properties{}, fmt.Errorf("%w: %q in %q", ErrUnknownCourseType, m.TypeCode, ev.Summary)
	}

	courseNr := strings.ReplaceAll(m.CourseID, ".", "")

	p := Properties{
		LvaName:                 m.CourseName,
		LvaTypeShort:            m.TypeCode,
		LvaTypeLong:             typeLong,
		LvaId:                   m.CourseID,
		StartDate:               ev.Start.Format("02.01.2006"),
		StartTime:               ev.Start.Format("15:04"),
		EndDate:                 ev.End.Format("02.01.2006"),
		EndTime:                 ev.End.Format("15:04"),
		TissCourseDetailLink:    tissBaseURL + "/course/courseDetails.xhtml?courseNr=" + courseNr,
		TissEducationDetailLink: tissBaseURL + "/course/educationDetails.xhtml?courseNr=" + courseNr,
		TissCalDesc:             ev.Description,
		Categorie:               ev.Category,
	}

	if ev.Location != "" {
		if room, ok := dir.Lookup(ev.Location); ok {
			p.RoomName = room.Name
			p.RoomTiss = room.DetailLink
			p.RoomTuwMap = room.MapLink
			p.RoomBuildingAddress = room.BuildingAddress
		} else {
			p.RoomName = ev.Location
			p.RoomTiss = ev.Location
			p.RoomTuwMap = ev.Location
			p.RoomBuildingAddress = ev.Location
		}
	}

	return p, nil
}
