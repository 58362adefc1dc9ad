// Package lva implements the course-event ("Lehrveranstaltung") pipeline:
// detecting course titles in a TISS calendar feed, deriving the per-course
// properties used for prettification, and rendering user templates.
package lva

import "regexp"

// Course titles look like "104.265 VO Algebra und Diskrete Mathematik ...":
// a 3.3-character course id, a two-letter type code and the course name.
// The id block is position-fixed, not validated beyond its shape.
var titlePattern = regexp.MustCompile(`^(.{3}\..{3}) (.{2}) (.*)$`)

// Match is the decomposition of a course title.
type Match struct {
	CourseID   string // e.g. "104.265"
	TypeCode   string // e.g. "VO"
	CourseName string // e.g. "Algebra und Diskrete Mathematik ..."
}

// Classify matches a title against the course shape. A non-matching title
// returns nil, which is a normal outcome, not an error.
func Classify(title string) *Match {
	m := titlePattern.FindStringSubmatch(title)
	if m == nil {
		return nil
	}
	return &Match{CourseID: m[1], TypeCode: m[2], CourseName: m[3]}
}

// IsCourse reports whether a title has the course shape.
func IsCourse(title string) bool {
	return titlePattern.MatchString(title)
}

// TypeNames maps the two-letter course type codes to their full names.
// The set is closed on purpose: an unknown code means the vocabulary is
// stale and enrichment fails rather than mislabeling the course.
var TypeNames = map[string]string{
	"VO": "Vorlesung",
	"VU": "Vorlesung mit Übung",
	"UE": "Übung",
	"AE": "Arbeitsgemeinschaft und Exkursion",
	"AG": "Arbeitsgemeinschaft",
	"AU": "Angeleitete Übung",
	"EP": "Studieneingangsphase",
	"EU": "Entwurfsübung",
	"EX": "Exkursion",
	"FU": "Feldübung",
	"IP": "Interdisziplinäre Projekte",
	"KO": "Konversatorium",
	"KU": "Konstruktionsübung",
	"KV": "Konversatorium",
	"LU": "Laborübung",
	"MU": "Messübung",
	"PA": "Projektarbeit",
	"PN": "Präsentation",
	"PR": "Projekt",
	"PS": "Proseminar",
	"PU": "Praktische Übung",
	"PV": "Privatissimum",
	"RE": "Repetitorium",
	"RU": "Rechenübung",
	"RV": "Ringvorlesung",
	"SE": "Seminar",
	"SP": "Seminar mit Praktikum",
	"SV": "Spezialvorlesung",
	"UX": "Übung und Exkursion",
	"VD": "Vorlesung mit Demonstrationen",
	"VL": "Vorlesung mit Laborübung",
	"VR": "Vorlesung und Rechenübung",
	"VX": "Vorlesung und Exkursion",
	"ZU": "Zeichenübung",
}
