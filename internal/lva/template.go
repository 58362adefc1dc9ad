package lva

import (
	"net/url"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{([a-zA-Z]+)\}\}`)

// Render substitutes {{FieldName}} placeholders in template with the
// matching property values. Placeholders naming unknown fields are left in
// the output verbatim; empty property values render as empty strings.
// There is no nesting, control flow or escaping, so rendering a template
// without placeholders returns it unchanged.
func Render(template string, props Properties) string {
	var b strings.Builder
	last := 0
	for _, m := range placeholderPattern.FindAllStringSubmatchIndex(template, -1) {
		val, ok := props.Lookup(template[m[2]:m[3]])
		if !ok {
			continue
		}
		b.WriteString(template[last:m[0]])
		b.WriteString(val)
		last = m[1]
	}
	b.WriteString(template[last:])
	return b.String()
}

// DescriptionAltRep wraps a rendered description as a data: URI, used as
// the ALTREP parameter so clients that support it show the HTML form.
func DescriptionAltRep(rendered string) string {
	return "data:text/html," + url.PathEscape(rendered)
}
