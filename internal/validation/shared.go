package validation

import (
	"sort"
	"strings"
)

// Error reports invalid request fields, keyed by parameter name.
// Handlers send Fields as the error details.
type Error struct {
	Fields map[string]string
}

// Error lists the fields in name order so the message is stable.
func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name + ": " + e.Fields[name])
	}
	return b.String()
}
