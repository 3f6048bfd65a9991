package output

import (
	"fmt"
	"strings"
)

// Fields is an ordered list of name/value pairs rendered as two aligned
// columns in text mode.
type Fields struct {
	names  []string
	values []string
}

// Add appends a field. Empty values are shown as "-".
func (f *Fields) Add(name, value string) *Fields {
	if value == "" {
		value = "-"
	}
	f.names = append(f.names, name)
	f.values = append(f.values, value)
	return f
}

// Addf appends a field with a formatted value.
func (f *Fields) Addf(name, format string, args ...any) *Fields {
	return f.Add(name, fmt.Sprintf(format, args...))
}

// Len returns the number of fields.
func (f *Fields) Len() int {
	return len(f.names)
}

// Text renders the fields, one per line, with values aligned.
func (f *Fields) Text() string {
	width := 0
	for _, n := range f.names {
		width = max(width, len(n))
	}

	var sb strings.Builder
	for i, n := range f.names {
		fmt.Fprintf(&sb, "%-*s  %s\n", width+1, n+":", f.values[i])
	}
	return sb.String()
}
