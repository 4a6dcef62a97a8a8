package ingest

import (
	"fmt"
	"strings"
)

// Mapping files carry strftime-style date formats (e.g. "%Y-%m-%d"). Go wants
// its reference-time layout instead, so the common directives are translated.
var strftimeDirectives = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'b': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'p': "PM",
	'z': "-0700",
	'Z': "MST",
	'j': "002",
}

// strftimeToLayout converts a strftime format string into a Go time layout.
// Unknown directives are rejected rather than guessed at.
func strftimeToLayout(format string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(format) {
			return "", fmt.Errorf("strftimeToLayout: trailing %% in format %q", format)
		}
		d := format[i]
		if d == '%' {
			b.WriteByte('%')
			continue
		}
		layout, ok := strftimeDirectives[d]
		if !ok {
			return "", fmt.Errorf("strftimeToLayout: unsupported directive %%%c in format %q", d, format)
		}
		b.WriteString(layout)
	}
	return b.String(), nil
}
