package ruco

import (
	"fmt"
	"strings"
)

// DefaultIndentMarker is repeated once per stack frame to indent a line.
const DefaultIndentMarker = "."

// Format renders ev as one trace line:
//
//	<thread> <indent> <CALL|EXIT> <module><type><name>\n
//
// The indent run is marker repeated ev.Depth times, or empty when indentation
// is off. Module and type already carry their trailing separators.
func Format(ev TraceEvent, indentEnabled bool, marker string) string {
	indent := ""
	if indentEnabled && ev.Depth > 0 {
		indent = strings.Repeat(marker, ev.Depth)
	}
	return fmt.Sprintf("%s %s %s %s%s%s\n", ev.Thread, indent, ev.Kind, ev.Module, ev.Type, ev.Name)
}
