package conflict

import (
	"fmt"
	"strings"
)

// Marker line prefixes written by three-way merges.
const (
	StartPrefix = "<<<<<<<"
	BasePrefix  = "|||||||"
	DividerLine = "======="
	EndPrefix   = ">>>>>>>"
)

type Kind int

const (
	Start Kind = iota
	Divider
	End
)

func (k Kind) String() string {
	switch k {
	case Start:
		return "start"
	case Divider:
		return "divider"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

// Marker is one conflict marker line found by a scan.
type Marker struct {
	File string
	Line int
	Kind Kind
}

func (m Marker) String() string {
	return fmt.Sprintf("%s:%d:%s", m.File, m.Line, m.Kind)
}

// Classify reports whether line is a conflict marker and which one.
// The divider must match the whole line, the other two only its start.
func Classify(line string) (Kind, bool) {
	switch {
	case strings.HasPrefix(line, StartPrefix):
		return Start, true
	case strings.HasPrefix(line, EndPrefix):
		return End, true
	case strings.TrimSuffix(line, "\r") == DividerLine:
		return Divider, true
	}
	return 0, false
}

// SearchPatterns are the anchored regular expressions handed to an external
// search tool. They match exactly what Classify accepts.
var SearchPatterns = []string{
	"^" + StartPrefix,
	"^" + DividerLine + "\r?$",
	"^" + EndPrefix,
}

func isBase(line string) bool {
	return strings.HasPrefix(line, BasePrefix)
}
