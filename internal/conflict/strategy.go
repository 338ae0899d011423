package conflict

import "fmt"

// Strategy is how the operator chose to resolve one conflict.
type Strategy int

const (
	AcceptIncoming Strategy = iota
	KeepCurrent
	AcceptBoth
	EditExternally
)

// Strategies lists every strategy in menu order.
func Strategies() []Strategy {
	return []Strategy{AcceptIncoming, KeepCurrent, AcceptBoth, EditExternally}
}

func (s Strategy) String() string {
	switch s {
	case AcceptIncoming:
		return "Accept Incoming"
	case KeepCurrent:
		return "Keep Current"
	case AcceptBoth:
		return "Accept Both"
	case EditExternally:
		return "Open in Editor"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Rewrites reports whether the strategy is applied by rewriting the file.
func (s Strategy) Rewrites() bool {
	return s == AcceptIncoming || s == KeepCurrent || s == AcceptBoth
}

type section int

const (
	sectionNone section = iota
	sectionCurrent
	sectionBase
	sectionIncoming
)

// ApplyStrategy returns the replacement for the lines of a conflict range.
// A diff3 base section (from "|||||||" to the divider) belongs to neither
// side and is always dropped. Only the first divider splits the sides; any
// later "=======" line is incoming content. EditExternally returns the lines
// unchanged.
func ApplyStrategy(s Strategy, lines []string) []string {
	if !s.Rewrites() {
		return lines
	}

	out := make([]string, 0, len(lines))
	sec := sectionNone
	for _, line := range lines {
		if kind, ok := Classify(line); ok && isBoundary(kind, sec) {
			switch kind {
			case Start:
				sec = sectionCurrent
			case Divider:
				sec = sectionIncoming
			case End:
				sec = sectionNone
			}
			continue
		}
		if sec == sectionCurrent && isBase(line) {
			sec = sectionBase
			continue
		}

		switch s {
		case AcceptIncoming:
			if sec == sectionIncoming {
				out = append(out, line)
			}
		case KeepCurrent:
			if sec == sectionCurrent {
				out = append(out, line)
			}
		case AcceptBoth:
			if sec != sectionBase {
				out = append(out, line)
			}
		}
	}
	return out
}

// isBoundary reports whether a marker line of kind ends the section sec.
func isBoundary(kind Kind, sec section) bool {
	if kind == Divider {
		return sec == sectionCurrent || sec == sectionBase
	}
	return true
}
