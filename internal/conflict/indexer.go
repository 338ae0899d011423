package conflict

import (
	"fmt"
	"slices"
)

// Range is the span of one conflict in a file, from its start marker to the
// matching end marker, both inclusive.
type Range struct {
	File  string
	Start int
	End   int
}

// Degenerate reports whether the range never saw an end marker.
func (r Range) Degenerate() bool {
	return r.Start == r.End
}

func (r Range) String() string {
	return fmt.Sprintf("%s:%d-%d", r.File, r.Start, r.End)
}

// Map groups conflict ranges by file. Files iterate in the order they were
// first indexed, ranges within a file by ascending start line.
type Map struct {
	files  []string
	ranges map[string][]Range
}

func NewMap() *Map {
	return &Map{ranges: make(map[string][]Range)}
}

func (m *Map) add(r Range) {
	if _, ok := m.ranges[r.File]; !ok {
		m.files = append(m.files, r.File)
	}
	m.ranges[r.File] = append(m.ranges[r.File], r)
}

// Files returns the conflicted files in index order.
func (m *Map) Files() []string {
	return slices.Clone(m.files)
}

// Ranges returns the ranges of file in ascending start order.
func (m *Map) Ranges(file string) []Range {
	return slices.Clone(m.ranges[file])
}

// All flattens the map, file by file.
func (m *Map) All() []Range {
	var all []Range
	for _, f := range m.files {
		all = append(all, m.ranges[f]...)
	}
	return all
}

// Len is the total number of ranges.
func (m *Map) Len() int {
	n := 0
	for _, rs := range m.ranges {
		n += len(rs)
	}
	return n
}

func (m *Map) Empty() bool {
	return m.Len() == 0
}

// Index folds a marker stream, ordered by file and then line, into ranges.
//
// A start marker seen while another conflict is still open closes the open
// one as a single-line range. A start marker that is never closed ends up the
// same way at the end of its file. Dividers do not affect range bounds and an
// end marker with nothing open is dropped.
func Index(markers []Marker) *Map {
	m := NewMap()

	var (
		file    string
		open    bool
		current int
	)
	flush := func() {
		if open {
			m.add(Range{File: file, Start: current, End: current})
			open = false
		}
	}

	for _, mk := range markers {
		if mk.File != file {
			flush()
			file = mk.File
		}
		switch mk.Kind {
		case Start:
			flush()
			open = true
			current = mk.Line
		case End:
			if open {
				m.add(Range{File: file, Start: current, End: mk.Line})
				open = false
			}
		case Divider:
		}
	}
	flush()

	return m
}
