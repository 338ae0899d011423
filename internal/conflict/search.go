package conflict

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/corpeningc/kpatch/internal/errors"
	"go.uber.org/zap"
)

// Searcher runs a recursive text search and returns raw
// "path:line:text" result lines. No matches is not an error.
type Searcher interface {
	Search(ctx context.Context, root string, patterns []string) ([]string, error)
}

var searchLineRe = regexp.MustCompile(`^(.*?):(\d+):(.*)$`)

// SearchScanner finds markers with an external search tool.
type SearchScanner struct {
	searcher Searcher
	logger   *zap.Logger
}

func NewSearchScanner(searcher Searcher, logger *zap.Logger) *SearchScanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchScanner{searcher: searcher, logger: logger}
}

func (s *SearchScanner) Scan(ctx context.Context, root string) ([]Marker, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, errors.NewScanError(root, err)
	}

	lines, err := s.searcher.Search(ctx, root, SearchPatterns)
	if err != nil {
		return nil, errors.NewScanError(root, err)
	}

	markers, err := ParseSearchOutput(lines)
	if err != nil {
		return nil, errors.NewScanError(root, err)
	}

	s.logger.Debug("Searched tree",
		zap.String("root", root),
		zap.Int("markers", len(markers)))

	return markers, nil
}

// ParseSearchOutput turns "path:line:text" lines into markers. Lines whose
// text is not a marker are skipped; malformed lines are an error.
func ParseSearchOutput(lines []string) ([]Marker, error) {
	var markers []Marker
	for _, line := range lines {
		if line == "" {
			continue
		}
		caps := searchLineRe.FindStringSubmatch(line)
		if caps == nil {
			return nil, fmt.Errorf("unexpected search output %q", line)
		}
		num, err := strconv.Atoi(caps[2])
		if err != nil || num < 1 {
			return nil, fmt.Errorf("bad line number in search output %q", line)
		}
		kind, ok := Classify(caps[3])
		if !ok {
			continue
		}
		markers = append(markers, Marker{File: caps[1], Line: num, Kind: kind})
	}
	return markers, nil
}
