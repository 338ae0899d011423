package conflict

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"

	"github.com/corpeningc/kpatch/internal/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Scanner finds conflict markers under a root directory. Results are ordered
// by file (walk order) and then by line. A failed scan returns no markers.
type Scanner interface {
	Scan(ctx context.Context, root string) ([]Marker, error)
}

const (
	binarySniffLen = 8000
	maxLineLen     = 4 * 1024 * 1024
)

// ScanStats describes the last WalkScanner run.
type ScanStats struct {
	Files int
	Bytes int64
}

// WalkScanner scans the tree in-process. Files are read concurrently but
// markers come back in directory walk order.
type WalkScanner struct {
	Workers int
	Exclude []string

	logger *zap.Logger
	stats  ScanStats
}

func NewWalkScanner(workers int, exclude []string, logger *zap.Logger) *WalkScanner {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WalkScanner{Workers: workers, Exclude: exclude, logger: logger}
}

// Stats returns counters from the most recent Scan.
func (s *WalkScanner) Stats() ScanStats {
	return s.stats
}

func (s *WalkScanner) Scan(ctx context.Context, root string) ([]Marker, error) {
	files, err := s.walk(root)
	if err != nil {
		return nil, err
	}

	perFile := make([][]Marker, len(files))
	var total atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			markers, n, err := scanFile(path)
			if err != nil {
				return err
			}
			perFile[i] = markers
			total.Add(n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var markers []Marker
	for _, m := range perFile {
		markers = append(markers, m...)
	}

	s.stats = ScanStats{Files: len(files), Bytes: total.Load()}
	s.logger.Debug("Scanned tree",
		zap.String("root", root),
		zap.Int("files", s.stats.Files),
		zap.Int("markers", len(markers)))

	return markers, nil
}

func (s *WalkScanner) walk(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.NewScanError(path, err)
		}
		if d.IsDir() {
			if path != root && slices.Contains(s.Exclude, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ScanFile returns the markers of a single file. Binary files yield none.
func ScanFile(path string) ([]Marker, error) {
	markers, _, err := scanFile(path)
	return markers, err
}

func scanFile(path string) ([]Marker, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.NewScanError(path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(binarySniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, 0, errors.NewScanError(path, err)
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return nil, 0, nil
	}

	var (
		markers []Marker
		size    int64
		lineNum int
	)
	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLen)
	for sc.Scan() {
		lineNum++
		line := sc.Text()
		size += int64(len(line)) + 1
		if kind, ok := Classify(line); ok {
			markers = append(markers, Marker{File: path, Line: lineNum, Kind: kind})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, 0, errors.NewScanError(path, err)
	}

	return markers, size, nil
}
