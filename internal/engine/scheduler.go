package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"tondev/internal/rules"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Scheduler scans files on a bounded worker pool.
type Scheduler struct {
	rules          []rules.Rule
	opts           ScanOptions
	concurrency    int
	skipUnreadable bool
	log            *zap.SugaredLogger
	cache          *matchCache

	// readFile is a test seam. If nil, os.ReadFile is used.
	readFile func(name string) ([]byte, error)
}

// ScanOutcome is what Execute hands to the aggregator.
type ScanOutcome struct {
	// Results holds one entry per scanned file, in the order files were given.
	Results []rules.ScanResult
	// Skipped lists unreadable files dropped under the skip policy.
	Skipped []*FileError
}

func NewScheduler(selected []rules.Rule, opts ScanOptions, concurrency int, skipUnreadable bool, log *zap.SugaredLogger) (*Scheduler, error) {
	if concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be >= 1, got %d", concurrency)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Scheduler{
		rules:          selected,
		opts:           opts,
		concurrency:    concurrency,
		skipUnreadable: skipUnreadable,
		log:            log,
		cache:          newMatchCache(selected),
	}, nil
}

// Execute reads and scans every file. Results land in an index-addressed
// slice, so output order equals input order whatever the concurrency.
//
// Under the fail policy the first unreadable file cancels the remaining work
// and its *FileError is returned. Under the skip policy the file is logged and
// reported in ScanOutcome.Skipped. Context cancellation stops scheduling new
// files and returns the context error.
func (s *Scheduler) Execute(ctx context.Context, files []string) (ScanOutcome, error) {
	if ctx == nil {
		return ScanOutcome{}, errors.New("context is nil")
	}
	read := s.readFile
	if read == nil {
		read = os.ReadFile
	}

	results := make([]rules.ScanResult, len(files))
	skipped := make([]*FileError, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, file := range files {
		if gctx.Err() != nil {
			break
		}
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := read(file)
			if err != nil {
				fe := &FileError{Path: file, Err: err}
				if !s.skipUnreadable {
					return fe
				}
				s.log.Warnw("Skipping unreadable file", "file", file, "error", err)
				skipped[i] = fe
				return nil
			}
			s.log.Debugw("Scanning file", "file", file, "bytes", len(raw))
			text := string(raw)
			results[i] = buildResult(file, text, s.cache.evaluate(text), s.opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return ScanOutcome{}, err
	}
	if hits := s.cache.Hits(); hits > 0 {
		s.log.Debugw("Reused results for files with identical content", "files", hits)
	}
	// errgroup cancels gctx only on error; the parent may still have been
	// canceled while the loop was breaking out.
	if err := ctx.Err(); err != nil {
		return ScanOutcome{}, err
	}

	out := ScanOutcome{Results: make([]rules.ScanResult, 0, len(files))}
	for i := range files {
		if skipped[i] != nil {
			out.Skipped = append(out.Skipped, skipped[i])
			continue
		}
		out.Results = append(out.Results, results[i])
	}
	return out, nil
}
