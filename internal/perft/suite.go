package perft

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
)

// Cache memoises perft counts keyed by (FEN, depth).
type Cache interface {
	LoadPerft(fen string, depth int) (nodes uint64, ok bool, err error)
	StorePerft(fen string, depth int, nodes uint64) error
}

// Options configures RunSuite. The zero value runs one fixture per CPU
// without a cache and without logging.
type Options struct {
	Workers int
	Cache   Cache
	Logger  *zerolog.Logger
}

// Result is the outcome of one fixture.
type Result struct {
	Fixture
	Got     uint64
	Elapsed time.Duration
	Cached  bool
}

// OK reports whether the computed count matches the fixture.
func (r Result) OK() bool { return r.Got == r.Nodes }

// NPS is the leaf rate of a computed result, 0 for cached ones.
func (r Result) NPS() uint64 {
	if r.Cached || r.Elapsed <= 0 {
		return 0
	}
	return uint64(float64(r.Got) / r.Elapsed.Seconds())
}

// RunSuite computes every fixture in parallel and returns the results in
// input order. A mismatch is not an error; inspect Result.OK or Failures.
// Parse errors, cache errors and cancellation are returned.
func RunSuite(ctx context.Context, fixtures []Fixture, opts Options) ([]Result, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	results := make([]Result, len(fixtures))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range fixtures {
		i, f := i, f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := runFixture(f, opts.Cache)
			if err != nil {
				return fmt.Errorf("perft %s depth %d: %w", f.Name, f.Depth, err)
			}
			results[i] = r
			ev := logger.Debug()
			if !r.OK() {
				ev = logger.Warn()
			}
			ev.Str("name", f.Name).
				Int("depth", f.Depth).
				Uint64("nodes", r.Got).
				Uint64("want", f.Nodes).
				Bool("cached", r.Cached).
				Dur("elapsed", r.Elapsed).
				Msg("perft-fixture")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runFixture(f Fixture, cache Cache) (Result, error) {
	r := Result{Fixture: f}
	if cache != nil {
		n, ok, err := cache.LoadPerft(f.FEN, f.Depth)
		if err != nil {
			return r, err
		}
		if ok {
			r.Got, r.Cached = n, true
			return r, nil
		}
	}
	p, err := board.ParseFEN(f.FEN)
	if err != nil {
		return r, err
	}
	start := time.Now()
	r.Got = Perft(p, f.Depth)
	r.Elapsed = time.Since(start)
	// Only correct counts are worth remembering.
	if cache != nil && r.OK() {
		if err := cache.StorePerft(f.FEN, f.Depth, r.Got); err != nil {
			return r, err
		}
	}
	return r, nil
}

// Count is Perft on a FEN, consulting cache first when it is non-nil.
// Fresh counts are stored back. The boolean reports a cache hit.
func Count(cache Cache, fen string, depth int) (uint64, bool, error) {
	if cache != nil {
		n, ok, err := cache.LoadPerft(fen, depth)
		if err != nil || ok {
			return n, ok, err
		}
	}
	p, err := board.ParseFEN(fen)
	if err != nil {
		return 0, false, err
	}
	n := Perft(p, depth)
	if cache != nil {
		if err := cache.StorePerft(fen, depth, n); err != nil {
			return n, false, err
		}
	}
	return n, false, nil
}

// Failures returns the results whose count did not match.
func Failures(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}
