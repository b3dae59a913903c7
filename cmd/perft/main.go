// Command perft counts move-generation leaves, runs the published suite and
// cross-checks the generator against dragontoothmg.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/perft"
	"github.com/hailam/chesscore/internal/storage"
)

var (
	fen        = flag.String("fen", board.StartFEN, "position to count from")
	depth      = flag.Int("depth", 5, "search depth in plies")
	divide     = flag.Bool("divide", false, "print counts per root move")
	suite      = flag.Bool("suite", false, "run the fixture suite instead of a single position")
	maxNodes   = flag.Uint64("max", 5_000_000, "skip suite fixtures with more expected leaves")
	crosscheck = flag.Bool("crosscheck", false, "compare move lists with dragontoothmg at every node")
	useCache   = flag.Bool("cache", false, "memoise counts in the data directory database")
	workers    = flag.Int("workers", 0, "suite workers (0 = one per CPU)")
)

func main() {
	flag.Parse()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var cache perft.Cache
	if *useCache {
		store, err := storage.OpenDefault(&logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("open cache")
		}
		defer store.Close()
		cache = store
	}

	var err error
	switch {
	case *suite:
		err = runSuite(ctx, cache, &logger)
	case *crosscheck:
		err = runCrossCheck()
	case *divide:
		err = runDivide()
	default:
		err = runCount(cache)
	}
	if err != nil {
		logger.Error().Err(err).Msg("perft")
		stop()
		os.Exit(1)
	}
}

func runCount(cache perft.Cache) error {
	start := time.Now()
	nodes, cached, err := perft.Count(cache, *fen, *depth)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	fmt.Printf("Depth %d: %d nodes in %v", *depth, nodes, elapsed.Round(time.Millisecond))
	if cached {
		fmt.Print(" (cached)")
	} else if elapsed > 0 {
		fmt.Printf(" (%.0f nps)", float64(nodes)/elapsed.Seconds())
	}
	fmt.Println()
	return nil
}

func runDivide() error {
	pos, err := board.ParseFEN(*fen)
	if err != nil {
		return err
	}
	splits := perft.Divide(pos, *depth)
	for _, s := range splits {
		fmt.Printf("%s: %d\n", s.Move, s.Nodes)
	}
	fmt.Printf("\nMoves: %d\nNodes: %d\n", len(splits), perft.Total(splits))
	return nil
}

func runCrossCheck() error {
	for d := 1; d <= *depth; d++ {
		if err := perft.CrossCheck(*fen, d); err != nil {
			return err
		}
		fmt.Printf("depth %d: move lists agree\n", d)
	}
	return nil
}

func runSuite(ctx context.Context, cache perft.Cache, logger *zerolog.Logger) error {
	fixtures := perft.Cheap(perft.Fixtures, *maxNodes)
	start := time.Now()
	results, err := perft.RunSuite(ctx, fixtures, perft.Options{Workers: *workers, Cache: cache, Logger: logger})
	if err != nil {
		return err
	}
	for _, r := range results {
		status := "ok"
		if !r.OK() {
			status = "FAIL"
		}
		fmt.Printf("%-4s %-26s d%-2d %12d", status, r.Name, r.Depth, r.Got)
		if !r.OK() {
			fmt.Printf(" (want %d)", r.Nodes)
		}
		fmt.Println()
	}
	failed := perft.Failures(results)
	fmt.Printf("\n%d/%d passed in %v\n", len(results)-len(failed), len(results), time.Since(start).Round(time.Millisecond))
	if len(failed) > 0 {
		return fmt.Errorf("%d fixtures failed", len(failed))
	}
	return nil
}
