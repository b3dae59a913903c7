// Command tournament plays engines against each other in a round robin and
// keeps Elo ratings across runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/openings"
	"github.com/hailam/chesscore/internal/storage"
	"github.com/hailam/chesscore/internal/tournament"
)

var (
	engines     = flag.String("engines", "classical,random", "comma-separated engine kinds (classical, neural, neural:<version>, random)")
	games       = flag.Int("games", 10, "games per pairing")
	depth       = flag.Int("depth", 4, "search depth per move")
	moveTime    = flag.Duration("movetime", 0, "time per move (0 = depth only)")
	maxMoves    = flag.Int("maxmoves", 200, "plies before a game is drawn")
	concurrency = flag.Int("concurrency", 0, "games in flight (0 = one per CPU)")
	openingFile = flag.String("openings", "", "file of opening lines, one per row (default: built-in lines)")
	noOpenings  = flag.Bool("noopenings", false, "start every game from the initial position")
	modelDir    = flag.String("modeldir", "", "neural model directory (default: the data directory)")
	name        = flag.String("name", "", "tournament name")
	persist     = flag.Bool("save", true, "load and store ratings and matches in the data directory")
	pgnFile     = flag.String("pgn", "", "write every game to this PGN file")
	standings   = flag.Bool("leaderboard", false, "print the stored leaderboard and exit")
)

func main() {
	flag.Parse()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, &logger); err != nil {
		logger.Error().Err(err).Msg("tournament")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *zerolog.Logger) error {
	tracker := tournament.NewEloTracker()
	var store *storage.Store
	if *persist || *standings {
		s, err := storage.OpenDefault(logger)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
		if err := tracker.Load(store); err != nil {
			return fmt.Errorf("load ratings: %w", err)
		}
	}
	if *standings {
		return tournament.WriteLeaderboard(os.Stdout, tracker.Leaderboard())
	}

	cfg := tournament.DefaultMatchConfig()
	cfg.Games = *games
	cfg.Depth = *depth
	cfg.MoveTime = *moveTime
	cfg.MaxMoves = *maxMoves
	cfg.Concurrency = *concurrency
	cfg.Logger = *logger
	// Engine chatter stays quiet; the match log is enough.
	cfg.Engine = engine.Config{Logger: logger.Level(zerolog.WarnLevel), ModelDir: *modelDir}
	if cfg.Engine.ModelDir == "" {
		if dir, err := storage.ModelDir(); err == nil {
			cfg.Engine.ModelDir = dir
		}
	}

	switch {
	case *noOpenings:
	case *openingFile != "":
		suite, err := openings.Load(*openingFile)
		if err != nil {
			return err
		}
		cfg.Openings = suite
	default:
		suite, err := openings.FromLines(openings.Default)
		if err != nil {
			return err
		}
		cfg.Openings = suite
	}

	entrants, err := parseEntrants(*engines, cfg.Engine)
	if err != nil {
		return err
	}
	title := *name
	if title == "" {
		title = time.Now().Format("2006-01-02 15:04")
	}

	res, err := tournament.RoundRobin(ctx, title, entrants, cfg, tracker)
	if err != nil {
		return err
	}
	if err := res.WriteReport(os.Stdout); err != nil {
		return err
	}
	fmt.Println()
	if err := tournament.WriteLeaderboard(os.Stdout, tracker.Leaderboard()); err != nil {
		return err
	}

	if *pgnFile != "" {
		if err := writePGN(*pgnFile, res); err != nil {
			return err
		}
	}
	if store != nil {
		if err := res.Save(store); err != nil {
			return fmt.Errorf("save matches: %w", err)
		}
		if err := tracker.Save(store); err != nil {
			return fmt.Errorf("save ratings: %w", err)
		}
	}
	return nil
}

// parseEntrants builds one entrant per engine kind, named after the engine
// it builds so ratings follow the engine (and model version) across runs.
func parseEntrants(list string, cfg engine.Config) ([]tournament.Entrant, error) {
	var out []tournament.Entrant
	seen := make(map[string]int)
	for _, kind := range strings.Split(list, ",") {
		kind = strings.TrimSpace(kind)
		if kind == "" {
			continue
		}
		eng, err := engine.New(kind, cfg)
		if err != nil {
			return nil, err
		}
		label := eng.Name()
		if seen[label]++; seen[label] > 1 {
			label = fmt.Sprintf("%s #%d", label, seen[label])
		}
		out = append(out, tournament.Entrant{Name: label, Factory: engine.FactoryFor(kind)})
	}
	return out, nil
}

func writePGN(path string, res *tournament.Results) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, m := range res.Matches {
		for _, g := range m.Games {
			if _, err := fmt.Fprintf(f, "%s\n\n", strings.TrimSpace(g.PGN)); err != nil {
				return err
			}
		}
	}
	return f.Close()
}
