package tournament

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/storage"
)

// ErrTooFewEngines is returned by RoundRobin with fewer than two entrants.
var ErrTooFewEngines = errors.New("tournament: need at least two engines")

// Entrant is a named engine factory.
type Entrant struct {
	Name    string
	Factory engine.Factory
}

// MatchStore persists finished matches.
type MatchStore interface {
	SaveMatch(storage.MatchRecord) (string, error)
}

// Results is a finished tournament.
type Results struct {
	Name         string
	Participants []string
	Matches      []MatchReport
	Config       MatchConfig
}

// RoundRobin plays a match between every pair of entrants, in order, and
// applies each result to tracker. A nil tracker skips rating updates.
func RoundRobin(ctx context.Context, name string, entrants []Entrant, cfg MatchConfig, tracker *EloTracker) (*Results, error) {
	if len(entrants) < 2 {
		return nil, ErrTooFewEngines
	}
	res := &Results{Name: name, Config: cfg}
	for _, e := range entrants {
		res.Participants = append(res.Participants, e.Name)
	}

	runner := NewRunner(cfg)
	for i := range entrants {
		for j := i + 1; j < len(entrants); j++ {
			a, b := entrants[i], entrants[j]
			cfg.Logger.Info().Str("engine1", a.Name).Str("engine2", b.Name).Int("games", cfg.Games).Msg("match-start")
			report, err := runner.RunMatch(ctx, a.Factory, b.Factory)
			if err != nil {
				return res, fmt.Errorf("%s vs %s: %w", a.Name, b.Name, err)
			}
			report.Engine1, report.Engine2 = a.Name, b.Name
			res.Matches = append(res.Matches, report)

			ev := cfg.Logger.Info().
				Str("engine1", a.Name).
				Str("engine2", b.Name).
				Str("result", report.Result.String()).
				Float64("score", report.Result.Score()).
				Dur("elapsed", report.Elapsed)
			if tracker != nil {
				ev = ev.Float64("elo_change", tracker.Update(a.Name, b.Name, report.Result))
			}
			ev.Msg("match-done")
		}
	}
	return res, nil
}

// Record returns the storage form of a match report.
func (r MatchReport) Record(cfg MatchConfig) storage.MatchRecord {
	rec := storage.MatchRecord{
		White:    r.Engine1,
		Black:    r.Engine2,
		Wins:     r.Result.Wins,
		Losses:   r.Result.Losses,
		Draws:    r.Result.Draws,
		Depth:    cfg.Depth,
		MoveTime: cfg.MoveTime,
		PlayedAt: time.Now(),
	}
	for _, g := range r.Games {
		rec.PGN = append(rec.PGN, g.PGN)
	}
	return rec
}

// Save persists every match of the tournament.
func (r *Results) Save(s MatchStore) error {
	for _, m := range r.Matches {
		if _, err := s.SaveMatch(m.Record(r.Config)); err != nil {
			return err
		}
	}
	return nil
}

// WriteReport writes a text summary of the tournament.
func (r *Results) WriteReport(w io.Writer) error {
	fmt.Fprintf(w, "=== Tournament: %s ===\n\n", r.Name)
	fmt.Fprintf(w, "Participants: %s\n", strings.Join(r.Participants, ", "))
	fmt.Fprintf(w, "Config: %d games/match, depth %d, max %d plies\n\n", r.Config.Games, r.Config.Depth, r.Config.MaxMoves)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Engine 1\tEngine 2\tW\tL\tD\tScore")
	for _, m := range r.Matches {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%.1f%%\n",
			m.Engine1, m.Engine2, m.Result.Wins, m.Result.Losses, m.Result.Draws, 100*m.Result.Score())
	}
	return tw.Flush()
}

// WriteLeaderboard writes standings as a table.
func WriteLeaderboard(w io.Writer, standings []Standing) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Engine\tElo\tGames\tW\tL\tD\t")
	for _, s := range standings {
		fmt.Fprintf(tw, "%s\t%.1f\t%d\t%d\t%d\t%d\t\n", s.Name, s.Elo, s.Games, s.Wins, s.Losses, s.Draws)
	}
	return tw.Flush()
}
