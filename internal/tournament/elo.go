package tournament

import (
	"cmp"
	"errors"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/hailam/chesscore/internal/storage"
)

// Elo parameters.
const (
	DefaultElo = 1500.0
	KFactor    = 32.0
)

// Standing is one leaderboard row.
type Standing struct {
	Name   string
	Elo    float64
	Games  int
	Wins   int
	Losses int
	Draws  int
}

// Score returns the points fraction the engine has won.
func (s Standing) Score() float64 {
	return MatchResult{Wins: s.Wins, Losses: s.Losses, Draws: s.Draws}.Score()
}

// Update is one rating change applied by the tracker.
type Update struct {
	Engine1 string
	Engine2 string
	Result  MatchResult
	Change  float64 // added to Engine1, subtracted from Engine2
	At      time.Time
}

// RatingStore persists ratings.
type RatingStore interface {
	Ratings() ([]storage.Rating, error)
	SaveRating(storage.Rating) error
}

// EloTracker keeps Elo ratings for engines by name. It is safe for
// concurrent use.
type EloTracker struct {
	mu      sync.Mutex
	players map[string]*Standing
	history []Update
}

// NewEloTracker creates an empty tracker.
func NewEloTracker() *EloTracker {
	return &EloTracker{players: make(map[string]*Standing)}
}

func (t *EloTracker) player(name string) *Standing {
	p, ok := t.players[name]
	if !ok {
		p = &Standing{Name: name, Elo: DefaultElo}
		t.players[name] = p
	}
	return p
}

// Rating returns the engine's rating, DefaultElo when it has none yet.
func (t *EloTracker) Rating(name string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.player(name).Elo
}

// Games returns the number of games the engine has played.
func (t *EloTracker) Games(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.players[name]; ok {
		return p.Games
	}
	return 0
}

// ExpectedScore returns the score expected of engine1 against engine2.
func (t *EloTracker) ExpectedScore(engine1, engine2 string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return expected(t.player(engine1).Elo, t.player(engine2).Elo)
}

func expected(r1, r2 float64) float64 {
	return 1 / (1 + math.Pow(10, (r2-r1)/400))
}

// Update applies a match result, from engine1's point of view, to both
// ratings and returns engine1's rating change. The change is
// K × games × (actual − expected), mirrored for engine2.
func (t *EloTracker) Update(engine1, engine2 string, result MatchResult) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	p1, p2 := t.player(engine1), t.player(engine2)
	games := result.Total()
	change := KFactor * float64(games) * (result.Score() - expected(p1.Elo, p2.Elo))
	p1.Elo += change
	p2.Elo -= change

	p1.Games += games
	p1.Wins += result.Wins
	p1.Losses += result.Losses
	p1.Draws += result.Draws
	p2.Games += games
	p2.Wins += result.Losses
	p2.Losses += result.Wins
	p2.Draws += result.Draws

	t.history = append(t.history, Update{
		Engine1: engine1,
		Engine2: engine2,
		Result:  result,
		Change:  change,
		At:      time.Now(),
	})
	return change
}

// History returns the applied updates, oldest first.
func (t *EloTracker) History() []Update {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.history)
}

// Leaderboard returns all engines by rating, highest first.
func (t *EloTracker) Leaderboard() []Standing {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Standing, 0, len(t.players))
	for _, p := range t.players {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b Standing) int {
		if c := cmp.Compare(b.Elo, a.Elo); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// Load merges ratings from s into the tracker.
func (t *EloTracker) Load(s RatingStore) error {
	ratings, err := s.Ratings()
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range ratings {
		t.players[r.Name] = &Standing{
			Name:   r.Name,
			Elo:    r.Elo,
			Games:  r.Games,
			Wins:   r.Wins,
			Losses: r.Losses,
			Draws:  r.Draws,
		}
	}
	return nil
}

// Save writes every rating to s.
func (t *EloTracker) Save(s RatingStore) error {
	var errs []error
	for _, p := range t.Leaderboard() {
		errs = append(errs, s.SaveRating(storage.Rating{
			Name:   p.Name,
			Elo:    p.Elo,
			Games:  p.Games,
			Wins:   p.Wins,
			Losses: p.Losses,
			Draws:  p.Draws,
		}))
	}
	return errors.Join(errs...)
}
