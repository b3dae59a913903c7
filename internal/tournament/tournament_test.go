package tournament

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/openings"
	"github.com/hailam/chesscore/internal/storage"
)

func quickConfig(games int) MatchConfig {
	cfg := DefaultMatchConfig()
	cfg.Games = games
	cfg.Depth = 1
	cfg.MaxMoves = 40
	return cfg
}

func TestMatchResultScore(t *testing.T) {
	var m MatchResult
	if m.Score() != 0.5 {
		t.Errorf("empty match score = %v, want 0.5", m.Score())
	}
	m.Add(Win)
	m.Add(Win)
	m.Add(Draw)
	m.Add(Loss)
	if m.Total() != 4 {
		t.Errorf("Total = %d", m.Total())
	}
	if m.Score() != 0.625 {
		t.Errorf("Score = %v, want 0.625", m.Score())
	}
	if f := m.Flip(); f.Wins != 1 || f.Losses != 2 || f.Draws != 1 {
		t.Errorf("Flip = %+v", f)
	}
	if m.String() != "+2 -1 =1" {
		t.Errorf("String = %q", m.String())
	}
}

func TestEloExpectedScore(t *testing.T) {
	tr := NewEloTracker()
	if e := tr.ExpectedScore("a", "b"); math.Abs(e-0.5) > 1e-9 {
		t.Errorf("equal ratings expected %v, want 0.5", e)
	}
	if tr.Rating("a") != DefaultElo {
		t.Errorf("new engine rating = %v", tr.Rating("a"))
	}
	// 400 points ahead expects 10/11.
	if e := expected(1900, 1500); math.Abs(e-10.0/11) > 1e-9 {
		t.Errorf("expected(1900, 1500) = %v", e)
	}
}

func TestEloUpdate(t *testing.T) {
	tr := NewEloTracker()
	change := tr.Update("engine1", "engine2", MatchResult{Wins: 10})
	if math.Abs(change-160) > 1e-9 {
		t.Errorf("change = %v, want 160", change)
	}
	if tr.Rating("engine1") != DefaultElo+160 || tr.Rating("engine2") != DefaultElo-160 {
		t.Errorf("ratings = %v/%v", tr.Rating("engine1"), tr.Rating("engine2"))
	}
	if tr.Games("engine1") != 10 || tr.Games("engine2") != 10 {
		t.Errorf("games = %d/%d", tr.Games("engine1"), tr.Games("engine2"))
	}

	lb := tr.Leaderboard()
	if len(lb) != 2 || lb[0].Name != "engine1" || lb[1].Losses != 10 {
		t.Errorf("Leaderboard = %+v", lb)
	}
	if h := tr.History(); len(h) != 1 || h[0].Change != change {
		t.Errorf("History = %+v", h)
	}

	// A drawn match between equals changes nothing.
	tr2 := NewEloTracker()
	if c := tr2.Update("x", "y", MatchResult{Draws: 4}); c != 0 {
		t.Errorf("even draw change = %v", c)
	}
}

func TestEloPersistence(t *testing.T) {
	store, err := storage.Open(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	tr := NewEloTracker()
	tr.Update("Classical v1.0", "Random v1.0", MatchResult{Wins: 3, Draws: 1})
	if err := tr.Save(store); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := NewEloTracker()
	if err := loaded.Load(store); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := loaded.Rating("Classical v1.0"), tr.Rating("Classical v1.0"); got != want {
		t.Errorf("loaded rating = %v, want %v", got, want)
	}
	if loaded.Games("Random v1.0") != 4 {
		t.Errorf("loaded games = %d", loaded.Games("Random v1.0"))
	}
}

func TestAdjudicate(t *testing.T) {
	tests := []struct {
		name    string
		fen     string
		history []uint64
		over    bool
		result  GameResult
		reason  string
	}{
		{"start", board.StartFEN, nil, false, Draw, ""},
		{"fools mate", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", nil, true, Loss, ByCheckmate},
		{"back rank", "R5k1/5ppp/8/8/8/8/8/6K1 b - - 1 1", nil, true, Win, ByCheckmate},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", nil, true, Draw, ByStalemate},
		{"fifty moves", "4k3/8/8/8/8/8/8/R3K3 w - - 100 80", nil, true, Draw, ByFiftyMoves},
		{"bare kings", "4k3/8/8/8/8/8/8/4K3 w - - 0 1", nil, true, Draw, ByInsufficient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := board.ParseFEN(tt.fen)
			if err != nil {
				t.Fatal(err)
			}
			var legal board.MoveList
			over, res, reason := adjudicate(pos, tt.history, &legal)
			if over != tt.over || res != tt.result || reason != tt.reason {
				t.Errorf("adjudicate = %v %v %q, want %v %v %q", over, res, reason, tt.over, tt.result, tt.reason)
			}
		})
	}
}

func TestAdjudicateRepetition(t *testing.T) {
	pos := board.NewPosition()
	var history []uint64
	for i := 0; i < 2; i++ {
		for _, s := range []string{"g1f3", "g8f6", "f3g1", "f6g8"} {
			m, err := pos.ParseMove(s)
			if err != nil {
				t.Fatal(err)
			}
			history = append(history, pos.Hash)
			pos.MakeMove(m)
		}
	}
	var legal board.MoveList
	over, res, reason := adjudicate(pos, history, &legal)
	if !over || res != Draw || reason != ByRepetition {
		t.Errorf("adjudicate = %v %v %q, want threefold", over, res, reason)
	}
	if over, _, _ := adjudicate(pos, history[4:], &legal); over {
		t.Error("two occurrences adjudicated as a draw")
	}
}

// stubborn always returns a fixed move, legal or not.
type stubborn struct{ move board.Move }

func (s *stubborn) Name() string                  { return "stubborn" }
func (s *stubborn) NewGame()                      {}
func (s *stubborn) SetOption(string, string) bool { return false }
func (s *stubborn) SetHistory([]uint64)           {}
func (s *stubborn) Stop()                         {}
func (s *stubborn) Search(context.Context, *board.Position, engine.SearchLimits) engine.SearchResult {
	return engine.SearchResult{BestMove: s.move}
}

func TestPlayGameIllegalMoveLoses(t *testing.T) {
	r := NewRunner(quickConfig(1))
	white := engine.NewRandomEngine(engine.Config{})
	game, res, err := r.PlayGame(context.Background(), white, &stubborn{move: board.NoMove}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res != Win || game.Reason != ByIllegalMove || game.Result != "1-0" {
		t.Errorf("result %v %q %s, want white win by illegal move", res, game.Reason, game.Result)
	}
	if game.Plies != 1 {
		t.Errorf("Plies = %d, want 1", game.Plies)
	}
}

func TestPlayGameMaxMoves(t *testing.T) {
	cfg := quickConfig(1)
	cfg.MaxMoves = 6
	r := NewRunner(cfg)
	a := engine.NewRandomEngine(engine.Config{Seed: 1})
	b := engine.NewRandomEngine(engine.Config{Seed: 2})
	game, res, err := r.PlayGame(context.Background(), a, b, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Random play rarely mates inside six plies.
	if game.Reason == ByMaxMoves && (res != Draw || game.Plies != 6) {
		t.Errorf("max-moves game: result %v plies %d", res, game.Plies)
	}
	if !strings.Contains(game.PGN, `[Termination "`+game.Reason+`"]`) {
		t.Errorf("PGN lacks termination tag:\n%s", game.PGN)
	}
}

func TestRunMatch(t *testing.T) {
	cfg := quickConfig(4)
	cfg.Concurrency = 2
	suite, err := openings.FromLines(openings.Default)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Openings = suite

	report, err := NewRunner(cfg).RunMatch(context.Background(), engine.FactoryFor("classical"), engine.FactoryFor("random"))
	if err != nil {
		t.Fatalf("RunMatch: %v", err)
	}
	if report.Result.Total() != 4 || len(report.Games) != 4 {
		t.Fatalf("played %d games (%d recorded), want 4", report.Result.Total(), len(report.Games))
	}
	if report.Engine1 != "Classical v1.0" || report.Engine2 != "Random v1.0" {
		t.Errorf("engines = %q vs %q", report.Engine1, report.Engine2)
	}
	for i, g := range report.Games {
		if g.Round != i+1 {
			t.Errorf("game %d has round %d", i, g.Round)
		}
		wantWhite := "Classical v1.0"
		if i%2 == 1 {
			wantWhite = "Random v1.0"
		}
		if g.White != wantWhite {
			t.Errorf("round %d white = %q, want %q", g.Round, g.White, wantWhite)
		}
		if g.Plies < 8 {
			t.Errorf("round %d: %d plies, opening is 8", g.Round, g.Plies)
		}
	}
}

func TestRoundRobin(t *testing.T) {
	store, err := storage.Open(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := quickConfig(2)
	cfg.MaxMoves = 16
	entrants := []Entrant{
		{Name: "random-a", Factory: engine.FactoryFor("random")},
		{Name: "random-b", Factory: engine.FactoryFor("random")},
		{Name: "classical", Factory: engine.FactoryFor("classical")},
	}
	tracker := NewEloTracker()
	res, err := RoundRobin(context.Background(), "smoke", entrants, cfg, tracker)
	if err != nil {
		t.Fatalf("RoundRobin: %v", err)
	}
	if len(res.Matches) != 3 {
		t.Fatalf("matches = %d, want 3", len(res.Matches))
	}
	for _, e := range entrants {
		if g := tracker.Games(e.Name); g != 4 {
			t.Errorf("%s played %d games, want 4", e.Name, g)
		}
	}

	if err := res.Save(store); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saved, err := store.Matches()
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 3 || len(saved[0].PGN) != 2 {
		t.Errorf("saved %d matches", len(saved))
	}

	var buf bytes.Buffer
	if err := res.WriteReport(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "random-a") || !strings.Contains(buf.String(), "Tournament: smoke") {
		t.Errorf("report:\n%s", buf.String())
	}
	buf.Reset()
	if err := WriteLeaderboard(&buf, tracker.Leaderboard()); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != 4 {
		t.Errorf("leaderboard:\n%s", buf.String())
	}

	if _, err := RoundRobin(context.Background(), "solo", entrants[:1], cfg, nil); err != ErrTooFewEngines {
		t.Errorf("single entrant: err = %v", err)
	}
}
