package engine

import (
	"context"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
)

func mustFEN(t testing.TB, fen string) *board.Position {
	t.Helper()
	p, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func newTestSearcher() *Searcher {
	return NewSearcher(Classical, NewTranspositionTable(1))
}

func TestSearchBasic(t *testing.T) {
	pos := board.NewPosition()
	before := *pos
	res := newTestSearcher().Search(context.Background(), pos, SearchLimits{Depth: 4})

	var legal board.MoveList
	pos.GenerateLegal(&legal)
	if !legal.Contains(res.BestMove) {
		t.Fatalf("best move %s is not legal", res.BestMove)
	}
	if res.Depth != 4 {
		t.Errorf("depth = %d, want 4", res.Depth)
	}
	if res.Terminal != NotTerminal || res.Stopped {
		t.Errorf("unexpected result %+v", res)
	}
	if len(res.PV) == 0 || res.PV[0] != res.BestMove {
		t.Errorf("pv %v does not start with best move %s", res.PV, res.BestMove)
	}
	if *pos != before {
		t.Error("search modified the caller's position")
	}
	t.Logf("Best move: %s (%s, %d nodes)", res.BestMove, ScoreString(res.Score), res.Nodes)
}

func TestSearchFindsMate(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		depth int
		move  string
		mate  int
	}{
		{"back rank", "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", 3, "a1a8", 1},
		{"scholar", "r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5Q2/PPPP1PPP/RNB1K1NR w KQkq - 0 1", 3, "f3f7", 1},
		{"queen and king", "7k/8/5K2/8/8/8/8/6Q1 w - - 0 1", 3, "g1g7", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := mustFEN(t, tt.fen)
			res := newTestSearcher().Search(context.Background(), pos, SearchLimits{Depth: tt.depth})
			if res.BestMove.String() != tt.move {
				t.Errorf("best move %s, want %s", res.BestMove, tt.move)
			}
			if got := MateIn(res.Score); got != tt.mate {
				t.Errorf("mate in %d (score %d), want %d", got, res.Score, tt.mate)
			}
		})
	}
}

func TestSearchPrefersShorterMate(t *testing.T) {
	// Mate in one is available; deeper searches must not prefer a longer one.
	pos := mustFEN(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	res := newTestSearcher().Search(context.Background(), pos, SearchLimits{Depth: 5})
	if res.Score != MateScore-1 {
		t.Errorf("score %d, want %d", res.Score, MateScore-1)
	}
}

func TestSearchTerminalRoot(t *testing.T) {
	tests := []struct {
		name     string
		fen      string
		terminal Terminal
		score    int
	}{
		{"checkmate", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", Checkmate, -MateScore},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", Stalemate, DrawScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newTestSearcher().Search(context.Background(), mustFEN(t, tt.fen), SearchLimits{Depth: 3})
			if res.BestMove != board.NoMove {
				t.Errorf("best move %s in terminal position", res.BestMove)
			}
			if res.Terminal != tt.terminal || res.Score != tt.score {
				t.Errorf("got %v/%d, want %v/%d", res.Terminal, res.Score, tt.terminal, tt.score)
			}
		})
	}
}

func TestSearchAvoidsStalemate(t *testing.T) {
	// Qf7 stalemates; any sensible move keeps the win.
	pos := mustFEN(t, "7k/8/6K1/8/8/8/8/5Q2 w - - 0 1")
	res := newTestSearcher().Search(context.Background(), pos, SearchLimits{Depth: 3})
	if res.BestMove.String() == "f1f7" {
		t.Error("search chose a stalemating move")
	}
	if res.Score <= 0 {
		t.Errorf("score %d, want a winning score", res.Score)
	}
}

func TestSearchDrawByInsufficientMaterial(t *testing.T) {
	// Capturing the checking queen leaves bare kings; anything else loses.
	pos := mustFEN(t, "8/8/8/3k4/8/8/3q4/4K3 w - - 0 1")
	res := newTestSearcher().Search(context.Background(), pos, SearchLimits{Depth: 2})
	if res.BestMove.String() != "e1d2" {
		t.Fatalf("best move %s, want e1d2", res.BestMove)
	}
	if res.Score != DrawScore {
		t.Errorf("score %d, want draw", res.Score)
	}
}

func TestRepetitionCount(t *testing.T) {
	s := newTestSearcher()
	pos := board.NewPosition()
	start := pos.Hash

	// Shuffle knights out and back twice; the start position recurs.
	var hashes []uint64
	for _, text := range []string{"g1f3", "g8f6", "f3g1", "f6g8", "g1f3", "g8f6", "f3g1", "f6g8"} {
		hashes = append(hashes, pos.Hash)
		m, err := pos.ParseMove(text)
		if err != nil {
			t.Fatal(err)
		}
		pos.MakeMove(m)
	}
	if pos.Hash != start {
		t.Fatal("shuffle did not return to the start position")
	}
	s.pos = *pos
	s.hashes = append(hashes, pos.Hash)
	if got := s.repetitions(); got != 3 {
		t.Errorf("repetitions = %d, want 3", got)
	}
	if !s.isDraw() {
		t.Error("threefold repetition not detected")
	}

	// Only the last occurrence before an irreversible move counts.
	s.pos.HalfMoveClock = 4
	if got := s.repetitions(); got != 2 {
		t.Errorf("repetitions with clock 4 = %d, want 2", got)
	}
}

func TestSearchUsesGameHistory(t *testing.T) {
	// White is a queen up, but has already seen the position after Kh1 twice.
	// With that history Kh1 draws, so the search must find another move.
	pos := mustFEN(t, "k7/8/8/8/8/8/8/1Q4K1 w - - 10 30")
	s := newTestSearcher()
	base := s.Search(context.Background(), pos, SearchLimits{Depth: 3})
	if base.Score <= 0 {
		t.Fatalf("baseline score %d", base.Score)
	}

	m, err := pos.ParseMove("g1h1")
	if err != nil {
		t.Fatal(err)
	}
	after := *pos
	after.MakeMove(m)
	s.NewGame()
	s.SetHistory([]uint64{1, after.Hash, 2, after.Hash})
	res := s.Search(context.Background(), pos, SearchLimits{Depth: 3})
	if res.BestMove == m {
		t.Errorf("search walked into a threefold repetition")
	}
}

func TestSearchNodeLimit(t *testing.T) {
	pos := board.NewPosition()
	res := newTestSearcher().Search(context.Background(), pos, SearchLimits{Nodes: 5000})
	if res.BestMove == board.NoMove {
		t.Fatal("no move under a node limit")
	}
	if !res.Stopped {
		t.Error("node limit did not stop the search")
	}
	// Depth 1 always completes; beyond that the limit is exact.
	if res.Depth > 1 && res.Nodes > 5000 {
		t.Errorf("searched %d nodes, limit 5000", res.Nodes)
	}
}

func TestSearchMoveTime(t *testing.T) {
	pos := mustFEN(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	const budget = 200 * time.Millisecond
	start := time.Now()
	res := newTestSearcher().Search(context.Background(), pos, SearchLimits{MoveTime: budget})
	elapsed := time.Since(start)
	if res.BestMove == board.NoMove || res.Depth < 1 {
		t.Fatalf("no completed iteration: %+v", res)
	}
	if elapsed > budget+150*time.Millisecond {
		t.Errorf("search took %v with a %v budget", elapsed, budget)
	}
}

func TestSearchStop(t *testing.T) {
	pos := board.NewPosition()
	s := newTestSearcher()
	done := make(chan SearchResult)
	go func() {
		done <- s.Search(context.Background(), pos, SearchLimits{Infinite: true})
	}()
	time.Sleep(50 * time.Millisecond)
	s.Stop()
	select {
	case res := <-done:
		if !res.Stopped || res.BestMove == board.NoMove {
			t.Errorf("unexpected result after stop: %+v", res)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("search ignored Stop")
	}
}

func TestSearchContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res := newTestSearcher().Search(ctx, board.NewPosition(), SearchLimits{Infinite: true})
	if !res.Stopped {
		t.Error("cancelled context did not stop the search")
	}
	if res.BestMove == board.NoMove {
		t.Error("no best move after cancellation")
	}
}

func TestConcurrentEngines(t *testing.T) {
	fens := []string{
		board.StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	}
	want := make([]board.Move, len(fens))
	for i, fen := range fens {
		want[i] = NewClassicalEngine(Config{}).Search(context.Background(), mustFEN(t, fen), SearchLimits{Depth: 3}).BestMove
	}

	got := make([]board.Move, len(fens))
	var g errgroup.Group
	for i, fen := range fens {
		i, fen := i, fen
		g.Go(func() error {
			pos, err := board.ParseFEN(fen)
			if err != nil {
				return err
			}
			got[i] = NewClassicalEngine(Config{}).Search(context.Background(), pos, SearchLimits{Depth: 3}).BestMove
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	for i := range fens {
		if got[i] != want[i] {
			t.Errorf("%s: concurrent %s, sequential %s", fens[i], got[i], want[i])
		}
	}
}

func TestTranspositionTable(t *testing.T) {
	tt := NewTranspositionTable(1)
	if tt.Size()&(tt.Size()-1) != 0 {
		t.Fatalf("size %d is not a power of two", tt.Size())
	}
	key := uint64(0xDEADBEEF12345678)
	if _, ok := tt.Probe(key, 0); ok {
		t.Fatal("hit in an empty table")
	}

	tt.Store(key, board.NoMove, 42, 5, TTExact, 0)
	e, ok := tt.Probe(key, 0)
	if !ok || e.Score != 42 || e.Depth != 5 || e.Flag != TTExact {
		t.Fatalf("probe = %+v, %v", e, ok)
	}

	// A mate found 3 plies below the root is 2 plies away when stored at ply 1
	// and must read back relative to the probing ply.
	tt.Store(key, board.NoMove, MateScore-3, 6, TTLowerBound, 1)
	e, _ = tt.Probe(key, 5)
	if int(e.Score) != MateScore-7 {
		t.Errorf("mate score at ply 5 = %d, want %d", e.Score, MateScore-7)
	}

	tt.Clear()
	if _, ok := tt.Probe(key, 0); ok {
		t.Error("hit after Clear")
	}
}

func TestScoreString(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{35, "cp 35"},
		{-120, "cp -120"},
		{MateScore - 1, "mate 1"},
		{MateScore - 3, "mate 2"},
		{-(MateScore - 2), "mate -1"},
		{-(MateScore - 4), "mate -2"},
	}
	for _, tt := range tests {
		if got := ScoreString(tt.score); got != tt.want {
			t.Errorf("ScoreString(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func BenchmarkSearchDepth5(b *testing.B) {
	pos := mustFEN(b, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	s := newTestSearcher()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.NewGame()
		s.Search(context.Background(), pos, SearchLimits{Depth: 5})
	}
}
