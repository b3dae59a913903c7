package uci

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

func newTestUCI(t *testing.T) (*UCI, *bytes.Buffer) {
	t.Helper()
	u, err := New("classical", engine.Config{})
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	u.out = &out
	return u, &out
}

// run feeds commands and waits for any search they start.
func run(u *UCI, cmds ...string) {
	for _, c := range cmds {
		u.Handle(c)
	}
	if u.searchDone != nil {
		<-u.searchDone
		u.cancel()
		u.searchDone, u.cancel = nil, nil
	}
}

func bestMove(t *testing.T, out string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if m, ok := strings.CutPrefix(line, "bestmove "); ok {
			return m
		}
	}
	t.Fatalf("no bestmove in output:\n%s", out)
	return ""
}

func TestHandshake(t *testing.T) {
	u, err := New("classical", engine.Config{})
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := u.Run(strings.NewReader("uci\nisready\nquit\n"), &out); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"id name chesscore (Classical v1.0)",
		"option name Engine type combo default Classical var Classical var Neural var Random",
		"option name Depth type spin default 4 min 1 max 64",
		"option name EvalFile type string default <empty>",
		"option name Hash type spin",
		"uciok",
		"readyok",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	if strings.Count(out.String(), "option name Depth ") != 1 {
		t.Error("Depth advertised twice")
	}
}

func TestParsePosition(t *testing.T) {
	pos, history, err := ParsePosition(strings.Fields("startpos moves e2e4 e7e5 g1f3"))
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 3 {
		t.Errorf("history length = %d, want 3", len(history))
	}
	if history[0] != board.NewPosition().Hash {
		t.Error("history does not start with the initial position")
	}
	if want := "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2"; pos.FEN() != want {
		t.Errorf("FEN = %s, want %s", pos.FEN(), want)
	}

	pos, history, err = ParsePosition(strings.Fields("fen 4k3/8/8/8/8/8/8/R3K3 w Q - 0 1 moves e1c1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || pos.FEN() != "4k3/8/8/8/8/8/8/2KR4 b - - 1 1" {
		t.Errorf("after castling: %s (history %d)", pos.FEN(), len(history))
	}

	for _, bad := range []string{"", "startpos moves e2e5", "fen 8/8 w - - 0 1", "kiwipete"} {
		if _, _, err := ParsePosition(strings.Fields(bad)); err == nil {
			t.Errorf("ParsePosition(%q) accepted", bad)
		}
	}
}

func TestPositionErrorKeepsBoard(t *testing.T) {
	u, out := newTestUCI(t)
	run(u, "position startpos moves e2e4", "position startpos moves e2e4 e2e4")
	if u.position.SideToMove != board.Black || len(u.history) != 1 {
		t.Errorf("bad position command replaced the board: %s", u.position.FEN())
	}
	if !strings.Contains(out.String(), "info string invalid move e2e4") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestParseGo(t *testing.T) {
	tests := []struct {
		args string
		want engine.SearchLimits
	}{
		{"depth 6", engine.SearchLimits{Depth: 6}},
		{"nodes 5000", engine.SearchLimits{Nodes: 5000}},
		{"movetime 250", engine.SearchLimits{MoveTime: 250 * time.Millisecond}},
		{"infinite", engine.SearchLimits{Infinite: true}},
		{"wtime 60000 btime 30000 winc 1000 binc 500 movestogo 20", engine.SearchLimits{
			Time:      [2]time.Duration{time.Minute, 30 * time.Second},
			Inc:       [2]time.Duration{time.Second, 500 * time.Millisecond},
			MovesToGo: 20,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			if got := ParseGo(strings.Fields(tt.args)); got != tt.want {
				t.Errorf("ParseGo = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseSetOption(t *testing.T) {
	name, value := ParseSetOption(strings.Fields("name Eval File value /tmp/a b.nnue"))
	if name != "Eval File" || value != "/tmp/a b.nnue" {
		t.Errorf("got %q=%q", name, value)
	}
	name, value = ParseSetOption(strings.Fields("name Clear Hash"))
	if name != "Clear Hash" || value != "" {
		t.Errorf("button option: got %q=%q", name, value)
	}
}

func TestGoDepth(t *testing.T) {
	u, out := newTestUCI(t)
	run(u, "position startpos moves e2e4", "go depth 3")

	text := out.String()
	for _, want := range []string{"info depth 1 ", "info depth 3 ", " pv "} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	move := bestMove(t, text)
	if _, err := u.position.ParseMove(move); err != nil {
		t.Errorf("bestmove %s is not legal: %v", move, err)
	}
}

func TestGoFindsMate(t *testing.T) {
	u, out := newTestUCI(t)
	run(u, "position fen 6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "go depth 3")
	if m := bestMove(t, out.String()); m != "a1a8" {
		t.Errorf("bestmove = %s, want a1a8", m)
	}
	if !strings.Contains(out.String(), "score mate 1") {
		t.Errorf("no mate score:\n%s", out.String())
	}
}

func TestGoNoLegalMoves(t *testing.T) {
	u, out := newTestUCI(t)
	run(u, "position fen 7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", "go depth 2")
	if m := bestMove(t, out.String()); m != "0000" {
		t.Errorf("bestmove = %s, want 0000", m)
	}
}

func TestStopInfinite(t *testing.T) {
	u, out := newTestUCI(t)
	u.Handle("position startpos")
	u.Handle("go infinite")
	time.Sleep(50 * time.Millisecond)
	u.Handle("stop")
	if u.searchDone != nil {
		t.Error("stop did not wait for the search")
	}
	bestMove(t, out.String())
}

func TestSetOption(t *testing.T) {
	u, out := newTestUCI(t)
	run(u,
		"setoption name Depth value 2",
		"setoption name ModelVersion value v001",
		"setoption name Bogus value 1",
	)
	text := out.String()
	if !strings.Contains(text, "info string Classical v1.0 ignores option ModelVersion") {
		t.Errorf("output:\n%s", text)
	}
	if !strings.Contains(text, "info string unknown option Bogus") {
		t.Errorf("output:\n%s", text)
	}
	if len(u.settings) != 2 {
		t.Errorf("remembered %d settings, want 2", len(u.settings))
	}

	out.Reset()
	run(u, "position startpos", "go")
	if strings.Contains(out.String(), "info depth 3 ") {
		t.Errorf("Depth 2 not applied:\n%s", out.String())
	}
}

func TestSwitchEngine(t *testing.T) {
	u, out := newTestUCI(t)
	run(u, "setoption name Engine value Random")
	if u.Engine().Name() != "Random v1.0" {
		t.Fatalf("engine = %s", u.Engine().Name())
	}
	run(u, "position startpos", "go depth 1")
	bestMove(t, out.String())

	run(u, "setoption name Engine value Neural")
	if !strings.HasPrefix(u.Engine().Name(), "Neural") {
		t.Errorf("engine = %s", u.Engine().Name())
	}

	out.Reset()
	run(u, "setoption name Engine value Quantum")
	if !strings.Contains(out.String(), "unknown engine") || !strings.HasPrefix(u.Engine().Name(), "Neural") {
		t.Errorf("bad switch: %s\n%s", u.Engine().Name(), out.String())
	}
}

func TestDebugPrintsSAN(t *testing.T) {
	t.Cleanup(func() { board.DebugChecks = false })
	u, out := newTestUCI(t)
	run(u, "setoption name Debug value true", "position startpos", "go depth 2")
	if !strings.Contains(out.String(), "info string pv 1. ") {
		t.Errorf("no SAN pv:\n%s", out.String())
	}
}

func TestPerftCommand(t *testing.T) {
	u, out := newTestUCI(t)
	run(u, "perft 2")
	if !strings.Contains(out.String(), "Nodes: 400") || !strings.Contains(out.String(), "e2e4: 20") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestDisplay(t *testing.T) {
	u, out := newTestUCI(t)
	run(u, "position startpos", "d", "frobnicate")
	if !strings.Contains(out.String(), "Fen: "+board.StartFEN) {
		t.Errorf("output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "unknown command frobnicate") {
		t.Errorf("output:\n%s", out.String())
	}
}
