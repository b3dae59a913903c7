package board

import "testing"

var walkFENs = []string{
	StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1",
}

// walk visits every position reachable in depth plies and checks, for each
// generated move, that make/unmake is an exact involution, that the hash
// stays equal to a recomputation, and that the mover is never left in check.
func walk(t *testing.T, p *Position, depth int) {
	t.Helper()
	if depth == 0 {
		return
	}
	var ml MoveList
	p.GenerateLegal(&ml)
	for _, m := range ml.Slice() {
		before := *p
		mover := p.SideToMove
		undo := p.MakeMove(m)
		if err := p.Validate(); err != nil {
			t.Fatalf("%s after %s: %v", before.FEN(), m, err)
		}
		if p.InCheck(mover) {
			t.Fatalf("%s: %s leaves %s in check", before.FEN(), m, mover)
		}
		walk(t, p, depth-1)
		p.UnmakeMove(m, undo)
		if *p != before {
			t.Fatalf("%s: unmake %s did not restore the position\n got %s\nwant %s", before.FEN(), m, p.FEN(), before.FEN())
		}
	}
}

func TestMakeUnmakeInvolution(t *testing.T) {
	depth := 3
	if testing.Short() {
		depth = 2
	}
	for _, fen := range walkFENs {
		t.Run(fen, func(t *testing.T) {
			p, err := ParseFEN(fen)
			if err != nil {
				t.Fatal(err)
			}
			walk(t, p, depth)
		})
	}
}

func TestMakeMoveDebugChecks(t *testing.T) {
	DebugChecks = true
	defer func() { DebugChecks = false }()

	p := NewPosition()
	for _, s := range []string{"e2e4", "c7c5", "g1f3", "d7d6", "d2d4", "c5d4", "f3d4", "g8f6", "b1c3", "a7a6"} {
		m, err := p.ParseMove(s)
		if err != nil {
			t.Fatal(err)
		}
		p.MakeMove(m)
	}

	foreign := newMove(E2, E4, WhitePawn, NoPiece, NoPieceType, DoublePush)
	defer func() {
		if recover() == nil {
			t.Error("MakeMove accepted a move that was not generated")
		}
	}()
	p.MakeMove(foreign)
}

func TestMakeMoveState(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		move string
		want string
	}{
		{"double push sets ep", StartFEN, "e2e4",
			"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"},
		{"quiet move clears ep and counts", "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", "g8f6",
			"rnbqkb1r/pppppppp/5n2/8/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 1 2"},
		{"en passant removes pawn", "rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3", "e5d6",
			"rnbqkbnr/ppp1pppp/3P4/8/8/8/PPPP1PPP/RNBQKBNR b KQkq - 0 3"},
		{"king side castle", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 3 10", "e1g1",
			"r3k2r/8/8/8/8/8/8/R4RK1 b kq - 4 10"},
		{"queen side castle", "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 3 10", "e8c8",
			"2kr3r/8/8/8/8/8/8/R3K2R w KQ - 4 11"},
		{"rook move revokes one right", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "a1b1",
			"r3k2r/8/8/8/8/8/8/1R2K2R b Kkq - 1 1"},
		{"capturing a home rook revokes", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "a1a8",
			"R3k2r/8/8/8/8/8/8/4K2R b Kk - 0 1"},
		{"promotion with capture", "1n2k3/P7/8/8/8/8/8/4K3 w - - 5 40", "a7b8n",
			"1N2k3/8/8/8/8/8/8/4K3 b - - 0 40"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatal(err)
			}
			m, err := p.ParseMove(tc.move)
			if err != nil {
				t.Fatal(err)
			}
			p.MakeMove(m)
			if got := p.FEN(); got != tc.want {
				t.Errorf("after %s:\n got %s\nwant %s", tc.move, got, tc.want)
			}
			want, _ := ParseFEN(tc.want)
			if p.Hash != want.Hash {
				t.Errorf("incremental hash %016x != parsed hash %016x", p.Hash, want.Hash)
			}
		})
	}
}

func TestTranspositionsShareHash(t *testing.T) {
	a, b := NewPosition(), NewPosition()
	for _, s := range []string{"g1f3", "g8f6", "b1c3", "b8c6"} {
		m, _ := a.ParseMove(s)
		a.MakeMove(m)
	}
	for _, s := range []string{"b1c3", "b8c6", "g1f3", "g8f6"} {
		m, _ := b.ParseMove(s)
		b.MakeMove(m)
	}
	if a.Hash != b.Hash {
		t.Errorf("transposed positions hash differently: %016x vs %016x", a.Hash, b.Hash)
	}
}
