package perft

// Fixture is a published (position, depth, leaf count) triple.
type Fixture struct {
	Name  string
	FEN   string
	Depth int
	Nodes uint64
}

// expanded lists one fixture per depth, starting at 1, for a position whose
// counts are given in order.
func expanded(name, fen string, counts ...uint64) []Fixture {
	out := make([]Fixture, len(counts))
	for i, n := range counts {
		out[i] = Fixture{Name: name, FEN: fen, Depth: i + 1, Nodes: n}
	}
	return out
}

const (
	StartFEN    = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	KiwipeteFEN = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	Position3   = "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1"
	Position4   = "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1"
	Position5   = "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8"
	Position6   = "r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10"
)

// Fixtures is the standard suite. Entries are ordered by cost within each
// position, so callers can cap by node count.
var Fixtures = concat(
	expanded("startpos", StartFEN, 20, 400, 8902, 197281, 4865609),
	expanded("kiwipete", KiwipeteFEN, 48, 2039, 97862, 4085603),
	expanded("position3", Position3, 14, 191, 2812, 43238, 674624),
	expanded("position4", Position4, 6, 264, 9467, 422333),
	expanded("position5", Position5, 44, 1486, 62379, 2103487),
	expanded("position6", Position6, 46, 2079, 89890, 3894594),
	[]Fixture{
		{Name: "ep-pin", FEN: "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1", Depth: 1, Nodes: 6},
		{Name: "ep-pin", FEN: "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1", Depth: 2, Nodes: 94},
		{Name: "ep-discovered-check", FEN: "8/8/1k6/2b5/2pP4/8/5K2/8 b - d3 0 1", Depth: 6, Nodes: 1440467},
		{Name: "short-castle-gives-check", FEN: "5k2/8/8/8/8/8/8/4K2R w K - 0 1", Depth: 6, Nodes: 661072},
		{Name: "long-castle-gives-check", FEN: "3k4/8/8/8/8/8/8/R3K3 w Q - 0 1", Depth: 6, Nodes: 803711},
		{Name: "castling-rights-lost", FEN: "r3k2r/1b4bq/8/8/8/8/7B/R3K2R w KQkq - 0 1", Depth: 4, Nodes: 1274206},
		{Name: "promote-out-of-check", FEN: "2K2r2/4P3/8/8/8/8/8/3k4 w - - 0 1", Depth: 6, Nodes: 3821001},
		{Name: "self-stalemate", FEN: "K1k5/8/P7/8/8/8/8/8 w - - 0 1", Depth: 6, Nodes: 2217},
		{Name: "stalemate-and-checkmate", FEN: "8/k1P5/8/1K6/8/8/8/8 w - - 0 1", Depth: 7, Nodes: 567584},
		{Name: "double-check", FEN: "8/8/2k5/5q2/5n2/8/5K2/8 b - - 0 1", Depth: 4, Nodes: 23527},
	},
)

func concat(groups ...[]Fixture) []Fixture {
	var out []Fixture
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Cheap returns the fixtures whose expected count is at most maxNodes.
func Cheap(fixtures []Fixture, maxNodes uint64) []Fixture {
	var out []Fixture
	for _, f := range fixtures {
		if f.Nodes <= maxNodes {
			out = append(out, f)
		}
	}
	return out
}
