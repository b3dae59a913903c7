// Package perft counts leaf nodes of the legal move tree. It is the
// correctness oracle for move generation and make/unmake; nothing on the
// search path depends on it.
package perft

import (
	"slices"

	"github.com/hailam/chesscore/internal/board"
)

// Perft returns the number of leaf positions depth plies below p.
// Depth 0 counts p itself. p is restored before returning.
func Perft(p *board.Position, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	lists := make([]board.MoveList, depth)
	return perft(p, depth, lists)
}

// perft uses one preallocated move buffer per remaining ply.
func perft(p *board.Position, depth int, lists []board.MoveList) uint64 {
	ml := &lists[depth-1]
	p.GenerateLegal(ml)
	if depth == 1 {
		return uint64(ml.Len())
	}
	var nodes uint64
	for i := 0; i < ml.Len(); i++ {
		m := ml.At(i)
		undo := p.MakeMove(m)
		nodes += perft(p, depth-1, lists)
		p.UnmakeMove(m, undo)
	}
	return nodes
}

// Split is the subtree size below one root move.
type Split struct {
	Move  string
	Nodes uint64
}

// Divide returns the perft count below each legal root move, sorted by
// move text, which is the usual way to bisect a mismatch.
func Divide(p *board.Position, depth int) []Split {
	if depth <= 0 {
		return nil
	}
	var root board.MoveList
	p.GenerateLegal(&root)
	lists := make([]board.MoveList, depth)
	out := make([]Split, 0, root.Len())
	for _, m := range root.Slice() {
		undo := p.MakeMove(m)
		n := uint64(1)
		if depth > 1 {
			n = perft(p, depth-1, lists)
		}
		p.UnmakeMove(m, undo)
		out = append(out, Split{Move: m.String(), Nodes: n})
	}
	slices.SortFunc(out, func(a, b Split) int {
		switch {
		case a.Move < b.Move:
			return -1
		case a.Move > b.Move:
			return 1
		}
		return 0
	})
	return out
}

// Total sums a divide result.
func Total(splits []Split) uint64 {
	var n uint64
	for _, s := range splits {
		n += s.Nodes
	}
	return n
}
