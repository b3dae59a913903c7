package perft

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dylhunn/dragontoothmg"

	"github.com/hailam/chesscore/internal/board"
)

// Divergence describes the first node where the board package and the
// reference generator disagree.
type Divergence struct {
	Path    []string // moves from the root
	FEN     string
	Missing []string // generated by the reference only
	Extra   []string // generated by us only
}

func (d *Divergence) Error() string {
	path := strings.Join(d.Path, " ")
	if path == "" {
		path = "(root)"
	}
	return fmt.Sprintf("perft: move lists diverge after %s at %s: missing %v, extra %v",
		path, d.FEN, d.Missing, d.Extra)
}

// CrossCheck walks the legal move tree to depth with both the board package
// and dragontoothmg, comparing the move sets at every node. It returns a
// *Divergence for the first disagreement, or nil.
func CrossCheck(fen string, depth int) error {
	p, err := board.ParseFEN(fen)
	if err != nil {
		return err
	}
	ref := dragontoothmg.ParseFen(fen)
	lists := make([]board.MoveList, depth+1)
	return crossCheck(p, &ref, depth, lists, nil)
}

func crossCheck(p *board.Position, ref *dragontoothmg.Board, depth int, lists []board.MoveList, path []string) error {
	if depth <= 0 {
		return nil
	}
	ml := &lists[depth]
	p.GenerateLegal(ml)

	refMoves := ref.GenerateLegalMoves()
	byText := make(map[string]dragontoothmg.Move, len(refMoves))
	for _, m := range refMoves {
		byText[m.String()] = m
	}

	var extra []string
	for _, m := range ml.Slice() {
		s := m.String()
		if _, ok := byText[s]; !ok {
			extra = append(extra, s)
			continue
		}
		delete(byText, s)
	}
	if len(extra) > 0 || len(byText) > 0 {
		missing := make([]string, 0, len(byText))
		for s := range byText {
			missing = append(missing, s)
		}
		slices.Sort(missing)
		slices.Sort(extra)
		return &Divergence{Path: slices.Clone(path), FEN: p.FEN(), Missing: missing, Extra: extra}
	}

	for i := 0; i < ml.Len(); i++ {
		m := ml.At(i)
		rm := findRef(refMoves, m.String())
		undo := p.MakeMove(m)
		unapply := ref.Apply(rm)
		err := crossCheck(p, ref, depth-1, lists, append(path, m.String()))
		unapply()
		p.UnmakeMove(m, undo)
		if err != nil {
			return err
		}
	}
	return nil
}

func findRef(moves []dragontoothmg.Move, text string) dragontoothmg.Move {
	for _, m := range moves {
		if m.String() == text {
			return m
		}
	}
	panic("perft: reference move vanished: " + text)
}
