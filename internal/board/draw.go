package board

import (
	"errors"
	"fmt"
)

// IsFiftyMoveDraw reports whether fifty full moves have passed without a
// capture or pawn move.
func (p *Position) IsFiftyMoveDraw() bool {
	return p.HalfMoveClock >= 100
}

// HasInsufficientMaterial reports whether neither side can possibly mate:
// bare kings, a single minor piece, or bishops that all stand on squares of
// one colour. Two knights are treated as sufficient.
func (p *Position) HasInsufficientMaterial() bool {
	w, b := &p.Pieces[White], &p.Pieces[Black]
	if w[Pawn]|b[Pawn]|w[Rook]|b[Rook]|w[Queen]|b[Queen] != 0 {
		return false
	}
	knights := w[Knight] | b[Knight]
	bishops := w[Bishop] | b[Bishop]
	if (knights | bishops).Count() <= 1 {
		return true
	}
	return knights == 0 && (bishops&LightSquares == 0 || bishops&DarkSquares == 0)
}

// ErrInvariant marks a position whose redundant fields disagree.
var ErrInvariant = errors.New("board invariant violated")

// Validate checks every internal invariant of the position: one king per
// side, disjoint piece sets, occupancy equal to the union of the pieces,
// castling rights backed by pieces on their home squares, a plausible en
// passant target, and a Hash equal to a from-scratch recomputation.
func (p *Position) Validate() error {
	var all [2]Bitboard
	for c := White; c <= Black; c++ {
		if n := p.Pieces[c][King].Count(); n != 1 {
			return fmt.Errorf("%w: %s has %d kings", ErrInvariant, c, n)
		}
		for pt := Pawn; pt <= King; pt++ {
			if all[White]&p.Pieces[c][pt] != 0 || all[Black]&p.Pieces[c][pt] != 0 {
				return fmt.Errorf("%w: %s %s overlaps another piece", ErrInvariant, c, pt)
			}
			all[c] |= p.Pieces[c][pt]
		}
	}
	if all != p.Occupied || all[White]|all[Black] != p.All {
		return fmt.Errorf("%w: occupancy out of sync with piece sets", ErrInvariant)
	}
	for i, home := range castlingHome {
		if p.Castling&(1<<i) != 0 && (p.PieceAt(home.kingSq) != home.king || p.PieceAt(home.rookSq) != home.rook) {
			return fmt.Errorf("%w: castling right %s without pieces at home", ErrInvariant, home.right)
		}
	}
	if p.EnPassant != NoSquare && p.EnPassant.RelativeRank(p.SideToMove) != 5 {
		return fmt.Errorf("%w: en passant square %s", ErrInvariant, p.EnPassant)
	}
	if p.InCheck(p.SideToMove.Other()) {
		return fmt.Errorf("%w: side not to move is in check", ErrInvariant)
	}
	if h := p.ComputeHash(); h != p.Hash {
		return fmt.Errorf("%w: hash %016x, recomputed %016x", ErrInvariant, p.Hash, h)
	}
	return nil
}
