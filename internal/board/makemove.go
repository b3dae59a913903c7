package board

import "fmt"

// DebugChecks enables contract assertions in MakeMove: the move must be
// one GenerateLegal would produce, and the resulting position must pass
// Validate. Violations panic. It is meant for tests and debugging sessions.
var DebugChecks = false

// rookCastle gives the rook's squares for a castling move, keyed by the
// king's destination.
func rookCastle(kingTo Square) (from, to Square) {
	switch kingTo {
	case G1:
		return H1, F1
	case C1:
		return A1, D1
	case G8:
		return H8, F8
	default:
		return A8, D8
	}
}

// MakeMove applies m, which must have been generated for p, and returns the
// state needed to take it back. The hash is updated incrementally.
func (p *Position) MakeMove(m Move) UndoInfo {
	if DebugChecks {
		p.assertGenerated(m)
	}

	undo := UndoInfo{
		Captured:      m.Captured(),
		CapturedSq:    NoSquare,
		Castling:      p.Castling,
		EnPassant:     p.EnPassant,
		HalfMoveClock: p.HalfMoveClock,
		Hash:          p.Hash,
	}

	us := p.SideToMove
	from, to, pc := m.From(), m.To(), m.Piece()

	if p.EnPassant != NoSquare {
		p.Hash ^= enPassantKeys[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}

	p.HalfMoveClock++
	if pc.Type() == Pawn {
		p.HalfMoveClock = 0
	}

	if captured := m.Captured(); captured != NoPiece {
		undo.CapturedSq = to
		if m.Kind() == EnPassant {
			undo.CapturedSq = to ^ 8
		}
		p.toggleHashed(captured, undo.CapturedSq)
		p.HalfMoveClock = 0
	}

	switch m.Kind() {
	case Promotion:
		p.toggleHashed(pc, from)
		p.toggleHashed(MakePiece(m.Promo(), us), to)
	case CastleKingSide, CastleQueenSide:
		p.toggleHashed(pc, from)
		p.toggleHashed(pc, to)
		rf, rt := rookCastle(to)
		rook := MakePiece(Rook, us)
		p.toggleHashed(rook, rf)
		p.toggleHashed(rook, rt)
	default:
		p.toggleHashed(pc, from)
		p.toggleHashed(pc, to)
		if m.Kind() == DoublePush {
			p.EnPassant = (from + to) / 2
			p.Hash ^= enPassantKeys[p.EnPassant.File()]
		}
	}

	if rights := p.Castling & castlingMask[from] & castlingMask[to]; rights != p.Castling {
		p.Hash ^= castlingHash(p.Castling ^ rights)
		p.Castling = rights
	}

	if us == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = us.Other()
	p.Hash ^= sideKey

	if DebugChecks {
		if err := p.Validate(); err != nil {
			panic(fmt.Sprintf("board: after %s: %v", m, err))
		}
	}
	return undo
}

// UnmakeMove reverts m using the UndoInfo MakeMove returned for it,
// restoring every field of the position bit for bit.
func (p *Position) UnmakeMove(m Move, undo UndoInfo) {
	us := p.SideToMove.Other()
	p.SideToMove = us
	if us == Black {
		p.FullMoveNumber--
	}

	from, to, pc := m.From(), m.To(), m.Piece()
	switch m.Kind() {
	case Promotion:
		p.toggle(MakePiece(m.Promo(), us), to)
		p.toggle(pc, from)
	case CastleKingSide, CastleQueenSide:
		p.toggle(pc, to)
		p.toggle(pc, from)
		rf, rt := rookCastle(to)
		rook := MakePiece(Rook, us)
		p.toggle(rook, rt)
		p.toggle(rook, rf)
	default:
		p.toggle(pc, to)
		p.toggle(pc, from)
	}
	if undo.Captured != NoPiece {
		p.toggle(undo.Captured, undo.CapturedSq)
	}

	p.Castling = undo.Castling
	p.EnPassant = undo.EnPassant
	p.HalfMoveClock = undo.HalfMoveClock
	p.Hash = undo.Hash
}

func (p *Position) assertGenerated(m Move) {
	var ml MoveList
	p.GenerateLegal(&ml)
	if !ml.Contains(m) {
		panic(fmt.Sprintf("board: move %s (%#x) was not generated for %s", m, uint32(m), p.FEN()))
	}
}
