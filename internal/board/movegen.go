package board

// GenerateLegal fills ml with every legal move of the side to move.
//
// Moves are produced pseudo-legally and filtered on the fly: a pinned piece
// may only move along its pin line, every move out of check must capture or
// block a single checker, king steps are tested against the attack map with
// the king lifted off the board, and en passant is tested by replaying the
// occupancy change. ml is reset first; nothing is allocated.
func (p *Position) GenerateLegal(ml *MoveList) {
	ml.Clear()
	us, them := p.SideToMove, p.SideToMove.Other()
	ksq := p.KingSquare(us)
	checkers := p.attackersBy(ksq, them, p.All)

	p.genKingSteps(ml, ksq, us)
	if checkers.Several() {
		return
	}

	target := ^p.Occupied[us]
	if checkers != 0 {
		c := checkers.LSB()
		target &= betweenBB[ksq][c] | SquareBB(c)
	} else {
		p.genCastling(ml, us)
	}

	pinned := p.pinned(us)
	p.genPawnMoves(ml, us, ksq, target, pinned)
	for pt := Knight; pt <= Queen; pt++ {
		pc := MakePiece(pt, us)
		for pieces := p.Pieces[us][pt]; pieces != 0; {
			from := pieces.PopLSB()
			dests := p.pieceTargets(pt, from) & target
			if pinned.Has(from) {
				dests &= lineBB[ksq][from]
			}
			p.addMoves(ml, pc, from, dests, them)
		}
	}
}

// HasLegalMoves reports whether the side to move has any legal move.
func (p *Position) HasLegalMoves() bool {
	var ml MoveList
	p.GenerateLegal(&ml)
	return ml.Len() > 0
}

// IsCheckmate reports whether the side to move is mated.
func (p *Position) IsCheckmate() bool {
	return p.InCheck(p.SideToMove) && !p.HasLegalMoves()
}

// IsStalemate reports whether the side to move has no moves and is not in check.
func (p *Position) IsStalemate() bool {
	return !p.InCheck(p.SideToMove) && !p.HasLegalMoves()
}

func (p *Position) pieceTargets(pt PieceType, from Square) Bitboard {
	switch pt {
	case Knight:
		return knightAttacks[from]
	case Bishop:
		return BishopAttacks(from, p.All)
	case Rook:
		return RookAttacks(from, p.All)
	case Queen:
		return QueenAttacks(from, p.All)
	}
	return 0
}

func (p *Position) addMoves(ml *MoveList, pc Piece, from Square, dests Bitboard, them Color) {
	for dests != 0 {
		to := dests.PopLSB()
		captured := NoPiece
		if p.Occupied[them].Has(to) {
			captured = MakePiece(p.typeAt(to, them), them)
		}
		ml.add(newMove(from, to, pc, captured, NoPieceType, Normal))
	}
}

func (p *Position) genKingSteps(ml *MoveList, ksq Square, us Color) {
	them := us.Other()
	occ := p.All &^ SquareBB(ksq)
	dests := kingAttacks[ksq] &^ p.Occupied[us]
	for d := dests; d != 0; {
		to := d.PopLSB()
		if p.attackersBy(to, them, occ) != 0 {
			dests &^= SquareBB(to)
		}
	}
	p.addMoves(ml, MakePiece(King, us), ksq, dests, them)
}

// castlingPaths describes, per right, the squares that must be empty and
// the squares the king crosses (start and destination included).
var castlingPaths = [4]struct {
	from, to Square
	empty    Bitboard
	safe     Bitboard
	kind     MoveKind
}{
	{E1, G1, SquareBB(F1) | SquareBB(G1), SquareBB(E1) | SquareBB(F1) | SquareBB(G1), CastleKingSide},
	{E1, C1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), SquareBB(E1) | SquareBB(D1) | SquareBB(C1), CastleQueenSide},
	{E8, G8, SquareBB(F8) | SquareBB(G8), SquareBB(E8) | SquareBB(F8) | SquareBB(G8), CastleKingSide},
	{E8, C8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), SquareBB(E8) | SquareBB(D8) | SquareBB(C8), CastleQueenSide},
}

func (p *Position) genCastling(ml *MoveList, us Color) {
	them := us.Other()
	king := MakePiece(King, us)
	for i := 2 * int(us); i < 2*int(us)+2; i++ {
		path := &castlingPaths[i]
		if p.Castling&(1<<i) == 0 || p.All&path.empty != 0 {
			continue
		}
		ok := true
		for safe := path.safe; safe != 0; {
			if p.attackersBy(safe.PopLSB(), them, p.All) != 0 {
				ok = false
				break
			}
		}
		if ok {
			ml.add(newMove(path.from, path.to, king, NoPiece, NoPieceType, path.kind))
		}
	}
}

// promotionOrder puts the queen first so it is tried first by search.
var promotionOrder = [4]PieceType{Queen, Rook, Bishop, Knight}

func (p *Position) genPawnMoves(ml *MoveList, us Color, ksq Square, target, pinned Bitboard) {
	them := us.Other()
	pawn := MakePiece(Pawn, us)
	pawns := p.Pieces[us][Pawn]
	empty := ^p.All

	lastRank, thirdRank, push := Rank8BB, Rank3BB, 8
	if us == Black {
		lastRank, thirdRank, push = Rank1BB, Rank6BB, -8
	}

	legalFor := func(from Square) Bitboard {
		if pinned.Has(from) {
			return target & lineBB[ksq][from]
		}
		return target
	}
	addPawn := func(from, to Square, captured Piece, kind MoveKind) {
		if !legalFor(from).Has(to) {
			return
		}
		if lastRank.Has(to) {
			for _, pt := range promotionOrder {
				ml.add(newMove(from, to, pawn, captured, pt, Promotion))
			}
			return
		}
		ml.add(newMove(from, to, pawn, captured, NoPieceType, kind))
	}

	single := pawns.forward(us) & empty
	double := (single & thirdRank).forward(us) & empty
	for s := single; s != 0; {
		to := s.PopLSB()
		addPawn(Square(int(to)-push), to, NoPiece, Normal)
	}
	for d := double; d != 0; {
		to := d.PopLSB()
		addPawn(Square(int(to)-2*push), to, NoPiece, DoublePush)
	}

	for pw := pawns; pw != 0; {
		from := pw.PopLSB()
		for caps := pawnAttacks[us][from] & p.Occupied[them]; caps != 0; {
			to := caps.PopLSB()
			addPawn(from, to, MakePiece(p.typeAt(to, them), them), Normal)
		}
	}

	if p.EnPassant == NoSquare {
		return
	}
	ep := p.EnPassant
	capSq := ep ^ 8
	for attackers := pawnAttacks[them][ep] & pawns; attackers != 0; {
		from := attackers.PopLSB()
		occ := p.All ^ SquareBB(from) ^ SquareBB(capSq) | SquareBB(ep)
		// The captured pawn leaves the board, so it cannot be counted as an attacker.
		if p.attackersBy(ksq, them, occ)&^SquareBB(capSq) != 0 {
			continue
		}
		ml.add(newMove(from, ep, pawn, MakePiece(Pawn, them), NoPieceType, EnPassant))
	}
}
