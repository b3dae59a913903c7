package board

// Process-wide attack tables. They are filled once by init and only read
// afterwards, so any number of positions and goroutines may share them.
var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard

	betweenBB [64][64]Bitboard // squares strictly between two aligned squares
	lineBB    [64][64]Bitboard // the full rank, file or diagonal through both
)

type direction struct{ df, dr int }

var (
	rookDirections   = [4]direction{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	bishopDirections = [4]direction{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	knightJumps      = [8]direction{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps        = [8]direction{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
)

func init() {
	for sq := A1; sq <= H8; sq++ {
		knightAttacks[sq] = stepTargets(sq, knightJumps[:])
		kingAttacks[sq] = stepTargets(sq, kingSteps[:])
		pawnAttacks[White][sq] = stepTargets(sq, []direction{{-1, 1}, {1, 1}})
		pawnAttacks[Black][sq] = stepTargets(sq, []direction{{-1, -1}, {1, -1}})
	}
	initLines()
	initMagics()
}

// offset returns the square reached from sq by d, if it is on the board.
func offset(sq Square, d direction) (Square, bool) {
	f, r := sq.File()+d.df, sq.Rank()+d.dr
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return NoSquare, false
	}
	return NewSquare(f, r), true
}

func stepTargets(sq Square, dirs []direction) Bitboard {
	var bb Bitboard
	for _, d := range dirs {
		if to, ok := offset(sq, d); ok {
			bb |= SquareBB(to)
		}
	}
	return bb
}

// ray walks from sq in direction d until the edge or the first occupied
// square, which is included.
func ray(sq Square, d direction, occupied Bitboard) Bitboard {
	var bb Bitboard
	for s, ok := offset(sq, d); ok; s, ok = offset(s, d) {
		bb |= SquareBB(s)
		if occupied.Has(s) {
			break
		}
	}
	return bb
}

// slideTargets is the slow reference for slider attacks; it seeds the magic tables.
func slideTargets(sq Square, occupied Bitboard, dirs [4]direction) Bitboard {
	var bb Bitboard
	for _, d := range dirs {
		bb |= ray(sq, d, occupied)
	}
	return bb
}

func initLines() {
	dirs := append(rookDirections[:], bishopDirections[:]...)
	for a := A1; a <= H8; a++ {
		for _, d := range dirs {
			full := ray(a, d, 0) | ray(a, direction{-d.df, -d.dr}, 0) | SquareBB(a)
			var walked Bitboard
			for s, ok := offset(a, d); ok; s, ok = offset(s, d) {
				betweenBB[a][s] = walked
				lineBB[a][s] = full
				walked |= SquareBB(s)
			}
		}
	}
}

func KnightAttacks(sq Square) Bitboard { return knightAttacks[sq] }
func KingAttacks(sq Square) Bitboard { return kingAttacks[sq] }

// PawnAttacks returns the squares a pawn of colour c on sq attacks.
func PawnAttacks(sq Square, c Color) Bitboard { return pawnAttacks[c][sq] }

func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return bishopMagics[sq].lookup(occupied)
}

func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return rookMagics[sq].lookup(occupied)
}

func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

// Between returns the squares strictly between a and b, or 0 when they
// do not share a rank, file or diagonal.
func Between(a, b Square) Bitboard { return betweenBB[a][b] }

// Line returns the whole line through a and b, or 0 when they are not aligned.
func Line(a, b Square) Bitboard { return lineBB[a][b] }

// attackersBy returns the pieces of colour by that attack sq, with sliders
// blocked by occ. Move generation, check detection and castling all use it.
func (p *Position) attackersBy(sq Square, by Color, occ Bitboard) Bitboard {
	pc := &p.Pieces[by]
	queens := pc[Queen]
	return pawnAttacks[by.Other()][sq]&pc[Pawn] |
		knightAttacks[sq]&pc[Knight] |
		kingAttacks[sq]&pc[King] |
		BishopAttacks(sq, occ)&(pc[Bishop]|queens) |
		RookAttacks(sq, occ)&(pc[Rook]|queens)
}

// IsAttacked reports whether any piece of colour by attacks sq.
func (p *Position) IsAttacked(sq Square, by Color) bool {
	return p.attackersBy(sq, by, p.All) != 0
}

// Checkers returns the enemy pieces giving check to the side to move.
func (p *Position) Checkers() Bitboard {
	us := p.SideToMove
	return p.attackersBy(p.KingSquare(us), us.Other(), p.All)
}

// InCheck reports whether c's king is attacked.
func (p *Position) InCheck(c Color) bool {
	ksq := p.KingSquare(c)
	if ksq == NoSquare {
		return false
	}
	return p.IsAttacked(ksq, c.Other())
}

// pinned returns c's pieces that shield c's king from an enemy slider.
func (p *Position) pinned(c Color) Bitboard {
	ksq := p.KingSquare(c)
	them := &p.Pieces[c.Other()]
	snipers := RookAttacks(ksq, 0)&(them[Rook]|them[Queen]) |
		BishopAttacks(ksq, 0)&(them[Bishop]|them[Queen])
	var pinned Bitboard
	for snipers != 0 {
		s := snipers.PopLSB()
		blockers := betweenBB[ksq][s] & p.All
		if blockers != 0 && !blockers.Several() {
			pinned |= blockers & p.Occupied[c]
		}
	}
	return pinned
}
