package board

// Zobrist keys: one per (piece, square), one for black to move, one per
// castling-right bit and one per en-passant file. A position's hash is the
// XOR of the keys of everything that is true about it.
var (
	pieceKeys     [NoPiece][64]uint64
	castlingKeys  [4]uint64
	enPassantKeys [8]uint64
	sideKey       uint64
)

func init() {
	rng := xorshift{state: 0x98F107A2BEEF1234}
	for pc := WhitePawn; pc < NoPiece; pc++ {
		for sq := A1; sq <= H8; sq++ {
			pieceKeys[pc][sq] = rng.next()
		}
	}
	for i := range castlingKeys {
		castlingKeys[i] = rng.next()
	}
	for i := range enPassantKeys {
		enPassantKeys[i] = rng.next()
	}
	sideKey = rng.next()
}

// xorshift is xorshift64*, used for both Zobrist keys and magic search.
type xorshift struct {
	state uint64
}

func (x *xorshift) next() uint64 {
	x.state ^= x.state >> 12
	x.state ^= x.state << 25
	x.state ^= x.state >> 27
	return x.state * 0x2545F4914F6CDD1D
}

// sparse returns a value with few bits set, the usual shape of a magic.
func (x *xorshift) sparse() uint64 {
	return x.next() & x.next() & x.next()
}

// castlingHash XORs together the keys of every right present in cr.
func castlingHash(cr CastlingRights) uint64 {
	var h uint64
	for i := range castlingKeys {
		if cr&(1<<i) != 0 {
			h ^= castlingKeys[i]
		}
	}
	return h
}

// ComputeHash recomputes the Zobrist hash from scratch. MakeMove keeps
// Hash up to date incrementally; this exists to check that it does.
func (p *Position) ComputeHash() uint64 {
	var h uint64
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			pc := MakePiece(pt, c)
			for bb := p.Pieces[c][pt]; bb != 0; {
				h ^= pieceKeys[pc][bb.PopLSB()]
			}
		}
	}
	h ^= castlingHash(p.Castling)
	if p.EnPassant != NoSquare {
		h ^= enPassantKeys[p.EnPassant.File()]
	}
	if p.SideToMove == Black {
		h ^= sideKey
	}
	return h
}
