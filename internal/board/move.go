package board

import "fmt"

// MoveKind distinguishes the moves that need special handling in MakeMove.
type MoveKind uint8

const (
	Normal MoveKind = iota
	DoublePush
	EnPassant
	CastleKingSide
	CastleQueenSide
	Promotion
)

// Move packs everything needed to apply and revert a move:
//
//	bits  0-5   from square
//	bits  6-11  to square
//	bits 12-15  moved piece
//	bits 16-19  captured piece (NoPiece if none)
//	bits 20-22  promotion piece type (NoPieceType if none)
//	bits 24-26  kind
//
// A Move is only meaningful for the position it was generated from.
type Move uint32

// NoMove is the zero value; a1a1 never occurs as a real move.
const NoMove Move = 0

func newMove(from, to Square, pc, captured Piece, promo PieceType, kind MoveKind) Move {
	return Move(from) | Move(to)<<6 | Move(pc)<<12 | Move(captured)<<16 |
		Move(promo)<<20 | Move(kind)<<24
}

func (m Move) From() Square { return Square(m & 0x3F) }
func (m Move) To() Square { return Square(m>>6&0x3F) }
func (m Move) Piece() Piece { return Piece(m>>12&0xF) }
func (m Move) Captured() Piece { return Piece(m>>16&0xF) }
func (m Move) Promo() PieceType { return PieceType(m>>20&0x7) }
func (m Move) Kind() MoveKind { return MoveKind(m>>24&0x7) }
func (m Move) IsCapture() bool { return m.Captured() != NoPiece }
func (m Move) IsPromotion() bool { return m.Kind() == Promotion }
func (m Move) IsEnPassant() bool { return m.Kind() == EnPassant }
func (m Move) IsCastling() bool { return m.Kind() == CastleKingSide || m.Kind() == CastleQueenSide }
func (m Move) IsTactical() bool { return m.IsCapture() || m.IsPromotion() }

// String returns coordinate notation: "e2e4", "e7e8q", or "0000" for NoMove.
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string(m.Promo().Char())
	}
	return s
}

// ParseMove resolves coordinate move text against the legal moves of p.
func (p *Position) ParseMove(text string) (Move, error) {
	if len(text) < 4 || len(text) > 5 {
		return NoMove, fmt.Errorf("invalid move %q", text)
	}
	var ml MoveList
	p.GenerateLegal(&ml)
	for _, m := range ml.Slice() {
		if m.String() == text {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("illegal move %q in %s", text, p.FEN())
}

// MaxMoves bounds the legal moves of any reachable position (218).
const MaxMoves = 256

// MoveList is a fixed-capacity move buffer. Callers own it and pass it to
// GenerateLegal, so generating moves never allocates.
type MoveList struct {
	moves [MaxMoves]Move
	n     int
}

func (ml *MoveList) add(m Move) {
	ml.moves[ml.n] = m
	ml.n++
}

func (ml *MoveList) Clear() { ml.n = 0 }
func (ml *MoveList) Len() int { return ml.n }
func (ml *MoveList) At(i int) Move { return ml.moves[i] }
func (ml *MoveList) Swap(i, j int) { ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i] }
func (ml *MoveList) Slice() []Move { return ml.moves[:ml.n] }

// Contains reports whether m is in the list.
func (ml *MoveList) Contains(m Move) bool {
	for _, x := range ml.moves[:ml.n] {
		if x == m {
			return true
		}
	}
	return false
}

// UndoInfo is what MakeMove cannot recover from the Move itself.
type UndoInfo struct {
	Captured      Piece
	CapturedSq    Square
	Castling      CastlingRights
	EnPassant     Square
	HalfMoveClock int
	Hash          uint64
}
