package board

import (
	"fmt"
	"strings"
)

// CastlingRights is a 4-bit set of the castling moves still permitted.
type CastlingRights uint8

const (
	WhiteKingSide CastlingRights = 1 << iota
	WhiteQueenSide
	BlackKingSide
	BlackQueenSide

	NoCastling  CastlingRights = 0
	AllCastling CastlingRights = 15
)

// String renders the rights as in FEN ("KQkq", "-").
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, c := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// castlingMask[sq] is ANDed into the rights whenever a move starts or ends
// on sq, so moving a king or touching a rook's home square revokes them.
var castlingMask [64]CastlingRights

func init() {
	for sq := range castlingMask {
		castlingMask[sq] = AllCastling
	}
	castlingMask[E1] &^= WhiteKingSide | WhiteQueenSide
	castlingMask[H1] &^= WhiteKingSide
	castlingMask[A1] &^= WhiteQueenSide
	castlingMask[E8] &^= BlackKingSide | BlackQueenSide
	castlingMask[H8] &^= BlackKingSide
	castlingMask[A8] &^= BlackQueenSide
}

// Position is a complete game state. It holds no pointers or slices, so a
// plain assignment is a deep copy and == compares every field.
type Position struct {
	Pieces   [2][6]Bitboard // [Color][PieceType]
	Occupied [2]Bitboard    // union of Pieces per colour
	All      Bitboard       // Occupied[White] | Occupied[Black]

	SideToMove     Color
	Castling       CastlingRights
	EnPassant      Square // capture target behind a double push, NoSquare otherwise
	HalfMoveClock  int
	FullMoveNumber int

	Hash uint64
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	p, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return p
}

// Copy returns an independent copy of p.
func (p *Position) Copy() *Position {
	c := *p
	return &c
}

// PieceAt returns the piece on sq, or NoPiece.
func (p *Position) PieceAt(sq Square) Piece {
	if !p.All.Has(sq) {
		return NoPiece
	}
	c := White
	if p.Occupied[Black].Has(sq) {
		c = Black
	}
	return MakePiece(p.typeAt(sq, c), c)
}

// typeAt returns the type of c's piece on sq, or NoPieceType.
func (p *Position) typeAt(sq Square, c Color) PieceType {
	for pt := Pawn; pt <= King; pt++ {
		if p.Pieces[c][pt].Has(sq) {
			return pt
		}
	}
	return NoPieceType
}

// KingSquare returns the square of c's king.
func (p *Position) KingSquare(c Color) Square {
	return p.Pieces[c][King].LSB()
}

// toggle flips pc on sq in every bitboard. It does not touch the hash.
func (p *Position) toggle(pc Piece, sq Square) {
	bb := SquareBB(sq)
	c := pc.Color()
	p.Pieces[c][pc.Type()] ^= bb
	p.Occupied[c] ^= bb
	p.All ^= bb
}

// toggleHashed flips pc on sq and its Zobrist key.
func (p *Position) toggleHashed(pc Piece, sq Square) {
	p.toggle(pc, sq)
	p.Hash ^= pieceKeys[pc][sq]
}

// Material returns the material balance in centipawns from White's side.
func (p *Position) Material() int {
	score := 0
	for pt := Pawn; pt < King; pt++ {
		score += (p.Pieces[White][pt].Count() - p.Pieces[Black][pt].Count()) * PieceValue[pt]
	}
	return score
}

// PieceCount returns the number of pieces on the board, kings included.
func (p *Position) PieceCount() int {
	return p.All.Count()
}

// String draws the board followed by its FEN and hash.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("\n +---+---+---+---+---+---+---+---+\n")
	for rank := 7; rank >= 0; rank-- {
		for file := 0; file < 8; file++ {
			fmt.Fprintf(&sb, " | %s", p.PieceAt(NewSquare(file, rank)))
		}
		fmt.Fprintf(&sb, " | %d\n +---+---+---+---+---+---+---+---+\n", rank+1)
	}
	sb.WriteString("   a   b   c   d   e   f   g   h\n\n")
	fmt.Fprintf(&sb, "Fen: %s\nKey: %016X\n", p.FEN(), p.Hash)
	return sb.String()
}
