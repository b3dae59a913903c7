package board

import (
	"math/bits"
	"strings"
)

// Bitboard is a set of squares, one bit per square.
// Bit 0 is A1, bit 7 is H1, bit 56 is A8 and bit 63 is H8.
type Bitboard uint64

const (
	FileABB Bitboard = 0x0101010101010101
	FileHBB Bitboard = FileABB << 7

	Rank1BB Bitboard = 0xFF
	Rank2BB Bitboard = Rank1BB << 8
	Rank3BB Bitboard = Rank1BB << 16
	Rank4BB Bitboard = Rank1BB << 24
	Rank5BB Bitboard = Rank1BB << 32
	Rank6BB Bitboard = Rank1BB << 40
	Rank7BB Bitboard = Rank1BB << 48
	Rank8BB Bitboard = Rank1BB << 56

	// LightSquares holds every square where file+rank is odd (b1, a2, ...).
	LightSquares Bitboard = 0x55AA55AA55AA55AA
	DarkSquares  Bitboard = ^LightSquares
)

// FileBB returns the mask of the given file (0 = a).
func FileBB(file int) Bitboard { return FileABB << uint(file) }

// RankBB returns the mask of the given rank (0 = first rank).
func RankBB(rank int) Bitboard { return Rank1BB << (8 * uint(rank)) }

// SquareBB returns a bitboard with only sq set.
func SquareBB(sq Square) Bitboard {
	return 1 << sq
}

// Has reports whether sq is a member of b.
func (b Bitboard) Has(sq Square) bool {
	return b&(1<<sq) != 0
}

// Count returns the number of squares in b.
func (b Bitboard) Count() int {
	return bits.OnesCount64(uint64(b))
}

// LSB returns the lowest square in b, or NoSquare if b is empty.
func (b Bitboard) LSB() Square {
	if b == 0 {
		return NoSquare
	}
	return Square(bits.TrailingZeros64(uint64(b)))
}

// PopLSB removes the lowest square from b and returns it.
func (b *Bitboard) PopLSB() Square {
	sq := Square(bits.TrailingZeros64(uint64(*b)))
	*b &= *b - 1
	return sq
}

// Several reports whether b holds more than one square.
func (b Bitboard) Several() bool {
	return b&(b-1) != 0
}

func (b Bitboard) north() Bitboard { return b << 8 }
func (b Bitboard) south() Bitboard { return b >> 8 }
func (b Bitboard) east() Bitboard { return (b << 1) &^ FileABB }
func (b Bitboard) west() Bitboard { return (b >> 1) &^ FileHBB }

// forward shifts b one rank toward the opponent of c.
func (b Bitboard) forward(c Color) Bitboard {
	if c == White {
		return b.north()
	}
	return b.south()
}

// String renders b as an 8x8 grid, rank 8 first.
func (b Bitboard) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		sb.WriteByte(byte('1' + rank))
		for file := 0; file < 8; file++ {
			if b.Has(NewSquare(file, rank)) {
				sb.WriteString(" x")
			} else {
				sb.WriteString(" .")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g h\n")
	return sb.String()
}
