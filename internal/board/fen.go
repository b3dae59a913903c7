package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// FEN field names reported in ParseError.Field.
const (
	FieldCount      = "field count"
	FieldPlacement  = "piece placement"
	FieldSideToMove = "side to move"
	FieldCastling   = "castling"
	FieldEnPassant  = "en passant"
	FieldHalfMove   = "halfmove clock"
	FieldFullMove   = "fullmove number"
)

// ParseError reports a FEN string that could not be parsed. Field names the
// offending FEN field.
type ParseError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("fen: bad %s %q: %s", e.Field, e.Value, e.Reason)
}

func parseErr(field, value, format string, args ...any) *ParseError {
	return &ParseError{Field: field, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// ParseFEN builds a Position from FEN text. The two clock fields may be
// omitted and default to "0 1". On any error no Position is returned.
func ParseFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 || len(fields) > 6 {
		return nil, parseErr(FieldCount, fen, "want 6 fields, got %d", len(fields))
	}
	for len(fields) < 6 {
		fields = append(fields, [...]string{"0", "1"}[len(fields)-4])
	}

	p := &Position{EnPassant: NoSquare}
	if err := p.parsePlacement(fields[0]); err != nil {
		return nil, err
	}

	switch fields[1] {
	case "w":
		p.SideToMove = White
	case "b":
		p.SideToMove = Black
	default:
		return nil, parseErr(FieldSideToMove, fields[1], "want w or b")
	}

	if err := p.parseCastling(fields[2]); err != nil {
		return nil, err
	}
	if err := p.parseEnPassant(fields[3]); err != nil {
		return nil, err
	}

	half, err := strconv.Atoi(fields[4])
	if err != nil || half < 0 {
		return nil, parseErr(FieldHalfMove, fields[4], "want a non-negative integer")
	}
	full, err := strconv.Atoi(fields[5])
	if err != nil || full < 1 {
		return nil, parseErr(FieldFullMove, fields[5], "want a positive integer")
	}
	p.HalfMoveClock, p.FullMoveNumber = half, full

	if p.InCheck(p.SideToMove.Other()) {
		return nil, parseErr(FieldPlacement, fields[0], "%s to move but %s is in check", p.SideToMove, p.SideToMove.Other())
	}

	p.Hash = p.ComputeHash()
	return p, nil
}

func (p *Position) parsePlacement(s string) error {
	ranks := strings.Split(s, "/")
	if len(ranks) != 8 {
		return parseErr(FieldPlacement, s, "want 8 ranks, got %d", len(ranks))
	}
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(row); j++ {
			c := row[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			pc, ok := pieceFromChar(c)
			if !ok {
				return parseErr(FieldPlacement, s, "unknown piece %q", c)
			}
			if file > 7 {
				return parseErr(FieldPlacement, s, "rank %d overflows", rank+1)
			}
			p.toggle(pc, NewSquare(file, rank))
			file++
		}
		if file != 8 {
			return parseErr(FieldPlacement, s, "rank %d covers %d files", rank+1, file)
		}
	}
	for c := White; c <= Black; c++ {
		if n := p.Pieces[c][King].Count(); n != 1 {
			return parseErr(FieldPlacement, s, "%s has %d kings", c, n)
		}
	}
	if (p.Pieces[White][Pawn]|p.Pieces[Black][Pawn])&(Rank1BB|Rank8BB) != 0 {
		return parseErr(FieldPlacement, s, "pawn on first or last rank")
	}
	return nil
}

// castlingHome lists, per right, the king and rook squares it depends on.
var castlingHome = [4]struct {
	right      CastlingRights
	king, rook Piece
	kingSq     Square
	rookSq     Square
}{
	{WhiteKingSide, WhiteKing, WhiteRook, E1, H1},
	{WhiteQueenSide, WhiteKing, WhiteRook, E1, A1},
	{BlackKingSide, BlackKing, BlackRook, E8, H8},
	{BlackQueenSide, BlackKing, BlackRook, E8, A8},
}

func (p *Position) parseCastling(s string) error {
	if s == "-" {
		return nil
	}
	for i := 0; i < len(s); i++ {
		idx := strings.IndexByte("KQkq", s[i])
		if idx < 0 {
			return parseErr(FieldCastling, s, "unknown right %q", s[i])
		}
		right := CastlingRights(1 << idx)
		if p.Castling&right != 0 {
			return parseErr(FieldCastling, s, "right %q repeated", s[i])
		}
		home := castlingHome[idx]
		if p.PieceAt(home.kingSq) != home.king || p.PieceAt(home.rookSq) != home.rook {
			return parseErr(FieldCastling, s, "right %q without king and rook on their home squares", s[i])
		}
		p.Castling |= right
	}
	return nil
}

func (p *Position) parseEnPassant(s string) error {
	if s == "-" {
		return nil
	}
	sq, err := ParseSquare(s)
	if err != nil {
		return parseErr(FieldEnPassant, s, "not a square")
	}
	// The target sits behind a pawn that has just moved two squares.
	us, them := p.SideToMove, p.SideToMove.Other()
	if sq.RelativeRank(us) != 5 {
		return parseErr(FieldEnPassant, s, "target must be on the %s's sixth rank", us)
	}
	pushed := sq ^ 8
	if p.PieceAt(pushed) != MakePiece(Pawn, them) || p.All.Has(sq) {
		return parseErr(FieldEnPassant, s, "no pawn has just passed this square")
	}
	p.EnPassant = sq
	return nil
}

// FEN renders the position as a six-field FEN string.
func (p *Position) FEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.PieceAt(NewSquare(file, rank))
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteString(pc.String())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	side := "w"
	if p.SideToMove == Black {
		side = "b"
	}
	fmt.Fprintf(&sb, " %s %s %s %d %d", side, p.Castling, p.EnPassant, p.HalfMoveClock, p.FullMoveNumber)
	return sb.String()
}
