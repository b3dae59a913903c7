// Package notation renders engine moves in standard algebraic notation and
// records games as PGN.
package notation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"

	"github.com/hailam/chesscore/internal/board"
)

// Game mirrors a game move by move so it can be exported as PGN.
type Game struct {
	g *chess.Game
}

// NewGame starts a game record from fen. An empty fen means the standard
// starting position.
func NewGame(fen string) (*Game, error) {
	if fen == "" || fen == board.StartFEN {
		return &Game{g: chess.NewGame()}, nil
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("notation: %w", err)
	}
	g := &Game{g: chess.NewGame(opt)}
	g.g.AddTagPair("FEN", fen)
	g.g.AddTagPair("SetUp", "1")
	return g, nil
}

// SetTag sets a PGN header.
func (g *Game) SetTag(key, value string) {
	g.g.AddTagPair(key, value)
}

// Push plays m, given in the coordinate form the engines produce, and
// returns its SAN.
func (g *Game) Push(m board.Move) (string, error) {
	pos := g.g.Position()
	cm, err := chess.UCINotation{}.Decode(pos, m.String())
	if err != nil {
		return "", fmt.Errorf("notation: decode %s: %w", m, err)
	}
	san := chess.AlgebraicNotation{}.Encode(pos, cm)
	if err := g.g.Move(cm); err != nil {
		return "", fmt.Errorf("notation: play %s: %w", m, err)
	}
	return san, nil
}

// Len returns the number of moves played.
func (g *Game) Len() int { return len(g.g.Moves()) }

// Result is a finished game's outcome in PGN form.
type Result string

const (
	WhiteWins Result = "1-0"
	BlackWins Result = "0-1"
	Draw      Result = "1/2-1/2"
	Ongoing   Result = "*"
)

// Finish records the result when the rules library has not already
// reached it on its own, as for a threefold repetition or a move cap.
func (g *Game) Finish(r Result) {
	if g.g.Outcome() != chess.NoOutcome {
		return
	}
	switch r {
	case WhiteWins:
		g.g.Resign(chess.Black)
	case BlackWins:
		g.g.Resign(chess.White)
	case Draw:
		_ = g.g.Draw(chess.DrawOffer)
	}
}

// Outcome returns the recorded result.
func (g *Game) Outcome() Result { return Result(g.g.Outcome()) }

// PGN returns the game in PGN.
func (g *Game) PGN() string { return g.g.String() }

// SAN converts a line of moves starting at pos into SAN, one entry per move.
func SAN(pos *board.Position, line []board.Move) ([]string, error) {
	opt, err := chess.FEN(pos.FEN())
	if err != nil {
		return nil, fmt.Errorf("notation: %w", err)
	}
	g := chess.NewGame(opt)
	out := make([]string, 0, len(line))
	for _, m := range line {
		cm, err := chess.UCINotation{}.Decode(g.Position(), m.String())
		if err != nil {
			return out, fmt.Errorf("notation: decode %s: %w", m, err)
		}
		out = append(out, chess.AlgebraicNotation{}.Encode(g.Position(), cm))
		if err := g.Move(cm); err != nil {
			return out, fmt.Errorf("notation: play %s: %w", m, err)
		}
	}
	return out, nil
}

// Line formats a line from pos with move numbers: "1. e4 e5 2. Nf3", or
// "12... Qxd5 13. Bb5+" when Black moves first.
func Line(pos *board.Position, line []board.Move) (string, error) {
	sans, err := SAN(pos, line)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	num := pos.FullMoveNumber
	black := pos.SideToMove == board.Black
	for i, san := range sans {
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch {
		case !black:
			sb.WriteString(strconv.Itoa(num) + ". ")
		case i == 0:
			sb.WriteString(strconv.Itoa(num) + "... ")
		}
		sb.WriteString(san)
		if black {
			num++
		}
		black = !black
	}
	return sb.String(), nil
}
