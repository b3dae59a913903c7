// Package openings holds start-position suites for engine matches: short
// move lines played before the engines take over, so paired games do not
// all begin from the initial position. Engines never consult a suite.
package openings

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"lukechampine.com/frand"

	"github.com/hailam/chesscore/internal/board"
)

// Default is a small suite of mainstream openings, eight plies each.
var Default = []string{
	"e2e4 e7e5 g1f3 b8c6 f1b5 a7a6 b5a4 g8f6",
	"e2e4 e7e5 g1f3 b8c6 f1c4 f8c5 c2c3 g8f6",
	"e2e4 c7c5 g1f3 d7d6 d2d4 c5d4 f3d4 g8f6",
	"e2e4 c7c5 b1c3 b8c6 g2g3 g7g6 f1g2 f8g7",
	"e2e4 e7e6 d2d4 d7d5 b1c3 g8f6 c1g5 f8e7",
	"e2e4 c7c6 d2d4 d7d5 b1c3 d5e4 c3e4 c8f5",
	"d2d4 d7d5 c2c4 e7e6 b1c3 g8f6 c1g5 f8e7",
	"d2d4 d7d5 c2c4 c7c6 g1f3 g8f6 b1c3 d5c4",
	"d2d4 g8f6 c2c4 g7g6 b1c3 f8g7 e2e4 d7d6",
	"d2d4 g8f6 c2c4 e7e6 b1c3 f8b4 d1c2 e8g8",
	"c2c4 e7e5 b1c3 g8f6 g1f3 b8c6 g2g3 d7d5",
	"g1f3 d7d5 g2g3 g8f6 f1g2 e7e6 e1g1 f8e7",
}

// Line is one opening: its moves from the initial position and the
// position they reach.
type Line struct {
	Moves []board.Move
	FEN   string
}

// Suite is an ordered set of distinct opening lines.
type Suite struct {
	lines []Line
	seen  map[uint64]bool // end-position hashes
}

// New creates an empty suite.
func New() *Suite {
	return &Suite{seen: make(map[uint64]bool)}
}

// FromLines builds a suite from space-separated coordinate move lines, each
// played from the initial position. Lines reaching a position already in
// the suite are dropped.
func FromLines(lines []string) (*Suite, error) {
	s := New()
	for n, line := range lines {
		if err := s.Add(line); err != nil {
			return nil, fmt.Errorf("opening line %d: %w", n+1, err)
		}
	}
	return s, nil
}

// Add plays line from the initial position and appends it. Every move must
// be legal where it is played.
func (s *Suite) Add(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	pos := board.NewPosition()
	moves := make([]board.Move, 0, len(fields))
	for _, text := range fields {
		m, err := pos.ParseMove(text)
		if err != nil {
			return err
		}
		moves = append(moves, m)
		pos.MakeMove(m)
	}
	if s.seen[pos.Hash] {
		return nil
	}
	s.seen[pos.Hash] = true
	s.lines = append(s.lines, Line{Moves: moves, FEN: pos.FEN()})
	return nil
}

// Load reads a suite file: one line of moves per row, blank rows and rows
// starting with '#' ignored.
func Load(filename string) (*Suite, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadReader(file)
}

// LoadReader reads a suite from r in the Load format.
func LoadReader(r io.Reader) (*Suite, error) {
	s := New()
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := s.Add(line); err != nil {
			return nil, fmt.Errorf("opening line %d: %w", n, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// Len returns the number of lines.
func (s *Suite) Len() int {
	if s == nil {
		return 0
	}
	return len(s.lines)
}

// Line returns line i. The moves are a copy.
func (s *Suite) Line(i int) Line {
	l := s.lines[i]
	l.Moves = slices.Clone(l.Moves)
	return l
}

// Random returns the moves of a uniformly chosen line, or nil for an empty
// suite.
func (s *Suite) Random() []board.Move {
	if s.Len() == 0 {
		return nil
	}
	return s.Line(frand.Intn(len(s.lines))).Moves
}
