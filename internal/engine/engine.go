// Package engine implements the search shell and the engine variants built
// on it: classical, neural and random.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hailam/chesscore/internal/board"
)

// Search constants
const (
	Infinity  = 1_000_000
	MateScore = 100_000
	DrawScore = 0
	MaxPly    = 128

	// mateBound separates mate scores from ordinary evaluations.
	mateBound = MateScore - MaxPly

	// pollInterval is the node interval between clock and stop checks.
	// Must be a power of two.
	pollInterval = 1024
)

// Engine is the capability every engine variant exposes to the protocol
// and tournament layers. An Engine runs one search at a time; Stop may be
// called from any goroutine.
type Engine interface {
	Name() string

	// NewGame clears repetition history and any per-game caches.
	NewGame()

	// SetOption applies a named option. It reports false, leaving the
	// engine unchanged, when the name or value is not recognised.
	SetOption(name, value string) bool

	// SetHistory records the hashes of the positions that preceded the
	// next searched position, oldest first, for repetition detection.
	SetHistory(hashes []uint64)

	// Search returns the best move found within limits. pos is not
	// modified. Cancelling ctx has the same effect as Stop.
	Search(ctx context.Context, pos *board.Position, limits SearchLimits) SearchResult

	// Stop asks a running search to return as soon as possible.
	Stop()
}

// InfoReporter is implemented by engines that report per-iteration
// progress.
type InfoReporter interface {
	SetInfoHandler(func(SearchInfo))
}

// SearchLimits specifies constraints on the search. The zero value means
// the engine's configured defaults.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = no limit)
	Nodes    uint64        // Maximum nodes (0 = no limit)
	MoveTime time.Duration // Time for this move (0 = no limit)
	Infinite bool          // Search until stopped

	// Clock state, indexed by board.Color.
	Time      [2]time.Duration
	Inc       [2]time.Duration
	MovesToGo int
}

// HasClock reports whether the limits carry a game clock for c.
func (l SearchLimits) HasClock(c board.Color) bool { return l.Time[c] > 0 }

// unbounded reports whether nothing in l would end a search.
func (l SearchLimits) unbounded() bool {
	return l.Depth == 0 && l.Nodes == 0 && l.MoveTime == 0 && !l.Infinite &&
		l.Time[board.White] == 0 && l.Time[board.Black] == 0
}

// Terminal classifies a root position with no legal moves.
type Terminal int

const (
	NotTerminal Terminal = iota
	Checkmate
	Stalemate
)

func (t Terminal) String() string {
	switch t {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	}
	return "none"
}

// SearchResult is the outcome of a search. BestMove, Score, Depth and PV
// describe the last fully completed iteration; Nodes and Elapsed cover the
// whole search.
type SearchResult struct {
	BestMove board.Move
	Score    int
	Depth    int
	Nodes    uint64
	PV       []board.Move
	Elapsed  time.Duration
	Stopped  bool // a limit or Stop ended the search early
	Terminal Terminal
}

// SearchInfo contains information about one completed iteration.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// NPS returns nodes per second.
func (i SearchInfo) NPS() uint64 {
	if i.Time <= 0 {
		return 0
	}
	return uint64(float64(i.Nodes) / i.Time.Seconds())
}

// IsMateScore reports whether score encodes a forced mate.
func IsMateScore(score int) bool {
	return score >= mateBound || score <= -mateBound
}

// MateIn converts a mate score to moves (not plies) until mate, negative
// when the side to move is being mated. It returns 0 for other scores.
func MateIn(score int) int {
	switch {
	case score >= mateBound:
		return (MateScore - score + 1) / 2
	case score <= -mateBound:
		return -(MateScore + score + 1) / 2
	}
	return 0
}

// ScoreString formats a score the way UCI info lines do: "cp N" or
// "mate N".
func ScoreString(score int) string {
	if IsMateScore(score) {
		return fmt.Sprintf("mate %d", MateIn(score))
	}
	return fmt.Sprintf("cp %d", score)
}

// PVString joins moves in coordinate notation.
func PVString(pv []board.Move) string {
	var sb strings.Builder
	for i, m := range pv {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(m.String())
	}
	return sb.String()
}
