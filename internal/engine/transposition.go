package engine

import (
	"math/bits"

	"github.com/hailam/chesscore/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTNone       TTFlag = iota
	TTExact             // Exact score
	TTLowerBound        // Failed high (beta cutoff)
	TTUpperBound        // Failed low
)

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	Key      uint64
	BestMove board.Move
	Score    int32
	Depth    int8
	Flag     TTFlag
	Age      uint8
}

const ttEntrySize = 24

// DefaultHashMB is the table size of a new engine.
const DefaultHashMB = 16

// TranspositionTable caches search results by Zobrist key. It belongs to
// one searcher and is not safe for concurrent use.
type TranspositionTable struct {
	entries []TTEntry
	mask    uint64
	age     uint8

	hits   uint64
	probes uint64
}

// NewTranspositionTable creates a transposition table with the given size
// in MB, rounded down to a power of two entries.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	n := uint64(sizeMB) << 20 / ttEntrySize
	n = 1 << (63 - bits.LeadingZeros64(n))
	return &TranspositionTable{entries: make([]TTEntry, n), mask: n - 1}
}

// Size returns the number of entries.
func (tt *TranspositionTable) Size() int { return len(tt.entries) }

// NewSearch advances the replacement age.
func (tt *TranspositionTable) NewSearch() { tt.age++ }

// Clear empties the table.
func (tt *TranspositionTable) Clear() {
	clear(tt.entries)
	tt.age, tt.hits, tt.probes = 0, 0, 0
}

// Probe looks up key. Mate scores come back relative to ply.
func (tt *TranspositionTable) Probe(key uint64, ply int) (TTEntry, bool) {
	tt.probes++
	e := tt.entries[key&tt.mask]
	if e.Flag == TTNone || e.Key != key {
		return TTEntry{}, false
	}
	tt.hits++
	e.Score = int32(scoreFromTT(int(e.Score), ply))
	return e, true
}

// Store records a search result. Entries from an older search, or of lower
// depth, are replaced.
func (tt *TranspositionTable) Store(key uint64, move board.Move, score, depth int, flag TTFlag, ply int) {
	e := &tt.entries[key&tt.mask]
	if e.Key == key && e.Age == tt.age && int(e.Depth) > depth && flag != TTExact {
		return
	}
	if move == board.NoMove && e.Key == key {
		move = e.BestMove
	}
	*e = TTEntry{
		Key:      key,
		BestMove: move,
		Score:    int32(scoreToTT(score, ply)),
		Depth:    int8(depth),
		Flag:     flag,
		Age:      tt.age,
	}
}

// HashFull returns the permille of sampled entries written this search.
func (tt *TranspositionTable) HashFull() int {
	n := min(1000, len(tt.entries))
	used := 0
	for i := 0; i < n; i++ {
		if tt.entries[i].Flag != TTNone && tt.entries[i].Age == tt.age {
			used++
		}
	}
	return used * 1000 / n
}

// HitRate returns hits/probes since the last Clear.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes)
}

// Mate scores are stored relative to the node so they stay valid when the
// same position is reached at a different ply.
func scoreToTT(score, ply int) int {
	switch {
	case score >= mateBound:
		return score + ply
	case score <= -mateBound:
		return score - ply
	}
	return score
}

func scoreFromTT(score, ply int) int {
	switch {
	case score >= mateBound:
		return score - ply
	case score <= -mateBound:
		return score + ply
	}
	return score
}
