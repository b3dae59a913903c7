package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

// Move ordering priorities
const (
	HashMoveScore   = 10_000_000
	CaptureBase     = 1_000_000
	PromotionBase   = 950_000
	KillerScore1    = 900_000
	KillerScore2    = 800_000
	historyMaxScore = 400_000
)

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores,
// indexed [victim][attacker].
var mvvLva = [6][6]int{
	//       P    N    B    R    Q    K  (attacker)
	/* P */ {15, 14, 14, 13, 12, 11},
	/* N */ {25, 24, 24, 23, 22, 21},
	/* B */ {35, 34, 34, 33, 32, 31},
	/* R */ {45, 44, 44, 43, 42, 41},
	/* Q */ {55, 54, 54, 53, 52, 51},
	/* K */ {0, 0, 0, 0, 0, 0},
}

// MoveOrderer holds the killer and history tables of one searcher.
type MoveOrderer struct {
	killers [MaxPly][2]board.Move
	history [2][64][64]int
}

// Clear resets killers and ages history between searches.
func (mo *MoveOrderer) Clear() {
	mo.killers = [MaxPly][2]board.Move{}
	for c := range mo.history {
		for from := range mo.history[c] {
			for to := range mo.history[c][from] {
				mo.history[c][from][to] /= 2
			}
		}
	}
}

// Reset forgets everything, for a new game.
func (mo *MoveOrderer) Reset() {
	*mo = MoveOrderer{}
}

// ScoreMoves fills scores[i] with the ordering key of moves.At(i).
// Captures and promotions always rank above quiet moves.
func (mo *MoveOrderer) ScoreMoves(moves *board.MoveList, scores []int, ply int, hashMove board.Move) {
	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreMove(moves.At(i), ply, hashMove)
	}
}

func (mo *MoveOrderer) scoreMove(m board.Move, ply int, hashMove board.Move) int {
	if m == hashMove {
		return HashMoveScore
	}
	if m.IsCapture() {
		score := CaptureBase + mvvLva[m.Captured().Type()][m.Piece().Type()]*1000
		if m.IsPromotion() {
			score += board.PieceValue[m.Promo()]
		}
		return score
	}
	if m.IsPromotion() {
		return PromotionBase + board.PieceValue[m.Promo()]
	}
	if ply < MaxPly {
		if m == mo.killers[ply][0] {
			return KillerScore1
		}
		if m == mo.killers[ply][1] {
			return KillerScore2
		}
	}
	return mo.history[m.Piece().Color()][m.From()][m.To()]
}

// PickMove selects the best remaining move and moves it to position index.
// This allows lazy move sorting (only sort as much as needed).
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers adds a killer move at the given ply.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory rewards a quiet move that caused a cutoff and penalises
// the quiet moves tried before it.
func (mo *MoveOrderer) UpdateHistory(good board.Move, tried []board.Move, depth int) {
	bonus := depth * depth
	c := good.Piece().Color()
	mo.history[c][good.From()][good.To()] += bonus
	if mo.history[c][good.From()][good.To()] > historyMaxScore {
		for from := range mo.history[c] {
			for to := range mo.history[c][from] {
				mo.history[c][from][to] /= 2
			}
		}
	}
	for _, m := range tried {
		h := &mo.history[c][m.From()][m.To()]
		*h -= bonus
		if *h < -historyMaxScore {
			*h = -historyMaxScore
		}
	}
}

// HistoryScore returns the history score for a quiet move.
func (mo *MoveOrderer) HistoryScore(m board.Move) int {
	return mo.history[m.Piece().Color()][m.From()][m.To()]
}
