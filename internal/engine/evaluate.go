package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

// Evaluator scores a position in centipawns from the side to move's point
// of view. Implementations need not be safe for concurrent use; each
// search owns its evaluator.
type Evaluator interface {
	Evaluate(pos *board.Position) int
}

// EvaluatorFunc adapts a plain function to Evaluator.
type EvaluatorFunc func(pos *board.Position) int

func (f EvaluatorFunc) Evaluate(pos *board.Position) int { return f(pos) }

// Material is the plain material count.
var Material = EvaluatorFunc(EvaluateMaterial)

// EvaluateMaterial returns just the material balance.
func EvaluateMaterial(pos *board.Position) int {
	score := pos.Material()
	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}

// Passed pawn bonuses by relative rank
var passedPawnBonus = [8]int{0, 10, 20, 40, 70, 120, 200, 0}

// Mobility weights per piece type
var mobilityMgWeight = [6]int{0, 4, 5, 2, 1, 0}
var mobilityEgWeight = [6]int{0, 3, 4, 4, 2, 0}

const (
	bishopPairMg = 25
	bishopPairEg = 50

	rookOpenFileMg     = 20
	rookOpenFileEg     = 25
	rookSemiOpenFileMg = 10
	rookSemiOpenFileEg = 15

	doubledPawnMg  = -15
	doubledPawnEg  = -20
	isolatedPawnMg = -20
	isolatedPawnEg = -25

	tempoBonus = 10

	// Knight/bishop 1, rook 2, queen 4, both sides.
	maxPhase = 24
)

var phaseWeight = [6]int{0, 1, 1, 2, 4, 0}

// Piece-square tables, laid out as seen from White with rank 8 first.
var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingMidgamePST = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

var kingEndgamePST = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

var psts = [...]*[64]int{&pawnPST, &knightPST, &bishopPST, &rookPST, &queenPST, &kingMidgamePST}

// pstIndex maps a square to its table slot for c.
func pstIndex(sq board.Square, c board.Color) int {
	if c == board.White {
		return int(sq) ^ 56
	}
	return int(sq)
}

// passedMask[c][sq] holds the squares ahead of a c pawn on sq, on its own
// and adjacent files, that enemy pawns must avoid for it to be passed.
var (
	passedMask   [2][64]board.Bitboard
	adjacentMask [8]board.Bitboard
)

func init() {
	for f := 0; f < 8; f++ {
		if f > 0 {
			adjacentMask[f] |= board.FileBB(f - 1)
		}
		if f < 7 {
			adjacentMask[f] |= board.FileBB(f + 1)
		}
	}
	for sq := board.A1; sq <= board.H8; sq++ {
		span := board.FileBB(sq.File()) | adjacentMask[sq.File()]
		for r := 0; r < 8; r++ {
			switch {
			case r > sq.Rank():
				passedMask[board.White][sq] |= span & board.RankBB(r)
			case r < sq.Rank():
				passedMask[board.Black][sq] |= span & board.RankBB(r)
			}
		}
	}
}

// Classical is the tapered hand-written evaluation: material, piece-square
// tables, mobility, bishop pair, rooks on open files and pawn structure.
var Classical = EvaluatorFunc(EvaluateClassical)

// EvaluateClassical returns the classical evaluation from the side to
// move's point of view.
func EvaluateClassical(pos *board.Position) int {
	var mg, eg, phase int
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		cmg, ceg, cphase := evaluateSide(pos, c)
		mg += sign * cmg
		eg += sign * ceg
		phase += cphase
	}
	if phase > maxPhase {
		phase = maxPhase
	}
	score := (mg*phase + eg*(maxPhase-phase)) / maxPhase
	if pos.SideToMove == board.Black {
		score = -score
	}
	return score + tempoBonus
}

func evaluateSide(pos *board.Position, c board.Color) (mg, eg, phase int) {
	own := pos.Occupied[c]
	ownPawns := pos.Pieces[c][board.Pawn]
	enemyPawns := pos.Pieces[c.Other()][board.Pawn]

	for pt := board.Pawn; pt <= board.King; pt++ {
		bb := pos.Pieces[c][pt]
		for bb != 0 {
			sq := bb.PopLSB()
			idx := pstIndex(sq, c)
			mg += board.PieceValue[pt]
			eg += board.PieceValue[pt]
			if pt == board.King {
				mg += kingMidgamePST[idx]
				eg += kingEndgamePST[idx]
				continue
			}
			mg += psts[pt][idx]
			eg += psts[pt][idx]
			phase += phaseWeight[pt]

			var attacks board.Bitboard
			switch pt {
			case board.Pawn:
				if passedMask[c][sq]&enemyPawns == 0 {
					bonus := passedPawnBonus[sq.RelativeRank(c)]
					mg += bonus / 2
					eg += bonus
				}
				continue
			case board.Knight:
				attacks = board.KnightAttacks(sq)
			case board.Bishop:
				attacks = board.BishopAttacks(sq, pos.All)
			case board.Rook:
				attacks = board.RookAttacks(sq, pos.All)
				file := board.FileBB(sq.File())
				switch {
				case ownPawns&file == 0 && enemyPawns&file == 0:
					mg += rookOpenFileMg
					eg += rookOpenFileEg
				case ownPawns&file == 0:
					mg += rookSemiOpenFileMg
					eg += rookSemiOpenFileEg
				}
			case board.Queen:
				attacks = board.QueenAttacks(sq, pos.All)
			}
			n := (attacks &^ own).Count()
			mg += n * mobilityMgWeight[pt]
			eg += n * mobilityEgWeight[pt]
		}
	}

	if pos.Pieces[c][board.Bishop].Several() {
		mg += bishopPairMg
		eg += bishopPairEg
	}

	for f := 0; f < 8; f++ {
		n := (ownPawns & board.FileBB(f)).Count()
		if n == 0 {
			continue
		}
		if n > 1 {
			mg += (n - 1) * doubledPawnMg
			eg += (n - 1) * doubledPawnEg
		}
		if ownPawns&adjacentMask[f] == 0 {
			mg += n * isolatedPawnMg
			eg += n * isolatedPawnEg
		}
	}
	return mg, eg, phase
}
