package nnue

import (
	"fmt"

	"github.com/hailam/chessplay/sfnnue"
	"github.com/hailam/chessplay/sfnnue/features"

	"github.com/hailam/chesscore/internal/board"
)

// sfPieces maps [color][pieceType] to the sfnnue piece encoding
// (W_PAWN=1 .. W_KING=6, B_PAWN=9 .. B_KING=14).
var sfPieces = [2][6]int{
	{1, 2, 3, 4, 5, 6},
	{9, 10, 11, 12, 13, 14},
}

// StockfishNets is a loaded big/small network pair. Read-only once loaded.
type StockfishNets struct {
	nets *sfnnue.Networks
}

// LoadStockfish loads a Stockfish-format network pair.
func LoadStockfish(bigFile, smallFile string) (*StockfishNets, error) {
	if bigFile == "" || smallFile == "" {
		return nil, fmt.Errorf("%w: both EvalFile and EvalFileSmall are required", ErrNoModel)
	}
	nets, err := sfnnue.LoadNetworks(bigFile, smallFile)
	if err != nil {
		return nil, fmt.Errorf("nnue: load stockfish networks: %w", err)
	}
	return &StockfishNets{nets: nets}, nil
}

// StockfishEvaluator evaluates positions with a StockfishNets pair. Each
// evaluation refreshes both accumulators from scratch. Not safe for
// concurrent use.
type StockfishEvaluator struct {
	nets  *sfnnue.Networks
	stack *sfnnue.AccumulatorStack
	list  features.IndexList
}

// NewStockfishEvaluator returns an evaluator with private accumulators.
func NewStockfishEvaluator(n *StockfishNets) *StockfishEvaluator {
	return &StockfishEvaluator{nets: n.nets, stack: sfnnue.NewAccumulatorStack()}
}

// Evaluate scores pos from the side to move's point of view.
func (e *StockfishEvaluator) Evaluate(pos *board.Position) int {
	stm := int(pos.SideToMove)
	pieceCount := pos.PieceCount()

	big := e.stack.CurrentBig()
	small := e.stack.CurrentSmall()
	e.refresh(e.nets.Big, big, pos)
	e.refresh(e.nets.Small, small, pos)

	bigPsqt, bigPositional := e.nets.Big.Evaluate(
		big.Accumulation, big.PSQTAccumulation, stm, pieceCount, e.stack.TransformBuffer[:])
	smallPsqt, _ := e.nets.Small.Evaluate(
		small.Accumulation, small.PSQTAccumulation, stm, pieceCount, e.stack.TransformBuffer[:])

	score := int(bigPositional) + int(smallPsqt+bigPsqt)/2
	// Scale towards zero as the fifty-move counter runs.
	return score - score*pos.HalfMoveClock/199
}

func (e *StockfishEvaluator) refresh(net *sfnnue.Network, acc *sfnnue.Accumulator, pos *board.Position) {
	for perspective := 0; perspective < 2; perspective++ {
		ksq := int(pos.KingSquare(board.Color(perspective)))
		e.list.Clear()
		for c := board.White; c <= board.Black; c++ {
			for pt := board.Pawn; pt <= board.King; pt++ {
				bb := pos.Pieces[c][pt]
				for bb != 0 {
					e.list.Push(features.MakeIndex(perspective, int(bb.PopLSB()), sfPieces[c][pt], ksq))
				}
			}
		}
		net.FeatureTransformer.ComputeAccumulator(
			e.list.Values[:e.list.Size],
			acc.Accumulation[perspective],
			acc.PSQTAccumulation[perspective],
		)
		acc.Computed[perspective] = true
		acc.KingSq[perspective] = ksq
	}
}
