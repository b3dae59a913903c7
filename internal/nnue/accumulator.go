package nnue

import "github.com/hailam/chesscore/internal/board"

// Accumulator holds the hidden-layer pre-activations for one position.
type Accumulator struct {
	values   []int32
	features []int
}

// NewAccumulator returns an accumulator sized for n.
func NewAccumulator(n *Network) *Accumulator {
	return &Accumulator{
		values:   make([]int32, n.Hidden),
		features: make([]int, 0, 32),
	}
}

func (a *Accumulator) reset(n *Network) {
	if len(a.values) != n.Hidden {
		a.values = make([]int32, n.Hidden)
	}
	for j, b := range n.InputBias {
		a.values[j] = int32(b)
	}
}

// Evaluator pairs a shared Network with private scratch state. It is not
// safe for concurrent use; give each search its own.
type Evaluator struct {
	net *Network
	acc *Accumulator
}

// NewEvaluator returns an evaluator over net.
func NewEvaluator(net *Network) *Evaluator {
	return &Evaluator{net: net, acc: NewAccumulator(net)}
}

// Network returns the underlying network.
func (e *Evaluator) Network() *Network { return e.net }

// Evaluate scores pos from the side to move's point of view.
func (e *Evaluator) Evaluate(pos *board.Position) int {
	e.net.Refresh(e.acc, pos)
	return e.net.Output(e.acc)
}
