package nnue

import (
	"encoding/binary"

	"lukechampine.com/frand"

	"github.com/hailam/chesscore/internal/board"
)

// Network holds the quantised weights of a 768 -> Hidden -> 1 network.
// A Network is read-only after construction and may be shared by any
// number of evaluators.
type Network struct {
	Hidden int

	// Input layer, row-major by feature: InputWeights[f*Hidden+j].
	InputWeights []int16
	InputBias    []int16

	// Output layer
	OutputWeights []int16
	OutputBias    int32
}

// NewNetwork returns a zeroed network with the given hidden width.
func NewNetwork(hidden int) *Network {
	return &Network{
		Hidden:        hidden,
		InputWeights:  make([]int16, NumFeatures*hidden),
		InputBias:     make([]int16, hidden),
		OutputWeights: make([]int16, hidden),
	}
}

// NewRandom returns a network with small deterministic weights derived from
// seed. Used for tests and as a training starting point.
func NewRandom(seed uint64, hidden int) *Network {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	rng := frand.NewCustom(key[:], 1024, 12)
	small := func(span int) int16 { return int16(rng.Intn(2*span+1) - span) }

	n := NewNetwork(hidden)
	for i := range n.InputWeights {
		n.InputWeights[i] = small(8)
	}
	for i := range n.InputBias {
		n.InputBias[i] = small(16)
	}
	for i := range n.OutputWeights {
		n.OutputWeights[i] = small(16)
	}
	n.OutputBias = int32(small(64))
	return n
}

// Refresh recomputes acc from the active features of pos.
func (n *Network) Refresh(acc *Accumulator, pos *board.Position) {
	acc.reset(n)
	acc.features = AppendFeatures(acc.features[:0], pos)
	for _, f := range acc.features {
		row := n.InputWeights[f*n.Hidden : (f+1)*n.Hidden]
		for j, w := range row {
			acc.values[j] += int32(w)
		}
	}
}

// Output runs the output layer over a computed accumulator.
func (n *Network) Output(acc *Accumulator) int {
	sum := int64(n.OutputBias) * QA
	for j, v := range acc.values {
		sum += int64(clamp(v, 0, QA)) * int64(n.OutputWeights[j])
	}
	return int(sum * Scale / (QA * QB))
}

// Evaluate scores pos in centipawns from the side to move's point of view.
// It allocates a scratch accumulator; search code should hold an Evaluator.
func (n *Network) Evaluate(pos *board.Position) int {
	acc := NewAccumulator(n)
	n.Refresh(acc, pos)
	return n.Output(acc)
}
