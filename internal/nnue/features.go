package nnue

import "github.com/hailam/chesscore/internal/board"

// FeatureIndex returns the input index of a piece on sq as seen by the side
// to move stm. Planes 0-5 hold the mover's pieces and 6-11 the opponent's;
// with black to move the board is rotated so the mover always plays up.
func FeatureIndex(stm board.Color, pc board.Piece, sq board.Square) int {
	plane := int(pc.Type())
	if pc.Color() != stm {
		plane += 6
	}
	if stm == board.Black {
		sq = sq.Rotate()
	}
	return plane*64 + int(sq)
}

// AppendFeatures appends the active input indices of pos to dst.
func AppendFeatures(dst []int, pos *board.Position) []int {
	stm := pos.SideToMove
	for c := board.White; c <= board.Black; c++ {
		for pt := board.Pawn; pt <= board.King; pt++ {
			pc := board.MakePiece(pt, c)
			bb := pos.Pieces[c][pt]
			for bb != 0 {
				dst = append(dst, FeatureIndex(stm, pc, bb.PopLSB()))
			}
		}
	}
	return dst
}

// Dense expands pos into a 0/1 vector of NumFeatures entries, the layout
// consumed by training tools.
func Dense(pos *board.Position) []float32 {
	out := make([]float32, NumFeatures)
	var buf [32]int
	for _, idx := range AppendFeatures(buf[:0], pos) {
		out[idx] = 1
	}
	return out
}
