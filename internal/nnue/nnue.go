// Package nnue implements the neural evaluation backends: a small
// 768-input network over side-relative piece planes, and an adapter for
// Stockfish-format NNUE pairs.
package nnue

import (
	"errors"
	"path/filepath"
)

// Network architecture constants
const (
	NumPlanes   = 12 // 6 piece types x {side to move, opponent}
	NumFeatures = 64 * NumPlanes

	DefaultHidden = 128
	MaxHidden     = 1024

	// Hidden activations are clamped to [0, QA]; output weights carry a
	// factor of QB. Scale converts the dequantised output to centipawns.
	QA    = 255
	QB    = 64
	Scale = 400
)

// ModelFile is the file name of a versioned model inside its directory.
const ModelFile = "model.nnue"

var (
	// ErrNoModel is returned when a model version has no weight file.
	ErrNoModel = errors.New("nnue: model not found")
	// ErrBadModel is returned for weight files that fail header checks.
	ErrBadModel = errors.New("nnue: malformed model")
)

// ModelPath returns <dir>/<version>/model.nnue.
func ModelPath(dir, version string) string {
	return filepath.Join(dir, version, ModelFile)
}

func clamp(x, lo, hi int32) int32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
