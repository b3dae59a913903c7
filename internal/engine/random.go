package engine

import (
	"context"
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"lukechampine.com/frand"

	"github.com/hailam/chesscore/internal/board"
)

// RandomEngine plays a uniformly random legal move. It is the baseline any
// real engine should beat.
type RandomEngine struct {
	rng   *frand.RNG // nil means the shared generator
	moves board.MoveList
}

// NewRandomEngine creates a random engine, seeded when cfg.Seed is set.
func NewRandomEngine(cfg Config) *RandomEngine {
	e := &RandomEngine{}
	if cfg.Seed != 0 {
		e.seed(cfg.Seed)
	}
	return e
}

func (e *RandomEngine) seed(s uint64) {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], s)
	e.rng = frand.NewCustom(key[:], 1024, 12)
}

func (e *RandomEngine) Name() string { return "Random v1.0" }

func (e *RandomEngine) NewGame()            {}
func (e *RandomEngine) SetHistory([]uint64) {}
func (e *RandomEngine) Stop()               {}

func (e *RandomEngine) Options() []OptionSpec {
	return []OptionSpec{{Name: "Seed", Type: OptionSpin, Default: "0", Min: 0, Max: 1<<31 - 1}}
}

// SetOption accepts Seed; 0 returns to the unseeded generator.
func (e *RandomEngine) SetOption(name, value string) bool {
	if !strings.EqualFold(name, "seed") {
		return false
	}
	s, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return false
	}
	if s == 0 {
		e.rng = nil
	} else {
		e.seed(s)
	}
	return true
}

func (e *RandomEngine) Search(_ context.Context, pos *board.Position, _ SearchLimits) SearchResult {
	start := time.Now()
	pos.GenerateLegal(&e.moves)
	var res SearchResult
	if e.moves.Len() == 0 {
		res.Terminal = Stalemate
		if pos.InCheck(pos.SideToMove) {
			res.Terminal = Checkmate
			res.Score = -MateScore
		}
		res.Elapsed = time.Since(start)
		return res
	}
	var i int
	if e.rng != nil {
		i = e.rng.Intn(e.moves.Len())
	} else {
		i = frand.Intn(e.moves.Len())
	}
	res.BestMove = e.moves.At(i)
	res.PV = []board.Move{res.BestMove}
	res.Depth = 1
	res.Nodes = 1
	res.Elapsed = time.Since(start)
	return res
}
