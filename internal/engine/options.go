package engine

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
)

// OptionType is the UCI type of an engine option.
type OptionType string

const (
	OptionSpin   OptionType = "spin"
	OptionCheck  OptionType = "check"
	OptionCombo  OptionType = "combo"
	OptionString OptionType = "string"
)

// OptionSpec describes one option an engine accepts, for the protocol layer
// to advertise.
type OptionSpec struct {
	Name    string
	Type    OptionType
	Default string
	Min     int
	Max     int
	Vars    []string
}

// OptionLister is implemented by engines that can describe their options.
type OptionLister interface {
	Options() []OptionSpec
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // ~2-3 ply, 500ms
	Medium                   // ~4-5 ply, 2s
	Hard                     // ~6+ ply, 5s
)

// DifficultySettings maps difficulty to default search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {Depth: 3, MoveTime: 500 * time.Millisecond},
	Medium: {Depth: 5, MoveTime: 2 * time.Second},
	Hard:   {Depth: 7, MoveTime: 5 * time.Second},
}

var difficultyNames = []string{"easy", "medium", "hard"}

func (d Difficulty) String() string {
	if d >= Easy && d <= Hard {
		return difficultyNames[d]
	}
	return "unknown"
}

// ParseDifficulty parses "easy", "medium" or "hard", ignoring case.
func ParseDifficulty(s string) (Difficulty, bool) {
	for i, name := range difficultyNames {
		if strings.EqualFold(s, name) {
			return Difficulty(i), true
		}
	}
	return 0, false
}

// DefaultDepth is the search depth used when a search has no limits.
const DefaultDepth = 4

// Config carries construction-time settings shared by every engine.
type Config struct {
	Logger   zerolog.Logger
	HashMB   int
	ModelDir string // neural engine model root
	Seed     uint64 // random engine; 0 means unseeded
}

func (c Config) hashMB() int {
	if c.HashMB <= 0 {
		return DefaultHashMB
	}
	return c.HashMB
}

// searchEngine is the shell the search-backed engines share: a searcher,
// its default limits and the common options.
type searchEngine struct {
	searcher *Searcher
	defaults SearchLimits
	hashMB   int
	logger   zerolog.Logger
}

func newSearchEngine(eval Evaluator, cfg Config) searchEngine {
	s := NewSearcher(eval, NewTranspositionTable(cfg.hashMB()))
	s.SetLogger(cfg.Logger)
	return searchEngine{
		searcher: s,
		defaults: SearchLimits{Depth: DefaultDepth},
		hashMB:   cfg.hashMB(),
		logger:   cfg.Logger,
	}
}

func (e *searchEngine) NewGame()                           { e.searcher.NewGame() }
func (e *searchEngine) SetHistory(hashes []uint64)         { e.searcher.SetHistory(hashes) }
func (e *searchEngine) Stop()                              { e.searcher.Stop() }
func (e *searchEngine) SetInfoHandler(fn func(SearchInfo)) { e.searcher.SetInfoHandler(fn) }

// Search fills in the configured defaults when limits carry none.
func (e *searchEngine) Search(ctx context.Context, pos *board.Position, limits SearchLimits) SearchResult {
	if limits.unbounded() {
		limits.Depth = e.defaults.Depth
		limits.MoveTime = e.defaults.MoveTime
		limits.Nodes = e.defaults.Nodes
	}
	res := e.searcher.Search(ctx, pos, limits)
	e.logger.Info().
		Str("best", res.BestMove.String()).
		Str("score", ScoreString(res.Score)).
		Int("depth", res.Depth).
		Uint64("nodes", res.Nodes).
		Dur("elapsed", res.Elapsed).
		Bool("stopped", res.Stopped).
		Msg("search-done")
	return res
}

func (e *searchEngine) options() []OptionSpec {
	return []OptionSpec{
		{Name: "Depth", Type: OptionSpin, Default: strconv.Itoa(DefaultDepth), Min: 1, Max: 64},
		{Name: "MoveTime", Type: OptionSpin, Default: "0", Min: 0, Max: 3_600_000},
		{Name: "Nodes", Type: OptionSpin, Default: "0", Min: 0, Max: 1 << 30},
		{Name: "Hash", Type: OptionSpin, Default: strconv.Itoa(DefaultHashMB), Min: 1, Max: 1024},
		{Name: "Difficulty", Type: OptionCombo, Default: "none", Vars: difficultyNames},
	}
}

// setOption applies the options every search engine understands.
func (e *searchEngine) setOption(name, value string) bool {
	switch strings.ToLower(name) {
	case "depth":
		n, ok := parseSpin(value, 1, 64)
		if !ok {
			return false
		}
		e.defaults.Depth = n
	case "movetime":
		n, ok := parseSpin(value, 0, 3_600_000)
		if !ok {
			return false
		}
		e.defaults.MoveTime = time.Duration(n) * time.Millisecond
	case "nodes":
		n, ok := parseSpin(value, 0, 1<<30)
		if !ok {
			return false
		}
		e.defaults.Nodes = uint64(n)
	case "hash":
		n, ok := parseSpin(value, 1, 1024)
		if !ok {
			return false
		}
		if n != e.hashMB {
			e.hashMB = n
			e.searcher.SetTable(NewTranspositionTable(n))
		}
	case "difficulty":
		d, ok := ParseDifficulty(value)
		if !ok {
			return false
		}
		e.defaults = DifficultySettings[d]
	default:
		return false
	}
	return true
}

func parseSpin(value string, lo, hi int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}

func parseCheck(value string) (bool, bool) {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	return b, err == nil
}
