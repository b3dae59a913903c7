// Package tournament plays engines against each other and keeps Elo
// ratings.
package tournament

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/notation"
	"github.com/hailam/chesscore/internal/openings"
)

// GameResult is a game outcome from the first engine's point of view.
type GameResult int

const (
	Win GameResult = iota
	Loss
	Draw
)

func (r GameResult) String() string {
	switch r {
	case Win:
		return "win"
	case Loss:
		return "loss"
	}
	return "draw"
}

// flip returns r from the other engine's point of view.
func (r GameResult) flip() GameResult {
	switch r {
	case Win:
		return Loss
	case Loss:
		return Win
	}
	return Draw
}

// MatchResult counts games from the first engine's point of view.
type MatchResult struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

// Total returns the number of games played.
func (m MatchResult) Total() int { return m.Wins + m.Losses + m.Draws }

// Score returns the points fraction won, 0.5 for an empty match.
func (m MatchResult) Score() float64 {
	if m.Total() == 0 {
		return 0.5
	}
	return (float64(m.Wins) + 0.5*float64(m.Draws)) / float64(m.Total())
}

// Add counts one game.
func (m *MatchResult) Add(r GameResult) {
	switch r {
	case Win:
		m.Wins++
	case Loss:
		m.Losses++
	default:
		m.Draws++
	}
}

// Flip returns the result from the second engine's point of view.
func (m MatchResult) Flip() MatchResult {
	return MatchResult{Wins: m.Losses, Losses: m.Wins, Draws: m.Draws}
}

func (m MatchResult) String() string {
	return fmt.Sprintf("+%d -%d =%d", m.Wins, m.Losses, m.Draws)
}

// MatchConfig configures a match.
type MatchConfig struct {
	Games           int
	Depth           int
	MoveTime        time.Duration // 0 = depth only
	MaxMoves        int           // plies before the game is drawn
	AlternateColors bool
	Concurrency     int             // games in flight; 0 = one per CPU
	Openings        *openings.Suite // start lines, nil = initial position
	Engine          engine.Config
	Logger          zerolog.Logger
}

// DefaultMatchConfig returns the standard match settings: ten games at
// depth 4, colours alternating, drawn after 200 plies.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		Games:           10,
		Depth:           4,
		MaxMoves:        200,
		AlternateColors: true,
		Logger:          zerolog.Nop(),
	}
}

func (c MatchConfig) limits() engine.SearchLimits {
	return engine.SearchLimits{Depth: c.Depth, MoveTime: c.MoveTime}
}

// Termination reasons.
const (
	ByCheckmate    = "checkmate"
	ByStalemate    = "stalemate"
	ByFiftyMoves   = "fifty-move rule"
	ByRepetition   = "threefold repetition"
	ByInsufficient = "insufficient material"
	ByMaxMoves     = "max moves"
	ByIllegalMove  = "illegal move"
)

// Game is one finished game.
type Game struct {
	Round  int
	White  string
	Black  string
	Result notation.Result
	Reason string
	Plies  int
	PGN    string
}

// MatchReport is the outcome of a match between two engines.
type MatchReport struct {
	Engine1 string
	Engine2 string
	Result  MatchResult
	Games   []Game
	Elapsed time.Duration
}

// Runner plays matches.
type Runner struct {
	cfg MatchConfig
}

// NewRunner creates a runner.
func NewRunner(cfg MatchConfig) *Runner {
	if cfg.MaxMoves <= 0 {
		cfg.MaxMoves = DefaultMatchConfig().MaxMoves
	}
	return &Runner{cfg: cfg}
}

// RunMatch plays cfg.Games games between engines built by f1 and f2. Each
// game gets a fresh engine pair so games can run concurrently. Results are
// from the point of view of f1's engine; games are returned in round
// order.
func (r *Runner) RunMatch(ctx context.Context, f1, f2 engine.Factory) (MatchReport, error) {
	start := time.Now()
	workers := r.cfg.Concurrency
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Paired games share an opening with colours reversed.
	starts := make([][]board.Move, (r.cfg.Games+1)/2)
	if r.cfg.Openings != nil {
		for i := range starts {
			starts[i] = r.cfg.Openings.Random()
		}
	}

	games := make([]Game, r.cfg.Games)
	results := make([]GameResult, r.cfg.Games)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < r.cfg.Games; i++ {
		i := i
		g.Go(func() error {
			e1, err := f1(r.cfg.Engine)
			if err != nil {
				return err
			}
			e2, err := f2(r.cfg.Engine)
			if err != nil {
				return err
			}
			firstWhite := !r.cfg.AlternateColors || i%2 == 0
			white, black := e1, e2
			if !firstWhite {
				white, black = e2, e1
			}
			game, res, err := r.PlayGame(ctx, white, black, starts[i/2])
			if err != nil {
				return fmt.Errorf("game %d: %w", i+1, err)
			}
			game.Round = i + 1
			if !firstWhite {
				res = res.flip()
			}
			games[i], results[i] = game, res
			r.cfg.Logger.Info().
				Int("round", game.Round).
				Str("white", game.White).
				Str("black", game.Black).
				Str("result", string(game.Result)).
				Str("reason", game.Reason).
				Int("plies", game.Plies).
				Msg("game-finished")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MatchReport{}, err
	}

	report := MatchReport{Games: games, Elapsed: time.Since(start)}
	for _, res := range results {
		report.Result.Add(res)
	}
	// Round 1 always has the first engine as White.
	if len(games) > 0 {
		report.Engine1, report.Engine2 = games[0].White, games[0].Black
	}
	return report, nil
}

// PlayGame plays one game after the given opening and returns it with the
// result from White's point of view.
func (r *Runner) PlayGame(ctx context.Context, white, black engine.Engine, opening []board.Move) (Game, GameResult, error) {
	pos := board.NewPosition()
	white.NewGame()
	black.NewGame()

	rec, err := notation.NewGame("")
	if err != nil {
		return Game{}, Draw, err
	}
	rec.SetTag("Event", "chesscore match")
	rec.SetTag("Date", time.Now().Format("2006.01.02"))
	rec.SetTag("White", white.Name())
	rec.SetTag("Black", black.Name())

	game := Game{White: white.Name(), Black: black.Name()}
	var history []uint64
	play := func(m board.Move) error {
		if _, err := rec.Push(m); err != nil {
			return err
		}
		history = append(history, pos.Hash)
		pos.MakeMove(m)
		game.Plies++
		return nil
	}

	for _, m := range opening {
		if err := play(m); err != nil {
			return Game{}, Draw, fmt.Errorf("opening: %w", err)
		}
	}

	var legal board.MoveList
	result, reason := Draw, ByMaxMoves
	for game.Plies < r.cfg.MaxMoves {
		if over, res, why := adjudicate(pos, history, &legal); over {
			result, reason = res, why
			break
		}

		eng := white
		if pos.SideToMove == board.Black {
			eng = black
		}
		eng.SetHistory(history)
		sr := eng.Search(ctx, pos, r.cfg.limits())
		if err := ctx.Err(); err != nil {
			return Game{}, Draw, err
		}
		if !legal.Contains(sr.BestMove) {
			result, reason = Win, ByIllegalMove
			if pos.SideToMove == board.White {
				result = Loss
			}
			r.cfg.Logger.Warn().Str("engine", eng.Name()).Str("move", sr.BestMove.String()).
				Str("fen", pos.FEN()).Msg("illegal-move")
			break
		}
		if err := play(sr.BestMove); err != nil {
			return Game{}, Draw, err
		}
	}

	switch result {
	case Win:
		game.Result = notation.WhiteWins
	case Loss:
		game.Result = notation.BlackWins
	default:
		game.Result = notation.Draw
	}
	game.Reason = reason
	rec.Finish(game.Result)
	rec.SetTag("Result", string(game.Result))
	rec.SetTag("Termination", reason)
	rec.SetTag("PlyCount", strconv.Itoa(game.Plies))
	game.PGN = rec.PGN()
	return game, result, nil
}

// adjudicate decides whether the game is over in pos, generating its
// legal moves into legal. history holds the earlier positions.
func adjudicate(pos *board.Position, history []uint64, legal *board.MoveList) (bool, GameResult, string) {
	pos.GenerateLegal(legal)
	if legal.Len() == 0 {
		if !pos.InCheck(pos.SideToMove) {
			return true, Draw, ByStalemate
		}
		if pos.SideToMove == board.White {
			return true, Loss, ByCheckmate
		}
		return true, Win, ByCheckmate
	}
	if pos.IsFiftyMoveDraw() {
		return true, Draw, ByFiftyMoves
	}
	if pos.HasInsufficientMaterial() {
		return true, Draw, ByInsufficient
	}
	seen := 1
	for i := len(history) - 2; i >= 0 && i >= len(history)-pos.HalfMoveClock; i -= 2 {
		if history[i] == pos.Hash {
			seen++
		}
	}
	if seen >= 3 {
		return true, Draw, ByRepetition
	}
	return false, Draw, ""
}
