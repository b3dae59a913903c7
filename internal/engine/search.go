package engine

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
)

// Aspiration windows start at this depth with this half-width.
const (
	aspirationDepth  = 5
	aspirationWindow = 50
)

// Searcher performs iterative-deepening negamax with alpha-beta pruning on
// a private copy of the root position. One Searcher runs one search at a
// time; Stop may be called from any goroutine.
type Searcher struct {
	eval    Evaluator
	tt      *TranspositionTable
	orderer MoveOrderer
	tm      TimeManager
	logger  zerolog.Logger
	onInfo  func(SearchInfo)

	pos     board.Position
	history []uint64 // game positions before the root, oldest first
	hashes  []uint64 // history, root, then the current search path

	pvTable  [MaxPly + 1][MaxPly + 1]board.Move
	pvLength [MaxPly + 1]int
	lists    [MaxPly + 1]board.MoveList
	scores   [MaxPly + 1][256]int
	quiets   [MaxPly + 1][64]board.Move
	rootBest board.Move

	nodes     uint64
	nodeLimit uint64
	deadline  time.Time
	stopped   atomic.Bool
	aborted   bool
	canAbort  bool
}

// NewSearcher creates a searcher that scores leaves with eval.
func NewSearcher(eval Evaluator, tt *TranspositionTable) *Searcher {
	if tt == nil {
		tt = NewTranspositionTable(DefaultHashMB)
	}
	return &Searcher{
		eval:   eval,
		tt:     tt,
		logger: zerolog.Nop(),
		hashes: make([]uint64, 0, 256+MaxPly),
	}
}

// SetLogger sets the logger for per-iteration debug output.
func (s *Searcher) SetLogger(l zerolog.Logger) { s.logger = l }

// SetInfoHandler registers a callback run after every completed iteration.
func (s *Searcher) SetInfoHandler(fn func(SearchInfo)) { s.onInfo = fn }

// SetEvaluator replaces the leaf evaluator.
func (s *Searcher) SetEvaluator(eval Evaluator) { s.eval = eval }

// SetTable replaces the transposition table.
func (s *Searcher) SetTable(tt *TranspositionTable) { s.tt = tt }

// SetHistory records the hashes of the game positions preceding the next
// root, oldest first.
func (s *Searcher) SetHistory(hashes []uint64) {
	s.history = append(s.history[:0], hashes...)
}

// NewGame forgets the game history, the hash table and the move ordering
// statistics.
func (s *Searcher) NewGame() {
	s.history = s.history[:0]
	s.tt.Clear()
	s.orderer.Reset()
}

// Stop signals the search to stop.
func (s *Searcher) Stop() {
	s.stopped.Store(true)
}

// Nodes returns the number of nodes visited by the last search.
func (s *Searcher) Nodes() uint64 { return s.nodes }

// Search runs iterative deepening on a copy of root until a limit fires or
// ctx is done, and returns the result of the last completed iteration.
// Depth 1 always completes, so a position with legal moves always yields a
// legal BestMove.
func (s *Searcher) Search(ctx context.Context, root *board.Position, limits SearchLimits) SearchResult {
	s.stopped.Store(false)
	release := context.AfterFunc(ctx, s.Stop)
	defer release()

	s.pos = *root
	s.hashes = append(append(s.hashes[:0], s.history...), s.pos.Hash)
	s.nodes = 0
	s.nodeLimit = limits.Nodes
	s.aborted = false
	s.canAbort = false
	gamePly := 2*(s.pos.FullMoveNumber-1) + int(s.pos.SideToMove)
	s.tm.Init(limits, s.pos.SideToMove, gamePly)
	s.deadline = s.tm.Deadline()
	s.orderer.Clear()
	s.tt.NewSearch()

	var result SearchResult
	rootMoves := &s.lists[0]
	s.pos.GenerateLegal(rootMoves)
	if rootMoves.Len() == 0 {
		result.Score = DrawScore
		result.Terminal = Stalemate
		if s.pos.InCheck(s.pos.SideToMove) {
			result.Score = -MateScore
			result.Terminal = Checkmate
		}
		result.Elapsed = s.tm.Elapsed()
		return result
	}
	result.BestMove = rootMoves.At(0)

	maxDepth := limits.Depth
	if maxDepth <= 0 || maxDepth >= MaxPly {
		maxDepth = MaxPly - 1
	}

	stable := 0
	for depth := 1; depth <= maxDepth; depth++ {
		s.canAbort = depth > 1
		s.rootBest = result.BestMove

		score := s.aspiration(depth, result.Score)
		if s.aborted {
			result.Stopped = true
			break
		}

		pv := slices.Clone(s.pvTable[0][:s.pvLength[0]])
		if pv[0] == result.BestMove {
			stable++
			if stable == 3 {
				s.tm.AdjustForStability(stable)
			}
		} else if depth > 1 {
			stable = 0
			s.tm.AdjustForInstability()
		}
		result.BestMove = pv[0]
		result.Score = score
		result.Depth = depth
		result.PV = pv

		elapsed := s.tm.Elapsed()
		s.logger.Debug().
			Int("depth", depth).
			Str("score", ScoreString(score)).
			Uint64("nodes", s.nodes).
			Dur("elapsed", elapsed).
			Str("pv", PVString(pv)).
			Msg("search-iteration")
		if s.onInfo != nil {
			s.onInfo(SearchInfo{
				Depth:    depth,
				Score:    score,
				Nodes:    s.nodes,
				Time:     elapsed,
				PV:       pv,
				HashFull: s.tt.HashFull(),
			})
		}

		if IsMateScore(score) && !limits.Infinite {
			break
		}
		if s.stopped.Load() || (s.nodeLimit > 0 && s.nodes >= s.nodeLimit) {
			result.Stopped = true
			break
		}
		if s.tm.PastOptimum() {
			break
		}
	}

	result.Nodes = s.nodes
	result.Elapsed = s.tm.Elapsed()
	return result
}

// aspiration searches the root at depth, using a narrow window around the
// previous score once the search is deep enough and widening on failure.
func (s *Searcher) aspiration(depth, prev int) int {
	if depth < aspirationDepth || IsMateScore(prev) {
		return s.negamax(depth, -Infinity, Infinity, 0)
	}
	alpha, beta := prev-aspirationWindow, prev+aspirationWindow
	for {
		score := s.negamax(depth, alpha, beta, 0)
		switch {
		case s.aborted:
			return 0
		case score <= alpha:
			alpha = -Infinity
		case score >= beta:
			beta = Infinity
		default:
			return score
		}
		if alpha == -Infinity && beta == Infinity {
			return s.negamax(depth, alpha, beta, 0)
		}
	}
}

// poll counts a node and reports whether the search must unwind.
func (s *Searcher) poll() bool {
	if s.aborted {
		return true
	}
	s.nodes++
	if !s.canAbort {
		return false
	}
	if s.nodeLimit > 0 && s.nodes >= s.nodeLimit {
		s.aborted = true
	} else if s.nodes&(pollInterval-1) == 0 {
		if s.stopped.Load() || (!s.deadline.IsZero() && time.Now().After(s.deadline)) {
			s.aborted = true
		}
	}
	return s.aborted
}

func (s *Searcher) negamax(depth, alpha, beta, ply int) int {
	if depth <= 0 {
		return s.quiesce(alpha, beta, ply)
	}
	s.pvLength[ply] = 0
	if s.poll() {
		return 0
	}
	pos := &s.pos
	if ply >= MaxPly {
		return s.eval.Evaluate(pos)
	}

	moves := &s.lists[ply]
	pos.GenerateLegal(moves)
	if moves.Len() == 0 {
		if pos.InCheck(pos.SideToMove) {
			return -MateScore + ply
		}
		return DrawScore
	}
	if ply > 0 && s.isDraw() {
		return DrawScore
	}

	hashMove := board.NoMove
	if e, ok := s.tt.Probe(pos.Hash, ply); ok {
		hashMove = e.BestMove
		if ply > 0 && int(e.Depth) >= depth {
			score := int(e.Score)
			switch {
			case e.Flag == TTExact,
				e.Flag == TTLowerBound && score >= beta,
				e.Flag == TTUpperBound && score <= alpha:
				return score
			}
		}
	}
	if ply == 0 && s.rootBest != board.NoMove {
		hashMove = s.rootBest
	}

	scores := s.scores[ply][:moves.Len()]
	s.orderer.ScoreMoves(moves, scores, ply, hashMove)

	origAlpha := alpha
	best := -Infinity
	bestMove := board.NoMove
	nquiets := 0
	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.At(i)

		undo := pos.MakeMove(m)
		s.hashes = append(s.hashes, pos.Hash)
		score := -s.negamax(depth-1, -beta, -alpha, ply+1)
		s.hashes = s.hashes[:len(s.hashes)-1]
		pos.UnmakeMove(m, undo)

		if s.aborted {
			return 0
		}
		if score > best {
			best = score
			bestMove = m
			if score > alpha {
				alpha = score
				s.updatePV(ply, m)
			}
		}
		if alpha >= beta {
			if !m.IsTactical() {
				s.orderer.UpdateKillers(m, ply)
				s.orderer.UpdateHistory(m, s.quiets[ply][:nquiets], depth)
			}
			break
		}
		if !m.IsTactical() && nquiets < len(s.quiets[ply]) {
			s.quiets[ply][nquiets] = m
			nquiets++
		}
	}

	flag := TTExact
	switch {
	case best >= beta:
		flag = TTLowerBound
	case best <= origAlpha:
		flag = TTUpperBound
	}
	s.tt.Store(pos.Hash, bestMove, best, depth, flag, ply)
	return best
}

// quiesce extends the search along captures and promotions until the
// position is quiet. In check every evasion is searched.
func (s *Searcher) quiesce(alpha, beta, ply int) int {
	s.pvLength[ply] = 0
	if s.poll() {
		return 0
	}
	pos := &s.pos
	if ply >= MaxPly {
		return s.eval.Evaluate(pos)
	}

	moves := &s.lists[ply]
	pos.GenerateLegal(moves)
	inCheck := pos.InCheck(pos.SideToMove)
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return DrawScore
	}
	if s.isDraw() {
		return DrawScore
	}

	best := -Infinity
	if !inCheck {
		best = s.eval.Evaluate(pos)
		if best >= beta {
			return best
		}
		alpha = max(alpha, best)
	}

	scores := s.scores[ply][:moves.Len()]
	s.orderer.ScoreMoves(moves, scores, ply, board.NoMove)
	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.At(i)
		// Tactical moves sort ahead of every quiet move.
		if !inCheck && !m.IsTactical() {
			break
		}

		undo := pos.MakeMove(m)
		s.hashes = append(s.hashes, pos.Hash)
		score := -s.quiesce(-beta, -alpha, ply+1)
		s.hashes = s.hashes[:len(s.hashes)-1]
		pos.UnmakeMove(m, undo)

		if s.aborted {
			return 0
		}
		if score > best {
			best = score
			if score > alpha {
				alpha = score
				s.updatePV(ply, m)
			}
		}
		if alpha >= beta {
			break
		}
	}
	return best
}

func (s *Searcher) updatePV(ply int, m board.Move) {
	s.pvTable[ply][0] = m
	n := copy(s.pvTable[ply][1:], s.pvTable[ply+1][:s.pvLength[ply+1]])
	s.pvLength[ply] = n + 1
}

// isDraw reports a fifty-move, insufficient-material or threefold draw at
// the current node.
func (s *Searcher) isDraw() bool {
	if s.pos.IsFiftyMoveDraw() || s.pos.HasInsufficientMaterial() {
		return true
	}
	return s.repetitions() >= 3
}

// repetitions counts occurrences of the current position, itself included,
// since the last irreversible move.
func (s *Searcher) repetitions() int {
	n := len(s.hashes)
	cur := s.hashes[n-1]
	count := 1
	limit := max(0, n-1-s.pos.HalfMoveClock)
	for i := n - 3; i >= limit; i -= 2 {
		if s.hashes[i] == cur {
			count++
		}
	}
	return count
}
