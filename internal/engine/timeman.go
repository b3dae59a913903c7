package engine

import (
	"time"

	"github.com/hailam/chesscore/internal/board"
)

// TimeManager turns search limits into a soft and a hard time bound.
type TimeManager struct {
	optimumTime time.Duration
	maximumTime time.Duration
	startTime   time.Time
	bounded     bool
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init sets up time allocation for a search by us at the given game ply.
func (tm *TimeManager) Init(limits SearchLimits, us board.Color, ply int) {
	tm.startTime = time.Now()
	tm.bounded = true

	switch {
	case limits.MoveTime > 0:
		// Fixed time per move: stop deepening at half of it, never exceed it.
		tm.optimumTime = limits.MoveTime / 2
		tm.maximumTime = limits.MoveTime
		return
	case limits.Infinite || !limits.HasClock(us):
		tm.bounded = false
		return
	}

	timeLeft := limits.Time[us]
	inc := limits.Inc[us]

	mtg := limits.MovesToGo
	if mtg <= 0 {
		// Estimate remaining moves from game phase.
		mtg = 50 - ply/4
		mtg = max(10, min(50, mtg))
	}

	baseTime := timeLeft/time.Duration(mtg) + inc*9/10
	tm.optimumTime = baseTime
	if ply < 8 {
		tm.optimumTime = baseTime * 85 / 100
	}

	tm.maximumTime = min(tm.optimumTime*5, timeLeft*80/100)

	if tm.optimumTime > tm.maximumTime {
		tm.optimumTime = tm.maximumTime
	}
	// Never use more than 95% of remaining time.
	tm.maximumTime = min(tm.maximumTime, timeLeft*95/100)
	tm.optimumTime = min(tm.optimumTime, tm.maximumTime)

	tm.optimumTime = max(tm.optimumTime, 10*time.Millisecond)
	tm.maximumTime = max(tm.maximumTime, 50*time.Millisecond)
}

// Bounded reports whether the search has a time limit at all.
func (tm *TimeManager) Bounded() bool { return tm.bounded }

// Elapsed returns time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// OptimumTime returns the soft limit: no new iteration starts past it.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.optimumTime
}

// MaximumTime returns the hard limit.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

// Deadline returns the wall-clock hard limit, or the zero time when
// unbounded.
func (tm *TimeManager) Deadline() time.Time {
	if !tm.bounded {
		return time.Time{}
	}
	return tm.startTime.Add(tm.maximumTime)
}

// PastOptimum returns true if we've used more than optimal time.
func (tm *TimeManager) PastOptimum() bool {
	return tm.bounded && tm.Elapsed() >= tm.optimumTime
}

// AdjustForStability shortens the soft limit when the best move has not
// changed for several iterations.
func (tm *TimeManager) AdjustForStability(stableIterations int) {
	if !tm.bounded || stableIterations < 3 {
		return
	}
	tm.optimumTime = tm.optimumTime * 3 / 4
}

// AdjustForInstability extends the soft limit when the best move keeps
// changing, up to the hard limit.
func (tm *TimeManager) AdjustForInstability() {
	if !tm.bounded {
		return
	}
	tm.optimumTime = min(tm.optimumTime*5/4, tm.maximumTime)
}
