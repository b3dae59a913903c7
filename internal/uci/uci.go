// Package uci implements the Universal Chess Interface protocol over any
// engine.Engine.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/notation"
	"github.com/hailam/chesscore/internal/perft"
)

// Identity reported to the GUI.
const (
	EngineName   = "chesscore"
	EngineAuthor = "chesscore authors"
)

// engineKinds are the values of the Engine combo option.
var engineKinds = []string{"Classical", "Neural", "Random"}

// setting is an option value to replay when the engine is switched.
type setting struct {
	name, value string
}

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	cfg    engine.Config
	engine engine.Engine
	logger zerolog.Logger

	position *board.Position
	// Hashes of the positions before the current one, oldest first.
	history []uint64

	settings []setting
	debug    bool

	outMu sync.Mutex
	out   io.Writer

	searchDone chan struct{}
	cancel     context.CancelFunc
}

// New creates a protocol handler driving an engine of the given kind.
func New(kind string, cfg engine.Config) (*UCI, error) {
	eng, err := engine.New(kind, cfg)
	if err != nil {
		return nil, err
	}
	return &UCI{
		cfg:      cfg,
		engine:   eng,
		logger:   cfg.Logger.With().Str("component", "uci").Logger(),
		position: board.NewPosition(),
		out:      io.Discard,
	}, nil
}

// Engine returns the engine currently in use.
func (u *UCI) Engine() engine.Engine { return u.engine }

// Run reads commands from r and writes responses to w until quit or end
// of input.
func (u *UCI) Run(r io.Reader, w io.Writer) error {
	u.out = w
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !u.Handle(line) {
			return nil
		}
	}
	u.handleStop()
	return scanner.Err()
}

// Handle executes one command line and reports false on quit.
func (u *UCI) Handle(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd, args := parts[0], parts[1:]
	u.logger.Debug().Str("cmd", line).Msg("command")

	switch cmd {
	case "uci":
		u.handleUCI()
	case "isready":
		u.println("readyok")
	case "ucinewgame":
		u.handleNewGame()
	case "position":
		u.handlePosition(args)
	case "go":
		u.handleGo(args)
	case "stop":
		u.handleStop()
	case "quit":
		u.handleStop()
		return false
	case "setoption":
		u.handleSetOption(args)
	// Debug commands
	case "d":
		u.println(u.position.String())
		u.printf("Fen: %s\nKey: %016x\n", u.position.FEN(), u.position.Hash)
	case "perft":
		u.handlePerft(args)
	default:
		u.printf("info string unknown command %s\n", cmd)
	}
	return true
}

func (u *UCI) printf(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format, args...)
}

func (u *UCI) println(s string) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintln(u.out, s)
}

// fixedOptions are advertised whatever the current engine is.
func fixedOptions() []engine.OptionSpec {
	return []engine.OptionSpec{
		{Name: "Engine", Type: engine.OptionCombo, Default: engineKinds[0], Vars: engineKinds},
		{Name: "Depth", Type: engine.OptionSpin, Default: strconv.Itoa(engine.DefaultDepth), Min: 1, Max: engine.MaxPly / 2},
		{Name: "ModelVersion", Type: engine.OptionString},
		{Name: "ModelDir", Type: engine.OptionString, Default: engine.DefaultModelDir},
		{Name: "EvalFile", Type: engine.OptionString},
		{Name: "EvalFileSmall", Type: engine.OptionString},
		{Name: "Debug", Type: engine.OptionCheck, Default: "false"},
	}
}

func (u *UCI) options() []engine.OptionSpec {
	opts := fixedOptions()
	lister, ok := u.engine.(engine.OptionLister)
	if !ok {
		return opts
	}
	for _, o := range lister.Options() {
		if !isAdvertised(opts, o.Name) {
			opts = append(opts, o)
		}
	}
	return opts
}

func isAdvertised(opts []engine.OptionSpec, name string) bool {
	for _, o := range opts {
		if strings.EqualFold(o.Name, name) {
			return true
		}
	}
	return false
}

// FormatOption renders an option declaration line.
func FormatOption(o engine.OptionSpec) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "option name %s type %s", o.Name, o.Type)
	switch o.Type {
	case engine.OptionSpin:
		fmt.Fprintf(&sb, " default %s min %d max %d", o.Default, o.Min, o.Max)
	case engine.OptionCombo:
		fmt.Fprintf(&sb, " default %s", o.Default)
		for _, v := range o.Vars {
			sb.WriteString(" var " + v)
		}
	case engine.OptionString:
		def := o.Default
		if def == "" {
			def = "<empty>"
		}
		sb.WriteString(" default " + def)
	default:
		sb.WriteString(" default " + o.Default)
	}
	return sb.String()
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.printf("id name %s (%s)\n", EngineName, u.engine.Name())
	u.printf("id author %s\n", EngineAuthor)
	u.println("")
	for _, o := range u.options() {
		u.println(FormatOption(o))
	}
	u.println("uciok")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.engine.NewGame()
	u.position = board.NewPosition()
	u.history = nil
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
//
// The current position is left unchanged on any error.
func (u *UCI) handlePosition(args []string) {
	pos, history, err := ParsePosition(args)
	if err != nil {
		u.printf("info string %v\n", err)
		return
	}
	u.handleStop()
	u.position, u.history = pos, history
}

// ParsePosition interprets the arguments of a position command. It returns
// the final position and the hashes of the positions that preceded it.
func ParsePosition(args []string) (*board.Position, []uint64, error) {
	if len(args) == 0 {
		return nil, nil, fmt.Errorf("position: missing arguments")
	}

	moveStart := len(args)
	for i, arg := range args {
		if arg == "moves" {
			moveStart = i
			break
		}
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		p, err := board.ParseFEN(strings.Join(args[1:moveStart], " "))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid fen: %w", err)
		}
		pos = p
	default:
		return nil, nil, fmt.Errorf("position: expected startpos or fen, got %q", args[0])
	}

	var history []uint64
	if moveStart < len(args) {
		for _, text := range args[moveStart+1:] {
			m, err := pos.ParseMove(text)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid move %s: %w", text, err)
			}
			history = append(history, pos.Hash)
			pos.MakeMove(m)
		}
	}
	return pos, history, nil
}

// ParseGo converts "go" command arguments to search limits. Times are in
// milliseconds.
func ParseGo(args []string) engine.SearchLimits {
	var limits engine.SearchLimits
	ms := func(s string) time.Duration {
		n, _ := strconv.Atoi(s)
		return time.Duration(n) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		next := ""
		if i+1 < len(args) {
			next = args[i+1]
		}
		switch args[i] {
		case "depth":
			limits.Depth, _ = strconv.Atoi(next)
			i++
		case "nodes":
			limits.Nodes, _ = strconv.ParseUint(next, 10, 64)
			i++
		case "movetime":
			limits.MoveTime = ms(next)
			i++
		case "wtime":
			limits.Time[board.White] = ms(next)
			i++
		case "btime":
			limits.Time[board.Black] = ms(next)
			i++
		case "winc":
			limits.Inc[board.White] = ms(next)
			i++
		case "binc":
			limits.Inc[board.Black] = ms(next)
			i++
		case "movestogo":
			limits.MovesToGo, _ = strconv.Atoi(next)
			i++
		case "infinite":
			limits.Infinite = true
		}
	}
	return limits
}

// handleGo starts a search with the given parameters.
func (u *UCI) handleGo(args []string) {
	u.handleStop()
	limits := ParseGo(args)

	eng := u.engine
	eng.SetHistory(u.history)
	pos := *u.position
	if r, ok := eng.(engine.InfoReporter); ok {
		r.SetInfoHandler(func(info engine.SearchInfo) {
			u.sendInfo(&pos, info)
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	u.searchDone, u.cancel = done, cancel
	go func() {
		defer close(done)
		res := eng.Search(ctx, &pos, limits)
		u.println("bestmove " + u.checkedMove(&pos, res.BestMove).String())
	}()
}

// checkedMove returns m when it is legal in pos, and otherwise the first
// legal move (NoMove, printed as 0000, when there is none).
func (u *UCI) checkedMove(pos *board.Position, m board.Move) board.Move {
	var legal board.MoveList
	pos.GenerateLegal(&legal)
	if legal.Contains(m) {
		return m
	}
	if legal.Len() == 0 {
		return board.NoMove
	}
	u.logger.Error().Str("move", m.String()).Str("fen", pos.FEN()).Int("legal", legal.Len()).
		Msg("search returned illegal move")
	return legal.At(0)
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(root *board.Position, info engine.SearchInfo) {
	parts := []string{
		fmt.Sprintf("depth %d", info.Depth),
		"score " + engine.ScoreString(info.Score),
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("nps %d", info.NPS()),
		fmt.Sprintf("time %d", info.Time.Milliseconds()),
	}
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}
	if len(info.PV) > 0 {
		parts = append(parts, "pv "+engine.PVString(info.PV))
	}
	u.printf("info %s\n", strings.Join(parts, " "))

	if u.debug && len(info.PV) > 0 {
		if line, err := notation.Line(root, info.PV); err == nil {
			u.printf("info string pv %s\n", line)
		}
	}
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.searchDone == nil {
		return
	}
	u.cancel()
	<-u.searchDone
	u.searchDone, u.cancel = nil, nil
}

// ParseSetOption splits "setoption name <name> value <value>" arguments.
// Both name and value may contain spaces.
func ParseSetOption(args []string) (name, value string) {
	var nameParts, valueParts []string
	target := &nameParts
	for _, arg := range args {
		switch arg {
		case "name":
			target = &nameParts
		case "value":
			target = &valueParts
		default:
			*target = append(*target, arg)
		}
	}
	return strings.Join(nameParts, " "), strings.Join(valueParts, " ")
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	name, value := ParseSetOption(args)
	if name == "" {
		return
	}
	u.handleStop()

	switch strings.ToLower(name) {
	case "engine":
		u.switchEngine(value)
		return
	case "debug":
		u.debug = strings.EqualFold(value, "true")
		board.DebugChecks = u.debug
		return
	}

	if u.engine.SetOption(name, value) {
		u.remember(name, value)
		return
	}
	if isAdvertised(fixedOptions(), name) {
		// Kept for an engine that understands it.
		u.remember(name, value)
		u.printf("info string %s ignores option %s\n", u.engine.Name(), name)
		return
	}
	u.printf("info string unknown option %s\n", name)
}

func (u *UCI) remember(name, value string) {
	for i, s := range u.settings {
		if strings.EqualFold(s.name, name) {
			u.settings[i].value = value
			return
		}
	}
	u.settings = append(u.settings, setting{name, value})
}

// switchEngine replaces the engine and replays earlier settings on it.
func (u *UCI) switchEngine(kind string) {
	eng, err := engine.New(kind, u.cfg)
	if err != nil {
		u.printf("info string %v\n", err)
		return
	}
	for _, s := range u.settings {
		eng.SetOption(s.name, s.value)
	}
	u.engine = eng
	u.logger.Info().Str("engine", eng.Name()).Msg("engine-switched")
	u.printf("info string engine %s\n", eng.Name())
}

// handlePerft runs a perft divide from the current position.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}

	pos := *u.position
	start := time.Now()
	splits := perft.Divide(&pos, depth)
	elapsed := time.Since(start)
	for _, s := range splits {
		u.printf("%s: %d\n", s.Move, s.Nodes)
	}
	nodes := perft.Total(splits)
	u.printf("\nNodes: %d\nTime: %v\n", nodes, elapsed.Round(time.Millisecond))
	if elapsed > 0 {
		u.printf("NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}
