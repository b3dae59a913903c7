package main

import (
	"flag"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/storage"
	"github.com/hailam/chesscore/internal/uci"
)

// Default NNUE file names (Stockfish compatible)
const (
	defaultBigNet   = "nn-c288c895ea92.nnue" // ~108MB
	defaultSmallNet = "nn-37f18f62d772.nnue" // ~3.5MB
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	kind       = flag.String("engine", "classical", "engine: classical, neural, neural:<version> or random")
	hashMB     = flag.Int("hash", engine.DefaultHashMB, "transposition table size in MB")
	modelDir   = flag.String("modeldir", "", "neural model directory (default: the data directory)")
	verbose    = flag.Bool("v", false, "debug logging on stderr")
)

func main() {
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
		logger.Info().Str("path", profilePath).Msg("cpu-profiling")
	}

	dir := *modelDir
	if dir == "" {
		d, err := storage.ModelDir()
		if err != nil {
			logger.Warn().Err(err).Msg("no data directory; using ./" + engine.DefaultModelDir)
			d = engine.DefaultModelDir
		}
		dir = d
	}
	cfg := engine.Config{Logger: logger, HashMB: *hashMB, ModelDir: dir}

	protocol, err := uci.New(*kind, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("engine", *kind).Msg("could not create engine")
	}
	autoLoadNNUE(protocol, &logger)

	if err := protocol.Run(os.Stdin, os.Stdout); err != nil {
		logger.Error().Err(err).Msg("input")
	}
}

// autoLoadNNUE points the engine at the Stockfish networks when both files
// sit in a standard location. Engines without NNUE support ignore it.
func autoLoadNNUE(u *uci.UCI, logger *zerolog.Logger) {
	searchPaths := []string{"./nnue", "."}
	if dataDir, err := storage.DataDir(); err == nil {
		searchPaths = append([]string{filepath.Join(dataDir, "nnue")}, searchPaths...)
	}
	for _, dir := range searchPaths {
		bigPath := filepath.Join(dir, defaultBigNet)
		smallPath := filepath.Join(dir, defaultSmallNet)
		if !fileExists(bigPath) || !fileExists(smallPath) {
			continue
		}
		u.Handle("setoption name EvalFile value " + bigPath)
		u.Handle("setoption name EvalFileSmall value " + smallPath)
		logger.Info().Str("dir", dir).Str("engine", u.Engine().Name()).Msg("nnue-found")
		return
	}
	logger.Debug().Msg("no stockfish networks found")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
