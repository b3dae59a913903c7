package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hailam/chesscore/internal/nnue"
)

// DefaultModelDir is where model versions live unless ModelDir is set.
const DefaultModelDir = "models"

// NeuralEngine searches with a neural evaluation. Two backends are
// supported: the 768-input network selected by ModelVersion, and a
// Stockfish network pair selected by EvalFile and EvalFileSmall. With
// neither loaded it falls back to material evaluation.
type NeuralEngine struct {
	searchEngine

	modelDir  string
	version   string
	net       *nnue.Network
	evalFile  string
	evalSmall string
	sf        *nnue.StockfishNets
	useSF     bool
}

// NewNeuralEngine creates a neural engine with no model loaded.
func NewNeuralEngine(cfg Config) *NeuralEngine {
	e := &NeuralEngine{
		searchEngine: newSearchEngine(Material, cfg),
		modelDir:     cfg.ModelDir,
		useSF:        true,
	}
	if e.modelDir == "" {
		e.modelDir = DefaultModelDir
	}
	return e
}

// NewNeuralEngineWithModel creates a neural engine and loads version from
// cfg.ModelDir.
func NewNeuralEngineWithModel(cfg Config, version string) (*NeuralEngine, error) {
	e := NewNeuralEngine(cfg)
	if err := e.LoadModel(version); err != nil {
		return nil, err
	}
	return e, nil
}

// Name reports the active backend: the model version, "stockfish", or
// "material" for the fallback.
func (e *NeuralEngine) Name() string {
	switch {
	case e.sf != nil && e.useSF:
		return "Neural-stockfish"
	case e.net != nil:
		return "Neural-" + e.version
	}
	return "Neural-material"
}

// ModelVersion returns the loaded model version, or "" if none.
func (e *NeuralEngine) ModelVersion() string { return e.version }

// LoadModel loads <ModelDir>/<version>/model.nnue. On failure the current
// model stays active.
func (e *NeuralEngine) LoadModel(version string) error {
	if version == "" {
		return fmt.Errorf("engine: %w: empty model version", nnue.ErrNoModel)
	}
	net, err := nnue.LoadVersion(e.modelDir, version)
	if err != nil {
		return err
	}
	e.net, e.version = net, version
	e.logger.Info().Str("version", version).Int("hidden", net.Hidden).Msg("model-loaded")
	e.selectEvaluator()
	return nil
}

// UseNetwork installs an in-memory network under the given version name.
func (e *NeuralEngine) UseNetwork(version string, net *nnue.Network) {
	e.net, e.version = net, version
	e.selectEvaluator()
}

func (e *NeuralEngine) loadStockfish() bool {
	if e.evalFile == "" || e.evalSmall == "" {
		return true
	}
	sf, err := nnue.LoadStockfish(e.evalFile, e.evalSmall)
	if err != nil {
		e.logger.Warn().Err(err).Str("big", e.evalFile).Str("small", e.evalSmall).Msg("stockfish-load-failed")
		return false
	}
	e.sf = sf
	e.selectEvaluator()
	return true
}

func (e *NeuralEngine) selectEvaluator() {
	switch {
	case e.sf != nil && e.useSF:
		e.searcher.SetEvaluator(nnue.NewStockfishEvaluator(e.sf))
	case e.net != nil:
		e.searcher.SetEvaluator(nnue.NewEvaluator(e.net))
	default:
		e.searcher.SetEvaluator(Material)
	}
}

func (e *NeuralEngine) Options() []OptionSpec {
	return append(e.options(),
		OptionSpec{Name: "ModelDir", Type: OptionString, Default: e.modelDir},
		OptionSpec{Name: "ModelVersion", Type: OptionString, Default: "<empty>"},
		OptionSpec{Name: "EvalFile", Type: OptionString, Default: "<empty>"},
		OptionSpec{Name: "EvalFileSmall", Type: OptionString, Default: "<empty>"},
		OptionSpec{Name: "UseNNUE", Type: OptionCheck, Default: "true"},
	)
}

// SetOption handles the common options plus the model selection ones. A
// model that fails to load leaves the engine unchanged and reports false.
func (e *NeuralEngine) SetOption(name, value string) bool {
	value = strings.TrimSpace(value)
	switch strings.ToLower(name) {
	case "modeldir":
		if value == "" {
			return false
		}
		e.modelDir = value
	case "modelversion", "model":
		if err := e.LoadModel(value); err != nil {
			if !errors.Is(err, nnue.ErrNoModel) {
				e.logger.Warn().Err(err).Str("version", value).Msg("model-load-failed")
			}
			return false
		}
	case "evalfile":
		old := e.evalFile
		e.evalFile = value
		if !e.loadStockfish() {
			e.evalFile = old
			return false
		}
	case "evalfilesmall":
		old := e.evalSmall
		e.evalSmall = value
		if !e.loadStockfish() {
			e.evalSmall = old
			return false
		}
	case "usennue":
		b, ok := parseCheck(value)
		if !ok {
			return false
		}
		e.useSF = b
		e.selectEvaluator()
	default:
		return e.setOption(name, value)
	}
	return true
}
