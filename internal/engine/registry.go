package engine

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnknownEngine is returned by New for an unregistered engine name.
var ErrUnknownEngine = errors.New("unknown engine")

// Factory builds a fresh engine instance.
type Factory func(cfg Config) (Engine, error)

var factories = map[string]Factory{
	"classical": func(cfg Config) (Engine, error) { return NewClassicalEngine(cfg), nil },
	"neural":    func(cfg Config) (Engine, error) { return NewNeuralEngine(cfg), nil },
	"random":    func(cfg Config) (Engine, error) { return NewRandomEngine(cfg), nil },
}

// Names lists the registered engine kinds, sorted.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New builds an engine by kind, ignoring case. "neural:<version>" builds a
// neural engine with that model version loaded.
func New(kind string, cfg Config) (Engine, error) {
	kind = strings.TrimSpace(kind)
	if base, version, ok := strings.Cut(kind, ":"); ok && strings.EqualFold(base, "neural") {
		e, err := NewNeuralEngineWithModel(cfg, version)
		if err != nil {
			return nil, fmt.Errorf("engine %q: %w", kind, err)
		}
		return e, nil
	}
	f, ok := factories[strings.ToLower(kind)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, kind)
	}
	return f(cfg)
}

// FactoryFor returns a Factory building kind, for callers that need one
// engine per game.
func FactoryFor(kind string) Factory {
	return func(cfg Config) (Engine, error) { return New(kind, cfg) }
}

var (
	_ Engine       = (*ClassicalEngine)(nil)
	_ Engine       = (*NeuralEngine)(nil)
	_ Engine       = (*RandomEngine)(nil)
	_ InfoReporter = (*ClassicalEngine)(nil)
	_ OptionLister = (*NeuralEngine)(nil)
)
