package engine

// ClassicalEngine searches with the hand-written evaluation.
type ClassicalEngine struct {
	searchEngine
}

// NewClassicalEngine creates a classical engine.
func NewClassicalEngine(cfg Config) *ClassicalEngine {
	return &ClassicalEngine{searchEngine: newSearchEngine(Classical, cfg)}
}

func (e *ClassicalEngine) Name() string { return "Classical v1.0" }

func (e *ClassicalEngine) SetOption(name, value string) bool {
	return e.setOption(name, value)
}

func (e *ClassicalEngine) Options() []OptionSpec { return e.options() }
