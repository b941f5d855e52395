package strategy

import (
	"sync"

	"github.com/marketcalls/quantbt/internal/core"
	"go.uber.org/zap"
)

// Engine manages registered strategies and their factories
type Engine struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	factories  map[string]Factory
	logger     *zap.Logger
}

// NewEngine creates a new strategy engine
func NewEngine(logger ...*zap.Logger) *Engine {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Engine{
		strategies: make(map[string]Strategy),
		factories:  make(map[string]Factory),
		logger:     l,
	}
}

// Register adds a strategy instance to the engine
func (e *Engine) Register(s Strategy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategies[s.Name()] = s
}

// RegisterFactory adds a strategy constructor under the given name
func (e *Engine) RegisterFactory(name string, f Factory) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.factories[name] = f
}

// Get retrieves a registered strategy by name
func (e *Engine) Get(name string) (Strategy, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.strategies[name]
	return s, ok
}

// New creates a fresh strategy instance with the given parameters. The
// strategy must have a registered factory.
func (e *Engine) New(name string, params map[string]any) (Strategy, error) {
	e.mu.RLock()
	f, ok := e.factories[name]
	e.mu.RUnlock()

	if !ok {
		return nil, core.ErrStrategyNotFound
	}
	return f(params)
}

// Factory returns the registered factory for a strategy name. The
// optimizer uses this to construct fresh instances per candidate.
func (e *Engine) Factory(name string) (Factory, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	f, ok := e.factories[name]
	if !ok {
		return nil, core.ErrStrategyNotFound
	}
	return f, nil
}

// Names returns the names of all strategies with registered factories
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]string, 0, len(e.factories))
	for name := range e.factories {
		result = append(result, name)
	}
	return result
}

// All returns all registered strategy instances
func (e *Engine) All() []Strategy {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]Strategy, 0, len(e.strategies))
	for _, s := range e.strategies {
		result = append(result, s)
	}
	return result
}
