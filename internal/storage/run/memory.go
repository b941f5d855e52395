package run

import (
	"context"
	"errors"
	"sync"

	"github.com/marketcalls/quantbt/internal/backtest"
	"github.com/marketcalls/quantbt/internal/core"
)

// MemoryStore is an in-memory run store with a capacity cap. When full,
// the oldest runs are dropped.
type MemoryStore struct {
	runs    []*backtest.Result
	maxSize int
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store with max capacity.
func NewMemoryStore(maxSize int) *MemoryStore {
	return &MemoryStore{
		runs:    make([]*backtest.Result, 0, maxSize),
		maxSize: maxSize,
	}
}

// Save adds a run to the store.
func (m *MemoryStore) Save(ctx context.Context, result *backtest.Result) error {
	if result == nil || result.ID == "" {
		return core.WrapError(core.ErrBacktestFailed, errors.New("run has no ID"))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs = append(m.runs, result)
	if len(m.runs) > m.maxSize {
		m.runs = m.runs[len(m.runs)-m.maxSize:]
	}
	return nil
}

// Get retrieves a run by ID.
func (m *MemoryStore) Get(ctx context.Context, id string) (*backtest.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, core.ErrRunNotFound
}

// List returns runs matching the filter, newest first.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]*backtest.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*backtest.Result
	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.matches(m.runs[i], filter) {
			result = append(result, m.runs[i])
		}
	}

	if filter.Offset >= len(result) {
		return []*backtest.Result{}, nil
	}
	if filter.Offset > 0 {
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Count returns the count of matching runs.
func (m *MemoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, r := range m.runs {
		if m.matches(r, filter) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) matches(r *backtest.Result, filter ListFilter) bool {
	if filter.Symbol != "" && r.Symbol != filter.Symbol {
		return false
	}
	if filter.Strategy != "" && r.Strategy != filter.Strategy {
		return false
	}
	if !filter.From.IsZero() && r.CreatedAt.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && r.CreatedAt.After(filter.To) {
		return false
	}
	return true
}
