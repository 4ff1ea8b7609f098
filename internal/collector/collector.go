package collector

import (
	"context"
	"sync"
	"time"

	"BullionSentinel/internal/model"
)

// MockFetcher returns controllable quotes for development and testing.
// Quotes are served in order and the last one repeats; Err, when set, is
// returned instead.
type MockFetcher struct {
	mu     sync.Mutex
	Quotes []model.Quote
	Err    error
	calls  int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(ctx context.Context) (model.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if err := ctx.Err(); err != nil {
		return model.Quote{}, &UnavailableError{Attempts: 0, Last: err}
	}
	if m.Err != nil {
		return model.Quote{}, m.Err
	}
	if len(m.Quotes) == 0 {
		return model.Quote{}, &UnavailableError{Attempts: 1}
	}
	idx := m.calls - 1
	if idx >= len(m.Quotes) {
		idx = len(m.Quotes) - 1
	}
	q := m.Quotes[idx]
	if q.FetchedAt.IsZero() {
		q.FetchedAt = time.Now()
	}
	return q, nil
}

// Calls returns how many times Fetch was invoked.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// SeriesQuotes builds one quote per index pairing silver[i] with gold[i].
func SeriesQuotes(silver, gold []float64) []model.Quote {
	n := len(silver)
	if len(gold) < n {
		n = len(gold)
	}
	quotes := make([]model.Quote, n)
	for i := 0; i < n; i++ {
		quotes[i] = model.Quote{Silver: silver[i], Gold: gold[i]}
	}
	return quotes
}
