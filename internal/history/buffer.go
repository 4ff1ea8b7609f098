// Package history keeps the bounded, insertion-ordered price history for
// each tracked instrument.
package history

import "BullionSentinel/internal/model"

// DefaultCapacity is the number of samples kept per instrument.
const DefaultCapacity = 200

// Append returns series with v appended, trimmed to the newest limit values.
// Elements visible through series are never modified, but the result may
// share its backing array, so callers keep only the returned slice. Once
// bounded, the backing array holds at most 2*limit values and each copy is
// followed by at least limit copy-free appends. limit <= 0 means unbounded.
func Append[T any](series []T, v T, limit int) []T {
	if limit <= 0 {
		return append(series, v)
	}
	if len(series) >= limit {
		series = series[len(series)-limit+1:]
	}
	if len(series) < cap(series) {
		return append(series, v)
	}
	out := make([]T, len(series), 2*limit)
	copy(out, series)
	return append(out, v)
}

// Series is a fixed-capacity FIFO window of price points built on Append.
type Series struct {
	capacity int
	buf      []model.PricePoint
}

// NewSeries creates an empty Series. A non-positive capacity falls back to
// DefaultCapacity.
func NewSeries(capacity int) *Series {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Series{
		capacity: capacity,
		buf:      make([]model.PricePoint, 0, 2*capacity),
	}
}

// Add appends p, evicting the oldest point once the capacity is exceeded.
func (s *Series) Add(p model.PricePoint) {
	s.buf = Append(s.buf, p, s.capacity)
}

// Len returns the number of points held, at most Cap().
func (s *Series) Len() int { return len(s.buf) }

// Cap returns the configured capacity.
func (s *Series) Cap() int { return s.capacity }

// Values returns a copy of the held prices, oldest first.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.buf))
	for i, p := range s.buf {
		out[i] = p.Value
	}
	return out
}

// Points returns a copy of the held points, oldest first.
func (s *Series) Points() []model.PricePoint {
	out := make([]model.PricePoint, len(s.buf))
	copy(out, s.buf)
	return out
}

// Latest returns the newest point and whether one exists.
func (s *Series) Latest() (model.PricePoint, bool) {
	if len(s.buf) == 0 {
		return model.PricePoint{}, false
	}
	return s.buf[len(s.buf)-1], true
}
