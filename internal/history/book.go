package history

import (
	"fmt"
	"sync"
	"time"

	"BullionSentinel/internal/model"
)

// Book holds one independent Series per instrument and optionally mirrors
// them to a JSON state file.
type Book struct {
	mu       sync.Mutex
	capacity int
	series   map[model.Instrument]*Series
	filePath string
}

// NewBook creates an empty Book for the tracked instruments. When filePath is
// non-empty, any previously saved history is restored from it.
func NewBook(capacity int, filePath string) (*Book, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	b := &Book{
		capacity: capacity,
		series:   make(map[model.Instrument]*Series, len(model.Instruments)),
		filePath: filePath,
	}
	for _, inst := range model.Instruments {
		b.series[inst] = NewSeries(capacity)
	}
	if filePath == "" {
		return b, nil
	}

	snap, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load history state: %w", err)
	}
	b.Restore(snap)
	return b, nil
}

// Capacity returns the per-instrument capacity.
func (b *Book) Capacity() int { return b.capacity }

// Persistent reports whether the book is backed by a state file.
func (b *Book) Persistent() bool { return b.filePath != "" }

// Append adds a price to inst's series and returns a copy of the updated
// window, oldest first.
func (b *Book) Append(inst model.Instrument, value float64, at time.Time) []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.seriesFor(inst)
	s.Add(model.PricePoint{Value: value, At: at})
	return s.Values()
}

// Values returns a copy of inst's prices, oldest first.
func (b *Book) Values(inst model.Instrument) []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seriesFor(inst).Values()
}

// Len returns the number of samples held for inst.
func (b *Book) Len(inst model.Instrument) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seriesFor(inst).Len()
}

// Snapshot returns a copy of all series.
func (b *Book) Snapshot() *model.HistorySnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := &model.HistorySnapshot{
		Capacity: b.capacity,
		Series:   make(map[model.Instrument][]model.PricePoint, len(b.series)),
	}
	for inst, s := range b.series {
		snap.Series[inst] = s.Points()
	}
	return snap
}

// Restore replaces the held series with the snapshot's contents, keeping only
// the newest points when the snapshot exceeds the capacity.
func (b *Book) Restore(snap *model.HistorySnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for inst := range b.series {
		b.series[inst] = NewSeries(b.capacity)
	}
	if snap == nil {
		return
	}
	for inst, points := range snap.Series {
		s := b.seriesFor(inst)
		for _, p := range points {
			s.Add(p)
		}
	}
}

// Save writes the book to its state file. It is a no-op for in-memory books.
func (b *Book) Save() error {
	if b.filePath == "" {
		return nil
	}
	return SaveState(b.filePath, b.Snapshot())
}

func (b *Book) seriesFor(inst model.Instrument) *Series {
	s, ok := b.series[inst]
	if !ok {
		s = NewSeries(b.capacity)
		b.series[inst] = s
	}
	return s
}
