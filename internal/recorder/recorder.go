package recorder

import (
	"context"
	"errors"
	"strings"
	"time"

	"BullionSentinel/internal/model"
)

// TickRecord holds one appended price.
type TickRecord struct {
	RunID      string
	Instrument model.Instrument
	Price      float64
	At         time.Time
	Insecure   bool // fetched over the unverified TLS path
	HistoryLen int
}

// SignalRecord holds one fired sell signal.
type SignalRecord struct {
	RunID      string
	Instrument model.Instrument
	At         time.Time
	Signal     *model.SellSignal
}

// Recorder persists tick and signal events for later analysis.
type Recorder interface {
	RecordTick(ctx context.Context, rec *TickRecord) error
	RecordSignal(ctx context.Context, rec *SignalRecord) error
	Close() error
}

// Multi fans every record out to all wrapped recorders.
type Multi struct {
	recorders []Recorder
}

// NewMulti combines recorders; nil entries are skipped.
func NewMulti(recs ...Recorder) *Multi {
	m := &Multi{}
	for _, r := range recs {
		if r != nil {
			m.recorders = append(m.recorders, r)
		}
	}
	return m
}

func (m *Multi) RecordTick(ctx context.Context, rec *TickRecord) error {
	var errs []error
	for _, r := range m.recorders {
		if err := r.RecordTick(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) RecordSignal(ctx context.Context, rec *SignalRecord) error {
	var errs []error
	for _, r := range m.recorders {
		if err := r.RecordSignal(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, r := range m.recorders {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func conditionNames(sig *model.SellSignal) string {
	triggered := sig.Triggered()
	names := make([]string, len(triggered))
	for i, name := range triggered {
		names[i] = string(name)
	}
	return strings.Join(names, ",")
}
