package recorder

import "context"

// NoopRecorder is a no-op implementation used when no store is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordTick(_ context.Context, _ *TickRecord) error     { return nil }
func (n *NoopRecorder) RecordSignal(_ context.Context, _ *SignalRecord) error { return nil }
func (n *NoopRecorder) Close() error                                          { return nil }
