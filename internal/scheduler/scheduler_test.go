package scheduler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"BullionSentinel/internal/collector"
	"BullionSentinel/internal/history"
	"BullionSentinel/internal/logger"
	"BullionSentinel/internal/model"
	"BullionSentinel/internal/recorder"
	"BullionSentinel/internal/strategy"
)

type memRecorder struct {
	mu        sync.Mutex
	ticks     []*recorder.TickRecord
	signals   []*recorder.SignalRecord
	cancelled int // records received on a cancelled context
}

func (m *memRecorder) RecordTick(ctx context.Context, rec *recorder.TickRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ctx.Err() != nil {
		m.cancelled++
	}
	m.ticks = append(m.ticks, rec)
	return nil
}

func (m *memRecorder) RecordSignal(_ context.Context, rec *recorder.SignalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals = append(m.signals, rec)
	return nil
}

func (m *memRecorder) Close() error { return nil }

func newTestScheduler(t *testing.T, f collector.Fetcher, capacity int, opts Options) (*Scheduler, *history.Book, *memRecorder, *bytes.Buffer) {
	t.Helper()
	book, err := history.NewBook(capacity, "")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	rec := &memRecorder{}
	opts.Capacity = capacity
	s := NewScheduler(f, book, strategy.NewEngine(strategy.DefaultParams()), rec, logger.New("debug", "json", &buf), opts)
	return s, book, rec, &buf
}

// sellSilverQuotes rises silver for 60 ticks then drops it twice, which takes
// RSI from above 70 to below it on the last tick. Gold keeps rising.
func sellSilverQuotes() []model.Quote {
	var silver, gold []float64
	for i := 0; i < 60; i++ {
		silver = append(silver, 100+float64(i))
	}
	silver = append(silver, silver[59]-3, silver[59]-6)
	for i := range silver {
		gold = append(gold, 2000+float64(i))
	}
	return collector.SeriesQuotes(silver, gold)
}

func TestTick_FeedUnavailableLeavesHistory(t *testing.T) {
	s, book, rec, buf := newTestScheduler(t, &collector.MockFetcher{}, 200, Options{})

	res := s.Tick(context.Background())
	if !res.Skipped || res.Err == nil {
		t.Fatalf("expected skipped tick, got %+v", res)
	}
	for _, inst := range model.Instruments {
		if book.Len(inst) != 0 {
			t.Errorf("%s history mutated on failed fetch", inst)
		}
	}
	if len(rec.ticks) != 0 {
		t.Errorf("expected no recorded ticks, got %d", len(rec.ticks))
	}
	if !strings.Contains(buf.String(), "feed unavailable") {
		t.Errorf("expected warning log, got %s", buf.String())
	}
}

func TestTick_AppendsBothInstruments(t *testing.T) {
	f := &collector.MockFetcher{Quotes: []model.Quote{{Silver: 98.45, Gold: 2448.9}}}
	s, book, rec, buf := newTestScheduler(t, f, 200, Options{})

	res := s.Tick(context.Background())
	if res.Skipped {
		t.Fatalf("unexpected skip: %v", res.Err)
	}
	if got := book.Values(model.Silver); len(got) != 1 || got[0] != 98.45 {
		t.Errorf("silver history = %v", got)
	}
	if got := book.Values(model.Gold); len(got) != 1 || got[0] != 2448.9 {
		t.Errorf("gold history = %v", got)
	}
	if len(rec.ticks) != 2 {
		t.Fatalf("expected 2 tick records, got %d", len(rec.ticks))
	}
	if rec.ticks[0].RunID == "" || rec.ticks[0].RunID != rec.ticks[1].RunID {
		t.Errorf("tick records should share a run id: %q %q", rec.ticks[0].RunID, rec.ticks[1].RunID)
	}
	for _, inst := range model.Instruments {
		sig := res.Signals[inst]
		if sig == nil || sig.Fire || sig.Reason == "" {
			t.Errorf("%s: expected skipped evaluation, got %+v", inst, sig)
		}
	}
	if !strings.Contains(buf.String(), "prices updated") {
		t.Errorf("expected price log, got %s", buf.String())
	}
}

func TestTick_SellSignalFires(t *testing.T) {
	quotes := sellSilverQuotes()
	s, _, rec, buf := newTestScheduler(t, &collector.MockFetcher{Quotes: quotes}, 200, Options{})

	ctx := context.Background()
	var last *TickResult
	for i := range quotes {
		last = s.Tick(ctx)
		if i < len(quotes)-1 && len(last.Fired()) != 0 {
			t.Fatalf("tick %d fired early: %v", i, last.Fired())
		}
	}

	fired := last.Fired()
	if len(fired) != 1 || fired[0] != model.Silver {
		t.Fatalf("expected silver to fire, got %v", fired)
	}
	if len(rec.signals) != 1 || rec.signals[0].Instrument != model.Silver {
		t.Fatalf("expected one silver signal record, got %+v", rec.signals)
	}
	if rec.signals[0].RunID != last.RunID {
		t.Errorf("signal run id %q != tick run id %q", rec.signals[0].RunID, last.RunID)
	}
	if !strings.Contains(buf.String(), "SELL SIGNAL") {
		t.Error("expected SELL SIGNAL log line")
	}
}

func TestTick_CapacityRespected(t *testing.T) {
	f := &collector.MockFetcher{Quotes: collector.SeriesQuotes(make([]float64, 70), make([]float64, 70))}
	s, book, _, _ := newTestScheduler(t, f, 60, Options{})

	for i := 0; i < 70; i++ {
		s.Tick(context.Background())
	}
	for _, inst := range model.Instruments {
		if got := book.Len(inst); got != 60 {
			t.Errorf("%s: expected 60 samples, got %d", inst, got)
		}
	}
}

func TestRunOnce_FreshHistory(t *testing.T) {
	f := &collector.MockFetcher{Quotes: []model.Quote{{Silver: 98.45, Gold: 2448.9}}}
	s, book, _, _ := newTestScheduler(t, f, 200, Options{})
	for i := 0; i < 70; i++ {
		book.Append(model.Silver, float64(i), time.Now())
	}

	res, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if got := res.Signals[model.Silver].Samples; got != 1 {
		t.Errorf("single-shot should evaluate a one-sample series, got %d", got)
	}
	if book.Len(model.Silver) != 70 {
		t.Error("single-shot must not touch the loop history")
	}
}

func TestRunOnce_FetchFailureIsNotError(t *testing.T) {
	s, _, rec, _ := newTestScheduler(t, &collector.MockFetcher{}, 200, Options{})

	res, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce should not fail on feed errors: %v", err)
	}
	if !res.Skipped {
		t.Error("expected skipped result")
	}
	if len(rec.ticks) != 0 {
		t.Error("nothing should be recorded")
	}
}

func TestRunOnce_StateFileAccumulates(t *testing.T) {
	f := &collector.MockFetcher{Quotes: []model.Quote{{Silver: 1, Gold: 2}, {Silver: 3, Gold: 4}}}
	state := filepath.Join(t.TempDir(), "history.json")
	s, _, _, _ := newTestScheduler(t, f, 200, Options{StateFile: state})

	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	res, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Signals[model.Gold].Samples; got != 2 {
		t.Errorf("expected persisted history of 2, got %d", got)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := &collector.MockFetcher{Quotes: []model.Quote{{Silver: 1, Gold: 2}}}
	book, _ := history.NewBook(200, "")
	s := NewScheduler(f, book, strategy.NewEngine(strategy.DefaultParams()), nil, zerolog.Nop(),
		Options{Interval: time.Hour, RunOnStart: true})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if f.Calls() != 1 {
		t.Errorf("expected one immediate tick, got %d", f.Calls())
	}
}

func TestStart_RejectsZeroInterval(t *testing.T) {
	s, _, _, _ := newTestScheduler(t, &collector.MockFetcher{}, 200, Options{})
	if err := s.Start(context.Background()); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestRun_ShutdownLetsInFlightFetchFinish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{"GUMUS":{"Selling":"98,45"},"GRA":{"Selling":2448.9}}`))
	}))
	defer srv.Close()

	f := collector.NewFeedFetcher(collector.ClientConfig{
		URL:         srv.URL,
		Fields:      collector.QuoteFields{SilverCode: "GUMUS", GoldCode: "GRA", Field: "Selling"},
		Timeout:     10 * time.Second,
		MaxAttempts: 5,
		BackoffBase: time.Second,
	}, zerolog.Nop())
	book, _ := history.NewBook(200, "")
	rec := &memRecorder{}
	var buf bytes.Buffer
	s := NewScheduler(f, book, strategy.NewEngine(strategy.DefaultParams()), rec, logger.New("debug", "json", &buf),
		Options{Interval: time.Hour, RunOnStart: true})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := book.Len(model.Silver); got != 1 {
		t.Errorf("silver samples after shutdown = %d, want 1", got)
	}
	if len(rec.ticks) != 2 || rec.cancelled != 0 {
		t.Errorf("expected 2 ticks recorded on a live context, got %d (%d cancelled)", len(rec.ticks), rec.cancelled)
	}
	if strings.Contains(buf.String(), "feed unavailable") {
		t.Error("shutdown must not report the feed as unavailable")
	}
}

func TestRunOnce_WithoutLoopBook(t *testing.T) {
	f := &collector.MockFetcher{Quotes: []model.Quote{{Silver: 98.45, Gold: 2448.9}}}
	s := NewScheduler(f, nil, strategy.NewEngine(strategy.DefaultParams()), nil, zerolog.Nop(), Options{})

	res, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.Skipped || res.Signals[model.Gold].Samples != 1 {
		t.Errorf("unexpected single-shot result %+v", res)
	}
}
