package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"BullionSentinel/internal/calculator"
	"BullionSentinel/internal/collector"
	"BullionSentinel/internal/history"
	"BullionSentinel/internal/metrics"
	"BullionSentinel/internal/model"
	"BullionSentinel/internal/recorder"
	"BullionSentinel/internal/strategy"
)

// Options controls orchestration.
type Options struct {
	Interval   time.Duration
	RunOnStart bool
	Capacity   int
	StateFile  string // single-shot runs start from an empty history unless set
}

// TickResult describes one fetch → append → evaluate pass.
type TickResult struct {
	RunID   string
	Quote   model.Quote
	Skipped bool  // fetch failed; history untouched
	Err     error // fetch error when Skipped
	Signals map[model.Instrument]*model.SellSignal
}

// Fired returns the instruments whose sell signal fired, in tracking order.
func (r *TickResult) Fired() []model.Instrument {
	var out []model.Instrument
	for _, inst := range model.Instruments {
		if sig, ok := r.Signals[inst]; ok && sig.Fire {
			out = append(out, inst)
		}
	}
	return out
}

// Scheduler owns the fetcher, history and engine and sequences them.
type Scheduler struct {
	cron     *cron.Cron
	fetcher  collector.Fetcher
	book     *history.Book
	engine   *strategy.Engine
	recorder recorder.Recorder
	logger   zerolog.Logger
	opts     Options
}

// NewScheduler creates a new Scheduler. book backs loop mode; rec may be nil.
func NewScheduler(f collector.Fetcher, book *history.Book, eng *strategy.Engine, rec recorder.Recorder, logger zerolog.Logger, opts Options) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if opts.Capacity <= 0 {
		opts.Capacity = history.DefaultCapacity
	}
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		fetcher:  f,
		book:     book,
		engine:   eng,
		recorder: rec,
		logger:   logger,
		opts:     opts,
	}
}

// Tick runs one pass against the scheduler's own history.
func (s *Scheduler) Tick(ctx context.Context) *TickResult {
	return s.tick(ctx, s.book)
}

func (s *Scheduler) tick(ctx context.Context, book *history.Book) *TickResult {
	res := &TickResult{RunID: uuid.NewString()}
	log := s.logger.With().Str("run_id", res.RunID).Logger()

	quote, err := s.fetcher.Fetch(ctx)
	if err != nil {
		res.Skipped = true
		res.Err = err
		if errors.Is(err, collector.ErrFeedUnavailable) {
			log.Warn().Err(err).Str("fetcher", s.fetcher.Name()).Msg("feed unavailable, skipping tick")
		} else {
			log.Error().Err(err).Str("fetcher", s.fetcher.Name()).Msg("fetch failed, skipping tick")
		}
		return res
	}
	res.Quote = quote
	at := quote.FetchedAt
	if at.IsZero() {
		at = time.Now()
	}

	windows := make([][]float64, len(model.Instruments))
	for i, inst := range model.Instruments {
		price := quote.Price(inst)
		windows[i] = book.Append(inst, price, at)
		metrics.TicksTotal.WithLabelValues(string(inst)).Inc()
		metrics.LastPrice.WithLabelValues(string(inst)).Set(price)
		metrics.HistoryLength.WithLabelValues(string(inst)).Set(float64(len(windows[i])))
	}
	log.Info().
		Float64("silver", quote.Silver).
		Float64("gold", quote.Gold).
		Bool("insecure", quote.Insecure).
		Int("samples", len(windows[0])).
		Msg("prices updated")

	signals := make([]*model.SellSignal, len(model.Instruments))
	var g errgroup.Group
	for i := range model.Instruments {
		g.Go(func() error {
			signals[i] = s.engine.EvaluateDetailed(windows[i])
			return nil
		})
	}
	_ = g.Wait()

	res.Signals = make(map[model.Instrument]*model.SellSignal, len(model.Instruments))
	for i, inst := range model.Instruments {
		sig := signals[i]
		res.Signals[inst] = sig
		s.report(ctx, log.With().Str("instrument", string(inst)).Float64("range_pos", rangePosition(windows[i])).Logger(),
			res.RunID, inst, at, sig)

		if err := s.recorder.RecordTick(ctx, &recorder.TickRecord{
			RunID:      res.RunID,
			Instrument: inst,
			Price:      quote.Price(inst),
			At:         at,
			Insecure:   quote.Insecure,
			HistoryLen: len(windows[i]),
		}); err != nil {
			log.Error().Err(err).Str("instrument", string(inst)).Msg("record tick")
		}
	}

	if err := book.Save(); err != nil {
		log.Error().Err(err).Msg("save history state")
	}
	return res
}

func (s *Scheduler) report(ctx context.Context, log zerolog.Logger, runID string, inst model.Instrument, at time.Time, sig *model.SellSignal) {
	if !sig.Fire {
		ev := log.Info().Int("samples", sig.Samples)
		if sig.Reason != "" {
			ev = ev.Str("reason", sig.Reason)
		} else {
			ev = ev.Float64("ema_fast", sig.Curr.EMAFast).
				Float64("ema_slow", sig.Curr.EMASlow).
				Float64("rsi", sig.Curr.RSI)
		}
		ev.Msg("no sell signal")
		return
	}

	triggered := sig.Triggered()
	names := make([]string, len(triggered))
	for i, name := range triggered {
		names[i] = string(name)
		metrics.SignalsTotal.WithLabelValues(string(inst), string(name)).Inc()
	}
	log.Warn().
		Strs("conditions", names).
		Float64("price", sig.Curr.Price).
		Float64("ema_fast", sig.Curr.EMAFast).
		Float64("ema_slow", sig.Curr.EMASlow).
		Float64("rsi_prev", sig.Prev.RSI).
		Float64("rsi", sig.Curr.RSI).
		Msg("SELL SIGNAL")

	if err := s.recorder.RecordSignal(ctx, &recorder.SignalRecord{
		RunID:      runID,
		Instrument: inst,
		At:         at,
		Signal:     sig,
	}); err != nil {
		log.Error().Err(err).Msg("record signal")
	}
}

// rangePosition places the newest price within the window's high/low.
func rangePosition(window []float64) float64 {
	high, low, err := calculator.WindowRange(window, 0)
	if err != nil {
		return 0
	}
	pos, err := calculator.RangePosition(window[len(window)-1], high, low)
	if err != nil {
		return 0
	}
	return pos
}

// RunOnce performs a single fetch and evaluation against a freshly built
// history. A failed fetch is logged and is not an error.
func (s *Scheduler) RunOnce(ctx context.Context) (*TickResult, error) {
	book, err := history.NewBook(s.opts.Capacity, s.opts.StateFile)
	if err != nil {
		return nil, err
	}
	res := s.tick(ctx, book)
	if res.Skipped {
		s.logger.Warn().Str("run_id", res.RunID).Msg("single-shot run finished without data")
	}
	return res, nil
}

// Start registers the periodic tick and starts the cron scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.opts.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", s.opts.Interval)
	}
	spec := fmt.Sprintf("@every %s", s.opts.Interval)
	if _, err := s.cron.AddFunc(spec, func() { s.Tick(tickContext(ctx)) }); err != nil {
		return fmt.Errorf("register tick: %w", err)
	}
	s.cron.Start()
	s.logger.Info().Dur("interval", s.opts.Interval).Msg("scheduler started")
	return nil
}

// tickContext detaches a tick from shutdown so an in-flight fetch runs to its
// own timeout and its results are still recorded. Retry backoff still ends
// when ctx is cancelled.
func tickContext(ctx context.Context) context.Context {
	return collector.WithShutdown(context.WithoutCancel(ctx), ctx)
}

// Stop stops the cron scheduler and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// Run ticks immediately (when configured), then every interval until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.opts.RunOnStart {
		s.Tick(tickContext(ctx))
		if ctx.Err() != nil {
			return nil
		}
	}
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// cronLogger routes cron's internal logging through zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
