package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"BullionSentinel/internal/collector"
	"BullionSentinel/internal/config"
	"BullionSentinel/internal/history"
	"BullionSentinel/internal/logger"
	"BullionSentinel/internal/metrics"
	"BullionSentinel/internal/recorder"
	"BullionSentinel/internal/scheduler"
	"BullionSentinel/internal/strategy"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatal(logger.New("info", "console", nil), err, "load config")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format, nil)
	if err := cfg.Validate(); err != nil {
		fatal(log, err, "config validation")
	}
	log.Info().Str("config", cfgPath).Str("mode", string(cfg.Schedule.Mode)).Msg("BullionSentinel starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init fetcher
	fetcher := collector.NewFeedFetcher(collector.ClientConfig{
		URL: cfg.Feed.URL,
		Fields: collector.QuoteFields{
			SilverCode: cfg.Feed.SilverCode,
			GoldCode:   cfg.Feed.GoldCode,
			Field:      cfg.Feed.Field,
		},
		Timeout:          cfg.Feed.Timeout,
		MaxAttempts:      cfg.Feed.MaxAttempts,
		BackoffBase:      cfg.Feed.BackoffBase,
		RetryStatuses:    cfg.Feed.RetryStatuses,
		InsecureFallback: cfg.Feed.InsecureFallback,
		UserAgent:        cfg.Feed.UserAgent,
		Proxy:            cfg.Proxy,
	}, log)
	log.Info().Str("source", fetcher.Name()).Msg("data source")

	rec := buildRecorder(ctx, cfg, log)
	defer func() {
		if err := rec.Close(); err != nil {
			log.Error().Err(err).Msg("close recorder")
		}
	}()

	engine := strategy.NewEngine(strategy.Params{
		EMAFast:       cfg.Signal.EMAFast,
		EMASlow:       cfg.Signal.EMASlow,
		RSIPeriod:     cfg.Signal.RSIPeriod,
		RSIOverbought: cfg.Signal.RSIOverbought,
		MinSamples:    cfg.Signal.MinSamples,
		MinValidRows:  cfg.Signal.MinValidRows,
		Epsilon:       cfg.Signal.Epsilon,
	})

	opts := scheduler.Options{
		Interval:   cfg.Schedule.Interval,
		RunOnStart: cfg.Schedule.RunOnStart,
		Capacity:   cfg.History.Capacity,
		StateFile:  cfg.History.StateFile,
	}

	// Single-shot runs build their own history inside RunOnce.
	if cfg.Schedule.Mode == config.ModeOnce {
		sched := scheduler.NewScheduler(fetcher, nil, engine, rec, log, opts)
		if _, err := sched.RunOnce(ctx); err != nil {
			fatal(log, err, "single-shot run")
		}
		log.Info().Msg("BullionSentinel finished")
		return
	}

	// Loop mode keeps one book for the life of the process.
	book, err := history.NewBook(cfg.History.Capacity, cfg.History.StateFile)
	if err != nil {
		fatal(log, err, "init history")
	}
	sched := scheduler.NewScheduler(fetcher, book, engine, rec, log, opts)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})
	if cfg.Metrics.Addr != "" {
		srv := metrics.Serve(cfg.Metrics.Addr)
		log.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics server listening")
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	log.Info().Msg("BullionSentinel is running. Press Ctrl+C to stop.")
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("shutdown")
		os.Exit(1)
	}
	log.Info().Msg("BullionSentinel stopped")
}

// buildRecorder wires every configured sink. A sink that fails to open is
// logged and skipped.
func buildRecorder(ctx context.Context, cfg *config.Config, log zerolog.Logger) recorder.Recorder {
	var recs []recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, skipping")
		} else {
			recs = append(recs, sr)
		}
	}
	if cfg.Redis.Addr != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rr, err := recorder.NewRedisRecorder(pingCtx, recorder.RedisConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			TLSEnabled: cfg.Redis.TLSEnabled,
			TTL:        cfg.Redis.TTL,
			KeyPrefix:  cfg.Redis.KeyPrefix,
		})
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("init redis recorder failed, skipping")
		} else {
			recs = append(recs, rr)
		}
	}
	if len(recs) == 0 {
		return recorder.NewNoopRecorder()
	}
	return recorder.NewMulti(recs...)
}

func fatal(log zerolog.Logger, err error, msg string) {
	log.Error().Err(err).Msg(msg)
	os.Exit(1)
}
