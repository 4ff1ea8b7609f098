package recorder

import (
	"context"
	"crypto/tls"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"BullionSentinel/internal/model"
)

// RedisConfig holds connection parameters for the latest-price cache.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	TLSEnabled bool
	TTL        time.Duration // 0 keeps keys forever
	KeyPrefix  string
}

// RedisRecorder keeps the latest price and the last fired signal per
// instrument in Redis hashes at "{prefix}:price:{instrument}" and
// "{prefix}:signal:{instrument}".
type RedisRecorder struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisRecorder connects and pings Redis.
func NewRedisRecorder(ctx context.Context, cfg RedisConfig) (*RedisRecorder, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "bullion"
	}
	return &RedisRecorder{rdb: rdb, ttl: cfg.TTL, prefix: prefix}, nil
}

// PriceKey returns the hash key holding inst's latest price.
func (r *RedisRecorder) PriceKey(inst model.Instrument) string {
	return r.prefix + ":price:" + string(inst)
}

// SignalKey returns the hash key holding inst's last fired signal.
func (r *RedisRecorder) SignalKey(inst model.Instrument) string {
	return r.prefix + ":signal:" + string(inst)
}

func (r *RedisRecorder) RecordTick(ctx context.Context, rec *TickRecord) error {
	key := r.PriceKey(rec.Instrument)
	fields := map[string]interface{}{
		"price":       strconv.FormatFloat(rec.Price, 'f', -1, 64),
		"ts":          strconv.FormatInt(rec.At.UnixNano(), 10),
		"run_id":      rec.RunID,
		"insecure":    strconv.FormatBool(rec.Insecure),
		"history_len": strconv.Itoa(rec.HistoryLen),
	}
	if err := r.write(ctx, key, fields); err != nil {
		return fmt.Errorf("redis: set price %s: %w", rec.Instrument, err)
	}
	return nil
}

func (r *RedisRecorder) RecordSignal(ctx context.Context, rec *SignalRecord) error {
	key := r.SignalKey(rec.Instrument)
	sig := rec.Signal
	fields := map[string]interface{}{
		"conditions": conditionNames(sig),
		"price":      strconv.FormatFloat(sig.Curr.Price, 'f', -1, 64),
		"ema_fast":   strconv.FormatFloat(sig.Curr.EMAFast, 'f', -1, 64),
		"ema_slow":   strconv.FormatFloat(sig.Curr.EMASlow, 'f', -1, 64),
		"rsi":        strconv.FormatFloat(sig.Curr.RSI, 'f', -1, 64),
		"ts":         strconv.FormatInt(rec.At.UnixNano(), 10),
		"run_id":     rec.RunID,
	}
	if err := r.write(ctx, key, fields); err != nil {
		return fmt.Errorf("redis: set signal %s: %w", rec.Instrument, err)
	}
	return nil
}

func (r *RedisRecorder) write(ctx context.Context, key string, fields map[string]interface{}) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	return err
}

func (r *RedisRecorder) Close() error {
	return r.rdb.Close()
}
