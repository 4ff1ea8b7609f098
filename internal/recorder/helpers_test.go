package recorder

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"BullionSentinel/internal/model"
)

// recentPrices reads up to limit of the newest prices for inst, oldest first.
func recentPrices(ctx context.Context, r *SQLiteRecorder, inst model.Instrument, limit int) ([]float64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT price FROM (
			SELECT id, price FROM price_ticks WHERE instrument = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, string(inst), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []float64
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

func signalCount(ctx context.Context, r *SQLiteRecorder, inst model.Instrument) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sell_signals WHERE instrument = ?`, string(inst)).Scan(&n)
	return n, err
}

func latestPrice(ctx context.Context, r *RedisRecorder, inst model.Instrument) (float64, time.Time, error) {
	vals, err := r.rdb.HMGet(ctx, r.PriceKey(inst), "price", "ts").Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	priceStr, ok1 := vals[0].(string)
	tsStr, ok2 := vals[1].(string)
	if !ok1 || !ok2 {
		return 0, time.Time{}, redis.Nil
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return 0, time.Time{}, err
	}
	ns, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return 0, time.Time{}, err
	}
	return price, time.Unix(0, ns), nil
}
