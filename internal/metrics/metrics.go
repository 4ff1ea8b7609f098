package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bullion_fetch_attempts_total", Help: "Feed requests by TLS path and result"},
		[]string{"path", "result"},
	)
	FeedUnavailableTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bullion_feed_unavailable_total", Help: "Ticks skipped because every fetch attempt failed"},
	)
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bullion_ticks_total", Help: "Prices appended to history"},
		[]string{"instrument"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bullion_sell_signals_total", Help: "Sell signals fired by condition"},
		[]string{"instrument", "condition"},
	)
	LastPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "bullion_last_price", Help: "Most recent price per gram"},
		[]string{"instrument"},
	)
	HistoryLength = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "bullion_history_length", Help: "Samples held per instrument"},
		[]string{"instrument"},
	)
)

func init() {
	prometheus.MustRegister(FetchAttemptsTotal, FeedUnavailableTotal, TicksTotal, SignalsTotal, LastPrice, HistoryLength)
}

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
