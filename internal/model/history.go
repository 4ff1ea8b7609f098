package model

import "time"

// HistorySnapshot is the persisted form of the per-instrument price history.
type HistorySnapshot struct {
	Capacity  int                         `json:"capacity"`
	Series    map[Instrument][]PricePoint `json:"series"`
	UpdatedAt time.Time                   `json:"updated_at"`
}
