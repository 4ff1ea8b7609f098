package model

import "time"

// Instrument identifies one tracked commodity.
type Instrument string

const (
	Silver Instrument = "silver"
	Gold   Instrument = "gold"
)

// Instruments lists the tracked commodities in log order.
var Instruments = []Instrument{Silver, Gold}

// PricePoint is a single observed price (currency per gram).
type PricePoint struct {
	Value float64   `json:"value"`
	At    time.Time `json:"at"`
}

// Quote is one successful feed read covering both instruments.
type Quote struct {
	Silver    float64
	Gold      float64
	FetchedAt time.Time
	Insecure  bool // served over the unverified TLS path
}

// Price returns the quoted price for inst.
func (q Quote) Price(inst Instrument) float64 {
	switch inst {
	case Silver:
		return q.Silver
	case Gold:
		return q.Gold
	default:
		return 0
	}
}
