package strategy

import (
	"fmt"

	"BullionSentinel/internal/calculator"
	"BullionSentinel/internal/model"
)

// Params configures the sell-signal engine.
type Params struct {
	EMAFast       int
	EMASlow       int
	RSIPeriod     int
	RSIOverbought float64
	// MinSamples is the raw history length required before any computation.
	MinSamples int
	// MinValidRows is the number of fully defined rows required after the
	// RSI warm-up is dropped. Never less than 2.
	MinValidRows int
	Epsilon      float64
}

// DefaultParams returns EMA(20)/EMA(50)/RSI(14) with a 70 threshold and the
// stricter 60-sample gate.
func DefaultParams() Params {
	return Params{
		EMAFast:       20,
		EMASlow:       50,
		RSIPeriod:     14,
		RSIOverbought: 70,
		MinSamples:    60,
		MinValidRows:  2,
		Epsilon:       calculator.DefaultEpsilon,
	}
}

// Engine evaluates sell signals over a price history.
type Engine struct {
	params Params
}

// NewEngine creates an Engine. MinValidRows below 2 is raised to 2 since the
// predicates compare two rows.
func NewEngine(p Params) *Engine {
	if p.MinValidRows < 2 {
		p.MinValidRows = 2
	}
	return &Engine{params: p}
}

// Params returns the engine's effective parameters.
func (e *Engine) Params() Params { return e.params }

// BuildFrame computes the indicator series aligned with prices.
func (e *Engine) BuildFrame(prices []float64) *model.IndicatorFrame {
	return &model.IndicatorFrame{
		Prices:  prices,
		EMAFast: calculator.EMASeries(prices, e.params.EMAFast),
		EMASlow: calculator.EMASeries(prices, e.params.EMASlow),
		RSI:     calculator.RSISeries(prices, e.params.RSIPeriod, e.params.Epsilon),
	}
}

// Evaluate reports whether a sell signal fires on the latest two rows.
// Short or otherwise insufficient input yields false.
func (e *Engine) Evaluate(prices []float64) bool {
	return e.EvaluateDetailed(prices).Fire
}

// EvaluateDetailed computes the full sell signal including the compared rows
// and per-condition results.
func (e *Engine) EvaluateDetailed(prices []float64) *model.SellSignal {
	sig := &model.SellSignal{Samples: len(prices)}

	if len(prices) < e.params.MinSamples {
		sig.Reason = fmt.Sprintf("insufficient samples: %d < %d", len(prices), e.params.MinSamples)
		return sig
	}

	frame := e.BuildFrame(prices)
	rows := frame.ValidRows()
	sig.ValidRows = len(rows)
	if len(rows) < e.params.MinValidRows {
		sig.Reason = fmt.Sprintf("insufficient valid rows: %d < %d", len(rows), e.params.MinValidRows)
		return sig
	}

	sig.Prev = frame.Row(rows[len(rows)-2])
	sig.Curr = frame.Row(rows[len(rows)-1])
	sig.Conditions = []model.ConditionResult{
		checkBearishCross(sig.Prev, sig.Curr),
		checkRSIExit(sig.Prev, sig.Curr, e.params.RSIOverbought),
	}
	for _, c := range sig.Conditions {
		if c.Triggered {
			sig.Fire = true
		}
	}
	return sig
}
