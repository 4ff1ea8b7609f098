package strategy

import (
	"fmt"

	"BullionSentinel/internal/model"
)

// checkBearishCross fires when the fast EMA was at or above the slow EMA and
// has just dropped below it.
func checkBearishCross(prev, curr model.IndicatorRow) model.ConditionResult {
	triggered := prev.EMAFast >= prev.EMASlow && curr.EMAFast < curr.EMASlow
	return model.ConditionResult{
		Name:      model.ConditionBearishCross,
		Triggered: triggered,
		Commentary: fmt.Sprintf("fast %.4f/%.4f slow %.4f/%.4f",
			prev.EMAFast, curr.EMAFast, prev.EMASlow, curr.EMASlow),
	}
}

// checkRSIExit fires when RSI was at or above the overbought threshold and
// has just dropped below it.
func checkRSIExit(prev, curr model.IndicatorRow, overbought float64) model.ConditionResult {
	triggered := prev.RSI >= overbought && curr.RSI < overbought
	return model.ConditionResult{
		Name:       model.ConditionRSIExit,
		Triggered:  triggered,
		Commentary: fmt.Sprintf("rsi %.2f -> %.2f (threshold %.0f)", prev.RSI, curr.RSI, overbought),
	}
}
