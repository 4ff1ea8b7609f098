package model

// ConditionName identifies a sell predicate.
type ConditionName string

const (
	ConditionBearishCross ConditionName = "bearish_cross"
	ConditionRSIExit      ConditionName = "rsi_overbought_exit"
)

// ConditionResult represents a single predicate's evaluation.
type ConditionResult struct {
	Name       ConditionName
	Triggered  bool
	Commentary string
}

// SellSignal is the output of the signal engine for one instrument and tick.
type SellSignal struct {
	Fire       bool
	Samples    int
	ValidRows  int
	Prev       IndicatorRow
	Curr       IndicatorRow
	Conditions []ConditionResult
	Reason     string // set when evaluation was skipped
}

// Triggered returns the names of all conditions that fired.
func (s *SellSignal) Triggered() []ConditionName {
	var out []ConditionName
	for _, c := range s.Conditions {
		if c.Triggered {
			out = append(out, c.Name)
		}
	}
	return out
}
