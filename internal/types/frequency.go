package types

// Frequency is the cadence at which scheduled investments occur.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// AllFrequencies lists every supported investment frequency.
var AllFrequencies = []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly}

// IsValid reports whether the frequency is one of the supported values.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

// StrategyType identifies a concrete strategy implementation.
type StrategyType string

const (
	StrategyTypeRegularInvestment StrategyType = "regular_investment"
	StrategyTypeValueAveraging    StrategyType = "value_averaging"
)

// AllStrategyTypes lists every registered strategy type.
var AllStrategyTypes = []StrategyType{StrategyTypeRegularInvestment, StrategyTypeValueAveraging}

// IsValid reports whether the strategy type is known.
func (s StrategyType) IsValid() bool {
	switch s {
	case StrategyTypeRegularInvestment, StrategyTypeValueAveraging:
		return true
	default:
		return false
	}
}
