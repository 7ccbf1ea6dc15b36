package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValuePoint is one dated portfolio (or benchmark) value.
type ValuePoint struct {
	Date  time.Time       `json:"date" yaml:"date"`
	Value decimal.Decimal `json:"value" yaml:"value"`
}

// ValueSeries is a date-ascending series of values, one per trading day.
type ValueSeries []ValuePoint

// First returns the earliest value in the series.
func (s ValueSeries) First() ValuePoint {
	return s[0]
}

// Last returns the latest value in the series.
func (s ValueSeries) Last() ValuePoint {
	return s[len(s)-1]
}

// Floats converts the values to float64 for statistical aggregation, where
// sub-cent precision is immaterial.
func (s ValueSeries) Floats() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value.InexactFloat64()
	}

	return out
}

// DailyReturns computes the simple daily return series values[i]/values[i-1]-1.
// A day following a zero value yields a zero return rather than a division error.
func (s ValueSeries) DailyReturns() []float64 {
	if len(s) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(s)-1)

	for i := 1; i < len(s); i++ {
		prev := s[i-1].Value.InexactFloat64()
		if prev == 0 {
			returns = append(returns, 0)

			continue
		}

		returns = append(returns, s[i].Value.InexactFloat64()/prev-1)
	}

	return returns
}
