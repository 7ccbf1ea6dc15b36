package performance

import (
	"math"
	"time"

	"github.com/fundquant/fund-backtest/internal/types"
)

// RollingPoint carries window-end statistics for one trading day.
type RollingPoint struct {
	Date        time.Time `json:"date" yaml:"date"`
	Return      float64   `json:"return" yaml:"return"`
	Volatility  float64   `json:"volatility" yaml:"volatility"`
	SharpeRatio float64   `json:"sharpe_ratio" yaml:"sharpe_ratio"`
	MaxDrawdown float64   `json:"max_drawdown" yaml:"max_drawdown"`
}

// Rolling computes window-sized statistics along the value series. Days
// before the first full window are omitted; a window smaller than two points
// yields nil.
func Rolling(values types.ValueSeries, window int, riskFreeRate float64) []RollingPoint {
	if window < 2 || len(values) < window {
		return nil
	}

	floats := values.Floats()

	points := make([]RollingPoint, 0, len(values)-window+1)

	for end := window; end <= len(floats); end++ {
		slice := floats[end-window : end]
		returns := dailyReturns(slice)

		p := RollingPoint{
			Date:        values[end-1].Date,
			Volatility:  sampleStd(returns) * math.Sqrt(tradingDaysPerYear),
			MaxDrawdown: maxDrawdown(slice),
		}
		if slice[0] != 0 {
			p.Return = slice[len(slice)-1]/slice[0] - 1
		}

		excess := make([]float64, len(returns))
		for i, r := range returns {
			excess[i] = r - riskFreeRate/tradingDaysPerYear
		}

		if excessStd := sampleStd(excess); excessStd != 0 {
			p.SharpeRatio = mean(excess) / excessStd * math.Sqrt(tradingDaysPerYear)
		}

		points = append(points, p)
	}

	return points
}
