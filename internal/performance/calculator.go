// Package performance computes the risk and return statistics of a backtest
// run from its daily portfolio value series. Money flows through the engine
// as decimals; the statistics here deliberately work in float64, matching
// how the ratios are consumed downstream.
package performance

import (
	"math"
	"time"

	"github.com/moznion/go-optional"

	"github.com/fundquant/fund-backtest/internal/types"
)

const (
	// tradingDaysPerYear annualizes daily volatility figures.
	tradingDaysPerYear = 252

	// daysPerYear annualizes calendar-time returns.
	daysPerYear = 365.25

	dateLayout = "2006-01-02"

	normalityAlpha = 0.05
)

// Calculate derives the full metric set from a daily portfolio value series.
// Every ratio with a zero denominator is 0 rather than infinity or NaN.
// Fewer than two points yields zeroed metrics with InsufficientData set.
func Calculate(values types.ValueSeries, benchmark optional.Option[types.ValueSeries], riskFreeRate float64) types.PerformanceMetrics {
	metrics := types.PerformanceMetrics{}

	stampRange(&metrics, values)

	if len(values) < 2 {
		metrics.InsufficientData = true

		return metrics
	}

	floats := values.Floats()
	returns := dailyReturns(floats)

	first := floats[0]
	last := floats[len(floats)-1]

	if first != 0 {
		metrics.TotalReturn = last/first - 1
	}

	metrics.CumulativeReturn = cumulativeReturn(returns)
	metrics.AnnualizedReturn = annualize(metrics.TotalReturn, values.First().Date, values.Last().Date)
	metrics.Volatility = sampleStd(returns) * math.Sqrt(tradingDaysPerYear)
	metrics.MaxDrawdown = maxDrawdown(floats)
	metrics.DownsideDeviation = downsideDeviation(returns)
	metrics.VaR95 = percentile(returns, 5)
	metrics.CVaR95 = conditionalVaR(returns, metrics.VaR95)

	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - riskFreeRate/tradingDaysPerYear
	}

	if excessStd := sampleStd(excess); excessStd != 0 {
		metrics.SharpeRatio = mean(excess) / excessStd * math.Sqrt(tradingDaysPerYear)
	}

	if metrics.DownsideDeviation != 0 {
		metrics.SortinoRatio = mean(excess) / metrics.DownsideDeviation * math.Sqrt(tradingDaysPerYear)
	}

	if metrics.MaxDrawdown != 0 {
		metrics.CalmarRatio = metrics.AnnualizedReturn / math.Abs(metrics.MaxDrawdown)
	}

	fillWinLoss(&metrics, returns)
	fillDistribution(&metrics, returns)

	if benchmark.IsSome() {
		fillBenchmark(&metrics, returns, benchmark.Unwrap(), riskFreeRate)
	}

	return metrics
}

func stampRange(metrics *types.PerformanceMetrics, values types.ValueSeries) {
	metrics.TradingDays = len(values)
	if len(values) == 0 {
		return
	}

	start := values.First().Date
	end := values.Last().Date

	metrics.StartDate = start.Format(dateLayout)
	metrics.EndDate = end.Format(dateLayout)
	metrics.TotalDays = int(end.Sub(start).Hours()/24) + 1
}

func dailyReturns(floats []float64) []float64 {
	returns := make([]float64, 0, len(floats)-1)

	for i := 1; i < len(floats); i++ {
		if floats[i-1] == 0 {
			returns = append(returns, 0)

			continue
		}

		returns = append(returns, floats[i]/floats[i-1]-1)
	}

	return returns
}

func cumulativeReturn(returns []float64) float64 {
	product := 1.0
	for _, r := range returns {
		product *= 1 + r
	}

	return product - 1
}

// annualize converts a total return over [start, end] into a yearly rate. A
// span under one day yields 0. Total losses beyond -100% are floored so the
// power stays defined.
func annualize(totalReturn float64, start, end time.Time) float64 {
	days := end.Sub(start).Hours() / 24
	if days <= 0 {
		return 0
	}

	base := 1 + totalReturn
	if base <= 0 {
		return -1
	}

	return math.Pow(base, daysPerYear/days) - 1
}

// maxDrawdown returns the deepest peak-to-trough decline as a negative
// fraction, 0 for a monotonically rising series.
func maxDrawdown(floats []float64) float64 {
	peak := math.Inf(-1)
	worst := 0.0

	for _, v := range floats {
		if v > peak {
			peak = v
		}

		if peak > 0 {
			dd := v/peak - 1
			if dd < worst {
				worst = dd
			}
		}
	}

	return worst
}

func downsideDeviation(returns []float64) float64 {
	var downside []float64

	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}

	return sampleStd(downside) * math.Sqrt(tradingDaysPerYear)
}

// conditionalVaR averages the returns at or below the VaR threshold.
func conditionalVaR(returns []float64, threshold float64) float64 {
	var tail []float64

	for _, r := range returns {
		if r <= threshold {
			tail = append(tail, r)
		}
	}

	return mean(tail)
}

func fillWinLoss(metrics *types.PerformanceMetrics, returns []float64) {
	var gains, losses []float64

	best := math.Inf(-1)
	worst := math.Inf(1)

	for _, r := range returns {
		if r > best {
			best = r
		}

		if r < worst {
			worst = r
		}

		switch {
		case r > 0:
			gains = append(gains, r)
		case r < 0:
			losses = append(losses, r)
		}
	}

	if len(returns) > 0 {
		metrics.BestDay = best
		metrics.WorstDay = worst
	}

	metrics.PositiveDays = len(gains)
	metrics.NegativeDays = len(losses)

	if len(returns) > 0 {
		metrics.WinRate = float64(len(gains)) / float64(len(returns))
	}

	if len(gains) > 0 && len(losses) > 0 {
		metrics.ProfitLossRatio = mean(gains) / math.Abs(mean(losses))
	}
}

// fillDistribution computes the shape statistics and the Jarque-Bera
// normality test. The p-value uses the chi-square survival function with two
// degrees of freedom, which reduces to exp(-JB/2).
func fillDistribution(metrics *types.PerformanceMetrics, returns []float64) {
	if len(returns) < 2 {
		return
	}

	metrics.Skewness = skewness(returns)
	metrics.Kurtosis = excessKurtosis(returns)

	n := float64(len(returns))
	jb := n / 6 * (metrics.Skewness*metrics.Skewness + metrics.Kurtosis*metrics.Kurtosis/4)

	metrics.JarqueBera = jb
	metrics.JarqueBeraPValue = math.Exp(-jb / 2)
	metrics.NormalityTest = metrics.JarqueBeraPValue > normalityAlpha
}

// fillBenchmark computes the relative metrics against a benchmark value
// series covering the same dates. A benchmark with too few points is
// ignored.
func fillBenchmark(metrics *types.PerformanceMetrics, returns []float64, benchmark types.ValueSeries, riskFreeRate float64) {
	if len(benchmark) < 2 {
		return
	}

	benchFloats := benchmark.Floats()
	benchReturns := dailyReturns(benchFloats)

	n := len(returns)
	if len(benchReturns) < n {
		n = len(benchReturns)
	}

	returns = returns[:n]
	benchReturns = benchReturns[:n]

	if benchFloats[0] != 0 {
		metrics.BenchmarkReturn = benchFloats[len(benchFloats)-1]/benchFloats[0] - 1
	}

	metrics.ExcessReturn = metrics.TotalReturn - metrics.BenchmarkReturn

	diffs := make([]float64, n)
	for i := range diffs {
		diffs[i] = returns[i] - benchReturns[i]
	}

	metrics.TrackingError = sampleStd(diffs) * math.Sqrt(tradingDaysPerYear)

	if metrics.TrackingError != 0 {
		metrics.InformationRatio = metrics.ExcessReturn / metrics.TrackingError
	}

	benchStd := sampleStd(benchReturns)
	if benchStd != 0 {
		metrics.Beta = sampleCovariance(returns, benchReturns) / (benchStd * benchStd)
	}

	metrics.Alpha = metrics.ExcessReturn - metrics.Beta*(metrics.BenchmarkReturn-riskFreeRate)
	metrics.Correlation = pearson(returns, benchReturns)
}
