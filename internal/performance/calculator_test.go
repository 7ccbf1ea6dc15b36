package performance

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/fundquant/fund-backtest/internal/types"
)

type CalculatorTestSuite struct {
	suite.Suite
}

func TestCalculatorSuite(t *testing.T) {
	suite.Run(t, new(CalculatorTestSuite))
}

func valueSeries(start time.Time, values []float64) types.ValueSeries {
	series := make(types.ValueSeries, len(values))
	for i, v := range values {
		series[i] = types.ValuePoint{
			Date:  start.AddDate(0, 0, i),
			Value: decimal.NewFromFloat(v),
		}
	}

	return series
}

func (suite *CalculatorTestSuite) start() time.Time {
	return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
}

func (suite *CalculatorTestSuite) noBenchmark() optional.Option[types.ValueSeries] {
	return optional.None[types.ValueSeries]()
}

func (suite *CalculatorTestSuite) TestInsufficientData() {
	metrics := Calculate(valueSeries(suite.start(), []float64{100}), suite.noBenchmark(), 0.03)

	suite.True(metrics.InsufficientData)
	suite.Zero(metrics.TotalReturn)
	suite.Zero(metrics.SharpeRatio)
	suite.Equal(1, metrics.TradingDays)
}

func (suite *CalculatorTestSuite) TestEmptySeries() {
	metrics := Calculate(nil, suite.noBenchmark(), 0.03)

	suite.True(metrics.InsufficientData)
	suite.Zero(metrics.TradingDays)
	suite.Empty(metrics.StartDate)
}

func (suite *CalculatorTestSuite) TestMaxDrawdownDeepestTrough() {
	// Peak 1.2, trough 0.6: drawdown (0.6-1.2)/1.2 = -0.5.
	metrics := Calculate(valueSeries(suite.start(), []float64{1.0, 1.2, 0.6, 0.9}), suite.noBenchmark(), 0)

	suite.InDelta(-0.5, metrics.MaxDrawdown, 1e-9)
}

func (suite *CalculatorTestSuite) TestMonotonicRiseHasZeroDrawdown() {
	metrics := Calculate(valueSeries(suite.start(), []float64{1.0, 1.1, 1.2, 1.3}), suite.noBenchmark(), 0)

	suite.Zero(metrics.MaxDrawdown)
	suite.Zero(metrics.CalmarRatio, "calmar must be 0 when drawdown is 0")
}

func (suite *CalculatorTestSuite) TestFlatSeriesZeroRatios() {
	// Constant value: zero volatility, so every ratio with volatility in the
	// denominator reports 0 rather than infinity.
	metrics := Calculate(valueSeries(suite.start(), []float64{100, 100, 100, 100}), suite.noBenchmark(), 0.03)

	suite.Zero(metrics.TotalReturn)
	suite.Zero(metrics.Volatility)
	suite.Zero(metrics.SharpeRatio)
	suite.Zero(metrics.SortinoRatio)
	suite.Zero(metrics.WinRate)
	suite.Zero(metrics.ProfitLossRatio)
	suite.False(metrics.InsufficientData)
}

func (suite *CalculatorTestSuite) TestTotalAndCumulativeReturnAgree() {
	metrics := Calculate(valueSeries(suite.start(), []float64{100, 110, 99, 120}), suite.noBenchmark(), 0)

	suite.InDelta(0.2, metrics.TotalReturn, 1e-9)
	suite.InDelta(metrics.TotalReturn, metrics.CumulativeReturn, 1e-9,
		"chained daily returns must reproduce the total return")
}

func (suite *CalculatorTestSuite) TestAnnualizedReturnOneYear() {
	// 10% over exactly 365.25 days annualizes to 10%.
	series := types.ValueSeries{
		{Date: suite.start(), Value: decimal.NewFromInt(100)},
		{Date: suite.start().Add(time.Duration(365.25 * 24 * float64(time.Hour))), Value: decimal.NewFromInt(110)},
	}

	metrics := Calculate(series, suite.noBenchmark(), 0)
	suite.InDelta(0.10, metrics.AnnualizedReturn, 1e-6)
}

func (suite *CalculatorTestSuite) TestWinRateAndCounts() {
	// Returns: +10%, -: one loss, +: one more gain, 0: one flat day.
	metrics := Calculate(valueSeries(suite.start(), []float64{100, 110, 99, 108.9, 108.9}), suite.noBenchmark(), 0)

	suite.Equal(2, metrics.PositiveDays)
	suite.Equal(1, metrics.NegativeDays)
	suite.InDelta(0.5, metrics.WinRate, 1e-9, "flat days count toward the win-rate denominator")
	suite.InDelta(0.10, metrics.BestDay, 1e-9)
	suite.InDelta(-0.10, metrics.WorstDay, 1e-9)
}

func (suite *CalculatorTestSuite) TestFlatDaysOnlyLowerTheWinRate() {
	// Returns +10%, 0, -10%: one gain out of three observations.
	metrics := Calculate(valueSeries(suite.start(), []float64{100, 110, 110, 99}), suite.noBenchmark(), 0)

	suite.Equal(1, metrics.PositiveDays)
	suite.Equal(1, metrics.NegativeDays)
	suite.InDelta(1.0/3.0, metrics.WinRate, 1e-9)
}

func (suite *CalculatorTestSuite) TestSharpeAndSortinoUseDailyExcessReturns() {
	// Pinned against mean(r - rf/252) / stdev(r - rf/252) x sqrt(252) and the
	// same numerator over the downside deviation. The compounded-annualized
	// form would report two orders of magnitude more on a series this short.
	series := valueSeries(suite.start(), []float64{100, 101, 100.5, 102, 101.5, 103, 102.5, 104})

	metrics := Calculate(series, suite.noBenchmark(), 0.03)

	suite.InDelta(8.776200, metrics.SharpeRatio, 1e-4)
	suite.InDelta(0.000763, metrics.DownsideDeviation, 1e-6)
	suite.InDelta(115.315962, metrics.SortinoRatio, 1e-2)
}

func (suite *CalculatorTestSuite) TestProfitLossRatioZeroWithoutLosses() {
	metrics := Calculate(valueSeries(suite.start(), []float64{100, 101, 102, 103}), suite.noBenchmark(), 0)

	suite.Zero(metrics.ProfitLossRatio)
	suite.Equal(1.0, metrics.WinRate)
}

func (suite *CalculatorTestSuite) TestVaRAndCVaR() {
	values := []float64{100}
	returns := []float64{-0.05, -0.02, 0.01, 0.01, 0.02, -0.01, 0.03, 0.0, 0.01, -0.03}

	for _, r := range returns {
		values = append(values, values[len(values)-1]*(1+r))
	}

	metrics := Calculate(valueSeries(suite.start(), values), suite.noBenchmark(), 0)

	suite.Negative(metrics.VaR95, "the 5th percentile of a mixed return series is negative")
	suite.LessOrEqual(metrics.CVaR95, metrics.VaR95, "expected shortfall is at least as severe as VaR")
}

func (suite *CalculatorTestSuite) TestIdempotence() {
	series := valueSeries(suite.start(), []float64{100, 105, 95, 112, 108})

	first := Calculate(series, suite.noBenchmark(), 0.03)
	second := Calculate(series, suite.noBenchmark(), 0.03)

	suite.Equal(first, second)
}

func (suite *CalculatorTestSuite) TestDateStamps() {
	metrics := Calculate(valueSeries(suite.start(), []float64{100, 101, 102}), suite.noBenchmark(), 0)

	suite.Equal("2024-01-02", metrics.StartDate)
	suite.Equal("2024-01-04", metrics.EndDate)
	suite.Equal(3, metrics.TotalDays)
	suite.Equal(3, metrics.TradingDays)
}

func (suite *CalculatorTestSuite) TestBenchmarkAgainstItselfIsNeutral() {
	series := valueSeries(suite.start(), []float64{100, 105, 95, 112, 108})

	metrics := Calculate(series, optional.Some(series), 0)

	suite.InDelta(1.0, metrics.Beta, 1e-9)
	suite.InDelta(1.0, metrics.Correlation, 1e-9)
	suite.InDelta(0.0, metrics.TrackingError, 1e-9)
	suite.InDelta(0.0, metrics.ExcessReturn, 1e-9)
	suite.InDelta(0.0, metrics.InformationRatio, 1e-9)
	suite.InDelta(metrics.TotalReturn, metrics.BenchmarkReturn, 1e-9)

	// With zero excess return, alpha reduces to -beta x (benchmark - rf):
	// the entire 8% gain is explained by benchmark exposure.
	suite.InDelta(-0.08, metrics.Alpha, 1e-9)
}

func (suite *CalculatorTestSuite) TestBenchmarkBeatingMarket() {
	portfolio := valueSeries(suite.start(), []float64{100, 104, 108, 112})
	benchmark := valueSeries(suite.start(), []float64{100, 101, 102, 103})

	metrics := Calculate(portfolio, optional.Some(benchmark), 0)

	suite.Positive(metrics.ExcessReturn)
	suite.Positive(metrics.InformationRatio)
}

func (suite *CalculatorTestSuite) TestBenchmarkBlockFormulas() {
	// Pins the benchmark block to its total-return form:
	// excess = total - benchmark, alpha = excess - beta x (benchmark - rf),
	// information ratio = excess / tracking error.
	portfolio := valueSeries(suite.start(), []float64{100, 104, 108, 112})
	benchmark := valueSeries(suite.start(), []float64{100, 101, 102, 103})

	metrics := Calculate(portfolio, optional.Some(benchmark), 0.02)

	suite.InDelta(0.03, metrics.BenchmarkReturn, 1e-9)
	suite.InDelta(0.09, metrics.ExcessReturn, 1e-9)
	suite.InDelta(15.112535, metrics.Beta, 1e-4)
	suite.InDelta(-0.061125, metrics.Alpha, 1e-4)
	suite.InDelta(0.021967, metrics.TrackingError, 1e-4)
	suite.InDelta(4.096968, metrics.InformationRatio, 1e-4)
}

func (suite *CalculatorTestSuite) TestNormalityRejectsExtremeOutlier() {
	// A large single-day crash in an otherwise calm series produces heavy
	// skew, a large Jarque-Bera statistic and a tiny p-value.
	values := []float64{100}
	for i := 0; i < 30; i++ {
		values = append(values, values[len(values)-1]*1.001)
	}

	values = append(values, values[len(values)-1]*0.5)

	metrics := Calculate(valueSeries(suite.start(), values), suite.noBenchmark(), 0)

	suite.Negative(metrics.Skewness)
	suite.Positive(metrics.JarqueBera)
	suite.False(metrics.NormalityTest)
}

func (suite *CalculatorTestSuite) TestPercentileLinearInterpolation() {
	xs := []float64{1, 2, 3, 4}

	suite.InDelta(1.15, percentile(xs, 5), 1e-9)
	suite.InDelta(2.5, percentile(xs, 50), 1e-9)
	suite.InDelta(4.0, percentile(xs, 100), 1e-9)
}

func (suite *CalculatorTestSuite) TestSampleStdSmallInputs() {
	suite.Zero(sampleStd(nil))
	suite.Zero(sampleStd([]float64{1.0}))
	suite.InDelta(1.0, sampleStd([]float64{1, 2, 3}), 1e-9)
}

func (suite *CalculatorTestSuite) TestRollingWindow() {
	series := valueSeries(suite.start(), []float64{100, 102, 101, 105, 104, 108})

	points := Rolling(series, 3, 0)
	suite.Len(points, 4)
	suite.Equal(series[2].Date, points[0].Date)

	suite.Nil(Rolling(series, 1, 0))
	suite.Nil(Rolling(series, 10, 0))
}
