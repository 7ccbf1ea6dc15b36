package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/fundquant/fund-backtest/internal/logger"
	"github.com/fundquant/fund-backtest/internal/types"
)

type ValueAveragingTestSuite struct {
	suite.Suite
	strategy *ValueAveragingStrategy
}

func (suite *ValueAveragingTestSuite) SetupSuite() {
	suite.strategy = NewValueAveragingStrategy(logger.NewNopLogger())
}

func TestValueAveragingSuite(t *testing.T) {
	suite.Run(t, new(ValueAveragingTestSuite))
}

// pathNavSeries builds a single-fund series following the given NAV path on
// consecutive weekdays.
func pathNavSeries(fund string, prices []float64) *types.NavSeries {
	var points []types.NavPoint

	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, p := range prices {
		for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			date = date.AddDate(0, 0, 1)
		}

		points = append(points, types.NavPoint{
			FundCode:    fund,
			TradingDate: date,
			UnitNav:     decimal.NewFromFloat(p),
		})
		date = date.AddDate(0, 0, 1)
	}

	series, _ := types.NewNavSeries(points, []string{fund},
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))

	return series
}

func (suite *ValueAveragingTestSuite) vaParams() *ValueAveragingParams {
	return &ValueAveragingParams{
		BaseInvestment:   decimal.NewFromInt(1000),
		TargetGrowthRate: 0,
		MaxMultiplier:    3.0,
		MinMultiplier:    0.1,
		FeeRate:          0,
		DeadBandRatio:    0.1,
		SellCapRatio:     0.2,
	}
}

func (suite *ValueAveragingTestSuite) TestTargetValuePath() {
	initial := decimal.NewFromInt(10000)
	base := decimal.NewFromInt(1000)

	// Zero growth: target(t) = initial + base*t.
	t1 := suite.strategy.targetValue(initial, base, 0, 1)
	suite.True(t1.Equal(decimal.NewFromInt(11000)), "t1: %s", t1)

	t3 := suite.strategy.targetValue(initial, base, 0, 3)
	suite.True(t3.Equal(decimal.NewFromInt(13000)))

	// With growth the contribution compounds: initial + base*2*(1.01)^1.
	t2 := suite.strategy.targetValue(initial, base, 0.01, 2)
	suite.True(t2.Equal(decimal.NewFromInt(12020)), "t2: %s", t2)
}

func (suite *ValueAveragingTestSuite) TestFirstPeriodBuysExactlyBase() {
	series := pathNavSeries("000001", []float64{1.0, 1.0, 1.0})
	schedule := series.Dates()[:1]

	input := RunInput{
		InitialAmount: decimal.NewFromInt(10000),
		FundCodes:     []string{"000001"},
		Params:        suite.vaParams(),
	}

	transactions, _, err := suite.strategy.Execute(context.Background(), input, series, schedule)
	suite.Require().NoError(err)
	suite.Require().Len(transactions, 1)

	// Current value counts cash, so period 1 sees
	// required = (10000 + 1000) - 10000 = base, not the whole target.
	suite.Equal(types.ActionBuy, transactions[0].Action)
	suite.True(transactions[0].Amount.Equal(decimal.NewFromInt(1000)), "amount: %s", transactions[0].Amount)
}

func (suite *ValueAveragingTestSuite) TestShortfallBuyClampedToMaxMultiplier() {
	// Period 1 buys 1000 shares at 1.0 (cash 9000). The NAV then halves:
	// current = 9000 + 500 = 9500 against a target of 12000, so the 2500
	// shortfall is capped at 2x base.
	series := pathNavSeries("000001", []float64{1.0, 0.5})
	schedule := series.Dates()

	params := suite.vaParams()
	params.MaxMultiplier = 2.0

	input := RunInput{
		InitialAmount: decimal.NewFromInt(10000),
		FundCodes:     []string{"000001"},
		Params:        params,
	}

	transactions, _, err := suite.strategy.Execute(context.Background(), input, series, schedule)
	suite.Require().NoError(err)
	suite.Require().Len(transactions, 2)
	suite.True(transactions[1].Amount.Equal(decimal.NewFromInt(2000)), "amount: %s", transactions[1].Amount)
}

func (suite *ValueAveragingTestSuite) TestSharpRiseTriggersSell() {
	// Period 1 buys 1000 shares at 1.0 (cash 9000). The NAV jumps to 10.0:
	// current = 9000 + 10000 = 19000 against a target of 12000, well past
	// the dead band, so period 2 must sell.
	series := pathNavSeries("000001", []float64{1.0, 10.0})
	schedule := series.Dates()

	input := RunInput{
		InitialAmount: decimal.NewFromInt(10000),
		FundCodes:     []string{"000001"},
		Params:        suite.vaParams(),
	}

	transactions, _, err := suite.strategy.Execute(context.Background(), input, series, schedule)
	suite.Require().NoError(err)

	var sells []types.Transaction

	for _, tx := range transactions {
		if tx.Action == types.ActionSell {
			sells = append(sells, tx)
		}
	}

	suite.Require().NotEmpty(sells, "an overshoot past the dead band must trigger a sell")

	// The sell is min(|required|, 20% of current value) = min(7000, 3800).
	sell := sells[0]
	suite.True(sell.Amount.Equal(decimal.NewFromInt(3800)), "sell amount: %s", sell.Amount)

	// Post-sell holdings never go negative: 1000 - 380 = 620 shares.
	suite.True(sell.Shares.LessThanOrEqual(decimal.NewFromInt(1000)))
}

func (suite *ValueAveragingTestSuite) TestSmallOvershootInsideDeadBandHolds() {
	// Period 1 buys 1000 shares at 1.0 (cash 9000). The NAV rises to 3.05:
	// current = 9000 + 3050 = 12050 overshoots the 12000 target by only 50,
	// inside the 0.1 x base dead band, so period 2 does nothing.
	series := pathNavSeries("000001", []float64{1.0, 3.05})
	schedule := series.Dates()

	input := RunInput{
		InitialAmount: decimal.NewFromInt(10000),
		FundCodes:     []string{"000001"},
		Params:        suite.vaParams(),
	}

	transactions, _, err := suite.strategy.Execute(context.Background(), input, series, schedule)
	suite.Require().NoError(err)
	suite.Require().Len(transactions, 1, "overshoot inside the dead band must not trade")
	suite.Equal(types.ActionBuy, transactions[0].Action)
}

func (suite *ValueAveragingTestSuite) TestBuyIsClampedByAvailableCash() {
	series := pathNavSeries("000001", []float64{1.0, 1.0, 1.0})
	schedule := series.Dates()

	// Cash runs out before the clamped buy amounts do.
	input := RunInput{
		InitialAmount: decimal.NewFromInt(3500),
		FundCodes:     []string{"000001"},
		Params:        suite.vaParams(),
	}

	transactions, values, err := suite.strategy.Execute(context.Background(), input, series, schedule)
	suite.Require().NoError(err)

	total := decimal.Zero
	for _, tx := range transactions {
		suite.Equal(types.ActionBuy, tx.Action)
		total = total.Add(tx.Amount)
	}

	// Periods buy 1000, 2000, then the 3000 shortfall is clamped to the 500
	// of cash that is left: the cash-short period still deploys a partial
	// buy rather than skipping.
	suite.Require().Len(transactions, 3)
	suite.True(transactions[2].Amount.Equal(decimal.NewFromInt(500)), "final buy: %s", transactions[2].Amount)
	suite.True(total.Equal(decimal.NewFromInt(3500)), "total bought: %s", total)
	suite.NotEmpty(values)
}

func (suite *ValueAveragingTestSuite) TestRejectsWrongParamsType() {
	err := suite.strategy.ValidateParams(DefaultRegularInvestmentParams())
	suite.Require().Error(err)
}
