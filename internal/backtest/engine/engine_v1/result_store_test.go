package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/fundquant/fund-backtest/internal/logger"
	"github.com/fundquant/fund-backtest/internal/types"
)

type ResultStoreTestSuite struct {
	suite.Suite
	store  *ResultStore
	logger *logger.Logger
}

func (suite *ResultStoreTestSuite) SetupSuite() {
	suite.logger = logger.NewNopLogger()
}

func (suite *ResultStoreTestSuite) SetupTest() {
	store, err := NewResultStore(":memory:", suite.logger)
	suite.Require().NoError(err)
	suite.Require().NoError(store.Initialize())
	suite.store = store
}

func (suite *ResultStoreTestSuite) TearDownTest() {
	suite.Require().NoError(suite.store.Close())
}

func TestResultStoreSuite(t *testing.T) {
	suite.Run(t, new(ResultStoreTestSuite))
}

func (suite *ResultStoreTestSuite) sampleResult() *types.BacktestResult {
	date := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)

	return &types.BacktestResult{
		ID:            uuid.New().String(),
		StrategyType:  types.StrategyTypeRegularInvestment,
		CreatedAt:     time.Now().UTC(),
		TotalInvested: decimal.NewFromInt(3000),
		FinalValue:    decimal.NewFromFloat(3150.50),
		ExcludedFunds: []string{"999999"},
		Metrics: types.PerformanceMetrics{
			TotalReturn: 0.05,
			SharpeRatio: 1.2,
			StartDate:   "2023-03-01",
			EndDate:     "2023-03-31",
			TradingDays: 23,
		},
		Transactions: []types.Transaction{
			types.NewTransaction(date, "000001", types.ActionBuy,
				decimal.NewFromInt(1000), decimal.NewFromInt(1), decimal.NewFromFloat(999), decimal.NewFromInt(1)),
			types.NewTransaction(date.AddDate(0, 0, 7), "000001", types.ActionBuy,
				decimal.NewFromInt(2000), decimal.NewFromInt(2), decimal.NewFromFloat(1998), decimal.NewFromInt(1)),
		},
		Values: types.ValueSeries{
			{Date: date, Value: decimal.NewFromInt(1000)},
			{Date: date.AddDate(0, 0, 1), Value: decimal.NewFromInt(1010)},
		},
	}
}

func (suite *ResultStoreTestSuite) TestSaveAndGetRoundTrip() {
	result := suite.sampleResult()
	suite.Require().NoError(suite.store.SaveResult(result))

	loaded, err := suite.store.GetResult(result.ID)
	suite.Require().NoError(err)

	suite.Equal(result.ID, loaded.ID)
	suite.Equal(result.StrategyType, loaded.StrategyType)
	suite.Equal(result.ExcludedFunds, loaded.ExcludedFunds)
	suite.Equal(result.Metrics.TotalReturn, loaded.Metrics.TotalReturn)
	suite.Equal(result.Metrics.SharpeRatio, loaded.Metrics.SharpeRatio)
	suite.Require().Len(loaded.Transactions, 2)
	suite.Equal("000001", loaded.Transactions[0].FundCode)
	suite.True(loaded.Transactions[0].Amount.Equal(decimal.NewFromInt(1000)))
	suite.Require().Len(loaded.Values, 2)
	suite.True(loaded.Values[1].Value.Equal(decimal.NewFromInt(1010)))
}

func (suite *ResultStoreTestSuite) TestGetMissingResult() {
	_, err := suite.store.GetResult(uuid.New().String())
	suite.Require().Error(err)
}

func (suite *ResultStoreTestSuite) TestListResultsNewestFirst() {
	first := suite.sampleResult()
	first.CreatedAt = time.Now().UTC().Add(-time.Hour)
	suite.Require().NoError(suite.store.SaveResult(first))

	second := suite.sampleResult()
	suite.Require().NoError(suite.store.SaveResult(second))

	runs, err := suite.store.ListResults()
	suite.Require().NoError(err)
	suite.Require().Len(runs, 2)
	suite.Equal(second.ID, runs[0].ResultID)
	suite.Equal(first.ID, runs[1].ResultID)
}

func (suite *ResultStoreTestSuite) TestCleanupResets() {
	suite.Require().NoError(suite.store.SaveResult(suite.sampleResult()))
	suite.Require().NoError(suite.store.Cleanup())

	runs, err := suite.store.ListResults()
	suite.Require().NoError(err)
	suite.Empty(runs)
}
