package strategy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"

	"github.com/fundquant/fund-backtest/internal/types"
	"github.com/fundquant/fund-backtest/pkg/errors"
)

type ParamsTestSuite struct {
	suite.Suite
}

func TestParamsSuite(t *testing.T) {
	suite.Run(t, new(ParamsTestSuite))
}

func (suite *ParamsTestSuite) TestRegularInvestmentDefaultsAreValid() {
	suite.Require().NoError(DefaultRegularInvestmentParams().Validate())
}

func (suite *ParamsTestSuite) TestValueAveragingDefaultsAreValid() {
	suite.Require().NoError(DefaultValueAveragingParams().Validate())
}

func (suite *ParamsTestSuite) TestRegularInvestmentRejectsNonPositiveAmount() {
	params := DefaultRegularInvestmentParams()
	params.InvestmentAmount = decimal.Zero

	err := params.Validate()
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyParams))
}

func (suite *ParamsTestSuite) TestRegularInvestmentRejectsNegativeFee() {
	params := DefaultRegularInvestmentParams()
	params.FeeRate = -0.5

	suite.Require().Error(params.Validate())
}

func (suite *ParamsTestSuite) TestRegularInvestmentRejectsNegativeWeight() {
	params := DefaultRegularInvestmentParams()
	params.FundAllocation = map[string]decimal.Decimal{
		"000001": decimal.NewFromFloat(-0.2),
	}

	err := params.Validate()
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidAllocation))
}

func (suite *ParamsTestSuite) TestValueAveragingRejectsInvertedMultipliers() {
	params := DefaultValueAveragingParams()
	params.MaxMultiplier = 0.5
	params.MinMultiplier = 2.0

	err := params.Validate()
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidMultiplier))
}

func (suite *ParamsTestSuite) TestValueAveragingRejectsNonPositiveBase() {
	params := DefaultValueAveragingParams()
	params.BaseInvestment = decimal.Zero

	err := params.Validate()
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidBaseInvestment))
}

func (suite *ParamsTestSuite) TestValueAveragingRejectsOutOfRangeGrowth() {
	params := DefaultValueAveragingParams()
	params.TargetGrowthRate = 0.9

	suite.Require().Error(params.Validate())
}

func (suite *ParamsTestSuite) TestDecodeParamsOverlaysDefaults() {
	var node yaml.Node

	err := yaml.Unmarshal([]byte("investment_amount: 2500\n"), &node)
	suite.Require().NoError(err)

	params, err := DecodeParams(types.StrategyTypeRegularInvestment, node.Content[0])
	suite.Require().NoError(err)

	ri, ok := params.(*RegularInvestmentParams)
	suite.Require().True(ok)
	suite.True(ri.InvestmentAmount.Equal(decimal.NewFromInt(2500)))
	suite.Equal(DefaultRegularInvestmentParams().FeeRate, ri.FeeRate, "unset fields keep their defaults")
}

func (suite *ParamsTestSuite) TestDecodeParamsNilNodeYieldsDefaults() {
	params, err := DecodeParams(types.StrategyTypeValueAveraging, nil)
	suite.Require().NoError(err)

	va, ok := params.(*ValueAveragingParams)
	suite.Require().True(ok)
	suite.True(va.BaseInvestment.Equal(DefaultValueAveragingParams().BaseInvestment))
}

func (suite *ParamsTestSuite) TestDecodeParamsUnknownStrategy() {
	_, err := DecodeParams(types.StrategyType("martingale"), nil)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownStrategy))
}
