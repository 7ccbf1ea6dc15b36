package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/fundquant/fund-backtest/internal/types"
	"github.com/fundquant/fund-backtest/pkg/errors"
)

// Params is the closed set of strategy parameter variants. Each strategy has
// its own strongly-typed parameter struct with its own validator, so the
// pluggable-strategy surface stays extensible without stringly-typed lookups.
type Params interface {
	StrategyType() types.StrategyType
	// Validate checks the parameters without side effects. The engine calls it
	// before a simulation starts and aborts the run when it fails; invalid
	// values are never silently substituted.
	Validate() error
}

var validate = validator.New()

// RegularInvestmentParams configures the dollar-cost-averaging strategy.
type RegularInvestmentParams struct {
	// InvestmentAmount is the cash deployed on each scheduled date, split
	// across funds by FundAllocation.
	InvestmentAmount decimal.Decimal `yaml:"investment_amount" json:"investment_amount"`
	// FundAllocation maps fund code to allocation weight. Empty means an
	// equal split across the configured funds. Provided weights are used as
	// stated even when they do not sum to 1.
	FundAllocation map[string]decimal.Decimal `yaml:"fund_allocation" json:"fund_allocation"`
	// FeeRate is the proportional fee charged on each leg.
	FeeRate float64 `yaml:"fee_rate" json:"fee_rate" validate:"gte=0,lt=1"`
}

// StrategyType implements Params.
func (p *RegularInvestmentParams) StrategyType() types.StrategyType {
	return types.StrategyTypeRegularInvestment
}

// Validate implements Params.
func (p *RegularInvestmentParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFeeRate, "fee_rate must be in [0, 1)", err)
	}

	if !p.InvestmentAmount.IsPositive() {
		return errors.Newf(errors.ErrCodeStrategyParams,
			"investment_amount must be greater than 0, got %s", p.InvestmentAmount.String())
	}

	for fund, weight := range p.FundAllocation {
		if weight.IsNegative() {
			return errors.Newf(errors.ErrCodeInvalidAllocation,
				"fund_allocation[%s] must not be negative, got %s", fund, weight.String())
		}
	}

	return nil
}

// DefaultRegularInvestmentParams returns the documented defaults.
func DefaultRegularInvestmentParams() *RegularInvestmentParams {
	return &RegularInvestmentParams{
		InvestmentAmount: decimal.NewFromInt(1000),
		FundAllocation:   nil,
		FeeRate:          0.001,
	}
}

// ValueAveragingParams configures the value-averaging strategy.
type ValueAveragingParams struct {
	// BaseInvestment is the per-period baseline amount the target value path
	// grows by.
	BaseInvestment decimal.Decimal `yaml:"base_investment" json:"base_investment"`
	// TargetGrowthRate compounds the target value path per period.
	TargetGrowthRate float64 `yaml:"target_value_growth_rate" json:"target_value_growth_rate" validate:"gte=-0.5,lte=0.5"`
	// MaxMultiplier caps a single period's buy at BaseInvestment times this.
	MaxMultiplier float64 `yaml:"max_investment_multiplier" json:"max_investment_multiplier" validate:"gt=0"`
	// MinMultiplier floors a single period's buy at BaseInvestment times this.
	MinMultiplier float64 `yaml:"min_investment_multiplier" json:"min_investment_multiplier" validate:"gt=0"`
	// FundAllocation maps fund code to allocation weight, as in
	// RegularInvestmentParams.
	FundAllocation map[string]decimal.Decimal `yaml:"fund_allocation" json:"fund_allocation"`
	// FeeRate is the proportional fee charged on each leg, buys and sells.
	FeeRate float64 `yaml:"fee_rate" json:"fee_rate" validate:"gte=0,lt=1"`
	// DeadBandRatio suppresses sells while the overshoot is below
	// BaseInvestment times this, avoiding churn on small deviations.
	DeadBandRatio float64 `yaml:"dead_band_ratio" json:"dead_band_ratio" validate:"gte=0"`
	// SellCapRatio caps a single period's sell at the current portfolio value
	// times this.
	SellCapRatio float64 `yaml:"sell_cap_ratio" json:"sell_cap_ratio" validate:"gte=0,lte=1"`
}

// StrategyType implements Params.
func (p *ValueAveragingParams) StrategyType() types.StrategyType {
	return types.StrategyTypeValueAveraging
}

// Validate implements Params.
func (p *ValueAveragingParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyParams, "value averaging parameters out of bounds", err)
	}

	if !p.BaseInvestment.IsPositive() {
		return errors.Newf(errors.ErrCodeInvalidBaseInvestment,
			"base_investment must be greater than 0, got %s", p.BaseInvestment.String())
	}

	if p.MaxMultiplier <= p.MinMultiplier {
		return errors.Newf(errors.ErrCodeInvalidMultiplier,
			"max_investment_multiplier (%v) must be greater than min_investment_multiplier (%v)",
			p.MaxMultiplier, p.MinMultiplier)
	}

	for fund, weight := range p.FundAllocation {
		if weight.IsNegative() {
			return errors.Newf(errors.ErrCodeInvalidAllocation,
				"fund_allocation[%s] must not be negative, got %s", fund, weight.String())
		}
	}

	return nil
}

// DefaultValueAveragingParams returns the documented defaults. The dead-band
// and sell-cap ratios carry the historical defaults of 0.1 and 0.2.
func DefaultValueAveragingParams() *ValueAveragingParams {
	return &ValueAveragingParams{
		BaseInvestment:   decimal.NewFromInt(1000),
		TargetGrowthRate: 0.01,
		MaxMultiplier:    3.0,
		MinMultiplier:    0.1,
		FundAllocation:   nil,
		FeeRate:          0.001,
		DeadBandRatio:    0.1,
		SellCapRatio:     0.2,
	}
}

// DecodeParams decodes a YAML params node into the variant matching the
// strategy type, starting from that strategy's defaults so omitted knobs keep
// their documented values.
func DecodeParams(strategyType types.StrategyType, node *yaml.Node) (Params, error) {
	switch strategyType {
	case types.StrategyTypeRegularInvestment:
		params := DefaultRegularInvestmentParams()
		if node != nil && node.Kind != 0 {
			if err := node.Decode(params); err != nil {
				return nil, errors.Wrap(errors.ErrCodeStrategyParams, "failed to decode regular investment params", err)
			}
		}

		return params, nil
	case types.StrategyTypeValueAveraging:
		params := DefaultValueAveragingParams()
		if node != nil && node.Kind != 0 {
			if err := node.Decode(params); err != nil {
				return nil, errors.Wrap(errors.ErrCodeStrategyParams, "failed to decode value averaging params", err)
			}
		}

		return params, nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnknownStrategy, "unknown strategy type: %s", strategyType)
	}
}
