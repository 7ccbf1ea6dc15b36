package strategy

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fundquant/fund-backtest/internal/logger"
	"github.com/fundquant/fund-backtest/internal/types"
	"github.com/fundquant/fund-backtest/pkg/errors"
)

// ValueAveragingStrategy steers the portfolio toward a growing target value
// path. Each scheduled period it compares the holdings value against the
// target and buys the shortfall or sells the excess. Buys are clamped to
// [min, max] multiples of the base investment and to available cash; sells
// are gated by a dead band around the target and capped at a fraction of the
// current holdings value so a single rebalance never liquidates the book.
type ValueAveragingStrategy struct {
	log *logger.Logger
}

// NewValueAveragingStrategy creates the value-averaging strategy.
func NewValueAveragingStrategy(log *logger.Logger) *ValueAveragingStrategy {
	return &ValueAveragingStrategy{log: log}
}

// Name implements Strategy.
func (s *ValueAveragingStrategy) Name() string {
	return "Value Averaging"
}

// Type implements Strategy.
func (s *ValueAveragingStrategy) Type() types.StrategyType {
	return types.StrategyTypeValueAveraging
}

// RequiredParams implements Strategy.
func (s *ValueAveragingStrategy) RequiredParams() []string {
	return []string{"base_investment", "target_growth_rate", "max_multiplier", "min_multiplier"}
}

// DefaultParams implements Strategy.
func (s *ValueAveragingStrategy) DefaultParams() Params {
	return DefaultValueAveragingParams()
}

// ValidateParams implements Strategy.
func (s *ValueAveragingStrategy) ValidateParams(params Params) error {
	p, ok := params.(*ValueAveragingParams)
	if !ok {
		return errors.Newf(errors.ErrCodeStrategyParams,
			"value averaging strategy received %s params", params.StrategyType())
	}

	return p.Validate()
}

// targetValue returns the portfolio value the strategy aims for at the given
// 1-based period: initial + base*t*(1+g)^(t-1). Growth compounds on the
// contribution schedule rather than the market.
func (s *ValueAveragingStrategy) targetValue(initial, base decimal.Decimal, growthRate float64, period int) decimal.Decimal {
	growth := math.Pow(1+growthRate, float64(period-1))
	contribution := base.Mul(decimal.NewFromInt(int64(period))).Mul(decimal.NewFromFloat(growth))

	return initial.Add(contribution)
}

// Execute implements Strategy.
func (s *ValueAveragingStrategy) Execute(ctx context.Context, input RunInput, series *types.NavSeries, schedule []time.Time) ([]types.Transaction, types.ValueSeries, error) {
	params, ok := input.Params.(*ValueAveragingParams)
	if !ok {
		return nil, nil, errors.Newf(errors.ErrCodeStrategyParams,
			"value averaging strategy received %s params", input.Params.StrategyType())
	}

	if err := params.Validate(); err != nil {
		return nil, nil, err
	}

	allocation, deviates := resolveAllocation(input.FundCodes, params.FundAllocation)
	if deviates {
		s.log.Warn("fund allocation weights do not sum to 1, using stated weights",
			zap.Any("allocation", params.FundAllocation),
		)
	}

	funds := sortedFunds(input.FundCodes)
	feeRate := decimal.NewFromFloat(params.FeeRate)
	minBuy := params.BaseInvestment.Mul(decimal.NewFromFloat(params.MinMultiplier))
	maxBuy := params.BaseInvestment.Mul(decimal.NewFromFloat(params.MaxMultiplier))
	deadBand := params.BaseInvestment.Mul(decimal.NewFromFloat(params.DeadBandRatio))
	sellCap := decimal.NewFromFloat(params.SellCapRatio)

	decide := func(period int, date time.Time, row map[string]decimal.Decimal, state *types.PortfolioState) ([]types.Transaction, error) {
		current := state.TotalValue(row)
		target := s.targetValue(input.InitialAmount, params.BaseInvestment, params.TargetGrowthRate, period)
		required := target.Sub(current)

		switch {
		case required.IsPositive():
			total := decimal.Min(clampAmount(required, minBuy, maxBuy), state.Cash)

			return s.buyLegs(date, row, state, funds, allocation, feeRate, total)
		case required.Neg().GreaterThan(deadBand):
			return s.sellLegs(date, row, state, funds, allocation, feeRate, decimal.Min(required.Neg(), current.Mul(sellCap)))
		default:
			return nil, nil
		}
	}

	transactions, values, err := runSimulation(ctx, input, series, schedule, decide)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("value averaging run complete",
		zap.Int("transactions", len(transactions)),
		zap.Int("trading_days", len(values)),
	)

	return transactions, values, nil
}

// buyLegs splits the clamped buy amount across funds by allocation weight.
// The amount arrives already clamped to available cash; each leg is further
// clamped to what remains after earlier legs so stated weights that sum past
// one cannot overdraw.
func (s *ValueAveragingStrategy) buyLegs(date time.Time, row map[string]decimal.Decimal, state *types.PortfolioState, funds []string, allocation map[string]decimal.Decimal, feeRate, total decimal.Decimal) ([]types.Transaction, error) {
	var legs []types.Transaction

	remaining := state.Cash
	for _, fund := range funds {
		weight := allocation[fund]
		if !weight.IsPositive() {
			continue
		}

		price, ok := row[fund]
		if !ok || !price.IsPositive() {
			s.log.Warn("skipping buy leg with unusable NAV",
				zap.String("fund", fund),
				zap.Time("date", date),
			)

			continue
		}

		amount := decimal.Min(total.Mul(weight), remaining).RoundDown(2)
		if !amount.IsPositive() {
			continue
		}

		fee := amount.Mul(feeRate)
		shares := amount.Sub(fee).Div(price)
		remaining = remaining.Sub(amount)

		legs = append(legs, types.NewTransaction(date, fund, types.ActionBuy, amount, fee, shares, price))
	}

	return legs, nil
}

// sellLegs pro-rates the sell amount across held funds by allocation weight,
// clamping each leg's shares to the position so the portfolio never goes
// short. Gross proceeds are recomputed from the clamped shares.
func (s *ValueAveragingStrategy) sellLegs(date time.Time, row map[string]decimal.Decimal, state *types.PortfolioState, funds []string, allocation map[string]decimal.Decimal, feeRate, total decimal.Decimal) ([]types.Transaction, error) {
	var legs []types.Transaction

	for _, fund := range funds {
		weight := allocation[fund]
		if !weight.IsPositive() {
			continue
		}

		held := state.Holdings[fund]
		if !held.IsPositive() {
			continue
		}

		price, ok := row[fund]
		if !ok || !price.IsPositive() {
			s.log.Warn("skipping sell leg with unusable NAV",
				zap.String("fund", fund),
				zap.Time("date", date),
			)

			continue
		}

		amount := total.Mul(weight)
		shares := amount.Div(price)
		if shares.GreaterThan(held) {
			shares = held
		}

		if !shares.IsPositive() {
			continue
		}

		gross := shares.Mul(price)
		fee := gross.Mul(feeRate)

		legs = append(legs, types.NewTransaction(date, fund, types.ActionSell, gross, fee, shares, price))
	}

	return legs, nil
}

func clampAmount(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}

	if v.GreaterThan(hi) {
		return hi
	}

	return v
}
