package strategy

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fundquant/fund-backtest/internal/logger"
	"github.com/fundquant/fund-backtest/internal/types"
	"github.com/fundquant/fund-backtest/pkg/errors"
)

// RegularInvestmentStrategy implements dollar-cost averaging: on every
// scheduled date it invests a fixed amount per fund according to the
// allocation weights, never selling. Legs execute independently within a
// date — a fund whose leg the cash cannot cover is skipped while the
// remaining legs still execute.
type RegularInvestmentStrategy struct {
	log *logger.Logger
}

// NewRegularInvestmentStrategy creates the dollar-cost-averaging strategy.
func NewRegularInvestmentStrategy(log *logger.Logger) *RegularInvestmentStrategy {
	return &RegularInvestmentStrategy{log: log}
}

// Name implements Strategy.
func (s *RegularInvestmentStrategy) Name() string {
	return "Regular Investment"
}

// Type implements Strategy.
func (s *RegularInvestmentStrategy) Type() types.StrategyType {
	return types.StrategyTypeRegularInvestment
}

// RequiredParams implements Strategy.
func (s *RegularInvestmentStrategy) RequiredParams() []string {
	return []string{"investment_amount"}
}

// DefaultParams implements Strategy.
func (s *RegularInvestmentStrategy) DefaultParams() Params {
	return DefaultRegularInvestmentParams()
}

// ValidateParams implements Strategy.
func (s *RegularInvestmentStrategy) ValidateParams(params Params) error {
	p, ok := params.(*RegularInvestmentParams)
	if !ok {
		return errors.Newf(errors.ErrCodeStrategyParams,
			"regular investment strategy received %s params", params.StrategyType())
	}

	return p.Validate()
}

// Execute implements Strategy.
func (s *RegularInvestmentStrategy) Execute(ctx context.Context, input RunInput, series *types.NavSeries, schedule []time.Time) ([]types.Transaction, types.ValueSeries, error) {
	params, ok := input.Params.(*RegularInvestmentParams)
	if !ok {
		return nil, nil, errors.Newf(errors.ErrCodeStrategyParams,
			"regular investment strategy received %s params", input.Params.StrategyType())
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

	decide := func(period int, date time.Time, row map[string]decimal.Decimal, state *types.PortfolioState) ([]types.Transaction, error) {
		var legs []types.Transaction

		// Legs settle after decide returns, so cash consumed by earlier
		// legs on the same date is tracked here.
		remaining := state.Cash

		for _, fund := range funds {
			weight := allocation[fund]
			if !weight.IsPositive() {
				continue
			}

			price, ok := row[fund]
			if !ok {
				continue
			}

			if !price.IsPositive() {
				s.log.Warn("skipping leg with non-positive NAV",
					zap.String("fund", fund),
					zap.Time("date", date),
					zap.String("nav", price.String()),
				)

				continue
			}

			amount := params.InvestmentAmount.Mul(weight).Round(2)
			if amount.GreaterThan(remaining) {
				s.log.Debug("insufficient cash for leg, skipping",
					zap.String("fund", fund),
					zap.Time("date", date),
					zap.String("required", amount.String()),
					zap.String("cash", remaining.String()),
				)

				continue
			}

			fee := amount.Mul(feeRate)
			shares := amount.Sub(fee).Div(price)
			remaining = remaining.Sub(amount)

			legs = append(legs, types.NewTransaction(date, fund, types.ActionBuy, amount, fee, shares, price))
		}

		return legs, nil
	}

	transactions, values, err := runSimulation(ctx, input, series, schedule, decide)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("regular investment run complete",
		zap.Int("transactions", len(transactions)),
		zap.Int("trading_days", len(values)),
	)

	return transactions, values, nil
}
