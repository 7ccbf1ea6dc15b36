package strategy

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fundquant/fund-backtest/internal/types"
	"github.com/fundquant/fund-backtest/pkg/errors"
)

// periodDecision is a strategy's per-period trading logic. It receives the
// 1-based period index, the trading date, the day's NAV row and the current
// portfolio state, and returns the legs to settle on that date. It must never
// return a sell larger than current holdings.
type periodDecision func(period int, date time.Time, row map[string]decimal.Decimal, state *types.PortfolioState) ([]types.Transaction, error)

// runSimulation drives the day-by-day walk shared by all strategies: it
// iterates the NAV series index in ascending date order, applies the
// strategy's decision on scheduled dates, and appends the day's portfolio
// value after any same-day transactions settle. A day's step either completes
// fully or the run fails before materializing a result.
func runSimulation(ctx context.Context, input RunInput, series *types.NavSeries, schedule []time.Time, decide periodDecision) ([]types.Transaction, types.ValueSeries, error) {
	state := types.NewPortfolioState(input.InitialAmount)

	scheduled := make(map[time.Time]bool, len(schedule))
	for _, d := range schedule {
		scheduled[types.DateKey(d)] = true
	}

	dates := series.Dates()
	transactions := []types.Transaction{}
	values := make(types.ValueSeries, 0, len(dates))
	period := 0

	for i, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeSimulationAborted, "simulation cancelled", err)
		}

		row, ok := series.Row(date)
		if !ok {
			return nil, nil, errors.Newf(errors.ErrCodeSimulationAborted, "nav series has no row for %s", date.Format("2006-01-02"))
		}

		if scheduled[date] {
			period++

			legs, err := decide(period, date, row, state)
			if err != nil {
				return nil, nil, err
			}

			for _, tx := range legs {
				if err := state.Apply(tx); err != nil {
					return nil, nil, err
				}

				transactions = append(transactions, tx)
			}
		}

		values = append(values, types.ValuePoint{Date: date, Value: state.TotalValue(row).Round(2)})

		if input.OnDay != nil {
			if err := input.OnDay(i+1, len(dates)); err != nil {
				return nil, nil, errors.Wrap(errors.ErrCodeSimulationAborted, "day callback aborted the run", err)
			}
		}
	}

	return transactions, values, nil
}
