package types

import (
	"github.com/shopspring/decimal"

	"github.com/fundquant/fund-backtest/pkg/errors"
)

// PortfolioState is the mutable cash/holdings state owned by a single
// simulation run. Apply is the only mutation path, which keeps every day's
// state transition auditable: a transaction either applies fully or the state
// is left untouched.
type PortfolioState struct {
	Cash     decimal.Decimal
	Holdings map[string]decimal.Decimal
}

// NewPortfolioState creates a portfolio holding only the initial cash amount.
func NewPortfolioState(initialCash decimal.Decimal) *PortfolioState {
	return &PortfolioState{
		Cash:     initialCash,
		Holdings: make(map[string]decimal.Decimal),
	}
}

// Shares returns the current holdings for a fund, zero if never held.
func (p *PortfolioState) Shares(fundCode string) decimal.Decimal {
	return p.Holdings[fundCode]
}

// Apply settles a transaction against the portfolio.
//
// Buys debit the gross amount from cash and add shares; sells remove shares
// and credit the net proceeds (amount minus fee). A buy larger than available
// cash or a sell larger than current holdings is rejected without mutating
// state — an oversell indicates a strategy implementation bug, not a normal
// failure path.
func (p *PortfolioState) Apply(tx Transaction) error {
	switch tx.Action {
	case ActionBuy:
		if tx.Amount.GreaterThan(p.Cash) {
			return errors.Newf(errors.ErrCodeInsufficientCash,
				"buy of %s for fund %s exceeds available cash %s",
				tx.Amount.String(), tx.FundCode, p.Cash.String())
		}

		p.Cash = p.Cash.Sub(tx.Amount)
		p.Holdings[tx.FundCode] = p.Holdings[tx.FundCode].Add(tx.Shares)

		return nil
	case ActionSell:
		held := p.Holdings[tx.FundCode]
		if tx.Shares.GreaterThan(held) {
			return errors.Newf(errors.ErrCodeOversell,
				"sell of %s shares of fund %s exceeds holdings %s",
				tx.Shares.String(), tx.FundCode, held.String())
		}

		p.Holdings[tx.FundCode] = held.Sub(tx.Shares)
		p.Cash = p.Cash.Add(tx.Amount.Sub(tx.Fee))

		return nil
	default:
		return errors.Newf(errors.ErrCodeSimulationAborted, "unknown trade action: %s", tx.Action)
	}
}

// HoldingsValue is the market value of all held shares at the given NAV row.
func (p *PortfolioState) HoldingsValue(navRow map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero

	for fund, shares := range p.Holdings {
		if shares.IsZero() {
			continue
		}

		if price, ok := navRow[fund]; ok {
			total = total.Add(shares.Mul(price))
		}
	}

	return total
}

// TotalValue is cash plus the market value of holdings at the given NAV row.
func (p *PortfolioState) TotalValue(navRow map[string]decimal.Decimal) decimal.Decimal {
	return p.Cash.Add(p.HoldingsValue(navRow))
}
