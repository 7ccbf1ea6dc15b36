package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeAction is the direction of a transaction.
type TradeAction string

const (
	ActionBuy  TradeAction = "buy"
	ActionSell TradeAction = "sell"
)

// Transaction is one executed buy or sell leg. The log of transactions
// produced during a simulation is append-only and never mutated afterwards.
type Transaction struct {
	// Date is the trading day the transaction settled on.
	Date time.Time `json:"date" yaml:"date"`
	// FundCode is the 6-digit fund identifier.
	FundCode string `json:"fund_code" yaml:"fund_code"`
	// Action is buy or sell.
	Action TradeAction `json:"action" yaml:"action"`
	// Amount is the gross cash value of the leg, before fees. Buys debit this
	// amount from cash; sells credit Amount minus Fee.
	Amount decimal.Decimal `json:"amount" yaml:"amount"`
	// Fee is the cash fee paid on the leg.
	Fee decimal.Decimal `json:"fee" yaml:"fee"`
	// Shares is the share quantity moved, kept to 4 decimal places.
	Shares decimal.Decimal `json:"shares" yaml:"shares"`
	// NavPrice is the unit NAV the leg executed at.
	NavPrice decimal.Decimal `json:"nav_price" yaml:"nav_price"`
	// Value is Shares times NavPrice.
	Value decimal.Decimal `json:"value" yaml:"value"`
}

// NewTransaction builds a transaction with Value derived from shares and price,
// money rounded to 2 decimal places and shares to 4.
func NewTransaction(date time.Time, fundCode string, action TradeAction, amount, fee, shares, navPrice decimal.Decimal) Transaction {
	shares = shares.Round(4)

	return Transaction{
		Date:     DateKey(date),
		FundCode: fundCode,
		Action:   action,
		Amount:   amount.Round(2),
		Fee:      fee.Round(2),
		Shares:   shares,
		NavPrice: navPrice,
		Value:    shares.Mul(navPrice).Round(2),
	}
}
