package types

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// NavPoint is a single end-of-day net-asset-value observation for one fund.
type NavPoint struct {
	FundCode        string          `json:"fund_code"`
	TradingDate     time.Time       `json:"trading_date"`
	UnitNav         decimal.Decimal `json:"unit_nav"`
	AccumulatedNav  decimal.Decimal `json:"accumulated_nav"`
	DailyChangeRate decimal.Decimal `json:"daily_change_rate"`
}

// DateKey truncates a timestamp to its calendar day in UTC. All NavSeries
// lookups are keyed by calendar day.
func DateKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NavSeries is a date-indexed, fund-columned NAV table covering a date range.
// After construction every (date, fund) cell holds a value: gaps are filled
// forward first, then backward, and funds with no history at all in the range
// are excluded.
type NavSeries struct {
	dates []time.Time
	funds []string
	cells map[string][]decimal.Decimal
	index map[time.Time]int
}

// NewNavSeries pivots raw NAV rows into a filled table for the requested funds
// and date range. The second return value lists funds that had zero history in
// the range and were excluded from the table.
func NewNavSeries(points []NavPoint, fundCodes []string, start, end time.Time) (*NavSeries, []string) {
	start = DateKey(start)
	end = DateKey(end)

	// Collect the union of trading dates and the per-fund raw columns.
	dateSet := make(map[time.Time]bool)
	raw := make(map[string]map[time.Time]decimal.Decimal)

	for _, p := range points {
		day := DateKey(p.TradingDate)
		if day.Before(start) || day.After(end) {
			continue
		}

		dateSet[day] = true

		if raw[p.FundCode] == nil {
			raw[p.FundCode] = make(map[time.Time]decimal.Decimal)
		}

		raw[p.FundCode][day] = p.UnitNav
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	series := &NavSeries{
		dates: dates,
		funds: nil,
		cells: make(map[string][]decimal.Decimal),
		index: make(map[time.Time]int, len(dates)),
	}
	for i, d := range dates {
		series.index[d] = i
	}

	var excluded []string

	for _, fund := range fundCodes {
		column, ok := raw[fund]
		if !ok || len(column) == 0 {
			excluded = append(excluded, fund)

			continue
		}

		filled := make([]decimal.Decimal, len(dates))
		seen := make([]bool, len(dates))

		for i, d := range dates {
			if v, ok := column[d]; ok {
				filled[i] = v
				seen[i] = true
			}
		}

		// Forward fill, then backward fill the leading gap.
		for i := 1; i < len(filled); i++ {
			if !seen[i] && seen[i-1] {
				filled[i] = filled[i-1]
				seen[i] = true
			}
		}

		for i := len(filled) - 2; i >= 0; i-- {
			if !seen[i] && seen[i+1] {
				filled[i] = filled[i+1]
				seen[i] = true
			}
		}

		series.funds = append(series.funds, fund)
		series.cells[fund] = filled
	}

	sort.Strings(series.funds)

	return series, excluded
}

// Dates returns the ascending trading dates covered by the table.
func (n *NavSeries) Dates() []time.Time {
	return n.dates
}

// Funds returns the fund codes present in the table, sorted.
func (n *NavSeries) Funds() []string {
	return n.funds
}

// Len returns the number of trading dates in the table.
func (n *NavSeries) Len() int {
	return len(n.dates)
}

// HasDate reports whether the given calendar day is a trading date in the table.
func (n *NavSeries) HasDate(t time.Time) bool {
	_, ok := n.index[DateKey(t)]

	return ok
}

// HasFund reports whether the fund survived construction.
func (n *NavSeries) HasFund(fund string) bool {
	_, ok := n.cells[fund]

	return ok
}

// Price returns the unit NAV for the fund on the given trading date.
// The second return value is false when the date or fund is not in the table.
func (n *NavSeries) Price(t time.Time, fund string) (decimal.Decimal, bool) {
	i, ok := n.index[DateKey(t)]
	if !ok {
		return decimal.Zero, false
	}

	column, ok := n.cells[fund]
	if !ok {
		return decimal.Zero, false
	}

	return column[i], true
}

// Row returns the unit NAV of every fund on the given trading date.
func (n *NavSeries) Row(t time.Time) (map[string]decimal.Decimal, bool) {
	i, ok := n.index[DateKey(t)]
	if !ok {
		return nil, false
	}

	row := make(map[string]decimal.Decimal, len(n.funds))
	for _, fund := range n.funds {
		row[fund] = n.cells[fund][i]
	}

	return row, true
}

// Column returns the value series of a single fund aligned with Dates().
// Used to derive a benchmark series from a fund column.
func (n *NavSeries) Column(fund string) (ValueSeries, bool) {
	column, ok := n.cells[fund]
	if !ok {
		return nil, false
	}

	series := make(ValueSeries, len(n.dates))
	for i, d := range n.dates {
		series[i] = ValuePoint{Date: d, Value: column[i]}
	}

	return series, true
}
