package types

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// BacktestResult is the complete output of one simulation run: aggregate
// totals, the metrics table, the transaction log and the portfolio value
// series. Created once at the end of a run and immutable afterwards;
// ownership passes to the caller for persistence.
type BacktestResult struct {
	// ID uniquely identifies this run.
	ID string `json:"id" yaml:"id"`
	// StrategyType is the strategy that produced the result.
	StrategyType StrategyType `json:"strategy_type" yaml:"strategy_type"`
	// CreatedAt is when the run completed.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	// TotalInvested is the sum of all gross buy amounts.
	TotalInvested decimal.Decimal `json:"total_invested" yaml:"total_invested"`
	// FinalValue is the portfolio value on the last trading day.
	FinalValue decimal.Decimal `json:"final_value" yaml:"final_value"`
	// ExcludedFunds lists requested funds dropped for having no NAV history
	// in the range.
	ExcludedFunds []string `json:"excluded_funds,omitempty" yaml:"excluded_funds,omitempty"`
	// Metrics is the derived metrics table.
	Metrics PerformanceMetrics `json:"metrics" yaml:"metrics"`
	// Transactions is the append-only trade log, sorted by date.
	Transactions []Transaction `json:"transactions" yaml:"transactions"`
	// Values is the portfolio value series, one point per trading day.
	Values ValueSeries `json:"values" yaml:"values"`
}

// RunSummary is the structured outcome handed back across the engine
// boundary. A failed run still produces a summary with Success=false rather
// than an error escaping to batch callers.
type RunSummary struct {
	Success      bool          `json:"success" yaml:"success"`
	ResultID     string        `json:"result_id,omitempty" yaml:"result_id,omitempty"`
	StrategyType StrategyType  `json:"strategy_type" yaml:"strategy_type"`
	Error        string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	Summary      *ResultTotals `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// ResultTotals is the flattened headline numbers of a successful run.
type ResultTotals struct {
	TotalInvested    decimal.Decimal `json:"total_invested" yaml:"total_invested"`
	FinalValue       decimal.Decimal `json:"final_value" yaml:"final_value"`
	TotalReturn      float64         `json:"total_return" yaml:"total_return"`
	AnnualizedReturn float64         `json:"annualized_return" yaml:"annualized_return"`
	MaxDrawdown      float64         `json:"max_drawdown" yaml:"max_drawdown"`
	SharpeRatio      float64         `json:"sharpe_ratio" yaml:"sharpe_ratio"`
	Volatility       float64         `json:"volatility" yaml:"volatility"`
	WinRate          float64         `json:"win_rate" yaml:"win_rate"`
	Transactions     int             `json:"transactions" yaml:"transactions"`
}

// Totals builds the headline numbers from a full result.
func (r *BacktestResult) Totals() *ResultTotals {
	return &ResultTotals{
		TotalInvested:    r.TotalInvested,
		FinalValue:       r.FinalValue,
		TotalReturn:      r.Metrics.TotalReturn,
		AnnualizedReturn: r.Metrics.AnnualizedReturn,
		MaxDrawdown:      r.Metrics.MaxDrawdown,
		SharpeRatio:      r.Metrics.SharpeRatio,
		Volatility:       r.Metrics.Volatility,
		WinRate:          r.Metrics.WinRate,
		Transactions:     len(r.Transactions),
	}
}

// WriteSummary writes a run summary to the given path as YAML.
func WriteSummary(path string, summary *RunSummary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run summary to file: %w", err)
	}

	return nil
}
