// Package report renders a completed backtest run as a human-readable text
// summary.
package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/fundquant/fund-backtest/internal/types"
)

const divider = "============================================================"

// Render formats the run result as a plain-text report.
func Render(result *types.BacktestResult) string {
	var sb strings.Builder

	m := result.Metrics

	sb.WriteString(divider + "\n")
	sb.WriteString("BACKTEST REPORT\n")
	sb.WriteString(divider + "\n\n")

	fmt.Fprintf(&sb, "Run ID:            %s\n", result.ID)
	fmt.Fprintf(&sb, "Strategy:          %s\n", result.StrategyType)
	fmt.Fprintf(&sb, "Period:            %s to %s (%d trading days)\n", m.StartDate, m.EndDate, m.TradingDays)

	if len(result.ExcludedFunds) > 0 {
		fmt.Fprintf(&sb, "Excluded funds:    %s\n", strings.Join(result.ExcludedFunds, ", "))
	}

	sb.WriteString("\n--- Capital ---\n")
	fmt.Fprintf(&sb, "Total invested:    %s\n", result.TotalInvested.StringFixed(2))
	fmt.Fprintf(&sb, "Final value:       %s\n", result.FinalValue.StringFixed(2))
	fmt.Fprintf(&sb, "Transactions:      %d\n", len(result.Transactions))

	if m.InsufficientData {
		sb.WriteString("\nInsufficient data for performance statistics.\n")
		sb.WriteString(divider + "\n")

		return sb.String()
	}

	sb.WriteString("\n--- Returns ---\n")
	fmt.Fprintf(&sb, "Total return:      %8.2f%%\n", m.TotalReturn*100)
	fmt.Fprintf(&sb, "Annualized return: %8.2f%%\n", m.AnnualizedReturn*100)
	fmt.Fprintf(&sb, "Best day:          %8.2f%%\n", m.BestDay*100)
	fmt.Fprintf(&sb, "Worst day:         %8.2f%%\n", m.WorstDay*100)
	fmt.Fprintf(&sb, "Win rate:          %8.2f%%\n", m.WinRate*100)

	sb.WriteString("\n--- Risk ---\n")
	fmt.Fprintf(&sb, "Volatility:        %8.2f%%\n", m.Volatility*100)
	fmt.Fprintf(&sb, "Max drawdown:      %8.2f%%\n", m.MaxDrawdown*100)
	fmt.Fprintf(&sb, "VaR (95%%):         %8.2f%%\n", m.VaR95*100)
	fmt.Fprintf(&sb, "CVaR (95%%):        %8.2f%%\n", m.CVaR95*100)

	sb.WriteString("\n--- Ratios ---\n")
	fmt.Fprintf(&sb, "Sharpe:            %8.3f\n", m.SharpeRatio)
	fmt.Fprintf(&sb, "Sortino:           %8.3f\n", m.SortinoRatio)
	fmt.Fprintf(&sb, "Calmar:            %8.3f\n", m.CalmarRatio)

	if m.Beta != 0 || m.Correlation != 0 {
		sb.WriteString("\n--- Benchmark ---\n")
		fmt.Fprintf(&sb, "Benchmark return:  %8.2f%%\n", m.BenchmarkReturn*100)
		fmt.Fprintf(&sb, "Excess return:     %8.2f%%\n", m.ExcessReturn*100)
		fmt.Fprintf(&sb, "Alpha:             %8.3f\n", m.Alpha)
		fmt.Fprintf(&sb, "Beta:              %8.3f\n", m.Beta)
		fmt.Fprintf(&sb, "Correlation:       %8.3f\n", m.Correlation)
		fmt.Fprintf(&sb, "Tracking error:    %8.2f%%\n", m.TrackingError*100)
		fmt.Fprintf(&sb, "Information ratio: %8.3f\n", m.InformationRatio)
	}

	sb.WriteString("\n--- Distribution ---\n")
	fmt.Fprintf(&sb, "Skewness:          %8.3f\n", m.Skewness)
	fmt.Fprintf(&sb, "Excess kurtosis:   %8.3f\n", m.Kurtosis)
	fmt.Fprintf(&sb, "Jarque-Bera:       %8.3f (p=%.4f)\n", m.JarqueBera, m.JarqueBeraPValue)

	normality := "rejected"
	if m.NormalityTest {
		normality = "not rejected"
	}

	fmt.Fprintf(&sb, "Normality:         %s\n", normality)

	sb.WriteString(divider + "\n")

	return sb.String()
}

// Write renders the report and saves it to the given path.
func Write(path string, result *types.BacktestResult) error {
	return os.WriteFile(path, []byte(Render(result)), 0644)
}
