package types

// PerformanceMetrics is the flat table of risk/return metrics derived from a
// portfolio value series. Every ratio whose denominator can legitimately be
// zero is 0, never NaN or Inf. Produced once per run, read-only afterwards.
type PerformanceMetrics struct {
	// Return metrics
	TotalReturn      float64 `json:"total_return" yaml:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return" yaml:"annualized_return"`
	CumulativeReturn float64 `json:"cumulative_return" yaml:"cumulative_return"`

	// Risk metrics
	Volatility        float64 `json:"volatility" yaml:"volatility"`
	MaxDrawdown       float64 `json:"max_drawdown" yaml:"max_drawdown"`
	DownsideDeviation float64 `json:"downside_deviation" yaml:"downside_deviation"`
	VaR95             float64 `json:"var_95" yaml:"var_95"`
	CVaR95            float64 `json:"cvar_95" yaml:"cvar_95"`

	// Risk-adjusted return metrics
	SharpeRatio      float64 `json:"sharpe_ratio" yaml:"sharpe_ratio"`
	SortinoRatio     float64 `json:"sortino_ratio" yaml:"sortino_ratio"`
	CalmarRatio      float64 `json:"calmar_ratio" yaml:"calmar_ratio"`
	InformationRatio float64 `json:"information_ratio" yaml:"information_ratio"`

	// Distribution of daily outcomes
	WinRate         float64 `json:"win_rate" yaml:"win_rate"`
	ProfitLossRatio float64 `json:"profit_loss_ratio" yaml:"profit_loss_ratio"`
	BestDay         float64 `json:"best_day" yaml:"best_day"`
	WorstDay        float64 `json:"worst_day" yaml:"worst_day"`
	PositiveDays    int     `json:"positive_days" yaml:"positive_days"`
	NegativeDays    int     `json:"negative_days" yaml:"negative_days"`

	// Benchmark-relative metrics, zero unless a benchmark series was supplied
	// with at least two overlapping dates.
	BenchmarkReturn float64 `json:"benchmark_return" yaml:"benchmark_return"`
	ExcessReturn    float64 `json:"excess_return" yaml:"excess_return"`
	Alpha           float64 `json:"alpha" yaml:"alpha"`
	Beta            float64 `json:"beta" yaml:"beta"`
	TrackingError   float64 `json:"tracking_error" yaml:"tracking_error"`
	Correlation     float64 `json:"correlation" yaml:"correlation"`

	// Distributional diagnostics
	Skewness         float64 `json:"skewness" yaml:"skewness"`
	Kurtosis         float64 `json:"kurtosis" yaml:"kurtosis"`
	JarqueBera       float64 `json:"jarque_bera" yaml:"jarque_bera"`
	JarqueBeraPValue float64 `json:"jarque_bera_pvalue" yaml:"jarque_bera_pvalue"`
	NormalityTest    bool    `json:"normality_test" yaml:"normality_test"`

	// Coverage
	StartDate   string `json:"start_date" yaml:"start_date"`
	EndDate     string `json:"end_date" yaml:"end_date"`
	TotalDays   int    `json:"total_days" yaml:"total_days"`
	TradingDays int    `json:"trading_days" yaml:"trading_days"`

	// InsufficientData is set when fewer than 2 data points were supplied;
	// all numeric fields are zero in that case.
	InsufficientData bool `json:"insufficient_data" yaml:"insufficient_data"`
}
