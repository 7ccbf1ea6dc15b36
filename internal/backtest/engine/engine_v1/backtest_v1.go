package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/fundquant/fund-backtest/internal/backtest/engine"
	"github.com/fundquant/fund-backtest/internal/backtest/engine/engine_v1/navsource"
	"github.com/fundquant/fund-backtest/internal/logger"
	"github.com/fundquant/fund-backtest/internal/performance"
	"github.com/fundquant/fund-backtest/internal/report"
	"github.com/fundquant/fund-backtest/internal/strategy"
	"github.com/fundquant/fund-backtest/internal/types"
	"github.com/fundquant/fund-backtest/pkg/errors"
)

// BacktestEngineV1 replays fund NAV history against registered strategies.
// A single instance can serve many runs; per-run state never outlives
// RunBacktest.
type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	log           *logger.Logger
	navSource     navsource.NavSource
	registry      strategy.Registry
	resultStore   *ResultStore
	resultsFolder string
	stats         *statsTracker
	initialized   bool
}

// NewBacktestEngineV1 creates an uninitialized engine.
func NewBacktestEngineV1() engine.Engine {
	return &BacktestEngineV1{
		config: EmptyConfig(),
		stats:  newStatsTracker(),
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	if err := yaml.Unmarshal([]byte(config), &b.config); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse engine configuration", err)
	}

	var loggerError error

	b.log, loggerError = logger.NewLogger()
	if loggerError != nil {
		return loggerError
	}

	b.log.Debug("Backtest engine initialized",
		zap.Float64("risk_free_rate", b.config.RiskFreeRate),
		zap.Bool("persist_results", b.config.PersistResults),
	)

	b.registry = strategy.NewDefaultRegistry(b.log)

	if b.config.PersistResults {
		store, err := NewResultStore(":memory:", b.log)
		if err != nil {
			return err
		}

		if err := store.Initialize(); err != nil {
			return err
		}

		b.resultStore = store
	}

	b.initialized = true

	return nil
}

// SetNavSource implements engine.Engine.
func (b *BacktestEngineV1) SetNavSource(source navsource.NavSource) error {
	b.navSource = source

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder

	if b.log != nil {
		b.log.Debug("Results folder set",
			zap.String("folder", folder),
		)
	}

	return nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	var config BacktestConfig

	return config.GenerateSchemaJSON()
}

// Stats implements engine.Engine.
func (b *BacktestEngineV1) Stats() types.EngineStats {
	return b.stats.Snapshot()
}

// Close implements engine.Engine.
func (b *BacktestEngineV1) Close() error {
	if b.resultStore != nil {
		if err := b.resultStore.Close(); err != nil {
			return err
		}

		b.resultStore = nil
	}

	return nil
}

// ResultStore exposes the engine's result store, or nil when persistence is
// disabled.
func (b *BacktestEngineV1) ResultStore() *ResultStore {
	return b.resultStore
}

// RunBacktest implements engine.Engine. A failed run is reported through the
// returned summary; the error return is reserved for engine misuse.
func (b *BacktestEngineV1) RunBacktest(ctx context.Context, config string, callbacks engine.LifecycleCallbacks) (*types.RunSummary, error) {
	if !b.initialized {
		return nil, errors.New(errors.ErrCodeEngineNotInitialized, "engine must be initialized before running")
	}

	if b.navSource == nil {
		return nil, errors.New(errors.ErrCodeNavSourceUnavailable, "no NAV source configured")
	}

	started := time.Now()
	runID := uuid.New().String()

	var runConfig BacktestConfig

	summary := func(result *types.BacktestResult, runErr error) *types.RunSummary {
		duration := time.Since(started)

		s := &types.RunSummary{
			StrategyType: runConfig.StrategyType,
			Duration:     duration,
		}
		if runErr != nil {
			s.Success = false
			s.Error = runErr.Error()

			b.stats.RecordFailure(duration)
			b.log.Warn("backtest run failed",
				zap.String("run_id", runID),
				zap.Error(runErr),
			)
		} else {
			s.Success = true
			s.ResultID = result.ID
			s.Summary = result.Totals()

			b.stats.RecordSuccess(duration)
			b.log.Info("backtest run complete",
				zap.String("run_id", runID),
				zap.Duration("duration", duration),
			)
		}

		if callbacks.OnRunEnd != nil {
			(*callbacks.OnRunEnd)(runID, s)
		}

		return s
	}

	if err := yaml.Unmarshal([]byte(config), &runConfig); err != nil {
		return summary(nil, err), nil
	}

	if err := runConfig.Validate(); err != nil {
		return summary(nil, err), nil
	}

	result, err := b.run(ctx, runID, &runConfig, callbacks)

	return summary(result, err), nil
}

func (b *BacktestEngineV1) run(ctx context.Context, runID string, cfg *BacktestConfig, callbacks engine.LifecycleCallbacks) (*types.BacktestResult, error) {
	points, err := b.navSource.Query(cfg.FundCodes, cfg.StartDate, cfg.EndDate)
	if err != nil {
		return nil, err
	}

	if len(points) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoNavData, "no NAV data for funds %v between %s and %s",
			cfg.FundCodes, cfg.StartDate.Format(DateLayout), cfg.EndDate.Format(DateLayout))
	}

	series, excluded := types.NewNavSeries(points, cfg.FundCodes, cfg.StartDate, cfg.EndDate)
	if len(series.Funds()) == 0 {
		return nil, errors.Newf(errors.ErrCodeAllFundsExcluded, "all %d funds excluded for lack of NAV history", len(cfg.FundCodes))
	}

	if len(excluded) > 0 {
		b.log.Warn("funds excluded for lack of NAV history",
			zap.Strings("funds", excluded),
		)
	}

	candidates := GenerateSchedule(cfg.StartDate, cfg.EndDate, cfg.Frequency)

	schedule := SnapToTradingDays(candidates, series)
	if len(schedule) == 0 {
		return nil, errors.New(errors.ErrCodeNoNavData, "no investable dates in the requested range")
	}

	strat, err := b.registry.Get(cfg.StrategyType)
	if err != nil {
		return nil, err
	}

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, cfg.StrategyType, series.Len()); err != nil {
			return nil, errors.Wrap(errors.ErrCodeSimulationAborted, "run aborted by callback", err)
		}
	}

	input := strategy.RunInput{
		InitialAmount: decimal.NewFromFloat(cfg.InitialAmount),
		FundCodes:     series.Funds(),
		Params:        cfg.StrategyParams,
	}
	if callbacks.OnProcessData != nil {
		onProcess := *callbacks.OnProcessData
		input.OnDay = func(current, total int) error {
			return onProcess(current, total)
		}
	}

	transactions, values, err := strat.Execute(ctx, input, series, schedule)
	if err != nil {
		return nil, err
	}

	metrics := performance.Calculate(values, b.benchmarkSeries(series), b.config.RiskFreeRate)

	result := &types.BacktestResult{
		ID:            runID,
		StrategyType:  cfg.StrategyType,
		CreatedAt:     time.Now(),
		TotalInvested: investedTotal(transactions),
		FinalValue:    finalValue(values),
		ExcludedFunds: excluded,
		Metrics:       metrics,
		Transactions:  transactions,
		Values:        values,
	}

	if b.resultStore != nil {
		if err := b.resultStore.SaveResult(result); err != nil {
			return nil, err
		}
	}

	if b.resultsFolder != "" {
		if err := b.writeArtifacts(result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// benchmarkSeries resolves the configured benchmark fund against the loaded
// NAV series. A benchmark fund missing from the series is ignored.
func (b *BacktestEngineV1) benchmarkSeries(series *types.NavSeries) optional.Option[types.ValueSeries] {
	if b.config.BenchmarkFund.IsNone() {
		return optional.None[types.ValueSeries]()
	}

	fund := b.config.BenchmarkFund.Unwrap()

	column, ok := series.Column(fund)
	if !ok {
		b.log.Warn("benchmark fund not in NAV series, skipping benchmark metrics",
			zap.String("fund", fund),
		)

		return optional.None[types.ValueSeries]()
	}

	return optional.Some(column)
}

func (b *BacktestEngineV1) writeArtifacts(result *types.BacktestResult) error {
	folder := filepath.Join(b.resultsFolder, fmt.Sprintf("%s_%s", result.StrategyType, result.ID))
	if err := os.MkdirAll(folder, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to create run folder", err)
	}

	if err := report.Write(filepath.Join(folder, "report.txt"), result); err != nil {
		return err
	}

	if b.resultStore != nil {
		if err := b.resultStore.Write(result.ID, folder); err != nil {
			return err
		}
	}

	return nil
}

func investedTotal(transactions []types.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range transactions {
		if t.Action == types.ActionBuy {
			total = total.Add(t.Amount)
		}
	}

	return total
}

func finalValue(values types.ValueSeries) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}

	return values[len(values)-1].Value
}
