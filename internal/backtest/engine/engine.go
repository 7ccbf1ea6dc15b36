package engine

import (
	"context"

	"github.com/fundquant/fund-backtest/internal/backtest/engine/engine_v1/navsource"
	"github.com/fundquant/fund-backtest/internal/types"
)

// Lifecycle callback types for backtest phases.
// Callbacks with an error return can abort execution by returning an error.

// OnRunStartCallback is called when a backtest run begins.
// runID is a unique identifier for the run, generated before processing starts.
type OnRunStartCallback func(runID string, strategyType types.StrategyType, totalDays int) error

// OnProcessDataCallback is called for each trading day processed.
type OnProcessDataCallback func(current int, total int) error

// OnRunEndCallback is called when a backtest run ends (always called, success or failure).
type OnRunEndCallback func(runID string, summary *types.RunSummary)

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart    *OnRunStartCallback
	OnProcessData *OnProcessDataCallback
	OnRunEnd      *OnRunEndCallback
}

// Engine replays historical fund NAV series against an investment strategy.
type Engine interface {
	// Initialize the engine with the given configuration content (YAML).
	Initialize(config string) error
	// SetNavSource sets the NAV data source for the engine.
	SetNavSource(source navsource.NavSource) error
	// SetResultsFolder sets the output directory for saving backtest results.
	// Each run writes into <folder>/<strategy_type>_<run_id>/.
	SetResultsFolder(folder string) error
	// RunBacktest validates the run configuration (YAML), simulates the
	// strategy over the configured date range and returns a summary. A run
	// that fails validation or simulation returns a summary with
	// Success=false and a populated Error rather than a Go error; the error
	// return is reserved for engine misuse such as running before
	// Initialize.
	RunBacktest(ctx context.Context, config string, callbacks LifecycleCallbacks) (*types.RunSummary, error)
	// GetConfigSchema returns the JSON schema of the run configuration.
	GetConfigSchema() (string, error)
	// Stats returns counters accumulated across runs on this engine instance.
	Stats() types.EngineStats
	// Close releases the engine's resources, including any open result store.
	Close() error
}
