package types

import "time"

// EngineStats are process-wide counters maintained across runs of one engine
// instance. Runs are logically independent, so the snapshot carries no
// per-run state.
type EngineStats struct {
	// TotalRuns counts every completed RunBacktest call, successful or not.
	TotalRuns int `json:"total_runs" yaml:"total_runs"`
	// SuccessfulRuns counts runs that produced a result.
	SuccessfulRuns int `json:"successful_runs" yaml:"successful_runs"`
	// FailedRuns counts runs that ended in a failure summary.
	FailedRuns int `json:"failed_runs" yaml:"failed_runs"`
	// AverageDuration is the rolling mean duration of all completed runs.
	AverageDuration time.Duration `json:"average_duration" yaml:"average_duration"`
	// LastRunTime is when the most recent run finished.
	LastRunTime time.Time `json:"last_run_time" yaml:"last_run_time"`
	// StartTime is when the engine was initialized.
	StartTime time.Time `json:"start_time" yaml:"start_time"`
}
