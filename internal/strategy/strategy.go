package strategy

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fundquant/fund-backtest/internal/logger"
	"github.com/fundquant/fund-backtest/internal/types"
	"github.com/fundquant/fund-backtest/pkg/errors"
)

// RunInput is the per-run data a strategy needs: the cash it starts with, the
// funds it may trade, and its decoded parameter variant. OnDay, when set, is
// invoked after every simulated trading day for progress reporting and may
// abort the run by returning an error.
type RunInput struct {
	InitialAmount decimal.Decimal
	FundCodes     []string
	Params        Params
	OnDay         func(current, total int) error
}

// Strategy decides, for each scheduled investment date, how much cash to
// deploy or withdraw per fund.
//
// Execute walks the NAV series' trading days in ascending order, applies the
// strategy's per-period decision on each date present in the schedule, and
// returns the transaction log together with the portfolio value series. The
// value series has exactly one entry per trading day, computed after any
// same-day transactions settle; transactions are date-sorted and never sell
// more shares than held.
type Strategy interface {
	// Name is the human-readable strategy name.
	Name() string
	// Type is the registry key for this strategy.
	Type() types.StrategyType
	// RequiredParams lists parameters that have no usable zero value and must
	// be present (directly or via defaults) before a run.
	RequiredParams() []string
	// DefaultParams returns this strategy's parameter variant with documented
	// defaults.
	DefaultParams() Params
	// ValidateParams checks a parameter variant for this strategy. Pure; the
	// engine calls it before the simulation starts.
	ValidateParams(params Params) error
	// Execute runs the simulation. The context is checked between trading-day
	// iterations so a run can be cancelled cooperatively.
	Execute(ctx context.Context, input RunInput, series *types.NavSeries, schedule []time.Time) ([]types.Transaction, types.ValueSeries, error)
}

// Registry manages the closed set of available strategies, keyed by type.
type Registry interface {
	Register(strategy Strategy) error
	Get(strategyType types.StrategyType) (Strategy, error)
	List() []types.StrategyType
}

// RegistryV1 is the default Registry implementation.
type RegistryV1 struct {
	strategies map[types.StrategyType]Strategy
	mu         sync.RWMutex
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() Registry {
	return &RegistryV1{
		strategies: make(map[types.StrategyType]Strategy),
		mu:         sync.RWMutex{},
	}
}

// NewDefaultRegistry creates a registry with both built-in strategies
// registered.
func NewDefaultRegistry(log *logger.Logger) Registry {
	registry := NewRegistry()
	// Registration of built-ins cannot collide.
	_ = registry.Register(NewRegularInvestmentStrategy(log))
	_ = registry.Register(NewValueAveragingStrategy(log))

	return registry
}

// Register adds a strategy to the registry.
func (r *RegistryV1) Register(strategy Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strategy.Type()
	if _, exists := r.strategies[key]; exists {
		return errors.Newf(errors.ErrCodeUnknownStrategy, "strategy %s already registered", key)
	}

	r.strategies[key] = strategy

	return nil
}

// Get retrieves a strategy by type.
func (r *RegistryV1) Get(strategyType types.StrategyType) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	strategy, exists := r.strategies[strategyType]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeUnknownStrategy, "unsupported strategy type: %s", strategyType)
	}

	return strategy, nil
}

// List returns the registered strategy types, sorted.
func (r *RegistryV1) List() []types.StrategyType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]types.StrategyType, 0, len(r.strategies))
	for key := range r.strategies {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}

// resolveAllocation turns the configured allocation map into a complete
// weight map over the run's fund codes. An empty map means an equal split.
// Provided weights are never normalized; the second return value reports
// whether the stated weights deviate from summing to 1 by more than 1%.
func resolveAllocation(fundCodes []string, provided map[string]decimal.Decimal) (map[string]decimal.Decimal, bool) {
	allocation := make(map[string]decimal.Decimal, len(fundCodes))

	if len(provided) == 0 {
		weight := decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(len(fundCodes))))
		for _, fund := range fundCodes {
			allocation[fund] = weight
		}

		return allocation, false
	}

	total := decimal.Zero

	for _, fund := range fundCodes {
		weight, ok := provided[fund]
		if !ok {
			weight = decimal.Zero
		}

		allocation[fund] = weight
		total = total.Add(weight)
	}

	deviates := total.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(decimal.NewFromFloat(0.01))

	return allocation, deviates
}

// sortedFunds returns the run's fund codes in a deterministic order.
func sortedFunds(fundCodes []string) []string {
	funds := make([]string, len(fundCodes))
	copy(funds, fundCodes)
	sort.Strings(funds)

	return funds
}
