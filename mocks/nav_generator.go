package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fundquant/fund-backtest/internal/types"
)

// NavGenerator generates realistic fund NAV history for testing and
// benchmarking.
type NavGenerator struct {
	rng *rand.Rand
}

// NewNavGenerator creates a new NavGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewNavGenerator(seed int64) *NavGenerator {
	return &NavGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NavGeneratorConfig configures how NAV history is generated.
type NavGeneratorConfig struct {
	// FundCode identifies the fund (e.g. "000001").
	FundCode string
	// StartDate is the first trading date of the series.
	StartDate time.Time
	// Count is the number of trading days to generate.
	Count int
	// InitialNav is the starting unit NAV.
	InitialNav float64
	// Volatility controls daily NAV movement (0.01 = 1% typical daily move).
	Volatility float64
	// Trend is the total drift across the series (-0.5 to 0.5).
	Trend float64
}

// DefaultNavConfig returns a sensible default configuration.
func DefaultNavConfig() NavGeneratorConfig {
	return NavGeneratorConfig{
		FundCode:   "000001",
		StartDate:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Count:      252,
		InitialNav: 1.0,
		Volatility: 0.008,
		Trend:      0.05,
	}
}

// Generate creates a NAV series following geometric Brownian motion,
// stepping over weekends so dates look like a real trading calendar.
func (g *NavGenerator) Generate(config NavGeneratorConfig) []types.NavPoint {
	points := make([]types.NavPoint, 0, config.Count)
	nav := config.InitialNav
	accumulated := config.InitialNav
	date := nextWeekday(config.StartDate)

	for i := 0; i < config.Count; i++ {
		prev := nav

		// Box-Muller transform for a normal daily shock.
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count)
		change := config.Volatility*z + drift

		nav *= 1 + change
		if nav <= 0 {
			nav = prev * 0.99
		}

		accumulated += nav - prev

		changeRate := 0.0
		if prev != 0 {
			changeRate = nav/prev - 1
		}

		points = append(points, types.NavPoint{
			FundCode:        config.FundCode,
			TradingDate:     types.DateKey(date),
			UnitNav:         decimal.NewFromFloat(nav).Round(4),
			AccumulatedNav:  decimal.NewFromFloat(accumulated).Round(4),
			DailyChangeRate: decimal.NewFromFloat(changeRate).Round(6),
		})

		date = nextWeekday(date.AddDate(0, 0, 1))
	}

	return points
}

// GenerateMultiFund generates history for multiple funds, varying the
// starting NAV and volatility per fund.
func (g *NavGenerator) GenerateMultiFund(fundCodes []string, baseConfig NavGeneratorConfig) []types.NavPoint {
	var all []types.NavPoint

	for _, code := range fundCodes {
		config := baseConfig
		config.FundCode = code
		config.InitialNav = baseConfig.InitialNav * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		all = append(all, g.Generate(config)...)
	}

	return all
}

// FromPrices builds a NAV series from explicit prices on consecutive
// weekdays, for tests that need an exact path.
func FromPrices(fundCode string, start time.Time, prices []float64) []types.NavPoint {
	points := make([]types.NavPoint, 0, len(prices))
	date := nextWeekday(start)

	for i, p := range prices {
		changeRate := 0.0
		if i > 0 && prices[i-1] != 0 {
			changeRate = p/prices[i-1] - 1
		}

		points = append(points, types.NavPoint{
			FundCode:        fundCode,
			TradingDate:     types.DateKey(date),
			UnitNav:         decimal.NewFromFloat(p),
			AccumulatedNav:  decimal.NewFromFloat(p),
			DailyChangeRate: decimal.NewFromFloat(changeRate).Round(6),
		})

		date = nextWeekday(date.AddDate(0, 0, 1))
	}

	return points
}

// GenerateYear is a convenience function producing one year of history with
// a fixed seed for reproducibility.
func GenerateYear(fundCode string) []types.NavPoint {
	gen := NewNavGenerator(42)
	config := DefaultNavConfig()
	config.FundCode = fundCode

	return gen.Generate(config)
}

func nextWeekday(t time.Time) time.Time {
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, 1)
	}

	return t
}
