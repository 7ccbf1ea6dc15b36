package navsource

import (
	"sort"
	"time"

	"github.com/fundquant/fund-backtest/internal/types"
	"github.com/fundquant/fund-backtest/pkg/errors"
)

// MemoryNavSource serves NAV points from memory. It exists for tests and for
// callers that already hold the data, such as the mock NAV generator.
type MemoryNavSource struct {
	points []types.NavPoint
}

// NewMemoryNavSource creates an in-memory NAV source over the given points.
func NewMemoryNavSource(points []types.NavPoint) *MemoryNavSource {
	sorted := make([]types.NavPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].TradingDate.Equal(sorted[j].TradingDate) {
			return sorted[i].TradingDate.Before(sorted[j].TradingDate)
		}

		return sorted[i].FundCode < sorted[j].FundCode
	})

	return &MemoryNavSource{points: sorted}
}

// Initialize implements NavSource. The in-memory source carries its data
// from construction, so a path makes no sense here.
func (m *MemoryNavSource) Initialize(path string) error {
	return errors.New(errors.ErrCodeNavSourceUnavailable, "memory NAV source does not load from a path")
}

// Query implements NavSource.
func (m *MemoryNavSource) Query(fundCodes []string, start time.Time, end time.Time) ([]types.NavPoint, error) {
	wanted := make(map[string]bool, len(fundCodes))
	for _, code := range fundCodes {
		wanted[code] = true
	}

	var result []types.NavPoint

	for _, p := range m.points {
		if !wanted[p.FundCode] {
			continue
		}

		if p.TradingDate.Before(types.DateKey(start)) || p.TradingDate.After(types.DateKey(end)) {
			continue
		}

		result = append(result, p)
	}

	return result, nil
}

// Funds implements NavSource.
func (m *MemoryNavSource) Funds() ([]string, error) {
	seen := make(map[string]bool)

	var funds []string

	for _, p := range m.points {
		if !seen[p.FundCode] {
			seen[p.FundCode] = true

			funds = append(funds, p.FundCode)
		}
	}

	sort.Strings(funds)

	return funds, nil
}

// Count implements NavSource.
func (m *MemoryNavSource) Count() (int, error) {
	return len(m.points), nil
}

// Close implements NavSource.
func (m *MemoryNavSource) Close() error {
	return nil
}
