package navsource

import (
	"time"

	"github.com/fundquant/fund-backtest/internal/types"
)

// NavSource provides historical fund NAV data to the backtest engine.
type NavSource interface {
	// Initialize loads NAV data from the given path. Supports CSV and
	// parquet files; accepts glob patterns for batch loading
	// (e.g. "data/*.parquet").
	Initialize(path string) error
	// Query returns the NAV points for the given funds within [start, end],
	// ordered by trading date ascending. Funds with no rows in the range are
	// simply absent from the result.
	Query(fundCodes []string, start time.Time, end time.Time) ([]types.NavPoint, error)
	// Funds returns the distinct fund codes available in the source.
	Funds() ([]string, error)
	// Count returns the number of NAV rows in the source.
	Count() (int, error)
	// Close releases the underlying resources.
	Close() error
}
