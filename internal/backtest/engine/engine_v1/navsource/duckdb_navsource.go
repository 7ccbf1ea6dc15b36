package navsource

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fundquant/fund-backtest/internal/logger"
	"github.com/fundquant/fund-backtest/internal/types"
	"github.com/fundquant/fund-backtest/pkg/errors"
)

// DuckDBNavSource reads fund NAV history through DuckDB. Initialize creates
// a view over the source file, so CSV and parquet inputs are queried the
// same way without loading everything into memory up front.
type DuckDBNavSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBNavSource creates a new DuckDB NAV source backed by the database
// at the given path. Use ":memory:" (or an empty path) for an in-process
// database. This is distinct from Initialize() which points the source at a
// NAV data file.
func NewDuckDBNavSource(path string, logger *logger.Logger) (*DuckDBNavSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNavSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBNavSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements NavSource.
func (d *DuckDBNavSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB NAV source", zap.String("path", path))

	_, err := d.db.Exec(`DROP VIEW IF EXISTS nav_data;`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNavSourceUnavailable, "failed to drop existing view", err)
	}

	// Squirrel doesn't support CREATE VIEW, so use raw SQL here.
	reader := "read_csv_auto"
	if strings.HasSuffix(path, ".parquet") {
		reader = "read_parquet"
	}

	query := fmt.Sprintf(`
		CREATE VIEW nav_data AS
		SELECT fund_code, trading_date, unit_nav, accumulated_nav, daily_change_rate
		FROM %s('%s');
	`, reader, path)

	_, err = d.db.Exec(query)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeNavSourceUnavailable, err, "failed to create view over %s", path)
	}

	return nil
}

// Query implements NavSource.
func (d *DuckDBNavSource) Query(fundCodes []string, start time.Time, end time.Time) ([]types.NavPoint, error) {
	query := d.sq.
		Select("fund_code", "trading_date", "unit_nav", "accumulated_nav", "daily_change_rate").
		From("nav_data").
		Where(squirrel.Eq{"fund_code": fundCodes}).
		Where(squirrel.GtOrEq{"trading_date": start}).
		Where(squirrel.LtOrEq{"trading_date": end}).
		OrderBy("trading_date ASC", "fund_code ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build NAV query", err)
	}

	rows, err := d.db.Query(sqlStr, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "NAV query failed", err)
	}
	defer rows.Close()

	var points []types.NavPoint

	for rows.Next() {
		var (
			fundCode    string
			tradingDate time.Time
			unitNav     float64
			accumNav    sql.NullFloat64
			changeRate  sql.NullFloat64
		)

		if err := rows.Scan(&fundCode, &tradingDate, &unitNav, &accumNav, &changeRate); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan NAV row", err)
		}

		point := types.NavPoint{
			FundCode:    fundCode,
			TradingDate: types.DateKey(tradingDate),
			UnitNav:     decimal.NewFromFloat(unitNav),
		}
		if accumNav.Valid {
			point.AccumulatedNav = decimal.NewFromFloat(accumNav.Float64)
		}

		if changeRate.Valid {
			point.DailyChangeRate = decimal.NewFromFloat(changeRate.Float64)
		}

		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "NAV row iteration failed", err)
	}

	d.logger.Debug("NAV query complete",
		zap.Int("funds", len(fundCodes)),
		zap.Int("rows", len(points)),
	)

	return points, nil
}

// Funds implements NavSource.
func (d *DuckDBNavSource) Funds() ([]string, error) {
	sqlStr, args, err := d.sq.
		Select("DISTINCT fund_code").
		From("nav_data").
		OrderBy("fund_code ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build funds query", err)
	}

	rows, err := d.db.Query(sqlStr, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "funds query failed", err)
	}
	defer rows.Close()

	var funds []string

	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan fund code", err)
		}

		funds = append(funds, code)
	}

	return funds, rows.Err()
}

// Count implements NavSource.
func (d *DuckDBNavSource) Count() (int, error) {
	var count int

	err := d.db.QueryRow("SELECT COUNT(*) FROM nav_data").Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "count query failed", err)
	}

	return count, nil
}

// Close implements NavSource.
func (d *DuckDBNavSource) Close() error {
	return d.db.Close()
}
