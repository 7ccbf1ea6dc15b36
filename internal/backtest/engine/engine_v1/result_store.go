package engine

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fundquant/fund-backtest/internal/logger"
	"github.com/fundquant/fund-backtest/internal/types"
	"github.com/fundquant/fund-backtest/pkg/errors"
)

// ResultStore persists completed backtest runs in DuckDB so they can be
// listed, reloaded and exported after the engine instance is gone.
type ResultStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewResultStore opens a DuckDB-backed result store at the given path. Use
// ":memory:" for a store scoped to the process lifetime.
func NewResultStore(path string, logger *logger.Logger) (*ResultStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to open result store", err)
	}

	return &ResultStore{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the tables for results, transactions and daily values.
func (r *ResultStore) Initialize() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS backtest_results (
			result_id TEXT PRIMARY KEY,
			strategy_type TEXT,
			created_at TIMESTAMP,
			total_invested DOUBLE,
			final_value DOUBLE,
			excluded_funds TEXT,
			metrics TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to create results table", err)
	}

	_, err = r.db.Exec(`
		CREATE TABLE IF NOT EXISTS backtest_transactions (
			result_id TEXT,
			trade_date TIMESTAMP,
			fund_code TEXT,
			action TEXT,
			amount DOUBLE,
			fee DOUBLE,
			shares DOUBLE,
			nav_price DOUBLE,
			value DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to create transactions table", err)
	}

	_, err = r.db.Exec(`
		CREATE TABLE IF NOT EXISTS portfolio_values (
			result_id TEXT,
			trade_date TIMESTAMP,
			total_value DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to create values table", err)
	}

	return nil
}

// SaveResult writes a completed run into the store in a single transaction.
func (r *ResultStore) SaveResult(result *types.BacktestResult) error {
	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to begin transaction", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	metricsJSON, err := json.Marshal(result.Metrics)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to encode metrics", err)
	}

	excludedJSON, err := json.Marshal(result.ExcludedFunds)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to encode excluded funds", err)
	}

	sqlStr, args, err := r.sq.
		Insert("backtest_results").
		Columns("result_id", "strategy_type", "created_at", "total_invested", "final_value", "excluded_funds", "metrics").
		Values(result.ID, string(result.StrategyType), result.CreatedAt,
			result.TotalInvested.InexactFloat64(), result.FinalValue.InexactFloat64(),
			string(excludedJSON), string(metricsJSON)).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to build result insert", err)
	}

	if _, err := tx.Exec(sqlStr, args...); err != nil {
		return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to insert result", err)
	}

	for _, t := range result.Transactions {
		sqlStr, args, err := r.sq.
			Insert("backtest_transactions").
			Columns("result_id", "trade_date", "fund_code", "action", "amount", "fee", "shares", "nav_price", "value").
			Values(result.ID, t.Date, t.FundCode, string(t.Action),
				t.Amount.InexactFloat64(), t.Fee.InexactFloat64(), t.Shares.InexactFloat64(),
				t.NavPrice.InexactFloat64(), t.Value.InexactFloat64()).
			ToSql()
		if err != nil {
			return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to build transaction insert", err)
		}

		if _, err := tx.Exec(sqlStr, args...); err != nil {
			return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to insert transaction", err)
		}
	}

	for _, v := range result.Values {
		sqlStr, args, err := r.sq.
			Insert("portfolio_values").
			Columns("result_id", "trade_date", "total_value").
			Values(result.ID, v.Date, v.Value.InexactFloat64()).
			ToSql()
		if err != nil {
			return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to build value insert", err)
		}

		if _, err := tx.Exec(sqlStr, args...); err != nil {
			return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to insert portfolio value", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to commit result", err)
	}

	r.logger.Debug("result saved",
		zap.String("result_id", result.ID),
		zap.Int("transactions", len(result.Transactions)),
		zap.Int("values", len(result.Values)),
	)

	return nil
}

// GetResult loads a run by ID, including its transactions and daily values.
func (r *ResultStore) GetResult(resultID string) (*types.BacktestResult, error) {
	sqlStr, args, err := r.sq.
		Select("result_id", "strategy_type", "created_at", "total_invested", "final_value", "excluded_funds", "metrics").
		From("backtest_results").
		Where(squirrel.Eq{"result_id": resultID}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to build result query", err)
	}

	var (
		result        types.BacktestResult
		strategyType  string
		totalInvested float64
		finalValue    float64
		excludedJSON  string
		metricsJSON   string
	)

	err = r.db.QueryRow(sqlStr, args...).Scan(&result.ID, &strategyType, &result.CreatedAt,
		&totalInvested, &finalValue, &excludedJSON, &metricsJSON)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeResultStoreFailed, err, "result %s not found", resultID)
	}

	result.StrategyType = types.StrategyType(strategyType)
	result.TotalInvested = decimal.NewFromFloat(totalInvested)
	result.FinalValue = decimal.NewFromFloat(finalValue)

	if err := json.Unmarshal([]byte(excludedJSON), &result.ExcludedFunds); err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to decode excluded funds", err)
	}

	if err := json.Unmarshal([]byte(metricsJSON), &result.Metrics); err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to decode metrics", err)
	}

	result.Transactions, err = r.loadTransactions(resultID)
	if err != nil {
		return nil, err
	}

	result.Values, err = r.loadValues(resultID)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *ResultStore) loadTransactions(resultID string) ([]types.Transaction, error) {
	sqlStr, args, err := r.sq.
		Select("trade_date", "fund_code", "action", "amount", "fee", "shares", "nav_price", "value").
		From("backtest_transactions").
		Where(squirrel.Eq{"result_id": resultID}).
		OrderBy("trade_date ASC", "fund_code ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to build transactions query", err)
	}

	rows, err := r.db.Query(sqlStr, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to query transactions", err)
	}
	defer rows.Close()

	var transactions []types.Transaction

	for rows.Next() {
		var (
			t      types.Transaction
			action string
			amount, fee, shares, navPrice, value float64
		)

		if err := rows.Scan(&t.Date, &t.FundCode, &action, &amount, &fee, &shares, &navPrice, &value); err != nil {
			return nil, errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to scan transaction", err)
		}

		t.Action = types.TradeAction(action)
		t.Amount = decimal.NewFromFloat(amount)
		t.Fee = decimal.NewFromFloat(fee)
		t.Shares = decimal.NewFromFloat(shares)
		t.NavPrice = decimal.NewFromFloat(navPrice)
		t.Value = decimal.NewFromFloat(value)

		transactions = append(transactions, t)
	}

	return transactions, rows.Err()
}

func (r *ResultStore) loadValues(resultID string) (types.ValueSeries, error) {
	sqlStr, args, err := r.sq.
		Select("trade_date", "total_value").
		From("portfolio_values").
		Where(squirrel.Eq{"result_id": resultID}).
		OrderBy("trade_date ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to build values query", err)
	}

	rows, err := r.db.Query(sqlStr, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to query values", err)
	}
	defer rows.Close()

	var values types.ValueSeries

	for rows.Next() {
		var (
			date  time.Time
			value float64
		)

		if err := rows.Scan(&date, &value); err != nil {
			return nil, errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to scan value", err)
		}

		values = append(values, types.ValuePoint{Date: date, Value: decimal.NewFromFloat(value)})
	}

	return values, rows.Err()
}

// StoredRun is one row of the result listing.
type StoredRun struct {
	ResultID      string
	StrategyType  types.StrategyType
	CreatedAt     time.Time
	TotalInvested decimal.Decimal
	FinalValue    decimal.Decimal
}

// ListResults returns the stored runs, newest first.
func (r *ResultStore) ListResults() ([]StoredRun, error) {
	sqlStr, args, err := r.sq.
		Select("result_id", "strategy_type", "created_at", "total_invested", "final_value").
		From("backtest_results").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to build list query", err)
	}

	rows, err := r.db.Query(sqlStr, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to list results", err)
	}
	defer rows.Close()

	var runs []StoredRun

	for rows.Next() {
		var (
			run           StoredRun
			strategyType  string
			totalInvested float64
			finalValue    float64
		)

		if err := rows.Scan(&run.ResultID, &strategyType, &run.CreatedAt, &totalInvested, &finalValue); err != nil {
			return nil, errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to scan result row", err)
		}

		run.StrategyType = types.StrategyType(strategyType)
		run.TotalInvested = decimal.NewFromFloat(totalInvested)
		run.FinalValue = decimal.NewFromFloat(finalValue)

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Write exports a run's transactions and daily values to Parquet files in
// the given directory.
func (r *ResultStore) Write(resultID string, path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to create results directory", err)
	}

	// COPY has no placeholder support, so escape the ID inline.
	transactionsPath := filepath.Join(path, "transactions.parquet")

	_, err := r.db.Exec(fmt.Sprintf(
		`COPY (SELECT * FROM backtest_transactions WHERE result_id = '%s') TO '%s' (FORMAT PARQUET)`,
		resultID, transactionsPath))
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to export transactions", err)
	}

	valuesPath := filepath.Join(path, "portfolio_values.parquet")

	_, err = r.db.Exec(fmt.Sprintf(
		`COPY (SELECT * FROM portfolio_values WHERE result_id = '%s') TO '%s' (FORMAT PARQUET)`,
		resultID, valuesPath))
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to export portfolio values", err)
	}

	r.logger.Info("exported backtest results",
		zap.String("transactions", transactionsPath),
		zap.String("values", valuesPath),
	)

	return nil
}

// Cleanup drops and recreates the store's tables.
func (r *ResultStore) Cleanup() error {
	_, err := r.db.Exec(`
		DROP TABLE IF EXISTS portfolio_values;
		DROP TABLE IF EXISTS backtest_transactions;
		DROP TABLE IF EXISTS backtest_results;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultStoreFailed, "failed to drop tables", err)
	}

	return r.Initialize()
}

// Close closes the underlying database.
func (r *ResultStore) Close() error {
	return r.db.Close()
}
