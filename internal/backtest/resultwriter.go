package backtest

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

// ResultWriter persists a finished run to disk: the trade ledger and equity
// curve as Parquet files plus the report as YAML. The rows are staged in an
// in-memory DuckDB so the Parquet export is a plain COPY.
type ResultWriter struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewResultWriter creates a result writer backed by an in-memory DuckDB.
func NewResultWriter(logger *logger.Logger) (*ResultWriter, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultWriteError, "failed to open result database", err)
	}

	return &ResultWriter{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the staging tables.
func (w *ResultWriter) Initialize() error {
	_, err := w.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			trade_id TEXT PRIMARY KEY,
			strategy_name TEXT,
			side TEXT,
			size DOUBLE,
			entry_time TIMESTAMP,
			entry_price DOUBLE,
			exit_time TIMESTAMP,
			exit_price DOUBLE,
			pnl DOUBLE,
			pnl_percent DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteError, "failed to create trades table", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS equity (
			timestamp TIMESTAMP,
			equity DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteError, "failed to create equity table", err)
	}

	return nil
}

// Stage loads the trade ledger and equity curve of a finished run into the
// staging tables.
func (w *ResultWriter) Stage(report types.Report, trades []types.Trade, equity []float64, equityTimes []time.Time) error {
	for _, trade := range trades {
		var exitTime, exitPrice any
		if t, err := trade.ExitTime.Take(); err == nil {
			exitTime = t
		}

		if p, err := trade.ExitPrice.Take(); err == nil {
			exitPrice = p
		}

		query := w.sq.Insert("trades").
			Columns("trade_id", "strategy_name", "side", "size", "entry_time", "entry_price",
				"exit_time", "exit_price", "pnl", "pnl_percent").
			Values(trade.ID, report.StrategyName, string(trade.Side), trade.Size,
				trade.EntryTime, trade.EntryPrice, exitTime, exitPrice,
				trade.PnL(), trade.PnLPercent())

		sqlQuery, args, err := query.ToSql()
		if err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteError, "failed to build trade insert", err)
		}

		if _, err := w.db.Exec(sqlQuery, args...); err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteError, "failed to insert trade", err)
		}
	}

	for i, value := range equity {
		query := w.sq.Insert("equity").
			Columns("timestamp", "equity").
			Values(equityTimes[i], value)

		sqlQuery, args, err := query.ToSql()
		if err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteError, "failed to build equity insert", err)
		}

		if _, err := w.db.Exec(sqlQuery, args...); err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteError, "failed to insert equity sample", err)
		}
	}

	return nil
}

// Write exports the staged rows to Parquet files and the report to YAML in
// the given directory, creating it if needed.
func (w *ResultWriter) Write(dir string, report types.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteError, "failed to create results directory", err)
	}

	// Raw SQL because squirrel has no COPY support.
	tradesPath := filepath.Join(dir, "trades.parquet")
	if _, err := w.db.Exec(fmt.Sprintf(`COPY trades TO '%s' (FORMAT PARQUET)`, tradesPath)); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteError, "failed to export trades to Parquet", err)
	}

	equityPath := filepath.Join(dir, "equity.parquet")
	if _, err := w.db.Exec(fmt.Sprintf(`COPY equity TO '%s' (FORMAT PARQUET)`, equityPath)); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteError, "failed to export equity curve to Parquet", err)
	}

	reportPath := filepath.Join(dir, "report.yaml")
	if err := types.WriteReport(reportPath, report); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteError, "failed to write report", err)
	}

	w.logger.Info("Wrote backtest results",
		zap.String("trades", tradesPath),
		zap.String("equity", equityPath),
		zap.String("report", reportPath),
	)

	return nil
}

// Close releases the staging database.
func (w *ResultWriter) Close() error {
	return w.db.Close()
}
