package writer

import (
	"database/sql"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// DuckDBWriter stages bars in an in-memory DuckDB and exports them on
// Finalize. The output format follows the path extension: .csv or .parquet.
type DuckDBWriter struct {
	db               *sql.DB
	tx               *sql.Tx
	stmt             *sql.Stmt
	outputPath       string
	indicatorColumns []string
}

// NewDuckDBWriter creates a writer for the given output path. The indicator
// columns, if any, become extra DOUBLE columns alongside the OHLCV set; a
// NaN value is stored as NULL.
func NewDuckDBWriter(outputPath string, indicatorColumns []string) (BarWriter, error) {
	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".csv", ".parquet":
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported output file extension: %s", outputPath)
	}

	return &DuckDBWriter{
		outputPath:       outputPath,
		indicatorColumns: indicatorColumns,
	}, nil
}

// Initialize implements BarWriter.
func (w *DuckDBWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to open DuckDB connection", err)
	}

	columns := []string{
		"timestamp TIMESTAMP",
		"open DOUBLE",
		"high DOUBLE",
		"low DOUBLE",
		"close DOUBLE",
		"volume DOUBLE",
	}

	for _, column := range w.indicatorColumns {
		columns = append(columns, fmt.Sprintf("%q DOUBLE", column))
	}

	_, err = w.db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS bars (%s)`, strings.Join(columns, ", ")))
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to begin transaction", err)
	}

	placeholders := make([]string, 6+len(w.indicatorColumns))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	w.stmt, err = w.tx.Prepare(fmt.Sprintf(`INSERT INTO bars VALUES (%s)`, strings.Join(placeholders, ", ")))
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to prepare statement", err)
	}

	return nil
}

// Write implements BarWriter.
func (w *DuckDBWriter) Write(bar types.Bar) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeMarketDataWriteFailed, "writer is not initialized")
	}

	args := make([]any, 0, 6+len(w.indicatorColumns))
	args = append(args, bar.Time, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)

	for _, column := range w.indicatorColumns {
		value, ok := bar.Indicators[column]
		if !ok || math.IsNaN(value) {
			args = append(args, nil)
		} else {
			args = append(args, value)
		}
	}

	if _, err := w.stmt.Exec(args...); err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to insert bar", err)
	}

	return nil
}

// Finalize implements BarWriter.
func (w *DuckDBWriter) Finalize() (string, error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer is not initialized")
	}

	if err := w.stmt.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to close statement", err)
	}

	if err := w.tx.Commit(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to commit transaction", err)
	}

	w.tx = nil
	w.stmt = nil

	format := `FORMAT CSV, HEADER`
	if strings.EqualFold(filepath.Ext(w.outputPath), ".parquet") {
		format = `FORMAT PARQUET`
	}

	query := fmt.Sprintf(`COPY (SELECT * FROM bars ORDER BY timestamp) TO '%s' (%s)`, w.outputPath, format)
	if _, err := w.db.Exec(query); err != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to export bars to %s", w.outputPath)
	}

	return w.outputPath, nil
}

// Close implements BarWriter.
func (w *DuckDBWriter) Close() error {
	if w.stmt != nil {
		w.stmt.Close()
	}

	if w.tx != nil {
		w.tx.Rollback()
	}

	if w.db != nil {
		return w.db.Close()
	}

	return nil
}

// GetOutputPath implements BarWriter.
func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}
