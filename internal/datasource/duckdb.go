package datasource

import (
	"database/sql"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

// core columns every data file must carry. Any other column is treated as an
// indicator column and carried into Bar.Indicators under its own name.
var coreColumns = []string{"open", "high", "low", "close", "volume"}

// timeColumns are the accepted names for the bar timestamp column.
var timeColumns = []string{"timestamp", "time"}

// DuckDBSource reads bar series through a DuckDB view over the data file,
// so CSV and Parquet get the same treatment and column discovery is free.
type DuckDBSource struct {
	db         *sql.DB
	logger     *logger.Logger
	sq         squirrel.StatementBuilderType
	timeColumn string
	indicators []string
}

// NewDuckDBSource creates a data source backed by an in-memory DuckDB.
func NewDuckDBSource(logger *logger.Logger) (*DuckDBSource, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to open database", err)
	}

	return &DuckDBSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBSource) Initialize(path string) error {
	d.logger.Debug("Initializing data source", zap.String("path", path))

	var reader string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		reader = "read_csv_auto"
	case ".parquet":
		reader = "read_parquet"
	default:
		return errors.Newf(errors.ErrCodeInvalidParameter, "unsupported data file extension: %s", path)
	}

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS bars;`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// Raw SQL because squirrel has no CREATE VIEW support.
	query := fmt.Sprintf(`CREATE VIEW bars AS SELECT * FROM %s('%s');`, reader, path)
	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to load data file %s", path)
	}

	return d.discoverColumns()
}

// discoverColumns reads the view's column list, locates the timestamp
// column, checks the OHLCV columns, and records the rest as indicators.
func (d *DuckDBSource) discoverColumns() error {
	rows, err := d.db.Query(`SELECT * FROM bars LIMIT 0`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to inspect columns", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to list columns", err)
	}

	present := make(map[string]bool, len(columns))
	for _, column := range columns {
		present[strings.ToLower(column)] = true
	}

	d.timeColumn = ""

	for _, candidate := range timeColumns {
		if present[candidate] {
			d.timeColumn = candidate
			break
		}
	}

	if d.timeColumn == "" {
		return errors.New(errors.ErrCodeInvalidConfiguration, "data file has no timestamp column")
	}

	for _, required := range coreColumns {
		if !present[required] {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "data file missing column %q", required)
		}
	}

	d.indicators = nil

	for _, column := range columns {
		lower := strings.ToLower(column)
		if lower == d.timeColumn || isCoreColumn(lower) {
			continue
		}

		d.indicators = append(d.indicators, column)
	}

	d.logger.Debug("Discovered columns",
		zap.String("time_column", d.timeColumn),
		zap.Strings("indicator_columns", d.indicators),
	)

	return nil
}

// IndicatorColumns implements DataSource.
func (d *DuckDBSource) IndicatorColumns() []string {
	columns := make([]string, len(d.indicators))
	copy(columns, d.indicators)

	return columns
}

// ReadAll implements DataSource.
func (d *DuckDBSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		query := d.sq.
			Select(d.selectColumns()...).
			From("bars").
			OrderBy(d.timeColumn + " ASC")

		if startTime, err := start.Take(); err == nil {
			query = query.Where(squirrel.GtOrEq{d.timeColumn: startTime})
		}

		if endTime, err := end.Take(); err == nil {
			query = query.Where(squirrel.LtOrEq{d.timeColumn: endTime})
		}

		sqlQuery, args, err := query.ToSql()
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err))
			return
		}

		rows, err := d.db.Query(sqlQuery, args...)
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			bar, err := d.scanBar(rows)
			if err != nil {
				yield(types.Bar{}, err)
				return
			}

			if !yield(bar, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate bars", err))
		}
	}
}

// Count implements DataSource.
func (d *DuckDBSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query := d.sq.Select("COUNT(*)").From("bars")

	if startTime, err := start.Take(); err == nil {
		query = query.Where(squirrel.GtOrEq{d.timeColumn: startTime})
	}

	if endTime, err := end.Take(); err == nil {
		query = query.Where(squirrel.LtOrEq{d.timeColumn: endTime})
	}

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(sqlQuery, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// Close implements DataSource.
func (d *DuckDBSource) Close() error {
	return d.db.Close()
}

func (d *DuckDBSource) selectColumns() []string {
	columns := make([]string, 0, 6+len(d.indicators))
	columns = append(columns, d.timeColumn)
	columns = append(columns, coreColumns...)
	columns = append(columns, d.indicators...)

	return columns
}

func (d *DuckDBSource) scanBar(rows *sql.Rows) (types.Bar, error) {
	var (
		timestamp time.Time
		ohlcv     [5]float64
	)

	dest := make([]any, 0, 6+len(d.indicators))
	dest = append(dest, &timestamp)

	for i := range ohlcv {
		dest = append(dest, &ohlcv[i])
	}

	indicatorValues := make([]sql.NullFloat64, len(d.indicators))
	for i := range indicatorValues {
		dest = append(dest, &indicatorValues[i])
	}

	if err := rows.Scan(dest...); err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
	}

	bar := types.Bar{
		Time:   timestamp.UTC(),
		Open:   ohlcv[0],
		High:   ohlcv[1],
		Low:    ohlcv[2],
		Close:  ohlcv[3],
		Volume: ohlcv[4],
	}

	for i, column := range d.indicators {
		if indicatorValues[i].Valid {
			bar.SetIndicator(column, indicatorValues[i].Float64)
		} else {
			bar.SetIndicator(column, math.NaN())
		}
	}

	return bar, nil
}

func isCoreColumn(column string) bool {
	for _, core := range coreColumns {
		if column == core {
			return true
		}
	}

	return false
}
