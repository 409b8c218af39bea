package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// DataSource loads a bar series, with its indicator columns, from a data
// file.
type DataSource interface {
	// Initialize points the data source at the given CSV or Parquet file.
	Initialize(path string) error
	// ReadAll yields every bar in timestamp order, optionally bounded to a
	// time range.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool)
	// Count returns the number of bars, optionally bounded to a time range.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// IndicatorColumns returns the non-OHLCV columns discovered in the file.
	IndicatorColumns() []string
	// Close releases the underlying resources.
	Close() error
}

// LoadAll drains a data source into a slice.
func LoadAll(source DataSource, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	var bars []types.Bar

	var iterErr error

	source.ReadAll(start, end)(func(bar types.Bar, err error) bool {
		if err != nil {
			iterErr = err
			return false
		}

		bars = append(bars, bar)

		return true
	})

	if iterErr != nil {
		return nil, iterErr
	}

	return bars, nil
}
