// Package indicator computes technical indicator columns over a bar series.
// Values are written onto each bar under the column naming convention from
// the types package (e.g. "RSI_14"). Warm-up positions where the indicator
// is not yet defined are filled with NaN so downstream consumers can tell
// "not available" apart from a real zero.
package indicator

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Indicator computes one or more columns over a bar series in place.
type Indicator interface {
	// Name returns the name of the indicator.
	Name() types.IndicatorType
	// Columns returns the column names this indicator writes.
	Columns() []string
	// Apply computes the indicator over the series and stores the values
	// on each bar.
	Apply(bars []types.Bar) error
}

// AddAll applies the default indicator set to the series: RSI 14/20,
// SMA 20/50/200, EMA 7/25/99, MACD 12/26/9, Bollinger Bands 20/2 and ATR 14.
// Returns the column names that were written, in column order.
func AddAll(bars []types.Bar) ([]string, error) {
	indicators := []Indicator{
		NewRSI(14),
		NewRSI(20),
		NewSMA(20),
		NewSMA(50),
		NewSMA(200),
		NewEMA(7),
		NewEMA(25),
		NewEMA(99),
		NewMACD(12, 26, 9),
		NewBollingerBands(20, 2.0),
		NewATR(14),
	}

	var columns []string

	for _, ind := range indicators {
		if err := ind.Apply(bars); err != nil {
			return nil, err
		}

		columns = append(columns, ind.Columns()...)
	}

	return columns, nil
}

// closes extracts the close price series.
func closes(bars []types.Bar) []float64 {
	prices := make([]float64, len(bars))
	for i := range bars {
		prices[i] = bars[i].Close
	}

	return prices
}
