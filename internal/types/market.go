package types

import (
	"math"
	"time"
)

// Bar is a single OHLCV candle plus any precomputed indicator columns
// aligned to the same timestamp. Indicator values use the column naming
// convention from the indicator package (e.g. "RSI_14", "EMA_25").
type Bar struct {
	Time   time.Time `csv:"time"`
	Open   float64   `csv:"open"`
	High   float64   `csv:"high"`
	Low    float64   `csv:"low"`
	Close  float64   `csv:"close"`
	Volume float64   `csv:"volume"`

	// Indicators maps column name to value. A missing key or a NaN value
	// both mean "not available yet" (warm-up period).
	Indicators map[string]float64
}

// Indicator returns the value for the given column and whether it is
// available. NaN values are treated as unavailable.
func (b *Bar) Indicator(column string) (float64, bool) {
	value, ok := b.Indicators[column]
	if !ok || math.IsNaN(value) {
		return 0, false
	}

	return value, true
}

// SetIndicator stores an indicator value on the bar, allocating the map on
// first use.
func (b *Bar) SetIndicator(column string, value float64) {
	if b.Indicators == nil {
		b.Indicators = make(map[string]float64)
	}

	b.Indicators[column] = value
}

// HasColumn reports whether any bar in the series carries the column,
// regardless of whether individual values are NaN. Used to distinguish a
// misconfigured backtest (column never computed) from a warm-up gap.
func HasColumn(bars []Bar, column string) bool {
	for i := range bars {
		if _, ok := bars[i].Indicators[column]; ok {
			return true
		}
	}

	return false
}
