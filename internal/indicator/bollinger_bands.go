package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// BollingerBands computes the middle band (SMA), and upper/lower bands at a
// configurable number of standard deviations around it.
type BollingerBands struct {
	period int
	stdDev float64
}

// NewBollingerBands creates a Bollinger Bands indicator.
func NewBollingerBands(period int, stdDev float64) *BollingerBands {
	return &BollingerBands{period: period, stdDev: stdDev}
}

// Name returns the name of the indicator.
func (b *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Columns returns the column names this indicator writes.
func (b *BollingerBands) Columns() []string {
	return []string{types.ColumnBBUpper, types.ColumnBBMiddle, types.ColumnBBLower}
}

// Apply computes the bands. Bars before the first full window are NaN. The
// standard deviation is the sample standard deviation over the window.
func (b *BollingerBands) Apply(bars []types.Bar) error {
	if b.period <= 1 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "Bollinger Bands period must be greater than 1, got %d", b.period)
	}

	if b.stdDev <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "Bollinger Bands std dev multiplier must be positive, got %f", b.stdDev)
	}

	prices := closes(bars)

	for i := range bars {
		if i < b.period-1 {
			bars[i].SetIndicator(types.ColumnBBUpper, math.NaN())
			bars[i].SetIndicator(types.ColumnBBMiddle, math.NaN())
			bars[i].SetIndicator(types.ColumnBBLower, math.NaN())

			continue
		}

		window := prices[i-b.period+1 : i+1]

		var sum float64
		for _, p := range window {
			sum += p
		}

		mean := sum / float64(b.period)

		var sqSum float64
		for _, p := range window {
			sqSum += (p - mean) * (p - mean)
		}

		std := math.Sqrt(sqSum / float64(b.period-1))

		bars[i].SetIndicator(types.ColumnBBMiddle, mean)
		bars[i].SetIndicator(types.ColumnBBUpper, mean+std*b.stdDev)
		bars[i].SetIndicator(types.ColumnBBLower, mean-std*b.stdDev)
	}

	return nil
}
