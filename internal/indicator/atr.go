package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// ATR is the average true range: a rolling mean of the true range, where the
// true range is the largest of high-low, |high - previous close| and
// |low - previous close|.
type ATR struct {
	period int
}

// NewATR creates an ATR indicator with the given period.
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

// Name returns the name of the indicator.
func (a *ATR) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Columns returns the column names this indicator writes.
func (a *ATR) Columns() []string {
	return []string{types.ATRColumn(a.period)}
}

// Apply computes the ATR. Bars before the first full window are NaN.
func (a *ATR) Apply(bars []types.Bar) error {
	if a.period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "ATR period must be positive, got %d", a.period)
	}

	column := types.ATRColumn(a.period)

	trueRanges := make([]float64, len(bars))

	for i := range bars {
		tr := bars[i].High - bars[i].Low

		// no previous close on the first bar
		if i > 0 {
			prevClose := bars[i-1].Close
			tr = math.Max(tr, math.Abs(bars[i].High-prevClose))
			tr = math.Max(tr, math.Abs(bars[i].Low-prevClose))
		}

		trueRanges[i] = tr
	}

	var sum float64

	for i := range bars {
		sum += trueRanges[i]
		if i >= a.period {
			sum -= trueRanges[i-a.period]
		}

		if i < a.period-1 {
			bars[i].SetIndicator(column, math.NaN())
		} else {
			bars[i].SetIndicator(column, sum/float64(a.period))
		}
	}

	return nil
}
