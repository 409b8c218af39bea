package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// RSI is the Relative Strength Index over close prices.
type RSI struct {
	period int
}

// NewRSI creates an RSI indicator with the given period.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Columns returns the column names this indicator writes.
func (r *RSI) Columns() []string {
	return []string{types.RSIColumn(r.period)}
}

// Apply computes the RSI using simple rolling means of gains and losses.
// The first `period` bars have no value and are filled with NaN.
func (r *RSI) Apply(bars []types.Bar) error {
	if r.period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "RSI period must be positive, got %d", r.period)
	}

	column := types.RSIColumn(r.period)
	prices := closes(bars)

	gains := make([]float64, len(bars))
	losses := make([]float64, len(bars))

	for i := 1; i < len(bars); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	for i := range bars {
		// the first delta only exists at index 1, so the first full
		// window of `period` deltas ends at index `period`
		if i < r.period {
			bars[i].SetIndicator(column, math.NaN())

			continue
		}

		var gainSum, lossSum float64
		for j := i - r.period + 1; j <= i; j++ {
			gainSum += gains[j]
			lossSum += losses[j]
		}

		avgGain := gainSum / float64(r.period)
		avgLoss := lossSum / float64(r.period)

		// avgLoss of zero drives RS to +Inf and RSI to 100
		rs := avgGain / avgLoss
		bars[i].SetIndicator(column, 100-100/(1+rs))
	}

	return nil
}
