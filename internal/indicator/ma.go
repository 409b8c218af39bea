package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// SMA is the simple moving average over close prices.
type SMA struct {
	period int
}

// NewSMA creates an SMA indicator with the given period.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

// Name returns the name of the indicator.
func (s *SMA) Name() types.IndicatorType {
	return types.IndicatorTypeSMA
}

// Columns returns the column names this indicator writes.
func (s *SMA) Columns() []string {
	return []string{types.SMAColumn(s.period)}
}

// Apply computes the SMA. Bars before the first full window are NaN.
func (s *SMA) Apply(bars []types.Bar) error {
	if s.period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "SMA period must be positive, got %d", s.period)
	}

	column := types.SMAColumn(s.period)

	var sum float64

	for i := range bars {
		sum += bars[i].Close
		if i >= s.period {
			sum -= bars[i-s.period].Close
		}

		if i < s.period-1 {
			bars[i].SetIndicator(column, math.NaN())
		} else {
			bars[i].SetIndicator(column, sum/float64(s.period))
		}
	}

	return nil
}

// EMA is the exponential moving average over close prices, seeded from the
// first close and smoothed with alpha = 2 / (period + 1).
type EMA struct {
	period int
}

// NewEMA creates an EMA indicator with the given period.
func NewEMA(period int) *EMA {
	return &EMA{period: period}
}

// Name returns the name of the indicator.
func (e *EMA) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Columns returns the column names this indicator writes.
func (e *EMA) Columns() []string {
	return []string{types.EMAColumn(e.period)}
}

// Apply computes the EMA. Every bar has a value since the series is seeded
// from the first close.
func (e *EMA) Apply(bars []types.Bar) error {
	if e.period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "EMA period must be positive, got %d", e.period)
	}

	column := types.EMAColumn(e.period)
	values := emaSeries(closes(bars), e.period)

	for i := range bars {
		bars[i].SetIndicator(column, values[i])
	}

	return nil
}

// emaSeries computes an exponential moving average over an arbitrary series.
// Shared with the MACD signal line computation.
func emaSeries(series []float64, period int) []float64 {
	values := make([]float64, len(series))
	if len(series) == 0 {
		return values
	}

	alpha := 2.0 / (float64(period) + 1.0)
	values[0] = series[0]

	for i := 1; i < len(series); i++ {
		values[i] = alpha*series[i] + (1-alpha)*values[i-1]
	}

	return values
}
