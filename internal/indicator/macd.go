package indicator

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// MACD is the moving average convergence/divergence: the difference between
// a fast and a slow EMA, plus a signal line (EMA of the MACD line) and the
// histogram between the two.
type MACD struct {
	fast   int
	slow   int
	signal int
}

// NewMACD creates a MACD indicator with the given fast/slow/signal periods.
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{fast: fast, slow: slow, signal: signal}
}

// Name returns the name of the indicator.
func (m *MACD) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

// Columns returns the column names this indicator writes.
func (m *MACD) Columns() []string {
	return []string{types.ColumnMACD, types.ColumnMACDSignal, types.ColumnMACDHistogram}
}

// Apply computes the MACD line, signal line and histogram.
func (m *MACD) Apply(bars []types.Bar) error {
	if m.fast <= 0 || m.slow <= 0 || m.signal <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod,
			"MACD periods must be positive, got fast=%d slow=%d signal=%d", m.fast, m.slow, m.signal)
	}

	if m.fast >= m.slow {
		return errors.Newf(errors.ErrCodeInvalidParameter,
			"MACD fast period (%d) must be shorter than slow period (%d)", m.fast, m.slow)
	}

	prices := closes(bars)
	emaFast := emaSeries(prices, m.fast)
	emaSlow := emaSeries(prices, m.slow)

	macdLine := make([]float64, len(bars))
	for i := range macdLine {
		macdLine[i] = emaFast[i] - emaSlow[i]
	}

	signalLine := emaSeries(macdLine, m.signal)

	for i := range bars {
		bars[i].SetIndicator(types.ColumnMACD, macdLine[i])
		bars[i].SetIndicator(types.ColumnMACDSignal, signalLine[i])
		bars[i].SetIndicator(types.ColumnMACDHistogram, macdLine[i]-signalLine[i])
	}

	return nil
}
