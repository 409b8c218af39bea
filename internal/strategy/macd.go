package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

const MACDStrategyName = "macd"

// MACDStrategy buys when the MACD line crosses above its signal line and
// sells when it crosses below. The crossing rule matches MACrossStrategy:
// non-strict on the previous bar, strict on the current one.
type MACDStrategy struct{}

// NewMACDStrategy creates a MACD signal-line crossover strategy.
func NewMACDStrategy() *MACDStrategy {
	return &MACDStrategy{}
}

// NewMACDStrategyFromConfig creates a MACD strategy. The strategy takes no
// parameters so the config document is ignored.
func NewMACDStrategyFromConfig(_ string) (*MACDStrategy, error) {
	return NewMACDStrategy(), nil
}

// Name implements Strategy.
func (s *MACDStrategy) Name() string {
	return MACDStrategyName
}

// RequiredColumns implements Strategy.
func (s *MACDStrategy) RequiredColumns() []string {
	return []string{types.ColumnMACD, types.ColumnMACDSignal}
}

// Decide implements Strategy.
func (s *MACDStrategy) Decide(bar types.Bar, prev optional.Option[types.Bar], position optional.Option[types.Trade]) types.Action {
	up, down, ok := crossing(bar, prev, types.ColumnMACD, types.ColumnMACDSignal)
	if !ok {
		return types.ActionHold
	}

	if position.IsNone() {
		if up {
			return types.ActionBuy
		}

		return types.ActionHold
	}

	if down {
		return types.ActionSell
	}

	return types.ActionHold
}
