// Package strategy contains the trading policies the simulation engine can
// replay. A strategy is a pure function of the current bar, the previous
// processed bar and the current position; it never mutates engine state.
package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Strategy decides one action per bar.
type Strategy interface {
	// Name returns the name of the strategy.
	Name() string
	// RequiredColumns returns the indicator columns the strategy reads.
	// The engine fails fast when any of them is absent from the series
	// and skips the trading decision on bars where a value is still
	// within its warm-up period.
	RequiredColumns() []string
	// Decide returns the action for the current bar. prev is the previous
	// bar that had all required columns available, or None at the start
	// of the series. position is the currently open trade, or None when
	// flat.
	Decide(bar types.Bar, prev optional.Option[types.Bar], position optional.Option[types.Trade]) types.Action
}
