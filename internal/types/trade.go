package types

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Trade is a single round trip through a position. Entry fields are set when
// the position opens; exit fields stay None until it closes. A closed trade
// is appended to the ledger and never mutated afterwards.
type Trade struct {
	// ID uniquely identifies the trade within a run.
	ID string `yaml:"id"`
	// Side of the position. Only long positions are opened by the built-in
	// strategies; the PnL math mirrors the sign for shorts.
	Side Side `yaml:"side"`
	// Size is the position size in units of the asset.
	Size float64 `yaml:"size"`
	// EntryTime is the bar timestamp at which the position was opened.
	EntryTime time.Time `yaml:"entry_time"`
	// EntryPrice is the effective entry price after slippage.
	EntryPrice float64 `yaml:"entry_price"`
	// ExitTime is the bar timestamp at which the position was closed.
	ExitTime optional.Option[time.Time] `yaml:"exit_time"`
	// ExitPrice is the effective exit price after slippage.
	ExitPrice optional.Option[float64] `yaml:"exit_price"`
}

// IsOpen reports whether the trade still has no exit.
func (t *Trade) IsOpen() bool {
	return t.ExitTime.IsNone()
}

// PnL returns the realized profit/loss of the trade. An open trade has a PnL
// of zero.
func (t *Trade) PnL() float64 {
	if t.ExitPrice.IsNone() {
		return 0
	}

	exitDec := decimal.NewFromFloat(t.ExitPrice.Unwrap())
	entryDec := decimal.NewFromFloat(t.EntryPrice)
	sizeDec := decimal.NewFromFloat(t.Size)

	var resultDec decimal.Decimal
	if t.Side == SideLong {
		resultDec = exitDec.Sub(entryDec).Mul(sizeDec)
	} else {
		resultDec = entryDec.Sub(exitDec).Mul(sizeDec)
	}

	result, _ := resultDec.Float64()

	return result
}

// PnLPercent returns the realized profit/loss relative to the entry price, in
// percent. An open trade returns zero.
func (t *Trade) PnLPercent() float64 {
	if t.ExitPrice.IsNone() || t.EntryPrice == 0 {
		return 0
	}

	exitPrice := t.ExitPrice.Unwrap()
	if t.Side == SideLong {
		return (exitPrice - t.EntryPrice) / t.EntryPrice * 100
	}

	return (t.EntryPrice - exitPrice) / t.EntryPrice * 100
}

// Duration returns the holding time of the trade, or None while it is open.
func (t *Trade) Duration() optional.Option[time.Duration] {
	if t.ExitTime.IsNone() {
		return optional.None[time.Duration]()
	}

	return optional.Some(t.ExitTime.Unwrap().Sub(t.EntryTime))
}
