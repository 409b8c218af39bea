package backtest

import (
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// equityLimit caps the equity curve against float blowups. A sample outside
// this range falls back to the cash balance.
const equityLimit = 1e15

var oneHundred = decimal.NewFromInt(100)

// State tracks the simulated account across a single backtest run: the cash
// balance, the open position if any, the closed trade ledger, and the
// per-bar equity curve.
type State struct {
	config      Config
	capital     float64
	position    optional.Option[types.Trade]
	trades      []types.Trade
	equity      []float64
	equityTimes []time.Time
	logger      *logger.Logger
}

// NewState creates a fresh account state funded with the config's initial
// capital.
func NewState(config Config, logger *logger.Logger) *State {
	return &State{
		config:   config,
		capital:  config.InitialCapital,
		position: optional.None[types.Trade](),
		logger:   logger,
	}
}

// Reset returns the state to its initial funding with no position, no
// trades, and an empty equity curve.
func (s *State) Reset() {
	s.capital = s.config.InitialCapital
	s.position = optional.None[types.Trade]()
	s.trades = nil
	s.equity = nil
	s.equityTimes = nil
}

// Capital returns the current cash balance.
func (s *State) Capital() float64 {
	return s.capital
}

// Position returns the open position, or None when flat.
func (s *State) Position() optional.Option[types.Trade] {
	return s.position
}

// Trades returns the closed trade ledger in close order.
func (s *State) Trades() []types.Trade {
	return s.trades
}

// EquityCurve returns the sampled equity values and their timestamps.
func (s *State) EquityCurve() ([]float64, []time.Time) {
	return s.equity, s.equityTimes
}

// Buy opens a long position at the given price. Slippage raises the entry
// fill, commission is charged on the committed notional, and the remainder
// buys size. A no-op when a position is already open.
func (s *State) Buy(timestamp time.Time, price float64) {
	if s.position.IsSome() {
		return
	}

	slippage := decimal.NewFromFloat(s.config.SlippagePct).Div(oneHundred)
	entryPrice := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(1).Add(slippage))

	notional := decimal.NewFromFloat(s.capital).Mul(decimal.NewFromFloat(s.config.PositionSizePct)).Div(oneHundred)
	commission := notional.Mul(decimal.NewFromFloat(s.config.CommissionPct)).Div(oneHundred)
	size := notional.Sub(commission).Div(entryPrice)

	trade := types.Trade{
		ID:         uuid.New().String(),
		Side:       types.SideLong,
		Size:       size.InexactFloat64(),
		EntryTime:  timestamp,
		EntryPrice: entryPrice.InexactFloat64(),
	}

	s.position = optional.Some(trade)
	s.capital = decimal.NewFromFloat(s.capital).Sub(notional).InexactFloat64()

	s.logger.Debug("Opened position",
		zap.String("trade_id", trade.ID),
		zap.Time("timestamp", timestamp),
		zap.Float64("entry_price", trade.EntryPrice),
		zap.Float64("size", trade.Size),
		zap.Float64("capital", s.capital),
	)
}

// Sell closes the open long position at the given price. Slippage lowers
// the exit fill and commission is charged on the gross proceeds. A no-op
// when flat.
func (s *State) Sell(timestamp time.Time, price float64) {
	trade, err := s.position.Take()
	if err != nil {
		return
	}

	slippage := decimal.NewFromFloat(s.config.SlippagePct).Div(oneHundred)
	exitPrice := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(1).Sub(slippage))

	trade.ExitTime = optional.Some(timestamp)
	trade.ExitPrice = optional.Some(exitPrice.InexactFloat64())

	grossProceeds := decimal.NewFromFloat(trade.Size).Mul(exitPrice)
	commission := grossProceeds.Mul(decimal.NewFromFloat(s.config.CommissionPct)).Div(oneHundred)
	netProceeds := grossProceeds.Sub(commission)

	s.capital = decimal.NewFromFloat(s.capital).Add(netProceeds).InexactFloat64()

	s.trades = append(s.trades, trade)
	s.position = optional.None[types.Trade]()

	s.logger.Debug("Closed position",
		zap.String("trade_id", trade.ID),
		zap.Time("timestamp", timestamp),
		zap.Float64("exit_price", exitPrice.InexactFloat64()),
		zap.Float64("pnl", trade.PnL()),
		zap.Float64("capital", s.capital),
	)
}

// UpdateEquity appends an equity sample at the given bar: the cash balance
// plus the unrealized gain of the open position marked at the current price.
func (s *State) UpdateEquity(timestamp time.Time, price float64) {
	equity := s.capital

	if trade, err := s.position.Take(); err == nil {
		unrealizedValue := decimal.NewFromFloat(trade.Size).Mul(decimal.NewFromFloat(price))
		costBasis := decimal.NewFromFloat(trade.Size).Mul(decimal.NewFromFloat(trade.EntryPrice))
		equity += unrealizedValue.Sub(costBasis).InexactFloat64()
	}

	if equity > equityLimit || equity < -equityLimit {
		equity = s.capital
	}

	s.equity = append(s.equity, equity)
	s.equityTimes = append(s.equityTimes, timestamp)
}
