package backtest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

// Engine runs a strategy over a bar series and produces a performance
// report. A single engine instance drives one strategy with one config;
// Run may be called repeatedly, each call starting from a fresh state.
type Engine struct {
	config   Config
	strategy strategy.Strategy
	state    *State
	logger   *logger.Logger
}

// NewEngine creates an engine for the given strategy. The config is
// validated up front so a bad parameter fails before any data is touched.
func NewEngine(config Config, strat strategy.Strategy, logger *logger.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if strat == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "strategy is required")
	}

	return &Engine{
		config:   config,
		strategy: strat,
		state:    NewState(config, logger),
		logger:   logger,
	}, nil
}

// State exposes the account state of the most recent run, for result
// writers that persist the trade ledger and equity curve.
func (e *Engine) State() *State {
	return e.state
}

// Run simulates the strategy over the bar series and returns the report.
//
// Bars the strategy cannot evaluate yet, because an indicator is still
// warming up, are skipped entirely: no decision and no equity sample. A
// column that is absent from every bar is a configuration error instead.
// When a stop loss or take profit fires, the position is closed at that
// bar and the strategy is not consulted until the next one. Any position
// still open after the last bar is closed at the last close.
func (e *Engine) Run(ctx context.Context, bars []types.Bar) (types.Report, error) {
	if len(bars) == 0 {
		return types.Report{}, errors.New(errors.ErrCodeEmptySeries, "no bars to backtest")
	}

	if err := validateOrder(bars); err != nil {
		return types.Report{}, err
	}

	required := e.strategy.RequiredColumns()
	for _, column := range required {
		if !types.HasColumn(bars, column) {
			return types.Report{}, errors.Newf(errors.ErrCodeMissingIndicatorColumn,
				"indicator column %q not found in series, calculate indicators first", column)
		}
	}

	e.state.Reset()

	e.logger.Info("Starting backtest",
		zap.String("strategy", e.strategy.Name()),
		zap.Int("bars", len(bars)),
		zap.Float64("initial_capital", e.config.InitialCapital),
	)

	prev := optional.None[types.Bar]()

	for _, bar := range bars {
		if err := ctx.Err(); err != nil {
			return types.Report{}, errors.Wrap(errors.ErrCodeSimulationFailed, "backtest cancelled", err)
		}

		if !barReady(bar, required) {
			continue
		}

		if e.checkExitThresholds(bar) {
			prev = optional.Some(bar)
			continue
		}

		action := e.strategy.Decide(bar, prev, e.state.Position())

		switch action {
		case types.ActionBuy:
			e.state.Buy(bar.Time, bar.Close)
		case types.ActionSell:
			e.state.Sell(bar.Time, bar.Close)
		case types.ActionHold:
		}

		e.state.UpdateEquity(bar.Time, bar.Close)

		prev = optional.Some(bar)
	}

	// Close any position still open at the end of the series.
	last := bars[len(bars)-1]
	e.state.Sell(last.Time, last.Close)

	report := calculateReport(e.strategy.Name(), e.config, e.state)
	report.ID = uuid.New().String()
	report.Timestamp = time.Now().UTC()

	e.logger.Info("Backtest finished",
		zap.String("strategy", e.strategy.Name()),
		zap.Int("trades", report.TotalTrades),
		zap.Float64("final_capital", report.FinalCapital),
		zap.Float64("total_return_pct", report.TotalReturnPct),
	)

	return report, nil
}

// checkExitThresholds closes the open position when the bar's close breaches
// the stop loss or take profit threshold. Thresholds compare the raw close
// against the entry fill, which already includes entry slippage. Returns
// true when a threshold fired.
func (e *Engine) checkExitThresholds(bar types.Bar) bool {
	trade, err := e.state.Position().Take()
	if err != nil {
		return false
	}

	pnlPct := (bar.Close - trade.EntryPrice) / trade.EntryPrice * 100

	if stopLoss, err := e.config.StopLossPct.Take(); err == nil && pnlPct <= -stopLoss {
		e.logger.Debug("Stop loss triggered",
			zap.String("trade_id", trade.ID),
			zap.Float64("pnl_pct", pnlPct),
		)
		e.state.Sell(bar.Time, bar.Close)

		return true
	}

	if takeProfit, err := e.config.TakeProfitPct.Take(); err == nil && pnlPct >= takeProfit {
		e.logger.Debug("Take profit triggered",
			zap.String("trade_id", trade.ID),
			zap.Float64("pnl_pct", pnlPct),
		)
		e.state.Sell(bar.Time, bar.Close)

		return true
	}

	return false
}

// barReady reports whether every required column has a value on the bar.
func barReady(bar types.Bar, required []string) bool {
	for _, column := range required {
		if _, ok := bar.Indicator(column); !ok {
			return false
		}
	}

	return true
}

// validateOrder checks that bar timestamps are strictly increasing.
func validateOrder(bars []types.Bar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return errors.Newf(errors.ErrCodeUnorderedSeries,
				"bar %d timestamp %s is not after previous bar timestamp %s",
				i, bars[i].Time, bars[i-1].Time)
		}
	}

	return nil
}
