package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Report holds the aggregated performance statistics of one finished
// simulation run.
type Report struct {
	// ID is the unique identifier for this run.
	ID string `yaml:"id"`
	// Timestamp is when this run was executed.
	Timestamp time.Time `yaml:"timestamp"`
	// StrategyName is the name of the strategy that produced the ledger.
	StrategyName string `yaml:"strategy_name"`
	// HasTrades is false when the run executed zero trades. All other
	// metric fields are zero in that case; this is an expected outcome,
	// not an error.
	HasTrades bool `yaml:"has_trades"`

	// InitialCapital is the starting cash capital.
	InitialCapital float64 `yaml:"initial_capital"`
	// FinalCapital is the cash capital after the forced close of any
	// position left open at the end of the series.
	FinalCapital float64 `yaml:"final_capital"`
	// TotalReturnPct is (final - initial) / initial * 100.
	TotalReturnPct float64 `yaml:"total_return_pct"`
	// TotalPnL is the sum of realized PnL over all closed trades.
	TotalPnL float64 `yaml:"total_pnl"`

	// TotalTrades counts all closed trades.
	TotalTrades int `yaml:"total_trades"`
	// WinningTrades counts trades with pnl > 0.
	WinningTrades int `yaml:"winning_trades"`
	// LosingTrades counts trades with pnl <= 0; a zero-PnL trade is a loss.
	LosingTrades int `yaml:"losing_trades"`
	// WinRatePct is winners / total * 100.
	WinRatePct float64 `yaml:"win_rate_pct"`
	// AvgWin is the mean pnl over winning trades, 0 when there are none.
	AvgWin float64 `yaml:"avg_win"`
	// AvgLoss is the mean pnl over losing trades, 0 when there are none.
	AvgLoss float64 `yaml:"avg_loss"`
	// ProfitFactor is gross profit / gross loss, +Inf when gross loss is 0.
	ProfitFactor float64 `yaml:"profit_factor"`

	// MaxDrawdownPct is the worst peak-to-trough equity decline in percent
	// (a negative number or 0).
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct"`
	// SharpeRatio is the annualized per-bar Sharpe ratio, 0 when the
	// return variance is 0 or fewer than 2 return samples exist.
	SharpeRatio float64 `yaml:"sharpe_ratio"`
	// AvgTradeDurationHours is the mean holding time of closed trades.
	AvgTradeDurationHours float64 `yaml:"avg_trade_duration_hours"`
}

// WriteReport writes the report to the given path as YAML.
func WriteReport(path string, report Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report to file: %w", err)
	}

	return nil
}
