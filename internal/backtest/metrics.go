package backtest

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// calculateReport derives the performance report from a finished run. A run
// with no closed trades returns a report with HasTrades false and only the
// capital fields populated.
func calculateReport(strategyName string, config Config, state *State) types.Report {
	report := types.Report{
		StrategyName:   strategyName,
		InitialCapital: config.InitialCapital,
		FinalCapital:   state.Capital(),
	}

	trades := state.Trades()
	if len(trades) == 0 {
		return report
	}

	report.HasTrades = true
	report.TotalTrades = len(trades)
	report.TotalReturnPct = (state.Capital() - config.InitialCapital) / config.InitialCapital * 100

	var (
		grossProfit   float64
		grossLoss     float64
		totalDuration float64
		closedCount   int
	)

	for _, trade := range trades {
		pnl := trade.PnL()
		report.TotalPnL += pnl

		if pnl > 0 {
			report.WinningTrades++
			grossProfit += pnl
		} else {
			report.LosingTrades++
			grossLoss += -pnl
		}

		if duration, err := trade.Duration().Take(); err == nil {
			totalDuration += duration.Hours()
			closedCount++
		}
	}

	report.WinRatePct = float64(report.WinningTrades) / float64(report.TotalTrades) * 100

	if report.WinningTrades > 0 {
		report.AvgWin = grossProfit / float64(report.WinningTrades)
	}

	if report.LosingTrades > 0 {
		report.AvgLoss = -grossLoss / float64(report.LosingTrades)
	}

	if grossLoss > 0 {
		report.ProfitFactor = grossProfit / grossLoss
	} else {
		report.ProfitFactor = math.Inf(1)
	}

	if closedCount > 0 {
		report.AvgTradeDurationHours = totalDuration / float64(closedCount)
	}

	equity, _ := state.EquityCurve()
	report.MaxDrawdownPct = maxDrawdown(equity)
	report.SharpeRatio = sharpeRatio(equity, config.BarsPerYear)

	return report
}

// maxDrawdown returns the deepest percent decline of the equity curve from
// its running maximum. The value is zero or negative.
func maxDrawdown(equity []float64) float64 {
	var (
		runningMax float64
		worst      float64
	)

	for i, value := range equity {
		if i == 0 || value > runningMax {
			runningMax = value
		}

		if runningMax == 0 {
			continue
		}

		drawdown := (value - runningMax) / runningMax * 100
		if drawdown < worst {
			worst = drawdown
		}
	}

	return worst
}

// sharpeRatio annualizes the mean over standard deviation of per-bar equity
// returns. Uses the sample standard deviation. Returns zero when there are
// too few samples or the returns never vary.
func sharpeRatio(equity []float64, barsPerYear float64) float64 {
	returns := make([]float64, 0, len(equity))

	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			continue
		}

		returns = append(returns, (equity[i]-equity[i-1])/equity[i-1])
	}

	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}

	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}

	variance /= float64(len(returns) - 1)

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}

	return mean / std * math.Sqrt(barsPerYear)
}
