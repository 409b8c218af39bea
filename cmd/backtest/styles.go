package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Style definitions.
var (
	// TitleStyle for section headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// LabelStyle for metric names.
	LabelStyle = lipgloss.NewStyle().Faint(true).Width(22)

	// GainStyle for positive returns.
	GainStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	// LossStyle for negative returns.
	LossStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// FormatSignedPct colors a percentage green when positive and red when
// negative.
func FormatSignedPct(value float64) string {
	text := fmt.Sprintf("%.2f%%", value)

	if value > 0 {
		return GainStyle.Render(text)
	}

	if value < 0 {
		return LossStyle.Render(text)
	}

	return text
}

// FormatRatio renders a ratio, spelling out an infinite profit factor.
func FormatRatio(value float64) string {
	if math.IsInf(value, 1) {
		return "inf"
	}

	return fmt.Sprintf("%.2f", value)
}

// RenderReport renders a finished run for the terminal.
func RenderReport(report types.Report) string {
	var b strings.Builder

	line := func(label, value string) {
		b.WriteString(LabelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	b.WriteString(TitleStyle.Render(fmt.Sprintf("Backtest results: %s", report.StrategyName)))
	b.WriteString("\n\n")

	line("Initial capital", fmt.Sprintf("$%.2f", report.InitialCapital))
	line("Final capital", fmt.Sprintf("$%.2f", report.FinalCapital))

	if !report.HasTrades {
		b.WriteString("\nNo trades executed.\n")

		return b.String()
	}

	line("Total return", FormatSignedPct(report.TotalReturnPct))
	line("Total P&L", fmt.Sprintf("$%.2f", report.TotalPnL))

	b.WriteString("\n")
	line("Total trades", fmt.Sprintf("%d", report.TotalTrades))
	line("Winning trades", fmt.Sprintf("%d (%.1f%%)", report.WinningTrades, report.WinRatePct))
	line("Losing trades", fmt.Sprintf("%d", report.LosingTrades))
	line("Avg win", fmt.Sprintf("$%.2f", report.AvgWin))
	line("Avg loss", fmt.Sprintf("$%.2f", report.AvgLoss))
	line("Profit factor", FormatRatio(report.ProfitFactor))

	b.WriteString("\n")
	line("Max drawdown", FormatSignedPct(report.MaxDrawdownPct))
	line("Sharpe ratio", fmt.Sprintf("%.2f", report.SharpeRatio))
	line("Avg trade duration", fmt.Sprintf("%.1f hours", report.AvgTradeDurationHours))

	return b.String()
}

// RenderSweepRow renders one ranked sweep result as a table row.
func RenderSweepRow(rank int, name string, report types.Report, err error) string {
	if err != nil {
		return fmt.Sprintf("%3d  %-24s  %s", rank, name, LossStyle.Render("error: "+err.Error()))
	}

	return fmt.Sprintf("%3d  %-24s  %s  trades=%d  drawdown=%.2f%%",
		rank, name, FormatSignedPct(report.TotalReturnPct), report.TotalTrades, report.MaxDrawdownPct)
}
