package types

import "fmt"

type IndicatorType string

const (
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeSMA            IndicatorType = "sma"
	IndicatorTypeEMA            IndicatorType = "ema"
	IndicatorTypeMACD           IndicatorType = "macd"
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
	IndicatorTypeATR            IndicatorType = "atr"
)

// Fixed indicator column names. Period-parameterized columns are built with
// the *Column helpers below.
const (
	ColumnMACD          = "MACD"
	ColumnMACDSignal    = "MACD_signal"
	ColumnMACDHistogram = "MACD_histogram"
	ColumnBBUpper       = "BB_upper"
	ColumnBBMiddle      = "BB_middle"
	ColumnBBLower       = "BB_lower"
)

// RSIColumn returns the column name for an RSI of the given period, e.g. "RSI_14".
func RSIColumn(period int) string {
	return fmt.Sprintf("RSI_%d", period)
}

// SMAColumn returns the column name for a simple moving average, e.g. "SMA_200".
func SMAColumn(period int) string {
	return fmt.Sprintf("SMA_%d", period)
}

// EMAColumn returns the column name for an exponential moving average, e.g. "EMA_25".
func EMAColumn(period int) string {
	return fmt.Sprintf("EMA_%d", period)
}

// ATRColumn returns the column name for an average true range, e.g. "ATR_14".
func ATRColumn(period int) string {
	return fmt.Sprintf("ATR_%d", period)
}
