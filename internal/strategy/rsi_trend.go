package strategy

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"gopkg.in/yaml.v3"
)

const RSITrendStrategyName = "rsi_trend"

// RSITrendConfig configures the trend-filtered RSI strategy.
type RSITrendConfig struct {
	// Period is the RSI look-back period.
	Period int `yaml:"period" validate:"gt=0"`
	// Oversold is the RSI level below which the strategy buys.
	Oversold float64 `yaml:"oversold" validate:"gte=0,ltfield=Overbought"`
	// Overbought is the RSI level above which the strategy sells.
	Overbought float64 `yaml:"overbought" validate:"lte=100"`
	// TrendMA selects the moving average type used as the trend filter.
	TrendMA string `yaml:"trend_ma" validate:"oneof=sma ema"`
	// TrendPeriod is the trend moving average period.
	TrendPeriod int `yaml:"trend_period" validate:"gt=0"`
}

// DefaultRSITrendConfig returns the 14-period 30/70 configuration with an
// SMA 200 trend filter.
func DefaultRSITrendConfig() RSITrendConfig {
	return RSITrendConfig{
		Period:      14,
		Oversold:    30,
		Overbought:  70,
		TrendMA:     "sma",
		TrendPeriod: 200,
	}
}

// RSITrendStrategy is the RSI strategy with an additional long-term moving
// average filter: entries are only taken while the close is above the trend
// line. Exits are unfiltered so an open position can always be closed.
type RSITrendStrategy struct {
	config      RSITrendConfig
	rsiColumn   string
	trendColumn string
}

// NewRSITrendStrategy creates a trend-filtered RSI strategy from the given
// config.
func NewRSITrendStrategy(config RSITrendConfig) (*RSITrendStrategy, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid RSI trend strategy config", err)
	}

	var trendColumn string
	switch config.TrendMA {
	case "ema":
		trendColumn = types.EMAColumn(config.TrendPeriod)
	case "sma":
		trendColumn = types.SMAColumn(config.TrendPeriod)
	default:
		return nil, errors.New(errors.ErrCodeStrategyConfigError,
			fmt.Sprintf("unknown trend moving average type: %s", config.TrendMA))
	}

	return &RSITrendStrategy{
		config:      config,
		rsiColumn:   types.RSIColumn(config.Period),
		trendColumn: trendColumn,
	}, nil
}

// NewRSITrendStrategyFromConfig creates a trend-filtered RSI strategy from a
// YAML document, starting from the default config.
func NewRSITrendStrategyFromConfig(config string) (*RSITrendStrategy, error) {
	cfg := DefaultRSITrendConfig()
	if config != "" {
		if err := yaml.Unmarshal([]byte(config), &cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to parse RSI trend strategy config", err)
		}
	}

	return NewRSITrendStrategy(cfg)
}

// Name implements Strategy.
func (s *RSITrendStrategy) Name() string {
	return RSITrendStrategyName
}

// RequiredColumns implements Strategy.
func (s *RSITrendStrategy) RequiredColumns() []string {
	return []string{s.rsiColumn, s.trendColumn}
}

// Decide implements Strategy.
func (s *RSITrendStrategy) Decide(bar types.Bar, _ optional.Option[types.Bar], position optional.Option[types.Trade]) types.Action {
	rsi, ok := bar.Indicator(s.rsiColumn)
	if !ok {
		return types.ActionHold
	}

	if position.IsNone() {
		trend, ok := bar.Indicator(s.trendColumn)
		if !ok {
			return types.ActionHold
		}

		if rsi < s.config.Oversold && bar.Close > trend {
			return types.ActionBuy
		}

		return types.ActionHold
	}

	if rsi > s.config.Overbought {
		return types.ActionSell
	}

	return types.ActionHold
}
