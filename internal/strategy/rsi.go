package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"gopkg.in/yaml.v3"
)

const RSIStrategyName = "rsi"

// RSIConfig configures the RSI mean-reversion strategy.
type RSIConfig struct {
	// Period is the RSI look-back period.
	Period int `yaml:"period" validate:"gt=0"`
	// Oversold is the RSI level below which the strategy buys.
	Oversold float64 `yaml:"oversold" validate:"gte=0,ltfield=Overbought"`
	// Overbought is the RSI level above which the strategy sells.
	Overbought float64 `yaml:"overbought" validate:"lte=100"`
}

// DefaultRSIConfig returns the standard 14-period 30/70 configuration.
func DefaultRSIConfig() RSIConfig {
	return RSIConfig{
		Period:     14,
		Oversold:   30,
		Overbought: 70,
	}
}

// RSIStrategy buys when the oscillator drops below the oversold level and
// sells when it rises above the overbought level.
type RSIStrategy struct {
	config RSIConfig
	column string
}

// NewRSIStrategy creates an RSI strategy from the given config.
func NewRSIStrategy(config RSIConfig) (*RSIStrategy, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid RSI strategy config", err)
	}

	return &RSIStrategy{
		config: config,
		column: types.RSIColumn(config.Period),
	}, nil
}

// NewRSIStrategyFromConfig creates an RSI strategy from a YAML document,
// starting from the default config.
func NewRSIStrategyFromConfig(config string) (*RSIStrategy, error) {
	cfg := DefaultRSIConfig()
	if config != "" {
		if err := yaml.Unmarshal([]byte(config), &cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to parse RSI strategy config", err)
		}
	}

	return NewRSIStrategy(cfg)
}

// Name implements Strategy.
func (s *RSIStrategy) Name() string {
	return RSIStrategyName
}

// RequiredColumns implements Strategy.
func (s *RSIStrategy) RequiredColumns() []string {
	return []string{s.column}
}

// Decide implements Strategy.
func (s *RSIStrategy) Decide(bar types.Bar, _ optional.Option[types.Bar], position optional.Option[types.Trade]) types.Action {
	rsi, ok := bar.Indicator(s.column)
	if !ok {
		return types.ActionHold
	}

	if position.IsNone() {
		if rsi < s.config.Oversold {
			return types.ActionBuy
		}

		return types.ActionHold
	}

	if rsi > s.config.Overbought {
		return types.ActionSell
	}

	return types.ActionHold
}
