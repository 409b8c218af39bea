package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"gopkg.in/yaml.v3"
)

const MACrossStrategyName = "ma_cross"

// MACrossConfig configures the moving average crossover strategy.
type MACrossConfig struct {
	// FastPeriod is the fast EMA period.
	FastPeriod int `yaml:"fast_period" validate:"gt=0,ltfield=SlowPeriod"`
	// SlowPeriod is the slow EMA period.
	SlowPeriod int `yaml:"slow_period" validate:"gt=0"`
}

// DefaultMACrossConfig returns the 7/25 EMA configuration.
func DefaultMACrossConfig() MACrossConfig {
	return MACrossConfig{
		FastPeriod: 7,
		SlowPeriod: 25,
	}
}

// MACrossStrategy buys on a golden cross of the fast EMA over the slow EMA
// and sells on a death cross. A cross requires the fast line to be at or
// below the slow line on the previous bar and strictly on the other side on
// the current bar, so a bar where the lines merely touch never triggers.
type MACrossStrategy struct {
	config     MACrossConfig
	fastColumn string
	slowColumn string
}

// NewMACrossStrategy creates a moving average crossover strategy from the
// given config.
func NewMACrossStrategy(config MACrossConfig) (*MACrossStrategy, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid MA cross strategy config", err)
	}

	return &MACrossStrategy{
		config:     config,
		fastColumn: types.EMAColumn(config.FastPeriod),
		slowColumn: types.EMAColumn(config.SlowPeriod),
	}, nil
}

// NewMACrossStrategyFromConfig creates a moving average crossover strategy
// from a YAML document, starting from the default config.
func NewMACrossStrategyFromConfig(config string) (*MACrossStrategy, error) {
	cfg := DefaultMACrossConfig()
	if config != "" {
		if err := yaml.Unmarshal([]byte(config), &cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to parse MA cross strategy config", err)
		}
	}

	return NewMACrossStrategy(cfg)
}

// Name implements Strategy.
func (s *MACrossStrategy) Name() string {
	return MACrossStrategyName
}

// RequiredColumns implements Strategy.
func (s *MACrossStrategy) RequiredColumns() []string {
	return []string{s.fastColumn, s.slowColumn}
}

// Decide implements Strategy.
func (s *MACrossStrategy) Decide(bar types.Bar, prev optional.Option[types.Bar], position optional.Option[types.Trade]) types.Action {
	up, down, ok := crossing(bar, prev, s.fastColumn, s.slowColumn)
	if !ok {
		return types.ActionHold
	}

	if position.IsNone() {
		if up {
			return types.ActionBuy
		}

		return types.ActionHold
	}

	if down {
		return types.ActionSell
	}

	return types.ActionHold
}

// crossing reports whether the a column crossed above or below the b column
// between the previous and current bar. ok is false when either bar lacks a
// value, including when there is no previous bar at all.
func crossing(bar types.Bar, prev optional.Option[types.Bar], aColumn, bColumn string) (up, down, ok bool) {
	prevBar, err := prev.Take()
	if err != nil {
		return false, false, false
	}

	a, aOK := bar.Indicator(aColumn)
	b, bOK := bar.Indicator(bColumn)
	prevA, prevAOK := prevBar.Indicator(aColumn)
	prevB, prevBOK := prevBar.Indicator(bColumn)
	if !aOK || !bOK || !prevAOK || !prevBOK {
		return false, false, false
	}

	up = prevA <= prevB && a > b
	down = prevA >= prevB && a < b

	return up, down, true
}
