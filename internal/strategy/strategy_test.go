package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type StrategyTestSuite struct {
	suite.Suite
}

func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategyTestSuite))
}

func (s *StrategyTestSuite) bar(close float64, indicators map[string]float64) types.Bar {
	return types.Bar{
		Time:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Open:       close,
		High:       close,
		Low:        close,
		Close:      close,
		Volume:     1,
		Indicators: indicators,
	}
}

func (s *StrategyTestSuite) openPosition() optional.Option[types.Trade] {
	return optional.Some(types.Trade{
		ID:         "t1",
		Side:       types.SideLong,
		Size:       1,
		EntryTime:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EntryPrice: 100,
	})
}

func (s *StrategyTestSuite) TestRSIStrategy() {
	strategy, err := NewRSIStrategy(DefaultRSIConfig())
	s.Require().NoError(err)
	s.Equal(RSIStrategyName, strategy.Name())
	s.Equal([]string{"RSI_14"}, strategy.RequiredColumns())

	flat := optional.None[types.Trade]()
	open := s.openPosition()

	tests := []struct {
		name     string
		rsi      float64
		position optional.Option[types.Trade]
		expected types.Action
	}{
		{"buys below oversold when flat", 25, flat, types.ActionBuy},
		{"holds at oversold boundary", 30, flat, types.ActionHold},
		{"holds mid-range when flat", 50, flat, types.ActionHold},
		{"holds above overbought when flat", 75, flat, types.ActionHold},
		{"sells above overbought when open", 75, open, types.ActionSell},
		{"holds at overbought boundary when open", 70, open, types.ActionHold},
		{"holds below oversold when open", 25, open, types.ActionHold},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			bar := s.bar(100, map[string]float64{"RSI_14": tt.rsi})
			s.Equal(tt.expected, strategy.Decide(bar, optional.None[types.Bar](), tt.position))
		})
	}
}

func (s *StrategyTestSuite) TestRSIStrategyHoldsDuringWarmup() {
	strategy, err := NewRSIStrategy(DefaultRSIConfig())
	s.Require().NoError(err)

	bar := s.bar(100, map[string]float64{"RSI_14": math.NaN()})
	s.Equal(types.ActionHold, strategy.Decide(bar, optional.None[types.Bar](), optional.None[types.Trade]()))

	bar = s.bar(100, nil)
	s.Equal(types.ActionHold, strategy.Decide(bar, optional.None[types.Bar](), optional.None[types.Trade]()))
}

func (s *StrategyTestSuite) TestRSIStrategyRejectsInvalidConfig() {
	_, err := NewRSIStrategy(RSIConfig{Period: 0, Oversold: 30, Overbought: 70})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))

	_, err = NewRSIStrategy(RSIConfig{Period: 14, Oversold: 70, Overbought: 30})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))
}

func (s *StrategyTestSuite) TestRSIStrategyFromConfig() {
	strategy, err := NewRSIStrategyFromConfig("period: 20\noversold: 25\noverbought: 80\n")
	s.Require().NoError(err)
	s.Equal([]string{"RSI_20"}, strategy.RequiredColumns())

	bar := s.bar(100, map[string]float64{"RSI_20": 26})
	s.Equal(types.ActionHold, strategy.Decide(bar, optional.None[types.Bar](), optional.None[types.Trade]()))

	bar = s.bar(100, map[string]float64{"RSI_20": 24})
	s.Equal(types.ActionBuy, strategy.Decide(bar, optional.None[types.Bar](), optional.None[types.Trade]()))

	_, err = NewRSIStrategyFromConfig("period: [not a number]")
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))
}

func (s *StrategyTestSuite) TestRSITrendStrategy() {
	strategy, err := NewRSITrendStrategy(DefaultRSITrendConfig())
	s.Require().NoError(err)
	s.Equal([]string{"RSI_14", "SMA_200"}, strategy.RequiredColumns())

	flat := optional.None[types.Trade]()
	none := optional.None[types.Bar]()

	// Oversold above the trend line: entry allowed.
	bar := s.bar(110, map[string]float64{"RSI_14": 25, "SMA_200": 100})
	s.Equal(types.ActionBuy, strategy.Decide(bar, none, flat))

	// Oversold below the trend line: filtered out.
	bar = s.bar(90, map[string]float64{"RSI_14": 25, "SMA_200": 100})
	s.Equal(types.ActionHold, strategy.Decide(bar, none, flat))

	// Trend column still warming up: no entry even on an oversold reading.
	bar = s.bar(110, map[string]float64{"RSI_14": 25, "SMA_200": math.NaN()})
	s.Equal(types.ActionHold, strategy.Decide(bar, none, flat))

	// The exit does not consult the trend line.
	bar = s.bar(90, map[string]float64{"RSI_14": 75, "SMA_200": math.NaN()})
	s.Equal(types.ActionSell, strategy.Decide(bar, none, s.openPosition()))
}

func (s *StrategyTestSuite) TestRSITrendStrategyEMAFilter() {
	strategy, err := NewRSITrendStrategy(RSITrendConfig{
		Period:      14,
		Oversold:    30,
		Overbought:  70,
		TrendMA:     "ema",
		TrendPeriod: 99,
	})
	s.Require().NoError(err)
	s.Equal([]string{"RSI_14", "EMA_99"}, strategy.RequiredColumns())
}

func (s *StrategyTestSuite) TestMACrossStrategy() {
	strategy, err := NewMACrossStrategy(DefaultMACrossConfig())
	s.Require().NoError(err)
	s.Equal([]string{"EMA_7", "EMA_25"}, strategy.RequiredColumns())

	flat := optional.None[types.Trade]()
	open := s.openPosition()

	tests := []struct {
		name       string
		prevFast   float64
		prevSlow   float64
		fast       float64
		slow       float64
		position   optional.Option[types.Trade]
		expected   types.Action
	}{
		{"golden cross buys", 99, 100, 101, 100, flat, types.ActionBuy},
		{"cross from equality buys", 100, 100, 101, 100, flat, types.ActionBuy},
		{"touch without crossing holds", 99, 100, 100, 100, flat, types.ActionHold},
		{"already above holds", 101, 100, 102, 100, flat, types.ActionHold},
		{"death cross ignored when flat", 101, 100, 99, 100, flat, types.ActionHold},
		{"death cross sells", 101, 100, 99, 100, open, types.ActionSell},
		{"cross from equality sells", 100, 100, 99, 100, open, types.ActionSell},
		{"golden cross ignored when open", 99, 100, 101, 100, open, types.ActionHold},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			prev := s.bar(100, map[string]float64{"EMA_7": tt.prevFast, "EMA_25": tt.prevSlow})
			bar := s.bar(100, map[string]float64{"EMA_7": tt.fast, "EMA_25": tt.slow})
			s.Equal(tt.expected, strategy.Decide(bar, optional.Some(prev), tt.position))
		})
	}
}

func (s *StrategyTestSuite) TestMACrossStrategyHoldsWithoutPreviousBar() {
	strategy, err := NewMACrossStrategy(DefaultMACrossConfig())
	s.Require().NoError(err)

	bar := s.bar(100, map[string]float64{"EMA_7": 101, "EMA_25": 100})
	s.Equal(types.ActionHold, strategy.Decide(bar, optional.None[types.Bar](), optional.None[types.Trade]()))
}

func (s *StrategyTestSuite) TestMACrossStrategyHoldsDuringWarmup() {
	strategy, err := NewMACrossStrategy(DefaultMACrossConfig())
	s.Require().NoError(err)

	prev := s.bar(100, map[string]float64{"EMA_7": math.NaN(), "EMA_25": 100})
	bar := s.bar(100, map[string]float64{"EMA_7": 101, "EMA_25": 100})
	s.Equal(types.ActionHold, strategy.Decide(bar, optional.Some(prev), optional.None[types.Trade]()))
}

func (s *StrategyTestSuite) TestMACrossStrategyRejectsInvalidPeriods() {
	_, err := NewMACrossStrategy(MACrossConfig{FastPeriod: 25, SlowPeriod: 7})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))
}

func (s *StrategyTestSuite) TestMACDStrategy() {
	strategy, err := NewMACDStrategyFromConfig("")
	s.Require().NoError(err)
	s.Equal(MACDStrategyName, strategy.Name())
	s.Equal([]string{"MACD", "MACD_signal"}, strategy.RequiredColumns())

	prev := s.bar(100, map[string]float64{"MACD": -0.5, "MACD_signal": 0})
	bar := s.bar(100, map[string]float64{"MACD": 0.5, "MACD_signal": 0})
	s.Equal(types.ActionBuy, strategy.Decide(bar, optional.Some(prev), optional.None[types.Trade]()))

	prev = s.bar(100, map[string]float64{"MACD": 0.5, "MACD_signal": 0})
	bar = s.bar(100, map[string]float64{"MACD": -0.5, "MACD_signal": 0})
	s.Equal(types.ActionSell, strategy.Decide(bar, optional.Some(prev), s.openPosition()))

	s.Equal(types.ActionHold, strategy.Decide(bar, optional.None[types.Bar](), s.openPosition()))
}

func (s *StrategyTestSuite) TestRegistry() {
	registry := NewDefaultRegistry()
	s.Equal([]string{"rsi", "rsi_trend", "ma_cross", "macd"}, registry.List())

	strategy, err := registry.Create(RSIStrategyName, "")
	s.Require().NoError(err)
	s.Equal(RSIStrategyName, strategy.Name())

	_, err = registry.Create("bollinger", "")
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeStrategyNotFound))

	err = registry.Register(RSIStrategyName, func(config string) (Strategy, error) {
		return NewRSIStrategyFromConfig(config)
	})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeStrategyAlreadyExists))
}
