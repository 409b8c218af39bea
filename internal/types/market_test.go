package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MarketTestSuite struct {
	suite.Suite
}

func TestMarketSuite(t *testing.T) {
	suite.Run(t, new(MarketTestSuite))
}

func (suite *MarketTestSuite) TestIndicatorLookup() {
	bar := Bar{
		Time:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Close: 100.0,
	}

	// missing column
	_, ok := bar.Indicator(RSIColumn(14))
	suite.False(ok)

	bar.SetIndicator(RSIColumn(14), 42.5)
	value, ok := bar.Indicator(RSIColumn(14))
	suite.True(ok)
	suite.Equal(42.5, value)
}

func (suite *MarketTestSuite) TestIndicatorNaNIsUnavailable() {
	bar := Bar{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	bar.SetIndicator(RSIColumn(14), math.NaN())

	_, ok := bar.Indicator(RSIColumn(14))
	suite.False(ok)
}

func (suite *MarketTestSuite) TestHasColumn() {
	bars := []Bar{
		{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Time: time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)},
	}
	suite.False(HasColumn(bars, RSIColumn(14)))

	// a NaN warm-up value still counts as present
	bars[1].SetIndicator(RSIColumn(14), math.NaN())
	suite.True(HasColumn(bars, RSIColumn(14)))
}
