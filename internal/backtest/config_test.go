package backtest

import (
	"encoding/json"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) TestDefaultConfig() {
	config := DefaultConfig()

	s.Equal(10000.0, config.InitialCapital)
	s.Equal(100.0, config.PositionSizePct)
	s.Equal(0.1, config.CommissionPct)
	s.Equal(0.05, config.SlippagePct)
	s.True(config.StopLossPct.IsNone())
	s.True(config.TakeProfitPct.IsNone())
	s.Equal(8760.0, config.BarsPerYear)
	s.NoError(config.Validate())
}

func (s *ConfigTestSuite) TestUnmarshalYAMLComplete() {
	doc := `
initial_capital: 50000
position_size_pct: 25
commission_pct: 0.2
slippage_pct: 0.1
stop_loss_pct: 5
take_profit_pct: 15
bars_per_year: 252
`

	var config Config
	s.Require().NoError(yaml.Unmarshal([]byte(doc), &config))

	s.Equal(50000.0, config.InitialCapital)
	s.Equal(25.0, config.PositionSizePct)
	s.Equal(0.2, config.CommissionPct)
	s.Equal(0.1, config.SlippagePct)
	s.Equal(5.0, config.StopLossPct.TakeOr(0))
	s.Equal(15.0, config.TakeProfitPct.TakeOr(0))
	s.Equal(252.0, config.BarsPerYear)
}

func (s *ConfigTestSuite) TestUnmarshalYAMLDefaults() {
	var config Config
	s.Require().NoError(yaml.Unmarshal([]byte("initial_capital: 20000"), &config))

	s.Equal(20000.0, config.InitialCapital)
	s.Equal(100.0, config.PositionSizePct)
	s.True(config.StopLossPct.IsNone())
	s.True(config.TakeProfitPct.IsNone())
}

func (s *ConfigTestSuite) TestUnmarshalYAMLInvalid() {
	var config Config
	s.Error(yaml.Unmarshal([]byte("initial_capital: [oops]"), &config))
}

func (s *ConfigTestSuite) TestValidateRejectsBadValues() {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capital", func(c *Config) { c.InitialCapital = 0 }},
		{"negative capital", func(c *Config) { c.InitialCapital = -100 }},
		{"zero position size", func(c *Config) { c.PositionSizePct = 0 }},
		{"oversized position", func(c *Config) { c.PositionSizePct = 150 }},
		{"negative commission", func(c *Config) { c.CommissionPct = -0.1 }},
		{"negative slippage", func(c *Config) { c.SlippagePct = -0.1 }},
		{"zero bars per year", func(c *Config) { c.BarsPerYear = 0 }},
		{"negative stop loss", func(c *Config) { c.StopLossPct = optional.Some(-5.0) }},
		{"negative take profit", func(c *Config) { c.TakeProfitPct = optional.Some(-15.0) }},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			config := DefaultConfig()
			tt.mutate(&config)

			err := config.Validate()
			s.Require().Error(err)
			s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
		})
	}
}

func (s *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := DefaultConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	s.Require().NoError(err)

	var schema map[string]any
	s.Require().NoError(json.Unmarshal([]byte(schemaJSON), &schema))

	properties, ok := schema["properties"].(map[string]any)
	s.Require().True(ok)

	for _, key := range []string{
		"initial_capital", "position_size_pct", "commission_pct",
		"slippage_pct", "stop_loss_pct", "take_profit_pct", "bars_per_year",
	} {
		s.Contains(properties, key)
	}
}
