package backtest

import (
	"encoding/json"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Config holds the simulation parameters. Percentages are expressed in
// percent units, so a commission of 0.1 means 0.1% per fill.
type Config struct {
	InitialCapital  float64                  `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital for the backtest,minimum=0" validate:"gt=0"`
	PositionSizePct float64                  `yaml:"position_size_pct" json:"position_size_pct" jsonschema:"title=Position Size,description=Percent of current capital committed per trade,minimum=0,maximum=100" validate:"gt=0,lte=100"`
	CommissionPct   float64                  `yaml:"commission_pct" json:"commission_pct" jsonschema:"title=Commission,description=Percent commission charged per fill,minimum=0" validate:"gte=0"`
	SlippagePct     float64                  `yaml:"slippage_pct" json:"slippage_pct" jsonschema:"title=Slippage,description=Percent slippage applied against each fill,minimum=0" validate:"gte=0"`
	StopLossPct     optional.Option[float64] `yaml:"stop_loss_pct" json:"stop_loss_pct" jsonschema:"title=Stop Loss,description=Optional percent loss at which an open position is closed"`
	TakeProfitPct   optional.Option[float64] `yaml:"take_profit_pct" json:"take_profit_pct" jsonschema:"title=Take Profit,description=Optional percent gain at which an open position is closed"`
	BarsPerYear     float64                  `yaml:"bars_per_year" json:"bars_per_year" jsonschema:"title=Bars Per Year,description=Number of bars in a year at the series interval for Sharpe annualization,minimum=1" validate:"gt=0"`
}

// DefaultConfig returns the standard simulation parameters: full position
// sizing, 0.1% commission, 0.05% slippage, no stop loss or take profit, and
// hourly bars.
func DefaultConfig() Config {
	return Config{
		InitialCapital:  10000,
		PositionSizePct: 100,
		CommissionPct:   0.1,
		SlippagePct:     0.05,
		StopLossPct:     optional.None[float64](),
		TakeProfitPct:   optional.None[float64](),
		BarsPerYear:     365 * 24,
	}
}

// UnmarshalYAML implements custom unmarshaling for Config so missing keys
// fall back to defaults and optional thresholds stay None when omitted.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawConfig struct {
		InitialCapital  *float64 `yaml:"initial_capital"`
		PositionSizePct *float64 `yaml:"position_size_pct"`
		CommissionPct   *float64 `yaml:"commission_pct"`
		SlippagePct     *float64 `yaml:"slippage_pct"`
		StopLossPct     *float64 `yaml:"stop_loss_pct"`
		TakeProfitPct   *float64 `yaml:"take_profit_pct"`
		BarsPerYear     *float64 `yaml:"bars_per_year"`
	}

	var raw rawConfig
	if err := unmarshal(&raw); err != nil {
		return err
	}

	defaults := DefaultConfig()
	*c = defaults

	if raw.InitialCapital != nil {
		c.InitialCapital = *raw.InitialCapital
	}

	if raw.PositionSizePct != nil {
		c.PositionSizePct = *raw.PositionSizePct
	}

	if raw.CommissionPct != nil {
		c.CommissionPct = *raw.CommissionPct
	}

	if raw.SlippagePct != nil {
		c.SlippagePct = *raw.SlippagePct
	}

	if raw.StopLossPct != nil {
		c.StopLossPct = optional.Some(*raw.StopLossPct)
	}

	if raw.TakeProfitPct != nil {
		c.TakeProfitPct = optional.Some(*raw.TakeProfitPct)
	}

	if raw.BarsPerYear != nil {
		c.BarsPerYear = *raw.BarsPerYear
	}

	return nil
}

// Validate checks the config against its constraints, including that the
// stop loss and take profit thresholds are positive when set.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	if stopLoss, err := c.StopLossPct.Take(); err == nil && stopLoss <= 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "stop loss percent must be positive")
	}

	if takeProfit, err := c.TakeProfitPct.Take(); err == nil && takeProfit <= 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "take profit percent must be positive")
	}

	return nil
}

// GenerateSchema generates a JSON schema for the Config.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[float64]" {
				return &jsonschema.Schema{
					Type: "number",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-config"
	schema.Description = "Configuration schema for the backtest engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the Config.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
