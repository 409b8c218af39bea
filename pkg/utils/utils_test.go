package utils

import (
	"encoding/json"
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/stretchr/testify/suite"
)

type UtilsTestSuite struct {
	suite.Suite
}

func TestUtilsSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

func (suite *UtilsTestSuite) TestGetSchemaFromConfig() {
	schema, err := GetSchemaFromConfig(strategy.DefaultRSIConfig())
	suite.Require().NoError(err)
	suite.NotEmpty(schema)

	var result map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schema), &result))
	suite.Contains(result, "$schema")
	suite.Contains(result, "$defs")
}

func (suite *UtilsTestSuite) TestGetSchemaFromConfigPointer() {
	config := strategy.DefaultMACrossConfig()

	schema, err := GetSchemaFromConfig(&config)
	suite.Require().NoError(err)
	suite.NotEmpty(schema)
}
