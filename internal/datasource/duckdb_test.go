package datasource

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DuckDBSourceTestSuite struct {
	suite.Suite
	source *DuckDBSource
}

func TestDuckDBSourceSuite(t *testing.T) {
	suite.Run(t, new(DuckDBSourceTestSuite))
}

func (s *DuckDBSourceTestSuite) SetupTest() {
	log, err := logger.NewLogger()
	s.Require().NoError(err)

	source, err := NewDuckDBSource(log)
	s.Require().NoError(err)

	s.source = source
}

func (s *DuckDBSourceTestSuite) TearDownTest() {
	s.Require().NoError(s.source.Close())
}

func (s *DuckDBSourceTestSuite) writeCSV(content string) string {
	path := filepath.Join(s.T().TempDir(), "data.csv")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))

	return path
}

const sampleCSV = `timestamp,open,high,low,close,volume,RSI_14,SMA_200
2024-01-01 00:00:00,100,101,99,100,1000,,
2024-01-01 01:00:00,100,102,100,101,1100,45.5,100.2
2024-01-01 02:00:00,101,103,101,102,1200,55.1,100.4
2024-01-01 03:00:00,102,104,100,103,1300,65.9,100.6
`

func (s *DuckDBSourceTestSuite) TestReadAll() {
	path := s.writeCSV(sampleCSV)
	s.Require().NoError(s.source.Initialize(path))

	s.Equal([]string{"RSI_14", "SMA_200"}, s.source.IndicatorColumns())

	bars, err := LoadAll(s.source, optional.None[time.Time](), optional.None[time.Time]())
	s.Require().NoError(err)
	s.Require().Len(bars, 4)

	first := bars[0]
	s.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), first.Time)
	s.Equal(100.0, first.Open)
	s.Equal(101.0, first.High)
	s.Equal(99.0, first.Low)
	s.Equal(100.0, first.Close)
	s.Equal(1000.0, first.Volume)

	// Empty cells read back as NaN, so warm-up rows stay distinguishable.
	s.True(math.IsNaN(first.Indicators["RSI_14"]))
	_, ok := first.Indicator("RSI_14")
	s.False(ok)

	rsi, ok := bars[1].Indicator("RSI_14")
	s.True(ok)
	s.InDelta(45.5, rsi, 1e-9)

	for i := 1; i < len(bars); i++ {
		s.True(bars[i].Time.After(bars[i-1].Time))
	}
}

func (s *DuckDBSourceTestSuite) TestReadAllWithRange() {
	path := s.writeCSV(sampleCSV)
	s.Require().NoError(s.source.Initialize(path))

	start := optional.Some(time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC))
	end := optional.Some(time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC))

	bars, err := LoadAll(s.source, start, end)
	s.Require().NoError(err)
	s.Require().Len(bars, 2)
	s.InDelta(101.0, bars[0].Close, 1e-9)
	s.InDelta(102.0, bars[1].Close, 1e-9)
}

func (s *DuckDBSourceTestSuite) TestCount() {
	path := s.writeCSV(sampleCSV)
	s.Require().NoError(s.source.Initialize(path))

	count, err := s.source.Count(optional.None[time.Time](), optional.None[time.Time]())
	s.Require().NoError(err)
	s.Equal(4, count)

	count, err = s.source.Count(
		optional.Some(time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC)),
		optional.None[time.Time](),
	)
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *DuckDBSourceTestSuite) TestTimeColumnAlias() {
	path := s.writeCSV(`time,open,high,low,close,volume
2024-01-01 00:00:00,1,1,1,1,1
`)
	s.Require().NoError(s.source.Initialize(path))

	bars, err := LoadAll(s.source, optional.None[time.Time](), optional.None[time.Time]())
	s.Require().NoError(err)
	s.Require().Len(bars, 1)
	s.Empty(s.source.IndicatorColumns())
}

func (s *DuckDBSourceTestSuite) TestInitializeRejectsMissingColumns() {
	path := s.writeCSV(`timestamp,open,close
2024-01-01 00:00:00,1,1
`)

	err := s.source.Initialize(path)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (s *DuckDBSourceTestSuite) TestInitializeRejectsUnknownExtension() {
	err := s.source.Initialize("data.txt")
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (s *DuckDBSourceTestSuite) TestInitializeMissingFile() {
	err := s.source.Initialize(filepath.Join(s.T().TempDir(), "missing.csv"))
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}
