package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest"
	"github.com/rxtech-lab/argo-backtest/internal/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/writer"
	"github.com/rxtech-lab/argo-backtest/pkg/utils"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339}

func main() {
	cmd := &cli.Command{
		Name:    "argo-backtest",
		Usage:   "Backtest trading strategies on historical candlestick data",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			sweepCommand(),
			downloadCommand(),
			prepareCommand(),
			strategiesCommand(),
			schemaCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	if cmd.Bool("verbose") {
		return logger.NewLoggerWithLevel(zapcore.DebugLevel)
	}

	return logger.NewLoggerWithLevel(zapcore.WarnLevel)
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run a strategy over a data file and report performance",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the CSV or Parquet data file",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   "Strategy name",
				Value:   strategy.RSIStrategyName,
			},
			&cli.StringFlag{
				Name:  "strategy-config",
				Usage: "Path to the strategy YAML config file",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the engine YAML config file",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory to write trades, equity curve, and report to",
			},
			&cli.TimestampFlag{
				Name:   "start",
				Usage:  "Only backtest bars at or after this time",
				Config: cli.TimestampConfig{Layouts: dateLayouts},
			},
			&cli.TimestampFlag{
				Name:   "end",
				Usage:  "Only backtest bars at or before this time",
				Config: cli.TimestampConfig{Layouts: dateLayouts},
			},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	config, err := loadEngineConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	strategyConfig, err := readOptionalFile(cmd.String("strategy-config"))
	if err != nil {
		return err
	}

	registry := strategy.NewDefaultRegistry()

	strat, err := registry.Create(cmd.String("strategy"), strategyConfig)
	if err != nil {
		return err
	}

	bars, err := loadBars(cmd, log)
	if err != nil {
		return err
	}

	engine, err := backtest.NewEngine(config, strat, log)
	if err != nil {
		return err
	}

	report, err := engine.Run(ctx, bars)
	if err != nil {
		return err
	}

	fmt.Println(RenderReport(report))

	if output := cmd.String("output"); output != "" {
		if err := writeResults(output, report, engine, log); err != nil {
			return err
		}

		fmt.Printf("Results written to %s\n", output)
	}

	return nil
}

func sweepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Evaluate a grid of strategy parameters and rank them by return",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the CSV or Parquet data file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "grid",
				Aliases:  []string{"g"},
				Usage:    "Path to the sweep grid YAML file",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the engine YAML config file",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Number of concurrent runs",
				Value:   4,
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "Number of ranked results to print",
				Value: 10,
			},
			&cli.TimestampFlag{
				Name:   "start",
				Usage:  "Only backtest bars at or after this time",
				Config: cli.TimestampConfig{Layouts: dateLayouts},
			},
			&cli.TimestampFlag{
				Name:   "end",
				Usage:  "Only backtest bars at or before this time",
				Config: cli.TimestampConfig{Layouts: dateLayouts},
			},
		},
		Action: sweepAction,
	}
}

// sweepGrid is the on-disk shape of a sweep grid file: a strategy name and
// one config document per cell.
type sweepGrid struct {
	Strategy string `yaml:"strategy"`
	Cells    []struct {
		Name   string         `yaml:"name"`
		Config map[string]any `yaml:"config"`
	} `yaml:"cells"`
}

func sweepAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	config, err := loadEngineConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	gridData, err := os.ReadFile(cmd.String("grid"))
	if err != nil {
		return fmt.Errorf("failed to read sweep grid: %w", err)
	}

	var grid sweepGrid
	if err := yaml.Unmarshal(gridData, &grid); err != nil {
		return fmt.Errorf("failed to parse sweep grid: %w", err)
	}

	cells := make([]backtest.SweepCell, 0, len(grid.Cells))

	for _, cell := range grid.Cells {
		strategyConfig, err := yaml.Marshal(cell.Config)
		if err != nil {
			return fmt.Errorf("failed to encode cell %q config: %w", cell.Name, err)
		}

		cells = append(cells, backtest.SweepCell{
			Name:           cell.Name,
			StrategyName:   grid.Strategy,
			StrategyConfig: string(strategyConfig),
			Config:         config,
		})
	}

	bars, err := loadBars(cmd, log)
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(cells)), "Running sweep")

	sweep := backtest.NewSweep(strategy.NewDefaultRegistry(), int(cmd.Int("workers")), log)

	results, err := sweep.Run(ctx, bars, cells, func() {
		bar.Add(1)
	})
	if err != nil {
		return err
	}

	bar.Finish()
	fmt.Println()

	top := int(cmd.Int("top"))
	if top > len(results) {
		top = len(results)
	}

	for i := 0; i < top; i++ {
		fmt.Println(RenderSweepRow(i+1, results[i].Cell.Name, results[i].Report, results[i].Err))
	}

	return nil
}

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download historical candlestick data from Binance",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Trading pair symbol, for example BTCUSDT",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:     "start",
				Usage:    "Start date in `YYYY-MM-DD` format",
				Required: true,
				Config:   cli.TimestampConfig{Layouts: dateLayouts},
			},
			&cli.TimestampFlag{
				Name:   "end",
				Usage:  "End date in `YYYY-MM-DD` format. Defaults to now.",
				Value:  time.Now(),
				Config: cli.TimestampConfig{Layouts: dateLayouts},
			},
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Candlestick interval, for example 1h or 1d",
				Value:   "1h",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path ending in .csv or .parquet",
				Value:   "data.csv",
			},
		},
		Action: downloadAction,
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	barWriter, err := writer.NewDuckDBWriter(cmd.String("output"), nil)
	if err != nil {
		return err
	}
	defer barWriter.Close()

	client, err := provider.NewProvider(provider.ProviderBinance)
	if err != nil {
		return err
	}

	client.ConfigWriter(barWriter)

	bar := progressbar.Default(100, "Downloading")

	path, err := client.Download(ctx,
		cmd.String("symbol"),
		cmd.Timestamp("start"),
		cmd.Timestamp("end"),
		cmd.String("interval"),
		func(current, total float64, _ string) {
			if total > 0 {
				bar.Set(int(current / total * 100))
			}
		},
	)
	if err != nil {
		return err
	}

	bar.Finish()
	fmt.Printf("\nDownloaded %s data to %s\n", cmd.String("symbol"), path)

	return nil
}

func prepareCommand() *cli.Command {
	return &cli.Command{
		Name:  "prepare",
		Usage: "Compute the standard indicator columns for a data file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the raw CSV or Parquet data file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Output file path ending in .csv or .parquet",
				Required: true,
			},
		},
		Action: prepareAction,
	}
}

func prepareAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	source, err := datasource.NewDuckDBSource(log)
	if err != nil {
		return err
	}
	defer source.Close()

	if err := source.Initialize(cmd.String("data")); err != nil {
		return err
	}

	bars, err := datasource.LoadAll(source, optional.None[time.Time](), optional.None[time.Time]())
	if err != nil {
		return err
	}

	columns, err := indicator.AddAll(bars)
	if err != nil {
		return err
	}

	barWriter, err := writer.NewDuckDBWriter(cmd.String("output"), columns)
	if err != nil {
		return err
	}
	defer barWriter.Close()

	if err := barWriter.Initialize(); err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(bars)), "Writing bars")

	for _, b := range bars {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := barWriter.Write(b); err != nil {
			return err
		}

		bar.Add(1)
	}

	path, err := barWriter.Finalize()
	if err != nil {
		return err
	}

	bar.Finish()
	fmt.Printf("\nWrote %d bars with %d indicator columns to %s\n", len(bars), len(columns), path)

	return nil
}

func strategiesCommand() *cli.Command {
	return &cli.Command{
		Name:  "strategies",
		Usage: "List the available strategies",
		Action: func(_ context.Context, _ *cli.Command) error {
			for _, name := range strategy.NewDefaultRegistry().List() {
				fmt.Println(name)
			}

			return nil
		},
	}
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema for the engine or a strategy config file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   "Print the schema for this strategy's config instead of the engine config",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			schema, err := configSchema(cmd.String("strategy"))
			if err != nil {
				return err
			}

			fmt.Println(schema)

			return nil
		},
	}
}

func configSchema(strategyName string) (string, error) {
	switch strategyName {
	case "":
		config := backtest.DefaultConfig()
		return config.GenerateSchemaJSON()
	case strategy.RSIStrategyName:
		return utils.GetSchemaFromConfig(strategy.DefaultRSIConfig())
	case strategy.RSITrendStrategyName:
		return utils.GetSchemaFromConfig(strategy.DefaultRSITrendConfig())
	case strategy.MACrossStrategyName:
		return utils.GetSchemaFromConfig(strategy.DefaultMACrossConfig())
	case strategy.MACDStrategyName:
		return "", fmt.Errorf("strategy %q takes no config", strategyName)
	default:
		return "", fmt.Errorf("unknown strategy %q", strategyName)
	}
}

// writeResults persists the trade ledger, equity curve, and report of a
// finished run.
func writeResults(dir string, report types.Report, engine *backtest.Engine, log *logger.Logger) error {
	resultWriter, err := backtest.NewResultWriter(log)
	if err != nil {
		return err
	}
	defer resultWriter.Close()

	if err := resultWriter.Initialize(); err != nil {
		return err
	}

	equity, equityTimes := engine.State().EquityCurve()
	if err := resultWriter.Stage(report, engine.State().Trades(), equity, equityTimes); err != nil {
		return err
	}

	return resultWriter.Write(dir, report)
}

// loadEngineConfig reads the engine config file, falling back to defaults
// when no path is given.
func loadEngineConfig(path string) (backtest.Config, error) {
	config := backtest.DefaultConfig()

	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

func readOptionalFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	return string(data), nil
}

// loadBars loads the data file named by the --data flag, computing the
// standard indicator columns in memory when the file carries none.
func loadBars(cmd *cli.Command, log *logger.Logger) ([]types.Bar, error) {
	source, err := datasource.NewDuckDBSource(log)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	if err := source.Initialize(cmd.String("data")); err != nil {
		return nil, err
	}

	start := optional.None[time.Time]()
	if t := cmd.Timestamp("start"); !t.IsZero() {
		start = optional.Some(t)
	}

	end := optional.None[time.Time]()
	if t := cmd.Timestamp("end"); !t.IsZero() {
		end = optional.Some(t)
	}

	bars, err := datasource.LoadAll(source, start, end)
	if err != nil {
		return nil, err
	}

	if len(source.IndicatorColumns()) == 0 {
		if _, err := indicator.AddAll(bars); err != nil {
			return nil, err
		}
	}

	return bars, nil
}
