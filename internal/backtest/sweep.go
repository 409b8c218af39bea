package backtest

import (
	"context"
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// SweepCell is one combination of strategy parameters and engine config to
// evaluate during a sweep.
type SweepCell struct {
	// Name labels the combination in the ranked output.
	Name string
	// StrategyName selects the strategy from the registry.
	StrategyName string
	// StrategyConfig is the YAML config document for the strategy. Empty
	// means defaults.
	StrategyConfig string
	// Config is the engine config for this cell.
	Config Config
}

// SweepResult pairs a cell with its report. Err is set when the cell
// failed; its report is then zero-valued.
type SweepResult struct {
	Cell   SweepCell
	Report types.Report
	Err    error
}

// Sweep evaluates parameter combinations over the same bar series and ranks
// them by total return.
type Sweep struct {
	registry strategy.Registry
	workers  int
	logger   *logger.Logger
}

// NewSweep creates a sweep backed by the given strategy registry. workers
// bounds the number of concurrent runs; values below one mean sequential.
func NewSweep(registry strategy.Registry, workers int, logger *logger.Logger) *Sweep {
	if workers < 1 {
		workers = 1
	}

	return &Sweep{
		registry: registry,
		workers:  workers,
		logger:   logger,
	}
}

// Run evaluates every cell against the bar series. Each cell gets its own
// strategy instance and engine so runs never share state. Results are
// returned sorted by total return descending, with failed cells last. The
// onProgress callback, if non-nil, is invoked once per completed cell.
func (s *Sweep) Run(ctx context.Context, bars []types.Bar, cells []SweepCell, onProgress func()) ([]SweepResult, error) {
	if len(cells) == 0 {
		return nil, errors.New(errors.ErrCodeMissingParameter, "no sweep cells to run")
	}

	results := make([]SweepResult, len(cells))

	var wg sync.WaitGroup

	sem := make(chan struct{}, s.workers)

	var progressMu sync.Mutex

	for i, cell := range cells {
		wg.Add(1)

		go func(i int, cell SweepCell) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			report, err := s.runCell(ctx, bars, cell)
			results[i] = SweepResult{Cell: cell, Report: report, Err: err}

			if onProgress != nil {
				progressMu.Lock()
				onProgress()
				progressMu.Unlock()
			}
		}(i, cell)
	}

	wg.Wait()

	sort.SliceStable(results, func(a, b int) bool {
		if (results[a].Err == nil) != (results[b].Err == nil) {
			return results[a].Err == nil
		}

		return results[a].Report.TotalReturnPct > results[b].Report.TotalReturnPct
	})

	return results, nil
}

func (s *Sweep) runCell(ctx context.Context, bars []types.Bar, cell SweepCell) (types.Report, error) {
	strat, err := s.registry.Create(cell.StrategyName, cell.StrategyConfig)
	if err != nil {
		return types.Report{}, err
	}

	engine, err := NewEngine(cell.Config, strat, s.logger)
	if err != nil {
		return types.Report{}, err
	}

	return engine.Run(ctx, bars)
}
