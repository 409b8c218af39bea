package writer

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// BarWriter defines the interface for persisting a bar series to a data
// file.
type BarWriter interface {
	// Initialize sets up the writer, creating the staging table.
	Initialize() error
	// Write stages a single bar.
	Write(bar types.Bar) error
	// Finalize exports the staged bars and returns the output path.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}
