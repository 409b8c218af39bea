package provider

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderBinance ProviderType = "binance"
)

// OnDownloadProgress reports download progress. current and total are in the
// provider's own units, typically epoch milliseconds.
type OnDownloadProgress = func(current float64, total float64, message string)

// Provider downloads historical candlestick data into a configured writer.
type Provider interface {
	// ConfigWriter configures the writer the downloaded bars go to.
	ConfigWriter(writer writer.BarWriter)
	// Download fetches the bars for the given symbol, date range, and
	// interval, writes them through the configured writer, and returns the
	// output path. Cancel the context to stop the download.
	Download(ctx context.Context, symbol string, startDate time.Time, endDate time.Time, interval string, onProgress OnDownloadProgress) (path string, err error)
}

// NewProvider creates a market data provider of the given type.
func NewProvider(providerType ProviderType) (Provider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceClient(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported market data provider: %s", providerType)
	}
}
