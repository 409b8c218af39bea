package provider

import (
	"context"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/writer"
)

// binancePageSize is the maximum number of klines Binance returns per
// request.
const binancePageSize = 500

// binanceIntervals are the interval strings the Binance klines endpoint
// accepts.
var binanceIntervals = map[string]bool{
	"1m": true, "3m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "2h": true, "4h": true, "6h": true, "8h": true, "12h": true,
	"1d": true, "3d": true, "1w": true, "1M": true,
}

type BinanceClient struct {
	client *binance.Client
	writer writer.BarWriter
}

// NewBinanceClient creates a Binance provider using the public market data
// endpoints, so no API key is needed.
func NewBinanceClient() *BinanceClient {
	return &BinanceClient{
		client: binance.NewClient("", ""),
	}
}

// ConfigWriter implements Provider.
func (c *BinanceClient) ConfigWriter(w writer.BarWriter) {
	c.writer = w
}

// Download implements Provider. It pages through the klines endpoint from
// the start date, advancing past the close time of each page, until the end
// date is reached.
func (c *BinanceClient) Download(ctx context.Context, symbol string, startDate time.Time, endDate time.Time, interval string, onProgress OnDownloadProgress) (string, error) {
	if !binanceIntervals[interval] {
		return "", errors.Newf(errors.ErrCodeInvalidInterval, "unsupported Binance interval: %s", interval)
	}

	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMissingParameter, "writer is not configured")
	}

	if !endDate.After(startDate) {
		return "", errors.New(errors.ErrCodeInvalidParameter, "end date must be after start date")
	}

	if err := c.writer.Initialize(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to initialize writer", err)
	}

	startMillis := startDate.UnixMilli()
	endMillis := endDate.UnixMilli()
	currentStart := startMillis

	for {
		klines, err := c.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(currentStart).
			EndTime(endMillis).
			Limit(binancePageSize).
			Do(ctx)
		if err != nil {
			return "", errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s klines from Binance", symbol)
		}

		if onProgress != nil {
			onProgress(float64(currentStart-startMillis), float64(endMillis-startMillis), "Downloading "+symbol+" klines from Binance")
		}

		if err := c.writeKlines(klines); err != nil {
			return "", err
		}

		// A short page is the last one.
		if len(klines) < binancePageSize {
			break
		}

		// Resume just past the last kline to avoid duplicates.
		currentStart = klines[len(klines)-1].CloseTime + 1
		if currentStart >= endMillis {
			break
		}
	}

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to finalize writer", err)
	}

	return outputPath, nil
}

// writeKlines converts Binance klines to bars and stages them in the
// writer. Binance serves prices as strings.
func (c *BinanceClient) writeKlines(klines []*binance.Kline) error {
	for _, k := range klines {
		bar, err := klineToBar(k)
		if err != nil {
			return err
		}

		if err := c.writer.Write(bar); err != nil {
			return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write bar", err)
		}
	}

	return nil
}

// klineToBar converts one kline into a bar timestamped at the kline's open
// time.
func klineToBar(k *binance.Kline) (types.Bar, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to parse open price", err)
	}

	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to parse high price", err)
	}

	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to parse low price", err)
	}

	closePrice, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to parse close price", err)
	}

	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to parse volume", err)
	}

	return types.Bar{
		Time:   time.UnixMilli(k.OpenTime).UTC(),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}, nil
}
