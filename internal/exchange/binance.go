package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
	"github.com/skalibog/indcalc/internal/config"
	"github.com/skalibog/indcalc/pkg/models"
)

// BinanceClient клиент для получения свечей с Binance Futures
type BinanceClient struct {
	futures *futures.Client
}

// NewBinanceClient создает новый клиент Binance
func NewBinanceClient(cfg config.BinanceConfig) *BinanceClient {
	// Эндпоинт выбирается при создании клиента по глобальному флагу пакета
	futures.UseTestnet = cfg.Testnet
	return &BinanceClient{futures: futures.NewClient(cfg.APIKey, cfg.APISecret)}
}

// GetCandles получает исторические свечи
func (c *BinanceClient) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*models.Candle, error) {
	klines, err := c.futures.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения свечей: %w", err)
	}

	candles := make([]*models.Candle, 0, len(klines))
	for _, k := range klines {
		candle, err := toCandle(symbol, interval, k)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func toCandle(symbol, interval string, k *futures.Kline) (*models.Candle, error) {
	var prices [5]float64
	for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("ошибка разбора свечи %d: %w", k.OpenTime, err)
		}
		prices[i] = v.InexactFloat64()
	}
	return &models.Candle{
		Symbol:    symbol,
		Interval:  interval,
		OpenTime:  time.UnixMilli(k.OpenTime).UTC(),
		Open:      prices[0],
		High:      prices[1],
		Low:       prices[2],
		Close:     prices[3],
		Volume:    prices[4],
		CloseTime: time.UnixMilli(k.CloseTime).UTC(),
	}, nil
}
