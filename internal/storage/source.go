package storage

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/jpillora/backoff"
	"github.com/skalibog/indcalc/pkg/logger"
	"github.com/skalibog/indcalc/pkg/models"
	"go.uber.org/zap"
)

// CandleSource источник свечей для хост-приложения
type CandleSource interface {
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*models.Candle, error)
}

// RetryingSource повторяет неудачные запросы к источнику с экспоненциальной паузой
type RetryingSource struct {
	source   CandleSource
	attempts int
	backoff  backoff.Backoff
}

// WithRetry оборачивает источник повторами
func WithRetry(source CandleSource, attempts int) *RetryingSource {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingSource{
		source:   source,
		attempts: attempts,
		backoff: backoff.Backoff{
			Min:    200 * time.Millisecond,
			Max:    5 * time.Second,
			Factor: 2,
			Jitter: true,
		},
	}
}

// GetCandles получает свечи, повторяя запрос до attempts раз
func (r *RetryingSource) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*models.Candle, error) {
	b := r.backoff
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		candles, err := r.source.GetCandles(ctx, symbol, interval, limit)
		if err == nil {
			return candles, nil
		}
		lastErr = err
		if attempt == r.attempts {
			break
		}

		delay := b.Duration()
		logger.Warn("Ошибка получения свечей, повтор",
			zap.String("symbol", symbol),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("источник недоступен после %d попыток: %w", r.attempts, lastErr)
}

// DemoSource генерирует детерминированное случайное блуждание
type DemoSource struct {
	Seed  int64
	Start time.Time
}

// GetCandles возвращает limit сгенерированных свечей
func (d DemoSource) GetCandles(_ context.Context, symbol, interval string, limit int) ([]*models.Candle, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("некорректный limit: %d", limit)
	}
	rng := rand.New(rand.NewSource(d.Seed))
	step := IntervalDuration(interval)
	start := d.Start
	if start.IsZero() {
		start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	candles := make([]*models.Candle, limit)
	price := 100.0
	for i := 0; i < limit; i++ {
		open := price
		price = math.Max(1, price*(1+rng.NormFloat64()*0.01))
		high := math.Max(open, price) * (1 + rng.Float64()*0.005)
		low := math.Min(open, price) * (1 - rng.Float64()*0.005)
		openTime := start.Add(time.Duration(i) * step)
		candles[i] = &models.Candle{
			Symbol:    symbol,
			Interval:  interval,
			OpenTime:  openTime,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     price,
			Volume:    1000 + rng.Float64()*500,
			CloseTime: openTime.Add(step),
		}
	}
	return candles, nil
}
