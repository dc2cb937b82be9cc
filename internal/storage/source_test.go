package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/skalibog/indcalc/pkg/models"
)

type flakySource struct {
	failures int
	calls    int
}

func (f *flakySource) GetCandles(_ context.Context, symbol, interval string, limit int) ([]*models.Candle, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("временная ошибка")
	}
	return DemoSource{}.GetCandles(context.Background(), symbol, interval, limit)
}

func TestDemoSource_Deterministic(t *testing.T) {
	src := DemoSource{Seed: 7}
	a, err := src.GetCandles(context.Background(), "BTCUSDT", "1h", 100)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := src.GetCandles(context.Background(), "BTCUSDT", "1h", 100)
	if len(a) != 100 {
		t.Fatalf("len = %d", len(a))
	}
	for i := range a {
		if *a[i] != *b[i] {
			t.Fatalf("candle %d differs", i)
		}
		if a[i].High < a[i].Low || a[i].Close > a[i].High || a[i].Close < a[i].Low {
			t.Fatalf("candle %d inconsistent: %+v", i, a[i])
		}
		if i > 0 && a[i].OpenTime.Sub(a[i-1].OpenTime) != time.Hour {
			t.Fatalf("candle %d not spaced by interval", i)
		}
	}

	table := models.NewTable(a)
	if table.Len() != 100 || len(table.Columns()) != 5 {
		t.Errorf("table len=%d columns=%v", table.Len(), table.Columns())
	}

	if _, err := src.GetCandles(context.Background(), "BTCUSDT", "1h", 0); err == nil {
		t.Error("limit 0 must fail")
	}
}

func TestRetryingSource(t *testing.T) {
	flaky := &flakySource{failures: 2}
	candles, err := WithRetry(flaky, 3).GetCandles(context.Background(), "ETHUSDT", "5m", 10)
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	if len(candles) != 10 || flaky.calls != 3 {
		t.Errorf("candles=%d calls=%d", len(candles), flaky.calls)
	}

	dead := &flakySource{failures: 10}
	if _, err := WithRetry(dead, 2).GetCandles(context.Background(), "ETHUSDT", "5m", 10); err == nil {
		t.Error("expected error after exhausting attempts")
	}
	if dead.calls != 2 {
		t.Errorf("calls = %d, want 2", dead.calls)
	}
}

func TestRetryingSource_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := WithRetry(&flakySource{failures: 10}, 5).GetCandles(ctx, "BTCUSDT", "1m", 5)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestIntervalDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"1m": time.Minute, "15m": 15 * time.Minute, "4h": 4 * time.Hour, "1d": 24 * time.Hour, "??": time.Minute,
	}
	for in, want := range cases {
		if got := IntervalDuration(in); got != want {
			t.Errorf("IntervalDuration(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCandlesQuery(t *testing.T) {
	q := candlesQuery("market", "BTCUSDT", "1h", 300)
	for _, part := range []string{`from(bucket: "market")`, `r.symbol == "BTCUSDT"`, `r.interval == "1h"`, "limit(n: 300)"} {
		if !strings.Contains(q, part) {
			t.Errorf("query missing %q:\n%s", part, q)
		}
	}
}
