package exchange

import (
	"testing"
	"time"

	"github.com/adshao/go-binance/v2/futures"
)

func TestToCandle(t *testing.T) {
	k := &futures.Kline{
		OpenTime:  1704067200000,
		Open:      "42000.10",
		High:      "42500.00",
		Low:       "41800.55",
		Close:     "42300.00",
		Volume:    "1234.567",
		CloseTime: 1704070799999,
	}
	c, err := toCandle("BTCUSDT", "1h", k)
	if err != nil {
		t.Fatal(err)
	}
	if c.Open != 42000.10 || c.High != 42500 || c.Low != 41800.55 || c.Close != 42300 || c.Volume != 1234.567 {
		t.Errorf("prices = %+v", c)
	}
	if !c.OpenTime.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("OpenTime = %v", c.OpenTime)
	}
	if c.Symbol != "BTCUSDT" || c.Interval != "1h" {
		t.Errorf("symbol/interval = %q %q", c.Symbol, c.Interval)
	}
}

func TestToCandle_BadNumber(t *testing.T) {
	k := &futures.Kline{Open: "x", High: "1", Low: "1", Close: "1", Volume: "1"}
	if _, err := toCandle("BTCUSDT", "1h", k); err == nil {
		t.Error("expected parse error")
	}
}
