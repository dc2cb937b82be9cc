package framework

import (
	"fmt"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
	"github.com/skalibog/indcalc/internal/indicator"
	"github.com/skalibog/indcalc/pkg/models"
)

// Name имя движка в цепочке
const Name = "techan"

var supported = []string{
	indicator.SMA, indicator.EMA, indicator.MACD, indicator.RSI,
	indicator.BBANDS, indicator.ATR, indicator.CCI, indicator.STOCH,
}

// Engine оборачивает торговый фреймворк techan: таблица превращается
// в techan.TimeSeries, расчет выполняют объекты techan.Indicator.
type Engine struct {
	indicator.Capability
}

// Option настройка движка
type Option func(*options)

type options struct {
	disabled bool
}

// Disabled создает движок недоступным
func Disabled() Option {
	return func(o *options) { o.disabled = true }
}

// New создает движок techan
func New(opts ...Option) *Engine {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{Capability: indicator.NewCapability(Name, !o.disabled, supported...)}
}

// Calculate рассчитывает индикатор через объекты techan
func (e *Engine) Calculate(name string, data *models.Table, p indicator.Params) (raw indicator.Raw, err error) {
	name = indicator.CanonicalName(name)
	if err := e.Precheck(name, data); err != nil {
		return nil, err
	}

	s, err := indicator.ResolveSettings(name, e.NormalizeParams(p))
	if err != nil {
		return nil, indicator.Calculation(Name, name, err)
	}
	if s.MAType != indicator.MATypeSMA {
		return nil, indicator.Calculation(Name, name,
			fmt.Errorf("%w: techan поддерживает только ma_type=0", indicator.ErrBadParameter))
	}
	lookback := s.Lookback(name)
	if data.Len() <= lookback {
		return nil, indicator.Calculation(Name, name,
			fmt.Errorf("%w: %d строк, прогрев %d", indicator.ErrInsufficientData, data.Len(), lookback))
	}

	series, err := toTimeSeries(data)
	if err != nil {
		return nil, indicator.Calculation(Name, name, err)
	}

	defer func() {
		if r := recover(); r != nil {
			raw = nil
			err = indicator.Calculation(Name, name, fmt.Errorf("паника в techan: %v", r))
		}
	}()

	inds, err := build(name, series, s)
	if err != nil {
		return nil, indicator.Calculation(Name, name, err)
	}

	raw = make(indicator.Raw, len(inds))
	for i, ind := range inds {
		raw[i] = indicator.MaskWarmup(evaluate(ind, data.Len()), lookback)
	}
	return raw, nil
}

// toTimeSeries конвертирует таблицу в нативную последовательность баров techan
func toTimeSeries(data *models.Table) (*techan.TimeSeries, error) {
	series := techan.NewTimeSeries()
	for i := 0; i < data.Len(); i++ {
		candle := techan.NewCandle(techan.NewTimePeriod(data.Timestamps[i], 0))
		candle.ClosePrice = big.NewDecimal(data.Close[i])
		if data.Has(models.ColumnOpen) {
			candle.OpenPrice = big.NewDecimal(data.Open[i])
		}
		if data.Has(models.ColumnHigh) {
			candle.MaxPrice = big.NewDecimal(data.High[i])
		}
		if data.Has(models.ColumnLow) {
			candle.MinPrice = big.NewDecimal(data.Low[i])
		}
		if data.Has(models.ColumnVolume) {
			candle.Volume = big.NewDecimal(data.Volume[i])
		}
		if !series.AddCandle(candle) {
			return nil, fmt.Errorf("techan отклонил бар %d: метки времени не возрастают", i)
		}
	}
	return series, nil
}

func build(name string, series *techan.TimeSeries, s indicator.Settings) ([]techan.Indicator, error) {
	closes := techan.NewClosePriceIndicator(series)

	switch name {
	case indicator.SMA:
		return []techan.Indicator{techan.NewSimpleMovingAverage(closes, s.Period)}, nil
	case indicator.EMA:
		return []techan.Indicator{techan.NewEMAIndicator(closes, s.Period)}, nil
	case indicator.MACD:
		fast, slow := s.FastPeriod, s.SlowPeriod
		if slow < fast {
			fast, slow = slow, fast
		}
		macd := techan.NewMACDIndicator(closes, fast, slow)
		signal := newEMA(macd, s.SignalPeriod, slow-1)
		return []techan.Indicator{macd, signal, techan.NewDifferenceIndicator(macd, signal)}, nil
	case indicator.RSI:
		return []techan.Indicator{newRSI(closes, s.Period)}, nil
	case indicator.BBANDS:
		return []techan.Indicator{
			techan.NewBollingerUpperBandIndicator(closes, s.Period, s.StdDev),
			techan.NewSimpleMovingAverage(closes, s.Period),
			techan.NewBollingerLowerBandIndicator(closes, s.Period, s.StdDev),
		}, nil
	case indicator.ATR:
		return []techan.Indicator{newWilder(trueRangeIndicator{series: series}, s.Period, 1)}, nil
	case indicator.CCI:
		return []techan.Indicator{newCCI(series, s.Period)}, nil
	case indicator.STOCH:
		fastK := newFastStochastic(series, s.FastKPeriod)
		slowK := techan.NewSimpleMovingAverage(fastK, s.SlowKPeriod)
		return []techan.Indicator{slowK, techan.NewSimpleMovingAverage(slowK, s.SlowDPeriod)}, nil
	}
	return nil, fmt.Errorf("нет привязки techan для %s", name)
}

// evaluate переводит значения индикатора обратно в выровненную серию.
// Рекурсивные индикаторы techan кэшируют значения, поэтому начинаем с последнего индекса.
func evaluate(ind techan.Indicator, rows int) indicator.Series {
	out := make(indicator.Series, rows)
	if rows == 0 {
		return out
	}
	out[rows-1] = ind.Calculate(rows - 1).Float()
	for i := 0; i < rows-1; i++ {
		out[i] = ind.Calculate(i).Float()
	}
	return out
}
