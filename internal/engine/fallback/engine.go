package fallback

import (
	"fmt"

	"github.com/skalibog/indcalc/internal/indicator"
	"github.com/skalibog/indcalc/pkg/models"
)

// Name имя движка в цепочке
const Name = "fallback"

var supported = []string{
	indicator.SMA, indicator.EMA, indicator.WMA, indicator.MACD, indicator.RSI,
	indicator.BBANDS, indicator.ATR, indicator.STOCH, indicator.STOCHF, indicator.KDJ,
	indicator.OBV, indicator.CCI, indicator.ROC, indicator.MOM, indicator.WILLR,
}

// Engine реализует индикаторы на чистом Go без внешних зависимостей.
// Его формулы служат эталоном для остальных движков.
type Engine struct {
	indicator.Capability
}

// New создает резервный движок; он всегда доступен
func New() *Engine {
	return &Engine{Capability: indicator.NewCapability(Name, true, supported...)}
}

// Calculate рассчитывает индикатор по скользящим окнам
func (e *Engine) Calculate(name string, data *models.Table, p indicator.Params) (indicator.Raw, error) {
	name = indicator.CanonicalName(name)
	if err := e.Precheck(name, data); err != nil {
		return nil, err
	}

	s, err := indicator.ResolveSettings(name, e.NormalizeParams(p))
	if err != nil {
		return nil, indicator.Calculation(Name, name, err)
	}
	if lookback := s.Lookback(name); data.Len() <= lookback {
		return nil, indicator.Calculation(Name, name,
			fmt.Errorf("%w: %d строк, прогрев %d", indicator.ErrInsufficientData, data.Len(), lookback))
	}

	raw, err := e.compute(name, data, s)
	if err != nil {
		return nil, indicator.Calculation(Name, name, err)
	}
	return raw, nil
}

func (e *Engine) compute(name string, data *models.Table, s indicator.Settings) (indicator.Raw, error) {
	closes := data.Close
	switch name {
	case indicator.SMA:
		return indicator.Raw{sma(closes, s.Period)}, nil
	case indicator.EMA:
		return indicator.Raw{ema(closes, s.Period)}, nil
	case indicator.WMA:
		return indicator.Raw{wma(closes, s.Period)}, nil
	case indicator.RSI:
		return indicator.Raw{wilderRSI(closes, s.Period)}, nil
	case indicator.MACD:
		return macd(closes, s), nil
	case indicator.BBANDS:
		return bbands(closes, s)
	case indicator.ATR:
		return indicator.Raw{wilderATR(data.High, data.Low, closes, s.Period)}, nil
	case indicator.STOCH, indicator.KDJ:
		return stoch(data, s, name == indicator.KDJ)
	case indicator.STOCHF:
		fastK := fastStochastic(data.High, data.Low, closes, s.FastKPeriod)
		fastD, ok := movingAverage(fastK, s.FastDPeriod, s.MAType)
		if !ok {
			return nil, fmt.Errorf("%w: ma_type=%d", indicator.ErrBadParameter, s.MAType)
		}
		return indicator.Raw{indicator.MaskWarmup(fastK, s.Lookback(name)), fastD}, nil
	case indicator.OBV:
		return indicator.Raw{obv(closes, data.Volume)}, nil
	case indicator.CCI:
		return indicator.Raw{cci(data.High, data.Low, closes, s.Period)}, nil
	case indicator.ROC:
		return indicator.Raw{roc(closes, s.Period)}, nil
	case indicator.MOM:
		return indicator.Raw{momentum(closes, s.Period)}, nil
	case indicator.WILLR:
		return indicator.Raw{williamsR(data.High, data.Low, closes, s.Period)}, nil
	}
	return nil, fmt.Errorf("нет реализации для %s", name)
}

func macd(closes []float64, s indicator.Settings) indicator.Raw {
	fast, slow := s.FastPeriod, s.SlowPeriod
	if slow < fast {
		fast, slow = slow, fast
	}
	fastEMA := ema(closes, fast)
	slowEMA := ema(closes, slow)

	line := undefined(len(closes))
	for i := slow - 1; i < len(closes); i++ {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	signal := ema(line, s.SignalPeriod)

	hist := undefined(len(closes))
	for i := range closes {
		hist[i] = line[i] - signal[i]
	}

	lookback := s.Lookback(indicator.MACD)
	return indicator.Raw{
		indicator.MaskWarmup(line, lookback),
		indicator.MaskWarmup(signal, lookback),
		indicator.MaskWarmup(hist, lookback),
	}
}

func bbands(closes []float64, s indicator.Settings) (indicator.Raw, error) {
	middle, ok := movingAverage(closes, s.Period, s.MAType)
	if !ok {
		return nil, fmt.Errorf("%w: ma_type=%d", indicator.ErrBadParameter, s.MAType)
	}
	dev := stddev(closes, s.Period)
	upper := undefined(len(closes))
	lower := undefined(len(closes))
	for i := range closes {
		upper[i] = middle[i] + s.StdDev*dev[i]
		lower[i] = middle[i] - s.StdDev*dev[i]
	}
	return indicator.Raw{upper, middle, lower}, nil
}

func stoch(data *models.Table, s indicator.Settings, withJ bool) (indicator.Raw, error) {
	fastK := fastStochastic(data.High, data.Low, data.Close, s.FastKPeriod)
	slowK, ok := movingAverage(fastK, s.SlowKPeriod, s.MAType)
	if !ok {
		return nil, fmt.Errorf("%w: ma_type=%d", indicator.ErrBadParameter, s.MAType)
	}
	slowD, _ := movingAverage(slowK, s.SlowDPeriod, s.MAType)

	lookback := s.Lookback(indicator.STOCH)
	indicator.MaskWarmup(slowK, lookback)
	if !withJ {
		return indicator.Raw{slowK, slowD}, nil
	}

	j := undefined(len(slowK))
	for i := range slowK {
		j[i] = 3*slowK[i] - 2*slowD[i]
	}
	return indicator.Raw{slowK, slowD, j}, nil
}
