package native

import (
	"fmt"

	"github.com/markcheno/go-talib"
	"github.com/skalibog/indcalc/internal/indicator"
	"github.com/skalibog/indcalc/pkg/models"
)

// Name имя движка в цепочке
const Name = "talib"

var supported = []string{
	indicator.SMA, indicator.EMA, indicator.WMA, indicator.DEMA, indicator.TEMA,
	indicator.MACD, indicator.RSI, indicator.BBANDS, indicator.ATR, indicator.NATR,
	indicator.STOCH, indicator.STOCHF, indicator.KDJ, indicator.OBV, indicator.CCI,
	indicator.ROC, indicator.MOM, indicator.WILLR, indicator.ADX, indicator.MFI,
}

// nativeNames канонические параметры -> имена аргументов TA-Lib
var nativeNames = map[string][]string{
	indicator.ParamPeriod:       {"timeperiod"},
	indicator.ParamFastPeriod:   {"fastperiod"},
	indicator.ParamSlowPeriod:   {"slowperiod"},
	indicator.ParamSignalPeriod: {"signalperiod"},
	indicator.ParamStdDev:       {"nbdevup", "nbdevdn"},
	indicator.ParamMAType:       {"matype"},
	indicator.ParamFastKPeriod:  {"fastk_period"},
	indicator.ParamSlowKPeriod:  {"slowk_period"},
	indicator.ParamSlowDPeriod:  {"slowd_period"},
	indicator.ParamFastDPeriod:  {"fastd_period"},
}

// Engine оборачивает go-talib
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

// New создает движок TA-Lib. Доступность проверяется один раз пробным расчетом.
func New(opts ...Option) *Engine {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	available := !o.disabled && probe()
	return &Engine{Capability: indicator.NewCapability(Name, available, supported...)}
}

func probe() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	out := talib.Sma([]float64{1, 2, 3}, 2)
	return len(out) == 3 && out[2] == 2.5
}

// NormalizeParams переводит канонические ключи в имена аргументов TA-Lib
func (e *Engine) NormalizeParams(p indicator.Params) indicator.Params {
	return p.Rename(nativeNames)
}

// Calculate рассчитывает индикатор через TA-Lib
func (e *Engine) Calculate(name string, data *models.Table, p indicator.Params) (raw indicator.Raw, err error) {
	name = indicator.CanonicalName(name)
	if err := e.Precheck(name, data); err != nil {
		return nil, err
	}

	args, err := readArgs(name, e.NormalizeParams(p))
	if err != nil {
		return nil, indicator.Calculation(Name, name, err)
	}
	lookback := args.Lookback(name)
	if data.Len() <= lookback {
		return nil, indicator.Calculation(Name, name,
			fmt.Errorf("%w: %d строк, прогрев %d", indicator.ErrInsufficientData, data.Len(), lookback))
	}

	// TA-Lib паникует на части некорректных входов
	defer func() {
		if r := recover(); r != nil {
			raw = nil
			err = indicator.Calculation(Name, name, fmt.Errorf("паника в TA-Lib: %v", r))
		}
	}()

	raw, err = compute(name, data, args)
	if err != nil {
		return nil, indicator.Calculation(Name, name, err)
	}
	// TA-Lib заполняет прогрев нулями
	for _, s := range raw {
		indicator.MaskWarmup(s, lookback)
	}
	return raw, nil
}

// readArgs читает аргументы по нативным именам
func readArgs(name string, args indicator.Params) (indicator.Settings, error) {
	canonical := make(indicator.Params, len(args))
	for k, v := range args {
		canonical[k] = v
	}
	for c, natives := range nativeNames {
		for _, n := range natives {
			if v, ok := args[n]; ok {
				canonical[c] = v
				break
			}
		}
	}
	return indicator.ResolveSettings(name, canonical)
}

func compute(name string, data *models.Table, a indicator.Settings) (indicator.Raw, error) {
	h, l, c, v := data.High, data.Low, data.Close, data.Volume
	ma := talib.MaType(a.MAType)

	switch name {
	case indicator.SMA:
		return indicator.Raw{talib.Sma(c, a.Period)}, nil
	case indicator.EMA:
		return indicator.Raw{talib.Ema(c, a.Period)}, nil
	case indicator.WMA:
		return indicator.Raw{talib.Wma(c, a.Period)}, nil
	case indicator.DEMA:
		return indicator.Raw{talib.Dema(c, a.Period)}, nil
	case indicator.TEMA:
		return indicator.Raw{talib.Tema(c, a.Period)}, nil
	case indicator.MACD:
		return macd(c, a), nil
	case indicator.RSI:
		return indicator.Raw{talib.Rsi(c, a.Period)}, nil
	case indicator.BBANDS:
		upper, middle, lower := talib.BBands(c, a.Period, a.StdDev, a.StdDev, ma)
		return indicator.Raw{upper, middle, lower}, nil
	case indicator.ATR:
		return indicator.Raw{talib.Atr(h, l, c, a.Period)}, nil
	case indicator.NATR:
		return indicator.Raw{talib.Natr(h, l, c, a.Period)}, nil
	case indicator.STOCH:
		slowK, slowD := stoch(h, l, c, a)
		return indicator.Raw{slowK, slowD}, nil
	case indicator.KDJ:
		slowK, slowD := stoch(h, l, c, a)
		j := make([]float64, len(slowK))
		for i := range slowK {
			j[i] = 3*slowK[i] - 2*slowD[i]
		}
		return indicator.Raw{slowK, slowD, j}, nil
	case indicator.STOCHF:
		fastK := fastStoch(h, l, c, a.FastKPeriod)
		return indicator.Raw{fastK, segmentMA(fastK, a.FastKPeriod-1, a.FastDPeriod, ma)}, nil
	case indicator.OBV:
		return indicator.Raw{talib.Obv(c, v)}, nil
	case indicator.CCI:
		return indicator.Raw{talib.Cci(h, l, c, a.Period)}, nil
	case indicator.ROC:
		return indicator.Raw{talib.Roc(c, a.Period)}, nil
	case indicator.MOM:
		return indicator.Raw{talib.Mom(c, a.Period)}, nil
	case indicator.WILLR:
		return indicator.Raw{talib.WillR(h, l, c, a.Period)}, nil
	case indicator.ADX:
		return indicator.Raw{talib.Adx(h, l, c, a.Period)}, nil
	case indicator.MFI:
		return indicator.Raw{talib.Mfi(h, l, c, v, a.Period)}, nil
	}
	return nil, fmt.Errorf("нет привязки TA-Lib для %s", name)
}

// Многоступенчатые индикаторы собираются из примитивов TA-Lib: каждое
// следующее среднее считается только по определенной части предыдущей ступени.

// segmentMA считает скользящее среднее по src[start:] и выравнивает результат по src
func segmentMA(src []float64, start, period int, ma talib.MaType) []float64 {
	out := make([]float64, len(src))
	if start >= len(src) {
		return out
	}
	copy(out[start:], talib.Ma(src[start:], period, ma))
	return out
}

func macd(c []float64, a indicator.Settings) indicator.Raw {
	fast, slow := a.FastPeriod, a.SlowPeriod
	if slow < fast {
		fast, slow = slow, fast
	}
	fastEMA := talib.Ema(c, fast)
	slowEMA := talib.Ema(c, slow)

	line := make([]float64, len(c))
	for i := slow - 1; i < len(c); i++ {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	signal := segmentMA(line, slow-1, a.SignalPeriod, talib.EMA)
	hist := make([]float64, len(c))
	for i := range c {
		hist[i] = line[i] - signal[i]
	}
	return indicator.Raw{line, signal, hist}
}

// fastStoch сырой %K по скользящим экстремумам; нулевой диапазон дает 0
func fastStoch(h, l, c []float64, period int) []float64 {
	highest := talib.Max(h, period)
	lowest := talib.Min(l, period)
	out := make([]float64, len(c))
	for i := period - 1; i < len(c); i++ {
		if diff := highest[i] - lowest[i]; diff != 0 {
			out[i] = (c[i] - lowest[i]) / diff * 100
		}
	}
	return out
}

func stoch(h, l, c []float64, a indicator.Settings) ([]float64, []float64) {
	ma := talib.MaType(a.MAType)
	fastK := fastStoch(h, l, c, a.FastKPeriod)
	slowK := segmentMA(fastK, a.FastKPeriod-1, a.SlowKPeriod, ma)
	slowD := segmentMA(slowK, a.FastKPeriod-1+a.SlowKPeriod-1, a.SlowDPeriod, ma)
	return slowK, slowD
}
