package indicator

import "fmt"

// Типы скользящих средних для ma_type; нумерация совпадает с TA-Lib
const (
	MATypeSMA = 0
	MATypeEMA = 1
	MATypeWMA = 2
)

// Settings разрешенные числовые параметры с учетом значений по умолчанию
type Settings struct {
	Period       int
	FastPeriod   int
	SlowPeriod   int
	SignalPeriod int
	StdDev       float64
	MAType       int
	FastKPeriod  int
	SlowKPeriod  int
	SlowDPeriod  int
	FastDPeriod  int
}

// ResolveSettings читает канонические параметры индикатора
func ResolveSettings(name string, p Params) (Settings, error) {
	var (
		s   Settings
		err error
	)
	if s.Period, err = p.Period(ParamPeriod, DefaultPeriod(name)); err != nil {
		return s, err
	}
	if s.FastPeriod, err = p.Period(ParamFastPeriod, 12); err != nil {
		return s, err
	}
	if s.SlowPeriod, err = p.Period(ParamSlowPeriod, 26); err != nil {
		return s, err
	}
	if s.SignalPeriod, err = p.Period(ParamSignalPeriod, 9); err != nil {
		return s, err
	}
	if s.StdDev, err = p.Float(ParamStdDev, 2); err != nil {
		return s, err
	}
	if s.MAType, err = p.Int(ParamMAType, MATypeSMA); err != nil {
		return s, err
	}
	// Прогрев считается только для этих средних
	if s.MAType < MATypeSMA || s.MAType > MATypeWMA {
		return s, fmt.Errorf("%w: %s=%d, допустимо 0 (SMA), 1 (EMA), 2 (WMA)", ErrBadParameter, ParamMAType, s.MAType)
	}
	fastK := 14
	if name == KDJ {
		fastK = 9
	}
	if s.FastKPeriod, err = p.Period(ParamFastKPeriod, fastK); err != nil {
		return s, err
	}
	if s.SlowKPeriod, err = p.Period(ParamSlowKPeriod, 3); err != nil {
		return s, err
	}
	if s.SlowDPeriod, err = p.Period(ParamSlowDPeriod, 3); err != nil {
		return s, err
	}
	if s.FastDPeriod, err = p.Period(ParamFastDPeriod, 3); err != nil {
		return s, err
	}
	return s, nil
}

// Lookback возвращает количество строк прогрева индикатора
func (s Settings) Lookback(name string) int {
	switch name {
	case SMA, EMA, WMA, BBANDS, CCI, WILLR:
		return s.Period - 1
	case DEMA:
		return 2 * (s.Period - 1)
	case TEMA:
		return 3 * (s.Period - 1)
	case RSI, ATR, NATR, ROC, MOM, MFI:
		return s.Period
	case ADX:
		return 2*s.Period - 1
	case MACD:
		slow := s.SlowPeriod
		if s.FastPeriod > slow {
			slow = s.FastPeriod
		}
		return slow - 1 + s.SignalPeriod - 1
	case STOCH, KDJ:
		return s.FastKPeriod - 1 + s.SlowKPeriod - 1 + s.SlowDPeriod - 1
	case STOCHF:
		return s.FastKPeriod - 1 + s.FastDPeriod - 1
	}
	return 0
}
