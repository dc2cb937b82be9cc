package fallback

import (
	"math"

	"github.com/skalibog/indcalc/internal/indicator"
)

func undefined(n int) indicator.Series {
	s := make(indicator.Series, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

// firstDefined возвращает индекс первого определенного значения или len(src)
func firstDefined(src []float64) int {
	for i, v := range src {
		if !math.IsNaN(v) {
			return i
		}
	}
	return len(src)
}

// sma простое скользящее среднее по скользящей сумме
func sma(src []float64, period int) indicator.Series {
	out := undefined(len(src))
	start := firstDefined(src)
	sum := 0.0
	for i := start; i < len(src); i++ {
		sum += src[i]
		if i-start >= period {
			sum -= src[i-period]
		}
		if i-start >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// ema экспоненциальное среднее с затравкой SMA за первые period значений
func ema(src []float64, period int) indicator.Series {
	out := undefined(len(src))
	start := firstDefined(src)
	seed := start + period - 1
	if seed >= len(src) {
		return out
	}

	sum := 0.0
	for i := start; i <= seed; i++ {
		sum += src[i]
	}
	prev := sum / float64(period)
	out[seed] = prev

	k := 2.0 / float64(period+1)
	for i := seed + 1; i < len(src); i++ {
		prev = (src[i]-prev)*k + prev
		out[i] = prev
	}
	return out
}

// wma линейно взвешенное среднее
func wma(src []float64, period int) indicator.Series {
	out := undefined(len(src))
	start := firstDefined(src)
	divider := float64(period*(period+1)) / 2
	for i := start + period - 1; i < len(src); i++ {
		sum := 0.0
		for j := 0; j < period; j++ {
			sum += src[i-j] * float64(period-j)
		}
		out[i] = sum / divider
	}
	return out
}

// movingAverage поддерживает ma_type 0 (SMA), 1 (EMA) и 2 (WMA)
func movingAverage(src []float64, period, maType int) (indicator.Series, bool) {
	switch maType {
	case 0:
		return sma(src, period), true
	case 1:
		return ema(src, period), true
	case 2:
		return wma(src, period), true
	}
	return nil, false
}

// stddev стандартное отклонение генеральной совокупности в окне
func stddev(src []float64, period int) indicator.Series {
	out := undefined(len(src))
	for i := period - 1; i < len(src); i++ {
		mean := 0.0
		for j := i - period + 1; j <= i; j++ {
			mean += src[j]
		}
		mean /= float64(period)
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := src[j] - mean
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(period))
	}
	return out
}

// wilderRSI индекс относительной силы со сглаживанием Уайлдера
func wilderRSI(src []float64, period int) indicator.Series {
	out := undefined(len(src))
	if len(src) <= period {
		return out
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		change := src[i] - src[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	p := float64(period)
	for i := period + 1; i < len(src); i++ {
		change := src[i] - src[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 0
		}
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

func trueRange(high, low, close []float64) indicator.Series {
	out := undefined(len(close))
	for i := 1; i < len(close); i++ {
		tr := high[i] - low[i]
		tr = math.Max(tr, math.Abs(high[i]-close[i-1]))
		tr = math.Max(tr, math.Abs(low[i]-close[i-1]))
		out[i] = tr
	}
	return out
}

// wilderATR средний истинный диапазон: SMA затравка, затем сглаживание Уайлдера
func wilderATR(high, low, close []float64, period int) indicator.Series {
	out := undefined(len(close))
	if len(close) <= period {
		return out
	}
	tr := trueRange(high, low, close)

	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}
	prev := sum / float64(period)
	out[period] = prev

	p := float64(period)
	for i := period + 1; i < len(close); i++ {
		prev = (prev*(p-1) + tr[i]) / p
		out[i] = prev
	}
	return out
}

// highestLowest максимум и минимум в окне
func highestLowest(high, low []float64, i, period int) (float64, float64) {
	hh, ll := math.Inf(-1), math.Inf(1)
	for j := i - period + 1; j <= i; j++ {
		hh = math.Max(hh, high[j])
		ll = math.Min(ll, low[j])
	}
	return hh, ll
}

// fastStochastic сырой %K
func fastStochastic(high, low, close []float64, period int) indicator.Series {
	out := undefined(len(close))
	for i := period - 1; i < len(close); i++ {
		hh, ll := highestLowest(high, low, i, period)
		if diff := hh - ll; diff != 0 {
			out[i] = (close[i] - ll) / diff * 100
		} else {
			out[i] = 0
		}
	}
	return out
}

func williamsR(high, low, close []float64, period int) indicator.Series {
	out := undefined(len(close))
	for i := period - 1; i < len(close); i++ {
		hh, ll := highestLowest(high, low, i, period)
		if diff := hh - ll; diff != 0 {
			out[i] = (hh - close[i]) / diff * -100
		} else {
			out[i] = 0
		}
	}
	return out
}

func cci(high, low, close []float64, period int) indicator.Series {
	out := undefined(len(close))
	tp := make([]float64, len(close))
	for i := range close {
		tp[i] = (high[i] + low[i] + close[i]) / 3
	}
	for i := period - 1; i < len(close); i++ {
		mean := 0.0
		for j := i - period + 1; j <= i; j++ {
			mean += tp[j]
		}
		mean /= float64(period)
		dev := 0.0
		for j := i - period + 1; j <= i; j++ {
			dev += math.Abs(tp[j] - mean)
		}
		dev /= float64(period)
		if dev == 0 {
			out[i] = 0
			continue
		}
		out[i] = (tp[i] - mean) / (0.015 * dev)
	}
	return out
}

func obv(close, volume []float64) indicator.Series {
	out := make(indicator.Series, len(close))
	if len(close) == 0 {
		return out
	}
	prev := volume[0]
	out[0] = prev
	for i := 1; i < len(close); i++ {
		switch {
		case close[i] > close[i-1]:
			prev += volume[i]
		case close[i] < close[i-1]:
			prev -= volume[i]
		}
		out[i] = prev
	}
	return out
}

func roc(src []float64, period int) indicator.Series {
	out := undefined(len(src))
	for i := period; i < len(src); i++ {
		if base := src[i-period]; base != 0 {
			out[i] = (src[i]/base - 1) * 100
		} else {
			out[i] = 0
		}
	}
	return out
}

func momentum(src []float64, period int) indicator.Series {
	out := undefined(len(src))
	for i := period; i < len(src); i++ {
		out[i] = src[i] - src[i-period]
	}
	return out
}
