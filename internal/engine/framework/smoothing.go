package framework

import (
	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
)

// smoothedIndicator экспоненциальное сглаживание src с затравкой SMA.
// Первое значение приходится на индекс start+window-1; до него возвращается ноль.
// alpha = 2/(window+1) дает EMA, alpha = 1/window дает сглаживание Уайлдера.
type smoothedIndicator struct {
	src    techan.Indicator
	window int
	start  int
	alpha  big.Decimal
	values []big.Decimal
}

func newEMA(src techan.Indicator, window, start int) *smoothedIndicator {
	return &smoothedIndicator{
		src:    src,
		window: window,
		start:  start,
		alpha:  big.NewDecimal(2.0 / float64(window+1)),
	}
}

func newWilder(src techan.Indicator, window, start int) *smoothedIndicator {
	return &smoothedIndicator{
		src:    src,
		window: window,
		start:  start,
		alpha:  big.NewDecimal(1.0 / float64(window)),
	}
}

func (s *smoothedIndicator) Calculate(index int) big.Decimal {
	seed := s.start + s.window - 1
	if index < seed {
		return big.ZERO
	}
	if len(s.values) == 0 {
		sum := big.ZERO
		for i := s.start; i <= seed; i++ {
			sum = sum.Add(s.src.Calculate(i))
		}
		s.values = append(s.values, sum.Div(big.NewFromInt(s.window)))
	}
	for i := seed + len(s.values); i <= index; i++ {
		prev := s.values[len(s.values)-1]
		s.values = append(s.values, prev.Add(s.src.Calculate(i).Sub(prev).Mul(s.alpha)))
	}
	return s.values[index-seed]
}

// trueRangeIndicator истинный диапазон бара; для первого бара high-low
type trueRangeIndicator struct {
	series *techan.TimeSeries
}

func (t trueRangeIndicator) Calculate(index int) big.Decimal {
	c := t.series.Candles[index]
	tr := c.MaxPrice.Sub(c.MinPrice)
	if index == 0 {
		return tr
	}
	prevClose := t.series.Candles[index-1].ClosePrice
	if v := c.MaxPrice.Sub(prevClose).Abs(); v.GT(tr) {
		tr = v
	}
	if v := c.MinPrice.Sub(prevClose).Abs(); v.GT(tr) {
		tr = v
	}
	return tr
}

// changeIndicator положительная (gains) или отрицательная по модулю часть изменения src
type changeIndicator struct {
	src   techan.Indicator
	gains bool
}

func (c changeIndicator) Calculate(index int) big.Decimal {
	if index == 0 {
		return big.ZERO
	}
	diff := c.src.Calculate(index).Sub(c.src.Calculate(index - 1))
	if !c.gains {
		diff = diff.Neg()
	}
	if diff.GT(big.ZERO) {
		return diff
	}
	return big.ZERO
}

// rsiIndicator RSI по сглаженным Уайлдером приростам и потерям
type rsiIndicator struct {
	gains, losses techan.Indicator
}

func newRSI(closes techan.Indicator, window int) rsiIndicator {
	return rsiIndicator{
		gains:  newWilder(changeIndicator{src: closes, gains: true}, window, 1),
		losses: newWilder(changeIndicator{src: closes}, window, 1),
	}
}

func (r rsiIndicator) Calculate(index int) big.Decimal {
	gain, loss := r.gains.Calculate(index), r.losses.Calculate(index)
	hundred := big.NewFromInt(100)
	if loss.EQ(big.ZERO) {
		if gain.EQ(big.ZERO) {
			return big.ZERO
		}
		return hundred
	}
	return hundred.Sub(hundred.Div(big.ONE.Add(gain.Div(loss))))
}

// fastStochasticIndicator %K; при нулевом диапазоне окна возвращает ноль
type fastStochasticIndicator struct {
	closes, lowest, highest techan.Indicator
}

func newFastStochastic(series *techan.TimeSeries, window int) fastStochasticIndicator {
	return fastStochasticIndicator{
		closes:  techan.NewClosePriceIndicator(series),
		lowest:  techan.NewMinimumValueIndicator(techan.NewLowPriceIndicator(series), window),
		highest: techan.NewMaximumValueIndicator(techan.NewHighPriceIndicator(series), window),
	}
}

func (k fastStochasticIndicator) Calculate(index int) big.Decimal {
	lo, hi := k.lowest.Calculate(index), k.highest.Calculate(index)
	if hi.EQ(lo) {
		return big.ZERO
	}
	return k.closes.Calculate(index).Sub(lo).Div(hi.Sub(lo)).Mul(big.NewFromInt(100))
}

// cciIndicator индекс товарного канала; среднее отклонение берется по типичной цене
type cciIndicator struct {
	typical, mean, deviation techan.Indicator
}

func newCCI(series *techan.TimeSeries, window int) cciIndicator {
	typical := techan.NewTypicalPriceIndicator(series)
	return cciIndicator{
		typical:   typical,
		mean:      techan.NewSimpleMovingAverage(typical, window),
		deviation: techan.NewMeanDeviationIndicator(typical, window),
	}
}

func (c cciIndicator) Calculate(index int) big.Decimal {
	dev := c.deviation.Calculate(index)
	if dev.EQ(big.ZERO) {
		return big.ZERO
	}
	return c.typical.Calculate(index).Sub(c.mean.Calculate(index)).Div(dev.Mul(big.NewFromString("0.015")))
}
