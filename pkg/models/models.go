package models

import (
	"time"
)

// Candle представляет свечу
type Candle struct {
	Symbol    string
	Interval  string
	OpenTime  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime time.Time
}

// Имена колонок OHLCV-таблицы
const (
	ColumnOpen   = "open"
	ColumnHigh   = "high"
	ColumnLow    = "low"
	ColumnClose  = "close"
	ColumnVolume = "volume"
)

// Table представляет OHLCV-таблицу в колоночном виде.
// Пустая (nil) колонка считается отсутствующей.
type Table struct {
	Timestamps []time.Time
	Open       []float64
	High       []float64
	Low        []float64
	Close      []float64
	Volume     []float64
}

// Bar представляет одну строку таблицы
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// NewTable собирает таблицу из последовательности свечей
func NewTable(candles []*Candle) *Table {
	t := &Table{
		Timestamps: make([]time.Time, len(candles)),
		Open:       make([]float64, len(candles)),
		High:       make([]float64, len(candles)),
		Low:        make([]float64, len(candles)),
		Close:      make([]float64, len(candles)),
		Volume:     make([]float64, len(candles)),
	}
	for i, c := range candles {
		t.Timestamps[i] = c.OpenTime
		t.Open[i] = c.Open
		t.High[i] = c.High
		t.Low[i] = c.Low
		t.Close[i] = c.Close
		t.Volume[i] = c.Volume
	}
	return t
}

// Len возвращает количество баров
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Timestamps)
}

// Column возвращает колонку по имени или nil
func (t *Table) Column(name string) []float64 {
	if t == nil {
		return nil
	}
	switch name {
	case ColumnOpen:
		return t.Open
	case ColumnHigh:
		return t.High
	case ColumnLow:
		return t.Low
	case ColumnClose:
		return t.Close
	case ColumnVolume:
		return t.Volume
	}
	return nil
}

// Has сообщает, присутствует ли колонка и совпадает ли её длина с индексом
func (t *Table) Has(name string) bool {
	col := t.Column(name)
	return len(col) > 0 && len(col) == t.Len()
}

// Columns возвращает список присутствующих колонок
func (t *Table) Columns() []string {
	var cols []string
	for _, name := range []string{ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume} {
		if t.Has(name) {
			cols = append(cols, name)
		}
	}
	return cols
}

// Last возвращает последний бар; отсутствующие колонки дают нули
func (t *Table) Last() (Bar, bool) {
	n := t.Len()
	if n == 0 {
		return Bar{}, false
	}
	bar := Bar{Timestamp: t.Timestamps[n-1]}
	if t.Has(ColumnOpen) {
		bar.Open = t.Open[n-1]
	}
	if t.Has(ColumnHigh) {
		bar.High = t.High[n-1]
	}
	if t.Has(ColumnLow) {
		bar.Low = t.Low[n-1]
	}
	if t.Has(ColumnClose) {
		bar.Close = t.Close[n-1]
	}
	if t.Has(ColumnVolume) {
		bar.Volume = t.Volume[n-1]
	}
	return bar, true
}
