package indicator

import (
	"fmt"
	"math"
	"sort"
)

// Series числовая серия, выровненная по строкам входной таблицы.
// Строки прогрева содержат NaN.
type Series []float64

// Raw позиционный результат движка в порядке Outputs(name)
type Raw []Series

// Result отображение имя выхода -> серия
type Result map[string]Series

// Undefined маркер неопределенного значения
func Undefined() float64 { return math.NaN() }

// IsUndefined сообщает, является ли значение маркером прогрева
func IsUndefined(v float64) bool { return math.IsNaN(v) }

// Names возвращает отсортированные имена выходов
func (r Result) Names() []string {
	names := make([]string, 0, len(r))
	for k := range r {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Primary возвращает основную серию индикатора
func (r Result) Primary(name string) Series {
	return r[Outputs(name)[0]]
}

// Clone возвращает глубокую копию результата
func (r Result) Clone() Result {
	if r == nil {
		return nil
	}
	out := make(Result, len(r))
	copied := make(map[*float64]Series)
	for k, s := range r {
		if len(s) > 0 {
			if c, ok := copied[&s[0]]; ok {
				out[k] = c
				continue
			}
		}
		c := make(Series, len(s))
		copy(c, s)
		if len(s) > 0 {
			copied[&s[0]] = c
		}
		out[k] = c
	}
	return out
}

// FormatResult приводит позиционный результат движка к каноническому виду.
// Раскладка определяется только именем индикатора.
func FormatResult(name string, raw Raw, rows int) (Result, error) {
	outs := Outputs(name)
	if len(raw) < len(outs) {
		return nil, fmt.Errorf("%s: ожидалось %d выходов, получено %d", name, len(outs), len(raw))
	}

	result := make(Result, len(outs))
	for i, out := range outs {
		s, err := align(raw[i], rows)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, out, err)
		}
		result[out] = s
	}

	for full, short := range shortAliases[name] {
		result[short] = result[full]
	}
	return result, nil
}

// align дополняет серию слева маркерами до длины таблицы
func align(s Series, rows int) (Series, error) {
	switch {
	case len(s) == rows:
		return s, nil
	case len(s) > rows:
		return nil, fmt.Errorf("длина серии %d больше числа строк %d", len(s), rows)
	}
	out := make(Series, rows)
	pad := rows - len(s)
	for i := 0; i < pad; i++ {
		out[i] = Undefined()
	}
	copy(out[pad:], s)
	return out, nil
}

// MaskWarmup помечает первые lookback строк как неопределенные
func MaskWarmup(s Series, lookback int) Series {
	for i := 0; i < lookback && i < len(s); i++ {
		s[i] = Undefined()
	}
	return s
}
