package indicator

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Канонические имена параметров
const (
	ParamPeriod       = "period"
	ParamFastPeriod   = "fast_period"
	ParamSlowPeriod   = "slow_period"
	ParamSignalPeriod = "signal_period"
	ParamStdDev       = "std_dev"
	ParamMAType       = "ma_type"
	ParamFastKPeriod  = "fastk_period"
	ParamSlowKPeriod  = "slowk_period"
	ParamSlowDPeriod  = "slowd_period"
	ParamFastDPeriod  = "fastd_period"
)

// Params параметры расчета индикатора
type Params map[string]any

type aliasRule struct {
	canonical string
	aliases   []string
}

// aliasTable порядок алиасов значим: побеждает первый найденный
var aliasTable = []aliasRule{
	{ParamPeriod, []string{"timeperiod", "n", "window", "length"}},
	{ParamFastPeriod, []string{"fastperiod", "n1", "fast"}},
	{ParamSlowPeriod, []string{"slowperiod", "n2", "slow"}},
	{ParamSignalPeriod, []string{"signalperiod", "n3", "signal"}},
	{ParamStdDev, []string{"nbdevup", "nbdevdn", "nbdev", "width"}},
	{ParamMAType, []string{"matype"}},
	{ParamFastKPeriod, []string{"fastk", "k_period"}},
	{ParamSlowKPeriod, []string{"slowk", "smooth_k"}},
	{ParamSlowDPeriod, []string{"slowd", "d_period"}},
	{ParamFastDPeriod, []string{"fastd"}},
}

var aliasOwner = func() map[string]string {
	m := make(map[string]string)
	for _, rule := range aliasTable {
		for _, a := range rule.aliases {
			m[a] = rule.canonical
		}
	}
	return m
}()

// NormalizeParams приводит алиасы к каноническим ключам.
// Нераспознанные ключи переносятся без изменений.
func NormalizeParams(p Params) Params {
	folded := foldKeys(p)
	out := make(Params, len(folded))
	for k, v := range folded {
		if _, isAlias := aliasOwner[k]; !isAlias {
			out[k] = v
		}
	}

	for _, rule := range aliasTable {
		if _, ok := out[rule.canonical]; ok {
			continue
		}
		for _, a := range rule.aliases {
			if v, ok := folded[a]; ok {
				out[rule.canonical] = v
				break
			}
		}
	}
	return out
}

// foldKeys приводит ключи к нижнему регистру. Из ключей, различающихся
// только регистром, побеждает записанный в нижнем регистре, иначе первый по сортировке.
func foldKeys(p Params) map[string]any {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(p))
	exact := make(map[string]bool, len(p))
	for _, key := range keys {
		k := strings.ToLower(strings.TrimSpace(key))
		switch {
		case key == k:
			out[k] = p[key]
			exact[k] = true
		case exact[k]:
		default:
			if _, seen := out[k]; !seen {
				out[k] = p[key]
			}
		}
	}
	return out
}

// Rename переименовывает канонические ключи в нативные имена движка
func (p Params) Rename(mapping map[string][]string) Params {
	out := make(Params, len(p))
	for k, v := range p {
		names, ok := mapping[k]
		if !ok {
			out[k] = v
			continue
		}
		for _, n := range names {
			out[n] = v
		}
	}
	return out
}

// Float возвращает числовой параметр или значение по умолчанию
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case uint:
		f = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q", ErrBadParameter, key, x)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: %s имеет тип %T", ErrBadParameter, key, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s=%v", ErrBadParameter, key, f)
	}
	return f, nil
}

// Int возвращает целочисленный параметр или значение по умолчанию
func (p Params) Int(key string, def int) (int, error) {
	f, err := p.Float(key, float64(def))
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s=%v не целое", ErrBadParameter, key, f)
	}
	return int(f), nil
}

// Period возвращает положительный целочисленный период
func (p Params) Period(key string, def int) (int, error) {
	n, err := p.Int(key, def)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %s=%d должен быть >= 1", ErrBadParameter, key, n)
	}
	return n, nil
}

// String возвращает детерминированное представление параметров
func (p Params) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%v", k, p[k])
	}
	return b.String()
}

// ParseParams разбирает строку вида "period=20,std_dev=2"
func ParseParams(s string) (Params, error) {
	p := Params{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadParameter, part)
		}
		v = strings.TrimSpace(v)
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			p[strings.TrimSpace(k)] = f
		} else {
			p[strings.TrimSpace(k)] = v
		}
	}
	return p, nil
}
