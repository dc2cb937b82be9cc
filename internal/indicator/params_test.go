package indicator

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalizeParams_Aliases(t *testing.T) {
	cases := []struct {
		name string
		in   Params
		want Params
	}{
		{"timeperiod", Params{"timeperiod": 20}, Params{ParamPeriod: 20}},
		{"window", Params{"window": 5}, Params{ParamPeriod: 5}},
		{"upper case key", Params{" Length ": 7}, Params{ParamPeriod: 7}},
		{"macd", Params{"fastperiod": 12, "slow": 26, "n3": 9},
			Params{ParamFastPeriod: 12, ParamSlowPeriod: 26, ParamSignalPeriod: 9}},
		{"nbdevup", Params{"nbdevup": 2.5}, Params{ParamStdDev: 2.5}},
		{"matype", Params{"matype": 1}, Params{ParamMAType: 1}},
		{"unknown passes", Params{"foo": "bar"}, Params{"foo": "bar"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeParams(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNormalizeParams_CanonicalWins(t *testing.T) {
	got := NormalizeParams(Params{"period": 10, "timeperiod": 30, "n": 40})
	if got[ParamPeriod] != 10 {
		t.Errorf("period = %v, want 10", got[ParamPeriod])
	}
	if len(got) != 1 {
		t.Errorf("aliases must be dropped, got %v", got)
	}
}

func TestNormalizeParams_FirstAliasWins(t *testing.T) {
	got := NormalizeParams(Params{"length": 40, "timeperiod": 30})
	if got[ParamPeriod] != 30 {
		t.Errorf("period = %v, want 30 (timeperiod precedes length)", got[ParamPeriod])
	}
}

func TestNormalizeParams_Idempotent(t *testing.T) {
	in := Params{"timeperiod": 14, "nbdev": 2, "slowk": 3, "custom": true}
	once := NormalizeParams(in)
	twice := NormalizeParams(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("not idempotent: %v vs %v", once, twice)
	}
}

func TestNormalizeParams_DoesNotMutateInput(t *testing.T) {
	in := Params{"timeperiod": 14}
	NormalizeParams(in)
	if _, ok := in["timeperiod"]; !ok || len(in) != 1 {
		t.Errorf("input mutated: %v", in)
	}
}

func TestParams_Numbers(t *testing.T) {
	p := Params{"a": 3, "b": "4.5", "c": 2.5, "d": "x", "e": []int{1}}

	if v, err := p.Float("b", 0); err != nil || v != 4.5 {
		t.Errorf("Float(b) = %v, %v", v, err)
	}
	if v, err := p.Int("a", 0); err != nil || v != 3 {
		t.Errorf("Int(a) = %v, %v", v, err)
	}
	if v, err := p.Int("missing", 9); err != nil || v != 9 {
		t.Errorf("Int(missing) = %v, %v", v, err)
	}
	if _, err := p.Int("c", 0); !errors.Is(err, ErrBadParameter) {
		t.Errorf("Int(c) err = %v, want ErrBadParameter", err)
	}
	if _, err := p.Float("d", 0); !errors.Is(err, ErrBadParameter) {
		t.Errorf("Float(d) err = %v, want ErrBadParameter", err)
	}
	if _, err := p.Float("e", 0); !errors.Is(err, ErrBadParameter) {
		t.Errorf("Float(e) err = %v, want ErrBadParameter", err)
	}
	if _, err := (Params{"period": 0}).Period("period", 14); !errors.Is(err, ErrBadParameter) {
		t.Errorf("Period(0) err = %v, want ErrBadParameter", err)
	}
}

func TestParams_String(t *testing.T) {
	p := Params{"b": 2, "a": 1}
	if got := p.String(); got != "a=1,b=2" {
		t.Errorf("String() = %q", got)
	}
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams(" period=20, std_dev=2.5 ,ma_type=0,label=fast,")
	if err != nil {
		t.Fatalf("ParseParams: %v", err)
	}
	want := Params{"period": 20.0, "std_dev": 2.5, "ma_type": 0.0, "label": "fast"}
	if !reflect.DeepEqual(p, want) {
		t.Errorf("got %v, want %v", p, want)
	}

	if _, err := ParseParams("period"); !errors.Is(err, ErrBadParameter) {
		t.Errorf("err = %v, want ErrBadParameter", err)
	}
	if p, err := ParseParams(""); err != nil || len(p) != 0 {
		t.Errorf("empty: %v, %v", p, err)
	}
}

func TestResolveSettings(t *testing.T) {
	s, err := ResolveSettings(MACD, Params{})
	if err != nil {
		t.Fatal(err)
	}
	if s.FastPeriod != 12 || s.SlowPeriod != 26 || s.SignalPeriod != 9 {
		t.Errorf("macd defaults = %+v", s)
	}
	if got := s.Lookback(MACD); got != 33 {
		t.Errorf("macd lookback = %d, want 33", got)
	}

	s, err = ResolveSettings(KDJ, Params{})
	if err != nil {
		t.Fatal(err)
	}
	if s.FastKPeriod != 9 {
		t.Errorf("kdj fastk = %d, want 9", s.FastKPeriod)
	}

	s, err = ResolveSettings(SMA, Params{ParamPeriod: 5})
	if err != nil {
		t.Fatal(err)
	}
	if s.Period != 5 || s.Lookback(SMA) != 4 {
		t.Errorf("sma = %+v lookback %d", s, s.Lookback(SMA))
	}

	if _, err := ResolveSettings(SMA, Params{ParamPeriod: -1}); !errors.Is(err, ErrBadParameter) {
		t.Errorf("err = %v, want ErrBadParameter", err)
	}
}

func TestNormalizeParams_CaseVariants(t *testing.T) {
	for i := 0; i < 50; i++ {
		got := NormalizeParams(Params{"PERIOD": 3, "Period": 1, "period": 2})
		if got[ParamPeriod] != 2 || len(got) != 1 {
			t.Fatalf("run %d: got %v, want period=2", i, got)
		}
	}
	for i := 0; i < 50; i++ {
		got := NormalizeParams(Params{"TimePeriod": 5, "timeperiod": 6})
		if got[ParamPeriod] != 6 {
			t.Fatalf("run %d: got %v, want period=6", i, got)
		}
	}
	// без точного ключа побеждает первый в порядке сортировки
	got := NormalizeParams(Params{"Window": 8, "WINDOW": 9})
	if got[ParamPeriod] != 9 {
		t.Errorf("got %v, want period=9", got)
	}
}

func TestResolveSettings_MATypeRange(t *testing.T) {
	for _, ma := range []int{MATypeSMA, MATypeEMA, MATypeWMA} {
		if _, err := ResolveSettings(BBANDS, Params{ParamMAType: ma}); err != nil {
			t.Errorf("ma_type %d: %v", ma, err)
		}
	}
	for _, ma := range []int{-1, 3, 8} {
		if _, err := ResolveSettings(STOCH, Params{ParamMAType: ma}); !errors.Is(err, ErrBadParameter) {
			t.Errorf("ma_type %d: err = %v, want ErrBadParameter", ma, err)
		}
	}
}
