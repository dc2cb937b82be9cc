package calculation

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skalibog/indcalc/internal/config"
	"github.com/skalibog/indcalc/internal/engine/fallback"
	"github.com/skalibog/indcalc/internal/indicator"
	"github.com/skalibog/indcalc/pkg/models"
	"go.uber.org/zap"
)

func linear(n int) *models.Table {
	t := &models.Table{}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := 100 + float64(i)
		t.Timestamps = append(t.Timestamps, start.Add(time.Duration(i)*time.Hour))
		t.Open = append(t.Open, c)
		t.High = append(t.High, c+1)
		t.Low = append(t.Low, c-1)
		t.Close = append(t.Close, c)
		t.Volume = append(t.Volume, 1000)
	}
	return t
}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

// spyEngine движок для тестов: считает вызовы и возвращает заданный исход
type spyEngine struct {
	indicator.Capability
	calls   atomic.Int32
	raw     indicator.Raw
	err     error
	panicky bool
}

func newSpy(name string, inds ...string) *spyEngine {
	return &spyEngine{Capability: indicator.NewCapability(name, true, inds...)}
}

func (s *spyEngine) Calculate(name string, data *models.Table, _ indicator.Params) (indicator.Raw, error) {
	s.calls.Add(1)
	if s.panicky {
		panic("сбой движка")
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.raw != nil {
		return s.raw, nil
	}
	out := make(indicator.Series, data.Len())
	for i := range out {
		out[i] = -1
	}
	return indicator.Raw{out}, nil
}

type countingObserver struct {
	mu       sync.Mutex
	hits     int
	misses   int
	attempts map[string]int
	calcs    int
	failures int
	names    []string
}

func newCountingObserver() *countingObserver {
	return &countingObserver{attempts: make(map[string]int)}
}

func (o *countingObserver) CacheHit(string)  { o.mu.Lock(); o.hits++; o.mu.Unlock() }
func (o *countingObserver) CacheMiss(string) { o.mu.Lock(); o.misses++; o.mu.Unlock() }

func (o *countingObserver) EngineAttempt(engine, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts[engine+"/"+outcome]++
}

func (o *countingObserver) Calculated(name string, _ time.Duration, success bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calcs++
	o.names = append(o.names, name)
	if !success {
		o.failures++
	}
}

func newService(engines []indicator.Engine, opts ...Option) *Service {
	return New(engines, append([]Option{WithLogger(zap.NewNop())}, opts...)...)
}

func defaultService(opts ...Option) *Service {
	return NewFromConfig(config.Default().Engine, append([]Option{WithLogger(zap.NewNop())}, opts...)...)
}

func TestCalculate_SMAMatchesWindowMean(t *testing.T) {
	svc := defaultService()
	data := linear(250)

	resp := svc.Calculate("SMA", data, indicator.Params{"period": 20})
	if !resp.Success {
		t.Fatalf("SMA failed: %s", resp.Error)
	}
	sum := 0.0
	for i := 230; i < 250; i++ {
		sum += data.Close[i]
	}
	assertClose(t, "SMA[249]", resp.Result["sma"][249], sum/20, 1e-9)
	if len(resp.Result["sma"]) != 250 {
		t.Errorf("len = %d, want 250", len(resp.Result["sma"]))
	}
	if !math.IsNaN(resp.Result["sma"][18]) {
		t.Error("warm-up rows must be undefined")
	}
	if resp.Engine == "" || resp.ID == "" {
		t.Errorf("engine=%q id=%q", resp.Engine, resp.ID)
	}
}

func TestCalculate_RSIRisingSeries(t *testing.T) {
	resp := defaultService().Calculate("rsi", linear(250), indicator.Params{"timeperiod": 14})
	if !resp.Success {
		t.Fatalf("RSI failed: %s", resp.Error)
	}
	assertClose(t, "RSI[249]", resp.Result["rsi"][249], 100, 1e-6)
}

func TestCalculate_AliasesAreEquivalent(t *testing.T) {
	svc := defaultService()
	data := linear(100)

	first := svc.Calculate("SMA", data, indicator.Params{"timeperiod": 20})
	second := svc.Calculate("sma", data, indicator.Params{"period": 20})
	if !first.Success || !second.Success {
		t.Fatalf("failed: %q %q", first.Error, second.Error)
	}
	if !second.CacheHit {
		t.Error("alias and canonical key must share a cache entry")
	}
	if first.Parameters.String() != second.Parameters.String() {
		t.Errorf("parameters: %v vs %v", first.Parameters, second.Parameters)
	}
	for i := 19; i < 100; i++ {
		if first.Result["sma"][i] != second.Result["sma"][i] {
			t.Fatalf("row %d differs", i)
		}
	}
}

func TestCalculate_CacheHit(t *testing.T) {
	obs := newCountingObserver()
	svc := defaultService(WithObserver(obs))
	data := linear(100)

	first := svc.Calculate(indicator.EMA, data, indicator.Params{})
	if first.CacheHit {
		t.Error("first call must be computed")
	}
	second := svc.Calculate(indicator.EMA, data, indicator.Params{})
	if !second.CacheHit || !second.Success {
		t.Errorf("second call: hit=%t success=%t", second.CacheHit, second.Success)
	}
	if second.Engine != first.Engine {
		t.Errorf("engine %q vs %q", second.Engine, first.Engine)
	}
	if svc.CacheLen() != 1 {
		t.Errorf("CacheLen() = %d", svc.CacheLen())
	}

	// Изменение результата вызывающим не портит кэш
	second.Result["ema"][99] = 0
	third := svc.Calculate(indicator.EMA, data, indicator.Params{})
	if third.Result["ema"][99] == 0 {
		t.Error("cached result was mutated through response")
	}

	svc.ClearCache()
	if svc.CacheLen() != 0 {
		t.Error("ClearCache must empty the cache")
	}
	if svc.Calculate(indicator.EMA, data, indicator.Params{}).CacheHit {
		t.Error("cleared entry must be recomputed")
	}
	if obs.hits != 2 || obs.misses != 2 {
		t.Errorf("hits=%d misses=%d", obs.hits, obs.misses)
	}
}

func TestCalculate_FallbackWhenOthersDisabled(t *testing.T) {
	cfg := config.Default().Engine
	cfg.Disabled = []string{config.EngineTalib, config.EngineTechan}
	svc := NewFromConfig(cfg, WithLogger(zap.NewNop()))

	for _, name := range []string{indicator.SMA, indicator.MACD, indicator.BBANDS, indicator.KDJ} {
		resp := svc.Calculate(name, linear(100), indicator.Params{})
		if !resp.Success {
			t.Errorf("%s: %s", name, resp.Error)
			continue
		}
		if resp.Engine != fallback.Name {
			t.Errorf("%s engine = %q, want %q", name, resp.Engine, fallback.Name)
		}
	}
}

func TestCalculate_UnknownIndicator(t *testing.T) {
	resp := defaultService().Calculate("NOT_REAL", linear(50), indicator.Params{})
	if resp.Success {
		t.Fatal("unknown indicator must fail")
	}
	if resp.Error == "" || len(resp.Result) != 0 {
		t.Errorf("error=%q result=%v", resp.Error, resp.Result)
	}
	if !IsNotSupported(resp) {
		t.Errorf("IsNotSupported = false for %v", resp.Err)
	}
}

func TestCalculate_UnknownNamesShareOneLabel(t *testing.T) {
	obs := newCountingObserver()
	svc := defaultService(WithObserver(obs))

	for _, name := range []string{"NOT_REAL", "rand-123", "sma"} {
		svc.Calculate(name, linear(50), indicator.Params{})
	}
	want := []string{UnknownIndicator, UnknownIndicator, indicator.SMA}
	if len(obs.names) != len(want) {
		t.Fatalf("names = %v, want %v", obs.names, want)
	}
	for i := range want {
		if obs.names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, obs.names[i], want[i])
		}
	}
}

func TestCalculate_MissingColumnSkipsEngines(t *testing.T) {
	spy := newSpy("spy", indicator.SMA, indicator.ATR)
	svc := newService([]indicator.Engine{spy, fallback.New()})

	noClose := linear(50)
	noClose.Close = nil
	resp := svc.Calculate(indicator.SMA, noClose, indicator.Params{})
	if resp.Success {
		t.Fatal("table without close must fail")
	}
	if indicator.KindOf(resp.Err) != indicator.KindDataValidation {
		t.Errorf("kind = %v", indicator.KindOf(resp.Err))
	}
	if !errors.Is(resp.Err, indicator.ErrMissingColumn) {
		t.Errorf("err = %v", resp.Err)
	}
	if spy.calls.Load() != 0 {
		t.Errorf("engine invoked %d times", spy.calls.Load())
	}
}

func TestCalculate_FallsThroughFailingEngine(t *testing.T) {
	obs := newCountingObserver()
	spy := newSpy("spy", indicator.SMA)
	spy.err = indicator.Calculation("spy", indicator.SMA, errors.New("сломан"))
	svc := newService([]indicator.Engine{spy, fallback.New()}, WithObserver(obs))

	resp := svc.Calculate(indicator.SMA, linear(50), indicator.Params{})
	if !resp.Success || resp.Engine != fallback.Name {
		t.Fatalf("success=%t engine=%q err=%q", resp.Success, resp.Engine, resp.Error)
	}
	if spy.calls.Load() != 1 {
		t.Errorf("spy calls = %d", spy.calls.Load())
	}
	if obs.attempts["spy/calculation"] != 1 || obs.attempts["fallback/success"] != 1 {
		t.Errorf("attempts = %v", obs.attempts)
	}
}

func TestCalculate_RecoversEnginePanic(t *testing.T) {
	spy := newSpy("spy", indicator.SMA)
	spy.panicky = true
	svc := newService([]indicator.Engine{spy, fallback.New()})

	resp := svc.Calculate(indicator.SMA, linear(50), indicator.Params{})
	if !resp.Success || resp.Engine != fallback.Name {
		t.Fatalf("success=%t engine=%q err=%q", resp.Success, resp.Engine, resp.Error)
	}
}

func TestCalculate_MalformedOutputFallsThrough(t *testing.T) {
	spy := newSpy("spy", indicator.MACD)
	spy.raw = indicator.Raw{{1, 2, 3}}
	svc := newService([]indicator.Engine{spy, fallback.New()})

	resp := svc.Calculate(indicator.MACD, linear(100), indicator.Params{})
	if !resp.Success || resp.Engine != fallback.Name {
		t.Fatalf("success=%t engine=%q err=%q", resp.Success, resp.Engine, resp.Error)
	}
	for _, out := range []string{"macd", "macdsignal", "macdhist"} {
		if len(resp.Result[out]) != 100 {
			t.Errorf("%s len = %d", out, len(resp.Result[out]))
		}
	}
}

func TestCalculate_DataValidationStopsChain(t *testing.T) {
	spy := newSpy("spy", indicator.SMA)
	spy.err = indicator.DataValidation("spy", indicator.SMA, indicator.ErrMissingColumn)
	next := newSpy("next", indicator.SMA)
	svc := newService([]indicator.Engine{spy, next})

	resp := svc.Calculate(indicator.SMA, linear(50), indicator.Params{})
	if resp.Success {
		t.Fatal("validation failure must not fall through")
	}
	if next.calls.Load() != 0 {
		t.Error("next engine must not run after validation failure")
	}
}

func TestCalculate_AllEnginesFail(t *testing.T) {
	spy := newSpy("spy", indicator.SMA)
	spy.err = errors.New("нет")
	resp := newService([]indicator.Engine{spy}).Calculate(indicator.SMA, linear(10), indicator.Params{})
	if resp.Success || resp.Error == "" || resp.Engine != "" {
		t.Errorf("resp = %+v", resp)
	}
	if IsNotSupported(resp) {
		t.Error("calculation failure is not NotSupported")
	}
}

func TestCalculate_InsufficientDataFails(t *testing.T) {
	resp := defaultService().Calculate(indicator.SMA, linear(5), indicator.Params{"period": 20})
	if resp.Success {
		t.Fatal("expected failure")
	}
	if !errors.Is(resp.Err, indicator.ErrInsufficientData) {
		t.Errorf("err = %v", resp.Err)
	}
}

func TestWithPriority(t *testing.T) {
	a := newSpy("a", indicator.SMA)
	b := newSpy("b", indicator.SMA)
	svc := newService([]indicator.Engine{a, b, fallback.New()}, WithPriority(fallback.Name, "b"))

	names := []string{}
	for _, e := range svc.Engines() {
		names = append(names, e.Name)
	}
	want := []string{fallback.Name, "b", "a"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("order = %v, want %v", names, want)
		}
	}

	resp := svc.Calculate(indicator.SMA, linear(50), indicator.Params{})
	if resp.Engine != fallback.Name {
		t.Errorf("engine = %q", resp.Engine)
	}
	if a.calls.Load()+b.calls.Load() != 0 {
		t.Error("lower priority engines must not run")
	}
}

func TestWithCacheCapacity(t *testing.T) {
	svc := defaultService(WithCacheCapacity(1))
	data := linear(60)
	svc.Calculate(indicator.SMA, data, indicator.Params{})
	svc.Calculate(indicator.EMA, data, indicator.Params{})
	if svc.CacheLen() != 1 {
		t.Errorf("CacheLen() = %d, want 1", svc.CacheLen())
	}
	if !svc.Calculate(indicator.EMA, data, indicator.Params{}).CacheHit {
		t.Error("newest entry must survive eviction")
	}
}

func TestSupportedIndicators(t *testing.T) {
	cfg := config.Default().Engine
	cfg.Disabled = []string{config.EngineTalib, config.EngineTechan}
	svc := NewFromConfig(cfg, WithLogger(zap.NewNop()))

	got := svc.SupportedIndicators()
	if len(got) != len(fallback.New().Supported()) {
		t.Errorf("SupportedIndicators() = %v", got)
	}
	for _, st := range svc.Engines() {
		if st.Name != fallback.Name && st.Available {
			t.Errorf("%s must be unavailable", st.Name)
		}
	}
}

func TestCalculate_Concurrent(t *testing.T) {
	svc := defaultService()
	data := linear(200)
	names := []string{indicator.SMA, indicator.EMA, indicator.RSI, indicator.MACD, indicator.BBANDS}

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			name := names[g%len(names)]
			if resp := svc.Calculate(name, data, indicator.Params{}); !resp.Success {
				t.Errorf("%s: %s", name, resp.Error)
			}
		}(g)
	}
	wg.Wait()
}

func TestCalculateBatch(t *testing.T) {
	svc := defaultService()
	data := linear(100)
	reqs := []Request{
		NewRequest(indicator.SMA, data, nil),
		NewRequest("NOT_REAL", data, nil),
		NewRequest(indicator.RSI, data, indicator.Params{"n": 7}),
	}

	out := svc.CalculateBatch(context.Background(), reqs, 2)
	if len(out) != len(reqs) {
		t.Fatalf("len = %d", len(out))
	}
	for i, resp := range out {
		if resp.ID != reqs[i].ID {
			t.Errorf("response %d out of order", i)
		}
	}
	if !out[0].Success || out[1].Success || !out[2].Success {
		t.Errorf("success = %t %t %t", out[0].Success, out[1].Success, out[2].Success)
	}
	if out[2].Parameters[indicator.ParamPeriod] != 7 {
		t.Errorf("parameters = %v", out[2].Parameters)
	}
}

func TestCalculateBatch_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := defaultService().CalculateBatch(ctx, []Request{NewRequest(indicator.SMA, linear(50), nil)}, 0)
	if out[0].Success || !errors.Is(out[0].Err, context.Canceled) {
		t.Errorf("resp = %+v", out[0])
	}
}

func TestNewRequest_CopiesParams(t *testing.T) {
	p := indicator.Params{"period": 5}
	req := NewRequest(indicator.SMA, linear(10), p)
	p["period"] = 6
	if req.Params["period"] != 5 {
		t.Error("request must own its params")
	}
}
