package calculation

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/skalibog/indcalc/internal/cache"
	"github.com/skalibog/indcalc/internal/indicator"
	"github.com/skalibog/indcalc/pkg/logger"
	"github.com/skalibog/indcalc/pkg/models"
	"go.uber.org/zap"
)

// OutcomeSuccess исход успешной попытки движка для наблюдателя.
// Неуспешные попытки сообщаются именем вида ошибки.
const OutcomeSuccess = "success"

// UnknownIndicator метка наблюдателя для имен вне каталога
const UnknownIndicator = "unknown"

// Service единая точка расчета индикаторов поверх цепочки движков.
// Безопасен для конкурентного использования.
type Service struct {
	engines       []indicator.Engine
	cache         *cache.Cache
	cacheCapacity int
	priority      []string
	observer      Observer
	log           *zap.Logger
}

// EngineStatus состояние движка в цепочке
type EngineStatus struct {
	Name      string
	Available bool
	Supported int
}

// New создает сервис поверх переданных движков в порядке приоритета
func New(engines []indicator.Engine, opts ...Option) *Service {
	s := &Service{
		cacheCapacity: cache.DefaultCapacity,
		observer:      nopObserver{},
		log:           logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engines = order(engines, s.priority)
	s.cache = cache.New(s.cacheCapacity)

	names := make([]string, 0, len(s.engines))
	for _, e := range s.engines {
		names = append(names, fmt.Sprintf("%s(available=%t)", e.Name(), e.Available()))
	}
	s.log.Info("Цепочка движков индикаторов", zap.Strings("engines", names), zap.Int("cache_capacity", s.cache.Capacity()))
	return s
}

func order(engines []indicator.Engine, priority []string) []indicator.Engine {
	out := make([]indicator.Engine, 0, len(engines))
	used := make(map[int]bool)
	for _, name := range priority {
		for i, e := range engines {
			if !used[i] && e.Name() == name {
				out = append(out, e)
				used[i] = true
				break
			}
		}
	}
	for i, e := range engines {
		if !used[i] {
			out = append(out, e)
		}
	}
	return out
}

// Calculate рассчитывает индикатор; никогда не паникует и не возвращает ошибку,
// неуспех сообщается через Response.Success
func (s *Service) Calculate(name string, data *models.Table, params indicator.Params) Response {
	return s.CalculateRequest(NewRequest(name, data, params))
}

// CalculateRequest рассчитывает индикатор по готовому запросу
func (s *Service) CalculateRequest(req Request) (resp Response) {
	start := time.Now()
	name := indicator.CanonicalName(req.Name)
	params := indicator.NormalizeParams(req.Params)
	resp = Response{ID: req.ID, Name: name, Parameters: params}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Паника при расчете индикатора", zap.String("indicator", name), zap.Any("panic", r))
			resp.fail(indicator.Calculation("", name, fmt.Errorf("паника: %v", r)))
		}
		resp.ComputationTime = time.Since(start)
		label := name
		if !indicator.Known(name) {
			label = UnknownIndicator
		}
		s.observer.Calculated(label, resp.ComputationTime, resp.Success)
	}()

	candidates := s.candidates(name)
	if len(candidates) == 0 {
		resp.fail(indicator.NotSupported("", name))
		s.log.Warn("Индикатор не поддерживается ни одним движком", zap.String("indicator", name), zap.String("request_id", req.ID))
		return resp
	}

	if err := indicator.ValidateColumns(name, req.Data); err != nil {
		resp.fail(indicator.DataValidation("", name, err))
		s.log.Warn("Некорректные входные данные", zap.String("indicator", name), zap.Error(err))
		return resp
	}

	key := cache.NewKey(name, req.Data, params)
	if entry, ok := s.cache.Get(key); ok {
		s.observer.CacheHit(name)
		s.log.Debug("Результат взят из кэша", zap.String("indicator", name), zap.String("engine", entry.Engine))
		resp.Result = entry.Result
		resp.Engine = entry.Engine
		resp.Success = true
		resp.CacheHit = true
		return resp
	}
	s.observer.CacheMiss(name)

	var lastErr error
	for _, e := range candidates {
		result, err := s.attempt(e, name, req.Data, params)
		if err == nil {
			s.observer.EngineAttempt(e.Name(), OutcomeSuccess)
			s.cache.Put(key, cache.Entry{Result: result, Engine: e.Name()})
			resp.Result = result
			resp.Engine = e.Name()
			resp.Success = true
			return resp
		}

		kind := indicator.KindOf(err)
		s.observer.EngineAttempt(e.Name(), kind.String())
		if kind == indicator.KindDataValidation {
			resp.fail(err)
			return resp
		}
		s.log.Warn("Движок не смог рассчитать индикатор, пробуем следующий",
			zap.String("engine", e.Name()),
			zap.String("indicator", name),
			zap.String("request_id", req.ID),
			zap.Error(err))
		lastErr = err
	}

	resp.fail(fmt.Errorf("ни один движок не рассчитал %s: %w", name, lastErr))
	s.log.Warn("Расчет индикатора не удался", zap.String("indicator", name), zap.Error(lastErr))
	return resp
}

// attempt вызывает движок и форматирует его результат
func (s *Service) attempt(e indicator.Engine, name string, data *models.Table, params indicator.Params) (result indicator.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = indicator.Calculation(e.Name(), name, fmt.Errorf("паника: %v", r))
		}
	}()

	raw, err := e.Calculate(name, data, params)
	if err != nil {
		return nil, err
	}
	result, err = indicator.FormatResult(name, raw, data.Len())
	if err != nil {
		return nil, indicator.Calculation(e.Name(), name, err)
	}
	return result, nil
}

func (s *Service) candidates(name string) []indicator.Engine {
	var out []indicator.Engine
	for _, e := range s.engines {
		if e.Available() && e.Supports(name) {
			out = append(out, e)
		}
	}
	return out
}

// SupportedIndicators возвращает объединение индикаторов доступных движков
func (s *Service) SupportedIndicators() []string {
	set := make(map[string]struct{})
	for _, e := range s.engines {
		if !e.Available() {
			continue
		}
		for _, name := range e.Supported() {
			set[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Engines возвращает состояние движков в порядке приоритета
func (s *Service) Engines() []EngineStatus {
	out := make([]EngineStatus, len(s.engines))
	for i, e := range s.engines {
		out[i] = EngineStatus{Name: e.Name(), Available: e.Available(), Supported: len(e.Supported())}
	}
	return out
}

// ClearCache очищает кэш результатов
func (s *Service) ClearCache() { s.cache.Clear() }

// CacheLen возвращает число закэшированных результатов
func (s *Service) CacheLen() int { return s.cache.Len() }

// IsNotSupported сообщает, что ответ неуспешен из-за неподдерживаемого индикатора
func IsNotSupported(resp Response) bool {
	var e *indicator.Error
	return !resp.Success && errors.As(resp.Err, &e) && e.Kind == indicator.KindNotSupported
}
