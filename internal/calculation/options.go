package calculation

import (
	"time"

	"go.uber.org/zap"
)

// Observer получает события сервиса; реализуется пакетом metrics
type Observer interface {
	CacheHit(name string)
	CacheMiss(name string)
	EngineAttempt(engine, outcome string)
	Calculated(name string, d time.Duration, success bool)
}

type nopObserver struct{}

func (nopObserver) CacheHit(string)                        {}
func (nopObserver) CacheMiss(string)                       {}
func (nopObserver) EngineAttempt(string, string)           {}
func (nopObserver) Calculated(string, time.Duration, bool) {}

// Option настройка сервиса
type Option func(*Service)

// WithCacheCapacity задает емкость кэша
func WithCacheCapacity(n int) Option {
	return func(s *Service) { s.cacheCapacity = n }
}

// WithPriority переупорядочивает движки: перечисленные идут первыми в заданном
// порядке, остальные сохраняют исходный порядок после них
func WithPriority(names ...string) Option {
	return func(s *Service) { s.priority = names }
}

// WithObserver подключает наблюдателя событий
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLogger задает логгер сервиса
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}
