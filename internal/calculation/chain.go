package calculation

import (
	"github.com/skalibog/indcalc/internal/config"
	"github.com/skalibog/indcalc/internal/engine/fallback"
	"github.com/skalibog/indcalc/internal/engine/framework"
	"github.com/skalibog/indcalc/internal/engine/native"
	"github.com/skalibog/indcalc/internal/indicator"
)

// DefaultChain собирает фиксированный набор движков: TA-Lib, techan, резервный.
// Отключенные в конфигурации движки создаются недоступными.
func DefaultChain(cfg config.EngineConfig) []indicator.Engine {
	var nativeOpts []native.Option
	if cfg.IsDisabled(config.EngineTalib) {
		nativeOpts = append(nativeOpts, native.Disabled())
	}
	var frameworkOpts []framework.Option
	if cfg.IsDisabled(config.EngineTechan) {
		frameworkOpts = append(frameworkOpts, framework.Disabled())
	}
	return []indicator.Engine{
		native.New(nativeOpts...),
		framework.New(frameworkOpts...),
		fallback.New(),
	}
}

// NewFromConfig создает сервис с цепочкой по умолчанию и настройками из конфигурации
func NewFromConfig(cfg config.EngineConfig, opts ...Option) *Service {
	base := []Option{
		WithCacheCapacity(cfg.CacheCapacity),
		WithPriority(cfg.Priority...),
	}
	return New(DefaultChain(cfg), append(base, opts...)...)
}
