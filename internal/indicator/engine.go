package indicator

import (
	"sort"

	"github.com/skalibog/indcalc/pkg/models"
)

// Engine вычислительный бэкенд индикаторов
type Engine interface {
	Name() string
	// Available фиксируется при создании движка и больше не меняется
	Available() bool
	Supports(name string) bool
	Supported() []string
	// NormalizeParams переводит канонические ключи в нативные имена бэкенда
	NormalizeParams(p Params) Params
	// Calculate возвращает позиционный результат или *Error
	Calculate(name string, data *models.Table, p Params) (Raw, error)
}

// Capability общая часть движков: имя, доступность и набор индикаторов
type Capability struct {
	name      string
	available bool
	supported map[string]struct{}
}

// NewCapability создает описание возможностей движка.
// Недоступный движок не заявляет ни одного индикатора.
func NewCapability(name string, available bool, indicators ...string) Capability {
	c := Capability{name: name, available: available, supported: make(map[string]struct{})}
	if !available {
		return c
	}
	for _, ind := range indicators {
		c.supported[ind] = struct{}{}
	}
	return c
}

func (c Capability) Name() string    { return c.name }
func (c Capability) Available() bool { return c.available }

func (c Capability) Supports(name string) bool {
	_, ok := c.supported[CanonicalName(name)]
	return ok
}

func (c Capability) Supported() []string {
	out := make([]string, 0, len(c.supported))
	for k := range c.supported {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NormalizeParams по умолчанию не меняет параметры
func (c Capability) NormalizeParams(p Params) Params { return p }

// Precheck общие проверки перед расчетом
func (c Capability) Precheck(name string, data *models.Table) error {
	if !c.available {
		return Calculation(c.name, name, ErrEngineUnavailable)
	}
	if !c.Supports(name) {
		return NotSupported(c.name, name)
	}
	if err := ValidateColumns(name, data); err != nil {
		return DataValidation(c.name, name, err)
	}
	return nil
}
