package indicator

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибку движка
type Kind int

const (
	// KindCalculation движок попытался посчитать и не смог
	KindCalculation Kind = iota
	// KindNotSupported индикатор неизвестен движку
	KindNotSupported
	// KindDataValidation во входной таблице нет нужных колонок
	KindDataValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotSupported:
		return "not_supported"
	case KindDataValidation:
		return "data_validation"
	default:
		return "calculation"
	}
}

var (
	ErrInsufficientData  = errors.New("недостаточно данных")
	ErrEngineUnavailable = errors.New("движок недоступен")
	ErrBadParameter      = errors.New("некорректный параметр")
	ErrMissingColumn     = errors.New("отсутствует колонка")
)

// Error типизированная ошибка расчета индикатора
type Error struct {
	Kind      Kind
	Engine    string
	Indicator string
	Err       error
}

func (e *Error) Error() string {
	prefix := e.Indicator
	if e.Engine != "" {
		prefix = e.Engine + ": " + prefix
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", prefix, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", prefix, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NotSupported создает ошибку неподдерживаемого индикатора
func NotSupported(engine, name string) *Error {
	return &Error{Kind: KindNotSupported, Engine: engine, Indicator: name, Err: errors.New("индикатор не поддерживается")}
}

// DataValidation создает ошибку валидации входных данных
func DataValidation(engine, name string, err error) *Error {
	return &Error{Kind: KindDataValidation, Engine: engine, Indicator: name, Err: err}
}

// Calculation создает ошибку расчета
func Calculation(engine, name string, err error) *Error {
	return &Error{Kind: KindCalculation, Engine: engine, Indicator: name, Err: err}
}

// KindOf возвращает вид ошибки; нетипизированные ошибки считаются ошибками расчета
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindCalculation
}
