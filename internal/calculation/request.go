package calculation

import (
	"time"

	"github.com/google/uuid"
	"github.com/skalibog/indcalc/internal/indicator"
	"github.com/skalibog/indcalc/pkg/models"
)

// Request запрос на расчет индикатора. После создания не изменяется.
type Request struct {
	ID     string
	Name   string
	Data   *models.Table
	Params indicator.Params
}

// NewRequest создает запрос с копией параметров
func NewRequest(name string, data *models.Table, params indicator.Params) Request {
	p := make(indicator.Params, len(params))
	for k, v := range params {
		p[k] = v
	}
	return Request{
		ID:     uuid.NewString(),
		Name:   name,
		Data:   data,
		Params: p,
	}
}

// Response результат одного вызова расчета
type Response struct {
	ID              string
	Name            string
	Result          indicator.Result
	Parameters      indicator.Params
	Success         bool
	Error           string
	Err             error
	ComputationTime time.Duration
	CacheHit        bool
	Engine          string
}

func (r *Response) fail(err error) {
	r.Success = false
	r.Result = indicator.Result{}
	r.Err = err
	r.Error = err.Error()
	r.Engine = ""
}
