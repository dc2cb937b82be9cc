package calculation

import (
	"context"
	"runtime"

	"github.com/skalibog/indcalc/internal/indicator"
	"golang.org/x/sync/errgroup"
)

// CalculateBatch рассчитывает запросы параллельно, сохраняя порядок ответов.
// Отмена ctx прекращает запуск оставшихся запросов; начатые расчеты завершаются.
func (s *Service) CalculateBatch(ctx context.Context, reqs []Request, workers int) []Response {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]Response, len(reqs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out[i] = canceled(req, err)
				return nil
			}
			out[i] = s.CalculateRequest(req)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func canceled(req Request, err error) Response {
	resp := Response{
		ID:         req.ID,
		Name:       indicator.CanonicalName(req.Name),
		Parameters: indicator.NormalizeParams(req.Params),
	}
	resp.fail(indicator.Calculation("", resp.Name, err))
	return resp
}
