package usecase

import (
	"context"
	"element-scout/internal/entity"
	"element-scout/internal/usecase/adapters"
	"element-scout/pkg/logg"
	"element-scout/pkg/tracing"
	"net/url"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// AnalyzeBatch analyzes urls concurrently, each on its own page. Results keep the input order.
// Per-URL failures become failed results; only cancellation aborts the batch.
func (s *AnalysisService) AnalyzeBatch(ctx context.Context, urls []string, opts adapters.AnalyzeOptions) (results []*entity.AnalysisResult, err error) {
	const op = "AnalyzeBatch"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op, attribute.Int("urls", len(urls)))
	defer func() {
		step.End(err)
	}()

	concurrency := s.config.BatchConfig.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	limiter := newHostLimiter(s.config.BatchConfig.HostRPS)

	results = make([]*entity.AnalysisResult, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, rawURL := range urls {
		g.Go(func() error {
			if err := limiter.Wait(gctx, hostOf(rawURL)); err != nil {
				return err
			}

			res, err := s.AnalyzeURL(gctx, rawURL, opts)
			if err != nil {
				logger.Warn("url rejected", zap.String(logg.URL, rawURL), zap.Error(err))
				res = &entity.AnalysisResult{
					URL:      rawURL,
					Outcome:  entity.OutcomeFailed,
					Elements: []entity.DiscoveredElement{},
					Hidden:   []entity.DiscoveredElement{},
					Error:    err.Error(),
				}
			}
			results[i] = res

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	return results, nil
}

// hostLimiter spaces out requests to the same host. A non-positive rate disables limiting.
type hostLimiter struct {
	mu       sync.Mutex
	rps      float64
	limiters map[string]*rate.Limiter
}

func newHostLimiter(rps float64) *hostLimiter {
	return &hostLimiter{
		rps:      rps,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (h *hostLimiter) Wait(ctx context.Context, host string) error {
	if h.rps <= 0 {
		return ctx.Err()
	}

	h.mu.Lock()
	lim, ok := h.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(h.rps), 1)
		h.limiters[host] = lim
	}
	h.mu.Unlock()

	return lim.Wait(ctx)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	return u.Host
}
