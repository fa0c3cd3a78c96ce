package stabilizer

import (
	"context"
	"element-scout/internal/catalog"
	"element-scout/internal/entity"
	"element-scout/internal/ports"
	"element-scout/pkg/apperr"
	"element-scout/pkg/logg"
	"element-scout/pkg/tracing"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	stabilizerName   = "PageStabilizer"
	stabilizerTracer = "stabilizer"

	StrategyFast        = "fast"
	StrategyProgressive = "progressive"
	StrategyMinimal     = "minimal"
)

const (
	readyStateScript = `() => document.readyState === 'complete'`

	loadingGoneScript = `(selectors) => selectors.every((sel) => {
		let nodes;
		try { nodes = document.querySelectorAll(sel); } catch (e) { return true; }
		return Array.from(nodes).every((el) => {
			const style = window.getComputedStyle(el);
			return style.display === 'none' || style.visibility === 'hidden' || el.offsetParent === null;
		});
	})`

	imagesLoadedScript = `() => Array.from(document.images).every((img) => img.complete || img.naturalWidth > 0)`
)

var _ ports.PageStabilizer = (*Stabilizer)(nil)

type Timings struct {
	FastModeTimeout    time.Duration
	FastTimeout        time.Duration
	ProgressiveTimeout time.Duration
	LoadEventTimeout   time.Duration
	MinimalTimeout     time.Duration
	PollInterval       time.Duration

	SettlePause             time.Duration
	LoadingIndicatorTimeout time.Duration
	ImageTimeout            time.Duration
	FinalPause              time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		FastModeTimeout:    5 * time.Second,
		FastTimeout:        15 * time.Second,
		ProgressiveTimeout: 45 * time.Second,
		LoadEventTimeout:   15 * time.Second,
		MinimalTimeout:     60 * time.Second,
		PollInterval:       100 * time.Millisecond,

		SettlePause:             2 * time.Second,
		LoadingIndicatorTimeout: 5 * time.Second,
		ImageTimeout:            3 * time.Second,
		FinalPause:              time.Second,
	}
}

type Stabilizer struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
	tracer  trace.Tracer
	timings Timings
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time
}

type Option func(*Stabilizer)

func WithTimings(t Timings) Option {
	return func(s *Stabilizer) { s.timings = t }
}

func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Stabilizer) { s.sleep = fn }
}

func New(c *catalog.Catalog, logger *zap.Logger, opts ...Option) *Stabilizer {
	s := &Stabilizer{
		catalog: c,
		logger:  logger.With(zap.String(logg.Layer, stabilizerName)),
		tracer:  otel.Tracer(stabilizerTracer),
		timings: DefaultTimings(),
		sleep:   sleepContext,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// StabilizePage navigates to url through the fast, progressive and minimal strategies in turn,
// then waits for dynamic content unless fastMode is set. A response status >= 400 fails
// immediately with an error carrying the status.
func (s *Stabilizer) StabilizePage(ctx context.Context, page ports.Page, url string, fastMode bool) (res *entity.StabilizeResult, err error) {
	const op = "StabilizePage"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, url))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op,
		tracing.URL.String(url),
		tracing.FastMode.Bool(fastMode),
	)
	defer func() {
		step.End(err)
	}()

	status, strategy, err := s.navigate(ctx, page, url, fastMode, logger)
	if err != nil {
		return nil, err
	}

	step.SetAttributes(attribute.String("strategy", strategy), tracing.Status.Int(status))

	if status >= 400 {
		logger.Warn("site rejected the request", zap.Int(logg.Status, status))
		return nil, apperr.StatusError(op, url, status)
	}

	if !fastMode {
		step.AddEvent("settling")
		if err := s.settle(ctx, page, logger); err != nil {
			return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason: "settle_interrupted",
				apperr.MetaStage:  apperr.StageStabilization,
				apperr.MetaURL:    url,
			})
		}
	}

	logger.Debug("page stabilized", zap.String(logg.Stage, strategy), zap.Int(logg.Status, status))

	return &entity.StabilizeResult{StatusCode: status, Strategy: strategy}, nil
}

func (s *Stabilizer) navigate(ctx context.Context, page ports.Page, url string, fastMode bool, logger *zap.Logger) (int, string, error) {
	const op = "navigate"

	fastTimeout := s.timings.FastTimeout
	if fastMode {
		fastTimeout = s.timings.FastModeTimeout
	}

	status, err := page.Navigate(ctx, url, entity.WaitNetworkIdle, fastTimeout)
	if err == nil {
		return status, StrategyFast, nil
	}
	logger.Info("fast strategy failed, trying progressive", zap.Error(err))

	status, err = s.progressive(ctx, page, url)
	if err == nil {
		return status, StrategyProgressive, nil
	}
	logger.Info("progressive strategy failed, trying minimal", zap.Error(err))

	status, err = page.Navigate(ctx, url, entity.WaitDOMContentLoaded, s.timings.MinimalTimeout)
	if err == nil {
		return status, StrategyMinimal, nil
	}

	return 0, "", apperr.Wrap(op, apperr.CodeNavigationTimeout, err, map[string]any{
		apperr.MetaReason: "all_strategies_failed",
		apperr.MetaStage:  apperr.StageNavigation,
		apperr.MetaURL:    url,
	})
}

// progressive shares one time budget across DOMContentLoaded, the load event and the readyState poll.
func (s *Stabilizer) progressive(ctx context.Context, page ports.Page, url string) (int, error) {
	started := s.now()
	remaining := func() time.Duration {
		return s.timings.ProgressiveTimeout - s.now().Sub(started)
	}

	status, err := page.Navigate(ctx, url, entity.WaitDOMContentLoaded, s.timings.ProgressiveTimeout)
	if err != nil {
		return 0, err
	}

	if err := page.WaitForLoadState(ctx, entity.WaitLoad, min(s.timings.LoadEventTimeout, remaining())); err != nil {
		s.logger.Debug("load event did not fire", zap.String(logg.URL, url), zap.Error(err))
	}

	left := remaining()
	if left <= 0 {
		return 0, fmt.Errorf("progressive strategy: timeout %s exceeded", s.timings.ProgressiveTimeout)
	}

	if err := page.WaitForFunction(ctx, readyStateScript, nil, s.timings.PollInterval, left); err != nil {
		return 0, err
	}

	return status, nil
}

// settle waits for dynamic content. Poll timeouts are logged and ignored; only ctx cancellation fails.
func (s *Stabilizer) settle(ctx context.Context, page ports.Page, logger *zap.Logger) error {
	if err := s.sleep(ctx, s.timings.SettlePause); err != nil {
		return err
	}

	if err := page.WaitForFunction(ctx, loadingGoneScript, s.catalog.LoadingIndicators(), s.timings.PollInterval, s.timings.LoadingIndicatorTimeout); err != nil {
		logger.Debug("loading indicators still visible", zap.Error(err))
	}

	if err := page.WaitForFunction(ctx, imagesLoadedScript, nil, s.timings.PollInterval, s.timings.ImageTimeout); err != nil {
		logger.Debug("images still loading", zap.Error(err))
	}

	return s.sleep(ctx, s.timings.FinalPause)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
