package usecase

import (
	"context"
	"element-scout/internal/config"
	"element-scout/internal/entity"
	"element-scout/internal/ports"
	"element-scout/internal/quality"
	"element-scout/internal/retry"
	"element-scout/internal/usecase/adapters"
	"element-scout/pkg/apperr"
	"element-scout/pkg/logg"
	"element-scout/pkg/tracing"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	analysisServiceName = "AnalysisService"
	analysisTracer      = "usecase.analysis"
)

var _ adapters.AnalysisService = (*AnalysisService)(nil)

type AnalysisService struct {
	config     *config.Config
	logger     *zap.Logger
	tracer     trace.Tracer
	pages      ports.PageFactory
	stabilizer ports.PageStabilizer
	discoverer ports.ElementDiscoverer
	explorer   ports.HiddenElementExplorer
	policy     *retry.Policy
	evaluator  *quality.Evaluator
	now        func() time.Time
}

type AnalysisServiceParams struct {
	Config     *config.Config
	Logger     *zap.Logger
	Pages      ports.PageFactory
	Stabilizer ports.PageStabilizer
	Discoverer ports.ElementDiscoverer
	Explorer   ports.HiddenElementExplorer
	Policy     *retry.Policy
	Evaluator  *quality.Evaluator
}

func NewAnalysisService(params AnalysisServiceParams) *AnalysisService {
	return &AnalysisService{
		config:     params.Config,
		logger:     params.Logger.With(zap.String(logg.Layer, analysisServiceName)),
		tracer:     otel.Tracer(analysisTracer),
		pages:      params.Pages,
		stabilizer: params.Stabilizer,
		discoverer: params.Discoverer,
		explorer:   params.Explorer,
		policy:     params.Policy,
		evaluator:  params.Evaluator,
		now:        time.Now,
	}
}

// AnalyzeURL runs stabilize, discover and explore under the retry policy, each attempt on a fresh
// page. Analysis failures are reported on the result; only unusable input or an unlaunched browser
// return an error.
func (s *AnalysisService) AnalyzeURL(ctx context.Context, rawURL string, opts adapters.AnalyzeOptions) (res *entity.AnalysisResult, err error) {
	const op = "AnalyzeURL"

	runID := uuid.New()
	logger := s.logger.With(
		zap.String(logg.Operation, op),
		zap.String(logg.URL, rawURL),
		zap.String(logg.RunID, runID.String()),
	)

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op,
		tracing.URL.String(rawURL),
		tracing.FastMode.Bool(opts.FastMode),
		attribute.Bool("explore", opts.Explore),
	)
	defer func() {
		step.End(err)
	}()

	if err := validateURL(op, rawURL); err != nil {
		return nil, err
	}

	if !s.pages.IsReady() {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	res = &entity.AnalysisResult{
		ID:        runID,
		URL:       rawURL,
		StartedAt: s.now(),
	}

	outcome := retry.Execute(ctx, s.policy, "AnalyzeAttempt", func(ctx context.Context) (*entity.PageScan, error) {
		return s.scan(ctx, rawURL, opts, logger)
	})

	res.Attempts = outcome.Attempts
	res.TotalRetries = outcome.TotalRetries
	res.TotalDuration = outcome.TotalDuration
	res.GaveUpReason = outcome.GaveUpReason

	if outcome.Success {
		scan := outcome.Value
		res.StatusCode = scan.Stabilize.StatusCode
		res.Strategy = scan.Stabilize.Strategy
		res.Elements = scan.Elements
		res.Hidden = scan.Hidden
		res.Outcome = successOutcome(scan)
	} else {
		res.Elements = []entity.DiscoveredElement{}
		res.Hidden = []entity.DiscoveredElement{}
		res.Outcome = failureOutcome(outcome.Err)
		if status, ok := apperr.StatusCode(outcome.Err); ok {
			res.StatusCode = status
		}
		if outcome.Err != nil {
			res.Error = outcome.Err.Error()
		}
	}

	step.SetAttributes(
		attribute.String("outcome", string(res.Outcome)),
		attribute.Int("elements", len(res.Elements)),
		attribute.Int("hidden", len(res.Hidden)),
	)
	logger.Info("analysis finished",
		zap.String("outcome", string(res.Outcome)),
		zap.Int("elements", len(res.Elements)),
		zap.Int("hidden", len(res.Hidden)),
		zap.Int("retries", res.TotalRetries),
	)

	return res, nil
}

func (s *AnalysisService) scan(ctx context.Context, rawURL string, opts adapters.AnalyzeOptions, logger *zap.Logger) (*entity.PageScan, error) {
	page, release, err := s.pages.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	progress(opts.OnProgress, "Loading "+rawURL)

	stab, err := s.stabilizer.StabilizePage(ctx, page, rawURL, opts.FastMode)
	if err != nil {
		return nil, err
	}

	progress(opts.OnProgress, "Scanning for elements")

	elements, err := s.discoverer.DiscoverElements(ctx, page)
	if err != nil {
		return nil, err
	}

	scan := &entity.PageScan{
		Stabilize: *stab,
		Elements:  elements,
		Hidden:    []entity.DiscoveredElement{},
	}

	if opts.Explore {
		progress(opts.OnProgress, "Exploring interactive states")
		scan.Hidden = s.explorer.DiscoverHiddenElements(ctx, page, elements, opts.OnProgress)
	}

	logger.Debug("attempt scanned page",
		zap.Int("elements", len(scan.Elements)),
		zap.Int("hidden", len(scan.Hidden)),
	)

	return scan, nil
}

// CheckSelector loads rawURL in fast mode and scores locator against the live match count.
func (s *AnalysisService) CheckSelector(ctx context.Context, rawURL, locator string) (ev *quality.Evaluation, err error) {
	const op = "CheckSelector"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, rawURL), zap.String(logg.Selector, locator))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op,
		tracing.URL.String(rawURL),
		tracing.Selector.String(locator),
	)
	defer func() {
		step.End(err)
	}()

	if err := validateURL(op, rawURL); err != nil {
		return nil, err
	}
	if locator == "" {
		return nil, apperr.InvalidReqError(op, "locator", errors.New("locator is empty"))
	}

	if !s.pages.IsReady() {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	page, release, err := s.pages.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := s.stabilizer.StabilizePage(ctx, page, rawURL, true); err != nil {
		return nil, err
	}

	return s.evaluator.Evaluate(ctx, page, locator)
}

func (s *AnalysisService) ScoreSelector(locator string, matchCount int) *quality.Evaluation {
	return s.evaluator.Static(locator, matchCount)
}

func successOutcome(scan *entity.PageScan) entity.Outcome {
	if len(scan.Elements) == 0 && len(scan.Hidden) > 0 {
		return entity.OutcomeNeedsInteraction
	}

	return entity.OutcomeOK
}

func failureOutcome(err error) entity.Outcome {
	if status, ok := apperr.StatusCode(err); ok {
		if status == 401 || status == 403 {
			return entity.OutcomeBlocked
		}
		return entity.OutcomeNotFound
	}

	if apperr.HasCode(err, apperr.CodeNavigationTimeout) && retry.Categorize(err) == entity.ErrorCategoryTimeout {
		return entity.OutcomeSlow
	}

	return entity.OutcomeFailed
}

func validateURL(op, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return apperr.InvalidReqError(op, "url", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return apperr.InvalidReqError(op, "url", fmt.Errorf("unsupported scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return apperr.InvalidReqError(op, "url", errors.New("missing host"))
	}

	return nil
}

func progress(fn func(string), msg string) {
	if fn != nil {
		fn(msg)
	}
}
