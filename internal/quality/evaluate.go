package quality

import (
	"context"
	"element-scout/internal/entity"
	"element-scout/internal/ports"
	"element-scout/pkg/apperr"
	"element-scout/pkg/logg"
	"element-scout/pkg/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	evaluatorName   = "QualityEvaluator"
	evaluatorTracer = "quality.evaluator"
)

type Evaluation struct {
	Locator     string                `json:"locator"`
	MatchCount  int                   `json:"matchCount"`
	Metrics     entity.QualityMetrics `json:"metrics"`
	Rejection   entity.Rejection      `json:"rejection"`
	Suggestions []string              `json:"suggestions"`
	Passes      bool                  `json:"passes"`
}

// Evaluator scores a single locator against a live page.
type Evaluator struct {
	logger     *zap.Logger
	tracer     trace.Tracer
	minQuality float64
}

func NewEvaluator(logger *zap.Logger, minQuality float64) *Evaluator {
	return &Evaluator{
		logger:     logger.With(zap.String(logg.Layer, evaluatorName)),
		tracer:     otel.Tracer(evaluatorTracer),
		minQuality: minQuality,
	}
}

// Static scores locator with a caller-supplied match count.
func (e *Evaluator) Static(locator string, matchCount int) *Evaluation {
	ev := &Evaluation{
		Locator:    locator,
		MatchCount: matchCount,
		Rejection:  ShouldReject(locator),
	}

	if !ev.Rejection.Reject {
		ev.Metrics = Score(locator, matchCount)
		ev.Passes = ev.Metrics.Overall >= e.minQuality
	}
	ev.Suggestions = GenerateSuggestions(locator, matchCount, ev.Metrics)

	return ev
}

func (e *Evaluator) Evaluate(ctx context.Context, page ports.Page, locator string) (ev *Evaluation, err error) {
	const op = "Evaluate"
	logger := e.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, locator))

	ctx, step := tracing.StartSpan(ctx, e.tracer, logger, op, tracing.Selector.String(locator))
	defer func() {
		step.End(err)
	}()

	count, err := page.Count(ctx, locator)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInvalidArgument, err, map[string]any{
			apperr.MetaReason:   "count_failed",
			apperr.MetaSelector: locator,
		})
	}

	step.SetAttributes(attribute.Int("match_count", count))

	return e.Static(locator, count), nil
}
