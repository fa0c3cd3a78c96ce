package discovery

import (
	"context"
	"element-scout/internal/catalog"
	"element-scout/internal/entity"
	"element-scout/internal/locator"
	"element-scout/internal/ports"
	"element-scout/internal/quality"
	"element-scout/pkg/apperr"
	"element-scout/pkg/logg"
	"element-scout/pkg/tracing"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	scannerName   = "ElementScanner"
	scannerTracer = "discovery.scanner"
)

var _ ports.ElementDiscoverer = (*Scanner)(nil)

type Config struct {
	MinQuality  float64
	MaxElements int
}

func DefaultConfig() Config {
	return Config{
		MinQuality:  quality.DefaultMinQuality,
		MaxElements: 250,
	}
}

type Scanner struct {
	catalog     *catalog.Catalog
	synthesizer *locator.Synthesizer
	logger      *zap.Logger
	tracer      trace.Tracer
	cfg         Config
}

func NewScanner(c *catalog.Catalog, synth *locator.Synthesizer, logger *zap.Logger, cfg Config) *Scanner {
	return &Scanner{
		catalog:     c,
		synthesizer: synth,
		logger:      logger.With(zap.String(logg.Layer, scannerName)),
		tracer:      otel.Tracer(scannerTracer),
		cfg:         cfg,
	}
}

// DiscoverElements walks every rule group of the catalog and returns one scored element per
// distinct visible node with a locator that survives rejection and the quality floor. The
// primary locator is the first survivor in synthesis order; the rest are fallbacks.
func (s *Scanner) DiscoverElements(ctx context.Context, page ports.Page) (elements []entity.DiscoveredElement, err error) {
	const op = "DiscoverElements"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, page.URL()))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	seenNodes := make(map[string]struct{})
	seenLocators := make(map[string]struct{})

	var queries, failures int
	var lastErr error

scan:
	for _, group := range s.catalog.Groups() {
		for _, selector := range group.Selectors {
			if err := ctx.Err(); err != nil {
				return nil, apperr.Wrap(op, apperr.CodeTimeout, err, map[string]any{
					apperr.MetaReason: "scan_interrupted",
					apperr.MetaStage:  apperr.StageDiscovery,
				})
			}

			queries++
			nodes, err := page.QueryAll(ctx, selector)
			if err != nil {
				failures++
				lastErr = err
				logger.Debug("rule query failed", zap.String(logg.Selector, selector), zap.Error(err))
				continue
			}

			for _, node := range nodes {
				if node.Path != "" {
					if _, ok := seenNodes[node.Path]; ok {
						continue
					}
					seenNodes[node.Path] = struct{}{}
				}

				el, ok := s.element(ctx, page, node)
				if !ok {
					continue
				}
				if _, dup := seenLocators[el.Locator]; dup {
					continue
				}
				seenLocators[el.Locator] = struct{}{}

				elements = append(elements, el)
				if s.cfg.MaxElements > 0 && len(elements) >= s.cfg.MaxElements {
					logger.Info("element cap reached", zap.Int("max_elements", s.cfg.MaxElements))
					break scan
				}
			}
		}
	}

	if queries > 0 && failures == queries {
		return nil, apperr.Wrap(op, apperr.CodeInternal, errors.Join(errors.New("every rule query failed"), lastErr), map[string]any{
			apperr.MetaReason: "queries_failed",
			apperr.MetaStage:  apperr.StageDiscovery,
		})
	}

	step.SetAttributes(attribute.Int("elements", len(elements)), attribute.Int("failed_queries", failures))
	logger.Info("primary scan finished", zap.Int("elements", len(elements)), zap.Int("nodes", len(seenNodes)))

	return elements, nil
}

func (s *Scanner) element(ctx context.Context, page ports.Page, node entity.Node) (entity.DiscoveredElement, bool) {
	if !node.Visible {
		return entity.DiscoveredElement{}, false
	}

	tag := strings.ToLower(node.Tag)
	if catalog.IsStructuralContainer(tag) && !catalog.IsInteractiveElement(node.Attributes, node.Cursor) {
		return entity.DiscoveredElement{}, false
	}

	scored := quality.Qualify(s.synthesizer.Synthesize(ctx, page, node), s.cfg.MinQuality)
	if len(scored) == 0 {
		return entity.DiscoveredElement{}, false
	}

	primary := scored[0]
	metrics := primary.Metrics

	var fallbacks []string
	for _, alt := range scored[1:] {
		fallbacks = append(fallbacks, alt.Locator)
	}

	return entity.DiscoveredElement{
		Locator:        primary.Locator,
		Fallbacks:      fallbacks,
		Type:           catalog.ClassifyElementType(tag, node.Attributes),
		Description:    locator.Describe(node),
		Confidence:     metrics.Overall,
		Metrics:        &metrics,
		DiscoveryState: entity.DiscoveryStateConfirmed,
	}, true
}
