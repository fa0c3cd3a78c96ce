package explorer

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
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	explorerName   = "StateExplorer"
	explorerTracer = "explorer"

	revealedConfidence = 0.7
	triggerTextLength  = 50
)

var _ ports.HiddenElementExplorer = (*Explorer)(nil)

type Timings struct {
	ClickTimeout time.Duration
	SettleDelay  time.Duration
	BackTimeout  time.Duration
	BackDelay    time.Duration
	EscapeDelay  time.Duration
	ProbeTimeout time.Duration
}

type Config struct {
	MaxTriggers int
	Timings     Timings
}

func DefaultConfig() Config {
	return Config{
		MaxTriggers: 10,
		Timings: Timings{
			ClickTimeout: 3 * time.Second,
			SettleDelay:  800 * time.Millisecond,
			BackTimeout:  5 * time.Second,
			BackDelay:    500 * time.Millisecond,
			EscapeDelay:  300 * time.Millisecond,
			ProbeTimeout: 500 * time.Millisecond,
		},
	}
}

type Explorer struct {
	catalog     *catalog.Catalog
	synthesizer *locator.Synthesizer
	logger      *zap.Logger
	tracer      trace.Tracer
	cfg         Config
	sleep       func(ctx context.Context, d time.Duration) error
}

type Option func(*Explorer)

func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Explorer) { e.sleep = fn }
}

func New(c *catalog.Catalog, synth *locator.Synthesizer, logger *zap.Logger, cfg Config, opts ...Option) *Explorer {
	e := &Explorer{
		catalog:     c,
		synthesizer: synth,
		logger:      logger.With(zap.String(logg.Layer, explorerName)),
		tracer:      otel.Tracer(explorerTracer),
		cfg:         cfg,
		sleep:       sleepContext,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// DiscoverHiddenElements clicks up to MaxTriggers triggers and returns elements they reveal that
// are not already in baseline. It never fails: broken triggers are logged and skipped.
// onProgress may be nil.
func (e *Explorer) DiscoverHiddenElements(ctx context.Context, page ports.Page, baseline []entity.DiscoveredElement, onProgress func(string)) []entity.DiscoveredElement {
	const op = "DiscoverHiddenElements"
	logger := e.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, page.URL()))

	var err error
	ctx, step := tracing.StartSpan(ctx, e.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	progress := func(format string, args ...any) {
		if onProgress != nil {
			onProgress(fmt.Sprintf(format, args...))
		}
	}

	found := []entity.DiscoveredElement{}

	triggers, err := e.DiscoverTriggers(ctx, page)
	if err != nil {
		logger.Warn("trigger discovery failed, skipping exploration",
			zap.Error(apperr.Wrap(op, apperr.CodeExploration, err, map[string]any{
				apperr.MetaReason: "trigger_discovery_failed",
				apperr.MetaStage:  apperr.StageExploration,
			})),
		)
		return found
	}

	if e.cfg.MaxTriggers > 0 && len(triggers) > e.cfg.MaxTriggers {
		triggers = triggers[:e.cfg.MaxTriggers]
	}
	progress("Found %d interactive triggers", len(triggers))
	step.SetAttributes(attribute.Int("triggers", len(triggers)))

	known := make(map[string]struct{}, len(baseline))
	for _, el := range baseline {
		known[el.Locator] = struct{}{}
	}

	for i, trig := range triggers {
		if ctx.Err() != nil {
			logger.Info("exploration interrupted", zap.Error(ctx.Err()))
			break
		}

		progress("Exploring %s trigger %d/%d: %s", trig.Kind, i+1, len(triggers), trig.Text)

		revealed, trigErr := e.exercise(ctx, page, trig, known)
		if trigErr != nil {
			logger.Warn("trigger interaction failed",
				zap.String(logg.Trigger, trig.Locator),
				zap.Error(apperr.Wrap(op, apperr.CodeTriggerInteraction, trigErr, map[string]any{
					apperr.MetaReason:   "trigger_failed",
					apperr.MetaStage:    apperr.StageInteraction,
					apperr.MetaSelector: trig.Locator,
				})),
			)
			continue
		}

		found = append(found, revealed...)

		if len(revealed) > 0 {
			progress("Trigger %q revealed %d new elements", trig.Text, len(revealed))
		}
	}

	step.SetAttributes(attribute.Int("revealed", len(found)))
	logger.Info("exploration finished", zap.Int("triggers", len(triggers)), zap.Int("revealed", len(found)))

	return found
}

// exercise clicks one trigger, scans what it revealed and puts the page back.
// Net-new locators are added to known.
func (e *Explorer) exercise(ctx context.Context, page ports.Page, trig entity.InteractiveTrigger, known map[string]struct{}) ([]entity.DiscoveredElement, error) {
	t := e.cfg.Timings
	logger := e.logger.With(zap.String(logg.Trigger, trig.Locator))

	before := page.URL()

	visible, err := page.IsVisible(ctx, trig.Locator, t.ClickTimeout)
	if err != nil {
		return nil, err
	}
	if !visible {
		logger.Debug("trigger not visible, skipping")
		return nil, nil
	}

	if err := page.Click(ctx, trig.Locator, t.ClickTimeout); err != nil {
		return nil, err
	}

	if err := e.sleep(ctx, t.SettleDelay); err != nil {
		return nil, err
	}

	if after := page.URL(); after != before {
		logger.Info("trigger navigated away, going back", zap.String("from", before), zap.String("to", after))
		if err := page.GoBack(ctx, t.BackTimeout); err != nil {
			logger.Debug("go back failed", zap.Error(err))
		}
		_ = e.sleep(ctx, t.BackDelay)

		return nil, nil
	}

	revealed := e.scanRevealed(ctx, page, trig, known)

	switch trig.Kind {
	case entity.TriggerModal, entity.TriggerDropdown, entity.TriggerPopup:
		e.restore(ctx, page, logger)
	}

	return revealed, nil
}

func (e *Explorer) scanRevealed(ctx context.Context, page ports.Page, trig entity.InteractiveTrigger, known map[string]struct{}) []entity.DiscoveredElement {
	var nodes []entity.Node
	seen := make(map[string]struct{})
	collect := func(selector string) {
		found, err := page.QueryAll(ctx, selector)
		if err != nil {
			e.logger.Debug("reveal query failed", zap.String(logg.Selector, selector), zap.Error(err))
			return
		}
		for _, n := range found {
			if !n.Visible {
				continue
			}
			if _, dup := seen[n.Path]; dup && n.Path != "" {
				continue
			}
			seen[n.Path] = struct{}{}
			nodes = append(nodes, n)
		}
	}

	containerFound := false
	for _, container := range e.catalog.RevealContainers() {
		if !e.anyVisible(ctx, page, container) {
			continue
		}
		containerFound = true

		for _, desc := range e.catalog.RevealDescendants() {
			collect(container + " " + desc)
		}
	}

	if !containerFound {
		for _, selector := range e.catalog.RevealFallback() {
			collect(selector)
		}
	}

	state := entity.DiscoveryStateAfterInteraction
	switch trig.Kind {
	case entity.TriggerModal:
		state = entity.DiscoveryStateModal
	case entity.TriggerTab:
		state = entity.DiscoveryStateTab
	}

	var out []entity.DiscoveredElement
	for _, n := range nodes {
		scored := quality.Qualify(e.synthesizer.Synthesize(ctx, page, n), 0)
		if len(scored) == 0 {
			continue
		}

		primary := scored[0]
		if _, ok := known[primary.Locator]; ok {
			continue
		}
		known[primary.Locator] = struct{}{}

		metrics := primary.Metrics
		out = append(out, entity.DiscoveredElement{
			Locator:          primary.Locator,
			Type:             catalog.ClassifyElementType(n.Tag, n.Attributes),
			Description:      locator.Describe(n),
			Confidence:       revealedConfidence,
			Metrics:          &metrics,
			DiscoveryState:   state,
			DiscoveryTrigger: trig.Text,
		})
	}

	return out
}

func (e *Explorer) anyVisible(ctx context.Context, page ports.Page, selector string) bool {
	nodes, err := page.QueryAll(ctx, selector)
	if err != nil {
		return false
	}

	for _, n := range nodes {
		if n.Visible {
			return true
		}
	}

	return false
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
