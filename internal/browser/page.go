package browser

import (
	"context"
	"element-scout/internal/entity"
	"element-scout/internal/ports"
	"element-scout/pkg/apperr"
	"element-scout/pkg/logg"
	"element-scout/pkg/tracing"
	"errors"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	pageName   = "BrowserPage"
	pageTracer = "browser.page"
)

var _ ports.Page = (*Page)(nil)

// Page adapts a playwright page to ports.Page. Playwright calls do not take a context, so ctx is
// checked before each call and every call carries its own timeout.
type Page struct {
	page   playwright.Page
	logger *zap.Logger
	tracer trace.Tracer
}

func newPage(page playwright.Page, logger *zap.Logger) *Page {
	return &Page{
		page:   page,
		logger: logger.With(zap.String(logg.Layer, pageName)),
		tracer: otel.Tracer(pageTracer),
	}
}

func (p *Page) Navigate(ctx context.Context, url string, wait entity.WaitStrategy, timeout time.Duration) (status int, err error) {
	const op = "Navigate"
	logger := p.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, url))

	ctx, step := tracing.StartSpan(ctx, p.tracer, logger, op,
		tracing.URL.String(url),
		attribute.String("wait", string(wait)),
	)
	defer func() {
		step.End(err)
	}()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	resp, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   millis(timeout),
		WaitUntil: waitUntil(wait),
	})
	if err != nil {
		return 0, err
	}

	if resp == nil {
		return 0, nil
	}

	return resp.Status(), nil
}

func (p *Page) WaitForLoadState(ctx context.Context, state entity.WaitStrategy, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   loadState(state),
		Timeout: millis(timeout),
	})
}

func (p *Page) WaitForFunction(ctx context.Context, script string, arg any, polling, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := p.page.WaitForFunction(script, arg, playwright.PageWaitForFunctionOptions{
		Polling: float64(polling.Milliseconds()),
		Timeout: millis(timeout),
	})

	return err
}

func (p *Page) Evaluate(ctx context.Context, script string, arg any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return p.page.Evaluate(script, arg)
}

func (p *Page) QueryAll(ctx context.Context, selector string) ([]entity.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := p.page.Evaluate(snapshotScript, selector)
	if err != nil {
		return nil, apperr.Wrap("QueryAll", apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason:   "evaluate_failed",
			apperr.MetaSelector: selector,
		})
	}

	return decodeNodes(result)
}

func (p *Page) Count(ctx context.Context, selector string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	return p.page.Locator(selector).Count()
}

// IsVisible waits up to timeout for the first match to become visible. A timeout is not an error.
func (p *Page) IsVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	loc := p.page.Locator(selector).First()
	if timeout <= 0 {
		return loc.IsVisible()
	}

	err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: millis(timeout),
	})
	if err == nil {
		return true, nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return false, nil
	}

	return false, err
}

func (p *Page) Click(ctx context.Context, selector string, timeout time.Duration) (err error) {
	const op = "Click"
	logger := p.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, p.tracer, logger, op, tracing.Selector.String(selector))
	defer func() {
		step.End(err)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	return p.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: millis(timeout),
	})
}

func (p *Page) PressKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return p.page.Keyboard().Press(key)
}

func (p *Page) ClickAt(ctx context.Context, x, y float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return p.page.Mouse().Click(x, y)
}

func (p *Page) GoBack(ctx context.Context, timeout time.Duration) (err error) {
	const op = "GoBack"
	logger := p.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, p.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	_, err = p.page.GoBack(playwright.PageGoBackOptions{
		Timeout: millis(timeout),
	})

	return err
}

func (p *Page) URL() string {
	return p.page.URL()
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func waitUntil(w entity.WaitStrategy) *playwright.WaitUntilState {
	switch w {
	case entity.WaitNetworkIdle:
		return playwright.WaitUntilStateNetworkidle
	case entity.WaitLoad:
		return playwright.WaitUntilStateLoad
	default:
		return playwright.WaitUntilStateDomcontentloaded
	}
}

func loadState(w entity.WaitStrategy) *playwright.LoadState {
	switch w {
	case entity.WaitNetworkIdle:
		return playwright.LoadStateNetworkidle
	case entity.WaitDOMContentLoaded:
		return playwright.LoadStateDomcontentloaded
	default:
		return playwright.LoadStateLoad
	}
}
