package mock

import (
	"context"
	"element-scout/internal/entity"
	"element-scout/internal/ports"
	"time"
)

var _ ports.Page = (*Page)(nil)

// Page is a function-field mock of ports.Page. Nil functions return zero values.
type Page struct {
	NavigateFn         func(ctx context.Context, url string, wait entity.WaitStrategy, timeout time.Duration) (int, error)
	WaitForLoadStateFn func(ctx context.Context, state entity.WaitStrategy, timeout time.Duration) error
	WaitForFunctionFn  func(ctx context.Context, script string, arg any, polling, timeout time.Duration) error
	EvaluateFn         func(ctx context.Context, script string, arg any) (any, error)
	QueryAllFn         func(ctx context.Context, selector string) ([]entity.Node, error)
	CountFn            func(ctx context.Context, selector string) (int, error)
	IsVisibleFn        func(ctx context.Context, selector string, timeout time.Duration) (bool, error)
	ClickFn            func(ctx context.Context, selector string, timeout time.Duration) error
	PressKeyFn         func(ctx context.Context, key string) error
	ClickAtFn          func(ctx context.Context, x, y float64) error
	GoBackFn           func(ctx context.Context, timeout time.Duration) error
	URLFn              func() string
}

func (p *Page) Navigate(ctx context.Context, url string, wait entity.WaitStrategy, timeout time.Duration) (int, error) {
	if p.NavigateFn == nil {
		return 0, nil
	}

	return p.NavigateFn(ctx, url, wait, timeout)
}

func (p *Page) WaitForLoadState(ctx context.Context, state entity.WaitStrategy, timeout time.Duration) error {
	if p.WaitForLoadStateFn == nil {
		return nil
	}

	return p.WaitForLoadStateFn(ctx, state, timeout)
}

func (p *Page) WaitForFunction(ctx context.Context, script string, arg any, polling, timeout time.Duration) error {
	if p.WaitForFunctionFn == nil {
		return nil
	}

	return p.WaitForFunctionFn(ctx, script, arg, polling, timeout)
}

func (p *Page) Evaluate(ctx context.Context, script string, arg any) (any, error) {
	if p.EvaluateFn == nil {
		return nil, nil
	}

	return p.EvaluateFn(ctx, script, arg)
}

func (p *Page) QueryAll(ctx context.Context, selector string) ([]entity.Node, error) {
	if p.QueryAllFn == nil {
		return nil, nil
	}

	return p.QueryAllFn(ctx, selector)
}

func (p *Page) Count(ctx context.Context, selector string) (int, error) {
	if p.CountFn == nil {
		return 0, nil
	}

	return p.CountFn(ctx, selector)
}

func (p *Page) IsVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	if p.IsVisibleFn == nil {
		return false, nil
	}

	return p.IsVisibleFn(ctx, selector, timeout)
}

func (p *Page) Click(ctx context.Context, selector string, timeout time.Duration) error {
	if p.ClickFn == nil {
		return nil
	}

	return p.ClickFn(ctx, selector, timeout)
}

func (p *Page) PressKey(ctx context.Context, key string) error {
	if p.PressKeyFn == nil {
		return nil
	}

	return p.PressKeyFn(ctx, key)
}

func (p *Page) ClickAt(ctx context.Context, x, y float64) error {
	if p.ClickAtFn == nil {
		return nil
	}

	return p.ClickAtFn(ctx, x, y)
}

func (p *Page) GoBack(ctx context.Context, timeout time.Duration) error {
	if p.GoBackFn == nil {
		return nil
	}

	return p.GoBackFn(ctx, timeout)
}

func (p *Page) URL() string {
	if p.URLFn == nil {
		return ""
	}

	return p.URLFn()
}
