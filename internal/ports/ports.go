package ports

import (
	"context"
	"element-scout/internal/entity"
	"time"
)

// Page is the rendering-engine collaborator. Every blocking call carries an explicit timeout
// or honours ctx; implementations never retry on their own.
type Page interface {
	Navigate(ctx context.Context, url string, wait entity.WaitStrategy, timeout time.Duration) (status int, err error)
	WaitForLoadState(ctx context.Context, state entity.WaitStrategy, timeout time.Duration) error
	WaitForFunction(ctx context.Context, script string, arg any, polling, timeout time.Duration) error
	Evaluate(ctx context.Context, script string, arg any) (any, error)
	QueryAll(ctx context.Context, selector string) ([]entity.Node, error)
	Count(ctx context.Context, selector string) (int, error)
	IsVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error)
	Click(ctx context.Context, selector string, timeout time.Duration) error
	PressKey(ctx context.Context, key string) error
	ClickAt(ctx context.Context, x, y float64) error
	GoBack(ctx context.Context, timeout time.Duration) error
	URL() string
}

type PageFactory interface {
	NewPage(ctx context.Context) (Page, func(), error)
	IsReady() bool
}

type ElementDiscoverer interface {
	DiscoverElements(ctx context.Context, page Page) ([]entity.DiscoveredElement, error)
}

type HiddenElementExplorer interface {
	DiscoverHiddenElements(ctx context.Context, page Page, baseline []entity.DiscoveredElement, onProgress func(string)) []entity.DiscoveredElement
}

type PageStabilizer interface {
	StabilizePage(ctx context.Context, page Page, url string, fastMode bool) (*entity.StabilizeResult, error)
}

// BrowserManager owns the browser process behind a PageFactory.
type BrowserManager interface {
	PageFactory
	Launch(ctx context.Context) error
	Close(ctx context.Context) error
}
