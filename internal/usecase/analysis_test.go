package usecase_test

import (
	"context"
	"element-scout/internal/catalog"
	"element-scout/internal/config"
	"element-scout/internal/discovery"
	"element-scout/internal/entity"
	"element-scout/internal/explorer"
	"element-scout/internal/locator"
	"element-scout/internal/mock"
	"element-scout/internal/pagetest"
	"element-scout/internal/ports"
	"element-scout/internal/quality"
	"element-scout/internal/retry"
	"element-scout/internal/stabilizer"
	"element-scout/internal/usecase"
	"element-scout/internal/usecase/adapters"
	"element-scout/pkg/apperr"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func noSleep(context.Context, time.Duration) error { return nil }

// routedPage swaps in a fresh synthetic page for whichever URL it is navigated to.
type routedPage struct {
	*pagetest.Page
	routes map[string]func() *pagetest.Page
}

func (r *routedPage) Navigate(ctx context.Context, url string, wait entity.WaitStrategy, timeout time.Duration) (int, error) {
	build, ok := r.routes[url]
	if !ok {
		return 0, errors.New("net::ERR_NAME_NOT_RESOLVED at " + url)
	}
	r.Page = build()

	return r.Page.Navigate(ctx, url, wait, timeout)
}

type fakePages struct {
	mu       sync.Mutex
	ready    bool
	pages    []func() ports.Page
	fallback func() ports.Page
	opened   int
	released int
}

func (f *fakePages) NewPage(context.Context) (ports.Page, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	build := f.fallback
	if f.opened < len(f.pages) {
		build = f.pages[f.opened]
	}
	f.opened++

	return build(), func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.released++
	}, nil
}

func (f *fakePages) IsReady() bool {
	return f.ready
}

func routed(routes map[string]func() *pagetest.Page) func() ports.Page {
	return func() ports.Page {
		return &routedPage{Page: pagetest.MustNew("about:blank", "<html><body></body></html>"), routes: routes}
	}
}

type discoverFunc func(ctx context.Context, page ports.Page) ([]entity.DiscoveredElement, error)

func (f discoverFunc) DiscoverElements(ctx context.Context, page ports.Page) ([]entity.DiscoveredElement, error) {
	return f(ctx, page)
}

const loginURL = "https://app.test/login"

const loginPage = `<html><body>
<form id="signup">
<input id="email" name="email" aria-label="Email">
<button id="submit-btn">Sign in</button>
</form>
</body></html>`

const inventoryURL = "https://shop.test/inventory"

const inventoryPage = `<html><body>
<button class="add-btn">Add Item</button>
<div role="dialog" hidden><input name="qty"></div>
</body></html>`

func defaultRoutes() map[string]func() *pagetest.Page {
	return map[string]func() *pagetest.Page{
		loginURL: func() *pagetest.Page { return pagetest.MustNew(loginURL, loginPage) },
		inventoryURL: func() *pagetest.Page {
			return pagetest.MustNew(inventoryURL, inventoryPage).
				OnClick("button.add-btn", func(p *pagetest.Page) { p.Show(`[role="dialog"]`) }).
				OnKey("Escape", func(p *pagetest.Page) { p.Hide(`[role="dialog"]`) })
		},
		"https://app.test/forbidden": func() *pagetest.Page {
			return pagetest.MustNew("https://app.test/forbidden", loginPage).SetStatus(403)
		},
		"https://app.test/missing": func() *pagetest.Page {
			return pagetest.MustNew("https://app.test/missing", loginPage).SetStatus(404)
		},
	}
}

type fixture struct {
	pages      *fakePages
	discoverer ports.ElementDiscoverer
	maxRetries int
}

func (f fixture) service() *usecase.AnalysisService {
	c := catalog.Default()
	logger := zap.NewNop()
	synth := locator.NewSynthesizer(c, logger)

	discoverer := f.discoverer
	if discoverer == nil {
		discoverer = discovery.NewScanner(c, synth, logger, discovery.DefaultConfig())
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = f.maxRetries

	return usecase.NewAnalysisService(usecase.AnalysisServiceParams{
		Config: &config.Config{
			BatchConfig: &config.BatchConfig{Concurrency: 2},
		},
		Logger:     logger,
		Pages:      f.pages,
		Stabilizer: stabilizer.New(c, logger, stabilizer.WithSleep(noSleep)),
		Discoverer: discoverer,
		Explorer:   explorer.New(c, synth, logger, explorer.DefaultConfig(), explorer.WithSleep(noSleep)),
		Policy: retry.NewPolicy(retryCfg, logger,
			retry.WithSleep(noSleep),
			retry.WithJitter(func(time.Duration) time.Duration { return 0 }),
		),
		Evaluator: quality.NewEvaluator(logger, quality.DefaultMinQuality),
	})
}

func readyPages(pages ...func() ports.Page) *fakePages {
	return &fakePages{ready: true, pages: pages, fallback: routed(defaultRoutes())}
}

func TestAnalysisService_AnalyzeURL(t *testing.T) {
	t.Parallel()

	t.Run("reports elements from a healthy page", func(t *testing.T) {
		t.Parallel()

		pages := readyPages()
		var messages []string
		res, err := fixture{pages: pages}.service().AnalyzeURL(context.Background(), loginURL, adapters.AnalyzeOptions{
			Explore:    true,
			OnProgress: func(msg string) { messages = append(messages, msg) },
		})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, res.ID)
		assert.Equal(t, entity.OutcomeOK, res.Outcome)
		assert.Equal(t, 200, res.StatusCode)
		assert.Equal(t, stabilizer.StrategyFast, res.Strategy)
		assert.NotEmpty(t, res.Elements)
		assert.NotNil(t, res.Hidden)
		require.Len(t, res.Attempts, 1)
		assert.True(t, res.Attempts[0].Success)
		assert.Equal(t, len(res.Elements)+len(res.Hidden), res.Attempts[0].ElementsFound)
		assert.Empty(t, res.Error)
		assert.Contains(t, messages, "Loading "+loginURL)

		var locators []string
		for _, el := range res.Elements {
			locators = append(locators, el.Locator)
		}
		assert.Contains(t, locators, "#submit-btn")

		assert.Equal(t, 1, pages.opened)
		assert.Equal(t, 1, pages.released)
	})

	t.Run("marks 403 as blocked without retrying", func(t *testing.T) {
		t.Parallel()

		res, err := fixture{pages: readyPages(), maxRetries: 3}.service().
			AnalyzeURL(context.Background(), "https://app.test/forbidden", adapters.AnalyzeOptions{})
		require.NoError(t, err)

		assert.Equal(t, entity.OutcomeBlocked, res.Outcome)
		assert.Equal(t, 403, res.StatusCode)
		assert.Equal(t, entity.GaveUpNonRetryable, res.GaveUpReason)
		assert.Len(t, res.Attempts, 1)
		assert.Equal(t, entity.ErrorCategoryAuthentication, res.Attempts[0].ErrorCategory)
		assert.Empty(t, res.Elements)
		assert.NotEmpty(t, res.Error)
	})

	t.Run("marks other error statuses as not found", func(t *testing.T) {
		t.Parallel()

		res, err := fixture{pages: readyPages()}.service().
			AnalyzeURL(context.Background(), "https://app.test/missing", adapters.AnalyzeOptions{})
		require.NoError(t, err)

		assert.Equal(t, entity.OutcomeNotFound, res.Outcome)
		assert.Equal(t, 404, res.StatusCode)
	})

	t.Run("marks exhausted navigation timeouts as slow", func(t *testing.T) {
		t.Parallel()

		slow := func() ports.Page {
			return &mock.Page{
				NavigateFn: func(context.Context, string, entity.WaitStrategy, time.Duration) (int, error) {
					return 0, errors.New("Timeout 15000ms exceeded")
				},
			}
		}
		pages := &fakePages{ready: true, fallback: slow}

		res, err := fixture{pages: pages, maxRetries: 1}.service().
			AnalyzeURL(context.Background(), "https://slow.test/", adapters.AnalyzeOptions{})
		require.NoError(t, err)

		assert.Equal(t, entity.OutcomeSlow, res.Outcome)
		assert.Equal(t, entity.GaveUpMaxRetries, res.GaveUpReason)
		assert.Len(t, res.Attempts, 2)
		assert.Equal(t, 1, res.TotalRetries)
		assert.Equal(t, entity.ErrorCategoryTimeout, res.Attempts[0].ErrorCategory)
		assert.Equal(t, 2, pages.released)
	})

	t.Run("recovers on a fresh page after a network error", func(t *testing.T) {
		t.Parallel()

		flaky := func() ports.Page {
			return &mock.Page{
				NavigateFn: func(context.Context, string, entity.WaitStrategy, time.Duration) (int, error) {
					return 0, errors.New("net::ERR_CONNECTION_RESET")
				},
			}
		}

		res, err := fixture{pages: readyPages(flaky), maxRetries: 2}.service().
			AnalyzeURL(context.Background(), loginURL, adapters.AnalyzeOptions{})
		require.NoError(t, err)

		assert.Equal(t, entity.OutcomeOK, res.Outcome)
		assert.Equal(t, 1, res.TotalRetries)
		require.Len(t, res.Attempts, 2)
		assert.Equal(t, entity.ErrorCategoryNetwork, res.Attempts[0].ErrorCategory)
		assert.True(t, res.Attempts[1].Success)
	})

	t.Run("needs interaction when only exploration finds elements", func(t *testing.T) {
		t.Parallel()

		none := discoverFunc(func(context.Context, ports.Page) ([]entity.DiscoveredElement, error) {
			return []entity.DiscoveredElement{}, nil
		})

		res, err := fixture{pages: readyPages(), discoverer: none}.service().
			AnalyzeURL(context.Background(), inventoryURL, adapters.AnalyzeOptions{Explore: true})
		require.NoError(t, err)

		assert.Equal(t, entity.OutcomeNeedsInteraction, res.Outcome)
		assert.Empty(t, res.Elements)
		require.NotEmpty(t, res.Hidden)
		assert.Equal(t, "Add Item", res.Hidden[0].DiscoveryTrigger)
	})

	t.Run("skips exploration when disabled", func(t *testing.T) {
		t.Parallel()

		res, err := fixture{pages: readyPages()}.service().
			AnalyzeURL(context.Background(), inventoryURL, adapters.AnalyzeOptions{Explore: false})
		require.NoError(t, err)

		assert.Equal(t, entity.OutcomeOK, res.Outcome)
		assert.Empty(t, res.Hidden)
	})

	t.Run("rejects unusable urls", func(t *testing.T) {
		t.Parallel()

		svc := fixture{pages: readyPages()}.service()
		for _, raw := range []string{"ftp://files.test/", "not a url", "https://"} {
			_, err := svc.AnalyzeURL(context.Background(), raw, adapters.AnalyzeOptions{})
			require.Error(t, err, raw)
			assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err), raw)
		}
	})

	t.Run("fails fast when the browser is not ready", func(t *testing.T) {
		t.Parallel()

		pages := &fakePages{ready: false, fallback: routed(defaultRoutes())}
		_, err := fixture{pages: pages}.service().AnalyzeURL(context.Background(), loginURL, adapters.AnalyzeOptions{})
		require.Error(t, err)
		assert.Equal(t, apperr.CodeBrowserNotReady, apperr.CodeOf(err))
		assert.Zero(t, pages.opened)
	})
}

func TestAnalysisService_AnalyzeBatch(t *testing.T) {
	t.Parallel()

	t.Run("keeps input order and folds failures into results", func(t *testing.T) {
		t.Parallel()

		urls := []string{loginURL, "https://unknown.test/", "ftp://files.test/", inventoryURL}
		results, err := fixture{pages: readyPages()}.service().
			AnalyzeBatch(context.Background(), urls, adapters.AnalyzeOptions{})
		require.NoError(t, err)
		require.Len(t, results, len(urls))

		for i, res := range results {
			assert.Equal(t, urls[i], res.URL)
		}
		assert.Equal(t, entity.OutcomeOK, results[0].Outcome)
		assert.Equal(t, entity.OutcomeFailed, results[1].Outcome)
		assert.Equal(t, entity.ErrorCategoryNetwork, results[1].Attempts[0].ErrorCategory)
		assert.Equal(t, entity.OutcomeFailed, results[2].Outcome)
		assert.Contains(t, results[2].Error, "unsupported scheme")
		assert.Equal(t, entity.OutcomeOK, results[3].Outcome)
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := fixture{pages: readyPages()}.service().
			AnalyzeBatch(ctx, []string{loginURL}, adapters.AnalyzeOptions{})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestAnalysisService_Selectors(t *testing.T) {
	t.Parallel()

	t.Run("checks a locator against the live page", func(t *testing.T) {
		t.Parallel()

		ev, err := fixture{pages: readyPages()}.service().CheckSelector(context.Background(), loginURL, "#submit-btn")
		require.NoError(t, err)

		assert.Equal(t, 1, ev.MatchCount)
		assert.True(t, ev.Passes)
		assert.InDelta(t, 1.0, ev.Metrics.Uniqueness, 1e-9)
	})

	t.Run("rejects an empty locator", func(t *testing.T) {
		t.Parallel()

		_, err := fixture{pages: readyPages()}.service().CheckSelector(context.Background(), loginURL, "")
		require.Error(t, err)
		assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	})

	t.Run("scores a locator without a page", func(t *testing.T) {
		t.Parallel()

		ev := fixture{pages: readyPages()}.service().ScoreSelector("span", 12)
		assert.True(t, ev.Rejection.Reject)
		assert.False(t, ev.Passes)
		assert.NotEmpty(t, ev.Suggestions)
	})
}
