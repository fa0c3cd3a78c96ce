package explorer_test

import (
	"context"
	"element-scout/internal/catalog"
	"element-scout/internal/discovery"
	"element-scout/internal/entity"
	"element-scout/internal/explorer"
	"element-scout/internal/locator"
	"element-scout/internal/mock"
	"element-scout/internal/pagetest"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func noSleep(context.Context, time.Duration) error { return nil }

func newExplorer(cfg explorer.Config) *explorer.Explorer {
	c := catalog.Default()
	return explorer.New(c, locator.NewSynthesizer(c, zap.NewNop()), zap.NewNop(), cfg, explorer.WithSleep(noSleep))
}

func baselineOf(t *testing.T, page *pagetest.Page) []entity.DiscoveredElement {
	t.Helper()

	c := catalog.Default()
	scanner := discovery.NewScanner(c, locator.NewSynthesizer(c, zap.NewNop()), zap.NewNop(), discovery.DefaultConfig())

	elements, err := scanner.DiscoverElements(context.Background(), page)
	require.NoError(t, err)

	return elements
}

const addItemPage = `<html><body>
<h1 id="title">Inventory</h1>
<button class="add-btn">Add Item</button>
<div role="dialog" hidden><input name="qty"></div>
</body></html>`

func newAddItemPage() *pagetest.Page {
	return pagetest.MustNew("https://shop.test/inventory", addItemPage).
		OnClick("button.add-btn", func(p *pagetest.Page) { p.Show(`[role="dialog"]`) }).
		OnKey("Escape", func(p *pagetest.Page) { p.Hide(`[role="dialog"]`) })
}

func TestExplorer_DiscoverHiddenElements(t *testing.T) {
	t.Parallel()

	t.Run("finds an input revealed by a modal trigger", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		page := newAddItemPage()
		baseline := baselineOf(t, page)
		ex := newExplorer(explorer.DefaultConfig())

		var progress []string
		revealed := ex.DiscoverHiddenElements(ctx, page, baseline, func(msg string) { progress = append(progress, msg) })

		require.Len(t, revealed, 1)
		el := revealed[0]
		assert.Equal(t, `input[name="qty"]`, el.Locator)
		assert.Equal(t, entity.DiscoveryStateModal, el.DiscoveryState)
		assert.Contains(t, el.DiscoveryTrigger, "Add Item")
		assert.InDelta(t, 0.7, el.Confidence, 1e-9)
		assert.Equal(t, entity.ElementTypeInput, el.Type)
		require.NotNil(t, el.Metrics)

		assert.Equal(t, []string{"Escape"}, page.Keys, "modal is dismissed")
		assert.Empty(t, page.ClicksAt)
		assert.NotEmpty(t, progress)

		again := ex.DiscoverHiddenElements(ctx, page, append(baseline, revealed...), nil)
		assert.Empty(t, again)
	})

	t.Run("keys revealed elements by their first synthesized locator", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		page := pagetest.MustNew("https://shop.test/cart", `<html><body>
			<button class="add-btn">Add Item</button>
			<div role="dialog" hidden><input id="qty-field" name="qty" aria-label="Quantity"></div>
		</body></html>`).
			OnClick("button.add-btn", func(p *pagetest.Page) { p.Show(`[role="dialog"]`) }).
			OnKey("Escape", func(p *pagetest.Page) { p.Hide(`[role="dialog"]`) })

		revealed := newExplorer(explorer.DefaultConfig()).DiscoverHiddenElements(ctx, page, baselineOf(t, page), nil)

		require.Len(t, revealed, 1)
		assert.Equal(t, "#qty-field", revealed[0].Locator)
	})

	t.Run("abandons triggers that navigate away", func(t *testing.T) {
		t.Parallel()

		page := pagetest.MustNew("https://shop.test/", `<html><body>
			<a href="#" class="more-link">View more</a>
			<form id="extra" hidden><input name="coupon"></form>
		</body></html>`).
			OnClick("a.more-link", func(p *pagetest.Page) {
				p.Show("#extra")
				p.GoTo("https://shop.test/more")
			})

		revealed := newExplorer(explorer.DefaultConfig()).DiscoverHiddenElements(context.Background(), page, nil, nil)

		assert.Empty(t, revealed)
		assert.Equal(t, "https://shop.test/", page.URL())
		assert.Equal(t, []string{"a.more-link"}, page.Clicks)
	})

	t.Run("ignores anchors with a real href", func(t *testing.T) {
		t.Parallel()

		page := pagetest.MustNew("https://shop.test/", `<html><body>
			<a href="/signup" class="cta">Sign up</a>
		</body></html>`)

		triggers, err := newExplorer(explorer.DefaultConfig()).DiscoverTriggers(context.Background(), page)
		require.NoError(t, err)
		assert.Empty(t, triggers)
	})

	t.Run("treats a tab as inactive unless it is both selected and styled active", func(t *testing.T) {
		t.Parallel()

		page := pagetest.MustNew("https://shop.test/", `<html><body>
			<div role="tablist">
				<button role="tab" id="tab-current" aria-selected="true" class="active">Alpha</button>
				<button role="tab" id="tab-styled" aria-selected="false" class="active">Beta</button>
				<button role="tab" id="tab-plain" aria-selected="true">Gamma</button>
				<button role="tab" id="tab-classed" class="selected">Delta</button>
			</div>
		</body></html>`)

		triggers, err := newExplorer(explorer.DefaultConfig()).DiscoverTriggers(context.Background(), page)
		require.NoError(t, err)

		var got []string
		for _, trig := range triggers {
			assert.Equal(t, entity.TriggerTab, trig.Kind)
			got = append(got, trig.Locator)
		}
		assert.Equal(t, []string{"#tab-styled", "#tab-plain"}, got)
	})

	t.Run("tags elements revealed by an inactive tab", func(t *testing.T) {
		t.Parallel()

		page := pagetest.MustNew("https://shop.test/", `<html><body>
			<div role="tablist">
				<button role="tab" id="tab-one" aria-selected="true" class="active">One</button>
				<button role="tab" id="tab-two" aria-selected="false">Two</button>
			</div>
			<div role="tabpanel" id="panel-two" hidden><input name="nickname"></div>
		</body></html>`).
			OnClick("#tab-two", func(p *pagetest.Page) { p.Show("#panel-two") })

		revealed := newExplorer(explorer.DefaultConfig()).DiscoverHiddenElements(context.Background(), page, nil, nil)

		require.Len(t, revealed, 1)
		assert.Equal(t, `input[name="nickname"]`, revealed[0].Locator)
		assert.Equal(t, entity.DiscoveryStateTab, revealed[0].DiscoveryState)
		assert.Equal(t, "Two", revealed[0].DiscoveryTrigger)
		assert.Equal(t, []string{"#tab-two"}, page.Clicks)
		assert.Empty(t, page.Keys, "tabs are left as they are")
	})

	t.Run("falls back to a page wide scan without containers", func(t *testing.T) {
		t.Parallel()

		page := pagetest.MustNew("https://shop.test/", `<html><body>
			<button id="filters" aria-expanded="false">Filters</button>
			<div id="filter-body" hidden><select name="size"></select></div>
		</body></html>`).
			OnClick("#filters", func(p *pagetest.Page) {
				p.Show("#filter-body")
				p.SetAttr("#filters", "aria-expanded", "true")
			})

		revealed := newExplorer(explorer.DefaultConfig()).DiscoverHiddenElements(context.Background(), page, baselineOf(t, page), nil)

		require.Len(t, revealed, 1)
		assert.Equal(t, `select[name="size"]`, revealed[0].Locator)
		assert.Equal(t, entity.DiscoveryStateAfterInteraction, revealed[0].DiscoveryState)
	})

	t.Run("clicks a close button when escape does not dismiss", func(t *testing.T) {
		t.Parallel()

		page := pagetest.MustNew("https://shop.test/", `<html><body>
			<button data-toggle="modal" id="open-invite">Invite</button>
			<div role="dialog" id="invite" hidden>
				<input name="email">
				<button class="close">Close</button>
			</div>
		</body></html>`).
			OnClick("#open-invite", func(p *pagetest.Page) { p.Show("#invite") }).
			OnClick("#invite .close", func(p *pagetest.Page) { p.Hide("#invite") })

		revealed := newExplorer(explorer.DefaultConfig()).DiscoverHiddenElements(context.Background(), page, nil, nil)

		assert.Len(t, revealed, 2)
		assert.Equal(t, []string{"#open-invite", ".close"}, page.Clicks)
		assert.Empty(t, page.ClicksAt)
	})

	t.Run("clicks the backdrop as a last resort", func(t *testing.T) {
		t.Parallel()

		page := pagetest.MustNew("https://shop.test/", `<html><body>
			<button aria-haspopup="dialog" id="open-terms">Terms</button>
			<div role="dialog" id="terms" hidden><textarea name="notes"></textarea></div>
		</body></html>`).
			OnClick("#open-terms", func(p *pagetest.Page) { p.Show("#terms") })

		revealed := newExplorer(explorer.DefaultConfig()).DiscoverHiddenElements(context.Background(), page, nil, nil)

		require.Len(t, revealed, 1)
		assert.Equal(t, [][2]float64{{10, 10}}, page.ClicksAt)
	})

	t.Run("exercises at most the configured number of triggers", func(t *testing.T) {
		t.Parallel()

		page := pagetest.MustNew("https://shop.test/", `<html><body>
			<button id="add-a">Add A</button>
			<button id="add-b">Add B</button>
			<button id="add-c">Add C</button>
		</body></html>`)

		cfg := explorer.DefaultConfig()
		cfg.MaxTriggers = 2
		newExplorer(cfg).DiscoverHiddenElements(context.Background(), page, nil, nil)

		assert.Equal(t, []string{"#add-a", "#add-b"}, page.Clicks)
	})

	t.Run("keeps going after a trigger fails", func(t *testing.T) {
		t.Parallel()

		inner := pagetest.MustNew("https://shop.test/", `<html><body>
			<button id="edit">Edit profile</button>
			<button id="create">Create post</button>
			<div role="dialog" id="post" hidden><input name="title"></div>
		</body></html>`).
			OnClick("#create", func(p *pagetest.Page) { p.Show("#post") })
		page := &failingClickPage{Page: inner, selector: "#edit"}

		revealed := newExplorer(explorer.DefaultConfig()).DiscoverHiddenElements(context.Background(), page, nil, nil)

		require.Len(t, revealed, 1)
		assert.Equal(t, `input[name="title"]`, revealed[0].Locator)
		assert.Equal(t, "Create post", revealed[0].DiscoveryTrigger)
	})

	t.Run("returns nothing when trigger discovery breaks", func(t *testing.T) {
		t.Parallel()

		page := &mock.Page{
			QueryAllFn: func(context.Context, string) ([]entity.Node, error) {
				return nil, errors.New("Execution context was destroyed")
			},
		}

		revealed := newExplorer(explorer.DefaultConfig()).DiscoverHiddenElements(context.Background(), page, nil, nil)
		assert.NotNil(t, revealed)
		assert.Empty(t, revealed)
	})
}

type failingClickPage struct {
	*pagetest.Page
	selector string
}

func (p *failingClickPage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	if selector == p.selector {
		return errors.New("Timeout 3000ms exceeded")
	}

	return p.Page.Click(ctx, selector, timeout)
}
