package explorer

import (
	"context"
	"element-scout/internal/catalog"
	"element-scout/internal/entity"
	"element-scout/internal/locator"
	"element-scout/internal/ports"
	"element-scout/pkg/logg"
	"errors"
	"strings"

	"go.uber.org/zap"
)

var errNoTriggerQuery = errors.New("every trigger query failed")

// DiscoverTriggers returns the clickable elements suspected of revealing more UI, in catalog
// order, one per synthesized locator.
func (e *Explorer) DiscoverTriggers(ctx context.Context, page ports.Page) ([]entity.InteractiveTrigger, error) {
	var (
		triggers []entity.InteractiveTrigger
		queries  int
		failures int
		lastErr  error
	)

	seenNodes := make(map[string]struct{})
	seenLocators := make(map[string]struct{})

	for _, rule := range e.catalog.Triggers() {
		for _, selector := range rule.Selectors {
			queries++
			nodes, err := page.QueryAll(ctx, selector)
			if err != nil {
				failures++
				lastErr = err
				e.logger.Debug("trigger query failed", zap.String(logg.Selector, selector), zap.Error(err))
				continue
			}

			for _, node := range nodes {
				if !node.Visible || !e.accepts(rule, node) {
					continue
				}
				if node.Path != "" {
					if _, ok := seenNodes[node.Path]; ok {
						continue
					}
					seenNodes[node.Path] = struct{}{}
				}

				primary, ok := e.synthesizer.Primary(ctx, page, node)
				if !ok {
					continue
				}
				if _, dup := seenLocators[primary.Locator]; dup {
					continue
				}
				seenLocators[primary.Locator] = struct{}{}

				triggers = append(triggers, entity.InteractiveTrigger{
					Kind:    rule.Kind,
					Locator: primary.Locator,
					Text:    triggerText(node),
				})
			}
		}
	}

	if queries > 0 && failures == queries {
		return nil, errors.Join(errNoTriggerQuery, lastErr)
	}

	return triggers, nil
}

func (e *Explorer) accepts(rule catalog.TriggerRule, node entity.Node) bool {
	if rule.RequireActionText {
		if !e.catalog.HasActionVerb(triggerText(node)) {
			return false
		}
		if strings.EqualFold(node.Tag, "a") && navigates(node.Attr("href")) {
			return false
		}
	}

	if rule.RequireCollapsed && node.HasAttr("aria-expanded") && !strings.EqualFold(node.Attr("aria-expanded"), "false") {
		return false
	}

	// A tab is inactive when aria-selected is "false" or it carries no active class.
	if rule.RequireInactive && !strings.EqualFold(node.Attr("aria-selected"), "false") && hasActiveClass(node) {
		return false
	}

	return true
}

func hasActiveClass(node entity.Node) bool {
	for _, class := range strings.Fields(node.Attr("class")) {
		switch strings.ToLower(class) {
		case "active", "selected", "is-active", "current":
			return true
		}
	}

	return false
}

// navigates reports whether an anchor href leads to another document.
func navigates(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}

	return !strings.HasPrefix(strings.ToLower(href), "javascript:")
}

func triggerText(node entity.Node) string {
	for _, s := range []string{node.Text, node.Attr("aria-label"), node.Attr("title")} {
		if s = locator.Truncate(s, triggerTextLength); s != "" {
			return s
		}
	}

	return ""
}

// restore closes whatever a modal, dropdown or popup trigger opened. Failures are logged only.
func (e *Explorer) restore(ctx context.Context, page ports.Page, logger *zap.Logger) {
	t := e.cfg.Timings

	if err := page.PressKey(ctx, "Escape"); err != nil {
		logger.Debug("escape failed", zap.Error(err))
	}
	_ = e.sleep(ctx, t.EscapeDelay)

	if !e.dialogOpen(ctx, page) {
		return
	}

	for _, selector := range e.catalog.CloseSelectors() {
		if e.tryClick(ctx, page, selector) {
			logger.Debug("closed overlay", zap.String(logg.Selector, selector))
			return
		}
	}

	if buttons, err := page.QueryAll(ctx, "button"); err == nil {
		closeTexts := e.catalog.CloseTexts()
		for _, b := range buttons {
			if !b.Visible || !containsFold(closeTexts, strings.TrimSpace(b.Text)) {
				continue
			}
			if primary, ok := e.synthesizer.Primary(ctx, page, b); ok && e.tryClick(ctx, page, primary.Locator) {
				logger.Debug("closed overlay by text", zap.String(logg.Selector, primary.Locator))
				return
			}
		}
	}

	if err := page.ClickAt(ctx, 10, 10); err != nil {
		logger.Debug("backdrop click failed", zap.Error(err))
	}
}

func (e *Explorer) dialogOpen(ctx context.Context, page ports.Page) bool {
	for _, selector := range e.catalog.DialogSelectors() {
		if visible, err := page.IsVisible(ctx, selector, e.cfg.Timings.ProbeTimeout); err == nil && visible {
			return true
		}
	}

	return false
}

func (e *Explorer) tryClick(ctx context.Context, page ports.Page, selector string) bool {
	visible, err := page.IsVisible(ctx, selector, e.cfg.Timings.ProbeTimeout)
	if err != nil || !visible {
		return false
	}

	return page.Click(ctx, selector, e.cfg.Timings.ClickTimeout) == nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}

	return false
}
