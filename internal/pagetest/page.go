// Package pagetest provides an in-memory ports.Page backed by a parsed HTML document.
// Clicks and key presses run registered handlers that mutate the document, which is enough
// to simulate modals, dropdowns and tabs without a browser.
package pagetest

import (
	"context"
	"element-scout/internal/entity"
	"element-scout/internal/ports"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

var _ ports.Page = (*Page)(nil)

var ErrNotVisible = errors.New("element is not visible")

type Handler func(p *Page)

type clickHandler struct {
	selector string
	fn       Handler
}

type Page struct {
	mu      sync.Mutex
	doc     *goquery.Document
	url     string
	history []string
	status  int

	clickHandlers []clickHandler
	keyHandlers   map[string][]Handler

	Clicks   []string
	Keys     []string
	ClicksAt [][2]float64
}

func New(url, markup string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return &Page{
		doc:         doc,
		url:         url,
		status:      200,
		keyHandlers: make(map[string][]Handler),
	}, nil
}

func MustNew(url, markup string) *Page {
	p, err := New(url, markup)
	if err != nil {
		panic(err)
	}

	return p
}

// OnClick runs fn whenever a click lands on a node matched by selector.
func (p *Page) OnClick(selector string, fn Handler) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clickHandlers = append(p.clickHandlers, clickHandler{selector: selector, fn: fn})

	return p
}

func (p *Page) OnKey(key string, fn Handler) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.keyHandlers[key] = append(p.keyHandlers[key], fn)

	return p
}

func (p *Page) SetStatus(status int) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = status

	return p
}

// The helpers below are meant to be called from handlers, which already run under the lock.

func (p *Page) Show(selector string) {
	p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		s.RemoveAttr("hidden")
		if style, ok := s.Attr("style"); ok {
			s.SetAttr("style", strings.ReplaceAll(strings.ReplaceAll(style, "display:none", ""), "display: none", ""))
		}
	})
}

func (p *Page) Hide(selector string) {
	p.doc.Find(selector).SetAttr("hidden", "")
}

func (p *Page) SetAttr(selector, name, value string) {
	p.doc.Find(selector).SetAttr(name, value)
}

func (p *Page) GoTo(url string) {
	p.history = append(p.history, p.url)
	p.url = url
}

func (p *Page) Navigate(_ context.Context, url string, _ entity.WaitStrategy, _ time.Duration) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if url != p.url {
		p.GoTo(url)
	}

	return p.status, nil
}

func (p *Page) WaitForLoadState(context.Context, entity.WaitStrategy, time.Duration) error {
	return nil
}

func (p *Page) WaitForFunction(context.Context, string, any, time.Duration, time.Duration) error {
	return nil
}

func (p *Page) Evaluate(context.Context, string, any) (any, error) {
	return nil, nil
}

func (p *Page) QueryAll(_ context.Context, selector string) ([]entity.Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sel, err := p.find(selector)
	if err != nil {
		return nil, err
	}

	nodes := make([]entity.Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, snapshot(s))
	})

	return nodes, nil
}

func (p *Page) Count(_ context.Context, selector string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sel, err := p.find(selector)
	if err != nil {
		return 0, err
	}

	return sel.Length(), nil
}

func (p *Page) IsVisible(_ context.Context, selector string, _ time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sel, err := p.find(selector)
	if err != nil {
		return false, err
	}
	if sel.Length() == 0 {
		return false, nil
	}

	return visible(sel.First()), nil
}

func (p *Page) Click(_ context.Context, selector string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	sel, err := p.find(selector)
	if err != nil {
		return err
	}
	if sel.Length() == 0 {
		return fmt.Errorf("waiting for locator(%q): no element", selector)
	}

	target := sel.First()
	if !visible(target) {
		return ErrNotVisible
	}

	p.Clicks = append(p.Clicks, selector)

	for _, h := range p.clickHandlers {
		if p.doc.Find(h.selector).IsSelection(target) {
			h.fn(p)
		}
	}

	return nil
}

func (p *Page) PressKey(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Keys = append(p.Keys, key)
	for _, fn := range p.keyHandlers[key] {
		fn(p)
	}

	return nil
}

func (p *Page) ClickAt(_ context.Context, x, y float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ClicksAt = append(p.ClicksAt, [2]float64{x, y})

	return nil
}

func (p *Page) GoBack(context.Context, time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.history) == 0 {
		return errors.New("no history entry to go back to")
	}

	p.url = p.history[len(p.history)-1]
	p.history = p.history[:len(p.history)-1]

	return nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.url
}

func (p *Page) find(selector string) (*goquery.Selection, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	return p.doc.FindMatcher(matcher), nil
}

func snapshot(s *goquery.Selection) entity.Node {
	n := s.Get(0)

	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[a.Key] = a.Val
	}

	parentID, _ := s.Parent().Attr("id")

	return entity.Node{
		Tag:        n.Data,
		Text:       strings.TrimSpace(s.Text()),
		Attributes: attrs,
		ParentID:   parentID,
		Path:       path(n),
		Cursor:     styleValue(attrs["style"], "cursor"),
		Visible:    visible(s),
	}
}

func visible(s *goquery.Selection) bool {
	if t, _ := s.Attr("type"); goquery.NodeName(s) == "input" && t == "hidden" {
		return false
	}

	for n := s.Get(0); n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}

		for _, a := range n.Attr {
			switch a.Key {
			case "hidden":
				return false
			case "style":
				if styleValue(a.Val, "display") == "none" || styleValue(a.Val, "visibility") == "hidden" {
					return false
				}
			}
		}
	}

	return true
}

func styleValue(style, prop string) string {
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(k) == prop {
			return strings.TrimSpace(v)
		}
	}

	return ""
}

func path(n *html.Node) string {
	var parts []string
	for ; n != nil && n.Type == html.ElementNode; n = n.Parent {
		idx := 1
		for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
			if sib.Type == html.ElementNode {
				idx++
			}
		}
		parts = append(parts, fmt.Sprintf("%s:%d", n.Data, idx))
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}

	return strings.Join(parts, ">")
}
