package locator

import (
	"context"
	"element-scout/internal/catalog"
	"element-scout/internal/entity"
	"element-scout/internal/ports"
	"element-scout/pkg/logg"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const synthesizerName = "LocatorSynthesizer"

type Synthesizer struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
}

func NewSynthesizer(c *catalog.Catalog, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		catalog: c,
		logger:  logger.With(zap.String(logg.Layer, synthesizerName)),
	}
}

// Candidates lists locator candidates for node, most preferred first, without touching the page.
func (s *Synthesizer) Candidates(node entity.Node) []string {
	tag := strings.ToLower(node.Tag)
	if tag == "" {
		return nil
	}

	var out []string
	add := func(loc string) {
		for _, existing := range out {
			if existing == loc {
				return
			}
		}
		out = append(out, loc)
	}

	for _, attr := range s.catalog.TestIDAttributes() {
		if v := node.Attr(attr); v != "" {
			add(attrSelector("", attr, v))
			break
		}
	}

	if id := strings.TrimSpace(node.Attr("id")); id != "" {
		add("#" + catalog.EscapeSelectorLiteral(id))
	}

	if label := node.Attr("aria-label"); label != "" {
		add(attrSelector("", "aria-label", label))
	}

	if name := node.Attr("name"); name != "" {
		add(attrSelector(tag, "name", name))
	}

	classes := s.catalog.StableClasses(node.Attr("class"))

	if typ := node.Attr("type"); typ != "" && len(classes) > 0 {
		add(attrSelector(tag, "type", typ) + "." + catalog.EscapeSelectorLiteral(classes[0]))
	}

	if parent := strings.TrimSpace(node.ParentID); parent != "" {
		add("#" + catalog.EscapeSelectorLiteral(parent) + " > " + tag)
	}

	if len(classes) > 0 {
		if len(classes) > 2 {
			classes = classes[:2]
		}

		var b strings.Builder
		b.WriteString(tag)
		for _, class := range classes {
			b.WriteByte('.')
			b.WriteString(catalog.EscapeSelectorLiteral(class))
		}
		add(b.String())
	}

	return out
}

// Synthesize validates Candidates against the page. Candidates that match nothing or fail to
// evaluate are dropped; the first survivor is the primary locator.
func (s *Synthesizer) Synthesize(ctx context.Context, page ports.Page, node entity.Node) []entity.LocatorCandidate {
	var out []entity.LocatorCandidate

	for _, loc := range s.Candidates(node) {
		count, err := page.Count(ctx, loc)
		if err != nil {
			s.logger.Debug("candidate rejected by page", zap.String(logg.Selector, loc), zap.Error(err))
			continue
		}
		if count == 0 {
			continue
		}

		out = append(out, entity.LocatorCandidate{Locator: loc, MatchCount: count})
	}

	return out
}

// Primary returns the first candidate for node that matches on the page.
func (s *Synthesizer) Primary(ctx context.Context, page ports.Page, node entity.Node) (entity.LocatorCandidate, bool) {
	for _, loc := range s.Candidates(node) {
		count, err := page.Count(ctx, loc)
		if err != nil || count == 0 {
			continue
		}

		return entity.LocatorCandidate{Locator: loc, MatchCount: count}, true
	}

	return entity.LocatorCandidate{}, false
}

func attrSelector(tag, attr, value string) string {
	return fmt.Sprintf(`%s[%s="%s"]`, tag, attr, catalog.EscapeSelectorLiteral(value))
}
