package quality

import (
	"cmp"
	"element-scout/internal/entity"
	"regexp"
	"slices"
	"strings"
)

const DefaultMinQuality = 0.35

const (
	weightUniqueness    = 0.4
	weightStability     = 0.3
	weightSpecificity   = 0.2
	weightAccessibility = 0.1
)

var (
	idSelectorRe   = regexp.MustCompile(`#[^\s>+~.\[:#,]`)
	positionalRe   = regexp.MustCompile(`:nth-(child|of-type|last-child|last-of-type)\(`)
	firstLastRe    = regexp.MustCompile(`:(first|last)-child\b`)
	leadingTagRe   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-]*`)
	typeConstraint = attrRe("type")
)

var (
	primaryTestAttrs = []*regexp.Regexp{attrRe("data-testid"), attrRe("data-test-id")}
	otherTestAttrs   = []*regexp.Regexp{
		attrRe("data-test"), attrRe("data-cy"), attrRe("data-qa"), attrRe("data-e2e"),
		attrRe("data-selenium"), attrRe("data-automation"), attrRe("test-id"), attrRe("automation-id"),
	}
	ariaLabelAttr = attrRe("aria-label")
	anyAriaAttr   = regexp.MustCompile(`\[\s*aria-[a-z-]+\s*([~|^$*]?=|\])`)
	roleAttr      = attrRe("role")
	nameAttr      = attrRe("name")
	altAttr       = attrRe("alt")
	titleAttr     = attrRe("title")
)

var genericTags = map[string]bool{"div": true, "span": true, "a": true}

var semanticTags = map[string]bool{
	"button": true, "input": true, "textarea": true, "select": true, "a": true, "form": true, "label": true,
}

func attrRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`\[\s*` + regexp.QuoteMeta(name) + `\s*([~|^$*]?=|\])`)
}

// Score computes the quality metrics of locator given how many nodes it matched.
// An empty locator scores zero across the board.
func Score(locator string, matchCount int) entity.QualityMetrics {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return entity.QualityMetrics{}
	}

	structure := stripQuoted(locator)
	m := entity.QualityMetrics{
		Uniqueness:    uniqueness(matchCount),
		Stability:     stability(structure),
		Specificity:   specificity(structure),
		Accessibility: accessibility(structure),
	}
	m.Overall = Overall(m)

	return m
}

// Overall combines the sub-scores with fixed weights.
func Overall(m entity.QualityMetrics) float64 {
	return clamp(weightUniqueness*m.Uniqueness +
		weightStability*m.Stability +
		weightSpecificity*m.Specificity +
		weightAccessibility*m.Accessibility)
}

func uniqueness(matchCount int) float64 {
	switch {
	case matchCount <= 0:
		return 0
	case matchCount == 1:
		return 1
	case matchCount <= 3:
		return 0.7
	case matchCount <= 10:
		return 0.4
	default:
		return 0.1
	}
}

func stability(s string) float64 {
	score := 0.5
	positional := positionalRe.MatchString(s)

	switch {
	case matchesAny(s, primaryTestAttrs):
		score += 0.5
	case matchesAny(s, otherTestAttrs):
		score += 0.4
	case ariaLabelAttr.MatchString(s):
		score += 0.3
	case idSelectorRe.MatchString(s) && !positional:
		score += 0.25
	case roleAttr.MatchString(s):
		score += 0.2
	case nameAttr.MatchString(s):
		score += 0.15
	}

	if positional {
		score -= 0.3
	}
	if firstLastRe.MatchString(s) {
		score -= 0.2
	}
	if len(strings.Fields(s)) > 4 {
		score -= 0.15
	}
	if rawEngineSyntax(s) {
		score -= 0.2
	}

	return clamp(score)
}

func specificity(s string) float64 {
	score := 0.5
	segments := len(strings.Fields(s))

	switch {
	case segments == 1:
		score += 0.1
	case segments >= 2 && segments <= 3:
		score += 0.3
	case segments > 3:
		score -= 0.2
	}

	if typeConstraint.MatchString(s) {
		score += 0.2
	}
	if genericTags[strings.ToLower(s)] {
		score -= 0.4
	}

	return clamp(score)
}

func accessibility(s string) float64 {
	score := 0.3

	if ariaLabelAttr.MatchString(s) {
		score += 0.4
	} else if anyAriaAttr.MatchString(s) {
		score += 0.3
	}
	if roleAttr.MatchString(s) {
		score += 0.3
	}
	if altAttr.MatchString(s) {
		score += 0.2
	}
	if titleAttr.MatchString(s) {
		score += 0.1
	}
	if semanticTags[targetTag(s)] {
		score += 0.2
	}

	return clamp(score)
}

func rawEngineSyntax(s string) bool {
	if strings.Contains(s, ">>") {
		return true
	}

	for _, prefix := range []string{"xpath=", "text=", "css=", "internal:", "//"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}

	return false
}

// targetTag returns the lower-cased tag of the right-most compound selector, or "".
func targetTag(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}

	return strings.ToLower(leadingTagRe.FindString(fields[len(fields)-1]))
}

// stripQuoted blanks out quoted attribute values so their contents never count as structure.
func stripQuoted(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var quote rune
	escaped := false

	for _, r := range s {
		switch {
		case quote != 0 && escaped:
			escaped = false
		case quote != 0 && r == '\\':
			escaped = true
		case quote != 0 && r == quote:
			quote = 0
			b.WriteRune(r)
		case quote != 0:
		case r == '"' || r == '\'':
			quote = r
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

func matchesAny(s string, res []*regexp.Regexp) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}

	return false
}

func clamp(v float64) float64 {
	return min(1, max(0, v))
}

// FilterByQuality drops rejected locators and those scoring below the floor, then ranks the rest
// best first. minQuality defaults to DefaultMinQuality.
func FilterByQuality(candidates []entity.LocatorCandidate, minQuality ...float64) []entity.ScoredLocator {
	floor := DefaultMinQuality
	if len(minQuality) > 0 {
		floor = minQuality[0]
	}

	out := Qualify(candidates, floor)

	slices.SortStableFunc(out, func(a, b entity.ScoredLocator) int {
		return cmp.Compare(b.Metrics.Overall, a.Metrics.Overall)
	})

	return out
}

// Qualify drops rejected locators and those scoring below minQuality, keeping the synthesis
// preference order. The first survivor is the primary locator.
func Qualify(candidates []entity.LocatorCandidate, minQuality float64) []entity.ScoredLocator {
	out := make([]entity.ScoredLocator, 0, len(candidates))
	for _, c := range candidates {
		if ShouldReject(c.Locator).Reject {
			continue
		}

		metrics := Score(c.Locator, c.MatchCount)
		if metrics.Overall < minQuality {
			continue
		}

		out = append(out, entity.ScoredLocator{Locator: c.Locator, MatchCount: c.MatchCount, Metrics: metrics})
	}

	return out
}
