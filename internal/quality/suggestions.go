package quality

import (
	"element-scout/internal/entity"
	"fmt"
)

const (
	SuggestionNotFound   = "Selector matched no elements. Check it against the current page state or wait for dynamic content to load."
	SuggestionPositional = "Avoid nth-child/nth-of-type selectors: they break as soon as sibling order changes."
	SuggestionLowQuality = "Selector stability is low. Prefer data-testid, id or aria-label attributes."
	SuggestionGood       = "Selector looks robust and should survive UI changes."
)

// GenerateSuggestions returns remediation hints for a locator. Output is deterministic.
func GenerateSuggestions(locator string, matchCount int, metrics entity.QualityMetrics) []string {
	if matchCount <= 0 {
		return []string{SuggestionNotFound}
	}

	var out []string

	if matchCount > 1 {
		out = append(out, fmt.Sprintf("Selector matches %d elements. Add a data-testid attribute so it targets exactly one.", matchCount))
	}
	if positionalRe.MatchString(stripQuoted(locator)) {
		out = append(out, SuggestionPositional)
	}

	switch {
	case metrics.Overall < 0.6:
		out = append(out, SuggestionLowQuality)
	case metrics.Overall >= 0.8:
		out = append(out, SuggestionGood)
	}

	return out
}
