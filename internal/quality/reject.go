package quality

import (
	"element-scout/internal/entity"
	"regexp"
	"strings"
)

var rejectRules = []struct {
	re     *regexp.Regexp
	reason string
}{
	{regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]*:nth-(child|of-type)\(\d+\)$`), "position-only selector"},
	{regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9]* > [a-zA-Z][a-zA-Z0-9]*:nth-(child|of-type)\(\d+\)$`), "parent-child positional selector"},
	{regexp.MustCompile(`^(div|span|a|li|p|ul|ol)$`), "bare generic tag"},
	{regexp.MustCompile(`^(div|span)\.[a-zA-Z0-9_-]+$`), "single class on a generic container"},
}

// ShouldReject applies the hard rejection rules. Rejected locators are never scored for ranking.
func ShouldReject(locator string) entity.Rejection {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return entity.Rejection{Reject: true, Reason: "empty selector"}
	}

	for _, rule := range rejectRules {
		if rule.re.MatchString(locator) {
			return entity.Rejection{Reject: true, Reason: rule.reason}
		}
	}

	return entity.Rejection{}
}
