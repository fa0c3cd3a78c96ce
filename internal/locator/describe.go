package locator

import (
	"element-scout/internal/entity"
	"strings"
	"unicode/utf8"
)

const maxTextLength = 100

// Truncate trims s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	runes := []rune(s)

	return string(runes[:n]) + "..."
}

// Describe renders a short human-readable label for node.
func Describe(node entity.Node) string {
	tag := strings.ToLower(node.Tag)

	for _, label := range []string{
		node.Text,
		node.Attr("aria-label"),
		node.Attr("placeholder"),
		node.Attr("title"),
		node.Attr("alt"),
		node.Attr("name"),
		node.Attr("value"),
	} {
		if label = Truncate(label, maxTextLength); label != "" {
			return tag + ` "` + label + `"`
		}
	}

	if typ := node.Attr("type"); typ != "" {
		return tag + "[" + typ + "]"
	}

	return tag
}
