package catalog

import "strings"

const selectorSpecialChars = "!\"#$%&'()*+,./:;<=>?@[\\]^`{|}~"

// EscapeSelectorLiteral backslash-escapes every CSS special character in s so the result can be
// used as an identifier or quoted attribute value in a selector.
func EscapeSelectorLiteral(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s) + 8)

	for _, r := range s {
		if r < 0x80 && strings.ContainsRune(selectorSpecialChars, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}

	return b.String()
}
