package retry

import (
	"context"
	"element-scout/internal/entity"
	"element-scout/pkg/apperr"
	"errors"
	"io"
	"strings"
)

// Ordered: the first matching category wins. Certificate failures arrive as net::ERR_CERT_*, so
// SSL is checked before the generic network markers.
var categoryMarkers = []struct {
	category entity.ErrorCategory
	markers  []string
}{
	{entity.ErrorCategorySSL, []string{"err_cert", "err_ssl", "ssl", "certificate", "tls"}},
	{entity.ErrorCategoryNetwork, []string{
		"net::", "network", "econnrefused", "econnreset", "enotfound", "connection refused",
		"connection reset", "dns", "name not resolved", "no such host", ": eof", "unexpected eof",
	}},
	{entity.ErrorCategoryTimeout, []string{"timeout", "timed out", "waiting for", "deadline exceeded"}},
	{entity.ErrorCategoryBrowser, []string{
		"browser", "target closed", "target page", "page crashed", "page has been closed", "protocol error", "context closed",
	}},
	{entity.ErrorCategoryJavaScript, []string{"evaluate", "evaluation", "javascript", "referenceerror", "typeerror", "syntaxerror"}},
	{entity.ErrorCategoryAuthentication, []string{"401", "403", "unauthorized", "forbidden"}},
}

// CategorizeMessage maps an error message to a category by case-insensitive substring match.
func CategorizeMessage(msg string) entity.ErrorCategory {
	msg = strings.ToLower(msg)

	for _, c := range categoryMarkers {
		for _, m := range c.markers {
			if strings.Contains(msg, m) {
				return c.category
			}
		}
	}

	return entity.ErrorCategoryUnknown
}

// Categorize prefers structured information carried by err and falls back to CategorizeMessage.
// A status error never falls through to the message, since URLs can contain any marker.
func Categorize(err error) entity.ErrorCategory {
	if err == nil {
		return ""
	}

	if status, ok := apperr.StatusCode(err); ok {
		if status == 401 || status == 403 {
			return entity.ErrorCategoryAuthentication
		}

		return entity.ErrorCategoryUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return entity.ErrorCategoryTimeout
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return entity.ErrorCategoryNetwork
	}

	return CategorizeMessage(err.Error())
}
