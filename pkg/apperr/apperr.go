package apperr

import (
	"errors"
	"fmt"
)

const (
	MetaReason   = "reason"
	MetaStage    = "stage"
	MetaField    = "field"
	MetaSelector = "selector"
	MetaURL      = "url"
	MetaStatus   = "status"
	MetaAttempts = "attempts"
	MetaCategory = "category"

	StageNavigation    = "navigation"
	StageStabilization = "stabilization"
	StageDiscovery     = "discovery"
	StageExploration   = "exploration"
	StageInteraction   = "interaction"
	StageBrowser       = "browser"

	CodeInternal           = "internal"
	CodeInvalidArgument    = "invalid_argument"
	CodeTimeout            = "timeout"
	CodeBrowserNotReady    = "browser_not_ready"
	CodeNavigationTimeout  = "navigation_timeout"
	CodeHTTPStatus         = "http_status"
	CodeTriggerInteraction = "trigger_interaction"
	CodeExploration        = "exploration"
	CodeRetryExhausted     = "retry_exhausted"
)

type Error struct {
	Op       string
	Code     string
	Err      error
	Metadata map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Wrap(op, code string, err error, metadata map[string]any) error {
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &Error{
		Op:       op,
		Code:     code,
		Err:      err,
		Metadata: metadata,
	}
}

func WrapWithReason(op, code string, err error, reason string) error {
	return Wrap(op, code, err, map[string]any{
		MetaReason: reason,
	})
}

func WrapErrorWithReason(op, code, reason string) error {
	return Wrap(op, code, errors.New(reason), map[string]any{
		MetaReason: reason,
	})
}

func InvalidReqError(op, field string, err error) error {
	return Wrap(op, CodeInvalidArgument, err, map[string]any{
		MetaField:  field,
		MetaReason: "invalid_request",
	})
}

// CodeOf returns the code of the outermost *Error in the chain, or "" when there is none.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	return ""
}

// HTTPStatusError reports that the site answered the navigation with a status >= 400.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("site rejected the request: HTTP %d for %s", e.StatusCode, e.URL)
}

// Blocked reports whether the status looks like bot blocking or missing credentials.
func (e *HTTPStatusError) Blocked() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

func StatusError(op, url string, status int) error {
	return Wrap(op, CodeHTTPStatus, &HTTPStatusError{StatusCode: status, URL: url}, map[string]any{
		MetaReason: "http_error_status",
		MetaStage:  StageNavigation,
		MetaURL:    url,
		MetaStatus: status,
	})
}

// StatusCode extracts the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}

	return 0, false
}

// HasCode reports whether any *Error in the chain carries code.
func HasCode(err error, code string) bool {
	var appErr *Error
	for errors.As(err, &appErr) {
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
	}

	return false
}
