package entity

import (
	"time"

	"github.com/google/uuid"
)

type ElementType string

const (
	ElementTypeButton     ElementType = "button"
	ElementTypeInput      ElementType = "input"
	ElementTypeLink       ElementType = "link"
	ElementTypeForm       ElementType = "form"
	ElementTypeNavigation ElementType = "navigation"
	ElementTypeText       ElementType = "text"
	ElementTypeElement    ElementType = "element"
)

type DiscoveryState string

const (
	DiscoveryStateConfirmed        DiscoveryState = "confirmed"
	DiscoveryStateModal            DiscoveryState = "modal"
	DiscoveryStateTab              DiscoveryState = "tab"
	DiscoveryStateAfterInteraction DiscoveryState = "after_interaction"
)

// Node is a snapshot of one DOM node taken during a scan pass. It is never a live handle.
type Node struct {
	Tag        string            `json:"tag"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes"`
	ParentID   string            `json:"parentId"`
	Path       string            `json:"path"`
	Cursor     string            `json:"cursor"`
	Visible    bool              `json:"visible"`
}

func (n Node) Attr(name string) string {
	if n.Attributes == nil {
		return ""
	}

	return n.Attributes[name]
}

func (n Node) HasAttr(name string) bool {
	if n.Attributes == nil {
		return false
	}

	_, ok := n.Attributes[name]

	return ok
}

type QualityMetrics struct {
	Uniqueness    float64 `json:"uniqueness"`
	Stability     float64 `json:"stability"`
	Specificity   float64 `json:"specificity"`
	Accessibility float64 `json:"accessibility"`
	Overall       float64 `json:"overall"`
}

type Rejection struct {
	Reject bool   `json:"reject"`
	Reason string `json:"reason,omitempty"`
}

type LocatorCandidate struct {
	Locator    string `json:"locator"`
	MatchCount int    `json:"matchCount"`
}

type ScoredLocator struct {
	Locator    string         `json:"locator"`
	MatchCount int            `json:"matchCount"`
	Metrics    QualityMetrics `json:"metrics"`
}

type DiscoveredElement struct {
	Locator          string          `json:"locator"`
	Fallbacks        []string        `json:"fallbacks,omitempty"`
	Type             ElementType     `json:"type"`
	Description      string          `json:"description"`
	Confidence       float64         `json:"confidence"`
	Metrics          *QualityMetrics `json:"metrics,omitempty"`
	DiscoveryState   DiscoveryState  `json:"discoveryState"`
	DiscoveryTrigger string          `json:"discoveryTrigger,omitempty"`
}

type TriggerKind string

const (
	TriggerModal      TriggerKind = "modal"
	TriggerDropdown   TriggerKind = "dropdown"
	TriggerPopup      TriggerKind = "popup"
	TriggerExpandable TriggerKind = "expandable"
	TriggerTab        TriggerKind = "tab"
)

type InteractiveTrigger struct {
	Kind    TriggerKind
	Locator string
	Text    string
}

type ErrorCategory string

const (
	ErrorCategoryNetwork        ErrorCategory = "NETWORK_ERROR"
	ErrorCategoryTimeout        ErrorCategory = "TIMEOUT_ERROR"
	ErrorCategoryBrowser        ErrorCategory = "BROWSER_ERROR"
	ErrorCategorySSL            ErrorCategory = "SSL_ERROR"
	ErrorCategoryJavaScript     ErrorCategory = "JAVASCRIPT_ERROR"
	ErrorCategoryAuthentication ErrorCategory = "AUTHENTICATION_ERROR"
	ErrorCategoryUnknown        ErrorCategory = "UNKNOWN_ERROR"
)

type AttemptRecord struct {
	Index         int           `json:"index"`
	StartedAt     time.Time     `json:"startedAt"`
	EndedAt       time.Time     `json:"endedAt"`
	Success       bool          `json:"success"`
	Error         string        `json:"error,omitempty"`
	ErrorCategory ErrorCategory `json:"errorCategory,omitempty"`
	ElementsFound int           `json:"elementsFound"`
}

func (a AttemptRecord) Duration() time.Duration {
	return a.EndedAt.Sub(a.StartedAt)
}

type GaveUpReason string

const (
	GaveUpMaxRetries   GaveUpReason = "max_retries_exceeded"
	GaveUpNonRetryable GaveUpReason = "non_retryable_error"
	GaveUpCancelled    GaveUpReason = "cancelled"
)

type WaitStrategy string

const (
	WaitNetworkIdle      WaitStrategy = "networkidle"
	WaitDOMContentLoaded WaitStrategy = "domcontentloaded"
	WaitLoad             WaitStrategy = "load"
)

type StabilizeResult struct {
	StatusCode int    `json:"statusCode,omitempty"`
	Strategy   string `json:"strategy"`
}

type Outcome string

const (
	OutcomeOK               Outcome = "ok"
	OutcomeBlocked          Outcome = "blocked"
	OutcomeNotFound         Outcome = "not_found"
	OutcomeSlow             Outcome = "slow"
	OutcomeNeedsInteraction Outcome = "needs_interaction"
	OutcomeFailed           Outcome = "failed"
)

type AnalysisResult struct {
	ID            uuid.UUID           `json:"id"`
	URL           string              `json:"url"`
	StatusCode    int                 `json:"statusCode,omitempty"`
	Strategy      string              `json:"strategy,omitempty"`
	Elements      []DiscoveredElement `json:"elements"`
	Hidden        []DiscoveredElement `json:"hidden"`
	Outcome       Outcome             `json:"outcome"`
	Attempts      []AttemptRecord     `json:"attempts"`
	TotalRetries  int                 `json:"totalRetries"`
	TotalDuration time.Duration       `json:"totalDuration"`
	GaveUpReason  GaveUpReason        `json:"gaveUpReason,omitempty"`
	Error         string              `json:"error,omitempty"`
	StartedAt     time.Time           `json:"startedAt"`
}

// PageScan is the payload produced by one stabilize+extract attempt.
type PageScan struct {
	Stabilize StabilizeResult
	Elements  []DiscoveredElement
	Hidden    []DiscoveredElement
}

func (p *PageScan) ElementCount() int {
	if p == nil {
		return 0
	}

	return len(p.Elements) + len(p.Hidden)
}
