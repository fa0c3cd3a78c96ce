package catalog

import (
	"element-scout/internal/entity"
	"regexp"
	"slices"
	"strings"
)

// RuleGroup is one priority tier of the matching-rule catalog.
type RuleGroup struct {
	Name      string
	Selectors []string
}

type TriggerRule struct {
	Kind      entity.TriggerKind
	Selectors []string

	RequireActionText bool
	RequireCollapsed  bool
	RequireInactive   bool
}

// Rules is the plain data a Catalog is built from.
type Rules struct {
	Groups            []RuleGroup
	TestIDAttributes  []string
	StateClasses      []string
	ActionVerbs       []string
	Triggers          []TriggerRule
	RevealContainers  []string
	RevealDescendants []string
	RevealFallback    []string
	DialogSelectors   []string
	CloseSelectors    []string
	CloseTexts        []string
	LoadingIndicators []string
}

func DefaultRules() Rules {
	return Rules{
		Groups: []RuleGroup{
			{Name: "form_controls", Selectors: []string{"input", "textarea", "select", "button", "label", "form", "fieldset", "[type=\"submit\"]"}},
			{Name: "navigation", Selectors: []string{"nav a", "a[href]", "[role=\"navigation\"] a", "[role=\"menuitem\"]", "[role=\"link\"]"}},
			{Name: "text_content", Selectors: []string{"h1", "h2", "h3", "h4", "h5", "h6", "p", "span", "strong", "em", "small", "mark", "code", "blockquote"}},
			{Name: "list_table", Selectors: []string{"li", "td", "th", "dt", "dd", "caption"}},
			{Name: "media", Selectors: []string{"img", "video", "audio", "canvas", "iframe"}},
			{Name: "disclosure", Selectors: []string{"details", "summary", "dialog"}},
			{Name: "test_ids", Selectors: []string{
				"[data-testid]", "[data-test-id]", "[data-test]", "[data-cy]", "[data-e2e]",
				"[data-selenium]", "[data-automation]", "[data-qa]", "[test-id]", "[automation-id]",
			}},
			{Name: "aria_roles", Selectors: []string{
				"[role=\"button\"]", "[role=\"checkbox\"]", "[role=\"radio\"]", "[role=\"textbox\"]",
				"[role=\"combobox\"]", "[role=\"listbox\"]", "[role=\"option\"]", "[role=\"switch\"]",
				"[role=\"slider\"]", "[role=\"tab\"]", "[role=\"tabpanel\"]", "[role=\"dialog\"]",
				"[role=\"alert\"]", "[role=\"menu\"]", "[role=\"searchbox\"]", "[role=\"progressbar\"]",
			}},
			{Name: "js_interaction", Selectors: []string{"[onclick]", "[tabindex]", "[contenteditable=\"true\"]", "[draggable=\"true\"]"}},
			{Name: "accessibility", Selectors: []string{
				"[aria-label]", "[aria-describedby]", "[aria-labelledby]", "[aria-controls]",
				"[aria-expanded]", "[aria-haspopup]",
			}},
			{Name: "class_patterns", Selectors: []string{
				".btn", ".button", ".modal", ".dropdown", ".dropdown-item", ".nav-link", ".menu-item",
				".tab", ".card", ".alert", ".badge", ".toggle", ".accordion", ".tooltip",
			}},
			{Name: "framework_directives", Selectors: []string{
				"[ng-click]", "[ng-model]", "[data-ng-click]", "[v-model]", "[v-on\\:click]",
				"[x-on\\:click]", "[wire\\:click]", "[phx-click]", "[hx-get]", "[hx-post]",
				"[data-action]", "[data-controller]",
			}},
		},
		TestIDAttributes: []string{
			"data-testid", "data-test-id", "data-test", "data-cy", "data-e2e",
			"data-selenium", "data-automation", "data-qa", "test-id", "automation-id",
		},
		StateClasses: []string{
			"active", "hover", "focus", "focused", "open", "show", "shown", "selected", "disabled",
			"visible", "hidden", "expanded", "collapsed", "current", "checked", "is-active", "is-open",
		},
		ActionVerbs: []string{
			"register", "add", "create", "new", "edit", "delete", "remove", "settings", "invite",
			"sign up", "signup", "sign in", "login", "log in", "open", "show", "view", "more",
			"details", "filter", "search", "upload", "compose", "share", "contact", "subscribe",
			"book", "configure", "manage", "options", "menu",
		},
		Triggers: []TriggerRule{
			{Kind: entity.TriggerModal, Selectors: []string{
				"[aria-haspopup=\"dialog\"]", "[data-toggle=\"modal\"]", "[data-bs-toggle=\"modal\"]",
				"[data-modal-toggle]", "[data-modal-target]",
			}},
			{Kind: entity.TriggerPopup, Selectors: []string{
				"[aria-haspopup=\"true\"]", "[data-toggle=\"popover\"]", "[data-bs-toggle=\"popover\"]",
			}},
			{Kind: entity.TriggerDropdown, Selectors: []string{
				"[aria-haspopup=\"menu\"]", "[aria-haspopup=\"listbox\"]", "[role=\"combobox\"]",
				"[data-toggle=\"dropdown\"]", "[data-bs-toggle=\"dropdown\"]", ".dropdown-toggle",
			}},
			{Kind: entity.TriggerModal, RequireActionText: true, Selectors: []string{"button", "[role=\"button\"]", "a"}},
			{Kind: entity.TriggerExpandable, RequireCollapsed: true, Selectors: []string{
				"[aria-expanded]", "summary", ".accordion-button", ".accordion-header",
				"[data-toggle=\"collapse\"]", "[data-bs-toggle=\"collapse\"]",
			}},
			{Kind: entity.TriggerTab, RequireInactive: true, Selectors: []string{"[role=\"tab\"]"}},
		},
		RevealContainers: []string{
			"[role=\"dialog\"]", "[role=\"alertdialog\"]", "dialog[open]", "[aria-modal=\"true\"]",
			".modal.show", ".modal.open", ".modal.is-open",
			"[role=\"menu\"]", "[role=\"listbox\"]", ".dropdown-menu.show", ".dropdown-menu.open",
			".popover", "[role=\"tooltip\"]",
			"[role=\"tabpanel\"]",
			"form",
		},
		RevealDescendants: []string{"input", "button", "select", "textarea", "a", "form", "label", "[role]"},
		RevealFallback:    []string{"input", "button", "select", "textarea"},
		DialogSelectors: []string{
			"[role=\"dialog\"]", "[role=\"alertdialog\"]", "dialog[open]", "[aria-modal=\"true\"]",
			".modal.show", ".modal.open", ".dropdown-menu.show", "[role=\"menu\"]", ".popover",
		},
		CloseSelectors: []string{
			".close", "[aria-label=\"Close\"]", "[aria-label=\"close\"]", ".btn-close",
			"[data-dismiss=\"modal\"]", "[data-bs-dismiss=\"modal\"]",
		},
		CloseTexts:        []string{"Close", "×"},
		LoadingIndicators: []string{".loading", ".spinner", ".loader", "[data-loading]", "[aria-busy=\"true\"]", ".skeleton"},
	}
}

// Catalog is immutable once built; accessors hand out copies.
type Catalog struct {
	rules        Rules
	stateClasses map[string]struct{}
	actionVerbs  *regexp.Regexp
}

func New(rules Rules) *Catalog {
	state := make(map[string]struct{}, len(rules.StateClasses))
	for _, c := range rules.StateClasses {
		state[strings.ToLower(c)] = struct{}{}
	}

	verbs := make([]string, 0, len(rules.ActionVerbs))
	for _, v := range rules.ActionVerbs {
		verbs = append(verbs, regexp.QuoteMeta(strings.ToLower(v)))
	}

	var actionVerbs *regexp.Regexp
	if len(verbs) > 0 {
		actionVerbs = regexp.MustCompile(`(?i)\b(` + strings.Join(verbs, "|") + `)\b`)
	}

	return &Catalog{
		rules:        cloneRules(rules),
		stateClasses: state,
		actionVerbs:  actionVerbs,
	}
}

func Default() *Catalog {
	return New(DefaultRules())
}

func (c *Catalog) Groups() []RuleGroup {
	groups := make([]RuleGroup, len(c.rules.Groups))
	for i, g := range c.rules.Groups {
		groups[i] = RuleGroup{Name: g.Name, Selectors: slices.Clone(g.Selectors)}
	}

	return groups
}

func (c *Catalog) TestIDAttributes() []string  { return slices.Clone(c.rules.TestIDAttributes) }
func (c *Catalog) RevealContainers() []string  { return slices.Clone(c.rules.RevealContainers) }
func (c *Catalog) RevealDescendants() []string { return slices.Clone(c.rules.RevealDescendants) }
func (c *Catalog) RevealFallback() []string    { return slices.Clone(c.rules.RevealFallback) }
func (c *Catalog) DialogSelectors() []string   { return slices.Clone(c.rules.DialogSelectors) }
func (c *Catalog) CloseSelectors() []string    { return slices.Clone(c.rules.CloseSelectors) }
func (c *Catalog) CloseTexts() []string        { return slices.Clone(c.rules.CloseTexts) }
func (c *Catalog) LoadingIndicators() []string { return slices.Clone(c.rules.LoadingIndicators) }

func (c *Catalog) Triggers() []TriggerRule {
	rules := make([]TriggerRule, len(c.rules.Triggers))
	for i, r := range c.rules.Triggers {
		r.Selectors = slices.Clone(r.Selectors)
		rules[i] = r
	}

	return rules
}

func (c *Catalog) IsStateClass(class string) bool {
	_, ok := c.stateClasses[strings.ToLower(class)]

	return ok
}

// StableClasses drops empty and state classes, keeping document order.
func (c *Catalog) StableClasses(classAttr string) []string {
	var out []string
	for _, class := range strings.Fields(classAttr) {
		if c.IsStateClass(class) {
			continue
		}
		out = append(out, class)
	}

	return out
}

func (c *Catalog) HasActionVerb(text string) bool {
	if c.actionVerbs == nil {
		return false
	}

	return c.actionVerbs.MatchString(text)
}

func cloneRules(r Rules) Rules {
	out := r
	out.Groups = make([]RuleGroup, len(r.Groups))
	for i, g := range r.Groups {
		out.Groups[i] = RuleGroup{Name: g.Name, Selectors: slices.Clone(g.Selectors)}
	}
	out.Triggers = make([]TriggerRule, len(r.Triggers))
	for i, t := range r.Triggers {
		t.Selectors = slices.Clone(t.Selectors)
		out.Triggers[i] = t
	}
	out.TestIDAttributes = slices.Clone(r.TestIDAttributes)
	out.StateClasses = slices.Clone(r.StateClasses)
	out.ActionVerbs = slices.Clone(r.ActionVerbs)
	out.RevealContainers = slices.Clone(r.RevealContainers)
	out.RevealDescendants = slices.Clone(r.RevealDescendants)
	out.RevealFallback = slices.Clone(r.RevealFallback)
	out.DialogSelectors = slices.Clone(r.DialogSelectors)
	out.CloseSelectors = slices.Clone(r.CloseSelectors)
	out.CloseTexts = slices.Clone(r.CloseTexts)
	out.LoadingIndicators = slices.Clone(r.LoadingIndicators)

	return out
}
