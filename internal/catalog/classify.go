package catalog

import (
	"element-scout/internal/entity"
	"strings"
)

var formInputTags = map[string]bool{
	"input":    true,
	"textarea": true,
	"select":   true,
}

var textTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "span": true, "strong": true, "em": true, "b": true, "i": true,
	"small": true, "mark": true, "code": true, "blockquote": true, "label": true,
}

// structuralTags are layout-only wrappers: search roots, never reported on their own.
var structuralTags = map[string]bool{
	"div": true, "section": true, "article": true, "aside": true, "header": true,
	"footer": true, "main": true, "nav": true,
	"ul": true, "ol": true, "dl": true,
	"table": true, "thead": true, "tbody": true, "tfoot": true, "tr": true,
}

var interactiveRoles = map[string]bool{
	"button":   true,
	"link":     true,
	"textbox":  true,
	"checkbox": true,
	"radio":    true,
	"menuitem": true,
	"tab":      true,
}

var handlerAttributes = []string{
	"onclick", "onchange", "ng-click", "data-ng-click", "v-on:click", "@click", "x-on:click", "wire:click", "phx-click",
}

var buttonTypes = map[string]bool{
	"button": true,
	"submit": true,
	"reset":  true,
}

func ClassifyElementType(tag string, attrs map[string]string) entity.ElementType {
	tag = strings.ToLower(tag)
	role := strings.ToLower(attrs["role"])
	typ := strings.ToLower(attrs["type"])

	switch {
	case tag == "button" || role == "button" || buttonTypes[typ]:
		return entity.ElementTypeButton
	case formInputTags[tag]:
		return entity.ElementTypeInput
	case tag == "a":
		return entity.ElementTypeLink
	case tag == "form" || tag == "fieldset":
		return entity.ElementTypeForm
	case tag == "nav" || role == "navigation":
		return entity.ElementTypeNavigation
	case textTags[tag]:
		return entity.ElementTypeText
	default:
		return entity.ElementTypeElement
	}
}

func IsStructuralContainer(tag string) bool {
	return structuralTags[strings.ToLower(tag)]
}

func IsInteractiveElement(attrs map[string]string, cursorStyle string) bool {
	for _, name := range handlerAttributes {
		if _, ok := attrs[name]; ok {
			return true
		}
	}

	if interactiveRoles[strings.ToLower(attrs["role"])] {
		return true
	}

	return strings.EqualFold(strings.TrimSpace(cursorStyle), "pointer")
}
