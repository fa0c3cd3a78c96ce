package browser

import (
	"element-scout/internal/entity"
	"fmt"
)

// snapshotScript takes the selector as its argument and returns plain data for every match.
// It never captures state from the Go side.
const snapshotScript = `(selector) => {
	const pathOf = (el) => {
		const parts = [];
		for (let cur = el; cur && cur.nodeType === 1; cur = cur.parentElement) {
			const index = cur.parentElement ? Array.from(cur.parentElement.children).indexOf(cur) + 1 : 1;
			parts.unshift(cur.tagName.toLowerCase() + ':' + index);
		}
		return parts.join('>');
	};

	const isVisible = (el, style) => {
		const rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0 &&
			style.display !== 'none' &&
			style.visibility !== 'hidden';
	};

	return Array.from(document.querySelectorAll(selector)).map((el) => {
		const style = window.getComputedStyle(el);
		const attributes = {};
		for (const attr of Array.from(el.attributes)) {
			attributes[attr.name] = attr.value.length > 200 ? attr.value.substring(0, 200) : attr.value;
		}

		let text = (el.innerText || el.textContent || '').trim();
		if (text.length > 200) {
			text = text.substring(0, 200);
		}

		return {
			tag: el.tagName.toLowerCase(),
			text: text,
			attributes: attributes,
			parentId: el.parentElement && el.parentElement.id ? el.parentElement.id : '',
			path: pathOf(el),
			cursor: style.cursor || '',
			visible: isVisible(el, style),
		};
	});
}`

func decodeNodes(result any) ([]entity.Node, error) {
	items, ok := result.([]interface{})
	if !ok {
		if result == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("unexpected snapshot result type %T", result)
	}

	nodes := make([]entity.Node, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		node := entity.Node{
			Tag:        getString(m, "tag"),
			Text:       getString(m, "text"),
			ParentID:   getString(m, "parentId"),
			Path:       getString(m, "path"),
			Cursor:     getString(m, "cursor"),
			Visible:    getBool(m, "visible"),
			Attributes: make(map[string]string),
		}

		if attrs, ok := m["attributes"].(map[string]interface{}); ok {
			for k, v := range attrs {
				if str, ok := v.(string); ok {
					node.Attributes[k] = str
				}
			}
		}

		nodes = append(nodes, node)
	}

	return nodes, nil
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}

	return ""
}

func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}

	return false
}
