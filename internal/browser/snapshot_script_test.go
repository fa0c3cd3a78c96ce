package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeNodes(t *testing.T) {
	t.Parallel()

	t.Run("converts evaluate output into nodes", func(t *testing.T) {
		t.Parallel()

		nodes, err := decodeNodes([]interface{}{
			map[string]interface{}{
				"tag":        "button",
				"text":       "Save",
				"attributes": map[string]interface{}{"id": "save", "data-count": 3},
				"parentId":   "toolbar",
				"path":       "html:1>body:2>div:1>button:1",
				"cursor":     "pointer",
				"visible":    true,
			},
			"garbage",
		})
		require.NoError(t, err)
		require.Len(t, nodes, 1)

		n := nodes[0]
		assert.Equal(t, "button", n.Tag)
		assert.Equal(t, "save", n.Attr("id"))
		assert.False(t, n.HasAttr("data-count"), "non-string attribute values are dropped")
		assert.Equal(t, "toolbar", n.ParentID)
		assert.True(t, n.Visible)
	})

	t.Run("treats a nil result as no matches", func(t *testing.T) {
		t.Parallel()

		nodes, err := decodeNodes(nil)
		require.NoError(t, err)
		assert.Empty(t, nodes)
	})

	t.Run("rejects unexpected shapes", func(t *testing.T) {
		t.Parallel()

		_, err := decodeNodes(map[string]interface{}{})
		require.Error(t, err)
	})
}
