package main

import (
	"bytes"
	"element-scout/internal/quality"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreCmd(t *testing.T) {
	t.Run("prints a rejection for a bare tag", func(t *testing.T) {
		out := &bytes.Buffer{}
		cmd := rootCmd()
		cmd.SetOut(out)
		cmd.SetArgs([]string{"score", "div", "--count", "3"})

		require.NoError(t, cmd.Execute())
		assert.Contains(t, out.String(), "Rejected: bare generic tag")
		assert.Contains(t, out.String(), "Matches:  3")
	})

	t.Run("emits json", func(t *testing.T) {
		out := &bytes.Buffer{}
		cmd := rootCmd()
		cmd.SetOut(out)
		cmd.SetArgs([]string{"score", "--json", `[data-testid="checkout"]`})

		require.NoError(t, cmd.Execute())

		var ev quality.Evaluation
		require.NoError(t, json.Unmarshal(out.Bytes(), &ev))
		assert.Equal(t, `[data-testid="checkout"]`, ev.Locator)
		assert.Equal(t, 1, ev.MatchCount)
		assert.True(t, ev.Passes)
	})

	t.Run("requires a locator", func(t *testing.T) {
		cmd := rootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"score"})

		require.Error(t, cmd.Execute())
	})
}
