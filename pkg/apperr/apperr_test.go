package apperr_test

import (
	"context"
	"element-scout/pkg/apperr"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusError(t *testing.T) {
	t.Parallel()

	t.Run("exposes the status through wrapping", func(t *testing.T) {
		t.Parallel()

		err := fmt.Errorf("attempt 2: %w", apperr.StatusError("StabilizePage", "https://a.test", 403))

		status, ok := apperr.StatusCode(err)
		require.True(t, ok)
		assert.Equal(t, 403, status)
		assert.Equal(t, apperr.CodeHTTPStatus, apperr.CodeOf(err))

		var statusErr *apperr.HTTPStatusError
		require.ErrorAs(t, err, &statusErr)
		assert.True(t, statusErr.Blocked())
	})

	t.Run("reports no status for other errors", func(t *testing.T) {
		t.Parallel()

		_, ok := apperr.StatusCode(context.DeadlineExceeded)
		assert.False(t, ok)
		assert.Empty(t, apperr.CodeOf(context.DeadlineExceeded))
	})
}

func TestHasCode(t *testing.T) {
	t.Parallel()

	inner := apperr.WrapErrorWithReason("navigate", apperr.CodeNavigationTimeout, "all_strategies_failed")
	outer := apperr.Wrap("StabilizePage", apperr.CodeInternal, inner, nil)

	assert.True(t, apperr.HasCode(outer, apperr.CodeNavigationTimeout))
	assert.True(t, apperr.HasCode(outer, apperr.CodeInternal))
	assert.False(t, apperr.HasCode(outer, apperr.CodeHTTPStatus))
	assert.False(t, apperr.HasCode(errors.New("plain"), apperr.CodeInternal))
	assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(outer))
	assert.Equal(t, "StabilizePage: navigate: all_strategies_failed", outer.Error())
}
