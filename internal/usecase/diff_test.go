package usecase

import (
	"testing"

	"variantsync-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffURLs(t *testing.T) {
	t.Run("no change", func(t *testing.T) {
		diff := DiffURLs([]string{"a", "b"}, []string{"a", "b"})
		assert.True(t, diff.Empty())
	})

	t.Run("replacement and trailing removal", func(t *testing.T) {
		diff := DiffURLs([]string{"a", "b", "c"}, []string{"a", "x"})

		require.Len(t, diff.Changes, 1)
		assert.Equal(t, domain.URLChange{Index: 1, Old: "b", New: "x"}, diff.Changes[0])

		require.Len(t, diff.Removed, 1)
		assert.Equal(t, domain.URLRemoval{Index: 2, URL: "c"}, diff.Removed[0])
	})

	t.Run("appends past old length", func(t *testing.T) {
		diff := DiffURLs([]string{"a"}, []string{"a", "b", "c"})

		require.Len(t, diff.Changes, 2)
		assert.Equal(t, domain.URLChange{Index: 1, New: "b"}, diff.Changes[0])
		assert.Equal(t, domain.URLChange{Index: 2, New: "c"}, diff.Changes[1])
		assert.Empty(t, diff.Removed)
	})

	t.Run("everything new against nil snapshot", func(t *testing.T) {
		diff := DiffURLs(nil, []string{"a", "b"})
		assert.Len(t, diff.Changes, 2)
		assert.Empty(t, diff.Removed)
	})

	t.Run("all removed", func(t *testing.T) {
		diff := DiffURLs([]string{"a", "b"}, nil)
		assert.Empty(t, diff.Changes)
		assert.Len(t, diff.Removed, 2)
	})

	// A URL moving between positions reads as two replacements, not a move.
	t.Run("reorder is positional", func(t *testing.T) {
		diff := DiffURLs([]string{"a", "b"}, []string{"b", "a"})
		assert.Len(t, diff.Changes, 2)
	})
}
