// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/company-research/pkg/types"
)

func TestChecklistsFor(t *testing.T) {
	lists := DefaultChecklists()

	t.Run("general always appended", func(t *testing.T) {
		out := lists.For(nil, "")
		assert.Contains(t, out, "inline citation")
	})

	t.Run("category items precede general", func(t *testing.T) {
		out := lists.For([]types.TopicCategory{types.CategoryPeople}, "")
		people := strings.Index(out, "complete title or position")
		general := strings.Index(out, "inline citation")
		require.GreaterOrEqual(t, people, 0)
		require.GreaterOrEqual(t, general, 0)
		assert.Less(t, people, general)
	})

	t.Run("numbering is continuous", func(t *testing.T) {
		out := lists.For([]types.TopicCategory{types.CategoryGeography}, "")
		assert.Contains(t, out, "1. ")
		assert.Contains(t, out, "2. ")
		assert.Contains(t, out, "3. ")
	})

	t.Run("date cutoff only for news tasks", func(t *testing.T) {
		news := lists.For([]types.TopicCategory{types.CategoryNews}, "2025-06-30")
		assert.Contains(t, news, "later than 2025-06-30")

		people := lists.For([]types.TopicCategory{types.CategoryPeople}, "2025-06-30")
		assert.NotContains(t, people, "later than")

		noCutoff := lists.For([]types.TopicCategory{types.CategoryNews}, "")
		assert.NotContains(t, noCutoff, "later than")
	})
}

func TestLoadChecklists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checklists.yaml")
	require.NoError(t, os.WriteFile(path, []byte("people:\n  - Custom people check?\n"), 0o644))

	lists, err := LoadChecklists(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Custom people check?"}, lists[types.CategoryPeople])
	assert.Equal(t, DefaultChecklists()[types.CategoryNews], lists[types.CategoryNews])
}

func TestLoadChecklistsMissingFile(t *testing.T) {
	_, err := LoadChecklists("nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading checklists")
}
