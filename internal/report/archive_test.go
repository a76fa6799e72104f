// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/company-research/internal/pagestore"
	"github.com/pdiddy/company-research/pkg/types"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	pages, err := pagestore.OpenArchive(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { pages.Close() })

	a, err := NewArchive(pages.DB())
	require.NoError(t, err)
	return a
}

func TestNotesRoundTrip(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	merged := types.MergedNotes{
		Notes: []types.Note{
			{TopicID: "q_0", Topic: "Who leads the firm?", Content: "Jane Doe, CEO [1].",
				Sources: []string{"https://x.test/team"}},
		},
		Citations: []string{"https://x.test/team"},
	}
	require.NoError(t, a.SaveNotes(ctx, "run-1", merged))

	loaded, err := a.LoadNotes(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, merged, loaded)
}

func TestNotesSaveReplaces(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	first := types.MergedNotes{Citations: []string{"a"}}
	second := types.MergedNotes{Citations: []string{"b"}}
	require.NoError(t, a.SaveNotes(ctx, "run-1", first))
	require.NoError(t, a.SaveNotes(ctx, "run-1", second))

	loaded, err := a.LoadNotes(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, loaded.Citations)
}

func TestReportRoundTrip(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	require.NoError(t, a.SaveReport(ctx, "run-1", "Acme Capital", "# report\n"))

	company, markdown, err := a.LoadReport(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Capital", company)
	assert.Equal(t, "# report\n", markdown)
}

func TestLoadMissingRun(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	_, err := a.LoadNotes(ctx, "nope")
	assert.Error(t, err)

	_, _, err = a.LoadReport(ctx, "nope")
	assert.Error(t, err)
}
