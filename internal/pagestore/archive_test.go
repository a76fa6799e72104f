// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pagestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/company-research/pkg/types"
)

func TestArchiveRoundTrip(t *testing.T) {
	archive, err := OpenArchive(t.TempDir())
	require.NoError(t, err)
	defer archive.Close()

	ctx := context.Background()
	require.NoError(t, archive.BeginRun(ctx, "run-1", "Acme Capital"))

	pages := []types.Page{
		{SourceID: "https://x.test/one", Title: "One", Text: "first"},
		{SourceID: "https://x.test/two", Title: "Two", Text: "second"},
		{SourceID: "https://x.test/three", Title: "Three", Text: "third"},
	}
	require.NoError(t, archive.SavePages(ctx, "run-1", pages))

	loaded, err := archive.LoadPages(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, pages, loaded)
}

func TestArchiveLoadPagesPreservesOrder(t *testing.T) {
	archive, err := OpenArchive(t.TempDir())
	require.NoError(t, err)
	defer archive.Close()

	ctx := context.Background()
	require.NoError(t, archive.BeginRun(ctx, "run-1", "Acme"))

	// Insert in an order that differs from lexical source ID order.
	pages := []types.Page{
		{SourceID: "z", Text: "last alphabetically, first by position"},
		{SourceID: "a", Text: "first alphabetically, second by position"},
	}
	require.NoError(t, archive.SavePages(ctx, "run-1", pages))

	loaded, err := archive.LoadPages(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "z", loaded[0].SourceID)
	assert.Equal(t, "a", loaded[1].SourceID)
}

func TestArchiveLatestRun(t *testing.T) {
	archive, err := OpenArchive(t.TempDir())
	require.NoError(t, err)
	defer archive.Close()

	ctx := context.Background()

	id, err := archive.LatestRun(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, archive.BeginRun(ctx, "run-1", "Acme"))
	id, err = archive.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", id)
}

func TestArchiveRunsAreIsolated(t *testing.T) {
	archive, err := OpenArchive(t.TempDir())
	require.NoError(t, err)
	defer archive.Close()

	ctx := context.Background()
	require.NoError(t, archive.BeginRun(ctx, "run-1", "Acme"))
	require.NoError(t, archive.BeginRun(ctx, "run-2", "Acme"))

	require.NoError(t, archive.SavePages(ctx, "run-1", []types.Page{{SourceID: "a", Text: "one"}}))
	require.NoError(t, archive.SavePages(ctx, "run-2", []types.Page{{SourceID: "b", Text: "two"}}))

	loaded, err := archive.LoadPages(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "a", loaded[0].SourceID)
}
