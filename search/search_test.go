package search_test

import (
	"context"
	"testing"

	"github.com/ArunaStorage/aruna-sub004/graph"
	"github.com/ArunaStorage/aruna-sub004/pkg/ulid"
	"github.com/ArunaStorage/aruna-sub004/search"
	"github.com/stretchr/testify/require"
)

func TestUpsertThenQueryFindsPublicDocument(t *testing.T) {
	universe := graph.NewUniverse()
	id := ulid.New()
	universe.MarkPublic(id)

	idx, err := search.NewBleveIndex(universe)
	require.NoError(t, err)

	require.NoError(t, idx.Upsert(context.Background(), search.Document{
		ID: id, Name: "genome-dataset", Description: "a public dataset",
	}))

	results, err := idx.Query(context.Background(), search.Query{Text: "genome"})
	require.NoError(t, err)
	require.Contains(t, results, id)
}

func TestQueryExcludesInvisibleResource(t *testing.T) {
	universe := graph.NewUniverse()
	idx, err := search.NewBleveIndex(universe)
	require.NoError(t, err)

	id := ulid.New()
	require.NoError(t, idx.Upsert(context.Background(), search.Document{ID: id, Name: "private-dataset"}))

	results, err := idx.Query(context.Background(), search.Query{Text: "private"})
	require.NoError(t, err)
	require.NotContains(t, results, id)
}
