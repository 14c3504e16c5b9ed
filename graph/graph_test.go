package graph_test

import (
	"testing"

	"github.com/ArunaStorage/aruna-sub004/graph"
	"github.com/ArunaStorage/aruna-sub004/pkg/models"
	"github.com/ArunaStorage/aruna-sub004/pkg/ulid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEdgeRequiresLiveEndpoints(t *testing.T) {
	g := graph.New()
	a, b := ulid.New(), ulid.New()
	g.AddNode(a, models.ResourceProject)

	err := g.AddEdge(a, b, models.EdgeHasPart)
	require.Error(t, err)
}

func TestChildrenFiltersHierarchyClass(t *testing.T) {
	g := graph.New()
	parent, child := ulid.New(), ulid.New()
	g.AddNode(parent, models.ResourceProject)
	g.AddNode(child, models.ResourceCollection)

	require.NoError(t, g.AddEdge(parent, child, models.EdgeHasPart))
	require.NoError(t, g.AddEdge(parent, child, models.EdgeRead))

	children := g.Children(parent)
	require.Len(t, children, 1)
	assert.Equal(t, models.EdgeHasPart, children[0].Type)
}

func TestRemoveNodeDropsIncidentEdges(t *testing.T) {
	g := graph.New()
	a, b := ulid.New(), ulid.New()
	g.AddNode(a, models.ResourceProject)
	g.AddNode(b, models.ResourceCollection)
	require.NoError(t, g.AddEdge(a, b, models.EdgeHasPart))

	g.RemoveNode(b)

	assert.Empty(t, g.Children(a))
	assert.False(t, g.HasNode(b))
}

func TestDescendantsWalksTransitiveChildren(t *testing.T) {
	g := graph.New()
	root, mid, leaf := ulid.New(), ulid.New(), ulid.New()
	g.AddNode(root, models.ResourceProject)
	g.AddNode(mid, models.ResourceCollection)
	g.AddNode(leaf, models.ResourceDataset)
	require.NoError(t, g.AddEdge(root, mid, models.EdgeHasPart))
	require.NoError(t, g.AddEdge(mid, leaf, models.EdgeHasPart))

	descendants := g.Descendants(root)
	assert.ElementsMatch(t, []models.ID{mid, leaf}, descendants)
}

func TestDescendantsExcludesNonHierarchyEdges(t *testing.T) {
	g := graph.New()
	root, other := ulid.New(), ulid.New()
	g.AddNode(root, models.ResourceProject)
	g.AddNode(other, models.ResourceCollection)
	require.NoError(t, g.AddEdge(root, other, models.EdgeRead))

	assert.Empty(t, g.Descendants(root))
}

func TestRebuildFromStoreDefersThenResolvesEdge(t *testing.T) {
	g := graph.New()
	parent, child := ulid.New(), ulid.New()

	docs := func(yield func(id models.ID, variant models.ResourceVariant) error) error {
		if err := yield(parent, models.ResourceProject); err != nil {
			return err
		}
		return yield(child, models.ResourceCollection)
	}
	rels := func(yield func(rel models.Relation) error) error {
		return yield(models.Relation{Source: parent, Target: child, Type: models.EdgeHasPart})
	}

	require.NoError(t, g.RebuildFromStore(docs, rels))
	assert.Len(t, g.Children(parent), 1)
}

func TestUniverseVisibleIncludesPublicForAnonymous(t *testing.T) {
	u := graph.NewUniverse()
	pub := ulid.New()
	u.MarkPublic(pub)

	visible := u.Visible(nil)
	require.Len(t, visible, 1)
	assert.Equal(t, pub, visible[0])
}
