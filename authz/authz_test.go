package authz_test

import (
	"testing"

	"github.com/ArunaStorage/aruna-sub004/authz"
	"github.com/ArunaStorage/aruna-sub004/graph"
	"github.com/ArunaStorage/aruna-sub004/pkg/models"
	"github.com/ArunaStorage/aruna-sub004/pkg/ulid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDirectPermissionEdge(t *testing.T) {
	g := graph.New()
	user, resource := ulid.New(), ulid.New()
	g.AddNode(user, models.ResourceProject)
	g.AddNode(resource, models.ResourceDataset)
	require.NoError(t, g.AddEdge(user, resource, models.EdgeWrite))

	e := authz.New(g)
	d := e.Resolve(&user, resource, models.PermissionWrite)
	assert.True(t, d.Allowed)
	assert.Equal(t, models.PermissionWrite, d.Cap)
}

func TestResolveDeniesBelowMinLevel(t *testing.T) {
	g := graph.New()
	user, resource := ulid.New(), ulid.New()
	g.AddNode(user, models.ResourceProject)
	g.AddNode(resource, models.ResourceDataset)
	require.NoError(t, g.AddEdge(user, resource, models.EdgeRead))

	e := authz.New(g)
	d := e.Resolve(&user, resource, models.PermissionWrite)
	assert.False(t, d.Allowed)
}

func TestResolvePropagatesThroughHierarchy(t *testing.T) {
	g := graph.New()
	user, project, dataset := ulid.New(), ulid.New(), ulid.New()
	g.AddNode(user, models.ResourceProject)
	g.AddNode(project, models.ResourceProject)
	g.AddNode(dataset, models.ResourceDataset)
	require.NoError(t, g.AddEdge(user, project, models.EdgeAdmin))
	require.NoError(t, g.AddEdge(project, dataset, models.EdgeHasPart))

	e := authz.New(g)
	d := e.Resolve(&user, dataset, models.PermissionAdmin)
	assert.True(t, d.Allowed)
}

func TestResolvePublicResourceAllowsAnonymousRead(t *testing.T) {
	g := graph.New()
	resource := ulid.New()
	g.AddNode(resource, models.ResourceDataset)
	g.Universe().MarkPublic(resource)

	e := authz.New(g)
	d := e.Resolve(nil, resource, models.PermissionRead)
	assert.True(t, d.Allowed)
}

func TestResolveUnauthenticatedDeniesPrivate(t *testing.T) {
	g := graph.New()
	resource := ulid.New()
	g.AddNode(resource, models.ResourceDataset)

	e := authz.New(g)
	d := e.Resolve(nil, resource, models.PermissionRead)
	assert.False(t, d.Allowed)
}
