package txn_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/ArunaStorage/aruna-sub004/graph"
	"github.com/ArunaStorage/aruna-sub004/pkg/models"
	"github.com/ArunaStorage/aruna-sub004/pkg/ulid"
	"github.com/ArunaStorage/aruna-sub004/store"
	"github.com/ArunaStorage/aruna-sub004/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecutor(t *testing.T) (*txn.Executor, *graph.Graph, store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "aruna.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	g := graph.New()
	rules := txn.NewRuleSet()
	e := txn.NewExecutor(s, g, rules, nil, nil)
	txn.RegisterStandardHandlers(e)
	return e, g, s
}

func execute(t *testing.T, e *txn.Executor, id string, req txn.Request) txn.Response {
	t.Helper()
	payload, err := req.MarshalBinary()
	require.NoError(t, err)
	resp, err := e.Execute(context.Background(), txn.Envelope{
		TransactionID: id, EventID: id, Kind: req.Kind(), Payload: payload,
	})
	require.NoError(t, err)
	return resp
}

func TestExecuteCreateProjectAddsNodeAndCommits(t *testing.T) {
	e, g, _ := newExecutor(t)
	owner := ulid.New()
	g.AddNode(owner, models.ResourceProject)

	projectID := ulid.New()
	req := &txn.CreateProject{ID: projectID, Name: "demo", Owner: owner}
	payload, err := req.MarshalBinary()
	require.NoError(t, err)

	resp, err := e.Execute(context.Background(), txn.Envelope{
		TransactionID: "tx-1", EventID: "tx-1",
		Kind: req.Kind(), Payload: payload,
	})
	require.NoError(t, err)
	require.Contains(t, resp.AffectedIDs, projectID)
	require.True(t, g.HasNode(projectID))
}

func TestExecuteDeleteProjectCascadesTombstoneToChildren(t *testing.T) {
	e, g, s := newExecutor(t)
	owner := ulid.New()
	g.AddNode(owner, models.ResourceProject)

	projectID := ulid.New()
	execute(t, e, "tx-create", &txn.CreateProject{ID: projectID, Name: "demo", Owner: owner})

	childID := ulid.New()
	execute(t, e, "tx-batch", &txn.CreateResourceBatch{
		Parent: projectID,
		Resources: []models.Resource{
			{ID: childID, Variant: models.ResourceCollection, Name: "child", Status: models.StatusAvailable},
		},
	})

	resp := execute(t, e, "tx-delete", &txn.DeleteProject{ID: projectID})
	assert.ElementsMatch(t, []models.ID{projectID, childID}, resp.AffectedIDs)
	assert.ElementsMatch(t, []models.ID{projectID, childID}, resp.RemovedIDs)

	// Invariant 5: the node and its edges survive for audit traversal.
	assert.True(t, g.HasNode(projectID))
	assert.True(t, g.HasNode(childID))
	require.Len(t, g.Children(projectID), 1)

	rtx, err := s.BeginRead()
	require.NoError(t, err)
	for _, id := range []models.ID{projectID, childID} {
		raw, err := rtx.Get(store.TableDocuments, id[:])
		require.NoError(t, err)
		var resource models.Resource
		require.NoError(t, json.Unmarshal(raw, &resource))
		assert.Equal(t, models.StatusDeleted, resource.Status)
	}
}

func TestExecuteDeleteResourceUnknownIDErrors(t *testing.T) {
	e, _, _ := newExecutor(t)
	req := &txn.DeleteResource{ID: ulid.New()}
	payload, err := req.MarshalBinary()
	require.NoError(t, err)

	_, err = e.Execute(context.Background(), txn.Envelope{
		TransactionID: "tx-delete-missing", EventID: "tx-delete-missing",
		Kind: req.Kind(), Payload: payload,
	})
	require.Error(t, err)
}

func TestExecuteUnregisteredKindErrors(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "aruna.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	e := txn.NewExecutor(s, graph.New(), txn.NewRuleSet(), nil, nil)

	_, err = e.Execute(context.Background(), txn.Envelope{Kind: txn.KindCreateProject, Payload: []byte{}})
	require.Error(t, err)
}

func TestCompareRuleEvaluatesAgainstDocument(t *testing.T) {
	doc := []byte(`{"status":"Available"}`)
	rule := txn.Compare{Path: "status", Op: models.OpEq, Literal: "Available"}
	ok, err := rule.Eval(doc)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAndRuleRequiresAllChildren(t *testing.T) {
	doc := []byte(`{"status":"Available","visibility":"Public"}`)
	rule := txn.And{
		txn.Compare{Path: "status", Op: models.OpEq, Literal: "Available"},
		txn.Compare{Path: "visibility", Op: models.OpEq, Literal: "Private"},
	}
	ok, err := rule.Eval(doc)
	require.NoError(t, err)
	require.False(t, ok)
}
