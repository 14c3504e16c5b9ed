package txn

import (
	"context"
	"encoding/binary"
	"encoding/json"

	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	"github.com/ArunaStorage/aruna-sub004/pkg/models"
	"github.com/ArunaStorage/aruna-sub004/store"
)

// RegisterStandardHandlers wires the one-handler-per-variant functions
// below into e, mirroring the teacher's per-operation
// internal/services/command files collected under one registration
// call at bootstrap.
func RegisterStandardHandlers(e *Executor) {
	e.Register(KindCreateProject, handleCreateProject)
	e.Register(KindAddGroup, handleAddGroup)
	e.Register(KindCreateResourceBatch, handleCreateResourceBatch)
	e.Register(KindRegisterData, handleRegisterData)
	e.Register(KindCreateRule, handleCreateRule)
	e.Register(KindCreateRuleBinding, handleCreateRuleBinding)
	e.Register(KindCreateComponent, handleCreateComponent)
	e.Register(KindAddOidcProvider, handleAddOidcProvider)
	e.Register(KindUpsertObject, handleUpsertObject)
	e.Register(KindDeleteProject, handleDeleteProject)
	e.Register(KindDeleteResource, handleDeleteResource)
}

func putDocument(tx store.WriteTx, id models.ID, doc any) error {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return merrors.New(merrors.KindInternal, "encode document", err)
	}
	return tx.Put(store.TableDocuments, id[:], encoded)
}

// putNode records id's variant in the nodes table so graph.RebuildFromStore
// can reconstruct the node on restart; the documents table alone isn't
// enough since its value shape varies by resource kind.
func putNode(tx store.WriteTx, id models.ID, variant models.ResourceVariant) error {
	return tx.Put(store.TableNodes, id[:], []byte{byte(variant)})
}

// putRelation records one graph edge so graph.RebuildFromStore can
// reconstruct it on restart.
func putRelation(tx store.WriteTx, src, dst models.ID, typ models.EdgeType) error {
	key := make([]byte, 0, 36)
	key = append(key, src[:]...)
	key = append(key, dst[:]...)
	var typBuf [4]byte
	binary.BigEndian.PutUint32(typBuf[:], uint32(typ))
	key = append(key, typBuf[:]...)
	return tx.Put(store.TableRelations, key, nil)
}

// addEdge mutates the in-memory graph and persists the relation in the
// same write transaction, keeping both in lockstep.
func addEdge(ec *ExecContext, src, dst models.ID, typ models.EdgeType) error {
	if err := ec.Graph.AddEdge(src, dst, typ); err != nil {
		return err
	}
	return putRelation(ec.Tx, src, dst, typ)
}

func handleCreateProject(_ context.Context, ec *ExecContext, req Request) (Response, error) {
	r := req.(*CreateProject)
	resource := models.Resource{
		ID:         r.ID,
		Variant:    models.ResourceProject,
		Name:       r.Name,
		Labels:     r.Labels,
		Status:     models.StatusAvailable,
		Visibility: models.VisibilityPrivate,
	}
	ec.Graph.AddNode(r.ID, models.ResourceProject)
	if err := putNode(ec.Tx, r.ID, models.ResourceProject); err != nil {
		return Response{}, err
	}
	if err := addEdge(ec, r.Owner, r.ID, models.EdgeOwnsProject); err != nil {
		return Response{}, err
	}
	if err := putDocument(ec.Tx, r.ID, resource); err != nil {
		return Response{}, err
	}
	return Response{AffectedIDs: []models.ID{r.ID}}, nil
}

func handleAddGroup(_ context.Context, ec *ExecContext, req Request) (Response, error) {
	r := req.(*AddGroup)
	if !ec.Graph.HasNode(r.Resource) {
		return Response{}, merrors.New(merrors.KindNotFound, "resource %s not found", r.Resource)
	}
	for _, member := range r.Members {
		if err := addEdge(ec, member, r.Resource, models.EdgeType(r.Level)); err != nil {
			return Response{}, err
		}
		if r.Level >= models.PermissionRead {
			ec.Graph.Universe().GrantRead(member, r.Resource)
		}
	}
	return Response{AffectedIDs: []models.ID{r.Resource}}, nil
}

func handleCreateResourceBatch(_ context.Context, ec *ExecContext, req Request) (Response, error) {
	r := req.(*CreateResourceBatch)
	affected := make([]models.ID, 0, len(r.Resources))
	for _, res := range r.Resources {
		ec.Graph.AddNode(res.ID, res.Variant)
		if err := putNode(ec.Tx, res.ID, res.Variant); err != nil {
			return Response{}, err
		}
		if err := addEdge(ec, r.Parent, res.ID, models.EdgeHasPart); err != nil {
			return Response{}, err
		}
		if res.Visibility == models.VisibilityPublic {
			ec.Graph.Universe().MarkPublic(res.ID)
		}
		if err := putDocument(ec.Tx, res.ID, res); err != nil {
			return Response{}, err
		}
		affected = append(affected, res.ID)
	}
	return Response{AffectedIDs: affected}, nil
}

func handleRegisterData(_ context.Context, ec *ExecContext, req Request) (Response, error) {
	r := req.(*RegisterData)
	if !ec.Graph.HasNode(r.ObjectID) {
		return Response{}, merrors.New(merrors.KindNotFound, "object %s not found", r.ObjectID)
	}
	doc := map[string]any{
		"content_length": r.ContentLength,
		"hash":           r.Hash,
		"location":       r.Location,
	}
	if err := putDocument(ec.Tx, r.ObjectID, doc); err != nil {
		return Response{}, err
	}
	return Response{AffectedIDs: []models.ID{r.ObjectID}}, nil
}

func handleCreateRule(_ context.Context, ec *ExecContext, req Request) (Response, error) {
	r := req.(*CreateRule)
	rule := models.Rule{ID: r.ID, Owner: r.Owner, Public: r.Public, Source: r.Source}
	ec.Graph.AddNode(r.ID, models.ResourceRule)
	if err := putNode(ec.Tx, r.ID, models.ResourceRule); err != nil {
		return Response{}, err
	}
	if err := putDocument(ec.Tx, r.ID, rule); err != nil {
		return Response{}, err
	}
	return Response{AffectedIDs: []models.ID{r.ID}}, nil
}

func handleCreateRuleBinding(_ context.Context, ec *ExecContext, req Request) (Response, error) {
	r := req.(*CreateRuleBinding)
	edgeType := models.EdgePolicy
	if err := addEdge(ec, r.Bound, r.Rule, edgeType); err != nil {
		return Response{}, err
	}
	binding := models.RuleBinding{ID: r.ID, Rule: r.Rule, Origin: r.Origin, Bound: r.Bound, Cascading: r.Cascading}
	if err := putDocument(ec.Tx, r.ID, binding); err != nil {
		return Response{}, err
	}
	return Response{AffectedIDs: []models.ID{r.Bound}}, nil
}

func handleCreateComponent(_ context.Context, ec *ExecContext, req Request) (Response, error) {
	r := req.(*CreateComponent)
	component := models.Component{
		ID: r.ID, Name: r.Name, Variant: r.Variant, Hosts: r.Hosts,
		Public: r.Public, Status: models.ComponentInitializing,
	}
	ec.Graph.AddNode(r.ID, models.ResourceComponent)
	if err := putNode(ec.Tx, r.ID, models.ResourceComponent); err != nil {
		return Response{}, err
	}
	if err := putDocument(ec.Tx, r.ID, component); err != nil {
		return Response{}, err
	}
	return Response{AffectedIDs: []models.ID{r.ID}}, nil
}

func handleAddOidcProvider(_ context.Context, ec *ExecContext, req Request) (Response, error) {
	r := req.(*AddOidcProvider)
	issuer := models.Issuer{
		Name: r.IssuerName, Audiences: r.Audiences,
		Variant: models.IssuerOIDC, RefreshEndpoint: r.RefreshEndpoint,
	}
	encoded, err := json.Marshal(issuer)
	if err != nil {
		return Response{}, merrors.New(merrors.KindInternal, "encode issuer", err)
	}
	if err := ec.Tx.Put(store.TableIssuerKeys, []byte(r.IssuerName), encoded); err != nil {
		return Response{}, err
	}
	return Response{}, nil
}

func handleUpsertObject(_ context.Context, ec *ExecContext, req Request) (Response, error) {
	r := req.(*UpsertObject)
	if !ec.Graph.HasNode(r.ID) {
		ec.Graph.AddNode(r.ID, models.ResourceObject)
		if err := putNode(ec.Tx, r.ID, models.ResourceObject); err != nil {
			return Response{}, err
		}
		if err := addEdge(ec, r.Parent, r.ID, models.EdgeHasPart); err != nil {
			return Response{}, err
		}
	}
	resource := models.Resource{
		ID: r.ID, Variant: models.ResourceObject, Name: r.Name,
		Labels: r.Labels, Revision: r.Revision, Status: models.StatusAvailable,
	}
	if err := putDocument(ec.Tx, r.ID, resource); err != nil {
		return Response{}, err
	}
	return Response{AffectedIDs: []models.ID{r.ID}}, nil
}

func handleDeleteProject(_ context.Context, ec *ExecContext, req Request) (Response, error) {
	return handleDelete(ec, req.(*DeleteProject).ID)
}

func handleDeleteResource(_ context.Context, ec *ExecContext, req Request) (Response, error) {
	return handleDelete(ec, req.(*DeleteResource).ID)
}

// handleDelete tombstones id and every descendant reachable through
// Children (§3.2 invariant 5): each affected resource's document is
// rewritten with Status set to Deleted, but never removed from the
// graph or the documents table, so its metadata and edges survive for
// audit traversal even though live reads should skip it.
func handleDelete(ec *ExecContext, id models.ID) (Response, error) {
	if !ec.Graph.HasNode(id) {
		return Response{}, merrors.New(merrors.KindNotFound, "resource %s not found", id)
	}
	affected := append([]models.ID{id}, ec.Graph.Descendants(id)...)
	for _, rid := range affected {
		if err := tombstoneDocument(ec.Tx, rid); err != nil {
			return Response{}, err
		}
	}
	return Response{AffectedIDs: affected, RemovedIDs: affected}, nil
}

func tombstoneDocument(tx store.WriteTx, id models.ID) error {
	raw, err := tx.Get(store.TableDocuments, id[:])
	if err != nil {
		return err
	}
	var resource models.Resource
	if err := json.Unmarshal(raw, &resource); err != nil {
		return merrors.New(merrors.KindInternal, "decode document %s", id, err)
	}
	resource.Status = models.StatusDeleted
	return putDocument(tx, id, resource)
}
