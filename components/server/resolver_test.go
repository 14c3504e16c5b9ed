package server_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/ArunaStorage/aruna-sub004/components/server"
	"github.com/ArunaStorage/aruna-sub004/graph"
	"github.com/ArunaStorage/aruna-sub004/pkg/models"
	"github.com/ArunaStorage/aruna-sub004/pkg/ulid"
	"github.com/ArunaStorage/aruna-sub004/store"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *store.BoltStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aruna.db")
	db, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func putJSON(t *testing.T, db store.Store, table string, key []byte, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	wtx, err := db.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, wtx.Put(table, key, raw))
	require.NoError(t, db.Commit(wtx, store.CommitEvent{EventID: "test"}))
}

func TestStoreIssuerStoreGet(t *testing.T) {
	db := openTestStore(t)
	issuer := models.Issuer{
		Name:      "internal",
		Variant:   models.IssuerInternal,
		Audiences: []string{"aruna"},
	}
	putJSON(t, db, store.TableIssuerKeys, []byte("internal"), issuer)

	s := &server.StoreIssuerStore{DB: db}
	got, err := s.Get(context.Background(), "internal")
	require.NoError(t, err)
	require.Equal(t, issuer.Name, got.Name)
	require.Equal(t, issuer.Variant, got.Variant)
}

func TestStoreIssuerStoreGetNotFound(t *testing.T) {
	db := openTestStore(t)
	s := &server.StoreIssuerStore{DB: db}
	_, err := s.Get(context.Background(), "missing")
	require.Error(t, err)
}

func TestStoreUserResolverResolveInternal(t *testing.T) {
	db := openTestStore(t)
	r := &server.StoreUserResolver{DB: db, Graph: graph.New()}

	id := ulid.New()
	text, err := id.MarshalText()
	require.NoError(t, err)

	got, err := r.ResolveInternal(context.Background(), string(text))
	require.NoError(t, err)
	require.Equal(t, models.ID(id), got)
}

func TestStoreUserResolverResolveInternalInvalid(t *testing.T) {
	db := openTestStore(t)
	r := &server.StoreUserResolver{DB: db, Graph: graph.New()}
	_, err := r.ResolveInternal(context.Background(), "not-an-id")
	require.Error(t, err)
}

func TestStoreUserResolverResolveOIDC(t *testing.T) {
	db := openTestStore(t)
	r := &server.StoreUserResolver{DB: db, Graph: graph.New()}

	id := ulid.New()
	text, err := id.MarshalText()
	require.NoError(t, err)

	wtx, err := db.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, wtx.Put(store.TableUserByOIDC, []byte("google|abc123"), text))
	require.NoError(t, db.Commit(wtx, store.CommitEvent{EventID: "test"}))

	got, err := r.ResolveOIDC(context.Background(), "google", "abc123")
	require.NoError(t, err)
	require.Equal(t, models.ID(id), got)
}

func TestStoreUserResolverLoadToken(t *testing.T) {
	db := openTestStore(t)
	r := &server.StoreUserResolver{DB: db, Graph: graph.New()}

	tok := models.Token{
		ID:        ulid.New(),
		Name:      "ci-token",
		CreatedBy: ulid.New(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	text, err := tok.ID.MarshalText()
	require.NoError(t, err)
	putJSON(t, db, store.TableTokens, text, tok)

	got, err := r.LoadToken(context.Background(), string(text))
	require.NoError(t, err)
	require.Equal(t, tok.Name, got.Name)
}

func TestStoreUserResolverEffectivePermissions(t *testing.T) {
	g := graph.New()
	user := models.ID(ulid.New())
	project := models.ID(ulid.New())
	g.AddNode(user, models.ResourceProject)
	g.AddNode(project, models.ResourceProject)
	require.NoError(t, g.AddEdge(user, project, models.EdgeWrite))

	r := &server.StoreUserResolver{Graph: g}
	perms, err := r.EffectivePermissions(context.Background(), user)
	require.NoError(t, err)
	require.Equal(t, models.PermissionWrite, perms[project])
}
