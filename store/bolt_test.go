package store_test

import (
	"path/filepath"
	"testing"

	"github.com/ArunaStorage/aruna-sub004/pkg/models"
	"github.com/ArunaStorage/aruna-sub004/store"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *store.BoltStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aruna.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutCommitGet(t *testing.T) {
	s := openTestStore(t)

	wtx, err := s.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, wtx.Put(store.TableNodes, []byte("n1"), []byte("payload")))

	id := models.ID{}
	require.NoError(t, s.Commit(wtx, store.CommitEvent{
		EventID:     "evt-1",
		AffectedIDs: []models.ID{id},
	}))

	rtx, err := s.BeginRead()
	require.NoError(t, err)
	v, err := rtx.Get(store.TableNodes, []byte("n1"))
	require.NoError(t, err)
	require.Equal(t, "payload", string(v))
}

func TestWriteTxSeesOwnWrites(t *testing.T) {
	s := openTestStore(t)

	wtx, err := s.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, wtx.Put(store.TableRules, []byte("r1"), []byte("expr")))

	v, err := wtx.Get(store.TableRules, []byte("r1"))
	require.NoError(t, err)
	require.Equal(t, "expr", string(v))
}

func TestDeleteThenGetNotFound(t *testing.T) {
	s := openTestStore(t)

	wtx, err := s.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, wtx.Put(store.TableTokens, []byte("t1"), []byte("x")))
	require.NoError(t, s.Commit(wtx, store.CommitEvent{EventID: "evt-2"}))

	wtx2, err := s.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, wtx2.Delete(store.TableTokens, []byte("t1")))
	require.NoError(t, s.Commit(wtx2, store.CommitEvent{EventID: "evt-3"}))

	rtx, err := s.BeginRead()
	require.NoError(t, err)
	_, err = rtx.Get(store.TableTokens, []byte("t1"))
	require.Error(t, err)
}
