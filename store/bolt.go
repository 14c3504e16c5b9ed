package store

import (
	"encoding/json"
	"fmt"

	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	bolt "go.etcd.io/bbolt"
)

var allTables = []string{
	TableNodes, TableRelations, TableDocuments, TableIssuerKeys,
	TableSigningKeys, TableSubscribers, TableUniversePublic, TableTokens,
	TableRules, TableRuleBindings, TableComponents, TableUserByOIDC,
	eventsTable,
}

const eventsTable = "events"

// BoltStore implements Store on top of go.etcd.io/bbolt.
type BoltStore struct {
	db *bolt.DB
}

var _ Store = (*BoltStore)(nil)

// Open opens (creating if absent) a BoltStore at path, creating every
// predefined table bucket up front.
func Open(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, merrors.New(merrors.KindDatabaseError, "open bolt store %s", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range allTables {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, merrors.New(merrors.KindDatabaseError, "initialize buckets", err)
	}
	return &BoltStore{db: db}, nil
}

// OpenUserReadUniverse ensures a per-user universe:read table exists;
// bbolt buckets are created lazily since the user set is unbounded.
func (s *BoltStore) OpenUserReadUniverse(userTable string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(userTable))
		return err
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

type boltReadTx struct {
	tx *bolt.Tx
}

func (r *boltReadTx) Get(table string, key []byte) ([]byte, error) {
	b := r.tx.Bucket([]byte(table))
	if b == nil {
		return nil, merrors.New(merrors.KindDatabaseDoesNotExist, "table %s not found", table)
	}
	v := b.Get(key)
	if v == nil {
		return nil, merrors.New(merrors.KindNotFound, "key not found in %s", table)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return unwrapLayout(out)
}

func (r *boltReadTx) Iter(table string) (Iterator, error) {
	b := r.tx.Bucket([]byte(table))
	if b == nil {
		return nil, merrors.New(merrors.KindDatabaseDoesNotExist, "table %s not found", table)
	}
	return &boltIterator{cursor: b.Cursor()}, nil
}

type boltIterator struct {
	cursor   *bolt.Cursor
	started  bool
	k, v     []byte
}

func (it *boltIterator) Next() bool {
	if !it.started {
		it.started = true
		it.k, it.v = it.cursor.First()
	} else {
		it.k, it.v = it.cursor.Next()
	}
	return it.k != nil
}

func (it *boltIterator) Key() []byte { return it.k }
func (it *boltIterator) Value() []byte {
	v, err := unwrapLayout(it.v)
	if err != nil {
		return it.v
	}
	return v
}
func (it *boltIterator) Close() error { return nil }

// boltWriteTx buffers mutations in memory; they are applied to bbolt
// only inside Commit, so that the data write and the event record land
// in the same *bolt.Tx (§4.1 "no lost events, no phantom events").
type boltWriteTx struct {
	store   *BoltStore
	reads   *bolt.Tx
	puts    map[string]map[string][]byte
	deletes map[string]map[string]bool
}

func (s *BoltStore) BeginRead() (ReadTx, error) {
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, merrors.New(merrors.KindDatabaseError, "begin read", err)
	}
	return &boltReadTx{tx: tx}, nil
}

func (s *BoltStore) BeginWrite() (WriteTx, error) {
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, merrors.New(merrors.KindDatabaseError, "begin write snapshot", err)
	}
	return &boltWriteTx{
		store:   s,
		reads:   tx,
		puts:    map[string]map[string][]byte{},
		deletes: map[string]map[string]bool{},
	}, nil
}

func (w *boltWriteTx) Get(table string, key []byte) ([]byte, error) {
	if pending, ok := w.puts[table]; ok {
		if v, ok := pending[string(key)]; ok {
			return v, nil
		}
	}
	if del, ok := w.deletes[table]; ok && del[string(key)] {
		return nil, merrors.New(merrors.KindNotFound, "key not found in %s", table)
	}
	b := w.reads.Bucket([]byte(table))
	if b == nil {
		return nil, merrors.New(merrors.KindDatabaseDoesNotExist, "table %s not found", table)
	}
	v := b.Get(key)
	if v == nil {
		return nil, merrors.New(merrors.KindNotFound, "key not found in %s", table)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return unwrapLayout(out)
}

// Iter is not supported mid-write-transaction: per §4.1 only read
// transactions observe a snapshot, and writers accumulate puts/deletes
// in memory until Commit, so there is no committed-order view to walk.
func (w *boltWriteTx) Iter(table string) (Iterator, error) {
	return nil, fmt.Errorf("store: iteration is not supported inside an open write transaction")
}

func (w *boltWriteTx) Put(table string, key, value []byte) error {
	if w.puts[table] == nil {
		w.puts[table] = map[string][]byte{}
	}
	w.puts[table][string(key)] = wrapLayout(value)
	if del := w.deletes[table]; del != nil {
		delete(del, string(key))
	}
	return nil
}

func (w *boltWriteTx) Delete(table string, key []byte) error {
	if w.deletes[table] == nil {
		w.deletes[table] = map[string]bool{}
	}
	w.deletes[table][string(key)] = true
	if puts := w.puts[table]; puts != nil {
		delete(puts, string(key))
	}
	return nil
}

// Commit applies all buffered puts/deletes plus the CommitEvent record
// inside one *bolt.Tx, then discards the read snapshot used to stage
// the write transaction's own-writes visibility.
func (s *BoltStore) Commit(wtx WriteTx, event CommitEvent) error {
	w, ok := wtx.(*boltWriteTx)
	if !ok {
		return merrors.New(merrors.KindInternal, "commit called with foreign WriteTx")
	}
	defer w.reads.Rollback()

	encodedEvent, err := json.Marshal(event)
	if err != nil {
		return merrors.New(merrors.KindInternal, "encode commit event", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		for table, kvs := range w.puts {
			b, err := tx.CreateBucketIfNotExists([]byte(table))
			if err != nil {
				return err
			}
			for k, v := range kvs {
				if err := b.Put([]byte(k), v); err != nil {
					return err
				}
			}
		}
		for table, keys := range w.deletes {
			b := tx.Bucket([]byte(table))
			if b == nil {
				continue
			}
			for k := range keys {
				if err := b.Delete([]byte(k)); err != nil {
					return err
				}
			}
		}
		eb, err := tx.CreateBucketIfNotExists([]byte(eventsTable))
		if err != nil {
			return err
		}
		return eb.Put([]byte(event.EventID), wrapLayout(encodedEvent))
	})
}

func wrapLayout(v []byte) []byte {
	out := make([]byte, len(v)+1)
	out[0] = LayoutV1
	copy(out[1:], v)
	return out
}

func unwrapLayout(v []byte) ([]byte, error) {
	if len(v) == 0 {
		return nil, merrors.New(merrors.KindDatabaseError, "empty encoded value")
	}
	switch v[0] {
	case LayoutV1:
		return v[1:], nil
	default:
		return nil, merrors.New(merrors.KindDatabaseError, "unsupported layout version %d", v[0])
	}
}
