// Package store implements the transactional embedded key-value store
// (C1): named tables with typed keys, multi-reader/single-writer
// semantics, and commit-time event emission in the same atomic batch
// as the data it describes.
package store

import (
	"github.com/ArunaStorage/aruna-sub004/pkg/models"
)

// LayoutV1 is the current on-disk value encoding version. Every value
// this package writes is prefixed with this byte so a future layout
// can coexist with old records during an upgrade.
const LayoutV1 byte = 1

// Predefined tables (§4.1).
const (
	TableNodes         = "nodes"
	TableRelations     = "relations"
	TableDocuments     = "documents"
	TableIssuerKeys    = "issuer_keys"
	TableSigningKeys   = "signing_keys"
	TableSubscribers   = "subscribers"
	TableUniversePublic = "universes:public"
	TableUniverseReadPrefix = "universes:read:" // + <user id>
	TableTokens        = "tokens"
	TableRules         = "rules"
	TableRuleBindings  = "rule_bindings"
	TableComponents    = "components"
	TableUserByOIDC    = "user_by_oidc"
)

// CommitEvent is the record written to the implicit events log at
// every commit, tagged with the caller-supplied event id.
type CommitEvent struct {
	EventID     string
	AffectedIDs []models.ID
	RemovedIDs  []models.ID
}

// ReadTx is a snapshot-isolated read transaction.
type ReadTx interface {
	Get(table string, key []byte) ([]byte, error)
	Iter(table string) (Iterator, error)
}

// WriteTx is the sole write transaction; only one may be open at a time.
type WriteTx interface {
	ReadTx
	Put(table string, key, value []byte) error
	Delete(table string, key []byte) error
}

// Iterator walks a table's entries in key order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Close() error
}

// Store is the C1 contract.
type Store interface {
	BeginRead() (ReadTx, error)
	BeginWrite() (WriteTx, error)
	// Commit atomically installs wtx's buffered writes and records a
	// CommitEvent in the same transaction.
	Commit(wtx WriteTx, event CommitEvent) error
	Close() error
}

// Retriable is an optional interface for retriable errors. No error
// type in this module implements it: BoltStore returns *merrors.Error
// values, which merrors.Retriable and merrors.Fatal classify by Kind.
type Retriable interface {
	error
	Retriable() bool
}
