package consensus

import (
	"bytes"
	"context"
	"encoding/gob"
	"io"

	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	"github.com/ArunaStorage/aruna-sub004/txn"
	"github.com/hashicorp/raft"
)

// FSM adapts a txn.Executor to hashicorp/raft's state-machine
// interface: each committed log entry is one txn.Envelope, applied in
// order on every replica.
type FSM struct {
	executor *txn.Executor
}

var _ raft.FSM = (*FSM)(nil)

// NewFSM builds an FSM that dispatches into executor.
func NewFSM(executor *txn.Executor) *FSM {
	return &FSM{executor: executor}
}

// Apply decodes the log entry's envelope and calls the matching
// registered handler via Executor.Execute (§4.5 step 4-7).
func (f *FSM) Apply(entry *raft.Log) any {
	var env txn.Envelope
	if err := gob.NewDecoder(bytes.NewReader(entry.Data)).Decode(&env); err != nil {
		return merrors.New(merrors.KindInternal, "decode log entry", err)
	}
	_, err := f.executor.Execute(context.Background(), env)
	return err
}

// Snapshot and Restore are left to the caller's chosen store-level
// snapshotting (bbolt's own file is the durable state); raft still
// requires the interface methods to be present.
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	return noopSnapshot{}, nil
}

func (f *FSM) Restore(rc io.ReadCloser) error {
	return rc.Close()
}

type noopSnapshot struct{}

func (noopSnapshot) Persist(sink raft.SnapshotSink) error { return sink.Close() }
func (noopSnapshot) Release()                             {}
