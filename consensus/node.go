// Package consensus implements the consensus node (C7): total
// ordering of write transactions across the cluster via
// hashicorp/raft, dispatching each ordered entry to a txn.Executor in
// order (§4.5 steps 4-7).
package consensus

import (
	"context"
	"time"

	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	"github.com/hashicorp/raft"
)

// Config describes how to construct a Node.
type Config struct {
	NodeID       string
	BindAddr     string
	DataDir      string
	Bootstrap    bool
	ApplyTimeout time.Duration
}

// Node wraps a *raft.Raft instance and exposes the Propose entry point
// txn.Executor.Submit hands transactions to.
type Node struct {
	raft         *raft.Raft
	applyTimeout time.Duration
}

// New constructs a Node. transport, logStore, stableStore, and
// snapshotStore are left as raft.* building blocks the caller wires
// per-deployment (in-memory for tests, on-disk bbolt-backed for
// production), matching hashicorp/raft's own constructor-injection
// style rather than this package opinionating on storage.
func New(cfg Config, fsm raft.FSM, transport raft.Transport, logStore raft.LogStore, stableStore raft.StableStore, snapshotStore raft.SnapshotStore) (*Node, error) {
	raftCfg := raft.DefaultConfig()
	raftCfg.LocalID = raft.ServerID(cfg.NodeID)

	r, err := raft.NewRaft(raftCfg, fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		return nil, merrors.New(merrors.KindInternal, "start raft node", err)
	}

	if cfg.Bootstrap {
		future := r.BootstrapCluster(raft.Configuration{
			Servers: []raft.Server{{ID: raftCfg.LocalID, Address: transport.LocalAddr()}},
		})
		if err := future.Error(); err != nil && err != raft.ErrCantBootstrap {
			return nil, merrors.New(merrors.KindInternal, "bootstrap raft cluster", err)
		}
	}

	timeout := cfg.ApplyTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Node{raft: r, applyTimeout: timeout}, nil
}

// Propose is the non-leader-safe submission path (§4.5 step 3-4): a
// raft.ErrNotLeader is translated to merrors.KindNodeNotReady so the
// caller retries on another node.
func (n *Node) Propose(ctx context.Context, transactionID string, payload []byte) error {
	future := n.raft.Apply(payload, n.applyTimeout)
	if err := future.Error(); err != nil {
		if err == raft.ErrNotLeader || err == raft.ErrLeadershipLost {
			return merrors.New(merrors.KindNodeNotReady, "node is not leader for transaction %s", transactionID, err)
		}
		return merrors.New(merrors.KindInternal, "apply transaction %s", transactionID, err)
	}
	if resp := future.Response(); resp != nil {
		if err, ok := resp.(error); ok && err != nil {
			return err
		}
	}
	return nil
}

// IsLeader reports whether this node currently holds leadership.
func (n *Node) IsLeader() bool {
	return n.raft.State() == raft.Leader
}

// AddVoter adds a new voting member to the cluster; only meaningful on the leader.
func (n *Node) AddVoter(id, address string) error {
	future := n.raft.AddVoter(raft.ServerID(id), raft.ServerAddress(address), 0, 0)
	return future.Error()
}

// Shutdown stops the raft instance.
func (n *Node) Shutdown() error {
	return n.raft.Shutdown().Error()
}
