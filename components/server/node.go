package server

import (
	"context"
	"encoding/binary"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb/v2"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ArunaStorage/aruna-sub004/authz"
	"github.com/ArunaStorage/aruna-sub004/consensus"
	"github.com/ArunaStorage/aruna-sub004/graph"
	"github.com/ArunaStorage/aruna-sub004/notify"
	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	"github.com/ArunaStorage/aruna-sub004/pkg/mlog"
	"github.com/ArunaStorage/aruna-sub004/pkg/models"
	"github.com/ArunaStorage/aruna-sub004/search"
	"github.com/ArunaStorage/aruna-sub004/store"
	"github.com/ArunaStorage/aruna-sub004/token"
	"github.com/ArunaStorage/aruna-sub004/txn"
)

// Node is one control-plane replica: the embedded store and graph, the
// authorization, token, transaction, consensus, notification, and
// search subsystems wired together per §2/§5.
type Node struct {
	Store    *store.BoltStore
	Graph    *graph.Graph
	Authz    *authz.Engine
	Tokens   *token.Handler
	Executor *txn.Executor
	Raft     *consensus.Node
	Notifier *notify.Notifier
	Search   *search.BleveIndex

	amqpConn *amqp.Connection
	log      mlog.Logger
}

// New constructs a Node from cfg. It opens the embedded store, rebuilds
// the in-memory graph, wires the rule-aware executor, starts the raft
// consensus group, and connects to the event broker.
func New(ctx context.Context, cfg Config, log mlog.Logger) (*Node, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, merrors.New(merrors.KindInternal, "create data dir", err)
	}

	db, err := store.Open(filepath.Join(cfg.DataDir, "store.db"))
	if err != nil {
		return nil, merrors.Wrap(merrors.KindDatabaseError, err)
	}

	g := graph.New()
	if err := rebuildGraph(db, g); err != nil {
		log.Warnf("graph rebuild incomplete: %v", err)
	}

	rules := txn.NewRuleSet()
	executor := txn.NewExecutor(db, g, rules, nil, nil)
	txn.RegisterStandardHandlers(executor)

	engine := authz.New(g)
	resolver := &StoreUserResolver{DB: db, Graph: g}
	issuers := &StoreIssuerStore{DB: db}
	tokens := token.NewHandler(issuers, resolver)

	raftNode, err := newRaftNode(cfg, executor)
	if err != nil {
		return nil, err
	}

	universe := g.Universe()
	searchIdx, err := search.NewBleveIndex(universe)
	if err != nil {
		return nil, merrors.Wrap(merrors.KindInternal, err)
	}

	n := &Node{
		Store:    db,
		Graph:    g,
		Authz:    engine,
		Tokens:   tokens,
		Executor: executor,
		Raft:     raftNode,
		Search:   searchIdx,
		log:      log,
	}

	if cfg.AMQPURL != "" {
		conn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			log.Warnf("amqp dial failed, notifications disabled: %v", err)
		} else {
			ch, err := conn.Channel()
			if err != nil {
				log.Warnf("amqp channel failed, notifications disabled: %v", err)
				conn.Close()
			} else {
				notifier, err := notify.NewNotifier(ch)
				if err != nil {
					log.Warnf("notifier setup failed: %v", err)
				} else {
					n.Notifier = notifier
					n.amqpConn = conn
				}
			}
		}
	}

	return n, nil
}

func newRaftNode(cfg Config, executor *txn.Executor) (*consensus.Node, error) {
	raftDir := filepath.Join(cfg.DataDir, "raft")
	if err := os.MkdirAll(raftDir, 0o755); err != nil {
		return nil, merrors.New(merrors.KindInternal, "create raft dir", err)
	}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(raftDir, "raft-log.db"))
	if err != nil {
		return nil, merrors.Wrap(merrors.KindDatabaseError, err)
	}
	snapshotStore, err := raft.NewFileSnapshotStore(raftDir, 2, os.Stderr)
	if err != nil {
		return nil, merrors.Wrap(merrors.KindInternal, err)
	}

	ln, err := net.Listen("tcp", cfg.BindAddr)
	if err != nil {
		return nil, merrors.New(merrors.KindInternal, "listen on %s", cfg.BindAddr, err)
	}
	dialFn := func(address string, timeout time.Duration) (net.Conn, error) {
		return net.DialTimeout("tcp", address, timeout)
	}
	streamLayer := consensus.NewStreamLayer(ln, dialFn)
	transport := raft.NewNetworkTransport(streamLayer, 3, 10*time.Second, os.Stderr)

	fsm := consensus.NewFSM(executor)

	raftCfg := consensus.Config{
		NodeID:       cfg.NodeID,
		BindAddr:     cfg.BindAddr,
		DataDir:      raftDir,
		Bootstrap:    cfg.Bootstrap,
		ApplyTimeout: cfg.ApplyTimeout,
	}
	return consensus.New(raftCfg, fsm, transport, logStore, logStore, snapshotStore)
}

// rebuildGraph replays the persisted nodes and relations tables into a
// fresh in-memory graph (§4.2), the recovery path after a restart.
func rebuildGraph(db store.Store, g *graph.Graph) error {
	tx, err := db.BeginRead()
	if err != nil {
		return merrors.Wrap(merrors.KindDatabaseError, err)
	}

	return g.RebuildFromStore(
		func(yield func(id models.ID, variant models.ResourceVariant) error) error {
			it, err := tx.Iter(store.TableNodes)
			if err != nil {
				return err
			}
			defer it.Close()
			for it.Next() {
				var id models.ID
				copy(id[:], it.Key())
				variant := models.ResourceVariant(it.Value()[0])
				if err := yield(id, variant); err != nil {
					return err
				}
			}
			return nil
		},
		func(yield func(rel models.Relation) error) error {
			it, err := tx.Iter(store.TableRelations)
			if err != nil {
				return err
			}
			defer it.Close()
			for it.Next() {
				key := it.Key()
				if len(key) != 36 {
					continue
				}
				var src, dst models.ID
				copy(src[:], key[0:16])
				copy(dst[:], key[16:32])
				typ := models.EdgeType(binary.BigEndian.Uint32(key[32:36]))
				if err := yield(models.Relation{Source: src, Target: dst, Type: typ}); err != nil {
					return err
				}
			}
			return nil
		},
	)
}

// Close releases the node's resources in reverse construction order.
func (n *Node) Close() error {
	if n.Raft != nil {
		n.Raft.Shutdown()
	}
	if n.amqpConn != nil {
		n.amqpConn.Close()
	}
	return n.Store.Close()
}
