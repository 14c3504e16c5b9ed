package txn

import (
	"context"
	"sync"
	"time"

	"github.com/ArunaStorage/aruna-sub004/graph"
	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	"github.com/ArunaStorage/aruna-sub004/pkg/models"
	"github.com/ArunaStorage/aruna-sub004/store"
)

// Response is the opaque, handler-defined result relayed back to the
// submitter (§4.5 step 7).
type Response struct {
	AffectedIDs []models.ID
	RemovedIDs  []models.ID
	Data        any
}

// HandlerFunc is one entry of the trait-object-style dispatch table
// (§9 design-note resolution): it receives the write transaction,
// graph, and decoded request, and performs all of its mutations.
type HandlerFunc func(ctx context.Context, ec *ExecContext, req Request) (Response, error)

// ExecContext bundles the collaborators a handler needs.
type ExecContext struct {
	Tx    store.WriteTx
	Graph *graph.Graph
}

// Authorizer is consulted during Submit (§4.5 step 1).
type Authorizer interface {
	Authorize(ctx context.Context, requester models.ID, req Request) error
}

// Proposer hands a serialized transaction to consensus (§4.5 step 3).
type Proposer interface {
	Propose(ctx context.Context, transactionID string, payload []byte) error
}

// DocumentBuilder renders a resource's current state as JSON for rule
// evaluation (§4.5 "Rule evaluation", §4.11).
type DocumentBuilder func(ctx context.Context, tx store.ReadTx, resource models.ID) ([]byte, error)

// BindingsLookup returns every rule id bound at resource or at an
// ancestor marked cascading (§4.5 "Rule evaluation").
type BindingsLookup func(ctx context.Context, tx store.ReadTx, resource models.ID) ([]models.ID, error)

// Executor runs registered handlers against a Store and Graph,
// evaluating rules at commit time.
type Executor struct {
	store    store.Store
	graph    *graph.Graph
	rules    *RuleSet
	docs     DocumentBuilder
	bindings BindingsLookup

	mu       sync.RWMutex
	handlers map[RequestKind]HandlerFunc
}

// NewExecutor builds an Executor over the given collaborators.
func NewExecutor(s store.Store, g *graph.Graph, rules *RuleSet, docs DocumentBuilder, bindings BindingsLookup) *Executor {
	return &Executor{
		store:    s,
		graph:    g,
		rules:    rules,
		docs:     docs,
		bindings: bindings,
		handlers: map[RequestKind]HandlerFunc{},
	}
}

// Register installs the handler for kind. Call once per kind at init,
// mirroring the teacher's command-registration pattern.
func (e *Executor) Register(kind RequestKind, h HandlerFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[kind] = h
}

// Submit runs the submission-path steps 1-3: authorize, serialize,
// hand off to consensus.
func (e *Executor) Submit(ctx context.Context, authz Authorizer, proposer Proposer, requester models.ID, transactionID string, req Request) error {
	if err := authz.Authorize(ctx, requester, req); err != nil {
		return err
	}
	payload, err := req.MarshalBinary()
	if err != nil {
		return merrors.New(merrors.KindInternal, "serialize request", err)
	}
	env := Envelope{
		TransactionID: transactionID,
		EventID:       transactionID,
		RequesterID:   requester,
		Kind:          req.Kind(),
		Payload:       payload,
		SubmittedAt:   time.Now(),
	}
	encodedEnv, err := gobEncode(&env)
	if err != nil {
		return err
	}
	return proposer.Propose(ctx, transactionID, encodedEnv)
}

// Execute runs the consensus-path steps 5-7: deserialize, dispatch,
// evaluate rules, commit. It is invoked once per replica, in
// consensus order, by consensus.FSM.Apply.
func (e *Executor) Execute(ctx context.Context, env Envelope) (Response, error) {
	e.mu.RLock()
	handler, ok := e.handlers[env.Kind]
	e.mu.RUnlock()
	if !ok {
		return Response{}, merrors.New(merrors.KindValidation, "no handler registered for kind %d", int(env.Kind))
	}

	req, err := Decode(env.Kind, env.Payload)
	if err != nil {
		return Response{}, err
	}

	wtx, err := e.store.BeginWrite()
	if err != nil {
		return Response{}, err
	}

	resp, err := handler(ctx, &ExecContext{Tx: wtx, Graph: e.graph}, req)
	if err != nil {
		// §4.5 "An execute returning error aborts the write
		// transaction; no event is emitted." The in-memory write
		// buffer is simply discarded by never calling Commit.
		return Response{}, err
	}

	if err := e.evaluateRules(ctx, wtx, resp.AffectedIDs); err != nil {
		return Response{}, err
	}

	if err := e.store.Commit(wtx, store.CommitEvent{
		EventID:     env.EventID,
		AffectedIDs: resp.AffectedIDs,
		RemovedIDs:  resp.RemovedIDs,
	}); err != nil {
		return Response{}, err
	}

	return resp, nil
}

func (e *Executor) evaluateRules(ctx context.Context, tx store.ReadTx, affected []models.ID) error {
	if e.bindings == nil || e.docs == nil {
		return nil
	}
	for _, id := range affected {
		ruleIDs, err := e.bindings(ctx, tx, id)
		if err != nil {
			return err
		}
		if len(ruleIDs) == 0 {
			continue
		}
		doc, err := e.docs(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, ruleID := range ruleIDs {
			ok, err := e.rules.Evaluate(ruleID, doc)
			if err != nil {
				return merrors.New(merrors.KindInternal, "evaluate rule %s", ruleID, err)
			}
			if !ok {
				return merrors.New(merrors.KindTransactionFailure, "policy violation: rule %s", ruleID)
			}
		}
	}
	return nil
}
