// Package txn implements the transaction executor (C6): tagged-variant
// write requests, a dispatch-table executor, and commit-time rule
// evaluation (§4.5, §4.11 FULL).
package txn

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	"github.com/ArunaStorage/aruna-sub004/pkg/models"
)

// RequestKind names a write-request variant.
type RequestKind int

const (
	KindCreateProject RequestKind = iota
	KindAddGroup
	KindCreateResourceBatch
	KindRegisterData
	KindCreateRule
	KindCreateRuleBinding
	KindCreateComponent
	KindAddOidcProvider
	KindUpsertObject
	KindDeleteProject
	KindDeleteResource
)

// Request is a tagged-variant write request. Concrete types remain in
// typed-variant form for encode/decode and replay, while dispatch goes
// through the Executor's handler table (§9 design-note resolution).
type Request interface {
	Kind() RequestKind
	MarshalBinary() ([]byte, error)
	UnmarshalBinary([]byte) error
}

// Envelope carries a Request alongside the requester's resolved
// identity at submission time and a pre-generated transaction id,
// satisfying §4.5's determinism requirement (no wall-clock/randomness
// inside a handler; anything non-deterministic is carried here).
type Envelope struct {
	TransactionID string
	EventID       string
	RequesterID   models.ID
	Kind          RequestKind
	Payload       []byte
	SubmittedAt   time.Time
}

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, merrors.New(merrors.KindInternal, "encode request", err)
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return merrors.New(merrors.KindInternal, "decode request", err)
	}
	return nil
}

// CreateProject creates a top-level Project resource.
type CreateProject struct {
	ID     models.ID
	Name   string
	Owner  models.ID
	Labels []models.Label
}

func (r *CreateProject) Kind() RequestKind           { return KindCreateProject }
func (r *CreateProject) MarshalBinary() ([]byte, error) { return gobEncode(r) }
func (r *CreateProject) UnmarshalBinary(b []byte) error { return gobDecode(b, r) }

// AddGroup grants a set of users a permission edge onto a resource,
// acting as a named permission group anchor.
type AddGroup struct {
	ID       models.ID
	Resource models.ID
	Members  []models.ID
	Level    models.PermissionLevel
}

func (r *AddGroup) Kind() RequestKind           { return KindAddGroup }
func (r *AddGroup) MarshalBinary() ([]byte, error) { return gobEncode(r) }
func (r *AddGroup) UnmarshalBinary(b []byte) error { return gobDecode(b, r) }

// CreateResourceBatch atomically creates many resources under one parent.
type CreateResourceBatch struct {
	Parent    models.ID
	Resources []models.Resource
}

func (r *CreateResourceBatch) Kind() RequestKind           { return KindCreateResourceBatch }
func (r *CreateResourceBatch) MarshalBinary() ([]byte, error) { return gobEncode(r) }
func (r *CreateResourceBatch) UnmarshalBinary(b []byte) error { return gobDecode(b, r) }

// RegisterData finalizes an Object's content location after a proxy
// upload completes.
type RegisterData struct {
	ObjectID      models.ID
	Location      models.Location
	ContentLength int64
	Hash          string
}

func (r *RegisterData) Kind() RequestKind           { return KindRegisterData }
func (r *RegisterData) MarshalBinary() ([]byte, error) { return gobEncode(r) }
func (r *RegisterData) UnmarshalBinary(b []byte) error { return gobDecode(b, r) }

// CreateRule stores a compiled boolean expression.
type CreateRule struct {
	ID     models.ID
	Owner  models.ID
	Public bool
	Source string
}

func (r *CreateRule) Kind() RequestKind           { return KindCreateRule }
func (r *CreateRule) MarshalBinary() ([]byte, error) { return gobEncode(r) }
func (r *CreateRule) UnmarshalBinary(b []byte) error { return gobDecode(b, r) }

// CreateRuleBinding anchors a Rule at a resource.
type CreateRuleBinding struct {
	ID        models.ID
	Rule      models.ID
	Origin    models.ID
	Bound     models.ID
	Cascading bool
}

func (r *CreateRuleBinding) Kind() RequestKind           { return KindCreateRuleBinding }
func (r *CreateRuleBinding) MarshalBinary() ([]byte, error) { return gobEncode(r) }
func (r *CreateRuleBinding) UnmarshalBinary(b []byte) error { return gobDecode(b, r) }

// CreateComponent registers a proxy endpoint.
type CreateComponent struct {
	ID      models.ID
	Name    string
	Variant models.ComponentVariant
	Hosts   []models.HostConfig
	Public  bool
}

func (r *CreateComponent) Kind() RequestKind           { return KindCreateComponent }
func (r *CreateComponent) MarshalBinary() ([]byte, error) { return gobEncode(r) }
func (r *CreateComponent) UnmarshalBinary(b []byte) error { return gobDecode(b, r) }

// AddOidcProvider registers an OIDC issuer for token validation.
type AddOidcProvider struct {
	IssuerName      string
	Audiences       []string
	RefreshEndpoint string
}

func (r *AddOidcProvider) Kind() RequestKind           { return KindAddOidcProvider }
func (r *AddOidcProvider) MarshalBinary() ([]byte, error) { return gobEncode(r) }
func (r *AddOidcProvider) UnmarshalBinary(b []byte) error { return gobDecode(b, r) }

// UpsertObject creates or updates an Object's metadata document,
// bumping its revision counter (invariant 4).
type UpsertObject struct {
	ID       models.ID
	Parent   models.ID
	Name     string
	Labels   []models.Label
	Revision uint64
}

func (r *UpsertObject) Kind() RequestKind           { return KindUpsertObject }
func (r *UpsertObject) MarshalBinary() ([]byte, error) { return gobEncode(r) }
func (r *UpsertObject) UnmarshalBinary(b []byte) error { return gobDecode(b, r) }

// DeleteProject tombstones a Project and its whole subtree (§3.2
// invariant 5): every descendant's document is marked Deleted, not
// removed, so audit queries can still traverse it.
type DeleteProject struct {
	ID models.ID
}

func (r *DeleteProject) Kind() RequestKind           { return KindDeleteProject }
func (r *DeleteProject) MarshalBinary() ([]byte, error) { return gobEncode(r) }
func (r *DeleteProject) UnmarshalBinary(b []byte) error { return gobDecode(b, r) }

// DeleteResource tombstones a non-Project resource and its subtree,
// the same way DeleteProject does for a Project root.
type DeleteResource struct {
	ID models.ID
}

func (r *DeleteResource) Kind() RequestKind           { return KindDeleteResource }
func (r *DeleteResource) MarshalBinary() ([]byte, error) { return gobEncode(r) }
func (r *DeleteResource) UnmarshalBinary(b []byte) error { return gobDecode(b, r) }

// newZeroValue builds an empty Request for a given Kind, used by the
// consensus FSM to decode an ordered log entry before dispatch.
func newZeroValue(kind RequestKind) Request {
	switch kind {
	case KindCreateProject:
		return &CreateProject{}
	case KindAddGroup:
		return &AddGroup{}
	case KindCreateResourceBatch:
		return &CreateResourceBatch{}
	case KindRegisterData:
		return &RegisterData{}
	case KindCreateRule:
		return &CreateRule{}
	case KindCreateRuleBinding:
		return &CreateRuleBinding{}
	case KindCreateComponent:
		return &CreateComponent{}
	case KindAddOidcProvider:
		return &AddOidcProvider{}
	case KindUpsertObject:
		return &UpsertObject{}
	case KindDeleteProject:
		return &DeleteProject{}
	case KindDeleteResource:
		return &DeleteResource{}
	default:
		return nil
	}
}

// Decode reconstructs the typed Request for kind from its encoded payload.
func Decode(kind RequestKind, payload []byte) (Request, error) {
	req := newZeroValue(kind)
	if req == nil {
		return nil, merrors.New(merrors.KindValidation, "unknown request kind %d", int(kind))
	}
	if err := req.UnmarshalBinary(payload); err != nil {
		return nil, err
	}
	return req, nil
}
