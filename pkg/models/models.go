// Package models centralizes every cross-component entity type, the
// way the teacher's pkg/mmodel package centralizes DTOs shared across
// ledger services.
package models

import (
	"time"

	"github.com/ArunaStorage/aruna-sub004/pkg/ulid"
)

// ID is the sortable identity used as the primary key for every entity.
type ID = ulid.ID

// ResourceVariant names which kind of resource a node is.
type ResourceVariant int

const (
	ResourceProject ResourceVariant = iota
	ResourceCollection
	ResourceDataset
	ResourceObject
	ResourceBundle
	ResourceLicense
	ResourceComponent
	ResourceHook
	ResourceRule
)

// Visibility controls who may read a resource without an explicit
// permission edge.
type Visibility int

const (
	VisibilityPublic Visibility = iota
	VisibilityPrivate
	VisibilityWorkspace
	VisibilityConfidential
)

// Status is the resource lifecycle state.
type Status int

const (
	StatusInitializing Status = iota
	StatusValidating
	StatusAvailable
	StatusUnavailable
	StatusError
	StatusDeleted
)

// LabelVariant distinguishes user labels from system/hook-derived ones.
type LabelVariant int

const (
	LabelPlain LabelVariant = iota
	LabelStatic
	LabelHook
	LabelHookStatus
)

// Label is a typed key/value tag attached to a resource.
type Label struct {
	Key     string
	Value   string
	Variant LabelVariant
}

// Resource is the common envelope for every resource variant (§3.1).
type Resource struct {
	ID            ID
	Variant       ResourceVariant
	Name          string
	Title         string
	Description   string
	Labels        []Label
	Authors       []string
	Visibility    Visibility
	Status        Status
	CreatedAt     time.Time
	Revision      uint64
	ContentLength int64
}

// PermissionLevel is the 0..=4 permission-edge range.
type PermissionLevel int32

const (
	PermissionNone PermissionLevel = iota
	PermissionRead
	PermissionAppend
	PermissionWrite
	PermissionAdmin
)

// EdgeType is the full 32-bit edge-type space, partitioned into
// disjoint permission/hierarchy/semantic ranges.
type EdgeType uint32

const (
	// Permission edges occupy 0..=4, mirroring PermissionLevel values.
	EdgeNone    EdgeType = EdgeType(PermissionNone)
	EdgeRead    EdgeType = EdgeType(PermissionRead)
	EdgeAppend  EdgeType = EdgeType(PermissionAppend)
	EdgeWrite   EdgeType = EdgeType(PermissionWrite)
	EdgeAdmin   EdgeType = EdgeType(PermissionAdmin)
	permEdgeMax          = EdgeAdmin

	// Hierarchy edges.
	EdgeHasPart EdgeType = 100 + iota
	EdgeOwnsProject
)

const (
	// Semantic edges.
	EdgeSharesPermission EdgeType = 200 + iota
	EdgeReferences
	EdgeOwnedByUser
	EdgeMetadataOf
	EdgePolicy
	EdgeOrigin
	edgeUserDefinedBase // user-defined edge types start here and above
)

// EdgeClass classifies an EdgeType into one of the three disjoint
// ranges the authorization BFS (§4.3) and graph rebuild rely on.
type EdgeClass int

const (
	EdgeClassPermission EdgeClass = iota
	EdgeClassHierarchy
	EdgeClassSemantic
)

// Class reports which disjoint range et falls in.
func (et EdgeType) Class() EdgeClass {
	switch {
	case et <= permEdgeMax:
		return EdgeClassPermission
	case et == EdgeHasPart || et == EdgeOwnsProject:
		return EdgeClassHierarchy
	default:
		return EdgeClassSemantic
	}
}

// Level returns the PermissionLevel an EdgeType in the permission
// class represents; callers must check Class() == EdgeClassPermission
// first.
func (et EdgeType) Level() PermissionLevel {
	return PermissionLevel(et)
}

// Relation is the directed, typed edge between two resources (§3.1);
// the tuple (Source, Target, Type) is unique.
type Relation struct {
	Source ID
	Target ID
	Type   EdgeType
}

// User is an identity with display metadata, OIDC subjects, and a
// per-resource permission map.
type User struct {
	ID          ID
	DisplayName string
	Email       string
	OIDCSubs    []OIDCSubject
	Permissions map[ID]PermissionLevel
	ServiceOf   *ID // non-nil when this user is a service account bound to one resource
}

// OIDCSubject pairs an issuer name with a subject claim.
type OIDCSubject struct {
	Issuer  string
	Subject string
}

// Token is a named credential, optionally scoped narrower than its
// creator's effective permission.
type Token struct {
	ID          ID
	Name        string
	CreatedBy   ID
	KeySerial   uint32
	ExpiresAt   time.Time
	Scope       map[ID]PermissionLevel // nil scope means unrestricted (creator's full permission set)
}

// IssuerVariant distinguishes the three token-issuing contexts.
type IssuerVariant int

const (
	IssuerInternal IssuerVariant = iota
	IssuerDataProxy
	IssuerOIDC
)

// SigningKey is one (kid, key) pair held by an Issuer.
type SigningKey struct {
	KeyID      string
	PublicKey  []byte
	PrivateKey []byte // nil for OIDC issuers, which hold only verification material
}

// Issuer is a logical key set used to validate or mint tokens.
type Issuer struct {
	Name            string
	Keys            []SigningKey
	Audiences       []string
	Variant         IssuerVariant
	RefreshEndpoint string
	LastRefresh     time.Time
}

// CompareOp is the comparison operator inside a compiled rule.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpNeq
	OpGt
	OpGte
	OpLt
	OpLte
	OpContains
)

// Rule is a compiled boolean expression over a resource document.
type Rule struct {
	ID      ID
	Owner   ID
	Public  bool
	Source  string // the uncompiled expression text, kept for display/audit
}

// RuleBinding anchors a Rule at a resource, optionally cascading to descendants.
type RuleBinding struct {
	ID          ID
	Rule        ID
	Origin      ID
	Bound       ID
	Cascading   bool
}

// ComponentVariant distinguishes long-lived from ephemeral proxies.
type ComponentVariant int

const (
	ComponentPersistent ComponentVariant = iota
	ComponentVolatile
)

// ComponentFeature names a capability a host config advertises.
type ComponentFeature int

const (
	FeatureGRPC ComponentFeature = iota
	FeatureS3
	FeatureProxy
)

// HostConfig is one reachable endpoint for a Component.
type HostConfig struct {
	URL     string
	Primary bool
	SSL     bool
	Public  bool
	Feature ComponentFeature
}

// ComponentStatus is the proxy endpoint's lifecycle state.
type ComponentStatus int

const (
	ComponentInitializing ComponentStatus = iota
	ComponentAvailable
	ComponentDegraded
)

// Component is a proxy endpoint (§3.1 "Component (Proxy Endpoint)").
type Component struct {
	ID      ID
	Name    string
	Variant ComponentVariant
	Hosts   []HostConfig
	Public  bool
	Status  ComponentStatus
}

// LocationFormat is the storage encoding a location currently holds.
type LocationFormat int

const (
	FormatRaw LocationFormat = iota
	FormatCompressed
	FormatEncrypted
	FormatPithos
	FormatUploading
)

// Location is a physical placement of object bytes; many Objects may
// point at one Location once content-addressed dedup applies.
type Location struct {
	Backend       string
	Bucket        string
	Key           string
	Format        LocationFormat
	EncryptionKey []byte
	Compressed    bool
	RefCount      uint32
}

// Subscriber declares interest in events for a target resource and,
// optionally, its descendants.
type Subscriber struct {
	ID       ID
	Owner    ID
	Target   ID
	Cascade  bool
}

// Bundle groups a set of objects for bulk presigned download; expiry
// is carried but no sweeper purges expired bundles (§8 Open Question 4).
type Bundle struct {
	ID        ID
	Owner     ID
	ObjectIDs []ID
	ExpiresAt time.Time
}

// EventKind enumerates the three committed-transaction event shapes (§4.6).
type EventKind int

const (
	EventResourceCreated EventKind = iota
	EventResourceUpdated
	EventResourceDeleted
	EventResourceAvailable
	EventUserCreated
	EventUserUpdated
	EventUserDeleted
	EventAnnouncement
)

// Event is the notification payload committed alongside a transaction.
type Event struct {
	Kind         EventKind
	ResourceID   ID
	UserID       ID
	Hierarchies  [][]ID // root-to-node ancestor paths the resource participates in
	BlockID      *ID
	Announcement string
}
