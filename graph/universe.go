package graph

import "github.com/ArunaStorage/aruna-sub004/pkg/models"

// Universe is the secondary index (identity, visibility class) -> []ID
// described in the glossary and implied by the store's
// universes:public / universes:read:<user> tables (§4.1, §4.12 FULL).
// It lets search.Index.Query filter unauthenticated or low-privilege
// results before running the full-text match.
type Universe struct {
	public map[models.ID]struct{}
	read   map[models.ID]map[models.ID]struct{} // user id -> set of readable resource ids
}

// NewUniverse builds an empty Universe index.
func NewUniverse() *Universe {
	return &Universe{
		public: map[models.ID]struct{}{},
		read:   map[models.ID]map[models.ID]struct{}{},
	}
}

// MarkPublic records that resource is visible without authentication.
func (u *Universe) MarkPublic(resource models.ID) {
	u.public[resource] = struct{}{}
}

// UnmarkPublic removes resource from the public universe (visibility
// changed, or the resource was deleted).
func (u *Universe) UnmarkPublic(resource models.ID) {
	delete(u.public, resource)
}

// GrantRead records that user can read resource, mirroring a
// permission-edge grant being appended to universes:read:<user>.
func (u *Universe) GrantRead(user, resource models.ID) {
	if u.read[user] == nil {
		u.read[user] = map[models.ID]struct{}{}
	}
	u.read[user][resource] = struct{}{}
}

// RevokeRead removes a previously granted read entry.
func (u *Universe) RevokeRead(user, resource models.ID) {
	if set := u.read[user]; set != nil {
		delete(set, resource)
	}
}

// Visible returns every resource id visible to user (nil user means
// unauthenticated: only the public universe applies).
func (u *Universe) Visible(user *models.ID) []models.ID {
	out := make([]models.ID, 0, len(u.public))
	for id := range u.public {
		out = append(out, id)
	}
	if user == nil {
		return out
	}
	for id := range u.read[*user] {
		if _, already := u.public[id]; !already {
			out = append(out, id)
		}
	}
	return out
}

// IsPublic reports whether resource is in the public universe.
func (u *Universe) IsPublic(resource models.ID) bool {
	_, ok := u.public[resource]
	return ok
}
