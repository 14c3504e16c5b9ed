package server

import (
	"context"
	"encoding/json"

	"github.com/ArunaStorage/aruna-sub004/graph"
	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	"github.com/ArunaStorage/aruna-sub004/pkg/models"
	"github.com/ArunaStorage/aruna-sub004/store"
)

// StoreIssuerStore implements token.IssuerStore by reading the
// issuer_keys table populated by the AddOidcProvider handler.
type StoreIssuerStore struct {
	DB store.Store
}

func (s *StoreIssuerStore) Get(_ context.Context, issuer string) (*models.Issuer, error) {
	tx, err := s.DB.BeginRead()
	if err != nil {
		return nil, merrors.Wrap(merrors.KindDatabaseError, err)
	}
	raw, err := tx.Get(store.TableIssuerKeys, []byte(issuer))
	if err != nil {
		return nil, merrors.New(merrors.KindNotFound, "issuer %s not found", issuer, err)
	}
	var out models.Issuer
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, merrors.New(merrors.KindInternal, "decode issuer %s", issuer, err)
	}
	return &out, nil
}

// StoreUserResolver implements token.UserResolver over the embedded
// store and graph: OIDC subjects are looked up in the user_by_oidc
// table, internal and data-proxy subjects are parsed as ids directly,
// and EffectivePermissions walks the user node's direct permission
// edges (the set the BFS authorizer would expand from).
type StoreUserResolver struct {
	DB    store.Store
	Graph *graph.Graph
}

func (r *StoreUserResolver) ResolveInternal(_ context.Context, subject string) (models.ID, error) {
	parsed, err := parseID(subject)
	if err != nil {
		return models.ID{}, merrors.New(merrors.KindValidation, "internal subject is not a resource id", err)
	}
	return parsed, nil
}

func (r *StoreUserResolver) ResolveDataProxy(_ context.Context, subject string) (models.ID, error) {
	return parseID(subject)
}

func (r *StoreUserResolver) ResolveOIDC(_ context.Context, issuer, subject string) (models.ID, error) {
	tx, err := r.DB.BeginRead()
	if err != nil {
		return models.ID{}, merrors.Wrap(merrors.KindDatabaseError, err)
	}
	raw, err := tx.Get(store.TableUserByOIDC, []byte(issuer+"|"+subject))
	if err != nil {
		return models.ID{}, merrors.New(merrors.KindNotFound, "no user bound to %s/%s", issuer, subject, err)
	}
	return parseID(string(raw))
}

func (r *StoreUserResolver) LoadToken(_ context.Context, tokenID string) (*models.Token, error) {
	tx, err := r.DB.BeginRead()
	if err != nil {
		return nil, merrors.Wrap(merrors.KindDatabaseError, err)
	}
	raw, err := tx.Get(store.TableTokens, []byte(tokenID))
	if err != nil {
		return nil, merrors.New(merrors.KindNotFound, "token %s not found", tokenID, err)
	}
	var tok models.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, merrors.New(merrors.KindInternal, "decode token %s", tokenID, err)
	}
	return &tok, nil
}

func (r *StoreUserResolver) EffectivePermissions(_ context.Context, user models.ID) (map[models.ID]models.PermissionLevel, error) {
	perms := make(map[models.ID]models.PermissionLevel)
	for _, rel := range r.Graph.Relations(user, graph.Outbound, nil) {
		if rel.Type.Class() != models.EdgeClassPermission {
			continue
		}
		perms[rel.Target] = rel.Type.Level()
	}
	return perms, nil
}

func parseID(s string) (models.ID, error) {
	var id models.ID
	if err := id.UnmarshalText([]byte(s)); err != nil {
		return models.ID{}, err
	}
	return id, nil
}
