// Package token implements the token handler (C5): header parsing,
// issuer/kid lookup, JWKS refresh with cooldown, signature/audience/
// expiry verification, subject resolution, and token-scope
// intersection (§4.4).
package token

import (
	"context"
	"sync"
	"time"

	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	"github.com/ArunaStorage/aruna-sub004/pkg/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload shape every issuer variant produces.
type Claims struct {
	jwt.RegisteredClaims
	TokenID string `json:"tid,omitempty"`
}

// UserResolver resolves a validated subject to an internal user and,
// for a named token, loads that token's row for scope intersection.
type UserResolver interface {
	// ResolveInternal maps an internal-issuer subject directly to a user id.
	ResolveInternal(ctx context.Context, subject string) (models.ID, error)
	// ResolveOIDC maps (issuer, subject) via user_by_oidc.
	ResolveOIDC(ctx context.Context, issuer, subject string) (models.ID, error)
	// ResolveDataProxy maps a data-proxy subject to a proxy principal user id.
	ResolveDataProxy(ctx context.Context, subject string) (models.ID, error)
	// LoadToken loads a named token's scope and creator.
	LoadToken(ctx context.Context, tokenID string) (*models.Token, error)
	// EffectivePermissions returns a user's resolved permission map.
	EffectivePermissions(ctx context.Context, user models.ID) (map[models.ID]models.PermissionLevel, error)
}

// IssuerStore looks up an Issuer by name, used to find the decoding
// key for a given (issuer, kid) pair.
type IssuerStore interface {
	Get(ctx context.Context, issuer string) (*models.Issuer, error)
}

// Identity is the resolved caller context returned by Validate.
type Identity struct {
	UserID      models.ID
	TokenID     string
	Permissions map[models.ID]models.PermissionLevel // nil means unrestricted
}

// Handler validates bearer tokens per §4.4.
type Handler struct {
	issuers  IssuerStore
	resolver UserResolver
	jwks     *jwksCache

	mu sync.Mutex
}

// NewHandler builds a Handler.
func NewHandler(issuers IssuerStore, resolver UserResolver) *Handler {
	return &Handler{
		issuers:  issuers,
		resolver: resolver,
		jwks:     newJWKSCache(5 * time.Minute),
	}
}

// Validate runs the full §4.4 validation pipeline over a raw bearer token.
func (h *Handler) Validate(ctx context.Context, raw string) (*Identity, error) {
	unverified, _, err := jwt.NewParser().ParseUnverified(raw, &Claims{})
	if err != nil {
		return nil, merrors.New(merrors.KindValidation, "parse token header", err)
	}
	claims, ok := unverified.Claims.(*Claims)
	if !ok {
		return nil, merrors.New(merrors.KindValidation, "unexpected claims type")
	}
	issuerName := claims.Issuer
	kid, _ := unverified.Header["kid"].(string)

	issuer, err := h.issuers.Get(ctx, issuerName)
	if err != nil {
		return nil, merrors.New(merrors.KindNotFound, "unknown issuer %s", issuerName, err)
	}

	key, err := h.resolveKey(ctx, issuer, kid, unverified)
	if err != nil {
		return nil, err
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithAudience(issuer.Audiences...), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, merrors.New(merrors.KindUnauthorized, "signature or claim verification failed", err)
	}
	verifiedClaims := parsed.Claims.(*Claims)

	userID, err := h.resolveSubject(ctx, issuer, verifiedClaims.Subject)
	if err != nil {
		return nil, err
	}

	identity := &Identity{UserID: userID, TokenID: verifiedClaims.TokenID}

	if verifiedClaims.TokenID != "" {
		tok, err := h.resolver.LoadToken(ctx, verifiedClaims.TokenID)
		if err != nil {
			return nil, merrors.New(merrors.KindNotFound, "token %s not found", verifiedClaims.TokenID, err)
		}
		if time.Now().After(tok.ExpiresAt) {
			return nil, merrors.New(merrors.KindUnauthorized, "token %s expired", verifiedClaims.TokenID)
		}
		creatorPerms, err := h.resolver.EffectivePermissions(ctx, tok.CreatedBy)
		if err != nil {
			return nil, err
		}
		identity.Permissions = IntersectScope(tok.Scope, creatorPerms)
	}

	return identity, nil
}

func (h *Handler) resolveSubject(ctx context.Context, issuer *models.Issuer, subject string) (models.ID, error) {
	switch issuer.Variant {
	case models.IssuerInternal:
		return h.resolver.ResolveInternal(ctx, subject)
	case models.IssuerDataProxy:
		return h.resolver.ResolveDataProxy(ctx, subject)
	case models.IssuerOIDC:
		return h.resolver.ResolveOIDC(ctx, issuer.Name, subject)
	default:
		return models.ID{}, merrors.New(merrors.KindInternal, "unknown issuer variant")
	}
}

func (h *Handler) resolveKey(ctx context.Context, issuer *models.Issuer, kid string, unverified *jwt.Token) (any, error) {
	for _, k := range issuer.Keys {
		if k.KeyID == kid {
			return parsePublicKey(k.PublicKey)
		}
	}
	if issuer.Variant != models.IssuerOIDC {
		return nil, merrors.New(merrors.KindNotFound, "kid %s not found for issuer %s", kid, issuer.Name)
	}
	// Missing kid on an OIDC issuer: refresh JWKS, subject to the
	// 5-minute cooldown, and retry exactly once (§4.4 "retry once").
	if _, err := h.jwks.Refresh(ctx, issuer); err != nil {
		return nil, merrors.New(merrors.KindUnavailable, "jwks refresh for %s", issuer.Name, err)
	}
	if kf, ok := h.jwks.Keyfunc(issuer.Name); ok {
		if key, err := kf.Keyfunc(unverified); err == nil {
			return key, nil
		}
	}
	return nil, merrors.New(merrors.KindNotFound, "kid %s still not found for issuer %s after refresh", kid, issuer.Name)
}

// IntersectScope computes the pointwise minimum of a token's declared
// scope and its creator's resolved permissions (invariant 7). A nil
// scope means the token is unrestricted and inherits the creator's
// permissions as-is.
func IntersectScope(scope, creator map[models.ID]models.PermissionLevel) map[models.ID]models.PermissionLevel {
	if scope == nil {
		return creator
	}
	out := make(map[models.ID]models.PermissionLevel, len(scope))
	for id, lvl := range scope {
		creatorLvl, ok := creator[id]
		if !ok {
			continue
		}
		if creatorLvl < lvl {
			out[id] = creatorLvl
		} else {
			out[id] = lvl
		}
	}
	return out
}

// RotateKey appends a new signing key with a fresh serial; old keys
// remain in Issuer.Keys and continue to validate (§3.3, §4.4).
func RotateKey(issuer *models.Issuer, kid string, pub, priv []byte) {
	issuer.Keys = append(issuer.Keys, models.SigningKey{KeyID: kid, PublicKey: pub, PrivateKey: priv})
}
