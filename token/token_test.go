package token_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ArunaStorage/aruna-sub004/pkg/models"
	"github.com/ArunaStorage/aruna-sub004/pkg/ulid"
	"github.com/ArunaStorage/aruna-sub004/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIssuerStore struct {
	issuer *models.Issuer
}

func (s *stubIssuerStore) Get(ctx context.Context, name string) (*models.Issuer, error) {
	return s.issuer, nil
}

type stubUserResolver struct {
	userID models.ID
}

func (s *stubUserResolver) ResolveInternal(ctx context.Context, subject string) (models.ID, error) {
	return s.userID, nil
}

func (s *stubUserResolver) ResolveOIDC(ctx context.Context, issuer, subject string) (models.ID, error) {
	return s.userID, nil
}

func (s *stubUserResolver) ResolveDataProxy(ctx context.Context, subject string) (models.ID, error) {
	return s.userID, nil
}

func (s *stubUserResolver) LoadToken(ctx context.Context, tokenID string) (*models.Token, error) {
	return nil, nil
}

func (s *stubUserResolver) EffectivePermissions(ctx context.Context, user models.ID) (map[models.ID]models.PermissionLevel, error) {
	return nil, nil
}

func TestIntersectScopeTakesPointwiseMinimum(t *testing.T) {
	resource := ulid.New()
	scope := map[models.ID]models.PermissionLevel{resource: models.PermissionAdmin}
	creator := map[models.ID]models.PermissionLevel{resource: models.PermissionRead}

	effective := token.IntersectScope(scope, creator)
	assert.Equal(t, models.PermissionRead, effective[resource])
}

func TestIntersectScopeNilScopeInheritsCreator(t *testing.T) {
	resource := ulid.New()
	creator := map[models.ID]models.PermissionLevel{resource: models.PermissionWrite}

	effective := token.IntersectScope(nil, creator)
	assert.Equal(t, models.PermissionWrite, effective[resource])
}

func TestIntersectScopeDropsResourceCreatorCannotAccess(t *testing.T) {
	resource := ulid.New()
	scope := map[models.ID]models.PermissionLevel{resource: models.PermissionRead}

	effective := token.IntersectScope(scope, map[models.ID]models.PermissionLevel{})
	_, ok := effective[resource]
	assert.False(t, ok)
}

func TestRotateKeyAppendsWithoutRemovingOld(t *testing.T) {
	issuer := &models.Issuer{Name: "internal", Keys: []models.SigningKey{{KeyID: "k1"}}}
	token.RotateKey(issuer, "k2", []byte("pub"), []byte("priv"))

	assert.Len(t, issuer.Keys, 2)
	assert.Equal(t, "k1", issuer.Keys[0].KeyID)
	assert.Equal(t, "k2", issuer.Keys[1].KeyID)
}

// TestValidateResolvesRotatedKeyFromJWKS covers §4.4's "refresh once on
// missing kid" path: a token signed with a kid the issuer has never seen
// statically must still validate once the JWKS endpoint is fetched.
func TestValidateResolvesRotatedKeyFromJWKS(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwk := map[string]any{
		"kty": "RSA",
		"kid": "rotated-kid",
		"use": "sig",
		"alg": "RS256",
		"n":   base64.RawURLEncoding.EncodeToString(priv.PublicKey.N.Bytes()),
		"e":   "AQAB",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]any{jwk}})
	}))
	defer srv.Close()

	issuer := &models.Issuer{
		Name:            "oidc-issuer",
		Variant:         models.IssuerOIDC,
		Audiences:       []string{"aruna"},
		RefreshEndpoint: srv.URL,
	}

	claims := &token.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer.Name,
			Subject:   "alice",
			Audience:  jwt.ClaimStrings{"aruna"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	jwtTok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	jwtTok.Header["kid"] = "rotated-kid"
	raw, err := jwtTok.SignedString(priv)
	require.NoError(t, err)

	userID := ulid.New()
	h := token.NewHandler(&stubIssuerStore{issuer: issuer}, &stubUserResolver{userID: userID})

	identity, err := h.Validate(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
}
