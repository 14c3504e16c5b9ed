package token

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
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRSAJWKS(t *testing.T, kid string) (*rsa.PrivateKey, *httptest.Server) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwk := map[string]any{
		"kty": "RSA",
		"kid": kid,
		"use": "sig",
		"alg": "RS256",
		"n":   base64.RawURLEncoding.EncodeToString(priv.PublicKey.N.Bytes()),
		"e":   "AQAB",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]any{jwk}})
	}))
	return priv, srv
}

func TestJWKSCacheRefreshPopulatesKeyfunc(t *testing.T) {
	priv, srv := newTestRSAJWKS(t, "rot-1")
	defer srv.Close()

	issuer := &models.Issuer{Name: "oidc", Variant: models.IssuerOIDC, RefreshEndpoint: srv.URL}
	cache := newJWKSCache(time.Minute)

	_, err := cache.Refresh(context.Background(), issuer)
	require.NoError(t, err)

	kf, ok := cache.Keyfunc(issuer.Name)
	require.True(t, ok)

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{})
	tok.Header["kid"] = "rot-1"
	key, err := kf.Keyfunc(tok)
	require.NoError(t, err)
	assert.Equal(t, priv.PublicKey.N, key.(*rsa.PublicKey).N)
}

func TestJWKSCacheRefreshRespectsCooldown(t *testing.T) {
	_, srv := newTestRSAJWKS(t, "rot-1")
	defer srv.Close()

	issuer := &models.Issuer{Name: "oidc", Variant: models.IssuerOIDC, RefreshEndpoint: srv.URL}
	cache := newJWKSCache(time.Hour)

	_, err := cache.Refresh(context.Background(), issuer)
	require.NoError(t, err)

	_, err = cache.Refresh(context.Background(), issuer)
	assert.Error(t, err)
}

func TestJWKSCacheRefreshNoEndpoint(t *testing.T) {
	issuer := &models.Issuer{Name: "oidc", Variant: models.IssuerOIDC}
	cache := newJWKSCache(time.Minute)

	_, err := cache.Refresh(context.Background(), issuer)
	assert.Error(t, err)
}
