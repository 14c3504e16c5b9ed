package token

import (
	"context"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"time"

	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	"github.com/ArunaStorage/aruna-sub004/pkg/models"
	"github.com/MicahParks/keyfunc/v3"
)

// jwksCache enforces the 5-minute-per-issuer refresh cooldown
// described in §4.4, de-duplicating concurrent refreshes for the same
// issuer behind a single mutex.
type jwksCache struct {
	cooldown time.Duration

	mu       sync.Mutex
	lastFetch map[string]time.Time
	sets     map[string]keyfunc.Keyfunc
}

func newJWKSCache(cooldown time.Duration) *jwksCache {
	return &jwksCache{
		cooldown:  cooldown,
		lastFetch: map[string]time.Time{},
		sets:      map[string]keyfunc.Keyfunc{},
	}
}

// Refresh fetches issuer's JWKS endpoint if the cooldown has elapsed.
// The fetched key set is kept in c.sets, keyed by issuer name; callers
// resolve individual kids against it with Keyfunc, since keyfunc.Keyfunc
// already knows how to match a token's kid against the set it fetched.
func (c *jwksCache) Refresh(ctx context.Context, issuer *models.Issuer) (*models.Issuer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, seen := c.lastFetch[issuer.Name]
	if seen && time.Since(last) < c.cooldown {
		return issuer, merrors.New(merrors.KindUnavailable, "jwks refresh for %s is in cooldown", issuer.Name)
	}

	if issuer.RefreshEndpoint == "" {
		return nil, merrors.New(merrors.KindValidation, "issuer %s has no refresh endpoint", issuer.Name)
	}

	kf, err := keyfunc.NewDefaultCtx(ctx, []string{issuer.RefreshEndpoint})
	if err != nil {
		return nil, merrors.New(merrors.KindUnavailable, "fetch jwks for %s", issuer.Name, err)
	}
	c.sets[issuer.Name] = kf
	c.lastFetch[issuer.Name] = time.Now()

	issuer.LastRefresh = time.Now()
	return issuer, nil
}

// Keyfunc returns the most recently fetched key set for issuer, if any
// has been fetched yet.
func (c *jwksCache) Keyfunc(issuer string) (keyfunc.Keyfunc, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kf, ok := c.sets[issuer]
	return kf, ok
}

// parsePublicKey decodes a PEM-or-raw-DER encoded public key into the
// form expected by jwt.ParseWithClaims's keyfunc callback.
func parsePublicKey(raw []byte) (any, error) {
	block, _ := pem.Decode(raw)
	der := raw
	if block != nil {
		der = block.Bytes
	}
	if len(der) == ed25519.PublicKeySize {
		return ed25519.PublicKey(der), nil
	}
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, merrors.New(merrors.KindValidation, "parse public key", err)
	}
	return pub, nil
}
