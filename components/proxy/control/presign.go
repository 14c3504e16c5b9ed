// Package control implements the proxy control-plane glue (C11):
// presigned URL generation, deterministic access-key derivation, and
// the post-upload finalization pipeline.
package control

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base32"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"

	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
)

// DefaultPresignTTL is the default expiry for presigned URLs (§4.9).
const DefaultPresignTTL = 604800 * time.Second

// RegionOne is the fixed SigV4 region name data-proxy backends sign
// under, matching the teacher's single-region deployment convention.
const RegionOne = "RegionOne"

// Presigner builds SigV4 presigned URLs for direct-to-backend upload
// and download, without routing bytes through the proxy's pipeline.
type Presigner struct {
	Signer      *v4.Signer
	Credentials aws.Credentials
}

// NewPresigner builds a Presigner backed by aws-sdk-go-v2's SigV4
// signer, the same dependency C9's S3Backend uses.
func NewPresigner(creds aws.Credentials) *Presigner {
	return &Presigner{Signer: v4.NewSigner(), Credentials: creds}
}

// Sign produces a presigned URL for method against endpoint/bucket/key,
// valid for ttl (DefaultPresignTTL if zero).
func (p *Presigner) Sign(ctx context.Context, method, endpoint, bucket, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	url := endpoint + "/" + bucket + "/" + key
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return "", merrors.New(merrors.KindValidation, "build presign request", err)
	}

	signedURL, _, err := p.Signer.PresignHTTP(ctx, p.Credentials, req, emptyPayloadHash, "s3", RegionOne, time.Now())
	if err != nil {
		return "", merrors.New(merrors.KindInternal, "sign presigned url", err)
	}
	return signedURL, nil
}

// emptyPayloadHash is the SHA-256 hex digest of an empty body, used
// for presigned requests that carry no payload at signing time.
const emptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// DeriveAccessKey deterministically derives an AWS-access-key-shaped
// string from a token id and the proxy's private key, so a caller's
// token alone is enough to reconstruct the credentials a presigned
// request was signed with.
func DeriveAccessKey(tokenID string, proxyPrivateKey []byte) string {
	mac := hmac.New(sha256.New, proxyPrivateKey)
	mac.Write([]byte(tokenID))
	sum := mac.Sum(nil)
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:20])
}
