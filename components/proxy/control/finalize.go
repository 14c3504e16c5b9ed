package control

import (
	"context"

	"github.com/ArunaStorage/aruna-sub004/components/proxy/pipeline"
	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	"github.com/ArunaStorage/aruna-sub004/pkg/models"
)

// FinalizeResult is what Finalize reports back to the control plane
// once a presigned upload has been verified and indexed.
type FinalizeResult struct {
	ObjectID models.ID
	Size     int64
	SHA256   []byte
	MD5      []byte
}

// ControlPlaneClient is the external-collaborator boundary a
// Finalizer reports results through; its production implementation is
// a gRPC client to the replicated-metadata control plane, out of scope
// here (§6).
type ControlPlaneClient interface {
	ReportFinalized(ctx context.Context, result FinalizeResult) error
}

// Finalizer runs the read-only verification pipeline over a freshly
// uploaded object: decrypt, decompress, and compute both digests the
// control plane records, without ever re-encoding the object.
type Finalizer struct {
	Client ControlPlaneClient
	Key    [32]byte
}

// Finalize drives ChaCha20Dec -> ZstdDec -> sha256 -> md5 -> SizeProbe
// over src, then reports the result. Reusing the decode side of the
// at-rest pipeline means the finalizer can never disagree with what a
// later Get would actually decode.
func (f *Finalizer) Finalize(ctx context.Context, objectID models.ID, src <-chan []byte, srcCtrl <-chan pipeline.Message) (FinalizeResult, error) {
	sha := &pipeline.HashingTransformer{Algo: pipeline.HashSHA256}
	md5t := &pipeline.HashingTransformer{Algo: pipeline.HashMD5}
	size := &pipeline.SizeProbe{}

	p := pipeline.New(
		&pipeline.ChaChaDecryptor{Key: f.Key},
		&pipeline.ZstdDecoder{},
		sha,
		md5t,
		size,
	)

	msgs, err := p.Run(ctx, src, srcCtrl)
	if err != nil {
		return FinalizeResult{}, merrors.New(merrors.KindValidation, "finalize pipeline failed", err)
	}

	result := FinalizeResult{ObjectID: objectID}
	for _, m := range msgs {
		if m.Kind != pipeline.MsgCompleted {
			continue
		}
		if m.Digest != nil {
			if len(m.Digest) == 32 {
				result.SHA256 = m.Digest
			} else {
				result.MD5 = m.Digest
			}
		}
		if m.Size != 0 {
			result.Size = m.Size
		}
	}

	if f.Client != nil {
		if err := f.Client.ReportFinalized(ctx, result); err != nil {
			return result, merrors.Wrap(merrors.KindUnavailable, err)
		}
	}
	return result, nil
}
