package replication

import (
	"context"

	"github.com/ArunaStorage/aruna-sub004/components/proxy/backend"
	"github.com/ArunaStorage/aruna-sub004/components/proxy/pipeline"
	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
)

// chunkTracker enforces the single-retry-then-abort rule (§4.10,
// Open Question 3: a chunk that fails again aborts this object, not
// the whole session): each chunk index may be retransmitted at most once.
type chunkTracker struct {
	retried map[int]bool
}

func newChunkTracker() *chunkTracker {
	return &chunkTracker{retried: map[int]bool{}}
}

// accept records a verification failure for idx and reports whether
// this object transfer must now abort.
func (c *chunkTracker) accept(idx int) (abort bool) {
	if c.retried[idx] {
		return true
	}
	c.retried[idx] = true
	return false
}

// Retransmitter re-requests a single chunk of a previously pulled
// object, the receiving side of §4.10's (chunk_idx, object_id)
// retransmission message. *Puller implements this by re-pulling the
// object and returning the chunk at idx.
type Retransmitter interface {
	Retransmit(ctx context.Context, bucket, key string, idx int) ([]byte, error)
}

// Receiver reassembles an object from replicated chunks, verifying
// each against its MD-5 before feeding the ingest pipeline that writes
// it to the backend. A chunk that fails verification is retransmitted
// once via Retransmit; a second failure for the same chunk aborts the
// whole transfer (§4.10).
type Receiver struct {
	Backend    backend.Backend
	Retransmit Retransmitter // nil disables retry: any verification failure aborts immediately
}

// Receive writes chunks, in order, to bucket/key, aborting the whole
// object on a second verification failure for the same chunk.
func (r *Receiver) Receive(ctx context.Context, bucket, key string, chunks []Chunk) error {
	tracker := newChunkTracker()

	src := make(chan []byte, pipeline.ChannelDepth)
	srcCtrl := make(chan pipeline.Message)
	close(srcCtrl)

	feedErr := make(chan error, 1)
	go func() {
		defer close(src)
		for _, c := range chunks {
			data := c.Data
			if !verifyChunk(data, c.Digest, c.XXHash) {
				resent, err := r.retransmit(ctx, bucket, key, c, tracker)
				if err != nil {
					feedErr <- err
					return
				}
				data = resent
			}
			select {
			case <-ctx.Done():
				feedErr <- ctx.Err()
				return
			case src <- data:
			}
		}
		feedErr <- nil
	}()

	sink := &pipeline.BufferedBackendSink{Backend: r.Backend, Bucket: bucket, Key: key}
	p := pipeline.New(sink)
	_, runErr := p.Run(ctx, src, srcCtrl)

	if err := <-feedErr; err != nil {
		return err
	}
	if runErr != nil {
		return merrors.New(merrors.KindInternal, "replication receive pipeline failed", runErr)
	}
	return nil
}

// retransmit handles one chunk's verification failure: the first
// failure for a given index is retried once via r.Retransmit; a second
// failure, a retransmit error, or no Retransmitter configured all abort.
func (r *Receiver) retransmit(ctx context.Context, bucket, key string, c Chunk, tracker *chunkTracker) ([]byte, error) {
	if tracker.accept(c.Index) {
		return nil, merrors.New(merrors.KindValidation, "chunk %d of %s/%s failed verification twice, aborting", c.Index, bucket, key)
	}
	if r.Retransmit == nil {
		return nil, merrors.New(merrors.KindUnavailable, "chunk %d of %s/%s failed verification and no retransmitter is configured", c.Index, bucket, key)
	}
	resent, err := r.Retransmit(ctx, bucket, key, c.Index)
	if err != nil {
		return nil, merrors.Wrap(merrors.KindUnavailable, err)
	}
	if !verifyChunk(resent, c.Digest, c.XXHash) {
		return nil, merrors.New(merrors.KindValidation, "chunk %d of %s/%s failed verification after retransmit, aborting", c.Index, bucket, key)
	}
	return resent, nil
}
