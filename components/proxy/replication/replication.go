// Package replication implements cross-component data replication
// (C12): pulling an object out as a chunked stream and receiving one
// back in, both built on the streaming pipeline (C10).
package replication

import (
	"context"
	"crypto/md5"

	"github.com/cespare/xxhash/v2"

	"github.com/ArunaStorage/aruna-sub004/components/proxy/backend"
	"github.com/ArunaStorage/aruna-sub004/components/proxy/pipeline"
	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
)

// Puller drives an egress pipeline over a stored object, terminating
// in a pipeline.ReplicationSink so the output is already split into
// MD-5-tagged chunks ready to hand to a transport.
type Puller struct {
	Backend backend.Backend
}

// Chunk is one replicated unit: its index, payload, and expected MD-5.
// XXHash is a cheap pre-check computed alongside the MD-5 so a
// receiver can reject an obviously corrupt chunk without paying for a
// full MD-5 recompute first.
type Chunk struct {
	Index  int
	Data   []byte
	Digest [16]byte
	XXHash uint64
}

// Pull reads bucket/key from the backend and returns its content split
// into replication chunks, in order.
func (p *Puller) Pull(ctx context.Context, bucket, key string) ([]Chunk, error) {
	r, err := p.Backend.GetObject(ctx, bucket, key, nil)
	if err != nil {
		return nil, merrors.Wrap(merrors.KindUnavailable, err)
	}
	defer r.Close()

	src := make(chan []byte, pipeline.ChannelDepth)
	srcCtrl := make(chan pipeline.Message)
	close(srcCtrl)

	go func() {
		defer close(src)
		buf := make([]byte, backend.DefaultChunkSize)
		for {
			n, readErr := r.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case <-ctx.Done():
					return
				case src <- chunk:
				}
			}
			if readErr != nil {
				return
			}
		}
	}()

	sink := &pipeline.ReplicationSink{}
	out := make(chan []byte, pipeline.ChannelDepth)
	ctrlOut := make(chan pipeline.Message, pipeline.ChannelDepth)

	errCh := make(chan error, 1)
	go func() { errCh <- sink.Process(ctx, src, out, srcCtrl, ctrlOut) }()

	var payloads [][]byte
	payloadsDone := make(chan struct{})
	go func() {
		defer close(payloadsDone)
		for data := range out {
			payloads = append(payloads, data)
		}
	}()

	var chunks []Chunk
	for m := range ctrlOut {
		if m.Kind != pipeline.MsgCompleted {
			continue
		}
		var digest [16]byte
		copy(digest[:], m.Digest)
		chunks = append(chunks, Chunk{Index: int(m.Size), Digest: digest})
	}
	<-payloadsDone

	if err := <-errCh; err != nil {
		return nil, merrors.New(merrors.KindInternal, "replication pull pipeline failed", err)
	}

	for i := range chunks {
		if chunks[i].Index < len(payloads) {
			data := payloads[chunks[i].Index]
			chunks[i].Data = data
			chunks[i].XXHash = xxhash.Sum64(data)
		}
	}
	return chunks, nil
}

// Retransmit re-pulls bucket/key and returns the payload of chunk idx,
// implementing Retransmitter for the receiving side's single-retry
// path. A networked deployment would ask the remote component for just
// the one chunk instead of re-pulling the whole object.
func (p *Puller) Retransmit(ctx context.Context, bucket, key string, idx int) ([]byte, error) {
	chunks, err := p.Pull(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	for _, c := range chunks {
		if c.Index == idx {
			return c.Data, nil
		}
	}
	return nil, merrors.New(merrors.KindNotFound, "chunk %d not found in %s/%s", idx, bucket, key)
}

// verifyChunk checks a received chunk's payload against its expected
// xxhash (cheap pre-check) and its MD-5 (the integrity check named in
// §4.10); a chunk must pass both before it is accepted.
func verifyChunk(data []byte, want [16]byte, wantXXHash uint64) bool {
	if xxhash.Sum64(data) != wantXXHash {
		return false
	}
	return md5.Sum(data) == want
}
