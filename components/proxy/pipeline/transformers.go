package pipeline

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"hash"
	"io"

	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
)

// HashAlgo names the digest HashingTransformer computes.
type HashAlgo int

const (
	HashSHA256 HashAlgo = iota
	HashMD5
)

// HashingTransformer computes a running digest over the stream,
// passing bytes through unchanged and emitting the final digest on
// MsgCompleted (§4.8).
type HashingTransformer struct {
	Algo HashAlgo
}

func (t *HashingTransformer) newHash() hash.Hash {
	if t.Algo == HashMD5 {
		return md5.New()
	}
	return sha256.New()
}

func (t *HashingTransformer) Process(ctx context.Context, in <-chan []byte, out chan<- []byte, ctrl <-chan Message, ctrlOut chan<- Message) error {
	defer close(out)
	defer close(ctrlOut)
	h := t.newHash()

	ctrlDone := make(chan struct{})
	go func() { drainCtrl(ctrl, ctrlOut); close(ctrlDone) }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-in:
			if !ok {
				<-ctrlDone
				ctrlOut <- Message{Kind: MsgCompleted, Digest: h.Sum(nil)}
				return nil
			}
			h.Write(chunk)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- chunk:
			}
		}
	}
}

// SizeProbe counts bytes passed through and emits the total on
// MsgCompleted.
type SizeProbe struct{}

func (t *SizeProbe) Process(ctx context.Context, in <-chan []byte, out chan<- []byte, ctrl <-chan Message, ctrlOut chan<- Message) error {
	defer close(out)
	defer close(ctrlOut)
	var total int64

	ctrlDone := make(chan struct{})
	go func() { drainCtrl(ctrl, ctrlOut); close(ctrlDone) }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-in:
			if !ok {
				<-ctrlDone
				ctrlOut <- Message{Kind: MsgCompleted, Size: total}
				return nil
			}
			total += int64(len(chunk))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- chunk:
			}
		}
	}
}

// copyPassthrough runs fn(reader) -> writer while relaying control
// messages unmodified; used by the codec transformers below, which
// all share the same "wrap reader, drain writer into channel" shape.
func copyPassthrough(ctx context.Context, in <-chan []byte, out chan<- []byte, ctrl <-chan Message, ctrlOut chan<- Message, run func(r io.Reader, w io.Writer) error) error {
	defer close(out)
	defer close(ctrlOut)

	ctrlDone := make(chan struct{})
	go func() { drainCtrl(ctrl, ctrlOut); close(ctrlDone) }()

	r := &chanReader{ctx: ctx, in: in}
	w := &chanWriter{ctx: ctx, out: out}

	err := run(r, w)
	<-ctrlDone
	if err != nil {
		if merrors.KindOf(err) != merrors.KindInternal {
			return err
		}
		return merrors.New(merrors.KindInternal, "pipeline stage failed", err)
	}
	return nil
}
