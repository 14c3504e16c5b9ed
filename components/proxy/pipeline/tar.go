package pipeline

import (
	"archive/tar"
	"context"
	"io"

	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
)

// TarEncoder folds a sequence of files into a single tar stream.
// Unlike the other stages, it drives its control channel and data
// channel together: each file begins with an MsgFileContext carrying
// FileName and Size, followed by exactly Size data bytes before the
// next MsgFileContext (or channel close) is expected.
type TarEncoder struct{}

func (t *TarEncoder) Process(ctx context.Context, in <-chan []byte, out chan<- []byte, ctrl <-chan Message, ctrlOut chan<- Message) error {
	defer close(out)
	defer close(ctrlOut)

	w := &chanWriter{ctx: ctx, out: out}
	tw := tar.NewWriter(w)
	r := &chanReader{ctx: ctx, in: in}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ctrl:
			if !ok {
				return tw.Close()
			}
			if msg.Kind != MsgFileContext {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case ctrlOut <- msg:
				}
				continue
			}
			if err := tw.WriteHeader(&tar.Header{
				Name: msg.FileName,
				Size: msg.Size,
				Mode: 0o644,
			}); err != nil {
				return merrors.New(merrors.KindInternal, "write tar header", err)
			}
			if _, err := io.CopyN(tw, r, msg.Size); err != nil {
				return merrors.New(merrors.KindInternal, "copy tar entry body", err)
			}
		}
	}
}
