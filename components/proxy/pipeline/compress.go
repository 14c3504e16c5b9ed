package pipeline

import (
	"context"
	"io"

	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ZstdEncoder compresses the stream with zstd at the default level.
type ZstdEncoder struct{}

func (t *ZstdEncoder) Process(ctx context.Context, in <-chan []byte, out chan<- []byte, ctrl <-chan Message, ctrlOut chan<- Message) error {
	return copyPassthrough(ctx, in, out, ctrl, ctrlOut, func(r io.Reader, w io.Writer) error {
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if _, err := io.Copy(enc, r); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	})
}

// ZstdDecoder reverses ZstdEncoder. A malformed frame terminates the
// pipeline with a validation error rather than silently truncating.
type ZstdDecoder struct{}

func (t *ZstdDecoder) Process(ctx context.Context, in <-chan []byte, out chan<- []byte, ctrl <-chan Message, ctrlOut chan<- Message) error {
	return copyPassthrough(ctx, in, out, ctrl, ctrlOut, func(r io.Reader, w io.Writer) error {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return merrors.New(merrors.KindValidation, "open zstd stream", err)
		}
		defer dec.Close()
		if _, err := io.Copy(w, dec); err != nil {
			return merrors.New(merrors.KindValidation, "decode zstd stream", err)
		}
		return nil
	})
}

// GzipEncoder compresses the stream with gzip, used for egress to
// clients that request Content-Encoding negotiation outside of the
// internal zstd-at-rest format.
type GzipEncoder struct{}

func (t *GzipEncoder) Process(ctx context.Context, in <-chan []byte, out chan<- []byte, ctrl <-chan Message, ctrlOut chan<- Message) error {
	return copyPassthrough(ctx, in, out, ctrl, ctrlOut, func(r io.Reader, w io.Writer) error {
		gw := gzip.NewWriter(w)
		if _, err := io.Copy(gw, r); err != nil {
			gw.Close()
			return err
		}
		return gw.Close()
	})
}
