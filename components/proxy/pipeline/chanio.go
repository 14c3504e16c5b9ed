package pipeline

import (
	"context"
	"io"
)

// chanReader adapts an inbound byte-chunk channel to an io.Reader,
// respecting ctx cancellation on each receive.
type chanReader struct {
	ctx context.Context
	in  <-chan []byte
	buf []byte
}

func (r *chanReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		select {
		case <-r.ctx.Done():
			return 0, r.ctx.Err()
		case chunk, ok := <-r.in:
			if !ok {
				return 0, io.EOF
			}
			r.buf = chunk
		}
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// chanWriter adapts an outbound byte-chunk channel to an io.Writer,
// respecting ctx cancellation on each send (back-pressure, §5).
type chanWriter struct {
	ctx context.Context
	out chan<- []byte
}

func (w *chanWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	chunk := make([]byte, len(p))
	copy(chunk, p)
	select {
	case <-w.ctx.Done():
		return 0, w.ctx.Err()
	case w.out <- chunk:
		return len(p), nil
	}
}

// drainCtrl consumes and ignores every pending control message without
// blocking the data path; most transformers only react to specific
// kinds and pass the rest through untouched.
func drainCtrl(ctrl <-chan Message, ctrlOut chan<- Message) {
	for msg := range ctrl {
		ctrlOut <- msg
	}
}
