package pipeline

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"

	"github.com/ArunaStorage/aruna-sub004/components/proxy/backend"
	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
)

// bufferedSinkThreshold is the buffering threshold at which
// BufferedBackendSink switches from a single PutObject to a multipart
// upload (§4.8): 5 MiB, matching the common S3 minimum part size.
const bufferedSinkThreshold = 5 << 20

// BufferedBackendSink terminates a pipeline by writing the incoming
// stream to a backend object. Streams shorter than the threshold are
// written with one PutObject; once the buffer reaches the threshold the
// stream is promoted to a multipart upload, part by part, as each
// buffer fills.
type BufferedBackendSink struct {
	Backend    backend.Backend
	Bucket     string
	Key        string
}

func (s *BufferedBackendSink) Process(ctx context.Context, in <-chan []byte, out chan<- []byte, ctrl <-chan Message, ctrlOut chan<- Message) error {
	defer close(out)
	defer close(ctrlOut)

	ctrlDone := make(chan struct{})
	go func() { drainCtrl(ctrl, ctrlOut); close(ctrlDone) }()

	var (
		buf        bytes.Buffer
		total      int64
		uploadID   string
		partNumber int
		parts      []backend.CompletedPart
	)

	flushPart := func() error {
		if buf.Len() == 0 {
			return nil
		}
		if uploadID == "" {
			id, err := s.Backend.InitMultipart(ctx, s.Bucket, s.Key)
			if err != nil {
				return merrors.Wrap(merrors.KindUnavailable, err)
			}
			uploadID = id
		}
		partNumber++
		etag, err := s.Backend.UploadPart(ctx, s.Bucket, s.Key, uploadID, partNumber, bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		if err != nil {
			return merrors.Wrap(merrors.KindUnavailable, err)
		}
		parts = append(parts, backend.CompletedPart{PartNumber: partNumber, ETag: etag})
		buf.Reset()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			<-ctrlDone
			return ctx.Err()
		case chunk, ok := <-in:
			if !ok {
				<-ctrlDone
				if uploadID == "" {
					if err := s.Backend.PutObject(ctx, s.Bucket, s.Key, bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
						return merrors.Wrap(merrors.KindUnavailable, err)
					}
				} else {
					if err := flushPart(); err != nil {
						return err
					}
					if err := s.Backend.FinishMultipart(ctx, s.Bucket, s.Key, uploadID, parts); err != nil {
						return merrors.Wrap(merrors.KindUnavailable, err)
					}
				}
				ctrlOut <- Message{Kind: MsgCompleted, Size: total}
				return nil
			}
			total += int64(len(chunk))
			buf.Write(chunk)
			if buf.Len() >= bufferedSinkThreshold {
				if err := flushPart(); err != nil {
					return err
				}
			}
		}
	}
}

// replicationChunkSize is the ciphertext framing size (§4.8).
// ReplicationSink does not split on it: chunk boundaries are those of
// the inbound stream.
const replicationChunkSize = chachaCiphertextBlock

// ReplicationSink treats each inbound chunk as one replication chunk
// (it does not re-split or re-size the stream), forwards each chunk
// downstream unchanged, and reports its MD-5 over
// ctrlOut so a receiver can verify integrity per chunk. If a
// retransmit request (MsgFinished with Size set to the failed chunk's
// index) arrives for a chunk already retransmitted once, the transfer
// aborts rather than retrying indefinitely.
type ReplicationSink struct{}

func (s *ReplicationSink) Process(ctx context.Context, in <-chan []byte, out chan<- []byte, ctrl <-chan Message, ctrlOut chan<- Message) error {
	defer close(out)
	defer close(ctrlOut)

	var (
		history     [][]byte
		retransmits = map[int]bool{}
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ctrl:
			if !ok {
				ctrl = nil
				continue
			}
			if msg.Kind != MsgFinished {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case ctrlOut <- msg:
				}
				continue
			}
			idx := int(msg.Size)
			if idx < 0 || idx >= len(history) {
				return merrors.New(merrors.KindValidation, fmt.Sprintf("retransmit request for unknown chunk %d", idx))
			}
			if retransmits[idx] {
				return merrors.New(merrors.KindUnavailable, fmt.Sprintf("chunk %d failed after retransmit", idx))
			}
			retransmits[idx] = true
			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- history[idx]:
			}
		case chunk, ok := <-in:
			if !ok {
				return nil
			}
			sum := md5.Sum(chunk)
			idx := len(history)
			history = append(history, chunk)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- chunk:
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ctrlOut <- Message{Kind: MsgCompleted, Digest: sum[:], Size: int64(idx)}:
			}
		}
	}
}
