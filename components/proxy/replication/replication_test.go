package replication_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/ArunaStorage/aruna-sub004/components/proxy/backend"
	"github.com/ArunaStorage/aruna-sub004/components/proxy/replication"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPullThenReceiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := backend.NewFilesystemBackend(t.TempDir(), nil)
	require.NoError(t, fs.CreateBucket(ctx, "src"))
	require.NoError(t, fs.CreateBucket(ctx, "dst"))

	payload := bytes.Repeat([]byte("replicate-me "), 10000)
	require.NoError(t, fs.PutObject(ctx, "src", "obj", bytes.NewReader(payload), int64(len(payload))))

	puller := &replication.Puller{Backend: fs}
	chunks, err := puller.Pull(ctx, "src", "obj")
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)

	receiver := &replication.Receiver{Backend: fs}
	require.NoError(t, receiver.Receive(ctx, "dst", "obj", chunks))

	r, err := fs.GetObject(ctx, "dst", "obj", nil)
	require.NoError(t, err)
	defer r.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	assert.Equal(t, payload, buf.Bytes())
}

func corrupt(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	out[0] ^= 0xFF
	return out
}

func TestReceiveRetransmitsOnceThenSucceeds(t *testing.T) {
	ctx := context.Background()
	fs := backend.NewFilesystemBackend(t.TempDir(), nil)
	require.NoError(t, fs.CreateBucket(ctx, "src"))
	require.NoError(t, fs.CreateBucket(ctx, "dst"))

	payload := bytes.Repeat([]byte("replicate-me "), 10000)
	require.NoError(t, fs.PutObject(ctx, "src", "obj", bytes.NewReader(payload), int64(len(payload))))

	puller := &replication.Puller{Backend: fs}
	chunks, err := puller.Pull(ctx, "src", "obj")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	chunks[0].Data = corrupt(chunks[0].Data)

	receiver := &replication.Receiver{Backend: fs, Retransmit: puller}
	require.NoError(t, receiver.Receive(ctx, "dst", "obj", chunks))

	r, err := fs.GetObject(ctx, "dst", "obj", nil)
	require.NoError(t, err)
	defer r.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	assert.Equal(t, payload, buf.Bytes())
}

type corruptingRetransmitter struct{}

func (corruptingRetransmitter) Retransmit(_ context.Context, _, _ string, _ int) ([]byte, error) {
	return []byte("still corrupt"), nil
}

func TestReceiveAbortsAfterSecondVerificationFailure(t *testing.T) {
	ctx := context.Background()
	fs := backend.NewFilesystemBackend(t.TempDir(), nil)
	require.NoError(t, fs.CreateBucket(ctx, "src"))
	require.NoError(t, fs.CreateBucket(ctx, "dst"))

	payload := bytes.Repeat([]byte("replicate-me "), 10000)
	require.NoError(t, fs.PutObject(ctx, "src", "obj", bytes.NewReader(payload), int64(len(payload))))

	puller := &replication.Puller{Backend: fs}
	chunks, err := puller.Pull(ctx, "src", "obj")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	chunks[0].Data = corrupt(chunks[0].Data)

	receiver := &replication.Receiver{Backend: fs, Retransmit: corruptingRetransmitter{}}
	err = receiver.Receive(ctx, "dst", "obj", chunks)
	require.Error(t, err)
}
