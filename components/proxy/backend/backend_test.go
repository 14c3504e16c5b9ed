package backend_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/ArunaStorage/aruna-sub004/components/proxy/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileTemplateSplitsBucketAndKey(t *testing.T) {
	tmpl, err := backend.CompileTemplate("{ProjectId}-bucket/{DatasetId}/{ObjectId}")
	require.NoError(t, err)

	bucket, key, err := tmpl.Render(backend.LocationRequest{
		ProjectID: "proj1", DatasetID: "ds1", ObjectID: "obj1",
	})
	require.NoError(t, err)
	assert.Equal(t, "proj1-bucket", bucket)
	assert.Equal(t, "ds1/obj1", key)
}

func TestCompileTemplateRandomToken(t *testing.T) {
	tmpl, err := backend.CompileTemplate("bucket/{Random(8)}")
	require.NoError(t, err)

	_, key, err := tmpl.Render(backend.LocationRequest{})
	require.NoError(t, err)
	assert.Len(t, key, 8)
}

func TestFilesystemBackendPutGetRoundTrip(t *testing.T) {
	fs := backend.NewFilesystemBackend(t.TempDir(), nil)
	ctx := context.Background()

	require.NoError(t, fs.CreateBucket(ctx, "bkt"))
	require.NoError(t, fs.PutObject(ctx, "bkt", "k1", bytes.NewReader([]byte("hello world")), 11))

	r, err := fs.GetObject(ctx, "bkt", "k1", nil)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestFilesystemBackendRangeRead(t *testing.T) {
	fs := backend.NewFilesystemBackend(t.TempDir(), nil)
	ctx := context.Background()
	require.NoError(t, fs.CreateBucket(ctx, "bkt"))
	require.NoError(t, fs.PutObject(ctx, "bkt", "k1", bytes.NewReader([]byte("0123456789")), 10))

	r, err := fs.GetObject(ctx, "bkt", "k1", &backend.GetRange{Start: 2, End: 4})
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "234", string(data))
}
