// Package backend implements the object storage backend (C9): a
// capability set every storage backend exposes, with S3 and
// filesystem implementations and a location-template compiler (§4.7).
package backend

import (
	"context"
	"io"
)

// DefaultChunkSize is the streaming chunk size used when the caller
// doesn't specify one; within the 64 KiB..16 MiB bound required by §4.7.
const DefaultChunkSize = 4 << 20

// ChannelDepth is the bounded-channel depth for streaming get/put,
// matching §5's "bounded channels (default depth 10)".
const ChannelDepth = 10

// GetRange is an optional byte range for Get.
type GetRange struct {
	Start, End int64 // inclusive; End == -1 means "to EOF"
}

// Backend is the C9 capability set.
type Backend interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64) error
	GetObject(ctx context.Context, bucket, key string, rng *GetRange) (io.ReadCloser, error)
	HeadObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
	InitMultipart(ctx context.Context, bucket, key string) (uploadID string, err error)
	UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int, r io.Reader, size int64) (etag string, err error)
	FinishMultipart(ctx context.Context, bucket, key, uploadID string, parts []CompletedPart) error
	CreateBucket(ctx context.Context, bucket string) error
	DeleteObject(ctx context.Context, bucket, key string) error
	// InitializeLocation computes and reserves the canonical (bucket,
	// key) for a new object per Template (§4.7).
	InitializeLocation(ctx context.Context, req LocationRequest) (bucket, key string, err error)
}

// ObjectInfo is the metadata returned by HeadObject.
type ObjectInfo struct {
	Size         int64
	ETag         string
	LastModified int64
}

// CompletedPart identifies one uploaded part for FinishMultipart.
type CompletedPart struct {
	PartNumber int
	ETag       string
}

// LocationRequest carries the placeholder values InitializeLocation
// substitutes into the compiled bucket/key template.
type LocationRequest struct {
	Project      string
	ProjectID    string
	Collection   string
	CollectionID string
	Dataset      string
	DatasetID    string
	Object       string
	ObjectID     string
	PreferredBucket string
	Temp         bool
	EndpointID   string
}
