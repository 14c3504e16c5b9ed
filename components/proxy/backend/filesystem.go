package backend

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
)

// FilesystemBackend implements Backend directly against local disk.
// No ecosystem library beats direct os/io syscalls for this backend
// (DESIGN.md justifies the stdlib-only choice here).
type FilesystemBackend struct {
	root     string
	template *Template
}

var _ Backend = (*FilesystemBackend)(nil)

// NewFilesystemBackend roots every bucket under root.
func NewFilesystemBackend(root string, template *Template) *FilesystemBackend {
	return &FilesystemBackend{root: root, template: template}
}

func (f *FilesystemBackend) path(bucket, key string) string {
	return filepath.Join(f.root, bucket, key)
}

func (f *FilesystemBackend) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64) error {
	p := f.path(bucket, key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return merrors.New(merrors.KindInternal, "create bucket dir", err)
	}
	file, err := os.Create(p)
	if err != nil {
		return merrors.New(merrors.KindInternal, "create object file", err)
	}
	defer file.Close()
	if _, err := io.Copy(file, r); err != nil {
		return merrors.New(merrors.KindInternal, "write object file", err)
	}
	return nil
}

func (f *FilesystemBackend) GetObject(_ context.Context, bucket, key string, rng *GetRange) (io.ReadCloser, error) {
	file, err := os.Open(f.path(bucket, key))
	if err != nil {
		return nil, merrors.New(merrors.KindNotFound, "object %s/%s not found", bucket, key, err)
	}
	if rng != nil {
		if _, err := file.Seek(rng.Start, io.SeekStart); err != nil {
			file.Close()
			return nil, merrors.New(merrors.KindInternal, "seek object file", err)
		}
		if rng.End >= rng.Start {
			return &limitedReadCloser{r: io.LimitReader(file, rng.End-rng.Start+1), c: file}, nil
		}
	}
	return file, nil
}

type limitedReadCloser struct {
	r io.Reader
	c io.Closer
}

func (l *limitedReadCloser) Read(p []byte) (int, error) { return l.r.Read(p) }
func (l *limitedReadCloser) Close() error                { return l.c.Close() }

func (f *FilesystemBackend) HeadObject(_ context.Context, bucket, key string) (ObjectInfo, error) {
	info, err := os.Stat(f.path(bucket, key))
	if err != nil {
		return ObjectInfo{}, merrors.New(merrors.KindNotFound, "object %s/%s not found", bucket, key, err)
	}
	return ObjectInfo{Size: info.Size(), LastModified: info.ModTime().Unix()}, nil
}

// InitMultipart/UploadPart/FinishMultipart emulate multipart semantics
// with a temp-parts directory, since local disk has no native
// multipart primitive.
func (f *FilesystemBackend) InitMultipart(_ context.Context, bucket, key string) (string, error) {
	uploadID, err := randomAlphanumeric(16)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(f.root, bucket, ".multipart", key, uploadID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", merrors.New(merrors.KindInternal, "create multipart dir", err)
	}
	return uploadID, nil
}

func (f *FilesystemBackend) UploadPart(_ context.Context, bucket, key, uploadID string, partNumber int, r io.Reader, _ int64) (string, error) {
	dir := filepath.Join(f.root, bucket, ".multipart", key, uploadID)
	p := filepath.Join(dir, fmt.Sprintf("%08d", partNumber))
	file, err := os.Create(p)
	if err != nil {
		return "", merrors.New(merrors.KindInternal, "create part file", err)
	}
	defer file.Close()
	if _, err := io.Copy(file, r); err != nil {
		return "", merrors.New(merrors.KindInternal, "write part file", err)
	}
	return fmt.Sprintf("%d", partNumber), nil
}

func (f *FilesystemBackend) FinishMultipart(_ context.Context, bucket, key, uploadID string, parts []CompletedPart) error {
	dir := filepath.Join(f.root, bucket, ".multipart", key, uploadID)
	p := f.path(bucket, key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return merrors.New(merrors.KindInternal, "create bucket dir", err)
	}
	out, err := os.Create(p)
	if err != nil {
		return merrors.New(merrors.KindInternal, "create object file", err)
	}
	defer out.Close()
	for _, part := range parts {
		partPath := filepath.Join(dir, fmt.Sprintf("%08d", part.PartNumber))
		in, err := os.Open(partPath)
		if err != nil {
			return merrors.New(merrors.KindInternal, "open part file", err)
		}
		_, err = io.Copy(out, in)
		in.Close()
		if err != nil {
			return merrors.New(merrors.KindInternal, "assemble multipart object", err)
		}
	}
	return os.RemoveAll(dir)
}

func (f *FilesystemBackend) CreateBucket(_ context.Context, bucket string) error {
	if err := os.MkdirAll(filepath.Join(f.root, bucket), 0o755); err != nil {
		return merrors.New(merrors.KindInternal, "create bucket", err)
	}
	return nil
}

func (f *FilesystemBackend) DeleteObject(_ context.Context, bucket, key string) error {
	if err := os.Remove(f.path(bucket, key)); err != nil {
		return merrors.New(merrors.KindNotFound, "delete object %s/%s", bucket, key, err)
	}
	return nil
}

func (f *FilesystemBackend) InitializeLocation(_ context.Context, req LocationRequest) (string, string, error) {
	if req.Temp {
		bucket := TempBucket(req.EndpointID)
		key, err := randomAlphanumeric(32)
		if err != nil {
			return "", "", err
		}
		return bucket, key, nil
	}
	return f.template.Render(req)
}
