package backend

import (
	"context"
	"fmt"
	"io"

	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Backend implements Backend over aws-sdk-go-v2. The *s3.Client (and
// its underlying *http.Client) is constructed once by the caller and
// shared across every request, per §5's "a fresh one is not
// constructed per request in the hot path".
type S3Backend struct {
	client   *s3.Client
	uploader *manager.Uploader
	template *Template
}

var _ Backend = (*S3Backend)(nil)

// NewS3Backend wraps client with the given location template.
func NewS3Backend(client *s3.Client, template *Template) *S3Backend {
	return &S3Backend{
		client:   client,
		uploader: manager.NewUploader(client),
		template: template,
	}
}

func (b *S3Backend) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64) error {
	_, err := b.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return merrors.New(merrors.KindUnavailable, "s3 put object %s/%s", bucket, key, err)
	}
	return nil
}

func (b *S3Backend) GetObject(ctx context.Context, bucket, key string, rng *GetRange) (io.ReadCloser, error) {
	input := &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)}
	if rng != nil {
		if rng.End >= 0 {
			input.Range = aws.String(fmt.Sprintf("bytes=%d-%d", rng.Start, rng.End))
		} else {
			input.Range = aws.String(fmt.Sprintf("bytes=%d-", rng.Start))
		}
	}
	out, err := b.client.GetObject(ctx, input)
	if err != nil {
		return nil, merrors.New(merrors.KindUnavailable, "s3 get object %s/%s", bucket, key, err)
	}
	return out.Body, nil
}

func (b *S3Backend) HeadObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return ObjectInfo{}, merrors.New(merrors.KindNotFound, "s3 head object %s/%s", bucket, key, err)
	}
	info := ObjectInfo{}
	if out.ContentLength != nil {
		info.Size = *out.ContentLength
	}
	if out.ETag != nil {
		info.ETag = *out.ETag
	}
	return info, nil
}

func (b *S3Backend) InitMultipart(ctx context.Context, bucket, key string) (string, error) {
	out, err := b.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(bucket), Key: aws.String(key),
	})
	if err != nil {
		return "", merrors.New(merrors.KindUnavailable, "init multipart %s/%s", bucket, key, err)
	}
	return aws.ToString(out.UploadId), nil
}

func (b *S3Backend) UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int, r io.Reader, size int64) (string, error) {
	out, err := b.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String(bucket),
		Key:        aws.String(key),
		UploadId:   aws.String(uploadID),
		PartNumber: aws.Int32(int32(partNumber)),
		Body:       r,
	})
	if err != nil {
		return "", merrors.New(merrors.KindUnavailable, "upload part %d for %s/%s", partNumber, bucket, key, err)
	}
	return aws.ToString(out.ETag), nil
}

func (b *S3Backend) FinishMultipart(ctx context.Context, bucket, key, uploadID string, parts []CompletedPart) error {
	completed := make([]types.CompletedPart, len(parts))
	for i, p := range parts {
		completed[i] = types.CompletedPart{PartNumber: aws.Int32(int32(p.PartNumber)), ETag: aws.String(p.ETag)}
	}
	_, err := b.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return merrors.New(merrors.KindUnavailable, "finish multipart %s/%s", bucket, key, err)
	}
	return nil
}

func (b *S3Backend) CreateBucket(ctx context.Context, bucket string) error {
	_, err := b.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		return merrors.New(merrors.KindUnavailable, "create bucket %s", bucket, err)
	}
	return nil
}

func (b *S3Backend) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return merrors.New(merrors.KindUnavailable, "delete object %s/%s", bucket, key, err)
	}
	return nil
}

func (b *S3Backend) InitializeLocation(ctx context.Context, req LocationRequest) (string, string, error) {
	if req.Temp {
		bucket := TempBucket(req.EndpointID)
		key, err := randomAlphanumeric(32)
		if err != nil {
			return "", "", err
		}
		return bucket, key, nil
	}
	return b.template.Render(req)
}
