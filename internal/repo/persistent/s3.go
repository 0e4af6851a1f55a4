package persistent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/andreyxaxa/Image-Vectorizer/pkg/s3client"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// BlobS3Repo keeps original rasters and vector documents in one bucket.
type BlobS3Repo struct {
	*s3client.S3Client
	bucket  string
	baseURL string
}

// NewBlobS3Repo binds the repo to bucket. Object URLs are built from publicURL, or from the
// client endpoint when publicURL is empty.
func NewBlobS3Repo(s3c *s3client.S3Client, bucket, publicURL string) *BlobS3Repo {
	base := publicURL
	if base == "" {
		base = s3c.Endpoint() + "/" + bucket
	}

	return &BlobS3Repo{
		S3Client: s3c,
		bucket:   bucket,
		baseURL:  strings.TrimRight(base, "/"),
	}
}

func (r *BlobS3Repo) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("BlobS3Repo - Put - r.Client.PutObject: %w", err)
	}

	return r.URL(key), nil
}

func (r *BlobS3Repo) Get(ctx context.Context, key string) ([]byte, error) {
	body, err := r.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("BlobS3Repo - Get: %w", err)
	}
	defer body.Close()

	b, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("BlobS3Repo - Get - io.ReadAll: %w", err)
	}

	return b, nil
}

func (r *BlobS3Repo) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := r.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("BlobS3Repo - Download - r.Client.GetObject: %w", err)
	}

	return result.Body, nil
}

func (r *BlobS3Repo) Delete(ctx context.Context, key string) error {
	_, err := r.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("BlobS3Repo - Delete - r.Client.DeleteObject: %w", err)
	}

	return nil
}

func (r *BlobS3Repo) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("BlobS3Repo - Exists - r.Client.HeadObject: %w", err)
	}

	return true, nil
}

func (r *BlobS3Repo) URL(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	return r.baseURL + "/" + strings.Join(segments, "/")
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
