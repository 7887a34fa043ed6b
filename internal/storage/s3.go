package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client abstracts the S3 API operations used by [ObjectDownloader].
// The [s3.Client] type satisfies this interface.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ObjectDownloader resolves minio://bucket/key URLs against an
// S3-compatible endpoint (MinIO in the reference deployment) and falls
// back to plain HTTP for http(s) URLs.
type ObjectDownloader struct {
	client   S3Client
	maxBytes int64
	httpDL   *HTTPDownloader
}

// NewObjectDownloader builds a downloader against an S3-compatible
// endpoint with static credentials and path-style addressing (MinIO does
// not serve virtual-host buckets).
func NewObjectDownloader(endpoint, accessKey, secretKey string, maxSizeMB int) *ObjectDownloader {
	client := s3.New(s3.Options{
		BaseEndpoint: aws.String(endpoint),
		Region:       "us-east-1",
		UsePathStyle: true,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: accessKey, SecretAccessKey: secretKey}, nil
		}),
	})
	return newObjectDownloader(client, maxSizeMB)
}

func newObjectDownloader(client S3Client, maxSizeMB int) *ObjectDownloader {
	return &ObjectDownloader{
		client:   client,
		maxBytes: int64(maxSizeMB) * 1024 * 1024,
		httpDL:   NewHTTPDownloader(maxSizeMB),
	}
}

// Download fetches rawURL into dest and returns the size in MB.
func (d *ObjectDownloader) Download(ctx context.Context, rawURL, dest string) (float64, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("parse url %s: %w", rawURL, err)
	}

	switch u.Scheme {
	case "minio":
		return d.downloadObject(ctx, u, dest)
	case "http", "https":
		return d.httpDL.Download(ctx, rawURL, dest)
	default:
		return 0, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
}

func (d *ObjectDownloader) downloadObject(ctx context.Context, u *url.URL, dest string) (float64, error) {
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return 0, fmt.Errorf("invalid minio url %s, want minio://bucket/key", u)
	}

	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("object %s/%s: %w", bucket, key, os.ErrNotExist)
		}
		return 0, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	if out.ContentLength != nil && *out.ContentLength > d.maxBytes {
		return 0, fmt.Errorf("%w: object is %d bytes", ErrTooLarge, *out.ContentLength)
	}

	written, err := writeCapped(out.Body, dest, d.maxBytes)
	if err != nil {
		return 0, err
	}
	return toMB(written), nil
}

// isNotFound reports whether err indicates the object does not exist.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return true
		}
	}
	return false
}

// Compile-time interface check.
var _ AudioDownloader = (*ObjectDownloader)(nil)
