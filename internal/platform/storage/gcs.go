package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
)

type objectOpener func(ctx context.Context, bucket, object string) (io.ReadCloser, error)

// GCSSource serves divider assets from a Cloud Storage bucket laid out as <prefix>/<version>/<file>.
type GCSSource struct {
	bucket  string
	prefix  string
	version string
	open    objectOpener
}

// NewGCSSource constructs a bucket-backed source using the provided Cloud Storage client.
func NewGCSSource(client *gcs.Client, bucket, prefix, version string) (*GCSSource, error) {
	if client == nil {
		return nil, errors.New("storage source: client is required")
	}
	return newGCSSource(bucket, prefix, version, func(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
		return client.Bucket(bucket).Object(object).NewReader(ctx)
	})
}

func newGCSSource(bucket, prefix, version string, open objectOpener) (*GCSSource, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage source: bucket is required")
	}
	if open == nil {
		return nil, errors.New("storage source: opener is required")
	}
	return &GCSSource{
		bucket:  bucket,
		prefix:  strings.TrimSpace(prefix),
		version: strings.TrimSpace(version),
		open:    open,
	}, nil
}

// Open streams the named asset from the bucket.
func (s *GCSSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if s == nil || s.open == nil {
		return nil, errors.New("storage source: not initialised")
	}
	object, err := ObjectPath(s.prefix, s.version, name)
	if err != nil {
		return nil, err
	}
	rc, err := s.open(ctx, s.bucket, object)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: gs://%s/%s", ErrObjectNotFound, s.bucket, object)
		}
		return nil, fmt.Errorf("storage source: open gs://%s/%s: %w", s.bucket, object, err)
	}
	return rc, nil
}

func (s *GCSSource) String() string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, strings.Trim(strings.Join([]string{s.prefix, s.version}, "/"), "/"))
}
