package reader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vegasq/screener/table"
)

const objectScheme = "s3://"

// ErrNoEndpoint is returned for s3:// locations without a configured endpoint.
var ErrNoEndpoint = errors.New("object storage endpoint not configured")

// StorageOptions configure the S3-compatible client.
type StorageOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Secure    bool
}

// NewClient creates a MinIO client for the options.
func (o StorageOptions) NewClient() (*minio.Client, error) {
	if o.Endpoint == "" {
		return nil, ErrNoEndpoint
	}
	return minio.New(o.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: o.Secure,
		Region: o.Region,
	})
}

// ObjectSource loads a table stored as a single object.
type ObjectSource struct {
	client  *minio.Client
	bucket  string
	key     string
	options Options
}

// NewObjectSource creates a source for bucket/key using client.
func NewObjectSource(client *minio.Client, bucket, key string, opts Options) *ObjectSource {
	return &ObjectSource{client: client, bucket: bucket, key: key, options: opts}
}

// parseObjectLocation splits s3://bucket/key.
func parseObjectLocation(location string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(location, objectScheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("invalid object location %q, want s3://bucket/key", location)
	}
	return bucket, path.Clean(key), nil
}

func newObjectSourceFromURL(location string, opts Options) (*ObjectSource, error) {
	bucket, key, err := parseObjectLocation(location)
	if err != nil {
		return nil, &LoadError{Location: location, Err: err}
	}
	if _, _, err := detectFormat(key, opts.Format); err != nil {
		return nil, &LoadError{Location: location, Err: err}
	}
	client, err := opts.Storage.NewClient()
	if err != nil {
		return nil, &LoadError{Location: location, Err: err}
	}
	return NewObjectSource(client, bucket, key, opts), nil
}

// Location implements Source.
func (s *ObjectSource) Location() string {
	return objectScheme + s.bucket + "/" + s.key
}

// Load implements Source.
func (s *ObjectSource) Load(ctx context.Context) (*table.Table, error) {
	t, err := s.load(ctx)
	if err != nil {
		return nil, &LoadError{Location: s.Location(), Err: err}
	}
	return t, nil
}

func (s *ObjectSource) load(ctx context.Context) (*table.Table, error) {
	format, compressed, err := detectFormat(s.key, s.options.Format)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateObjectError(err)
	}
	defer func() { _ = obj.Close() }()

	// GetObject is lazy; Stat surfaces a missing key
	if _, err := obj.Stat(); err != nil {
		return nil, translateObjectError(err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", translateObjectError(err))
	}

	var f *frame
	switch format {
	case FormatParquet:
		f, err = decodeParquet(bytes.NewReader(data), int64(len(data)), s.options.identifier())
	default:
		f, err = decodeCSV(bytes.NewReader(data), compressed, s.options.identifier())
	}
	if err != nil {
		return nil, err
	}
	return buildTable(s.options.identifier(), f)
}

func translateObjectError(err error) error {
	errResp := minio.ToErrorResponse(err)
	if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" || errResp.Code == "NotFound" {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
