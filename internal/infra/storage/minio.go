package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
)

// Store reads uploaded blobs and issues write URLs for the uploads container.
// Any S3-compatible endpoint works.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
	accountURL string
}

// New creates the storage client and makes sure the uploads bucket exists.
// accountURL is the public base used to build blob URLs; when empty the
// endpoint itself is used.
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey, accountURL string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	if accountURL == "" {
		accountURL = cli.EndpointURL().Scheme + "://" + cli.EndpointURL().Host
	}
	return &Store{client: cli, bucketName: bucket, region: region, accountURL: strings.TrimRight(accountURL, "/")}, nil
}

// Read downloads the whole object addressed by sourceURL.
func (s *Store) Read(ctx context.Context, sourceURL string) ([]byte, error) {
	container, key, err := SplitBlobURL(sourceURL)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, container, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError(container, key, err)
	}
	defer obj.Close()

	// GetObject is lazy; errors such as NoSuchKey surface on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapError(container, key, err)
	}
	return data, nil
}

// PresignPut returns a write-only URL for key in the uploads bucket.
func (s *Store) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucketName, key, expiry)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// ObjectURL is the stable (unsigned) URL of key in the uploads bucket.
func (s *Store) ObjectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.accountURL, s.bucketName, EscapeKey(key))
}

// Check implements middleware.HealthChecker.
func (s *Store) Check(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s missing", s.bucketName)
	}
	return nil
}

// SplitBlobURL splits scheme://account/container/blob/path into container and
// blob path. The blob path is unescaped and any query string dropped.
func SplitBlobURL(sourceURL string) (container, key string, err error) {
	parts := strings.SplitN(sourceURL, "/", 5)
	if len(parts) < 5 || parts[3] == "" || parts[4] == "" {
		return "", "", fmt.Errorf("%w: %q", domain.ErrMalformedURL, sourceURL)
	}
	key, _, _ = strings.Cut(parts[4], "?")
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	return parts[3], key, nil
}

// EscapeKey escapes each path segment of key.
func EscapeKey(key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

func mapError(container, key string, err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s/%s", domain.ErrNotFound, container, key)
	case resp.Code == "AccessDenied" || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s/%s", domain.ErrAccessDenied, container, key)
	case errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("read %s/%s: %w", container, key, err)
	}
}
