package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// Client wraps an Aliyun OSS bucket with the operations this library
// needs for archiving dispatch records and serving static assets.
type Client struct {
	client *oss.Client
	bucket *oss.Bucket
	cfg    Config
}

// New connects to OSS and binds the configured bucket.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("storage: create OSS client: %w", err)
	}

	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("storage: get bucket %s: %w", cfg.Bucket, err)
	}

	return &Client{
		client: client,
		bucket: bucket,
		cfg:    cfg,
	}, nil
}

// normalizeKey strips a leading slash so OSS does not create an empty
// top-level folder.
func normalizeKey(path string) string {
	return strings.TrimPrefix(path, "/")
}

// Upload stores the reader's content under path and returns the public URL.
func (c *Client) Upload(ctx context.Context, path string, r io.Reader) (string, error) {
	key := normalizeKey(path)
	if err := c.bucket.PutObject(key, r, oss.WithContext(ctx)); err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", key, err)
	}
	return c.PublicURL(key), nil
}

// UploadBytes stores raw bytes under path and returns the public URL.
func (c *Client) UploadBytes(ctx context.Context, path string, data []byte) (string, error) {
	return c.Upload(ctx, path, bytes.NewReader(data))
}

// Download reads the object at path into memory.
func (c *Client) Download(ctx context.Context, path string) ([]byte, error) {
	key := normalizeKey(path)
	body, err := c.bucket.GetObject(key, oss.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("storage: download %s: %w", key, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the object at path.
func (c *Client) Delete(ctx context.Context, path string) error {
	key := normalizeKey(path)
	if err := c.bucket.DeleteObject(key, oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// Exists reports whether an object is present at path.
func (c *Client) Exists(ctx context.Context, path string) (bool, error) {
	return c.bucket.IsObjectExist(normalizeKey(path), oss.WithContext(ctx))
}

// SignedURL generates a time-limited GET URL for private objects.
func (c *Client) SignedURL(path string, expiry time.Duration) (string, error) {
	key := normalizeKey(path)

	expirySec := int64(expiry.Seconds())
	if expirySec <= 0 {
		expirySec = 3600
	}

	url, err := c.bucket.SignURL(key, oss.HTTPGet, expirySec)
	if err != nil {
		return "", fmt.Errorf("storage: sign URL for %s: %w", key, err)
	}
	return url, nil
}

// PublicURL returns the public URL for an object key.
func (c *Client) PublicURL(path string) string {
	return fmt.Sprintf("%s/%s", c.cfg.publicDomain(), normalizeKey(path))
}
