package storage

import (
	"fmt"
	"strings"
)

// Config describes the Aliyun OSS connection.
type Config struct {
	// Endpoint is the region endpoint, e.g. oss-cn-hangzhou.aliyuncs.com.
	Endpoint string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint" toml:"endpoint"`

	// AccessKeyID / AccessKeySecret are the Aliyun credentials.
	AccessKeyID     string `mapstructure:"access-key-id" json:"accessKeyId" yaml:"access-key-id" toml:"access-key-id"`
	AccessKeySecret string `mapstructure:"access-key-secret" json:"accessKeySecret" yaml:"access-key-secret" toml:"access-key-secret"`

	// Bucket is the bucket name.
	Bucket string `mapstructure:"bucket" json:"bucket" yaml:"bucket" toml:"bucket"`

	// Domain is an optional custom or CDN domain for public URLs.
	Domain string `mapstructure:"domain" json:"domain" yaml:"domain" toml:"domain"`
}

// Validate checks that the required connection fields are present.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("storage: endpoint is required")
	}
	if c.AccessKeyID == "" || c.AccessKeySecret == "" {
		return fmt.Errorf("storage: access key id and secret are required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("storage: bucket is required")
	}
	return nil
}

// publicDomain resolves the base URL used for public object links.
func (c Config) publicDomain() string {
	if c.Domain == "" {
		return fmt.Sprintf("https://%s.%s", c.Bucket, c.Endpoint)
	}
	if !strings.HasPrefix(c.Domain, "http") {
		return "https://" + c.Domain
	}
	return c.Domain
}
