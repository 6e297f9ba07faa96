package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Endpoint:        "oss-cn-hangzhou.aliyuncs.com",
		AccessKeyID:     "ak",
		AccessKeySecret: "sk",
		Bucket:          "captcha-assets",
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }},
		{"missing key id", func(c *Config) { c.AccessKeyID = "" }},
		{"missing secret", func(c *Config) { c.AccessKeySecret = "" }},
		{"missing bucket", func(c *Config) { c.Bucket = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPublicDomain(t *testing.T) {
	cfg := Config{Endpoint: "oss-cn-hangzhou.aliyuncs.com", Bucket: "captcha-assets"}
	assert.Equal(t, "https://captcha-assets.oss-cn-hangzhou.aliyuncs.com", cfg.publicDomain())

	cfg.Domain = "cdn.example.com"
	assert.Equal(t, "https://cdn.example.com", cfg.publicDomain())

	cfg.Domain = "http://cdn.example.com"
	assert.Equal(t, "http://cdn.example.com", cfg.publicDomain())
}

func TestPublicURL(t *testing.T) {
	c := &Client{cfg: Config{Endpoint: "oss-cn-hangzhou.aliyuncs.com", Bucket: "captcha-assets"}}
	assert.Equal(t,
		"https://captcha-assets.oss-cn-hangzhou.aliyuncs.com/sms/2026-08/dispatch.json",
		c.PublicURL("/sms/2026-08/dispatch.json"))
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "a/b.txt", normalizeKey("/a/b.txt"))
	assert.Equal(t, "a/b.txt", normalizeKey("a/b.txt"))
}
