package captcha

import (
	"context"
	"time"
)

// CaptchaType 定义验证码类型
type CaptchaType string

const (
	// TypeNumeric 数字验证码 (4-8 digits, id-keyed)
	TypeNumeric CaptchaType = "numeric"
	// TypeAlphanumeric 字母数字验证码 (4-10 chars, id-keyed, case-insensitive)
	TypeAlphanumeric CaptchaType = "alphanumeric"
	// TypeSlider 滑块验证码 (account-keyed, digest stored)
	TypeSlider CaptchaType = "slider"
)

// Storage key prefixes. Preserved for compatibility with existing deployments.
const (
	PrefixNumeric = "captcha:numeric:"
	PrefixAlpha   = "captcha:alpha:"
	PrefixSlider  = "captcha:slider:"
	PrefixSMS     = "captcha:sms:"
)

// DefaultExpiration is the default challenge lifetime (2 minutes).
const DefaultExpiration = 120 * time.Second

// CaptchaData 表示生成的验证码数据
type CaptchaData struct {
	// ID is the opaque lookup handle returned to the caller.
	ID string `json:"id"`
	// Code is the secret the user must echo back. Visible to the
	// trusted server-side caller, hidden from the end user until it
	// reaches them through a side channel.
	Code string `json:"code"`
	// ExpiresIn is the challenge lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`
}

// Store 管理验证码持久化
//
// Implementations must honor per-key atomicity: CompareAndDelete performs
// lookup, comparison and deletion as one store round trip so that only the
// first successful validator wins when delete-on-success is requested.
type Store interface {
	// SetEx 保存验证码答案
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error

	// Get 获取验证码答案; ok 为 false 表示不存在或已过期
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Del 删除验证码, 返回是否实际删除
	Del(ctx context.Context, key string) (bool, error)

	// Exists 检查验证码是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// CompareAndDelete atomically compares the stored value against
	// expected and deletes the key on a match. foldCase requests
	// case-insensitive comparison. existed reports whether the key was
	// live; matched implies the key has been deleted.
	CompareAndDelete(ctx context.Context, key, expected string, foldCase bool) (matched bool, existed bool, err error)
}
