package captcha

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ooiai/neocrates/errors"
)

// Service 编排验证码的生成、存储与校验
//
// The Service owns the record lifecycle end to end: generate writes the
// record with a TTL, validate reads and compares it, and deletion happens
// either on successful validation (when requested), through the explicit
// slider delete, or by TTL expiry inside the store. The Service itself
// holds no locks and no shared mutable state.
type Service struct {
	store Store
	ttl   time.Duration
	log   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTTL overrides the default challenge lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for audit events. Codes are never logged.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates a captcha Service backed by the given store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		ttl:   DefaultExpiration,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the default challenge lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// CallOption adjusts a single generate call.
type CallOption func(*callParams)

type callParams struct {
	ttl time.Duration
}

// WithCallTTL overrides the TTL for one generate call.
func WithCallTTL(ttl time.Duration) CallOption {
	return func(p *callParams) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

func (s *Service) callParams(opts []CallOption) callParams {
	p := callParams{ttl: s.ttl}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// ==================== Numeric Captcha ====================

// GenerateNumeric 生成数字验证码
//
// The record is stored under captcha:numeric:{id} and both id and code are
// returned to the (trusted, server-side) caller. length 0 selects the
// default of 6 digits.
func (s *Service) GenerateNumeric(ctx context.Context, account string, length int, opts ...CallOption) (*CaptchaData, error) {
	code, err := GenerateNumeric(length)
	if err != nil {
		return nil, err
	}
	return s.storeIDKeyed(ctx, PrefixNumeric, account, code, "gen_numeric_captcha", opts)
}

// ValidateNumeric 校验数字验证码
//
// Comparison is exact. A mismatch leaves the record intact; there is no
// attempt counting here.
func (s *Service) ValidateNumeric(ctx context.Context, id, code string, deleteOnSuccess bool) error {
	return s.validate(ctx, PrefixNumeric+id, code, false, deleteOnSuccess,
		"validate_numeric_captcha", zap.String("id", id))
}

// ==================== Alphanumeric Captcha ====================

// GenerateAlphanumeric 生成字母数字验证码
//
// Identical shape to GenerateNumeric, stored under captcha:alpha:{id}.
// The code's casing as generated is preserved for display.
func (s *Service) GenerateAlphanumeric(ctx context.Context, account string, length int, opts ...CallOption) (*CaptchaData, error) {
	code, err := GenerateAlphanumeric(length)
	if err != nil {
		return nil, err
	}
	return s.storeIDKeyed(ctx, PrefixAlpha, account, code, "gen_alphanumeric_captcha", opts)
}

// ValidateAlphanumeric 校验字母数字验证码 (case-insensitive)
func (s *Service) ValidateAlphanumeric(ctx context.Context, id, code string, deleteOnSuccess bool) error {
	return s.validate(ctx, PrefixAlpha+id, code, true, deleteOnSuccess,
		"validate_alphanumeric_captcha", zap.String("id", id))
}

// ==================== Slider Captcha ====================

// GenerateSlider 生成滑块验证码
//
// The code is supplied by the initiating client (a client-computed gesture
// value), keyed by account under captcha:slider:{account}, at most one live
// challenge per account. Only the MD5 digest of the code is stored, never
// the raw value. A fresh generate overwrites any prior live challenge for
// the same account.
func (s *Service) GenerateSlider(ctx context.Context, code, account string, opts ...CallOption) error {
	if account == "" {
		return errors.NewValidation("account must not be empty")
	}
	if code == "" {
		return errors.NewValidation("slider code must not be empty")
	}
	p := s.callParams(opts)
	key := PrefixSlider + account
	if err := s.store.SetEx(ctx, key, hashCode(code), p.ttl); err != nil {
		return errors.NewStore(err)
	}
	s.log.Info("gen_captcha_slider success", zap.String("account", account))
	return nil
}

// ValidateSlider 校验滑块验证码
//
// The submitted value is re-hashed and compared against the stored digest.
// A value already in digest form therefore only matches if its own digest
// happens to equal the stored one.
func (s *Service) ValidateSlider(ctx context.Context, code, account string, deleteOnSuccess bool) error {
	return s.validate(ctx, PrefixSlider+account, hashCode(code), false, deleteOnSuccess,
		"captcha_slider_valid", zap.String("account", account))
}

// DeleteSlider 手动删除滑块验证码
//
// Unconditional removal, independent of validation, for explicit
// cancel/reset flows.
func (s *Service) DeleteSlider(ctx context.Context, account string) error {
	if _, err := s.store.Del(ctx, PrefixSlider+account); err != nil {
		return errors.NewStore(err)
	}
	return nil
}

// ==================== Shared lifecycle ====================

func (s *Service) storeIDKeyed(ctx context.Context, prefix, account, code, op string, opts []CallOption) (*CaptchaData, error) {
	p := s.callParams(opts)
	id := uuid.NewString()

	if err := s.store.SetEx(ctx, prefix+id, code, p.ttl); err != nil {
		return nil, errors.NewStore(err)
	}

	s.log.Info(op+" success",
		zap.String("account", account),
		zap.String("id", id))

	return &CaptchaData{
		ID:        id,
		Code:      code,
		ExpiresIn: int64(p.ttl / time.Second),
	}, nil
}

// validate implements the shared lookup/compare/delete skeleton. expected
// is the value compared against the stored one (already hashed for the
// slider variant); foldCase selects case-insensitive comparison.
func (s *Service) validate(ctx context.Context, key, expected string, foldCase, deleteOnSuccess bool, op string, field zap.Field) error {
	if deleteOnSuccess {
		// Single round trip so only the first successful validator wins.
		matched, existed, err := s.store.CompareAndDelete(ctx, key, expected, foldCase)
		if err != nil {
			return errors.NewStore(err)
		}
		if !existed {
			return errors.NewNotFound("captcha expired or not found")
		}
		if !matched {
			return errors.NewMismatch("captcha verification failed")
		}
		s.log.Info(op+" success", field)
		return nil
	}

	stored, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return errors.NewStore(err)
	}
	if !ok {
		return errors.NewNotFound("captcha expired or not found")
	}
	if !codesEqual(stored, expected, foldCase) {
		return errors.NewMismatch("captcha verification failed")
	}
	s.log.Info(op+" success", field)
	return nil
}

func codesEqual(stored, submitted string, foldCase bool) bool {
	if foldCase {
		return strings.EqualFold(stored, submitted)
	}
	return stored == submitted
}

// hashCode digests a slider code with MD5. Simple obfuscation to avoid
// plaintext retention, not cryptographic protection.
func hashCode(code string) string {
	sum := md5.Sum([]byte(code))
	return hex.EncodeToString(sum[:])
}
