package sms

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ooiai/neocrates/captcha"
	"github.com/ooiai/neocrates/errors"
	"github.com/ooiai/neocrates/utils"
)

// Service 短信验证码服务
//
// Keyed by mobile number under captcha:sms:{mobile}, at most one live code
// per number. The dispatch-then-store ordering is strict: the code is
// written only after the delivery channel confirmed it, so an undeliverable
// code never becomes a valid credential. Debug mode skips dispatch for
// development and surfaces the code to the caller.
type Service struct {
	store       captcha.Store
	sender      Sender
	ttl         time.Duration
	debug       bool
	mobileRegex *regexp.Regexp
	log         *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTTL overrides the default code lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithDebug skips the delivery channel entirely and stores the code
// directly. Development/test convenience only.
func WithDebug(debug bool) Option {
	return func(s *Service) {
		s.debug = debug
	}
}

// WithMobilePattern replaces the default mainland-China mobile pattern.
func WithMobilePattern(re *regexp.Regexp) Option {
	return func(s *Service) {
		if re != nil {
			s.mobileRegex = re
		}
	}
}

// WithLogger sets the logger. Codes are never logged outside debug mode.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates an SMS OTP service.
func NewService(store captcha.Store, sender Sender, opts ...Option) *Service {
	s := &Service{
		store:       store,
		sender:      sender,
		ttl:         captcha.DefaultExpiration,
		mobileRegex: utils.MobileRegex,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendResult 发送结果
type SendResult struct {
	// Sent reports whether the delivery channel was actually invoked.
	// False in debug mode.
	Sent bool `json:"sent"`
	// ExpiresIn is the code lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`
	// DebugCode carries the generated code in debug mode only, since no
	// out-of-band channel exists to learn it. Empty otherwise.
	DebugCode string `json:"debug_code,omitempty"`
}

// SendCaptcha 发送短信验证码
//
// Generates a 6-digit code, dispatches it through the delivery channel and
// only then stores it under captcha:sms:{mobile}. A fresh send overwrites
// any prior live code for the same number.
func (s *Service) SendCaptcha(ctx context.Context, mobile string) (*SendResult, error) {
	if !s.mobileRegex.MatchString(mobile) {
		return nil, errors.NewValidation("手机号码格式不正确")
	}

	code, err := captcha.GenerateNumeric(0)
	if err != nil {
		return nil, err
	}

	if s.debug {
		if err := s.store.SetEx(ctx, captcha.PrefixSMS+mobile, code, s.ttl); err != nil {
			return nil, errors.NewStore(err)
		}
		s.log.Warn("send_captcha debug mode: SMS not sent, code stored directly",
			zap.String("mobile", utils.MaskMobile(mobile)))
		return &SendResult{
			Sent:      false,
			ExpiresIn: int64(s.ttl / time.Second),
			DebugCode: code,
		}, nil
	}

	if err := s.sender.Send(ctx, mobile, code); err != nil {
		s.log.Warn("send_captcha dispatch failed",
			zap.String("mobile", utils.MaskMobile(mobile)),
			zap.Error(err))
		return nil, errors.NewDelivery(err, "短信发送失败")
	}

	if err := s.store.SetEx(ctx, captcha.PrefixSMS+mobile, code, s.ttl); err != nil {
		return nil, errors.NewStore(err)
	}

	s.log.Info("send_captcha SMS sent and code stored",
		zap.String("mobile", utils.MaskMobile(mobile)))

	return &SendResult{
		Sent:      true,
		ExpiresIn: int64(s.ttl / time.Second),
	}, nil
}

// Validate 校验短信验证码
//
// Comparison is case-insensitive (codes are digits, so this only matters
// for callers mixing in letter templates). A mismatch leaves the code
// intact until its TTL elapses or validation succeeds with delete.
func (s *Service) Validate(ctx context.Context, mobile, code string, deleteOnSuccess bool) error {
	key := captcha.PrefixSMS + mobile

	if deleteOnSuccess {
		matched, existed, err := s.store.CompareAndDelete(ctx, key, code, true)
		if err != nil {
			return errors.NewStore(err)
		}
		if !existed {
			return errors.NewNotFound("验证码已过期")
		}
		if !matched {
			return errors.NewMismatch("验证码错误")
		}
		s.log.Info("valid_auth_captcha success", zap.String("mobile", utils.MaskMobile(mobile)))
		return nil
	}

	stored, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return errors.NewStore(err)
	}
	if !ok {
		return errors.NewNotFound("验证码已过期")
	}
	if !strings.EqualFold(stored, code) {
		return errors.NewMismatch("验证码错误")
	}
	s.log.Info("valid_auth_captcha success", zap.String("mobile", utils.MaskMobile(mobile)))
	return nil
}

// Delete 删除指定手机号的验证码
func (s *Service) Delete(ctx context.Context, mobile string) error {
	if _, err := s.store.Del(ctx, captcha.PrefixSMS+mobile); err != nil {
		return errors.NewStore(err)
	}
	return nil
}
