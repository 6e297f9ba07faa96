package captcha

import (
	"crypto/rand"

	"github.com/ooiai/neocrates/errors"
)

// Code length bounds per variant. Out-of-range requests are rejected,
// never clamped.
const (
	NumericMinLength = 4
	NumericMaxLength = 8

	AlphanumericMinLength = 4
	AlphanumericMaxLength = 10

	// DefaultLength is used when the caller passes length 0.
	DefaultLength = 6
)

// alphaCharset is the retained alphabet for alphanumeric codes:
// uppercase letters plus digits, minus the visually confusable
// glyphs 0, O, 1, I and l.
const alphaCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateNumeric 生成数字验证码
//
// Produces a string of length decimal digits drawn from an unpredictable
// source. length 0 selects DefaultLength; anything outside [4, 8] is a
// validation error.
func GenerateNumeric(length int) (string, error) {
	if length == 0 {
		length = DefaultLength
	}
	if length < NumericMinLength || length > NumericMaxLength {
		return "", errors.Newf(errors.ErrorTypeValidation,
			"numeric captcha length must be between %d and %d, got %d",
			NumericMinLength, NumericMaxLength, length)
	}
	return randomString(length, "0123456789")
}

// GenerateAlphanumeric 生成字母数字验证码
//
// Each character is drawn uniformly from alphaCharset. length 0 selects
// DefaultLength; anything outside [4, 10] is a validation error.
func GenerateAlphanumeric(length int) (string, error) {
	if length == 0 {
		length = DefaultLength
	}
	if length < AlphanumericMinLength || length > AlphanumericMaxLength {
		return "", errors.Newf(errors.ErrorTypeValidation,
			"alphanumeric captcha length must be between %d and %d, got %d",
			AlphanumericMinLength, AlphanumericMaxLength, length)
	}
	return randomString(length, alphaCharset)
}

func randomString(length int, charset string) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeInternal, "random source failed")
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = charset[int(b)%len(charset)]
	}
	return string(out), nil
}
