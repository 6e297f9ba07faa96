package captcha_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ooiai/neocrates/captcha"
	"github.com/ooiai/neocrates/errors"
	"github.com/ooiai/neocrates/rediscache"
)

func newTestService(t *testing.T, opts ...captcha.Option) (*captcha.Service, *rediscache.Pool, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	pool := rediscache.NewPoolFromClient(client)
	return captcha.NewService(pool, opts...), pool, mr
}

func TestNumericCaptcha_RoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	data, err := svc.GenerateNumeric(ctx, "user@example.com", 6)
	require.NoError(t, err)
	require.NotEmpty(t, data.ID)
	require.Len(t, data.Code, 6)
	assert.EqualValues(t, 120, data.ExpiresIn)

	require.NoError(t, svc.ValidateNumeric(ctx, data.ID, data.Code, true))

	// Consumed on first success; the second validate must miss.
	err = svc.ValidateNumeric(ctx, data.ID, data.Code, true)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestNumericCaptcha_Mismatch(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	data, err := svc.GenerateNumeric(ctx, "acct", 6)
	require.NoError(t, err)

	wrong := "000000"
	if wrong == data.Code {
		wrong = "111111"
	}

	err = svc.ValidateNumeric(ctx, data.ID, wrong, true)
	require.Error(t, err)
	assert.True(t, errors.IsMismatch(err))

	// Mismatch leaves the record intact.
	require.NoError(t, svc.ValidateNumeric(ctx, data.ID, data.Code, false))
}

func TestNumericCaptcha_KeepOnSuccess(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	data, err := svc.GenerateNumeric(ctx, "acct", 0)
	require.NoError(t, err)

	require.NoError(t, svc.ValidateNumeric(ctx, data.ID, data.Code, false))
	require.NoError(t, svc.ValidateNumeric(ctx, data.ID, data.Code, false))
}

func TestNumericCaptcha_InvalidLength(t *testing.T) {
	svc, pool, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GenerateNumeric(ctx, "acct", 3)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	// Fail fast: nothing may reach the store.
	deleted, err := pool.DelPrefix(ctx, "captcha:")
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestNumericCaptcha_Expiry(t *testing.T) {
	svc, _, mr := newTestService(t, captcha.WithTTL(time.Second))
	ctx := context.Background()

	data, err := svc.GenerateNumeric(ctx, "acct", 6)
	require.NoError(t, err)
	assert.EqualValues(t, 1, data.ExpiresIn)

	mr.FastForward(2 * time.Second)

	err = svc.ValidateNumeric(ctx, data.ID, data.Code, true)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestNumericCaptcha_PerCallTTL(t *testing.T) {
	svc, pool, _ := newTestService(t)
	ctx := context.Background()

	data, err := svc.GenerateNumeric(ctx, "acct", 6, captcha.WithCallTTL(10*time.Second))
	require.NoError(t, err)
	assert.EqualValues(t, 10, data.ExpiresIn)

	ttl, err := pool.TTL(ctx, captcha.PrefixNumeric+data.ID)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, ttl)
}

func TestNumericCaptcha_KeyNaming(t *testing.T) {
	svc, pool, _ := newTestService(t)
	ctx := context.Background()

	data, err := svc.GenerateNumeric(ctx, "acct", 6)
	require.NoError(t, err)

	stored, ok, err := pool.Get(ctx, "captcha:numeric:"+data.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, data.Code, stored)
}

func TestAlphanumericCaptcha_CaseInsensitive(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	data, err := svc.GenerateAlphanumeric(ctx, "acct", 6)
	require.NoError(t, err)

	require.NoError(t, svc.ValidateAlphanumeric(ctx, data.ID, strings.ToLower(data.Code), false))
	require.NoError(t, svc.ValidateAlphanumeric(ctx, data.ID, data.Code, true))

	err = svc.ValidateAlphanumeric(ctx, data.ID, data.Code, true)
	assert.True(t, errors.IsNotFound(err))
}

func TestAlphanumericCaptcha_KeyNaming(t *testing.T) {
	svc, pool, _ := newTestService(t)
	ctx := context.Background()

	data, err := svc.GenerateAlphanumeric(ctx, "acct", 6)
	require.NoError(t, err)

	_, ok, err := pool.Get(ctx, "captcha:alpha:"+data.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSliderCaptcha_RoundTrip(t *testing.T) {
	svc, pool, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.GenerateSlider(ctx, "gesture-42", "user@example.com"))

	// The raw code must never appear in the stored value.
	stored, ok, err := pool.Get(ctx, "captcha:slider:user@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, stored, "gesture-42")
	assert.Len(t, stored, 32)

	require.NoError(t, svc.ValidateSlider(ctx, "gesture-42", "user@example.com", true))

	err = svc.ValidateSlider(ctx, "gesture-42", "user@example.com", true)
	assert.True(t, errors.IsNotFound(err))
}

func TestSliderCaptcha_DigestIsNotTheCode(t *testing.T) {
	svc, pool, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.GenerateSlider(ctx, "gesture-42", "acct"))

	digest, ok, err := pool.Get(ctx, "captcha:slider:acct")
	require.NoError(t, err)
	require.True(t, ok)

	// Submitting the stored digest itself is re-hashed and must fail.
	err = svc.ValidateSlider(ctx, digest, "acct", false)
	require.Error(t, err)
	assert.True(t, errors.IsMismatch(err))
}

func TestSliderCaptcha_IdentityOverwrite(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.GenerateSlider(ctx, "first", "acct"))
	require.NoError(t, svc.GenerateSlider(ctx, "second", "acct"))

	err := svc.ValidateSlider(ctx, "first", "acct", false)
	require.Error(t, err)
	assert.True(t, errors.IsMismatch(err))

	require.NoError(t, svc.ValidateSlider(ctx, "second", "acct", false))
}

func TestSliderCaptcha_ManualDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.GenerateSlider(ctx, "gesture", "acct"))
	require.NoError(t, svc.DeleteSlider(ctx, "acct"))

	err := svc.ValidateSlider(ctx, "gesture", "acct", false)
	assert.True(t, errors.IsNotFound(err))

	// Deleting an absent record is not an error.
	require.NoError(t, svc.DeleteSlider(ctx, "acct"))
}

func TestSliderCaptcha_EmptyInputs(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	assert.True(t, errors.IsValidation(svc.GenerateSlider(ctx, "", "acct")))
	assert.True(t, errors.IsValidation(svc.GenerateSlider(ctx, "code", "")))
}

func TestService_StoreUnavailable(t *testing.T) {
	svc, pool, mr := newTestService(t)
	ctx := context.Background()

	data, err := svc.GenerateNumeric(ctx, "acct", 6)
	require.NoError(t, err)
	_ = pool

	mr.Close()

	err = svc.ValidateNumeric(ctx, data.ID, data.Code, true)
	require.Error(t, err)
	assert.True(t, errors.IsStore(err))

	_, err = svc.GenerateNumeric(ctx, "acct", 6)
	require.Error(t, err)
	assert.True(t, errors.IsStore(err))
}
