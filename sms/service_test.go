package sms_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ooiai/neocrates/errors"
	"github.com/ooiai/neocrates/rediscache"
	"github.com/ooiai/neocrates/sms"
)

const testMobile = "13800138000"

// fakeSender records dispatches and fails on demand.
type fakeSender struct {
	fail  bool
	calls int
	last  struct {
		mobile string
		code   string
	}
}

func (f *fakeSender) Send(_ context.Context, mobile, code string) error {
	f.calls++
	f.last.mobile = mobile
	f.last.code = code
	if f.fail {
		return fmt.Errorf("provider rejected request")
	}
	return nil
}

func newTestSetup(t *testing.T, sender sms.Sender, opts ...sms.Option) (*sms.Service, *rediscache.Pool, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	pool := rediscache.NewPoolFromClient(client)
	return sms.NewService(pool, sender, opts...), pool, mr
}

func TestSendCaptcha_RoundTrip(t *testing.T) {
	sender := &fakeSender{}
	svc, pool, _ := newTestSetup(t, sender)
	ctx := context.Background()

	result, err := svc.SendCaptcha(ctx, testMobile)
	require.NoError(t, err)
	assert.True(t, result.Sent)
	assert.EqualValues(t, 120, result.ExpiresIn)
	assert.Empty(t, result.DebugCode)
	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, testMobile, sender.last.mobile)
	require.Len(t, sender.last.code, 6)

	// Stored under the mobile-keyed slot with the configured TTL.
	stored, ok, err := pool.Get(ctx, "captcha:sms:"+testMobile)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sender.last.code, stored)

	require.NoError(t, svc.Validate(ctx, testMobile, sender.last.code, true))

	err = svc.Validate(ctx, testMobile, sender.last.code, true)
	assert.True(t, errors.IsNotFound(err))
}

func TestSendCaptcha_InvalidMobile(t *testing.T) {
	sender := &fakeSender{}
	svc, _, _ := newTestSetup(t, sender)

	_, err := svc.SendCaptcha(context.Background(), "12345")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Zero(t, sender.calls, "channel must not be invoked for invalid input")
}

func TestSendCaptcha_DeliveryFailureStoresNothing(t *testing.T) {
	sender := &fakeSender{fail: true}
	svc, _, _ := newTestSetup(t, sender)
	ctx := context.Background()

	_, err := svc.SendCaptcha(ctx, testMobile)
	require.Error(t, err)
	assert.True(t, errors.IsDelivery(err))

	// Nothing was persisted: a validate for that mobile misses.
	err = svc.Validate(ctx, testMobile, sender.last.code, true)
	assert.True(t, errors.IsNotFound(err))
}

func TestSendCaptcha_DebugBypassesChannel(t *testing.T) {
	sender := &fakeSender{fail: true}
	svc, _, _ := newTestSetup(t, sender, sms.WithDebug(true))
	ctx := context.Background()

	result, err := svc.SendCaptcha(ctx, testMobile)
	require.NoError(t, err)
	assert.False(t, result.Sent)
	require.NotEmpty(t, result.DebugCode)
	assert.Zero(t, sender.calls, "channel must never be invoked in debug mode")

	require.NoError(t, svc.Validate(ctx, testMobile, result.DebugCode, true))
}

func TestValidate_Mismatch(t *testing.T) {
	sender := &fakeSender{}
	svc, _, _ := newTestSetup(t, sender)
	ctx := context.Background()

	_, err := svc.SendCaptcha(ctx, testMobile)
	require.NoError(t, err)

	wrong := "000000"
	if wrong == sender.last.code {
		wrong = "111111"
	}

	err = svc.Validate(ctx, testMobile, wrong, true)
	require.Error(t, err)
	assert.True(t, errors.IsMismatch(err))

	// A mismatch leaves the live code queryable until TTL or success.
	require.NoError(t, svc.Validate(ctx, testMobile, sender.last.code, false))
}

func TestValidate_Expiry(t *testing.T) {
	sender := &fakeSender{}
	svc, _, mr := newTestSetup(t, sender, sms.WithTTL(time.Second))
	ctx := context.Background()

	_, err := svc.SendCaptcha(ctx, testMobile)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	err = svc.Validate(ctx, testMobile, sender.last.code, true)
	assert.True(t, errors.IsNotFound(err))
}

func TestSendCaptcha_IdentityOverwrite(t *testing.T) {
	sender := &fakeSender{}
	svc, _, _ := newTestSetup(t, sender)
	ctx := context.Background()

	_, err := svc.SendCaptcha(ctx, testMobile)
	require.NoError(t, err)
	first := sender.last.code

	_, err = svc.SendCaptcha(ctx, testMobile)
	require.NoError(t, err)
	second := sender.last.code

	if first == second {
		t.Skip("generated codes collided; overwrite indistinguishable")
	}

	err = svc.Validate(ctx, testMobile, first, false)
	assert.True(t, errors.IsMismatch(err))
	require.NoError(t, svc.Validate(ctx, testMobile, second, false))
}

func TestDelete(t *testing.T) {
	sender := &fakeSender{}
	svc, _, _ := newTestSetup(t, sender)
	ctx := context.Background()

	_, err := svc.SendCaptcha(ctx, testMobile)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, testMobile))

	err = svc.Validate(ctx, testMobile, sender.last.code, false)
	assert.True(t, errors.IsNotFound(err))
}

func TestValidate_StoreUnavailable(t *testing.T) {
	sender := &fakeSender{}
	svc, _, mr := newTestSetup(t, sender)
	ctx := context.Background()

	_, err := svc.SendCaptcha(ctx, testMobile)
	require.NoError(t, err)

	mr.Close()

	err = svc.Validate(ctx, testMobile, "123456", true)
	require.Error(t, err)
	assert.True(t, errors.IsStore(err))
}
