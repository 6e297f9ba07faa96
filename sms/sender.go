package sms

import "context"

// Sender 投递短信验证码的通道契约
//
// The OTP service treats any non-nil error as a hard stop: nothing is
// persisted for a code that could not be dispatched. Provider selection,
// request signing and region mapping live behind this interface.
type Sender interface {
	// Send dispatches the code to the mobile number.
	Send(ctx context.Context, mobile, code string) error
}

// SenderFunc adapts a plain function to the Sender interface.
type SenderFunc func(ctx context.Context, mobile, code string) error

func (f SenderFunc) Send(ctx context.Context, mobile, code string) error {
	return f(ctx, mobile, code)
}
