// Package requestcontext carries request-scoped values without net/http.
//
// Middleware sets them; services and stores read them. Tests inject them
// directly:
//
//	ctx = requestcontext.WithCaller(ctx, owner)
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "inheritx/pkg/domain"
)

type key int

const (
	callerKey key = iota
	tokenIDKey
	requestIDKey
	requestTimeKey
)

func value[T any](ctx context.Context, k key) (T, bool) {
	v, ok := ctx.Value(k).(T)
	return v, ok
}

// Caller is the authenticated caller, or the zero address for anonymous
// requests. The zero address never owns a registry.
func Caller(ctx context.Context) id.Address {
	caller, _ := value[id.Address](ctx, callerKey)
	return caller
}

func WithCaller(ctx context.Context, caller id.Address) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// TokenID is the jti of the bearer token used for the request.
func TokenID(ctx context.Context) string {
	jti, _ := value[string](ctx, tokenIDKey)
	return jti
}

func WithTokenID(ctx context.Context, jti string) context.Context {
	return context.WithValue(ctx, tokenIDKey, jti)
}

func RequestID(ctx context.Context) string {
	reqID, _ := value[string](ctx, requestIDKey)
	return reqID
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// Now is the request-scoped clock. Outside a request (CLI, background
// workers) it falls back to the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := value[time.Time](ctx, requestTimeKey); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}
