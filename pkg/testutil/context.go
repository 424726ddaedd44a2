package testutil

import (
	"context"
	"net/http"
	"time"

	id "inheritx/pkg/domain"
	"inheritx/pkg/requestcontext"
)

// WithCaller puts an authenticated caller on the request, as RequireAuth
// would. Malformed addresses are ignored so the request stays anonymous.
func WithCaller(req *http.Request, caller string) *http.Request {
	addr, err := id.ParseAddress(caller)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithCaller(req.Context(), addr))
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithBearer sets the Authorization header.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
