package testutil

import (
	"net/http"
	"time"

	"fleetworks/pkg/domain"
	"fleetworks/pkg/requestcontext"
)

// AsUser attributes a request to a human actor, simulating what the auth
// middleware does for authenticated requests.
func AsUser(req *http.Request, userID string) *http.Request {
	ctx := requestcontext.WithActor(req.Context(), domain.UserActor(userID))
	return req.WithContext(ctx)
}

// AsSystem attributes a request to a named system process.
func AsSystem(req *http.Request, name string) *http.Request {
	ctx := requestcontext.WithActor(req.Context(), domain.SystemActor(name))
	return req.WithContext(ctx)
}

// AtTime pins the request-scoped clock so time-sensitive assertions are
// deterministic.
func AtTime(req *http.Request, t time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), t)
	return req.WithContext(ctx)
}
