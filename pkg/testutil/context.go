package testutil

import (
	"net/http"

	"dashboard-service/internal/platform/middleware"
)

// WithActor sets the acting identity header the way an upstream gateway would.
func WithActor(req *http.Request, actorID string) *http.Request {
	req.Header.Set(middleware.ActorHeader, actorID)
	return req
}
