package testutil

import (
	"net/http"

	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/requestcontext"
)

// WithBearer sets the Authorization header the auth middleware expects.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// WithOperator simulates what the auth middleware stores for an
// authenticated request, for handlers exercised without the middleware.
func WithOperator(req *http.Request, operator string) *http.Request {
	return req.WithContext(requestcontext.WithOperator(req.Context(), operator))
}
