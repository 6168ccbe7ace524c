// Package request tags every HTTP request with an ID for log correlation.
package request

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/requestcontext"
)

// HeaderRequestID is honoured on input and echoed on output.
const HeaderRequestID = "X-Request-ID"

// RequestID reuses the caller's X-Request-ID or generates one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
