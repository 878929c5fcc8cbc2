package api

import (
	"context"
	"net/http"

	"github.com/oklog/ulid/v2"
)

type ctxKey int

const requestIDKey ctxKey = 0

// requestID tags every request with a ULID, echoed in the X-Request-ID header
// and available to handlers for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ulid.Make().String()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// RequestID returns the request's ULID, or an empty string outside a request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
