package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// InvocationHeader carries the per-request invocation id in both directions.
const InvocationHeader = "X-Invocation-Id"

type invocationKey struct{}

// InvocationID tags every request with an id. A well-formed UUID supplied by
// the caller is kept; anything else is replaced.
func InvocationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(InvocationHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(InvocationHeader, id)
		ctx := context.WithValue(r.Context(), invocationKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func InvocationIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(invocationKey{}).(string)
	return id
}
