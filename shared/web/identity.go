package web

import (
	"context"
	"net/http"
	"strconv"

	"github.com/peng-yewang/YGMall/shared/logs"
)

// UserIDHeader carries the authenticated caller, injected by the gateway.
const UserIDHeader = "X-User-ID"

type userIDKey struct{}

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey{}).(int64)
	return userID, ok
}

// RequireUser rejects requests without a valid caller identity and stores the
// identity on the request context for the handler to pass on explicitly.
func RequireUser(logger logs.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(UserIDHeader)
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			logger.Warn("missing or invalid caller identity", "header", UserIDHeader, "value", raw)
			RespondWithError(w, logger, r, http.StatusUnauthorized, "Unauthorized", "a valid "+UserIDHeader+" header is required")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// InternalOnly guards service-to-service routes. Every request routed through
// the gateway carries UserIDHeader, so a request with it came from an end
// user and is refused.
func InternalOnly(logger logs.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(UserIDHeader) != "" {
			logger.Warn("end-user request to internal route refused", "path", r.URL.Path)
			RespondWithError(w, logger, r, http.StatusForbidden, "Forbidden", "this route is only reachable by internal services")
			return
		}
		next.ServeHTTP(w, r)
	})
}
