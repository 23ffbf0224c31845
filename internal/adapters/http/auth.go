package httpadapter

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/kirillkom/court-docket/internal/core/domain"
)

const (
	courtIDHeader = "X-Court-Id"
	userIDHeader  = "X-User-Id"
)

type actorContextKey struct{}

// bearerAuthMiddleware requires "Authorization: Bearer <apiKey>" when apiKey is set.
func bearerAuthMiddleware(next http.Handler, apiKey string) http.Handler {
	if apiKey == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isAuthorizedBearerHeader(r.Header.Get("Authorization"), apiKey) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="court-docket"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isAuthorizedBearerHeader(headerValue, expectedToken string) bool {
	headerValue = strings.TrimSpace(headerValue)
	if headerValue == "" || expectedToken == "" {
		return false
	}
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(headerValue, bearerPrefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(headerValue, bearerPrefix))
	return subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) == 1
}

// actorMiddleware reads the court and user set by the auth proxy. Absent
// headers leave the actor without a court; use cases reject that with 403.
func actorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		courtID, ok := parseIDHeader(r.Header.Get(courtIDHeader))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid "+courtIDHeader+" header")
			return
		}
		userID, ok := parseIDHeader(r.Header.Get(userIDHeader))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid "+userIDHeader+" header")
			return
		}
		actor := domain.Actor{CourtID: courtID, UserID: userID}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorContextKey{}, actor)))
	})
}

func parseIDHeader(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

func actorFromContext(ctx context.Context) domain.Actor {
	actor, _ := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor
}
