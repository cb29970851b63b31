package middleware

import (
	"context"
	"net/http"

	"join-project/backend/logging"
	"join-project/backend/utils"
)

type contextKey string

const userContextKey contextKey = "authUser"

// AuthContext identifies the authenticated requester.
type AuthContext struct {
	UserID   string
	Username string
}

// CookieAuth authenticates requests from the access_token cookie only; the
// Authorization header is never consulted. A missing cookie leaves the
// request anonymous and lets the route decide, a present but invalid or
// expired token is rejected right here.
func CookieAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(utils.AccessTokenCookie)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := utils.ValidateAccessToken(secret, cookie.Value)
			if err != nil {
				logging.Logger.Warnf("Event ID: COOKIE_AUTH_INVALID_TOKEN, Description: Invalid access token cookie for request to %s %s: %v", r.Method, r.URL.Path, err)
				http.Error(w, "Invalid or expired token.", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, AuthContext{
				UserID:   claims.UserID,
				Username: claims.Username,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated identity, if any.
func UserFromContext(ctx context.Context) (AuthContext, bool) {
	user, ok := ctx.Value(userContextKey).(AuthContext)
	return user, ok
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			http.Error(w, "Authentication required.", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
