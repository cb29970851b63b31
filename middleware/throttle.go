package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// WriteThrottle budgets state-mutating requests on the task and subtask
// endpoints, one bucket per authenticated user. Read verbs pass through
// untouched, and an unconfigured throttle (zero limit) allows everything.
type WriteThrottle struct {
	limit  int
	window time.Duration

	mu       sync.Mutex
	visitors map[string]*rate.Limiter
}

func NewWriteThrottle(limit int, window time.Duration) *WriteThrottle {
	return &WriteThrottle{
		limit:    limit,
		window:   window,
		visitors: make(map[string]*rate.Limiter),
	}
}

// Allow is the throttle decision for one (verb, user) pair.
func (t *WriteThrottle) Allow(method, userID string) bool {
	if t.limit <= 0 {
		return true
	}
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return t.visitor(userID).Allow()
}

func (t *WriteThrottle) visitor(userID string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	limiter, exists := t.visitors[userID]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(t.window/time.Duration(t.limit)), t.limit)
		t.visitors[userID] = limiter
	}
	return limiter
}

// Middleware applies the throttle to a route. Runs after CookieAuth so the
// bucket key is the authenticated user id.
func (t *WriteThrottle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		if !t.Allow(r.Method, user.UserID) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"detail": "Request was throttled."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
