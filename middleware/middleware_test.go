package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"join-project/backend/utils"
)

var testSecret = []byte("test-secret")

func authProbe(t *testing.T) (http.Handler, *bool, *AuthContext) {
	t.Helper()
	called := false
	var seen AuthContext
	handler := CookieAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return handler, &called, &seen
}

func TestCookieAuth_MissingCookieIsAnonymous(t *testing.T) {
	handler, called, seen := authProbe(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("A missing cookie is not an error by itself, got status %d", w.Code)
	}
	if !*called {
		t.Fatal("Handler should run for anonymous requests")
	}
	if seen.UserID != "" {
		t.Errorf("Anonymous request must carry no identity, got %q", seen.UserID)
	}
}

func TestCookieAuth_InvalidTokenIs401(t *testing.T) {
	handler, called, _ := authProbe(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/", nil)
	req.AddCookie(&http.Cookie{Name: utils.AccessTokenCookie, Value: "garbage"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for an invalid token, got %d", w.Code)
	}
	if *called {
		t.Error("Handler must not run for an invalid token")
	}
}

func TestCookieAuth_ExpiredTokenIs401(t *testing.T) {
	handler, _, _ := authProbe(t)

	token, err := utils.GenerateAccessToken(testSecret, "user-1", "antonio", -time.Minute)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/", nil)
	req.AddCookie(&http.Cookie{Name: utils.AccessTokenCookie, Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for an expired token, got %d", w.Code)
	}
}

func TestCookieAuth_ValidTokenSetsIdentity(t *testing.T) {
	handler, _, seen := authProbe(t)

	token, err := utils.GenerateAccessToken(testSecret, "user-1", "antonio", time.Minute)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/", nil)
	req.AddCookie(&http.Cookie{Name: utils.AccessTokenCookie, Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if seen.UserID != "user-1" || seen.Username != "antonio" {
		t.Errorf("Identity not propagated, got %+v", seen)
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for an anonymous request, got %d", w.Code)
	}
}

func TestThrottleMiddleware_Returns429(t *testing.T) {
	throttle := NewWriteThrottle(1, time.Hour)
	handler := throttle.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/", nil)
	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, req)
	if w1.Code != http.StatusOK {
		t.Fatalf("Expected the first write to pass, got %d", w1.Code)
	}

	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, httptest.NewRequest(http.MethodPost, "/api/tasks/", nil))
	if w2.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 for the second write, got %d", w2.Code)
	}
}
