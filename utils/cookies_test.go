package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"join-project/backend/config"
)

func cookiesFromRecorder(w *httptest.ResponseRecorder) map[string]*http.Cookie {
	cookies := map[string]*http.Cookie{}
	for _, c := range w.Result().Cookies() {
		cookies[c.Name] = c
	}
	return cookies
}

func TestSetAuthCookies_Prod(t *testing.T) {
	w := httptest.NewRecorder()
	SetAuthCookies(w, "access-value", "refresh-value", config.EnvProd)

	cookies := cookiesFromRecorder(w)
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		c, ok := cookies[name]
		if !ok {
			t.Fatalf("Cookie %s not set", name)
		}
		if !c.HttpOnly || !c.Secure {
			t.Errorf("Cookie %s must be HttpOnly and Secure", name)
		}
		if c.Path != "/" {
			t.Errorf("Cookie %s must be scoped to /, got %q", name, c.Path)
		}
		if c.SameSite != http.SameSiteLaxMode {
			t.Errorf("Cookie %s must be SameSite=Lax in prod, got %v", name, c.SameSite)
		}
	}
	if cookies[AccessTokenCookie].Value != "access-value" {
		t.Errorf("Access cookie carries the wrong value")
	}
}

func TestSetAuthCookies_DevUsesSameSiteNone(t *testing.T) {
	w := httptest.NewRecorder()
	SetAuthCookies(w, "a", "r", config.EnvDev)

	for name, c := range cookiesFromRecorder(w) {
		if c.SameSite != http.SameSiteNoneMode {
			t.Errorf("Cookie %s must be SameSite=None in dev, got %v", name, c.SameSite)
		}
	}
}

func TestClearAuthCookies(t *testing.T) {
	w := httptest.NewRecorder()
	ClearAuthCookies(w, config.EnvProd)

	cookies := cookiesFromRecorder(w)
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		c, ok := cookies[name]
		if !ok {
			t.Fatalf("Cookie %s not cleared", name)
		}
		if c.Value != "" || c.MaxAge >= 0 {
			t.Errorf("Cookie %s must be emptied and expired, got value %q MaxAge %d", name, c.Value, c.MaxAge)
		}
	}
}
