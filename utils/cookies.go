package utils

import (
	"net/http"

	"join-project/backend/config"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// sameSiteFor picks the SameSite attribute for the deployment. A dev
// frontend runs cross-site and browsers drop its cookies unless
// SameSite=None; production runs on same-site subdomains and uses Lax.
func sameSiteFor(env config.CookieEnv) http.SameSite {
	if env == config.EnvDev {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func authCookie(name, value string, env config.CookieEnv) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: sameSiteFor(env),
	}
}

// SetAuthCookies attaches both token cookies to the response. Tokens travel
// only in cookies, never in response bodies.
func SetAuthCookies(w http.ResponseWriter, accessToken, refreshToken string, env config.CookieEnv) {
	http.SetCookie(w, authCookie(AccessTokenCookie, accessToken, env))
	http.SetCookie(w, authCookie(RefreshTokenCookie, refreshToken, env))
}

// SetAccessCookie refreshes only the access token cookie.
func SetAccessCookie(w http.ResponseWriter, accessToken string, env config.CookieEnv) {
	http.SetCookie(w, authCookie(AccessTokenCookie, accessToken, env))
}

// ClearAuthCookies expires both token cookies with the same attribute rules
// used when they were set.
func ClearAuthCookies(w http.ResponseWriter, env config.CookieEnv) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		cookie := authCookie(name, "", env)
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}
