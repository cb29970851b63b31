package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"join-project/backend/config"
	"join-project/backend/logging"
	"join-project/backend/models"
	"join-project/backend/services"
	"join-project/backend/utils"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthProvider is the slice of the auth service the handler needs.
type AuthProvider interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	IssueTokens(user *models.User) (services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string)
}

// Registrar creates new accounts.
type Registrar interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
}

// AuthHandler serves register/login/refresh/logout. Tokens travel in
// HttpOnly cookies only; response bodies carry identity, never tokens.
type AuthHandler struct {
	Auth      AuthProvider
	Users     Registrar
	CookieEnv config.CookieEnv
}

func NewAuthHandler(auth AuthProvider, users Registrar, cookieEnv config.CookieEnv) *AuthHandler {
	return &AuthHandler{Auth: auth, Users: users, CookieEnv: cookieEnv}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request format.")
		return
	}

	user, err := h.Users.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"status":   "success",
		"message":  "User registered successfully.",
		"user_id":  user.ID.Hex(),
		"username": user.Username,
	})
}

// Login checks credentials and sets both token cookies. An unknown email
// and a wrong password answer differently (404 vs 401); that distinction
// leaks account existence and is kept deliberately, see DESIGN.md.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request format.")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	user, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			writeMessage(w, http.StatusNotFound, "User with this email does not exist.")
		case errors.Is(err, services.ErrInvalidCredentials):
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials.")
		default:
			writeServiceError(w, err)
		}
		return
	}

	tokens, err := h.Auth.IssueTokens(user)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.SetAuthCookies(w, tokens.AccessToken, tokens.RefreshToken, h.CookieEnv)
	logging.Logger.Infof("Event ID: USER_LOGIN, Description: User %s logged in", user.Username)
	writeJSON(w, http.StatusOK, map[string]string{
		"user_id":  user.ID.Hex(),
		"username": user.Username,
	})
}

// Refresh mints a new access token cookie from a valid refresh cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(utils.RefreshTokenCookie)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Refresh token not provided.")
		return
	}

	access, err := h.Auth.Refresh(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRefreshToken) {
			writeMessage(w, http.StatusUnauthorized, "Invalid or expired refresh token.")
			return
		}
		writeServiceError(w, err)
		return
	}

	utils.SetAccessCookie(w, access, h.CookieEnv)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// Logout blacklists the refresh token when one is presented and clears both
// cookies either way. It never fails visibly.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(utils.RefreshTokenCookie); err == nil {
		h.Auth.Logout(r.Context(), cookie.Value)
	}

	utils.ClearAuthCookies(w, h.CookieEnv)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "User logged out successfully.",
	})
}
