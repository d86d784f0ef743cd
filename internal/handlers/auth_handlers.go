package handlers

import (
	"net/http"
	"time"

	"tourbase/internal/config"
	"tourbase/internal/middleware"
	"tourbase/internal/models"
	"tourbase/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles authentication-related HTTP requests.
type AuthHandlers struct {
	authService services.AuthService
	cfg         *config.Config
}

func NewAuthHandlers(authService services.AuthService, cfg *config.Config) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		cfg:         cfg,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"password_current"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type tokenResponse struct {
	Status string       `json:"status"`
	Token  string       `json:"token"`
	User   *models.User `json:"user,omitempty"`
}

// setSessionCookie mirrors the token into an HTTP-only cookie so browser
// pages authenticate without a bearer header. Secure outside development.
func (h *AuthHandlers) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Expires:  time.Now().Add(time.Duration(h.cfg.JWT.CookieTTLDays) * 24 * time.Hour),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		Path:     "/",
	})
}

func (h *AuthHandlers) sendToken(c echo.Context, status int, user *models.User, token string) error {
	h.setSessionCookie(c, token)
	resp := tokenResponse{Status: "success", Token: token}
	if status == http.StatusCreated {
		resp.User = user
	}
	return c.JSON(status, resp)
}

// Signup handles POST /api/v1/users/signup.
func (h *AuthHandlers) Signup(c echo.Context) error {
	var req services.SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	user, token, err := h.authService.Signup(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return h.sendToken(c, http.StatusCreated, user, token)
}

// Login handles POST /api/v1/users/login.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	user, token, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.sendToken(c, http.StatusOK, user, token)
}

// Logout handles GET /api/v1/users/logout by overwriting the session cookie
// with a short-lived placeholder.
func (h *AuthHandlers) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "loggedout",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		Path:     "/",
	})
	return c.JSON(http.StatusOK, map[string]string{"status": "success"})
}

// ForgotPassword handles POST /api/v1/users/forgot-password.
func (h *AuthHandlers) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	scheme := c.Scheme()
	base := scheme + "://" + c.Request().Host
	if err := h.authService.ForgotPassword(c.Request().Context(), req.Email, base); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "success",
		"message": "token sent to email",
	})
}

// ResetPassword handles PATCH /api/v1/users/reset-password/:token.
func (h *AuthHandlers) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if req.Password != req.PasswordConfirm {
		return echo.NewHTTPError(http.StatusBadRequest, "passwords are not the same")
	}

	user, token, err := h.authService.ResetPassword(c.Request().Context(), c.Param("token"), req.Password)
	if err != nil {
		return err
	}
	return h.sendToken(c, http.StatusOK, user, token)
}

// UpdatePassword handles PATCH /api/v1/users/update-password for a logged-in user.
func (h *AuthHandlers) UpdatePassword(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req UpdatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if req.Password != req.PasswordConfirm {
		return echo.NewHTTPError(http.StatusBadRequest, "passwords are not the same")
	}

	token, err := h.authService.UpdatePassword(c.Request().Context(), user.ID, req.PasswordCurrent, req.Password)
	if err != nil {
		return err
	}
	return h.sendToken(c, http.StatusOK, user, token)
}
