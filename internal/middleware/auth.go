package middleware

import (
	"strings"

	"tourbase/internal/common"
	"tourbase/internal/models"
	"tourbase/internal/repositories"
	"tourbase/internal/services"

	"github.com/labstack/echo/v4"
)

// SessionCookieName is the cookie fallback for the bearer header.
const SessionCookieName = "jwt"

// userContextKey is the echo context key the resolved identity is stored under.
const userContextKey = "current_user"

// AuthMiddleware resolves the acting identity for incoming requests.
type AuthMiddleware struct {
	userRepo repositories.UserRepository
	tokens   services.TokenService
}

func NewAuthMiddleware(userRepo repositories.UserRepository, tokens services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// extractToken prefers the Authorization bearer header and falls back to the
// session cookie.
func extractToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token != authHeader {
			return token
		}
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// resolveUser runs the full credential check: verify the token, load the
// subject, and reject tokens minted before the last password rotation.
func (m *AuthMiddleware) resolveUser(c echo.Context) (*models.User, error) {
	token := extractToken(c)
	if token == "" {
		return nil, common.Unauthenticated("you are not logged in, please log in to get access")
	}

	claims, err := m.tokens.VerifySessionToken(token)
	if err != nil {
		return nil, common.Unauthenticated("invalid or expired token, please log in again")
	}

	user, err := m.userRepo.GetByID(c.Request().Context(), claims.UserID)
	if err != nil {
		return nil, common.Unauthenticated("the user belonging to this token no longer exists")
	}

	if user.ChangedPasswordAfter(claims.IssuedAt) {
		return nil, common.Unauthenticated("password was changed recently, please log in again")
	}

	return user, nil
}

// Authenticate rejects the request unless a valid identity can be resolved.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := m.resolveUser(c)
		if err != nil {
			return err
		}
		AttachUser(c, user)
		return next(c)
	}
}

// AuthenticateOptional attaches the identity when it resolves and otherwise
// continues anonymously. Used by rendered-page routes.
func (m *AuthMiddleware) AuthenticateOptional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if user, err := m.resolveUser(c); err == nil {
			AttachUser(c, user)
		}
		return next(c)
	}
}

// RequireRoles gates an operation on an allow-list of roles. The pipeline
// stops here on failure; the handler is never invoked for a forbidden role.
func (m *AuthMiddleware) RequireRoles(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return common.Unauthenticated("you are not logged in, please log in to get access")
			}
			if _, ok := allowed[user.Role]; !ok {
				return common.Forbidden("you do not have permission to perform this action")
			}
			return next(c)
		}
	}
}

// AttachUser stores the resolved identity on the echo context and the request
// context so both handlers and lower layers can read it.
func AttachUser(c echo.Context, user *models.User) {
	c.Set(userContextKey, user)
	ctx := common.WithUser(c.Request().Context(), user.ID, user.Role)
	c.SetRequest(c.Request().WithContext(ctx))
}

// CurrentUser returns the identity attached by Authenticate, or nil.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}
