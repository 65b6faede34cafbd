package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fadebook/fadebook/internal/auth"
	"github.com/fadebook/fadebook/internal/config"
	"github.com/fadebook/fadebook/internal/domain/user"
)

// Keep these interfaces small so tests can fake them easily.

type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
	VerifyRefreshToken(token string) (*auth.Claims, error)
	GenerateAccessToken(userID, email, role string) (string, error)
	HashRefreshToken(raw string) string
	AccessTTL() time.Duration
}

type UserLoader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByIDWithRefreshToken(ctx context.Context, id string) (user.User, error)
}

// SessionMiddleware gates requests on the access token and transparently
// exchanges a valid stored refresh token for a new access token when the
// access token has expired. Both the plain and the role-gated variants run
// through the single authenticate procedure; the role check is just a
// predicate evaluated after authentication.
type SessionMiddleware struct {
	jwt   TokenVerifier
	users UserLoader
	cfg   config.Config
}

func NewSessionMiddleware(jwt TokenVerifier, users UserLoader, cfg config.Config) *SessionMiddleware {
	return &SessionMiddleware{jwt: jwt, users: users, cfg: cfg}
}

func (m *SessionMiddleware) RequireAuth() gin.HandlerFunc {
	return m.authenticate(nil)
}

func (m *SessionMiddleware) RequireRole(required string) gin.HandlerFunc {
	return m.authenticate(func(u user.User) bool { return u.Role == required })
}

func (m *SessionMiddleware) authenticate(allowed func(user.User) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := accessTokenFrom(c)

		if raw == "" {
			abortUnauthorized(c, "unauthorized", "Unauthorized request")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)

		switch {
		case err == nil:
			u, err := m.users.GetByID(c.Request.Context(), claims.UserID)

			if err != nil {
				abortUnauthorized(c, "invalid_token", "Invalid access token")
				return
			}

			m.attach(c, u, allowed)

		case errors.Is(err, auth.ErrTokenExpired):
			u, ok := m.refresh(c)

			if !ok {
				return // refresh already wrote the response
			}

			m.attach(c, u, allowed)

		default:
			abortUnauthorized(c, "invalid_token", "Invalid access token")
		}
	}
}

// refresh implements the expired-access branch: a verified refresh cookie
// whose hash matches the stored value buys a new access token, delivered
// only as a cookie. The refresh token itself is not rotated.
func (m *SessionMiddleware) refresh(c *gin.Context) (user.User, bool) {
	raw, err := c.Cookie(RefreshTokenCookie)

	if err != nil || raw == "" {
		abortUnauthorized(c, "session_expired", "Session expired, please login again")
		return user.User{}, false
	}

	claims, err := m.jwt.VerifyRefreshToken(raw)

	if err != nil {
		abortUnauthorized(c, "session_expired", "Session expired, please login again")
		return user.User{}, false
	}

	u, err := m.users.GetByIDWithRefreshToken(c.Request.Context(), claims.UserID)

	if err != nil || u.RefreshTokenHash == "" || u.RefreshTokenHash != m.jwt.HashRefreshToken(raw) {
		// a cleared or overwritten stored token invalidates this one even
		// though its signature is still good
		abortUnauthorized(c, "invalid_refresh", "Invalid refresh token")
		return user.User{}, false
	}

	access, err := m.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)

	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "internal_error",
				"message": "Could not refresh session",
			},
		})
		return user.User{}, false
	}

	SetAccessCookie(c, m.cfg, access, m.jwt.AccessTTL())

	// strip the sensitive field before the user reaches handlers
	u.RefreshTokenHash = ""

	return u, true
}

func (m *SessionMiddleware) attach(c *gin.Context, u user.User, allowed func(user.User) bool) {
	if allowed != nil && !allowed(u) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": gin.H{
				"code":    "forbidden",
				"message": "Access denied. Admin privileges required",
			},
		})
		return
	}

	c.Set(ctxUserKey, u)
	c.Set(ctxUserIDKey, u.ID)
	c.Set(ctxEmailKey, u.Email)
	c.Set(ctxRoleKey, u.Role)

	c.Next()
}

// accessTokenFrom prefers the cookie; the Authorization header is the
// fallback for non-browser clients.
func accessTokenFrom(c *gin.Context) string {
	if v, err := c.Cookie(AccessTokenCookie); err == nil && v != "" {
		return v
	}

	authHeader := c.GetHeader("Authorization")

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
