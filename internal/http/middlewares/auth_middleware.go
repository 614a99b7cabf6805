package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/chairgo/internal/actorctx"
	"github.com/geocoder89/chairgo/internal/auth"
	"github.com/geocoder89/chairgo/internal/domain/user"
	"github.com/geocoder89/chairgo/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

// RoleLoader reads the caller's current record; the token's role claim is
// never trusted for admin decisions.
type RoleLoader interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type AuthMiddleware struct {
	jwt   TokenVerifier
	users RoleLoader
	prom  *observability.Prom
}

func NewAuthMiddleware(jwt TokenVerifier, users RoleLoader, prom *observability.Prom) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users, prom: prom}
}

func (m *AuthMiddleware) reject(c *gin.Context, status int, code, message string) {
	m.prom.ObserveAuthReject(status)
	abort(c, status, code, message)
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			m.reject(c, http.StatusUnauthorized, "unauthorized", "Access token required")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if raw == "" {
			m.reject(c, http.StatusUnauthorized, "unauthorized", "Access token required")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			m.reject(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		// Stash useful bits of identity on the context
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUsername, claims.Username)
		c.Set(CtxRole, claims.Role)

		c.Request = c.Request.WithContext(actorctx.With(c.Request.Context(), actorctx.Actor{
			UserID:   claims.UserID,
			Username: claims.Username,
			Role:     user.Role(claims.Role),
		}))

		c.Next()
	}
}

// RequireAdmin must run after RequireAuth. It reloads the caller from the
// store and only lets current admins through.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := UserIDFromContext(c)
		if !ok {
			m.reject(c, http.StatusUnauthorized, "unauthorized", "Access token required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		u, err := m.users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				m.reject(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}
			slog.Default().ErrorContext(c.Request.Context(), "role lookup failed", "user_id", id, "err", err)
			abort(c, http.StatusInternalServerError, "internal_error", "Could not verify access")
			return
		}

		if !u.Role.IsAdmin() {
			m.reject(c, http.StatusForbidden, "forbidden", "Admin access required")
			return
		}

		c.Set(CtxRole, string(u.Role))
		c.Next()
	}
}

// AdminOnly is the single gate used by every admin route.
func (m *AuthMiddleware) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{m.RequireAuth(), m.RequireAdmin()}
}

// UserIDFromContext spares handlers the context key.

func UserIDFromContext(c *gin.Context) (int64, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}
