package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/geocoder89/chairgo/internal/domain/user"
	"github.com/geocoder89/chairgo/internal/http/middlewares"
	"github.com/geocoder89/chairgo/internal/observability"
	"github.com/geocoder89/chairgo/internal/security"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
	GetByUsernameOrEmail(ctx context.Context, login string) (user.User, error)
}

type UserWriter interface {
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, username, email, passwordHash string, role user.Role) (int64, error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID int64, username, role string) (string, error)
}

type AuthHandler struct {
	users      UserReader
	userWriter UserWriter
	tokens     TokenIssuer
	prom       *observability.Prom
}

func NewAuthHandler(users UserReader, userWriter UserWriter, tokens TokenIssuer, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{
		users:      users,
		userWriter: userWriter,
		tokens:     tokens,
		prom:       prom,
	}
}

// Self-registration always creates admins; customers are not modeled as accounts.
const registeredRole = user.RoleAdmin

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	taken, err := h.userWriter.ExistsByUsernameOrEmail(cctx, req.Username, req.Email)
	if err != nil {
		RespondInternal(ctx, "Could not create user", err)
		return
	}
	if taken {
		RespondConflict(ctx, CodeUserAlreadyExists, "User already exists")
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user", err)
		return
	}

	id, err := h.userWriter.Create(cctx, req.Username, req.Email, hash, registeredRole)

	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, user.ErrAlreadyExists) {
			RespondConflict(ctx, CodeUserAlreadyExists, "User already exists")
			return
		}

		RespondInternal(ctx, "Could not create user", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User registered successfully",
		"userId":  id,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		h.prom.ObserveLogin("invalid_input")
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	foundUser, err := h.users.GetByUsernameOrEmail(cctx, req.Username)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			h.prom.ObserveLogin("error")
			RespondInternal(ctx, "Could not log in", err)
			return
		}
		security.BurnCompare(req.Password)
		h.invalidCredentials(ctx)
		return
	}

	if err := security.CheckPassword(foundUser.PasswordHash, req.Password); err != nil {
		h.invalidCredentials(ctx)
		return
	}

	token, err := h.tokens.GenerateAccessToken(foundUser.ID, foundUser.Username, string(foundUser.Role))

	if err != nil {
		h.prom.ObserveLogin("error")
		RespondInternal(ctx, "Could not generate access token", err)
		return
	}

	h.prom.ObserveLogin("ok")
	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user":    foundUser.Public(),
	})
}

// invalidCredentials is the single response for unknown users and wrong
// passwords.
func (h *AuthHandler) invalidCredentials(ctx *gin.Context) {
	h.prom.ObserveLogin("invalid_credentials")
	RespondUnAuthorized(ctx, CodeInvalidCredentials, "Invalid credentials")
}

// Verify returns the caller's current profile. Mounted behind RequireAuth.
func (h *AuthHandler) Verify(ctx *gin.Context) {
	id, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, CodeUnauthorized, "Access token required")
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	u, err := h.users.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnAuthorized(ctx, CodeUnauthorized, "Invalid or expired token")
			return
		}
		RespondInternal(ctx, "Could not verify token", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    u.Public(),
	})
}

// Logout is an acknowledgement only; tokens are not tracked server-side.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	RespondOK(ctx, "Logged out successfully")
}
