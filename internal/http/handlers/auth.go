package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"net/http"

	"github.com/fadebook/fadebook/internal/config"
	"github.com/fadebook/fadebook/internal/domain/user"
	"github.com/fadebook/fadebook/internal/http/middlewares"
	"github.com/fadebook/fadebook/internal/repo/postgres"
	"github.com/fadebook/fadebook/internal/security"
)

type UserStore interface {
	Create(ctx context.Context, p postgres.CreateUserParams) (user.User, error)
	GetByEmailWithPassword(ctx context.Context, email string) (user.User, error)
	SetRefreshToken(ctx context.Context, id, tokenHash string) error
	ClearRefreshToken(ctx context.Context, id string) error
}

type TokenIssuer interface {
	GenerateAccessToken(userID, email, role string) (string, error)
	GenerateRefreshToken(userID string) (raw string, expiresAt time.Time, err error)
	HashRefreshToken(raw string) string
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

type AuthHandler struct {
	users UserStore
	jwt   TokenIssuer
	cfg   config.Config
}

func NewAuthHandler(users UserStore, jwt TokenIssuer, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		users: users,
		jwt:   jwt,
		cfg:   cfg,
	}
}

type RegisterRequest struct {
	FullName struct {
		FirstName string `json:"firstName" binding:"required,min=2,max=50"`
		LastName  string `json:"lastName" binding:"required,min=2,max=50"`
	} `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=CUSTOMER ADMIN BARBER"`
}

// Normalize trims the identity fields so the 2-50 length rules are
// re-checked against what the store will persist, not the padded input.
func (r *RegisterRequest) Normalize() {
	r.FullName.FirstName = strings.TrimSpace(r.FullName.FirstName)
	r.FullName.LastName = strings.TrimSpace(r.FullName.LastName)
	r.Email = strings.TrimSpace(r.Email)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"omitempty"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Role = strings.TrimSpace(r.Role)
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	role := req.Role

	if role == "" {
		// default role for new users
		role = user.RoleCustomer
	}

	u, err := h.users.Create(cctx, postgres.CreateUserParams{
		FirstName: req.FullName.FirstName,
		LastName:  req.FullName.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      role,
	})

	if err != nil {
		if err == postgres.ErrEmailTaken {
			RespondConflict(ctx, "email_taken", "Email already registered")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	h.issueSession(ctx, cctx, u, http.StatusCreated)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmailWithPassword(cctx, req.Email)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondUnAuthorized(ctx, "invalid_credentials", "Invalid email or password")
			return
		}
		// a store failure is not a credential problem
		RespondInternal(ctx, "Could not log in")
		return
	}

	// role-aware login: an unknown or mismatched role is indistinguishable
	// from unknown credentials
	if req.Role != "" && (!user.ValidRole(strings.ToUpper(req.Role)) || !strings.EqualFold(foundUser.Role, req.Role)) {
		RespondUnAuthorized(ctx, "invalid_credentials", "Invalid email or password")
		return
	}

	if !foundUser.IsActive {
		RespondForbidden(ctx, "account_inactive", "Your account has been deactivated. Please contact support.")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Invalid email or password")
		return
	}

	foundUser.PasswordHash = ""

	h.issueSession(ctx, cctx, foundUser, http.StatusOK)
}

// Logout runs behind RequireAuth, so the user is already on the context.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.users.ClearRefreshToken(cctx, u.ID)

	if err != nil {
		RespondInternal(ctx, "Could not log out")
		return
	}

	middlewares.ClearAuthCookies(ctx, h.cfg)

	ctx.JSON(http.StatusOK, gin.H{})
}

// issueSession mints both tokens, persists the refresh-token hash
// (overwriting the previous session's) and delivers the pair via cookies
// and the response body.
func (h *AuthHandler) issueSession(ctx *gin.Context, cctx context.Context, u user.User, status int) {
	accessToken, err := h.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	refreshToken, _, err := h.jwt.GenerateRefreshToken(u.ID)

	if err != nil {
		RespondInternal(ctx, "Could not generate refresh token")
		return
	}

	err = h.users.SetRefreshToken(cctx, u.ID, h.jwt.HashRefreshToken(refreshToken))

	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	middlewares.SetAccessCookie(ctx, h.cfg, accessToken, h.jwt.AccessTTL())
	middlewares.SetRefreshCookie(ctx, h.cfg, refreshToken, h.jwt.RefreshTTL())

	ctx.JSON(status, gin.H{
		"user": u,
		"tokens": gin.H{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
			"expiresIn":    int(h.jwt.AccessTTL().Seconds()),
		},
	})
}
