package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plumekit/plume/middleware"
	"github.com/plumekit/plume/models"
	"github.com/plumekit/plume/services"
	"github.com/plumekit/plume/utils"
)

const tokenLifetime = 72 * time.Hour

// AuthController handles registration, login, and profile endpoints.
type AuthController struct {
	users *services.UserService
}

// NewAuthController creates an AuthController.
func NewAuthController(users *services.UserService) *AuthController {
	return &AuthController{users: users}
}

// Register creates a local account with a bcrypt password hash and issues a JWT.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Username string `json:"username" binding:"required,min=3,max=64"`
		Password string `json:"password" binding:"required,min=6,max=72"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	username := strings.TrimSpace(req.Username)
	if !validUsername(username) {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username may only contain letters, digits, '-' and '_'")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user, err := a.users.Create(strings.ToLower(strings.TrimSpace(req.Email)), username, hash)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			utils.Error(ctx, http.StatusConflict, 40901, "email already registered")
		case errors.Is(err, services.ErrUsernameTaken):
			utils.Error(ctx, http.StatusConflict, 40902, "username already taken")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		}
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Login verifies credentials by email or username and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Identity string `json:"identity" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	identity := strings.TrimSpace(req.Identity)
	user, err := a.users.GetByEmail(strings.ToLower(identity))
	if errors.Is(err, services.ErrNotFound) {
		user, err = a.users.GetByUsername(identity)
	}
	if err != nil || !user.IsActive || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid credentials")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(tokenLifetime)
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	user, err := a.users.Get(middleware.ViewerID(ctx))
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}
	utils.Success(ctx, user)
}

// UpdateProfile applies partial changes to the authenticated user's profile.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	var req struct {
		Email     *string `json:"email"`
		Username  *string `json:"username"`
		Bio       *string `json:"bio"`
		AvatarURL *string `json:"avatar_url"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	user, err := a.users.Get(middleware.ViewerID(ctx))
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	in := services.UpdateUserInput{Email: req.Email, Username: req.Username, AvatarURL: req.AvatarURL}
	if req.Bio != nil {
		clean := utils.Sanitize(*req.Bio)
		in.Bio = &clean
	}
	updated, err := a.users.Update(user, in)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			utils.Error(ctx, http.StatusConflict, 40901, "email already registered")
		case errors.Is(err, services.ErrUsernameTaken):
			utils.Error(ctx, http.StatusConflict, 40902, "username already taken")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to update profile")
		}
		return
	}

	utils.Success(ctx, updated)
}

func validUsername(s string) bool {
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '-' || r == '_' {
			continue
		}
		return false
	}
	return s != ""
}

// canModerate reports whether the context role may act on foreign content.
func canModerate(ctx *gin.Context) bool {
	role := ctx.GetString(middleware.ContextRoleKey)
	return role == models.RoleAdmin || role == models.RoleModerator
}

// isAdmin reports whether the context role is admin.
func isAdmin(ctx *gin.Context) bool {
	return ctx.GetString(middleware.ContextRoleKey) == models.RoleAdmin
}
