package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/plumekit/plume/middleware"
	"github.com/plumekit/plume/services"
	"github.com/plumekit/plume/utils"
)

// UserController exposes public profiles, user search, and follow management.
type UserController struct {
	users         *services.UserService
	subscriptions *services.SubscriptionService
}

// NewUserController creates a UserController.
func NewUserController(users *services.UserService, subscriptions *services.SubscriptionService) *UserController {
	return &UserController{users: users, subscriptions: subscriptions}
}

// ListUsers returns users newest first, or a substring search over username
// and email when a query is given.
func (u *UserController) ListUsers(ctx *gin.Context) {
	page, perPage := parsePagination(ctx.Query("page"), ctx.Query("per_page"))
	offset := (page - 1) * perPage

	var (
		users interface{}
		err   error
	)
	if q := strings.TrimSpace(ctx.Query("q")); q != "" {
		users, err = u.users.Search(q, perPage, offset)
	} else {
		users, err = u.users.List(perPage, offset)
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to list users")
		return
	}
	utils.Success(ctx, gin.H{"items": users, "page": page, "per_page": perPage})
}

// GetUser returns a public profile, including whether the viewer follows it.
func (u *UserController) GetUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	user, err := u.users.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to load user")
		return
	}

	payload := gin.H{"user": user}
	if viewerID := middleware.ViewerID(ctx); viewerID != 0 && viewerID != user.ID {
		if following, err := u.subscriptions.IsSubscribed(viewerID, user.ID); err == nil {
			payload["viewer_following"] = following
		}
	}
	utils.Success(ctx, payload)
}

// ToggleFollow flips the viewer's subscription to the target user.
func (u *UserController) ToggleFollow(ctx *gin.Context) {
	targetID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if _, err := u.users.Get(targetID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to load user")
		return
	}

	following, err := u.subscriptions.Toggle(middleware.ViewerID(ctx), targetID)
	if err != nil {
		if errors.Is(err, services.ErrSelfSubscription) {
			utils.Error(ctx, http.StatusBadRequest, 40052, "you cannot follow yourself")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to toggle follow")
		return
	}
	utils.Success(ctx, gin.H{"following": following})
}

// ListSubscriptions returns the users the viewer follows, newest first.
func (u *UserController) ListSubscriptions(ctx *gin.Context) {
	users, err := u.subscriptions.ListFollowed(middleware.ViewerID(ctx))
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to list subscriptions")
		return
	}
	utils.Success(ctx, gin.H{"items": users})
}

// DeleteUser removes an account. Users may delete themselves; admins may
// delete anyone.
func (u *UserController) DeleteUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if id != middleware.ViewerID(ctx) && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40330, "you can only delete your own account")
		return
	}
	user, err := u.users.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to load user")
		return
	}
	if err := u.users.Delete(user); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50054, "failed to delete user")
		return
	}
	utils.Success(ctx, gin.H{"message": "user deleted"})
}
