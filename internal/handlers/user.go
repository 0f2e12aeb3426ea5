package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/timecard-api/internal/dto"
	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetUser returns a user visible to the caller.
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateUser changes the caller's own profile. Only name and avatar are accepted.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type UpdateUserRequest struct {
		Name   *string `json:"name"`
		Avatar *string `json:"avatar"`
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(userID, c.Param("id"), services.UpdateUserInput{
		Name:   req.Name,
		Avatar: req.Avatar,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteUser deletes the caller's account and everything it owns.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(userID, c.Param("id")); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// SetPremium is a back-office endpoint guarded by the admin token.
func (h *UserHandler) SetPremium(c *gin.Context) {
	type SetPremiumRequest struct {
		IsPremium     *bool      `json:"isPremium" binding:"required"`
		PremiumExpiry *time.Time `json:"premiumExpiry"`
	}

	var req SetPremiumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.SetPremium(c.Param("id"), *req.IsPremium, req.PremiumExpiry)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}
