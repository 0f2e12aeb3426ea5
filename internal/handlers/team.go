package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/timecard-api/internal/dto"
	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/services"
)

// TeamHandler handles team membership and the manager's roll-up.
type TeamHandler struct {
	teamService *services.TeamService
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teamService *services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

// CreateTeam creates a team managed by the caller.
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type CreateTeamRequest struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	team, err := h.teamService.CreateTeam(userID, services.CreateTeamInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTeamDTO(*team, userID))
}

// JoinTeam adds the caller to the team owning the invite code.
func (h *TeamHandler) JoinTeam(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type JoinTeamRequest struct {
		InviteCode string `json:"inviteCode" binding:"required"`
	}

	var req JoinTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	team, err := h.teamService.JoinTeam(userID, req.InviteCode)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*team, userID))
}

// LeaveTeam removes the caller from their team.
func (h *TeamHandler) LeaveTeam(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.teamService.LeaveTeam(userID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left team successfully"})
}

func (h *TeamHandler) GetTeam(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	team, err := h.teamService.GetTeam(userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*team, userID))
}

// GetMembers lists everyone on the team including the manager.
func (h *TeamHandler) GetMembers(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	members, err := h.teamService.Members(userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMemberDTOs(members))
}

// GetEmployees lists the team's employees only.
func (h *TeamHandler) GetEmployees(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	employees, err := h.teamService.Employees(userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMemberDTOs(employees))
}

// GetRollup returns per-member hours and team totals. Manager only.
func (h *TeamHandler) GetRollup(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	year, ok := queryInt(c, "year")
	if !ok {
		return
	}
	month, ok := queryInt(c, "month")
	if !ok {
		return
	}

	rollup, err := h.teamService.Rollup(c.Request.Context(), userID, c.Param("id"), services.RollupInput{
		Year:  year,
		Month: month,
		View:  services.RollupView(c.Query("view")),
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamRollupDTO(rollup, userID))
}

func (h *TeamHandler) RegenerateInviteCode(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	team, err := h.teamService.RegenerateInviteCode(userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*team, userID))
}

// RemoveMember detaches an employee from the team. Manager only.
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.teamService.RemoveMember(userID, c.Param("id"), c.Param("user_id")); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}
