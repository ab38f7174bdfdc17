package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"conference-management-api/models"
	"conference-management-api/services"
)

// ===================== PRESENTER AVAILABILITY =====================

// isLinkedAuthor reports whether the user holds any author row on the
// submission.
func isLinkedAuthor(sub *models.Submission, userID int) bool {
	for _, a := range sub.Authors {
		if a.UserID != nil && *a.UserID == userID {
			return true
		}
	}
	return false
}

type AvailabilityUpdateRequest struct {
	Cells        map[string]map[string]models.AvailabilityCellUpdate `json:"cells"`
	GeneralNotes *string                                             `json:"general_notes"`
}

// UpdateAvailability merges a partial grid update for the submission's
// presenters. Cells absent from the payload keep their stored values.
func UpdateAvailability(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AvailabilityUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := services.NewSubmissionService(nil).Load(c.Request.Context(), submissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	if !isLinkedAuthor(sub, userID) && roleID != roleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the submission's authors may update availability"})
		return
	}

	svc := services.NewAvailabilityService(nil)
	view, err := svc.Update(c.Request.Context(), submissionID, userID, req.Cells, req.GeneralNotes, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"availability": view,
	})
}

// GetAvailability returns the full grid plus the conflict summary used by
// session schedulers.
func GetAvailability(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	sub, err := services.NewSubmissionService(nil).Load(c.Request.Context(), submissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	if !canViewSubmission(sub, userID, roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this submission"})
		return
	}

	svc := services.NewAvailabilityService(nil)
	view, err := svc.Get(c.Request.Context(), submissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"availability": view,
	})
}
