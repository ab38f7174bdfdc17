package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"conference-management-api/models"
	"conference-management-api/services"
)

// Role IDs as seeded in the roles table.
const (
	roleUser   = 1
	roleEditor = 2
	roleAdmin  = 3
)

func getCurrentUserID(c *gin.Context) (int, bool) {
	if v, ok := c.Get("userID"); ok {
		switch t := v.(type) {
		case int:
			return t, true
		case int64:
			return int(t), true
		case float64:
			return int(t), true
		case uint:
			return int(t), true
		}
	}
	return 0, false
}

func getCurrentRoleID(c *gin.Context) (int, bool) {
	if v, ok := c.Get("roleID"); ok {
		switch t := v.(type) {
		case int:
			return t, true
		case int64:
			return int(t), true
		case float64:
			return int(t), true
		case uint:
			return int(t), true
		}
	}
	return 0, false
}

// parseIDParam reads a positive integer path parameter. It writes the 400
// response itself so handlers can bail with a bare return.
func parseIDParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// respondWorkflowError maps the engine and service error kinds to HTTP codes:
// not-found 404, guard and version conflicts 409, payload violations 422,
// everything unexpected 500. Binding errors are handled before this point.
func respondWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{
			"error":     err.Error(),
			"retryable": true,
		})
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrDuplicateReviewer),
		errors.Is(err, models.ErrCapacityExceeded),
		errors.Is(err, models.ErrConflictOfInterest),
		errors.Is(err, models.ErrInvalidReviewerState),
		errors.Is(err, models.ErrInsufficientReviews):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		log.Printf("workflow request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// canViewSubmission reports whether the actor may read the submission:
// any linked author, the assigned editor or reviewers, and staff roles.
func canViewSubmission(sub *models.Submission, userID, roleID int) bool {
	if roleID == roleEditor || roleID == roleAdmin {
		return true
	}
	for _, id := range sub.AssociatedUserIDs() {
		if id == userID {
			return true
		}
	}
	return false
}

// isSubmissionOwner reports whether the actor is the corresponding author.
func isSubmissionOwner(sub *models.Submission, userID int) bool {
	return sub.UserID == userID
}

// requireOwnerOrAdmin enforces the author-side mutation rule. It writes the
// 403 response itself.
func requireOwnerOrAdmin(c *gin.Context, sub *models.Submission, userID, roleID int) bool {
	if isSubmissionOwner(sub, userID) || roleID == roleAdmin {
		return true
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "Only the corresponding author may perform this action"})
	return false
}

// requireAssignedEditorOrAdmin enforces the editor-side rule: the assigned
// editor or an admin. It writes the 403 response itself.
func requireAssignedEditorOrAdmin(c *gin.Context, sub *models.Submission, userID, roleID int) bool {
	if roleID == roleAdmin {
		return true
	}
	if sub.EditorID != nil && *sub.EditorID == userID {
		return true
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "Only the assigned editor may perform this action"})
	return false
}
