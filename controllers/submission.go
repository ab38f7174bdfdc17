package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"conference-management-api/config"
	"conference-management-api/models"
	"conference-management-api/services"
)

// ===================== SUBMISSION MANAGEMENT =====================

type CreateSubmissionRequest struct {
	ConferenceID     int     `json:"conference_id" binding:"required"`
	Title            string  `json:"title" binding:"required"`
	Abstract         *string `json:"abstract"`
	Discipline       string  `json:"discipline"`
	ResearchType     string  `json:"research_type"`
	AcademicLevel    string  `json:"academic_level"`
	PresentationType string  `json:"presentation_type"`
	IsStudentAuthor  bool    `json:"is_student_author"`
}

// CreateSubmission creates a draft submission with the caller as
// corresponding author.
func CreateSubmission(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewSubmissionService(nil)
	sub, err := svc.Create(c.Request.Context(), userID, services.CreateSubmissionInput{
		ConferenceID:     req.ConferenceID,
		Title:            req.Title,
		Abstract:         req.Abstract,
		Discipline:       req.Discipline,
		ResearchType:     req.ResearchType,
		AcademicLevel:    req.AcademicLevel,
		PresentationType: req.PresentationType,
		CreatorIsStudent: req.IsStudentAuthor,
	}, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"submission": sub,
	})
}

// GetSubmissions lists submissions. Regular users see their own; editors see
// the ones assigned to them plus their own; admins see everything.
func GetSubmissions(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	status := c.Query("status")
	conferenceID := c.Query("conference_id")

	query := config.DB.Model(&models.Submission{}).
		Preload("Authors").
		Preload("Conference").
		Where("delete_at IS NULL")

	switch roleID {
	case roleAdmin:
		// no scoping
	case roleEditor:
		query = query.Where("user_id = ? OR editor_id = ?", userID, userID)
	default:
		query = query.Where("user_id = ?", userID)
	}

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if conferenceID != "" {
		if id, err := strconv.Atoi(conferenceID); err == nil {
			query = query.Where("conference_id = ?", id)
		}
	}

	var submissions []models.Submission
	if err := query.Order("create_at DESC").Find(&submissions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch submissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"submissions": submissions,
		"total":       len(submissions),
	})
}

// GetSubmission returns the full aggregate: authors, reviewers, proceedings
// record with revisions, and the availability grid.
func GetSubmission(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	svc := services.NewSubmissionService(nil)
	sub, err := svc.Load(c.Request.Context(), submissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	if !canViewSubmission(sub, userID, roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this submission"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": sub,
	})
}

type UpdateDetailsRequest struct {
	Title    *string `json:"title"`
	Abstract *string `json:"abstract"`
}

// UpdateSubmissionDetails edits title and abstract on a draft.
func UpdateSubmissionDetails(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewSubmissionService(nil)
	sub, err := svc.Load(c.Request.Context(), submissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	if !requireOwnerOrAdmin(c, sub, userID, roleID) {
		return
	}

	updated, err := svc.UpdateDetails(c.Request.Context(), submissionID, userID, req.Title, req.Abstract, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": updated,
	})
}

type UpdateClassificationRequest struct {
	Discipline       *string `json:"discipline"`
	ResearchType     *string `json:"research_type"`
	AcademicLevel    *string `json:"academic_level"`
	PresentationType *string `json:"presentation_type"`
}

// UpdateSubmissionClassification applies partial classification changes.
// Classification freezes once the submission is accepted.
func UpdateSubmissionClassification(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateClassificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewSubmissionService(nil)
	sub, err := svc.Load(c.Request.Context(), submissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	if !requireOwnerOrAdmin(c, sub, userID, roleID) {
		return
	}

	updated, err := svc.UpdateClassification(c.Request.Context(), submissionID, userID, models.ClassificationUpdate{
		Discipline:       req.Discipline,
		ResearchType:     req.ResearchType,
		AcademicLevel:    req.AcademicLevel,
		PresentationType: req.PresentationType,
	}, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": updated,
	})
}

// DeleteSubmission soft deletes a draft. Anything past draft leaves the
// pipeline through Withdraw instead, so the audit trail survives.
func DeleteSubmission(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	svc := services.NewSubmissionService(nil)
	sub, err := svc.Load(c.Request.Context(), submissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	if !requireOwnerOrAdmin(c, sub, userID, roleID) {
		return
	}
	if sub.Status != models.StatusDraft {
		c.JSON(http.StatusConflict, gin.H{"error": "Only draft submissions can be deleted"})
		return
	}

	now := time.Now()
	if err := config.DB.Model(&models.Submission{}).
		Where("submission_id = ?", submissionID).
		Updates(map[string]interface{}{"delete_at": now, "update_at": now}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete submission"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Submission deleted"})
}

// GetSubmissionStatusHistory returns the status trail, newest first.
func GetSubmissionStatusHistory(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	svc := services.NewSubmissionService(nil)
	sub, err := svc.Load(c.Request.Context(), submissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	if !canViewSubmission(sub, userID, roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this submission"})
		return
	}

	var history []models.SubmissionStatusHistory
	if err := config.DB.
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		Find(&history).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch status history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"history": history,
		"total":   len(history),
	})
}
