package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"conference-management-api/models"
	"conference-management-api/services"
)

// ===================== PROCEEDINGS WORKFLOW =====================

// requireProceedingsEditorOrAdmin enforces the proceedings-side editor rule.
// The proceedings editor is independent of the primary review editor.
func requireProceedingsEditorOrAdmin(c *gin.Context, sub *models.Submission, userID, roleID int) bool {
	if roleID == roleAdmin {
		return true
	}
	if sub.Proceedings != nil && sub.Proceedings.EditorID != nil && *sub.Proceedings.EditorID == userID {
		return true
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "Only the proceedings editor may perform this action"})
	return false
}

type ProceedingsInviteRequest struct {
	Deadline *time.Time `json:"deadline"`
}

// InviteToProceedings starts the proceedings track for a presented
// submission. Default response deadline is 42 days out.
func InviteToProceedings(c *gin.Context) {
	userID, _ := getCurrentUserID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ProceedingsInviteRequest
	_ = c.ShouldBindJSON(&req)

	svc := services.NewProceedingsService(nil)
	sub, err := svc.Invite(c.Request.Context(), submissionID, userID, req.Deadline, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": sub,
	})
}

type ProceedingsResponseRequest struct {
	Accept   bool    `json:"accept"`
	Comments *string `json:"comments"`
}

// RespondToProceedingsInvitation records the authors' answer. Declining is
// terminal for the proceedings track and returns the displayed status to
// presented.
func RespondToProceedingsInvitation(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ProceedingsResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := services.NewSubmissionService(nil).Load(c.Request.Context(), submissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	if !requireOwnerOrAdmin(c, sub, userID, roleID) {
		return
	}

	svc := services.NewProceedingsService(nil)
	updated, err := svc.Respond(c.Request.Context(), submissionID, userID, req.Accept, req.Comments, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": updated,
	})
}

type ProceedingsPaperRequest struct {
	PaperTitle string `json:"paper_title" binding:"required"`
	FileID     *int   `json:"file_id"`
}

// SubmitProceedingsPaper attaches the full paper after an accepted
// invitation.
func SubmitProceedingsPaper(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ProceedingsPaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := services.NewSubmissionService(nil).Load(c.Request.Context(), submissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	if !requireOwnerOrAdmin(c, sub, userID, roleID) {
		return
	}

	svc := services.NewProceedingsService(nil)
	updated, err := svc.SubmitPaper(c.Request.Context(), submissionID, userID, req.PaperTitle, req.FileID, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": updated,
	})
}

// AssignProceedingsEditor moves a submitted proceedings paper under review.
// Admin only.
func AssignProceedingsEditor(c *gin.Context) {
	userID, _ := getCurrentUserID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AssignEditorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewProceedingsService(nil)
	sub, err := svc.AssignEditor(c.Request.Context(), submissionID, req.EditorID, userID, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": sub,
	})
}

type ProceedingsRevisionRequest struct {
	FileID   *int    `json:"file_id"`
	Comments *string `json:"comments"`
}

// AddProceedingsRevision appends the next numbered revision of the
// proceedings paper.
func AddProceedingsRevision(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ProceedingsRevisionRequest
	_ = c.ShouldBindJSON(&req)

	sub, err := services.NewSubmissionService(nil).Load(c.Request.Context(), submissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	if !requireOwnerOrAdmin(c, sub, userID, roleID) {
		return
	}

	svc := services.NewProceedingsService(nil)
	updated, err := svc.AddRevision(c.Request.Context(), submissionID, userID, req.FileID, req.Comments, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"submission": updated,
	})
}

type ProceedingsDecisionRequest struct {
	Decision         string     `json:"decision" binding:"required"`
	Comments         *string    `json:"comments"`
	RevisionDeadline *time.Time `json:"revision_deadline"`
}

// MakeProceedingsDecision records accept, reject or revision_required on the
// proceedings paper.
func MakeProceedingsDecision(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ProceedingsDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := services.NewSubmissionService(nil).Load(c.Request.Context(), submissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	if !requireProceedingsEditorOrAdmin(c, sub, userID, roleID) {
		return
	}

	svc := services.NewProceedingsService(nil)
	updated, err := svc.Decide(c.Request.Context(), submissionID, userID, req.Decision, req.Comments, req.RevisionDeadline, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": updated,
	})
}

type ProceedingsPublishRequest struct {
	Volume *string `json:"volume"`
	Pages  *string `json:"pages"`
	DOI    *string `json:"doi"`
}

// PublishProceedings stamps the accepted paper as published with its
// publication metadata. Admin only; published is the machine's only state
// with no further transition.
func PublishProceedings(c *gin.Context) {
	userID, _ := getCurrentUserID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ProceedingsPublishRequest
	_ = c.ShouldBindJSON(&req)

	svc := services.NewProceedingsService(nil)
	sub, err := svc.Publish(c.Request.Context(), submissionID, userID, req.Volume, req.Pages, req.DOI, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": sub,
	})
}

// GetProceedingsStatus returns the phase projection: human description,
// whether the authors can submit, and the next expected step. Covers
// not_eligible and never-invited submissions too.
func GetProceedingsStatus(c *gin.Context) {
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

	svc := services.NewProceedingsService(nil)
	status, err := svc.Status(c.Request.Context(), submissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"proceedings": status,
	})
}
