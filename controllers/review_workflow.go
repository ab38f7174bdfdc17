package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"conference-management-api/config"
	"conference-management-api/models"
	"conference-management-api/services"
)

// ===================== REVIEW WORKFLOW =====================

// SubmitForReview moves a draft into the review pipeline. Classification must
// be complete.
func SubmitForReview(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	svc := services.NewReviewWorkflowService(nil)
	sub, err := services.NewSubmissionService(nil).Load(c.Request.Context(), submissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	if !requireOwnerOrAdmin(c, sub, userID, roleID) {
		return
	}

	updated, err := svc.SubmitForReview(c.Request.Context(), submissionID, userID, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": updated,
	})
}

type AssignEditorRequest struct {
	EditorID int `json:"editor_id" binding:"required"`
}

// AssignEditor moves a submitted paper under review. Admin only; the assigned
// user must hold the editor role.
func AssignEditor(c *gin.Context) {
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

	svc := services.NewReviewWorkflowService(nil)
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

type AddReviewerRequest struct {
	ReviewerID int        `json:"reviewer_id" binding:"required"`
	DueAt      *time.Time `json:"due_at"`
}

// AddReviewer invites a reviewer onto a submission under review. Guards:
// duplicate reviewer, five-reviewer cap, and institutional conflict of
// interest against the author list.
func AddReviewer(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AddReviewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := services.NewSubmissionService(nil).Load(c.Request.Context(), submissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	if !requireAssignedEditorOrAdmin(c, sub, userID, roleID) {
		return
	}

	svc := services.NewReviewWorkflowService(nil)
	updated, err := svc.AddReviewer(c.Request.Context(), submissionID, req.ReviewerID, userID, req.DueAt, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"submission": updated,
	})
}

type ReviewInvitationResponse struct {
	Accept bool `json:"accept"`
}

// RespondToReviewInvitation records the caller's accept/decline on their own
// invited assignment.
func RespondToReviewInvitation(c *gin.Context) {
	userID, _ := getCurrentUserID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ReviewInvitationResponse
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewReviewWorkflowService(nil)
	sub, err := svc.RespondToReviewInvitation(c.Request.Context(), submissionID, userID, req.Accept, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": sub,
	})
}

// SubmitReview completes the caller's accepted assignment with the scored
// payload. All six scores are validated 1-5.
func SubmitReview(c *gin.Context) {
	userID, _ := getCurrentUserID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var payload models.ReviewPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewReviewWorkflowService(nil)
	sub, err := svc.SubmitReview(c.Request.Context(), submissionID, userID, payload, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": sub,
	})
}

type DecisionRequest struct {
	Decision string  `json:"decision" binding:"required"`
	Comments *string `json:"comments"`
}

// MakeDecision records the editor decision: accept, minor_revision,
// major_revision or reject. Requires at least one completed review.
func MakeDecision(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := services.NewSubmissionService(nil).Load(c.Request.Context(), submissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	if !requireAssignedEditorOrAdmin(c, sub, userID, roleID) {
		return
	}

	svc := services.NewReviewWorkflowService(nil)
	updated, err := svc.MakeDecision(c.Request.Context(), submissionID, userID, req.Decision, req.Comments, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": updated,
	})
}

// SubmitRevision records that the authors answered a revision request.
func SubmitRevision(c *gin.Context) {
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
	if !requireOwnerOrAdmin(c, sub, userID, roleID) {
		return
	}

	svc := services.NewReviewWorkflowService(nil)
	updated, err := svc.SubmitRevision(c.Request.Context(), submissionID, userID, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": updated,
	})
}

// ResumeReview reopens review after a revision, advancing the round counter
// so new reviewers can be added.
func ResumeReview(c *gin.Context) {
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
	if !requireAssignedEditorOrAdmin(c, sub, userID, roleID) {
		return
	}

	svc := services.NewReviewWorkflowService(nil)
	updated, err := svc.ResumeReview(c.Request.Context(), submissionID, userID, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": updated,
	})
}

type WithdrawRequest struct {
	Reason *string `json:"reason"`
}

// WithdrawSubmission is the author-initiated terminal exit, legal until a
// decision is recorded.
func WithdrawSubmission(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	// Reason is optional; an empty body is fine.
	var req WithdrawRequest
	_ = c.ShouldBindJSON(&req)

	sub, err := services.NewSubmissionService(nil).Load(c.Request.Context(), submissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	if !requireOwnerOrAdmin(c, sub, userID, roleID) {
		return
	}

	svc := services.NewReviewWorkflowService(nil)
	updated, err := svc.Withdraw(c.Request.Context(), submissionID, userID, req.Reason, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": updated,
	})
}

// MarkPresented records that the accepted work was presented, opening
// proceedings eligibility. Admin only.
func MarkPresented(c *gin.Context) {
	userID, _ := getCurrentUserID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	svc := services.NewReviewWorkflowService(nil)
	sub, err := svc.MarkPresented(c.Request.Context(), submissionID, userID, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": sub,
	})
}

// GetAssignedReviews lists the caller's reviewer assignments with their
// submissions, pending invitations first.
func GetAssignedReviews(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	status := c.Query("status")

	query := config.DB.Model(&models.ReviewerAssignment{}).
		Where("reviewer_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var assignments []models.ReviewerAssignment
	if err := query.Order("invited_at DESC").Find(&assignments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch review assignments"})
		return
	}

	// Attach the submission headers in one query.
	ids := make([]int, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.SubmissionID)
	}
	submissions := make(map[int]models.Submission, len(ids))
	if len(ids) > 0 {
		var subs []models.Submission
		if err := config.DB.Where("submission_id IN ? AND delete_at IS NULL", ids).Find(&subs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch review assignments"})
			return
		}
		for _, s := range subs {
			submissions[s.SubmissionID] = s
		}
	}

	type assignedReview struct {
		Assignment models.ReviewerAssignment `json:"assignment"`
		Submission models.Submission         `json:"submission"`
	}
	items := make([]assignedReview, 0, len(assignments))
	for _, a := range assignments {
		items = append(items, assignedReview{Assignment: a, Submission: submissions[a.SubmissionID]})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"reviews": items,
		"total":   len(items),
	})
}
