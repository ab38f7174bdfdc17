package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"conference-management-api/services"
)

// ===================== AUTHOR & PRESENTER MANAGEMENT =====================

type AuthorRequest struct {
	UserID          *int    `json:"user_id"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Email           *string `json:"email"`
	Institution     string  `json:"institution"`
	IsStudentAuthor bool    `json:"is_student_author"`
}

func (r AuthorRequest) toInput() services.AuthorInput {
	return services.AuthorInput{
		UserID:          r.UserID,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Email:           r.Email,
		Institution:     r.Institution,
		IsStudentAuthor: r.IsStudentAuthor,
	}
}

// AddCoAuthor appends a co-author row. Either user_id references a platform
// user or the contact fields describe an external collaborator.
func AddCoAuthor(c *gin.Context) {
	mutateAuthorList(c, "coauthor")
}

// AddSponsor appends a faculty sponsor row. Sponsors never count toward the
// student-research flag or conflict-of-interest checks.
func AddSponsor(c *gin.Context) {
	mutateAuthorList(c, "sponsor")
}

func mutateAuthorList(c *gin.Context, role string) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AuthorRequest
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

	if role == "sponsor" {
		sub, err = svc.AddSponsor(c.Request.Context(), submissionID, userID, req.toInput(), c.ClientIP())
	} else {
		sub, err = svc.AddCoAuthor(c.Request.Context(), submissionID, userID, req.toInput(), c.ClientIP())
	}
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"submission": sub,
	})
}

// RemoveAuthor drops a co-author or sponsor row. Removing a presenter clears
// their presenter designation with the row.
func RemoveAuthor(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	authorID, ok := parseIDParam(c, "author_id")
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

	updated, err := svc.RemoveAuthor(c.Request.Context(), submissionID, userID, authorID, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": updated,
	})
}

type SetPresentersRequest struct {
	AuthorIDs []int `json:"author_ids" binding:"required"`
}

// SetPresenters replaces the presenter set with the listed author rows.
func SetPresenters(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SetPresentersRequest
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

	updated, err := svc.SetPresenters(c.Request.Context(), submissionID, userID, req.AuthorIDs, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": updated,
	})
}

type SetPrimaryPresenterRequest struct {
	AuthorID int `json:"author_id" binding:"required"`
}

// SetPrimaryPresenter marks one current presenter as primary. The previous
// primary, if any, is cleared in the same update.
func SetPrimaryPresenter(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SetPrimaryPresenterRequest
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

	updated, err := svc.SetPrimaryPresenter(c.Request.Context(), submissionID, userID, req.AuthorID, c.ClientIP())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": updated,
	})
}
