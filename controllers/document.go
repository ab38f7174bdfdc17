package controllers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"conference-management-api/config"
	"conference-management-api/models"
	"conference-management-api/services"
)

// ===================== SUBMISSION DOCUMENTS =====================

const maxDocumentSize = int64(10 * 1024 * 1024) // 10MB

var allowedDocumentExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

func validSubmissionDocumentType(t string) bool {
	switch t {
	case models.DocumentPaper, models.DocumentRevisedPaper,
		models.DocumentProceedingsPaper, models.DocumentSupplementary:
		return true
	}
	return false
}

func uploadBasePath() string {
	uploadPath := os.Getenv("UPLOAD_PATH")
	if uploadPath == "" {
		uploadPath = "./uploads"
	}
	return uploadPath
}

// UploadSubmissionDocument stores a paper file for a submission. The stored
// filename is a uuid so uploads never collide or leak the original name.
func UploadSubmissionDocument(c *gin.Context) {
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
	if sub.Status == models.StatusWithdrawn {
		c.JSON(http.StatusConflict, gin.H{"error": "Cannot upload documents to a withdrawn submission"})
		return
	}

	documentType := c.PostForm("document_type")
	if documentType == "" {
		documentType = models.DocumentPaper
	}
	if !validSubmissionDocumentType(documentType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document type"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	if file.Size > maxDocumentSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File size exceeds 10MB limit"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedDocumentExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File type not allowed (pdf, doc, docx)"})
		return
	}

	storedName := uuid.New().String() + ext
	dir := filepath.Join(uploadBasePath(), "submissions")
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create upload directory"})
		return
	}
	fullPath := filepath.Join(dir, storedName)

	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	now := time.Now()
	fileUpload := models.FileUpload{
		OriginalName: file.Filename,
		StoredPath:   fullPath,
		FolderType:   "submission",
		FileSize:     file.Size,
		MimeType:     file.Header.Get("Content-Type"),
		IsPublic:     false,
		UploadedBy:   userID,
		UploadedAt:   now,
		CreateAt:     now,
		UpdateAt:     now,
	}
	if err := config.DB.Create(&fileUpload).Error; err != nil {
		os.Remove(fullPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file info"})
		return
	}

	document := models.SubmissionDocument{
		SubmissionID:     submissionID,
		FileID:           fileUpload.FileID,
		DocumentType:     documentType,
		OriginalFilename: file.Filename,
		StoredFilename:   storedName,
		FileType:         strings.TrimPrefix(ext, "."),
		UploadedBy:       userID,
		UploadedAt:       &now,
		CreateAt:         &now,
		UpdateAt:         &now,
	}
	if err := config.DB.Create(&document).Error; err != nil {
		os.Remove(fullPath)
		config.DB.Delete(&fileUpload)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save document record"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "File uploaded successfully",
		"document": document,
		"file":     fileUpload,
	})
}

// GetSubmissionDocuments lists a submission's documents.
func GetSubmissionDocuments(c *gin.Context) {
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

	var documents []models.SubmissionDocument
	if err := config.DB.Preload("File").
		Where("submission_id = ? AND delete_at IS NULL", submissionID).
		Order("create_at DESC").
		Find(&documents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"documents": documents,
		"total":     len(documents),
	})
}

// DownloadDocument streams the stored file under its original filename.
func DownloadDocument(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	documentID, ok := parseIDParam(c, "document_id")
	if !ok {
		return
	}

	var document models.SubmissionDocument
	if err := config.DB.Preload("File").
		Where("document_id = ? AND delete_at IS NULL", documentID).
		First(&document).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	sub, err := services.NewSubmissionService(nil).Load(c.Request.Context(), document.SubmissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	if !canViewSubmission(sub, userID, roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	fullPath := document.File.StoredPath
	if fullPath == "" {
		fullPath = filepath.Join(uploadBasePath(), "submissions", document.StoredFilename)
	}
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", document.OriginalFilename))
	c.Header("Content-Type", "application/octet-stream")

	c.File(fullPath)
}

// DeleteDocument soft deletes a document row. The stored file stays on disk
// for the audit trail.
func DeleteDocument(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	documentID, ok := parseIDParam(c, "document_id")
	if !ok {
		return
	}

	var document models.SubmissionDocument
	if err := config.DB.
		Where("document_id = ? AND delete_at IS NULL", documentID).
		First(&document).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	sub, err := services.NewSubmissionService(nil).Load(c.Request.Context(), document.SubmissionID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	if !requireOwnerOrAdmin(c, sub, userID, roleID) {
		return
	}

	now := time.Now()
	if err := config.DB.Model(&document).
		Updates(map[string]interface{}{"delete_at": now, "update_at": now}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Document deleted successfully"})
}
