package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"conference-management-api/config"
	"conference-management-api/models"
)

// ===================== CONFERENCE MANAGEMENT =====================

// GetConferences lists conferences, newest year first. Optional ?status=
// filter.
func GetConferences(c *gin.Context) {
	status := c.Query("status")

	query := config.DB.Model(&models.Conference{}).Where("delete_at IS NULL")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var conferences []models.Conference
	if err := query.Order("year DESC").Find(&conferences).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conferences"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"conferences": conferences,
		"total":       len(conferences),
	})
}

// GetConference returns one conference.
func GetConference(c *gin.Context) {
	conferenceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var conference models.Conference
	if err := config.DB.
		Where("conference_id = ? AND delete_at IS NULL", conferenceID).
		First(&conference).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conference not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"conference": conference,
	})
}

type ConferenceRequest struct {
	Year      int        `json:"year" binding:"required"`
	Name      string     `json:"name" binding:"required"`
	Location  *string    `json:"location"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Status    string     `json:"status"`
}

func validConferenceStatus(status string) bool {
	switch status {
	case models.ConferencePlanning, models.ConferenceOpen, models.ConferenceClosed, models.ConferenceCompleted:
		return true
	}
	return false
}

// CreateConference creates a conference edition. Admin only.
func CreateConference(c *gin.Context) {
	var req ConferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Status == "" {
		req.Status = models.ConferencePlanning
	}
	if !validConferenceStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conference status"})
		return
	}

	now := time.Now()
	conference := models.Conference{
		Year:      req.Year,
		Name:      req.Name,
		Location:  req.Location,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    req.Status,
		CreateAt:  &now,
		UpdateAt:  &now,
	}

	if err := config.DB.Create(&conference).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create conference"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"conference": conference,
	})
}

type ConferenceUpdateRequest struct {
	Name      *string    `json:"name"`
	Location  *string    `json:"location"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Status    *string    `json:"status"`
}

// UpdateConference edits conference metadata and status. Admin only.
func UpdateConference(c *gin.Context) {
	conferenceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ConferenceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var conference models.Conference
	if err := config.DB.
		Where("conference_id = ? AND delete_at IS NULL", conferenceID).
		First(&conference).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conference not found"})
		return
	}

	updates := map[string]interface{}{"update_at": time.Now()}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Location != nil {
		updates["location"] = req.Location
	}
	if req.StartDate != nil {
		updates["start_date"] = req.StartDate
	}
	if req.EndDate != nil {
		updates["end_date"] = req.EndDate
	}
	if req.Status != nil {
		if !validConferenceStatus(*req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conference status"})
			return
		}
		updates["status"] = *req.Status
	}

	if err := config.DB.Model(&conference).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update conference"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"conference": conference,
	})
}

// ===================== CONFERENCE REGISTRATION =====================

type RegistrationRequest struct {
	RegistrationType string `json:"registration_type" binding:"required"`
}

func validRegistrationType(t string) bool {
	switch t {
	case models.RegistrationAttendee, models.RegistrationPresenter, models.RegistrationStudent:
		return true
	}
	return false
}

// RegisterForConference registers the caller for an open conference. One
// active registration per user per conference.
func RegisterForConference(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conferenceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validRegistrationType(req.RegistrationType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid registration type"})
		return
	}

	var conference models.Conference
	if err := config.DB.
		Where("conference_id = ? AND delete_at IS NULL", conferenceID).
		First(&conference).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conference not found"})
		return
	}
	if !conference.IsOpen() {
		c.JSON(http.StatusConflict, gin.H{"error": "Conference is not open for registration"})
		return
	}

	var existing int64
	config.DB.Model(&models.ConferenceRegistration{}).
		Where("conference_id = ? AND user_id = ? AND delete_at IS NULL", conferenceID, userID).
		Count(&existing)
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Already registered for this conference"})
		return
	}

	now := time.Now()
	registration := models.ConferenceRegistration{
		ConferenceID:     conferenceID,
		UserID:           userID,
		RegistrationType: req.RegistrationType,
		CreateAt:         &now,
		UpdateAt:         &now,
	}
	if err := config.DB.Create(&registration).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"registration": registration,
	})
}

// GetMyRegistrations lists the caller's registrations.
func GetMyRegistrations(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var registrations []models.ConferenceRegistration
	if err := config.DB.Preload("Conference").
		Where("user_id = ? AND delete_at IS NULL", userID).
		Order("create_at DESC").
		Find(&registrations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch registrations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"registrations": registrations,
		"total":         len(registrations),
	})
}

// GetConferenceRegistrations lists registrations for a conference. Admin only.
// Optional ?type= and ?confirmed= filters.
func GetConferenceRegistrations(c *gin.Context) {
	conferenceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	query := config.DB.Preload("User").
		Where("conference_id = ? AND delete_at IS NULL", conferenceID)

	if t := c.Query("type"); t != "" {
		query = query.Where("registration_type = ?", t)
	}
	if confirmed := c.Query("confirmed"); confirmed != "" {
		if v, err := strconv.ParseBool(confirmed); err == nil {
			if v {
				query = query.Where("confirmed_at IS NOT NULL")
			} else {
				query = query.Where("confirmed_at IS NULL")
			}
		}
	}

	var registrations []models.ConferenceRegistration
	if err := query.Order("create_at DESC").Find(&registrations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch registrations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"registrations": registrations,
		"total":         len(registrations),
	})
}

// ConfirmRegistration stamps a registration as confirmed. Admin only.
func ConfirmRegistration(c *gin.Context) {
	registrationID, ok := parseIDParam(c, "registration_id")
	if !ok {
		return
	}

	now := time.Now()
	result := config.DB.Model(&models.ConferenceRegistration{}).
		Where("registration_id = ? AND delete_at IS NULL AND confirmed_at IS NULL", registrationID).
		Updates(map[string]interface{}{"confirmed_at": now, "update_at": now})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm registration"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Registration not found or already confirmed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Registration confirmed"})
}

// CancelRegistration soft deletes the caller's own registration. Admins may
// cancel any registration.
func CancelRegistration(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	registrationID, ok := parseIDParam(c, "registration_id")
	if !ok {
		return
	}

	var registration models.ConferenceRegistration
	if err := config.DB.
		Where("registration_id = ? AND delete_at IS NULL", registrationID).
		First(&registration).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Registration not found"})
		return
	}
	if registration.UserID != userID && roleID != roleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "You may only cancel your own registration"})
		return
	}

	now := time.Now()
	if err := config.DB.Model(&registration).
		Updates(map[string]interface{}{"delete_at": now, "update_at": now}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel registration"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Registration cancelled"})
}
