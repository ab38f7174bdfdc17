package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"conference-management-api/config"
	"conference-management-api/models"
)

type userPickerEntry struct {
	UserID      int     `json:"user_id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Institution *string `json:"institution,omitempty"`
	RoleID      int     `json:"role_id"`
}

// GET /api/v1/users/search?q=smith&role=2&limit=10
//
// Powers the reviewer and co-author pickers. A hit here means the person has
// a platform identity, so authors added from this list are stored as linked
// entries rather than free-text names.
func SearchUsers(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "missing q"})
		return
	}

	limit := 10
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query("limit"))); err == nil && v > 0 && v <= 50 {
		limit = v
	}

	like := "%" + q + "%"
	query := config.DB.Model(&models.User{}).
		Where("delete_at IS NULL").
		Where("CONCAT(COALESCE(user_fname,''),' ',COALESCE(user_lname,'')) LIKE ? OR email LIKE ?", like, like)

	if roleStr := strings.TrimSpace(c.Query("role")); roleStr != "" {
		if roleID, err := strconv.Atoi(roleStr); err == nil && roleID > 0 {
			query = query.Where("role_id = ?", roleID)
		}
	}

	var users []models.User
	if err := query.Order("user_fname ASC, user_lname ASC").Limit(limit).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	out := make([]userPickerEntry, 0, len(users))
	for _, u := range users {
		out = append(out, userPickerEntry{
			UserID:      u.UserID,
			Name:        strings.TrimSpace(u.UserFname + " " + u.UserLname),
			Email:       u.Email,
			Institution: u.Institution,
			RoleID:      u.RoleID,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": out})
}

// GET /api/v1/admin/users?role=2&limit=20&offset=0
func GetUsers(c *gin.Context) {
	limit := 20
	offset := 0
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query("limit"))); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query("offset"))); err == nil && v >= 0 {
		offset = v
	}

	query := config.DB.Model(&models.User{}).Where("delete_at IS NULL")
	if roleStr := strings.TrimSpace(c.Query("role")); roleStr != "" {
		if roleID, err := strconv.Atoi(roleStr); err == nil && roleID > 0 {
			query = query.Where("role_id = ?", roleID)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	var users []models.User
	if err := query.Preload("Role").
		Order("user_fname ASC, user_lname ASC").
		Limit(limit).Offset(offset).
		Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"users":   users,
		"total":   total,
	})
}

// GET /api/v1/users/:id
func GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var user models.User
	if err := config.DB.Preload("Role").
		Where("user_id = ? AND delete_at IS NULL", id).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}
