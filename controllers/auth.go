package controllers

import (
	"conference-management-api/config"
	"conference-management-api/middleware"
	"conference-management-api/models"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
	Message      string      `json:"message"`
}

// Login handles user authentication
func Login(c *gin.Context) {
	var req LoginRequest

	// Bind request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Find user by email
	var user models.User
	if err := config.DB.Preload("Role").
		Where("email = ? AND delete_at IS NULL", req.Email).
		First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if !verifyAndUpgradePassword(&user, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	// Generate JWT token
	token, err := generateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	refreshToken, err := issueRefreshToken(c, user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	// Response
	c.JSON(http.StatusOK, LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         user,
		Message:      "Login successful",
	})
}

// verifyAndUpgradePassword checks the password against the stored hash.
// Accounts created before hashing was introduced still hold plaintext; a
// successful plaintext match is transparently re-hashed.
func verifyAndUpgradePassword(user *models.User, password string) bool {
	if strings.HasPrefix(user.Password, "$2") {
		return CheckPasswordHash(password, user.Password)
	}
	if user.Password != password {
		return false
	}
	if hashed, err := HashPassword(password); err == nil {
		config.DB.Model(&models.User{}).
			Where("user_id = ?", user.UserID).
			Update("password", hashed)
	}
	return true
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken exchanges an active refresh token for a new token pair. The
// presented token is always revoked, so each token redeems at most once.
func RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row, secret, ok := parseRefreshToken(req.RefreshToken)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	if !row.IsActive(time.Now()) || !CheckPasswordHash(secret, row.Token) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	var user models.User
	if err := config.DB.Preload("Role").
		Where("user_id = ? AND delete_at IS NULL", row.UserID).
		First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	// Rotate: revoke the redeemed token before issuing the next pair.
	if err := revokeToken(row.TokenID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rotate session"})
		return
	}

	token, err := generateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	refreshToken, err := issueRefreshToken(c, user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":         token,
		"refresh_token": refreshToken,
	})
}

// Logout revokes the presented refresh token.
func Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := c.Get("userID")

	row, secret, ok := parseRefreshToken(req.RefreshToken)
	if !ok || row.UserID != userID.(int) || !CheckPasswordHash(secret, row.Token) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	if err := revokeToken(row.TokenID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// LogoutAllDevices revokes every active refresh token of the current user.
func LogoutAllDevices(c *gin.Context) {
	userID, _ := c.Get("userID")

	err := config.DB.Model(&models.UserToken{}).
		Where("user_id = ? AND token_type = ? AND is_revoked = 0", userID, models.TokenTypeRefresh).
		Updates(map[string]interface{}{"is_revoked": true, "updated_at": time.Now()}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out from all devices"})
}

// GetActiveSessions lists the current user's active refresh tokens.
func GetActiveSessions(c *gin.Context) {
	userID, _ := c.Get("userID")

	var sessions []models.UserToken
	err := config.DB.
		Where("user_id = ? AND token_type = ? AND is_revoked = 0 AND expires_at > ?",
			userID, models.TokenTypeRefresh, time.Now()).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// RevokeSession revokes one of the current user's sessions by token id.
func RevokeSession(c *gin.Context) {
	userID, _ := c.Get("userID")

	sessionID, err := strconv.Atoi(c.Param("session_id"))
	if err != nil || sessionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
		return
	}

	result := config.DB.Model(&models.UserToken{}).
		Where("token_id = ? AND user_id = ? AND token_type = ?", sessionID, userID, models.TokenTypeRefresh).
		Updates(map[string]interface{}{"is_revoked": true, "updated_at": time.Now()})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke session"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session revoked"})
}

// GetProfile returns current user profile
func GetProfile(c *gin.Context) {
	userID, _ := c.Get("userID")

	var user models.User
	if err := config.DB.Preload("Role").
		Where("user_id = ?", userID).
		First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// UpdateProfile updates contact details and notification preferences. Email
// and role changes go through the administrator.
func UpdateProfile(c *gin.Context) {
	type ProfileUpdateRequest struct {
		Prefix      *string `json:"prefix"`
		Tel         *string `json:"tel"`
		Institution *string `json:"institution"`
		Department  *string `json:"department"`
		NotifyEmail *bool   `json:"notify_email"`
		NotifyInApp *bool   `json:"notify_in_app"`
	}

	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := c.Get("userID")

	var user models.User
	if err := config.DB.Where("user_id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	updates := map[string]interface{}{"update_at": time.Now()}
	if req.Prefix != nil {
		updates["prefix"] = req.Prefix
	}
	if req.Tel != nil {
		updates["tel"] = req.Tel
	}
	if req.Institution != nil {
		updates["institution"] = req.Institution
	}
	if req.Department != nil {
		updates["department"] = req.Department
	}
	if req.NotifyEmail != nil {
		updates["notify_email"] = *req.NotifyEmail
	}
	if req.NotifyInApp != nil {
		updates["notify_in_app"] = *req.NotifyInApp
	}

	if err := config.DB.Model(&user).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": user})
}

// ChangePassword handles password change
func ChangePassword(c *gin.Context) {
	type PasswordChangeRequest struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required,min=8"`
	}

	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := c.Get("userID")

	// Get current user
	var user models.User
	if err := config.DB.Where("user_id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if !verifyAndUpgradePassword(&user, req.CurrentPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	hashed, err := HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	now := time.Now()
	user.Password = hashed
	user.UpdateAt = &now

	if err := config.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// generateToken creates JWT token
func generateToken(user models.User) (string, error) {
	// Get expiration hours from env
	expireHours, err := strconv.Atoi(os.Getenv("JWT_EXPIRE_HOURS"))
	if err != nil {
		expireHours = 24 // default 24 hours
	}

	// Create claims
	claims := middleware.Claims{
		UserID: user.UserID,
		Email:  user.Email,
		RoleID: user.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	// Create token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	// Sign token
	tokenString, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// issueRefreshToken creates a user_tokens row and returns "tokenID.secret".
// Only the bcrypt hash of the secret is stored, so the id half is what makes
// redemption a single-row lookup.
func issueRefreshToken(c *gin.Context, user models.User) (string, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", err
	}
	secret := hex.EncodeToString(secretBytes)

	hashed, err := HashPassword(secret)
	if err != nil {
		return "", err
	}

	expireHours, err := strconv.Atoi(os.Getenv("REFRESH_TOKEN_EXPIRE_HOURS"))
	if err != nil || expireHours <= 0 {
		expireHours = 720 // default 30 days
	}

	now := time.Now()
	row := models.UserToken{
		UserID:     user.UserID,
		TokenType:  models.TokenTypeRefresh,
		Token:      hashed,
		ExpiresAt:  now.Add(time.Duration(expireHours) * time.Hour),
		DeviceInfo: c.GetHeader("X-Device-Info"),
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := config.DB.Create(&row).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%d.%s", row.TokenID, secret), nil
}

// parseRefreshToken splits "tokenID.secret" and loads the matching row.
func parseRefreshToken(raw string) (*models.UserToken, string, bool) {
	parts := strings.SplitN(strings.TrimSpace(raw), ".", 2)
	if len(parts) != 2 {
		return nil, "", false
	}
	tokenID, err := strconv.Atoi(parts[0])
	if err != nil || tokenID <= 0 || parts[1] == "" {
		return nil, "", false
	}

	var row models.UserToken
	if err := config.DB.
		Where("token_id = ? AND token_type = ?", tokenID, models.TokenTypeRefresh).
		First(&row).Error; err != nil {
		return nil, "", false
	}
	return &row, parts[1], true
}

func revokeToken(tokenID int) error {
	return config.DB.Model(&models.UserToken{}).
		Where("token_id = ?", tokenID).
		Updates(map[string]interface{}{"is_revoked": true, "updated_at": time.Now()}).Error
}

// HashPassword hashes password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares password with hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
