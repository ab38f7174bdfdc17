package models

import (
	"strings"
	"time"
)

type User struct {
	UserID      int     `gorm:"primaryKey;column:user_id" json:"user_id"`
	Prefix      *string `gorm:"column:prefix" json:"prefix,omitempty"`
	UserFname   string  `gorm:"column:user_fname" json:"user_fname"`
	UserLname   string  `gorm:"column:user_lname" json:"user_lname"`
	Email       string  `gorm:"column:email;unique" json:"email"`
	Password    string  `gorm:"column:password" json:"-"`
	RoleID      int     `gorm:"column:role_id" json:"role_id"`
	Institution *string `gorm:"column:institution" json:"institution,omitempty"`
	Department  *string `gorm:"column:department" json:"department,omitempty"`
	Tel         *string `gorm:"column:tel" json:"tel,omitempty"`

	// Notification preferences consulted by the dispatcher before fan-out.
	NotifyEmail bool `gorm:"column:notify_email;default:true" json:"notify_email"`
	NotifyInApp bool `gorm:"column:notify_in_app;default:true" json:"notify_in_app"`

	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Role Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

type Role struct {
	RoleID   int        `gorm:"primaryKey;column:role_id" json:"role_id"`
	Role     string     `gorm:"column:role" json:"role"`
	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}

func (Role) TableName() string {
	return "roles"
}

// FullName joins prefix and name parts for display and email bodies.
func (u *User) FullName() string {
	parts := make([]string, 0, 3)
	if u.Prefix != nil && strings.TrimSpace(*u.Prefix) != "" {
		parts = append(parts, strings.TrimSpace(*u.Prefix))
	}
	if strings.TrimSpace(u.UserFname) != "" {
		parts = append(parts, strings.TrimSpace(u.UserFname))
	}
	if strings.TrimSpace(u.UserLname) != "" {
		parts = append(parts, strings.TrimSpace(u.UserLname))
	}
	return strings.Join(parts, " ")
}
