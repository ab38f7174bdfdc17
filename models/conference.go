package models

import "time"

// Conference statuses.
const (
	ConferencePlanning  = "planning"
	ConferenceOpen      = "open"
	ConferenceClosed    = "closed"
	ConferenceCompleted = "completed"
)

type Conference struct {
	ConferenceID int        `gorm:"primaryKey;column:conference_id" json:"conference_id"`
	Year         int        `gorm:"column:year" json:"year"`
	Name         string     `gorm:"column:name" json:"name"`
	Location     *string    `gorm:"column:location" json:"location,omitempty"`
	StartDate    *time.Time `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate      *time.Time `gorm:"column:end_date" json:"end_date,omitempty"`
	Status       string     `gorm:"column:status" json:"status"`
	CreateAt     *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt     *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (Conference) TableName() string {
	return "conferences"
}

// IsOpen reports whether the conference accepts registrations and new
// submissions.
func (c *Conference) IsOpen() bool {
	return c.Status == ConferenceOpen
}

// Registration types.
const (
	RegistrationAttendee  = "attendee"
	RegistrationPresenter = "presenter"
	RegistrationStudent   = "student"
)

type ConferenceRegistration struct {
	RegistrationID   int        `gorm:"primaryKey;column:registration_id" json:"registration_id"`
	ConferenceID     int        `gorm:"column:conference_id" json:"conference_id"`
	UserID           int        `gorm:"column:user_id" json:"user_id"`
	RegistrationType string     `gorm:"column:registration_type" json:"registration_type"`
	ConfirmedAt      *time.Time `gorm:"column:confirmed_at" json:"confirmed_at,omitempty"`
	CreateAt         *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt         *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt         *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Conference Conference `gorm:"foreignKey:ConferenceID" json:"conference,omitempty"`
	User       User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ConferenceRegistration) TableName() string {
	return "conference_registrations"
}

// IsConfirmed reports whether the registration has been confirmed.
func (r *ConferenceRegistration) IsConfirmed() bool {
	return r.ConfirmedAt != nil
}
