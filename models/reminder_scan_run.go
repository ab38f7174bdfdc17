package models

import "time"

const (
	ReminderScanRunStatusRunning = "running"
	ReminderScanRunStatusSuccess = "success"
	ReminderScanRunStatusFailed  = "failed"
)

// ReminderScanRun records one execution of the deadline reminder scan.
type ReminderScanRun struct {
	ID uint `json:"id" gorm:"primaryKey;autoIncrement"`

	TriggerSource string     `json:"trigger_source" gorm:"type:varchar(64);not null"`
	Status        string     `json:"status" gorm:"type:enum('running','success','failed');not null;default:'running'"`
	ErrorMessage  *string    `json:"error_message" gorm:"type:text"`
	StartedAt     time.Time  `json:"started_at" gorm:"column:started_at;autoCreateTime"`
	FinishedAt    *time.Time `json:"finished_at" gorm:"column:finished_at"`

	ReviewReminders     uint `json:"review_reminders" gorm:"column:review_reminders;not null;default:0"`
	InvitationReminders uint `json:"invitation_reminders" gorm:"column:invitation_reminders;not null;default:0"`
	EmailsRetried       uint `json:"emails_retried" gorm:"column:emails_retried;not null;default:0"`
	EmailsRecovered     uint `json:"emails_recovered" gorm:"column:emails_recovered;not null;default:0"`
}

func (ReminderScanRun) TableName() string { return "reminder_scan_runs" }
