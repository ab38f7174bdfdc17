package models

import "time"

// Notification is the durable outbox row, one per recipient per event. Rows
// are written in the same transaction as the state change that produced them;
// email delivery is tracked separately and retried by the reminder scan.
type Notification struct {
	NotificationID      int        `gorm:"primaryKey;column:notification_id" json:"notification_id"`
	UserID              int        `gorm:"column:user_id" json:"user_id"`
	EventType           string     `gorm:"column:event_type" json:"event_type"`
	Title               string     `gorm:"column:title" json:"title"`
	Message             string     `gorm:"column:message" json:"message"`
	RelatedSubmissionID *int       `gorm:"column:related_submission_id" json:"related_submission_id,omitempty"`
	TriggeredBy         *int       `gorm:"column:triggered_by" json:"triggered_by,omitempty"`
	IsRead              bool       `gorm:"column:is_read" json:"is_read"`
	EmailSent           bool       `gorm:"column:email_sent" json:"email_sent"`
	CreateAt            time.Time  `gorm:"column:create_at" json:"created_at"`
	UpdateAt            *time.Time `gorm:"column:update_at" json:"-"`
}

func (Notification) TableName() string { return "notifications" }

// NotificationEvent is the in-memory record a transition appends to the
// aggregate. It is fanned out to per-recipient notification rows at persist
// time; it is never stored itself.
type NotificationEvent struct {
	Type       string
	Title      string
	Message    string
	Recipients []int
}
