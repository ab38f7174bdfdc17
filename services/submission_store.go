package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"conference-management-api/config"
	"conference-management-api/models"
)

// submissionStore centralizes aggregate loading and the version-checked write
// every workflow command goes through. Services embed one instance; tests
// override now and sendMail directly.
type submissionStore struct {
	db       *gorm.DB
	now      func() time.Time
	sendMail func(to []string, subject, html string) error
}

func newSubmissionStore(db *gorm.DB) submissionStore {
	if db == nil {
		db = config.DB
	}
	return submissionStore{
		db:       db,
		now:      time.Now,
		sendMail: config.SendMail,
	}
}

// load fetches the full aggregate: submission row, author list, reviewer
// assignments, proceedings record with revisions, and availability slots.
func (st submissionStore) load(ctx context.Context, submissionID int) (*models.Submission, error) {
	var sub models.Submission
	err := st.db.WithContext(ctx).
		Preload("Authors", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Preload("Reviewers").
		Preload("Proceedings").
		Preload("Proceedings.Revisions", func(db *gorm.DB) *gorm.DB { return db.Order("version ASC") }).
		Preload("Availability").
		Where("submission_id = ? AND delete_at IS NULL", submissionID).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load submission %d: %w", submissionID, err)
	}
	return &sub, nil
}

// transitionRecord carries the bookkeeping for one committed command: who ran
// it, the audit action name, the status before the command, and any extra row
// writes that must land in the same transaction.
type transitionRecord struct {
	actorID   int
	action    string
	oldStatus models.SubmissionStatus
	reason    *string
	clientIP  string
	children  func(tx *gorm.DB) error
}

// commitTransition persists one command atomically: the version-guarded
// submission row, the command's child rows, a status history entry when the
// displayed status changed, the notification outbox rows, and an audit entry.
// Emails queued by the transaction are delivered after commit and never block
// or roll back the command.
func (st submissionStore) commitTransition(ctx context.Context, sub *models.Submission, rec transitionRecord) error {
	now := st.now()

	var queued []mailDelivery
	err := st.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := st.saveHeader(tx, sub, now); err != nil {
			return err
		}
		if rec.children != nil {
			if err := rec.children(tx); err != nil {
				return err
			}
		}
		if err := st.recordStatusChange(tx, sub, rec, now); err != nil {
			return err
		}
		mail, err := st.queueNotifications(tx, sub, rec.actorID, now)
		if err != nil {
			return err
		}
		queued = mail
		return st.recordAudit(tx, sub, rec, now)
	})
	if err != nil {
		return err
	}

	if len(queued) > 0 {
		go st.deliverQueuedEmails(persistentContext(ctx), queued)
	}
	return nil
}

// saveHeader writes the submission row guarded by the version read at load
// time. Zero rows affected means another writer committed first.
func (st submissionStore) saveHeader(tx *gorm.DB, sub *models.Submission, now time.Time) error {
	res := tx.Model(&models.Submission{}).
		Where("submission_id = ? AND version = ?", sub.SubmissionID, sub.Version).
		Updates(map[string]interface{}{
			"title":                   sub.Title,
			"abstract":                sub.Abstract,
			"discipline":              sub.Discipline,
			"research_type":           sub.ResearchType,
			"academic_level":          sub.AcademicLevel,
			"presentation_type":       sub.PresentationType,
			"is_student_research":     sub.IsStudentResearch,
			"status":                  sub.Status,
			"review_round":            sub.ReviewRound,
			"editor_id":               sub.EditorID,
			"decision":                sub.Decision,
			"decision_comments":       sub.DecisionComments,
			"decided_by":              sub.DecidedBy,
			"decided_at":              sub.DecidedAt,
			"submitted_at":            sub.SubmittedAt,
			"presented_at":            sub.PresentedAt,
			"withdrawn_at":            sub.WithdrawnAt,
			"availability_notes":      sub.AvailabilityNotes,
			"availability_updated_at": sub.AvailabilityUpdatedAt,
			"version":                 sub.Version + 1,
			"update_at":               now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update submission %d: %w", sub.SubmissionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentModification
	}
	sub.Version++
	sub.UpdateAt = &now
	return nil
}

func (st submissionStore) recordStatusChange(tx *gorm.DB, sub *models.Submission, rec transitionRecord, now time.Time) error {
	if rec.oldStatus == sub.Status {
		return nil
	}
	old := string(rec.oldStatus)
	entry := models.SubmissionStatusHistory{
		SubmissionID: sub.SubmissionID,
		OldStatus:    &old,
		NewStatus:    string(sub.Status),
		ChangedBy:    rec.actorID,
		Reason:       rec.reason,
		CreatedAt:    now,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record status history: %w", err)
	}
	return nil
}

func (st submissionStore) recordAudit(tx *gorm.DB, sub *models.Submission, rec transitionRecord, now time.Time) error {
	var oldValues, newValues *string
	if rec.oldStatus != sub.Status {
		if rec.oldStatus != "" {
			if b, err := json.Marshal(map[string]string{"status": string(rec.oldStatus)}); err == nil {
				s := string(b)
				oldValues = &s
			}
		}
		if b, err := json.Marshal(map[string]string{"status": string(sub.Status)}); err == nil {
			s := string(b)
			newValues = &s
		}
	}
	entry := models.AuditLog{
		UserID:       rec.actorID,
		Action:       rec.action,
		EntityType:   "submission",
		EntityID:     &sub.SubmissionID,
		EntityNumber: &sub.SubmissionNumber,
		OldValues:    oldValues,
		NewValues:    newValues,
		Description:  rec.reason,
		IPAddress:    rec.clientIP,
		CreatedAt:    now,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record audit log: %w", err)
	}
	return nil
}
