package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"conference-management-api/models"
)

var (
	ErrReminderScanAlreadyRunning = errors.New("reminder scan already running")
	ErrReminderScanRunNotFound    = errors.New("reminder scan run not found")
)

const (
	// How far ahead of a deadline reminders start firing.
	reviewReminderWindowDays     = 3
	invitationReminderWindowDays = 7

	// Minimum gap between two reminders for the same record.
	reminderBackoff = 24 * time.Hour

	// Unsent notification emails older than this are abandoned.
	emailRetryMaxAge    = 72 * time.Hour
	emailRetryBatchSize = 50
)

type ReminderScanSummary struct {
	ReviewReminders     int `json:"review_reminders"`
	InvitationReminders int `json:"invitation_reminders"`
	EmailsRetried       int `json:"emails_retried"`
	EmailsRecovered     int `json:"emails_recovered"`
}

type ReminderScanInput struct {
	TriggerSource string
	LockName      string
	RecordRun     bool
}

// ReminderService runs the periodic deadline scan: reviews coming due or
// overdue, proceedings invitations nearing their response deadline, and
// notification emails whose first delivery attempt failed.
type ReminderService struct {
	store submissionStore
}

// NewReminderService creates the service. Passing nil uses the global
// database connection.
func NewReminderService(db *gorm.DB) *ReminderService {
	return &ReminderService{store: newSubmissionStore(db)}
}

func (s *ReminderService) Run(ctx context.Context, input *ReminderScanInput) (*ReminderScanSummary, error) {
	if input == nil {
		return nil, errors.New("input is nil")
	}
	summary := &ReminderScanSummary{}

	release, err := s.acquireLock(ctx, input.LockName)
	if err != nil {
		return nil, err
	}
	if release != nil {
		defer func() {
			if relErr := release(); relErr != nil {
				log.Printf("failed to release reminder scan lock: %v", relErr)
			}
		}()
	}

	var run *models.ReminderScanRun
	if input.RecordRun {
		run, err = s.startRun(ctx, input.TriggerSource)
		if err != nil {
			return nil, err
		}
	}

	var finalErr error
	if run != nil {
		defer func() {
			if finalErr != nil {
				if err := s.finishRun(ctx, run.ID, models.ReminderScanRunStatusFailed, summary, finalErr); err != nil {
					log.Printf("failed to mark reminder scan failure: %v", err)
				}
			} else {
				if err := s.finishRun(ctx, run.ID, models.ReminderScanRunStatusSuccess, summary, nil); err != nil {
					log.Printf("failed to mark reminder scan success: %v", err)
				}
			}
		}()
	}

	if err := s.remindReviewDeadlines(ctx, summary); err != nil {
		finalErr = err
		return summary, err
	}
	if err := s.remindInvitationDeadlines(ctx, summary); err != nil {
		finalErr = err
		return summary, err
	}
	if err := s.retryUnsentEmails(ctx, summary); err != nil {
		finalErr = err
		return summary, err
	}
	return summary, nil
}

// remindReviewDeadlines notifies reviewers whose unfinished reviews are coming
// due or already overdue, at most once per backoff window.
func (s *ReminderService) remindReviewDeadlines(ctx context.Context, summary *ReminderScanSummary) error {
	now := s.store.now()
	windowEnd := now.AddDate(0, 0, reviewReminderWindowDays)
	backoffCutoff := now.Add(-reminderBackoff)

	var assignments []models.ReviewerAssignment
	err := s.store.db.WithContext(ctx).
		Where("status IN ? AND due_at IS NOT NULL AND due_at <= ?",
			[]string{models.ReviewerInvited, models.ReviewerAccepted}, windowEnd).
		Where("last_reminded_at IS NULL OR last_reminded_at < ?", backoffCutoff).
		Order("due_at ASC").
		Find(&assignments).Error
	if err != nil {
		return fmt.Errorf("failed to load due reviewer assignments: %w", err)
	}
	if len(assignments) == 0 {
		return nil
	}

	numbers, err := s.submissionNumbers(ctx, assignmentSubmissionIDs(assignments))
	if err != nil {
		return err
	}

	for i := range assignments {
		a := &assignments[i]
		number := numbers[a.SubmissionID]
		dueDate := a.DueAt.Format("2006-01-02")

		var eventType, title, message string
		if a.IsOverdue(now) {
			eventType = "review_overdue"
			title = "Review overdue"
			message = fmt.Sprintf("Your review for submission %s was due on %s. Please submit it as soon as possible.", number, dueDate)
		} else {
			eventType = "review_due_soon"
			title = "Review due soon"
			message = fmt.Sprintf("Your review for submission %s is due on %s.", number, dueDate)
		}

		if err := s.store.notifyUser(ctx, a.ReviewerID, eventType, title, message, &a.SubmissionID); err != nil {
			log.Printf("reminder scan: failed to notify reviewer %d: %v", a.ReviewerID, err)
			continue
		}
		if err := s.store.db.WithContext(ctx).Model(&models.ReviewerAssignment{}).
			Where("assignment_id = ?", a.AssignmentID).
			Update("last_reminded_at", now).Error; err != nil {
			log.Printf("reminder scan: failed to stamp assignment %d: %v", a.AssignmentID, err)
			continue
		}
		summary.ReviewReminders++
	}
	return nil
}

// remindInvitationDeadlines nudges corresponding authors whose proceedings
// invitations are close to, or past, their response deadline.
func (s *ReminderService) remindInvitationDeadlines(ctx context.Context, summary *ReminderScanSummary) error {
	now := s.store.now()
	windowEnd := now.AddDate(0, 0, invitationReminderWindowDays)
	backoffCutoff := now.Add(-reminderBackoff)

	var records []models.ProceedingsRecord
	err := s.store.db.WithContext(ctx).
		Where("phase = ? AND invitation_deadline <= ?", models.PhaseInvitationSent, windowEnd).
		Where("last_reminded_at IS NULL OR last_reminded_at < ?", backoffCutoff).
		Order("invitation_deadline ASC").
		Find(&records).Error
	if err != nil {
		return fmt.Errorf("failed to load pending proceedings invitations: %w", err)
	}

	for i := range records {
		rec := &records[i]
		sub, err := s.store.load(ctx, rec.SubmissionID)
		if err != nil {
			log.Printf("reminder scan: failed to load submission %d: %v", rec.SubmissionID, err)
			continue
		}
		corresponding := sub.CorrespondingAuthor()
		if corresponding == nil || corresponding.UserID == nil {
			continue
		}

		deadline := rec.InvitationDeadline.Format("2006-01-02")
		var eventType, title, message string
		if rec.IsInvitationExpired(now) {
			eventType = "proceedings_invitation_expired"
			title = "Proceedings invitation expired"
			message = fmt.Sprintf("The proceedings invitation for submission %s expired on %s. Please respond so the editors can plan the volume.", sub.SubmissionNumber, deadline)
		} else {
			eventType = "proceedings_invitation_due_soon"
			title = "Proceedings invitation awaiting response"
			message = fmt.Sprintf("The proceedings invitation for submission %s awaits your response until %s.", sub.SubmissionNumber, deadline)
		}

		if err := s.store.notifyUser(ctx, *corresponding.UserID, eventType, title, message, &rec.SubmissionID); err != nil {
			log.Printf("reminder scan: failed to notify author %d: %v", *corresponding.UserID, err)
			continue
		}
		if err := s.store.db.WithContext(ctx).Model(&models.ProceedingsRecord{}).
			Where("proceedings_id = ?", rec.ProceedingsID).
			Update("last_reminded_at", now).Error; err != nil {
			log.Printf("reminder scan: failed to stamp proceedings record %d: %v", rec.ProceedingsID, err)
			continue
		}
		summary.InvitationReminders++
	}
	return nil
}

// retryUnsentEmails re-attempts notification emails whose first delivery
// failed. Recipients who turned the email channel off since are settled
// without a send.
func (s *ReminderService) retryUnsentEmails(ctx context.Context, summary *ReminderScanSummary) error {
	now := s.store.now()

	var rows []models.Notification
	err := s.store.db.WithContext(ctx).
		Where("email_sent = ? AND create_at >= ?", false, now.Add(-emailRetryMaxAge)).
		Order("create_at ASC").
		Limit(emailRetryBatchSize).
		Find(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to load unsent notifications: %w", err)
	}

	for _, n := range rows {
		user, err := s.store.lookupUser(ctx, n.UserID)
		if err != nil {
			log.Printf("reminder scan: failed to load recipient of notification %d: %v", n.NotificationID, err)
			continue
		}
		if !user.NotifyEmail || strings.TrimSpace(user.Email) == "" {
			if err := s.markEmailSent(ctx, n.NotificationID); err != nil {
				log.Printf("reminder scan: failed to settle notification %d: %v", n.NotificationID, err)
			}
			continue
		}

		summary.EmailsRetried++
		html := buildWorkflowEmailHTML(n.Title, user.FullName(), n.Message)
		if err := s.store.sendMail([]string{user.Email}, n.Title, html); err != nil {
			log.Printf("reminder scan: retry send failed for notification %d: %v", n.NotificationID, err)
			continue
		}
		if err := s.markEmailSent(ctx, n.NotificationID); err != nil {
			log.Printf("reminder scan: failed to mark notification %d emailed: %v", n.NotificationID, err)
			continue
		}
		summary.EmailsRecovered++
	}
	return nil
}

func (s *ReminderService) markEmailSent(ctx context.Context, notificationID int) error {
	return s.store.db.WithContext(ctx).Model(&models.Notification{}).
		Where("notification_id = ?", notificationID).
		Update("email_sent", true).Error
}

func (s *ReminderService) submissionNumbers(ctx context.Context, ids []int) (map[int]string, error) {
	numbers := make(map[int]string, len(ids))
	if len(ids) == 0 {
		return numbers, nil
	}
	var rows []struct {
		SubmissionID     int
		SubmissionNumber string
	}
	err := s.store.db.WithContext(ctx).Model(&models.Submission{}).
		Select("submission_id, submission_number").
		Where("submission_id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load submission numbers: %w", err)
	}
	for _, r := range rows {
		numbers[r.SubmissionID] = r.SubmissionNumber
	}
	return numbers, nil
}

func assignmentSubmissionIDs(assignments []models.ReviewerAssignment) []int {
	seen := make(map[int]struct{}, len(assignments))
	ids := make([]int, 0, len(assignments))
	for _, a := range assignments {
		if _, dup := seen[a.SubmissionID]; dup {
			continue
		}
		seen[a.SubmissionID] = struct{}{}
		ids = append(ids, a.SubmissionID)
	}
	return ids
}

func (s *ReminderService) startRun(ctx context.Context, trigger string) (*models.ReminderScanRun, error) {
	if trigger == "" {
		trigger = "unknown"
	}
	run := &models.ReminderScanRun{
		TriggerSource: trigger,
		Status:        models.ReminderScanRunStatusRunning,
	}
	if err := s.store.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (s *ReminderService) finishRun(ctx context.Context, runID uint, status string, summary *ReminderScanSummary, runErr error) error {
	updates := map[string]interface{}{
		"status":      status,
		"finished_at": s.store.now(),
	}
	if summary != nil {
		updates["review_reminders"] = summary.ReviewReminders
		updates["invitation_reminders"] = summary.InvitationReminders
		updates["emails_retried"] = summary.EmailsRetried
		updates["emails_recovered"] = summary.EmailsRecovered
	}
	if runErr != nil {
		msg := runErr.Error()
		if len(msg) > 1000 {
			msg = fmt.Sprintf("%s...", msg[:997])
		}
		updates["error_message"] = msg
	}
	res := s.store.db.WithContext(ctx).Model(&models.ReminderScanRun{}).
		Where("id = ?", runID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReminderScanRunNotFound
	}
	return nil
}

func (s *ReminderService) acquireLock(ctx context.Context, lockName string) (func() error, error) {
	if strings.TrimSpace(lockName) == "" {
		return nil, nil
	}

	var ok int
	if err := s.store.db.WithContext(ctx).Raw("SELECT GET_LOCK(?, 0)", lockName).Scan(&ok).Error; err != nil {
		return nil, err
	}
	if ok != 1 {
		return nil, ErrReminderScanAlreadyRunning
	}

	return func() error {
		var released int
		if err := s.store.db.WithContext(ctx).Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&released).Error; err != nil {
			return err
		}
		return nil
	}, nil
}
