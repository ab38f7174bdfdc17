package services

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"conference-management-api/models"
)

// mailDelivery is one email owed by a committed transaction. The outbox row
// already exists; delivery flips its email_sent flag.
type mailDelivery struct {
	notificationID int
	to             []string
	subject        string
	html           string
}

// queueNotifications fans the aggregate's pending events out to one outbox row
// per recipient, honoring each recipient's channel preferences. Recipients
// with the email channel enabled are returned for post-commit delivery.
// email_sent = false always means an email is still owed, so rows for
// recipients who opted out of email are created already marked sent.
func (st submissionStore) queueNotifications(tx *gorm.DB, sub *models.Submission, triggeredBy int, now time.Time) ([]mailDelivery, error) {
	events := sub.DrainEvents()
	if len(events) == 0 {
		return nil, nil
	}

	idSet := make(map[int]struct{})
	for _, ev := range events {
		for _, id := range ev.Recipients {
			if id != 0 {
				idSet[id] = struct{}{}
			}
		}
	}
	if len(idSet) == 0 {
		return nil, nil
	}
	ids := make([]int, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	var users []models.User
	if err := tx.Where("user_id IN ? AND delete_at IS NULL", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load notification recipients: %w", err)
	}
	byID := make(map[int]models.User, len(users))
	for _, u := range users {
		byID[u.UserID] = u
	}

	var trigger *int
	if triggeredBy != 0 {
		trigger = &triggeredBy
	}

	var queued []mailDelivery
	for _, ev := range events {
		for _, id := range ev.Recipients {
			user, ok := byID[id]
			if !ok {
				continue
			}
			if !user.NotifyInApp && !user.NotifyEmail {
				continue
			}

			wantEmail := user.NotifyEmail && strings.TrimSpace(user.Email) != ""
			row := models.Notification{
				UserID:              user.UserID,
				EventType:           ev.Type,
				Title:               ev.Title,
				Message:             ev.Message,
				RelatedSubmissionID: &sub.SubmissionID,
				TriggeredBy:         trigger,
				IsRead:              false,
				EmailSent:           !wantEmail,
				CreateAt:            now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return nil, fmt.Errorf("failed to queue notification for user %d: %w", user.UserID, err)
			}
			if wantEmail {
				queued = append(queued, mailDelivery{
					notificationID: row.NotificationID,
					to:             []string{user.Email},
					subject:        ev.Title,
					html:           buildWorkflowEmailHTML(ev.Title, user.FullName(), ev.Message),
				})
			}
		}
	}
	return queued, nil
}

// deliverQueuedEmails runs after commit, usually on its own goroutine. A send
// failure is logged and the outbox row keeps email_sent = false so the
// reminder scan can retry it later.
func (st submissionStore) deliverQueuedEmails(ctx context.Context, queued []mailDelivery) {
	for _, m := range queued {
		if err := st.sendMail(m.to, m.subject, m.html); err != nil {
			log.Printf("workflow email send failed (subject=%q to=%v): %v", m.subject, m.to, err)
			continue
		}
		if err := st.db.WithContext(ctx).Model(&models.Notification{}).
			Where("notification_id = ?", m.notificationID).
			Update("email_sent", true).Error; err != nil {
			log.Printf("failed to mark notification %d as emailed: %v", m.notificationID, err)
		}
	}
}

// notifyUser writes a single outbox row outside a workflow transaction and
// attempts the email immediately. Used by the reminder scan.
func (st submissionStore) notifyUser(ctx context.Context, userID int, eventType, title, message string, relatedSubmissionID *int) error {
	user, err := st.lookupUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.NotifyInApp && !user.NotifyEmail {
		return nil
	}

	wantEmail := user.NotifyEmail && strings.TrimSpace(user.Email) != ""
	row := models.Notification{
		UserID:              user.UserID,
		EventType:           eventType,
		Title:               title,
		Message:             message,
		RelatedSubmissionID: relatedSubmissionID,
		IsRead:              false,
		EmailSent:           !wantEmail,
		CreateAt:            st.now(),
	}
	if err := st.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create notification for user %d: %w", user.UserID, err)
	}
	if wantEmail {
		st.deliverQueuedEmails(ctx, []mailDelivery{{
			notificationID: row.NotificationID,
			to:             []string{user.Email},
			subject:        title,
			html:           buildWorkflowEmailHTML(title, user.FullName(), message),
		}})
	}
	return nil
}

func buildWorkflowEmailHTML(subject, recipientName, message string) string {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = "Participant"
	}

	escapedSubject := template.HTMLEscapeString(subject)
	escapedGreeting := template.HTMLEscapeString(fmt.Sprintf("Dear %s,", name))
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(strings.ReplaceAll(escapedMessage, "\r\n", "\n"), "\r", "\n")
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
    <p style="margin:0 0 16px 0;font-size:16px;line-height:1.7;color:#111827;">%s</p>
    <p style="margin:0 0 0 0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
  </div>
</div>
</body>
</html>`, escapedSubject, escapedGreeting, escapedMessage)
}

// persistentContext detaches the request context so post-commit work such as
// email delivery survives the HTTP handler returning.
func persistentContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
