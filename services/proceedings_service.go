package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"conference-management-api/models"
)

// ProceedingsService runs the proceedings sub-machine. Commands follow the
// same load, transition, version-guarded commit cycle as the primary review
// workflow; the sub-record and its revision rows ride in the same transaction.
type ProceedingsService struct {
	store submissionStore
}

// NewProceedingsService creates the service. Passing nil uses the global
// database connection.
func NewProceedingsService(db *gorm.DB) *ProceedingsService {
	return &ProceedingsService{store: newSubmissionStore(db)}
}

// Invite opens the sub-machine for a presented submission. A nil deadline
// defaults to the standard response window.
func (s *ProceedingsService) Invite(ctx context.Context, submissionID, actorID int, deadline *time.Time, clientIP string) (*models.Submission, error) {
	return s.transition(ctx, submissionID, "invite_to_proceedings", actorID, nil, clientIP, func(sub *models.Submission) error {
		return sub.InviteToProceedings(actorID, deadline, s.store.now())
	})
}

// Respond records the corresponding author's answer to the invitation.
// Declining is terminal for the sub-machine but keeps the record for the
// conference archive.
func (s *ProceedingsService) Respond(ctx context.Context, submissionID, actorID int, accepted bool, comments *string, clientIP string) (*models.Submission, error) {
	return s.transition(ctx, submissionID, "respond_to_proceedings_invitation", actorID, comments, clientIP, func(sub *models.Submission) error {
		return sub.RespondToProceedingsInvitation(accepted, comments, s.store.now())
	})
}

// SubmitPaper files the full proceedings paper after an accepted invitation.
func (s *ProceedingsService) SubmitPaper(ctx context.Context, submissionID, actorID int, paperTitle string, fileID *int, clientIP string) (*models.Submission, error) {
	return s.transition(ctx, submissionID, "submit_proceedings_paper", actorID, nil, clientIP, func(sub *models.Submission) error {
		return sub.SubmitProceedingsPaper(paperTitle, fileID, actorID, s.store.now())
	})
}

// AssignEditor moves a submitted proceedings paper under review.
func (s *ProceedingsService) AssignEditor(ctx context.Context, submissionID, editorID, actorID int, clientIP string) (*models.Submission, error) {
	if _, err := s.store.lookupUser(ctx, editorID); err != nil {
		return nil, err
	}
	return s.transition(ctx, submissionID, "assign_proceedings_editor", actorID, nil, clientIP, func(sub *models.Submission) error {
		return sub.AssignProceedingsEditor(editorID, s.store.now())
	})
}

// AddRevision appends a numbered revision to the proceedings paper.
func (s *ProceedingsService) AddRevision(ctx context.Context, submissionID, actorID int, fileID *int, comments *string, clientIP string) (*models.Submission, error) {
	return s.transition(ctx, submissionID, "add_proceedings_revision", actorID, nil, clientIP, func(sub *models.Submission) error {
		_, err := sub.AddProceedingsRevision(fileID, comments, actorID, s.store.now())
		return err
	})
}

// Decide records the proceedings editorial decision.
func (s *ProceedingsService) Decide(ctx context.Context, submissionID, actorID int, decision string, comments *string, revisionDeadline *time.Time, clientIP string) (*models.Submission, error) {
	return s.transition(ctx, submissionID, "make_proceedings_decision", actorID, comments, clientIP, func(sub *models.Submission) error {
		return sub.MakeProceedingsDecision(decision, comments, revisionDeadline, actorID, s.store.now())
	})
}

// Publish records the final publication metadata. This closes the sub-machine.
func (s *ProceedingsService) Publish(ctx context.Context, submissionID, actorID int, volume, pages, doi *string, clientIP string) (*models.Submission, error) {
	return s.transition(ctx, submissionID, "publish_proceedings", actorID, nil, clientIP, func(sub *models.Submission) error {
		return sub.PublishProceedings(volume, pages, doi, actorID, s.store.now())
	})
}

// Status projects the current proceedings state, including submissions that
// were never invited.
func (s *ProceedingsService) Status(ctx context.Context, submissionID int) (models.ProceedingsStatusSummary, error) {
	sub, err := s.store.load(ctx, submissionID)
	if err != nil {
		return models.ProceedingsStatusSummary{}, err
	}
	return sub.ProceedingsStatus(), nil
}

func (s *ProceedingsService) transition(ctx context.Context, submissionID int, action string, actorID int, reason *string, clientIP string, mutate func(*models.Submission) error) (*models.Submission, error) {
	sub, err := s.store.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	oldStatus := sub.Status
	if err := mutate(sub); err != nil {
		return nil, err
	}
	err = s.store.commitTransition(ctx, sub, transitionRecord{
		actorID:   actorID,
		action:    action,
		oldStatus: oldStatus,
		reason:    reason,
		clientIP:  clientIP,
		children: func(tx *gorm.DB) error {
			return persistProceedingsRecord(tx, sub)
		},
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// persistProceedingsRecord writes the proceedings sub-record and any new
// revision rows. The record row is saved without cascading so revision inserts
// stay explicit.
func persistProceedingsRecord(tx *gorm.DB, sub *models.Submission) error {
	rec := sub.Proceedings
	if rec == nil {
		return nil
	}
	rec.SubmissionID = sub.SubmissionID

	if rec.ProceedingsID == 0 {
		if err := tx.Omit("Revisions").Create(rec).Error; err != nil {
			return fmt.Errorf("failed to create proceedings record: %w", err)
		}
	} else {
		if err := tx.Omit("Revisions").Save(rec).Error; err != nil {
			return fmt.Errorf("failed to save proceedings record: %w", err)
		}
	}

	for i := range rec.Revisions {
		rev := &rec.Revisions[i]
		if rev.RevisionID != 0 {
			continue
		}
		rev.ProceedingsID = rec.ProceedingsID
		if err := tx.Create(rev).Error; err != nil {
			return fmt.Errorf("failed to create proceedings revision: %w", err)
		}
	}
	return nil
}
