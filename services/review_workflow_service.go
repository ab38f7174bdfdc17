package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"gorm.io/gorm"

	"conference-management-api/models"
)

// defaultReviewDueDays is how long an invited reviewer gets when the editor
// does not pick an explicit deadline. Overridable via REVIEW_DUE_DAYS.
const defaultReviewDueDays = 21

// ReviewWorkflowService runs the primary review workflow: every command loads
// the aggregate, applies one pure transition and commits the result under the
// optimistic version check.
type ReviewWorkflowService struct {
	store submissionStore
}

// NewReviewWorkflowService creates the service. Passing nil uses the global
// database connection.
func NewReviewWorkflowService(db *gorm.DB) *ReviewWorkflowService {
	return &ReviewWorkflowService{store: newSubmissionStore(db)}
}

// SubmitForReview moves a draft into the review pipeline.
func (s *ReviewWorkflowService) SubmitForReview(ctx context.Context, submissionID, actorID int, clientIP string) (*models.Submission, error) {
	sub, err := s.store.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	oldStatus := sub.Status
	if err := sub.SubmitForReview(s.store.now()); err != nil {
		return nil, err
	}
	err = s.store.commitTransition(ctx, sub, transitionRecord{
		actorID:   actorID,
		action:    "submit_for_review",
		oldStatus: oldStatus,
		clientIP:  clientIP,
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// AssignEditor puts a submitted paper under review with the given editor.
func (s *ReviewWorkflowService) AssignEditor(ctx context.Context, submissionID, editorID, actorID int, clientIP string) (*models.Submission, error) {
	if _, err := s.store.lookupUser(ctx, editorID); err != nil {
		return nil, err
	}
	sub, err := s.store.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	oldStatus := sub.Status
	if err := sub.AssignEditor(editorID, s.store.now()); err != nil {
		return nil, err
	}
	err = s.store.commitTransition(ctx, sub, transitionRecord{
		actorID:   actorID,
		action:    "assign_editor",
		oldStatus: oldStatus,
		clientIP:  clientIP,
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// AddReviewer invites a platform user to review. The reviewer's institution is
// snapshotted for the conflict-of-interest check; a nil deadline defaults to
// REVIEW_DUE_DAYS from now.
func (s *ReviewWorkflowService) AddReviewer(ctx context.Context, submissionID, reviewerID, actorID int, dueAt *time.Time, clientIP string) (*models.Submission, error) {
	reviewer, err := s.store.lookupUser(ctx, reviewerID)
	if err != nil {
		return nil, err
	}
	sub, err := s.store.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	now := s.store.now()
	if dueAt == nil {
		due := now.AddDate(0, 0, reviewDueDays())
		dueAt = &due
	}

	oldStatus := sub.Status
	if _, err := sub.AddReviewer(reviewerID, derefString(reviewer.Institution), actorID, dueAt, now); err != nil {
		return nil, err
	}
	err = s.store.commitTransition(ctx, sub, transitionRecord{
		actorID:   actorID,
		action:    "add_reviewer",
		oldStatus: oldStatus,
		clientIP:  clientIP,
		children: func(tx *gorm.DB) error {
			return persistReviewerRows(tx, sub)
		},
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// RespondToReviewInvitation records the reviewer's accept or decline.
func (s *ReviewWorkflowService) RespondToReviewInvitation(ctx context.Context, submissionID, reviewerID int, accept bool, clientIP string) (*models.Submission, error) {
	sub, err := s.store.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	oldStatus := sub.Status
	if err := sub.RespondToReviewInvitation(reviewerID, accept, s.store.now()); err != nil {
		return nil, err
	}
	err = s.store.commitTransition(ctx, sub, transitionRecord{
		actorID:   reviewerID,
		action:    "respond_to_review_invitation",
		oldStatus: oldStatus,
		clientIP:  clientIP,
		children: func(tx *gorm.DB) error {
			return persistReviewerRows(tx, sub)
		},
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// SubmitReview stores a completed review's scores and recommendation.
func (s *ReviewWorkflowService) SubmitReview(ctx context.Context, submissionID, reviewerID int, payload models.ReviewPayload, clientIP string) (*models.Submission, error) {
	sub, err := s.store.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	oldStatus := sub.Status
	if err := sub.SubmitReview(reviewerID, payload, s.store.now()); err != nil {
		return nil, err
	}
	err = s.store.commitTransition(ctx, sub, transitionRecord{
		actorID:   reviewerID,
		action:    "submit_review",
		oldStatus: oldStatus,
		clientIP:  clientIP,
		children: func(tx *gorm.DB) error {
			return persistReviewerRows(tx, sub)
		},
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// MakeDecision records the editor decision for the current round.
func (s *ReviewWorkflowService) MakeDecision(ctx context.Context, submissionID, actorID int, decision string, comments *string, clientIP string) (*models.Submission, error) {
	sub, err := s.store.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	oldStatus := sub.Status
	if err := sub.MakeDecision(decision, comments, actorID, s.store.now()); err != nil {
		return nil, err
	}
	err = s.store.commitTransition(ctx, sub, transitionRecord{
		actorID:   actorID,
		action:    "make_decision",
		oldStatus: oldStatus,
		reason:    comments,
		clientIP:  clientIP,
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// SubmitRevision records that the authors answered a revision request.
func (s *ReviewWorkflowService) SubmitRevision(ctx context.Context, submissionID, actorID int, clientIP string) (*models.Submission, error) {
	sub, err := s.store.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	oldStatus := sub.Status
	if err := sub.SubmitRevision(s.store.now()); err != nil {
		return nil, err
	}
	err = s.store.commitTransition(ctx, sub, transitionRecord{
		actorID:   actorID,
		action:    "submit_revision",
		oldStatus: oldStatus,
		clientIP:  clientIP,
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ResumeReview reopens review after a revision round.
func (s *ReviewWorkflowService) ResumeReview(ctx context.Context, submissionID, actorID int, clientIP string) (*models.Submission, error) {
	sub, err := s.store.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	oldStatus := sub.Status
	if err := sub.ResumeReview(s.store.now()); err != nil {
		return nil, err
	}
	err = s.store.commitTransition(ctx, sub, transitionRecord{
		actorID:   actorID,
		action:    "resume_review",
		oldStatus: oldStatus,
		clientIP:  clientIP,
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Withdraw retires the submission at the authors' request.
func (s *ReviewWorkflowService) Withdraw(ctx context.Context, submissionID, actorID int, reason *string, clientIP string) (*models.Submission, error) {
	sub, err := s.store.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	oldStatus := sub.Status
	if err := sub.Withdraw(s.store.now()); err != nil {
		return nil, err
	}
	err = s.store.commitTransition(ctx, sub, transitionRecord{
		actorID:   actorID,
		action:    "withdraw_submission",
		oldStatus: oldStatus,
		reason:    reason,
		clientIP:  clientIP,
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// MarkPresented records the conference presentation, opening proceedings
// eligibility.
func (s *ReviewWorkflowService) MarkPresented(ctx context.Context, submissionID, actorID int, clientIP string) (*models.Submission, error) {
	sub, err := s.store.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	oldStatus := sub.Status
	if err := sub.MarkPresented(s.store.now()); err != nil {
		return nil, err
	}
	err = s.store.commitTransition(ctx, sub, transitionRecord{
		actorID:   actorID,
		action:    "mark_presented",
		oldStatus: oldStatus,
		clientIP:  clientIP,
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// persistReviewerRows writes the reviewer assignments back: new assignments
// are inserted, existing ones saved in full.
func persistReviewerRows(tx *gorm.DB, sub *models.Submission) error {
	for i := range sub.Reviewers {
		r := &sub.Reviewers[i]
		r.SubmissionID = sub.SubmissionID
		var err error
		if r.AssignmentID == 0 {
			err = tx.Create(r).Error
		} else {
			err = tx.Save(r).Error
		}
		if err != nil {
			return fmt.Errorf("failed to persist reviewer assignment: %w", err)
		}
	}
	return nil
}

func reviewDueDays() int {
	if v := os.Getenv("REVIEW_DUE_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			return days
		}
	}
	return defaultReviewDueDays
}
