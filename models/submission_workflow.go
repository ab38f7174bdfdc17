package models

import (
	"fmt"
	"strings"
	"time"
)

// Primary review workflow. Each transition validates the current status,
// mutates the aggregate in memory and appends notification events; callers
// persist the result and dispatch the events after commit.

// SubmitForReview moves a draft into the review pipeline.
func (s *Submission) SubmitForReview(now time.Time) error {
	if s.Status != StatusDraft {
		return newTransitionError("submit", s.Status, StatusSubmitted)
	}
	if strings.TrimSpace(s.Discipline) == "" || strings.TrimSpace(s.ResearchType) == "" ||
		strings.TrimSpace(s.AcademicLevel) == "" || strings.TrimSpace(s.PresentationType) == "" {
		return newValidationError("classification must be complete before submitting")
	}
	s.Status = StatusSubmitted
	s.SubmittedAt = &now
	s.UpdateAt = &now
	s.recomputeDerived()

	s.appendEvent("submission_submitted",
		"Submission received",
		fmt.Sprintf("Submission %s (%s) has been received and is awaiting editor assignment.", s.SubmissionNumber, s.Title),
		s.authorRecipients())
	return nil
}

// AssignEditor is legal only from submitted and moves the submission under
// review.
func (s *Submission) AssignEditor(editorID int, now time.Time) error {
	if s.Status != StatusSubmitted {
		return newTransitionError("assign editor", s.Status, StatusUnderReview)
	}
	s.Status = StatusUnderReview
	s.EditorID = &editorID
	s.UpdateAt = &now
	s.recomputeDerived()

	s.appendEvent("editor_assigned",
		"Editor assigned",
		fmt.Sprintf("An editor has been assigned to submission %s and review is underway.", s.SubmissionNumber),
		append(s.authorRecipients(), editorID))
	return nil
}

// MakeDecision records the editor decision. Legal from under_review,
// pending_revision or revised, and only once at least one review is complete.
func (s *Submission) MakeDecision(decision string, comments *string, decidedBy int, now time.Time) error {
	switch s.Status {
	case StatusUnderReview, StatusPendingRevision, StatusRevised:
	default:
		return newTransitionError("decide", s.Status, StatusAccepted)
	}
	if s.completedReviewCount() == 0 {
		return fmt.Errorf("%w: submission %s", ErrInsufficientReviews, s.SubmissionNumber)
	}

	var next SubmissionStatus
	switch decision {
	case DecisionAccept:
		next = StatusAccepted
	case DecisionMinorRevision, DecisionMajorRevision:
		next = StatusPendingRevision
	case DecisionReject:
		next = StatusRejected
	default:
		return newValidationError("unknown decision %q", decision)
	}

	s.Status = next
	s.Decision = &decision
	s.DecisionComments = comments
	s.DecidedBy = &decidedBy
	s.DecidedAt = &now
	s.UpdateAt = &now
	s.recomputeDerived()

	s.appendEvent("decision_made",
		"Decision recorded",
		fmt.Sprintf("Submission %s has received a decision: %s.", s.SubmissionNumber, decision),
		s.authorRecipients())
	return nil
}

// SubmitRevision records that the authors answered a revision request.
func (s *Submission) SubmitRevision(now time.Time) error {
	if s.Status != StatusPendingRevision {
		return newTransitionError("submit revision", s.Status, StatusRevised)
	}
	s.Status = StatusRevised
	s.UpdateAt = &now
	s.recomputeDerived()

	s.appendEvent("revision_submitted",
		"Revision submitted",
		fmt.Sprintf("A revision has been submitted for %s and is ready for re-review.", s.SubmissionNumber),
		s.editorRecipients())
	return nil
}

// ResumeReview returns a submission to under_review so the editor can run
// another round. The round counter only advances when a revision actually
// came back.
func (s *Submission) ResumeReview(now time.Time) error {
	switch s.Status {
	case StatusRevised:
		s.ReviewRound++
	case StatusPendingRevision:
	default:
		return newTransitionError("resume review", s.Status, StatusUnderReview)
	}
	s.Status = StatusUnderReview
	s.UpdateAt = &now
	s.recomputeDerived()

	s.appendEvent("review_resumed",
		"Review resumed",
		fmt.Sprintf("Submission %s is under review again (round %d).", s.SubmissionNumber, s.ReviewRound),
		s.authorRecipients())
	return nil
}

// Withdraw is author-initiated and terminal. It competes with the editor
// decision, so it is only legal before one is recorded.
func (s *Submission) Withdraw(now time.Time) error {
	if !s.CanWithdraw() {
		return newTransitionError("withdraw", s.Status, StatusWithdrawn)
	}
	s.Status = StatusWithdrawn
	s.WithdrawnAt = &now
	s.UpdateAt = &now
	s.recomputeDerived()

	s.appendEvent("submission_withdrawn",
		"Submission withdrawn",
		fmt.Sprintf("Submission %s has been withdrawn by its authors.", s.SubmissionNumber),
		append(s.authorRecipients(), s.editorRecipients()...))
	return nil
}

// MarkPresented records that the accepted work was presented at the
// conference, which opens proceedings eligibility.
func (s *Submission) MarkPresented(now time.Time) error {
	if s.Status != StatusAccepted {
		return newTransitionError("mark presented", s.Status, StatusPresented)
	}
	s.Status = StatusPresented
	s.PresentedAt = &now
	s.UpdateAt = &now
	s.recomputeDerived()

	s.appendEvent("submission_presented",
		"Presentation recorded",
		fmt.Sprintf("Submission %s has been presented. It is now eligible for the conference proceedings.", s.SubmissionNumber),
		s.authorRecipients())
	return nil
}

// UpdateDetails edits the paper metadata. Metadata is only editable while the
// submission is still a draft; revisions go through SubmitRevision instead.
func (s *Submission) UpdateDetails(title, abstract *string, now time.Time) error {
	if !s.IsEditable() {
		return newValidationError("submission is no longer editable in status %s", s.Status)
	}
	if title != nil {
		trimmed := strings.TrimSpace(*title)
		if trimmed == "" {
			return newValidationError("title is required")
		}
		s.Title = trimmed
	}
	if abstract != nil {
		s.Abstract = abstract
	}
	s.UpdateAt = &now
	return nil
}

// ClassificationUpdate carries the optional classification changes. Nil
// fields are left untouched.
type ClassificationUpdate struct {
	Discipline       *string
	ResearchType     *string
	AcademicLevel    *string
	PresentationType *string
}

// UpdateClassification applies classification changes while they are still
// legal. Acceptance freezes the classification permanently.
func (s *Submission) UpdateClassification(update ClassificationUpdate, now time.Time) error {
	if s.IsClassificationLocked() {
		return newValidationError("classification is locked in status %s", s.Status)
	}
	if update.Discipline != nil {
		s.Discipline = strings.TrimSpace(*update.Discipline)
	}
	if update.ResearchType != nil {
		s.ResearchType = strings.TrimSpace(*update.ResearchType)
	}
	if update.AcademicLevel != nil {
		s.AcademicLevel = strings.TrimSpace(*update.AcademicLevel)
	}
	if update.PresentationType != nil {
		s.PresentationType = strings.TrimSpace(*update.PresentationType)
	}
	s.UpdateAt = &now
	s.recomputeDerived()
	return nil
}

func (s *Submission) authorRecipients() []int {
	ids := make([]int, 0, len(s.Authors))
	seen := make(map[int]struct{}, len(s.Authors))
	for _, a := range s.Authors {
		if a.UserID == nil {
			continue
		}
		if _, dup := seen[*a.UserID]; dup {
			continue
		}
		seen[*a.UserID] = struct{}{}
		ids = append(ids, *a.UserID)
	}
	return ids
}
