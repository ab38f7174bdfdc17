package models

import (
	"fmt"
	"strings"
	"time"
)

// Reviewer assignment sub-states.
const (
	ReviewerInvited   = "invited"
	ReviewerAccepted  = "accepted"
	ReviewerDeclined  = "declined"
	ReviewerCompleted = "completed"
)

// Reviewer recommendations carried on a completed review.
const (
	RecommendAccept        = "accept"
	RecommendMinorRevision = "minor_revision"
	RecommendMajorRevision = "major_revision"
	RecommendReject        = "reject"
)

// MaxReviewersPerSubmission caps the reviewer sub-records on one submission.
const MaxReviewersPerSubmission = 5

type ReviewerAssignment struct {
	AssignmentID int    `gorm:"primaryKey;column:assignment_id" json:"assignment_id"`
	SubmissionID int    `gorm:"column:submission_id" json:"submission_id"`
	ReviewerID   int    `gorm:"column:reviewer_id" json:"reviewer_id"`
	Institution  string `gorm:"column:institution" json:"institution"`
	Status       string `gorm:"column:status" json:"status"`
	ReviewRound  int    `gorm:"column:review_round" json:"review_round"`
	InvitedBy    int    `gorm:"column:invited_by" json:"invited_by"`

	InvitedAt   time.Time  `gorm:"column:invited_at" json:"invited_at"`
	RespondedAt *time.Time `gorm:"column:responded_at" json:"responded_at,omitempty"`
	DueAt       *time.Time `gorm:"column:due_at" json:"due_at,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	// Maintained by the reminder scan, not by workflow transitions.
	LastRemindedAt *time.Time `gorm:"column:last_reminded_at" json:"-"`

	// Review payload, populated when the assignment completes.
	OverallScore      *int    `gorm:"column:overall_score" json:"overall_score,omitempty"`
	Recommendation    *string `gorm:"column:recommendation" json:"recommendation,omitempty"`
	RelevanceScore    *int    `gorm:"column:relevance_score" json:"relevance_score,omitempty"`
	MethodologyScore  *int    `gorm:"column:methodology_score" json:"methodology_score,omitempty"`
	OriginalityScore  *int    `gorm:"column:originality_score" json:"originality_score,omitempty"`
	ClarityScore      *int    `gorm:"column:clarity_score" json:"clarity_score,omitempty"`
	SignificanceScore *int    `gorm:"column:significance_score" json:"significance_score,omitempty"`
	Comments          *string `gorm:"column:comments" json:"comments,omitempty"`

	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`

	// Relation
	Reviewer *User `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

func (ReviewerAssignment) TableName() string {
	return "reviewer_assignments"
}

// DaysUntilDue returns whole days until the review deadline, negative when
// past due. The second return is false when no deadline is set.
func (r *ReviewerAssignment) DaysUntilDue(now time.Time) (int, bool) {
	if r.DueAt == nil {
		return 0, false
	}
	return int(r.DueAt.Sub(now).Hours() / 24), true
}

// IsOverdue reports whether an unfinished review is past its deadline.
func (r *ReviewerAssignment) IsOverdue(now time.Time) bool {
	if r.DueAt == nil || r.Status == ReviewerCompleted || r.Status == ReviewerDeclined {
		return false
	}
	return now.After(*r.DueAt)
}

// ReviewPayload is the scored content of one completed review.
type ReviewPayload struct {
	OverallScore      int     `json:"overall_score"`
	Recommendation    string  `json:"recommendation"`
	RelevanceScore    int     `json:"relevance_score"`
	MethodologyScore  int     `json:"methodology_score"`
	OriginalityScore  int     `json:"originality_score"`
	ClarityScore      int     `json:"clarity_score"`
	SignificanceScore int     `json:"significance_score"`
	Comments          *string `json:"comments,omitempty"`
}

func (p ReviewPayload) validate() error {
	scores := map[string]int{
		"overall_score":      p.OverallScore,
		"relevance_score":    p.RelevanceScore,
		"methodology_score":  p.MethodologyScore,
		"originality_score":  p.OriginalityScore,
		"clarity_score":      p.ClarityScore,
		"significance_score": p.SignificanceScore,
	}
	for name, score := range scores {
		if score < 1 || score > 5 {
			return newValidationError("%s must be between 1 and 5, got %d", name, score)
		}
	}
	switch p.Recommendation {
	case RecommendAccept, RecommendMinorRevision, RecommendMajorRevision, RecommendReject:
		return nil
	}
	return newValidationError("unknown recommendation %q", p.Recommendation)
}

// AddReviewer creates a reviewer sub-record in state invited. Legal only while
// the submission is under review. Guards: no duplicate reviewer, at most five
// assignments, and no institutional conflict of interest with any author.
func (s *Submission) AddReviewer(reviewerID int, institution string, invitedBy int, dueAt *time.Time, now time.Time) (*ReviewerAssignment, error) {
	if s.Status != StatusUnderReview {
		return nil, fmt.Errorf("%w: add reviewer in status %s", ErrInvalidTransition, s.Status)
	}
	for _, r := range s.Reviewers {
		if r.ReviewerID == reviewerID {
			return nil, fmt.Errorf("%w: reviewer %d", ErrDuplicateReviewer, reviewerID)
		}
	}
	if len(s.Reviewers) >= MaxReviewersPerSubmission {
		return nil, fmt.Errorf("%w: submission %s already has %d reviewers", ErrCapacityExceeded, s.SubmissionNumber, len(s.Reviewers))
	}
	if conflict := s.conflictingInstitution(institution); conflict != "" {
		return nil, fmt.Errorf("%w: %q matches author institution %q", ErrConflictOfInterest, institution, conflict)
	}

	assignment := ReviewerAssignment{
		SubmissionID: s.SubmissionID,
		ReviewerID:   reviewerID,
		Institution:  institution,
		Status:       ReviewerInvited,
		ReviewRound:  s.ReviewRound,
		InvitedBy:    invitedBy,
		InvitedAt:    now,
		DueAt:        dueAt,
		CreateAt:     &now,
	}
	s.Reviewers = append(s.Reviewers, assignment)

	s.appendEvent("reviewer_invited",
		"Review invitation",
		fmt.Sprintf("You have been invited to review submission %s: %s.", s.SubmissionNumber, s.Title),
		[]int{reviewerID})
	return &s.Reviewers[len(s.Reviewers)-1], nil
}

// RespondToReviewInvitation moves a reviewer sub-record from invited to
// accepted or declined.
func (s *Submission) RespondToReviewInvitation(reviewerID int, accept bool, now time.Time) error {
	assignment := s.findReviewer(reviewerID)
	if assignment == nil {
		return fmt.Errorf("%w: reviewer %d is not assigned", ErrInvalidReviewerState, reviewerID)
	}
	if assignment.Status != ReviewerInvited {
		return fmt.Errorf("%w: reviewer %d is %s, expected %s", ErrInvalidReviewerState, reviewerID, assignment.Status, ReviewerInvited)
	}
	if accept {
		assignment.Status = ReviewerAccepted
	} else {
		assignment.Status = ReviewerDeclined
	}
	assignment.RespondedAt = &now
	assignment.UpdateAt = &now

	verb := "declined"
	if accept {
		verb = "accepted"
	}
	s.appendEvent("reviewer_responded",
		"Review invitation "+verb,
		fmt.Sprintf("A reviewer has %s the invitation for submission %s.", verb, s.SubmissionNumber),
		s.editorRecipients())
	return nil
}

// SubmitReview completes an accepted assignment with the scored payload.
func (s *Submission) SubmitReview(reviewerID int, payload ReviewPayload, now time.Time) error {
	assignment := s.findReviewer(reviewerID)
	if assignment == nil {
		return fmt.Errorf("%w: reviewer %d is not assigned", ErrInvalidReviewerState, reviewerID)
	}
	if assignment.Status != ReviewerAccepted {
		return fmt.Errorf("%w: reviewer %d is %s, expected %s", ErrInvalidReviewerState, reviewerID, assignment.Status, ReviewerAccepted)
	}
	if err := payload.validate(); err != nil {
		return err
	}

	assignment.Status = ReviewerCompleted
	assignment.CompletedAt = &now
	assignment.UpdateAt = &now
	assignment.OverallScore = &payload.OverallScore
	assignment.Recommendation = &payload.Recommendation
	assignment.RelevanceScore = &payload.RelevanceScore
	assignment.MethodologyScore = &payload.MethodologyScore
	assignment.OriginalityScore = &payload.OriginalityScore
	assignment.ClarityScore = &payload.ClarityScore
	assignment.SignificanceScore = &payload.SignificanceScore
	assignment.Comments = payload.Comments

	s.appendEvent("review_submitted",
		"Review submitted",
		fmt.Sprintf("A review has been submitted for %s (%d of %d complete).", s.SubmissionNumber, s.completedReviewCount(), len(s.Reviewers)),
		s.editorRecipients())
	return nil
}

// CompletedReviews returns the completed assignments, used by decision views.
func (s *Submission) CompletedReviews() []ReviewerAssignment {
	out := make([]ReviewerAssignment, 0, len(s.Reviewers))
	for _, r := range s.Reviewers {
		if r.Status == ReviewerCompleted {
			out = append(out, r)
		}
	}
	return out
}

func (s *Submission) completedReviewCount() int {
	count := 0
	for _, r := range s.Reviewers {
		if r.Status == ReviewerCompleted {
			count++
		}
	}
	return count
}

func (s *Submission) findReviewer(reviewerID int) *ReviewerAssignment {
	for i := range s.Reviewers {
		if s.Reviewers[i].ReviewerID == reviewerID {
			return &s.Reviewers[i]
		}
	}
	return nil
}

// conflictingInstitution returns the first author institution matching the
// candidate's, comparing case-insensitively on the raw strings. Sponsors are
// not part of the conflict rule.
func (s *Submission) conflictingInstitution(institution string) string {
	candidate := strings.ToLower(strings.TrimSpace(institution))
	if candidate == "" {
		return ""
	}
	for _, a := range s.Authors {
		if a.Role == AuthorRoleSponsor {
			continue
		}
		if strings.ToLower(strings.TrimSpace(a.Institution)) == candidate {
			return a.Institution
		}
	}
	return ""
}

func (s *Submission) editorRecipients() []int {
	if s.EditorID != nil {
		return []int{*s.EditorID}
	}
	return nil
}
