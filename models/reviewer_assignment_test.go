package models

import (
	"errors"
	"testing"
	"time"
)

func TestAddReviewerOnlyWhileUnderReview(t *testing.T) {
	sub := draftSubmission(t)
	if _, err := sub.AddReviewer(11, "Lakeside University", 9, nil, testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition from draft, got %v", err)
	}
}

func TestAddReviewerRejectsDuplicate(t *testing.T) {
	sub := underReviewSubmission(t)
	if _, err := sub.AddReviewer(11, "Lakeside University", 9, nil, testNow); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := sub.AddReviewer(11, "Another Institution", 9, nil, testNow); !errors.Is(err, ErrDuplicateReviewer) {
		t.Fatalf("expected ErrDuplicateReviewer, got %v", err)
	}
}

func TestAddReviewerEnforcesCapacity(t *testing.T) {
	sub := underReviewSubmission(t)
	for i := 0; i < MaxReviewersPerSubmission; i++ {
		if _, err := sub.AddReviewer(20+i, "Lakeside University", 9, nil, testNow); err != nil {
			t.Fatalf("add reviewer %d: %v", i+1, err)
		}
	}
	if _, err := sub.AddReviewer(30, "Lakeside University", 9, nil, testNow); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
}

func TestAddReviewerRejectsAuthorInstitutionMatch(t *testing.T) {
	sub := underReviewSubmission(t)

	// Matching is case-insensitive and ignores surrounding whitespace.
	_, err := sub.AddReviewer(11, "  coastal STATE university ", 9, nil, testNow)
	if !errors.Is(err, ErrConflictOfInterest) {
		t.Fatalf("expected ErrConflictOfInterest, got %v", err)
	}
	if len(sub.Reviewers) != 0 {
		t.Fatalf("conflicting reviewer must not be recorded, got %d", len(sub.Reviewers))
	}
}

func TestSponsorInstitutionDoesNotBlockReviewers(t *testing.T) {
	sub := draftSubmission(t)
	student := SubmissionAuthor{AuthorID: 2, FirstName: "Sam", LastName: "Ortiz", IsStudentAuthor: true, Institution: "Coastal State University"}
	if err := sub.AddCoAuthor(student, testNow); err != nil {
		t.Fatalf("add coauthor: %v", err)
	}
	sponsor := SubmissionAuthor{AuthorID: 3, FirstName: "Dana", LastName: "Whitfield", Institution: "Mountain Tech"}
	if err := sub.AddSponsor(sponsor, testNow); err != nil {
		t.Fatalf("add sponsor: %v", err)
	}
	if err := sub.SubmitForReview(testNow); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := sub.AssignEditor(9, testNow); err != nil {
		t.Fatalf("assign editor: %v", err)
	}

	if _, err := sub.AddReviewer(11, "Mountain Tech", 9, nil, testNow); err != nil {
		t.Fatalf("sponsor institutions are outside the conflict rule: %v", err)
	}
}

func TestRespondToReviewInvitationTransitions(t *testing.T) {
	sub := underReviewSubmission(t)
	if _, err := sub.AddReviewer(11, "Lakeside University", 9, nil, testNow); err != nil {
		t.Fatalf("add reviewer: %v", err)
	}

	if err := sub.RespondToReviewInvitation(99, true, testNow); !errors.Is(err, ErrInvalidReviewerState) {
		t.Fatalf("expected unknown reviewer to be rejected, got %v", err)
	}

	if err := sub.RespondToReviewInvitation(11, false, testNow); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if sub.Reviewers[0].Status != ReviewerDeclined || sub.Reviewers[0].RespondedAt == nil {
		t.Fatalf("decline not recorded: %+v", sub.Reviewers[0])
	}

	if err := sub.RespondToReviewInvitation(11, true, testNow); !errors.Is(err, ErrInvalidReviewerState) {
		t.Fatalf("expected settled invitation to be final, got %v", err)
	}
}

func TestSubmitReviewRequiresAcceptedAssignment(t *testing.T) {
	sub := underReviewSubmission(t)
	if _, err := sub.AddReviewer(11, "Lakeside University", 9, nil, testNow); err != nil {
		t.Fatalf("add reviewer: %v", err)
	}

	err := sub.SubmitReview(11, validReview(), testNow)
	if !errors.Is(err, ErrInvalidReviewerState) {
		t.Fatalf("expected ErrInvalidReviewerState before acceptance, got %v", err)
	}
}

func TestSubmitReviewValidatesPayload(t *testing.T) {
	sub := underReviewSubmission(t)
	if _, err := sub.AddReviewer(11, "Lakeside University", 9, nil, testNow); err != nil {
		t.Fatalf("add reviewer: %v", err)
	}
	if err := sub.RespondToReviewInvitation(11, true, testNow); err != nil {
		t.Fatalf("accept: %v", err)
	}

	low := validReview()
	low.ClarityScore = 0
	if err := sub.SubmitReview(11, low, testNow); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for score 0, got %v", err)
	}

	high := validReview()
	high.OverallScore = 6
	if err := sub.SubmitReview(11, high, testNow); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for score 6, got %v", err)
	}

	odd := validReview()
	odd.Recommendation = "maybe"
	if err := sub.SubmitReview(11, odd, testNow); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown recommendation, got %v", err)
	}

	payload := validReview()
	payload.Comments = strPtr("Well structured study.")
	if err := sub.SubmitReview(11, payload, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	completed := sub.CompletedReviews()
	if len(completed) != 1 {
		t.Fatalf("expected 1 completed review, got %d", len(completed))
	}
	got := completed[0]
	if got.OverallScore == nil || *got.OverallScore != payload.OverallScore {
		t.Fatalf("overall score not stored: %+v", got)
	}
	if got.Recommendation == nil || *got.Recommendation != RecommendAccept {
		t.Fatalf("recommendation not stored: %+v", got)
	}
	if got.CompletedAt == nil {
		t.Fatalf("completed_at not stamped")
	}
}

func TestReviewDeadlineHelpers(t *testing.T) {
	now := testNow
	due := now.Add(48 * time.Hour)
	assignment := ReviewerAssignment{Status: ReviewerAccepted, DueAt: &due}

	days, ok := assignment.DaysUntilDue(now)
	if !ok || days != 2 {
		t.Fatalf("expected 2 days until due, got %d (ok=%v)", days, ok)
	}
	if assignment.IsOverdue(now) {
		t.Fatalf("future deadline must not be overdue")
	}

	past := now.Add(-time.Hour)
	assignment.DueAt = &past
	if !assignment.IsOverdue(now) {
		t.Fatalf("expected overdue")
	}

	assignment.Status = ReviewerCompleted
	if assignment.IsOverdue(now) {
		t.Fatalf("completed reviews are never overdue")
	}

	assignment.DueAt = nil
	if _, ok := assignment.DaysUntilDue(now); ok {
		t.Fatalf("no deadline means no day count")
	}
}
