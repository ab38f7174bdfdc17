package models

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2026, time.April, 8, 10, 0, 0, 0, time.UTC)

func intPtr(value int) *int { return &value }

func strPtr(value string) *string { return &value }

// draftSubmission returns a classified draft with one corresponding author
// (user 5, Coastal State University).
func draftSubmission(t *testing.T) *Submission {
	t.Helper()
	corresponding := SubmissionAuthor{
		AuthorID:    1,
		UserID:      intPtr(5),
		FirstName:   "Avery",
		LastName:    "Chen",
		Institution: "Coastal State University",
	}
	sub, err := NewDraftSubmission(3, corresponding, "Liquidity Effects in Regional Banking", testNow)
	if err != nil {
		t.Fatalf("new draft: %v", err)
	}
	sub.SubmissionID = 7
	sub.SubmissionNumber = "SOBIE-2026-0007"
	sub.Discipline = "finance"
	sub.ResearchType = "empirical"
	sub.AcademicLevel = "faculty"
	sub.PresentationType = "presentation"
	sub.DrainEvents()
	return sub
}

// underReviewSubmission advances a draft through submit and editor assignment
// (editor is user 9).
func underReviewSubmission(t *testing.T) *Submission {
	t.Helper()
	sub := draftSubmission(t)
	if err := sub.SubmitForReview(testNow); err != nil {
		t.Fatalf("submit for review: %v", err)
	}
	if err := sub.AssignEditor(9, testNow); err != nil {
		t.Fatalf("assign editor: %v", err)
	}
	sub.DrainEvents()
	return sub
}

// reviewedSubmission is under review with one completed review by user 11.
func reviewedSubmission(t *testing.T) *Submission {
	t.Helper()
	sub := underReviewSubmission(t)
	if _, err := sub.AddReviewer(11, "Lakeside University", 9, nil, testNow); err != nil {
		t.Fatalf("add reviewer: %v", err)
	}
	if err := sub.RespondToReviewInvitation(11, true, testNow); err != nil {
		t.Fatalf("accept invitation: %v", err)
	}
	if err := sub.SubmitReview(11, validReview(), testNow); err != nil {
		t.Fatalf("submit review: %v", err)
	}
	sub.DrainEvents()
	return sub
}

// presentedSubmission has been accepted and marked presented.
func presentedSubmission(t *testing.T) *Submission {
	t.Helper()
	sub := reviewedSubmission(t)
	if err := sub.MakeDecision(DecisionAccept, nil, 9, testNow); err != nil {
		t.Fatalf("decide: %v", err)
	}
	if err := sub.MarkPresented(testNow); err != nil {
		t.Fatalf("mark presented: %v", err)
	}
	sub.DrainEvents()
	return sub
}

func validReview() ReviewPayload {
	return ReviewPayload{
		OverallScore:      4,
		Recommendation:    RecommendAccept,
		RelevanceScore:    4,
		MethodologyScore:  3,
		OriginalityScore:  4,
		ClarityScore:      5,
		SignificanceScore: 4,
	}
}

func TestNewDraftSubmissionRequiresPlatformUser(t *testing.T) {
	_, err := NewDraftSubmission(3, SubmissionAuthor{FirstName: "External", LastName: "Guest"}, "A Title", testNow)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for external corresponding author, got %v", err)
	}

	_, err = NewDraftSubmission(3, SubmissionAuthor{UserID: intPtr(5)}, "   ", testNow)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for blank title, got %v", err)
	}

	sub, err := NewDraftSubmission(3, SubmissionAuthor{UserID: intPtr(5), FirstName: "Avery"}, "A Title", testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != StatusDraft || sub.Version != 1 || sub.ReviewRound != 1 {
		t.Fatalf("unexpected draft header: status=%s version=%d round=%d", sub.Status, sub.Version, sub.ReviewRound)
	}
	corresponding := sub.CorrespondingAuthor()
	if corresponding == nil || corresponding.Role != AuthorRoleCorresponding || corresponding.DisplayOrder != 1 {
		t.Fatalf("corresponding author row not normalized: %+v", corresponding)
	}
}

func TestSubmitForReviewRequiresCompleteClassification(t *testing.T) {
	sub := draftSubmission(t)
	sub.Discipline = ""

	if err := sub.SubmitForReview(testNow); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	sub.Discipline = "finance"
	if err := sub.SubmitForReview(testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != StatusSubmitted {
		t.Fatalf("expected submitted, got %s", sub.Status)
	}
	if sub.SubmittedAt == nil {
		t.Fatalf("expected submitted_at to be stamped")
	}

	events := sub.PendingEvents()
	if len(events) != 1 || events[0].Type != "submission_submitted" {
		t.Fatalf("unexpected events: %+v", events)
	}
	if len(events[0].Recipients) != 1 || events[0].Recipients[0] != 5 {
		t.Fatalf("expected the corresponding author to be notified, got %v", events[0].Recipients)
	}
}

func TestAssignEditorOnlyFromSubmitted(t *testing.T) {
	sub := draftSubmission(t)

	if err := sub.AssignEditor(9, testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition from draft, got %v", err)
	}

	if err := sub.SubmitForReview(testNow); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := sub.AssignEditor(9, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != StatusUnderReview {
		t.Fatalf("expected under_review, got %s", sub.Status)
	}
	if sub.EditorID == nil || *sub.EditorID != 9 {
		t.Fatalf("expected editor 9, got %v", sub.EditorID)
	}
}

func TestMakeDecisionRequiresCompletedReview(t *testing.T) {
	sub := underReviewSubmission(t)
	if _, err := sub.AddReviewer(11, "Lakeside University", 9, nil, testNow); err != nil {
		t.Fatalf("add reviewer: %v", err)
	}
	if err := sub.RespondToReviewInvitation(11, true, testNow); err != nil {
		t.Fatalf("accept invitation: %v", err)
	}

	err := sub.MakeDecision(DecisionAccept, nil, 9, testNow)
	if !errors.Is(err, ErrInsufficientReviews) {
		t.Fatalf("expected ErrInsufficientReviews, got %v", err)
	}

	if err := sub.SubmitReview(11, validReview(), testNow); err != nil {
		t.Fatalf("submit review: %v", err)
	}
	if err := sub.MakeDecision(DecisionAccept, strPtr("Strong methodology."), 9, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != StatusAccepted {
		t.Fatalf("expected accepted, got %s", sub.Status)
	}
	if sub.Decision == nil || *sub.Decision != DecisionAccept || sub.DecidedBy == nil || *sub.DecidedBy != 9 {
		t.Fatalf("decision fields not recorded: %+v", sub)
	}
}

func TestMakeDecisionRejectsUnknownDecision(t *testing.T) {
	sub := reviewedSubmission(t)
	if err := sub.MakeDecision("tabled", nil, 9, testNow); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClassificationLocksAtAcceptance(t *testing.T) {
	sub := reviewedSubmission(t)

	update := ClassificationUpdate{Discipline: strPtr("economics")}
	if err := sub.UpdateClassification(update, testNow); err != nil {
		t.Fatalf("classification should be editable under review: %v", err)
	}

	if err := sub.MakeDecision(DecisionAccept, nil, 9, testNow); err != nil {
		t.Fatalf("decide: %v", err)
	}
	if err := sub.UpdateClassification(update, testNow); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected classification to be locked, got %v", err)
	}
}

func TestResumeReviewAdvancesRoundOnlyAfterRevision(t *testing.T) {
	sub := reviewedSubmission(t)
	if err := sub.MakeDecision(DecisionMinorRevision, nil, 9, testNow); err != nil {
		t.Fatalf("decide: %v", err)
	}
	if sub.Status != StatusPendingRevision {
		t.Fatalf("expected pending_revision, got %s", sub.Status)
	}

	// Resuming straight from pending_revision reopens the same round.
	if err := sub.ResumeReview(testNow); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if sub.Status != StatusUnderReview || sub.ReviewRound != 1 {
		t.Fatalf("expected under_review round 1, got %s round %d", sub.Status, sub.ReviewRound)
	}

	if err := sub.MakeDecision(DecisionMajorRevision, nil, 9, testNow); err != nil {
		t.Fatalf("decide again: %v", err)
	}
	if err := sub.SubmitRevision(testNow); err != nil {
		t.Fatalf("submit revision: %v", err)
	}
	if sub.Status != StatusRevised {
		t.Fatalf("expected revised, got %s", sub.Status)
	}
	if err := sub.ResumeReview(testNow); err != nil {
		t.Fatalf("resume after revision: %v", err)
	}
	if sub.ReviewRound != 2 {
		t.Fatalf("expected round 2 after a revision came back, got %d", sub.ReviewRound)
	}
}

func TestWithdrawClosesOnceDecisionRecorded(t *testing.T) {
	sub := reviewedSubmission(t)
	if !sub.CanWithdraw() {
		t.Fatalf("expected withdraw to be open before a decision")
	}

	if err := sub.MakeDecision(DecisionAccept, nil, 9, testNow); err != nil {
		t.Fatalf("decide: %v", err)
	}
	if err := sub.Withdraw(testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected withdraw to be closed after decision, got %v", err)
	}
}

func TestWithdrawIsTerminal(t *testing.T) {
	sub := draftSubmission(t)
	if err := sub.Withdraw(testNow); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if sub.Status != StatusWithdrawn || sub.WithdrawnAt == nil {
		t.Fatalf("withdrawal not recorded: status=%s", sub.Status)
	}
	if err := sub.SubmitForReview(testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected no transitions out of withdrawn, got %v", err)
	}
}

func TestMarkPresentedRequiresAccepted(t *testing.T) {
	sub := underReviewSubmission(t)
	if err := sub.MarkPresented(testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	sub = reviewedSubmission(t)
	if err := sub.MakeDecision(DecisionAccept, nil, 9, testNow); err != nil {
		t.Fatalf("decide: %v", err)
	}
	if err := sub.MarkPresented(testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != StatusPresented || !sub.HasPresented() {
		t.Fatalf("presentation not recorded: status=%s", sub.Status)
	}
}

func TestUpdateDetailsOnlyWhileDraft(t *testing.T) {
	sub := draftSubmission(t)
	if err := sub.UpdateDetails(strPtr("  Revised Title  "), strPtr("New abstract."), testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Title != "Revised Title" {
		t.Fatalf("expected trimmed title, got %q", sub.Title)
	}

	if err := sub.SubmitForReview(testNow); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := sub.UpdateDetails(strPtr("Too Late"), nil, testNow); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error after submit, got %v", err)
	}
}

func TestAssociatedUserIDsCoverAllRoles(t *testing.T) {
	sub := reviewedSubmission(t)
	if err := sub.MakeDecision(DecisionMinorRevision, nil, 9, testNow); err != nil {
		t.Fatalf("decide: %v", err)
	}
	coauthor := SubmissionAuthor{AuthorID: 2, UserID: intPtr(6), FirstName: "Sam", LastName: "Ortiz", Institution: "Hillcrest College"}
	if err := sub.AddCoAuthor(coauthor, testNow); err != nil {
		t.Fatalf("add coauthor: %v", err)
	}

	ids := sub.AssociatedUserIDs()
	want := []int{5, 6, 9, 11}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
}
