package models

import (
	"errors"
	"testing"
	"time"
)

func TestInviteToProceedingsRequiresPresented(t *testing.T) {
	sub := reviewedSubmission(t)
	if err := sub.MakeDecision(DecisionAccept, nil, 9, testNow); err != nil {
		t.Fatalf("decide: %v", err)
	}

	if err := sub.InviteToProceedings(9, nil, testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invitation to be gated on presentation, got %v", err)
	}

	if err := sub.MarkPresented(testNow); err != nil {
		t.Fatalf("mark presented: %v", err)
	}
	if err := sub.InviteToProceedings(9, nil, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != StatusProceedingsInvited || sub.Proceedings == nil {
		t.Fatalf("invitation not recorded: status=%s", sub.Status)
	}
	if sub.Proceedings.Phase != PhaseInvitationSent {
		t.Fatalf("expected invitation_sent, got %s", sub.Proceedings.Phase)
	}

	wantDeadline := testNow.AddDate(0, 0, DefaultInvitationDeadlineDays)
	if !sub.Proceedings.InvitationDeadline.Equal(wantDeadline) {
		t.Fatalf("expected default deadline %v, got %v", wantDeadline, sub.Proceedings.InvitationDeadline)
	}

	if err := sub.InviteToProceedings(9, nil, testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected a single invitation per submission, got %v", err)
	}
}

func TestInviteToProceedingsHonorsExplicitDeadline(t *testing.T) {
	sub := presentedSubmission(t)
	deadline := testNow.AddDate(0, 0, 14)
	if err := sub.InviteToProceedings(9, &deadline, testNow); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if !sub.Proceedings.InvitationDeadline.Equal(deadline) {
		t.Fatalf("expected %v, got %v", deadline, sub.Proceedings.InvitationDeadline)
	}
}

func TestDecliningProceedingsInvitationIsTerminal(t *testing.T) {
	sub := presentedSubmission(t)
	if err := sub.InviteToProceedings(9, nil, testNow); err != nil {
		t.Fatalf("invite: %v", err)
	}

	if err := sub.RespondToProceedingsInvitation(false, strPtr("Publishing elsewhere."), testNow); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if sub.Proceedings.Phase != PhaseDeclinedInvitation {
		t.Fatalf("expected declined_invitation, got %s", sub.Proceedings.Phase)
	}
	if sub.Status != StatusPresented {
		t.Fatalf("declining must return the displayed status to presented, got %s", sub.Status)
	}

	if err := sub.RespondToProceedingsInvitation(true, nil, testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected declined invitation to be final, got %v", err)
	}

	summary := sub.ProceedingsStatus()
	if summary.NeedsAction || summary.CanSubmit {
		t.Fatalf("declined invitation needs no further action: %+v", summary)
	}
}

func TestProceedingsPaperFlow(t *testing.T) {
	sub := presentedSubmission(t)
	if err := sub.InviteToProceedings(9, nil, testNow); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if err := sub.RespondToProceedingsInvitation(true, nil, testNow); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if sub.Proceedings.Phase != PhaseAcceptedInvitation {
		t.Fatalf("expected accepted_invitation, got %s", sub.Proceedings.Phase)
	}

	if err := sub.SubmitProceedingsPaper("Liquidity Effects, Full Paper", intPtr(301), 5, testNow); err != nil {
		t.Fatalf("submit paper: %v", err)
	}
	if sub.Status != StatusProceedingsSubmitted || sub.Proceedings.Phase != PhaseSubmitted {
		t.Fatalf("paper submission not recorded: status=%s phase=%s", sub.Status, sub.Proceedings.Phase)
	}

	if err := sub.AssignProceedingsEditor(12, testNow); err != nil {
		t.Fatalf("assign proceedings editor: %v", err)
	}
	if sub.Status != StatusProceedingsUnderReview || sub.Proceedings.Phase != PhaseUnderReview {
		t.Fatalf("editor assignment not recorded: status=%s phase=%s", sub.Status, sub.Proceedings.Phase)
	}

	deadline := testNow.AddDate(0, 0, 21)
	if err := sub.MakeProceedingsDecision(ProceedingsDecisionRevisionRequired, strPtr("Shorten section 3."), &deadline, 12, testNow); err != nil {
		t.Fatalf("decision: %v", err)
	}
	if sub.Status != StatusProceedingsRevisionRequired || sub.Proceedings.Phase != PhaseRevisionRequired {
		t.Fatalf("revision request not recorded: status=%s phase=%s", sub.Status, sub.Proceedings.Phase)
	}
	if sub.Proceedings.RevisionDeadline == nil || !sub.Proceedings.RevisionDeadline.Equal(deadline) {
		t.Fatalf("revision deadline not stored: %+v", sub.Proceedings.RevisionDeadline)
	}
}

func TestProceedingsRevisionsAreVersionedSequentially(t *testing.T) {
	sub := presentedSubmission(t)
	if err := sub.InviteToProceedings(9, nil, testNow); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if err := sub.RespondToProceedingsInvitation(true, nil, testNow); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := sub.SubmitProceedingsPaper("Full Paper", intPtr(301), 5, testNow); err != nil {
		t.Fatalf("submit paper: %v", err)
	}
	if err := sub.AssignProceedingsEditor(12, testNow); err != nil {
		t.Fatalf("assign editor: %v", err)
	}
	if err := sub.MakeProceedingsDecision(ProceedingsDecisionRevisionRequired, nil, nil, 12, testNow); err != nil {
		t.Fatalf("decision: %v", err)
	}

	first, err := sub.AddProceedingsRevision(intPtr(302), strPtr("Addressed comments."), 5, testNow)
	if err != nil {
		t.Fatalf("first revision: %v", err)
	}
	if first.Version != 1 {
		t.Fatalf("expected version 1, got %d", first.Version)
	}
	if sub.Proceedings.Phase != PhaseRevised || sub.Status != StatusProceedingsUnderReview {
		t.Fatalf("revision must hand the paper back to the editor: phase=%s status=%s", sub.Proceedings.Phase, sub.Status)
	}

	second, err := sub.AddProceedingsRevision(intPtr(303), nil, 5, testNow)
	if err != nil {
		t.Fatalf("second revision: %v", err)
	}
	third, err := sub.AddProceedingsRevision(intPtr(304), nil, 5, testNow)
	if err != nil {
		t.Fatalf("third revision: %v", err)
	}
	if second.Version != 2 || third.Version != 3 {
		t.Fatalf("expected versions 2 and 3, got %d and %d", second.Version, third.Version)
	}
}

func TestPublishRequiresAcceptedPhase(t *testing.T) {
	sub := presentedSubmission(t)
	if err := sub.InviteToProceedings(9, nil, testNow); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if err := sub.RespondToProceedingsInvitation(true, nil, testNow); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := sub.SubmitProceedingsPaper("Full Paper", intPtr(301), 5, testNow); err != nil {
		t.Fatalf("submit paper: %v", err)
	}
	if err := sub.AssignProceedingsEditor(12, testNow); err != nil {
		t.Fatalf("assign editor: %v", err)
	}

	if err := sub.PublishProceedings(strPtr("18"), strPtr("45-61"), strPtr("10.5555/sobie.2026.7"), 12, testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected publish to require acceptance, got %v", err)
	}

	if err := sub.MakeProceedingsDecision(ProceedingsDecisionAccept, nil, nil, 12, testNow); err != nil {
		t.Fatalf("decision: %v", err)
	}
	if err := sub.PublishProceedings(strPtr("18"), strPtr("45-61"), strPtr("10.5555/sobie.2026.7"), 12, testNow); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if sub.Status != StatusProceedingsPublished || sub.Proceedings.Phase != PhasePublished {
		t.Fatalf("publication not recorded: status=%s phase=%s", sub.Status, sub.Proceedings.Phase)
	}
	if sub.Proceedings.DOI == nil || *sub.Proceedings.DOI != "10.5555/sobie.2026.7" {
		t.Fatalf("doi not stored: %+v", sub.Proceedings.DOI)
	}
}

func TestProceedingsPhaseProjection(t *testing.T) {
	sub := reviewedSubmission(t)
	if got := sub.ProceedingsPhase(); got != PhaseNotEligible {
		t.Fatalf("expected not_eligible before presentation, got %s", got)
	}

	if err := sub.MakeDecision(DecisionAccept, nil, 9, testNow); err != nil {
		t.Fatalf("decide: %v", err)
	}
	if err := sub.MarkPresented(testNow); err != nil {
		t.Fatalf("present: %v", err)
	}
	if got := sub.ProceedingsPhase(); got != PhaseEligible {
		t.Fatalf("expected eligible after presentation, got %s", got)
	}

	summary := sub.ProceedingsStatus()
	if summary.Phase != PhaseEligible || summary.CanSubmit || summary.NeedsAction {
		t.Fatalf("unexpected summary for eligible: %+v", summary)
	}
}

func TestInvitationExpiryHelpers(t *testing.T) {
	sub := presentedSubmission(t)
	deadline := testNow.AddDate(0, 0, 7)
	if err := sub.InviteToProceedings(9, &deadline, testNow); err != nil {
		t.Fatalf("invite: %v", err)
	}

	rec := sub.Proceedings
	if rec.IsInvitationExpired(testNow) {
		t.Fatalf("invitation must not expire before its deadline")
	}
	if days := rec.DaysUntilInvitationDeadline(testNow); days != 7 {
		t.Fatalf("expected 7 days, got %d", days)
	}

	after := deadline.Add(time.Hour)
	if !rec.IsInvitationExpired(after) {
		t.Fatalf("expected expiry after the deadline")
	}

	if err := sub.RespondToProceedingsInvitation(true, nil, testNow); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if rec.IsInvitationExpired(after) {
		t.Fatalf("answered invitations never expire")
	}
}
