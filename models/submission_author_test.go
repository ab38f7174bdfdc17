package models

import (
	"errors"
	"testing"
)

func TestAddCoAuthorRejectsDuplicatePlatformUser(t *testing.T) {
	sub := draftSubmission(t)
	dup := SubmissionAuthor{UserID: intPtr(5), FirstName: "Avery", LastName: "Chen"}
	if err := sub.AddCoAuthor(dup, testNow); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for duplicate user, got %v", err)
	}
}

func TestAddCoAuthorLockedOutsideDraftAndRevision(t *testing.T) {
	sub := underReviewSubmission(t)
	coauthor := SubmissionAuthor{UserID: intPtr(6), FirstName: "Sam", LastName: "Ortiz"}
	if err := sub.AddCoAuthor(coauthor, testNow); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected locked author list, got %v", err)
	}
}

func TestAddSponsorRequiresStudentResearch(t *testing.T) {
	sub := draftSubmission(t)
	sponsor := SubmissionAuthor{UserID: intPtr(20), FirstName: "Dana", LastName: "Whitfield", Institution: "Coastal State University"}

	if err := sub.AddSponsor(sponsor, testNow); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error without student authors, got %v", err)
	}

	student := SubmissionAuthor{AuthorID: 2, UserID: intPtr(6), FirstName: "Sam", LastName: "Ortiz", IsStudentAuthor: true}
	if err := sub.AddCoAuthor(student, testNow); err != nil {
		t.Fatalf("add student coauthor: %v", err)
	}
	if !sub.IsStudentResearch {
		t.Fatalf("expected student research to be derived from the author list")
	}

	sponsor.IsStudentAuthor = true // must be ignored for sponsors
	if err := sub.AddSponsor(sponsor, testNow); err != nil {
		t.Fatalf("add sponsor: %v", err)
	}
	sponsors := sub.Sponsors()
	if len(sponsors) != 1 || sponsors[0].IsStudentAuthor {
		t.Fatalf("sponsor row not normalized: %+v", sponsors)
	}
}

func TestStudentResearchFlagFollowsAuthorList(t *testing.T) {
	sub := draftSubmission(t)
	student := SubmissionAuthor{AuthorID: 2, UserID: intPtr(6), FirstName: "Sam", LastName: "Ortiz", IsStudentAuthor: true}
	if err := sub.AddCoAuthor(student, testNow); err != nil {
		t.Fatalf("add coauthor: %v", err)
	}
	if !sub.IsStudentResearch {
		t.Fatalf("expected student research after adding a student author")
	}

	if err := sub.RemoveAuthor(2); err != nil {
		t.Fatalf("remove author: %v", err)
	}
	if sub.IsStudentResearch {
		t.Fatalf("expected flag to clear when the student author leaves")
	}
}

func TestRemoveAuthorProtectsCorresponding(t *testing.T) {
	sub := draftSubmission(t)
	if err := sub.RemoveAuthor(1); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected the corresponding author to be protected, got %v", err)
	}
}

func TestRemoveAuthorDropsPresenterDesignation(t *testing.T) {
	sub := draftSubmission(t)
	coauthor := SubmissionAuthor{AuthorID: 2, UserID: intPtr(6), FirstName: "Sam", LastName: "Ortiz"}
	if err := sub.AddCoAuthor(coauthor, testNow); err != nil {
		t.Fatalf("add coauthor: %v", err)
	}
	if err := sub.SetPresenters([]int{2}, testNow); err != nil {
		t.Fatalf("set presenters: %v", err)
	}
	if err := sub.SetPrimaryPresenter(2, testNow); err != nil {
		t.Fatalf("set primary: %v", err)
	}

	if err := sub.RemoveAuthor(2); err != nil {
		t.Fatalf("remove author: %v", err)
	}
	if len(sub.Presenters()) != 0 {
		t.Fatalf("expected no presenters after removal, got %+v", sub.Presenters())
	}
	if sub.PrimaryPresenter() != nil {
		t.Fatalf("expected no primary presenter after removal")
	}
}

func TestRemoveAuthorCompactsDisplayOrder(t *testing.T) {
	sub := draftSubmission(t)
	first := SubmissionAuthor{AuthorID: 2, FirstName: "Sam", LastName: "Ortiz"}
	second := SubmissionAuthor{AuthorID: 3, FirstName: "Lee", LastName: "Baker"}
	if err := sub.AddCoAuthor(first, testNow); err != nil {
		t.Fatalf("add first: %v", err)
	}
	if err := sub.AddCoAuthor(second, testNow); err != nil {
		t.Fatalf("add second: %v", err)
	}

	if err := sub.RemoveAuthor(2); err != nil {
		t.Fatalf("remove: %v", err)
	}
	coauthors := sub.CoAuthors()
	if len(coauthors) != 1 || coauthors[0].AuthorID != 3 || coauthors[0].DisplayOrder != 1 {
		t.Fatalf("expected remaining coauthor at order 1, got %+v", coauthors)
	}
}

func TestSetPresentersReplacesDesignation(t *testing.T) {
	sub := draftSubmission(t)
	coauthor := SubmissionAuthor{AuthorID: 2, FirstName: "Sam", LastName: "Ortiz"}
	if err := sub.AddCoAuthor(coauthor, testNow); err != nil {
		t.Fatalf("add coauthor: %v", err)
	}

	if err := sub.SetPresenters([]int{1, 2}, testNow); err != nil {
		t.Fatalf("set presenters: %v", err)
	}
	if err := sub.SetPrimaryPresenter(2, testNow); err != nil {
		t.Fatalf("set primary: %v", err)
	}

	// Re-listing only author 1 must strip both flags from author 2.
	if err := sub.SetPresenters([]int{1}, testNow); err != nil {
		t.Fatalf("replace presenters: %v", err)
	}
	presenters := sub.Presenters()
	if len(presenters) != 1 || presenters[0].AuthorID != 1 {
		t.Fatalf("unexpected presenters: %+v", presenters)
	}
	if sub.PrimaryPresenter() != nil {
		t.Fatalf("expected primary designation to fall away with presenter status")
	}

	if err := sub.SetPresenters([]int{99}, testNow); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected unknown author to be rejected, got %v", err)
	}
}

func TestSetPrimaryPresenterRequiresPresenter(t *testing.T) {
	sub := draftSubmission(t)
	if err := sub.SetPrimaryPresenter(1, testNow); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for non-presenter, got %v", err)
	}

	if err := sub.SetPresenters([]int{1}, testNow); err != nil {
		t.Fatalf("set presenters: %v", err)
	}
	if err := sub.SetPrimaryPresenter(1, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	primary := sub.PrimaryPresenter()
	if primary == nil || primary.AuthorID != 1 {
		t.Fatalf("expected author 1 as primary, got %+v", primary)
	}
}
