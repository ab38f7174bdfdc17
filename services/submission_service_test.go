package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"conference-management-api/models"
)

func TestGenerateSubmissionNumberUsesNextFreeSlot(t *testing.T) {
	t.Setenv("SUBMISSION_NUMBER_PREFIX", "SOBIE")

	steps := []*queryStep{
		{
			pattern: regexp.MustCompile(`(?i)SELECT count\(\*\) FROM .submissions. WHERE submission_number LIKE \?`),
			args:    []driver.Value{"SOBIE-2026-%"},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(7)}},
		},
		{
			pattern: regexp.MustCompile(`(?i)SELECT count\(\*\) FROM .submissions. WHERE submission_number = \?`),
			args:    []driver.Value{"SOBIE-2026-0008"},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(0)}},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewSubmissionService(gormDB)

	got := svc.generateSubmissionNumber(context.Background(), 2026)
	if got != "SOBIE-2026-0008" {
		t.Fatalf("expected SOBIE-2026-0008, got %s", got)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestGenerateSubmissionNumberSkipsTakenSlots(t *testing.T) {
	t.Setenv("SUBMISSION_NUMBER_PREFIX", "SOBIE")

	steps := []*queryStep{
		{
			pattern: regexp.MustCompile(`(?i)SELECT count\(\*\) FROM .submissions. WHERE submission_number LIKE \?`),
			args:    []driver.Value{"SOBIE-2026-%"},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(7)}},
		},
		{
			pattern: regexp.MustCompile(`(?i)SELECT count\(\*\) FROM .submissions. WHERE submission_number = \?`),
			args:    []driver.Value{"SOBIE-2026-0008"},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(1)}},
		},
		{
			pattern: regexp.MustCompile(`(?i)SELECT count\(\*\) FROM .submissions. WHERE submission_number = \?`),
			args:    []driver.Value{"SOBIE-2026-0009"},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(0)}},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewSubmissionService(gormDB)

	got := svc.generateSubmissionNumber(context.Background(), 2026)
	if got != "SOBIE-2026-0009" {
		t.Fatalf("expected SOBIE-2026-0009, got %s", got)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestCommitTransitionReturnsConflictOnStaleVersion(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile(`UPDATE .submissions. SET .* WHERE submission_id = \? AND version = \?`),
			result:  scriptedResult{rowsAffected: 0},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	fixed := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	st := submissionStore{
		db:       gormDB,
		now:      func() time.Time { return fixed },
		sendMail: func(to []string, subject, html string) error { return nil },
	}

	sub := &models.Submission{
		SubmissionID:     7,
		SubmissionNumber: "SOBIE-2026-0007",
		Status:           models.StatusSubmitted,
		Version:          3,
	}

	err := st.commitTransition(context.Background(), sub, transitionRecord{
		actorID:   1,
		action:    "submit_submission",
		oldStatus: models.StatusSubmitted,
	})
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}
	if sub.Version != 3 {
		t.Fatalf("version must not advance on conflict, got %d", sub.Version)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestCommitTransitionPersistsStatusChangeOutboxAndAudit(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile(`UPDATE .submissions. SET .* WHERE submission_id = \? AND version = \?`),
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile(`INSERT INTO .submission_status_history.`),
			result:  scriptedResult{lastInsertID: 31, rowsAffected: 1},
		},
		{
			pattern: regexp.MustCompile(`SELECT \* FROM .users. WHERE user_id IN`),
			columns: []string{"user_id", "user_fname", "user_lname", "email", "notify_email", "notify_in_app"},
			rows: [][]driver.Value{
				{int64(5), "Avery", "Chen", "avery@coastal.edu", int64(0), int64(1)},
				{int64(9), "Jordan", "Lee", "jordan@example.edu", int64(0), int64(1)},
			},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile(`INSERT INTO .notifications.`),
			result:  scriptedResult{lastInsertID: 201, rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile(`INSERT INTO .notifications.`),
			result:  scriptedResult{lastInsertID: 202, rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile(`INSERT INTO .audit_logs.`),
			result:  scriptedResult{lastInsertID: 77, rowsAffected: 1},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	fixed := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	st := submissionStore{
		db:       gormDB,
		now:      func() time.Time { return fixed },
		sendMail: func(to []string, subject, html string) error { return nil },
	}

	authorID := 5
	sub := &models.Submission{
		SubmissionID:     7,
		SubmissionNumber: "SOBIE-2026-0007",
		Status:           models.StatusSubmitted,
		Version:          3,
		ReviewRound:      1,
		Authors: []models.SubmissionAuthor{
			{AuthorID: 1, UserID: &authorID, Role: models.AuthorRoleCorresponding, DisplayOrder: 1, FirstName: "Avery", LastName: "Chen"},
		},
	}
	if err := sub.AssignEditor(9, fixed); err != nil {
		t.Fatalf("assign editor: %v", err)
	}

	err := st.commitTransition(context.Background(), sub, transitionRecord{
		actorID:   1,
		action:    "assign_editor",
		oldStatus: models.StatusSubmitted,
		clientIP:  "127.0.0.1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Version != 4 {
		t.Fatalf("expected version 4 after commit, got %d", sub.Version)
	}
	if len(sub.PendingEvents()) != 0 {
		t.Fatalf("expected events to be drained, %d left", len(sub.PendingEvents()))
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
