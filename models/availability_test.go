package models

import (
	"errors"
	"strings"
	"testing"
)

func TestUpdateAvailabilityMergesPartialGrid(t *testing.T) {
	sub := draftSubmission(t)

	err := sub.UpdateAvailability(map[string]map[string]AvailabilityCellUpdate{
		"wednesday": {"am": {Available: false, ConflictNote: "Teaching conflict"}},
	}, strPtr("Prefers afternoon slots."), testNow)
	if err != nil {
		t.Fatalf("first update: %v", err)
	}

	// A later update touching another cell must leave wednesday untouched.
	err = sub.UpdateAvailability(map[string]map[string]AvailabilityCellUpdate{
		"thursday": {"pm": {Available: false, ConflictNote: "Flight home"}},
	}, nil, testNow)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}

	grid := sub.AvailabilityGrid()
	if grid["wednesday"]["am"].Available || grid["wednesday"]["am"].ConflictNote != "Teaching conflict" {
		t.Fatalf("wednesday am overwritten: %+v", grid["wednesday"]["am"])
	}
	if grid["thursday"]["pm"].Available {
		t.Fatalf("thursday pm not recorded: %+v", grid["thursday"]["pm"])
	}
	if !grid["friday"]["am"].Available {
		t.Fatalf("untouched cells default to available")
	}
	if sub.AvailabilityNotes == nil || *sub.AvailabilityNotes != "Prefers afternoon slots." {
		t.Fatalf("general notes must survive cell-only updates: %v", sub.AvailabilityNotes)
	}

	// Reopening a cell clears its conflict note.
	err = sub.UpdateAvailability(map[string]map[string]AvailabilityCellUpdate{
		"wednesday": {"am": {Available: true}},
	}, nil, testNow)
	if err != nil {
		t.Fatalf("third update: %v", err)
	}
	grid = sub.AvailabilityGrid()
	if !grid["wednesday"]["am"].Available || grid["wednesday"]["am"].ConflictNote != "" {
		t.Fatalf("conflict note must clear when the cell reopens: %+v", grid["wednesday"]["am"])
	}
}

func TestUpdateAvailabilityValidatesInput(t *testing.T) {
	sub := draftSubmission(t)

	err := sub.UpdateAvailability(map[string]map[string]AvailabilityCellUpdate{
		"saturday": {"am": {Available: false}},
	}, nil, testNow)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected unknown day to be rejected, got %v", err)
	}

	err = sub.UpdateAvailability(map[string]map[string]AvailabilityCellUpdate{
		"wednesday": {"evening": {Available: false}},
	}, nil, testNow)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected unknown period to be rejected, got %v", err)
	}

	err = sub.UpdateAvailability(map[string]map[string]AvailabilityCellUpdate{
		"wednesday": {"am": {Available: false, ConflictNote: strings.Repeat("x", MaxConflictNoteLength+1)}},
	}, nil, testNow)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected oversized conflict note to be rejected, got %v", err)
	}

	err = sub.UpdateAvailability(nil, strPtr(strings.Repeat("x", MaxAvailabilityNoteLength+1)), testNow)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected oversized general notes to be rejected, got %v", err)
	}

	if len(sub.Availability) != 0 {
		t.Fatalf("rejected updates must not write slots, got %d", len(sub.Availability))
	}

	err = sub.UpdateAvailability(map[string]map[string]AvailabilityCellUpdate{
		"wednesday": {"am": {Available: false, ConflictNote: strings.Repeat("x", MaxConflictNoteLength)}},
	}, strPtr(strings.Repeat("y", MaxAvailabilityNoteLength)), testNow)
	if err != nil {
		t.Fatalf("notes at the limit must pass: %v", err)
	}
}

func TestConflictSummaryCountsOpenSlots(t *testing.T) {
	sub := draftSubmission(t)

	summary := sub.ConflictSummary()
	if summary.ConflictCount != 0 || summary.TotalAvailableSlots != 6 {
		t.Fatalf("fresh grid should be fully open: %+v", summary)
	}

	err := sub.UpdateAvailability(map[string]map[string]AvailabilityCellUpdate{
		"friday":    {"am": {Available: false, ConflictNote: "Department meeting"}},
		"wednesday": {"pm": {Available: false}},
	}, nil, testNow)
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	summary = sub.ConflictSummary()
	if summary.ConflictCount != 2 || summary.TotalAvailableSlots != 4 {
		t.Fatalf("expected 2 conflicts and 4 open slots, got %+v", summary)
	}

	// Conflicts list in conference order: wednesday before friday.
	if summary.Conflicts[0].Day != "wednesday" || summary.Conflicts[0].Period != "pm" {
		t.Fatalf("unexpected first conflict: %+v", summary.Conflicts[0])
	}
	if summary.Conflicts[1].Day != "friday" || summary.Conflicts[1].ConflictNote != "Department meeting" {
		t.Fatalf("unexpected second conflict: %+v", summary.Conflicts[1])
	}
}
