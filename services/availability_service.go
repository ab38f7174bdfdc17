package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"conference-management-api/models"
)

// AvailabilityService manages the presenter availability grid attached to a
// submission.
type AvailabilityService struct {
	store submissionStore
}

// NewAvailabilityService creates the service. Passing nil uses the global
// database connection.
func NewAvailabilityService(db *gorm.DB) *AvailabilityService {
	return &AvailabilityService{store: newSubmissionStore(db)}
}

// AvailabilityView is the read model for one submission's grid.
type AvailabilityView struct {
	SubmissionID int                                                `json:"submission_id"`
	Grid         map[string]map[string]models.AvailabilityCellUpdate `json:"grid"`
	Summary      models.AvailabilityConflictSummary                  `json:"summary"`
}

// Update merges a partial grid update. Cells absent from the input keep their
// stored values; general notes are replaced only when provided.
func (s *AvailabilityService) Update(ctx context.Context, submissionID, actorID int, cells map[string]map[string]models.AvailabilityCellUpdate, generalNotes *string, clientIP string) (*AvailabilityView, error) {
	sub, err := s.store.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := sub.UpdateAvailability(cells, generalNotes, s.store.now()); err != nil {
		return nil, err
	}
	err = s.store.commitTransition(ctx, sub, transitionRecord{
		actorID:   actorID,
		action:    "update_availability",
		oldStatus: sub.Status,
		clientIP:  clientIP,
		children: func(tx *gorm.DB) error {
			return persistAvailabilitySlots(tx, sub)
		},
	})
	if err != nil {
		return nil, err
	}
	return availabilityView(sub), nil
}

// Get returns the full grid and the conflict summary.
func (s *AvailabilityService) Get(ctx context.Context, submissionID int) (*AvailabilityView, error) {
	sub, err := s.store.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	return availabilityView(sub), nil
}

func availabilityView(sub *models.Submission) *AvailabilityView {
	return &AvailabilityView{
		SubmissionID: sub.SubmissionID,
		Grid:         sub.AvailabilityGrid(),
		Summary:      sub.ConflictSummary(),
	}
}

// persistAvailabilitySlots writes the slot rows back: cells touched for the
// first time are inserted, previously stored cells are saved in place.
func persistAvailabilitySlots(tx *gorm.DB, sub *models.Submission) error {
	for i := range sub.Availability {
		slot := &sub.Availability[i]
		slot.SubmissionID = sub.SubmissionID
		var err error
		if slot.SlotID == 0 {
			err = tx.Create(slot).Error
		} else {
			err = tx.Save(slot).Error
		}
		if err != nil {
			return fmt.Errorf("failed to persist availability slot: %w", err)
		}
	}
	return nil
}
