package models

import (
	"time"
)

// Conference presentation grid: three days by two periods. A submission with
// no slot row for a cell is available in that cell.
var (
	ConferenceDays    = []string{"wednesday", "thursday", "friday"}
	ConferencePeriods = []string{"am", "pm"}
)

const (
	MaxConflictNoteLength     = 500
	MaxAvailabilityNoteLength = 1000
)

type AvailabilitySlot struct {
	SlotID       int     `gorm:"primaryKey;column:slot_id" json:"slot_id"`
	SubmissionID int     `gorm:"column:submission_id" json:"submission_id"`
	Day          string  `gorm:"column:day" json:"day"`
	Period       string  `gorm:"column:period" json:"period"`
	Available    bool    `gorm:"column:available" json:"available"`
	ConflictNote *string `gorm:"column:conflict_note" json:"conflict_note,omitempty"`

	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`
}

func (AvailabilitySlot) TableName() string {
	return "availability_slots"
}

// AvailabilityCellUpdate is one cell of a partial availability update.
type AvailabilityCellUpdate struct {
	Available    bool   `json:"available"`
	ConflictNote string `json:"conflict_note"`
}

// UpdateAvailability merges the provided cells into the presenter grid. Cells
// absent from the input keep their current value. General notes are replaced
// only when provided.
func (s *Submission) UpdateAvailability(cells map[string]map[string]AvailabilityCellUpdate, generalNotes *string, now time.Time) error {
	if generalNotes != nil && len(*generalNotes) > MaxAvailabilityNoteLength {
		return newValidationError("general notes exceed %d characters", MaxAvailabilityNoteLength)
	}
	for day, periods := range cells {
		if !validConferenceDay(day) {
			return newValidationError("unknown day %q", day)
		}
		for period, cell := range periods {
			if !validConferencePeriod(period) {
				return newValidationError("unknown period %q", period)
			}
			if len(cell.ConflictNote) > MaxConflictNoteLength {
				return newValidationError("conflict note for %s %s exceeds %d characters", day, period, MaxConflictNoteLength)
			}
		}
	}

	for day, periods := range cells {
		for period, cell := range periods {
			slot := s.findSlot(day, period)
			if slot == nil {
				s.Availability = append(s.Availability, AvailabilitySlot{
					SubmissionID: s.SubmissionID,
					Day:          day,
					Period:       period,
				})
				slot = &s.Availability[len(s.Availability)-1]
			}
			slot.Available = cell.Available
			if cell.ConflictNote != "" {
				note := cell.ConflictNote
				slot.ConflictNote = &note
			} else {
				slot.ConflictNote = nil
			}
			slot.UpdateAt = &now
		}
	}

	if generalNotes != nil {
		s.AvailabilityNotes = generalNotes
	}
	s.AvailabilityUpdatedAt = &now
	s.UpdateAt = &now
	return nil
}

// AvailabilityConflict is one unavailable cell in the summary.
type AvailabilityConflict struct {
	Day          string `json:"day"`
	Period       string `json:"period"`
	ConflictNote string `json:"conflict_note"`
}

// AvailabilityConflictSummary is the pure read produced for scheduling tools.
type AvailabilityConflictSummary struct {
	Conflicts           []AvailabilityConflict `json:"conflicts"`
	ConflictCount       int                    `json:"conflict_count"`
	TotalAvailableSlots int                    `json:"total_available_slots"`
	GeneralNotes        *string                `json:"general_notes,omitempty"`
	UpdatedAt           *time.Time             `json:"updated_at,omitempty"`
}

// ConflictSummary lists the unavailable cells in conference order and derives
// the open-slot count from the six-cell grid.
func (s *Submission) ConflictSummary() AvailabilityConflictSummary {
	conflicts := make([]AvailabilityConflict, 0, len(s.Availability))
	for _, day := range ConferenceDays {
		for _, period := range ConferencePeriods {
			slot := s.findSlot(day, period)
			if slot == nil || slot.Available {
				continue
			}
			note := ""
			if slot.ConflictNote != nil {
				note = *slot.ConflictNote
			}
			conflicts = append(conflicts, AvailabilityConflict{Day: day, Period: period, ConflictNote: note})
		}
	}
	total := len(ConferenceDays) * len(ConferencePeriods)
	return AvailabilityConflictSummary{
		Conflicts:           conflicts,
		ConflictCount:       len(conflicts),
		TotalAvailableSlots: total - len(conflicts),
		GeneralNotes:        s.AvailabilityNotes,
		UpdatedAt:           s.AvailabilityUpdatedAt,
	}
}

// AvailabilityGrid returns the full grid with defaults for cells that have
// never been written.
func (s *Submission) AvailabilityGrid() map[string]map[string]AvailabilityCellUpdate {
	grid := make(map[string]map[string]AvailabilityCellUpdate, len(ConferenceDays))
	for _, day := range ConferenceDays {
		grid[day] = make(map[string]AvailabilityCellUpdate, len(ConferencePeriods))
		for _, period := range ConferencePeriods {
			cell := AvailabilityCellUpdate{Available: true}
			if slot := s.findSlot(day, period); slot != nil {
				cell.Available = slot.Available
				if slot.ConflictNote != nil {
					cell.ConflictNote = *slot.ConflictNote
				}
			}
			grid[day][period] = cell
		}
	}
	return grid
}

func (s *Submission) findSlot(day, period string) *AvailabilitySlot {
	for i := range s.Availability {
		if s.Availability[i].Day == day && s.Availability[i].Period == period {
			return &s.Availability[i]
		}
	}
	return nil
}

func validConferenceDay(day string) bool {
	for _, d := range ConferenceDays {
		if d == day {
			return true
		}
	}
	return false
}

func validConferencePeriod(period string) bool {
	for _, p := range ConferencePeriods {
		if p == period {
			return true
		}
	}
	return false
}
