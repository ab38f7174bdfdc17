package models

import (
	"sort"
	"strings"
	"time"
)

// SubmissionStatus is the displayed status of a submission. The proceedings
// sub-machine writes the proceedings_* values; everything else belongs to the
// primary review workflow.
type SubmissionStatus string

const (
	StatusDraft           SubmissionStatus = "draft"
	StatusSubmitted       SubmissionStatus = "submitted"
	StatusUnderReview     SubmissionStatus = "under_review"
	StatusPendingRevision SubmissionStatus = "pending_revision"
	StatusRevised         SubmissionStatus = "revised"
	StatusAccepted        SubmissionStatus = "accepted"
	StatusRejected        SubmissionStatus = "rejected"
	StatusWithdrawn       SubmissionStatus = "withdrawn"
	StatusPresented       SubmissionStatus = "presented"

	StatusProceedingsInvited          SubmissionStatus = "proceedings_invited"
	StatusProceedingsSubmitted        SubmissionStatus = "proceedings_submitted"
	StatusProceedingsUnderReview      SubmissionStatus = "proceedings_under_review"
	StatusProceedingsRevisionRequired SubmissionStatus = "proceedings_revision_required"
	StatusProceedingsAccepted         SubmissionStatus = "proceedings_accepted"
	StatusProceedingsRejected         SubmissionStatus = "proceedings_rejected"
	StatusProceedingsPublished        SubmissionStatus = "proceedings_published"
)

// Final decisions recorded by MakeDecision.
const (
	DecisionAccept        = "accept"
	DecisionMinorRevision = "minor_revision"
	DecisionMajorRevision = "major_revision"
	DecisionReject        = "reject"
)

type Submission struct {
	SubmissionID     int     `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	SubmissionNumber string  `gorm:"column:submission_number;unique" json:"submission_number"`
	ConferenceID     int     `gorm:"column:conference_id" json:"conference_id"`
	UserID           int     `gorm:"column:user_id" json:"user_id"`
	Title            string  `gorm:"column:title" json:"title"`
	Abstract         *string `gorm:"column:abstract" json:"abstract,omitempty"`

	// Classification fields are immutable once the submission is accepted.
	Discipline       string `gorm:"column:discipline" json:"discipline"`
	ResearchType     string `gorm:"column:research_type" json:"research_type"`
	AcademicLevel    string `gorm:"column:academic_level" json:"academic_level"`
	PresentationType string `gorm:"column:presentation_type" json:"presentation_type"`

	// Derived from the author list on every mutating command, never set directly.
	IsStudentResearch bool `gorm:"column:is_student_research" json:"is_student_research"`

	Status  SubmissionStatus `gorm:"column:status" json:"status"`
	Version int              `gorm:"column:version" json:"version"`

	// ReviewRound starts at 1 and increments each time review reopens after a
	// revision. New reviewer assignments are stamped with the current round.
	ReviewRound int `gorm:"column:review_round" json:"review_round"`

	EditorID         *int       `gorm:"column:editor_id" json:"editor_id,omitempty"`
	Decision         *string    `gorm:"column:decision" json:"decision,omitempty"`
	DecisionComments *string    `gorm:"column:decision_comments" json:"decision_comments,omitempty"`
	DecidedBy        *int       `gorm:"column:decided_by" json:"decided_by,omitempty"`
	DecidedAt        *time.Time `gorm:"column:decided_at" json:"decided_at,omitempty"`

	SubmittedAt *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	PresentedAt *time.Time `gorm:"column:presented_at" json:"presented_at,omitempty"`
	WithdrawnAt *time.Time `gorm:"column:withdrawn_at" json:"withdrawn_at,omitempty"`

	AvailabilityNotes     *string    `gorm:"column:availability_notes" json:"availability_notes,omitempty"`
	AvailabilityUpdatedAt *time.Time `gorm:"column:availability_updated_at" json:"availability_updated_at,omitempty"`

	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Authors      []SubmissionAuthor   `gorm:"foreignKey:SubmissionID" json:"authors,omitempty"`
	Reviewers    []ReviewerAssignment `gorm:"foreignKey:SubmissionID" json:"reviewers,omitempty"`
	Proceedings  *ProceedingsRecord   `gorm:"foreignKey:SubmissionID" json:"proceedings,omitempty"`
	Availability []AvailabilitySlot   `gorm:"foreignKey:SubmissionID" json:"availability,omitempty"`
	Editor       *User                `gorm:"foreignKey:EditorID" json:"editor,omitempty"`
	Conference   *Conference          `gorm:"foreignKey:ConferenceID" json:"conference,omitempty"`

	// Events appended by transitions, drained by the persistence layer.
	pendingEvents []NotificationEvent
}

func (Submission) TableName() string {
	return "submissions"
}

// NewDraftSubmission builds a draft with the creator as corresponding author.
// The submission number is assigned by the caller before saving.
func NewDraftSubmission(conferenceID int, corresponding SubmissionAuthor, title string, now time.Time) (*Submission, error) {
	if strings.TrimSpace(title) == "" {
		return nil, newValidationError("title is required")
	}
	if corresponding.UserID == nil {
		return nil, newValidationError("corresponding author must be a platform user")
	}
	corresponding.Role = AuthorRoleCorresponding
	corresponding.DisplayOrder = 1
	corresponding.CreateAt = &now

	sub := &Submission{
		ConferenceID: conferenceID,
		UserID:       *corresponding.UserID,
		Title:        strings.TrimSpace(title),
		Status:       StatusDraft,
		Version:      1,
		ReviewRound:  1,
		Authors:      []SubmissionAuthor{corresponding},
		CreateAt:     &now,
		UpdateAt:     &now,
	}
	sub.recomputeDerived()
	return sub, nil
}

// IsEditable reports whether the corresponding author may still edit paper
// metadata and classification.
func (s *Submission) IsEditable() bool {
	return s.Status == StatusDraft
}

// IsAuthorListEditable reports whether author rows may be added or removed.
func (s *Submission) IsAuthorListEditable() bool {
	return s.Status == StatusDraft || s.Status == StatusPendingRevision
}

// IsClassificationLocked reports whether the classification fields are frozen.
// They freeze at acceptance and stay frozen for every later state.
func (s *Submission) IsClassificationLocked() bool {
	switch s.Status {
	case StatusDraft, StatusSubmitted, StatusUnderReview, StatusPendingRevision, StatusRevised:
		return false
	}
	return true
}

// CanWithdraw reports whether the author may still withdraw. Withdrawal
// competes with the editor decision, so it closes once a decision lands.
func (s *Submission) CanWithdraw() bool {
	switch s.Status {
	case StatusDraft, StatusSubmitted, StatusUnderReview, StatusPendingRevision, StatusRevised:
		return true
	}
	return false
}

// HasPresented reports whether the primary workflow has passed through
// presented, which is the proceedings eligibility gate.
func (s *Submission) HasPresented() bool {
	return s.PresentedAt != nil
}

// CorrespondingAuthor returns the single corresponding-author row.
func (s *Submission) CorrespondingAuthor() *SubmissionAuthor {
	for i := range s.Authors {
		if s.Authors[i].Role == AuthorRoleCorresponding {
			return &s.Authors[i]
		}
	}
	return nil
}

// CoAuthors returns co-author rows in display order.
func (s *Submission) CoAuthors() []SubmissionAuthor {
	return s.authorsWithRole(AuthorRoleCoauthor)
}

// Sponsors returns faculty-sponsor rows in display order.
func (s *Submission) Sponsors() []SubmissionAuthor {
	return s.authorsWithRole(AuthorRoleSponsor)
}

func (s *Submission) authorsWithRole(role string) []SubmissionAuthor {
	out := make([]SubmissionAuthor, 0, len(s.Authors))
	for _, a := range s.Authors {
		if a.Role == role {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out
}

// Presenters returns every author currently designated as a presenter.
func (s *Submission) Presenters() []SubmissionAuthor {
	out := make([]SubmissionAuthor, 0, len(s.Authors))
	for _, a := range s.Authors {
		if a.IsPresenter {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out
}

// AssociatedUserIDs derives the set of platform users holding any role on the
// submission: authors, sponsors, the editor, and reviewers. The result is
// sorted and deduplicated. It is recomputed on demand, never stored.
func (s *Submission) AssociatedUserIDs() []int {
	seen := make(map[int]struct{})
	add := func(id int) {
		if id != 0 {
			seen[id] = struct{}{}
		}
	}
	for _, a := range s.Authors {
		if a.UserID != nil {
			add(*a.UserID)
		}
	}
	for _, r := range s.Reviewers {
		add(r.ReviewerID)
	}
	if s.EditorID != nil {
		add(*s.EditorID)
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// recomputeDerived refreshes the fields derived from the author list. Every
// mutating command calls it; the stored values are projections only.
func (s *Submission) recomputeDerived() {
	student := false
	for _, a := range s.Authors {
		if a.Role != AuthorRoleSponsor && a.IsStudentAuthor {
			student = true
			break
		}
	}
	s.IsStudentResearch = student
}

func (s *Submission) appendEvent(eventType, title, message string, recipients []int) {
	s.pendingEvents = append(s.pendingEvents, NotificationEvent{
		Type:       eventType,
		Title:      title,
		Message:    message,
		Recipients: recipients,
	})
}

// PendingEvents returns the notification events appended by transitions since
// the aggregate was loaded.
func (s *Submission) PendingEvents() []NotificationEvent {
	return s.pendingEvents
}

// DrainEvents returns the pending events and clears the buffer. The
// persistence layer drains exactly once per committed transaction.
func (s *Submission) DrainEvents() []NotificationEvent {
	events := s.pendingEvents
	s.pendingEvents = nil
	return events
}
