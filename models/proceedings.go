package models

import (
	"fmt"
	"time"
)

// ProceedingsPhase is the state of the proceedings sub-machine. The two
// projection-only values cover submissions without a proceedings record.
type ProceedingsPhase string

const (
	PhaseNotEligible        ProceedingsPhase = "not_eligible"
	PhaseEligible           ProceedingsPhase = "eligible"
	PhaseInvitationSent     ProceedingsPhase = "invitation_sent"
	PhaseAcceptedInvitation ProceedingsPhase = "accepted_invitation"
	PhaseDeclinedInvitation ProceedingsPhase = "declined_invitation"
	PhaseSubmitted          ProceedingsPhase = "submitted"
	PhaseUnderReview        ProceedingsPhase = "under_review"
	PhaseRevisionRequired   ProceedingsPhase = "revision_required"
	PhaseRevised            ProceedingsPhase = "revised"
	PhaseAccepted           ProceedingsPhase = "accepted"
	PhaseRejected           ProceedingsPhase = "rejected"
	PhasePublished          ProceedingsPhase = "published"
)

// Proceedings decisions.
const (
	ProceedingsDecisionAccept           = "accept"
	ProceedingsDecisionReject           = "reject"
	ProceedingsDecisionRevisionRequired = "revision_required"
)

// DefaultInvitationDeadlineDays is applied when an invitation carries no
// explicit response deadline.
const DefaultInvitationDeadlineDays = 42

type ProceedingsRecord struct {
	ProceedingsID int              `gorm:"primaryKey;column:proceedings_id" json:"proceedings_id"`
	SubmissionID  int              `gorm:"column:submission_id" json:"submission_id"`
	Phase         ProceedingsPhase `gorm:"column:phase" json:"phase"`

	InvitedBy          int        `gorm:"column:invited_by" json:"invited_by"`
	InvitedAt          time.Time  `gorm:"column:invited_at" json:"invited_at"`
	InvitationDeadline time.Time  `gorm:"column:invitation_deadline" json:"invitation_deadline"`
	RespondedAt        *time.Time `gorm:"column:responded_at" json:"responded_at,omitempty"`
	ResponseComments   *string    `gorm:"column:response_comments" json:"response_comments,omitempty"`

	// Maintained by the reminder scan, not by workflow transitions.
	LastRemindedAt *time.Time `gorm:"column:last_reminded_at" json:"-"`

	PaperTitle  *string    `gorm:"column:paper_title" json:"paper_title,omitempty"`
	PaperFileID *int       `gorm:"column:paper_file_id" json:"paper_file_id,omitempty"`
	SubmittedBy *int       `gorm:"column:submitted_by" json:"submitted_by,omitempty"`
	SubmittedAt *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`

	EditorID         *int       `gorm:"column:editor_id" json:"editor_id,omitempty"`
	Decision         *string    `gorm:"column:decision" json:"decision,omitempty"`
	DecisionComments *string    `gorm:"column:decision_comments" json:"decision_comments,omitempty"`
	DecidedBy        *int       `gorm:"column:decided_by" json:"decided_by,omitempty"`
	DecidedAt        *time.Time `gorm:"column:decided_at" json:"decided_at,omitempty"`
	RevisionDeadline *time.Time `gorm:"column:revision_deadline" json:"revision_deadline,omitempty"`

	Volume      *string    `gorm:"column:volume" json:"volume,omitempty"`
	Pages       *string    `gorm:"column:pages" json:"pages,omitempty"`
	DOI         *string    `gorm:"column:doi" json:"doi,omitempty"`
	PublishedBy *int       `gorm:"column:published_by" json:"published_by,omitempty"`
	PublishedAt *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`

	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`

	Revisions []ProceedingsRevision `gorm:"foreignKey:ProceedingsID" json:"revisions,omitempty"`
}

func (ProceedingsRecord) TableName() string {
	return "submission_proceedings"
}

type ProceedingsRevision struct {
	RevisionID    int        `gorm:"primaryKey;column:revision_id" json:"revision_id"`
	ProceedingsID int        `gorm:"column:proceedings_id" json:"proceedings_id"`
	Version       int        `gorm:"column:version" json:"version"`
	FileID        *int       `gorm:"column:file_id" json:"file_id,omitempty"`
	Comments      *string    `gorm:"column:comments" json:"comments,omitempty"`
	SubmittedBy   int        `gorm:"column:submitted_by" json:"submitted_by"`
	CreateAt      *time.Time `gorm:"column:create_at" json:"create_at"`
}

func (ProceedingsRevision) TableName() string {
	return "proceedings_revisions"
}

// DaysUntilInvitationDeadline returns whole days until the response deadline,
// negative when past.
func (p *ProceedingsRecord) DaysUntilInvitationDeadline(now time.Time) int {
	return int(p.InvitationDeadline.Sub(now).Hours() / 24)
}

// IsInvitationExpired reports whether an unanswered invitation is past its
// deadline.
func (p *ProceedingsRecord) IsInvitationExpired(now time.Time) bool {
	return p.Phase == PhaseInvitationSent && now.After(p.InvitationDeadline)
}

// InviteToProceedings creates the proceedings record and sends the invitation.
// This is the single entry point of the sub-machine: it requires the primary
// workflow to be sitting at presented and no prior record to exist.
func (s *Submission) InviteToProceedings(invitedBy int, deadline *time.Time, now time.Time) error {
	if s.Proceedings != nil {
		return fmt.Errorf("%w: proceedings invitation already exists for %s", ErrInvalidTransition, s.SubmissionNumber)
	}
	if s.Status != StatusPresented || !s.HasPresented() {
		return newTransitionError("invite to proceedings", s.Status, StatusProceedingsInvited)
	}

	due := now.AddDate(0, 0, DefaultInvitationDeadlineDays)
	if deadline != nil {
		due = *deadline
	}
	s.Proceedings = &ProceedingsRecord{
		SubmissionID:       s.SubmissionID,
		Phase:              PhaseInvitationSent,
		InvitedBy:          invitedBy,
		InvitedAt:          now,
		InvitationDeadline: due,
		CreateAt:           &now,
	}
	s.Status = StatusProceedingsInvited
	s.UpdateAt = &now

	s.appendEvent("proceedings_invited",
		"Proceedings invitation",
		fmt.Sprintf("Submission %s has been invited to the conference proceedings. Please respond by %s.", s.SubmissionNumber, due.Format("January 2, 2006")),
		s.authorRecipients())
	return nil
}

// RespondToProceedingsInvitation records the author response. Declining is
// terminal for the sub-machine: the record is kept in declined_invitation and
// the displayed status returns to presented.
func (s *Submission) RespondToProceedingsInvitation(accepted bool, comments *string, now time.Time) error {
	p := s.Proceedings
	if p == nil || p.Phase != PhaseInvitationSent {
		return s.proceedingsPhaseError("respond to invitation", PhaseAcceptedInvitation)
	}
	p.RespondedAt = &now
	p.ResponseComments = comments
	p.UpdateAt = &now
	s.UpdateAt = &now

	if accepted {
		p.Phase = PhaseAcceptedInvitation
		s.appendEvent("proceedings_invitation_accepted",
			"Proceedings invitation accepted",
			fmt.Sprintf("The authors of %s accepted the proceedings invitation.", s.SubmissionNumber),
			[]int{p.InvitedBy})
		return nil
	}

	p.Phase = PhaseDeclinedInvitation
	s.Status = StatusPresented
	s.appendEvent("proceedings_invitation_declined",
		"Proceedings invitation declined",
		fmt.Sprintf("The authors of %s declined the proceedings invitation.", s.SubmissionNumber),
		[]int{p.InvitedBy})
	return nil
}

// SubmitProceedingsPaper attaches the full paper and moves the sub-machine to
// submitted.
func (s *Submission) SubmitProceedingsPaper(paperTitle string, fileID *int, submittedBy int, now time.Time) error {
	p := s.Proceedings
	if p == nil || p.Phase != PhaseAcceptedInvitation {
		return s.proceedingsPhaseError("submit paper", PhaseSubmitted)
	}
	p.Phase = PhaseSubmitted
	p.PaperTitle = &paperTitle
	p.PaperFileID = fileID
	p.SubmittedBy = &submittedBy
	p.SubmittedAt = &now
	p.UpdateAt = &now
	s.Status = StatusProceedingsSubmitted
	s.UpdateAt = &now

	s.appendEvent("proceedings_paper_submitted",
		"Proceedings paper submitted",
		fmt.Sprintf("A proceedings paper has been submitted for %s.", s.SubmissionNumber),
		[]int{p.InvitedBy})
	return nil
}

// AssignProceedingsEditor moves a submitted paper under proceedings review.
func (s *Submission) AssignProceedingsEditor(editorID int, now time.Time) error {
	p := s.Proceedings
	if p == nil || p.Phase != PhaseSubmitted {
		return s.proceedingsPhaseError("assign proceedings editor", PhaseUnderReview)
	}
	p.Phase = PhaseUnderReview
	p.EditorID = &editorID
	p.UpdateAt = &now
	s.Status = StatusProceedingsUnderReview
	s.UpdateAt = &now

	s.appendEvent("proceedings_editor_assigned",
		"Proceedings editor assigned",
		fmt.Sprintf("An editor has been assigned to the proceedings paper for %s.", s.SubmissionNumber),
		append(s.authorRecipients(), editorID))
	return nil
}

// AddProceedingsRevision appends a version-numbered revision. Versions run
// 1..n in call order. A revision answering a revision_required decision moves
// the phase to revised and hands the paper back to the editor.
func (s *Submission) AddProceedingsRevision(fileID *int, comments *string, submittedBy int, now time.Time) (*ProceedingsRevision, error) {
	p := s.Proceedings
	if p == nil {
		return nil, s.proceedingsPhaseError("add revision", PhaseRevised)
	}
	switch p.Phase {
	case PhaseSubmitted, PhaseUnderReview, PhaseRevisionRequired, PhaseRevised:
	default:
		return nil, s.proceedingsPhaseError("add revision", PhaseRevised)
	}

	revision := ProceedingsRevision{
		ProceedingsID: p.ProceedingsID,
		Version:       len(p.Revisions) + 1,
		FileID:        fileID,
		Comments:      comments,
		SubmittedBy:   submittedBy,
		CreateAt:      &now,
	}
	p.Revisions = append(p.Revisions, revision)
	if p.Phase == PhaseRevisionRequired {
		p.Phase = PhaseRevised
		s.Status = StatusProceedingsUnderReview
	}
	p.UpdateAt = &now
	s.UpdateAt = &now

	recipients := s.authorRecipients()
	if p.EditorID != nil {
		recipients = append(recipients, *p.EditorID)
	}
	s.appendEvent("proceedings_revision_added",
		"Proceedings revision added",
		fmt.Sprintf("Revision %d of the proceedings paper for %s has been uploaded.", revision.Version, s.SubmissionNumber),
		recipients)
	return &p.Revisions[len(p.Revisions)-1], nil
}

// MakeProceedingsDecision records the proceedings editor decision.
func (s *Submission) MakeProceedingsDecision(decision string, comments *string, revisionDeadline *time.Time, decidedBy int, now time.Time) error {
	p := s.Proceedings
	if p == nil {
		return s.proceedingsPhaseError("decide proceedings", PhaseAccepted)
	}
	switch p.Phase {
	case PhaseUnderReview, PhaseRevised:
	default:
		return s.proceedingsPhaseError("decide proceedings", PhaseAccepted)
	}

	switch decision {
	case ProceedingsDecisionAccept:
		p.Phase = PhaseAccepted
		s.Status = StatusProceedingsAccepted
	case ProceedingsDecisionReject:
		p.Phase = PhaseRejected
		s.Status = StatusProceedingsRejected
	case ProceedingsDecisionRevisionRequired:
		p.Phase = PhaseRevisionRequired
		s.Status = StatusProceedingsRevisionRequired
		p.RevisionDeadline = revisionDeadline
	default:
		return newValidationError("unknown proceedings decision %q", decision)
	}
	p.Decision = &decision
	p.DecisionComments = comments
	p.DecidedBy = &decidedBy
	p.DecidedAt = &now
	p.UpdateAt = &now
	s.UpdateAt = &now

	s.appendEvent("proceedings_decision_made",
		"Proceedings decision recorded",
		fmt.Sprintf("The proceedings paper for %s has received a decision: %s.", s.SubmissionNumber, decision),
		s.authorRecipients())
	return nil
}

// PublishProceedings is the terminal transition of the sub-machine.
func (s *Submission) PublishProceedings(volume, pages, doi *string, publishedBy int, now time.Time) error {
	p := s.Proceedings
	if p == nil || p.Phase != PhaseAccepted {
		return s.proceedingsPhaseError("publish", PhasePublished)
	}
	p.Phase = PhasePublished
	p.Volume = volume
	p.Pages = pages
	p.DOI = doi
	p.PublishedBy = &publishedBy
	p.PublishedAt = &now
	p.UpdateAt = &now
	s.Status = StatusProceedingsPublished
	s.UpdateAt = &now

	s.appendEvent("proceedings_published",
		"Proceedings paper published",
		fmt.Sprintf("The proceedings paper for %s has been published.", s.SubmissionNumber),
		s.authorRecipients())
	return nil
}

func (s *Submission) proceedingsPhaseError(op string, to ProceedingsPhase) error {
	return newProceedingsTransitionError(op, s.ProceedingsPhase(), to)
}

// ProceedingsPhase returns the effective sub-machine phase, covering
// submissions that were never invited.
func (s *Submission) ProceedingsPhase() ProceedingsPhase {
	if s.Proceedings != nil {
		return s.Proceedings.Phase
	}
	if s.HasPresented() {
		return PhaseEligible
	}
	return PhaseNotEligible
}

// ProceedingsStatusSummary is the read projection returned by
// ProceedingsStatus.
type ProceedingsStatusSummary struct {
	Phase            ProceedingsPhase `json:"phase"`
	HumanDescription string           `json:"human_description"`
	CanSubmit        bool             `json:"can_submit"`
	NeedsAction      bool             `json:"needs_action"`
	NextStep         string           `json:"next_step"`
}

// ProceedingsStatus summarizes the sub-machine for display without mutating
// anything. Every reachable phase, including never-invited, maps to a summary.
func (s *Submission) ProceedingsStatus() ProceedingsStatusSummary {
	phase := s.ProceedingsPhase()
	switch phase {
	case PhaseNotEligible:
		return ProceedingsStatusSummary{phase, "Not eligible: the work has not been presented at the conference.", false, false, "Present the work at the conference."}
	case PhaseEligible:
		return ProceedingsStatusSummary{phase, "Eligible for proceedings; no invitation has been sent yet.", false, false, "Wait for a proceedings invitation."}
	case PhaseInvitationSent:
		return ProceedingsStatusSummary{phase, "Invited to the proceedings; awaiting the authors' response.", false, true, "Accept or decline the invitation."}
	case PhaseAcceptedInvitation:
		return ProceedingsStatusSummary{phase, "Invitation accepted; the full paper has not been submitted yet.", true, true, "Submit the full proceedings paper."}
	case PhaseDeclinedInvitation:
		return ProceedingsStatusSummary{phase, "The proceedings invitation was declined.", false, false, "No further action."}
	case PhaseSubmitted:
		return ProceedingsStatusSummary{phase, "Proceedings paper submitted; awaiting editor assignment.", false, false, "Wait for an editor to be assigned."}
	case PhaseUnderReview:
		return ProceedingsStatusSummary{phase, "Proceedings paper is under review.", false, false, "Wait for the editor decision."}
	case PhaseRevisionRequired:
		return ProceedingsStatusSummary{phase, "The editor has requested a revision of the proceedings paper.", true, true, "Upload a revised paper."}
	case PhaseRevised:
		return ProceedingsStatusSummary{phase, "A revised proceedings paper has been submitted and is with the editor.", false, false, "Wait for the editor decision."}
	case PhaseAccepted:
		return ProceedingsStatusSummary{phase, "The proceedings paper has been accepted for publication.", false, false, "Wait for publication."}
	case PhaseRejected:
		return ProceedingsStatusSummary{phase, "The proceedings paper was not accepted.", false, false, "No further action."}
	case PhasePublished:
		return ProceedingsStatusSummary{phase, "The paper is published in the conference proceedings.", false, false, "No further action."}
	}
	return ProceedingsStatusSummary{Phase: phase, HumanDescription: "Unknown proceedings phase."}
}
