package models

import (
	"strings"
	"time"
)

// Author roles on a submission.
const (
	AuthorRoleCorresponding = "corresponding"
	AuthorRoleCoauthor      = "coauthor"
	AuthorRoleSponsor       = "sponsor"
)

// SubmissionAuthor is one row of the submission's role registry. UserID is
// nil for external collaborators; the contact fields are then authoritative.
// For platform users the contact fields are a snapshot taken when the row was
// added, so the conflict-of-interest check works without a user join.
type SubmissionAuthor struct {
	AuthorID     int    `gorm:"primaryKey;column:author_id" json:"author_id"`
	SubmissionID int    `gorm:"column:submission_id" json:"submission_id"`
	UserID       *int   `gorm:"column:user_id" json:"user_id,omitempty"`
	Role         string `gorm:"column:role" json:"role"`
	DisplayOrder int    `gorm:"column:display_order" json:"display_order"`

	FirstName   string  `gorm:"column:first_name" json:"first_name"`
	LastName    string  `gorm:"column:last_name" json:"last_name"`
	Email       *string `gorm:"column:email" json:"email,omitempty"`
	Institution string  `gorm:"column:institution" json:"institution"`

	IsStudentAuthor    bool `gorm:"column:is_student_author" json:"is_student_author"`
	IsPresenter        bool `gorm:"column:is_presenter" json:"is_presenter"`
	IsPrimaryPresenter bool `gorm:"column:is_primary_presenter" json:"is_primary_presenter"`

	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`

	// Relation
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (SubmissionAuthor) TableName() string {
	return "submission_authors"
}

// IsExternal reports whether the author has no platform identity.
func (a *SubmissionAuthor) IsExternal() bool {
	return a.UserID == nil
}

// FullName joins the snapshot name parts.
func (a *SubmissionAuthor) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(a.FirstName) + " " + strings.TrimSpace(a.LastName))
}

// AddCoAuthor appends a co-author row. The corresponding-author row is fixed;
// this only ever grows the ordered co-author sequence.
func (s *Submission) AddCoAuthor(author SubmissionAuthor, now time.Time) error {
	if !s.IsAuthorListEditable() {
		return newValidationError("author list is locked in status %s", s.Status)
	}
	if strings.TrimSpace(author.FirstName) == "" && strings.TrimSpace(author.LastName) == "" {
		return newValidationError("co-author name is required")
	}
	if author.UserID != nil {
		for _, existing := range s.Authors {
			if existing.UserID != nil && *existing.UserID == *author.UserID {
				return newValidationError("user %d is already an author", *author.UserID)
			}
		}
	}
	author.Role = AuthorRoleCoauthor
	author.SubmissionID = s.SubmissionID
	author.DisplayOrder = s.nextDisplayOrder(AuthorRoleCoauthor)
	author.CreateAt = &now
	s.Authors = append(s.Authors, author)
	s.recomputeDerived()
	return nil
}

// AddSponsor appends a faculty-sponsor row. Sponsors only make sense for
// student research, which is checked against the derived flag.
func (s *Submission) AddSponsor(sponsor SubmissionAuthor, now time.Time) error {
	if !s.IsAuthorListEditable() {
		return newValidationError("author list is locked in status %s", s.Status)
	}
	if !s.IsStudentResearch {
		return newValidationError("faculty sponsors require student research")
	}
	if sponsor.UserID != nil {
		for _, existing := range s.Authors {
			if existing.UserID != nil && *existing.UserID == *sponsor.UserID {
				return newValidationError("user %d is already an author", *sponsor.UserID)
			}
		}
	}
	sponsor.Role = AuthorRoleSponsor
	sponsor.SubmissionID = s.SubmissionID
	sponsor.DisplayOrder = s.nextDisplayOrder(AuthorRoleSponsor)
	sponsor.IsStudentAuthor = false
	sponsor.CreateAt = &now
	s.Authors = append(s.Authors, sponsor)
	s.recomputeDerived()
	return nil
}

// RemoveAuthor drops a co-author or sponsor row. The corresponding author can
// never be removed. Any presenter designation on the removed row goes with it,
// and the derived fields are refreshed so the removed user loses their
// association.
func (s *Submission) RemoveAuthor(authorID int) error {
	if !s.IsAuthorListEditable() {
		return newValidationError("author list is locked in status %s", s.Status)
	}
	idx := -1
	for i := range s.Authors {
		if s.Authors[i].AuthorID == authorID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return newValidationError("author %d is not on this submission", authorID)
	}
	if s.Authors[idx].Role == AuthorRoleCorresponding {
		return newValidationError("the corresponding author cannot be removed")
	}
	removed := s.Authors[idx]
	s.Authors = append(s.Authors[:idx], s.Authors[idx+1:]...)
	s.compactDisplayOrder(removed.Role)
	s.recomputeDerived()
	return nil
}

// SetPresenters replaces the presenter designation set. Author ids not listed
// lose the flag. The primary-presenter flag survives only if its author is
// still a presenter.
func (s *Submission) SetPresenters(authorIDs []int, now time.Time) error {
	want := make(map[int]struct{}, len(authorIDs))
	for _, id := range authorIDs {
		want[id] = struct{}{}
	}
	for id := range want {
		if s.findAuthor(id) == nil {
			return newValidationError("author %d is not on this submission", id)
		}
	}
	for i := range s.Authors {
		_, ok := want[s.Authors[i].AuthorID]
		s.Authors[i].IsPresenter = ok
		if !ok {
			s.Authors[i].IsPrimaryPresenter = false
		}
		s.Authors[i].UpdateAt = &now
	}
	return nil
}

// SetPrimaryPresenter marks one presenter as primary, atomically clearing the
// previous primary. The author must already be a presenter.
func (s *Submission) SetPrimaryPresenter(authorID int, now time.Time) error {
	target := s.findAuthor(authorID)
	if target == nil {
		return newValidationError("author %d is not on this submission", authorID)
	}
	if !target.IsPresenter {
		return newValidationError("author %d is not a presenter", authorID)
	}
	for i := range s.Authors {
		s.Authors[i].IsPrimaryPresenter = s.Authors[i].AuthorID == authorID
		s.Authors[i].UpdateAt = &now
	}
	return nil
}

// PrimaryPresenter returns the primary presenter row, or nil when none is set.
func (s *Submission) PrimaryPresenter() *SubmissionAuthor {
	for i := range s.Authors {
		if s.Authors[i].IsPrimaryPresenter {
			return &s.Authors[i]
		}
	}
	return nil
}

func (s *Submission) findAuthor(authorID int) *SubmissionAuthor {
	for i := range s.Authors {
		if s.Authors[i].AuthorID == authorID {
			return &s.Authors[i]
		}
	}
	return nil
}

func (s *Submission) nextDisplayOrder(role string) int {
	max := 0
	for _, a := range s.Authors {
		if a.Role == role && a.DisplayOrder > max {
			max = a.DisplayOrder
		}
	}
	return max + 1
}

func (s *Submission) compactDisplayOrder(role string) {
	order := 1
	for i := range s.Authors {
		if s.Authors[i].Role == role {
			s.Authors[i].DisplayOrder = order
			order++
		}
	}
}
