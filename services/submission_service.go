package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gorm.io/gorm"

	"conference-management-api/models"
)

// SubmissionService owns submission creation, paper metadata edits and author
// list management. Review workflow transitions live in ReviewWorkflowService.
type SubmissionService struct {
	store submissionStore
}

// NewSubmissionService creates the service. Passing nil uses the global
// database connection.
func NewSubmissionService(db *gorm.DB) *SubmissionService {
	return &SubmissionService{store: newSubmissionStore(db)}
}

// Load returns the full aggregate or ErrNotFound.
func (s *SubmissionService) Load(ctx context.Context, submissionID int) (*models.Submission, error) {
	return s.store.load(ctx, submissionID)
}

// CreateSubmissionInput is the creation payload. The creator always becomes
// the corresponding author; classification may stay incomplete until the
// draft is submitted for review.
type CreateSubmissionInput struct {
	ConferenceID     int
	Title            string
	Abstract         *string
	Discipline       string
	ResearchType     string
	AcademicLevel    string
	PresentationType string
	CreatorIsStudent bool
}

// Create builds a draft submission with the creator as corresponding author,
// assigns a submission number and persists draft plus author row atomically.
func (s *SubmissionService) Create(ctx context.Context, userID int, input CreateSubmissionInput, clientIP string) (*models.Submission, error) {
	user, err := s.lookupUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var conference models.Conference
	err = s.store.db.WithContext(ctx).
		Where("conference_id = ? AND delete_at IS NULL", input.ConferenceID).
		First(&conference).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("conference %d: %w", input.ConferenceID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conference %d: %w", input.ConferenceID, err)
	}
	if !conference.IsOpen() {
		return nil, fmt.Errorf("%w: conference %s is not accepting submissions", models.ErrValidation, conference.Name)
	}

	now := s.store.now()
	corresponding := models.SubmissionAuthor{
		UserID:          &user.UserID,
		FirstName:       user.UserFname,
		LastName:        user.UserLname,
		Email:           &user.Email,
		Institution:     derefString(user.Institution),
		IsStudentAuthor: input.CreatorIsStudent,
	}

	sub, err := models.NewDraftSubmission(input.ConferenceID, corresponding, input.Title, now)
	if err != nil {
		return nil, err
	}
	sub.Abstract = input.Abstract
	sub.Discipline = strings.TrimSpace(input.Discipline)
	sub.ResearchType = strings.TrimSpace(input.ResearchType)
	sub.AcademicLevel = strings.TrimSpace(input.AcademicLevel)
	sub.PresentationType = strings.TrimSpace(input.PresentationType)
	sub.SubmissionNumber = s.generateSubmissionNumber(ctx, conference.Year)

	err = s.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sub).Error; err != nil {
			return fmt.Errorf("failed to create submission: %w", err)
		}
		rec := transitionRecord{actorID: userID, action: "create_submission", clientIP: clientIP}
		if err := s.store.recordAudit(tx, sub, rec, now); err != nil {
			return err
		}
		entry := models.SubmissionStatusHistory{
			SubmissionID: sub.SubmissionID,
			NewStatus:    string(sub.Status),
			ChangedBy:    userID,
			CreatedAt:    now,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// UpdateDetails edits title and abstract while the submission is a draft.
func (s *SubmissionService) UpdateDetails(ctx context.Context, submissionID, actorID int, title, abstract *string, clientIP string) (*models.Submission, error) {
	sub, err := s.store.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := sub.UpdateDetails(title, abstract, s.store.now()); err != nil {
		return nil, err
	}
	err = s.store.commitTransition(ctx, sub, transitionRecord{
		actorID:   actorID,
		action:    "update_submission_details",
		oldStatus: sub.Status,
		clientIP:  clientIP,
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// UpdateClassification applies partial classification changes until the
// submission is accepted, after which the axes are frozen.
func (s *SubmissionService) UpdateClassification(ctx context.Context, submissionID, actorID int, update models.ClassificationUpdate, clientIP string) (*models.Submission, error) {
	sub, err := s.store.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := sub.UpdateClassification(update, s.store.now()); err != nil {
		return nil, err
	}
	err = s.store.commitTransition(ctx, sub, transitionRecord{
		actorID:   actorID,
		action:    "update_classification",
		oldStatus: sub.Status,
		clientIP:  clientIP,
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// AuthorInput describes one author row to add. Either UserID references a
// platform user, whose contact fields are snapshotted automatically, or the
// contact fields describe an external collaborator.
type AuthorInput struct {
	UserID          *int
	FirstName       string
	LastName        string
	Email           *string
	Institution     string
	IsStudentAuthor bool
}

func (s *SubmissionService) buildAuthorRow(ctx context.Context, input AuthorInput) (models.SubmissionAuthor, error) {
	if input.UserID != nil {
		user, err := s.lookupUser(ctx, *input.UserID)
		if err != nil {
			return models.SubmissionAuthor{}, err
		}
		return models.SubmissionAuthor{
			UserID:          &user.UserID,
			FirstName:       user.UserFname,
			LastName:        user.UserLname,
			Email:           &user.Email,
			Institution:     derefString(user.Institution),
			IsStudentAuthor: input.IsStudentAuthor,
		}, nil
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return models.SubmissionAuthor{}, fmt.Errorf("%w: external authors need a first and last name", models.ErrValidation)
	}
	return models.SubmissionAuthor{
		FirstName:       strings.TrimSpace(input.FirstName),
		LastName:        strings.TrimSpace(input.LastName),
		Email:           input.Email,
		Institution:     strings.TrimSpace(input.Institution),
		IsStudentAuthor: input.IsStudentAuthor,
	}, nil
}

// AddCoAuthor appends a co-author while the author list is editable.
func (s *SubmissionService) AddCoAuthor(ctx context.Context, submissionID, actorID int, input AuthorInput, clientIP string) (*models.Submission, error) {
	return s.mutateAuthors(ctx, submissionID, actorID, "add_coauthor", clientIP, func(sub *models.Submission) error {
		row, err := s.buildAuthorRow(ctx, input)
		if err != nil {
			return err
		}
		return sub.AddCoAuthor(row, s.store.now())
	})
}

// AddSponsor appends a faculty sponsor. Sponsors only exist on student
// research.
func (s *SubmissionService) AddSponsor(ctx context.Context, submissionID, actorID int, input AuthorInput, clientIP string) (*models.Submission, error) {
	return s.mutateAuthors(ctx, submissionID, actorID, "add_sponsor", clientIP, func(sub *models.Submission) error {
		row, err := s.buildAuthorRow(ctx, input)
		if err != nil {
			return err
		}
		row.IsStudentAuthor = false
		return sub.AddSponsor(row, s.store.now())
	})
}

// RemoveAuthor drops a co-author or sponsor row. The corresponding author can
// never be removed.
func (s *SubmissionService) RemoveAuthor(ctx context.Context, submissionID, actorID, authorID int, clientIP string) (*models.Submission, error) {
	sub, err := s.store.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := sub.RemoveAuthor(authorID); err != nil {
		return nil, err
	}
	err = s.store.commitTransition(ctx, sub, transitionRecord{
		actorID:   actorID,
		action:    "remove_author",
		oldStatus: sub.Status,
		clientIP:  clientIP,
		children: func(tx *gorm.DB) error {
			if err := tx.Where("author_id = ?", authorID).Delete(&models.SubmissionAuthor{}).Error; err != nil {
				return fmt.Errorf("failed to delete author row: %w", err)
			}
			return persistAuthorRows(tx, sub)
		},
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// SetPresenters replaces the presenter set with the given author rows.
func (s *SubmissionService) SetPresenters(ctx context.Context, submissionID, actorID int, authorIDs []int, clientIP string) (*models.Submission, error) {
	return s.mutateAuthors(ctx, submissionID, actorID, "set_presenters", clientIP, func(sub *models.Submission) error {
		return sub.SetPresenters(authorIDs, s.store.now())
	})
}

// SetPrimaryPresenter marks one current presenter as primary.
func (s *SubmissionService) SetPrimaryPresenter(ctx context.Context, submissionID, actorID, authorID int, clientIP string) (*models.Submission, error) {
	return s.mutateAuthors(ctx, submissionID, actorID, "set_primary_presenter", clientIP, func(sub *models.Submission) error {
		return sub.SetPrimaryPresenter(authorID, s.store.now())
	})
}

// mutateAuthors runs one author-list command and persists every author row in
// the same version-guarded transaction.
func (s *SubmissionService) mutateAuthors(ctx context.Context, submissionID, actorID int, action, clientIP string, mutate func(*models.Submission) error) (*models.Submission, error) {
	sub, err := s.store.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := mutate(sub); err != nil {
		return nil, err
	}
	err = s.store.commitTransition(ctx, sub, transitionRecord{
		actorID:   actorID,
		action:    action,
		oldStatus: sub.Status,
		clientIP:  clientIP,
		children: func(tx *gorm.DB) error {
			return persistAuthorRows(tx, sub)
		},
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubmissionService) lookupUser(ctx context.Context, userID int) (*models.User, error) {
	return s.store.lookupUser(ctx, userID)
}

func (st submissionStore) lookupUser(ctx context.Context, userID int) (*models.User, error) {
	var user models.User
	err := st.db.WithContext(ctx).
		Where("user_id = ? AND delete_at IS NULL", userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return &user, nil
}

// persistAuthorRows writes the in-memory author list back: new rows are
// inserted, existing rows are saved in full so ordering and presenter flags
// stay consistent with the aggregate.
func persistAuthorRows(tx *gorm.DB, sub *models.Submission) error {
	for i := range sub.Authors {
		a := &sub.Authors[i]
		a.SubmissionID = sub.SubmissionID
		var err error
		if a.AuthorID == 0 {
			err = tx.Create(a).Error
		} else {
			err = tx.Save(a).Error
		}
		if err != nil {
			return fmt.Errorf("failed to persist author row: %w", err)
		}
	}
	return nil
}

// Global mutex for submission number generation
var submissionNumberMutex sync.Mutex

// generateSubmissionNumber builds PREFIX-YEAR-RUNNING, counting existing
// numbers for the conference year and probing a few slots before falling back
// to a random suffix when concurrent creators collide.
func (s *SubmissionService) generateSubmissionNumber(ctx context.Context, conferenceYear int) string {
	submissionNumberMutex.Lock()
	defer submissionNumberMutex.Unlock()

	prefix := strings.TrimSpace(os.Getenv("SUBMISSION_NUMBER_PREFIX"))
	if prefix == "" {
		prefix = "SOBIE"
	}

	yearLike := fmt.Sprintf("%s-%d-%%", prefix, conferenceYear)

	var count int64
	s.store.db.WithContext(ctx).Model(&models.Submission{}).
		Where("submission_number LIKE ?", yearLike).
		Count(&count)

	for i := int64(1); i <= 10; i++ {
		candidate := fmt.Sprintf("%s-%d-%04d", prefix, conferenceYear, count+i)

		var existing int64
		s.store.db.WithContext(ctx).Model(&models.Submission{}).
			Where("submission_number = ?", candidate).
			Count(&existing)

		if existing == 0 {
			return candidate
		}
	}

	bytes := make([]byte, 3)
	rand.Read(bytes)
	return fmt.Sprintf("%s-%d-R-%s", prefix, conferenceYear, strings.ToUpper(hex.EncodeToString(bytes)))
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
