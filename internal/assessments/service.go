package assessments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
)

// Service manages the single per-user training assessment.
type Service interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*AssessmentDTO, error)
	Autosave(ctx context.Context, userID uuid.UUID, input AutosaveInput) (*AssessmentDTO, error)
	Complete(ctx context.Context, userID uuid.UUID) (*AssessmentDTO, error)
}

// AutosaveInput is the idempotent upsert payload the client sends every 30
// seconds and on navigation. Nil maps leave the stored value untouched.
type AutosaveInput struct {
	Ratings             map[string]int
	Reflections         map[string]string
	ActionPlan          map[string]models.ActionPlanEntry
	AccountabilityName  *string
	AccountabilityEmail *string
	CheckinDate         *time.Time
}

// AssessmentDTO is the API shape of an assessment.
type AssessmentDTO struct {
	ID                  uuid.UUID                         `json:"id"`
	UserID              uuid.UUID                         `json:"user_id"`
	Ratings             map[string]int                    `json:"ratings"`
	Reflections         map[string]string                 `json:"reflections"`
	TopRoadblocks       []string                          `json:"top_roadblocks"`
	ActionPlan          map[string]models.ActionPlanEntry `json:"action_plan"`
	AccountabilityName  *string                           `json:"accountability_name,omitempty"`
	AccountabilityEmail *string                           `json:"accountability_email,omitempty"`
	CheckinDate         *time.Time                        `json:"checkin_date,omitempty"`
	CompletedAt         *time.Time                        `json:"completed_at,omitempty"`
	Complete            bool                              `json:"complete"`
}

type assessmentStore interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Assessment, error)
	Create(ctx context.Context, assessment *models.Assessment) (*models.Assessment, error)
	Update(ctx context.Context, assessment *models.Assessment) (*models.Assessment, error)
}

type userLoader interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type notifier interface {
	AssessmentSubmitted(ctx context.Context, recipient, participantName, participantEmail string, topRoadblocks []string)
	ManualDelivery(ctx context.Context, recipient, name, manualURL string)
}

type service struct {
	repo       assessmentStore
	users      userLoader
	notify     notifier
	adminEmail string
	manualURL  string
}

// NewService constructs the assessment service. adminEmail receives the
// submitted notification; manualURL is the unlocked training manual link.
func NewService(repo assessmentStore, users userLoader, notify notifier, adminEmail, manualURL string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("assessment repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{repo: repo, users: users, notify: notify, adminEmail: adminEmail, manualURL: manualURL}, nil
}

// GetOrCreate returns the user's assessment, creating the empty record on
// first load.
func (s *service) GetOrCreate(ctx context.Context, userID uuid.UUID) (*AssessmentDTO, error) {
	assessment, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return newDTO(assessment), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load assessment")
	}

	created, err := s.repo.Create(ctx, &models.Assessment{UserID: userID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create assessment")
	}
	return newDTO(created), nil
}

// Autosave upserts in-progress answers. Finalized assessments are frozen;
// autosaves against them are rejected so a stale client cannot reopen one.
func (s *service) Autosave(ctx context.Context, userID uuid.UUID, input AutosaveInput) (*AssessmentDTO, error) {
	if err := validateAutosave(input); err != nil {
		return nil, err
	}

	assessment, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if assessment.Complete() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "assessment is already complete")
	}

	if input.Ratings != nil {
		assessment.Ratings = datatypes.NewJSONType(input.Ratings)
	}
	if input.Reflections != nil {
		assessment.Reflections = datatypes.NewJSONType(input.Reflections)
	}
	if input.ActionPlan != nil {
		assessment.ActionPlan = datatypes.NewJSONType(input.ActionPlan)
	}
	if input.AccountabilityName != nil {
		assessment.AccountabilityName = input.AccountabilityName
	}
	if input.AccountabilityEmail != nil {
		assessment.AccountabilityEmail = input.AccountabilityEmail
	}
	if input.CheckinDate != nil {
		assessment.CheckinDate = input.CheckinDate
	}

	updated, err := s.repo.Update(ctx, assessment)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save assessment")
	}
	return newDTO(updated), nil
}

// Complete finalizes the assessment: recomputes and persists the top
// roadblocks, stamps the completion time, and fires the submitted and
// manual-delivery emails. Completing an already complete assessment is a
// no-op returning the stored record.
func (s *service) Complete(ctx context.Context, userID uuid.UUID) (*AssessmentDTO, error) {
	assessment, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if assessment.Complete() {
		return newDTO(assessment), nil
	}

	ratings := assessment.Ratings.Data()
	if len(ratings) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot complete an assessment with no ratings")
	}

	now := time.Now()
	assessment.TopRoadblocks = TopRoadblocks(ratings)
	assessment.CompletedAt = &now

	updated, err := s.repo.Update(ctx, assessment)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: complete assessment")
	}

	if user, err := s.users.FindUserByID(ctx, userID); err == nil {
		s.notify.AssessmentSubmitted(ctx, s.adminEmail, user.Name, user.Email, updated.TopRoadblocks)
		s.notify.ManualDelivery(ctx, user.Email, user.Name, s.manualURL)
	}

	return newDTO(updated), nil
}

func (s *service) loadOrCreate(ctx context.Context, userID uuid.UUID) (*models.Assessment, error) {
	assessment, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return assessment, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load assessment")
	}
	created, err := s.repo.Create(ctx, &models.Assessment{UserID: userID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create assessment")
	}
	return created, nil
}

func validateAutosave(input AutosaveInput) error {
	for id, rating := range input.Ratings {
		if !KnownRoadblock(id) {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown roadblock %q", id))
		}
		if rating < 1 || rating > 5 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("rating for %q must be between 1 and 5", id))
		}
	}
	for id := range input.ActionPlan {
		if !KnownRoadblock(id) {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown roadblock %q in action plan", id))
		}
	}
	if input.AccountabilityEmail != nil {
		if email := strings.TrimSpace(*input.AccountabilityEmail); email != "" && !strings.Contains(email, "@") {
			return pkgerrors.New(pkgerrors.CodeValidation, "accountability email is invalid")
		}
	}
	return nil
}

func newDTO(assessment *models.Assessment) *AssessmentDTO {
	return &AssessmentDTO{
		ID:                  assessment.ID,
		UserID:              assessment.UserID,
		Ratings:             assessment.Ratings.Data(),
		Reflections:         assessment.Reflections.Data(),
		TopRoadblocks:       assessment.TopRoadblocks,
		ActionPlan:          assessment.ActionPlan.Data(),
		AccountabilityName:  assessment.AccountabilityName,
		AccountabilityEmail: assessment.AccountabilityEmail,
		CheckinDate:         assessment.CheckinDate,
		CompletedAt:         assessment.CompletedAt,
		Complete:            assessment.Complete(),
	}
}
