package calls

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
)

// Service manages manually scheduled onboarding calls. Calendar sync writes
// through the repository's upsert path, not through here.
type Service interface {
	CreateCall(ctx context.Context, input CreateCallInput) (*models.ScheduledCall, error)
	UpdateCall(ctx context.Context, id uuid.UUID, input UpdateCallInput) (*models.ScheduledCall, error)
	DeleteCall(ctx context.Context, id uuid.UUID) error
	ListCalls(ctx context.Context, churchID uuid.UUID, upcoming bool) ([]models.ScheduledCall, error)
}

// CreateCallInput holds the validated payload to schedule a call.
type CreateCallInput struct {
	ChurchID    uuid.UUID
	CallType    enums.CallType
	Title       *string
	ScheduledAt time.Time
	MeetLink    *string
	Notes       *string
}

// UpdateCallInput holds optional mutations for a call.
type UpdateCallInput struct {
	CallType    *enums.CallType
	Title       *string
	ScheduledAt *time.Time
	Completed   *bool
	MeetLink    *string
	Notes       *string
}

type callStore interface {
	Create(ctx context.Context, call *models.ScheduledCall) (*models.ScheduledCall, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ScheduledCall, error)
	ListByChurch(ctx context.Context, churchID uuid.UUID, upcoming bool, now time.Time) ([]models.ScheduledCall, error)
	Update(ctx context.Context, call *models.ScheduledCall) (*models.ScheduledCall, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type churchLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Church, error)
}

type service struct {
	repo     callStore
	churches churchLoader
}

// NewService constructs the calls service.
func NewService(repo callStore, churches churchLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("call repository required")
	}
	if churches == nil {
		return nil, fmt.Errorf("church repository required")
	}
	return &service{repo: repo, churches: churches}, nil
}

func (s *service) CreateCall(ctx context.Context, input CreateCallInput) (*models.ScheduledCall, error) {
	if !input.CallType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid call type %q", input.CallType))
	}
	if input.ScheduledAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduled_at is required")
	}
	if _, err := s.churches.FindByID(ctx, input.ChurchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "church not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load church")
	}

	call := &models.ScheduledCall{
		ChurchID:    input.ChurchID,
		CallType:    input.CallType,
		Title:       input.Title,
		ScheduledAt: input.ScheduledAt,
		MeetLink:    input.MeetLink,
		Notes:       input.Notes,
	}
	created, err := s.repo.Create(ctx, call)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert call")
	}
	return created, nil
}

func (s *service) UpdateCall(ctx context.Context, id uuid.UUID, input UpdateCallInput) (*models.ScheduledCall, error) {
	call, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "call not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load call")
	}

	if input.CallType != nil {
		if !input.CallType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid call type %q", *input.CallType))
		}
		call.CallType = *input.CallType
	}
	if input.Title != nil {
		call.Title = input.Title
	}
	if input.ScheduledAt != nil {
		call.ScheduledAt = *input.ScheduledAt
	}
	if input.Completed != nil {
		call.Completed = *input.Completed
	}
	if input.MeetLink != nil {
		call.MeetLink = input.MeetLink
	}
	if input.Notes != nil {
		call.Notes = input.Notes
	}

	updated, err := s.repo.Update(ctx, call)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update call")
	}
	return updated, nil
}

func (s *service) DeleteCall(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "call not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load call")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete call")
	}
	return nil
}

func (s *service) ListCalls(ctx context.Context, churchID uuid.UUID, upcoming bool) ([]models.ScheduledCall, error) {
	out, err := s.repo.ListByChurch(ctx, churchID, upcoming, time.Now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list calls")
	}
	return out, nil
}
