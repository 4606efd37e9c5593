package analytics

import (
	"context"
	"time"

	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
)

// Overview is the admin dashboard's headline numbers.
type Overview struct {
	Pipeline        map[enums.ChurchStatus]int64 `json:"pipeline"`
	ActiveByPhase   map[int]int64                `json:"active_by_phase"`
	AssessmentsDone int64                        `json:"assessments_completed"`
	AssessmentsOpen int64                        `json:"assessments_in_progress"`
	CallsByType     map[enums.CallType]int64     `json:"calls_by_type"`
	CallsWindowDays int                          `json:"calls_window_days"`
	GeneratedAt     time.Time                    `json:"generated_at"`
}

// Service aggregates counts for the admin back-office.
type Service interface {
	Overview(ctx context.Context, callsWindow time.Duration) (*Overview, error)
}

type pipelineCounter interface {
	CountByStatus(ctx context.Context) (map[enums.ChurchStatus]int64, error)
	CountActiveByPhase(ctx context.Context) (map[int]int64, error)
}

type assessmentCounter interface {
	CountCompleted(ctx context.Context) (int64, error)
	CountStarted(ctx context.Context) (int64, error)
}

type callCounter interface {
	CountByTypeBetween(ctx context.Context, from, to time.Time) (map[enums.CallType]int64, error)
}

type service struct {
	churches    pipelineCounter
	assessments assessmentCounter
	calls       callCounter
}

// NewService wires the analytics service.
func NewService(churches pipelineCounter, assessments assessmentCounter, calls callCounter) (Service, error) {
	if churches == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "analytics: church counter is required")
	}
	if assessments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "analytics: assessment counter is required")
	}
	if calls == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "analytics: call counter is required")
	}
	return &service{churches: churches, assessments: assessments, calls: calls}, nil
}

func (s *service) Overview(ctx context.Context, callsWindow time.Duration) (*Overview, error) {
	if callsWindow <= 0 {
		callsWindow = 30 * 24 * time.Hour
	}
	now := time.Now().UTC()

	pipeline, err := s.churches.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count churches by status")
	}
	activeByPhase, err := s.churches.CountActiveByPhase(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count active churches by phase")
	}
	completed, err := s.assessments.CountCompleted(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count completed assessments")
	}
	started, err := s.assessments.CountStarted(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count started assessments")
	}
	callsByType, err := s.calls.CountByTypeBetween(ctx, now.Add(-callsWindow), now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count calls by type")
	}

	open := started - completed
	if open < 0 {
		open = 0
	}
	return &Overview{
		Pipeline:        pipeline,
		ActiveByPhase:   activeByPhase,
		AssessmentsDone: completed,
		AssessmentsOpen: open,
		CallsByType:     callsByType,
		CallsWindowDays: int(callsWindow / (24 * time.Hour)),
		GeneratedAt:     now,
	}, nil
}
