package auditlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
	"github.com/dnadiscipleship/dna-backend/pkg/pagination"
)

// Entry is one admin action to record. Old and New are marshaled to JSON
// snapshots; either may be nil.
type Entry struct {
	ActorEmail string
	Action     string
	ChurchID   *uuid.UUID
	Old        any
	New        any
	Note       *string
}

type entryStore interface {
	Create(ctx context.Context, entry *models.AdminActivityLog) (*models.AdminActivityLog, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.AdminActivityLog, error)
}

// Service records and lists admin activity. Record is strictly best-effort:
// a failed audit write is logged and swallowed so it can never fail the
// action that produced it.
type Service struct {
	store entryStore
	logg  *logger.Logger
}

// NewService constructs the audit service.
func NewService(store entryStore, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("audit store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{store: store, logg: logg}, nil
}

// Record writes one activity entry, best-effort.
func (s *Service) Record(ctx context.Context, entry Entry) {
	row := &models.AdminActivityLog{
		ActorEmail: entry.ActorEmail,
		Action:     entry.Action,
		ChurchID:   entry.ChurchID,
		Note:       entry.Note,
	}

	var err error
	if row.OldValues, err = marshalSnapshot(entry.Old); err == nil {
		row.NewValues, err = marshalSnapshot(entry.New)
	}
	if err == nil {
		_, err = s.store.Create(ctx, row)
	}
	if err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"audit_action": entry.Action,
			"actor_email":  entry.ActorEmail,
		})
		s.logg.Error(logCtx, "failed to write audit entry", err)
	}
}

// List returns a page of activity entries plus the cursor for the next page.
func (s *Service) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.AdminActivityLog, *string, error) {
	entries, err := s.store.List(ctx, filters, params)
	if err != nil {
		return nil, nil, err
	}

	limit := pagination.NormalizeLimit(params.Limit)
	if len(entries) <= limit {
		return entries, nil, nil
	}

	entries = entries[:limit]
	last := entries[len(entries)-1]
	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	return entries, &cursor, nil
}

func marshalSnapshot(value any) (datatypes.JSON, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal audit snapshot: %w", err)
	}
	return datatypes.JSON(raw), nil
}
