package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/dnadiscipleship/dna-backend/internal/calendar"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
)

type calendarSyncer interface {
	Connected(ctx context.Context) (bool, error)
	Sync(ctx context.Context) (*calendar.Report, error)
}

// CalendarSyncJob runs the Google Calendar sync on schedule. When the
// integration was never connected the job is a quiet no-op.
type CalendarSyncJob struct {
	svc  calendarSyncer
	logg *logger.Logger
}

// NewCalendarSyncJob builds the sync job.
func NewCalendarSyncJob(svc calendarSyncer, logg *logger.Logger) *CalendarSyncJob {
	return &CalendarSyncJob{svc: svc, logg: logg}
}

func (j *CalendarSyncJob) Name() string { return "calendar_sync" }

func (j *CalendarSyncJob) Run(ctx context.Context) error {
	connected, err := j.svc.Connected(ctx)
	if err != nil {
		return err
	}
	if !connected {
		j.logg.Info(ctx, "calendar sync skipped: google account not connected")
		return nil
	}
	report, err := j.svc.Sync(ctx)
	if err != nil {
		return err
	}
	j.logg.Info(
		j.logg.WithFields(ctx, map[string]any{
			"processed": report.Processed,
			"synced":    report.Synced,
			"unmatched": report.Unmatched,
		}),
		"calendar sync run finished",
	)
	return nil
}

type notificationTrimmer interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationRetentionJob trims old notification_log rows.
type NotificationRetentionJob struct {
	store     notificationTrimmer
	retention time.Duration
	logg      *logger.Logger
}

// NewNotificationRetentionJob builds the retention job.
func NewNotificationRetentionJob(store notificationTrimmer, retention time.Duration, logg *logger.Logger) *NotificationRetentionJob {
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	return &NotificationRetentionJob{store: store, retention: retention, logg: logg}
}

func (j *NotificationRetentionJob) Name() string { return "notification_retention" }

func (j *NotificationRetentionJob) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-j.retention)
	deleted, err := j.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		j.logg.Info(j.logg.WithField(ctx, "deleted", deleted), fmt.Sprintf("notification retention trimmed rows older than %s", cutoff.Format(time.RFC3339)))
	}
	return nil
}
