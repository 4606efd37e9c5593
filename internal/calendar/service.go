package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/pkg/config"
	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/googlecal"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
	"github.com/dnadiscipleship/dna-backend/pkg/metrics"
)

// syncWindow bounds how far sync looks around the current time.
const syncWindow = 30 * 24 * time.Hour

// Report summarizes one sync run.
type Report struct {
	Processed int      `json:"processed"`
	Synced    int      `json:"synced"`
	Unmatched int      `json:"unmatched"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// Service drives the Google Calendar integration: the OAuth connect flow,
// the sync run, and manual linking of unmatched events.
type Service interface {
	AuthorizeURL(state string) (string, error)
	HandleCallback(ctx context.Context, code string) error
	Connected(ctx context.Context) (bool, error)
	Sync(ctx context.Context) (*Report, error)
	ListUnmatched(ctx context.Context) ([]models.UnmatchedCalendarEvent, error)
	LinkUnmatched(ctx context.Context, input LinkInput) (*models.ScheduledCall, error)
	RecentRuns(ctx context.Context, limit int) ([]models.CalendarSyncLog, error)
}

// LinkInput attributes one unmatched event to a church by hand.
type LinkInput struct {
	EventID  uuid.UUID
	ChurchID uuid.UUID
	CallType *enums.CallType
}

type calendarStore interface {
	SaveOAuthToken(ctx context.Context, token *models.GoogleOAuthToken) error
	FindOAuthToken(ctx context.Context) (*models.GoogleOAuthToken, error)
	CreateSyncLog(ctx context.Context, log *models.CalendarSyncLog) error
	ListSyncLogs(ctx context.Context, limit int) ([]models.CalendarSyncLog, error)
	UpsertUnmatched(ctx context.Context, event *models.UnmatchedCalendarEvent) error
	FindUnmatched(ctx context.Context, id uuid.UUID) (*models.UnmatchedCalendarEvent, error)
	ListUnmatched(ctx context.Context) ([]models.UnmatchedCalendarEvent, error)
	MarkLinked(ctx context.Context, event *models.UnmatchedCalendarEvent) error
	FindChurchByNameInTitle(ctx context.Context, title string) (*models.Church, error)
}

type callSink interface {
	UpsertByGoogleEventID(ctx context.Context, call *models.ScheduledCall) (*models.ScheduledCall, error)
}

type leaderDirectory interface {
	FindChurchLeadersByEmail(ctx context.Context, email string) ([]models.ChurchLeader, error)
}

type churchLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Church, error)
}

// ListerFactory builds an authenticated event source for one sync run, using
// whatever token is currently stored.
type ListerFactory func(ctx context.Context) (googlecal.Lister, error)

type service struct {
	repo        calendarStore
	calls       callSink
	leaders     leaderDirectory
	churches    churchLoader
	newLister   ListerFactory
	googleCfg   config.GoogleConfig
	syncMetrics *metrics.CalendarSyncMetrics
	logg        *logger.Logger
}

// NewService wires the calendar service. newLister may be nil, in which case
// the default factory reads the stored token and builds a real API client.
func NewService(
	repo calendarStore,
	calls callSink,
	leaders leaderDirectory,
	churches churchLoader,
	newLister ListerFactory,
	googleCfg config.GoogleConfig,
	syncMetrics *metrics.CalendarSyncMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "calendar: repo is required")
	}
	if calls == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "calendar: call sink is required")
	}
	if leaders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "calendar: leader directory is required")
	}
	if churches == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "calendar: church loader is required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "calendar: logger is required")
	}
	s := &service{
		repo:        repo,
		calls:       calls,
		leaders:     leaders,
		churches:    churches,
		newLister:   newLister,
		googleCfg:   googleCfg,
		syncMetrics: syncMetrics,
		logg:        logg,
	}
	if s.newLister == nil {
		s.newLister = s.defaultLister
	}
	return s, nil
}

func (s *service) defaultLister(ctx context.Context) (googlecal.Lister, error) {
	stored, err := s.repo.FindOAuthToken(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "google calendar is not connected")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load oauth token")
	}
	tok := &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		TokenType:    stored.TokenType,
		Expiry:       stored.Expiry,
	}
	accountEmail := stored.AccountEmail
	persist := func(ctx context.Context, refreshed *oauth2.Token) error {
		return s.repo.SaveOAuthToken(ctx, &models.GoogleOAuthToken{
			AccountEmail: accountEmail,
			AccessToken:  refreshed.AccessToken,
			RefreshToken: coalesce(refreshed.RefreshToken, stored.RefreshToken),
			TokenType:    refreshed.TokenType,
			Expiry:       refreshed.Expiry,
		})
	}
	client, err := googlecal.NewClient(ctx, s.googleCfg, tok, persist)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "google: build calendar client")
	}
	return client, nil
}

func coalesce(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func (s *service) AuthorizeURL(state string) (string, error) {
	if !s.googleCfg.Enabled() {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "google calendar is not configured")
	}
	cfg := googlecal.OAuthConfig(s.googleCfg)
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

func (s *service) HandleCallback(ctx context.Context, code string) error {
	if !s.googleCfg.Enabled() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "google calendar is not configured")
	}
	if code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "authorization code is required")
	}
	cfg := googlecal.OAuthConfig(s.googleCfg)
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "google: exchange authorization code")
	}
	row := &models.GoogleOAuthToken{
		AccountEmail: s.googleCfg.CalendarID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
	if err := s.repo.SaveOAuthToken(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save oauth token")
	}
	return nil
}

func (s *service) Connected(ctx context.Context) (bool, error) {
	_, err := s.repo.FindOAuthToken(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load oauth token")
}

func (s *service) Sync(ctx context.Context) (*Report, error) {
	startedAt := time.Now().UTC()
	lister, err := s.newLister(ctx)
	if err != nil {
		s.syncMetrics.IncRun("failed")
		return nil, err
	}

	events, err := lister.ListEvents(ctx, startedAt.Add(-syncWindow), startedAt.Add(syncWindow))
	if err != nil {
		s.syncMetrics.IncRun("failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "google: list events")
	}

	report := &Report{}
	for _, event := range events {
		s.handleEvent(ctx, event, report)
	}

	logRow := &models.CalendarSyncLog{
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
		Processed:  report.Processed,
		Synced:     report.Synced,
		Unmatched:  report.Unmatched,
		Errors:     pq.StringArray(report.Errors),
	}
	if err := s.repo.CreateSyncLog(ctx, logRow); err != nil {
		s.logg.Error(ctx, "calendar: write sync log failed", err)
	}
	s.syncMetrics.IncRun("ok")
	return report, nil
}

// handleEvent processes one event; failures are recorded on the report and
// never abort the batch.
func (s *service) handleEvent(ctx context.Context, event googlecal.Event, report *Report) {
	if event.ID == "" || event.Cancelled || event.StartsAt.IsZero() {
		report.Skipped++
		s.syncMetrics.IncEvent("skipped")
		return
	}
	callType, ok := ClassifyTitle(event.Title)
	if !ok {
		report.Skipped++
		s.syncMetrics.IncEvent("skipped")
		return
	}
	report.Processed++

	church, err := s.matchChurch(ctx, event)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", event.ID, err.Error()))
		s.syncMetrics.IncEvent("error")
		return
	}

	if church == nil {
		unmatched := &models.UnmatchedCalendarEvent{
			GoogleEventID:  event.ID,
			Title:          event.Title,
			StartsAt:       event.StartsAt,
			AttendeeEmails: pq.StringArray(event.AttendeeEmails),
			CallType:       &callType,
		}
		if event.MeetLink != "" {
			unmatched.MeetLink = &event.MeetLink
		}
		if err := s.repo.UpsertUnmatched(ctx, unmatched); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", event.ID, err.Error()))
			s.syncMetrics.IncEvent("error")
			return
		}
		report.Unmatched++
		s.syncMetrics.IncEvent("unmatched")
		return
	}

	call := &models.ScheduledCall{
		ChurchID:      church.ID,
		CallType:      callType,
		ScheduledAt:   event.StartsAt,
		GoogleEventID: &event.ID,
	}
	if event.Title != "" {
		call.Title = &event.Title
	}
	if event.MeetLink != "" {
		call.MeetLink = &event.MeetLink
	}
	if _, err := s.calls.UpsertByGoogleEventID(ctx, call); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", event.ID, err.Error()))
		s.syncMetrics.IncEvent("error")
		return
	}
	report.Synced++
	s.syncMetrics.IncEvent("synced")
}

// matchChurch resolves the event's church: attendee emails through the
// leader directory first, then a church-name substring in the title.
func (s *service) matchChurch(ctx context.Context, event googlecal.Event) (*models.Church, error) {
	for _, email := range event.AttendeeEmails {
		leaders, err := s.leaders.FindChurchLeadersByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("find leaders by email: %w", err)
		}
		if len(leaders) == 0 {
			continue
		}
		church, err := s.churches.FindByID(ctx, leaders[0].ChurchID)
		if err != nil {
			return nil, fmt.Errorf("load church: %w", err)
		}
		return church, nil
	}

	church, err := s.repo.FindChurchByNameInTitle(ctx, event.Title)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("match church by title: %w", err)
	}
	return church, nil
}

func (s *service) ListUnmatched(ctx context.Context) ([]models.UnmatchedCalendarEvent, error) {
	events, err := s.repo.ListUnmatched(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list unmatched events")
	}
	return events, nil
}

func (s *service) LinkUnmatched(ctx context.Context, input LinkInput) (*models.ScheduledCall, error) {
	event, err := s.repo.FindUnmatched(ctx, input.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unmatched event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load unmatched event")
	}
	if event.LinkedChurchID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "event is already linked")
	}

	church, err := s.churches.FindByID(ctx, input.ChurchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "church not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load church")
	}

	callType := enums.CallTypeDiscovery
	switch {
	case input.CallType != nil:
		if !input.CallType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown call type")
		}
		callType = *input.CallType
	case event.CallType != nil:
		callType = *event.CallType
	}

	call := &models.ScheduledCall{
		ChurchID:      church.ID,
		CallType:      callType,
		ScheduledAt:   event.StartsAt,
		GoogleEventID: &event.GoogleEventID,
		MeetLink:      event.MeetLink,
	}
	if event.Title != "" {
		call.Title = &event.Title
	}
	created, err := s.calls.UpsertByGoogleEventID(ctx, call)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: upsert scheduled call")
	}

	now := time.Now().UTC()
	event.LinkedChurchID = &church.ID
	event.LinkedAt = &now
	if err := s.repo.MarkLinked(ctx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: mark event linked")
	}
	return created, nil
}

func (s *service) RecentRuns(ctx context.Context, limit int) ([]models.CalendarSyncLog, error) {
	logs, err := s.repo.ListSyncLogs(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list sync logs")
	}
	return logs, nil
}
