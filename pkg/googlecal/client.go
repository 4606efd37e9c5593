package googlecal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/dnadiscipleship/dna-backend/pkg/config"
)

// Event is a calendar event normalized to what sync needs. The raw API
// payload never leaves this package.
type Event struct {
	ID             string
	Title          string
	Description    string
	StartsAt       time.Time
	EndsAt         time.Time
	MeetLink       string
	AttendeeEmails []string
	Cancelled      bool
}

// Lister fetches events in a time window. Implemented by Client and by
// test fakes.
type Lister interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)
}

// OAuthConfig builds the oauth2 config for the calendar read scope.
func OAuthConfig(cfg config.GoogleConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint:     googleoauth.Endpoint,
		Scopes:       []string{calendar.CalendarReadonlyScope},
	}
}

// PersistToken receives refreshed tokens so they survive restarts.
type PersistToken func(ctx context.Context, tok *oauth2.Token) error

// Client wraps the Calendar API for one calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string
}

// NewClient authenticates with the stored token. When the access token has
// expired the oauth2 token source refreshes it transparently and persist is
// called with the new token.
func NewClient(ctx context.Context, cfg config.GoogleConfig, tok *oauth2.Token, persist PersistToken) (*Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("google calendar is not configured")
	}
	if tok == nil {
		return nil, fmt.Errorf("no stored oauth token")
	}

	src := OAuthConfig(cfg).TokenSource(ctx, tok)
	if persist != nil {
		src = &persistingSource{ctx: ctx, inner: src, last: tok, persist: persist}
	}

	svc, err := calendar.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &Client{svc: svc, calendarID: cfg.CalendarID}, nil
}

// ListEvents pages through single-instance events between from and to.
func (c *Client) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	var out []Event
	pageToken := ""
	for {
		call := c.svc.Events.List(c.calendarID).
			Context(ctx).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(250)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list calendar events: %w", err)
		}
		for _, item := range resp.Items {
			out = append(out, normalize(item))
		}
		if resp.NextPageToken == "" {
			return out, nil
		}
		pageToken = resp.NextPageToken
	}
}

func normalize(item *calendar.Event) Event {
	ev := Event{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
		MeetLink:    item.HangoutLink,
		Cancelled:   item.Status == "cancelled",
	}
	if item.Start != nil {
		ev.StartsAt = parseEventTime(item.Start)
	}
	if item.End != nil {
		ev.EndsAt = parseEventTime(item.End)
	}
	for _, att := range item.Attendees {
		if att == nil || att.Email == "" {
			continue
		}
		ev.AttendeeEmails = append(ev.AttendeeEmails, att.Email)
	}
	return ev
}

// parseEventTime handles both timed and all-day events.
func parseEventTime(t *calendar.EventDateTime) time.Time {
	if t.DateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			return parsed
		}
	}
	if t.Date != "" {
		if parsed, err := time.Parse("2006-01-02", t.Date); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// persistingSource saves the token whenever the underlying source rotates it.
type persistingSource struct {
	ctx     context.Context
	inner   oauth2.TokenSource
	last    *oauth2.Token
	persist PersistToken
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.inner.Token()
	if err != nil {
		return nil, err
	}
	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		s.last = tok
		if err := s.persist(s.ctx, tok); err != nil {
			return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
		}
	}
	return tok, nil
}
