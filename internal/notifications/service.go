package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dnadiscipleship/dna-backend/pkg/config"
	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
	"github.com/dnadiscipleship/dna-backend/pkg/mailer"
)

type emailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type deliveryStore interface {
	Create(ctx context.Context, entry *models.NotificationLog) (*models.NotificationLog, error)
}

// Service renders and delivers every outbound email. All public methods are
// best-effort: failures are logged and recorded in notification_log but never
// propagate to the caller, so a failed email cannot fail the state change
// that triggered it.
type Service struct {
	sender  emailSender
	store   deliveryStore
	logg    *logger.Logger
	app     config.AppConfig
	booking config.BookingConfig
}

// NewService constructs the notification service. A nil sender disables
// delivery; attempts are still recorded as failed so operators can see the
// gap.
func NewService(sender emailSender, store deliveryStore, logg *logger.Logger, app config.AppConfig, booking config.BookingConfig) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("notification store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{sender: sender, store: store, logg: logg, app: app, booking: booking}, nil
}

// MagicLink emails a single-use login link.
func (s *Service) MagicLink(ctx context.Context, recipient, name, loginURL string, expiresIn time.Duration) {
	s.deliver(ctx, enums.NotificationMagicLink, recipient, nil, map[string]any{
		"name":          displayName(name),
		"login_url":     loginURL,
		"expires_hours": int(expiresIn.Hours()),
	})
}

// StatusChanged tells a church contact their pipeline status moved.
func (s *Service) StatusChanged(ctx context.Context, church *models.Church, recipient, name string, newStatus enums.ChurchStatus) {
	s.deliver(ctx, enums.NotificationStatusChanged, recipient, &church.ID, map[string]any{
		"name":          displayName(name),
		"church_name":   church.Name,
		"new_status":    newStatus.String(),
		"dashboard_url": s.dashboardURL(church.ID),
	})
}

// TierConfirmed announces the confirmed tier and links the strategy call.
func (s *Service) TierConfirmed(ctx context.Context, church *models.Church, recipient, name, tierName string) {
	s.deliver(ctx, enums.NotificationTierConfirmed, recipient, &church.ID, map[string]any{
		"name":              displayName(name),
		"church_name":       church.Name,
		"tier_name":         tierName,
		"strategy_call_url": s.booking.StrategyCallURL,
	})
}

// ProposalSent points the church contact at their proposal.
func (s *Service) ProposalSent(ctx context.Context, church *models.Church, recipient, name string) {
	s.deliver(ctx, enums.NotificationProposalSent, recipient, &church.ID, map[string]any{
		"name":          displayName(name),
		"church_name":   church.Name,
		"dashboard_url": s.dashboardURL(church.ID),
	})
}

// AssessmentSubmitted notifies the admin team a participant finished.
func (s *Service) AssessmentSubmitted(ctx context.Context, recipient, participantName, participantEmail string, topRoadblocks []string) {
	s.deliver(ctx, enums.NotificationAssessmentSubmitted, recipient, nil, map[string]any{
		"participant_name":  displayName(participantName),
		"participant_email": participantEmail,
		"top_roadblocks":    strings.Join(topRoadblocks, ", "),
		"admin_url":         s.app.BaseURL + "/admin/assessments",
	})
}

// MilestoneCompleted notifies the admin team of a completed milestone.
func (s *Service) MilestoneCompleted(ctx context.Context, church *models.Church, recipient, milestoneTitle, completedBy string, phaseNumber int) {
	s.deliver(ctx, enums.NotificationMilestoneCompleted, recipient, &church.ID, map[string]any{
		"church_name":     church.Name,
		"milestone_title": milestoneTitle,
		"phase_number":    phaseNumber,
		"completed_by":    completedBy,
	})
}

// PhaseCompleted celebrates a fully completed phase with the church contact.
func (s *Service) PhaseCompleted(ctx context.Context, church *models.Church, recipient string, phaseNumber int, phaseTitle string) {
	s.deliver(ctx, enums.NotificationPhaseCompleted, recipient, &church.ID, map[string]any{
		"church_name":   church.Name,
		"phase_number":  phaseNumber,
		"phase_title":   phaseTitle,
		"dashboard_url": s.dashboardURL(church.ID),
	})
}

// ManualDelivery sends the unlocked training manual link.
func (s *Service) ManualDelivery(ctx context.Context, recipient, name, manualURL string) {
	s.deliver(ctx, enums.NotificationManualDelivery, recipient, nil, map[string]any{
		"name":       displayName(name),
		"manual_url": manualURL,
	})
}

func (s *Service) deliver(ctx context.Context, kind enums.NotificationType, recipient string, churchID *uuid.UUID, bindings map[string]any) {
	recipient = strings.ToLower(strings.TrimSpace(recipient))
	if recipient == "" {
		s.logg.Warn(s.logg.WithField(ctx, "notification_type", kind.String()), "skipping notification with empty recipient")
		return
	}

	subject, body, err := Render(kind, bindings)
	if err != nil {
		s.record(ctx, kind, recipient, churchID, subject, err)
		return
	}

	if s.sender == nil {
		s.record(ctx, kind, recipient, churchID, subject, fmt.Errorf("mail delivery is disabled"))
		return
	}

	err = s.sender.Send(ctx, mailer.Message{To: recipient, Subject: subject, HTML: body})
	s.record(ctx, kind, recipient, churchID, subject, err)
}

// record writes the notification_log row. Its own failure is only logged;
// nothing upstream can depend on it.
func (s *Service) record(ctx context.Context, kind enums.NotificationType, recipient string, churchID *uuid.UUID, subject string, sendErr error) {
	entry := &models.NotificationLog{
		Type:      kind,
		Recipient: recipient,
		ChurchID:  churchID,
		Subject:   subject,
		Status:    enums.DeliveryStatusSent,
	}
	if sendErr != nil {
		msg := sendErr.Error()
		entry.Status = enums.DeliveryStatusFailed
		entry.Error = &msg

		logCtx := s.logg.WithFields(ctx, map[string]any{
			"notification_type": kind.String(),
			"recipient":         recipient,
		})
		s.logg.Error(logCtx, "notification delivery failed", sendErr)
	}

	if _, err := s.store.Create(ctx, entry); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "notification_type", kind.String()), "failed to write notification log", err)
	}
}

func (s *Service) dashboardURL(churchID uuid.UUID) string {
	return fmt.Sprintf("%s/dashboard/%s", strings.TrimRight(s.app.BaseURL, "/"), churchID)
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "there"
	}
	return name
}
