package notifications

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dnadiscipleship/dna-backend/pkg/config"
	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
	"github.com/dnadiscipleship/dna-backend/pkg/mailer"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fakeSender struct {
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeStore struct {
	entries []models.NotificationLog
	err     error
}

func (f *fakeStore) Create(_ context.Context, entry *models.NotificationLog) (*models.NotificationLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.entries = append(f.entries, *entry)
	return entry, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func buildService(t *testing.T, sender emailSender, store deliveryStore) *Service {
	t.Helper()
	svc, err := NewService(sender, store, testLogger(),
		config.AppConfig{BaseURL: "https://app.example.com"},
		config.BookingConfig{StrategyCallURL: "https://book.example.com/strategy"})
	require.NoError(t, err)
	return svc
}

func TestStatusChangedRendersAndRecords(t *testing.T) {
	sender := &fakeSender{}
	store := &fakeStore{}
	svc := buildService(t, sender, store)
	church := &models.Church{ID: uuid.New(), Name: "Grace Fellowship"}

	svc.StatusChanged(context.Background(), church, "Leader@Example.com", "Pat", enums.ChurchStatusActive)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	require.Equal(t, "leader@example.com", msg.To)
	require.Equal(t, "Grace Fellowship: status updated", msg.Subject)
	require.Contains(t, msg.HTML, "active")
	require.Contains(t, msg.HTML, fmt.Sprintf("/dashboard/%s", church.ID))

	require.Len(t, store.entries, 1)
	entry := store.entries[0]
	require.Equal(t, enums.NotificationStatusChanged, entry.Type)
	require.Equal(t, enums.DeliveryStatusSent, entry.Status)
	require.NotNil(t, entry.ChurchID)
	require.Equal(t, church.ID, *entry.ChurchID)
}

func TestDeliveryFailureIsRecordedNotRaised(t *testing.T) {
	sender := &fakeSender{err: fmt.Errorf("smtp unavailable")}
	store := &fakeStore{}
	svc := buildService(t, sender, store)

	svc.MagicLink(context.Background(), "leader@example.com", "Pat", "https://app.example.com/login?token=x", 24*time.Hour)

	require.Len(t, store.entries, 1)
	entry := store.entries[0]
	require.Equal(t, enums.DeliveryStatusFailed, entry.Status)
	require.NotNil(t, entry.Error)
	require.Contains(t, *entry.Error, "smtp unavailable")
}

func TestNilSenderRecordsDisabledDelivery(t *testing.T) {
	store := &fakeStore{}
	svc := buildService(t, nil, store)
	church := &models.Church{ID: uuid.New(), Name: "Hope Chapel"}

	svc.TierConfirmed(context.Background(), church, "leader@example.com", "Sam", "Tier 2")

	require.Len(t, store.entries, 1)
	require.Equal(t, enums.DeliveryStatusFailed, store.entries[0].Status)
}

func TestEmptyRecipientSkipsDelivery(t *testing.T) {
	sender := &fakeSender{}
	store := &fakeStore{}
	svc := buildService(t, sender, store)

	svc.ManualDelivery(context.Background(), "  ", "Sam", "https://app.example.com/manual")

	require.Empty(t, sender.sent)
	require.Empty(t, store.entries)
}

func TestTierConfirmedIncludesBookingLink(t *testing.T) {
	sender := &fakeSender{}
	store := &fakeStore{}
	svc := buildService(t, sender, store)
	church := &models.Church{ID: uuid.New(), Name: "Hope Chapel"}

	svc.TierConfirmed(context.Background(), church, "leader@example.com", "Sam", "Tier 2")

	require.Len(t, sender.sent, 1)
	require.Contains(t, sender.sent[0].HTML, "https://book.example.com/strategy")
	require.Contains(t, sender.sent[0].HTML, "Tier 2")
}
