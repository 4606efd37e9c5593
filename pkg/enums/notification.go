package enums

import "fmt"

// NotificationType names an outbound email template.
type NotificationType string

const (
	NotificationAssessmentSubmitted NotificationType = "assessment_submitted"
	NotificationMilestoneCompleted  NotificationType = "milestone_completed"
	NotificationPhaseCompleted      NotificationType = "phase_completed"
	NotificationMagicLink           NotificationType = "magic_link"
	NotificationManualDelivery      NotificationType = "manual_delivery"
	NotificationTierConfirmed       NotificationType = "tier_confirmed"
	NotificationProposalSent        NotificationType = "proposal_sent"
	NotificationStatusChanged       NotificationType = "status_changed"
)

var validNotificationTypes = []NotificationType{
	NotificationAssessmentSubmitted,
	NotificationMilestoneCompleted,
	NotificationPhaseCompleted,
	NotificationMagicLink,
	NotificationManualDelivery,
	NotificationTierConfirmed,
	NotificationProposalSent,
	NotificationStatusChanged,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// DeliveryStatus records the outcome of a notification send attempt.
type DeliveryStatus string

const (
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// String implements fmt.Stringer.
func (d DeliveryStatus) String() string {
	return string(d)
}
