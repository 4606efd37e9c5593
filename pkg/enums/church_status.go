package enums

import "fmt"

// ChurchStatus tracks a church's position in the onboarding pipeline.
type ChurchStatus string

const (
	ChurchStatusProspect          ChurchStatus = "prospect"
	ChurchStatusDemo              ChurchStatus = "demo"
	ChurchStatusPendingAssessment ChurchStatus = "pending_assessment"
	ChurchStatusAwaitingDiscovery ChurchStatus = "awaiting_discovery"
	ChurchStatusProposalSent      ChurchStatus = "proposal_sent"
	ChurchStatusAwaitingAgreement ChurchStatus = "awaiting_agreement"
	ChurchStatusAwaitingStrategy  ChurchStatus = "awaiting_strategy"
	ChurchStatusActive            ChurchStatus = "active"
	ChurchStatusPaused            ChurchStatus = "paused"
	ChurchStatusCompleted         ChurchStatus = "completed"
	ChurchStatusDeclined          ChurchStatus = "declined"
)

var validChurchStatuses = []ChurchStatus{
	ChurchStatusProspect,
	ChurchStatusDemo,
	ChurchStatusPendingAssessment,
	ChurchStatusAwaitingDiscovery,
	ChurchStatusProposalSent,
	ChurchStatusAwaitingAgreement,
	ChurchStatusAwaitingStrategy,
	ChurchStatusActive,
	ChurchStatusPaused,
	ChurchStatusCompleted,
	ChurchStatusDeclined,
}

// String implements fmt.Stringer.
func (s ChurchStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ChurchStatus.
func (s ChurchStatus) IsValid() bool {
	for _, candidate := range validChurchStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the pipeline in the UX.
// The any-to-any admin override can still move a church out of these.
func (s ChurchStatus) IsTerminal() bool {
	return s == ChurchStatusCompleted || s == ChurchStatusDeclined
}

// NextStatus returns the suggested forward transition for the status. The
// pipeline accepts any-to-any moves; this only drives the default action in
// the admin UI. Terminal and paused states have no suggestion.
func (s ChurchStatus) NextStatus() (ChurchStatus, bool) {
	switch s {
	case ChurchStatusProspect:
		return ChurchStatusDemo, true
	case ChurchStatusDemo:
		return ChurchStatusPendingAssessment, true
	case ChurchStatusPendingAssessment:
		return ChurchStatusAwaitingDiscovery, true
	case ChurchStatusAwaitingDiscovery:
		return ChurchStatusProposalSent, true
	case ChurchStatusProposalSent:
		return ChurchStatusAwaitingAgreement, true
	case ChurchStatusAwaitingAgreement:
		return ChurchStatusAwaitingStrategy, true
	case ChurchStatusAwaitingStrategy:
		return ChurchStatusActive, true
	case ChurchStatusActive:
		return ChurchStatusCompleted, true
	case ChurchStatusPaused:
		return ChurchStatusActive, true
	default:
		return "", false
	}
}

// ParseChurchStatus converts raw input into a ChurchStatus.
func ParseChurchStatus(value string) (ChurchStatus, error) {
	for _, candidate := range validChurchStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid church status %q", value)
}
