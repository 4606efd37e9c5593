package enums

import "fmt"

// CallType classifies a scheduled call in the onboarding funnel.
type CallType string

const (
	CallTypeDiscovery  CallType = "discovery"
	CallTypeProposal   CallType = "proposal"
	CallTypeStrategy   CallType = "strategy"
	CallTypeKickoff    CallType = "kickoff"
	CallTypeAssessment CallType = "assessment"
	CallTypeOnboarding CallType = "onboarding"
	CallTypeCheckin    CallType = "checkin"
)

var validCallTypes = []CallType{
	CallTypeDiscovery,
	CallTypeProposal,
	CallTypeStrategy,
	CallTypeKickoff,
	CallTypeAssessment,
	CallTypeOnboarding,
	CallTypeCheckin,
}

// String implements fmt.Stringer.
func (c CallType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CallType.
func (c CallType) IsValid() bool {
	for _, candidate := range validCallTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCallType converts raw input into a CallType.
func ParseCallType(value string) (CallType, error) {
	for _, candidate := range validCallTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid call type %q", value)
}
