package enums

import "fmt"

// DocumentKind classifies a funnel document attached to a church.
type DocumentKind string

const (
	DocumentKindProposal           DocumentKind = "proposal"
	DocumentKindImplementationPlan DocumentKind = "implementation_plan"
	DocumentKindAgreement          DocumentKind = "agreement"
	DocumentKindOther              DocumentKind = "other"
)

var validDocumentKinds = []DocumentKind{
	DocumentKindProposal,
	DocumentKindImplementationPlan,
	DocumentKindAgreement,
	DocumentKindOther,
}

// String implements fmt.Stringer.
func (d DocumentKind) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DocumentKind.
func (d DocumentKind) IsValid() bool {
	for _, candidate := range validDocumentKinds {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDocumentKind converts raw input into a DocumentKind.
func ParseDocumentKind(value string) (DocumentKind, error) {
	for _, candidate := range validDocumentKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document kind %q", value)
}
