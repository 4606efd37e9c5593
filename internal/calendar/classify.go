package calendar

import (
	"strings"

	"github.com/dnadiscipleship/dna-backend/pkg/enums"
)

// titleKeyword maps a title substring to a call type. First match wins, so
// order matters: "dna" sits last as the catch-all for anything that mentions
// the program without naming a call type.
type titleKeyword struct {
	substr   string
	callType enums.CallType
}

var titleKeywords = []titleKeyword{
	{"discovery", enums.CallTypeDiscovery},
	{"proposal", enums.CallTypeProposal},
	{"strategy", enums.CallTypeStrategy},
	{"kickoff", enums.CallTypeKickoff},
	{"kick-off", enums.CallTypeKickoff},
	{"assessment", enums.CallTypeAssessment},
	{"onboarding", enums.CallTypeOnboarding},
	{"check-in", enums.CallTypeCheckin},
	{"checkin", enums.CallTypeCheckin},
	{"dna", enums.CallTypeDiscovery},
}

// ClassifyTitle maps an event title to a call type by substring match.
// Events matching no keyword are not program calls and are skipped.
func ClassifyTitle(title string) (enums.CallType, bool) {
	lowered := strings.ToLower(title)
	for _, kw := range titleKeywords {
		if strings.Contains(lowered, kw.substr) {
			return kw.callType, true
		}
	}
	return "", false
}
