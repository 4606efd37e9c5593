package notifications

import (
	"fmt"

	"github.com/osteele/liquid"

	"github.com/dnadiscipleship/dna-backend/pkg/enums"
)

type emailTemplate struct {
	subject string
	body    string
}

var engine = liquid.NewEngine()

// Templates are Liquid so the copy team can edit them without touching Go.
// Bindings are defined by the Service method that sends each kind.
var emailTemplates = map[enums.NotificationType]emailTemplate{
	enums.NotificationMagicLink: {
		subject: "Your DNA Discipleship login link",
		body: `<p>Hi {{ name }},</p>
<p>Use the link below to sign in to your DNA Discipleship dashboard. It can be used once and expires in {{ expires_hours }} hours.</p>
<p><a href="{{ login_url }}">Sign in to DNA Discipleship</a></p>
<p>If you did not request this link you can safely ignore this email.</p>`,
	},
	enums.NotificationStatusChanged: {
		subject: "{{ church_name }}: status updated",
		body: `<p>Hi {{ name }},</p>
<p>{{ church_name }} has moved to <strong>{{ new_status }}</strong> in the DNA Discipleship pipeline.</p>
<p><a href="{{ dashboard_url }}">Open your dashboard</a> to see what comes next.</p>`,
	},
	enums.NotificationTierConfirmed: {
		subject: "{{ church_name }}: partnership tier confirmed",
		body: `<p>Hi {{ name }},</p>
<p>Great news: {{ church_name }} is confirmed on the <strong>{{ tier_name }}</strong> track.</p>
<p>The next step is a strategy call with your coach. <a href="{{ strategy_call_url }}">Pick a time that works for you</a>.</p>`,
	},
	enums.NotificationProposalSent: {
		subject: "{{ church_name }}: your proposal is ready",
		body: `<p>Hi {{ name }},</p>
<p>Your DNA Discipleship proposal for {{ church_name }} is ready to review.</p>
<p><a href="{{ dashboard_url }}">Open your dashboard</a> to read it and respond.</p>`,
	},
	enums.NotificationAssessmentSubmitted: {
		subject: "Assessment completed: {{ participant_name }}",
		body: `<p>{{ participant_name }} ({{ participant_email }}) just completed the training assessment.</p>
<p>Top roadblocks: {{ top_roadblocks }}</p>
<p><a href="{{ admin_url }}">Review the full assessment</a>.</p>`,
	},
	enums.NotificationMilestoneCompleted: {
		subject: "{{ church_name }}: milestone completed",
		body: `<p>{{ completed_by }} marked <strong>{{ milestone_title }}</strong> complete for {{ church_name }} (phase {{ phase_number }}).</p>`,
	},
	enums.NotificationPhaseCompleted: {
		subject: "{{ church_name }}: phase {{ phase_number }} complete",
		body: `<p>Congratulations! {{ church_name }} has completed every milestone in phase {{ phase_number }}: {{ phase_title }}.</p>
<p><a href="{{ dashboard_url }}">Open your dashboard</a> to start the next phase.</p>`,
	},
	enums.NotificationManualDelivery: {
		subject: "Your DNA Leader manual is unlocked",
		body: `<p>Hi {{ name }},</p>
<p>You finished the assessment, so your DNA Leader training manual is now unlocked.</p>
<p><a href="{{ manual_url }}">Download the manual</a>.</p>`,
	},
}

// Render produces the subject and HTML body for one notification kind.
func Render(kind enums.NotificationType, bindings map[string]any) (string, string, error) {
	tmpl, ok := emailTemplates[kind]
	if !ok {
		return "", "", fmt.Errorf("no template for notification type %q", kind)
	}

	subject, err := engine.ParseAndRenderString(tmpl.subject, bindings)
	if err != nil {
		return "", "", fmt.Errorf("rendering subject for %q: %w", kind, err)
	}
	body, err := engine.ParseAndRenderString(tmpl.body, bindings)
	if err != nil {
		return subject, "", fmt.Errorf("rendering body for %q: %w", kind, err)
	}
	return subject, body, nil
}
