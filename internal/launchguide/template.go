package launchguide

// The launch guide renders from a fixed server-side template. Progress rows
// only store ids against this catalog; the catalog itself is never persisted.

// FieldType is the input widget a guide field renders as.
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldTextarea  FieldType = "textarea"
	FieldDate      FieldType = "date"
	FieldNamesList FieldType = "names_list"
)

// Field is one free-form input inside a section. Values land in the
// per-phase user-data map keyed by field id.
type Field struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Type  FieldType `json:"type"`
}

// Section is one block of guide content. SectionCheckID, when set, names the
// completion checkbox that gates "ready to complete" for the phase.
type Section struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	SectionCheckID string  `json:"section_check_id,omitempty"`
	Fields         []Field `json:"fields,omitempty"`
}

// ChecklistItem is one phase-level checkbox.
type ChecklistItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// PhaseTemplate is the full static definition of one launch-guide phase.
type PhaseTemplate struct {
	PhaseNumber    int             `json:"phase_number"`
	Title          string          `json:"title"`
	Sections       []Section       `json:"sections"`
	ChecklistItems []ChecklistItem `json:"checklist_items,omitempty"`
}

var phaseTemplates = []PhaseTemplate{
	{
		PhaseNumber: 1,
		Title:       "Pray & Prepare",
		Sections: []Section{
			{ID: "p1_vision", Title: "Clarify Your Vision", SectionCheckID: "p1_vision_check", Fields: []Field{
				{ID: "p1_vision_statement", Label: "Your one-sentence disciple-making vision", Type: FieldTextarea},
			}},
			{ID: "p1_prayer", Title: "Build a Prayer Team", SectionCheckID: "p1_prayer_check", Fields: []Field{
				{ID: "p1_prayer_partners", Label: "Prayer partners", Type: FieldNamesList},
			}},
			{ID: "p1_invite", Title: "Identify Your First Group", SectionCheckID: "p1_invite_check", Fields: []Field{
				{ID: "p1_invite_names", Label: "People you plan to invite", Type: FieldNamesList},
				{ID: "p1_invite_date", Label: "Target invite date", Type: FieldDate},
			}},
		},
	},
	{
		PhaseNumber: 2,
		Title:       "Launch Your Group",
		Sections: []Section{
			{ID: "p2_rhythm", Title: "Set Your Weekly Rhythm", SectionCheckID: "p2_rhythm_check", Fields: []Field{
				{ID: "p2_meeting_day", Label: "Meeting day and time", Type: FieldText},
				{ID: "p2_first_meeting", Label: "First meeting date", Type: FieldDate},
			}},
			{ID: "p2_expectations", Title: "Share the Commitment", SectionCheckID: "p2_expectations_check"},
		},
		ChecklistItems: []ChecklistItem{
			{ID: "p2_invites_sent", Label: "Invitations sent to every group member"},
			{ID: "p2_materials_ready", Label: "90-Day Toolkit copies ready"},
			{ID: "p2_first_meeting_held", Label: "First meeting held"},
		},
	},
	{
		PhaseNumber: 3,
		Title:       "Multiply",
		Sections: []Section{
			{ID: "p3_apprentice", Title: "Raise Up an Apprentice", SectionCheckID: "p3_apprentice_check", Fields: []Field{
				{ID: "p3_apprentice_names", Label: "Potential apprentices", Type: FieldNamesList},
			}},
			{ID: "p3_next_group", Title: "Plan the Next Group", SectionCheckID: "p3_next_group_check", Fields: []Field{
				{ID: "p3_launch_date", Label: "Next group launch date", Type: FieldDate},
				{ID: "p3_reflection", Label: "What you learned this cycle", Type: FieldTextarea},
			}},
		},
	},
}

// PhaseTemplates returns every phase in order.
func PhaseTemplates() []PhaseTemplate {
	out := make([]PhaseTemplate, len(phaseTemplates))
	copy(out, phaseTemplates)
	return out
}

// TemplateFor returns the template for a phase number.
func TemplateFor(phaseNumber int) (*PhaseTemplate, bool) {
	for i := range phaseTemplates {
		if phaseTemplates[i].PhaseNumber == phaseNumber {
			return &phaseTemplates[i], true
		}
	}
	return nil, false
}

// NextPhaseNumber returns the phase after the given one, if any.
func NextPhaseNumber(phaseNumber int) (int, bool) {
	for i := range phaseTemplates {
		if phaseTemplates[i].PhaseNumber == phaseNumber && i+1 < len(phaseTemplates) {
			return phaseTemplates[i+1].PhaseNumber, true
		}
	}
	return 0, false
}

// SectionCheckIDs lists every gating checkbox in the phase.
func (t *PhaseTemplate) SectionCheckIDs() []string {
	var ids []string
	for _, section := range t.Sections {
		if section.SectionCheckID != "" {
			ids = append(ids, section.SectionCheckID)
		}
	}
	return ids
}

// HasSectionCheck reports whether the id is a gating checkbox of this phase.
func (t *PhaseTemplate) HasSectionCheck(id string) bool {
	for _, candidate := range t.SectionCheckIDs() {
		if candidate == id {
			return true
		}
	}
	return false
}

// HasChecklistItem reports whether the id is a checklist item of this phase.
func (t *PhaseTemplate) HasChecklistItem(id string) bool {
	for _, item := range t.ChecklistItems {
		if item.ID == id {
			return true
		}
	}
	return false
}

// HasField reports whether the id names a free-form field of this phase.
func (t *PhaseTemplate) HasField(id string) bool {
	for _, section := range t.Sections {
		for _, field := range section.Fields {
			if field.ID == id {
				return true
			}
		}
	}
	return false
}
