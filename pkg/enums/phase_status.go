package enums

// PhaseStatus is the derived visibility of an implementation phase for a church.
// It is computed from the church's current_phase pointer and never stored.
type PhaseStatus string

const (
	PhaseStatusLocked    PhaseStatus = "locked"
	PhaseStatusUpcoming  PhaseStatus = "upcoming"
	PhaseStatusCurrent   PhaseStatus = "current"
	PhaseStatusCompleted PhaseStatus = "completed"
)

// String implements fmt.Stringer.
func (s PhaseStatus) String() string {
	return string(s)
}

// Interactive reports whether milestones in a phase with this status may be toggled.
func (s PhaseStatus) Interactive() bool {
	return s == PhaseStatusCurrent || s == PhaseStatusCompleted
}

// PhaseStatusFor derives the status of phaseNumber relative to currentPhase.
func PhaseStatusFor(phaseNumber, currentPhase int) PhaseStatus {
	switch {
	case phaseNumber < currentPhase:
		return PhaseStatusCompleted
	case phaseNumber == currentPhase:
		return PhaseStatusCurrent
	case phaseNumber == currentPhase+1:
		return PhaseStatusUpcoming
	default:
		return PhaseStatusLocked
	}
}
