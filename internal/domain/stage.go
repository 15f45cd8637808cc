package domain

// Stage is a step of the rating workflow.
type Stage string

// Workflow stages in order.
const (
	StageAwaitingIdentity Stage = "awaiting_identity"
	StageAwaitingInput    Stage = "awaiting_input"
	StageBriefing         Stage = "briefing"
	StageRating           Stage = "rating"
	StageFinished         Stage = "finished"
)

// String implements fmt.Stringer.
func (s Stage) String() string { return string(s) }
