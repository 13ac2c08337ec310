package apt

// State is the progress of one processing run.
//
//	NOT_STARTED -> PREPARING -> RESOLVING_INPUTS -> SKIPPED
//	                                             -> BUILDING_OPTIONS -> INVOKING -> SUCCEEDED | FAILED
type State string

// Run states, in the order a run passes through them
const (
	StateNotStarted      State = "NOT_STARTED"
	StatePreparing       State = "PREPARING"
	StateResolvingInputs State = "RESOLVING_INPUTS"
	StateSkipped         State = "SKIPPED"
	StateBuildingOptions State = "BUILDING_OPTIONS"
	StateInvoking        State = "INVOKING"
	StateSucceeded       State = "SUCCEEDED"
	StateFailed          State = "FAILED"
)

func (s State) String() string {
	return string(s)
}

// Terminal reports whether no further transition follows s
func (s State) Terminal() bool {
	switch s {
	case StateSkipped, StateSucceeded, StateFailed:
		return true
	default:
		return false
	}
}
