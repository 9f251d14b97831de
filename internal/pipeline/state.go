package pipeline

// State is a step of a conversion run. A run only moves forward; it ends in
// StateDone or StateFailed.
type State string

const (
	StateIdle          State = "idle"
	StateExtracting    State = "extracting"
	StateLoadingSchema State = "loading_schema"
	StateStructuring   State = "structuring"
	StateMapping       State = "mapping"
	StateValidating    State = "validating"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// Terminal reports whether no further transition is possible from s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
