package pipeline

// State is the orchestrator's position in a run. Runs move strictly forward:
// start, analyzing, architecting, writing, persisting, done. A failed stage
// moves straight to failed.
type State string

const (
	StateStart        State = "start"
	StateAnalyzing    State = "analyzing"
	StateArchitecting State = "architecting"
	StateWriting      State = "writing"
	StatePersisting   State = "persisting"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
