package pipeline

import "fmt"

// State is the state of the pipeline.
type State int

// States, in the order a Transaction walks through them.
const (
	StateIdle State = iota
	StateLoadingInput
	StateLayer1Compute
	StateLayer1Activate
	StateLayer2Compute
	StateNormalizing
	StateResultReady
)

var stateNames = [...]string{
	"Idle",
	"LoadingInput",
	"Layer1Compute",
	"Layer1Activate",
	"Layer2Compute",
	"Normalizing",
	"ResultReady",
}

// String implements Stringer.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// IsBusy indicates a Transaction occupies the pipeline.
func (s State) IsBusy() bool {
	return s != StateIdle
}

// StateNotifier is called when the pipeline state changes.
type StateNotifier interface {
	StateChanged(State, *Transaction)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(State, *Transaction)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(state State, t *Transaction) {
	f(state, t)
}
