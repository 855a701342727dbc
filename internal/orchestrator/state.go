package orchestrator

import "fmt"

// State is the position of a run in the deploy pipeline
type State int

const (
	NotStarted State = iota
	CodeUploaded
	ProxyDeployed
	Initialized
	Complete
	Failed
)

var stateNames = map[State]string{
	NotStarted:    "NotStarted",
	CodeUploaded:  "CodeUploaded",
	ProxyDeployed: "ProxyDeployed",
	Initialized:   "Initialized",
	Complete:      "Complete",
	Failed:        "Failed",
}

// forward lists the only successful transition out of each state
var forward = map[State]State{
	NotStarted:    CodeUploaded,
	CodeUploaded:  ProxyDeployed,
	ProxyDeployed: Initialized,
	Initialized:   Complete,
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == Complete || s == Failed
}

// CanTransition reports whether from → to is a legal move
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == Failed {
		return true
	}
	next, ok := forward[from]
	return ok && next == to
}

// advance moves the run to the next state or rejects an illegal move
func (o *Orchestrator) advance(to State) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !CanTransition(o.state, to) {
		return fmt.Errorf("illegal state transition %s -> %s", o.state, to)
	}
	o.state = to
	return nil
}
