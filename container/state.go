package container

// State represents the lifecycle state of a scope
type State int

const (
	// StateCreated indicates the scope exists but has not been started
	StateCreated State = iota
	// StateStarting indicates the start hooks are running
	StateStarting
	// StateStarted indicates both hooks completed
	StateStarted
	// StateStopped indicates the scope released its components
	StateStopped
	// StateFailed indicates a start hook returned an error
	StateFailed
)

// String returns a string representation of the state
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
