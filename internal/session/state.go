package session

import "fmt"

// State represents the lifecycle state of a streaming session.
type State int

const (
	// StateActive - accepting audio, may have an in-flight transcription.
	StateActive State = iota
	// StateFinalizing - draining, producing the last transcript, no new audio.
	StateFinalizing
	// StateClosed - terminal.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateActive:
		return "ACTIVE"
	case StateFinalizing:
		return "FINALIZING"
	case StateClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}
