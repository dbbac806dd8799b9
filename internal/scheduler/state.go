package scheduler

import "fmt"

// State is the lifecycle position of a Scheduler.
type State int

const (
	Idle State = iota
	Running
	Succeeded
	Failed
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var transitions = map[State][]State{
	Idle:      {Running, Terminated},
	Running:   {Succeeded, Failed},
	Succeeded: {Idle},
	Failed:    {Idle, Terminated},
}

// CanTransition reports whether moving from s to next is allowed.
func (s State) CanTransition(next State) bool {
	for _, to := range transitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// FailureMode decides what a failed cycle does to the polling loop.
type FailureMode string

const (
	// Continue logs the failure and waits for the next tick.
	Continue FailureMode = "continue"
	// Stop terminates the loop with the cycle's error.
	Stop FailureMode = "stop"
)

func ParseFailureMode(s string) (FailureMode, error) {
	switch FailureMode(s) {
	case "", Continue:
		return Continue, nil
	case Stop:
		return Stop, nil
	}
	return "", fmt.Errorf("unknown failure mode %q", s)
}
