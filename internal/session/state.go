package session

import "fmt"

type State int

const (
	Idle State = iota
	Launching
	Running
	Completed
	TimedOut
	Crashed
	LaunchFailed
)

var stateNames = map[State]string{
	Idle:         "idle",
	Launching:    "launching",
	Running:      "running",
	Completed:    "completed",
	TimedOut:     "timed_out",
	Crashed:      "crashed",
	LaunchFailed: "launch_failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) Terminal() bool {
	switch s {
	case Completed, TimedOut, Crashed, LaunchFailed:
		return true
	}
	return false
}

var transitions = map[State][]State{
	Idle:      {Launching},
	Launching: {Running, LaunchFailed},
	Running:   {Completed, TimedOut, Crashed},
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
