package daemon

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAction is returned for any action other than start, stop or status.
var ErrInvalidAction = errors.New("provided action is invalid, expecting 'start', 'stop' or 'status'")

// Action is one of the three daemon verbs.
type Action int

const (
	Start Action = iota + 1
	Stop
	Status
)

// Actions lists the accepted action names in display order.
var Actions = []string{"start", "stop", "status"}

func (a Action) String() string {
	switch a {
	case Start:
		return "start"
	case Stop:
		return "stop"
	case Status:
		return "status"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ParseAction parses s case-insensitively.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start":
		return Start, nil
	case "stop":
		return Stop, nil
	case "status":
		return Status, nil
	default:
		return 0, fmt.Errorf("%w (got %q)", ErrInvalidAction, s)
	}
}
