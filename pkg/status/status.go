// pkg/status/status.go - per-application install status.

package status

import (
	"errors"
	"fmt"
	"sync"
)

// Status is the install state of one application within a run.
type Status int

const (
	NotStarted Status = iota
	Downloading
	Installing
	Done
	Failed
	Skipped
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Downloading:
		return "Downloading"
	case Installing:
		return "Installing"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	case Skipped:
		return "Skipped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == Done || s == Failed || s == Skipped
}

func (s Status) rank() int {
	switch s {
	case NotStarted:
		return 0
	case Downloading:
		return 1
	case Installing:
		return 2
	default:
		return 3
	}
}

var ErrInvalidTransition = errors.New("invalid status transition")

// Outcome holds the status and message of one install attempt. It is safe
// to read from a presentation goroutine while the pipeline writes it.
type Outcome struct {
	mu      sync.RWMutex
	status  Status
	message string
}

func NewOutcome() *Outcome {
	return &Outcome{}
}

// Transition moves the outcome forward. Skipped is only reachable from
// NotStarted, Done only from Installing. Repeating the current non-terminal
// state just replaces the message.
func (o *Outcome) Transition(to Status, message string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	from := o.status
	if !allowed(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	o.status = to
	o.message = message
	return nil
}

func allowed(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	switch to {
	case NotStarted:
		return false
	case Skipped:
		return from == NotStarted
	case Done:
		return from == Installing
	case Failed:
		return true
	}
	return to.rank() >= from.rank()
}

// Snapshot returns the current status and message.
func (o *Outcome) Snapshot() (Status, string) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status, o.message
}

func (o *Outcome) Status() Status {
	s, _ := o.Snapshot()
	return s
}

func (o *Outcome) Message() string {
	_, m := o.Snapshot()
	return m
}
