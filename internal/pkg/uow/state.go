package uow

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyDisposed is returned when a state-changing call reaches a unit of
	// work that has already committed, rolled back or been released.
	ErrAlreadyDisposed = errors.New("unit of work is already disposed")

	// ErrNotConnected is returned by State.Commit and State.Rollback outside of Connected.
	ErrNotConnected = errors.New("unit of work has no open transaction")
)

// State is the lifecycle position of a unit of work.
//
//	Init ──> Connected ──┬──> Committed ──┐
//	                     └──> RolledBack ─┴──> Released
//
// The zero value is Init. Released is terminal and reachable from every state.
type State int

const (
	Init State = iota
	Connected
	Committed
	RolledBack
	Released
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case Connected:
		return "connected"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolledback"
	case Released:
		return "released"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IsFinished reports whether the transaction outcome has been decided.
func (s State) IsFinished() bool {
	return s == Committed || s == RolledBack || s == Released
}

// Connect returns Connected for Init and Connected. Finished states cannot reconnect.
func (s State) Connect() (State, error) {
	if s.IsFinished() {
		return s, fmt.Errorf("%w: cannot connect from %s", ErrAlreadyDisposed, s)
	}
	return Connected, nil
}

// Commit returns Committed; only Connected may commit.
func (s State) Commit() (State, error) {
	switch {
	case s == Connected:
		return Committed, nil
	case s.IsFinished():
		return s, fmt.Errorf("%w: cannot commit from %s", ErrAlreadyDisposed, s)
	default:
		return s, fmt.Errorf("%w: cannot commit from %s", ErrNotConnected, s)
	}
}

// Rollback returns RolledBack; only Connected may roll back.
func (s State) Rollback() (State, error) {
	switch {
	case s == Connected:
		return RolledBack, nil
	case s == Released:
		return s, fmt.Errorf("%w: cannot roll back from %s", ErrAlreadyDisposed, s)
	default:
		return s, fmt.Errorf("%w: cannot roll back from %s", ErrNotConnected, s)
	}
}
