package uow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// ErrConnection is the sentinel behind every ConnectionError.
var ErrConnection = errors.New("unit of work: connection failed")

// ConnectionError wraps a failure to open the connection or begin the transaction.
// It matches both ErrConnection and its cause under errors.Is.
type ConnectionError struct {
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %v", ErrConnection, e.Cause)
}

func (e *ConnectionError) Unwrap() []error {
	return []error{ErrConnection, e.Cause}
}

// Transactor is the driver side of a unit of work. Release returns the connection
// and must abort a transaction that is still open.
type Transactor interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Release(ctx context.Context) error
}

// Option configures a UnitOfWork.
type Option func(*UnitOfWork)

// WithLogger logs state transitions at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(u *UnitOfWork) {
		u.logger = logger
	}
}

// UnitOfWork owns one transaction for its whole life.
type UnitOfWork struct {
	id      string
	tx      Transactor
	state   State
	history []State
	errs    []error
	logger  *slog.Logger
}

// New creates a unit of work in the Init state. No connection is taken until Init.
func New(tx Transactor, opts ...Option) *UnitOfWork {
	u := &UnitOfWork{
		id:      uuid.NewString(),
		tx:      tx,
		state:   Init,
		history: []State{Init},
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.logger == nil {
		u.logger = slog.New(slog.DiscardHandler)
	}
	u.logger = u.logger.With("component", "unit_of_work", "uow_id", u.id)
	return u
}

// ID identifies the unit of work in logs.
func (u *UnitOfWork) ID() string {
	return u.id
}

// State returns the current lifecycle state.
func (u *UnitOfWork) State() State {
	return u.state
}

// History returns every state the unit of work has been in, oldest first.
func (u *UnitOfWork) History() []State {
	history := make([]State, len(u.history))
	copy(history, u.history)
	return history
}

// AddError records err. Any recorded error makes Dispose roll back.
func (u *UnitOfWork) AddError(err error) {
	if err == nil {
		return
	}
	u.errs = append(u.errs, err)
}

// Errors returns the recorded errors in the order they were added.
func (u *UnitOfWork) Errors() []error {
	errs := make([]error, len(u.errs))
	copy(errs, u.errs)
	return errs
}

func (u *UnitOfWork) HasErrors() bool {
	return len(u.errs) > 0
}

// Init begins the transaction. It is a no-op while Connected and fails with
// ErrAlreadyDisposed once the outcome is decided. A driver failure is recorded and
// returned as a *ConnectionError; the state stays Init.
func (u *UnitOfWork) Init(ctx context.Context) error {
	if u.state == Connected {
		return nil
	}

	next, err := u.state.Connect()
	if err != nil {
		return err
	}

	if err = u.tx.Begin(ctx); err != nil {
		connErr := &ConnectionError{Cause: err}
		u.AddError(connErr)
		return connErr
	}

	u.transition(ctx, next)
	return nil
}

// Commit commits the open transaction, connecting first when still in Init.
// A failed commit leaves the transaction aborted, so the state becomes RolledBack
// and the failure is recorded.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.state == Init {
		if err := u.Init(ctx); err != nil {
			return err
		}
	}

	next, err := u.state.Commit()
	if err != nil {
		return err
	}

	if err = u.tx.Commit(ctx); err != nil {
		u.AddError(err)
		if rbErr := u.tx.Rollback(ctx); rbErr != nil {
			u.AddError(rbErr)
			err = errors.Join(err, rbErr)
		}
		u.transition(ctx, RolledBack)
		return err
	}

	u.transition(ctx, next)
	return nil
}

// Rollback rolls back the open transaction. Without an open transaction it does
// nothing, except after Release where it fails with ErrAlreadyDisposed.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	next, err := u.state.Rollback()
	if errors.Is(err, ErrNotConnected) {
		return nil
	}
	if err != nil {
		return err
	}

	err = u.tx.Rollback(ctx)
	u.transition(ctx, next)
	if err != nil {
		u.AddError(err)
		return err
	}
	return nil
}

// Release returns the connection. Calling it again is a no-op. Releasing a
// Connected unit abandons its transaction.
func (u *UnitOfWork) Release(ctx context.Context) error {
	if u.state == Released {
		return nil
	}

	err := u.tx.Release(ctx)
	u.transition(ctx, Released)
	if err != nil {
		u.AddError(err)
		return err
	}
	return nil
}

// Dispose finishes the unit of work: it rolls back when any error was recorded,
// commits otherwise, and always releases. Finished units are only released and
// released units are left alone. The returned error covers the outcome and the
// release only; recorded errors stay available through Errors.
func (u *UnitOfWork) Dispose(ctx context.Context) error {
	switch u.state {
	case Released:
		return nil
	case Committed, RolledBack:
		return u.Release(ctx)
	case Init, Connected:
	}

	var outcome error
	if u.HasErrors() {
		outcome = u.Rollback(ctx)
	} else {
		outcome = u.Commit(ctx)
	}

	// Nothing was opened, so there is nothing to undo.
	if u.state == Init {
		u.transition(ctx, RolledBack)
	}

	return errors.Join(outcome, u.Release(ctx))
}

func (u *UnitOfWork) transition(ctx context.Context, next State) {
	u.logger.DebugContext(ctx, "unit of work transition", "from", u.state.String(), "to", next.String())
	u.state = next
	u.history = append(u.history, next)
}
