// Package finder orchestrates a portfolio search: it opens the session on
// first use and runs each search off the UI goroutine.
package finder

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/five82/portfolio-finder/internal/pam"
	"github.com/five82/portfolio-finder/internal/portfolio"
	"github.com/five82/portfolio-finder/internal/session"
	"github.com/five82/portfolio-finder/internal/state"
	"github.com/five82/portfolio-finder/internal/task"
)

// ErrBusy is returned by Submit while a search is outstanding.
var ErrBusy = task.ErrBusy

// Connector opens the authenticated session. *session.Session implements it.
type Connector interface {
	OnEvent(fn func(session.Event))
	Open(ctx context.Context) error
	IsOpen() bool
}

// Ensure *session.Session implements Connector at compile time.
var _ Connector = (*session.Session)(nil)

// AuthError reports credentials rejected while opening the session.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// ConnectError reports a session that could not be opened for reasons other
// than rejected credentials.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string {
	return "Failed to connect. " + e.Err.Error()
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Outcome is the result of one submitted search. Connected is true when this
// search opened the session.
type Outcome struct {
	Headers   []portfolio.Header
	Connected bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithOnConnected registers fn to run once the session opens.
func WithOnConnected(fn func()) Option {
	return func(c *Controller) {
		c.onConnected = fn
	}
}

// Controller runs searches one at a time.
type Controller struct {
	conn        Connector
	searcher    pam.Searcher
	store       *state.Store
	runner      task.Runner[Outcome]
	logger      zerolog.Logger
	onConnected func()
}

// New wires a controller. It subscribes to the connector's authentication
// events so failures are recorded in store.
func New(conn Connector, searcher pam.Searcher, store *state.Store, opts ...Option) *Controller {
	if store == nil {
		store = &state.Store{}
	}
	c := &Controller{
		conn:     conn,
		searcher: searcher,
		store:    store,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	conn.OnEvent(func(ev session.Event) {
		if ev.Code == session.EventAuthenticationFailed {
			store.RecordAuthFailure(ev.Message)
		}
	})
	return c
}

// Submit starts a search. It returns ErrBusy while a previous search is
// outstanding. The channel delivers exactly one result.
func (c *Controller) Submit(ctx context.Context, criteria pam.Criteria) (<-chan task.Result[Outcome], error) {
	return c.runner.Submit(ctx, func(ctx context.Context) (Outcome, error) {
		return c.run(ctx, criteria)
	})
}

// Busy reports whether a search is outstanding.
func (c *Controller) Busy() bool {
	return c.runner.Busy()
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() state.Phase {
	return c.store.Snapshot().Phase
}

// Snapshot returns the phase together with the current failure streak.
func (c *Controller) Snapshot() state.Snapshot {
	return c.store.Snapshot()
}

func (c *Controller) run(ctx context.Context, criteria pam.Criteria) (Outcome, error) {
	var out Outcome

	if c.Phase() != state.Connected {
		if err := c.connect(ctx); err != nil {
			c.store.RecordResult(err)
			return out, err
		}
		out.Connected = true
	}

	if err := c.store.Advance(state.Searching); err != nil {
		return out, err
	}
	headers, err := c.searcher.Search(ctx, criteria)
	if advErr := c.store.Advance(state.Connected); advErr != nil {
		c.logger.Error().Err(advErr).Msg("leave searching phase")
	}
	c.store.RecordResult(err)
	if err != nil {
		return out, err
	}
	out.Headers = headers
	return out, nil
}

func (c *Controller) connect(ctx context.Context) error {
	if err := c.store.Advance(state.Connecting); err != nil {
		return err
	}
	c.logger.Info().Msg("opening session")

	err := c.conn.Open(ctx)
	if msg, failed := c.store.TakeAuthFailure(); failed {
		c.fail()
		return &AuthError{Message: msg}
	}
	if err != nil {
		c.fail()
		return &ConnectError{Err: err}
	}
	if !c.conn.IsOpen() {
		c.fail()
		return &ConnectError{Err: errors.New("session did not open")}
	}

	if err := c.store.Advance(state.Connected); err != nil {
		return err
	}
	c.logger.Info().Msg("session ready")
	if c.onConnected != nil {
		c.onConnected()
	}
	return nil
}

func (c *Controller) fail() {
	if err := c.store.Advance(state.Error); err != nil {
		c.logger.Error().Err(err).Msg("enter error phase")
	}
}
