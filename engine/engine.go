// Package engine coordinates one wallet's games: it turns ledger events into
// local state and alerts, and gates every ledger-mutating action on the
// freshly read session state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"

	"github.com/luca-patrignani/rpsx/alert"
	"github.com/luca-patrignani/rpsx/domain/rpsls"
	"github.com/luca-patrignani/rpsx/ledger"
	"github.com/luca-patrignani/rpsx/secret"
	"github.com/luca-patrignani/rpsx/timeout"
)

const (
	resyncBackoff    = time.Second
	resyncMaxBackoff = 30 * time.Second
)

// Ledger is the contract surface the engine drives.
type Ledger interface {
	Account() common.Address

	IsRegistered(ctx context.Context, addr common.Address) (bool, error)
	PlayerCount(ctx context.Context) (int, error)
	PlayerAt(ctx context.Context, index int) (rpsls.Player, error)
	SessionsFor(ctx context.Context, addr common.Address) ([]string, error)
	SessionData(ctx context.Context, gameName string) (rpsls.Snapshot, error)
	SessionStake(ctx context.Context, gameName string) (*big.Int, error)
	SessionTiming(ctx context.Context, gameName string) (rpsls.Timing, error)

	CreatePlayer(ctx context.Context, name string) error
	CreateGame(ctx context.Context, gameName string, weapon rpsls.Weapon, salt *big.Int, opponent common.Address, stake *big.Int) error
	SubmitMove(ctx context.Context, gameName string, weapon rpsls.Weapon, stake *big.Int) error
	Reveal(ctx context.Context, gameName string, weapon rpsls.Weapon, salt *big.Int) error
	ClaimPlayer1Timeout(ctx context.Context, gameName string) error
	ClaimPlayer2Timeout(ctx context.Context, gameName string) error
}

// Secrets stores commitment material.
type Secrets interface {
	StagePending(ctx context.Context, gameName string, weapon rpsls.Weapon, salt *big.Int) error
	Pending(ctx context.Context) (secret.Record, bool, error)
	LinkPendingTo(ctx context.Context, gameName string) (bool, error)
	Consume(ctx context.Context, gameName string) (secret.Record, error)
	Forget(ctx context.Context, gameName string) error
	DiscardPending(ctx context.Context) error
}

// EventSource delivers ledger events.
type EventSource interface {
	Subscribe(ctx context.Context, kinds ...ledger.Kind) error
	Unsubscribe()
	Events() <-chan ledger.Event
	Errors() <-chan error
}

// Engine is the coordination core. Event handling runs on the Run
// goroutine; actions run on their caller's goroutine.
type Engine struct {
	ledger  Ledger
	secrets Secrets
	events  EventSource
	alerts  *alert.Dispatcher
	oracle  *timeout.Oracle
	clock   clock.Clock
	newSalt func() *big.Int
	logger  *slog.Logger

	mu      sync.Mutex
	session *Session

	nav chan Navigation
}

type Option func(*Engine)

// WithClock sets the clock used for timeout decisions.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSaltSource replaces secret.NewSalt.
func WithSaltSource(f func() *big.Int) Option {
	return func(e *Engine) {
		if f != nil {
			e.newSalt = f
		}
	}
}

func New(l Ledger, s Secrets, ev EventSource, alerts *alert.Dispatcher, opts ...Option) *Engine {
	e := &Engine{
		ledger:  l,
		secrets: s,
		events:  ev,
		alerts:  alerts,
		clock:   clock.New(),
		newSalt: secret.NewSalt,
		logger:  slog.Default(),
		nav:     make(chan Navigation, 8),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.oracle = timeout.NewOracle(l, e.clock)
	return e
}

// Navigation carries screen changes requested by events and actions.
func (e *Engine) Navigation() <-chan Navigation { return e.nav }

// Connect starts a session for the ledger's signing wallet, subscribes to
// every event kind and loads the wallet's data.
func (e *Engine) Connect(ctx context.Context) error {
	e.Disconnect()
	sess := newSession(e.ledger.Account())
	e.mu.Lock()
	e.session = sess
	e.mu.Unlock()

	if err := e.events.Subscribe(ctx); err != nil {
		return fmt.Errorf("subscribe to ledger events: %w", err)
	}
	e.logger.Info("wallet connected", "account", sess.Account.Hex())
	return e.Refresh(ctx)
}

// Disconnect drops the session and its subscriptions.
func (e *Engine) Disconnect() {
	e.mu.Lock()
	had := e.session != nil
	e.session = nil
	e.mu.Unlock()
	if had {
		e.events.Unsubscribe()
	}
}

// Overview returns a copy of the connected session.
func (e *Engine) Overview() (Overview, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return Overview{}, ErrNotConnected
	}
	return e.session.overview(), nil
}

// Run dispatches ledger events until ctx ends or the source closes.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-e.events.Events():
			if !ok {
				return nil
			}
			e.dispatch(ctx, ev)
		case err, ok := <-e.events.Errors():
			if !ok {
				return nil
			}
			e.resync(ctx, err)
		}
	}
}

// resync rebuilds subscriptions and cached state after a lost or
// undecodable event. A failed resubscribe is retried with backoff until it
// succeeds, ctx ends or the session is dropped.
func (e *Engine) resync(ctx context.Context, cause error) {
	e.logger.Error("ledger event stream failed, resynchronising", "error", cause)
	delay := resyncBackoff
	for attempt := 1; ; attempt++ {
		if e.currentSession() == nil {
			return
		}
		err := e.events.Subscribe(ctx)
		if err == nil {
			break
		}
		e.logger.Error("resubscribe failed", "attempt", attempt, "retry_in", delay, "error", err)
		if attempt == 1 {
			e.alerts.Failure("Lost connection to the ledger. Retrying...")
		}
		select {
		case <-ctx.Done():
			return
		case <-e.clock.After(delay):
		}
		delay = min(2*delay, resyncMaxBackoff)
	}
	if err := e.Refresh(ctx); err != nil {
		e.logger.Error("refresh after resubscribe failed", "error", err)
	}
}

func (e *Engine) currentSession() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

func (e *Engine) requireSession() (*Session, error) {
	sess := e.currentSession()
	if sess == nil {
		return nil, ErrNotConnected
	}
	return sess, nil
}

func (e *Engine) requireRegistered() (*Session, error) {
	sess, err := e.requireSession()
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	registered := sess.Registered
	e.mu.Unlock()
	if !registered {
		return nil, ErrNotRegistered
	}
	return sess, nil
}

func (e *Engine) navigate(view View, gameName string) {
	n := Navigation{View: view, GameName: gameName}
	select {
	case e.nav <- n:
		return
	default:
	}
	select {
	case <-e.nav:
	default:
	}
	select {
	case e.nav <- n:
	default:
	}
}

// fail alerts the player about err and returns it.
func (e *Engine) fail(op string, err error) error {
	text := ledger.Describe(err)
	switch {
	case errors.Is(err, ErrMissingSecret):
		text = "No secret for this game is stored on this device. Only the device that created the challenge can reveal it."
	case errors.Is(err, ErrStaleSession):
		text = "The game list changed. Please select the game again."
	}
	e.alerts.Failure(text)
	e.logger.Warn("action failed", "op", op, "error", err)
	return err
}
