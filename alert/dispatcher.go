// Package alert shows one transient notification at a time. A new alert
// replaces the current one and restarts the expiry timer.
package alert

import (
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// DefaultTTL is how long an alert stays up when not superseded.
const DefaultTTL = 10 * time.Second

type Kind string

const (
	Info    Kind = "info"
	Success Kind = "success"
	Failure Kind = "failure"
)

// Message is the alert state. Status is false once the alert cleared.
type Message struct {
	ID      uuid.UUID
	Status  bool
	Kind    Kind
	Text    string
	Expires time.Time
}

type Option func(*Dispatcher)

func WithClock(c clock.Clock) Option {
	return func(d *Dispatcher) {
		if c != nil {
			d.clock = c
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(d *Dispatcher) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// Dispatcher owns the single alert slot.
type Dispatcher struct {
	mu      sync.Mutex
	clock   clock.Clock
	ttl     time.Duration
	logger  *slog.Logger
	current Message
	timer   *clock.Timer
	updates chan Message
	closed  bool
}

func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		clock:   clock.New(),
		ttl:     DefaultTTL,
		logger:  slog.Default(),
		updates: make(chan Message, 8),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Updates carries every shown and cleared alert. When the reader falls
// behind the oldest update is dropped.
func (d *Dispatcher) Updates() <-chan Message { return d.updates }

func (d *Dispatcher) Info(text string) Message    { return d.Show(Info, text) }
func (d *Dispatcher) Success(text string) Message { return d.Show(Success, text) }
func (d *Dispatcher) Failure(text string) Message { return d.Show(Failure, text) }

// Show displays text, cancelling the expiry of the previous alert.
func (d *Dispatcher) Show(kind Kind, text string) Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return Message{}
	}
	d.stopLocked()

	msg := Message{
		ID:      uuid.New(),
		Status:  true,
		Kind:    kind,
		Text:    text,
		Expires: d.clock.Now().Add(d.ttl),
	}
	d.current = msg
	id := msg.ID
	d.timer = d.clock.AfterFunc(d.ttl, func() { d.expire(id) })
	d.logger.Debug("alert shown", "kind", kind, "text", text)
	d.publishLocked(msg)
	return msg
}

// Current returns the alert on display, if any.
func (d *Dispatcher) Current() (Message, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current, d.current.Status
}

// Dismiss clears the alert now.
func (d *Dispatcher) Dismiss() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.current.Status {
		return
	}
	d.stopLocked()
	d.clearLocked()
}

// Close stops the timer and closes Updates.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.stopLocked()
	d.closed = true
	close(d.updates)
}

func (d *Dispatcher) expire(id uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	// A superseded timer may fire after Stop lost the race.
	if d.closed || d.current.ID != id || !d.current.Status {
		return
	}
	d.timer = nil
	d.clearLocked()
}

func (d *Dispatcher) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Dispatcher) clearLocked() {
	d.current.Status = false
	d.publishLocked(d.current)
}

func (d *Dispatcher) publishLocked(msg Message) {
	if d.closed {
		return
	}
	select {
	case d.updates <- msg:
		return
	default:
	}
	select {
	case <-d.updates:
	default:
	}
	select {
	case d.updates <- msg:
	default:
	}
}
