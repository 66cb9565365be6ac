// Package events keeps the client's live subscriptions to ledger events.
// Re-subscribing always tears the previous registrations down first, and
// every log reaches the consumer at most once.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/luca-patrignani/rpsx/ledger"
)

// LogSource opens push subscriptions for contract logs and reads past ones.
// *ethclient.Client satisfies it.
type LogSource interface {
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// Decoder turns raw logs into ledger events.
type Decoder interface {
	FilterQuery(kind ledger.Kind) ethereum.FilterQuery
	Decode(log types.Log) (ledger.Event, error)
}

// Error reports a failure of one subscription.
type Error struct {
	Kind ledger.Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("events: %s %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var ErrClosed = errors.New("subscriber closed")

// Subscriber multiplexes one subscription per event kind onto a single
// event channel.
type Subscriber struct {
	source  LogSource
	decoder Decoder
	journal *Journal
	logger  *slog.Logger
	buffer  int

	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
	closed bool

	// sendMu makes the journal check, the send and the record one step
	// across pumps.
	sendMu sync.Mutex

	events chan ledger.Event
	errs   chan error
}

// New creates a Subscriber with no active subscription.
func New(source LogSource, decoder Decoder, opts ...Option) *Subscriber {
	s := &Subscriber{
		source:  source,
		decoder: decoder,
		journal: NewJournal(),
		logger:  slog.Default(),
		buffer:  16,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = make(chan ledger.Event, s.buffer)
	s.errs = make(chan error, s.buffer)
	return s
}

// Events delivers decoded events. It is closed by Close.
func (s *Subscriber) Events() <-chan ledger.Event { return s.events }

// Errors delivers subscription failures as *Error. It is closed by Close.
func (s *Subscriber) Errors() <-chan error { return s.errs }

// Subscribe replaces the current registrations with one per kind. With no
// kinds, every event kind is subscribed. The previous registrations are
// fully stopped before the new ones are opened.
//
// Once events have been delivered, each new registration first replays the
// logs from the last delivered block, so nothing emitted while the stream
// was down is lost. The journal drops what was already delivered.
func (s *Subscriber) Subscribe(ctx context.Context, kinds ...ledger.Kind) error {
	if len(kinds) == 0 {
		kinds = ledger.Kinds()
	}
	kinds = unique(kinds)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.teardownLocked()

	from := s.backfillFrom()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	group, groupCtx := errgroup.WithContext(runCtx)
	for _, kind := range kinds {
		logs := make(chan types.Log, s.buffer)
		sub, err := s.source.SubscribeFilterLogs(groupCtx, s.decoder.FilterQuery(kind), logs)
		if err != nil {
			cancel()
			_ = group.Wait()
			return &Error{Kind: kind, Op: "subscribe", Err: err}
		}
		group.Go(func() error {
			return s.pump(groupCtx, kind, from, sub, logs)
		})
	}
	s.cancel = cancel
	s.group = group
	s.logger.Debug("subscribed to ledger events", "kinds", len(kinds), "from_block", from)
	return nil
}

// backfillFrom is the block replays start at, or nil before the first
// delivery. A journal that fails verification is not trusted for it.
func (s *Subscriber) backfillFrom() *big.Int {
	if s.journal.Len() == 0 {
		return nil
	}
	if err := s.journal.Verify(); err != nil {
		s.logger.Error("event journal is inconsistent, skipping replay", "error", err)
		return nil
	}
	return new(big.Int).SetUint64(s.journal.LastBlock())
}

func unique(kinds []ledger.Kind) []ledger.Kind {
	out := make([]ledger.Kind, 0, len(kinds))
	for _, k := range kinds {
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}

// Unsubscribe stops every registration and waits for them to drain.
func (s *Subscriber) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
}

// Close stops every registration and closes the output channels.
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.teardownLocked()
	s.closed = true
	close(s.events)
	close(s.errs)
}

func (s *Subscriber) teardownLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	_ = s.group.Wait()
	s.cancel = nil
	s.group = nil
}

func (s *Subscriber) pump(ctx context.Context, kind ledger.Kind, from *big.Int, sub ethereum.Subscription, logs <-chan types.Log) error {
	defer sub.Unsubscribe()
	if from != nil {
		s.replay(ctx, kind, from)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-sub.Err():
			if ctx.Err() != nil {
				return nil
			}
			if !ok || err == nil {
				err = errors.New("subscription ended")
			}
			s.report(ctx, &Error{Kind: kind, Op: "receive", Err: err})
			return nil
		case raw := <-logs:
			if !s.deliver(ctx, kind, raw) {
				return nil
			}
		}
	}
}

// replay delivers the past logs of kind from block from on. The live
// registration is already open, so the two overlap instead of leaving a gap.
func (s *Subscriber) replay(ctx context.Context, kind ledger.Kind, from *big.Int) {
	q := s.decoder.FilterQuery(kind)
	q.FromBlock = from
	past, err := s.source.FilterLogs(ctx, q)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("replay of missed ledger events failed", "kind", kind, "from_block", from, "error", err)
		}
		return
	}
	for _, raw := range past {
		if !s.deliver(ctx, kind, raw) {
			return
		}
	}
}

// deliver decodes raw and sends it unless it was delivered before. It
// returns false once ctx is done.
func (s *Subscriber) deliver(ctx context.Context, kind ledger.Kind, raw types.Log) bool {
	if raw.Removed {
		return true
	}
	ev, err := s.decoder.Decode(raw)
	if err != nil {
		s.report(ctx, &Error{Kind: kind, Op: "decode", Err: err})
		return ctx.Err() == nil
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.journal.Seen(ev) {
		s.logger.Debug("duplicate ledger event dropped", "kind", ev.Kind, "tx", ev.TxHash.Hex())
		return true
	}
	select {
	case s.events <- ev:
		s.journal.Record(ev)
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Subscriber) report(ctx context.Context, err *Error) {
	s.logger.Warn("ledger subscription error", "kind", err.Kind, "op", err.Op, "error", err.Err)
	select {
	case s.errs <- err:
	case <-ctx.Done():
	}
}
