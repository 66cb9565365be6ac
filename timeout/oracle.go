// Package timeout decides when a participant may claim that the other side
// defaulted on a session.
package timeout

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/luca-patrignani/rpsx/domain/rpsls"
)

// CanClaim reports whether the window after lastAction has strictly
// elapsed at now. All values are epoch seconds.
func CanClaim(now, lastAction, window int64) bool {
	return now-lastAction > window
}

// TimingReader fetches the ledger's timing data for a session.
type TimingReader interface {
	SessionTiming(ctx context.Context, gameName string) (rpsls.Timing, error)
}

// Verdict is the timing state of a session at one instant.
type Verdict struct {
	Timing    rpsls.Timing
	Now       int64
	Claimable bool
	// Remaining is the wait until the first claimable second; zero once
	// claimable.
	Remaining time.Duration
}

// Oracle combines ledger timing with the local clock.
type Oracle struct {
	reader TimingReader
	clock  clock.Clock
}

func NewOracle(reader TimingReader, clk clock.Clock) *Oracle {
	if clk == nil {
		clk = clock.New()
	}
	return &Oracle{reader: reader, clock: clk}
}

// Check reads the session timing and evaluates it against the clock.
func (o *Oracle) Check(ctx context.Context, gameName string) (Verdict, error) {
	t, err := o.reader.SessionTiming(ctx, gameName)
	if err != nil {
		return Verdict{}, fmt.Errorf("read timing of %q: %w", gameName, err)
	}
	return Evaluate(t, o.clock.Now().Unix()), nil
}

// Evaluate judges t at epoch second now.
func Evaluate(t rpsls.Timing, now int64) Verdict {
	v := Verdict{Timing: t, Now: now, Claimable: CanClaim(now, t.LastAction, t.Window)}
	if !v.Claimable {
		v.Remaining = time.Duration(t.LastAction+t.Window+1-now) * time.Second
	}
	return v
}
