package engine

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/luca-patrignani/rpsx/domain/rpsls"
	"github.com/luca-patrignani/rpsx/ledger"
)

// dispatch applies one ledger event to the connected session. Events that
// do not name the wallet are ignored.
func (e *Engine) dispatch(ctx context.Context, ev ledger.Event) {
	sess := e.currentSession()
	if sess == nil || !ev.Involves(sess.Account) {
		return
	}
	me := sess.Account
	e.logger.Debug("ledger event", "kind", ev.Kind, "game", ev.GameName, "block", ev.Block)

	switch ev.Kind {
	case ledger.PlayerRegistered:
		e.alerts.Success(fmt.Sprintf("Hello %s, you are already registered!", ev.Name))
		e.afterEvent(ctx, sess, false)

	case ledger.GameCreated:
		e.onGameCreated(ctx, me, ev)
		e.afterEvent(ctx, sess, true)

	case ledger.SecondPlayerMoved:
		if me == ev.Player1 {
			e.alerts.Success(fmt.Sprintf("Your game %s has been resumed. Please proceed to reveal your move!", ev.GameName))
		} else {
			e.alerts.Success(fmt.Sprintf("Your move was registered in game %s!", ev.GameName))
		}
		e.advance(ctx, sess, ev.GameName, rpsls.SecondPlayerMoved)

	case ledger.FirstPlayerRevealed:
		if me == ev.Player1 {
			e.forget(ctx, ev.GameName)
		}
		opponent := ev.Player1
		if me == ev.Player1 {
			opponent = ev.Player2
		}
		switch rpsls.OutcomeFor(me, opponent, ev.Winner) {
		case rpsls.Won:
			e.alerts.Success(fmt.Sprintf("You won game %s!", ev.GameName))
		case rpsls.Lost:
			e.alerts.Info(fmt.Sprintf("You lost game %s!", ev.GameName))
		default:
			e.alerts.Info(fmt.Sprintf("It's a tie for game %s!", ev.GameName))
		}
		e.advance(ctx, sess, ev.GameName, rpsls.FirstPlayerRevealed)
		e.afterEvent(ctx, sess, true)

	case ledger.Player1TimedOut:
		e.onTimeout(ctx, me, ev, ev.Player1)
		e.advance(ctx, sess, ev.GameName, rpsls.Player1TimedOut)
		e.afterEvent(ctx, sess, true)

	case ledger.Player2TimedOut:
		e.onTimeout(ctx, me, ev, ev.Player2)
		e.advance(ctx, sess, ev.GameName, rpsls.Player2TimedOut)
		e.afterEvent(ctx, sess, true)
	}
}

func (e *Engine) onGameCreated(ctx context.Context, me common.Address, ev ledger.Event) {
	if me == ev.Player2 {
		e.alerts.Success(fmt.Sprintf("You have been challenged in game %s!", ev.GameName))
	}
	if me != ev.Player1 {
		return
	}
	linked, err := e.secrets.LinkPendingTo(ctx, ev.GameName)
	if err != nil {
		e.logger.Error("link secret failed", "game", ev.GameName, "error", err)
		e.alerts.Failure(fmt.Sprintf("Could not store the secret of game %s: %v", ev.GameName, err))
		return
	}
	if !linked {
		if _, err := e.secrets.Consume(ctx, ev.GameName); err != nil {
			e.logger.Warn("no pending secret on this device", "game", ev.GameName)
		}
	}
	e.alerts.Success(fmt.Sprintf("Game %s created. Challenge submitted!", ev.GameName))
}

// onTimeout handles a timeout claim against defaulter. Player1 forgets the
// secret either way: the game is over.
func (e *Engine) onTimeout(ctx context.Context, me common.Address, ev ledger.Event, defaulter common.Address) {
	if me == ev.Player1 {
		e.forget(ctx, ev.GameName)
	}
	if me == defaulter {
		e.alerts.Info(fmt.Sprintf("You've been dismissed. You lost game %s!", ev.GameName))
		return
	}
	e.alerts.Success(fmt.Sprintf("You won game %s due to timeout!", ev.GameName))
}

func (e *Engine) forget(ctx context.Context, gameName string) {
	if err := e.secrets.Forget(ctx, gameName); err != nil {
		e.logger.Error("forget secret failed", "game", gameName, "error", err)
	}
}

// advance moves the entered game through a transition. A finished game is
// closed; a live one is read again.
func (e *Engine) advance(ctx context.Context, sess *Session, gameName string, t rpsls.Transition) {
	e.mu.Lock()
	view := sess.Game
	if view == nil || view.Snapshot.Name != gameName {
		e.mu.Unlock()
		return
	}
	status, err := rpsls.Advance(view.State.Status, t)
	if err != nil {
		e.mu.Unlock()
		e.logger.Warn("unexpected transition", "game", gameName, "transition", t, "error", err)
		return
	}
	if status.Terminal() {
		sess.Game = nil
		sess.Directory.ClearSelection()
		e.mu.Unlock()
		return
	}
	index := view.Index
	e.mu.Unlock()

	fresh, err := e.loadView(ctx, sess, index, gameName)
	if err != nil {
		e.logger.Warn("reload game failed", "game", gameName, "error", err)
		return
	}
	e.mu.Lock()
	if sess.Game != nil && sess.Game.Snapshot.Name == gameName {
		sess.Game = &fresh
	}
	e.mu.Unlock()
}

// afterEvent marks the event as alerted, optionally sends the client back to
// the landing view, and refreshes.
func (e *Engine) afterEvent(ctx context.Context, sess *Session, leave bool) {
	e.mu.Lock()
	sess.eventHandled = true
	e.mu.Unlock()
	if leave {
		e.navigate(ViewLanding, "")
	}
	if err := e.Refresh(ctx); err != nil {
		e.logger.Warn("refresh after event failed", "error", err)
	}
}
