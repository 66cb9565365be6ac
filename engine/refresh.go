package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/luca-patrignani/rpsx/domain/rpsls"
	"github.com/luca-patrignani/rpsx/secret"
)

// Refresh reloads registration, the player roster and the game listing.
func (e *Engine) Refresh(ctx context.Context) error {
	sess, err := e.requireSession()
	if err != nil {
		return err
	}
	registered, err := e.ledger.IsRegistered(ctx, sess.Account)
	if err != nil {
		return e.fail("refresh", err)
	}
	if !registered {
		e.mu.Lock()
		sess.Registered = false
		sess.Name = ""
		sess.Players = nil
		sess.Game = nil
		sess.Directory.Replace(nil)
		sess.eventHandled = false
		e.mu.Unlock()
		e.navigate(ViewLanding, "")
		e.alerts.Info("Welcome!")
		return nil
	}

	players, err := e.loadPlayers(ctx)
	if err != nil {
		return e.fail("refresh", err)
	}
	names, err := e.ledger.SessionsFor(ctx, sess.Account)
	if err != nil {
		return e.fail("refresh", err)
	}

	e.mu.Lock()
	sess.Registered = true
	sess.Players = players
	if me, ok := sess.player(sess.Account); ok {
		sess.Name = me.Name
	}
	sess.Directory.Replace(names)
	suppress := sess.eventHandled
	sess.eventHandled = false
	name := sess.Name
	e.mu.Unlock()

	e.reconcilePending(ctx, sess, names)
	e.navigate(ViewLobby, "")
	if !suppress {
		e.alerts.Info(fmt.Sprintf("Welcome back %s!", name))
	}
	return nil
}

// reconcilePending links the pending secret once its game is listed with
// the wallet as player1. It covers a GameCreated event that never arrived.
func (e *Engine) reconcilePending(ctx context.Context, sess *Session, names []string) {
	rec, ok, err := e.secrets.Pending(ctx)
	if err != nil {
		e.logger.Warn("read pending secret failed", "error", err)
		return
	}
	if !ok || !slices.Contains(names, rec.Proposed) {
		return
	}
	if _, err := e.secrets.Consume(ctx, rec.Proposed); !errors.Is(err, secret.ErrNotFound) {
		// Already linked, or the store is unreadable.
		return
	}
	snap, err := e.ledger.SessionData(ctx, rec.Proposed)
	if err != nil {
		e.logger.Warn("read proposed game failed", "game", rec.Proposed, "error", err)
		return
	}
	if snap.Player1.Address != sess.Account {
		return
	}
	linked, err := e.secrets.LinkPendingTo(ctx, rec.Proposed)
	if err != nil {
		e.logger.Error("link secret failed", "game", rec.Proposed, "error", err)
		return
	}
	if linked {
		e.logger.Info("linked pending secret to a listed game", "game", rec.Proposed)
	}
}

func (e *Engine) loadPlayers(ctx context.Context) ([]rpsls.Player, error) {
	n, err := e.ledger.PlayerCount(ctx)
	if err != nil {
		return nil, err
	}
	players := make([]rpsls.Player, 0, n)
	for i := range n {
		p, err := e.ledger.PlayerAt(ctx, i)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, nil
}

// loadView reads a session and derives what the wallet may do in it.
func (e *Engine) loadView(ctx context.Context, sess *Session, index int, name string) (GameView, error) {
	snap, err := e.ledger.SessionData(ctx, name)
	if err != nil {
		return GameView{}, err
	}
	stake, err := e.ledger.SessionStake(ctx, name)
	if err != nil {
		return GameView{}, err
	}
	verdict, err := e.oracle.Check(ctx, name)
	if err != nil {
		return GameView{}, err
	}
	snap.Name = name
	snap.Stake = stake
	snap.Timing = verdict.Timing

	state, err := rpsls.Derive(snap, sess.Account, verdict.Claimable)
	if err != nil {
		return GameView{}, err
	}
	return GameView{Index: index, Snapshot: snap, State: state, Verdict: verdict}, nil
}
