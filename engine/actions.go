package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/luca-patrignani/rpsx/domain/rpsls"
	"github.com/luca-patrignani/rpsx/ledger"
	"github.com/luca-patrignani/rpsx/secret"
)

// Register creates the wallet's player profile. Confirmation arrives as a
// PlayerRegistered event.
func (e *Engine) Register(ctx context.Context, name string) error {
	sess, err := e.requireSession()
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return e.fail("register", ErrInvalidName)
	}
	e.mu.Lock()
	registered := sess.Registered
	e.mu.Unlock()
	if registered {
		return e.fail("register", ErrAlreadyRegistered)
	}
	if err := e.ledger.CreatePlayer(ctx, name); err != nil {
		return e.fail("register", err)
	}
	e.alerts.Info("Your request was submitted. Please wait for the confirmation!")
	return nil
}

// CreateGame challenges opponent, committing to weapon and staking stake
// ether. The secret is durable before the transaction is sent. It returns
// the proposed game name.
func (e *Engine) CreateGame(ctx context.Context, opponent common.Address, weapon rpsls.Weapon, stake string) (string, error) {
	sess, err := e.requireRegistered()
	if err != nil {
		return "", e.fail("create game", err)
	}
	if !weapon.Valid() {
		return "", e.fail("create game", fmt.Errorf("invalid weapon %d", weapon))
	}
	wei, err := rpsls.ParseStake(stake)
	if err != nil {
		return "", e.fail("create game", err)
	}

	e.mu.Lock()
	opp, ok := sess.player(opponent)
	myName := sess.Name
	e.mu.Unlock()
	if !ok || opponent == sess.Account {
		return "", e.fail("create game", fmt.Errorf("%w: %s", ErrUnknownOpponent, opponent.Hex()))
	}
	name := rpsls.GameName(myName, opp.Name)

	salt := e.newSalt()
	if err := e.secrets.StagePending(ctx, name, weapon, salt); err != nil {
		return "", e.fail("create game", fmt.Errorf("stage secret: %w", err))
	}
	if err := e.ledger.CreateGame(ctx, name, weapon, salt, opponent, wei); err != nil {
		if ledger.NotExecuted(err) {
			if derr := e.secrets.DiscardPending(ctx); derr != nil {
				e.logger.Error("discard pending secret failed", "error", derr)
			}
		}
		return "", e.fail("create game", err)
	}
	e.alerts.Info("Your move was submitted!")
	return name, nil
}

// Enter opens the game at index of the listing.
func (e *Engine) Enter(ctx context.Context, index int) (GameView, error) {
	sess, err := e.requireRegistered()
	if err != nil {
		return GameView{}, e.fail("enter", err)
	}
	name, err := sess.Directory.Select(index)
	if err != nil {
		return GameView{}, e.fail("enter", err)
	}
	view, err := e.loadView(ctx, sess, index, name)
	if err != nil {
		return GameView{}, e.fail("enter", err)
	}
	e.mu.Lock()
	sess.Game = &view
	e.mu.Unlock()
	e.navigate(ViewGame, name)
	return view, nil
}

// Leave closes the entered game.
func (e *Engine) Leave() {
	sess := e.currentSession()
	if sess == nil {
		return
	}
	e.mu.Lock()
	sess.Game = nil
	sess.Directory.ClearSelection()
	e.mu.Unlock()
	e.navigate(ViewLobby, "")
}

// SubmitMove plays weapon as player2, matching the challenger's stake.
func (e *Engine) SubmitMove(ctx context.Context, weapon rpsls.Weapon) error {
	if !weapon.Valid() {
		return e.fail("move", fmt.Errorf("invalid weapon %d", weapon))
	}
	view, err := e.activeGame(ctx, rpsls.ActionMove)
	if err != nil {
		return e.fail("move", err)
	}
	if err := e.ledger.SubmitMove(ctx, view.Snapshot.Name, weapon, view.Snapshot.Stake); err != nil {
		return e.fail("move", err)
	}
	e.alerts.Info("Your move was submitted!")
	return nil
}

// Reveal discloses player1's committed weapon. The secret is kept until the
// ledger confirms the reveal.
func (e *Engine) Reveal(ctx context.Context) error {
	view, err := e.activeGame(ctx, rpsls.ActionReveal)
	if err != nil {
		return e.fail("reveal", err)
	}
	name := view.Snapshot.Name
	rec, err := e.secrets.Consume(ctx, name)
	if errors.Is(err, secret.ErrNotFound) {
		return e.fail("reveal", fmt.Errorf("%w: %q", ErrMissingSecret, name))
	}
	if err != nil {
		return e.fail("reveal", err)
	}
	if err := e.ledger.Reveal(ctx, name, rec.Weapon, rec.Salt); err != nil {
		return e.fail("reveal", err)
	}
	e.forget(ctx, name)
	return nil
}

// ClaimTimeout claims the pot because the counterpart let the window pass.
func (e *Engine) ClaimTimeout(ctx context.Context) error {
	view, err := e.activeGame(ctx, rpsls.ActionClaimTimeout)
	if err != nil {
		return e.fail("claim timeout", err)
	}
	name := view.Snapshot.Name
	switch view.State.ClaimTarget {
	case rpsls.RolePlayer2:
		err = e.ledger.ClaimPlayer2Timeout(ctx, name)
	case rpsls.RolePlayer1:
		err = e.ledger.ClaimPlayer1Timeout(ctx, name)
	}
	if err != nil {
		return e.fail("claim timeout", err)
	}
	return nil
}

// activeGame re-reads the listing and the entered game, failing closed if
// the selection went stale or action is not allowed any more.
func (e *Engine) activeGame(ctx context.Context, action rpsls.Action) (GameView, error) {
	sess, err := e.requireRegistered()
	if err != nil {
		return GameView{}, err
	}
	e.mu.Lock()
	entered := sess.Game != nil
	e.mu.Unlock()
	if !entered {
		return GameView{}, ErrNoGame
	}

	names, err := e.ledger.SessionsFor(ctx, sess.Account)
	if err != nil {
		return GameView{}, err
	}
	e.mu.Lock()
	sess.Directory.Replace(names)
	e.mu.Unlock()
	index, name, err := sess.Directory.ValidateSelection()
	if err != nil {
		return GameView{}, fmt.Errorf("%w: %w", ErrStaleSession, err)
	}

	view, err := e.loadView(ctx, sess, index, name)
	if err != nil {
		return GameView{}, err
	}
	e.mu.Lock()
	sess.Game = &view
	e.mu.Unlock()
	if err := view.State.Allow(action); err != nil {
		return GameView{}, err
	}
	return view, nil
}
