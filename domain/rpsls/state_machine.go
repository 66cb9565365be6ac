package rpsls

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNotParticipant = errors.New("wallet is not a participant of this session")
	ErrNotAllowed     = errors.New("action not allowed")
	ErrTerminal       = errors.New("session already finished")
)

// Action is a ledger-mutating call a participant can make on a live session.
type Action string

const (
	ActionMove         Action = "move"
	ActionReveal       Action = "reveal"
	ActionClaimTimeout Action = "claim_timeout"
)

// Transition is an observed ledger event that moves a session forward.
type Transition string

const (
	SecondPlayerMoved   Transition = "second_player_moved"
	FirstPlayerRevealed Transition = "first_player_revealed"
	Player1TimedOut     Transition = "player1_timed_out"
	Player2TimedOut     Transition = "player2_timed_out"
)

// State is what the local wallet may do in a session at a given instant.
type State struct {
	Status Status
	Role   Role

	// Waiting is true while the counterpart is expected to act.
	Waiting bool

	CanMove         bool
	CanReveal       bool
	CanClaimTimeout bool

	// ClaimTarget is the party a timeout claim would be made against.
	ClaimTarget Role
	Deadline    int64
}

// Derive classifies a session for wallet me. windowElapsed is the timeout
// verdict for the session's timing at the current instant. It only ever
// yields the two live statuses: terminal ones are observed through events,
// never computed locally.
func Derive(s Snapshot, me common.Address, windowElapsed bool) (State, error) {
	role := s.RoleOf(me)
	if role == RoleNone {
		return State{}, fmt.Errorf("%w: %s in %q", ErrNotParticipant, me.Hex(), s.Name)
	}

	st := State{
		Role:     role,
		Deadline: s.Timing.Deadline(),
	}
	if s.Incomplete {
		st.Status = AwaitingSecondPlayer
	} else {
		st.Status = AwaitingReveal
	}

	switch role {
	case RolePlayer1:
		st.Waiting = s.Incomplete
		st.CanReveal = !s.Incomplete
		if s.Incomplete {
			st.ClaimTarget = RolePlayer2
			st.CanClaimTimeout = windowElapsed
		}
	case RolePlayer2:
		st.Waiting = !s.Incomplete
		st.CanMove = s.Incomplete
		if !s.Incomplete {
			st.ClaimTarget = RolePlayer1
			st.CanClaimTimeout = windowElapsed
		}
	}
	return st, nil
}

// Allow returns nil if action a is legal in st.
func (st State) Allow(a Action) error {
	if st.Status.Terminal() {
		return ErrTerminal
	}
	switch a {
	case ActionMove:
		if !st.CanMove {
			return fmt.Errorf("%w: %s cannot move while %s", ErrNotAllowed, st.Role, st.Status)
		}
	case ActionReveal:
		if !st.CanReveal {
			return fmt.Errorf("%w: %s cannot reveal while %s", ErrNotAllowed, st.Role, st.Status)
		}
	case ActionClaimTimeout:
		if st.ClaimTarget == RoleNone {
			return fmt.Errorf("%w: %s has nobody to claim against while %s", ErrNotAllowed, st.Role, st.Status)
		}
		if !st.CanClaimTimeout {
			return fmt.Errorf("%w: timeout window open until %d", ErrNotAllowed, st.Deadline)
		}
	default:
		return fmt.Errorf("%w: unknown action %q", ErrNotAllowed, a)
	}
	return nil
}

// Advance applies an observed transition to a known status.
func Advance(current Status, t Transition) (Status, error) {
	if current.Terminal() {
		return current, ErrTerminal
	}
	switch {
	case current == AwaitingSecondPlayer && t == SecondPlayerMoved:
		return AwaitingReveal, nil
	case current == AwaitingReveal && t == FirstPlayerRevealed:
		return Resolved, nil
	case current == AwaitingSecondPlayer && t == Player2TimedOut:
		return TimedOut, nil
	case current == AwaitingReveal && t == Player1TimedOut:
		return TimedOut, nil
	}
	return current, fmt.Errorf("invalid transition %s from %s", t, current)
}
