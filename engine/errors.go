package engine

import "errors"

var (
	ErrNotConnected      = errors.New("no wallet connected")
	ErrNotRegistered     = errors.New("wallet is not registered as a player")
	ErrAlreadyRegistered = errors.New("wallet is already registered")
	ErrInvalidName       = errors.New("player name is required")
	ErrUnknownOpponent   = errors.New("opponent is not a registered player")
	ErrNoGame            = errors.New("no game entered")

	// ErrStaleSession is returned, before any transaction is sent, when the
	// entered game no longer matches the ledger's listing.
	ErrStaleSession = errors.New("session reference is stale")

	// ErrMissingSecret means this device holds no commitment for the game.
	// Only the device that created the challenge can reveal it.
	ErrMissingSecret = errors.New("no secret stored for this game")
)
