package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/luca-patrignani/rpsx/domain/rpsls"
)

const tracerName = "github.com/luca-patrignani/rpsx/ledger"

// Backend is the node connection a Client needs.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Client calls the game contract on behalf of a single wallet.
type Client struct {
	contract       *Contract
	bound          *bind.BoundContract
	backend        Backend
	auth           *bind.TransactOpts
	receiptTimeout time.Duration
	tracer         trace.Tracer
	logger         *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithReceiptTimeout bounds how long a transaction may wait to be mined.
func WithReceiptTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.receiptTimeout = d
		}
	}
}

// WithLogger sets the logger for transaction progress.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// NewClient binds contract on backend, signing with auth.
func NewClient(contract *Contract, backend Backend, auth *bind.TransactOpts, opts ...Option) (*Client, error) {
	if contract == nil {
		return nil, errors.New("contract is required")
	}
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if auth == nil || auth.Signer == nil {
		return nil, errors.New("transactor is required")
	}
	c := &Client{
		contract:       contract,
		bound:          bind.NewBoundContract(contract.Address, contract.abi, backend, backend, backend),
		backend:        backend,
		auth:           auth,
		receiptTimeout: 2 * time.Minute,
		tracer:         otel.Tracer(tracerName),
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Account is the address transactions are signed with.
func (c *Client) Account() common.Address {
	return c.auth.From
}

// Contract returns the bound contract interface.
func (c *Client) Contract() *Contract {
	return c.contract
}

// IsRegistered reports whether addr owns a player profile.
func (c *Client) IsRegistered(ctx context.Context, addr common.Address) (bool, error) {
	out, err := c.call(ctx, c.auth.From, methodIsPlayer, addr)
	if err != nil {
		return false, err
	}
	return outAt[bool](methodIsPlayer, out, 0)
}

// PlayerCount returns the number of registered players.
func (c *Client) PlayerCount(ctx context.Context) (int, error) {
	out, err := c.call(ctx, c.auth.From, methodPlayersLen)
	if err != nil {
		return 0, err
	}
	n, err := outAt[*big.Int](methodPlayersLen, out, 0)
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}

// PlayerAt returns the player registered at index.
func (c *Client) PlayerAt(ctx context.Context, index int) (rpsls.Player, error) {
	out, err := c.call(ctx, c.auth.From, methodGetPlayerNumber, big.NewInt(int64(index)))
	if err != nil {
		return rpsls.Player{}, err
	}
	name, err := outAt[string](methodGetPlayerNumber, out, 0)
	if err != nil {
		return rpsls.Player{}, err
	}
	addr, err := outAt[common.Address](methodGetPlayerNumber, out, 1)
	if err != nil {
		return rpsls.Player{}, err
	}
	return rpsls.Player{Name: name, Address: addr}, nil
}

// SessionsFor lists the session names addr takes part in. The contract
// answers for msg.sender, so the call is made from addr. Retired sessions
// come back as empty strings.
func (c *Client) SessionsFor(ctx context.Context, addr common.Address) ([]string, error) {
	out, err := c.call(ctx, addr, methodGetGamesPlayer)
	if err != nil {
		return nil, err
	}
	return outAt[[]string](methodGetGamesPlayer, out, 0)
}

// SessionData returns the participants of a session and whether player2
// still has to move.
func (c *Client) SessionData(ctx context.Context, gameName string) (rpsls.Snapshot, error) {
	out, err := c.call(ctx, c.auth.From, methodGetGameData, gameName)
	if err != nil {
		return rpsls.Snapshot{}, err
	}
	var (
		snap rpsls.Snapshot
		errs []error
		e    error
	)
	snap.Name = gameName
	snap.Player1.Name, e = outAt[string](methodGetGameData, out, 0)
	errs = append(errs, e)
	snap.Player1.Address, e = outAt[common.Address](methodGetGameData, out, 1)
	errs = append(errs, e)
	snap.Player2.Name, e = outAt[string](methodGetGameData, out, 2)
	errs = append(errs, e)
	snap.Player2.Address, e = outAt[common.Address](methodGetGameData, out, 3)
	errs = append(errs, e)
	snap.Incomplete, e = outAt[bool](methodGetGameData, out, 4)
	errs = append(errs, e)
	if err := errors.Join(errs...); err != nil {
		return rpsls.Snapshot{}, err
	}
	return snap, nil
}

// SessionStake returns the amount each player staked, in wei.
func (c *Client) SessionStake(ctx context.Context, gameName string) (*big.Int, error) {
	out, err := c.call(ctx, c.auth.From, methodGetGameStake, gameName)
	if err != nil {
		return nil, err
	}
	return outAt[*big.Int](methodGetGameStake, out, 0)
}

// SessionTiming returns the last action time and the timeout window, both
// in seconds.
func (c *Client) SessionTiming(ctx context.Context, gameName string) (rpsls.Timing, error) {
	out, err := c.call(ctx, c.auth.From, methodGetGameTimeData, gameName)
	if err != nil {
		return rpsls.Timing{}, err
	}
	last, err := outAt[*big.Int](methodGetGameTimeData, out, 0)
	if err != nil {
		return rpsls.Timing{}, err
	}
	window, err := outAt[*big.Int](methodGetGameTimeData, out, 1)
	if err != nil {
		return rpsls.Timing{}, err
	}
	return rpsls.Timing{LastAction: last.Int64(), Window: window.Int64()}, nil
}

// CreatePlayer registers the signing wallet under name.
func (c *Client) CreatePlayer(ctx context.Context, name string) error {
	_, err := c.transact(ctx, methodCreatePlayer, nil, name)
	return err
}

// CreateGame opens a session against opponent, committing weapon under salt
// and staking stake wei.
func (c *Client) CreateGame(ctx context.Context, gameName string, weapon rpsls.Weapon, salt *big.Int, opponent common.Address, stake *big.Int) error {
	_, err := c.transact(ctx, methodCreateGame, stake, gameName, uint8(weapon), salt, opponent)
	return err
}

// SubmitMove plays player2's weapon in the open, matching stake.
func (c *Client) SubmitMove(ctx context.Context, gameName string, weapon rpsls.Weapon, stake *big.Int) error {
	_, err := c.transact(ctx, methodPlay, stake, uint8(weapon), gameName)
	return err
}

// Reveal discloses player1's committed weapon and salt.
func (c *Client) Reveal(ctx context.Context, gameName string, weapon rpsls.Weapon, salt *big.Int) error {
	_, err := c.transact(ctx, methodSolve, nil, gameName, uint8(weapon), salt)
	return err
}

// ClaimPlayer1Timeout is sent by player2 once player1 failed to reveal.
func (c *Client) ClaimPlayer1Timeout(ctx context.Context, gameName string) error {
	_, err := c.transact(ctx, methodJ1Timeout, nil, gameName)
	return err
}

// ClaimPlayer2Timeout is sent by player1 once player2 failed to move.
func (c *Client) ClaimPlayer2Timeout(ctx context.Context, gameName string) error {
	_, err := c.transact(ctx, methodJ2Timeout, nil, gameName)
	return err
}

func (c *Client) call(ctx context.Context, from common.Address, method string, params ...any) ([]any, error) {
	ctx, span := c.tracer.Start(ctx, "ledger."+method, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var out []any
	if err := c.bound.Call(&bind.CallOpts{Context: ctx, From: from}, &out, method, params...); err != nil {
		ce := wrapCall(method, err)
		span.RecordError(ce)
		span.SetStatus(codes.Error, Describe(ce))
		return nil, ce
	}
	return out, nil
}

func (c *Client) transact(ctx context.Context, method string, value *big.Int, params ...any) (*types.Receipt, error) {
	ctx, span := c.tracer.Start(ctx, "ledger."+method, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	opts := *c.auth
	opts.Context = ctx
	opts.Value = value
	tx, err := c.bound.Transact(&opts, method, params...)
	if err != nil {
		ce := wrapCall(method, err)
		span.RecordError(ce)
		span.SetStatus(codes.Error, Describe(ce))
		return nil, ce
	}
	span.SetAttributes(attribute.String("tx.hash", tx.Hash().Hex()))
	c.logger.Debug("transaction sent", "method", method, "tx", tx.Hash().Hex())

	waitCtx, cancel := context.WithTimeout(ctx, c.receiptTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(waitCtx, c.backend, tx)
	if err != nil {
		ce := &CallError{Method: method, TxHash: tx.Hash(), Err: fmt.Errorf("wait for receipt: %w", err)}
		span.RecordError(ce)
		span.SetStatus(codes.Error, "receipt not observed")
		return nil, ce
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		ce := c.replayFailure(ctx, method, tx, receipt)
		span.RecordError(ce)
		span.SetStatus(codes.Error, Describe(ce))
		return receipt, ce
	}
	c.logger.Debug("transaction mined", "method", method, "tx", tx.Hash().Hex(), "block", receipt.BlockNumber)
	return receipt, nil
}

// replayFailure re-executes a failed transaction at its block to recover
// the revert reason.
func (c *Client) replayFailure(ctx context.Context, method string, tx *types.Transaction, receipt *types.Receipt) *CallError {
	ce := &CallError{Method: method, Code: CodeCallException, Reverted: true, TxHash: tx.Hash()}
	msg := ethereum.CallMsg{
		From:  c.auth.From,
		To:    tx.To(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}
	_, err := c.backend.CallContract(ctx, msg, receipt.BlockNumber)
	if err != nil {
		replayed := wrapCall(method, err)
		ce.Reason = replayed.Reason
		ce.Err = err
	}
	return ce
}

func outAt[T any](method string, out []any, i int) (T, error) {
	var zero T
	if i >= len(out) {
		return zero, fmt.Errorf("%s: missing return value %d", method, i)
	}
	v, ok := out[i].(T)
	if !ok {
		return zero, fmt.Errorf("%s: return value %d has type %T, want %T", method, i, out[i], zero)
	}
	return v, nil
}
