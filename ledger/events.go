package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Kind identifies one of the ledger events the client reacts to.
type Kind int

const (
	PlayerRegistered Kind = iota + 1
	GameCreated
	SecondPlayerMoved
	FirstPlayerRevealed
	// Player1TimedOut is emitted when player2 claims the pot because
	// player1 never revealed.
	Player1TimedOut
	// Player2TimedOut is emitted when player1 claims the pot back because
	// player2 never moved.
	Player2TimedOut
)

var kindEvents = map[Kind]string{
	PlayerRegistered:    "NewPlayer",
	GameCreated:         "NewGame",
	SecondPlayerMoved:   "SecondPlayerMoved",
	FirstPlayerRevealed: "FirstPlayerRevealed",
	Player1TimedOut:     "J1Timeout",
	Player2TimedOut:     "J2Timeout",
}

// Kinds lists every event kind in declaration order.
func Kinds() []Kind {
	return []Kind{PlayerRegistered, GameCreated, SecondPlayerMoved, FirstPlayerRevealed, Player1TimedOut, Player2TimedOut}
}

func (k Kind) String() string {
	if name, ok := kindEvents[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is a decoded ledger log. Only the fields carried by Kind are set.
type Event struct {
	Kind Kind

	Owner common.Address
	Name  string

	Player1  common.Address
	Player2  common.Address
	GameName string
	Winner   common.Address

	Block  uint64
	TxHash common.Hash
	Index  uint
}

// Involves reports whether addr is a named participant of the event.
func (e Event) Involves(addr common.Address) bool {
	if e.Kind == PlayerRegistered {
		return e.Owner == addr
	}
	return e.Player1 == addr || e.Player2 == addr
}

var ErrUnknownEvent = errors.New("unknown event signature")

type newPlayerLog struct {
	Owner common.Address
	Name  string
}

type gameLog struct {
	Player1  common.Address
	Player2  common.Address
	GameName string
}

type revealLog struct {
	Player1  common.Address
	Player2  common.Address
	GameName string
	Winner   common.Address
}

// Contract is the ABI of the game contract bound to its deployed address.
// It needs no backend and is enough to build filters and decode logs.
type Contract struct {
	Address common.Address
	abi     abi.ABI
	bound   *bind.BoundContract
	kinds   map[common.Hash]Kind
}

// NewContract parses the contract interface for address.
func NewContract(address common.Address) (*Contract, error) {
	parsed, err := abi.JSON(strings.NewReader(handlerABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}
	c := &Contract{
		Address: address,
		abi:     parsed,
		bound:   bind.NewBoundContract(address, parsed, nil, nil, nil),
		kinds:   make(map[common.Hash]Kind, len(kindEvents)),
	}
	for kind, name := range kindEvents {
		ev, ok := parsed.Events[name]
		if !ok {
			return nil, fmt.Errorf("contract abi has no event %s", name)
		}
		c.kinds[ev.ID] = kind
	}
	return c, nil
}

// Topic returns the signature hash of kind.
func (c *Contract) Topic(kind Kind) common.Hash {
	return c.abi.Events[kindEvents[kind]].ID
}

// FilterQuery selects the logs of a single event kind.
func (c *Contract) FilterQuery(kind Kind) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		Addresses: []common.Address{c.Address},
		Topics:    [][]common.Hash{{c.Topic(kind)}},
	}
}

// Decode turns a raw log into an Event.
func (c *Contract) Decode(log types.Log) (Event, error) {
	if len(log.Topics) == 0 {
		return Event{}, ErrUnknownEvent
	}
	kind, ok := c.kinds[log.Topics[0]]
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrUnknownEvent, log.Topics[0].Hex())
	}
	ev := Event{Kind: kind, Block: log.BlockNumber, TxHash: log.TxHash, Index: log.Index}
	name := kindEvents[kind]

	switch kind {
	case PlayerRegistered:
		var raw newPlayerLog
		if err := c.bound.UnpackLog(&raw, name, log); err != nil {
			return Event{}, fmt.Errorf("decode %s: %w", name, err)
		}
		ev.Owner, ev.Name = raw.Owner, raw.Name
	case FirstPlayerRevealed:
		var raw revealLog
		if err := c.bound.UnpackLog(&raw, name, log); err != nil {
			return Event{}, fmt.Errorf("decode %s: %w", name, err)
		}
		ev.Player1, ev.Player2, ev.GameName, ev.Winner = raw.Player1, raw.Player2, raw.GameName, raw.Winner
	default:
		var raw gameLog
		if err := c.bound.UnpackLog(&raw, name, log); err != nil {
			return Event{}, fmt.Errorf("decode %s: %w", name, err)
		}
		ev.Player1, ev.Player2, ev.GameName = raw.Player1, raw.Player2, raw.GameName
	}
	return ev, nil
}
