package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EncodeLog builds the raw log the contract would emit for ev. It is the
// inverse of Decode and exists for tests of log consumers.
func (c *Contract) EncodeLog(ev Event) (types.Log, error) {
	name, ok := kindEvents[ev.Kind]
	if !ok {
		return types.Log{}, fmt.Errorf("%w: %v", ErrUnknownEvent, ev.Kind)
	}
	abiEvent := c.abi.Events[name]

	var topics []common.Hash
	var data []byte
	var err error
	switch ev.Kind {
	case PlayerRegistered:
		topics = []common.Hash{abiEvent.ID, common.BytesToHash(ev.Owner.Bytes())}
		data, err = abiEvent.Inputs.NonIndexed().Pack(ev.Name)
	case FirstPlayerRevealed:
		topics = []common.Hash{abiEvent.ID, common.BytesToHash(ev.Player1.Bytes()), common.BytesToHash(ev.Player2.Bytes())}
		data, err = abiEvent.Inputs.NonIndexed().Pack(ev.GameName, ev.Winner)
	default:
		topics = []common.Hash{abiEvent.ID, common.BytesToHash(ev.Player1.Bytes()), common.BytesToHash(ev.Player2.Bytes())}
		data, err = abiEvent.Inputs.NonIndexed().Pack(ev.GameName)
	}
	if err != nil {
		return types.Log{}, fmt.Errorf("pack %s: %w", name, err)
	}
	return types.Log{
		Address:     c.Address,
		Topics:      topics,
		Data:        data,
		BlockNumber: ev.Block,
		TxHash:      ev.TxHash,
		Index:       ev.Index,
	}, nil
}
