package rpsls

import (
	"fmt"
	"math/big"
	"strings"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

// Outcome is a finished game seen from one participant.
type Outcome int

const (
	Tie Outcome = iota
	Won
	Lost
)

func (o Outcome) String() string {
	switch o {
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "tie"
	}
}

// OutcomeFor reads the winner declared by the ledger. Any winner that is
// neither participant (the contract uses the zero address) is a tie.
func OutcomeFor(me, opponent, winner common.Address) Outcome {
	switch winner {
	case me:
		return Won
	case opponent:
		return Lost
	default:
		return Tie
	}
}

// weiDecimals is the precision of LegacyDec, which happens to match ether.
const weiDecimals = 18

// ParseStake converts an ether amount such as "0.05" into wei.
func ParseStake(s string) (*big.Int, error) {
	d, err := math.LegacyNewDecFromStr(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("parse stake %q: %w", s, err)
	}
	if !d.IsPositive() {
		return nil, fmt.Errorf("stake must be positive, got %s", s)
	}
	return d.BigInt(), nil
}

// FormatStake renders wei as an ether amount without trailing zeros.
func FormatStake(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	s := math.LegacyNewDecFromBigIntWithPrec(wei, weiDecimals).String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}
