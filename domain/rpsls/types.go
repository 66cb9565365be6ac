package rpsls

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Weapon is the move committed by a player. The numbering matches the
// ledger contract, which stores it as a uint8.
type Weapon uint8

const (
	NoWeapon Weapon = iota
	Rock
	Paper
	Scissors
	Spock
	Lizard
)

var weaponNames = [...]string{"none", "rock", "paper", "scissors", "spock", "lizard"}

// Weapons lists the playable weapons in selection order.
func Weapons() []Weapon {
	return []Weapon{Rock, Paper, Scissors, Spock, Lizard}
}

// Valid reports whether w is one of the five playable weapons.
func (w Weapon) Valid() bool {
	return w >= Rock && w <= Lizard
}

func (w Weapon) String() string {
	if int(w) < len(weaponNames) {
		return weaponNames[w]
	}
	return fmt.Sprintf("weapon(%d)", uint8(w))
}

// ParseWeapon accepts either the weapon name (any case) or its number.
func ParseWeapon(s string) (Weapon, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if n, err := strconv.ParseUint(s, 10, 8); err == nil {
		w := Weapon(n)
		if !w.Valid() {
			return NoWeapon, fmt.Errorf("weapon %d out of range 1..5", n)
		}
		return w, nil
	}
	for _, w := range Weapons() {
		if weaponNames[w] == s {
			return w, nil
		}
	}
	return NoWeapon, fmt.Errorf("unknown weapon %q", s)
}

// Player is a registered ledger participant. The address is the key; the
// name is chosen once at registration.
type Player struct {
	Name    string
	Address common.Address
}

// Status is the lifecycle position of a game session.
type Status string

const (
	AwaitingSecondPlayer Status = "awaiting_second_player"
	AwaitingReveal       Status = "awaiting_reveal"
	Resolved             Status = "resolved"
	TimedOut             Status = "timed_out"
)

// Terminal reports whether no further ledger action is possible.
func (s Status) Terminal() bool {
	return s == Resolved || s == TimedOut
}

// Role is the part the local wallet plays in a session.
type Role int

const (
	RoleNone Role = iota
	RolePlayer1
	RolePlayer2
)

func (r Role) String() string {
	switch r {
	case RolePlayer1:
		return "player1"
	case RolePlayer2:
		return "player2"
	default:
		return "none"
	}
}

// Timing is the ledger's view of the session clock, in epoch seconds.
type Timing struct {
	LastAction int64
	Window     int64
}

// Deadline is the last second at which the defaulting party can still act.
func (t Timing) Deadline() int64 {
	return t.LastAction + t.Window
}

// Snapshot is a read-through copy of one ledger session.
type Snapshot struct {
	Name       string
	Player1    Player
	Player2    Player
	Stake      *big.Int
	Incomplete bool // player2 has not staked and moved yet
	Timing     Timing
}

// RoleOf returns the role addr plays in the session.
func (s Snapshot) RoleOf(addr common.Address) Role {
	switch addr {
	case s.Player1.Address:
		return RolePlayer1
	case s.Player2.Address:
		return RolePlayer2
	default:
		return RoleNone
	}
}

// GameName is the session name proposed when challenging an opponent.
func GameName(challenger, opponent string) string {
	return fmt.Sprintf("%s vs. %s", challenger, opponent)
}
