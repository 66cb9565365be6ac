package rpsls

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	alice = Player{Name: "Alice", Address: common.HexToAddress("0x1111111111111111111111111111111111111111")}
	bob   = Player{Name: "Bob", Address: common.HexToAddress("0x2222222222222222222222222222222222222222")}
	carol = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func snapshot(incomplete bool) Snapshot {
	return Snapshot{
		Name:       GameName(alice.Name, bob.Name),
		Player1:    alice,
		Player2:    bob,
		Stake:      big.NewInt(1000),
		Incomplete: incomplete,
		Timing:     Timing{LastAction: 1000, Window: 300},
	}
}

func TestDerive_Player1WaitingForSecondPlayer(t *testing.T) {
	st, err := Derive(snapshot(true), alice.Address, false)
	if err != nil {
		t.Fatal(err)
	}
	if st.Status != AwaitingSecondPlayer {
		t.Fatalf("expected %s, got %s", AwaitingSecondPlayer, st.Status)
	}
	if !st.Waiting || st.CanReveal || st.CanMove {
		t.Fatalf("player1 should only wait, got %+v", st)
	}
	if st.ClaimTarget != RolePlayer2 {
		t.Fatalf("expected claim against player2, got %s", st.ClaimTarget)
	}
	if st.CanClaimTimeout {
		t.Fatal("timeout claimed before the window elapsed")
	}
}

func TestDerive_Player1MustReveal(t *testing.T) {
	st, err := Derive(snapshot(false), alice.Address, false)
	if err != nil {
		t.Fatal(err)
	}
	if st.Status != AwaitingReveal || !st.CanReveal || st.Waiting {
		t.Fatalf("player1 should reveal, got %+v", st)
	}
	if err := st.Allow(ActionReveal); err != nil {
		t.Fatalf("reveal should be allowed: %v", err)
	}
	if err := st.Allow(ActionClaimTimeout); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("player1 cannot claim while it must reveal, got %v", err)
	}
}

func TestDerive_Player2MovesThenWaits(t *testing.T) {
	st, err := Derive(snapshot(true), bob.Address, false)
	if err != nil {
		t.Fatal(err)
	}
	if !st.CanMove || st.Waiting {
		t.Fatalf("player2 should move, got %+v", st)
	}
	if err := st.Allow(ActionReveal); err == nil {
		t.Fatal("player2 must never reveal")
	}

	st, err = Derive(snapshot(false), bob.Address, true)
	if err != nil {
		t.Fatal(err)
	}
	if !st.Waiting || st.CanMove {
		t.Fatalf("player2 should wait for the reveal, got %+v", st)
	}
	if st.ClaimTarget != RolePlayer1 || !st.CanClaimTimeout {
		t.Fatalf("player2 should be able to claim against player1, got %+v", st)
	}
}

func TestDerive_NotParticipant(t *testing.T) {
	_, err := Derive(snapshot(true), carol, false)
	if !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestDerive_Player1ClaimsOnceWindowElapsed(t *testing.T) {
	st, err := Derive(snapshot(true), alice.Address, true)
	if err != nil {
		t.Fatal(err)
	}
	if !st.CanClaimTimeout || st.ClaimTarget != RolePlayer2 {
		t.Fatalf("player1 should claim against player2, got %+v", st)
	}
	if err := st.Allow(ActionClaimTimeout); err != nil {
		t.Fatalf("claim should be allowed: %v", err)
	}
}

func TestAdvance(t *testing.T) {
	cases := []struct {
		from Status
		by   Transition
		to   Status
		ok   bool
	}{
		{AwaitingSecondPlayer, SecondPlayerMoved, AwaitingReveal, true},
		{AwaitingReveal, FirstPlayerRevealed, Resolved, true},
		{AwaitingSecondPlayer, Player2TimedOut, TimedOut, true},
		{AwaitingReveal, Player1TimedOut, TimedOut, true},
		{AwaitingSecondPlayer, FirstPlayerRevealed, AwaitingSecondPlayer, false},
		{Resolved, Player1TimedOut, Resolved, false},
	}
	for _, c := range cases {
		got, err := Advance(c.from, c.by)
		if (err == nil) != c.ok {
			t.Fatalf("%s --%s--> unexpected error state: %v", c.from, c.by, err)
		}
		if got != c.to {
			t.Fatalf("%s --%s--> expected %s, got %s", c.from, c.by, c.to, got)
		}
	}
}
