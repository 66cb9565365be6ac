package rpsls

import (
	"math/big"
	"testing"
)

func TestParseWeapon(t *testing.T) {
	for in, want := range map[string]Weapon{"1": Rock, "rock": Rock, " Spock ": Spock, "5": Lizard, "Scissors": Scissors} {
		got, err := ParseWeapon(in)
		if err != nil {
			t.Fatalf("ParseWeapon(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseWeapon(%q) = %s, want %s", in, got, want)
		}
	}
	for _, in := range []string{"0", "6", "sword", ""} {
		if _, err := ParseWeapon(in); err == nil {
			t.Fatalf("ParseWeapon(%q) should fail", in)
		}
	}
}

func TestOutcomeFor(t *testing.T) {
	// A reveals against B with A winning.
	if got := OutcomeFor(alice.Address, bob.Address, alice.Address); got != Won {
		t.Fatalf("A should win, got %s", got)
	}
	if got := OutcomeFor(bob.Address, alice.Address, alice.Address); got != Lost {
		t.Fatalf("B should lose, got %s", got)
	}
	if got := OutcomeFor(alice.Address, bob.Address, carol); got != Tie {
		t.Fatalf("unknown winner should be a tie, got %s", got)
	}
}

func TestStakeRoundTrip(t *testing.T) {
	wei, err := ParseStake("0.05")
	if err != nil {
		t.Fatal(err)
	}
	want, _ := new(big.Int).SetString("50000000000000000", 10)
	if wei.Cmp(want) != 0 {
		t.Fatalf("expected %s wei, got %s", want, wei)
	}
	if s := FormatStake(wei); s != "0.05" {
		t.Fatalf("expected 0.05, got %s", s)
	}
	if s := FormatStake(new(big.Int).Mul(want, big.NewInt(20))); s != "1" {
		t.Fatalf("expected 1, got %s", s)
	}
	if _, err := ParseStake("-1"); err == nil {
		t.Fatal("negative stake must be rejected")
	}
	if _, err := ParseStake("abc"); err == nil {
		t.Fatal("garbage stake must be rejected")
	}
}
