package main

import (
	"fmt"

	"github.com/luca-patrignani/rpsx/domain/rpsls"
	"github.com/luca-patrignani/rpsx/engine"
)

type menuItem string

const (
	itemRegister  menuItem = "Register"
	itemChallenge menuItem = "Challenge a player"
	itemEnter     menuItem = "Open a game"
	itemMove      menuItem = "Play your move"
	itemReveal    menuItem = "Reveal your move"
	itemClaim     menuItem = "Claim the pot (timeout)"
	itemReload    menuItem = "Reload"
	itemLeave     menuItem = "Back to lobby"
	itemQuit      menuItem = "Quit"
)

// menuFor lists what the player can do from ov.
func menuFor(ov engine.Overview) []menuItem {
	if !ov.Registered {
		return []menuItem{itemRegister, itemReload, itemQuit}
	}
	if ov.Game != nil {
		var items []menuItem
		st := ov.Game.State
		if st.CanMove {
			items = append(items, itemMove)
		}
		if st.CanReveal {
			items = append(items, itemReveal)
		}
		if st.CanClaimTimeout {
			items = append(items, itemClaim)
		}
		return append(items, itemReload, itemLeave, itemQuit)
	}
	var items []menuItem
	if len(ov.Opponents()) > 0 {
		items = append(items, itemChallenge)
	}
	if len(ov.Games) > 0 {
		items = append(items, itemEnter)
	}
	return append(items, itemReload, itemQuit)
}

func labels(items []menuItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = string(it)
	}
	return out
}

// gameOptions numbers the listing so equal names stay distinct.
func gameOptions(games []string) []string {
	out := make([]string, len(games))
	for i, g := range games {
		out[i] = fmt.Sprintf("%d. %s", i+1, g)
	}
	return out
}

func opponentOptions(players []rpsls.Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = fmt.Sprintf("%s (%s)", p.Name, p.Address.Hex())
	}
	return out
}
