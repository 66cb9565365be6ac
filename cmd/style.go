package main

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/luca-patrignani/rpsx/alert"
	"github.com/luca-patrignani/rpsx/domain/rpsls"
	"github.com/luca-patrignani/rpsx/engine"
)

func renderBanner() {
	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("RPS", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("X", pterm.FgDarkGray.ToStyle()),
	).Render()
}

func printAlert(msg alert.Message) {
	switch msg.Kind {
	case alert.Success:
		pterm.Success.Println(msg.Text)
	case alert.Failure:
		pterm.Error.Println(msg.Text)
	default:
		pterm.Info.Println(msg.Text)
	}
}

func renderOverview(screen engine.View, ov engine.Overview) {
	title := pterm.LightCyan(ov.Name)
	if !ov.Registered {
		title = pterm.LightYellow("unregistered")
	}
	pterm.DefaultHeader.WithFullWidth().Printfln("%s | %s | %s", strings.ToUpper(string(screen)), title, ov.Account.Hex())

	if !ov.Registered {
		return
	}
	if ov.Game != nil {
		pterm.DefaultPanel.WithPanels([][]pterm.Panel{{
			{Data: gameBox(*ov.Game, ov.Account)},
		}}).Render()
		return
	}
	pterm.DefaultPanel.WithPanels([][]pterm.Panel{{
		{Data: listBox("|PLAYERS|", playerLines(ov))},
		{Data: listBox("|GAMES|", gameOptions(ov.Games))},
	}}).Render()
}

func listBox(title string, lines []string) string {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	body := strings.Join(lines, "\n")
	if body == "" {
		body = pterm.FgDarkGray.Sprint("none yet")
	}
	return pbox.WithTitle(pterm.LightYellow(title)).WithTitleTopCenter().Sprint(body)
}

func playerLines(ov engine.Overview) []string {
	var out []string
	for _, p := range ov.Players {
		line := p.Name
		if p.Address == ov.Account {
			line = pterm.LightCyan(p.Name + " (you)")
		}
		out = append(out, line)
	}
	return out
}

func gameBox(view engine.GameView, me common.Address) string {
	pbox := pterm.DefaultBox.WithHorizontalPadding(10).WithTopPadding(1).WithBottomPadding(1)
	return pbox.WithTitle(pterm.LightGreen(view.Snapshot.Name)).WithTitleTopLeft().Sprint(describeGame(view, me))
}

// describeGame is the plain text of the game panel.
func describeGame(view engine.GameView, me common.Address) string {
	s := view.Snapshot
	var b strings.Builder
	fmt.Fprintf(&b, "Player 1: %s\n", playerLabel(s.Player1, me))
	fmt.Fprintf(&b, "Player 2: %s\n", playerLabel(s.Player2, me))
	fmt.Fprintf(&b, "Stake: %s ETH each\n", rpsls.FormatStake(s.Stake))
	fmt.Fprintf(&b, "Status: %s\n", strings.ReplaceAll(string(view.State.Status), "_", " "))
	b.WriteString(stateHint(view))
	return b.String()
}

func playerLabel(p rpsls.Player, me common.Address) string {
	if p.Address == me {
		return p.Name + " (you)"
	}
	return p.Name
}

// stateHint tells the player what the game is waiting for.
func stateHint(view engine.GameView) string {
	st := view.State
	switch {
	case st.CanClaimTimeout:
		return "Your opponent missed the deadline. You can claim the pot."
	case st.CanMove:
		return "Your turn: play your move."
	case st.CanReveal:
		return "Your turn: reveal your move."
	case st.Waiting && view.Verdict.Remaining > 0:
		return fmt.Sprintf("Waiting for your opponent. You can claim the pot in %s.", view.Verdict.Remaining)
	case st.Waiting:
		return "Waiting for your opponent."
	default:
		return ""
	}
}
