package engine

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/luca-patrignani/rpsx/directory"
	"github.com/luca-patrignani/rpsx/domain/rpsls"
	"github.com/luca-patrignani/rpsx/timeout"
)

// Session is the state owned by one connected wallet. It is created by
// Connect and dropped by Disconnect.
type Session struct {
	Account    common.Address
	Name       string
	Registered bool
	Players    []rpsls.Player
	Directory  *directory.Directory
	Game       *GameView

	// eventHandled suppresses the welcome alert of the refresh that follows
	// an event, which already alerted.
	eventHandled bool
}

func newSession(account common.Address) *Session {
	return &Session{
		Account:   account,
		Directory: directory.New(),
	}
}

// GameView is the entered game as last read from the ledger.
type GameView struct {
	Index    int
	Snapshot rpsls.Snapshot
	State    rpsls.State
	Verdict  timeout.Verdict
}

// Overview is a copy of the session for rendering.
type Overview struct {
	Account    common.Address
	Name       string
	Registered bool
	Players    []rpsls.Player
	Games      []string
	Game       *GameView
}

func (s *Session) overview() Overview {
	o := Overview{
		Account:    s.Account,
		Name:       s.Name,
		Registered: s.Registered,
		Players:    append([]rpsls.Player(nil), s.Players...),
		Games:      s.Directory.Names(),
	}
	if s.Game != nil {
		g := *s.Game
		o.Game = &g
	}
	return o
}

// Opponents lists the registered players other than the wallet itself.
func (o Overview) Opponents() []rpsls.Player {
	out := make([]rpsls.Player, 0, len(o.Players))
	for _, p := range o.Players {
		if p.Address != o.Account {
			out = append(out, p)
		}
	}
	return out
}

func (s *Session) player(addr common.Address) (rpsls.Player, bool) {
	for _, p := range s.Players {
		if p.Address == addr {
			return p, true
		}
	}
	return rpsls.Player{}, false
}

// View is a screen the client should show.
type View string

const (
	ViewLanding View = "landing"
	ViewLobby   View = "lobby"
	ViewGame    View = "game"
)

// Navigation asks the client to switch screen.
type Navigation struct {
	View     View
	GameName string
}
