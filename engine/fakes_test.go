package engine

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/rpsx/alert"
	"github.com/luca-patrignani/rpsx/domain/rpsls"
	"github.com/luca-patrignani/rpsx/ledger"
	"github.com/luca-patrignani/rpsx/secret"
)

var (
	alice = rpsls.Player{Name: "alice", Address: common.HexToAddress("0x00000000000000000000000000000000000000a1")}
	bob   = rpsls.Player{Name: "bob", Address: common.HexToAddress("0x00000000000000000000000000000000000000b2")}
	carol = rpsls.Player{Name: "carol", Address: common.HexToAddress("0x00000000000000000000000000000000000000c3")}
)

type fakeGame struct {
	snap   rpsls.Snapshot
	stake  *big.Int
	timing rpsls.Timing
}

type call struct {
	method string
	game   string
	weapon rpsls.Weapon
	salt   *big.Int
	value  *big.Int
}

// fakeLedger is an in-memory contract seen from one wallet.
type fakeLedger struct {
	mu       sync.Mutex
	account  common.Address
	players  []rpsls.Player
	games    map[string]*fakeGame
	listings map[common.Address][]string
	calls    []call
	fail     map[string]error

	// onCreateGame runs before createGame is accepted.
	onCreateGame func()
}

func newFakeLedger(account common.Address, players ...rpsls.Player) *fakeLedger {
	return &fakeLedger{
		account:  account,
		players:  players,
		games:    map[string]*fakeGame{},
		listings: map[common.Address][]string{},
		fail:     map[string]error{},
	}
}

func (f *fakeLedger) addGame(p1, p2 rpsls.Player, name string, stake int64, incomplete bool, timing rpsls.Timing) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.games[name] = &fakeGame{
		snap:   rpsls.Snapshot{Name: name, Player1: p1, Player2: p2, Incomplete: incomplete},
		stake:  big.NewInt(stake),
		timing: timing,
	}
	f.listings[p1.Address] = append(f.listings[p1.Address], name)
	f.listings[p2.Address] = append(f.listings[p2.Address], name)
}

func (f *fakeLedger) setListing(addr common.Address, names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings[addr] = names
}

func (f *fakeLedger) recorded(method string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeLedger) record(c call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[c.method]; err != nil {
		return err
	}
	f.calls = append(f.calls, c)
	return nil
}

func (f *fakeLedger) game(name string) (*fakeGame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[name]
	if !ok {
		return nil, &ledger.CallError{Method: "getGameData", Reverted: true, Reason: "Game does not exist"}
	}
	return g, nil
}

func (f *fakeLedger) Account() common.Address { return f.account }

func (f *fakeLedger) IsRegistered(_ context.Context, addr common.Address) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["isPlayer"]; err != nil {
		return false, err
	}
	for _, p := range f.players {
		if p.Address == addr {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) PlayerCount(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.players), nil
}

func (f *fakeLedger) PlayerAt(_ context.Context, i int) (rpsls.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.players) {
		return rpsls.Player{}, errors.New("index out of range")
	}
	return f.players[i], nil
}

func (f *fakeLedger) SessionsFor(_ context.Context, addr common.Address) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.listings[addr]...), nil
}

func (f *fakeLedger) SessionData(_ context.Context, name string) (rpsls.Snapshot, error) {
	g, err := f.game(name)
	if err != nil {
		return rpsls.Snapshot{}, err
	}
	return g.snap, nil
}

func (f *fakeLedger) SessionStake(_ context.Context, name string) (*big.Int, error) {
	g, err := f.game(name)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(g.stake), nil
}

func (f *fakeLedger) SessionTiming(_ context.Context, name string) (rpsls.Timing, error) {
	g, err := f.game(name)
	if err != nil {
		return rpsls.Timing{}, err
	}
	return g.timing, nil
}

func (f *fakeLedger) CreatePlayer(_ context.Context, name string) error {
	return f.record(call{method: "createPlayer", game: name})
}

func (f *fakeLedger) CreateGame(_ context.Context, name string, weapon rpsls.Weapon, salt *big.Int, _ common.Address, stake *big.Int) error {
	if f.onCreateGame != nil {
		f.onCreateGame()
	}
	return f.record(call{method: "createGame", game: name, weapon: weapon, salt: salt, value: stake})
}

func (f *fakeLedger) SubmitMove(_ context.Context, name string, weapon rpsls.Weapon, stake *big.Int) error {
	return f.record(call{method: "play", game: name, weapon: weapon, value: stake})
}

func (f *fakeLedger) Reveal(_ context.Context, name string, weapon rpsls.Weapon, salt *big.Int) error {
	return f.record(call{method: "solve", game: name, weapon: weapon, salt: salt})
}

func (f *fakeLedger) ClaimPlayer1Timeout(_ context.Context, name string) error {
	return f.record(call{method: "j1Timeout", game: name})
}

func (f *fakeLedger) ClaimPlayer2Timeout(_ context.Context, name string) error {
	return f.record(call{method: "j2Timeout", game: name})
}

type fakeEvents struct {
	mu           sync.Mutex
	subscribes   int
	unsubscribes int
	failures     int
	events       chan ledger.Event
	errs         chan error
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{events: make(chan ledger.Event, 8), errs: make(chan error, 8)}
}

func (f *fakeEvents) Subscribe(context.Context, ...ledger.Kind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes++
	if f.failures > 0 {
		f.failures--
		return errors.New("dial tcp: connection refused")
	}
	return nil
}

// failNext makes the next n Subscribe calls fail.
func (f *fakeEvents) failNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = n
}

func (f *fakeEvents) Unsubscribe() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribes++
}

func (f *fakeEvents) subscribeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribes
}

func (f *fakeEvents) Events() <-chan ledger.Event { return f.events }
func (f *fakeEvents) Errors() <-chan error        { return f.errs }

type harness struct {
	engine  *Engine
	ledger  *fakeLedger
	events  *fakeEvents
	secrets *secret.Store
	alerts  *alert.Dispatcher
	clock   *clock.Mock
}

// newHarness connects an engine for me, with "now" at epoch second 2000.
func newHarness(t *testing.T, me rpsls.Player, players ...rpsls.Player) *harness {
	t.Helper()
	store, err := secret.Open(filepath.Join(t.TempDir(), "secrets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	mock := clock.NewMock()
	mock.Set(time.Unix(2000, 0))
	alerts := alert.NewDispatcher(alert.WithClock(mock))
	t.Cleanup(alerts.Close)

	fl := newFakeLedger(me.Address, players...)
	fe := newFakeEvents()
	salt := int64(0)
	e := New(fl, store, fe, alerts,
		WithClock(mock),
		WithSaltSource(func() *big.Int { salt++; return big.NewInt(1000 + salt) }),
	)
	require.NoError(t, e.Connect(context.Background()))
	return &harness{engine: e, ledger: fl, events: fe, secrets: store, alerts: alerts, clock: mock}
}

func (h *harness) alertText(t *testing.T) string {
	t.Helper()
	msg, ok := h.alerts.Current()
	require.True(t, ok, "expected an alert on display")
	return msg.Text
}
