package events

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/luca-patrignani/rpsx/ledger"
)

// entry is one delivered ledger event, hash-chained to the one before it.
type entry struct {
	Index    int
	PrevHash string
	Hash     string
	Event    ledger.Event
}

type logID struct {
	tx    common.Hash
	index uint
}

// Journal is the append-only record of events handed to the consumer. A log
// is recorded at most once, however many subscriptions observe it.
type Journal struct {
	mu      sync.RWMutex
	entries []entry
	seen    map[logID]struct{}
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{seen: make(map[logID]struct{})}
}

// Record appends ev unless its log was already recorded. It reports whether
// the event is new.
func (j *Journal) Record(ev ledger.Event) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	id := logID{tx: ev.TxHash, index: ev.Index}
	if _, dup := j.seen[id]; dup {
		return false
	}
	prev := "0"
	if n := len(j.entries); n > 0 {
		prev = j.entries[n-1].Hash
	}
	e := entry{Index: len(j.entries), PrevHash: prev, Event: ev}
	e.Hash = entryHash(e)
	j.entries = append(j.entries, e)
	j.seen[id] = struct{}{}
	return true
}

// Seen reports whether the log behind ev was already recorded.
func (j *Journal) Seen(ev ledger.Event) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	_, ok := j.seen[logID{tx: ev.TxHash, index: ev.Index}]
	return ok
}

// Len returns the number of recorded events.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

// LastBlock returns the highest block number seen so far.
func (j *Journal) LastBlock() uint64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	var last uint64
	for _, e := range j.entries {
		if e.Event.Block > last {
			last = e.Event.Block
		}
	}
	return last
}

// Verify checks index continuity and the hash chain.
func (j *Journal) Verify() error {
	j.mu.RLock()
	defer j.mu.RUnlock()

	prev := "0"
	for i, e := range j.entries {
		if e.Index != i {
			return fmt.Errorf("entry %d: invalid index %d", i, e.Index)
		}
		if e.PrevHash != prev {
			return fmt.Errorf("entry %d: invalid prev hash: expected %s, got %s", i, prev, e.PrevHash)
		}
		if want := entryHash(e); e.Hash != want {
			return fmt.Errorf("entry %d: invalid hash: expected %s, got %s", i, want, e.Hash)
		}
		prev = e.Hash
	}
	return nil
}

func entryHash(e entry) string {
	ev := e.Event
	data := fmt.Sprintf("%d%s%d%s%d%d%s%s%s%s%s",
		e.Index,
		e.PrevHash,
		ev.Kind,
		ev.TxHash.Hex(),
		ev.Index,
		ev.Block,
		ev.GameName,
		ev.Player1.Hex(),
		ev.Player2.Hex(),
		ev.Winner.Hex(),
		ev.Owner.Hex()+ev.Name,
	)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}
