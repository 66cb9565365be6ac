// Package directory holds the list of live sessions the local wallet takes
// part in, as last read from the ledger.
package directory

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrStale is returned when a remembered selection no longer matches the
	// refreshed directory.
	ErrStale      = errors.New("game reference is stale")
	ErrOutOfRange = errors.New("game index out of range")
)

// Filter drops the empty slots the ledger leaves for retired sessions,
// keeping the order of the rest.
func Filter(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, name := range raw {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Directory is an indexed list of session names with one selection.
type Directory struct {
	mu       sync.RWMutex
	names    []string
	selected int
	name     string
}

func New() *Directory {
	return &Directory{selected: -1}
}

// Replace installs a fresh ledger listing. The selection is kept; it is
// checked against the new listing by Validate.
func (d *Directory) Replace(raw []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names = Filter(raw)
}

// Names returns a copy of the listing.
func (d *Directory) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.names...)
}

// Select remembers the session at index and returns its name.
func (d *Directory) Select(index int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.names) {
		return "", fmt.Errorf("%w: %d of %d", ErrOutOfRange, index, len(d.names))
	}
	d.selected = index
	d.name = d.names[index]
	return d.name, nil
}

// ClearSelection forgets the selection.
func (d *Directory) ClearSelection() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selected = -1
	d.name = ""
}

// Validate checks that name is still listed at index.
func (d *Directory) Validate(index int, name string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.validateLocked(index, name)
}

func (d *Directory) validateLocked(index int, name string) error {
	if index < 0 || index >= len(d.names) || d.names[index] != name {
		return fmt.Errorf("%w: %q is no longer at position %d", ErrStale, name, index)
	}
	return nil
}

// ValidateSelection checks the remembered selection and returns it. The
// check and the read happen under one lock.
func (d *Directory) ValidateSelection() (int, string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.selected < 0 {
		return -1, "", fmt.Errorf("%w: no game selected", ErrStale)
	}
	if err := d.validateLocked(d.selected, d.name); err != nil {
		return -1, "", err
	}
	return d.selected, d.name, nil
}
