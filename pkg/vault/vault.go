// Package vault provides the transient store that links synthetic
// placeholders inserted into sanitized text back to the original
// sensitive values they replaced.
package vault

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by Remove when no stored entry equals the
// requested one.
var ErrNotFound = errors.New("vault: entry not found")

// Entry pairs a placeholder with the original value it stands in for.
// Both fields are opaque to the vault; no format is enforced.
type Entry struct {
	Placeholder string
	Original    string
}

// Vault is an ordered, mutex-guarded buffer of entries. A vault is
// created per logical unit of work (typically per request); sharing one
// instance across requests defeats the isolation the pipeline relies on.
//
// All methods are safe for concurrent use. Each method holds the lock
// for its entire body, so no caller can observe a partially applied
// operation.
type Vault struct {
	mu      sync.Mutex
	entries []Entry
}

// New creates a vault, optionally pre-seeded with entries. The seed
// slice is copied, never aliased.
func New(entries ...Entry) *Vault {
	v := &Vault{entries: make([]Entry, len(entries))}
	copy(v.entries, entries)
	return v
}

// Append adds a single entry to the end of the sequence.
func (v *Vault) Append(e Entry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = append(v.entries, e)
}

// Extend appends entries in order as one serialized step, so a
// concurrent reader never sees a partially extended vault. An empty
// slice is a no-op.
func (v *Vault) Extend(entries []Entry) {
	if len(entries) == 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = append(v.entries, entries...)
}

// Remove deletes the earliest entry equal to e (both fields). It
// returns ErrNotFound, leaving the vault unchanged, when no such entry
// exists. When duplicates exist only the first occurrence is removed.
func (v *Vault) Remove(e Entry) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, stored := range v.entries {
		if stored == e {
			v.entries = append(v.entries[:i], v.entries[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Get returns a snapshot of the current entries in insertion order. The
// returned slice is an independent copy: mutating it never affects the
// vault, and later vault mutations never affect it. The result is
// non-nil even when the vault is empty.
func (v *Vault) Get() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// Clear removes all entries. Clearing an empty vault is a no-op.
func (v *Vault) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = v.entries[:0]
}

// GetAndClear atomically snapshots and empties the vault in one
// critical section. No other operation can interleave between the read
// and the clear, which closes the race a separate Get followed by Clear
// would leave open under concurrent appends.
func (v *Vault) GetAndClear() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	snapshot := v.snapshotLocked()
	v.entries = v.entries[:0]
	return snapshot
}

// PlaceholderExists reports whether at least one entry's placeholder
// equals the given string. Comparison is exact string equality.
func (v *Vault) PlaceholderExists(placeholder string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, e := range v.entries {
		if e.Placeholder == placeholder {
			return true
		}
	}
	return false
}

// Len returns the current number of entries.
func (v *Vault) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

// snapshotLocked copies the entry sequence. Callers must hold v.mu.
func (v *Vault) snapshotLocked() []Entry {
	snapshot := make([]Entry, len(v.entries))
	copy(snapshot, v.entries)
	return snapshot
}
