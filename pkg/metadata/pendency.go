package metadata

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
)

// Pendency flags one incomplete required field of a block.
type Pendency struct {
	Block int
	Field string
}

// String renders the pendency as "<block>-<field>", e.g. "2-strength".
func (p Pendency) String() string { return fmt.Sprintf("%d-%s", p.Block, p.Field) }

func comparePendency(a, b Pendency) int {
	if c := cmp.Compare(a.Block, b.Block); c != 0 {
		return c
	}
	return cmp.Compare(a.Field, b.Field)
}

// Ledger is a deduplicated set of pendencies scoped to the active node.
// The zero value is an empty ledger ready to use.
type Ledger struct {
	entries map[Pendency]struct{}
}

// Add records a pendency. Adding an existing entry is a no-op.
func (l *Ledger) Add(block int, field string) {
	if l.entries == nil {
		l.entries = make(map[Pendency]struct{})
	}
	l.entries[Pendency{block, field}] = struct{}{}
}

// Remove deletes a pendency if present.
func (l *Ledger) Remove(block int, field string) {
	delete(l.entries, Pendency{block, field})
}

// Contains reports whether the exact pendency is recorded.
func (l *Ledger) Contains(block int, field string) bool {
	_, ok := l.entries[Pendency{block, field}]
	return ok
}

// Has reports whether any pendency is recorded.
func (l *Ledger) Has() bool { return len(l.entries) > 0 }

// Len returns the number of recorded pendencies.
func (l *Ledger) Len() int { return len(l.entries) }

// Clear empties the ledger.
func (l *Ledger) Clear() { clear(l.entries) }

// Entries returns the pendencies sorted by block index, then field.
func (l *Ledger) Entries() []Pendency {
	return slices.SortedFunc(maps.Keys(l.entries), comparePendency)
}

// Strings returns [Ledger.Entries] rendered with [Pendency.String].
func (l *Ledger) Strings() []string {
	entries := l.Entries()
	out := make([]string, len(entries))
	for i, p := range entries {
		out[i] = p.String()
	}
	return out
}
