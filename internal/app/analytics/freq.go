package analytics

import (
	"cmp"
	"sort"
	"time"
)

// Entry holds the count and most recent observation time for one key.
type Entry struct {
	Count    int
	LastSeen time.Time
}

// Table is a frequency table over one aggregation dimension.
// Built fresh per query window, never persisted. Only counts and
// last-seen timestamps matter; insertion order is irrelevant.
type Table[K cmp.Ordered] struct {
	entries map[K]*Entry
}

// NewTable creates an empty frequency table.
func NewTable[K cmp.Ordered]() Table[K] {
	return Table[K]{entries: make(map[K]*Entry)}
}

// Observe records one occurrence of key at the given time.
func (t Table[K]) Observe(key K, at time.Time) {
	e, ok := t.entries[key]
	if !ok {
		e = &Entry{}
		t.entries[key] = e
	}
	e.Count++
	if at.After(e.LastSeen) {
		e.LastSeen = at
	}
}

// Count returns the observation count for key (0 when absent).
func (t Table[K]) Count(key K) int {
	if e, ok := t.entries[key]; ok {
		return e.Count
	}
	return 0
}

// Len returns the number of distinct keys.
func (t Table[K]) Len() int {
	return len(t.entries)
}

// Total returns the sum of all counts.
func (t Table[K]) Total() int {
	total := 0
	for _, e := range t.entries {
		total += e.Count
	}
	return total
}

// Counts returns all counts in unspecified order.
func (t Table[K]) Counts() []int {
	counts := make([]int, 0, len(t.entries))
	for _, e := range t.entries {
		counts = append(counts, e.Count)
	}
	return counts
}

// Ranked is a key with its entry, used for ordered views of a table.
type Ranked[K cmp.Ordered] struct {
	Key   K
	Count int
}

// Top returns up to n keys ranked by count descending. Ties are broken
// by most recent observation, then by key order for determinism.
func (t Table[K]) Top(n int) []Ranked[K] {
	ranked := make([]Ranked[K], 0, len(t.entries))
	for k := range t.entries {
		ranked = append(ranked, Ranked[K]{Key: k, Count: t.entries[k].Count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		la, lb := t.entries[a.Key].LastSeen, t.entries[b.Key].LastSeen
		if !la.Equal(lb) {
			return la.After(lb)
		}
		return a.Key < b.Key
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Max returns the key with the highest count. Ties are broken by the
// lowest key, so an hour table resolves to the earliest hour. The second
// return is false when the table is empty.
func (t Table[K]) Max() (K, bool) {
	var best K
	found := false
	bestCount := 0
	for k, e := range t.entries {
		if !found || e.Count > bestCount || (e.Count == bestCount && k < best) {
			best = k
			bestCount = e.Count
			found = true
		}
	}
	return best, found
}
