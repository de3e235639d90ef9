package cache

import (
	"sync"

	"sched-server/models"
)

// EntryKey identifies one cached period: the canonical period key plus the
// roam flag it was fetched under.
type EntryKey struct {
	Period string
	Roam   bool
}

// Entry holds one period's records, keyed by customer id (wa_id).
type Entry struct {
	Reservations  map[string][]models.Reservation
	Conversations map[string][]models.ConversationEvent
}

// NewEntry returns an empty entry with both maps allocated.
func NewEntry() *Entry {
	return &Entry{
		Reservations:  make(map[string][]models.Reservation),
		Conversations: make(map[string][]models.ConversationEvent),
	}
}

// PeriodCache is the process-local store of period entries. Prefetch
// goroutines, the reconciler loop and the HTTP handlers touch it
// concurrently, so access is mutex-guarded.
type PeriodCache struct {
	mu      sync.RWMutex
	entries map[EntryKey]*Entry
}

// NewPeriodCache initializes an empty cache.
func NewPeriodCache() *PeriodCache {
	return &PeriodCache{entries: make(map[EntryKey]*Entry)}
}

// Get returns the entry for (period, roam), or false when absent.
func (c *PeriodCache) Get(period string, roam bool) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[EntryKey{Period: period, Roam: roam}]
	return e, ok
}

// Has reports whether (period, roam) is cached.
func (c *PeriodCache) Has(period string, roam bool) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[EntryKey{Period: period, Roam: roam}]
	return ok
}

// Set stores the entry for (period, roam), replacing any previous one.
func (c *PeriodCache) Set(period string, roam bool, e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[EntryKey{Period: period, Roam: roam}] = e
}

// Evict removes the entry for (period, roam). Safe on an absent key.
func (c *PeriodCache) Evict(period string, roam bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, EntryKey{Period: period, Roam: roam})
}

// Clear drops every cached entry (full invalidation).
func (c *PeriodCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[EntryKey]*Entry)
}

// Len returns the number of cached entries.
func (c *PeriodCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// WithEntries runs fn with the live entry map under the write lock. The
// reconciler uses it to apply one event to every resident entry in a
// single pass.
func (c *PeriodCache) WithEntries(fn func(entries map[EntryKey]*Entry)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.entries)
}

// MergeAll merges the given resident periods into one logical view.
//
// Reservations are deduped per customer via the fallback identity key;
// a record seen later in the key order overwrites the earlier one in
// place (last-writer-wins across periods) instead of appending a
// duplicate. Conversation events are pure concatenation.
func (c *PeriodCache) MergeAll(periods []string, roam bool) models.MergedView {
	c.mu.RLock()
	defer c.mu.RUnlock()

	view := models.NewMergedView()
	seen := make(map[string]map[string]int) // customer -> identity -> index in merged slice

	for _, p := range periods {
		e, ok := c.entries[EntryKey{Period: p, Roam: roam}]
		if !ok {
			continue
		}
		for customer, records := range e.Reservations {
			index := seen[customer]
			if index == nil {
				index = make(map[string]int)
				seen[customer] = index
			}
			for _, r := range records {
				identity := r.IdentityKey()
				if at, dup := index[identity]; dup {
					view.Reservations[customer][at] = r
					continue
				}
				view.Reservations[customer] = append(view.Reservations[customer], r)
				index[identity] = len(view.Reservations[customer]) - 1
			}
		}
		for customer, events := range e.Conversations {
			view.Conversations[customer] = append(view.Conversations[customer], events...)
		}
	}
	return view
}
