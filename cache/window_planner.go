package cache

import (
	"sort"
	"sync"
	"time"

	"sched-server/period"
)

// Direction classifies a navigation step relative to the previous anchor.
type Direction int

const (
	DIRECTION_UNKNOWN Direction = iota
	DIRECTION_FORWARD
	DIRECTION_BACKWARD
)

// Extra periods kept beyond the planned window before eviction kicks in.
const RESIDENT_BUFFER_SIZE = 2

// now is swapped out by tests.
var now = time.Now

// Plan returns the ordered period keys that should be resident for the
// given anchor: radius periods before, the anchor period, radius after.
// Duplicate keys at granularity boundaries are collapsed. When roam is
// false and filterPast is set, periods entirely in the past are dropped;
// pre-hydration callers pass filterPast=false so the first paint stays
// consistent with the server.
func Plan(view period.View, anchor time.Time, radius int, roam, filterPast bool) []string {
	keys := make([]string, 0, 2*radius+1)
	seen := make(map[string]struct{}, 2*radius+1)
	for offset := -radius; offset <= radius; offset++ {
		key := period.Encode(view, shift(view, anchor, offset))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if !roam && filterPast {
		keys = dropPast(view, keys)
	}
	return keys
}

// shift moves the anchor by whole periods. Month/year shifts run from the
// first of the bucket so end-of-month anchors cannot skip short months.
func shift(view period.View, d time.Time, offset int) time.Time {
	switch view {
	case period.VIEW_YEAR:
		return time.Date(d.Year()+offset, d.Month(), 1, 0, 0, 0, 0, d.Location())
	case period.VIEW_WEEK:
		return d.AddDate(0, 0, 7*offset)
	case period.VIEW_DAY:
		return d.AddDate(0, 0, offset)
	default:
		first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
		return first.AddDate(0, offset, 0)
	}
}

func dropPast(view period.View, keys []string) []string {
	today := period.StartOfDay(now())
	kept := make([]string, 0, len(keys))
	for _, k := range keys {
		if period.Decode(view, k).End.Before(today) {
			continue
		}
		kept = append(kept, k)
	}
	return kept
}

// WindowManager owns the running resident set and applies the eviction
// policy against the cache as navigation moves the anchor.
type WindowManager struct {
	cache      *PeriodCache
	buffer     int
	filterPast bool

	mu        sync.Mutex
	view      period.View
	roam      bool
	radius    int
	anchorKey string
	resident  []string // kept in chronological order
}

// UpdateResult reports the window delta for one navigation step.
type UpdateResult struct {
	Resident  []string
	Added     []string
	Evicted   []string
	Reset     bool
	Direction Direction
}

// NewWindowManager wires a manager to the cache it evicts from.
func NewWindowManager(cache *PeriodCache, buffer int, filterPast bool) *WindowManager {
	return &WindowManager{cache: cache, buffer: buffer, filterPast: filterPast}
}

// Update recomputes the resident window for a navigation step and applies
// evictions. A view-type change is a hard reset: ranges shift too
// drastically for partial reuse, so every prior period is invalidated.
func (m *WindowManager) Update(view period.View, anchor time.Time, radius int, roam bool) UpdateResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := UpdateResult{}
	newAnchorKey := period.Encode(view, anchor)

	if view != m.view && m.view != "" {
		m.evictAllLocked()
		result.Reset = true
	} else if roam != m.roam && len(m.resident) > 0 {
		// Entries fetched under the other roam flag are a different record
		// set; drop them rather than serving mixed views.
		m.evictAllLocked()
	}
	m.view = view
	m.radius = radius

	result.Direction = m.directionLocked(newAnchorKey)
	m.roam = roam

	planned := Plan(view, anchor, radius, roam, m.filterPast)
	existing := make(map[string]struct{}, len(m.resident))
	for _, k := range m.resident {
		existing[k] = struct{}{}
	}
	for _, k := range planned {
		if _, ok := existing[k]; ok {
			continue
		}
		m.resident = append(m.resident, k)
		result.Added = append(result.Added, k)
	}
	sortChronologically(m.resident)

	capacity := 2*radius + 1 + m.buffer
	for len(m.resident) > capacity {
		victim, ok := m.pickVictimLocked(result.Direction, newAnchorKey)
		if !ok {
			break
		}
		m.removeLocked(victim)
		m.cache.Evict(victim, roam)
		result.Evicted = append(result.Evicted, victim)
	}

	m.anchorKey = newAnchorKey
	result.Resident = append([]string(nil), m.resident...)
	return result
}

// Resident returns a copy of the current resident set.
func (m *WindowManager) Resident() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resident...)
}

// View returns the view granularity of the current window.
func (m *WindowManager) View() period.View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// Roam returns the roam flag of the current window.
func (m *WindowManager) Roam() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roam
}

func (m *WindowManager) evictAllLocked() {
	for _, k := range m.resident {
		m.cache.Evict(k, m.roam)
	}
	m.resident = nil
	m.anchorKey = ""
}

// directionLocked compares the previous anchor period's start to the new
// one. Ties (same period, or a view change that cleared the anchor) are
// an unknown direction.
func (m *WindowManager) directionLocked(newAnchorKey string) Direction {
	if m.anchorKey == "" || m.anchorKey == newAnchorKey {
		return DIRECTION_UNKNOWN
	}
	prev, okPrev := period.Parse(m.anchorKey)
	next, okNext := period.Parse(newAnchorKey)
	if !okPrev || !okNext || prev.Equal(next) {
		return DIRECTION_UNKNOWN
	}
	if next.After(prev) {
		return DIRECTION_FORWARD
	}
	return DIRECTION_BACKWARD
}

// pickVictimLocked chooses the period to evict: the chronologically oldest
// when navigating forward (or when the direction is ambiguous, as a
// conservative default), the newest when navigating backward. The current
// anchor period is never evicted.
func (m *WindowManager) pickVictimLocked(dir Direction, anchorKey string) (string, bool) {
	candidates := make([]string, 0, len(m.resident))
	for _, k := range m.resident {
		if k == anchorKey {
			continue
		}
		candidates = append(candidates, k)
	}
	if dir == DIRECTION_BACKWARD {
		return period.NewestKey(candidates)
	}
	return period.OldestKey(candidates)
}

func (m *WindowManager) removeLocked(key string) {
	for i, k := range m.resident {
		if k == key {
			m.resident = append(m.resident[:i], m.resident[i+1:]...)
			return
		}
	}
}

func sortChronologically(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		a, okA := period.Parse(keys[i])
		b, okB := period.Parse(keys[j])
		if !okA || !okB {
			return okB
		}
		return a.Before(b)
	})
}
