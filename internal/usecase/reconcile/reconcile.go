// Package reconcile merges a freshly observed catalog snapshot into the stored
// one. It computes the change set between the two, applies the retention
// window to stored entries and refreshes observation timestamps.
//
// Everything in this package is pure and in-memory: inputs are never mutated
// and no operation can fail.
package reconcile

import (
	"sort"
	"time"

	"github.com/Tommy88/xparser/internal/domain/entity"
)

// DefaultRetention is how long an entry survives in the store after it was
// last seen changing.
const DefaultRetention = 7 * 24 * time.Hour

// Result is the outcome of one reconciliation.
type Result struct {
	// Store is the merged snapshot to persist.
	Store entity.Snapshot
	// Diff is the change set between the stored baseline and the observation.
	Diff entity.Diff
	// Evicted lists the keys removed by the retention window, sorted.
	Evicted []string
}

// Diff returns the structural difference between old and new.
//
// Keys only in new are reported as appeared, keys only in old as disappeared,
// and keys in both whose non-timestamp fields differ as changed.
func Diff(old, new entity.Snapshot) entity.Diff {
	d := make(entity.Diff)

	for key, prev := range old {
		prev := prev
		cur, ok := new[key]
		if !ok {
			d[key] = entity.Change{Old: &prev}
			continue
		}
		if !prev.SameContent(cur) {
			cur := cur
			d[key] = entity.Change{Old: &prev, New: &cur}
		}
	}

	for key, cur := range new {
		if _, ok := old[key]; ok {
			continue
		}
		cur := cur
		d[key] = entity.Change{New: &cur}
	}

	return d
}

// Reconcile applies observed to store at instant now.
//
// Stored entries whose timestamp is at or before now-retention are evicted,
// as are entries whose timestamp cannot be parsed. The diff is taken against
// the stored snapshot as loaded, before eviction. New and changed observations
// are written with Date set to now; unchanged entries keep their timestamp.
// Entries absent from observed stay in the store until the retention window
// removes them.
//
// A non-positive retention falls back to DefaultRetention. Stored timestamps
// are interpreted in now's location.
func Reconcile(store, observed entity.Snapshot, now time.Time, retention time.Duration) Result {
	if retention <= 0 {
		retention = DefaultRetention
	}

	diff := Diff(store, observed)

	merged, evicted := evict(store, now, retention)

	for key, obs := range observed {
		prev, ok := merged[key]
		if ok && prev.SameContent(obs) {
			continue
		}
		merged[key] = obs.Stamp(now)
	}

	return Result{Store: merged, Diff: diff, Evicted: evicted}
}

// evict returns a copy of store without the expired entries, and the sorted
// list of evicted keys.
func evict(store entity.Snapshot, now time.Time, retention time.Duration) (entity.Snapshot, []string) {
	cutoff := now.Add(-retention)
	kept := make(entity.Snapshot, len(store))
	var evicted []string

	for key, attrs := range store {
		stamp, err := attrs.ObservedAt(now.Location())
		if err != nil || !stamp.After(cutoff) {
			evicted = append(evicted, key)
			continue
		}
		kept[key] = attrs
	}

	sort.Strings(evicted)
	return kept, evicted
}
