// Package entity defines the core domain types of the catalog worker.
// It contains the catalog entry attributes, snapshots and diffs exchanged
// between the reconciler, the stores and the delivery pipeline, along with
// the price grammar and domain-specific errors.
package entity

import (
	"sort"
	"time"
)

// DateLayout is the layout of the observed timestamp stored with every entry.
const DateLayout = "2006-01-02 15:04:05"

// Attributes holds the observed fields of one catalog entry.
// Date is written by the reconciler at merge time and is never compared
// when deciding whether an entry changed.
type Attributes struct {
	Title    string `json:"title"`
	OldPrice string `json:"old_price"`
	NewPrice string `json:"new_price"`
	ImageURL string `json:"image_url"`
	Date     string `json:"date,omitempty"`
}

// SameContent reports whether a and b carry the same non-timestamp fields.
func (a Attributes) SameContent(b Attributes) bool {
	return a.Title == b.Title &&
		a.OldPrice == b.OldPrice &&
		a.NewPrice == b.NewPrice &&
		a.ImageURL == b.ImageURL
}

// ObservedAt parses Date using DateLayout in loc.
func (a Attributes) ObservedAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, a.Date, loc)
}

// Stamp returns a copy of a with Date set to now.
func (a Attributes) Stamp(now time.Time) Attributes {
	a.Date = now.Format(DateLayout)
	return a
}

// Snapshot maps an entry key to its attributes. Keys are unique by construction.
type Snapshot map[string]Attributes

// Clone returns a shallow copy of s. Attributes are values, so the copy is
// fully independent.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Keys returns the keys of s in ascending order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ChangeKind classifies one diff entry.
type ChangeKind string

const (
	ChangeAppeared    ChangeKind = "appeared"
	ChangeDisappeared ChangeKind = "disappeared"
	ChangeChanged     ChangeKind = "changed"
)

// Change is the before/after pair recorded for one key.
// A nil Old means the entry appeared, a nil New means it disappeared.
type Change struct {
	Old *Attributes `json:"old"`
	New *Attributes `json:"new"`
}

// Kind returns the classification of c.
func (c Change) Kind() ChangeKind {
	switch {
	case c.Old == nil:
		return ChangeAppeared
	case c.New == nil:
		return ChangeDisappeared
	default:
		return ChangeChanged
	}
}

// Diff maps an entry key to its change. Unchanged keys never appear.
type Diff map[string]Change

// Counts returns the number of appeared, disappeared and changed entries.
func (d Diff) Counts() (appeared, disappeared, changed int) {
	for _, c := range d {
		switch c.Kind() {
		case ChangeAppeared:
			appeared++
		case ChangeDisappeared:
			disappeared++
		case ChangeChanged:
			changed++
		}
	}
	return appeared, disappeared, changed
}
