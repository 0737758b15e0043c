package notify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Tommy88/xparser/internal/domain/entity"
)

// Caption placeholders used when a price attribute is empty.
const (
	NoOldPrice = "No Old Price"
	NoNewPrice = "No New Price"
)

// DefaultSuppressValues are attribute values the catalog shows for items that
// cannot be bought at a single price. Entries carrying them are never announced.
var DefaultSuppressValues = []string{
	"N/A",
	"Dahil+ price with subscription",
	"Dahil price with subscription",
}

// Message is one formatted announcement ready for delivery.
type Message struct {
	Key      string
	Caption  string
	MediaRef string
}

// SuppressSet holds attribute values that disqualify an entry from delivery.
type SuppressSet map[string]struct{}

// NewSuppressSet builds a set from values. Surrounding whitespace is trimmed
// and blank values are ignored.
func NewSuppressSet(values ...string) SuppressSet {
	s := make(SuppressSet, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		s[v] = struct{}{}
	}
	return s
}

// Contains reports whether v is suppressed. A nil set suppresses nothing.
func (s SuppressSet) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

// Format builds one Message per diff entry that has a new state, skipping
// entries whose new price or image reference is in suppress. Disappeared
// entries produce nothing. Messages are ordered by key.
func Format(diff entity.Diff, suppress SuppressSet) []Message {
	keys := make([]string, 0, len(diff))
	for k := range diff {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]Message, 0, len(keys))
	for _, key := range keys {
		change := diff[key]
		if change.New == nil {
			continue
		}
		attrs := *change.New
		if suppress.Contains(attrs.NewPrice) || suppress.Contains(attrs.ImageURL) {
			continue
		}
		msgs = append(msgs, Message{
			Key:      key,
			Caption:  Caption(key, attrs),
			MediaRef: attrs.ImageURL,
		})
	}
	return msgs
}

// Caption renders "<title>\nLast: <old>\nSale: <new>". The key stands in for
// an empty title and placeholders stand in for empty prices.
func Caption(key string, a entity.Attributes) string {
	title := strings.TrimSpace(a.Title)
	if title == "" {
		title = key
	}
	oldPrice := a.OldPrice
	if oldPrice == "" {
		oldPrice = NoOldPrice
	}
	newPrice := a.NewPrice
	if newPrice == "" {
		newPrice = NoNewPrice
	}
	return fmt.Sprintf("%s\nLast: %s\nSale: %s", title, oldPrice, newPrice)
}
