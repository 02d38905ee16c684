package domain

import (
	"time"
)

// SweepResult describes what a sweep removed from one item.
type SweepResult struct {
	ItemID  string
	Removed []Lot
}

// SweepItem removes the item's expired lots, subtracting each one's
// available quantity from the cached total. Returns the removed lots;
// an empty slice means the item was untouched.
func SweepItem(item *Item, now time.Time) []Lot {
	var removed []Lot
	kept := item.Lots[:0]

	for _, lot := range item.Lots {
		if lot.Expired(now) {
			item.Quantity -= lot.Available()
			removed = append(removed, lot)
			continue
		}
		kept = append(kept, lot)
	}

	if item.Quantity < 0 {
		// The cached total had drifted below the lots' sum; clamp rather
		// than persist a negative stock level.
		item.Quantity = 0
	}

	item.Lots = kept
	return removed
}

// Sweep runs SweepItem over every item and reports which ones changed.
// Pure with respect to any store: callers persist the changed items.
func Sweep(items []*Item, now time.Time) []SweepResult {
	var results []SweepResult
	for _, item := range items {
		if removed := SweepItem(item, now); len(removed) > 0 {
			results = append(results, SweepResult{ItemID: item.ID, Removed: removed})
		}
	}
	return results
}
