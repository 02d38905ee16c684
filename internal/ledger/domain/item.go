// Package domain holds the batch-lot inventory ledger model: items, dated
// lots, and the append-only consumption history. All mutations keep the
// item's cached total consistent with its lots.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/forkpoint/forkpoint-backend/pkg/errors"
)

// Document store collections.
const (
	CollectionItems    = "items"
	CollectionSettings = "settings"
)

// Item is one tracked ingredient: an aggregate of dated lots plus a cached
// total quantity. The cached total must always equal the sum of
// max(0, lot.quantity - lot.damages) over the lots currently on the item.
type Item struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Category     string              `json:"category"`
	Supplier     string              `json:"supplier"`
	Threshold    int                 `json:"threshold"`
	Quantity     int                 `json:"quantity"`
	Lots         []Lot               `json:"lots"`
	Consumptions []ConsumptionRecord `json:"consumptions"`
}

// Lot is one dated batch of stock from a single restock event. Lots carry a
// stable unique id so that two restocks sharing an expiration date stay
// distinguishable; the expiration date is only the allocation sort key.
type Lot struct {
	ID             string    `json:"id"`
	RestockedAt    time.Time `json:"restocked_at"`
	Quantity       int       `json:"quantity"`
	ExpirationDate time.Time `json:"expiration_date"`
	Damages        int       `json:"damages"`
	StaffName      string    `json:"staff_name"`
	StaffEmail     string    `json:"staff_email"`
}

// Available returns the sellable portion of the lot.
func (l *Lot) Available() int {
	available := l.Quantity - l.Damages
	if available < 0 {
		return 0
	}
	return available
}

// Expired reports whether the lot's date has passed. The comparison is
// date-only: a lot expiring today is not yet expired.
func (l *Lot) Expired(now time.Time) bool {
	return DateOnly(l.ExpirationDate).Before(DateOnly(now))
}

// ConsumptionRecord is an immutable audit entry appended once per
// consumption, citing the single lot it was drawn from.
type ConsumptionRecord struct {
	ID                  string    `json:"id"`
	ConsumedAt          time.Time `json:"consumed_at"`
	Quantity            int       `json:"quantity"`
	StaffName           string    `json:"staff_name"`
	StaffEmail          string    `json:"staff_email"`
	SourceLotExpiration time.Time `json:"source_lot_expiration"`
}

// StaffRef is the identity recorded on a ledger mutation.
type StaffRef struct {
	Name  string
	Email string
}

// DateOnly truncates a timestamp to midnight UTC. All expiration comparisons
// go through this helper so no time-of-day component leaks in.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Recompute rebuilds the cached total from the lots currently on the item.
// Full recomputation rather than incremental adjustment guards against drift.
func (i *Item) Recompute() {
	total := 0
	for idx := range i.Lots {
		total += i.Lots[idx].Available()
	}
	i.Quantity = total
}

// BelowThreshold reports whether the item has hit its reorder level.
// Advisory only; no automatic action is taken.
func (i *Item) BelowThreshold() bool {
	return i.Quantity <= i.Threshold
}

// FindLot returns the lot with the given id, or nil.
func (i *Item) FindLot(lotID string) *Lot {
	for idx := range i.Lots {
		if i.Lots[idx].ID == lotID {
			return &i.Lots[idx]
		}
	}
	return nil
}

// FindLotByExpiration returns the first lot matching the given expiration
// date. Kept for callers that still key lots by date; ambiguous when two
// restocks share a date, which is why new operations key by lot id.
func (i *Item) FindLotByExpiration(date time.Time) *Lot {
	want := DateOnly(date)
	for idx := range i.Lots {
		if DateOnly(i.Lots[idx].ExpirationDate).Equal(want) {
			return &i.Lots[idx]
		}
	}
	return nil
}

// Restock adds a new lot and bumps the cached total in the same step.
// The expiration date must not already be in the past.
func (i *Item) Restock(quantity int, expiration time.Time, staff StaffRef, now time.Time) (*Lot, error) {
	if quantity <= 0 {
		return nil, errors.Validation(map[string]string{
			"quantity": "must be a positive amount",
		})
	}
	if DateOnly(expiration).Before(DateOnly(now)) {
		return nil, errors.Validation(map[string]string{
			"expiration_date": "must not be in the past",
		})
	}

	lot := Lot{
		ID:             uuid.New().String(),
		RestockedAt:    now,
		Quantity:       quantity,
		ExpirationDate: DateOnly(expiration),
		StaffName:      staff.Name,
		StaffEmail:     staff.Email,
	}
	i.Lots = append(i.Lots, lot)
	i.Quantity += quantity

	return &i.Lots[len(i.Lots)-1], nil
}
