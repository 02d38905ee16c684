package domain

import (
	"github.com/forkpoint/forkpoint-backend/pkg/errors"
)

// RecordDamage marks a portion of a lot as damaged. Damaged stock stays on
// the lot record but is excluded from availability. The cached total is
// rebuilt from every lot on the item, not decremented in place.
func (i *Item) RecordDamage(lotID string, quantity int) (*Lot, error) {
	lot := i.FindLot(lotID)
	if lot == nil {
		return nil, errors.NotFound("lot")
	}

	available := lot.Available()
	if quantity <= 0 || quantity > available {
		return nil, errors.ExceedsAvailable(quantity, available)
	}

	lot.Damages += quantity
	i.Recompute()

	return lot, nil
}
