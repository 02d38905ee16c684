package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/forkpoint/forkpoint-backend/pkg/errors"
)

// Consume draws the requested quantity from the oldest-expiring unexpired
// lot and appends a consumption record citing it.
//
// Allocation is deliberately single-lot: the oldest-expiring candidate must
// cover the full request on its own. A request that the candidate cannot
// satisfy fails with INSUFFICIENT_LOT_STOCK even when later lots together
// hold enough stock. This is a known limitation carried over intentionally;
// do not change it to a multi-lot split without coordinating with the POS
// clients that rely on one history entry per source lot.
func (i *Item) Consume(quantity int, staff StaffRef, now time.Time) (*ConsumptionRecord, *Lot, error) {
	if quantity <= 0 || quantity > i.Quantity {
		return nil, nil, errors.InsufficientStock(quantity, i.Quantity)
	}

	candidates := i.allocationOrder(now)
	if len(candidates) == 0 {
		return nil, nil, errors.NoValidStock()
	}

	oldest := candidates[0]
	if oldest.Available() < quantity {
		return nil, nil, errors.InsufficientLotStock(quantity, oldest.Available())
	}

	consumed := *oldest

	oldest.Quantity -= quantity
	if oldest.Quantity == 0 {
		i.removeLot(oldest.ID)
	}
	i.Quantity -= quantity

	record := ConsumptionRecord{
		ID:                  uuid.New().String(),
		ConsumedAt:          now,
		Quantity:            quantity,
		StaffName:           staff.Name,
		StaffEmail:          staff.Email,
		SourceLotExpiration: consumed.ExpirationDate,
	}
	i.Consumptions = append(i.Consumptions, record)

	return &i.Consumptions[len(i.Consumptions)-1], &consumed, nil
}

// allocationOrder returns the lots eligible for consumption, earliest
// expiration first. Only lots expiring strictly after today qualify.
func (i *Item) allocationOrder(now time.Time) []*Lot {
	today := DateOnly(now)

	var candidates []*Lot
	for idx := range i.Lots {
		if DateOnly(i.Lots[idx].ExpirationDate).After(today) {
			candidates = append(candidates, &i.Lots[idx])
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].ExpirationDate.Before(candidates[b].ExpirationDate)
	})

	return candidates
}

func (i *Item) removeLot(lotID string) {
	for idx := range i.Lots {
		if i.Lots[idx].ID == lotID {
			i.Lots = append(i.Lots[:idx], i.Lots[idx+1:]...)
			return
		}
	}
}
