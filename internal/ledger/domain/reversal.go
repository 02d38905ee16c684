package domain

import (
	"github.com/forkpoint/forkpoint-backend/pkg/errors"
)

// History entry kinds accepted by reversal operations.
const (
	HistoryRestock     = "restock"
	HistoryConsumption = "consumption"
)

// ReverseRestock hard-deletes the lot at the given position in the lot
// sequence and rebuilds the cached total from the remaining lots. Any damage
// already recorded against the lot is discarded with it; this is a batch
// delete, not a quantity rollback.
func (i *Item) ReverseRestock(index int) (*Lot, error) {
	if index < 0 || index >= len(i.Lots) {
		return nil, errors.NotFound("lot")
	}

	removed := i.Lots[index]
	i.Lots = append(i.Lots[:index], i.Lots[index+1:]...)
	i.Recompute()

	return &removed, nil
}

// ReverseConsumption adds the record's quantity back onto the cached total
// and removes the record from history. The quantity is NOT restored to the
// source lot: that lot may have been drained by later consumptions or swept
// after expiring. The recovered stock reappears as unassigned total only.
func (i *Item) ReverseConsumption(index int) (*ConsumptionRecord, error) {
	if index < 0 || index >= len(i.Consumptions) {
		return nil, errors.NotFound("consumption record")
	}

	reversed := i.Consumptions[index]
	i.Consumptions = append(i.Consumptions[:index], i.Consumptions[index+1:]...)
	i.Quantity += reversed.Quantity

	return &reversed, nil
}
