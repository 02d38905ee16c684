package service

import (
	"context"
	"time"

	"github.com/forkpoint/forkpoint-backend/internal/ledger/domain"
	"github.com/forkpoint/forkpoint-backend/internal/ledger/repository"
)

// sweepOne drops expired lots from a single freshly loaded item. The
// cleaned item is written back conditionally; a conflict is left for the
// next read to pick up, the caller still sees the swept in-memory state.
func (s *LedgerService) sweepOne(ctx context.Context, versioned *repository.Versioned) {
	removed := domain.SweepItem(versioned.Item, time.Now())
	if len(removed) == 0 {
		return
	}

	failed := s.itemRepo.SaveEach(ctx, []*repository.Versioned{versioned})
	if len(failed) > 0 {
		s.logger.Warn().
			Str("item_id", versioned.Item.ID).
			Msg("expiration sweep write lost a race, will retry on next read")
		return
	}

	s.announceSweep(ctx, versioned.Item.ID, removed)
}

// sweepAll drops expired lots across every loaded item. Each item is
// written back independently so one conflicting write cannot hold up the
// rest of the listing.
func (s *LedgerService) sweepAll(ctx context.Context, items []*repository.Versioned) {
	now := time.Now()

	changed := make(map[string][]domain.Lot)
	var dirty []*repository.Versioned
	for _, v := range items {
		if removed := domain.SweepItem(v.Item, now); len(removed) > 0 {
			changed[v.Item.ID] = removed
			dirty = append(dirty, v)
		}
	}
	if len(dirty) == 0 {
		return
	}

	failed := s.itemRepo.SaveEach(ctx, dirty)
	for _, id := range failed {
		delete(changed, id)
		s.logger.Warn().
			Str("item_id", id).
			Msg("expiration sweep write lost a race, will retry on next read")
	}

	for itemID, removed := range changed {
		s.announceSweep(ctx, itemID, removed)
	}
}

func (s *LedgerService) announceSweep(ctx context.Context, itemID string, removed []domain.Lot) {
	for i := range removed {
		s.logger.Info().
			Str("item_id", itemID).
			Str("lot_id", removed[i].ID).
			Time("expiration", removed[i].ExpirationDate).
			Int("quantity", removed[i].Available()).
			Msg("expired lot removed")

		s.publisher.PublishLotExpired(ctx, itemID, &removed[i])
	}
}
