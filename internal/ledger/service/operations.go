package service

import (
	"context"
	"time"

	"github.com/forkpoint/forkpoint-backend/internal/ledger/domain"
	"github.com/forkpoint/forkpoint-backend/pkg/errors"
	"github.com/forkpoint/forkpoint-backend/pkg/identity"
)

// Restock appends a new lot to an item and raises its stock level.
func (s *LedgerService) Restock(ctx context.Context, itemID string, quantity int, expiration time.Time) (*ItemView, error) {
	staff, err := identity.CurrentStaff(ctx)
	if err != nil {
		return nil, err
	}

	var lot *domain.Lot
	item, err := s.itemRepo.Mutate(ctx, itemID, func(item *domain.Item) error {
		lot, err = item.Restock(quantity, expiration, staffRef(staff), time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("item_id", itemID).
		Str("lot_id", lot.ID).
		Int("quantity", quantity).
		Str("staff_email", staff.Email).
		Msg("stock restocked")

	s.publisher.PublishStockRestocked(ctx, item, lot)

	return newItemView(item), nil
}

// Consume draws stock from the oldest usable lot and records the draw
// in the item's consumption history.
func (s *LedgerService) Consume(ctx context.Context, itemID string, quantity int) (*ItemView, error) {
	staff, err := identity.CurrentStaff(ctx)
	if err != nil {
		return nil, err
	}

	var (
		rec *domain.ConsumptionRecord
		lot *domain.Lot
	)
	item, err := s.itemRepo.Mutate(ctx, itemID, func(item *domain.Item) error {
		rec, lot, err = item.Consume(quantity, staffRef(staff), time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("item_id", itemID).
		Str("lot_id", lot.ID).
		Int("quantity", quantity).
		Str("staff_email", staff.Email).
		Msg("stock consumed")

	s.publisher.PublishStockConsumed(ctx, item, rec, lot)

	return newItemView(item), nil
}

// RecordDamage writes off part of a lot without touching its history. Lots
// are addressed by id; callers that only know the expiration date may pass it
// instead, resolving against the item's current lots.
func (s *LedgerService) RecordDamage(ctx context.Context, itemID, lotID string, expiration *time.Time, quantity int) (*ItemView, error) {
	var lot *domain.Lot
	item, err := s.itemRepo.Mutate(ctx, itemID, func(item *domain.Item) error {
		target := lotID
		if target == "" && expiration != nil {
			if found := item.FindLotByExpiration(*expiration); found != nil {
				target = found.ID
			}
		}

		var err error
		lot, err = item.RecordDamage(target, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("item_id", itemID).
		Str("lot_id", lot.ID).
		Int("quantity", quantity).
		Msg("damage recorded")

	s.publisher.PublishStockDamaged(ctx, item, lot, quantity)

	return newItemView(item), nil
}

// ReverseHistory undoes a restock or consumption history entry. Only
// managers and owners may reverse history.
func (s *LedgerService) ReverseHistory(ctx context.Context, itemID, historyType string, index int) (*ItemView, error) {
	staff, err := identity.CurrentStaff(ctx)
	if err != nil {
		return nil, err
	}
	if !staff.Privileged() {
		return nil, errors.Forbidden("only managers may reverse history")
	}

	var reversed int
	item, err := s.itemRepo.Mutate(ctx, itemID, func(item *domain.Item) error {
		switch historyType {
		case domain.HistoryRestock:
			lot, err := item.ReverseRestock(index)
			if err != nil {
				return err
			}
			reversed = lot.Quantity
		case domain.HistoryConsumption:
			rec, err := item.ReverseConsumption(index)
			if err != nil {
				return err
			}
			reversed = rec.Quantity
		default:
			return errors.Validation(map[string]string{
				"type": "must be restock or consumption",
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("item_id", itemID).
		Str("history_type", historyType).
		Int("index", index).
		Str("staff_email", staff.Email).
		Msg("history entry reversed")

	s.publisher.PublishStockReversed(ctx, item, historyType, index, reversed, staff.Email)

	return newItemView(item), nil
}

func staffRef(staff *identity.Staff) domain.StaffRef {
	return domain.StaffRef{
		Name:  staff.Name,
		Email: staff.Email,
	}
}
