package events

import (
	"context"

	"github.com/forkpoint/forkpoint-backend/internal/ledger/domain"
	"github.com/forkpoint/forkpoint-backend/pkg/logger"
	"github.com/forkpoint/forkpoint-backend/pkg/messaging"
)

// LedgerEventPublisher publishes stock ledger events
type LedgerEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewLedgerEventPublisher creates a new ledger event publisher
func NewLedgerEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*LedgerEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeLedgerEvents, "ledger-service", log)
	if err != nil {
		return nil, err
	}

	return &LedgerEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishStockRestocked publishes a stock restocked event
func (p *LedgerEventPublisher) PublishStockRestocked(ctx context.Context, item *domain.Item, lot *domain.Lot) {
	if p == nil {
		return
	}
	data := messaging.StockRestockedEvent{
		ItemID:     item.ID,
		LotID:      lot.ID,
		Quantity:   lot.Quantity,
		Expiration: lot.ExpirationDate,
		StaffEmail: lot.StaffEmail,
		NewTotal:   item.Quantity,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockRestocked, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", item.ID).Msg("failed to publish stock restocked event")
	}
}

// PublishStockConsumed publishes a stock consumed event
func (p *LedgerEventPublisher) PublishStockConsumed(ctx context.Context, item *domain.Item, rec *domain.ConsumptionRecord, lot *domain.Lot) {
	if p == nil {
		return
	}
	data := messaging.StockConsumedEvent{
		ItemID:     item.ID,
		LotID:      lot.ID,
		Quantity:   rec.Quantity,
		Expiration: rec.SourceLotExpiration,
		StaffEmail: rec.StaffEmail,
		NewTotal:   item.Quantity,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockConsumed, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", item.ID).Msg("failed to publish stock consumed event")
	}
}

// PublishStockDamaged publishes a stock damaged event
func (p *LedgerEventPublisher) PublishStockDamaged(ctx context.Context, item *domain.Item, lot *domain.Lot, quantity int) {
	if p == nil {
		return
	}
	data := messaging.StockDamagedEvent{
		ItemID:   item.ID,
		LotID:    lot.ID,
		Quantity: quantity,
		NewTotal: item.Quantity,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockDamaged, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", item.ID).Msg("failed to publish stock damaged event")
	}
}

// PublishStockReversed publishes a history reversal event
func (p *LedgerEventPublisher) PublishStockReversed(ctx context.Context, item *domain.Item, historyType string, index, quantity int, staffEmail string) {
	if p == nil {
		return
	}
	data := messaging.StockReversedEvent{
		ItemID:      item.ID,
		HistoryType: historyType,
		Index:       index,
		Quantity:    quantity,
		StaffEmail:  staffEmail,
		NewTotal:    item.Quantity,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockReversed, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", item.ID).Msg("failed to publish stock reversed event")
	}
}

// PublishLotExpired publishes one event per lot dropped by the expiration sweep
func (p *LedgerEventPublisher) PublishLotExpired(ctx context.Context, itemID string, lot *domain.Lot) {
	if p == nil {
		return
	}
	data := messaging.LotExpiredEvent{
		ItemID:     itemID,
		LotID:      lot.ID,
		Quantity:   lot.Available(),
		Expiration: lot.ExpirationDate,
	}

	if err := p.publisher.Publish(ctx, messaging.EventLotExpired, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", itemID).Str("lot_id", lot.ID).Msg("failed to publish lot expired event")
	}
}

// PublishReminderDue publishes the throttled consumption reminder
func (p *LedgerEventPublisher) PublishReminderDue(ctx context.Context, data messaging.ReminderDueEvent) error {
	if p == nil {
		return nil
	}
	return p.publisher.Publish(ctx, messaging.EventReminderDue, data)
}
