package service

import (
	"context"

	"github.com/forkpoint/forkpoint-backend/internal/ledger/domain"
	"github.com/forkpoint/forkpoint-backend/internal/ledger/events"
	"github.com/forkpoint/forkpoint-backend/internal/ledger/repository"
	"github.com/forkpoint/forkpoint-backend/pkg/logger"
)

// LedgerService handles stock ledger business logic
type LedgerService struct {
	itemRepo  *repository.ItemRepository
	publisher *events.LedgerEventPublisher
	logger    *logger.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	itemRepo *repository.ItemRepository,
	publisher *events.LedgerEventPublisher,
	log *logger.Logger,
) *LedgerService {
	return &LedgerService{
		itemRepo:  itemRepo,
		publisher: publisher,
		logger:    log,
	}
}

// ItemView is an item enriched with derived state for API responses
type ItemView struct {
	*domain.Item
	BelowThreshold bool `json:"below_threshold"`
}

func newItemView(item *domain.Item) *ItemView {
	return &ItemView{
		Item:           item,
		BelowThreshold: item.BelowThreshold(),
	}
}

// Item operations

// CreateItem creates a new ledger item with no lots and no history
func (s *LedgerService) CreateItem(ctx context.Context, item *domain.Item) (*ItemView, error) {
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("item_id", item.ID).
		Str("name", item.Name).
		Msg("item created")

	return newItemView(item), nil
}

// GetItem returns a single item, sweeping its expired lots first
func (s *LedgerService) GetItem(ctx context.Context, id string) (*ItemView, error) {
	versioned, err := s.itemRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.sweepOne(ctx, versioned)

	return newItemView(versioned.Item), nil
}

// ListItems returns all items, sweeping expired lots across the board
func (s *LedgerService) ListItems(ctx context.Context) ([]*ItemView, error) {
	items, err := s.itemRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	s.sweepAll(ctx, items)

	views := make([]*ItemView, len(items))
	for i, v := range items {
		views[i] = newItemView(v.Item)
	}
	return views, nil
}

// DeleteItem removes an item and its entire lot and consumption history
func (s *LedgerService) DeleteItem(ctx context.Context, id string) error {
	if err := s.itemRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("item_id", id).Msg("item deleted")
	return nil
}
