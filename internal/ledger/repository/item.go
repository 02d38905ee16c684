package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/forkpoint/forkpoint-backend/internal/ledger/domain"
	"github.com/forkpoint/forkpoint-backend/pkg/docstore"
	"github.com/forkpoint/forkpoint-backend/pkg/errors"
	"github.com/forkpoint/forkpoint-backend/pkg/logger"
)

// ItemRepository persists Item aggregates as versioned documents. Every
// mutation runs as read -> compute -> conditional write keyed by the
// document version, so one mutator holds logical ownership of an item for
// the duration of its read-compute-write.
type ItemRepository struct {
	store      *docstore.Store
	logger     *logger.Logger
	retries    int
	retryDelay time.Duration
}

// NewItemRepository creates a new item repository. retries bounds how often
// a conflicted or transiently failed write is reattempted against fresh
// state before the error is surfaced.
func NewItemRepository(store *docstore.Store, retries int, retryDelay time.Duration, log *logger.Logger) *ItemRepository {
	if retries < 1 {
		retries = 1
	}
	return &ItemRepository{
		store:      store,
		logger:     log.WithComponent("item-repository"),
		retries:    retries,
		retryDelay: retryDelay,
	}
}

// Versioned pairs an item with the document version it was read at.
type Versioned struct {
	Item    *domain.Item
	Version int64
}

// Create stores a new item. Fails with a conflict if the id is taken.
func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Lots == nil {
		item.Lots = []domain.Lot{}
	}
	if item.Consumptions == nil {
		item.Consumptions = []domain.ConsumptionRecord{}
	}

	_, err := r.store.PutVersioned(ctx, domain.CollectionItems, item.ID, item, 0)
	if err == docstore.ErrVersionConflict {
		return errors.Conflict("an item with this id already exists")
	}
	return err
}

// Get loads one item together with its current version.
func (r *ItemRepository) Get(ctx context.Context, id string) (*Versioned, error) {
	doc, err := r.store.Get(ctx, domain.CollectionItems, id)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.NotFound("item")
		}
		return nil, err
	}

	var item domain.Item
	if err := doc.Unmarshal(&item); err != nil {
		return nil, errors.Internal("failed to decode item document")
	}
	return &Versioned{Item: &item, Version: doc.Version}, nil
}

// List loads every item with its version, oldest first.
func (r *ItemRepository) List(ctx context.Context) ([]*Versioned, error) {
	docs, err := r.store.GetAll(ctx, domain.CollectionItems)
	if err != nil {
		return nil, err
	}

	out := make([]*Versioned, 0, len(docs))
	for _, doc := range docs {
		var item domain.Item
		if err := doc.Unmarshal(&item); err != nil {
			return nil, errors.Internal("failed to decode item document")
		}
		out = append(out, &Versioned{Item: &item, Version: doc.Version})
	}
	return out, nil
}

// Mutate applies fn to a freshly loaded item and writes the result back
// conditionally. On a version conflict the whole read-compute-write is
// retried against fresh state, up to the configured bound. Business errors
// returned by fn abort immediately without a write.
func (r *ItemRepository) Mutate(ctx context.Context, id string, fn func(item *domain.Item) error) (*domain.Item, error) {
	var lastErr error

	for attempt := 0; attempt < r.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.StoreError(ctx.Err())
			case <-time.After(r.retryDelay * time.Duration(attempt)):
			}
		}

		versioned, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := fn(versioned.Item); err != nil {
			return nil, err
		}

		_, err = r.store.PutVersioned(ctx, domain.CollectionItems, id, versioned.Item, versioned.Version)
		if err == nil {
			return versioned.Item, nil
		}
		if err != docstore.ErrVersionConflict && !errors.Is(err, errors.ErrStore) {
			return nil, err
		}

		lastErr = err
		r.logger.Warn().
			Err(err).
			Str("item_id", id).
			Int("attempt", attempt+1).
			Msg("conditional item write failed, retrying")
	}

	if lastErr == docstore.ErrVersionConflict {
		return nil, errors.Conflict("item was modified concurrently, please retry")
	}
	return nil, errors.StoreError(lastErr)
}

// SaveEach persists a set of already-mutated items independently: one item's
// failure does not block the others. Used by the expiration sweep. Returns
// the ids whose write failed.
func (r *ItemRepository) SaveEach(ctx context.Context, items []*Versioned) []string {
	writes := make([]docstore.VersionedWrite, 0, len(items))
	for _, v := range items {
		writes = append(writes, docstore.VersionedWrite{
			ID:              v.Item.ID,
			Body:            v.Item,
			ExpectedVersion: v.Version,
		})
	}

	results := r.store.PutVersionedEach(ctx, domain.CollectionItems, writes)

	var failed []string
	for id, err := range results {
		if err != nil {
			failed = append(failed, id)
		}
	}
	return failed
}

// Delete removes an item document entirely.
func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	err := r.store.Delete(ctx, domain.CollectionItems, id)
	if err != nil && errors.Is(err, errors.ErrNotFound) {
		return errors.NotFound("item")
	}
	return err
}
