package repository

import (
	"context"
	"time"

	"github.com/forkpoint/forkpoint-backend/internal/ledger/domain"
	"github.com/forkpoint/forkpoint-backend/pkg/docstore"
	"github.com/forkpoint/forkpoint-backend/pkg/errors"
)

// reminderSettingsID is the id of the single shared settings document.
const reminderSettingsID = "reminder"

// ReminderSettings is the process-wide reminder throttle state.
type ReminderSettings struct {
	LastAlertAt time.Time `json:"last_alert_at"`
}

// SettingsRepository reads and writes the shared settings document.
type SettingsRepository struct {
	store *docstore.Store
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(store *docstore.Store) *SettingsRepository {
	return &SettingsRepository{store: store}
}

// GetReminder loads the reminder settings with their version. A missing
// document yields zero-value settings at version 0, which CompareAndSet
// treats as a create.
func (r *SettingsRepository) GetReminder(ctx context.Context) (*ReminderSettings, int64, error) {
	doc, err := r.store.Get(ctx, domain.CollectionSettings, reminderSettingsID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return &ReminderSettings{}, 0, nil
		}
		return nil, 0, err
	}

	var settings ReminderSettings
	if err := doc.Unmarshal(&settings); err != nil {
		return nil, 0, errors.Internal("failed to decode settings document")
	}
	return &settings, doc.Version, nil
}

// CompareAndSet writes the reminder settings only if the stored version is
// unchanged. A conflict means another instance updated the throttle first;
// callers should treat that as "someone else fired the reminder".
func (r *SettingsRepository) CompareAndSet(ctx context.Context, settings *ReminderSettings, version int64) error {
	_, err := r.store.PutVersioned(ctx, domain.CollectionSettings, reminderSettingsID, settings, version)
	return err
}
