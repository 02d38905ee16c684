package service

import (
	"context"
	"time"

	"github.com/forkpoint/forkpoint-backend/internal/ledger/events"
	"github.com/forkpoint/forkpoint-backend/internal/ledger/repository"
	"github.com/forkpoint/forkpoint-backend/pkg/docstore"
	"github.com/forkpoint/forkpoint-backend/pkg/errors"
	"github.com/forkpoint/forkpoint-backend/pkg/logger"
	"github.com/forkpoint/forkpoint-backend/pkg/messaging"
)

// ReminderScheduler periodically checks whether the consumption reminder
// is due and fires it at most once per throttle window. The throttle state
// lives in a shared settings document, so several service instances can run
// the scheduler concurrently: the conditional write on that document lets
// exactly one of them win each window.
type ReminderScheduler struct {
	settingsRepo *repository.SettingsRepository
	publisher    *events.LedgerEventPublisher
	interval     time.Duration
	throttle     time.Duration
	logger       *logger.Logger
	cancel       context.CancelFunc
}

// NewReminderScheduler creates a new reminder scheduler
func NewReminderScheduler(
	settingsRepo *repository.SettingsRepository,
	publisher *events.LedgerEventPublisher,
	interval, throttle time.Duration,
	log *logger.Logger,
) *ReminderScheduler {
	return &ReminderScheduler{
		settingsRepo: settingsRepo,
		publisher:    publisher,
		interval:     interval,
		throttle:     throttle,
		logger:       log,
	}
}

// Start starts the scheduler in a background goroutine. An initial check
// runs immediately so a restart does not push the reminder a full interval.
func (s *ReminderScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		s.logger.Info().
			Dur("interval", s.interval).
			Dur("throttle", s.throttle).
			Msg("reminder scheduler started")

		s.RunOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("reminder scheduler stopped")
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

// Stop stops the scheduler goroutine
func (s *ReminderScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// RunOnce performs a single reminder check: if the throttle window since the
// last fired reminder has elapsed, it publishes the reminder and advances the
// throttle state. Returns true when this instance fired the reminder.
func (s *ReminderScheduler) RunOnce(ctx context.Context) bool {
	settings, version, err := s.settingsRepo.GetReminder(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load reminder settings")
		return false
	}

	now := time.Now()
	if !settings.LastAlertAt.IsZero() && now.Sub(settings.LastAlertAt) < s.throttle {
		s.logger.Debug().
			Time("last_alert_at", settings.LastAlertAt).
			Msg("reminder throttled")
		return false
	}

	if err := s.publisher.PublishReminderDue(ctx, messaging.ReminderDueEvent{FiredAt: now}); err != nil {
		// Leave the throttle state untouched so the next cycle retries.
		s.logger.Error().Err(err).Msg("failed to publish reminder, will retry next cycle")
		return false
	}

	settings.LastAlertAt = now
	if err := s.settingsRepo.CompareAndSet(ctx, settings, version); err != nil {
		if err == docstore.ErrVersionConflict || errors.Is(err, errors.ErrConflict) {
			s.logger.Info().Msg("another instance advanced the reminder throttle")
			return false
		}
		s.logger.Error().Err(err).Msg("failed to persist reminder throttle state")
		return false
	}

	s.logger.Info().Time("fired_at", now).Msg("consumption reminder fired")
	return true
}
