package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Cyvadra/tv-bots/internal/config"
	"github.com/Cyvadra/tv-bots/internal/logging"
	"github.com/Cyvadra/tv-bots/internal/repository"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Janitor periodically deletes webhook tokens that expired long ago. Token
// validity never depends on it; it only reclaims storage.
type Janitor struct {
	tokens    repository.TokenRepository
	retention time.Duration
	schedule  string
	cron      *cron.Cron
	now       func() time.Time
	logger    *logrus.Entry
}

// NewJanitor creates a janitor from the janitor config
func NewJanitor(cfg config.JanitorConfig, tokens repository.TokenRepository) *Janitor {
	return &Janitor{
		tokens:    tokens,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		schedule:  cfg.Schedule,
		cron:      cron.New(cron.WithSeconds()),
		now:       time.Now,
		logger:    logging.Component("janitor"),
	}
}

// Start schedules the cleanup job
func (j *Janitor) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		if _, err := j.RunOnce(context.Background()); err != nil {
			j.logger.WithError(err).Error("Expired token cleanup failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid janitor schedule %q: %w", j.schedule, err)
	}

	j.cron.Start()
	j.logger.WithField("schedule", j.schedule).Info("Janitor started")
	return nil
}

// Stop stops the scheduler and waits for a running job
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// RunOnce deletes tokens whose expiry is older than the retention window
func (j *Janitor) RunOnce(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.tokens.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	j.logger.WithFields(logrus.Fields{
		"cutoff":  cutoff.Format(time.RFC3339),
		"deleted": deleted,
	}).Info("Expired webhook tokens removed")
	return deleted, nil
}
