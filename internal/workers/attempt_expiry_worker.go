package workers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/logger"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
)

// AttemptExpiryWorker cancels payment attempts that were initiated but
// never reached a terminal state. Checkout sessions abandoned in the
// browser leave such rows behind; they only move forward, so stale ones
// are flipped to cancelled after a TTL.
type AttemptExpiryWorker struct {
	db       *gorm.DB
	interval time.Duration
	ttl      time.Duration
}

func NewAttemptExpiryWorker(db *gorm.DB) *AttemptExpiryWorker {
	return &AttemptExpiryWorker{
		db:       db,
		interval: 15 * time.Minute,
		ttl:      2 * time.Hour,
	}
}

func (w *AttemptExpiryWorker) Start(ctx context.Context) {
	go w.expireStaleAttempts(ctx)
}

func (w *AttemptExpiryWorker) expireStaleAttempts(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.WorkerLog("attempt_expiry", "stopped", nil)
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-w.ttl)
			result := w.db.Model(&models.PaymentAttempt{}).
				Where("status IN ?", []models.AttemptStatus{models.AttemptStatusInitiated, models.AttemptStatusProcessing}).
				Where("initiated_at < ?", cutoff).
				Update("status", models.AttemptStatusCancelled)
			if result.Error != nil {
				logger.WorkerLog("attempt_expiry", "expire stale attempts", result.Error)
			} else if result.RowsAffected > 0 {
				logger.Info("cancelled stale payment attempts", "count", result.RowsAffected)
			}
		}
	}
}
