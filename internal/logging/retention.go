package logging

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/skyreachair/leadfunnel/internal/models"
	"gorm.io/gorm"
)

// Retention deletes system_logs older than a fixed number of days on a cron schedule.
type Retention struct {
	db   *gorm.DB
	days int
	cron *cron.Cron
	now  func() time.Time
}

func NewRetention(db *gorm.DB, days int) *Retention {
	if days <= 0 {
		days = 30
	}
	return &Retention{
		db:   db,
		days: days,
		cron: cron.New(),
		now:  time.Now,
	}
}

// Start schedules the purge daily at 03:00 server time.
func (r *Retention) Start() error {
	if _, err := r.cron.AddFunc("0 3 * * *", func() { _, _ = r.Purge() }); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop waits for a running purge to finish.
func (r *Retention) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Retention) Purge() (int64, error) {
	cutoff := r.now().AddDate(0, 0, -r.days)
	result := r.db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Warn("log cleanup failed", "error", result.Error)
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
