package clinic

import (
	"context"
	"time"

	"go.uber.org/zap"

	"clinic-management/monitoring"
	"clinic-management/utils"
)

const DefaultReminderInterval = 5 * time.Minute

// ReminderScheduler runs the secretary's reminder sweep on a fixed interval.
type ReminderScheduler struct {
	secretary *Secretary
	interval  time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewReminderScheduler(secretary *Secretary, interval time.Duration, logger *zap.Logger) *ReminderScheduler {
	if interval <= 0 {
		interval = DefaultReminderInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderScheduler{
		secretary: secretary,
		interval:  interval,
		now:       time.Now,
		logger:    logger,
	}
}

// Run sweeps once straight away and then on every tick until ctx is done.
func (r *ReminderScheduler) Run(ctx context.Context) {
	r.logger.Info("reminder scheduler started", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reminder scheduler stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep flags the appointments due now and returns how many were flagged.
func (r *ReminderScheduler) Sweep(ctx context.Context) int {
	flagged, err := r.secretary.SendAppointmentReminders(ctx, r.now())
	monitoring.RemindersFlagged.Add(float64(flagged))
	if err != nil {
		r.logger.Error("reminder sweep failed", zap.Int("flagged", flagged), zap.Error(err))
		utils.CaptureError(err, map[string]interface{}{"component": "reminders"})
		return flagged
	}
	if flagged > 0 {
		r.logger.Info("appointment reminders flagged", zap.Int("count", flagged))
	}
	return flagged
}
