package application

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Ticker is what the scheduler drives.
type Ticker interface {
	Tick(ctx context.Context, now time.Time) (TickReport, error)
}

// Scheduler feeds timer ticks to the engine until its context is cancelled.
type Scheduler struct {
	ticker   Ticker
	interval time.Duration
	clock    func() time.Time
}

func NewScheduler(t Ticker, interval time.Duration) *Scheduler {
	return &Scheduler{ticker: t, interval: interval, clock: time.Now}
}

// Run blocks, ticking every interval. Tick errors are logged and the loop
// keeps going.
func (s *Scheduler) Run(ctx context.Context) {
	log.Info("Price-drop scheduler started", zap.Duration("interval", s.interval))
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Price-drop scheduler stopped")
			return
		case <-t.C:
			report, err := s.ticker.Tick(ctx, s.clock().UTC())
			if err != nil {
				log.Error("Scheduler tick finished with errors", zap.Error(err))
			}
			if report.Due > 0 {
				log.Debug("Scheduler tick",
					zap.Int("due", report.Due),
					zap.Int("priceDrops", report.PriceDrops),
					zap.Int("sold", report.Sold),
					zap.Int("ended", report.Ended),
					zap.Int("failed", report.Failed),
				)
			}
		}
	}
}
