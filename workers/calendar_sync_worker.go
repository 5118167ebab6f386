// workers/calendar_sync_worker.go
package workers

import (
	"context"
	"time"

	"team-rsvp/services"

	"go.uber.org/zap"
)

// Refresher is the part of the ingest service the worker drives.
type Refresher interface {
	Refresh(ctx context.Context) services.Snapshot
}

// CalendarSyncWorker keeps the game store in step with the calendar feed even when
// nobody is browsing.
type CalendarSyncWorker struct {
	ingest   Refresher
	interval time.Duration
	logger   *zap.Logger
}

func NewCalendarSyncWorker(ingest Refresher, interval time.Duration, logger *zap.Logger) *CalendarSyncWorker {
	if interval <= 0 {
		interval = 12 * time.Hour
	}
	return &CalendarSyncWorker{
		ingest:   ingest,
		interval: interval,
		logger:   logger,
	}
}

// Start runs the worker in the background until ctx is done.
func (w *CalendarSyncWorker) Start(ctx context.Context) {
	w.logger.Info("starting calendar sync worker", zap.Duration("interval", w.interval))
	go w.Run(ctx)
}

// Run syncs once immediately, then on every tick. It returns when ctx is done.
func (w *CalendarSyncWorker) Run(ctx context.Context) {
	w.sync(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sync(ctx)
		case <-ctx.Done():
			w.logger.Info("calendar sync worker stopped")
			return
		}
	}
}

func (w *CalendarSyncWorker) sync(ctx context.Context) {
	started := time.Now()
	snap := w.ingest.Refresh(ctx)

	fields := []zap.Field{
		zap.Int("games", len(snap.Games)),
		zap.Bool("stale", snap.Stale),
		zap.Duration("took", time.Since(started)),
	}
	if len(snap.Warnings) > 0 {
		w.logger.Warn("calendar sync finished with warnings", append(fields, zap.Strings("warnings", snap.Warnings))...)
		return
	}
	w.logger.Info("calendar sync finished", fields...)
}
