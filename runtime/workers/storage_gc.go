package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// StorageGCWorker runs Badger's value-log garbage collection on a timer.
// Badger never reclaims value-log space on its own; without this loop the
// store grows forever under message churn.
type StorageGCWorker struct {
	log      *slog.Logger
	db       *badger.DB
	interval time.Duration
}

func NewStorageGCWorker(log *slog.Logger, db *badger.DB, interval time.Duration) *StorageGCWorker {
	return &StorageGCWorker{log: log, db: db, interval: interval}
}

func (w *StorageGCWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// Rewrite at most one value-log file per tick; ErrNoRewrite
			// just means there was nothing worth collecting.
			err := w.db.RunValueLogGC(0.5)
			switch err {
			case nil:
				w.log.Debug("Value log file collected")
			case badger.ErrNoRewrite:
			default:
				w.log.Warn("Value log GC failed", "error", err)
			}
		}
	}
}
