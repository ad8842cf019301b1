package routines

import (
	"context"
	"time"

	"github.com/CorrelAid/order_mailer/operations"
	"github.com/hashicorp/go-memdb"
	"go.uber.org/zap"
)

// StartCleanupRoutine sweeps expired idempotency records once immediately and
// then every interval until ctx is cancelled.
func StartCleanupRoutine(ctx context.Context, db *memdb.MemDB, interval time.Duration, log *zap.SugaredLogger) {
	cleanupRoutine(db, log)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debugw("Delivery ledger cleanup stopped")
			return
		case <-ticker.C:
			cleanupRoutine(db, log)
		}
	}
}

func cleanupRoutine(db *memdb.MemDB, log *zap.SugaredLogger) {
	keys, err := operations.DeleteExpired(db, time.Now())
	if err != nil {
		log.Errorw("Failed to clean up delivery ledger", "error", err)
		return
	}
	for _, key := range keys {
		log.Debugw("Deleted expired delivery record", "idempotencyKey", key)
	}
	if len(keys) > 0 {
		log.Infow("Cleaned up delivery ledger", "deleted", len(keys))
	}
}
