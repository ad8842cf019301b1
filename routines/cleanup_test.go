package routines

import (
	"context"
	"testing"
	"time"

	"github.com/CorrelAid/order_mailer/inits"
	"github.com/CorrelAid/order_mailer/models"
	"github.com/CorrelAid/order_mailer/operations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartCleanupRoutine(t *testing.T) {
	db, err := inits.DBInit()
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, operations.InsertDelivery(db, "expired", models.Receipt{MessageID: "1"}, now.Add(-time.Second)))
	require.NoError(t, operations.InsertDelivery(db, "live", models.Receipt{MessageID: "2"}, now.Add(time.Hour)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StartCleanupRoutine(ctx, db, 10*time.Millisecond, inits.NewTestLogger())
		close(done)
	}()

	require.Eventually(t, func() bool {
		txn := db.Txn(false)
		defer txn.Abort()
		raw, err := txn.First(inits.DeliveryTable, "id", "expired")
		return err == nil && raw == nil
	}, time.Second, 5*time.Millisecond)

	_, ok, err := operations.FindDelivery(db, "live", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup routine did not stop after cancel")
	}
}
