package operations

import (
	"testing"
	"time"

	"github.com/CorrelAid/order_mailer/inits"
	"github.com/CorrelAid/order_mailer/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndFindDelivery(t *testing.T) {
	db, err := inits.DBInit()
	require.NoError(t, err)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	receipt := models.Receipt{MessageID: "<id-1@example.com>", Transport: "primary"}
	require.NoError(t, InsertDelivery(db, "key-1", receipt, now.Add(time.Hour)))

	got, ok, err := FindDelivery(db, "key-1", now)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, receipt, got)

	_, ok, err = FindDelivery(db, "key-2", now)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = FindDelivery(db, "key-1", now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "record expiring exactly now is gone")
}

func TestInsertDelivery_Replaces(t *testing.T) {
	db, err := inits.DBInit()
	require.NoError(t, err)
	now := time.Now()

	require.NoError(t, InsertDelivery(db, "k", models.Receipt{MessageID: "a", Transport: "primary"}, now.Add(time.Hour)))
	require.NoError(t, InsertDelivery(db, "k", models.Receipt{MessageID: "b", Transport: "backup"}, now.Add(time.Hour)))

	got, ok, err := FindDelivery(db, "k", now)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", got.MessageID)
	assert.Equal(t, "backup", got.Transport)
}

func TestDeleteExpired(t *testing.T) {
	db, err := inits.DBInit()
	require.NoError(t, err)
	now := time.Now()

	require.NoError(t, InsertDelivery(db, "old", models.Receipt{MessageID: "1"}, now.Add(-time.Minute)))
	require.NoError(t, InsertDelivery(db, "edge", models.Receipt{MessageID: "2"}, now))
	require.NoError(t, InsertDelivery(db, "fresh", models.Receipt{MessageID: "3"}, now.Add(time.Minute)))

	keys, err := DeleteExpired(db, now)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"old", "edge"}, keys)

	_, ok, err := FindDelivery(db, "fresh", now)
	require.NoError(t, err)
	assert.True(t, ok)

	keys, err = DeleteExpired(db, now)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
