package operations

import (
	"fmt"
	"time"

	"github.com/CorrelAid/order_mailer/inits"
	"github.com/CorrelAid/order_mailer/models"
	"github.com/hashicorp/go-memdb"
)

// InsertDelivery records the receipt of a delivered submission under its
// idempotency key. An existing record for the key is replaced.
func InsertDelivery(db *memdb.MemDB, key string, receipt models.Receipt, expiresAt time.Time) error {
	record := &models.DeliveryRecord{
		Key:       key,
		MessageID: receipt.MessageID,
		Transport: receipt.Transport,
		ExpiresAt: expiresAt,
	}

	txn := db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(inits.DeliveryTable, record); err != nil {
		return fmt.Errorf("insert delivery %s: %w", key, err)
	}

	txn.Commit()
	return nil
}

// FindDelivery returns the receipt recorded for key, ignoring records that
// expired but were not swept yet.
func FindDelivery(db *memdb.MemDB, key string, now time.Time) (models.Receipt, bool, error) {
	txn := db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(inits.DeliveryTable, "id", key)
	if err != nil {
		return models.Receipt{}, false, fmt.Errorf("find delivery %s: %w", key, err)
	}
	if raw == nil {
		return models.Receipt{}, false, nil
	}
	record := raw.(*models.DeliveryRecord)
	if record.Expired(now) {
		return models.Receipt{}, false, nil
	}
	return record.Receipt(), true, nil
}

// DeleteExpired removes every record that expired at now and returns the
// removed keys.
func DeleteExpired(db *memdb.MemDB, now time.Time) ([]string, error) {
	txn := db.Txn(true)
	defer txn.Abort()

	it, err := txn.Get(inits.DeliveryTable, "id")
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}

	var expired []*models.DeliveryRecord
	for obj := it.Next(); obj != nil; obj = it.Next() {
		record := obj.(*models.DeliveryRecord)
		if record.Expired(now) {
			expired = append(expired, record)
		}
	}

	keys := make([]string, 0, len(expired))
	for _, record := range expired {
		if err := txn.Delete(inits.DeliveryTable, record); err != nil {
			return nil, fmt.Errorf("delete delivery %s: %w", record.Key, err)
		}
		keys = append(keys, record.Key)
	}

	txn.Commit()
	return keys, nil
}
