package inits

import (
	"fmt"

	"github.com/hashicorp/go-memdb"
)

const DeliveryTable = "delivery"

// DBInit creates the in-memory ledger that maps idempotency keys to the
// receipt of the delivery they produced.
func DBInit() (*memdb.MemDB, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			DeliveryTable: {
				Name: DeliveryTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:         "id",
						Unique:       true,
						Indexer:      &memdb.StringFieldIndex{Field: "Key"},
						AllowMissing: false,
					},
					"message": {
						Name:         "message",
						Unique:       false,
						Indexer:      &memdb.StringFieldIndex{Field: "MessageID"},
						AllowMissing: false,
					},
				},
			},
		},
	}

	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("create delivery ledger: %w", err)
	}
	return db, nil
}
