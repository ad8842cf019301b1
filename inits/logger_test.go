package inits

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/CorrelAid/order_mailer/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Log
		wantErr bool
	}{
		{"json default", config.Log{Level: "info", Format: "json"}, false},
		{"console debug", config.Log{Level: "debug", Format: "console"}, false},
		{"empty format", config.Log{Level: "warn"}, false},
		{"bad level", config.Log{Level: "loud", Format: "json"}, true},
		{"bad format", config.Log{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mailer.log")
	logger, err := NewLogger(config.Log{Level: "info", Format: "json", File: path})
	require.NoError(t, err)

	logger.Info("hello from test")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}

func TestDBInit(t *testing.T) {
	db, err := DBInit()
	require.NoError(t, err)
	require.NotNil(t, db)

	txn := db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(DeliveryTable, "id")
	require.NoError(t, err)
	assert.Nil(t, it.Next())
}
