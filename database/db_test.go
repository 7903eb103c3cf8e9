package database

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blnkfinance/notifier/config"
)

func TestGetDBConnection_Failure(t *testing.T) {
	instance = nil
	once = sync.Once{}

	mockConfig := &config.Configuration{
		DataSource: config.DataSourceConfig{
			Dns: "invalid-dns",
		},
	}

	_, err := GetDBConnection(mockConfig)
	assert.Error(t, err)
	assert.Nil(t, instance)
}

func TestConnectDB_Failure(t *testing.T) {
	db, err := ConnectDB("invalid-dns")
	assert.Error(t, err)
	assert.Nil(t, db)
}
