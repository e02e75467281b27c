package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLDSN(t *testing.T) {
	dsn, err := MySQLDSN("pulse:secret@tcp(127.0.0.1:3306)/pulseboard?charset=utf8mb4")
	require.NoError(t, err)
	assert.Contains(t, dsn, "clientFoundRows=true")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")

	_, err = MySQLDSN("not a dsn")
	assert.Error(t, err)
}
