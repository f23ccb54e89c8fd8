package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BartekS5/snapetl/pkg/logger"
)

func TestConnectSQL_UnsupportedDriver(t *testing.T) {
	_, err := ConnectSQL(context.Background(), logger.NewTest(), "sqlite3", "file::memory:")
	require.ErrorContains(t, err, "unsupported SQL driver")
}
