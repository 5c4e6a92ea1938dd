package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BaSui01/textscore/config"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, *gorm.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{})
	require.NoError(t, err)
	return mock, gormDB
}

func TestDialector(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql"} {
		d, err := Dialector(config.DatabaseConfig{Driver: driver, Host: "h", Port: 1, Name: "n"})
		require.NoError(t, err)
		assert.Equal(t, driver, d.Name())
	}

	_, err := Dialector(config.DatabaseConfig{Driver: "sqlite"})
	assert.Error(t, err)

	_, err = Dialector(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestOpen_SQLite(t *testing.T) {
	cfg := config.DatabaseConfig{
		Driver:       "sqlite",
		Name:         filepath.Join(t.TempDir(), "reports.db"),
		MaxOpenConns: 1,
	}
	pool, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	defer pool.Close()

	assert.NoError(t, pool.Ping(context.Background()))
	assert.NotNil(t, pool.DB())
}

func TestNewPool(t *testing.T) {
	_, db := setupMockDB(t)

	_, err := NewPool(nil, PoolConfig{}, nil)
	assert.Error(t, err)

	pool, err := NewPool(db, PoolConfig{MaxOpenConns: 4, MaxIdleConns: 2, ConnMaxLifetime: time.Minute}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pool.config.TxMaxAttempts)
	assert.Equal(t, 4, pool.sqlDB.Stats().MaxOpenConnections)
}

func TestPool_PingAndClose(t *testing.T) {
	mock, db := setupMockDB(t)
	pool, err := NewPool(db, PoolConfig{}, zap.NewNop())
	require.NoError(t, err)

	mock.ExpectPing()
	require.NoError(t, pool.Ping(context.Background()))

	mock.ExpectClose()
	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())
	assert.ErrorIs(t, pool.Ping(context.Background()), ErrClosed)
	assert.ErrorIs(t, pool.WithTransaction(context.Background(), func(*gorm.DB) error { return nil }), ErrClosed)
}

func TestPool_WithTransaction(t *testing.T) {
	mock, db := setupMockDB(t)
	pool, err := NewPool(db, PoolConfig{TxMaxAttempts: 2}, zap.NewNop())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, pool.WithTransaction(context.Background(), func(tx *gorm.DB) error { return nil }))

	mock.ExpectBegin()
	mock.ExpectRollback()
	boom := errors.New("boom")
	assert.ErrorIs(t, pool.WithTransaction(context.Background(), func(tx *gorm.DB) error { return boom }), boom)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPool_WithTransactionRetries(t *testing.T) {
	mock, db := setupMockDB(t)
	pool, err := NewPool(db, PoolConfig{TxMaxAttempts: 2}, zap.NewNop())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	err = pool.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		calls++
		if calls == 1 {
			return errors.New("ERROR: deadlock detected")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(errors.New("syntax error")))
	assert.True(t, isRetryableError(errors.New("pq: could not serialize access (SQLSTATE 40001)")))
	assert.True(t, isRetryableError(errors.New("driver: bad connection")))
	assert.True(t, isRetryableError(errors.New("database is locked (5) (SQLITE_BUSY)")))
}
