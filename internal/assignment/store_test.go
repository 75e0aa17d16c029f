package assignment

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssign(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db)

	mock.ExpectSet("booking:7:monitor", 42, 0).SetVal("OK")

	require.NoError(t, store.Assign(context.Background(), 7, 42))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMonitorFor(t *testing.T) {
	ctx := context.Background()

	t.Run("assigned", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectGet("booking:7:monitor").SetVal("42")

		id, ok, err := NewRedisStore(db).MonitorFor(ctx, 7)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 42, id)
	})

	t.Run("unassigned", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectGet("booking:8:monitor").RedisNil()

		id, ok, err := NewRedisStore(db).MonitorFor(ctx, 8)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, id)
	})

	t.Run("redis down", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectGet("booking:9:monitor").SetErr(errors.New("connection refused"))

		_, ok, err := NewRedisStore(db).MonitorFor(ctx, 9)
		assert.Error(t, err)
		assert.False(t, ok)
	})

	t.Run("corrupt value", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectGet("booking:10:monitor").SetVal("not-a-number")

		_, _, err := NewRedisStore(db).MonitorFor(ctx, 10)
		assert.Error(t, err)
	})
}

func TestUnassign(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectDel("booking:7:monitor").SetVal(1)

	require.NoError(t, NewRedisStore(db).Unassign(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}
