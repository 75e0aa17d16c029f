// Package assignment records which staff member monitors a booking's chat.
// Assignments live in Redis so every API instance routes flagged-message
// alerts to the same person.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

type Store interface {
	Assign(ctx context.Context, bookingID, staffID int) error
	Unassign(ctx context.Context, bookingID int) error
	MonitorFor(ctx context.Context, bookingID int) (staffID int, ok bool, err error)
}

type redisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

func key(bookingID int) string {
	return fmt.Sprintf("booking:%d:monitor", bookingID)
}

func (s *redisStore) Assign(ctx context.Context, bookingID, staffID int) error {
	return s.rdb.Set(ctx, key(bookingID), staffID, 0).Err()
}

func (s *redisStore) Unassign(ctx context.Context, bookingID int) error {
	return s.rdb.Del(ctx, key(bookingID)).Err()
}

func (s *redisStore) MonitorFor(ctx context.Context, bookingID int) (int, bool, error) {
	val, err := s.rdb.Get(ctx, key(bookingID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	staffID, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("monitor for booking %d: %w", bookingID, err)
	}
	return staffID, true, nil
}
