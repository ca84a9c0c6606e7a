// Package redis keeps short-lived password reset tokens in Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mmynk/splitledger/internal/storage"
)

var _ storage.ResetTokenStore = (*ResetTokenStore)(nil)

// ResetTokenStore implements storage.ResetTokenStore. Each token maps to a
// user ID under "<prefix>:token:<token>" and each user maps back to its
// pending token under "<prefix>:user:<id>", so a new token replaces the
// previous one.
type ResetTokenStore struct {
	rdb    goredis.UniversalClient
	prefix string
}

// NewResetTokenStore creates a store using keys under prefix.
func NewResetTokenStore(rdb goredis.UniversalClient, prefix string) *ResetTokenStore {
	if prefix == "" {
		prefix = "splitledger:reset"
	}
	return &ResetTokenStore{rdb: rdb, prefix: prefix}
}

func (s *ResetTokenStore) tokenKey(token string) string { return s.prefix + ":token:" + token }
func (s *ResetTokenStore) userKey(userID string) string { return s.prefix + ":user:" + userID }

func (s *ResetTokenStore) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	previous, err := s.rdb.Get(ctx, s.userKey(userID)).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("failed to read pending reset token: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		if previous != "" {
			pipe.Del(ctx, s.tokenKey(previous))
		}
		pipe.Set(ctx, s.tokenKey(token), userID, ttl)
		pipe.Set(ctx, s.userKey(userID), token, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}
	return nil
}

func (s *ResetTokenStore) Lookup(ctx context.Context, token string) (string, error) {
	userID, err := s.rdb.Get(ctx, s.tokenKey(token)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", fmt.Errorf("reset token: %w", storage.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up reset token: %w", err)
	}
	return userID, nil
}

func (s *ResetTokenStore) Delete(ctx context.Context, token string) error {
	userID, err := s.rdb.GetDel(ctx, s.tokenKey(token)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete reset token: %w", err)
	}

	// Only drop the user link if it still points at this token.
	pending, err := s.rdb.Get(ctx, s.userKey(userID)).Result()
	if err == nil && pending == token {
		if err := s.rdb.Del(ctx, s.userKey(userID)).Err(); err != nil {
			return fmt.Errorf("failed to delete reset token: %w", err)
		}
	}
	return nil
}
