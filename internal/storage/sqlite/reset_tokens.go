package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/storage"
)

// ResetTokens returns a storage.ResetTokenStore backed by the users table.
// A user has at most one pending token; saving a new one replaces it.
func (s *SQLiteStore) ResetTokens() storage.ResetTokenStore {
	return &resetTokenStore{db: s.db}
}

type resetTokenStore struct {
	db *sql.DB
}

func (r *resetTokenStore) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET reset_token = ?, reset_expires_at = ? WHERE id = ?`,
		token, time.Now().Add(ttl).UnixMilli(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}
	return expectAffected(res, "user", userID)
}

func (r *resetTokenStore) Lookup(ctx context.Context, token string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE reset_token = ? AND reset_expires_at > ?`,
		token, time.Now().UnixMilli(),
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("reset token: %w", storage.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up reset token: %w", err)
	}
	return userID, nil
}

func (r *resetTokenStore) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET reset_token = NULL, reset_expires_at = NULL WHERE reset_token = ?`,
		token,
	)
	if err != nil {
		return fmt.Errorf("failed to delete reset token: %w", err)
	}
	return nil
}
