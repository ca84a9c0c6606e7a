package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// GroupLoader is the part of the group store the engine needs.
type GroupLoader interface {
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
}

// Decision is the outcome of a successful group check. Handlers reuse the
// loaded group instead of fetching it again.
type Decision struct {
	Group *models.Group
	Role  models.Role
}

// Engine loads groups and applies the group-level checks.
type Engine struct {
	groups GroupLoader
}

// NewEngine creates an access engine reading groups from the given loader.
func NewEngine(groups GroupLoader) *Engine {
	return &Engine{groups: groups}
}

// Group authorizes action on the group identified by groupID.
func (e *Engine) Group(ctx context.Context, p Principal, groupID string, action Action) (*Decision, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, ErrGroupIDRequired
	}

	group, err := e.groups.GetGroup(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}

	role, err := AuthorizeGroup(p, group, action)
	if err != nil {
		slog.Warn("Group access denied",
			"group_id", groupID,
			"user_id", p.ID,
			"action", action,
			"role", role,
			"error", err,
		)
		return nil, err
	}

	return &Decision{Group: group, Role: role}, nil
}
