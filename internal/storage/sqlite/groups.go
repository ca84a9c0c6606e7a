package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const groupColumns = `id, name, description, thumbnail, admin_email,
	payment_amount, payment_currency, payment_date, payment_is_paid,
	created_at, updated_at`

var sortColumns = map[storage.SortField]string{
	storage.SortByCreatedAt: "created_at",
	storage.SortByName:      "name",
}

func scanGroup(row rowScanner) (*models.Group, error) {
	g := &models.Group{}
	var isPaid int
	err := row.Scan(
		&g.ID, &g.Name, &g.Description, &g.Thumbnail, &g.AdminEmail,
		&g.PaymentStatus.Amount, &g.PaymentStatus.Currency, &g.PaymentStatus.Date, &isPaid,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.PaymentStatus.IsPaid = isPaid != 0
	return g, nil
}

// CreateGroup persists a new group and its members.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if group.CreatedAt == 0 {
		group.CreatedAt = now
	}
	if group.UpdatedAt == 0 {
		group.UpdatedAt = now
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO groups (`+groupColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			group.ID, group.Name, group.Description, group.Thumbnail, models.NormalizeEmail(group.AdminEmail),
			group.PaymentStatus.Amount, group.PaymentStatus.Currency, group.PaymentStatus.Date,
			boolToInt(group.PaymentStatus.IsPaid),
			group.CreatedAt, group.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}
		return writeMembers(ctx, tx, group)
	})
}

// GetGroup retrieves a group by ID, including its members.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return getGroup(ctx, s.db, groupID)
}

func getGroup(ctx context.Context, q querier, groupID string) (*models.Group, error) {
	group, err := scanGroup(q.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE id = ?`, groupID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	members, err := loadMembers(ctx, q, []string{group.ID})
	if err != nil {
		return nil, err
	}
	group.Members = members[group.ID]
	return group, nil
}

// UpdateGroup writes the whole group aggregate in one transaction.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return updateGroup(ctx, tx, group)
	})
}

func updateGroup(ctx context.Context, tx *sql.Tx, group *models.Group) error {
	group.UpdatedAt = time.Now().Unix()

	res, err := tx.ExecContext(ctx,
		`UPDATE groups SET name = ?, description = ?, thumbnail = ?, admin_email = ?,
			payment_amount = ?, payment_currency = ?, payment_date = ?, payment_is_paid = ?,
			updated_at = ?
		 WHERE id = ?`,
		group.Name, group.Description, group.Thumbnail, models.NormalizeEmail(group.AdminEmail),
		group.PaymentStatus.Amount, group.PaymentStatus.Currency, group.PaymentStatus.Date,
		boolToInt(group.PaymentStatus.IsPaid),
		group.UpdatedAt, group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if err := expectAffected(res, "group", group.ID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = ?`, group.ID); err != nil {
		return fmt.Errorf("failed to clear group members: %w", err)
	}
	return writeMembers(ctx, tx, group)
}

// ModifyGroup loads a group, applies fn to the in-memory aggregate and
// writes it back, all in one transaction.
func (s *SQLiteStore) ModifyGroup(ctx context.Context, groupID string, fn func(*models.Group) error) (*models.Group, error) {
	var group *models.Group
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		g, err := getGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if err := fn(g); err != nil {
			return err
		}
		if err := updateGroup(ctx, tx, g); err != nil {
			return err
		}
		group = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// AddGroupMembers adds members that are not already in the group.
func (s *SQLiteStore) AddGroupMembers(ctx context.Context, groupID string, members []models.Member) (*models.Group, error) {
	return s.ModifyGroup(ctx, groupID, func(g *models.Group) error {
		g.AddMembers(members)
		return nil
	})
}

// RemoveGroupMembers removes the given emails from the group.
func (s *SQLiteStore) RemoveGroupMembers(ctx context.Context, groupID string, emails []string) (*models.Group, error) {
	return s.ModifyGroup(ctx, groupID, func(g *models.Group) error {
		_, err := g.RemoveMembers(emails)
		return err
	})
}

// UpdateMemberRole sets the role of one member.
func (s *SQLiteStore) UpdateMemberRole(ctx context.Context, groupID, email string, role models.Role) (*models.Group, error) {
	return s.ModifyGroup(ctx, groupID, func(g *models.Group) error {
		return g.SetMemberRole(email, role)
	})
}

// ListGroupsPaginated returns a page of the groups email is a member of.
func (s *SQLiteStore) ListGroupsPaginated(ctx context.Context, email string, opts storage.GroupListOptions) ([]*models.Group, int, error) {
	where := `id IN (SELECT group_id FROM group_members WHERE email = ?)`
	args := []any{models.NormalizeEmail(email)}
	if opts.IsPaid != nil {
		where += ` AND payment_is_paid = ?`
		args = append(args, boolToInt(*opts.IsPaid))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM groups WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	column, ok := sortColumns[opts.SortBy]
	if !ok {
		column = sortColumns[storage.SortByCreatedAt]
	}
	direction := "DESC"
	if opts.Ascending {
		direction = "ASC"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM groups WHERE %s ORDER BY %s %s, id LIMIT ? OFFSET ?`,
			groupColumns, where, column, direction),
		append(args, limit, opts.Skip)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	var ids []string
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
		ids = append(ids, g.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate groups: %w", err)
	}
	rows.Close()

	members, err := loadMembers(ctx, s.db, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, g := range groups {
		g.Members = members[g.ID]
	}

	return groups, total, nil
}

// DeleteGroup removes a group. Members and expenses cascade.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return expectAffected(res, "group", groupID)
}

// loadMembers fetches the ordered member lists of the given groups.
func loadMembers(ctx context.Context, q querier, groupIDs []string) (map[string][]models.Member, error) {
	out := make(map[string][]models.Member, len(groupIDs))
	if len(groupIDs) == 0 {
		return out, nil
	}

	args := make([]any, len(groupIDs))
	for i, id := range groupIDs {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx,
		`SELECT group_id, email, role FROM group_members
		 WHERE group_id IN (`+placeholders(len(groupIDs))+`)
		 ORDER BY group_id, position`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var groupID, email, role string
		if err := rows.Scan(&groupID, &email, &role); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		out[groupID] = append(out[groupID], models.Member{Email: email, Role: models.Role(role)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return out, nil
}

func writeMembers(ctx context.Context, tx *sql.Tx, group *models.Group) error {
	for i, m := range group.Members {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO group_members (group_id, email, role, position) VALUES (?, ?, ?, ?)",
			group.ID, models.NormalizeEmail(m.Email), string(m.Role), i,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("member %s: %w", m.Email, storage.ErrAlreadyExists)
		}
		if err != nil {
			return fmt.Errorf("failed to insert member: %w", err)
		}
	}
	return nil
}
