package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/circles/internal/models"
	"github.com/mmynk/circles/internal/storage"
)

const membershipColumns = `id, user_id, circle_id, status, vacation_days, created_at, updated_at`

// CreateMembership persists a new membership. A second membership for the
// same (user, circle) pair fails with storage.ErrConflict.
func (q querier) CreateMembership(ctx context.Context, m *models.Membership) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = m.CreatedAt

	_, err := q.exec(ctx,
		`INSERT INTO memberships (`+membershipColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.CircleID, string(m.Status), m.VacationDays,
		m.CreatedAt.Unix(), m.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

// GetMembership retrieves a membership by ID.
func (q querier) GetMembership(ctx context.Context, membershipID string) (*models.Membership, error) {
	var row membershipRow
	err := q.get(ctx, &row,
		q.forUpdate(`SELECT `+membershipColumns+` FROM memberships WHERE id = ?`, ""),
		membershipID,
	)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("membership %s: %w", membershipID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return row.model(), nil
}

// FindMembership retrieves the membership of userID in circleID.
func (q querier) FindMembership(ctx context.Context, userID, circleID string) (*models.Membership, error) {
	var row membershipRow
	err := q.get(ctx, &row,
		q.forUpdate(`SELECT `+membershipColumns+` FROM memberships WHERE user_id = ? AND circle_id = ?`, ""),
		userID, circleID,
	)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("membership of %s in %s: %w", userID, circleID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}
	return row.model(), nil
}

// ListMemberships returns the memberships of a circle in the given status.
func (q querier) ListMemberships(ctx context.Context, circleID string, status models.MembershipStatus) ([]models.Membership, error) {
	var rows []membershipRow
	err := q.selectAll(ctx, &rows,
		q.forUpdate(`SELECT `+membershipColumns+` FROM memberships
		 WHERE circle_id = ? AND status = ? ORDER BY created_at, id`, ""),
		circleID, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	result := make([]models.Membership, len(rows))
	for i, row := range rows {
		result[i] = *row.model()
	}
	return result, nil
}

// UpdateMembership writes status and vacation days if the row still holds
// the values in prev.
func (q querier) UpdateMembership(ctx context.Context, m *models.Membership, prev models.Membership) error {
	m.UpdatedAt = time.Now()
	err := q.execGuarded(ctx,
		`UPDATE memberships SET status = ?, vacation_days = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND vacation_days = ?`,
		string(m.Status), m.VacationDays, m.UpdatedAt.Unix(),
		m.ID, string(prev.Status), prev.VacationDays,
	)
	if err != nil {
		return fmt.Errorf("failed to update membership %s: %w", m.ID, err)
	}
	return nil
}
