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

// CreateCircle persists a new circle. ID and CreatedAt are generated when
// unset.
func (q querier) CreateCircle(ctx context.Context, circle *models.Circle) error {
	if circle.ID == "" {
		circle.ID = uuid.New().String()
	}
	if circle.CreatedAt.IsZero() {
		circle.CreatedAt = time.Now()
	}

	_, err := q.exec(ctx,
		`INSERT INTO circles (id, moderator_id, min_members, max_members, price, currency, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		circle.ID, circle.ModeratorID, circle.MinMembers, circle.MaxMembers,
		circle.Price, circle.Currency, circle.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert circle: %w", err)
	}
	return nil
}

// GetCircle retrieves a circle by ID.
func (q querier) GetCircle(ctx context.Context, circleID string) (*models.Circle, error) {
	var row circleRow
	err := q.get(ctx, &row,
		`SELECT id, moderator_id, min_members, max_members, price, currency, created_at
		 FROM circles WHERE id = ?`,
		circleID,
	)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("circle %s: %w", circleID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get circle: %w", err)
	}
	return row.model(), nil
}
