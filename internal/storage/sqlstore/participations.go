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

// GetParticipation retrieves a participation and its meeting.
func (q querier) GetParticipation(ctx context.Context, participationID string) (*models.ParticipationDetail, error) {
	var row participationDetailRow
	err := q.get(ctx, &row,
		q.forUpdate(`SELECT `+participationDetailColumns+`
		 FROM participations p JOIN meetings m ON m.id = p.meeting_id
		 WHERE p.id = ?`, "p"),
		participationID,
	)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("participation %s: %w", participationID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	detail := row.model()
	return &detail, nil
}

// ListFutureParticipations returns the non-cancelled participations of a
// user in meetings of a circle that start at or after now.
func (q querier) ListFutureParticipations(ctx context.Context, userID, circleID string, now time.Time) ([]models.ParticipationDetail, error) {
	var rows []participationDetailRow
	err := q.selectAll(ctx, &rows,
		q.forUpdate(`SELECT `+participationDetailColumns+`
		 FROM participations p JOIN meetings m ON m.id = p.meeting_id
		 WHERE p.user_id = ? AND m.circle_id = ? AND m.start_time >= ? AND p.status <> ?
		 ORDER BY m.start_time, p.id`, "p"),
		userID, circleID, now.Unix(), string(models.ParticipationCancelled),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}

	result := make([]models.ParticipationDetail, len(rows))
	for i, row := range rows {
		result[i] = row.model()
	}
	return result, nil
}

// UpdateParticipation writes status and amount paid if the row still holds
// the values in prev.
func (q querier) UpdateParticipation(ctx context.Context, p *models.Participation, prev models.Participation) error {
	err := q.execGuarded(ctx,
		`UPDATE participations SET status = ?, amount_paid = ?
		 WHERE id = ? AND status = ? AND amount_paid = ?`,
		string(p.Status), p.AmountPaid,
		p.ID, string(prev.Status), prev.AmountPaid,
	)
	if err != nil {
		return fmt.Errorf("failed to update participation %s: %w", p.ID, err)
	}
	return nil
}

// ActivateParticipation upserts an active participation on the
// (user, meeting) key. Only cancelled rows are overwritten.
func (q querier) ActivateParticipation(ctx context.Context, p *models.Participation) error {
	id := p.ID
	if id == "" {
		id = uuid.New().String()
	}

	_, err := q.exec(ctx,
		`INSERT INTO participations (id, user_id, meeting_id, status, amount_paid)
		 VALUES (?, ?, ?, ?, 0)
		 ON CONFLICT (user_id, meeting_id) DO UPDATE SET status = excluded.status, amount_paid = 0
		 WHERE participations.status = ?`,
		id, p.UserID, p.MeetingID, string(models.ParticipationActive), string(models.ParticipationCancelled),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert participation: %w", err)
	}

	var row participationRow
	err = q.get(ctx, &row,
		`SELECT id, user_id, meeting_id, status, amount_paid
		 FROM participations WHERE user_id = ? AND meeting_id = ?`,
		p.UserID, p.MeetingID,
	)
	if err != nil {
		return fmt.Errorf("failed to read participation: %w", err)
	}
	*p = row.model()
	return nil
}
