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

const meetingColumns = `id, circle_id, start_time, end_time, price, currency, status`

// CreateMeeting persists a new meeting.
func (q querier) CreateMeeting(ctx context.Context, meeting *models.Meeting) error {
	if meeting.ID == "" {
		meeting.ID = uuid.New().String()
	}
	if meeting.Status == "" {
		meeting.Status = models.MeetingScheduled
	}

	_, err := q.exec(ctx,
		`INSERT INTO meetings (`+meetingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		meeting.ID, meeting.CircleID, meeting.StartTime.Unix(), meeting.EndTime.Unix(),
		meeting.Price, meeting.Currency, string(meeting.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert meeting: %w", err)
	}
	return nil
}

// GetMeeting retrieves a meeting by ID.
func (q querier) GetMeeting(ctx context.Context, meetingID string) (*models.Meeting, error) {
	var row meetingRow
	err := q.get(ctx, &row,
		`SELECT `+meetingColumns+` FROM meetings WHERE id = ?`,
		meetingID,
	)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("meeting %s: %w", meetingID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return row.model(), nil
}

// ListUpcomingMeetings returns scheduled meetings of a circle starting at or
// after now, earliest first.
func (q querier) ListUpcomingMeetings(ctx context.Context, circleID string, now time.Time) ([]models.Meeting, error) {
	var rows []meetingRow
	err := q.selectAll(ctx, &rows,
		`SELECT `+meetingColumns+` FROM meetings
		 WHERE circle_id = ? AND status = ? AND start_time >= ?
		 ORDER BY start_time, id`,
		circleID, string(models.MeetingScheduled), now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}

	result := make([]models.Meeting, len(rows))
	for i, row := range rows {
		result[i] = *row.model()
	}
	return result, nil
}
