package sqlstore

import (
	"time"

	"github.com/mmynk/circles/internal/models"
)

type circleRow struct {
	ID          string `db:"id"`
	ModeratorID string `db:"moderator_id"`
	MinMembers  int    `db:"min_members"`
	MaxMembers  int    `db:"max_members"`
	Price       int64  `db:"price"`
	Currency    string `db:"currency"`
	CreatedAt   int64  `db:"created_at"`
}

func (r circleRow) model() *models.Circle {
	return &models.Circle{
		ID:          r.ID,
		ModeratorID: r.ModeratorID,
		MinMembers:  r.MinMembers,
		MaxMembers:  r.MaxMembers,
		Price:       r.Price,
		Currency:    r.Currency,
		CreatedAt:   time.Unix(r.CreatedAt, 0).UTC(),
	}
}

type membershipRow struct {
	ID           string `db:"id"`
	UserID       string `db:"user_id"`
	CircleID     string `db:"circle_id"`
	Status       string `db:"status"`
	VacationDays int    `db:"vacation_days"`
	CreatedAt    int64  `db:"created_at"`
	UpdatedAt    int64  `db:"updated_at"`
}

func (r membershipRow) model() *models.Membership {
	return &models.Membership{
		ID:           r.ID,
		UserID:       r.UserID,
		CircleID:     r.CircleID,
		Status:       models.MembershipStatus(r.Status),
		VacationDays: r.VacationDays,
		CreatedAt:    time.Unix(r.CreatedAt, 0).UTC(),
		UpdatedAt:    time.Unix(r.UpdatedAt, 0).UTC(),
	}
}

type meetingRow struct {
	ID        string `db:"id"`
	CircleID  string `db:"circle_id"`
	StartTime int64  `db:"start_time"`
	EndTime   int64  `db:"end_time"`
	Price     int64  `db:"price"`
	Currency  string `db:"currency"`
	Status    string `db:"status"`
}

func (r meetingRow) model() *models.Meeting {
	return &models.Meeting{
		ID:        r.ID,
		CircleID:  r.CircleID,
		StartTime: time.Unix(r.StartTime, 0).UTC(),
		EndTime:   time.Unix(r.EndTime, 0).UTC(),
		Price:     r.Price,
		Currency:  r.Currency,
		Status:    models.MeetingStatus(r.Status),
	}
}

type participationRow struct {
	ID         string `db:"id"`
	UserID     string `db:"user_id"`
	MeetingID  string `db:"meeting_id"`
	Status     string `db:"status"`
	AmountPaid int64  `db:"amount_paid"`
}

func (r participationRow) model() models.Participation {
	return models.Participation{
		ID:         r.ID,
		UserID:     r.UserID,
		MeetingID:  r.MeetingID,
		Status:     models.ParticipationStatus(r.Status),
		AmountPaid: r.AmountPaid,
	}
}

// participationDetailRow is a participation joined with its meeting.
type participationDetailRow struct {
	participationRow
	MeetingCircleID  string `db:"meeting_circle_id"`
	MeetingStartTime int64  `db:"meeting_start_time"`
	MeetingEndTime   int64  `db:"meeting_end_time"`
	MeetingPrice     int64  `db:"meeting_price"`
	MeetingCurrency  string `db:"meeting_currency"`
	MeetingStatus    string `db:"meeting_status"`
}

func (r participationDetailRow) model() models.ParticipationDetail {
	meeting := meetingRow{
		ID:        r.MeetingID,
		CircleID:  r.MeetingCircleID,
		StartTime: r.MeetingStartTime,
		EndTime:   r.MeetingEndTime,
		Price:     r.MeetingPrice,
		Currency:  r.MeetingCurrency,
		Status:    r.MeetingStatus,
	}
	return models.ParticipationDetail{
		Participation: r.participationRow.model(),
		Meeting:       *meeting.model(),
	}
}

const participationDetailColumns = `
    p.id, p.user_id, p.meeting_id, p.status, p.amount_paid,
    m.circle_id AS meeting_circle_id, m.start_time AS meeting_start_time,
    m.end_time AS meeting_end_time, m.price AS meeting_price,
    m.currency AS meeting_currency, m.status AS meeting_status`

type balanceRow struct {
	HolderKind string `db:"holder_kind"`
	HolderID   string `db:"holder_id"`
	Currency   string `db:"currency"`
	Amount     int64  `db:"amount"`
	UpdatedAt  int64  `db:"updated_at"`
}

func (r balanceRow) model() models.Balance {
	return models.Balance{
		Holder:    models.Holder{Kind: models.HolderKind(r.HolderKind), ID: r.HolderID},
		Currency:  r.Currency,
		Amount:    r.Amount,
		UpdatedAt: time.Unix(r.UpdatedAt, 0).UTC(),
	}
}
