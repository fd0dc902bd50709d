// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/circles/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("storage: record not found")

	// ErrConflict is returned when a guarded write finds the row changed
	// since it was read, or a unique key is already taken.
	ErrConflict = errors.New("storage: conflicting write")
)

// Reader defines read access to ledger records.
type Reader interface {
	GetCircle(ctx context.Context, circleID string) (*models.Circle, error)
	GetMembership(ctx context.Context, membershipID string) (*models.Membership, error)

	// FindMembership looks a membership up by its (user, circle) key.
	FindMembership(ctx context.Context, userID, circleID string) (*models.Membership, error)

	GetMeeting(ctx context.Context, meetingID string) (*models.Meeting, error)

	// GetParticipation returns the participation joined with its meeting.
	GetParticipation(ctx context.Context, participationID string) (*models.ParticipationDetail, error)

	// ListBalances returns every currency balance of a holder, ordered by
	// currency code.
	ListBalances(ctx context.Context, holder models.Holder) ([]models.Balance, error)
}

// Tx is a unit of work. Reads made through a Tx lock the rows they return
// where the backend supports row locks, so the caller may decide on the
// values it read and write them back without interleaving writers.
type Tx interface {
	Reader

	CreateCircle(ctx context.Context, circle *models.Circle) error
	CreateMembership(ctx context.Context, m *models.Membership) error
	CreateMeeting(ctx context.Context, meeting *models.Meeting) error

	// UpdateMembership writes m if the stored row still matches prev.
	// Returns ErrConflict otherwise.
	UpdateMembership(ctx context.Context, m *models.Membership, prev models.Membership) error

	// UpdateParticipation writes p if the stored row still matches prev.
	// Returns ErrConflict otherwise.
	UpdateParticipation(ctx context.Context, p *models.Participation, prev models.Participation) error

	// ActivateParticipation inserts an active participation for the
	// (user, meeting) pair, or reactivates a cancelled one with nothing
	// paid. Rows that are active or on vacation are left alone. p is
	// refreshed from the stored row.
	ActivateParticipation(ctx context.Context, p *models.Participation) error

	// ListFutureParticipations returns the user's participations in
	// meetings of the circle that start at or after now, excluding
	// cancelled ones.
	ListFutureParticipations(ctx context.Context, userID, circleID string, now time.Time) ([]models.ParticipationDetail, error)

	// ListUpcomingMeetings returns scheduled meetings of the circle that
	// start at or after now.
	ListUpcomingMeetings(ctx context.Context, circleID string, now time.Time) ([]models.Meeting, error)

	// ListMemberships returns the memberships of a circle in a status.
	ListMemberships(ctx context.Context, circleID string, status models.MembershipStatus) ([]models.Membership, error)

	// CreditBalance atomically adds amount to the holder's balance in
	// currency, creating it when absent.
	CreditBalance(ctx context.Context, holder models.Holder, currency string, amount int64) error
}

// Store defines the interface for ledger storage.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the lifecycle layer.
type Store interface {
	Reader

	// WithTx runs fn in a transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
