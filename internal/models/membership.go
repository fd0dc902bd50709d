package models

import "time"

// MembershipStatus is a member's standing in a circle.
type MembershipStatus string

const (
	MembershipPending MembershipStatus = "pending"
	MembershipActive  MembershipStatus = "active"
	MembershipRemoved MembershipStatus = "removed"
	MembershipLeft    MembershipStatus = "left"
)

// Membership is one user's standing in one circle.
// There is at most one membership per (UserID, CircleID) pair.
type Membership struct {
	// ID is the unique identifier for the membership (UUID format).
	ID string

	UserID   string
	CircleID string

	Status MembershipStatus

	// VacationDays is the remaining budget of meetings the member may skip
	// without forfeiting payment. Never negative.
	VacationDays int

	CreatedAt time.Time
	UpdatedAt time.Time
}
