package models

import "time"

// Circle is a recurring meetup group.
type Circle struct {
	// ID is the unique identifier for the circle (UUID format).
	ID string

	// ModeratorID is the user ID of the circle's moderator.
	ModeratorID string

	// MinMembers and MaxMembers bound the roster size.
	// Capacity is enforced at join time, outside the ledger.
	MinMembers int
	MaxMembers int

	// Price is the per-meeting price in minor currency units.
	Price int64

	// Currency is the ISO 4217 code, upper case (e.g. "PLN").
	Currency string

	CreatedAt time.Time
}
