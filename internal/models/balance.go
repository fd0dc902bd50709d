package models

import "time"

// HolderKind identifies what a balance belongs to.
type HolderKind string

const (
	HolderMembership HolderKind = "membership"
	HolderUser       HolderKind = "user"
)

// Holder is the owner of a balance row.
type Holder struct {
	Kind HolderKind
	ID   string
}

// MembershipHolder returns the balance holder for a membership.
func MembershipHolder(membershipID string) Holder {
	return Holder{Kind: HolderMembership, ID: membershipID}
}

// Balance is the credit owed to a holder in one currency.
// Refunds accumulate additively; amounts are never negative.
type Balance struct {
	Holder   Holder
	Currency string
	Amount   int64

	UpdatedAt time.Time
}
