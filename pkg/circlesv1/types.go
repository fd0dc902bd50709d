// Package circlesv1 defines the wire contract of the circles.v1
// LifecycleService: plain JSON messages served over the Connect protocol.
package circlesv1

import "time"

// Result mirrors the orchestrator result on the wire. Business failures
// travel here with HTTP 200; Connect errors are reserved for transport
// problems such as a missing token.
type Result struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message"`
	Code        string            `json:"code,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	ID          string            `json:"id,omitempty"`
}

// OperationResponse is returned by every mutating procedure.
type OperationResponse struct {
	Result Result `json:"result"`
}

type CreateCircleRequest struct {
	ModeratorID string `json:"moderatorId,omitempty"`
	MinMembers  int    `json:"minMembers"`
	MaxMembers  int    `json:"maxMembers"`
	Price       int64  `json:"price"`
	Currency    string `json:"currency"`
}

type InviteMemberRequest struct {
	CircleID string `json:"circleId"`
	UserID   string `json:"userId"`
}

type RemoveMembershipRequest struct {
	MembershipID string `json:"membershipId"`
	Reason       string `json:"reason,omitempty"`
}

type RestoreMembershipRequest struct {
	MembershipID string `json:"membershipId"`
}

type AcceptMembershipRequest struct {
	MembershipID string `json:"membershipId"`
}

type LeaveCircleRequest struct {
	MembershipID string `json:"membershipId"`
}

type ToggleVacationStatusRequest struct {
	ParticipationID string `json:"participationId"`
}

type ScheduleMeetingRequest struct {
	CircleID  string    `json:"circleId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

type RecordPaymentRequest struct {
	ParticipationID string `json:"participationId"`
	// Amount is in minor units of the meeting currency.
	Amount int64 `json:"amount"`
}

type GetMembershipRequest struct {
	MembershipID string `json:"membershipId"`
}

type ListBalancesRequest struct {
	MembershipID string `json:"membershipId"`
}

// Membership is the wire form of a membership.
type Membership struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	CircleID     string    `json:"circleId"`
	Status       string    `json:"status"`
	VacationDays int       `json:"vacationDays"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Balance is the wire form of one currency balance, in minor units.
type Balance struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

type GetMembershipResponse struct {
	Result     Result      `json:"result"`
	Membership *Membership `json:"membership,omitempty"`
	Balances   []Balance   `json:"balances,omitempty"`
}

type ListBalancesResponse struct {
	Result   Result    `json:"result"`
	Balances []Balance `json:"balances"`
}

// Outcome returns the result carried by the response.
func (r *OperationResponse) Outcome() Result { return r.Result }

// Outcome returns the result carried by the response.
func (r *GetMembershipResponse) Outcome() Result { return r.Result }

// Outcome returns the result carried by the response.
func (r *ListBalancesResponse) Outcome() Result { return r.Result }
