package models

// ParticipationStatus is a member's attendance status for one meeting.
type ParticipationStatus string

const (
	ParticipationActive    ParticipationStatus = "active"
	ParticipationVacation  ParticipationStatus = "vacation"
	ParticipationCancelled ParticipationStatus = "cancelled"
)

// Participation is one user's attendance record for one meeting.
// There is at most one participation per (UserID, MeetingID) pair.
type Participation struct {
	ID        string
	UserID    string
	MeetingID string

	Status ParticipationStatus

	// AmountPaid is what the member paid for this meeting, in minor units of
	// the meeting's currency. Always within [0, meeting price].
	AmountPaid int64
}

// ParticipationDetail is a participation joined with its meeting.
type ParticipationDetail struct {
	Participation
	Meeting Meeting
}
