package ledger

import (
	"fmt"
	"time"

	"github.com/mmynk/circles/internal/models"
)

const entityParticipation = "participation"

// CancelForRemoval cancels a participation whose meeting has not started and
// returns the amount that must be refunded. amountPaid is zeroed.
func CancelForRemoval(p *models.Participation, meeting *models.Meeting, now time.Time) (int64, error) {
	if !meeting.StartsAtOrAfter(now) {
		return 0, ErrMeetingStarted
	}
	switch p.Status {
	case models.ParticipationActive, models.ParticipationVacation:
	default:
		return 0, transitionError(entityParticipation, p.Status, models.ParticipationCancelled)
	}
	refund := p.AmountPaid
	p.Status = models.ParticipationCancelled
	p.AmountPaid = 0
	return refund, nil
}

// VacationToggle describes the effects of one vacation toggle.
type VacationToggle struct {
	From models.ParticipationStatus
	To   models.ParticipationStatus

	// Refund is the amount to credit to the membership balance in Currency.
	// Zero when nothing was paid or when returning from vacation.
	Refund   int64
	Currency string

	// VacationDaysBefore is the budget before the toggle; the membership
	// passed to ToggleVacation holds the budget after it.
	VacationDaysBefore int
}

// ToggleVacation flips a participation between active and vacation.
//
// Going on vacation spends a vacation day (privileged callers may force it
// at zero days) and refunds what was paid; returning restores the day and
// leaves the balance alone. p and m are mutated only on success.
func ToggleVacation(p *models.Participation, meeting *models.Meeting, m *models.Membership, privileged bool, now time.Time) (VacationToggle, error) {
	if meeting.Status != models.MeetingScheduled {
		return VacationToggle{}, fmt.Errorf("%w: meeting is %s", ErrInvalidState, meeting.Status)
	}
	if !meeting.StartsAtOrAfter(now) {
		return VacationToggle{}, ErrMeetingStarted
	}

	t := VacationToggle{From: p.Status, Currency: NormalizeCurrency(meeting.Currency), VacationDaysBefore: m.VacationDays}
	switch p.Status {
	case models.ParticipationVacation:
		RefundVacationDay(m)
		p.Status = models.ParticipationActive
	case models.ParticipationActive:
		if err := SpendVacationDay(m, privileged); err != nil {
			return VacationToggle{}, err
		}
		t.Refund = p.AmountPaid
		p.AmountPaid = 0
		p.Status = models.ParticipationVacation
	default:
		return VacationToggle{}, transitionError(entityParticipation, p.Status, "toggled")
	}
	t.To = p.Status
	return t, nil
}

// RecordPayment stores the amount captured for an active participation.
func RecordPayment(p *models.Participation, meeting *models.Meeting, amount int64) error {
	if p.Status != models.ParticipationActive {
		return fmt.Errorf("%w: payments apply to active participations only, got %s", ErrInvalidState, p.Status)
	}
	if amount < 0 || amount > meeting.Price {
		return fmt.Errorf("%w: amount %d outside [0, %d]", ErrInvalidAmount, amount, meeting.Price)
	}
	p.AmountPaid = amount
	return nil
}
