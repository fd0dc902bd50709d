package ledger

import "github.com/mmynk/circles/internal/models"

const entityMembership = "membership"

// Accept moves a pending membership to active.
func Accept(m *models.Membership) error {
	if m.Status != models.MembershipPending {
		return transitionError(entityMembership, m.Status, models.MembershipActive)
	}
	m.Status = models.MembershipActive
	return nil
}

// Remove moves an active or pending membership to removed. The caller must
// cancel the membership's future participations in the same transaction.
func Remove(m *models.Membership) error {
	switch m.Status {
	case models.MembershipActive, models.MembershipPending:
		m.Status = models.MembershipRemoved
		return nil
	default:
		return transitionError(entityMembership, m.Status, models.MembershipRemoved)
	}
}

// Restore moves a removed membership back to pending. Re-acceptance is
// required before the member is active again.
func Restore(m *models.Membership) error {
	if m.Status != models.MembershipRemoved {
		return transitionError(entityMembership, m.Status, models.MembershipPending)
	}
	m.Status = models.MembershipPending
	return nil
}

// Leave moves an active membership to left. Left is terminal.
func Leave(m *models.Membership) error {
	if m.Status != models.MembershipActive {
		return transitionError(entityMembership, m.Status, models.MembershipLeft)
	}
	m.Status = models.MembershipLeft
	return nil
}

// SpendVacationDay takes one day from the budget.
//
// Self-service spends (force == false) require at least one day left.
// Forced spends by moderators or admins succeed at zero and leave the
// budget at zero.
func SpendVacationDay(m *models.Membership, force bool) error {
	if m.VacationDays <= 0 {
		if !force {
			return ErrInsufficientVacationDays
		}
		m.VacationDays = 0
		return nil
	}
	m.VacationDays--
	return nil
}

// RefundVacationDay returns one day to the budget. No upper bound applies.
func RefundVacationDay(m *models.Membership) {
	m.VacationDays++
}
