package ledger

import (
	"github.com/mmynk/circles/internal/auth"
	"github.com/mmynk/circles/internal/models"
)

// CanModerate reports whether the actor may manage the circle: admins, or
// moderators who moderate this circle.
func CanModerate(actor auth.Actor, circle *models.Circle) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.HasRole(auth.RoleModerator) && circle.ModeratorID == actor.ID
}

// CanRemove reports whether the actor may remove a membership of circle.
func CanRemove(actor auth.Actor, circle *models.Circle) bool {
	return CanModerate(actor, circle)
}

// CanRestore reports whether the actor may restore a removed membership.
func CanRestore(actor auth.Actor, circle *models.Circle) bool {
	return CanModerate(actor, circle)
}

// CanToggleVacation reports whether the actor may toggle the participation.
func CanToggleVacation(actor auth.Actor, circle *models.Circle, p *models.Participation) bool {
	return CanModerate(actor, circle) || p.UserID == actor.ID
}

// CanForceVacation reports whether the actor may send a member on vacation
// with an empty vacation-day budget. Participants toggling their own
// participation always spend from their budget, whatever their role.
func CanForceVacation(actor auth.Actor, circle *models.Circle, p *models.Participation) bool {
	return p.UserID != actor.ID && CanModerate(actor, circle)
}

// CanManageMemberships reports whether the actor holds a role that can
// remove or restore memberships in some circle. It is checked before any
// record is read; CanRemove and CanRestore then check the circle itself.
func CanManageMemberships(actor auth.Actor) bool {
	return actor.IsAdmin() || actor.HasRole(auth.RoleModerator)
}

// CanInvite reports whether the actor may create a pending membership for
// userID. Users may join on their own behalf.
func CanInvite(actor auth.Actor, circle *models.Circle, userID string) bool {
	return CanModerate(actor, circle) || userID == actor.ID
}

// CanAccept reports whether the actor may accept a pending membership.
func CanAccept(actor auth.Actor, circle *models.Circle, m *models.Membership) bool {
	return CanModerate(actor, circle) || m.UserID == actor.ID
}

// CanLeave reports whether the actor may leave on behalf of the membership.
func CanLeave(actor auth.Actor, m *models.Membership) bool {
	return m.UserID == actor.ID
}

// CanCreateCircle reports whether the actor may open a new circle.
func CanCreateCircle(actor auth.Actor) bool {
	return actor.IsAdmin() || actor.HasRole(auth.RoleModerator)
}

// CanRecordPayment reports whether the actor may record captured payments.
func CanRecordPayment(actor auth.Actor) bool {
	return actor.IsAdmin()
}
