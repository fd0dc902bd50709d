package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mmynk/circles/internal/auth"
	"github.com/mmynk/circles/internal/calculator"
	"github.com/mmynk/circles/internal/ledger"
	"github.com/mmynk/circles/internal/models"
	"github.com/mmynk/circles/internal/notify"
	"github.com/mmynk/circles/internal/storage"
)

// RemoveMembershipInput identifies the membership to remove.
type RemoveMembershipInput struct {
	MembershipID string
	Reason       string
	Now          time.Time
}

// RemoveMembership removes a member from a circle. Participations in
// meetings that have not started are cancelled and what was paid for them
// is credited to the membership balance, one credit per currency.
func (o *Orchestrator) RemoveMembership(ctx context.Context, in RemoveMembershipInput) Result {
	const op = "remove_membership"
	return o.run(ctx, op, []attribute.KeyValue{attribute.String("membership.id", in.MembershipID)}, func(ctx context.Context) Result {
		actor, ok := o.actor(ctx)
		if !ok || !ledger.CanManageMemberships(actor) {
			return resultUnauthorized
		}
		now, fields := pinNow(in.Now)
		if fields = required(fields, "membershipId", in.MembershipID); fields != nil {
			return invalidArgument(fields)
		}

		m, circle, err := o.loadMembership(ctx, in.MembershipID)
		if err != nil {
			return o.fail(ctx, op, err, "membership_id", in.MembershipID)
		}
		if !ledger.CanRemove(actor, circle) {
			return resultUnauthorized
		}

		var (
			prior   models.MembershipStatus
			credits []calculator.CurrencyTotal
		)
		err = o.store.WithTx(ctx, func(tx storage.Tx) error {
			m, err := tx.GetMembership(ctx, in.MembershipID)
			if err != nil {
				return err
			}
			prior = m.Status
			prev := *m
			if err := ledger.Remove(m); err != nil {
				return err
			}
			if err := tx.UpdateMembership(ctx, m, prev); err != nil {
				return err
			}
			credits, err = cancelFutureParticipations(ctx, tx, m, now)
			return err
		})
		if err != nil {
			return o.fail(ctx, op, err, "membership_id", in.MembershipID, "actor_id", actor.ID)
		}
		o.recordRefunds(credits)

		if prior != models.MembershipPending {
			data := map[string]string{"circle_id": circle.ID, "membership_id": m.ID}
			if in.Reason != "" {
				data["reason"] = in.Reason
			}
			o.notify(ctx, notify.KindMembershipRemoved, m.UserID, data)
		}
		return succeeded(m.ID, "Membership removed.%s", describeCredits(credits))
	})
}

// RestoreMembershipInput identifies the membership to restore.
type RestoreMembershipInput struct {
	MembershipID string
	Now          time.Time
}

// RestoreMembership moves a removed membership back to pending. The member
// has to accept again; cancelled participations are recreated on
// acceptance.
func (o *Orchestrator) RestoreMembership(ctx context.Context, in RestoreMembershipInput) Result {
	const op = "restore_membership"
	return o.run(ctx, op, []attribute.KeyValue{attribute.String("membership.id", in.MembershipID)}, func(ctx context.Context) Result {
		actor, ok := o.actor(ctx)
		if !ok || !ledger.CanManageMemberships(actor) {
			return resultUnauthorized
		}
		_, fields := pinNow(in.Now)
		if fields = required(fields, "membershipId", in.MembershipID); fields != nil {
			return invalidArgument(fields)
		}

		m, circle, err := o.loadMembership(ctx, in.MembershipID)
		if err != nil {
			return o.fail(ctx, op, err, "membership_id", in.MembershipID)
		}
		if !ledger.CanRestore(actor, circle) {
			return resultUnauthorized
		}

		err = o.store.WithTx(ctx, func(tx storage.Tx) error {
			m, err := tx.GetMembership(ctx, in.MembershipID)
			if err != nil {
				return err
			}
			prev := *m
			if err := ledger.Restore(m); err != nil {
				return err
			}
			return tx.UpdateMembership(ctx, m, prev)
		})
		if err != nil {
			return o.fail(ctx, op, err, "membership_id", in.MembershipID, "actor_id", actor.ID)
		}

		o.notify(ctx, notify.KindMembershipReinvited, m.UserID, map[string]string{
			"circle_id":     circle.ID,
			"membership_id": m.ID,
		})
		return succeeded(m.ID, "Membership restored. The member has been invited again.")
	})
}

// AcceptMembershipInput identifies the pending membership to accept.
type AcceptMembershipInput struct {
	MembershipID string
	Now          time.Time
}

// AcceptMembership activates a pending membership and enrolls the member
// in every upcoming meeting of the circle. Participations cancelled by an
// earlier removal are reactivated with nothing paid.
func (o *Orchestrator) AcceptMembership(ctx context.Context, in AcceptMembershipInput) Result {
	const op = "accept_membership"
	return o.run(ctx, op, []attribute.KeyValue{attribute.String("membership.id", in.MembershipID)}, func(ctx context.Context) Result {
		actor, ok := o.actor(ctx)
		if !ok {
			return resultUnauthorized
		}
		now, fields := pinNow(in.Now)
		if fields = required(fields, "membershipId", in.MembershipID); fields != nil {
			return invalidArgument(fields)
		}

		m, circle, err := o.loadMembership(ctx, in.MembershipID)
		if err != nil {
			return o.fail(ctx, op, err, "membership_id", in.MembershipID)
		}
		if !ledger.CanAccept(actor, circle, m) {
			return resultUnauthorized
		}

		var enrolled int
		err = o.store.WithTx(ctx, func(tx storage.Tx) error {
			m, err := tx.GetMembership(ctx, in.MembershipID)
			if err != nil {
				return err
			}
			prev := *m
			if err := ledger.Accept(m); err != nil {
				return err
			}
			if err := tx.UpdateMembership(ctx, m, prev); err != nil {
				return err
			}

			meetings, err := tx.ListUpcomingMeetings(ctx, m.CircleID, now)
			if err != nil {
				return err
			}
			for _, meeting := range meetings {
				p := &models.Participation{UserID: m.UserID, MeetingID: meeting.ID}
				if err := tx.ActivateParticipation(ctx, p); err != nil {
					return err
				}
				enrolled++
			}
			return nil
		})
		if err != nil {
			return o.fail(ctx, op, err, "membership_id", in.MembershipID, "actor_id", actor.ID)
		}
		return succeeded(m.ID, "Membership accepted. Enrolled in %d upcoming meeting(s).", enrolled)
	})
}

// LeaveCircleInput identifies the membership the member is giving up.
type LeaveCircleInput struct {
	MembershipID string
	Now          time.Time
}

// LeaveCircle ends an active membership at the member's request. Future
// participations are cancelled and refunded exactly as on removal.
func (o *Orchestrator) LeaveCircle(ctx context.Context, in LeaveCircleInput) Result {
	const op = "leave_circle"
	return o.run(ctx, op, []attribute.KeyValue{attribute.String("membership.id", in.MembershipID)}, func(ctx context.Context) Result {
		actor, ok := o.actor(ctx)
		if !ok {
			return resultUnauthorized
		}
		now, fields := pinNow(in.Now)
		if fields = required(fields, "membershipId", in.MembershipID); fields != nil {
			return invalidArgument(fields)
		}

		m, circle, err := o.loadMembership(ctx, in.MembershipID)
		if err != nil {
			return o.fail(ctx, op, err, "membership_id", in.MembershipID)
		}
		if !ledger.CanLeave(actor, m) {
			return resultUnauthorized
		}

		var credits []calculator.CurrencyTotal
		err = o.store.WithTx(ctx, func(tx storage.Tx) error {
			m, err := tx.GetMembership(ctx, in.MembershipID)
			if err != nil {
				return err
			}
			prev := *m
			if err := ledger.Leave(m); err != nil {
				return err
			}
			if err := tx.UpdateMembership(ctx, m, prev); err != nil {
				return err
			}
			credits, err = cancelFutureParticipations(ctx, tx, m, now)
			return err
		})
		if err != nil {
			return o.fail(ctx, op, err, "membership_id", in.MembershipID, "actor_id", actor.ID)
		}
		o.recordRefunds(credits)

		o.notify(ctx, notify.KindMembershipLeft, circle.ModeratorID, map[string]string{
			"circle_id":     circle.ID,
			"membership_id": m.ID,
			"user_id":       m.UserID,
		})
		return succeeded(m.ID, "You left the circle.%s", describeCredits(credits))
	})
}

// InviteMemberInput names the user to invite into a circle.
type InviteMemberInput struct {
	CircleID string
	UserID   string
	Now      time.Time
}

// InviteMember creates a pending membership with the default vacation
// budget. Users may request to join on their own behalf; inviting others
// takes a moderator.
func (o *Orchestrator) InviteMember(ctx context.Context, in InviteMemberInput) Result {
	const op = "invite_member"
	return o.run(ctx, op, []attribute.KeyValue{attribute.String("circle.id", in.CircleID)}, func(ctx context.Context) Result {
		actor, ok := o.actor(ctx)
		if !ok {
			return resultUnauthorized
		}
		now, fields := pinNow(in.Now)
		fields = required(fields, "circleId", in.CircleID)
		if fields = required(fields, "userId", in.UserID); fields != nil {
			return invalidArgument(fields)
		}

		circle, err := o.store.GetCircle(ctx, in.CircleID)
		if err != nil {
			return o.fail(ctx, op, err, "circle_id", in.CircleID)
		}
		if !ledger.CanInvite(actor, circle, in.UserID) {
			return resultUnauthorized
		}

		m := &models.Membership{
			UserID:       in.UserID,
			CircleID:     circle.ID,
			Status:       models.MembershipPending,
			VacationDays: o.vacationDays,
			CreatedAt:    now,
		}
		err = o.store.WithTx(ctx, func(tx storage.Tx) error {
			return tx.CreateMembership(ctx, m)
		})
		if err != nil {
			if isConflict(err) {
				return failure(CodeInvalidState, "This user already has a membership in the circle.")
			}
			return o.fail(ctx, op, err, "circle_id", in.CircleID, "user_id", in.UserID)
		}
		return succeeded(m.ID, "Membership created and awaiting acceptance.")
	})
}

// loadMembership reads a membership and its circle outside any transaction,
// for authorization.
func (o *Orchestrator) loadMembership(ctx context.Context, membershipID string) (*models.Membership, *models.Circle, error) {
	m, err := o.store.GetMembership(ctx, membershipID)
	if err != nil {
		return nil, nil, err
	}
	circle, err := o.store.GetCircle(ctx, m.CircleID)
	if err != nil {
		return nil, nil, err
	}
	return m, circle, nil
}

// cancelFutureParticipations cancels every participation of the membership
// in meetings that have not started, then credits what was paid. Refunds
// are aggregated per currency before any balance is touched.
func cancelFutureParticipations(ctx context.Context, tx storage.Tx, m *models.Membership, now time.Time) ([]calculator.CurrencyTotal, error) {
	list, err := tx.ListFutureParticipations(ctx, m.UserID, m.CircleID, now)
	if err != nil {
		return nil, err
	}

	refunds := make([]calculator.Refund, 0, len(list))
	for i := range list {
		d := &list[i]
		prev := d.Participation
		amount, err := ledger.CancelForRemoval(&d.Participation, &d.Meeting, now)
		if err != nil {
			return nil, fmt.Errorf("participation %s: %w", d.ID, err)
		}
		if err := tx.UpdateParticipation(ctx, &d.Participation, prev); err != nil {
			return nil, err
		}
		refunds = append(refunds, calculator.Refund{Source: d.ID, Currency: d.Meeting.Currency, Amount: amount})
	}

	totals, err := calculator.AggregateRefunds(refunds)
	if err != nil {
		return nil, err
	}
	holder := models.MembershipHolder(m.ID)
	for _, t := range totals {
		if err := ledger.Credit(ctx, tx, holder, t.Currency, t.Amount); err != nil {
			return nil, err
		}
	}
	return totals, nil
}

func (o *Orchestrator) recordRefunds(totals []calculator.CurrencyTotal) {
	for _, t := range totals {
		o.metrics.Refund(t.Currency, t.Amount)
	}
}

func describeCredits(totals []calculator.CurrencyTotal) string {
	if len(totals) == 0 {
		return ""
	}
	parts := make([]string, len(totals))
	for i, t := range totals {
		parts[i] = formatMinor(t.Amount, t.Currency)
	}
	return " Credited " + strings.Join(parts, ", ") + " to the balance."
}

// canView reports whether the actor may read the membership.
func canView(actor auth.Actor, circle *models.Circle, m *models.Membership) bool {
	return ledger.CanModerate(actor, circle) || m.UserID == actor.ID
}
