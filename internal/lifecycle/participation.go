package lifecycle

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mmynk/circles/internal/ledger"
	"github.com/mmynk/circles/internal/models"
	"github.com/mmynk/circles/internal/storage"
)

// ToggleVacationInput identifies the participation to toggle.
type ToggleVacationInput struct {
	ParticipationID string
	Now             time.Time
}

// ToggleVacationStatus flips a participation between active and vacation.
//
// Going on vacation spends one vacation day and credits what was paid to
// the membership balance in the meeting's currency. Returning gives the day
// back and leaves the balance alone. Moderators and admins may send a
// member on vacation with no days left.
func (o *Orchestrator) ToggleVacationStatus(ctx context.Context, in ToggleVacationInput) Result {
	const op = "toggle_vacation"
	return o.run(ctx, op, []attribute.KeyValue{attribute.String("participation.id", in.ParticipationID)}, func(ctx context.Context) Result {
		actor, ok := o.actor(ctx)
		if !ok {
			return resultUnauthorized
		}
		now, fields := pinNow(in.Now)
		if fields = required(fields, "participationId", in.ParticipationID); fields != nil {
			return invalidArgument(fields)
		}

		detail, err := o.store.GetParticipation(ctx, in.ParticipationID)
		if err != nil {
			return o.fail(ctx, op, err, "participation_id", in.ParticipationID)
		}
		circle, err := o.store.GetCircle(ctx, detail.Meeting.CircleID)
		if err != nil {
			return o.fail(ctx, op, err, "participation_id", in.ParticipationID)
		}
		if !ledger.CanToggleVacation(actor, circle, &detail.Participation) {
			return resultUnauthorized
		}
		if _, err := o.store.FindMembership(ctx, detail.UserID, circle.ID); err != nil {
			return o.fail(ctx, op, err, "participation_id", in.ParticipationID)
		}
		if detail.Meeting.Status != models.MeetingScheduled {
			return failure(CodeInvalidState, "Vacation can only be changed for scheduled meetings.")
		}

		privileged := ledger.CanForceVacation(actor, circle, &detail.Participation)
		observed := detail.Status

		var toggle ledger.VacationToggle
		var membershipID string
		err = o.store.WithTx(ctx, func(tx storage.Tx) error {
			// Membership rows are locked before participation rows in every
			// transaction.
			m, err := tx.FindMembership(ctx, detail.UserID, circle.ID)
			if err != nil {
				return err
			}
			d, err := tx.GetParticipation(ctx, in.ParticipationID)
			if err != nil {
				return err
			}
			if d.Status != observed {
				return storage.ErrConflict
			}
			if m.Status != models.MembershipActive {
				return &ledger.TransitionError{Entity: "membership", From: string(m.Status), To: "vacation"}
			}

			prevP, prevM := d.Participation, *m
			toggle, err = ledger.ToggleVacation(&d.Participation, &d.Meeting, m, privileged, now)
			if err != nil {
				return err
			}
			if err := tx.UpdateParticipation(ctx, &d.Participation, prevP); err != nil {
				return err
			}
			if err := tx.UpdateMembership(ctx, m, prevM); err != nil {
				return err
			}
			membershipID = m.ID
			if toggle.Refund > 0 {
				return ledger.Credit(ctx, tx, models.MembershipHolder(m.ID), toggle.Currency, toggle.Refund)
			}
			return nil
		})
		if err != nil {
			return o.fail(ctx, op, err, "participation_id", in.ParticipationID, "actor_id", actor.ID)
		}
		o.metrics.Refund(toggle.Currency, toggle.Refund)

		if toggle.To == models.ParticipationVacation {
			msg := "You are on vacation for this meeting."
			if toggle.Refund > 0 {
				msg += " Credited " + formatMinor(toggle.Refund, toggle.Currency) + " to the balance."
			}
			return Result{Success: true, Message: msg, ID: membershipID}
		}
		return succeeded(membershipID, "Welcome back. Your vacation day was returned.")
	})
}

// RecordPaymentInput carries a captured payment for a participation.
type RecordPaymentInput struct {
	ParticipationID string
	Amount          int64
	Now             time.Time
}

// RecordPayment stores the amount the payment provider captured for an
// active participation. Only admins may call it.
func (o *Orchestrator) RecordPayment(ctx context.Context, in RecordPaymentInput) Result {
	const op = "record_payment"
	return o.run(ctx, op, []attribute.KeyValue{attribute.String("participation.id", in.ParticipationID)}, func(ctx context.Context) Result {
		actor, ok := o.actor(ctx)
		if !ok || !ledger.CanRecordPayment(actor) {
			return resultUnauthorized
		}
		_, fields := pinNow(in.Now)
		fields = required(fields, "participationId", in.ParticipationID)
		if in.Amount < 0 {
			fields = setField(fields, "amount", "must not be negative")
		}
		if fields != nil {
			return invalidArgument(fields)
		}

		err := o.store.WithTx(ctx, func(tx storage.Tx) error {
			d, err := tx.GetParticipation(ctx, in.ParticipationID)
			if err != nil {
				return err
			}
			prev := d.Participation
			if err := ledger.RecordPayment(&d.Participation, &d.Meeting, in.Amount); err != nil {
				return err
			}
			return tx.UpdateParticipation(ctx, &d.Participation, prev)
		})
		if err != nil {
			res := o.fail(ctx, op, err, "participation_id", in.ParticipationID)
			if res.Code == CodeInvalidArgument {
				res.FieldErrors = map[string]string{"amount": "must be between 0 and the meeting price"}
			}
			return res
		}
		return succeeded(in.ParticipationID, "Payment recorded.")
	})
}
