package lifecycle

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mmynk/circles/internal/ledger"
	"github.com/mmynk/circles/internal/models"
	"github.com/mmynk/circles/internal/storage"
)

// CreateCircleInput describes a new circle. ModeratorID defaults to the
// caller; only admins may name someone else.
type CreateCircleInput struct {
	ModeratorID string
	MinMembers  int
	MaxMembers  int
	Price       int64
	Currency    string
	Now         time.Time
}

// CreateCircle opens a new circle.
func (o *Orchestrator) CreateCircle(ctx context.Context, in CreateCircleInput) Result {
	const op = "create_circle"
	return o.run(ctx, op, nil, func(ctx context.Context) Result {
		actor, ok := o.actor(ctx)
		if !ok || !ledger.CanCreateCircle(actor) {
			return resultUnauthorized
		}
		moderatorID := in.ModeratorID
		if moderatorID == "" {
			moderatorID = actor.ID
		}
		if moderatorID != actor.ID && !actor.IsAdmin() {
			return resultUnauthorized
		}

		now, fields := pinNow(in.Now)
		currency := ledger.NormalizeCurrency(in.Currency)
		fields = validateCircle(fields, in, currency)
		if fields != nil {
			return invalidArgument(fields)
		}

		circle := &models.Circle{
			ModeratorID: moderatorID,
			MinMembers:  in.MinMembers,
			MaxMembers:  in.MaxMembers,
			Price:       in.Price,
			Currency:    currency,
			CreatedAt:   now,
		}
		err := o.store.WithTx(ctx, func(tx storage.Tx) error {
			return tx.CreateCircle(ctx, circle)
		})
		if err != nil {
			return o.fail(ctx, op, err, "actor_id", actor.ID)
		}
		return succeeded(circle.ID, "Circle created.")
	})
}

func validateCircle(fields map[string]string, in CreateCircleInput, currency string) map[string]string {
	add := func(name, msg string) { fields = setField(fields, name, msg) }
	if in.Price < 0 {
		add("price", "must not be negative")
	}
	if len(currency) != 3 {
		add("currency", "must be a three-letter ISO 4217 code")
	}
	if in.MinMembers < 0 {
		add("minMembers", "must not be negative")
	}
	if in.MaxMembers < in.MinMembers {
		add("maxMembers", "must not be lower than minMembers")
	}
	return fields
}

// ScheduleMeetingInput describes the next occurrence of a circle.
type ScheduleMeetingInput struct {
	CircleID  string
	StartTime time.Time
	EndTime   time.Time
	Now       time.Time
}

// ScheduleMeeting creates a meeting priced like its circle and enrolls
// every active member in it.
func (o *Orchestrator) ScheduleMeeting(ctx context.Context, in ScheduleMeetingInput) Result {
	const op = "schedule_meeting"
	return o.run(ctx, op, []attribute.KeyValue{attribute.String("circle.id", in.CircleID)}, func(ctx context.Context) Result {
		actor, ok := o.actor(ctx)
		if !ok {
			return resultUnauthorized
		}
		now, fields := pinNow(in.Now)
		fields = required(fields, "circleId", in.CircleID)
		switch {
		case in.StartTime.IsZero():
			fields = required(fields, "startTime", "")
		case in.StartTime.Before(now):
			fields = setField(fields, "startTime", "must not be in the past")
		}
		if in.EndTime.Before(in.StartTime) {
			fields = setField(fields, "endTime", "must not be before startTime")
		}
		if fields != nil {
			return invalidArgument(fields)
		}

		circle, err := o.store.GetCircle(ctx, in.CircleID)
		if err != nil {
			return o.fail(ctx, op, err, "circle_id", in.CircleID)
		}
		if !ledger.CanModerate(actor, circle) {
			return resultUnauthorized
		}

		meeting := &models.Meeting{
			CircleID:  circle.ID,
			StartTime: in.StartTime.Truncate(time.Second),
			EndTime:   in.EndTime.Truncate(time.Second),
			Price:     circle.Price,
			Currency:  circle.Currency,
			Status:    models.MeetingScheduled,
		}
		var enrolled int
		err = o.store.WithTx(ctx, func(tx storage.Tx) error {
			if err := tx.CreateMeeting(ctx, meeting); err != nil {
				return err
			}
			members, err := tx.ListMemberships(ctx, circle.ID, models.MembershipActive)
			if err != nil {
				return err
			}
			for _, m := range members {
				p := &models.Participation{UserID: m.UserID, MeetingID: meeting.ID}
				if err := tx.ActivateParticipation(ctx, p); err != nil {
					return err
				}
				enrolled++
			}
			return nil
		})
		if err != nil {
			return o.fail(ctx, op, err, "circle_id", in.CircleID, "actor_id", actor.ID)
		}
		return succeeded(meeting.ID, "Meeting scheduled with %d participant(s).", enrolled)
	})
}

func setField(fields map[string]string, name, msg string) map[string]string {
	if fields == nil {
		fields = map[string]string{}
	}
	fields[name] = msg
	return fields
}

// MembershipView is a membership with its balances.
type MembershipView struct {
	Membership models.Membership
	Balances   []models.Balance
}

// GetMembership returns a membership and its balances to the member, the
// circle moderator or an admin.
func (o *Orchestrator) GetMembership(ctx context.Context, membershipID string) (*MembershipView, Result) {
	const op = "get_membership"
	var view *MembershipView
	res := o.run(ctx, op, []attribute.KeyValue{attribute.String("membership.id", membershipID)}, func(ctx context.Context) Result {
		actor, ok := o.actor(ctx)
		if !ok {
			return resultUnauthorized
		}
		if membershipID == "" {
			return invalidArgument(map[string]string{"membershipId": "is required"})
		}
		m, circle, err := o.loadMembership(ctx, membershipID)
		if err != nil {
			return o.fail(ctx, op, err, "membership_id", membershipID)
		}
		if !canView(actor, circle, m) {
			return resultUnauthorized
		}
		balances, err := o.store.ListBalances(ctx, models.MembershipHolder(m.ID))
		if err != nil {
			return o.fail(ctx, op, err, "membership_id", membershipID)
		}
		view = &MembershipView{Membership: *m, Balances: balances}
		return succeeded(m.ID, "OK")
	})
	return view, res
}

// ListBalances returns the balances of a membership.
func (o *Orchestrator) ListBalances(ctx context.Context, membershipID string) ([]models.Balance, Result) {
	view, res := o.GetMembership(ctx, membershipID)
	if view == nil {
		return nil, res
	}
	return view.Balances, res
}
