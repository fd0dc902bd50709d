package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/circles/internal/auth"
	"github.com/mmynk/circles/internal/models"
	"github.com/mmynk/circles/internal/notify"
	"github.com/mmynk/circles/internal/storage"
)

func TestRemoveMembershipRefundsPerCurrency(t *testing.T) {
	e := newEnv(t)
	c := e.circle()
	m := e.membership(c, member.ID, models.MembershipActive, 2)

	p1 := e.participation(member.ID, e.meeting(c, 24*time.Hour, 6000, "PLN"), models.ParticipationActive, 5000)
	p2 := e.participation(member.ID, e.meeting(c, 48*time.Hour, 8000, "PLN"), models.ParticipationActive, 7000)
	p3 := e.participation(member.ID, e.meeting(c, 72*time.Hour, 3000, "EUR"), models.ParticipationActive, 2000)
	past := e.participation(member.ID, e.meeting(c, -24*time.Hour, 6000, "PLN"), models.ParticipationActive, 6000)

	res := e.orch.RemoveMembership(as(moderator), RemoveMembershipInput{MembershipID: m.ID, Reason: "no-show", Now: testNow})
	require.True(t, res.Success, res.Message)
	assert.Contains(t, res.Message, "120.00 PLN")
	assert.Contains(t, res.Message, "20.00 EUR")

	assert.Equal(t, models.MembershipRemoved, e.getMembership(m.ID).Status)
	assert.Equal(t, map[string]int64{"PLN": 12000, "EUR": 2000}, e.balances(m.ID))
	for _, p := range []*models.Participation{p1, p2, p3} {
		got := e.getParticipation(p.ID)
		assert.Equal(t, models.ParticipationCancelled, got.Status)
		assert.Zero(t, got.AmountPaid)
	}

	// Meetings in the past are history and stay untouched.
	got := e.getParticipation(past.ID)
	assert.Equal(t, models.ParticipationActive, got.Status)
	assert.Equal(t, int64(6000), got.AmountPaid)

	sent := e.sender.all()
	require.Len(t, sent, 1)
	assert.Equal(t, notify.KindMembershipRemoved, sent[0].Kind)
	assert.Equal(t, member.ID, sent[0].Recipient)
	assert.Equal(t, "no-show", sent[0].Data["reason"])
}

func TestRemoveMembershipWithinStartingSecond(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		cancelled bool
	}{
		{"exactly at start", testNow, true},
		{"later in the same second", testNow.Add(900 * time.Millisecond), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			c := e.circle()
			m := e.membership(c, member.ID, models.MembershipActive, 2)
			p := e.participation(member.ID, e.meeting(c, 0, 6000, "PLN"), models.ParticipationActive, 100)

			res := e.orch.RemoveMembership(as(moderator), RemoveMembershipInput{MembershipID: m.ID, Now: tt.now})
			require.True(t, res.Success, res.Message)

			got := e.getParticipation(p.ID)
			if tt.cancelled {
				assert.Equal(t, models.ParticipationCancelled, got.Status)
				assert.Equal(t, map[string]int64{"PLN": 100}, e.balances(m.ID))
				return
			}
			assert.Equal(t, models.ParticipationActive, got.Status)
			assert.Equal(t, int64(100), got.AmountPaid)
			assert.Empty(t, e.balances(m.ID))
		})
	}
}

func TestRemoveMembershipTwiceDoesNotDoubleCredit(t *testing.T) {
	e := newEnv(t)
	c := e.circle()
	m := e.membership(c, member.ID, models.MembershipActive, 2)
	e.participation(member.ID, e.meeting(c, 24*time.Hour, 6000, "PLN"), models.ParticipationActive, 6000)

	first := e.orch.RemoveMembership(as(admin), RemoveMembershipInput{MembershipID: m.ID, Now: testNow})
	require.True(t, first.Success, first.Message)

	second := e.orch.RemoveMembership(as(admin), RemoveMembershipInput{MembershipID: m.ID, Now: testNow})
	assert.False(t, second.Success)
	assert.Equal(t, CodeInvalidState, second.Code)
	assert.Equal(t, map[string]int64{"PLN": 6000}, e.balances(m.ID))
}

func TestRemovePendingMembershipSkipsNotification(t *testing.T) {
	e := newEnv(t)
	c := e.circle()
	m := e.membership(c, member.ID, models.MembershipPending, 2)

	res := e.orch.RemoveMembership(as(moderator), RemoveMembershipInput{MembershipID: m.ID, Now: testNow})
	require.True(t, res.Success, res.Message)
	assert.Empty(t, e.sender.all())
	assert.Empty(t, e.balances(m.ID))
}

func TestRemoveMembershipRejections(t *testing.T) {
	e := newEnv(t)
	c := e.circle()
	m := e.membership(c, member.ID, models.MembershipActive, 2)
	p := e.participation(member.ID, e.meeting(c, 24*time.Hour, 6000, "PLN"), models.ParticipationActive, 6000)

	tests := []struct {
		name string
		ctx  context.Context
		in   RemoveMembershipInput
		want Code
	}{
		{"unauthenticated", context.Background(), RemoveMembershipInput{MembershipID: m.ID, Now: testNow}, CodeUnauthorized},
		{"plain member", as(member), RemoveMembershipInput{MembershipID: m.ID, Now: testNow}, CodeUnauthorized},
		{"moderator of another circle", as(otherMod), RemoveMembershipInput{MembershipID: m.ID, Now: testNow}, CodeUnauthorized},
		{"moderator id without role", as(auth.Actor{ID: moderator.ID}), RemoveMembershipInput{MembershipID: m.ID, Now: testNow}, CodeUnauthorized},
		{"unknown membership", as(admin), RemoveMembershipInput{MembershipID: "missing", Now: testNow}, CodeNotFound},
		{"plain member on unknown membership", as(stranger), RemoveMembershipInput{MembershipID: "missing", Now: testNow}, CodeUnauthorized},
		{"missing id", as(admin), RemoveMembershipInput{Now: testNow}, CodeInvalidArgument},
		{"missing clock", as(admin), RemoveMembershipInput{MembershipID: m.ID}, CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.orch.RemoveMembership(tt.ctx, tt.in)
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Code)
			assert.NotEmpty(t, res.Message)
		})
	}

	// Nothing was written.
	assert.Equal(t, models.MembershipActive, e.getMembership(m.ID).Status)
	assert.Equal(t, int64(6000), e.getParticipation(p.ID).AmountPaid)
	assert.Empty(t, e.balances(m.ID))
	assert.Empty(t, e.sender.all())
}

func TestRemoveMembershipNotificationFailureIsSwallowed(t *testing.T) {
	e := newEnv(t)
	e.sender.err = errBroker
	c := e.circle()
	m := e.membership(c, member.ID, models.MembershipActive, 2)

	res := e.orch.RemoveMembership(as(moderator), RemoveMembershipInput{MembershipID: m.ID, Now: testNow})
	assert.True(t, res.Success, res.Message)
	assert.Len(t, e.sender.all(), 1)
	assert.Equal(t, models.MembershipRemoved, e.getMembership(m.ID).Status)
}

// stallingSender blocks until its context ends, like a broker that stopped
// answering.
type stallingSender struct {
	errs chan error
}

func (s stallingSender) Send(ctx context.Context, _ notify.Kind, _ string, _ map[string]string) error {
	<-ctx.Done()
	s.errs <- ctx.Err()
	return ctx.Err()
}

func TestRemoveMembershipNotificationIsBounded(t *testing.T) {
	sender := stallingSender{errs: make(chan error, 1)}
	e := newEnv(t, WithSender(sender), WithNotifyTimeout(50*time.Millisecond))
	c := e.circle()
	m := e.membership(c, member.ID, models.MembershipActive, 2)

	start := time.Now()
	res := e.orch.RemoveMembership(as(moderator), RemoveMembershipInput{MembershipID: m.ID, Now: testNow})
	require.True(t, res.Success, res.Message)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.ErrorIs(t, <-sender.errs, context.DeadlineExceeded)
	assert.Equal(t, models.MembershipRemoved, e.getMembership(m.ID).Status)
}

func TestRestoreMembership(t *testing.T) {
	for _, from := range []models.MembershipStatus{models.MembershipActive, models.MembershipPending} {
		t.Run(string(from), func(t *testing.T) {
			e := newEnv(t)
			c := e.circle()
			m := e.membership(c, member.ID, from, 2)

			require.True(t, e.orch.RemoveMembership(as(moderator), RemoveMembershipInput{MembershipID: m.ID, Now: testNow}).Success)
			res := e.orch.RestoreMembership(as(moderator), RestoreMembershipInput{MembershipID: m.ID, Now: testNow})
			require.True(t, res.Success, res.Message)
			assert.Equal(t, models.MembershipPending, e.getMembership(m.ID).Status)

			sent := e.sender.all()
			require.NotEmpty(t, sent)
			assert.Equal(t, notify.KindMembershipReinvited, sent[len(sent)-1].Kind)
		})
	}
}

func TestRestoreRejections(t *testing.T) {
	e := newEnv(t)
	c := e.circle()
	m := e.membership(c, member.ID, models.MembershipActive, 2)

	res := e.orch.RestoreMembership(as(moderator), RestoreMembershipInput{MembershipID: m.ID, Now: testNow})
	assert.Equal(t, CodeInvalidState, res.Code)

	res = e.orch.RestoreMembership(as(member), RestoreMembershipInput{MembershipID: m.ID, Now: testNow})
	assert.Equal(t, CodeUnauthorized, res.Code)

	// Members learn nothing about which memberships exist.
	res = e.orch.RestoreMembership(as(stranger), RestoreMembershipInput{MembershipID: "missing", Now: testNow})
	assert.Equal(t, CodeUnauthorized, res.Code)
	res = e.orch.RestoreMembership(as(admin), RestoreMembershipInput{MembershipID: "missing", Now: testNow})
	assert.Equal(t, CodeNotFound, res.Code)
	assert.Empty(t, e.sender.all())
}

func TestRejoinReactivatesParticipations(t *testing.T) {
	e := newEnv(t)
	c := e.circle()
	m := e.membership(c, member.ID, models.MembershipActive, 2)
	mt := e.meeting(c, 24*time.Hour, 6000, "PLN")
	p := e.participation(member.ID, mt, models.ParticipationActive, 6000)

	require.True(t, e.orch.RemoveMembership(as(moderator), RemoveMembershipInput{MembershipID: m.ID, Now: testNow}).Success)
	require.True(t, e.orch.RestoreMembership(as(moderator), RestoreMembershipInput{MembershipID: m.ID, Now: testNow}).Success)
	later := e.meeting(c, 96*time.Hour, 6000, "PLN")

	res := e.orch.AcceptMembership(as(member), AcceptMembershipInput{MembershipID: m.ID, Now: testNow})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, models.MembershipActive, e.getMembership(m.ID).Status)

	got := e.getParticipation(p.ID)
	assert.Equal(t, models.ParticipationActive, got.Status)
	assert.Zero(t, got.AmountPaid)

	var ids []string
	e.tx(func(ctx context.Context, tx storage.Tx) error {
		list, err := tx.ListFutureParticipations(ctx, member.ID, c.ID, testNow)
		for _, d := range list {
			ids = append(ids, d.MeetingID)
		}
		return err
	})
	assert.ElementsMatch(t, []string{mt.ID, later.ID}, ids)

	// The refund from the removal is still there, not re-credited.
	assert.Equal(t, map[string]int64{"PLN": 6000}, e.balances(m.ID))
}

func TestAcceptRejections(t *testing.T) {
	e := newEnv(t)
	c := e.circle()
	m := e.membership(c, member.ID, models.MembershipPending, 2)

	assert.Equal(t, CodeUnauthorized, e.orch.AcceptMembership(as(stranger), AcceptMembershipInput{MembershipID: m.ID, Now: testNow}).Code)
	require.True(t, e.orch.AcceptMembership(as(moderator), AcceptMembershipInput{MembershipID: m.ID, Now: testNow}).Success)
	assert.Equal(t, CodeInvalidState, e.orch.AcceptMembership(as(member), AcceptMembershipInput{MembershipID: m.ID, Now: testNow}).Code)
}

func TestLeaveCircle(t *testing.T) {
	e := newEnv(t)
	c := e.circle()
	m := e.membership(c, member.ID, models.MembershipActive, 2)
	p := e.participation(member.ID, e.meeting(c, 24*time.Hour, 6000, "PLN"), models.ParticipationActive, 6000)

	assert.Equal(t, CodeUnauthorized, e.orch.LeaveCircle(as(moderator), LeaveCircleInput{MembershipID: m.ID, Now: testNow}).Code)

	res := e.orch.LeaveCircle(as(member), LeaveCircleInput{MembershipID: m.ID, Now: testNow})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, models.MembershipLeft, e.getMembership(m.ID).Status)
	assert.Equal(t, models.ParticipationCancelled, e.getParticipation(p.ID).Status)
	assert.Equal(t, map[string]int64{"PLN": 6000}, e.balances(m.ID))

	sent := e.sender.all()
	require.Len(t, sent, 1)
	assert.Equal(t, notify.KindMembershipLeft, sent[0].Kind)
	assert.Equal(t, moderator.ID, sent[0].Recipient)

	// Left is terminal.
	assert.Equal(t, CodeInvalidState, e.orch.RestoreMembership(as(admin), RestoreMembershipInput{MembershipID: m.ID, Now: testNow}).Code)
	assert.Equal(t, CodeInvalidState, e.orch.RemoveMembership(as(admin), RemoveMembershipInput{MembershipID: m.ID, Now: testNow}).Code)
}

func TestInviteMember(t *testing.T) {
	e := newEnv(t, WithInitialVacationDays(4))
	c := e.circle()

	res := e.orch.InviteMember(as(moderator), InviteMemberInput{CircleID: c.ID, UserID: "u2", Now: testNow})
	require.True(t, res.Success, res.Message)
	m := e.getMembership(res.ID)
	assert.Equal(t, models.MembershipPending, m.Status)
	assert.Equal(t, 4, m.VacationDays)

	again := e.orch.InviteMember(as(moderator), InviteMemberInput{CircleID: c.ID, UserID: "u2", Now: testNow})
	assert.Equal(t, CodeInvalidState, again.Code)

	assert.Equal(t, CodeUnauthorized, e.orch.InviteMember(as(member), InviteMemberInput{CircleID: c.ID, UserID: "u3", Now: testNow}).Code)
	assert.True(t, e.orch.InviteMember(as(member), InviteMemberInput{CircleID: c.ID, UserID: member.ID, Now: testNow}).Success)

	bad := e.orch.InviteMember(as(moderator), InviteMemberInput{Now: testNow})
	assert.Equal(t, CodeInvalidArgument, bad.Code)
	assert.Contains(t, bad.FieldErrors, "circleId")
	assert.Contains(t, bad.FieldErrors, "userId")
}

func TestGetMembership(t *testing.T) {
	e := newEnv(t)
	c := e.circle()
	m := e.membership(c, member.ID, models.MembershipActive, 2)
	e.participation(member.ID, e.meeting(c, 24*time.Hour, 6000, "PLN"), models.ParticipationActive, 6000)
	require.True(t, e.orch.RemoveMembership(as(moderator), RemoveMembershipInput{MembershipID: m.ID, Now: testNow}).Success)

	view, res := e.orch.GetMembership(as(member), m.ID)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, models.MembershipRemoved, view.Membership.Status)
	require.Len(t, view.Balances, 1)
	assert.Equal(t, int64(6000), view.Balances[0].Amount)

	_, res = e.orch.GetMembership(as(stranger), m.ID)
	assert.Equal(t, CodeUnauthorized, res.Code)

	balances, res := e.orch.ListBalances(as(admin), m.ID)
	require.True(t, res.Success)
	assert.Len(t, balances, 1)
}

func TestStoreFailureAsksToRetry(t *testing.T) {
	e := newEnv(t)
	c := e.circle()
	m := e.membership(c, member.ID, models.MembershipActive, 2)
	require.NoError(t, e.store.Close())

	res := e.orch.RemoveMembership(as(moderator), RemoveMembershipInput{MembershipID: m.ID, Now: testNow})
	assert.False(t, res.Success)
	assert.Equal(t, CodePersistenceFailure, res.Code)
	assert.Contains(t, res.Message, "try again")
}
