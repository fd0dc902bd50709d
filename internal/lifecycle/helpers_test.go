package lifecycle

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mmynk/circles/internal/auth"
	"github.com/mmynk/circles/internal/models"
	"github.com/mmynk/circles/internal/notify"
	"github.com/mmynk/circles/internal/storage"
	"github.com/mmynk/circles/internal/storage/sqlstore"
)

var (
	testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	admin     = auth.Actor{ID: "admin", Roles: []auth.Role{auth.RoleAdmin}}
	moderator = auth.Actor{ID: "mod", Roles: []auth.Role{auth.RoleModerator}}
	otherMod  = auth.Actor{ID: "mod2", Roles: []auth.Role{auth.RoleModerator}}
	member    = auth.Actor{ID: "u1", Roles: []auth.Role{auth.RoleMember}}
	stranger  = auth.Actor{ID: "u9", Roles: []auth.Role{auth.RoleMember}}
)

type sentNotification struct {
	Kind      notify.Kind
	Recipient string
	Data      map[string]string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (s *recordingSender) Send(_ context.Context, kind notify.Kind, recipient string, data map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentNotification{kind, recipient, data})
	return s.err
}

func (s *recordingSender) all() []sentNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentNotification(nil), s.sent...)
}

type env struct {
	t      *testing.T
	store  *sqlstore.Store
	orch   *Orchestrator
	sender *recordingSender
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()
	store, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sender := &recordingSender{}
	opts = append([]Option{WithSender(sender)}, opts...)
	return &env{
		t:      t,
		store:  store,
		orch:   New(store, auth.ContextResolver{}, opts...),
		sender: sender,
	}
}

func as(actor auth.Actor) context.Context {
	return auth.WithActor(context.Background(), actor)
}

func (e *env) tx(fn func(ctx context.Context, tx storage.Tx) error) {
	e.t.Helper()
	ctx := context.Background()
	require.NoError(e.t, e.store.WithTx(ctx, func(tx storage.Tx) error { return fn(ctx, tx) }))
}

func (e *env) circle() *models.Circle {
	c := &models.Circle{ModeratorID: moderator.ID, MaxMembers: 10, Price: 6000, Currency: "PLN", CreatedAt: testNow}
	e.tx(func(ctx context.Context, tx storage.Tx) error { return tx.CreateCircle(ctx, c) })
	return c
}

func (e *env) membership(circle *models.Circle, userID string, status models.MembershipStatus, days int) *models.Membership {
	m := &models.Membership{UserID: userID, CircleID: circle.ID, Status: status, VacationDays: days, CreatedAt: testNow}
	e.tx(func(ctx context.Context, tx storage.Tx) error { return tx.CreateMembership(ctx, m) })
	return m
}

func (e *env) meeting(circle *models.Circle, startIn time.Duration, price int64, currency string) *models.Meeting {
	mt := &models.Meeting{
		CircleID:  circle.ID,
		StartTime: testNow.Add(startIn),
		EndTime:   testNow.Add(startIn + 2*time.Hour),
		Price:     price,
		Currency:  currency,
		Status:    models.MeetingScheduled,
	}
	e.tx(func(ctx context.Context, tx storage.Tx) error { return tx.CreateMeeting(ctx, mt) })
	return mt
}

func (e *env) participation(userID string, meeting *models.Meeting, status models.ParticipationStatus, paid int64) *models.Participation {
	p := &models.Participation{UserID: userID, MeetingID: meeting.ID}
	e.tx(func(ctx context.Context, tx storage.Tx) error {
		if err := tx.ActivateParticipation(ctx, p); err != nil {
			return err
		}
		prev := *p
		p.Status = status
		p.AmountPaid = paid
		if prev == *p {
			return nil
		}
		return tx.UpdateParticipation(ctx, p, prev)
	})
	return p
}

func (e *env) getMembership(id string) *models.Membership {
	m, err := e.store.GetMembership(context.Background(), id)
	require.NoError(e.t, err)
	return m
}

func (e *env) getParticipation(id string) *models.ParticipationDetail {
	p, err := e.store.GetParticipation(context.Background(), id)
	require.NoError(e.t, err)
	return p
}

func (e *env) balances(membershipID string) map[string]int64 {
	list, err := e.store.ListBalances(context.Background(), models.MembershipHolder(membershipID))
	require.NoError(e.t, err)
	out := map[string]int64{}
	for _, b := range list {
		out[b.Currency] = b.Amount
	}
	return out
}

var errBroker = errors.New("broker unavailable")
